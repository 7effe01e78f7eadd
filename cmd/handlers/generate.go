package handlers

import (
	"fmt"
	"io"
	"strings"

	"researchpub/internal/analyzer"
	"researchpub/internal/config"
	"researchpub/internal/cost"
	"researchpub/internal/pipeline"
	"researchpub/internal/store"

	"github.com/spf13/cobra"
)

// NewGenerateCmd creates the draft generation command
func NewGenerateCmd() *cobra.Command {
	var (
		count    int
		formats  []string
		itemIDs  []string
		estimate bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Analyze the top ranked items and write drafts",
		Long: `Run the staged LLM analysis over the highest ranked stored items and write
blog, LinkedIn and Medium drafts to the output directory.

A failing stage or item is reported and skipped; the rest of the batch
continues. LinkedIn drafts that fail the safety review are kept and flagged.

Examples:
  # Blog and LinkedIn drafts for the top five items
  researchpub generate

  # Every format for the top two
  researchpub generate --count 2 --format all

  # A specific item
  researchpub generate --item arxiv_2410.01234 --format medium

  # Estimate tokens and cost without calling the provider
  researchpub generate --count 10 --format all --estimate`,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := pipeline.ParseFormats(formats)
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			st, closeStore, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			opts := pipeline.GenerateOptions{Count: count, Formats: parsed, ItemIDs: itemIDs}
			if estimate {
				return runEstimate(cmd, cfg, st, opts)
			}

			p, err := pipeline.NewBuilder(cfg).WithStore(st).WithLLM().Build(cmd.Context())
			if err != nil {
				return err
			}

			res, err := p.Generate(cmd.Context(), opts)
			if err != nil {
				return err
			}
			printGenerate(cmd.OutOrStdout(), res)
			if res.Succeeded == 0 && res.Failed > 0 {
				return fmt.Errorf("all %d items failed", res.Failed)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 5, "number of top ranked items to process")
	cmd.Flags().StringSliceVarP(&formats, "format", "f", nil, "draft formats: blog, linkedin, medium, both or all (default blog,linkedin)")
	cmd.Flags().StringSliceVar(&itemIDs, "item", nil, "process these item IDs instead of the top ranked ones")
	cmd.Flags().BoolVar(&estimate, "estimate", false, "print a token and cost estimate instead of generating")

	return cmd
}

func runEstimate(cmd *cobra.Command, cfg *config.Config, st *store.Store, opts pipeline.GenerateOptions) error {
	p, err := pipeline.NewBuilder(cfg).WithStore(st).Build(cmd.Context())
	if err != nil {
		return err
	}
	items, err := p.SelectItems(cmd.Context(), opts)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), warnStyle.Render("No ranked items to estimate, run 'researchpub fetch' first"))
		return nil
	}

	est, err := cost.Estimate(cmd.Context(), items, cost.Plan{
		Stages:           cfg.Stages,
		Formats:          opts.Formats,
		Analyzer:         analyzer.OptionsFromConfig(cfg.Formatting),
		ValidateSafety:   cfg.Formatting.LinkedIn.ValidateSafety,
		ArxivEnhancement: cfg.LLM.ArxivEnhancement,
		StageTokens:      cfg.LLM.GenerationParams.MaxTokens,
	}, cfg.LLM.Model, cfg.LLM.RateLimiting.RequestsPerMinute)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), est.Format())
	return nil
}

func printGenerate(w io.Writer, res *pipeline.GenerateResult) {
	printTitle(w, "📝 Generated drafts")
	rows := make([][]string, 0, len(res.Items))
	for _, o := range res.Items {
		var status, detail string
		switch {
		case o.Skipped != "":
			status = warnStyle.Render("skipped")
			detail = o.Skipped
		case o.Err != nil && len(o.Drafts) == 0:
			status = errStyle.Render("failed")
			detail = o.Err.Error()
		case o.Err != nil:
			status = warnStyle.Render("partial")
			detail = o.Err.Error()
		default:
			status = okStyle.Render("ok")
		}
		var paths []string
		for _, d := range o.Drafts {
			paths = append(paths, d.Format+": "+d.ID)
		}
		detail = truncate(detail, 80)
		if detail == "" {
			detail = strings.Join(paths, "\n")
		}
		rows = append(rows, []string{truncate(o.Title, 50), status, detail})
	}
	if len(rows) > 0 {
		fmt.Fprintln(w, renderTable([]string{"Item", "Status", "Drafts / reason"}, rows))
	}
	fmt.Fprintf(w, "✅ %d succeeded  ❌ %d failed  ⏭️  %d skipped  📄 %d drafts", res.Succeeded, res.Failed, res.Skipped, res.Drafts)
	if res.Flagged > 0 {
		fmt.Fprint(w, warnStyle.Render(fmt.Sprintf("  ⚠️  %d flagged by safety review", res.Flagged)))
	}
	fmt.Fprintln(w)
}
