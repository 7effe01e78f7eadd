package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"researchpub/internal/core"
	"researchpub/internal/llm"
	"researchpub/internal/store"
	"researchpub/internal/trends"

	"github.com/spf13/cobra"
)

// NewTrendsCmd creates the trend discovery command
func NewTrendsCmd() *cobra.Command {
	var (
		force     bool
		save      bool
		asJSON    bool
		maxTrends int
	)

	cmd := &cobra.Command{
		Use:   "trends",
		Short: "Ask the model which topics in recently ranked content are trending",
		Long: `Summarise the highest ranked stored items, ask the configured model which
emerging topics are worth covering and rank its answer.

Discovery runs at most once per trend_discovery.interval_hours unless --force
is given. With --save the discovered trends are stored as ranked items so that
'generate --item <id>' can write about them.

Examples:
  researchpub trends
  researchpub trends --force --save --max 3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			st, closeStore, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			ctx := cmd.Context()
			stored, err := st.ListItems(ctx, store.ListOptions{Status: core.ItemStatusRanked})
			if err != nil {
				return err
			}
			recent := make([]*core.ContentItem, 0, len(stored))
			for _, s := range stored {
				if s.Item.Source != core.SourceTrends {
					recent = append(recent, s.Item)
				}
			}
			if len(recent) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), warnStyle.Render("No ranked items to analyze, run 'researchpub fetch' first"))
				return nil
			}

			gen, err := llm.New(ctx, cfg.LLM, st)
			if err != nil {
				return fmt.Errorf("failed to create llm client: %w", err)
			}

			opts := trends.OptionsFromConfig(cfg.Trends)
			if maxTrends > 0 {
				opts.MaxTrends = maxTrends
			}
			scheduler := trends.NewScheduler(trends.NewDiscoverer(gen, opts), st, cfg.Trends.Interval())

			report, err := scheduler.Run(ctx, recent, force)
			if errors.Is(err, trends.ErrNotDue) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n", dimStyle.Render(fmt.Sprintf("⏭️  Skipping trend discovery (%v), use --force to run anyway", err)))
				return nil
			}
			if err != nil {
				return err
			}

			var saved []*core.ContentItem
			if save && len(report.Trends) > 0 {
				now := time.Now()
				for _, t := range report.Trends {
					saved = append(saved, trends.ToContentItem(t, now))
				}
				if err := st.SaveItems(ctx, saved); err != nil {
					return err
				}
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printTrends(cmd.OutOrStdout(), report)
			printSavedTrends(cmd.OutOrStdout(), saved)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "run even if discovery ran within the configured interval")
	cmd.Flags().BoolVar(&save, "save", false, "store discovered trends as ranked items")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	cmd.Flags().IntVar(&maxTrends, "max", 0, "maximum trends to return (default from config)")

	return cmd
}

func printTrends(w io.Writer, r *trends.Report) {
	if len(r.Trends) == 0 {
		fmt.Fprintln(w, dimStyle.Render("No trends discovered"))
		return
	}
	printTitle(w, fmt.Sprintf("📈 Trends from %d recent items", r.Analyzed))
	rows := make([][]string, 0, len(r.Trends))
	for i, t := range r.Trends {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			truncate(t.Topic, 40),
			t.Category,
			strconv.FormatFloat(t.CompositeScore, 'f', 1, 64),
			strconv.Itoa(t.Mentions),
			truncate(t.WhyNow, 60),
		})
	}
	fmt.Fprintln(w, renderTable([]string{"#", "Topic", "Category", "Score", "Mentions", "Why now"}, rows))
	if r.Recommendation != "" {
		fmt.Fprintf(w, "\n💡 %s\n", r.Recommendation)
	}
}

func printSavedTrends(w io.Writer, items []*core.ContentItem) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintln(w)
	for _, item := range items {
		fmt.Fprintf(w, "%s %s\n", okStyle.Render("✅ Saved"), item.ID)
	}
}
