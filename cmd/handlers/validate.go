package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"researchpub/internal/analyzer"
	"researchpub/internal/llm"
	"researchpub/internal/logger"

	"github.com/spf13/cobra"
)

var errNotApproved = errors.New("post not approved for publishing")

// NewValidateCmd creates the LinkedIn safety review command
func NewValidateCmd() *cobra.Command {
	var (
		heuristic bool
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Review a LinkedIn post for professional and safety issues",
		Long: `Run the LinkedIn safety review over a post on disk. The LLM review is used
when a provider is configured; otherwise, or with --heuristic, the local
rule-based review runs instead.

Exits non-zero when the post is not approved.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read post: %w", err)
			}
			post := strings.TrimSpace(string(data))

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			var report analyzer.ValidationReport
			if heuristic {
				report = analyzer.HeuristicValidation(post, cfg.Formatting.LinkedIn.ProfanityList)
			} else {
				gen, err := llm.New(cmd.Context(), cfg.LLM, nil)
				switch {
				case errors.Is(err, llm.ErrMissingAPIKey):
					logger.Warn("No LLM credentials, using heuristic review")
					report = analyzer.HeuristicValidation(post, cfg.Formatting.LinkedIn.ProfanityList)
				case err != nil:
					return fmt.Errorf("failed to create llm client: %w", err)
				default:
					a := analyzer.New(gen, cfg.Stages, analyzer.OptionsFromConfig(cfg.Formatting))
					report = a.ValidateLinkedInSafety(cmd.Context(), post)
				}
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				printReport(cmd.OutOrStdout(), report)
			}
			if !report.Approved {
				return errNotApproved
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&heuristic, "heuristic", false, "skip the LLM and use the rule-based review")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")

	return cmd
}

func printReport(w io.Writer, r analyzer.ValidationReport) {
	printTitle(w, "🛡️  LinkedIn safety review")
	verdict := okStyle.Render("approved")
	if !r.Approved {
		verdict = errStyle.Render("rejected")
	}
	fmt.Fprintf(w, "Verdict: %s  Score: %d/100  Method: %s\n", verdict, r.ValidationScore, r.Method)
	if r.Summary != "" {
		fmt.Fprintf(w, "Summary: %s\n", r.Summary)
	}
	if len(r.Issues) == 0 {
		fmt.Fprintln(w, okStyle.Render("No issues found"))
		return
	}
	rows := make([][]string, 0, len(r.Issues))
	for _, is := range r.Issues {
		rows = append(rows, []string{severityStyle(is.Severity).Render(is.Severity), is.Category, truncate(is.Issue, 60), truncate(is.Suggestion, 60)})
	}
	fmt.Fprintln(w, renderTable([]string{"Severity", "Category", "Issue", "Suggestion"}, rows))
}
