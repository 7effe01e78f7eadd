package handlers

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"researchpub/internal/core"

	"github.com/spf13/cobra"
)

// NewRunsCmd creates the run history command
func NewRunsCmd() *cobra.Command {
	var (
		kind  string
		limit int
		days  int
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent collect, generate and publish runs",
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

			if days <= 0 {
				runs, err := st.ListRuns(cmd.Context(), kind, limit)
				if err != nil {
					return err
				}
				printRuns(cmd.OutOrStdout(), runs)
				return nil
			}

			all, err := st.ListRuns(cmd.Context(), "", 0)
			if err != nil {
				return err
			}
			since := time.Now().Add(-time.Duration(days) * 24 * time.Hour)
			var shown []*core.Run
			for _, r := range all {
				if r.StartedAt.Before(since) || (kind != "" && r.Kind != kind) {
					continue
				}
				if limit > 0 && len(shown) == limit {
					break
				}
				shown = append(shown, r)
			}
			printRuns(cmd.OutOrStdout(), shown)
			printRunSummary(cmd.OutOrStdout(), days, summarizeRuns(all, since))
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "collect, generate or publish")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to show")
	cmd.Flags().IntVar(&days, "days", 0, "only show runs from the last N days and print totals")

	return cmd
}

func printRuns(w io.Writer, runs []*core.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, dimStyle.Render("No runs recorded yet"))
		return
	}
	printTitle(w, "🕒 Recent runs")
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		failed := strconv.Itoa(r.Failed)
		if r.Failed > 0 {
			failed = errStyle.Render(failed)
		}
		rows = append(rows, []string{
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Kind,
			r.FinishedAt.Sub(r.StartedAt).Round(100 * time.Millisecond).String(),
			strconv.Itoa(r.Processed),
			strconv.Itoa(r.Succeeded),
			failed,
			truncate(r.Notes, 60),
		})
	}
	fmt.Fprintln(w, renderTable([]string{"Started", "Kind", "Took", "Processed", "Succeeded", "Failed", "Notes"}, rows))
}

// runSummary totals pipeline activity over a time window.
type runSummary struct {
	Fetched   int
	Generated int
	Published int
}

// ConversionRate is the share of fetched items that were published, in percent.
func (s runSummary) ConversionRate() (float64, bool) {
	if s.Fetched == 0 {
		return 0, false
	}
	return float64(s.Published) / float64(s.Fetched) * 100, true
}

func summarizeRuns(runs []*core.Run, since time.Time) runSummary {
	var s runSummary
	for _, r := range runs {
		if r.StartedAt.Before(since) {
			continue
		}
		switch r.Kind {
		case core.RunKindCollect:
			s.Fetched += r.Processed
		case core.RunKindGenerate:
			s.Generated += r.Succeeded
		case core.RunKindPublish:
			s.Published += r.Succeeded
		}
	}
	return s
}

func printRunSummary(w io.Writer, days int, s runSummary) {
	printTitle(w, fmt.Sprintf("📊 Totals (last %d days)", days))
	fmt.Fprintf(w, "  Items fetched: %d\n", s.Fetched)
	fmt.Fprintf(w, "  Content generated: %d\n", s.Generated)
	fmt.Fprintf(w, "  Content published: %d\n", s.Published)
	if rate, ok := s.ConversionRate(); ok {
		fmt.Fprintf(w, "  Conversion rate: %.1f%%\n", rate)
	}
}
