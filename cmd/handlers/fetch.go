package handlers

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"researchpub/internal/pipeline"

	"github.com/spf13/cobra"
)

// NewFetchCmd creates the collect command
func NewFetchCmd() *cobra.Command {
	var (
		only []string
		top  int
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Collect, filter, deduplicate and rank content from every enabled source",
		Long: `Fetch items from arXiv, GitHub, Hacker News and the configured blogs, keep
the relevant ones, drop duplicates, rank the rest and store them for 'generate'.

Examples:
  # Collect from every enabled source
  researchpub fetch

  # Only arXiv and Hacker News, show the best 20
  researchpub fetch --source arxiv --source hackernews --top 20`,
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

			p, err := pipeline.NewBuilder(cfg).WithStore(st).Build(cmd.Context())
			if err != nil {
				return err
			}

			res, err := p.Collect(cmd.Context(), pipeline.CollectOptions{Sources: only})
			if err != nil {
				return err
			}
			printCollect(cmd.OutOrStdout(), res, top)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&only, "source", nil, "limit collection to these sources (arxiv, github, hackernews, blogs)")
	cmd.Flags().IntVar(&top, "top", 10, "number of ranked items to print")

	return cmd
}

func printCollect(w io.Writer, res *pipeline.CollectResult, top int) {
	printTitle(w, "📡 Sources")
	rows := make([][]string, 0, len(res.Sources))
	for _, r := range res.Sources {
		status := okStyle.Render("ok")
		if r.Err != nil {
			status = errStyle.Render(truncate(r.Err.Error(), 60))
		}
		rows = append(rows, []string{r.Source, strconv.Itoa(r.Items), r.Duration.Round(time.Millisecond).String(), status})
	}
	fmt.Fprintln(w, renderTable([]string{"Source", "Items", "Took", "Status"}, rows))

	fmt.Fprintf(w, "Fetched %d → relevant %d → unique %d\n\n", res.Fetched, res.Relevant, res.Unique)

	if len(res.Items) == 0 {
		fmt.Fprintln(w, warnStyle.Render("No items survived filtering"))
		return
	}

	printTitle(w, "🏆 Top ranked")
	items := res.Items
	if top > 0 && len(items) > top {
		items = items[:top]
	}
	rows = rows[:0]
	for i, it := range items {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			fmt.Sprintf("%.2f", it.Score),
			it.Source,
			truncate(it.Title, 70),
			it.ID,
		})
	}
	fmt.Fprintln(w, renderTable([]string{"#", "Score", "Source", "Title", "ID"}, rows))
}
