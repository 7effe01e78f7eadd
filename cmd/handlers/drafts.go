package handlers

import (
	"fmt"
	"io"

	"researchpub/internal/core"
	"researchpub/internal/pipeline"
	"researchpub/internal/store"

	"github.com/spf13/cobra"
)

// NewDraftsCmd creates the draft listing command
func NewDraftsCmd() *cobra.Command {
	var (
		status string
		format string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "drafts",
		Short: "List generated drafts",
		Long: `List drafts newest first, optionally filtered by status
(draft, approved, published, failed) and format (blog, linkedin, medium).`,
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

			drafts, err := st.ListDrafts(cmd.Context(), store.ListOptions{Status: status, Format: format, Limit: limit})
			if err != nil {
				return err
			}
			printDrafts(cmd.OutOrStdout(), drafts)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().StringVar(&format, "format", "", "filter by format")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum drafts to list")

	return cmd
}

// NewApproveCmd creates the draft approval command
func NewApproveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve <draft-id>",
		Short: "Mark a reviewed draft as approved",
		Args:  cobra.ExactArgs(1),
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
			if err := p.Approve(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Draft %s approved\n", args[0])
			return nil
		},
	}
}

func printDrafts(w io.Writer, drafts []*core.Draft) {
	if len(drafts) == 0 {
		fmt.Fprintln(w, dimStyle.Render("No drafts found"))
		return
	}
	printTitle(w, fmt.Sprintf("📄 Drafts (%d)", len(drafts)))
	rows := make([][]string, 0, len(drafts))
	for _, d := range drafts {
		note := d.PublishedURL
		if note == "" {
			note = d.Error
		}
		rows = append(rows, []string{
			d.ID,
			d.Format,
			statusStyle(d.Status).Render(d.Status),
			truncate(d.Title, 50),
			d.CreatedAt.Local().Format("2006-01-02 15:04"),
			truncate(note, 50),
		})
	}
	fmt.Fprintln(w, renderTable([]string{"ID", "Format", "Status", "Title", "Created", "URL / note"}, rows))
}
