package handlers

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"researchpub/internal/pipeline"
	"researchpub/internal/publishers"

	"github.com/spf13/cobra"
)

// NewPublishCmd creates the publish command
func NewPublishCmd() *cobra.Command {
	var (
		platform string
		yes      bool
	)

	cmd := &cobra.Command{
		Use:   "publish <draft-id>",
		Short: "Publish a draft to GitHub Pages, LinkedIn or Medium",
		Long: `Publish a stored draft. Without --platform the draft's format decides:
blog → github_pages, linkedin → linkedin, medium → medium.

The outcome is recorded on the draft: published with its URL, or failed
with the error.

Examples:
  researchpub publish 3f1c2a9e-... --yes
  researchpub publish 3f1c2a9e-... --platform medium`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			draftID := args[0]
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			st, closeStore, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			d, err := st.GetDraft(cmd.Context(), draftID)
			if err != nil {
				return err
			}
			target := platform
			if target == "" {
				target = publishers.DefaultPlatform(d.Format)
			}

			if !yes {
				question := fmt.Sprintf("Publish %q (%s) to %s?", d.Title, d.Format, target)
				if !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), question) {
					fmt.Fprintln(cmd.OutOrStdout(), "Publish cancelled")
					return nil
				}
			}

			p, err := pipeline.NewBuilder(cfg).WithStore(st).Build(cmd.Context())
			if err != nil {
				return err
			}
			res, err := p.Publish(cmd.Context(), draftID, target)
			if err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), errStyle.Render("❌ Publish failed"))
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", okStyle.Render("✅ Published to "+res.Platform+":"), res.URL)
			return nil
		},
	}

	cmd.Flags().StringVarP(&platform, "platform", "p", "", "github_pages, linkedin or medium (default from draft format)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")

	return cmd
}

// confirm asks a yes/no question, defaulting to no
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "⚠️  %s [y/N]: ", question)
	line, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
