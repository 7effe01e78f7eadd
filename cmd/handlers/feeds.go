package handlers

import (
	"fmt"
	"net/url"

	"researchpub/internal/feeds"

	"github.com/spf13/cobra"
)

// NewFeedsCmd creates the feed helper command
func NewFeedsCmd() *cobra.Command {
	feedsCmd := &cobra.Command{
		Use:   "feeds",
		Short: "Helpers for configuring blog feeds",
	}
	feedsCmd.AddCommand(newFeedsDiscoverCmd())
	return feedsCmd
}

func newFeedsDiscoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "discover <url>",
		Short: "Find RSS and Atom feeds advertised by a site",
		Long: `Find the feeds a site advertises and print them in the form expected by
sources.blogs.feeds in researchpub.yaml.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client := feeds.NewClient(cfg.Sources.Timeout)
			urls, err := client.Discover(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(urls) == 0 {
				fmt.Fprintln(out, warnStyle.Render("No feeds found"))
				return nil
			}
			printTitle(out, fmt.Sprintf("🔎 Found %d feed(s)", len(urls)))
			for _, u := range urls {
				name := feedName(u)
				if feed, err := client.Fetch(cmd.Context(), u, "", ""); err == nil && feed.Title != "" {
					name = feed.Title
				}
				fmt.Fprintf(out, "  - name: %q\n    url: %s\n    priority: medium\n", name, u)
			}
			return nil
		},
	}
}

func feedName(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil || u.Host == "" {
		return feedURL
	}
	return u.Host
}
