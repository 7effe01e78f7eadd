package handlers

import (
	"fmt"
	"io"
	"time"

	"researchpub/internal/core"

	"github.com/spf13/cobra"
)

// NewCacheCmd creates the cache management command
func NewCacheCmd() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the LLM response cache",
		Long:  `Inspect and clean the SQLite cache of LLM responses.`,
	}

	cacheCmd.AddCommand(newCacheStatsCmd())
	cacheCmd.AddCommand(newCacheClearCmd())

	return cacheCmd
}

func newCacheStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
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

			stats, err := st.CacheStats(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get cache statistics: %w", err)
			}
			printCacheStats(cmd.OutOrStdout(), stats, st.Path())
			return nil
		},
	}
}

func newCacheClearCmd() *cobra.Command {
	var (
		olderThan time.Duration
		yes       bool
	)

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove cached LLM responses",
		Long: `Remove cached LLM responses. With --older-than only entries older than the
given age are removed, e.g. --older-than 168h.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				question := "This will remove all cached LLM responses. Continue?"
				if olderThan > 0 {
					question = fmt.Sprintf("This will remove cached LLM responses older than %s. Continue?", olderThan)
				}
				if !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), question) {
					fmt.Fprintln(cmd.OutOrStdout(), "Cache clear cancelled")
					return nil
				}
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

			n, err := st.ClearCache(cmd.Context(), olderThan)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Removed %d cached responses\n", n)
			return nil
		},
	}

	clearCmd.Flags().DurationVar(&olderThan, "older-than", 0, "only remove entries older than this age")
	clearCmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return clearCmd
}

func printCacheStats(w io.Writer, stats core.CacheStats, path string) {
	printTitle(w, "📊 Cache Statistics")
	fmt.Fprintf(w, "🗄️  Database: %s\n", path)
	fmt.Fprintf(w, "📝 Responses cached: %d\n", stats.Entries)
	fmt.Fprintf(w, "💾 Cache size: %.2f KB\n", float64(stats.SizeBytes)/1024)
	if stats.Entries > 0 {
		fmt.Fprintf(w, "📅 Oldest entry: %s\n", stats.Oldest.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(w, "📅 Newest entry: %s\n", stats.Newest.Local().Format("2006-01-02 15:04:05"))
	}
}
