package handlers

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"researchpub/internal/config"
	"researchpub/internal/logger"
	"researchpub/internal/store"

	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
	verbose  bool
)

// NewRootCmd creates the researchpub command tree
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "researchpub",
		Short: "Turn fresh AI/ML research into reviewed blog and LinkedIn drafts",
		Long: `researchpub - AI Research Publisher

Collects papers, repositories, blog posts and Hacker News stories, keeps the
relevant ones, removes duplicates, ranks what is left and runs a staged LLM
analysis to produce blog, LinkedIn and Medium drafts for review.

Core workflows:
  • Collect: fetch → relevance filter → dedup → rank → store
  • Generate: top ranked items → staged analysis → formatted drafts
  • Publish: approved draft → GitHub Pages, LinkedIn or Medium

Examples:
  # Collect and show the ten best items
  researchpub fetch --top 10

  # Draft blog and LinkedIn posts for the top three
  researchpub generate --count 3

  # Review and publish
  researchpub drafts --status draft
  researchpub publish 3f1c... --platform linkedin`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./researchpub.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(NewFetchCmd())
	rootCmd.AddCommand(NewGenerateCmd())
	rootCmd.AddCommand(NewValidateCmd())
	rootCmd.AddCommand(NewDraftsCmd())
	rootCmd.AddCommand(NewApproveCmd())
	rootCmd.AddCommand(NewPublishCmd())
	rootCmd.AddCommand(NewServeCmd())
	rootCmd.AddCommand(NewCacheCmd())
	rootCmd.AddCommand(NewRunsCmd())
	rootCmd.AddCommand(NewFeedsCmd())
	rootCmd.AddCommand(NewTrendsCmd())

	return rootCmd
}

// Execute runs the root command with SIGINT and SIGTERM cancelling the context
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// loadConfig reads the configuration and initializes logging from it
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	initLogging(cfg)
	return cfg, nil
}

func initLogging(cfg *config.Config) {
	opts := logger.Options{Level: cfg.App.LogLevel, Format: cfg.App.LogFormat}
	if logLevel != "" {
		opts.Level = logLevel
	}
	if verbose {
		opts.Level = "debug"
	}
	logger.Init(opts)
}

// openStore opens the SQLite store in the configured data directory
func openStore(cfg *config.Config) (*store.Store, func(), error) {
	st, err := store.NewStore(cfg.App.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}
	closeFn := func() {
		if err := st.Close(); err != nil {
			logger.Error("Failed to close store", err)
		}
	}
	return st, closeFn, nil
}
