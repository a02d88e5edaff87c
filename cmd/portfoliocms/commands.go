package main

import (
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"PortfolioCMS/internal/app"
	"PortfolioCMS/internal/config"
	"PortfolioCMS/internal/logging"
	"PortfolioCMS/internal/topics"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "portfoliocms",
		Short:        "Marketing site backend with an AI blog scheduler",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newGenerateCmd(), newTopicsCmd())
	return root
}

// loadConfig reads configuration and installs the process-wide logger.
func loadConfig() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the blog scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			application, err := app.New(cmd.Context(), cfg, logger)
			if err != nil {
				logger.Error("startup failed", "error", err)
				return err
			}
			defer func() {
				if err := application.Close(); err != nil {
					logger.Warn("close failed", "error", err)
				}
			}()

			if err := application.Serve(cmd.Context()); err != nil {
				logger.Error("application stopped", "error", err)
				return err
			}
			logger.Info("application stopped")
			return nil
		},
	}
}

func newGenerateCmd() *cobra.Command {
	var (
		count   int
		publish bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate blog posts once and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if count < 1 || count > 10 {
				return fmt.Errorf("--count must be between 1 and 10, got %d", count)
			}
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			application, err := app.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = application.Close() }()

			articles, err := application.Generate(cmd.Context(), count, publish)
			for _, a := range articles {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", a.ID, a.Slug, a.Title)
			}
			if err != nil {
				return err
			}
			logger.Info("generation finished", "requested", count, "created", len(articles), "published", publish)
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of posts to generate (1-10)")
	cmd.Flags().BoolVar(&publish, "publish", false, "publish immediately instead of saving drafts")
	return cmd
}

func newTopicsCmd() *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "topics",
		Short: "List the topic catalog the generator draws from",
		RunE: func(cmd *cobra.Command, _ []string) error {
			categories := topics.Categories
			if category != "" {
				c := topics.Category(category)
				if !c.Known() {
					return fmt.Errorf("unknown category %q", category)
				}
				categories = []topics.Category{c}
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, c := range categories {
				for _, title := range c.Topics() {
					fmt.Fprintf(w, "%s\t%s\t%s\n", c, topics.DifficultyOf(title), title)
				}
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "only list topics of this category")
	return cmd
}
