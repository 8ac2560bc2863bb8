package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/cinesearch/internal/config"
	"github.com/kailas-cloud/cinesearch/internal/metrics"
	catalogrepo "github.com/kailas-cloud/cinesearch/internal/repository/catalog"
	cataloguc "github.com/kailas-cloud/cinesearch/internal/usecase/catalog"
)

var embedCatalog string

func init() {
	embedCmd.Flags().StringVar(&embedCatalog, "catalog", "", "catalog file (defaults to catalog.path from config)")
}

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Embed catalog movies that have no vector yet",
	Long: `Load the catalog file, compute embeddings for every movie that lacks one and
write the file back. Movies that already carry an embedding are left untouched,
so running the command twice does nothing the second time.

Examples:
  # Augment the configured catalog
  cinesearch embed

  # Augment another file with the production provider settings
  cinesearch embed --env prod --catalog ./movies.json`,
	Args: cobra.NoArgs,
	RunE: runEmbed,
}

func runEmbed(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterAppMetrics()

	prov, err := buildProvider(cfg.Embedding, logger)
	if err != nil {
		return err
	}
	defer prov.close()

	path := catalogPath(cfg, embedCatalog)
	res, err := cataloguc.New(catalogrepo.NewFileRepository(path), instrument(prov, cfg.Embedding, logger), logger).
		WithBatchSize(cfg.Catalog.EmbedBatchSize).
		Prepare(context.Background())
	if err != nil {
		return fmt.Errorf("prepare catalog %s: %w", path, err)
	}

	logger.Info("Catalog embedding complete",
		zap.String("path", path),
		zap.Int("movies", res.Catalog.Len()),
		zap.Int("embedded", res.Embedded),
		zap.Bool("saved", res.Saved),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d movies, %d embedded, saved=%t\n",
		path, res.Catalog.Len(), res.Embedded, res.Saved)
	return nil
}

// catalogPath returns the effective catalog file, honoring the --catalog override.
func catalogPath(cfg config.Config, override string) string {
	if override != "" {
		return override
	}
	return cfg.Catalog.Path
}
