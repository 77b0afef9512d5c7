package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kruzhok-data/org-enricher/internal/api"
	"github.com/kruzhok-data/org-enricher/internal/archive"
	"github.com/kruzhok-data/org-enricher/internal/availability"
	"github.com/kruzhok-data/org-enricher/internal/config"
	"github.com/kruzhok-data/org-enricher/internal/enrich"
	"github.com/kruzhok-data/org-enricher/internal/enricher"
	"github.com/kruzhok-data/org-enricher/internal/fetcher"
	"github.com/kruzhok-data/org-enricher/internal/metadata"
	"github.com/kruzhok-data/org-enricher/internal/pipeline"
	"github.com/kruzhok-data/org-enricher/internal/publisher"
	"github.com/kruzhok-data/org-enricher/internal/sink"
	"github.com/kruzhok-data/org-enricher/internal/social"
	"github.com/kruzhok-data/org-enricher/internal/source"
)

// newRunCmd creates the 'run' subcommand, which executes one full
// enrichment pass over the configured organization source.
func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Runs one enrichment pass over the configured source",
		Long: `Loads the organization list from the configured source, enriches every
organization concurrently, and writes one record per organization, in
input order, to the configured sink.`,
		RunE: runEnrichment,
	}
}

func runEnrichment(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	src, err := source.New(cfg.Source)
	if err != nil {
		return fmt.Errorf("init source: %w", err)
	}

	orgs, err := src.List(ctx)
	if err != nil {
		return fmt.Errorf("list organizations: %w", err)
	}
	logger.Info("Loaded organizations", zap.Int("count", len(orgs)))

	recordSink, err := sink.New(ctx, cfg.Sink, logger)
	if err != nil {
		return fmt.Errorf("init sink: %w", err)
	}
	defer func() {
		if cerr := recordSink.Close(); cerr != nil {
			logger.Warn("Failed to close sink", zap.Error(cerr))
		}
	}()

	snapshots, err := archive.New(ctx, cfg.Archive)
	if err != nil {
		return fmt.Errorf("init archive: %w", err)
	}
	defer closeQuietly(snapshots, logger, "archive")

	events, err := publisher.New(ctx, cfg.Publisher)
	if err != nil {
		return fmt.Errorf("init publisher: %w", err)
	}
	defer closeQuietly(events, logger, "publisher")

	driver, err := buildDriver(cfg, recordSink, snapshots, events, logger)
	if err != nil {
		return err
	}

	group, groupCtx := errgroup.WithContext(ctx)

	// The status server lives only as long as the run it reports on.
	serverCtx, stopServer := context.WithCancel(groupCtx)
	defer stopServer()

	if cfg.Server.Enabled {
		server := api.NewServer(cfg.Server.Port, driver, logger)
		group.Go(func() error {
			return server.Run(serverCtx)
		})
	}

	var summary pipeline.Summary
	group.Go(func() error {
		defer stopServer()
		var runErr error
		summary, runErr = driver.Run(groupCtx, orgs)
		return runErr
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run pipeline: %w", err)
	}

	logger.Info("Enrichment finished",
		zap.String("run_id", summary.RunID),
		zap.Int("total", summary.Total),
		zap.Int("reachable", summary.Reachable),
		zap.Int("unreachable", summary.Unreachable),
		zap.Int("unknown", summary.Unknown),
		zap.Int("profiles", summary.Profiles),
	)
	return nil
}

// buildDriver assembles the enrichment stages and the pipeline around them.
func buildDriver(
	cfg config.Config,
	recordSink enrich.RecordSink,
	snapshots enrich.SnapshotStore,
	events enrich.Publisher,
	logger *zap.Logger,
) (*pipeline.Driver, error) {
	fetchClient, err := fetcher.New(fetcher.Config{
		Timeout:      cfg.HTTP.Timeout(),
		MaxRetries:   cfg.HTTP.MaxRetries,
		MaxRedirects: cfg.HTTP.MaxRedirects,
		BackoffBase:  cfg.HTTP.BackoffInitial(),
		BackoffMax:   cfg.HTTP.BackoffMax(),
		UserAgent:    cfg.HTTP.UserAgent,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("init fetcher: %w", err)
	}

	classifier, err := availability.New(cfg.Availability)
	if err != nil {
		return nil, fmt.Errorf("init availability classifier: %w", err)
	}

	discoverer := social.NewDiscoverer(social.DiscovererConfig{
		MaxPages:  cfg.Enrich.MaxSitePages,
		Timeout:   cfg.HTTP.Timeout(),
		UserAgent: cfg.HTTP.UserAgent,
	}, logger)

	limiter := social.NewLimiter(social.LimiterConfig{
		DefaultRPS:   cfg.Social.DefaultRPS,
		DefaultBurst: cfg.Social.DefaultBurst,
		PlatformRPS:  cfg.Social.PlatformRPS,
	})

	resolvers := social.NewResolvers(social.ResolverConfig{
		Timeout:            cfg.HTTP.Timeout(),
		UserAgent:          cfg.HTTP.UserAgent,
		InstagramSessionID: cfg.Social.InstagramSessionID,
		TwitterBearerToken: cfg.Social.TwitterBearerToken,
	}, limiter, logger)

	enrichEngine := enricher.New(
		fetchClient,
		classifier,
		metadata.New(),
		discoverer,
		resolvers,
		snapshots,
		enrich.SystemClock{},
		enricher.Config{Timeout: cfg.Enrich.Timeout()},
		logger,
	)

	return pipeline.New(
		enrichEngine,
		recordSink,
		events,
		enrich.SystemClock{},
		pipeline.Config{
			Concurrency: cfg.Enrich.Concurrency,
			Topic:       cfg.Publisher.Topic,
		},
		logger,
	), nil
}

func closeQuietly(v any, logger *zap.Logger, name string) {
	closer, ok := v.(io.Closer)
	if !ok {
		return
	}
	if err := closer.Close(); err != nil {
		logger.Warn("Failed to close "+name, zap.Error(err))
	}
}
