// Package main wires together the simmer import service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/simmerhq/simmer/internal/api"
	"github.com/simmerhq/simmer/internal/assist"
	"github.com/simmerhq/simmer/internal/blob"
	blobgcs "github.com/simmerhq/simmer/internal/blob/gcs"
	"github.com/simmerhq/simmer/internal/config"
	"github.com/simmerhq/simmer/internal/dispatcher"
	"github.com/simmerhq/simmer/internal/events"
	eventspubsub "github.com/simmerhq/simmer/internal/events/pubsub"
	"github.com/simmerhq/simmer/internal/fetch"
	"github.com/simmerhq/simmer/internal/importer"
	"github.com/simmerhq/simmer/internal/logging"
	"github.com/simmerhq/simmer/internal/metrics"
	queuememory "github.com/simmerhq/simmer/internal/queue/memory"
	"github.com/simmerhq/simmer/internal/recipe"
	"github.com/simmerhq/simmer/internal/scrape"
	"github.com/simmerhq/simmer/internal/smartlist"
	"github.com/simmerhq/simmer/internal/store"
	storememory "github.com/simmerhq/simmer/internal/store/memory"
	storepostgres "github.com/simmerhq/simmer/internal/store/postgres"
	"github.com/simmerhq/simmer/internal/worker"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := newStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("store init failed", zap.Error(err))
	}
	defer closeStore()

	blobs, err := newBlobStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("blob store init failed", zap.Error(err))
	}

	publisher, stopPublisher := newPublisher(ctx, cfg, logger)
	defer stopPublisher()

	clock := recipe.SystemClock{}
	idGen := recipe.UUIDGenerator{}

	fetcher := fetch.New(fetch.Config{
		Timeout:      cfg.FetchTimeout(),
		MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
		MaxRedirects: cfg.Fetch.MaxRedirects,
		UserAgent:    cfg.Fetch.UserAgent,
	}, logger.Named("fetch"))

	ai := newAssist(ctx, cfg, logger)
	scraper := scrape.New(fetcher, ai, logger.Named("scrape"))

	tasks := queuememory.NewQueue(cfg.Importer.QueueDepth)

	imports := importer.New(st, scraper, blobs, publisher, clock, logger.Named("importer"), cfg.Blob.Prefix)
	generator := smartlist.NewGenerator(st, idGen, clock)
	smartLists := smartlist.New(st, generator, tasks, publisher, idGen, clock,
		logger.Named("smartlist"), cfg.StaleRunningWindow())

	w := worker.New(tasks, imports, smartLists, logger.Named("worker"))
	dispatch := dispatcher.New(w, cfg.Importer.Concurrency, logger.Named("dispatcher"))

	apiServer := api.NewServer(st, imports, smartLists, tasks, idGen, clock, cfg, logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("dispatcher started")
		dispatch.Run(ctx)
	}()

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	tasks.Close()
	logger.Info("shutdown complete")
}

// newStore selects Postgres when a DSN is configured, otherwise the
// in-memory store for local development.
func newStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (store.Store, func(), error) {
	if cfg.DB.DSN == "" {
		logger.Info("using in-memory store")
		return storememory.New(), func() {}, nil
	}
	pg, err := storepostgres.New(ctx, storepostgres.Config{
		DSN:      cfg.DB.DSN,
		MaxConns: cfg.DB.MaxConns,
	})
	if err != nil {
		return nil, nil, err
	}
	logger.Info("connected to postgres")
	return pg, pg.Close, nil
}

// newBlobStore selects GCS when a bucket is configured, otherwise the no-op
// store that skips payload archival.
func newBlobStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (blob.Store, error) {
	if cfg.Blob.GCSBucket == "" {
		logger.Info("payload archival disabled")
		return blob.Noop{}, nil
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}
	gcsStore, err := blobgcs.New(client, blobgcs.Config{Bucket: cfg.Blob.GCSBucket})
	if err != nil {
		return nil, err
	}
	logger.Info("archiving payloads to gcs", zap.String("bucket", cfg.Blob.GCSBucket))
	return gcsStore, nil
}

// newPublisher selects Pub/Sub when a project and topic are configured. A
// connection failure degrades to no-op eventing rather than failing startup.
func newPublisher(ctx context.Context, cfg config.Config, logger *zap.Logger) (events.Publisher, func()) {
	if cfg.Events.ProjectID == "" || cfg.Events.TopicName == "" {
		logger.Info("eventing disabled")
		return events.Noop{}, func() {}
	}
	pub, err := eventspubsub.Connect(ctx, cfg.Events.ProjectID, cfg.Events.TopicName)
	if err != nil {
		logger.Warn("pubsub connect failed, eventing disabled", zap.Error(err))
		return events.Noop{}, func() {}
	}
	logger.Info("publishing events to pubsub", zap.String("topic", cfg.Events.TopicName))
	return pub, pub.Stop
}

// newAssist builds the caption assist. An empty API key soft-disables it.
func newAssist(ctx context.Context, cfg config.Config, logger *zap.Logger) *assist.Assist {
	if cfg.Assist.APIKey == "" {
		logger.Info("caption assist disabled")
		return assist.New(nil, nil, logger.Named("assist"))
	}
	gen, err := assist.NewGeminiGenerator(ctx, cfg.Assist.APIKey, cfg.Assist.Model)
	if err != nil {
		logger.Warn("assist init failed, running without it", zap.Error(err))
		return assist.New(nil, nil, logger.Named("assist"))
	}
	return assist.New(gen, assist.NewMemoryCache(), logger.Named("assist"))
}
