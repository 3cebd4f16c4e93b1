package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sentrygo "github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"bestai/archive"
	"bestai/config"
	"bestai/database"
	"bestai/handlers"
	"bestai/logging"
	"bestai/mongostore"
	"bestai/sentry"
	"bestai/sentryhelper"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debugf("No .env file loaded: %v", err)
	}
	cfg := config.NewConfig()

	logCloser, err := logging.Setup(cfg.Logging)
	if err != nil {
		log.Fatalf("Error setting up logging: %v", err)
	}
	defer logCloser.Close()

	if err := sentry.Init(sentry.Options{
		DSN:              cfg.Sentry.DSN,
		Release:          cfg.Sentry.Release,
		Environment:      cfg.Sentry.Environment,
		TracesSampleRate: cfg.Sentry.TracesSampleRate,
	}); err != nil {
		log.Errorf("Sentry initialization failed: %v", err)
	}
	defer sentry.Flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		sentry.ReportError(err)
		sentry.Flush()
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg *config.ConfigStruct) error {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warnf("Error closing store: %v", err)
		}
	}()

	sentryhelper.ConfigureScope(ctx, func(scope *sentrygo.Scope) {
		scope.SetTag("store.backend", cfg.Store.Backend)
		scope.SetTag("search.mode", cfg.Search.Mode)
	})

	ranker, err := archive.NewSearchRanker(store, archive.SearchOptions{
		Mode:              archive.SearchMode(cfg.Search.Mode),
		Limit:             cfg.Search.Limit,
		MinScore:          cfg.Search.MinScore,
		AutocompleteLimit: cfg.Search.AutocompleteLimit,
	})
	if err != nil {
		return err
	}

	if log.GetLevel() < log.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	h := handlers.NewHandler(archive.NewQueryService(store), ranker, store)
	router := handlers.NewRouter(h, handlers.RouterOptions{
		Options: cfg.Options,
		Sentry:  true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Options.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{
			"port":    cfg.Options.Port,
			"backend": cfg.Store.Backend,
			"search":  ranker.Mode(),
		}).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStore returns the configured backend. Search capabilities are checked
// later by archive.NewSearchRanker.
func openStore(ctx context.Context, cfg *config.ConfigStruct) (archive.Store, error) {
	if cfg.Store.IsSQLite() {
		db, err := database.New(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		return db, nil
	}

	timeout := time.Duration(cfg.Mongo.TimeoutSeconds) * time.Second
	store, err := mongostore.Open(ctx, mongostore.Options{
		URI:         cfg.Mongo.URI,
		Database:    cfg.Mongo.Database,
		Collection:  cfg.Mongo.Collection,
		SearchIndex: cfg.Mongo.SearchIndex,
		Timeout:     timeout,
	})
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		// The driver reconnects on its own; requests fail until it does.
		log.WithError(err).Warn("MongoDB not reachable at startup")
		return store, nil
	}

	if cfg.Mongo.EnsureIndexes {
		if err := store.EnsureIndexes(pingCtx); err != nil {
			log.WithError(err).Warn("Failed to create MongoDB indexes")
		}
	}
	return store, nil
}
