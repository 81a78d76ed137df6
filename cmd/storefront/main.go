package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ciriously/bookarchive/internal/analytics"
	"github.com/Ciriously/bookarchive/internal/catalog"
	"github.com/Ciriously/bookarchive/internal/config"
	"github.com/Ciriously/bookarchive/internal/db"
	httpserver "github.com/Ciriously/bookarchive/internal/http"
	"github.com/Ciriously/bookarchive/internal/store"
)

func main() {
	cfg := config.Load()

	logger := log.New(os.Stdout, "[storefront] ", log.LstdFlags|log.Lshortfile)

	if err := db.RunMigrations(cfg.DBDSN, logger); err != nil {
		logger.Fatalf("run migrations: %v", err)
	}

	database := db.MustOpen(cfg.DBDSN)
	defer database.Close()
	snapshotRepo := store.NewRepository(database)

	// Analytics is best-effort by contract: without a broker the sink is a
	// no-op and the storefront runs exactly the same.
	var sink analytics.Sink = analytics.NopSink{}
	var sinkCloser *analytics.RabbitSink
	if cfg.RabbitURL != "" {
		rabbitConn := analytics.MustDialRabbit(cfg.RabbitURL)
		defer rabbitConn.Close()

		rabbitSink, err := analytics.NewRabbitSink(rabbitConn, cfg.AnalyticsAccountID, cfg.AnalyticsRegion)
		if err != nil {
			logger.Fatalf("failed to create analytics sink: %v", err)
		}
		sink = rabbitSink
		sinkCloser = rabbitSink
	} else {
		logger.Printf("RABBITMQ_URL not set, analytics disabled")
	}

	restoreCtx, restoreCancel := context.WithTimeout(context.Background(), 5*time.Second)
	snapshot := store.Restore(restoreCtx, snapshotRepo, logger)
	restoreCancel()

	st := store.New(store.Config{
		Snapshot: snapshot,
		Repo:     snapshotRepo,
		Sink:     sink,
		Logger:   logger,
		ToastTTL: cfg.ToastTTL,
	})

	upstream := &http.Client{Timeout: cfg.UpstreamTimeout}
	openLibrary := catalog.NewOpenLibrary(
		catalog.NewClient("openlibrary", cfg.OpenLibraryURL, upstream),
		cfg.CoversURL,
	)
	googleBooks := catalog.NewGoogleBooks(
		catalog.NewClient("googlebooks", cfg.GoogleBooksURL, upstream),
	)

	handler := httpserver.NewRouter(httpserver.Deps{
		Logger:           logger,
		Store:            st,
		Shelves:          openLibrary,
		Search:           googleBooks,
		Sink:             sink,
		CORSAllowOrigins: cfg.CORSAllowOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("storefront listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Printf("shutdown signal received")
	case err := <-errCh:
		logger.Fatalf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown error: %v", err)
	}
	if sinkCloser != nil {
		if err := sinkCloser.Close(); err != nil {
			logger.Printf("sink close error: %v", err)
		}
	}
}
