package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/reeltier/reeltier/internal/community"
	"github.com/reeltier/reeltier/internal/config"
	httpserver "github.com/reeltier/reeltier/internal/http"
	"github.com/reeltier/reeltier/internal/metadata"
	"github.com/reeltier/reeltier/internal/repository"
	"github.com/reeltier/reeltier/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := log.New(os.Stdout, "[reeltier] ", log.LstdFlags|log.Lshortfile)

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	storeOpts := store.Options{
		MaxConns:               int32(cfg.DBMaxConns),
		MinConns:               int32(cfg.DBMinConns),
		MaxConnIdleTime:        time.Duration(cfg.DBMaxIdleSecs) * time.Second,
		MaxConnLifetime:        time.Duration(cfg.DBMaxLifeSecs) * time.Second,
		ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		StatementCacheCapacity: cfg.DBStatementCache,
		Logger:                 logger,
	}

	st, err := store.New(dbCtx, cfg.DBURL, storeOpts)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer st.Close()

	metaClient, err := metadata.NewHTTPClient(cfg.MetadataURL, cfg.MetadataAPIKey, time.Duration(cfg.MetadataTimeoutSecs)*time.Second, logger)
	if err != nil {
		log.Fatalf("init metadata client: %v", err)
	}

	repo := repository.New(st)
	snapshot := community.NewSnapshot(repo.Stats, logger)
	go snapshot.Run(ctx, time.Duration(cfg.StatsRefreshSecs)*time.Second)

	svc := community.NewService(repo, snapshot, cfg.SyncWorkers, logger)
	server := httpserver.New(cfg, st, repo, svc, metaClient, logger)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, context.Canceled) {
			log.Printf("server error: %v", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("graceful shutdown error: %v", err)
	}
}
