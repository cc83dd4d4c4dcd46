package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/issuefacets/internal/config"
	"github.com/alfredjeanlab/issuefacets/internal/events"
	"github.com/alfredjeanlab/issuefacets/internal/health"
	"github.com/alfredjeanlab/issuefacets/internal/provider"
	"github.com/alfredjeanlab/issuefacets/internal/server"
	"github.com/alfredjeanlab/issuefacets/internal/store/postgres"
	facetsync "github.com/alfredjeanlab/issuefacets/internal/sync"
)

// healthInterval is how often the gRPC health status is re-evaluated.
const healthInterval = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Start the facets HTTP and gRPC server",
	GroupID: "system",
	// The server needs no HTTP client.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		slog.SetDefault(logger)

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		store, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return err
		}

		checker := &health.Checker{
			DB:         health.PingCheck(store),
			Standalone: cfg.Standalone,
		}
		var web health.Flag
		checker.Web = &web

		var publisher events.Publisher
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				store.Close()
				return err
			}
			publisher = pub
			checker.Events = pub
			logger.Info("events enabled", "nats_url", cfg.NATSURL)
		} else {
			publisher = &events.NoopPublisher{}
			logger.Info("events disabled (FACETS_NATS_URL not set)")
		}

		search := provider.NewStored(store)
		if cfg.Standalone {
			checker.Search = health.ProviderCheck(search)
		}

		facetsServer := server.NewFacetsServer(store, publisher,
			server.WithProvider(search),
			server.WithChecker(checker),
			server.WithBounds(cfg.Panel.Bounds()),
		)
		grpcServer, healthServer := server.NewGRPCServer(facetsServer, cfg.AuthToken)

		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			publisher.Close()
			store.Close()
			return err
		}
		go func() {
			logger.Info("gRPC server listening", "addr", cfg.GRPCAddr)
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("gRPC server error", "err", err)
			}
		}()

		httpLis, err := net.Listen("tcp", cfg.HTTPAddr)
		if err != nil {
			grpcServer.Stop()
			publisher.Close()
			store.Close()
			return err
		}
		httpServer := &http.Server{
			Handler:           facetsServer.NewHTTPHandler(cfg.AuthToken),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			web.Set(true)
			if err := httpServer.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server error", "err", err)
			}
			web.Set(false)
		}()

		healthCtx, healthCancel := context.WithCancel(context.Background())
		go facetsServer.WatchHealth(healthCtx, healthServer, healthInterval)

		scheduler := startSync(cfg, store, logger)

		logger.Info("facets server started",
			"grpc_addr", cfg.GRPCAddr,
			"http_addr", cfg.HTTPAddr,
			"standalone", cfg.Standalone,
		)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		healthCancel()
		if scheduler != nil {
			scheduler.Stop()
			logger.Info("sync scheduler stopped")
		}

		grpcServer.GracefulStop()
		logger.Info("gRPC server stopped")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}
		if err := store.Close(); err != nil {
			logger.Error("error closing store", "err", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}

// startSync starts the export scheduler when an interval and at least one
// destination are configured. It returns nil otherwise.
func startSync(cfg *config.Config, store *postgres.PostgresStore, logger *slog.Logger) *facetsync.Scheduler {
	if cfg.SyncInterval <= 0 {
		return nil
	}
	var dests []facetsync.Destination

	if cfg.SyncS3Bucket != "" {
		s3Dest, err := facetsync.NewS3Destination(
			context.Background(),
			cfg.SyncS3Bucket,
			cfg.SyncS3Prefix,
			cfg.SyncS3Region,
			cfg.SyncS3Endpoint,
		)
		if err != nil {
			logger.Error("failed to create S3 sync destination", "err", err)
		} else {
			dests = append(dests, s3Dest)
		}
	}

	if cfg.SyncGitRepo != "" {
		dests = append(dests, facetsync.NewGitDestination(cfg.SyncGitRepo, cfg.SyncGitDir, cfg.SyncGitBranch))
	}

	if len(dests) == 0 {
		return nil
	}
	for _, d := range dests {
		logger.Info("sync destination enabled", "destination", d.Name())
	}
	scheduler := facetsync.NewScheduler(store, dests, cfg.SyncInterval, logger)
	scheduler.Start()
	logger.Info("sync scheduler started", "interval", cfg.SyncInterval)
	return scheduler
}
