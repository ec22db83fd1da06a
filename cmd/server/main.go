// Command server runs the artfeed HTTP API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"artfeed/internal/bootstrap"
	"artfeed/internal/config"
	"artfeed/internal/observability"
	"artfeed/internal/server"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		observability.Logger.Fatal("failed to load configuration", zap.Error(err))
	}

	shutdownTracing, err := bootstrap.InitObservability(cfg, "artfeed-api")
	if err != nil {
		observability.Logger.Fatal("failed to initialize observability", zap.Error(err))
	}
	log := observability.Logger
	defer func() { _ = log.Sync() }()

	db, rdb, err := bootstrap.InitRuntime(context.Background(), cfg, bootstrap.Options{SeedBuiltIns: true})
	if err != nil {
		log.Fatal("failed to initialize runtime", zap.Error(err))
	}

	srv, err := server.NewServerWithDeps(cfg, db, rdb, nil)
	if err != nil {
		log.Fatal("failed to create server", zap.Error(err))
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("server shutdown error", zap.Error(err))
		}
		if err := shutdownTracing(ctx); err != nil {
			log.Error("tracer shutdown error", zap.Error(err))
		}
	}()

	if err := srv.Start(); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
