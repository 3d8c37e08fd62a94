package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/angeloszaimis/supabase-keepalive/config"
	"github.com/angeloszaimis/supabase-keepalive/internal/handler"
	"github.com/angeloszaimis/supabase-keepalive/internal/httpserver"
	"github.com/angeloszaimis/supabase-keepalive/internal/ping"
	"github.com/angeloszaimis/supabase-keepalive/pkg/logger"
)

const serviceName = "supabase-keepalive"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:       cfg.Logging.Level,
		Environment: cfg.Server.Environment,
		Service:     serviceName,
		AddSource:   true,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	targetCount := checkTargets(cfg, log)

	dispatcher := ping.NewDispatcher(cfg.Ping.TimeoutDuration(), log,
		ping.WithConcurrency(cfg.Ping.Concurrency))

	pingHandler := handler.NewPingHandler(log, cfg, dispatcher)

	srv, err := httpserver.New(cfg.Server.Address(), setupRouter(pingHandler), dispatcher.Budget(targetCount))
	if err != nil {
		log.Error("Failed to create server", slog.Any("err", err))
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)

	go func() {
		log.Info("Listening",
			slog.String("addr", srv.Addr()),
			slog.Duration("ping_timeout", cfg.Ping.TimeoutDuration()))
		srvErrCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error("Error during shutdown", slog.Any("err", err))
		}
	case err := <-srvErrCh:
		if err != nil {
			log.Error("Error starting server", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

// checkTargets parses the project list once at start so problems show up in
// the logs early. A broken list is only a warning: the liveness route must
// keep working and /ping reports the error on every trigger.
func checkTargets(source handler.TargetSource, log *slog.Logger) int {
	targets, err := source.Targets()
	if err != nil {
		log.Warn("Project list unusable, /ping will fail until it is fixed", slog.Any("err", err))
		return 0
	}

	names := make([]string, 0, len(targets))
	for _, t := range targets {
		names = append(names, t.Name)
	}
	log.Info("Loaded project list",
		slog.Int("projects", len(targets)),
		slog.Any("names", names))

	return len(targets)
}
