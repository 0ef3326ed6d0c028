package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nar-io/telemetry-gateway/internal/config"
	"github.com/nar-io/telemetry-gateway/internal/ingest/driver"
	"github.com/nar-io/telemetry-gateway/internal/ingest/hooks"
	"github.com/nar-io/telemetry-gateway/internal/logger"
	"github.com/nar-io/telemetry-gateway/internal/maintenance"
)

func main() {
	cli, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if cli.showVersion {
		fmt.Println(version)
		return
	}

	cfg, err := config.Load(cli.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}
	if cli.listenIP != "" {
		cfg.ListenIP = cli.listenIP
	}
	if cli.logLevel != "" {
		cfg.LogLevel = cli.logLevel
	}

	logger.Init()
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "warning: invalid log level %q, using default\n", cfg.LogLevel)
	}
	log := logger.Logger().With("component", "cli")

	notifier := hooks.NewLogNotifier(log)
	mgr := driver.NewManager(cfg.ListenIP, cfg.ListenPortRange[0], cfg.ListenPortRange[1], driver.Config{
		BufferSize:         cfg.BufferSize,
		MaxWorkers:         cfg.MaxWorkers,
		QueueSize:          cfg.QueueSize,
		StaticCacheEntries: cfg.StaticCacheEntries,
		StaticCacheBytes:   cfg.StaticCacheBytes,
		StreamCacheEntries: cfg.StreamCacheEntries,
		StreamCacheBytes:   cfg.StreamCacheBytes,
	}, notifier)

	id, err := mgr.Create()
	if err != nil {
		log.Error("failed to start udp driver", "error", err)
		os.Exit(1)
	}
	info, _ := mgr.Info(id)
	log.Info("gateway started", "driver_id", id, "ip", info.IP, "port", info.Port, "version", version)

	sweeper, err := maintenance.New(cfg.CleanIntervalSeconds, cfg.NodeTimeoutSeconds, mgr.StreamCaches, log)
	if err != nil {
		log.Error("failed to configure maintenance sweeper", "error", err)
		os.Exit(1)
	}
	sweeper.Start()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sweeper.Stop(shutdownCtx)
	mgr.StopAll()
	log.Info("gateway stopped")
}
