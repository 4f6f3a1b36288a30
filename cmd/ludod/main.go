package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ludo/internal/config"
	"ludo/internal/daemon"
	"ludo/internal/downloader"
	"ludo/internal/grab"
	"ludo/internal/indexer"
	"ludo/internal/library"
	"ludo/internal/logging"
	"ludo/internal/metadata"
	"ludo/internal/notifications"
	"ludo/internal/reconcile"
	"ludo/internal/scheduler"
	"ludo/internal/steam"
	"ludo/internal/store"
	"ludo/internal/updates"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(os.Getenv("LUDO_CONFIG"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	st, err := store.Open(cfg)
	if err != nil {
		logger.Error("open store", logging.Error(err))
		os.Exit(1)
	}
	defer st.Close()

	gateway, err := indexer.New(cfg.Indexer)
	if err != nil {
		logger.Error("configure indexer gateway", logging.Error(err))
		os.Exit(1)
	}
	provider, err := metadata.New(cfg.Metadata)
	if err != nil {
		logger.Error("configure metadata provider", logging.Error(err))
		os.Exit(1)
	}

	var adapter downloader.Adapter
	if cfg.DownloadClient.DryRun {
		logger.Info("dry-run mode: downloads are simulated")
		adapter = downloader.NewDryRun()
	} else {
		adapter, err = downloader.New(cfg.DownloadClient)
		if err != nil {
			logger.Error("configure download client", logging.Error(err))
			os.Exit(1)
		}
	}

	notifier := notifications.New(cfg.Notifications, logger)

	var sources []library.Source
	if scanner := steam.NewScanner(cfg.Steam, logger); scanner != nil {
		sources = append(sources, scanner)
	}
	engine := library.NewEngine(st, provider, store.UpdatePolicy(cfg.Updates.DefaultPolicy), logger, sources...)
	coordinator := grab.NewCoordinator(st, adapter, notifier, cfg.DownloadClient, logger)
	reconciler := reconcile.New(st, adapter, engine, notifier, logger)
	dispatcher := updates.NewDispatcher(st, coordinator, notifier, logger)
	detector := updates.NewDetector(st, gateway, dispatcher, logger)

	sched := scheduler.New(logger,
		scheduler.Task{
			Name:     "reconcile",
			Interval: time.Duration(cfg.Workflow.ReconcileInterval) * time.Second,
			Run: func(ctx context.Context) error {
				_, err := reconciler.Run(ctx)
				return err
			},
		},
		scheduler.Task{
			Name:     "update-check",
			Interval: time.Duration(cfg.Workflow.UpdateCheckInterval) * time.Second,
			Run: func(ctx context.Context) error {
				_, err := detector.CheckAll(ctx)
				return err
			},
		},
	)

	d, err := daemon.New(cfg, daemon.Deps{
		Store:       st,
		Gateway:     gateway,
		Adapter:     adapter,
		Engine:      engine,
		Coordinator: coordinator,
		Detector:    detector,
		Dispatcher:  dispatcher,
		Scheduler:   sched,
	}, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		os.Exit(1)
	}

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("ludod shutting down")
	d.Stop()
}
