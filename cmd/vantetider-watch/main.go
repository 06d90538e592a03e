package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"vantetider/internal/catalog"
	"vantetider/internal/config"
	"vantetider/internal/dataset"
	"vantetider/internal/fetch"
	"vantetider/internal/logging"
	"vantetider/internal/metrics"
	"vantetider/internal/storage"
	"vantetider/internal/watcher"
)

func main() {
	cfg, err := config.Load()
	must(err)
	logging.Setup(cfg, "vantetider-watch")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	must(run(ctx, cfg))
}

func run(ctx context.Context, cfg config.Config) error {
	if err := cfg.Require("WATCH_DATASETS", strings.Join(cfg.WatchDatasets, ",")); err != nil {
		return err
	}

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	cache := fetch.NewCache(fetch.NewClient(cfg), db, cfg)
	sync := catalog.NewSyncService(db, catalog.NewClient(cache, cfg))
	svc := watcher.NewService(dataset.NewService(db, sync, cache, cfg), cfg)

	if cfg.MetricsAddr != "" {
		go metrics.ExposeMetrics(ctx, cfg.MetricsAddr)
	}

	return svc.Run(ctx)
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
