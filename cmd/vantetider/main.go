package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"vantetider/internal/catalog"
	"vantetider/internal/config"
	"vantetider/internal/dataset"
	"vantetider/internal/fetch"
	"vantetider/internal/logging"
	"vantetider/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}
	err := newRootCmd(a).ExecuteContext(ctx)
	if closeErr := a.close(); err == nil {
		err = closeErr
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// app holds the services every command shares. It is filled in by the root
// command before any subcommand runs and closed by main, also when the
// command failed.
type app struct {
	cfg      config.Config
	db       *storage.DB
	cache    *fetch.Cache
	catalog  *catalog.SyncService
	datasets *dataset.Service
}

func (a *app) open() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg, "vantetider")

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return err
	}

	cache := fetch.NewCache(fetch.NewClient(cfg), db, cfg)
	sync := catalog.NewSyncService(db, catalog.NewClient(cache, cfg))

	a.cfg = cfg
	a.db = db
	a.cache = cache
	a.catalog = sync
	a.datasets = dataset.NewService(db, sync, cache, cfg)
	return nil
}

func (a *app) close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "vantetider",
		Short:         "vantetider scrapes and normalizes the wait-time tables of vantetider.se.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open()
		},
	}

	root.AddCommand(
		newDatasetsSyncCmd(a),
		newDatasetsListCmd(a),
		newDimensionsCmd(a),
		newFetchCmd(a),
		newTableParseCmd(a),
		newExportCmd(a),
		newCacheClearCmd(a),
	)
	return root
}
