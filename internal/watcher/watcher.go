package watcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"vantetider/internal/config"
	"vantetider/internal/dataset"
	"vantetider/internal/metrics"
)

// Datasets is the part of dataset.Service the watcher drives.
type Datasets interface {
	LatestTimepoint(ctx context.Context, datasetID string) (dataset.Timepoint, error)
	Fetch(ctx context.Context, datasetID string, query map[string][]string) (dataset.Result, error)
}

type Service struct {
	datasets Datasets
	cfg      config.Config
}

func NewService(datasets Datasets, cfg config.Config) *Service {
	return &Service{datasets: datasets, cfg: cfg}
}

type CycleResult struct {
	Observations map[string]int
	Failed       map[string]error
}

// Run refreshes the configured datasets every WatchInterval until ctx is
// cancelled. A non-positive interval runs a single cycle.
func (s *Service) Run(ctx context.Context) error {
	if len(s.cfg.WatchDatasets) == 0 {
		return errors.New("no datasets to watch: set WATCH_DATASETS")
	}
	for {
		if _, err := s.RunCycle(ctx); err != nil {
			slog.Error("watch cycle error", "error", err)
		}
		if s.cfg.WatchInterval <= 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.cfg.WatchInterval):
		}
	}
}

// RunCycle fetches the latest timepoint of every watched dataset. Failing
// datasets are logged and collected; the cycle only errors when ctx ends.
func (s *Service) RunCycle(ctx context.Context) (CycleResult, error) {
	start := time.Now()
	result := CycleResult{Observations: map[string]int{}, Failed: map[string]error{}}

	for _, id := range s.cfg.WatchDatasets {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		n, err := s.refresh(ctx, id)
		if err != nil {
			slog.Warn("dataset refresh failed", "dataset", id, "error", err)
			result.Failed[id] = err
			continue
		}
		result.Observations[id] = n
	}

	metrics.WatchCycleDuration.Observe(time.Since(start).Seconds())
	if len(result.Failed) == 0 {
		metrics.WatchLastSuccess.SetToCurrentTime()
	}
	slog.Info("watch cycle done", "datasets", len(s.cfg.WatchDatasets), "failed", len(result.Failed), "elapsed", time.Since(start))
	return result, nil
}

func (s *Service) refresh(ctx context.Context, id string) (int, error) {
	tp, err := s.datasets.LatestTimepoint(ctx, id)
	if err != nil {
		return 0, errors.Wrap(err, "latest timepoint")
	}
	query := tp.Query()
	if len(s.cfg.WatchRegions) > 0 {
		query["region"] = s.cfg.WatchRegions
	}

	res, err := s.datasets.Fetch(ctx, id, query)
	if err != nil {
		return 0, err
	}

	if s.cfg.WatchAutoExport {
		outputPath := filepath.Join(s.cfg.OutputDir, "watch", sanitizeFilename(id)+".xlsx")
		if err := dataset.ExportXLSX(res.Observations, outputPath); err != nil {
			return 0, errors.Wrap(err, "export")
		}
		slog.Debug("exported dataset", "dataset", id, "path", outputPath)
	}
	return len(res.Observations), nil
}

func sanitizeFilename(input string) string {
	repl := strings.NewReplacer("<", "_", ">", "_", ":", "_", "/", "_", "\\", "_", "|", "_", "?", "_", "*", "_", " ", "_")
	out := repl.Replace(input)
	if len(out) > 120 {
		out = out[:120]
	}
	return out
}
