package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"vantetider/internal"
	"vantetider/internal/storage"
)

const lastSyncKey = "catalog.last_sync"

type SyncService struct {
	db     *storage.DB
	client *Client
}

func NewSyncService(db *storage.DB, client *Client) *SyncService {
	return &SyncService{db: db, client: client}
}

type SyncResult struct {
	Datasets []internal.Dataset
	Failed   map[string]error
}

// Sync stores the dataset list and the dimensions of every dataset. A
// dataset whose form cannot be read is reported in Failed and does not
// stop the sync.
func (s *SyncService) Sync(ctx context.Context) (SyncResult, error) {
	datasets, err := s.client.ListDatasets(ctx)
	if err != nil {
		return SyncResult{}, errors.Wrap(err, "list datasets")
	}
	if err := s.db.UpsertDatasets(datasets); err != nil {
		return SyncResult{}, err
	}

	result := SyncResult{Datasets: datasets, Failed: map[string]error{}}
	for _, ds := range datasets {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		dims, err := s.client.Dimensions(ctx, ds.ID)
		if err != nil {
			slog.Warn("dimension discovery failed", "dataset", ds.ID, "error", err)
			result.Failed[ds.ID] = err
			continue
		}
		if err := s.db.ReplaceDimensions(ds.ID, dims); err != nil {
			return result, err
		}
	}

	_ = s.db.SetMetadata(lastSyncKey, time.Now().UTC().Format(time.RFC3339))
	slog.Info("catalog synced", "datasets", len(datasets), "failed", len(result.Failed))
	return result, nil
}

// LastSync returns when Sync last completed, or nil.
func (s *SyncService) LastSync() (*time.Time, error) {
	raw, err := s.db.GetMetadata(lastSyncKey)
	if err != nil || raw == nil {
		return nil, err
	}
	parsed, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// Datasets returns the stored datasets, discovering them when none are stored.
func (s *SyncService) Datasets(ctx context.Context) ([]internal.Dataset, error) {
	stored, err := s.db.ListDatasets()
	if err != nil {
		return nil, err
	}
	if len(stored) > 0 {
		return stored, nil
	}
	datasets, err := s.client.ListDatasets(ctx)
	if err != nil {
		return nil, err
	}
	return datasets, s.db.UpsertDatasets(datasets)
}

// Dimensions returns the stored dimensions of a dataset, discovering and
// storing them on first use.
func (s *SyncService) Dimensions(ctx context.Context, datasetID string) ([]internal.Dimension, error) {
	stored, err := s.db.ListDimensions(datasetID)
	if err != nil {
		return nil, err
	}
	if len(stored) > 0 {
		return stored, nil
	}
	dims, err := s.client.Dimensions(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	if err := s.db.ReplaceDimensions(datasetID, dims); err != nil {
		return nil, err
	}
	return dims, nil
}
