package dataset

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"vantetider/internal"
	"vantetider/internal/catalog"
	"vantetider/internal/config"
	"vantetider/internal/fetch"
	"vantetider/internal/metrics"
	"vantetider/internal/pipeline"
	"vantetider/internal/storage"
)

type Service struct {
	db          *storage.DB
	catalog     *catalog.SyncService
	fetcher     fetch.Fetcher
	baseURL     string
	concurrency int
}

func NewService(db *storage.DB, cat *catalog.SyncService, fetcher fetch.Fetcher, cfg config.Config) *Service {
	concurrency := cfg.FetchConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Service{db: db, catalog: cat, fetcher: fetcher, baseURL: cfg.BaseURL, concurrency: concurrency}
}

type Result struct {
	Dataset      internal.Dataset
	Observations []internal.Observation
	Queries      int
	// Skipped holds the payloads the site answered with a server error.
	Skipped []catalog.Payload
	Stats   internal.RunStats
}

type pageResult struct {
	observations []internal.Observation
	skipped      bool
}

// Fetch runs query against a dataset and stores the resulting
// observations. Pages are fetched in parallel; observations keep the order
// of the query payloads.
func (s *Service) Fetch(ctx context.Context, datasetID string, query map[string][]string) (Result, error) {
	start := time.Now()

	ds, err := s.db.GetDataset(datasetID)
	if err != nil {
		return Result{}, err
	}
	result := Result{Dataset: internal.Dataset{ID: datasetID}}
	if ds != nil {
		result.Dataset = *ds
	}

	dims, err := s.catalog.Dimensions(ctx, datasetID)
	if err != nil {
		return Result{}, err
	}
	regions, err := catalog.NewRegionIndex(dims)
	if err != nil {
		return Result{}, errors.Wrapf(err, "dataset %s", datasetID)
	}
	plan, err := catalog.BuildQueries(dims, query)
	if err != nil {
		return Result{}, err
	}
	result.Queries = len(plan.Payloads)
	slog.Info("fetching dataset", "dataset", datasetID, "queries", len(plan.Payloads), "only_region", plan.OnlyRegion)

	parser := pageParser{datasetID: datasetID, dims: dims, regions: regions}
	pages := make([]pageResult, len(plan.Payloads))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, payload := range plan.Payloads {
		g.Go(func() error {
			res, err := s.fetchPage(gctx, parser, payload, plan.OnlyRegion, regions)
			if err != nil {
				return errors.Wrapf(err, "query %d/%d (%s)", i+1, len(plan.Payloads), payload.Key())
			}
			pages[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	fetchedAt := time.Since(start)

	for i, page := range pages {
		payload := plan.Payloads[i]
		if page.skipped {
			result.Skipped = append(result.Skipped, payload)
			continue
		}
		if err := s.db.ReplaceObservations(datasetID, payload.Key(), page.observations); err != nil {
			return Result{}, err
		}
		result.Observations = append(result.Observations, page.observations...)
	}

	result.Stats = internal.RunStats{
		Queries:      result.Queries,
		Pages:        result.Queries - len(result.Skipped),
		Skipped:      len(result.Skipped),
		Observations: len(result.Observations),
	}
	_ = s.db.InsertRun(traceID(), datasetID, map[string]float64{
		"fetchMs": float64(fetchedAt.Milliseconds()),
		"totalMs": float64(time.Since(start).Milliseconds()),
	}, result.Stats)

	slog.Info("dataset fetched", "dataset", datasetID, "observations", len(result.Observations), "skipped", len(result.Skipped), "elapsed", time.Since(start))
	return result, nil
}

func (s *Service) fetchPage(ctx context.Context, parser pageParser, payload catalog.Payload, onlyRegion bool, regions *catalog.RegionIndex) (pageResult, error) {
	slug, err := regions.Slug(payload.Region)
	if err != nil {
		return pageResult{}, err
	}
	target := catalog.DatasetURL(s.baseURL, slug, parser.datasetID)

	var page fetch.Page
	if onlyRegion {
		page, err = s.fetcher.Get(ctx, target)
	} else {
		page, err = s.fetcher.Post(ctx, target, payload.Form)
	}
	if fetch.Status(err) == http.StatusInternalServerError {
		slog.Warn("unable to get result page", "url", target, "payload", payload.Key(), "error", err)
		metrics.PagesSkipped.Inc()
		return pageResult{skipped: true}, nil
	}
	if err != nil {
		return pageResult{}, err
	}
	if page.FromCache {
		slog.Debug("result page from cache", "url", target)
	}

	observations, err := parser.parse(page.Body, payload)
	if err != nil {
		return pageResult{}, errors.Wrapf(err, "parse %s", target)
	}
	return pageResult{observations: observations}, nil
}

// Stored returns every stored observation of a dataset.
func (s *Service) Stored(datasetID string) ([]internal.Observation, error) {
	return s.db.ListObservations(datasetID)
}

// Timepoint is the latest year and period a dataset offers.
type Timepoint struct {
	Year   string
	Period string
}

// Query returns the timepoint as query values.
func (t Timepoint) Query() map[string][]string {
	q := map[string][]string{}
	if t.Year != "" {
		q["year"] = []string{t.Year}
	}
	if t.Period != "" {
		q["period"] = []string{t.Period}
	}
	return q
}

// LatestTimepoint reads the default year and period of the search form,
// which the site preselects to the most recent data.
func (s *Service) LatestTimepoint(ctx context.Context, datasetID string) (Timepoint, error) {
	dims, err := s.catalog.Dimensions(ctx, datasetID)
	if err != nil {
		return Timepoint{}, err
	}
	var tp Timepoint
	for _, dim := range dims {
		switch dim.ID {
		case "year":
			tp.Year = dim.Default
		case "period":
			tp.Period = dim.Default
		}
	}
	if tp.Year == "" {
		return Timepoint{}, fmt.Errorf("dataset %s has no year dimension", datasetID)
	}
	return tp, nil
}

type pageParser struct {
	datasetID string
	dims      []internal.Dimension
	regions   *catalog.RegionIndex
}

// parse turns a result page into observations. Rows whose label is a known
// region start a new region; every other row is a unit of the latest
// region and must carry a row id.
func (p pageParser) parse(body []byte, payload catalog.Payload) ([]internal.Observation, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	selection, err := catalog.CurrentSelection(doc.Selection, p.dims)
	if err != nil {
		return nil, err
	}

	table, err := pipeline.Assemble(pipeline.FromSelection(doc.Selection), "")
	if err != nil {
		metrics.ParseFailures.WithLabelValues(pipeline.ErrorKind(err)).Inc()
		return nil, err
	}
	metrics.RecordsExtracted.WithLabelValues(string(table.Layout.Shape)).Add(float64(table.Len()))

	out := make([]internal.Observation, 0, table.Len())
	region := payload.Region
	for rec := range table.Records() {
		obs := internal.Observation{
			Dataset:    p.datasetID,
			Dimensions: map[string]string{},
			Value:      rec.Value,
			Query:      payload.Key(),
		}

		if r, ok := p.regions.ByLabel(rec.Row); ok {
			region = r.Label
			obs.Region = r.Label
		} else {
			if rec.RowID == nil {
				return nil, fmt.Errorf("unit row %q has no id", rec.Row)
			}
			obs.Region = region
			obs.Unit = rec.Row
			obs.UnitID = *rec.RowID
		}

		if table.Tabbed() {
			obs.Measure = rec.Measure
			obs.Dimensions["period"] = rec.Column
		} else {
			obs.Measure = rec.Column
		}

		for _, dim := range p.dims {
			if !dim.Queryable() || dim.ID == "region" {
				continue
			}
			if _, set := obs.Dimensions[dim.ID]; set {
				continue
			}
			obs.Dimensions[dim.ID] = selection.Label(dim.ID)
		}
		out = append(out, obs)
	}
	return out, nil
}

func traceID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
