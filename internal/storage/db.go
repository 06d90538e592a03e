package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"vantetider/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// writes from the parallel fetchers must not see SQLITE_BUSY
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS pages (
  key TEXT PRIMARY KEY,
  method TEXT NOT NULL,
  url TEXT NOT NULL,
  payload TEXT NOT NULL DEFAULT '',
  bodyPath TEXT NOT NULL,
  status INTEGER NOT NULL,
  fetchedAt TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS datasets (
  id TEXT PRIMARY KEY,
  label TEXT NOT NULL,
  position INTEGER NOT NULL DEFAULT 0,
  lastSeenAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS dimensions (
  datasetId TEXT NOT NULL,
  position INTEGER NOT NULL,
  id TEXT NOT NULL,
  label TEXT,
  elemId TEXT,
  kind TEXT NOT NULL,
  defaultValue TEXT,
  valuesJson TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY(datasetId, id)
);

CREATE TABLE IF NOT EXISTS observations (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  datasetId TEXT NOT NULL,
  query TEXT NOT NULL,
  region TEXT NOT NULL,
  unit TEXT,
  unitId TEXT,
  measure TEXT NOT NULL,
  dimensionsJson TEXT NOT NULL,
  valueKind TEXT NOT NULL,
  valueNumber REAL,
  valueText TEXT,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_observations_dataset ON observations(datasetId, query);

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  datasetId TEXT NOT NULL,
  timingsJson TEXT NOT NULL,
  countsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

func (d *DB) PutPage(entry internal.PageEntry) error {
	_, err := d.conn.Exec(`
INSERT INTO pages (key, method, url, payload, bodyPath, status, fetchedAt)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
  method=excluded.method,
  url=excluded.url,
  payload=excluded.payload,
  bodyPath=excluded.bodyPath,
  status=excluded.status,
  fetchedAt=excluded.fetchedAt
`, entry.Key, entry.Method, entry.URL, entry.Payload, entry.BodyPath, entry.Status, entry.FetchedAt.UTC().Format(time.RFC3339Nano))
	return err
}

func (d *DB) GetPage(key string) (*internal.PageEntry, error) {
	var entry internal.PageEntry
	var fetchedAt string
	err := d.conn.QueryRow(`
SELECT key, method, url, payload, bodyPath, status, fetchedAt
FROM pages WHERE key = ?
`, key).Scan(&entry.Key, &entry.Method, &entry.URL, &entry.Payload, &entry.BodyPath, &entry.Status, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	entry.FetchedAt, err = time.Parse(time.RFC3339Nano, fetchedAt)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// DeletePages drops the whole page index and returns the number of rows removed.
func (d *DB) DeletePages() (int64, error) {
	result, err := d.conn.Exec(`DELETE FROM pages`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (d *DB) UpsertDatasets(datasets []internal.Dataset) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO datasets (id, label, position, lastSeenAt)
VALUES (?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(id) DO UPDATE SET
  label=excluded.label,
  position=excluded.position,
  lastSeenAt=CURRENT_TIMESTAMP
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, ds := range datasets {
		if _, err := stmt.Exec(ds.ID, ds.Label, i); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) ListDatasets() ([]internal.Dataset, error) {
	rows, err := d.conn.Query(`SELECT id, label FROM datasets ORDER BY position, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.Dataset
	for rows.Next() {
		var ds internal.Dataset
		if err := rows.Scan(&ds.ID, &ds.Label); err != nil {
			return nil, err
		}
		out = append(out, ds)
	}
	return out, rows.Err()
}

func (d *DB) GetDataset(id string) (*internal.Dataset, error) {
	var ds internal.Dataset
	err := d.conn.QueryRow(`SELECT id, label FROM datasets WHERE id = ?`, id).Scan(&ds.ID, &ds.Label)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ds, nil
}

// ReplaceDimensions stores the dimensions of one dataset in discovery order.
func (d *DB) ReplaceDimensions(datasetID string, dims []internal.Dimension) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM dimensions WHERE datasetId = ?`, datasetID); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
INSERT INTO dimensions (datasetId, position, id, label, elemId, kind, defaultValue, valuesJson)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, dim := range dims {
		valuesJSON, _ := json.Marshal(dim.Values)
		if _, err := stmt.Exec(datasetID, i, dim.ID, dim.Label, dim.ElemID, string(dim.Kind), dim.Default, string(valuesJSON)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) ListDimensions(datasetID string) ([]internal.Dimension, error) {
	rows, err := d.conn.Query(`
SELECT id, label, elemId, kind, defaultValue, valuesJson
FROM dimensions WHERE datasetId = ? ORDER BY position
`, datasetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.Dimension
	for rows.Next() {
		var dim internal.Dimension
		var label, elemID, def sql.NullString
		var kind, valuesJSON string
		if err := rows.Scan(&dim.ID, &label, &elemID, &kind, &def, &valuesJSON); err != nil {
			return nil, err
		}
		dim.Label = label.String
		dim.ElemID = elemID.String
		dim.Default = def.String
		dim.Kind = internal.DimensionKind(kind)
		_ = json.Unmarshal([]byte(valuesJSON), &dim.Values)
		out = append(out, dim)
	}
	return out, rows.Err()
}

// ReplaceObservations swaps the observations previously stored for the same
// dataset and query.
func (d *DB) ReplaceObservations(datasetID, query string, observations []internal.Observation) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM observations WHERE datasetId = ? AND query = ?`, datasetID, query); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
INSERT INTO observations (datasetId, query, region, unit, unitId, measure, dimensionsJson, valueKind, valueNumber, valueText)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, o := range observations {
		dimsJSON, _ := json.Marshal(o.Dimensions)
		var number *float64
		var text *string
		switch o.Value.Kind {
		case internal.ValueNumber:
			number = &o.Value.Number
		case internal.ValueSentinel:
			text = &o.Value.Sentinel
		}
		kind := o.Value.Kind
		if kind == "" {
			kind = internal.ValueNull
		}
		if _, err := stmt.Exec(datasetID, query, o.Region, o.Unit, o.UnitID, o.Measure, string(dimsJSON), string(kind), number, text); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) ListObservations(datasetID string) ([]internal.Observation, error) {
	rows, err := d.conn.Query(`
SELECT datasetId, query, region, unit, unitId, measure, dimensionsJson, valueKind, valueNumber, valueText
FROM observations WHERE datasetId = ? ORDER BY id
`, datasetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.Observation
	for rows.Next() {
		var o internal.Observation
		var unit, unitID, text sql.NullString
		var number sql.NullFloat64
		var dimsJSON, kind string
		if err := rows.Scan(&o.Dataset, &o.Query, &o.Region, &unit, &unitID, &o.Measure, &dimsJSON, &kind, &number, &text); err != nil {
			return nil, err
		}
		o.Unit = unit.String
		o.UnitID = unitID.String
		_ = json.Unmarshal([]byte(dimsJSON), &o.Dimensions)
		switch internal.ValueKind(kind) {
		case internal.ValueNumber:
			o.Value = internal.Number(number.Float64)
		case internal.ValueSentinel:
			o.Value = internal.Sentinel(text.String)
		default:
			o.Value = internal.Null()
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (d *DB) InsertRun(traceID, datasetID string, timings map[string]float64, stats internal.RunStats) error {
	timingsJSON, _ := json.Marshal(timings)
	countsJSON, _ := json.Marshal(stats)
	_, err := d.conn.Exec(`INSERT INTO runs (traceId, datasetId, timingsJson, countsJson) VALUES (?, ?, ?, ?)`, traceID, datasetID, string(timingsJSON), string(countsJSON))
	return err
}

// CountRuns returns how many runs were recorded for a dataset.
func (d *DB) CountRuns(datasetID string) (int, error) {
	var n int
	err := d.conn.QueryRow(`SELECT COUNT(*) FROM runs WHERE datasetId = ?`, datasetID).Scan(&n)
	return n, err
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
