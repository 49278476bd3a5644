// Package store is the aggregate journal: a sqlite log of the summary numbers
// derived from each chart load. Fetched documents are never stored.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Journal metric names.
const (
	MetricTotalItems        = "total_items"
	MetricSectionsPerPart   = "sections_per_part"
	MetricStructureChecksum = "structure_checksum"
	MetricTotalWords        = "total_words"
	MetricTotalSections     = "total_sections"
	MetricAmendmentChange   = "amendment_change"
	MetricAmendmentMonths   = "amendment_months"
	MetricAgencyCount       = "agency_count"
)

// StateLastRefresh is the state key updated after every applied chart result.
const StateLastRefresh = "last_refresh"

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open opens (creating if needed) the sqlite journal at path and ensures the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=1")
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	st := New(db)
	if err := st.InitSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init journal schema: %w", err)
	}
	return st, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) InitSchema() error {
	ddl := `
CREATE TABLE IF NOT EXISTS chart_metrics (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  title TEXT NOT NULL,
  issue_date TEXT NOT NULL,
  metric TEXT NOT NULL,              -- total_items, total_words, amendment_change, structure_checksum, ...
  value_num REAL,                    -- numeric metrics
  value_text TEXT,                   -- e.g., checksum
  created_at TEXT NOT NULL,
  UNIQUE(title, issue_date, metric)
);

CREATE INDEX IF NOT EXISTS chart_metrics_title_metric ON chart_metrics(title, metric, issue_date);

CREATE TABLE IF NOT EXISTS state (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
`
	_, err := s.db.Exec(ddl)
	return err
}

// Metric is one derived value. Exactly one of Num and Text is normally set.
type Metric struct {
	Name string
	Num  *float64
	Text *string
}

func Num(name string, v float64) Metric { return Metric{Name: name, Num: &v} }
func Text(name, v string) Metric        { return Metric{Name: name, Text: &v} }

// PutChartMetrics writes a batch of metrics for one title/date in a transaction.
func (s *Store) PutChartMetrics(ctx context.Context, title, date string, metrics []Metric) error {
	now := time.Now().Format(time.RFC3339)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO chart_metrics(title, issue_date, metric, value_num, value_text, created_at)
VALUES(?,?,?,?,?,?)
ON CONFLICT(title, issue_date, metric) DO UPDATE SET value_num=excluded.value_num, value_text=excluded.value_text, created_at=excluded.created_at
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, m := range metrics {
		if _, err := stmt.ExecContext(ctx, title, date, m.Name, m.Num, m.Text, now); err != nil {
			return fmt.Errorf("put %s: %w", m.Name, err)
		}
	}
	return tx.Commit()
}

// MetricRow is a journal entry as served by the API.
type MetricRow struct {
	Title   string   `json:"title"`
	Date    string   `json:"date"`
	Value   any      `json:"value"`
	Delta   *float64 `json:"delta,omitempty"`
	Changed *bool    `json:"changed,omitempty"`
}

func rowValue(num sql.NullFloat64, txt sql.NullString) any {
	if num.Valid {
		return num.Float64
	}
	if txt.Valid {
		return txt.String
	}
	return nil
}

// LatestChartMetric returns, per title, the value at the newest issue date
// along with the delta (numeric) or changed flag (text) against the entry
// before it.
func (s *Store) LatestChartMetric(ctx context.Context, metric string) ([]MetricRow, error) {
	q := `
SELECT m.title, m.issue_date, m.value_num, m.value_text,
       p.value_num, p.value_text
FROM chart_metrics m
LEFT JOIN chart_metrics p
  ON p.title = m.title AND p.metric = m.metric
 AND p.issue_date = (SELECT MAX(issue_date) FROM chart_metrics p2
                     WHERE p2.title = m.title AND p2.metric = m.metric AND p2.issue_date < m.issue_date)
WHERE m.metric = ?
  AND m.issue_date = (SELECT MAX(issue_date) FROM chart_metrics m2 WHERE m2.title = m.title AND m2.metric = m.metric)
ORDER BY CAST(m.title AS INTEGER), m.title
`
	rows, err := s.db.QueryContext(ctx, q, metric)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []MetricRow
	for rows.Next() {
		var title, date string
		var num, prevNum sql.NullFloat64
		var txt, prevTxt sql.NullString
		if err := rows.Scan(&title, &date, &num, &txt, &prevNum, &prevTxt); err != nil {
			return nil, err
		}
		r := MetricRow{Title: title, Date: date, Value: rowValue(num, txt)}
		if num.Valid && prevNum.Valid {
			d := num.Float64 - prevNum.Float64
			r.Delta = &d
		}
		if txt.Valid && prevTxt.Valid {
			c := txt.String != prevTxt.String
			r.Changed = &c
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ChartMetricSeries returns up to limit entries for a title, newest first.
func (s *Store) ChartMetricSeries(ctx context.Context, title, metric string, limit int) ([]MetricRow, error) {
	q := `
SELECT issue_date, value_num, value_text
FROM chart_metrics
WHERE title=? AND metric=?
ORDER BY issue_date DESC
LIMIT ?
`
	rows, err := s.db.QueryContext(ctx, q, title, metric, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []MetricRow
	for rows.Next() {
		var date string
		var num sql.NullFloat64
		var txt sql.NullString
		if err := rows.Scan(&date, &num, &txt); err != nil {
			return nil, err
		}
		out = append(out, MetricRow{Title: title, Date: date, Value: rowValue(num, txt)})
	}
	return out, rows.Err()
}

// Titles lists the titles that have journal entries for metric.
func (s *Store) Titles(ctx context.Context, metric string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT title FROM chart_metrics WHERE metric=? ORDER BY CAST(title AS INTEGER), title`, metric)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) SetState(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO state(key, value, updated_at) VALUES(?,?,?)
ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at
`, key, value, time.Now().Format(time.RFC3339))
	return err
}

// GetState returns "" for a key that was never set.
func (s *Store) GetState(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM state WHERE key=?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return v, err
}
