package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// timeLayout is fixed-width so started_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements HistoryStore on a SQLite database.
type SQLiteStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	dbPath string
}

// OpenSQLite opens or creates the history database at dbPath.
func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite works best with single writer

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, dbPath: dbPath}, nil
}

// Path returns the database file location.
func (s *SQLiteStore) Path() string { return s.dbPath }

// RecordRun implements HistoryStore.
func (s *SQLiteStore) RecordRun(ctx context.Context, r Run) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}
	if r.ID == "" {
		r.ID = NewRunID(r.StartedAt, r.WorkingDir+r.Tree)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, label, working_dir, mode, forecast, started_at, duration_ms, exit_code, tree, tree_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, nullString(r.Label), r.WorkingDir, r.Mode, boolInt(r.Forecast),
		r.StartedAt.UTC().Format(timeLayout), r.Duration.Milliseconds(), r.ExitCode,
		nullString(r.Tree), nullString(treeHash(r.Tree)))
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for i, p := range r.Parameters {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO run_parameters (run_id, position, name, value, optimise, min, max, calibrated)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, i, p.Name, p.Value, boolInt(p.Optimise), finiteOrNull(p.Min), finiteOrNull(p.Max), nullFloat(p.Calibrated))
		if err != nil {
			return "", fmt.Errorf("insert parameter %s: %w", p.Name, err)
		}
	}

	if err := insertMetrics(ctx, tx, r.ID, r.Metrics); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run: %w", err)
	}
	return r.ID, nil
}

// AddMetrics implements HistoryStore. A score recorded twice for the same
// variable, period, name and transform is replaced.
func (s *SQLiteStore) AddMetrics(ctx context.Context, runID string, metrics []Metric) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, runID).Scan(&exists); err != nil {
		return fmt.Errorf("lookup run: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err := insertMetrics(ctx, tx, runID, metrics); err != nil {
		return err
	}
	return tx.Commit()
}

func insertMetrics(ctx context.Context, tx *sql.Tx, runID string, metrics []Metric) error {
	for _, m := range metrics {
		_, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO run_metrics (run_id, variable, period, name, transform, value)
			VALUES (?, ?, ?, ?, ?, ?)`,
			runID, m.Variable, m.Period, m.Name, m.Transform, finiteOrNull(m.Value))
		if err != nil {
			return fmt.Errorf("insert metric %s: %w", m.Name, err)
		}
	}
	return nil
}

// GetRun implements HistoryStore.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, label, working_dir, mode, forecast, started_at, duration_ms, exit_code, tree
		FROM runs WHERE id = ?`, id)
	r, err := scanRun(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT name, value, optimise, min, max, calibrated
		FROM run_parameters WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("query parameters: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanParameter(rows)
		if err != nil {
			return nil, err
		}
		r.Parameters = append(r.Parameters, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	mrows, err := s.db.QueryContext(ctx, `
		SELECT variable, period, name, transform, value
		FROM run_metrics WHERE run_id = ? ORDER BY variable, period, name, transform`, id)
	if err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}
	defer mrows.Close()
	for mrows.Next() {
		m, err := scanMetric(mrows)
		if err != nil {
			return nil, err
		}
		r.Metrics = append(r.Metrics, m)
	}
	return r, mrows.Err()
}

// ListRuns implements HistoryStore.
func (s *SQLiteStore) ListRuns(ctx context.Context, opts ListOptions) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, label, working_dir, mode, forecast, started_at, duration_ms, exit_code FROM runs`
	var args []any
	if opts.WorkingDir != "" {
		query += ` WHERE working_dir = ?`
		args = append(args, opts.WorkingDir)
	}
	query += ` ORDER BY started_at DESC, id DESC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows, false)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// ParameterHistory implements HistoryStore.
func (s *SQLiteStore) ParameterHistory(ctx context.Context, name string) ([]ParameterPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.label, r.started_at, p.name, p.value, p.optimise, p.min, p.max, p.calibrated
		FROM run_parameters p JOIN runs r ON r.id = p.run_id
		WHERE p.name = ?
		ORDER BY r.started_at, r.id`, name)
	if err != nil {
		return nil, fmt.Errorf("parameter history: %w", err)
	}
	defer rows.Close()

	var out []ParameterPoint
	for rows.Next() {
		var (
			pt      ParameterPoint
			label   sql.NullString
			started string
			opt     int
			lo, hi  sql.NullFloat64
			calib   sql.NullFloat64
		)
		if err := rows.Scan(&pt.RunID, &label, &started, &pt.Parameter.Name, &pt.Parameter.Value,
			&opt, &lo, &hi, &calib); err != nil {
			return nil, fmt.Errorf("scan parameter point: %w", err)
		}
		pt.Label = label.String
		if pt.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("parse run time: %w", err)
		}
		pt.Parameter.Optimise = opt != 0
		pt.Parameter.Min, pt.Parameter.Max = nullToNaN(lo), nullToNaN(hi)
		if calib.Valid {
			v := calib.Float64
			pt.Parameter.Calibrated = &v
		}
		out = append(out, pt)
	}
	return out, rows.Err()
}

// MetricHistory implements HistoryStore.
func (s *SQLiteStore) MetricHistory(ctx context.Context, name string) ([]MetricPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT r.id, r.label, r.started_at, m.variable, m.period, m.name, m.transform, m.value
		FROM run_metrics m JOIN runs r ON r.id = m.run_id`
	var args []any
	if name != "" {
		query += ` WHERE m.name = ?`
		args = append(args, name)
	}
	query += ` ORDER BY r.started_at, r.id, m.variable, m.period, m.name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("metric history: %w", err)
	}
	defer rows.Close()

	var out []MetricPoint
	for rows.Next() {
		var (
			pt      MetricPoint
			label   sql.NullString
			started string
			value   sql.NullFloat64
		)
		if err := rows.Scan(&pt.RunID, &label, &started, &pt.Metric.Variable, &pt.Metric.Period,
			&pt.Metric.Name, &pt.Metric.Transform, &value); err != nil {
			return nil, fmt.Errorf("scan metric point: %w", err)
		}
		pt.Label = label.String
		if pt.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("parse run time: %w", err)
		}
		pt.Metric.Value = nullToNaN(value)
		out = append(out, pt)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner, withTree bool) (*Run, error) {
	var (
		r        Run
		label    sql.NullString
		forecast int
		started  string
		duration int64
		tree     sql.NullString
	)
	dest := []any{&r.ID, &label, &r.WorkingDir, &r.Mode, &forecast, &started, &duration, &r.ExitCode}
	if withTree {
		dest = append(dest, &tree)
	}
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	t, err := time.Parse(timeLayout, started)
	if err != nil {
		return nil, fmt.Errorf("parse run time: %w", err)
	}
	r.Label = label.String
	r.Forecast = forecast != 0
	r.StartedAt = t
	r.Duration = time.Duration(duration) * time.Millisecond
	r.Tree = tree.String
	return &r, nil
}

func scanParameter(row scanner) (Parameter, error) {
	var (
		p      Parameter
		opt    int
		lo, hi sql.NullFloat64
		calib  sql.NullFloat64
	)
	if err := row.Scan(&p.Name, &p.Value, &opt, &lo, &hi, &calib); err != nil {
		return p, fmt.Errorf("scan parameter: %w", err)
	}
	p.Optimise = opt != 0
	p.Min, p.Max = nullToNaN(lo), nullToNaN(hi)
	if calib.Valid {
		v := calib.Float64
		p.Calibrated = &v
	}
	return p, nil
}

func scanMetric(row scanner) (Metric, error) {
	var (
		m     Metric
		value sql.NullFloat64
	)
	if err := row.Scan(&m.Variable, &m.Period, &m.Name, &m.Transform, &value); err != nil {
		return m, fmt.Errorf("scan metric: %w", err)
	}
	m.Value = nullToNaN(value)
	return m, nil
}

// NewRunID builds a sortable run ID from the start time and a content hash.
func NewRunID(at time.Time, content string) string {
	return at.UTC().Format("20060102-150405") + "-" + computeContentHash(at.Format(time.RFC3339Nano)+content)
}

// Helper functions

func computeContentHash(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:4])
}

func treeHash(tree string) string {
	if tree == "" {
		return ""
	}
	return computeContentHash(tree)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return finiteOrNull(*f)
}

func finiteOrNull(f float64) sql.NullFloat64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}

func nullToNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
