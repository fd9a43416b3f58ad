package store

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

var (
	_ HistoryStore = (*SQLiteStore)(nil)
	_ HistoryStore = (*InMemoryStore)(nil)
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// forEachStore runs fn against every HistoryStore implementation.
func forEachStore(t *testing.T, fn func(t *testing.T, s HistoryStore)) {
	t.Run("sqlite", func(t *testing.T) { fn(t, newTestSQLiteStore(t)) })
	t.Run("memory", func(t *testing.T) { fn(t, NewInMemoryStore()) })
}

func sampleRun(label string, at time.Time, basinArea float64) Run {
	calibrated := basinArea * 1.1
	return Run{
		Label:      label,
		WorkingDir: "/basins/loire",
		Mode:       "M",
		StartedAt:  at,
		Duration:   1500 * time.Millisecond,
		Tree:       "general_settings:\n  execution_mode: M\n",
		Parameters: []Parameter{
			{Name: "basin_area", Value: basinArea, Optimise: true, Min: 100, Max: 900, Calibrated: &calibrated},
			{Name: "external_flow", Value: 0, Min: 0, Max: 0},
		},
		Metrics: []Metric{
			{Variable: "streamflow", Period: "calib", Name: "NSE", Value: 0.8},
		},
	}
}

func TestOpenSQLiteCreatesDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "history.db")
	s, err := OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("history.db was not created")
	}
	if s.Path() != dbPath {
		t.Errorf("Path() = %q, want %q", s.Path(), dbPath)
	}
}

func TestOpenSQLiteReopens(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	s, err := OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	id, err := s.RecordRun(ctx, sampleRun("first", time.Now(), 500))
	if err != nil {
		t.Fatalf("RecordRun() error = %v", err)
	}
	s.Close()

	s2, err := OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s2.Close()
	if _, err := s2.GetRun(ctx, id); err != nil {
		t.Errorf("run lost after reopen: %v", err)
	}
}

func TestInitSchemaRejectsNewerVersion(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "future.db"))
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	if err := InitSchema(ctx, db); err != nil {
		t.Fatalf("InitSchema: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO schema_version (version, applied_at) VALUES (?, datetime('now'))`, SchemaVersion+1); err != nil {
		t.Fatalf("insert version: %v", err)
	}
	if err := InitSchema(ctx, db); err == nil {
		t.Error("expected error for newer schema version")
	}
}

func TestRecordAndGetRun(t *testing.T) {
	forEachStore(t, func(t *testing.T, s HistoryStore) {
		ctx := context.Background()
		at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

		id, err := s.RecordRun(ctx, sampleRun("V0", at, 524))
		if err != nil {
			t.Fatalf("RecordRun() error = %v", err)
		}
		if id == "" {
			t.Fatal("expected generated run ID")
		}

		got, err := s.GetRun(ctx, id)
		if err != nil {
			t.Fatalf("GetRun() error = %v", err)
		}
		if got.Label != "V0" || got.Mode != "M" || got.WorkingDir != "/basins/loire" {
			t.Errorf("unexpected run %+v", got)
		}
		if !got.StartedAt.Equal(at) {
			t.Errorf("StartedAt = %v, want %v", got.StartedAt, at)
		}
		if got.Duration != 1500*time.Millisecond {
			t.Errorf("Duration = %v", got.Duration)
		}
		if got.Tree == "" {
			t.Error("expected tree dump to be kept")
		}
		if len(got.Parameters) != 2 || got.Parameters[0].Name != "basin_area" {
			t.Fatalf("unexpected parameters %+v", got.Parameters)
		}
		if c := got.Parameters[0].Calibrated; c == nil || math.Abs(*c-576.4) > 1e-9 {
			t.Errorf("Calibrated = %v", c)
		}
		if got.Parameters[1].Calibrated != nil {
			t.Error("expected no calibrated value for external_flow")
		}
		if len(got.Metrics) != 1 || got.Metrics[0].Value != 0.8 {
			t.Errorf("unexpected metrics %+v", got.Metrics)
		}
	})
}

func TestGetRunNotFound(t *testing.T) {
	forEachStore(t, func(t *testing.T, s HistoryStore) {
		_, err := s.GetRun(context.Background(), "missing")
		if !errors.Is(err, ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
		err = s.AddMetrics(context.Background(), "missing", []Metric{{Name: "NSE"}})
		if !errors.Is(err, ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound from AddMetrics, got %v", err)
		}
	})
}

func TestAddMetricsReplacesSameKey(t *testing.T) {
	forEachStore(t, func(t *testing.T, s HistoryStore) {
		ctx := context.Background()
		id, err := s.RecordRun(ctx, sampleRun("V0", time.Now(), 524))
		if err != nil {
			t.Fatalf("RecordRun() error = %v", err)
		}

		err = s.AddMetrics(ctx, id, []Metric{
			{Variable: "streamflow", Period: "calib", Name: "NSE", Value: 0.85},
			{Variable: "streamflow", Period: "eval", Name: "KGE", Value: math.NaN()},
		})
		if err != nil {
			t.Fatalf("AddMetrics() error = %v", err)
		}

		got, err := s.GetRun(ctx, id)
		if err != nil {
			t.Fatalf("GetRun() error = %v", err)
		}
		if len(got.Metrics) != 2 {
			t.Fatalf("expected 2 metrics, got %+v", got.Metrics)
		}
		if got.Metrics[0].Name != "NSE" || got.Metrics[0].Value != 0.85 {
			t.Errorf("expected replaced NSE, got %+v", got.Metrics[0])
		}
		if !math.IsNaN(got.Metrics[1].Value) {
			t.Errorf("expected NaN KGE, got %v", got.Metrics[1].Value)
		}
	})
}

func TestListRuns(t *testing.T) {
	forEachStore(t, func(t *testing.T, s HistoryStore) {
		ctx := context.Background()
		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		for i, label := range []string{"V0", "V1", "V2"} {
			if _, err := s.RecordRun(ctx, sampleRun(label, base.Add(time.Duration(i)*time.Hour), 500)); err != nil {
				t.Fatalf("RecordRun(%s) error = %v", label, err)
			}
		}
		other := sampleRun("elsewhere", base.Add(10*time.Hour), 1)
		other.WorkingDir = "/basins/seine"
		if _, err := s.RecordRun(ctx, other); err != nil {
			t.Fatalf("RecordRun() error = %v", err)
		}

		runs, err := s.ListRuns(ctx, ListOptions{WorkingDir: "/basins/loire", Limit: 2})
		if err != nil {
			t.Fatalf("ListRuns() error = %v", err)
		}
		if len(runs) != 2 || runs[0].Label != "V2" || runs[1].Label != "V1" {
			t.Errorf("expected V2, V1 newest first, got %+v", runs)
		}
		if runs[0].Tree != "" || runs[0].Parameters != nil {
			t.Error("ListRuns should not load tree or parameters")
		}

		all, err := s.ListRuns(ctx, ListOptions{})
		if err != nil {
			t.Fatalf("ListRuns() error = %v", err)
		}
		if len(all) != 4 || all[0].Label != "elsewhere" {
			t.Errorf("unexpected full listing %+v", all)
		}
	})
}

func TestParameterAndMetricHistory(t *testing.T) {
	forEachStore(t, func(t *testing.T, s HistoryStore) {
		ctx := context.Background()
		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		for i, area := range []float64{400, 450, 500} {
			r := sampleRun("V"+string(rune('0'+i)), base.Add(time.Duration(i)*time.Minute), area)
			r.Metrics = append(r.Metrics, Metric{Variable: "streamflow", Period: "calib", Name: "RMSE", Value: float64(i)})
			if _, err := s.RecordRun(ctx, r); err != nil {
				t.Fatalf("RecordRun() error = %v", err)
			}
		}

		params, err := s.ParameterHistory(ctx, "basin_area")
		if err != nil {
			t.Fatalf("ParameterHistory() error = %v", err)
		}
		if len(params) != 3 {
			t.Fatalf("expected 3 points, got %d", len(params))
		}
		for i, want := range []float64{400, 450, 500} {
			if params[i].Parameter.Value != want {
				t.Errorf("point %d = %v, want %v", i, params[i].Parameter.Value, want)
			}
		}
		if params[0].Label != "V0" {
			t.Errorf("expected oldest first, got %q", params[0].Label)
		}

		nse, err := s.MetricHistory(ctx, "NSE")
		if err != nil {
			t.Fatalf("MetricHistory() error = %v", err)
		}
		if len(nse) != 3 {
			t.Errorf("expected 3 NSE points, got %d", len(nse))
		}
		all, err := s.MetricHistory(ctx, "")
		if err != nil {
			t.Fatalf("MetricHistory() error = %v", err)
		}
		if len(all) != 6 {
			t.Errorf("expected 6 points, got %d", len(all))
		}
	})
}

func TestNewRunIDIsSortable(t *testing.T) {
	a := NewRunID(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "x")
	b := NewRunID(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), "x")
	if a >= b {
		t.Errorf("expected %q < %q", a, b)
	}
	if len(a) != len("20240101-000000-")+8 {
		t.Errorf("unexpected ID length %q", a)
	}
}
