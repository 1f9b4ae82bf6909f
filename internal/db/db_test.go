package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open(DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := d.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()
	d, err := Open("", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer d.Close()

	if d.Driver() != DriverSQLite {
		t.Errorf("Driver() = %q, want %q", d.Driver(), DriverSQLite)
	}
	if err := d.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	// Verify all tables exist
	for _, table := range []string{"schema_version", "runs", "stage_events"} {
		var name string
		err := d.conn.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}

	var version int
	if err := d.conn.QueryRow("SELECT version FROM schema_version").Scan(&version); err != nil {
		t.Fatalf("query schema_version: %v", err)
	}
	if version != 1 {
		t.Errorf("expected schema version 1, got %d", version)
	}

	// Migrate again should be idempotent
	if err := d.Migrate(ctx); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	d, err := Open(DriverSQLite, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer d.Close()
	if err := d.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func TestOpenUnsupportedDriver(t *testing.T) {
	if _, err := Open("mysql", "x"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestRebind(t *testing.T) {
	q := "SELECT a FROM t WHERE b = ? AND c = ?"
	if got := Rebind(DriverSQLite, q); got != q {
		t.Errorf("sqlite Rebind = %q, want unchanged", got)
	}
	want := "SELECT a FROM t WHERE b = $1 AND c = $2"
	if got := Rebind(DriverPostgres, q); got != want {
		t.Errorf("pgx Rebind = %q, want %q", got, want)
	}
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	d := testDB(t)

	if err := d.StartRun(ctx, "r1", "config/config.yaml"); err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	r, err := d.GetRun(ctx, "r1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if r == nil {
		t.Fatal("GetRun returned nil")
	}
	if r.Status != "running" {
		t.Errorf("Status = %q, want running", r.Status)
	}
	if r.FinishedAt != "" {
		t.Errorf("FinishedAt = %q, want empty", r.FinishedAt)
	}

	if err := d.FinishRun(ctx, "r1", "failed", "stage Model Trainer Stage: boom"); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
	r, _ = d.GetRun(ctx, "r1")
	if r.Status != "failed" {
		t.Errorf("Status = %q, want failed", r.Status)
	}
	if r.Error != "stage Model Trainer Stage: boom" {
		t.Errorf("Error = %q", r.Error)
	}
	if r.FinishedAt == "" {
		t.Error("FinishedAt should be set")
	}
}

func TestRunStatusConstraint(t *testing.T) {
	ctx := context.Background()
	d := testDB(t)
	_ = d.StartRun(ctx, "r1", "")
	if err := d.FinishRun(ctx, "r1", "bogus", ""); err == nil {
		t.Fatal("expected CHECK constraint error for invalid status")
	}
}

func TestFinishRunNotFound(t *testing.T) {
	d := testDB(t)
	if err := d.FinishRun(context.Background(), "missing", "completed", ""); err == nil {
		t.Fatal("expected error finishing unknown run")
	}
}

func TestGetRunNotFound(t *testing.T) {
	d := testDB(t)
	r, err := d.GetRun(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if r != nil {
		t.Errorf("GetRun = %+v, want nil", r)
	}
}

func TestListRuns(t *testing.T) {
	ctx := context.Background()
	d := testDB(t)

	exec := func(q string, args ...interface{}) {
		t.Helper()
		if _, err := d.conn.Exec(q, args...); err != nil {
			t.Fatalf("exec: %v", err)
		}
	}
	exec(`INSERT INTO runs (id, status, started_at) VALUES ('a', 'completed', '2026-01-01 10:00:00.000')`)
	exec(`INSERT INTO runs (id, status, started_at) VALUES ('b', 'failed', '2026-01-02 10:00:00.000')`)
	exec(`INSERT INTO runs (id, status, started_at) VALUES ('c', 'running', '2026-01-03 10:00:00.000')`)

	runs, err := d.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("ListRuns returned %d, want 3", len(runs))
	}
	if runs[0].ID != "c" || runs[2].ID != "a" {
		t.Errorf("order = %s,%s,%s, want c,b,a", runs[0].ID, runs[1].ID, runs[2].ID)
	}

	limited, err := d.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns limit: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("ListRuns(2) returned %d", len(limited))
	}
}

func TestStageEvents(t *testing.T) {
	ctx := context.Background()
	d := testDB(t)
	_ = d.StartRun(ctx, "r1", "")

	if err := d.LogStageEvent(ctx, "r1", "Data Ingestion Stage", EventStarted, 0, ""); err != nil {
		t.Fatalf("LogStageEvent: %v", err)
	}
	if err := d.LogStageEvent(ctx, "r1", "Data Ingestion Stage", EventCompleted, 1500*time.Millisecond, ""); err != nil {
		t.Fatalf("LogStageEvent: %v", err)
	}
	if err := d.LogStageEvent(ctx, "r1", "Data Validation Stage", EventFailed, 20*time.Millisecond, "bad schema"); err != nil {
		t.Fatalf("LogStageEvent: %v", err)
	}

	events, err := d.GetStageEvents(ctx, "r1")
	if err != nil {
		t.Fatalf("GetStageEvents: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if events[0].Event != EventStarted || events[0].DurationMs != 0 {
		t.Errorf("events[0] = %+v", events[0])
	}
	if events[1].DurationMs != 1500 {
		t.Errorf("events[1].DurationMs = %d, want 1500", events[1].DurationMs)
	}
	if events[2].Detail != "bad schema" {
		t.Errorf("events[2].Detail = %q", events[2].Detail)
	}
}

func TestStageEventRequiresRun(t *testing.T) {
	d := testDB(t)
	err := d.LogStageEvent(context.Background(), "nope", "Data Ingestion Stage", EventStarted, 0, "")
	if err == nil {
		t.Fatal("expected foreign key error for unknown run")
	}
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	d := testDB(t)
	_ = d.StartRun(ctx, "r1", "")

	if err := d.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	runs, err := d.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs after reset, got %d", len(runs))
	}
}
