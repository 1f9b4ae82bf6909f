package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Stage event kinds.
const (
	EventStarted   = "started"
	EventCompleted = "completed"
	EventFailed    = "failed"
)

// Run represents a row in the runs table.
type Run struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	ConfigPath string `json:"config_path"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at,omitempty"`
	Error      string `json:"error,omitempty"`
}

// StageEvent represents a row in the stage_events table.
type StageEvent struct {
	ID         int64  `json:"id"`
	RunID      string `json:"run_id"`
	Stage      string `json:"stage"`
	Event      string `json:"event"`
	DurationMs int64  `json:"duration_ms"`
	Detail     string `json:"detail,omitempty"`
	Timestamp  string `json:"timestamp"`
}

// StartRun inserts a running run.
func (d *DB) StartRun(ctx context.Context, id, configPath string) error {
	_, err := d.conn.ExecContext(ctx,
		d.Rebind(`INSERT INTO runs (id, status, config_path, started_at) VALUES (?, 'running', ?, ?)`),
		id, configPath, now(),
	)
	if err != nil {
		return fmt.Errorf("start run: %w", err)
	}
	return nil
}

// FinishRun records the terminal status of a run.
func (d *DB) FinishRun(ctx context.Context, id, status, errMsg string) error {
	res, err := d.conn.ExecContext(ctx,
		d.Rebind(`UPDATE runs SET status = ?, finished_at = ?, error = ? WHERE id = ?`),
		status, now(), nullString(errMsg), id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run: run %s not found", id)
	}
	return nil
}

// LogStageEvent inserts a stage event. duration is stored in milliseconds
// and is only meaningful for completed and failed events.
func (d *DB) LogStageEvent(ctx context.Context, runID, stage, event string, duration time.Duration, detail string) error {
	var ms sql.NullInt64
	if event != EventStarted {
		ms = sql.NullInt64{Int64: duration.Milliseconds(), Valid: true}
	}
	_, err := d.conn.ExecContext(ctx,
		d.Rebind(`INSERT INTO stage_events (run_id, stage, event, duration_ms, detail, timestamp) VALUES (?, ?, ?, ?, ?, ?)`),
		runID, stage, event, ms, nullString(detail), now(),
	)
	if err != nil {
		return fmt.Errorf("log stage event: %w", err)
	}
	return nil
}

// GetRun returns a run by id, or nil if there is none.
func (d *DB) GetRun(ctx context.Context, id string) (*Run, error) {
	row := d.conn.QueryRowContext(ctx,
		d.Rebind(`SELECT id, status, config_path, started_at, finished_at, error FROM runs WHERE id = ?`),
		id,
	)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// ListRuns returns the most recent runs, newest first. limit <= 0 means no limit.
func (d *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, status, config_path, started_at, finished_at, error FROM runs ORDER BY started_at DESC, id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := d.conn.QueryContext(ctx, d.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// GetStageEvents returns all events for a run in insertion order.
func (d *DB) GetStageEvents(ctx context.Context, runID string) ([]StageEvent, error) {
	rows, err := d.conn.QueryContext(ctx,
		d.Rebind(`SELECT id, run_id, stage, event, duration_ms, detail, timestamp
		 FROM stage_events WHERE run_id = ? ORDER BY id`),
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("get stage events: %w", err)
	}
	defer rows.Close()

	var events []StageEvent
	for rows.Next() {
		var e StageEvent
		var ms sql.NullInt64
		var detail sql.NullString
		if err := rows.Scan(&e.ID, &e.RunID, &e.Stage, &e.Event, &ms, &detail, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan stage event: %w", err)
		}
		e.DurationMs = ms.Int64
		e.Detail = detail.String
		events = append(events, e)
	}
	return events, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s scanner) (*Run, error) {
	var r Run
	var configPath, finishedAt, errMsg sql.NullString
	if err := s.Scan(&r.ID, &r.Status, &configPath, &r.StartedAt, &finishedAt, &errMsg); err != nil {
		return nil, err
	}
	r.ConfigPath = configPath.String
	r.FinishedAt = finishedAt.String
	r.Error = errMsg.String
	return &r, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
