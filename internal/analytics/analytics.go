// Package analytics summarizes run history recorded in the database.
package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sort"
)

// DB is the interface for database queries used by analytics.
type DB interface {
	Conn() *sql.DB
	Rebind(query string) string
}

// StageDuration holds duration stats for a stage, in seconds.
type StageDuration struct {
	Stage string  `json:"stage"`
	Count int     `json:"count"`
	Avg   float64 `json:"avg_seconds"`
	P50   float64 `json:"p50_seconds"`
	P95   float64 `json:"p95_seconds"`
}

// QueryStageDurations returns average and percentile durations per stage
// over completed stage events. since filters on the event timestamp and may
// be empty.
func QueryStageDurations(ctx context.Context, database DB, since string) ([]StageDuration, error) {
	query := `
		SELECT stage, duration_ms
		FROM stage_events
		WHERE event = 'completed' AND duration_ms IS NOT NULL`

	args := []interface{}{}
	if since != "" {
		query += ` AND timestamp >= ?`
		args = append(args, since)
	}

	rows, err := database.Conn().QueryContext(ctx, database.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query stage durations: %w", err)
	}
	defer rows.Close()

	stageDurations := make(map[string][]float64)
	for rows.Next() {
		var stage string
		var ms int64
		if err := rows.Scan(&stage, &ms); err != nil {
			return nil, fmt.Errorf("scan stage duration: %w", err)
		}
		stageDurations[stage] = append(stageDurations[stage], float64(ms)/1000)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var results []StageDuration
	for stage, durations := range stageDurations {
		sort.Float64s(durations)
		results = append(results, StageDuration{
			Stage: stage,
			Count: len(durations),
			Avg:   avg(durations),
			P50:   percentile(durations, 50),
			P95:   percentile(durations, 95),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Stage < results[j].Stage
	})
	return results, nil
}

// StageFailureRate holds how often a stage ends a run.
type StageFailureRate struct {
	Stage   string  `json:"stage"`
	Total   int     `json:"total"`
	Failed  int     `json:"failed"`
	FailPct float64 `json:"fail_pct"`
}

// QueryStageFailureRates returns failure rates per stage over terminal
// stage events.
func QueryStageFailureRates(ctx context.Context, database DB, since string) ([]StageFailureRate, error) {
	query := `
		SELECT stage,
			COUNT(*) as total,
			SUM(CASE WHEN event = 'failed' THEN 1 ELSE 0 END) as failed
		FROM stage_events
		WHERE event IN ('completed', 'failed')`

	args := []interface{}{}
	if since != "" {
		query += ` AND timestamp >= ?`
		args = append(args, since)
	}
	query += ` GROUP BY stage ORDER BY stage`

	rows, err := database.Conn().QueryContext(ctx, database.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query stage failure rates: %w", err)
	}
	defer rows.Close()

	var results []StageFailureRate
	for rows.Next() {
		var r StageFailureRate
		if err := rows.Scan(&r.Stage, &r.Total, &r.Failed); err != nil {
			return nil, fmt.Errorf("scan stage failure rate: %w", err)
		}
		r.FailPct = pct(r.Failed, r.Total)
		results = append(results, r)
	}
	return results, rows.Err()
}

// RunThroughput holds run counts for one day.
type RunThroughput struct {
	Period    string `json:"period"`
	Started   int    `json:"started"`
	Completed int    `json:"completed"`
	Failed    int    `json:"failed"`
}

// QueryRunThroughput returns run counts grouped by start day, newest first,
// for at most the last 10 days with runs.
func QueryRunThroughput(ctx context.Context, database DB, since string) ([]RunThroughput, error) {
	query := `
		SELECT
			SUBSTR(started_at, 1, 10) as period,
			COUNT(*) as started,
			SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END) as completed,
			SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END) as failed
		FROM runs`

	args := []interface{}{}
	if since != "" {
		query += ` WHERE started_at >= ?`
		args = append(args, since)
	}
	query += ` GROUP BY period ORDER BY period DESC LIMIT 10`

	rows, err := database.Conn().QueryContext(ctx, database.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query run throughput: %w", err)
	}
	defer rows.Close()

	var results []RunThroughput
	for rows.Next() {
		var rt RunThroughput
		if err := rows.Scan(&rt.Period, &rt.Started, &rt.Completed, &rt.Failed); err != nil {
			return nil, fmt.Errorf("scan throughput: %w", err)
		}
		results = append(results, rt)
	}
	return results, rows.Err()
}

// --- helpers ---

func avg(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return math.Round(sum/float64(len(values))*10) / 10
}

func percentile(sorted []float64, p int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := float64(p) / 100.0 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper || upper >= len(sorted) {
		return math.Round(sorted[lower]*10) / 10
	}
	weight := rank - float64(lower)
	return math.Round((sorted[lower]*(1-weight)+sorted[upper]*weight)*10) / 10
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(n)/float64(total)*1000) / 10
}
