package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/lucasnoah/mlfactory/internal/analytics"
	"github.com/lucasnoah/mlfactory/internal/db"
	"github.com/lucasnoah/mlfactory/internal/pipeline"
	"github.com/lucasnoah/mlfactory/internal/stage"
)

// ---- view models ----

type DashboardData struct {
	Runs      []RunRow
	Metrics   *stage.Report
	Durations []analytics.StageDuration
	Failures  []analytics.StageFailureRate
}

type RunRow struct {
	ID           string
	Status       string
	CurrentStage string
	StagesDone   int
	UpdatedAgo   string
}

type RunDetailData struct {
	State      *pipeline.RunState
	Events     []db.StageEvent
	UpdatedAgo string
}

// ---- helpers ----

func relTime(ts string) string {
	formats := []string{
		time.RFC3339,
		"2006-01-02T15:04:05Z",
		db.TimeFormat,
		"2006-01-02 15:04:05",
	}
	var t time.Time
	for _, f := range formats {
		if parsed, err := time.Parse(f, ts); err == nil {
			t = parsed
			break
		}
	}
	if t.IsZero() {
		return ts
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// fmtDuration shortens a time.Duration string. Sub-second durations keep
// millisecond precision.
func fmtDuration(s string) string {
	d, err := time.ParseDuration(s)
	if err != nil || d == 0 {
		return ""
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	sec := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, sec)
	}
	return fmt.Sprintf("%ds", sec)
}

func (s *Server) execTemplate(w http.ResponseWriter, tmpl interface {
	ExecuteTemplate(http.ResponseWriter, string, interface{}) error
}, data interface{}) {
	if err := tmpl.ExecuteTemplate(w, "base", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// latestMetrics reads the metric file, or returns nil if there is none yet.
func (s *Server) latestMetrics() *stage.Report {
	if s.metricsPath == "" || !pipeline.FileExists(s.metricsPath) {
		return nil
	}
	var m stage.Report
	if err := pipeline.ReadJSON(s.metricsPath, &m); err != nil {
		s.logger.Warn("read metrics", "path", s.metricsPath, "error", err)
		return nil
	}
	return &m
}

// runsNewestFirst lists runs sorted by updated_at descending.
func (s *Server) runsNewestFirst() ([]pipeline.RunState, error) {
	runs, err := s.store.List("")
	if err != nil {
		return nil, err
	}
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].UpdatedAt > runs[j].UpdatedAt
	})
	return runs, nil
}

// ---- Dashboard ----

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	runs, err := s.runsNewestFirst()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := DashboardData{Metrics: s.latestMetrics()}
	for _, rs := range runs {
		data.Runs = append(data.Runs, RunRow{
			ID:           rs.ID,
			Status:       rs.Status,
			CurrentStage: rs.CurrentStage,
			StagesDone:   len(rs.StageHistory),
			UpdatedAgo:   relTime(rs.UpdatedAt),
		})
	}

	if s.db != nil {
		ctx := r.Context()
		if data.Durations, err = analytics.QueryStageDurations(ctx, s.db, ""); err != nil {
			s.logger.Warn("query stage durations", "error", err)
		}
		if data.Failures, err = analytics.QueryStageFailureRates(ctx, s.db, ""); err != nil {
			s.logger.Warn("query failure rates", "error", err)
		}
	}

	s.execTemplate(w, s.dashboardTmpl, data)
}

// ---- Run detail ----

func (s *Server) runDetail(r *http.Request, id string) (*RunDetailData, error) {
	rs, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	data := &RunDetailData{State: rs, UpdatedAgo: relTime(rs.UpdatedAt)}
	if s.db != nil {
		events, err := s.db.GetStageEvents(r.Context(), id)
		if err != nil {
			s.logger.Warn("query stage events", "run_id", id, "error", err)
		}
		data.Events = events
	}
	return data, nil
}

func (s *Server) handleRunDetail(w http.ResponseWriter, r *http.Request, id string) {
	data, err := s.runDetail(r, id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	s.execTemplate(w, s.runTmpl, data)
}

// ---- JSON API ----

func (s *Server) handleAPIRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.List(r.URL.Query().Get("status"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []pipeline.RunState{}
	}
	writeJSON(w, runs)
}

func (s *Server) handleAPIRun(w http.ResponseWriter, r *http.Request, id string) {
	data, err := s.runDetail(r, id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, struct {
		*pipeline.RunState
		Events []db.StageEvent `json:"events,omitempty"`
	}{data.State, data.Events})
}

func (s *Server) handleAPIMetrics(w http.ResponseWriter, r *http.Request) {
	m := s.latestMetrics()
	if m == nil {
		http.Error(w, "no metrics recorded", http.StatusNotFound)
		return
	}
	writeJSON(w, m)
}
