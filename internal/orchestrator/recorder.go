package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"github.com/lucasnoah/mlfactory/internal/config"
	"github.com/lucasnoah/mlfactory/internal/db"
	"github.com/lucasnoah/mlfactory/internal/pipeline"
)

// recorder writes run progress to the run record store and, when
// configured, the history database. Its failures are logged and never
// abort the run.
type recorder struct {
	runID  string
	paths  config.Paths
	logger *slog.Logger

	store       *pipeline.Store
	history     *db.DB
	ownsHistory bool
	attached    bool
	dbStarted   bool
}

func newRecorder(runID string, paths config.Paths, history *db.DB, logger *slog.Logger) *recorder {
	return &recorder{runID: runID, paths: paths, history: history, logger: logger}
}

// attach sets up recording from the first successfully loaded ConfigStore.
func (r *recorder) attach(ctx context.Context, s *config.Store) {
	if r.attached {
		return
	}
	r.attached = true

	r.store = pipeline.NewStore(pipeline.RunsDir(s.Run.ArtifactsRoot))
	if _, err := r.store.Create(r.runID, pipeline.ConfigPaths{
		Config: r.paths.Config,
		Params: r.paths.Params,
		Schema: r.paths.Schema,
	}); err != nil {
		r.warn("create run record", err)
		r.store = nil
	}

	if r.history == nil && s.Run.RunHistory.DSN != "" {
		h, err := db.Open(s.Run.RunHistory.Driver, s.Run.RunHistory.DSN)
		if err != nil {
			r.warn("open run history", err)
		} else if err := h.Migrate(ctx); err != nil {
			r.warn("migrate run history", err)
			h.Close()
		} else {
			r.history = h
			r.ownsHistory = true
		}
	}
	if r.history != nil {
		if err := r.history.StartRun(ctx, r.runID, r.paths.Config); err != nil {
			r.warn("record run start", err)
		} else {
			r.dbStarted = true
		}
	}
}

func (r *recorder) stageStarted(ctx context.Context, name string) {
	if r.store != nil {
		if err := r.store.Update(r.runID, func(rs *pipeline.RunState) {
			rs.CurrentStage = name
		}); err != nil {
			r.warn("update run record", err)
		}
	}
	if r.dbStarted {
		if err := r.history.LogStageEvent(ctx, r.runID, name, db.EventStarted, 0, ""); err != nil {
			r.warn("record stage start", err)
		}
	}
}

func (r *recorder) stageFinished(ctx context.Context, name string, elapsed time.Duration, stageErr error) {
	entry := pipeline.StageHistoryEntry{
		Stage:    name,
		Outcome:  pipeline.OutcomeSuccess,
		Duration: elapsed.Round(time.Millisecond).String(),
	}
	event := db.EventCompleted
	detail := ""
	if stageErr != nil {
		entry.Outcome = pipeline.OutcomeFail
		entry.Error = stageErr.Error()
		event = db.EventFailed
		detail = stageErr.Error()
	}

	if r.store != nil {
		if err := r.store.Update(r.runID, func(rs *pipeline.RunState) {
			rs.StageHistory = append(rs.StageHistory, entry)
		}); err != nil {
			r.warn("update run record", err)
		}
	}
	if r.dbStarted {
		if err := r.history.LogStageEvent(context.WithoutCancel(ctx), r.runID, name, event, elapsed, detail); err != nil {
			r.warn("record stage outcome", err)
		}
	}
}

func (r *recorder) finish(ctx context.Context, status string, runErr error) {
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	if r.store != nil {
		if err := r.store.Update(r.runID, func(rs *pipeline.RunState) {
			rs.Status = status
			rs.Error = msg
		}); err != nil {
			r.warn("update run record", err)
		}
	}
	if r.dbStarted {
		// The run context may already be canceled; the outcome is still recorded.
		if err := r.history.FinishRun(context.WithoutCancel(ctx), r.runID, status, msg); err != nil {
			r.warn("record run outcome", err)
		}
	}
}

func (r *recorder) close() {
	if r.ownsHistory {
		r.history.Close()
	}
}

func (r *recorder) warn(action string, err error) {
	r.logger.Warn("run recording failed", "run_id", r.runID, "action", action, "error", err)
}
