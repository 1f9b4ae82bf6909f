// Package orchestrator drives the five pipeline stages in order and stops at
// the first failure.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lucasnoah/mlfactory/internal/config"
	"github.com/lucasnoah/mlfactory/internal/db"
	"github.com/lucasnoah/mlfactory/internal/pipeline"
	"github.com/lucasnoah/mlfactory/internal/source"
	"github.com/lucasnoah/mlfactory/internal/stage"
)

// Step is one named stage: Build resolves the stage config and constructs
// its component.
type Step struct {
	Name  string
	Build func(b *config.Builder, logger *slog.Logger) (stage.Component, error)
}

// DefaultSteps returns the fixed stage sequence. fetcher may be nil.
func DefaultSteps(fetcher *source.Fetcher) []Step {
	return []Step{
		{Name: stage.NameIngestion, Build: func(b *config.Builder, logger *slog.Logger) (stage.Component, error) {
			cfg, err := b.ResolveIngestion()
			if err != nil {
				return nil, err
			}
			return stage.NewIngestion(cfg, fetcher, logger), nil
		}},
		{Name: stage.NameValidation, Build: func(b *config.Builder, logger *slog.Logger) (stage.Component, error) {
			cfg, err := b.ResolveValidation()
			if err != nil {
				return nil, err
			}
			return stage.NewValidation(cfg, logger), nil
		}},
		{Name: stage.NameTransformation, Build: func(b *config.Builder, logger *slog.Logger) (stage.Component, error) {
			cfg, err := b.ResolveTransformation()
			if err != nil {
				return nil, err
			}
			return stage.NewTransformation(cfg, logger), nil
		}},
		{Name: stage.NameTrainer, Build: func(b *config.Builder, logger *slog.Logger) (stage.Component, error) {
			cfg, err := b.ResolveTrainer()
			if err != nil {
				return nil, err
			}
			return stage.NewTrainer(cfg, logger), nil
		}},
		{Name: stage.NameEvaluation, Build: func(b *config.Builder, logger *slog.Logger) (stage.Component, error) {
			cfg, err := b.ResolveEvaluation()
			if err != nil {
				return nil, err
			}
			return stage.NewEvaluation(cfg, logger), nil
		}},
	}
}

// StageError reports the stage at which a run aborted.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Options configures an Orchestrator.
type Options struct {
	Paths   config.Paths
	Logger  *slog.Logger
	Fetcher *source.Fetcher
	// History overrides the run_history database from config.yaml. The
	// caller keeps ownership.
	History *db.DB
	// Steps overrides DefaultSteps.
	Steps []Step
	// RunID overrides the generated run id.
	RunID string
}

// Orchestrator runs the pipeline.
type Orchestrator struct {
	paths   config.Paths
	logger  *slog.Logger
	history *db.DB
	steps   []Step
	runID   string
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	steps := opts.Steps
	if steps == nil {
		steps = DefaultSteps(opts.Fetcher)
	}
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	return &Orchestrator{
		paths:   opts.Paths,
		logger:  logger,
		history: opts.History,
		steps:   steps,
		runID:   runID,
	}
}

// RunID returns the id this orchestrator records its run under.
func (o *Orchestrator) RunID() string { return o.runID }

// StageResult describes one executed stage.
type StageResult struct {
	Stage    string `json:"stage"`
	Outcome  string `json:"outcome"` // "success", "fail"
	Duration string `json:"duration"`
	Error    string `json:"error,omitempty"`
}

// RunResult describes a whole run.
type RunResult struct {
	RunID    string        `json:"run_id"`
	Status   string        `json:"status"` // "completed", "failed"
	Stages   []StageResult `json:"stages"`
	Duration string        `json:"duration"`
}

// Run executes every step in order. The ConfigStore is loaded afresh inside
// each stage, so a document edited mid-run is seen by later stages. The
// first error aborts the run and is returned as a *StageError.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	rec := newRecorder(o.runID, o.paths, o.history, o.logger)
	defer rec.close()

	result := &RunResult{RunID: o.runID, Status: pipeline.StatusCompleted}
	start := time.Now()
	logger := o.logger.With("run_id", o.runID)

	for _, step := range o.steps {
		stepStart := time.Now()
		err := o.runStep(ctx, step, rec, logger)
		elapsed := time.Since(stepStart)

		sr := StageResult{Stage: step.Name, Outcome: pipeline.OutcomeSuccess, Duration: elapsed.Round(time.Millisecond).String()}
		if err != nil {
			sr.Outcome = pipeline.OutcomeFail
			sr.Error = err.Error()
		}
		result.Stages = append(result.Stages, sr)
		rec.stageFinished(ctx, step.Name, elapsed, err)

		if err != nil {
			logger.Error("stage failed", "stage", step.Name, "error", err)
			result.Status = pipeline.StatusFailed
			result.Duration = time.Since(start).Round(time.Millisecond).String()
			serr := &StageError{Stage: step.Name, Err: err}
			rec.finish(ctx, pipeline.StatusFailed, serr)
			return result, serr
		}
	}

	result.Duration = time.Since(start).Round(time.Millisecond).String()
	rec.finish(ctx, pipeline.StatusCompleted, nil)
	logger.Info("pipeline completed", "stages", len(o.steps), "duration", result.Duration)
	return result, nil
}

func (o *Orchestrator) runStep(ctx context.Context, step Step, rec *recorder, logger *slog.Logger) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logger.Info(fmt.Sprintf(">>>>>> Stage %s started <<<<<<", step.Name))

	store, err := config.Load(o.paths)
	if err != nil {
		return err
	}
	rec.attach(ctx, store)
	rec.stageStarted(ctx, step.Name)

	comp, err := step.Build(config.NewBuilder(store, logger), logger)
	if err != nil {
		return err
	}
	if err := comp.Run(ctx); err != nil {
		return err
	}

	logger.Info(fmt.Sprintf(">>>>>> Stage %s completed <<<<<<", step.Name))
	return nil
}
