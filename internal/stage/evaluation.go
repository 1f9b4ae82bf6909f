package stage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lucasnoah/mlfactory/internal/config"
	"github.com/lucasnoah/mlfactory/internal/dataset"
	"github.com/lucasnoah/mlfactory/internal/ml"
	"github.com/lucasnoah/mlfactory/internal/pipeline"
)

// Report is the metrics file written by evaluation.
type Report struct {
	RMSE   float64            `json:"rmse"`
	MAE    float64            `json:"mae"`
	R2     float64            `json:"r2"`
	Params map[string]float64 `json:"params"`
}

// Evaluation scores the trained model on the test partition.
type Evaluation struct {
	cfg    config.EvaluationConfig
	logger *slog.Logger
}

func NewEvaluation(cfg config.EvaluationConfig, logger *slog.Logger) *Evaluation {
	return &Evaluation{cfg: cfg, logger: componentLogger(logger, "model_evaluation")}
}

func (s *Evaluation) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	report, err := s.Evaluate()
	if err != nil {
		return err
	}
	if err := pipeline.WriteJSON(s.cfg.MetricFilePath, report); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	s.logger.Info("metrics saved", "path", s.cfg.MetricFilePath,
		"rmse", report.RMSE, "mae", report.MAE, "r2", report.R2)
	return nil
}

// Evaluate loads the model and test data and computes the report without
// writing it.
func (s *Evaluation) Evaluate() (*Report, error) {
	model, err := ml.LoadModel(s.cfg.ModelPath)
	if err != nil {
		return nil, err
	}
	test, err := dataset.ReadCSV(s.cfg.TestDataPath)
	if err != nil {
		return nil, err
	}
	y, err := test.Column(s.cfg.TargetColumn)
	if err != nil {
		return nil, fmt.Errorf("test data: %w", err)
	}
	X, err := test.Matrix(model.Features)
	if err != nil {
		return nil, fmt.Errorf("test data: %w", err)
	}
	pred, err := model.Predict(X)
	if err != nil {
		return nil, err
	}
	m, err := ml.Score(y, pred)
	if err != nil {
		return nil, err
	}

	params := s.cfg.Params
	if params == nil {
		params = map[string]float64{}
	}
	return &Report{RMSE: m.RMSE, MAE: m.MAE, R2: m.R2, Params: params}, nil
}
