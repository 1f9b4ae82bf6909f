package stage

import (
	"fmt"
	"log/slog"

	"github.com/lucasnoah/mlfactory/internal/config"
	"github.com/lucasnoah/mlfactory/internal/dataset"
	"github.com/lucasnoah/mlfactory/internal/ml"
)

// Predictor scores new rows with a trained model. Rows go through the same
// log and ratio features as the training data; the target column may be
// absent.
type Predictor struct {
	cfg    config.PredictionConfig
	model  *ml.Model
	logger *slog.Logger
}

// NewPredictor loads the model named by cfg.
func NewPredictor(cfg config.PredictionConfig, logger *slog.Logger) (*Predictor, error) {
	model, err := ml.LoadModel(cfg.ModelPath)
	if err != nil {
		return nil, err
	}
	return &Predictor{cfg: cfg, model: model, logger: componentLogger(logger, "prediction")}, nil
}

// PredictionColumn is the column Predict appends to the frame.
func (p *Predictor) PredictionColumn() string {
	return "predicted_" + p.model.Target
}

// Predict engineers features on f, scores every row and appends the
// predictions to f as PredictionColumn.
func (p *Predictor) Predict(f *dataset.Frame) ([]float64, error) {
	if err := engineerFeatures(f, p.cfg.TargetColumn, p.cfg.LogFeatures, p.cfg.RatioFeatures); err != nil {
		return nil, err
	}
	X, err := f.Matrix(p.model.Features)
	if err != nil {
		return nil, fmt.Errorf("prediction input: %w", err)
	}
	pred, err := p.model.Predict(X)
	if err != nil {
		return nil, err
	}
	if err := f.SetColumn(p.PredictionColumn(), pred); err != nil {
		return nil, err
	}
	p.logger.Info("rows scored", "rows", len(pred), "model", p.cfg.ModelPath)
	return pred, nil
}
