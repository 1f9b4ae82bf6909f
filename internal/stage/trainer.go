package stage

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/lucasnoah/mlfactory/internal/config"
	"github.com/lucasnoah/mlfactory/internal/dataset"
	"github.com/lucasnoah/mlfactory/internal/ml"
)

// Trainer fits the elastic-net model on the scaled train partition.
type Trainer struct {
	cfg    config.TrainerConfig
	logger *slog.Logger
}

func NewTrainer(cfg config.TrainerConfig, logger *slog.Logger) *Trainer {
	return &Trainer{cfg: cfg, logger: componentLogger(logger, "model_trainer")}
}

func (s *Trainer) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	train, err := dataset.ReadCSV(s.cfg.TrainDataPath)
	if err != nil {
		return err
	}
	y, err := train.Column(s.cfg.TargetColumn)
	if err != nil {
		return fmt.Errorf("train data: %w", err)
	}
	features := train.FeatureNames(s.cfg.TargetColumn)
	X, err := train.Matrix(features)
	if err != nil {
		return fmt.Errorf("train data: %w", err)
	}

	scaler, err := s.scaler(X, features)
	if err != nil {
		return err
	}
	scaled, err := scaler.Transform(X)
	if err != nil {
		return err
	}

	est := ml.NewElasticNet(s.cfg.Alpha, s.cfg.L1Ratio)
	if err := est.Fit(scaled, y); err != nil {
		return err
	}
	if !est.Converged {
		s.logger.Warn("elastic net did not converge", "iterations", est.NIter, "tol", est.Tol)
	}

	if err := ml.SaveModel(s.cfg.ModelPath(), ml.NewModel(est, scaler, s.cfg.TargetColumn)); err != nil {
		return err
	}
	s.logger.Info("model saved", "path", s.cfg.ModelPath(),
		"alpha", s.cfg.Alpha, "l1_ratio", s.cfg.L1Ratio, "iterations", est.NIter)
	return nil
}

// scaler loads the scaler fitted during transformation, or fits one on the
// train partition when no scaler path is configured.
func (s *Trainer) scaler(X *mat.Dense, features []string) (*ml.StandardScaler, error) {
	if s.cfg.ScalerPath == "" {
		return ml.FitScaler(X, features)
	}
	scaler, err := ml.LoadScaler(s.cfg.ScalerPath)
	if err != nil {
		return nil, err
	}
	if !slices.Equal(scaler.Features, features) {
		return nil, fmt.Errorf("scaler features %v do not match train features %v", scaler.Features, features)
	}
	return scaler, nil
}
