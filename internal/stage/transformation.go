package stage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lucasnoah/mlfactory/internal/config"
	"github.com/lucasnoah/mlfactory/internal/dataset"
	"github.com/lucasnoah/mlfactory/internal/ml"
)

// Transformation engineers features, splits the dataset and fits the scaler
// on the train partition.
type Transformation struct {
	cfg    config.TransformationConfig
	logger *slog.Logger
}

func NewTransformation(cfg config.TransformationConfig, logger *slog.Logger) *Transformation {
	return &Transformation{cfg: cfg, logger: componentLogger(logger, "data_transformation")}
}

func (s *Transformation) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.cfg.StatusFile != "" {
		ok, err := ReadStatus(s.cfg.StatusFile)
		if err != nil {
			return err
		}
		if !ok {
			return ErrSchemaInvalid
		}
	}

	frame, err := dataset.ReadCSV(s.cfg.DataPath)
	if err != nil {
		return err
	}
	if frame.Index(s.cfg.TargetColumn) < 0 {
		return fmt.Errorf("target column %q not found in %s", s.cfg.TargetColumn, s.cfg.DataPath)
	}
	if err := s.engineer(frame); err != nil {
		return err
	}

	train, test, err := dataset.Split(frame, s.cfg.TestSize, s.cfg.RandomState)
	if err != nil {
		return err
	}
	if err := dataset.WriteCSV(s.cfg.TrainPath(), train); err != nil {
		return err
	}
	if err := dataset.WriteCSV(s.cfg.TestPath(), test); err != nil {
		return err
	}
	s.logger.Info("train-test split completed", "seed", s.cfg.RandomState, "test_size", s.cfg.TestSize)
	s.logger.Info("train data saved", "path", s.cfg.TrainPath(), "rows", train.Len(), "columns", len(train.Columns))
	s.logger.Info("test data saved", "path", s.cfg.TestPath(), "rows", test.Len(), "columns", len(test.Columns))

	features := train.FeatureNames(s.cfg.TargetColumn)
	X, err := train.Matrix(features)
	if err != nil {
		return fmt.Errorf("train features: %w", err)
	}
	scaler, err := ml.FitScaler(X, features)
	if err != nil {
		return err
	}
	if err := ml.SaveScaler(s.cfg.ScalerPath(), scaler); err != nil {
		return err
	}
	s.logger.Info("scaler saved", "path", s.cfg.ScalerPath(), "features", len(features))
	return nil
}

func (s *Transformation) engineer(f *dataset.Frame) error {
	return engineerFeatures(f, s.cfg.TargetColumn, s.cfg.LogFeatures, s.cfg.RatioFeatures)
}

// engineerFeatures applies the log and ratio features in place. Neither may
// name the target column.
func engineerFeatures(f *dataset.Frame, target string, logFeatures []string, ratios []config.RatioFeature) error {
	for _, name := range logFeatures {
		if name == target {
			return fmt.Errorf("log feature %q is the target column", name)
		}
		if err := f.Log1p(name); err != nil {
			return err
		}
	}
	for _, rf := range ratios {
		if rf.Name == target {
			return fmt.Errorf("ratio feature %q is the target column", rf.Name)
		}
		if err := f.AddRatio(rf.Name, rf.Numerator, rf.Denominator); err != nil {
			return err
		}
	}
	return nil
}
