package config

import (
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
)

// Builder projects a Store into one immutable config value per stage.
// Each Resolve method creates that stage's root directory and touches no
// other file.
type Builder struct {
	store  *Store
	logger *slog.Logger
}

// NewBuilder creates a Builder over store. A nil logger discards output.
func NewBuilder(store *Store, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Builder{store: store, logger: logger}
}

// ResolveIngestion returns the data_ingestion stage config.
func (b *Builder) ResolveIngestion() (IngestionConfig, error) {
	c := b.store.Run.DataIngestion
	if err := b.createRoot("data_ingestion", c.RootDir); err != nil {
		return IngestionConfig{}, err
	}
	return IngestionConfig{
		RootDir:       c.RootDir,
		SourceURL:     c.SourceURL,
		LocalDataFile: c.LocalDataFile,
		UnzipDir:      c.UnzipDir,
	}, nil
}

// ResolveValidation returns the data_validation stage config with a copy of
// the schema's column mapping.
func (b *Builder) ResolveValidation() (ValidationConfig, error) {
	c := b.store.Run.DataValidation
	if err := b.createRoot("data_validation", c.RootDir); err != nil {
		return ValidationConfig{}, err
	}
	return ValidationConfig{
		RootDir:    c.RootDir,
		StatusFile: c.StatusFile,
		DataPath:   c.UnzipDataDir,
		Schema:     maps.Clone(b.store.Schema.Columns),
	}, nil
}

// ResolveTransformation returns the data_transformation stage config with
// split defaults applied.
func (b *Builder) ResolveTransformation() (TransformationConfig, error) {
	c := b.store.Run.DataTransformation

	testSize := c.TestSize
	if testSize == 0 {
		testSize = DefaultTestSize
	}
	if testSize <= 0 || testSize >= 1 {
		return TransformationConfig{}, fmt.Errorf("data_transformation.test_size must be in (0, 1), got %v", testSize)
	}
	seed := DefaultRandomState
	if c.RandomState != nil {
		seed = *c.RandomState
	}
	target, err := b.targetColumn()
	if err != nil {
		return TransformationConfig{}, err
	}

	if err := b.createRoot("data_transformation", c.RootDir); err != nil {
		return TransformationConfig{}, err
	}
	return TransformationConfig{
		RootDir:       c.RootDir,
		DataPath:      c.DataPath,
		TargetColumn:  target,
		StatusFile:    c.StatusFile,
		TestSize:      testSize,
		RandomState:   seed,
		LogFeatures:   slices.Clone(c.LogFeatures),
		RatioFeatures: slices.Clone(c.RatioFeatures),
	}, nil
}

// ResolveTrainer returns the model_trainer stage config. alpha and l1_ratio
// are looked up by name in the ElasticNet section.
func (b *Builder) ResolveTrainer() (TrainerConfig, error) {
	c := b.store.Run.ModelTrainer

	alpha, err := b.hyperparameter("alpha")
	if err != nil {
		return TrainerConfig{}, err
	}
	l1Ratio, err := b.hyperparameter("l1_ratio")
	if err != nil {
		return TrainerConfig{}, err
	}
	target, err := b.targetColumn()
	if err != nil {
		return TrainerConfig{}, err
	}

	if err := b.createRoot("model_trainer", c.RootDir); err != nil {
		return TrainerConfig{}, err
	}
	return TrainerConfig{
		RootDir:       c.RootDir,
		TrainDataPath: c.TrainDataPath,
		TestDataPath:  c.TestDataPath,
		ScalerPath:    c.ScalerPath,
		ModelName:     c.ModelName,
		Alpha:         alpha,
		L1Ratio:       l1Ratio,
		TargetColumn:  target,
	}, nil
}

// ResolveEvaluation returns the model_evaluation stage config with a copy of
// the full ElasticNet hyperparameter mapping.
func (b *Builder) ResolveEvaluation() (EvaluationConfig, error) {
	c := b.store.Run.ModelEvaluation

	target, err := b.targetColumn()
	if err != nil {
		return EvaluationConfig{}, err
	}
	if err := b.createRoot("model_evaluation", c.RootDir); err != nil {
		return EvaluationConfig{}, err
	}
	return EvaluationConfig{
		RootDir:        c.RootDir,
		TestDataPath:   c.TestDataPath,
		ModelPath:      c.ModelPath,
		MetricFilePath: c.MetricFileName,
		Params:         maps.Clone(b.store.Params.ElasticNet),
		TargetColumn:   target,
	}, nil
}

// ResolvePrediction returns the config for scoring new rows. It reads the
// evaluation stage's model path, falling back to the trainer's output, and
// creates no directories.
func (b *Builder) ResolvePrediction() (PredictionConfig, error) {
	target, err := b.targetColumn()
	if err != nil {
		return PredictionConfig{}, err
	}
	modelPath := b.store.Run.ModelEvaluation.ModelPath
	if modelPath == "" {
		t := b.store.Run.ModelTrainer
		if t.RootDir == "" || t.ModelName == "" {
			return PredictionConfig{}, fmt.Errorf("model_evaluation.model_path is required")
		}
		modelPath = filepath.Join(t.RootDir, t.ModelName)
	}
	c := b.store.Run.DataTransformation
	return PredictionConfig{
		ModelPath:     modelPath,
		TargetColumn:  target,
		LogFeatures:   slices.Clone(c.LogFeatures),
		RatioFeatures: slices.Clone(c.RatioFeatures),
	}, nil
}

func (b *Builder) hyperparameter(key string) (float64, error) {
	v, ok := b.store.Params.ElasticNet[key]
	if !ok {
		return 0, &MissingHyperparameterError{Section: ElasticNetSection, Key: key}
	}
	return v, nil
}

func (b *Builder) targetColumn() (string, error) {
	name := b.store.Schema.TargetColumn.Name
	if name == "" {
		return "", fmt.Errorf("%s: TARGET_COLUMN.name is required", b.store.Paths.Schema)
	}
	return name, nil
}

// createRoot creates a stage root directory. An existing directory is not an error.
func (b *Builder) createRoot(section, dir string) error {
	if dir == "" {
		return fmt.Errorf("%s.root_dir is required", section)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s root %s: %w", section, dir, err)
	}
	b.logger.Info("directory created", "path", dir)
	return nil
}
