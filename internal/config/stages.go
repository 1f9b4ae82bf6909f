package config

import "path/filepath"

const (
	// DefaultTestSize is the holdout fraction used when data_transformation.test_size is unset.
	DefaultTestSize = 0.25
	// DefaultRandomState seeds the train/test shuffle when data_transformation.random_state is unset.
	DefaultRandomState uint64 = 42

	// ElasticNetSection is the params.yaml section holding the regression hyperparameters.
	ElasticNetSection = "ElasticNet"
)

// IngestionConfig is everything the ingestion stage needs.
type IngestionConfig struct {
	RootDir       string
	SourceURL     string
	LocalDataFile string
	UnzipDir      string
}

// ValidationConfig carries the dataset to check and the column->type schema.
type ValidationConfig struct {
	RootDir    string
	StatusFile string
	DataPath   string
	Schema     map[string]string
}

// TransformationConfig carries the input dataset and the feature engineering
// and split settings.
type TransformationConfig struct {
	RootDir       string
	DataPath      string
	TargetColumn  string
	StatusFile    string // empty disables the validation-status gate
	TestSize      float64
	RandomState   uint64
	LogFeatures   []string
	RatioFeatures []RatioFeature
}

// TrainPath is where the train partition is written.
func (c TransformationConfig) TrainPath() string { return filepath.Join(c.RootDir, "train.csv") }

// TestPath is where the test partition is written.
func (c TransformationConfig) TestPath() string { return filepath.Join(c.RootDir, "test.csv") }

// ScalerPath is where the fitted scaler is written.
func (c TransformationConfig) ScalerPath() string { return filepath.Join(c.RootDir, "scaler.json") }

// TrainerConfig carries the train partition, scaler and elastic-net hyperparameters.
type TrainerConfig struct {
	RootDir       string
	TrainDataPath string
	TestDataPath  string
	ScalerPath    string
	ModelName     string
	Alpha         float64
	L1Ratio       float64
	TargetColumn  string
}

// ModelPath is where the fitted model is written.
func (c TrainerConfig) ModelPath() string { return filepath.Join(c.RootDir, c.ModelName) }

// EvaluationConfig carries the test partition, the fitted model and the
// hyperparameters recorded alongside the metrics.
type EvaluationConfig struct {
	RootDir        string
	TestDataPath   string
	ModelPath      string
	MetricFilePath string
	Params         map[string]float64
	TargetColumn   string
}

// PredictionConfig carries the trained model and the feature engineering
// steps new rows go through before scoring.
type PredictionConfig struct {
	ModelPath     string
	TargetColumn  string
	LogFeatures   []string
	RatioFeatures []RatioFeature
}
