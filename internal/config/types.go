package config

// RunConfig is the run configuration document (config.yaml): per-stage root
// directories, the data source and every artifact path.
type RunConfig struct {
	ArtifactsRoot      string                 `yaml:"artifacts_root"`
	DataIngestion      DataIngestionSection   `yaml:"data_ingestion"`
	DataValidation     DataValidationSection  `yaml:"data_validation"`
	DataTransformation DataTransformSection   `yaml:"data_transformation"`
	ModelTrainer       ModelTrainerSection    `yaml:"model_trainer"`
	ModelEvaluation    ModelEvaluationSection `yaml:"model_evaluation"`
	RunHistory         RunHistorySection      `yaml:"run_history"`
	ArtifactStore      ArtifactStoreSection   `yaml:"artifact_store"`
}

type DataIngestionSection struct {
	RootDir       string `yaml:"root_dir"`
	SourceURL     string `yaml:"source_URL"`
	LocalDataFile string `yaml:"local_data_file"`
	UnzipDir      string `yaml:"unzip_dir"`
}

type DataValidationSection struct {
	RootDir      string `yaml:"root_dir"`
	UnzipDataDir string `yaml:"unzip_data_dir"`
	StatusFile   string `yaml:"STATUS_FILE"`
}

// DataTransformSection configures feature engineering and the train/test split.
// Zero values fall back to DefaultTestSize and DefaultRandomState.
type DataTransformSection struct {
	RootDir       string         `yaml:"root_dir"`
	DataPath      string         `yaml:"data_path"`
	StatusFile    string         `yaml:"status_file"`
	TestSize      float64        `yaml:"test_size"`
	RandomState   *uint64        `yaml:"random_state"`
	LogFeatures   []string       `yaml:"log_features"`
	RatioFeatures []RatioFeature `yaml:"ratio_features"`
}

// RatioFeature derives a new column as numerator / denominator.
type RatioFeature struct {
	Name        string `yaml:"name"`
	Numerator   string `yaml:"numerator"`
	Denominator string `yaml:"denominator"`
}

type ModelTrainerSection struct {
	RootDir       string `yaml:"root_dir"`
	TrainDataPath string `yaml:"train_data_path"`
	TestDataPath  string `yaml:"test_data_path"`
	ScalerPath    string `yaml:"scaler_path"`
	ModelName     string `yaml:"model_name"`
}

type ModelEvaluationSection struct {
	RootDir        string `yaml:"root_dir"`
	TestDataPath   string `yaml:"test_data_path"`
	ModelPath      string `yaml:"model_path"`
	MetricFileName string `yaml:"metric_file_name"`
}

// RunHistorySection selects the SQL database runs are recorded in.
// An empty DSN disables run history.
type RunHistorySection struct {
	Driver string `yaml:"driver"` // "sqlite3" (default) or "pgx"
	DSN    string `yaml:"dsn"`
}

// ArtifactStoreSection names the bucket `mlfactory publish` uploads to.
// Endpoint and credentials come from the environment.
type ArtifactStoreSection struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
}

// Params is the hyperparameter document (params.yaml), keyed by model family.
type Params struct {
	ElasticNet map[string]float64 `yaml:"ElasticNet"`
}

// Schema is the schema document (schema.yaml).
type Schema struct {
	Columns      map[string]string `yaml:"COLUMNS"`
	TargetColumn TargetColumn      `yaml:"TARGET_COLUMN"`
}

type TargetColumn struct {
	Name string `yaml:"name"`
}
