package config

import "fmt"

// ValidationError represents a single validation issue with a config.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// recognizedDrivers is the set of database/sql driver names run history supports.
var recognizedDrivers = map[string]bool{
	"sqlite3": true,
	"pgx":     true,
}

// Validate checks a loaded Store for missing paths and inconsistent settings.
// It returns a slice of all validation errors found (empty if valid).
func Validate(s *Store) []ValidationError {
	var errs []ValidationError
	r := s.Run

	required := func(field, value string) {
		if value == "" {
			errs = append(errs, ValidationError{Field: field, Message: "is required"})
		}
	}

	required("artifacts_root", r.ArtifactsRoot)

	required("data_ingestion.root_dir", r.DataIngestion.RootDir)
	required("data_ingestion.source_URL", r.DataIngestion.SourceURL)
	required("data_ingestion.local_data_file", r.DataIngestion.LocalDataFile)
	required("data_ingestion.unzip_dir", r.DataIngestion.UnzipDir)

	required("data_validation.root_dir", r.DataValidation.RootDir)
	required("data_validation.unzip_data_dir", r.DataValidation.UnzipDataDir)
	required("data_validation.STATUS_FILE", r.DataValidation.StatusFile)

	required("data_transformation.root_dir", r.DataTransformation.RootDir)
	required("data_transformation.data_path", r.DataTransformation.DataPath)

	required("model_trainer.root_dir", r.ModelTrainer.RootDir)
	required("model_trainer.train_data_path", r.ModelTrainer.TrainDataPath)
	required("model_trainer.model_name", r.ModelTrainer.ModelName)

	required("model_evaluation.root_dir", r.ModelEvaluation.RootDir)
	required("model_evaluation.test_data_path", r.ModelEvaluation.TestDataPath)
	required("model_evaluation.model_path", r.ModelEvaluation.ModelPath)
	required("model_evaluation.metric_file_name", r.ModelEvaluation.MetricFileName)

	if ts := r.DataTransformation.TestSize; ts < 0 || ts >= 1 {
		errs = append(errs, ValidationError{
			Field:   "data_transformation.test_size",
			Message: fmt.Sprintf("must be in (0, 1), got %v", ts),
		})
	}
	for i, rf := range r.DataTransformation.RatioFeatures {
		prefix := fmt.Sprintf("data_transformation.ratio_features[%d]", i)
		required(prefix+".name", rf.Name)
		required(prefix+".numerator", rf.Numerator)
		required(prefix+".denominator", rf.Denominator)
	}

	if r.RunHistory.DSN != "" && r.RunHistory.Driver != "" && !recognizedDrivers[r.RunHistory.Driver] {
		errs = append(errs, ValidationError{
			Field:   "run_history.driver",
			Message: fmt.Sprintf("unrecognized driver %q", r.RunHistory.Driver),
		})
	}

	// Hyperparameters
	for _, key := range []string{"alpha", "l1_ratio"} {
		if _, ok := s.Params.ElasticNet[key]; !ok {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.%s", ElasticNetSection, key),
				Message: "is required",
			})
		}
	}
	if a, ok := s.Params.ElasticNet["alpha"]; ok && a < 0 {
		errs = append(errs, ValidationError{Field: ElasticNetSection + ".alpha", Message: "must be >= 0"})
	}
	if l, ok := s.Params.ElasticNet["l1_ratio"]; ok && (l < 0 || l > 1) {
		errs = append(errs, ValidationError{Field: ElasticNetSection + ".l1_ratio", Message: "must be in [0, 1]"})
	}

	// Schema
	if len(s.Schema.Columns) == 0 {
		errs = append(errs, ValidationError{Field: "COLUMNS", Message: "at least one column is required"})
	}
	target := s.Schema.TargetColumn.Name
	if target == "" {
		errs = append(errs, ValidationError{Field: "TARGET_COLUMN.name", Message: "is required"})
	} else if _, ok := s.Schema.Columns[target]; !ok && len(s.Schema.Columns) > 0 {
		errs = append(errs, ValidationError{
			Field:   "TARGET_COLUMN.name",
			Message: fmt.Sprintf("references undefined column %q", target),
		})
	}

	return errs
}
