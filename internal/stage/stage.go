// Package stage implements the five pipeline components. Each one is built
// from its resolved config, runs once, and hands its output to the next
// stage as files on disk.
package stage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/lucasnoah/mlfactory/internal/pipeline"
)

// Stage names, in execution order.
const (
	NameIngestion      = "Data Ingestion Stage"
	NameValidation     = "Data Validation Stage"
	NameTransformation = "Data Transformation Stage"
	NameTrainer        = "Model Trainer Stage"
	NameEvaluation     = "Model Evaluation Stage"
)

// Component is a single runnable pipeline stage.
type Component interface {
	Run(ctx context.Context) error
}

// ErrSchemaInvalid is returned by transformation when the validation status
// file reports a failed schema check.
var ErrSchemaInvalid = errors.New("dataset failed schema validation")

const statusPrefix = "Validation status: "

// WriteStatus records a validation outcome as "Validation status: True|False".
func WriteStatus(path string, ok bool) error {
	v := "False"
	if ok {
		v = "True"
	}
	if err := pipeline.WriteAtomic(path, []byte(statusPrefix+v)); err != nil {
		return fmt.Errorf("write status file: %w", err)
	}
	return nil
}

// ReadStatus parses a status file written by WriteStatus.
func ReadStatus(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read status file: %w", err)
	}
	switch strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(string(data)), statusPrefix)) {
	case "True":
		return true, nil
	case "False":
		return false, nil
	default:
		return false, fmt.Errorf("status file %s: unrecognized content %q", path, data)
	}
}

func componentLogger(logger *slog.Logger, name string) *slog.Logger {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return logger.With("component", name)
}
