package stage

import (
	"context"
	"log/slog"

	"github.com/lucasnoah/mlfactory/internal/config"
	"github.com/lucasnoah/mlfactory/internal/dataset"
)

// Validation checks that every dataset column is declared in the schema.
type Validation struct {
	cfg    config.ValidationConfig
	logger *slog.Logger
}

func NewValidation(cfg config.ValidationConfig, logger *slog.Logger) *Validation {
	return &Validation{cfg: cfg, logger: componentLogger(logger, "data_validation")}
}

func (s *Validation) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.ValidateAllColumns()
	return err
}

// ValidateAllColumns writes and returns the validation status. The status is
// true only if every column in the dataset header is a schema key. Schema
// columns missing from the dataset are not checked.
func (s *Validation) ValidateAllColumns() (bool, error) {
	columns, err := dataset.ReadHeader(s.cfg.DataPath)
	if err != nil {
		return false, err
	}

	ok := true
	for _, col := range columns {
		if _, found := s.cfg.Schema[col]; !found {
			s.logger.Warn("column not in schema", "column", col)
			ok = false
		}
	}

	if err := WriteStatus(s.cfg.StatusFile, ok); err != nil {
		return false, err
	}
	s.logger.Info("validation status written", "status", ok, "path", s.cfg.StatusFile, "columns", len(columns))
	return ok, nil
}
