// Package ml holds the numeric pieces of the pipeline: feature scaling,
// elastic-net regression and regression metrics. Everything operates on
// gonum matrices and is deterministic for a given input.
package ml

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/lucasnoah/mlfactory/internal/pipeline"
)

// StandardScaler centers each feature on its mean and divides by its
// population standard deviation.
type StandardScaler struct {
	Features []string  `json:"features"`
	Mean     []float64 `json:"mean"`
	Scale    []float64 `json:"scale"`
}

// FitScaler computes per-column mean and scale from X. A constant column
// gets a scale of 1 so it maps to zero instead of NaN.
func FitScaler(X *mat.Dense, features []string) (*StandardScaler, error) {
	rows, cols := X.Dims()
	if rows == 0 {
		return nil, fmt.Errorf("fit scaler: no rows")
	}
	if len(features) != cols {
		return nil, fmt.Errorf("fit scaler: %d feature names for %d columns", len(features), cols)
	}

	s := &StandardScaler{
		Features: slices.Clone(features),
		Mean:     make([]float64, cols),
		Scale:    make([]float64, cols),
	}
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, X)
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 {
			std = 1
		}
		s.Mean[j] = mean
		s.Scale[j] = std
	}
	return s, nil
}

// Transform returns a scaled copy of X.
func (s *StandardScaler) Transform(X *mat.Dense) (*mat.Dense, error) {
	rows, cols := X.Dims()
	if cols != len(s.Mean) {
		return nil, fmt.Errorf("scaler fitted on %d features, got %d", len(s.Mean), cols)
	}
	out := mat.NewDense(rows, cols, nil)
	out.Apply(func(_, j int, v float64) float64 {
		return (v - s.Mean[j]) / s.Scale[j]
	}, X)
	return out, nil
}

// SaveScaler writes the scaler as JSON.
func SaveScaler(path string, s *StandardScaler) error {
	if err := pipeline.WriteJSON(path, s); err != nil {
		return fmt.Errorf("save scaler: %w", err)
	}
	return nil
}

// LoadScaler reads a scaler written by SaveScaler.
func LoadScaler(path string) (*StandardScaler, error) {
	var s StandardScaler
	if err := pipeline.ReadJSON(path, &s); err != nil {
		return nil, fmt.Errorf("load scaler: %w", err)
	}
	if len(s.Mean) != len(s.Scale) || len(s.Mean) != len(s.Features) {
		return nil, fmt.Errorf("load scaler %s: inconsistent lengths", path)
	}
	return &s, nil
}
