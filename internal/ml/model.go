package ml

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/lucasnoah/mlfactory/internal/pipeline"
)

// Model is the persisted output of training: the scaler, the fitted
// coefficients and the hyperparameters that produced them.
type Model struct {
	Kind      string          `json:"kind"`
	Features  []string        `json:"features"`
	Target    string          `json:"target"`
	Scaler    *StandardScaler `json:"scaler"`
	Coef      []float64       `json:"coef"`
	Intercept float64         `json:"intercept"`
	Alpha     float64         `json:"alpha"`
	L1Ratio   float64         `json:"l1_ratio"`
	NIter     int             `json:"n_iter"`
	Converged bool            `json:"converged"`
}

// ModelKind identifies the regression family stored in a Model.
const ModelKind = "elasticnet"

// NewModel bundles a fitted estimator with its scaler.
func NewModel(est *ElasticNet, scaler *StandardScaler, target string) *Model {
	return &Model{
		Kind:      ModelKind,
		Features:  scaler.Features,
		Target:    target,
		Scaler:    scaler,
		Coef:      est.Coef,
		Intercept: est.Intercept,
		Alpha:     est.Alpha,
		L1Ratio:   est.L1Ratio,
		NIter:     est.NIter,
		Converged: est.Converged,
	}
}

// Predict scales raw feature rows and applies the linear model.
func (m *Model) Predict(X *mat.Dense) ([]float64, error) {
	scaled, err := m.Scaler.Transform(X)
	if err != nil {
		return nil, err
	}
	est := &ElasticNet{Coef: m.Coef, Intercept: m.Intercept}
	return est.Predict(scaled)
}

// SaveModel writes m as JSON.
func SaveModel(path string, m *Model) error {
	if err := pipeline.WriteJSON(path, m); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	return nil
}

// LoadModel reads a model written by SaveModel.
func LoadModel(path string) (*Model, error) {
	var m Model
	if err := pipeline.ReadJSON(path, &m); err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	if m.Kind != ModelKind {
		return nil, fmt.Errorf("load model %s: unsupported kind %q", path, m.Kind)
	}
	if m.Scaler == nil || len(m.Coef) != len(m.Features) {
		return nil, fmt.Errorf("load model %s: inconsistent bundle", path)
	}
	return &m, nil
}
