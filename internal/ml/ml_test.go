package ml

import (
	"math"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"
)

const eps = 1e-9

func approx(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestFitScaler(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		1, 10,
		2, 10,
		3, 10,
	})
	s, err := FitScaler(X, []string{"a", "b"})
	if err != nil {
		t.Fatalf("FitScaler: %v", err)
	}
	if s.Mean[0] != 2 || s.Mean[1] != 10 {
		t.Errorf("Mean = %v, want [2 10]", s.Mean)
	}
	if want := math.Sqrt(2.0 / 3.0); !approx(s.Scale[0], want, eps) {
		t.Errorf("Scale[0] = %v, want %v (population std)", s.Scale[0], want)
	}
	if s.Scale[1] != 1 {
		t.Errorf("Scale[1] = %v, want 1 for a constant column", s.Scale[1])
	}

	out, err := s.Transform(X)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if got, want := out.At(0, 0), -1/math.Sqrt(2.0/3.0); !approx(got, want, eps) {
		t.Errorf("scaled[0][0] = %v, want %v", got, want)
	}
	if out.At(2, 1) != 0 {
		t.Errorf("scaled constant column = %v, want 0", out.At(2, 1))
	}
	// The input is left untouched.
	if X.At(0, 0) != 1 {
		t.Errorf("Transform modified its input")
	}
}

func TestScalerErrors(t *testing.T) {
	X := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	if _, err := FitScaler(X, []string{"only-one"}); err == nil {
		t.Error("expected error for feature name count mismatch")
	}
	s, _ := FitScaler(X, []string{"a", "b"})
	if _, err := s.Transform(mat.NewDense(1, 3, nil)); err == nil {
		t.Error("expected error transforming wrong width")
	}
}

func TestScalerSaveLoad(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{1, 2, 4})
	s, _ := FitScaler(X, []string{"x"})
	path := filepath.Join(t.TempDir(), "scaler.json")
	if err := SaveScaler(path, s); err != nil {
		t.Fatalf("SaveScaler: %v", err)
	}
	got, err := LoadScaler(path)
	if err != nil {
		t.Fatalf("LoadScaler: %v", err)
	}
	if got.Mean[0] != s.Mean[0] || got.Scale[0] != s.Scale[0] || got.Features[0] != "x" {
		t.Errorf("LoadScaler = %+v, want %+v", got, s)
	}
	if _, err := LoadScaler(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing scaler file")
	}
}

// line returns x = 1..4 and y = 2x, which has closed-form elastic-net
// solutions for a single feature.
func line() (*mat.Dense, []float64) {
	return mat.NewDense(4, 1, []float64{1, 2, 3, 4}), []float64{2, 4, 6, 8}
}

func TestElasticNetUnpenalizedRecoversLine(t *testing.T) {
	X := mat.NewDense(5, 1, []float64{0, 1, 2, 3, 4})
	y := []float64{1, 3, 5, 7, 9}

	m := NewElasticNet(0, 0.5)
	if err := m.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if !approx(m.Coef[0], 2, 1e-9) {
		t.Errorf("Coef = %v, want 2", m.Coef[0])
	}
	if !approx(m.Intercept, 1, 1e-9) {
		t.Errorf("Intercept = %v, want 1", m.Intercept)
	}
	if !m.Converged {
		t.Error("expected convergence")
	}
}

func TestElasticNetClosedForm(t *testing.T) {
	X, y := line()
	// centered x = [-1.5 -0.5 0.5 1.5], ||x||^2 = 5, x.y = 10, n = 4.
	// l1 = 0.1*0.5*4 = 0.2, l2 = 0.1*0.5*4 = 0.2, w = (10-0.2)/(5+0.2).
	m := NewElasticNet(0.1, 0.5)
	if err := m.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	want := 9.8 / 5.2
	if !approx(m.Coef[0], want, 1e-12) {
		t.Errorf("Coef = %v, want %v", m.Coef[0], want)
	}
	if !approx(m.Intercept, 5-2.5*want, 1e-12) {
		t.Errorf("Intercept = %v, want %v", m.Intercept, 5-2.5*want)
	}

	pred, err := m.Predict(X)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if !approx(pred[0], m.Intercept+want, 1e-12) {
		t.Errorf("pred[0] = %v", pred[0])
	}
}

func TestElasticNetLargeAlphaZeroesCoefficients(t *testing.T) {
	X, y := line()
	m := NewElasticNet(3, 1)
	if err := m.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if m.Coef[0] != 0 {
		t.Errorf("Coef = %v, want 0", m.Coef[0])
	}
	if m.Intercept != 5 {
		t.Errorf("Intercept = %v, want mean(y) = 5", m.Intercept)
	}
}

func TestElasticNetDeterministic(t *testing.T) {
	X := mat.NewDense(6, 3, []float64{
		7.4, 9.4, 0.9978,
		7.8, 9.8, 0.9968,
		7.8, 9.8, 0.9970,
		11.2, 9.8, 0.9980,
		7.4, 9.4, 0.9978,
		7.9, 10.5, 0.9964,
	})
	y := []float64{5, 5, 5, 6, 5, 5}

	a, b := NewElasticNet(0.2, 0.1), NewElasticNet(0.2, 0.1)
	if err := a.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if err := b.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	for j := range a.Coef {
		if a.Coef[j] != b.Coef[j] {
			t.Errorf("Coef[%d] differs between fits: %v vs %v", j, a.Coef[j], b.Coef[j])
		}
	}
	if a.Intercept != b.Intercept {
		t.Errorf("Intercept differs between fits: %v vs %v", a.Intercept, b.Intercept)
	}
}

func TestElasticNetErrors(t *testing.T) {
	X, y := line()
	tests := []struct {
		name string
		m    *ElasticNet
		y    []float64
	}{
		{"negative alpha", NewElasticNet(-1, 0.5), y},
		{"l1_ratio above 1", NewElasticNet(0.1, 1.5), y},
		{"target length", NewElasticNet(0.1, 0.5), y[:2]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.m.Fit(X, tt.y); err == nil {
				t.Error("expected error")
			}
		})
	}

	m := NewElasticNet(0.1, 0.5)
	_ = m.Fit(X, y)
	if _, err := m.Predict(mat.NewDense(1, 2, nil)); err == nil {
		t.Error("expected error predicting with wrong width")
	}
}

func TestScore(t *testing.T) {
	m, err := Score([]float64{3, -0.5, 2, 7}, []float64{2.5, 0, 2, 8})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if !approx(m.MAE, 0.5, eps) {
		t.Errorf("MAE = %v, want 0.5", m.MAE)
	}
	if !approx(m.RMSE, math.Sqrt(0.375), eps) {
		t.Errorf("RMSE = %v, want %v", m.RMSE, math.Sqrt(0.375))
	}
	if !approx(m.R2, 0.9486081370449679, 1e-12) {
		t.Errorf("R2 = %v, want 0.9486081370449679", m.R2)
	}
}

func TestScoreConstantTarget(t *testing.T) {
	m, err := Score([]float64{5, 5}, []float64{5, 5})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if m.R2 != 1 || m.RMSE != 0 {
		t.Errorf("perfect constant fit = %+v, want R2 1 RMSE 0", m)
	}

	m, _ = Score([]float64{5, 5}, []float64{4, 6})
	if m.R2 != 0 {
		t.Errorf("R2 = %v, want 0 for imperfect constant fit", m.R2)
	}
	if math.IsNaN(m.R2) || math.IsInf(m.R2, 0) {
		t.Error("R2 should be finite")
	}
}

func TestScoreErrors(t *testing.T) {
	if _, err := Score(nil, nil); err == nil {
		t.Error("expected error for no samples")
	}
	if _, err := Score([]float64{1, 2}, []float64{1}); err == nil {
		t.Error("expected error for length mismatch")
	}
}

func TestModelSaveLoadPredict(t *testing.T) {
	X, y := line()
	scaler, err := FitScaler(X, []string{"x"})
	if err != nil {
		t.Fatal(err)
	}
	scaled, _ := scaler.Transform(X)
	est := NewElasticNet(0, 0.5)
	if err := est.Fit(scaled, y); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "model.json")
	if err := SaveModel(path, NewModel(est, scaler, "y")); err != nil {
		t.Fatalf("SaveModel: %v", err)
	}
	m, err := LoadModel(path)
	if err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	if m.Target != "y" || m.Features[0] != "x" {
		t.Errorf("loaded model = %+v", m)
	}

	pred, err := m.Predict(mat.NewDense(1, 1, []float64{5}))
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if !approx(pred[0], 10, 1e-9) {
		t.Errorf("Predict(5) = %v, want 10", pred[0])
	}
}
