package ml

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const (
	DefaultMaxIter = 1000
	DefaultTol     = 1e-4
)

// ElasticNet is a linear regression fitted by cyclic coordinate descent on
//
//	1/(2n) * ||y - Xw - b||^2 + alpha*l1_ratio*||w||_1 + 0.5*alpha*(1-l1_ratio)*||w||^2
//
// The intercept is not penalized; it is recovered from the column means.
type ElasticNet struct {
	Alpha   float64
	L1Ratio float64
	MaxIter int
	Tol     float64

	Coef      []float64
	Intercept float64
	NIter     int
	Converged bool
}

// NewElasticNet returns a model with the default iteration limit and tolerance.
func NewElasticNet(alpha, l1Ratio float64) *ElasticNet {
	return &ElasticNet{
		Alpha:   alpha,
		L1Ratio: l1Ratio,
		MaxIter: DefaultMaxIter,
		Tol:     DefaultTol,
	}
}

// Fit estimates coefficients from X (n samples by p features) and y.
func (m *ElasticNet) Fit(X *mat.Dense, y []float64) error {
	n, p := X.Dims()
	if n == 0 {
		return fmt.Errorf("fit elastic net: no samples")
	}
	if len(y) != n {
		return fmt.Errorf("fit elastic net: %d targets for %d samples", len(y), n)
	}
	if m.Alpha < 0 {
		return fmt.Errorf("fit elastic net: alpha must be >= 0, got %v", m.Alpha)
	}
	if m.L1Ratio < 0 || m.L1Ratio > 1 {
		return fmt.Errorf("fit elastic net: l1_ratio must be in [0, 1], got %v", m.L1Ratio)
	}
	maxIter := m.MaxIter
	if maxIter <= 0 {
		maxIter = DefaultMaxIter
	}

	// Centered columns, stored column-major.
	xMean := make([]float64, p)
	cols := make([][]float64, p)
	norm2 := make([]float64, p)
	for j := 0; j < p; j++ {
		c := mat.Col(nil, j, X)
		xMean[j] = stat.Mean(c, nil)
		floats.AddConst(-xMean[j], c)
		cols[j] = c
		norm2[j] = floats.Dot(c, c)
	}
	yMean := stat.Mean(y, nil)
	yc := make([]float64, n)
	copy(yc, y)
	floats.AddConst(-yMean, yc)

	l1Reg := m.Alpha * m.L1Ratio * float64(n)
	l2Reg := m.Alpha * (1 - m.L1Ratio) * float64(n)
	tol := m.Tol * floats.Dot(yc, yc)

	w := make([]float64, p)
	resid := make([]float64, n)
	copy(resid, yc)

	m.Converged = false
	m.NIter = 0
	for iter := 1; iter <= maxIter; iter++ {
		m.NIter = iter
		var wMax, dwMax float64
		for j := 0; j < p; j++ {
			if norm2[j] == 0 {
				continue
			}
			old := w[j]
			if old != 0 {
				floats.AddScaled(resid, old, cols[j])
			}
			rho := floats.Dot(cols[j], resid)
			w[j] = softThreshold(rho, l1Reg) / (norm2[j] + l2Reg)
			if w[j] != 0 {
				floats.AddScaled(resid, -w[j], cols[j])
			}
			dwMax = math.Max(dwMax, math.Abs(w[j]-old))
			wMax = math.Max(wMax, math.Abs(w[j]))
		}
		if wMax == 0 || dwMax/wMax < m.Tol || iter == maxIter {
			if dualityGap(cols, resid, yc, w, l1Reg, l2Reg) <= tol {
				m.Converged = true
				break
			}
		}
	}

	m.Coef = w
	m.Intercept = yMean - floats.Dot(xMean, w)
	return nil
}

// Predict returns X*coef + intercept.
func (m *ElasticNet) Predict(X *mat.Dense) ([]float64, error) {
	n, p := X.Dims()
	if p != len(m.Coef) {
		return nil, fmt.Errorf("model has %d coefficients, got %d features", len(m.Coef), p)
	}
	out := make([]float64, n)
	row := make([]float64, p)
	for i := 0; i < n; i++ {
		mat.Row(row, i, X)
		out[i] = floats.Dot(row, m.Coef) + m.Intercept
	}
	return out, nil
}

func softThreshold(x, lambda float64) float64 {
	switch {
	case x > lambda:
		return x - lambda
	case x < -lambda:
		return x + lambda
	default:
		return 0
	}
}

// dualityGap bounds the distance of w from the optimum of the scaled
// objective. Coordinate descent stops once it drops below tol*||y||^2.
func dualityGap(cols [][]float64, resid, y, w []float64, l1Reg, l2Reg float64) float64 {
	var dualNorm float64
	for j, c := range cols {
		dualNorm = math.Max(dualNorm, math.Abs(floats.Dot(c, resid)-l2Reg*w[j]))
	}
	rNorm2 := floats.Dot(resid, resid)
	wNorm2 := floats.Dot(w, w)

	var gap, k float64
	if dualNorm > l1Reg {
		k = l1Reg / dualNorm
		gap = 0.5 * (rNorm2 + rNorm2*k*k)
	} else {
		k = 1
		gap = rNorm2
	}
	gap += l1Reg*floats.Norm(w, 1) - k*floats.Dot(resid, y) + 0.5*l2Reg*(1+k*k)*wNorm2
	return gap
}
