package ml

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Metrics are the regression scores reported by evaluation.
type Metrics struct {
	RMSE float64 `json:"rmse"`
	MAE  float64 `json:"mae"`
	R2   float64 `json:"r2"`
}

// Score compares predictions against actual values.
func Score(actual, predicted []float64) (Metrics, error) {
	if len(actual) == 0 {
		return Metrics{}, fmt.Errorf("score: no samples")
	}
	if len(actual) != len(predicted) {
		return Metrics{}, fmt.Errorf("score: %d actual values, %d predictions", len(actual), len(predicted))
	}

	diff := make([]float64, len(actual))
	floats.SubTo(diff, actual, predicted)
	n := float64(len(diff))

	m := Metrics{
		RMSE: math.Sqrt(floats.Dot(diff, diff) / n),
		MAE:  floats.Norm(diff, 1) / n,
	}

	// A constant target has no variance to explain; score 1 for a perfect
	// fit and 0 otherwise so the result stays finite.
	if len(actual) < 2 || stat.Variance(actual, nil) == 0 {
		if floats.Norm(diff, math.Inf(1)) == 0 {
			m.R2 = 1
		}
		return m, nil
	}
	m.R2 = stat.RSquaredFrom(predicted, actual, nil)
	return m, nil
}
