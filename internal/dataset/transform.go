package dataset

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Split shuffles row indices with a PCG source seeded by seed and holds out
// ceil(testSize*n) rows for test. Both partitions must end up non-empty.
func Split(f *Frame, testSize float64, seed uint64) (train, test *Frame, err error) {
	n := f.Len()
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, fmt.Errorf("test size must be in (0, 1), got %v", testSize)
	}
	nTest := int(math.Ceil(testSize * float64(n)))
	if nTest < 1 || n-nTest < 1 {
		return nil, nil, fmt.Errorf("cannot split %d rows with test size %v", n, testSize)
	}

	perm := rand.New(rand.NewPCG(seed, seed)).Perm(n)
	return f.Take(perm[nTest:]), f.Take(perm[:nTest]), nil
}

// Log1p replaces a column with log(1+x).
func (f *Frame) Log1p(name string) error {
	values, err := f.Column(name)
	if err != nil {
		return err
	}
	for i, v := range values {
		if v <= -1 {
			return fmt.Errorf("log feature %q: value %v at row %d is <= -1", name, v, i+1)
		}
		values[i] = math.Log1p(v)
	}
	return f.SetColumn(name, values)
}

// AddRatio sets column name to numerator/denominator.
func (f *Frame) AddRatio(name, numerator, denominator string) error {
	num, err := f.Column(numerator)
	if err != nil {
		return fmt.Errorf("ratio feature %q: %w", name, err)
	}
	den, err := f.Column(denominator)
	if err != nil {
		return fmt.Errorf("ratio feature %q: %w", name, err)
	}
	out := make([]float64, len(num))
	for i := range num {
		if den[i] == 0 {
			return fmt.Errorf("ratio feature %q: zero %q at row %d", name, denominator, i+1)
		}
		out[i] = num[i] / den[i]
	}
	return f.SetColumn(name, out)
}
