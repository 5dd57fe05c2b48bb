package embedding

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// LayerNorm normalizes a vector to zero mean and unit variance, then
// applies a learned elementwise scale and bias.
type LayerNorm struct {
	Weight *mat.VecDense
	Bias   *mat.VecDense
	Eps    float64
}

// NewLayerNorm starts with unit weight and zero bias.
func NewLayerNorm(size int, eps float64) *LayerNorm {
	ones := make([]float64, size)
	for i := range ones {
		ones[i] = 1
	}

	return &LayerNorm{
		Weight: mat.NewVecDense(size, ones),
		Bias:   mat.NewVecDense(size, nil),
		Eps:    eps,
	}
}

// Forward normalizes x in place. Variance is the biased estimate.
func (ln *LayerNorm) Forward(x []float64) {
	n := float64(len(x))

	mean := floats.Sum(x) / n
	floats.AddConst(-mean, x)

	variance := floats.Dot(x, x) / n
	floats.Scale(1/math.Sqrt(variance+ln.Eps), x)

	floats.Mul(x, ln.Weight.RawVector().Data)
	floats.Add(x, ln.Bias.RawVector().Data)
}
