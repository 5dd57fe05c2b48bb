package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/floats"
)

func TestLayerNormConstantInput(t *testing.T) {
	ln := NewLayerNorm(3, LayerNormEps)
	ln.Bias.SetVec(1, 0.5)

	x := []float64{7, 7, 7}
	ln.Forward(x)

	assert.Equal(t, []float64{0, 0.5, 0}, x)
}

func TestLayerNormScaleAndShift(t *testing.T) {
	ln := NewLayerNorm(2, 0)
	ln.Weight.SetVec(0, 3)
	ln.Bias.SetVec(1, -1)

	x := []float64{1, 3}
	ln.Forward(x)

	assert.True(t, floats.EqualApprox([]float64{-3, 0}, x, 1e-12), "got %v", x)
}
