package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArray(t *testing.T) {
	A := NewArray("jac", 2, 3, 2, 2)
	assert.Equal(t, 4, A.Rank())
	assert.Equal(t, 24, A.Size())
	assert.Equal(t, []int{12, 4, 2, 1}, []int{A.Stride(0), A.Stride(1), A.Stride(2), A.Stride(3)})

	A.Set(5, 1, 2, 1, 0)
	assert.Equal(t, 5., A.At(1, 2, 1, 0))
	assert.Equal(t, 5., A.Data[12+8+2])
	A.Add(1, 1, 2, 1, 0)
	assert.Equal(t, 6., A.Slab(1, 2)[2])
	assert.Len(t, A.Slab(1), 12)
	assert.Len(t, A.Slab(), 24)

	assert.Panics(t, func() { A.At(2, 0, 0, 0) })
	assert.Panics(t, func() { A.At(0, 0) })

	t.Run("DeepCopy", func(t *testing.T) {
		B := NewArray("stage", 2, 3, 2, 2)
		B.Fill(3)
		A.DeepCopy(B)
		assert.Equal(t, 3., A.At(1, 2, 1, 0))
		B.Set(4, 0, 0, 0, 0)
		assert.Equal(t, 3., A.At(0, 0, 0, 0))
		C := NewArray("other", 3, 2)
		assert.Panics(t, func() { A.DeepCopy(C) })
	})
	t.Run("Swap", func(t *testing.T) {
		X := NewArray("x", 1, 3, 2)
		for p := 0; p < 3; p++ {
			X.Set(float64(p), 0, p, 0)
			X.Set(float64(10*p), 0, p, 1)
		}
		X.SwapPoints(0, 0, 2)
		require.Equal(t, []float64{2, 20, 1, 10, 0, 0}, X.Data)
		R := NewArray("r", 3, 2)
		copy(R.Data, []float64{0, 1, 2, 3, 4, 5})
		R.SwapRows(0, 1)
		assert.Equal(t, []float64{2, 3, 0, 1, 4, 5}, R.Data)
	})
	var empty Array
	assert.True(t, empty.IsEmpty())
}

func TestLinalg(t *testing.T) {
	for _, dim := range []int{1, 2, 3, 4} {
		var (
			A    = make([]float64, dim*dim)
			Ainv = make([]float64, dim*dim)
		)
		// Diagonally dominant, non-symmetric
		for i := 0; i < dim; i++ {
			for j := 0; j < dim; j++ {
				A[i*dim+j] = 0.1 * float64(i+2*j+1)
			}
			A[i*dim+i] += float64(dim + 1)
		}
		Inverse(A, Ainv, dim)
		for i := 0; i < dim; i++ {
			for j := 0; j < dim; j++ {
				var sum float64
				for k := 0; k < dim; k++ {
					sum += A[i*dim+k] * Ainv[k*dim+j]
				}
				if i == j {
					assert.InDelta(t, 1., sum, 1.e-12)
				} else {
					assert.InDelta(t, 0., sum, 1.e-12)
				}
			}
		}
		b := make([]float64, dim)
		x := make([]float64, dim)
		for i := range x {
			x[i] = float64(i + 1)
		}
		for i := 0; i < dim; i++ {
			for j := 0; j < dim; j++ {
				b[i] += A[i*dim+j] * x[j]
			}
		}
		Solve(A, b, dim)
		assert.InDeltaSlice(t, x, b, 1.e-12)
	}
	assert.InDelta(t, -2., Det([]float64{1, 2, 3, 4}, 2), 1.e-14)
	assert.InDelta(t, 24., Det([]float64{2, 0, 0, 0, 3, 0, 0, 0, 4}, 3), 1.e-14)
	assert.InDelta(t, 24., Det([]float64{1, 0, 0, 0, 0, 2, 0, 0, 0, 0, 3, 0, 0, 0, 0, 4}, 4), 1.e-12)
	assert.Equal(t, [3]float64{0, 0, 1}, Cross3([3]float64{1, 0, 0}, [3]float64{0, 1, 0}))
	assert.Equal(t, 5., Norm([]float64{3, 4}))
}
