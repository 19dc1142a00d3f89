package bignum

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func matrixFrom(t *testing.T, vals [][]float64) *Matrix {
	t.Helper()
	m := NewMatrix(len(vals))
	for i, row := range vals {
		require.Len(t, row, len(vals))
		for j, v := range row {
			m.Set(i, j, NewFloat(v))
		}
	}
	return m
}

// requireIdentity asserts that a*b is the identity matrix.
func requireIdentity(t *testing.T, a, b *Matrix) {
	t.Helper()
	n := a.Size()
	tmp := new(big.Float)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			sum := NewFloat(nil)
			for k := 0; k < n; k++ {
				sum.Add(sum, tmp.Mul(a.At(i, k), b.At(k, j)))
			}
			want := Zero()
			if i == j {
				want = One()
			}
			requireClose(t, sum, want, 200)
		}
	}
}

func TestMatrixInverse(t *testing.T) {
	setTestPrecision(t)

	t.Run("Diagonal", func(t *testing.T) {
		m := matrixFrom(t, [][]float64{{2, 0}, {0, 4}})
		inv := m.Inverse()
		requireClose(t, inv.At(0, 0), NewFloat(0.5), 240)
		requireClose(t, inv.At(1, 1), NewFloat(0.25), 240)
	})

	t.Run("Dense", func(t *testing.T) {
		m := matrixFrom(t, [][]float64{
			{4, 7, 2},
			{3, 6, 1},
			{2, 5, 3},
		})
		requireIdentity(t, m, m.Inverse())
	})

	t.Run("ZeroDiagonal", func(t *testing.T) {
		// The leading element is zero; the repair step must add a lower row
		// instead of swapping.
		m := matrixFrom(t, [][]float64{
			{0, 1},
			{1, 0},
		})
		requireIdentity(t, m, m.Inverse())
	})

	t.Run("Vandermonde", func(t *testing.T) {
		// The solver inverts matrices of this shape.
		nodes := []float64{-1, -0.5, 0, 0.5, 1}
		n := len(nodes)
		m := NewMatrix(n)
		for i, x := range nodes {
			v := One()
			for j := 0; j < n; j++ {
				m.Set(i, j, v)
				v = new(big.Float).Mul(v, NewFloat(x))
			}
		}
		requireIdentity(t, m, m.Inverse())
	})

	t.Run("Singular", func(t *testing.T) {
		m := matrixFrom(t, [][]float64{
			{1, 2},
			{2, 4},
		})
		require.Panics(t, func() { m.Inverse() })
	})

	t.Run("InputUntouched", func(t *testing.T) {
		m := matrixFrom(t, [][]float64{{0, 1}, {1, 1}})
		m.Inverse()
		require.Equal(t, 0, m.At(0, 0).Sign())
		requireClose(t, m.At(1, 1), One(), 240)
	})
}
