package bignum

import (
	"fmt"
	"math/big"
)

// Matrix is a dense square matrix of big.Float values.
type Matrix struct {
	n    int
	rows [][]*big.Float
}

// NewMatrix returns the n x n zero matrix at the global precision.
func NewMatrix(n int) *Matrix {
	rows := make([][]*big.Float, n)
	for i := range rows {
		rows[i] = make([]*big.Float, n)
		for j := range rows[i] {
			rows[i][j] = NewFloat(nil)
		}
	}
	return &Matrix{n: n, rows: rows}
}

// Identity returns the n x n identity matrix.
func Identity(n int) *Matrix {
	m := NewMatrix(n)
	for i := 0; i < n; i++ {
		m.rows[i][i].SetInt64(1)
	}
	return m
}

// Size returns the dimension n of the matrix.
func (m *Matrix) Size() int {
	return m.n
}

// At returns the element at row i, column j.
func (m *Matrix) At(i, j int) *big.Float {
	return m.rows[i][j]
}

// Set assigns the element at row i, column j.
func (m *Matrix) Set(i, j int, v *big.Float) {
	m.rows[i][j].Set(v)
}

// Inverse returns the inverse of m by Gauss-Jordan elimination. Rows are
// never swapped: a zero diagonal element is repaired by adding the first
// lower row with a non-zero entry in that column. Panics if m is singular.
func (m *Matrix) Inverse() *Matrix {
	n := m.n

	a := make([][]*big.Float, n)
	for i := range a {
		a[i] = make([]*big.Float, n)
		for j := range a[i] {
			a[i][j] = new(big.Float).Set(m.rows[i][j])
		}
	}
	b := Identity(n)

	tmp := new(big.Float)
	for i := 0; i < n; i++ {
		if a[i][i].Sign() == 0 {
			j := i + 1
			for ; j < n && a[j][i].Sign() == 0; j++ {
			}
			if j == n {
				panic(fmt.Errorf("singular %dx%d matrix", n, n))
			}
			for k := 0; k < n; k++ {
				a[i][k].Add(a[i][k], a[j][k])
				b.rows[i][k].Add(b.rows[i][k], b.rows[j][k])
			}
		}

		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			mu := new(big.Float).Quo(a[j][i], a[i][i])
			for k := 0; k < n; k++ {
				a[j][k].Sub(a[j][k], tmp.Mul(mu, a[i][k]))
				b.rows[j][k].Sub(b.rows[j][k], tmp.Mul(mu, b.rows[i][k]))
			}
		}

		pivot := new(big.Float).Set(a[i][i])
		for k := 0; k < n; k++ {
			a[i][k].Quo(a[i][k], pivot)
			b.rows[i][k].Quo(b.rows[i][k], pivot)
		}
	}

	return b
}
