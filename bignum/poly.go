package bignum

import (
	"math/big"
)

// Polynomial is a dense polynomial in the monomial basis. Coefficients[i] is
// the coefficient of x^i. The zero value is the zero polynomial.
type Polynomial struct {
	Coefficients []*big.Float
}

// NewPolynomial returns a polynomial with the given monomial coefficients.
// The slice is used directly, not copied.
func NewPolynomial(coeffs []*big.Float) *Polynomial {
	return &Polynomial{Coefficients: coeffs}
}

// Degree returns the degree of p. The zero polynomial has degree -1.
func (p *Polynomial) Degree() int {
	return len(p.Coefficients) - 1
}

// Clone returns a deep copy of p.
func (p *Polynomial) Clone() *Polynomial {
	coeffs := make([]*big.Float, len(p.Coefficients))
	for i, c := range p.Coefficients {
		coeffs[i] = new(big.Float).Set(c)
	}
	return &Polynomial{Coefficients: coeffs}
}

// Eval evaluates y = sum x^i * p.Coefficients[i] with Horner's scheme.
func (p *Polynomial) Eval(x *big.Float) (y *big.Float) {
	n := len(p.Coefficients)
	if n == 0 {
		return NewFloat(nil)
	}
	y = new(big.Float).Set(p.Coefficients[n-1])
	for i := n - 2; i >= 0; i-- {
		y.Mul(y, x)
		y.Add(y, p.Coefficients[i])
	}
	return
}

// Add returns p + q.
func (p *Polynomial) Add(q *Polynomial) *Polynomial {
	n := len(p.Coefficients)
	if len(q.Coefficients) > n {
		n = len(q.Coefficients)
	}
	coeffs := make([]*big.Float, n)
	for i := range coeffs {
		coeffs[i] = NewFloat(nil)
		if i < len(p.Coefficients) {
			coeffs[i].Add(coeffs[i], p.Coefficients[i])
		}
		if i < len(q.Coefficients) {
			coeffs[i].Add(coeffs[i], q.Coefficients[i])
		}
	}
	return &Polynomial{Coefficients: coeffs}
}

// MulScalar returns p scaled by k.
func (p *Polynomial) MulScalar(k *big.Float) *Polynomial {
	coeffs := make([]*big.Float, len(p.Coefficients))
	for i, c := range p.Coefficients {
		coeffs[i] = new(big.Float).Mul(c, k)
	}
	return &Polynomial{Coefficients: coeffs}
}

// Mul returns the product p * q.
func (p *Polynomial) Mul(q *Polynomial) *Polynomial {
	if len(p.Coefficients) == 0 || len(q.Coefficients) == 0 {
		return &Polynomial{}
	}
	coeffs := make([]*big.Float, len(p.Coefficients)+len(q.Coefficients)-1)
	for i := range coeffs {
		coeffs[i] = NewFloat(nil)
	}
	tmp := new(big.Float)
	for i, a := range p.Coefficients {
		for j, b := range q.Coefficients {
			coeffs[i+j].Add(coeffs[i+j], tmp.Mul(a, b))
		}
	}
	return &Polynomial{Coefficients: coeffs}
}

// Compose returns p(q(x)) with Horner's scheme over polynomials.
func (p *Polynomial) Compose(q *Polynomial) *Polynomial {
	n := len(p.Coefficients)
	if n == 0 {
		return &Polynomial{}
	}
	r := &Polynomial{Coefficients: []*big.Float{new(big.Float).Set(p.Coefficients[n-1])}}
	for i := n - 2; i >= 0; i-- {
		r = r.Mul(q)
		r = r.Add(&Polynomial{Coefficients: []*big.Float{p.Coefficients[i]}})
	}
	return r
}

// Chebyshev returns the Chebyshev polynomial of the first kind T_n expressed
// in the monomial basis, using T_{n} = 2x*T_{n-1} - T_{n-2}.
func Chebyshev(n int) *Polynomial {
	switch n {
	case 0:
		return &Polynomial{Coefficients: []*big.Float{One()}}
	case 1:
		return &Polynomial{Coefficients: []*big.Float{Zero(), One()}}
	}

	twoX := &Polynomial{Coefficients: []*big.Float{Zero(), NewFloat(2)}}
	prev := Chebyshev(0)
	cur := Chebyshev(1)
	for i := 2; i <= n; i++ {
		next := twoX.Mul(cur).Add(prev.MulScalar(NewFloat(-1)))
		prev, cur = cur, next
	}
	return cur
}
