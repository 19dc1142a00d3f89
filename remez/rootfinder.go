package remez

import (
	"math/big"

	"github.com/approxtools/polyrem/bignum"
)

// RootFinder selects the bracketing strategy used to locate the zeros of the
// error function.
type RootFinder int

const (
	// Bisect always probes the bracket midpoint.
	Bisect RootFinder = iota
	// RegulaFalsi probes the secant intersection.
	RegulaFalsi
	// Illinois is regula falsi with endpoint-error halving on stagnation.
	Illinois
	// Pegasus scales the stagnant endpoint error by oldc/(oldc+newc).
	Pegasus
	// Ford scales it by 1 - c/ps - c/pd.
	Ford
)

func (r RootFinder) String() string {
	switch r {
	case Bisect:
		return "bisect"
	case RegulaFalsi:
		return "regula-falsi"
	case Illinois:
		return "illinois"
	case Pegasus:
		return "pegasus"
	case Ford:
		return "ford"
	default:
		return "unknown"
	}
}

type point struct {
	x   *big.Float
	err *big.Float
}

func newPoint() point {
	return point{x: bignum.Zero(), err: bignum.Zero()}
}

func (p *point) set(q point) {
	p.x.Set(q.x)
	p.err.Set(q.err)
}

// zeroBracket tracks one sign change of the absolute error between two
// consecutive control points. prevCErr remembers the probe error of the
// previous step for the stagnation test of the scaled strategies.
type zeroBracket struct {
	a, b, c  point
	prevCErr *big.Float
	prevSign int
}

func newZeroBracket() zeroBracket {
	return zeroBracket{a: newPoint(), b: newPoint(), c: newPoint(), prevCErr: bignum.Zero()}
}

func (br *zeroBracket) reset(ax, bx, aerr, berr *big.Float) {
	br.a.x.Set(ax)
	br.a.err.Set(aerr)
	br.b.x.Set(bx)
	br.b.err.Set(berr)
	br.c.x.SetInt64(0)
	br.c.err.SetInt64(0)
	br.prevCErr.SetInt64(0)
	br.prevSign = 0
}

// zeroStep advances the bracket by one probe of the configured strategy.
// The probe becomes the new c; the endpoint whose error shares the probe's
// sign is replaced by it.
func (s *Solver) zeroStep(br *zeroBracket) {
	a, b := &br.a, &br.b

	cx := new(big.Float)
	if s.strategy == Bisect {
		cx.Add(a.x, b.x)
		cx.Quo(cx, two)
	} else {
		// c = a - a.err*(b-a)/(b.err-a.err), falling back to the midpoint
		// when the secant is horizontal.
		den := new(big.Float).Sub(b.err, a.err)
		if den.Sign() == 0 {
			cx.Add(a.x, b.x)
			cx.Quo(cx, two)
		} else {
			cx.Sub(b.x, a.x)
			cx.Mul(cx, a.err)
			cx.Quo(cx, den)
			cx.Sub(a.x, cx)
		}
		// A probe identical to the previous one would never terminate the
		// bracket; the midpoint restores progress.
		if br.prevSign != 0 && cx.Cmp(br.c.x) == 0 {
			cx.Add(a.x, b.x)
			cx.Quo(cx, two)
		}
	}

	cerr := s.evalAbsoluteError(cx)
	sign := cerr.Sign()

	// On stagnation (the probe error keeps its sign across steps), the
	// scaled strategies shrink the error of the endpoint that is being
	// retained, so the secant pivots toward the root.
	if sign != 0 && sign == br.prevSign {
		same, opp := a, b
		if b.err.Sign() == sign {
			same, opp = b, a
		}
		switch s.strategy {
		case Illinois:
			opp.err.Quo(opp.err, two)
		case Pegasus:
			den := new(big.Float).Add(br.prevCErr, cerr)
			if den.Sign() != 0 {
				f := new(big.Float).Quo(br.prevCErr, den)
				opp.err.Mul(opp.err, f)
			}
		case Ford:
			if same.err.Sign() != 0 && opp.err.Sign() != 0 {
				f := bignum.One()
				f.Sub(f, new(big.Float).Quo(cerr, same.err))
				f.Sub(f, new(big.Float).Quo(cerr, opp.err))
				opp.err.Mul(opp.err, f)
			}
		}
	}

	br.c.x.Set(cx)
	br.c.err.Set(cerr)
	br.prevCErr.Set(cerr)
	br.prevSign = sign

	if a.err.Sign() == sign {
		a.set(br.c)
	} else {
		b.set(br.c)
	}
}

// extremumBracket tracks the maximisation of the weighted relative error
// over [a, b] with interior probe c.
type extremumBracket struct {
	a, b, c point
}

func newExtremumBracket() extremumBracket {
	return extremumBracket{a: newPoint(), b: newPoint(), c: newPoint()}
}

// extremumStep advances the bracket by one round of successive parabolic
// interpolation, substituting the midpoint when the parabola degenerates or
// its vertex escapes the bracket.
func (s *Solver) extremumStep(br *extremumBracket) {
	a, b, c := &br.a, &br.b, &br.c

	d1 := new(big.Float).Sub(c.x, a.x)
	d2 := new(big.Float).Sub(c.x, b.x)
	k1 := new(big.Float).Sub(c.err, b.err)
	k1.Mul(k1, d1)
	k2 := new(big.Float).Sub(c.err, a.err)
	k2.Mul(k2, d2)

	dx := new(big.Float)
	den := new(big.Float).Sub(k1, k2)
	if den.Sign() == 0 {
		dx.Add(a.x, b.x)
		dx.Quo(dx, two)
	} else {
		dx.Mul(d1, k1)
		d2.Mul(d2, k2)
		dx.Sub(dx, d2)
		dx.Quo(dx, den)
		dx.Quo(dx, two)
		dx.Sub(c.x, dx)
		if dx.Cmp(a.x) <= 0 || dx.Cmp(b.x) >= 0 {
			dx.Add(a.x, b.x)
			dx.Quo(dx, two)
		}
	}

	derr := s.evalRelativeError(dx)

	d := point{x: dx, err: derr}
	if derr.Cmp(c.err) < 0 {
		if dx.Cmp(c.x) > 0 {
			b.set(d)
		} else {
			a.set(d)
		}
	} else {
		if dx.Cmp(c.x) > 0 {
			a.set(*c)
		} else {
			b.set(*c)
		}
		c.set(d)
	}
}
