package bignum

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

const testPrec = 256

func setTestPrecision(t *testing.T) {
	t.Helper()
	old := Precision()
	SetPrecision(testPrec)
	t.Cleanup(func() { SetPrecision(old) })
}

// requireClose asserts |a - b| < 2^-bits.
func requireClose(t *testing.T, a, b *big.Float, bits int) {
	t.Helper()
	diff := new(big.Float).Sub(a, b)
	diff.Abs(diff)
	eps := new(big.Float).SetMantExp(big.NewFloat(1), -bits)
	require.True(t, diff.Cmp(eps) < 0, "|%v - %v| = %v >= 2^-%d", a, b, diff, bits)
}

// requireFloat64 asserts that x rounds to want within delta.
func requireFloat64(t *testing.T, want float64, x *big.Float, delta float64) {
	t.Helper()
	got, _ := x.Float64()
	require.InDelta(t, want, got, delta)
}

func TestNewFloat(t *testing.T) {
	setTestPrecision(t)

	require.Equal(t, uint(testPrec), NewFloat(nil).Prec())
	require.Equal(t, 0, NewFloat(3).Cmp(NewFloat(int64(3))))
	require.Equal(t, 0, NewFloat(uint(7)).Cmp(NewFloat(uint64(7))))
	require.Equal(t, 0, NewFloat(0.5).Cmp(NewFloat(big.NewFloat(0.5))))
	require.Equal(t, 0, NewFloat(big.NewInt(42)).Cmp(NewFloat(42)))
	require.Panics(t, func() { NewFloat("1.5") })
}

func TestConstants(t *testing.T) {
	setTestPrecision(t)

	// The digit-string value must agree with an independent computation.
	requireClose(t, Pi(), machinPi(testPrec+64), 250)
	requireFloat64(t, math.Pi, Pi(), 0)

	requireClose(t, Log(E()), One(), 240)
	requireFloat64(t, math.E, E(), 0)

	requireClose(t, Tau(), new(big.Float).Add(Pi(), Pi()), 250)

	require.Equal(t, 0, Zero().Sign())
	require.Equal(t, 0, One().Cmp(NewFloat(1)))
	require.Equal(t, 0, Ten().Cmp(NewFloat(10)))
}

func TestTrigonometric(t *testing.T) {
	setTestPrecision(t)

	t.Run("KnownPoints", func(t *testing.T) {
		requireClose(t, Cos(Zero()), One(), 200)
		requireClose(t, Cos(Pi()), NewFloat(-1), 200)
		requireClose(t, Sin(new(big.Float).Quo(Pi(), NewFloat(2))), One(), 200)
		requireClose(t, Tan(new(big.Float).Quo(Pi(), NewFloat(4))), One(), 200)
		requireFloat64(t, math.Cos(1), Cos(One()), 1e-15)
		requireFloat64(t, math.Sin(1), Sin(One()), 1e-15)
	})

	t.Run("PythagoreanIdentity", func(t *testing.T) {
		x := NewFloat(0.7)
		s, c := Sin(x), Cos(x)
		s.Mul(s, s)
		c.Mul(c, c)
		requireClose(t, s.Add(s, c), One(), 200)
	})

	t.Run("RangeReduction", func(t *testing.T) {
		x := NewFloat(1)
		far := new(big.Float).Add(x, Tau())
		requireClose(t, Cos(far), Cos(x), 180)
	})
}

func TestInverseTrigonometric(t *testing.T) {
	setTestPrecision(t)

	quarterPi := new(big.Float).Quo(Pi(), NewFloat(4))
	halfPi := new(big.Float).Quo(Pi(), NewFloat(2))

	t.Run("ATan", func(t *testing.T) {
		requireClose(t, ATan(One()), quarterPi, 240)
		requireClose(t, ATan(NewFloat(-1)), new(big.Float).Neg(quarterPi), 240)
		require.Equal(t, 0, ATan(Zero()).Sign())

		// atan(x) + atan(1/x) = pi/2 for x > 0.
		x := NewFloat(1000000)
		sum := ATan(x)
		sum.Add(sum, ATan(new(big.Float).Quo(One(), x)))
		requireClose(t, sum, halfPi, 230)
	})

	t.Run("ASin", func(t *testing.T) {
		sixthPi := new(big.Float).Quo(Pi(), NewFloat(6))
		requireClose(t, ASin(NewFloat(0.5)), sixthPi, 230)
		requireClose(t, ASin(One()), halfPi, 240)
		requireClose(t, ASin(NewFloat(-1)), new(big.Float).Neg(halfPi), 240)
		require.Panics(t, func() { ASin(NewFloat(2)) })
	})

	t.Run("ACos", func(t *testing.T) {
		requireClose(t, ACos(Zero()), halfPi, 240)
		requireClose(t, ACos(NewFloat(-1)), Pi(), 240)
		requireClose(t, ACos(One()), Zero(), 240)
	})

	t.Run("ATan2", func(t *testing.T) {
		requireClose(t, ATan2(One(), One()), quarterPi, 240)
		requireClose(t, ATan2(One(), Zero()), halfPi, 240)
		threeQuarters := new(big.Float).Mul(quarterPi, NewFloat(3))
		requireClose(t, ATan2(One(), NewFloat(-1)), threeQuarters, 238)
		requireClose(t, ATan2(NewFloat(-1), NewFloat(-1)), new(big.Float).Neg(threeQuarters), 238)
		require.Equal(t, 0, ATan2(Zero(), Zero()).Sign())
	})
}

func TestExpLog(t *testing.T) {
	setTestPrecision(t)

	t.Run("RoundTrip", func(t *testing.T) {
		x := NewFloat(2.5)
		requireClose(t, Log(Exp(x)), x, 240)
	})

	t.Run("Exp2", func(t *testing.T) {
		requireClose(t, Exp2(NewFloat(10)), NewFloat(1024), 230)
	})

	t.Run("Log2", func(t *testing.T) {
		requireClose(t, Log2(NewFloat(8)), NewFloat(3), 240)
	})

	t.Run("Log10", func(t *testing.T) {
		requireClose(t, Log10(NewFloat(1000)), NewFloat(3), 240)
	})

	t.Run("Pow", func(t *testing.T) {
		requireClose(t, Pow(NewFloat(2), NewFloat(0.5)), Sqrt(NewFloat(2)), 240)
	})
}

func TestRoots(t *testing.T) {
	setTestPrecision(t)

	t.Run("Sqrt", func(t *testing.T) {
		r := Sqrt(NewFloat(2))
		requireClose(t, new(big.Float).Mul(r, r), NewFloat(2), 240)
	})

	t.Run("Cbrt", func(t *testing.T) {
		requireClose(t, Cbrt(NewFloat(27)), NewFloat(3), 230)
		requireClose(t, Cbrt(NewFloat(-27)), NewFloat(-3), 230)
		require.Equal(t, 0, Cbrt(Zero()).Sign())
	})
}

func TestHyperbolic(t *testing.T) {
	setTestPrecision(t)

	x := NewFloat(1)
	e := E()
	invE := new(big.Float).Quo(One(), e)

	sinh := new(big.Float).Sub(e, invE)
	sinh.Quo(sinh, NewFloat(2))
	requireClose(t, SinH(x), sinh, 240)

	cosh := new(big.Float).Add(e, invE)
	cosh.Quo(cosh, NewFloat(2))
	requireClose(t, CosH(x), cosh, 240)

	requireClose(t, TanH(x), new(big.Float).Quo(sinh, cosh), 240)
	require.Equal(t, 0, TanH(Zero()).Sign())
}

func TestErf(t *testing.T) {
	setTestPrecision(t)

	require.Equal(t, 0, Erf(Zero()).Sign())
	requireFloat64(t, math.Erf(1), Erf(One()), 1e-15)
	requireFloat64(t, math.Erf(-0.5), Erf(NewFloat(-0.5)), 1e-15)
	requireFloat64(t, math.Erf(3), Erf(NewFloat(3)), 1e-15)
	require.Equal(t, 0, Erf(NewFloat(100)).Cmp(One()))
	require.Equal(t, 0, Erf(NewFloat(-100)).Cmp(NewFloat(-1)))

	// Odd function.
	requireClose(t, Erf(NewFloat(0.25)), new(big.Float).Neg(Erf(NewFloat(-0.25))), 240)

	// The boosted working precision must make results agree across target
	// precisions.
	SetPrecision(512)
	hi := Erf(NewFloat(2))
	SetPrecision(testPrec)
	requireClose(t, Erf(NewFloat(2)), new(big.Float).SetPrec(testPrec).Set(hi), 240)
}

func TestFMod(t *testing.T) {
	setTestPrecision(t)

	requireClose(t, FMod(NewFloat(7.5), NewFloat(2)), NewFloat(1.5), 240)
	requireClose(t, FMod(NewFloat(-7.5), NewFloat(2)), NewFloat(-1.5), 240)
	requireClose(t, FMod(NewFloat(1), NewFloat(3)), NewFloat(1), 240)
}

func TestHelpers(t *testing.T) {
	setTestPrecision(t)

	t.Run("Round", func(t *testing.T) {
		require.Equal(t, 0, Round(NewFloat(2.5)).Cmp(NewFloat(3)))
		require.Equal(t, 0, Round(NewFloat(-2.5)).Cmp(NewFloat(-3)))
		require.Equal(t, 0, Round(NewFloat(2.4)).Cmp(NewFloat(2)))
	})

	t.Run("Sign", func(t *testing.T) {
		require.Equal(t, 0, Sign(NewFloat(-3)).Cmp(NewFloat(-1)))
		require.Equal(t, 0, Sign(NewFloat(3)).Cmp(One()))
		require.Equal(t, 0, Sign(Zero()).Sign())
	})

	t.Run("MinMax", func(t *testing.T) {
		a, b := NewFloat(1), NewFloat(2)
		require.Equal(t, 0, Min(a, b).Cmp(a))
		require.Equal(t, 0, Max(a, b).Cmp(b))
		// Results are copies.
		Min(a, b).SetInt64(-1)
		require.Equal(t, 0, a.Cmp(NewFloat(1)))
	})

	t.Run("Abs", func(t *testing.T) {
		require.Equal(t, 0, Abs(NewFloat(-2)).Cmp(NewFloat(2)))
	})
}

func TestHighPrecisionPi(t *testing.T) {
	old := Precision()
	SetPrecision(4096)
	t.Cleanup(func() { SetPrecision(old) })

	// Beyond the stored digit string, pi comes from Machin's formula. It
	// must still agree with the string over the string's range.
	pi := Pi()
	ref, _ := new(big.Float).SetPrec(3000).SetString(piDigits)
	diff := new(big.Float).Sub(new(big.Float).SetPrec(3000).Set(pi), ref)
	diff.Abs(diff)
	eps := new(big.Float).SetMantExp(big.NewFloat(1), -2990)
	require.True(t, diff.Cmp(eps) < 0)
}

func TestPrecisionScaling(t *testing.T) {
	for _, bits := range []uint{128, 512} {
		SetPrecision(bits)
		got, _ := Erf(NewFloat(0.75)).Float64()
		require.InDelta(t, math.Erf(0.75), got, 1e-12)
	}
	SetPrecision(512)
}
