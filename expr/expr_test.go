package expr

import (
	"math"
	"math/big"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/approxtools/polyrem/bignum"
)

func setTestPrecision(t *testing.T) {
	t.Helper()
	old := bignum.Precision()
	bignum.SetPrecision(256)
	t.Cleanup(func() { bignum.SetPrecision(old) })
}

func eval(t *testing.T, src string, x float64) *big.Float {
	t.Helper()
	e, err := Parse(src)
	require.NoError(t, err, "parse %q", src)
	y, err := e.Eval(bignum.NewFloat(x))
	require.NoError(t, err, "eval %q", src)
	return y
}

// requireValue asserts that src evaluated at x is close to want.
func requireValue(t *testing.T, want float64, src string, x float64) {
	t.Helper()
	got, _ := eval(t, src, x).Float64()
	require.InDelta(t, want, got, 1e-12, "%q at x=%v", src, x)
}

func TestLiterals(t *testing.T) {
	setTestPrecision(t)

	requireValue(t, 3, "0x1.8p1", 0)
	requireValue(t, 16, "0x10", 0)
	requireValue(t, 0.5, "0x1p-1", 0)
	requireValue(t, 1000, "1e3", 0)
	requireValue(t, 0.25, "2.5e-1", 0)
	requireValue(t, 8, "2³", 0)
	requireValue(t, math.Pi, "pi", 0)
	requireValue(t, math.E, "e", 0)
	requireValue(t, 2*math.Pi, "tau", 0)

	// Unicode aliases agree with the ASCII names.
	pi := eval(t, "pi", 0)
	require.Equal(t, 0, eval(t, "π", 0).Cmp(pi))
	tau := eval(t, "tau", 0)
	require.Equal(t, 0, eval(t, "τ", 0).Cmp(tau))
}

func TestPrecedence(t *testing.T) {
	setTestPrecision(t)

	requireValue(t, 7, "1+2*3", 0)
	requireValue(t, 9, "(1+2)*3", 0)
	requireValue(t, 2.5, "10/4", 0)
	requireValue(t, 1, "7%3", 0)
	requireValue(t, 512, "2**3**2", 0)
	requireValue(t, 512, "2^3^2", 0)
	requireValue(t, 512, "2 ** 3 ** 2", 0)
	requireValue(t, 0.25, "2^-2", 0)
	requireValue(t, -7, "1-2*4", 0)
	requireValue(t, 4, "--4", 0)
	requireValue(t, 4, "+4", 0)

	// The sign binds inside the factor, so -2^2 is (-2)^2.
	requireValue(t, 4, "-2^2", 0)
	requireValue(t, -8, "-2^3", 0)
}

func TestSuperscript(t *testing.T) {
	setTestPrecision(t)

	// Digit runs concatenate into one exponent.
	requireValue(t, math.Pow(2, 23), "x²³", 2)
	requireValue(t, 4, "x²", 2)
	requireValue(t, 9, "(1+2)²", 0)
	requireValue(t, 1, "sin(x)²+cos(x)²", 0.3)
}

func TestFunctions(t *testing.T) {
	setTestPrecision(t)

	requireValue(t, 1, "sin(pi/2)", 0)
	requireValue(t, -1, "cos(pi)", 0)
	requireValue(t, math.Tan(0.5), "tan(x)", 0.5)
	requireValue(t, math.Pi/4, "atan(1)", 0)
	requireValue(t, math.Pi/6, "asin(0.5)", 0)
	requireValue(t, math.Pi/2, "acos(0)", 0)
	requireValue(t, math.Pi/4, "atan2(1,1)", 0)
	requireValue(t, math.Exp(1), "exp(1)", 0)
	requireValue(t, 1024, "exp2(10)", 0)
	requireValue(t, math.Log(2), "log(2)", 0)
	requireValue(t, 3, "log2(8)", 0)
	requireValue(t, 3, "log10(1000)", 0)
	requireValue(t, math.Sqrt2, "sqrt(2)", 0)
	requireValue(t, -3, "cbrt(-27)", 0)
	requireValue(t, 3, "abs(-3)", 0)
	requireValue(t, math.Erf(1), "erf(1)", 0)
	requireValue(t, math.Sinh(1), "sinh(1)", 0)
	requireValue(t, math.Cosh(1), "cosh(1)", 0)
	requireValue(t, math.Tanh(1), "tanh(1)", 0)
	requireValue(t, 2, "min(2,3)", 0)
	requireValue(t, 3, "max(2,3)", 0)
	requireValue(t, 1.5, "fmod(7.5,2)", 0)
	requireValue(t, 1024, "pow(2,10)", 0)
	requireValue(t, math.Atan(math.Exp(1.5)), "atan(exp(1+x))", 0.5)
}

func TestConversions(t *testing.T) {
	setTestPrecision(t)

	third := new(big.Float).SetPrec(256).Quo(big.NewFloat(1), big.NewFloat(3))

	e, err := Parse("double(x)")
	require.NoError(t, err)
	d, err := e.Eval(third)
	require.NoError(t, err)
	f64, _ := third.Float64()
	got, _ := d.Float64()
	require.Equal(t, f64, got)
	// The narrowed value differs from the full-precision one.
	require.NotEqual(t, 0, d.Cmp(third))

	e, err = Parse("float(x)")
	require.NoError(t, err)
	f, err := e.Eval(third)
	require.NoError(t, err)
	f32, _ := third.Float32()
	got32, _ := f.Float32()
	require.Equal(t, f32, got32)
	require.NotEqual(t, 0, f.Cmp(d))

	e, err = Parse("ldouble(x)")
	require.NoError(t, err)
	l, err := e.Eval(third)
	require.NoError(t, err)
	require.Equal(t, uint(256), l.Prec())
	require.NotEqual(t, 0, l.Cmp(third))
	require.NotEqual(t, 0, l.Cmp(d))
}

func TestVariables(t *testing.T) {
	setTestPrecision(t)

	requireValue(t, 2.5, "x", 2.5)
	requireValue(t, 6.25, "x*x", 2.5)
	// y is reserved and evaluates to zero.
	requireValue(t, 1, "y+1", 7)
}

func TestIsConstant(t *testing.T) {
	setTestPrecision(t)

	for src, want := range map[string]bool{
		"x+1":       false,
		"sin(pi/2)": true,
		"2*3":       true,
		"y":         true,
		"min(x,0)":  false,
	} {
		e, err := Parse(src)
		require.NoError(t, err)
		require.Equal(t, want, e.IsConstant(), "%q", src)
	}
}

func TestCompiledOps(t *testing.T) {
	setTestPrecision(t)

	for _, tc := range []struct {
		src  string
		want []Op
	}{
		{"x", []Op{{OpVarX, -1}}},
		{"x+1", []Op{{OpVarX, -1}, {OpConst, 0}, {OpAdd, -1}}},
		{"-x^2", []Op{{OpVarX, -1}, {OpMinus, -1}, {OpConst, 0}, {OpPow, -1}}},
		{"2*x^3", []Op{{OpConst, 0}, {OpVarX, -1}, {OpConst, 1}, {OpPow, -1}, {OpMul, -1}}},
		{"x²", []Op{{OpVarX, -1}, {OpConst, 0}, {OpPow, -1}}},
		{"atan2(x,1)", []Op{{OpVarX, -1}, {OpConst, 0}, {OpATan2, -1}}},
		{"float(x)", []Op{{OpVarX, -1}, {OpToFloat, -1}}},
		{"x%2", []Op{{OpVarX, -1}, {OpConst, 0}, {OpMod, -1}}},
	} {
		e, err := Parse(tc.src)
		require.NoError(t, err, "%q", tc.src)
		if diff := cmp.Diff(tc.want, e.ops); diff != "" {
			t.Errorf("%q: op mismatch (-want +got):\n%s", tc.src, diff)
		}
	}
}

func TestParseErrors(t *testing.T) {
	setTestPrecision(t)

	for _, src := range []string{
		"",
		"2*",
		"sin(",
		"sin(x",
		"atan2(x)",
		"minx",
		"(1+2",
		"1 2",
		"x+",
		"@",
	} {
		_, err := Parse(src)
		require.Error(t, err, "%q", src)
	}
}

func TestConcurrentEval(t *testing.T) {
	setTestPrecision(t)

	e, err := Parse("atan(exp(1+x))")
	require.NoError(t, err)

	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			var firstErr error
			for _, xv := range []float64{-1, -0.5, 0, 0.5, 1} {
				want := math.Atan(math.Exp(1 + xv))
				y, err := e.Eval(bignum.NewFloat(xv))
				if err != nil {
					firstErr = err
					break
				}
				got, _ := y.Float64()
				if math.Abs(got-want) > 1e-12 {
					firstErr = errMismatch
					break
				}
			}
			done <- firstErr
		}()
	}
	for i := 0; i < 8; i++ {
		require.NoError(t, <-done)
	}
}

var errMismatch = errMismatchT{}

type errMismatchT struct{}

func (errMismatchT) Error() string { return "value mismatch" }
