// Package bignum implements the arbitrary-precision real kernel: constants,
// transcendental functions, polynomials and dense matrices over big.Float.
//
// All values are allocated at the package-global precision, which must be set
// with SetPrecision before any evaluation takes place.
package bignum

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ALTree/bigfloat"
)

const piDigits = "3.1415926535897932384626433832795028841971693993751058209749445923078164062862089986280348253421170679821480865132823066470938446095505822317253594081284811174502841027019385211055596446229489549303819644288109756659334461284756482337867831652712019091456485669234603486104543266482133936072602491412737245870066063155881748815209209628292540917153643678925903600113305305488204665213841469519415116094330572703657595919530921861173819326117931051185480744623799627495673518857527248912279381830119491298336733624406566430860213949463952247371907021798609437027705392171762931767523846748184676694051320005681271452635608277857713427577896091736371787214684409012249534301465495853710507922796892589235420199561121290219608640344181598136297747713099605187072113499999983729780499510597317328160963185950244594553469083026425223082533446850352619311881710100031378387528865875332083814206171776691473035982534904287554687311595628638823537875937519577818577805321712268066130019278766111959092164201989"
const ln2Digits = "0.693147180559945309417232121458176568075500134360255254120680009493393621969694715605863326996418687542001481020570685733685520235758130557032670751635075961930727570828371435190307038623891673471123350115364497955239120475172681574932065155524734139525882950453007095326366642654104239157814952043740430385500801944170641671518644712839968171784546957026271631064546150257207402481637773389638550695260668341137273873722928956493547025762652098859693201965058554764703306793654432547632744951250406069438147104689946506220167720424524529612687946546193165174681392672504103802546259656869144192871608293803172714367782654877566485085674077648451464439940461422603193096735402574446070308096085047486638523138181676751438667476647890881437141985494231519973548803751658612753529166100071053558249879414729509293113897155998205654392871700072180857610252368892132449713893203784393530887748259701715591070882368362758984258918535302436342143670611892367891923723146723217205340164925687274778234453534764811494186423867767744060695626573796008670762571991847340226514628379048830620330611446300737194890027436439650025809365194430411911506080948793067865158870900605203468429736193841289652556539686022194122924207574321757489097706753"

// ln2Bits is the number of bits the stored ln(2) digit string is good for.
const ln2Bits = 3300

var (
	precMu sync.RWMutex
	prec   uint = 512
)

// SetPrecision sets the package-global precision in bits. It must be called
// before any value is allocated; changing it afterwards does not reallocate
// existing values.
func SetPrecision(bits uint) {
	precMu.Lock()
	prec = bits
	precMu.Unlock()
}

// Precision returns the package-global precision in bits.
func Precision() uint {
	precMu.RLock()
	defer precMu.RUnlock()
	return prec
}

// NewFloat creates a new big.Float at the global precision.
// Valid types for x are: nil, int, int64, uint, uint64, float64, *big.Int or *big.Float.
func NewFloat(x interface{}) (y *big.Float) {

	y = new(big.Float)
	y.SetPrec(Precision())

	if x == nil {
		return
	}

	switch x := x.(type) {
	case int:
		y.SetInt64(int64(x))
	case int64:
		y.SetInt64(x)
	case uint:
		y.SetUint64(uint64(x))
	case uint64:
		y.SetUint64(x)
	case float64:
		y.SetFloat64(x)
	case *big.Int:
		y.SetInt(x)
	case *big.Float:
		y.Set(x)
	default:
		panic(fmt.Errorf("invalid x.(type): valid types are int, int64, uint, uint64, float64, *big.Int or *big.Float but is %T", x))
	}

	return
}

// Zero returns 0 at the global precision.
func Zero() *big.Float {
	return NewFloat(nil)
}

// One returns 1 at the global precision.
func One() *big.Float {
	return NewFloat(1)
}

// Ten returns 10 at the global precision.
func Ten() *big.Float {
	return NewFloat(10)
}

// E returns Euler's number at the global precision.
func E() *big.Float {
	return Exp(One())
}

var (
	piMu     sync.Mutex
	piCache  *big.Float
	ln2Mu    sync.Mutex
	ln2Cache *big.Float
)

// Pi returns pi at the global precision. Up to ~3300 bits the value comes
// from a stored digit string; beyond that it is computed with Machin's
// formula and cached.
func Pi() *big.Float {
	p := Precision()
	if p <= ln2Bits {
		pi, _ := new(big.Float).SetPrec(p).SetString(piDigits)
		return pi
	}

	piMu.Lock()
	defer piMu.Unlock()
	if piCache == nil || piCache.Prec() < p {
		piCache = machinPi(p + 64)
	}
	return new(big.Float).SetPrec(p).Set(piCache)
}

// Tau returns 2*pi at the global precision.
func Tau() *big.Float {
	tau := Pi()
	return tau.Add(tau, Pi())
}

// ln2 returns ln(2) at precision p bits.
func ln2(p uint) *big.Float {
	if p <= ln2Bits {
		l, _ := new(big.Float).SetPrec(p).SetString(ln2Digits)
		return l
	}

	ln2Mu.Lock()
	defer ln2Mu.Unlock()
	if ln2Cache == nil || ln2Cache.Prec() < p {
		ln2Cache = bigfloat.Log(new(big.Float).SetPrec(p + 64).SetInt64(2))
	}
	return new(big.Float).SetPrec(p).Set(ln2Cache)
}

// machinPi computes pi = 16*atan(1/5) - 4*atan(1/239) at precision p.
func machinPi(p uint) *big.Float {
	wp := p + 64
	one := new(big.Float).SetPrec(wp).SetInt64(1)

	a := atanTaylor(new(big.Float).Quo(one, new(big.Float).SetPrec(wp).SetInt64(5)), wp)
	b := atanTaylor(new(big.Float).Quo(one, new(big.Float).SetPrec(wp).SetInt64(239)), wp)

	a.Mul(a, new(big.Float).SetPrec(wp).SetInt64(16))
	b.Mul(b, new(big.Float).SetPrec(wp).SetInt64(4))
	a.Sub(a, b)
	return a.SetPrec(p)
}

// Round returns round(x) to the nearest integer, half away from zero.
func Round(x *big.Float) (r *big.Float) {
	r = new(big.Float).Set(x)
	if r.Cmp(new(big.Float)) >= 0 {
		r.Add(r, new(big.Float).SetFloat64(0.5))
	} else {
		r.Sub(r, new(big.Float).SetFloat64(0.5))
	}

	tmp := new(big.Int)
	r.Int(tmp)
	r.SetInt(tmp)
	return
}

// Abs returns |x|.
func Abs(x *big.Float) *big.Float {
	return new(big.Float).Abs(x)
}

// Sign returns -1, 0 or +1 depending on the sign of x.
func Sign(x *big.Float) (y *big.Float) {
	return NewFloat(float64(x.Sign()))
}

// Min returns a copy of the smaller of x and y.
func Min(x, y *big.Float) *big.Float {
	if x.Cmp(y) <= 0 {
		return new(big.Float).Set(x)
	}
	return new(big.Float).Set(y)
}

// Max returns a copy of the larger of x and y.
func Max(x, y *big.Float) *big.Float {
	if x.Cmp(y) >= 0 {
		return new(big.Float).Set(x)
	}
	return new(big.Float).Set(y)
}

// FMod returns x - trunc(x/y)*y, the remainder with the sign of x.
func FMod(x, y *big.Float) *big.Float {
	q := new(big.Float).SetPrec(x.Prec()).Quo(x, y)
	i := new(big.Int)
	q.Int(i)
	q.SetInt(i)
	q.Mul(q, y)
	return q.Sub(x, q)
}

// Sqrt returns the square root of x.
func Sqrt(x *big.Float) *big.Float {
	return new(big.Float).SetPrec(x.Prec()).Sqrt(x)
}

// Cbrt returns the cube root of x, defined for negative x as -cbrt(-x).
func Cbrt(x *big.Float) *big.Float {
	if x.Sign() == 0 {
		return new(big.Float).SetPrec(x.Prec())
	}
	third := new(big.Float).SetPrec(x.Prec() + 64).SetInt64(1)
	third.Quo(third, new(big.Float).SetPrec(x.Prec()+64).SetInt64(3))
	r := bigfloat.Pow(new(big.Float).SetPrec(x.Prec()+64).Abs(x), third)
	if x.Sign() < 0 {
		r.Neg(r)
	}
	return r.SetPrec(x.Prec())
}

// Log returns ln(x).
func Log(x *big.Float) (ln *big.Float) {
	return bigfloat.Log(x)
}

// Log2 returns the base-2 logarithm of x.
func Log2(x *big.Float) *big.Float {
	l := bigfloat.Log(new(big.Float).SetPrec(x.Prec() + 64).Set(x))
	l.Quo(l, ln2(x.Prec()+64))
	return l.SetPrec(x.Prec())
}

// Log10 returns the base-10 logarithm of x.
func Log10(x *big.Float) *big.Float {
	wp := x.Prec() + 64
	l := bigfloat.Log(new(big.Float).SetPrec(wp).Set(x))
	l.Quo(l, bigfloat.Log(new(big.Float).SetPrec(wp).SetInt64(10)))
	return l.SetPrec(x.Prec())
}

// Exp returns exp(x).
func Exp(x *big.Float) (exp *big.Float) {
	return bigfloat.Exp(x)
}

// Exp2 returns 2^x.
func Exp2(x *big.Float) *big.Float {
	e := new(big.Float).SetPrec(x.Prec() + 64).Set(x)
	e.Mul(e, ln2(x.Prec()+64))
	return bigfloat.Exp(e).SetPrec(x.Prec())
}

// Pow returns x^y. A negative base is accepted when y is an integer;
// 0^0 is defined as 1.
func Pow(x, y *big.Float) (pow *big.Float) {
	if x.Sign() > 0 {
		return bigfloat.Pow(x, y)
	}

	if x.Sign() == 0 {
		switch y.Sign() {
		case 1:
			return new(big.Float).SetPrec(x.Prec())
		case 0:
			return new(big.Float).SetPrec(x.Prec()).SetInt64(1)
		default:
			panic(fmt.Errorf("pow: zero base with negative exponent"))
		}
	}

	if !y.IsInt() {
		panic(fmt.Errorf("pow: negative base %v with non-integer exponent %v", x, y))
	}

	pow = bigfloat.Pow(new(big.Float).Abs(x), y)
	yi, _ := y.Int(nil)
	if yi.Bit(0) == 1 {
		pow.Neg(pow)
	}
	return pow
}

// Cos is an iterative arbitrary precision computation of Cos(x).
// Iterative process with an error of ~10^{-0.60206*k} = (1/4)^k after k iterations.
// ref : Johansson, B. Tomas, An elementary algorithm to evaluate trigonometric functions to high precision, 2018
func Cos(x *big.Float) (cosx *big.Float) {
	p := x.Prec()

	// The iteration converges on a bounded range only, so reduce modulo 2*pi.
	pi2, _ := new(big.Float).SetPrec(p + 64).SetString(piDigits)
	if p+64 > ln2Bits {
		pi2 = machinPi(p + 64)
	}
	pi2.Add(pi2, pi2)
	x = FMod(new(big.Float).SetPrec(p+64).Set(x), pi2)

	tmp := new(big.Float)

	t := new(big.Float).SetPrec(p).SetFloat64(0.5)
	half := new(big.Float).Copy(t)

	for i := uint(1); i < (p>>1)-1; i++ {
		t.Mul(t, half)
	}

	s := new(big.Float).Mul(x, t)
	s.Mul(s, x)
	s.Mul(s, t)

	four := new(big.Float).SetPrec(p).SetInt64(4)

	for i := uint(1); i < p>>1; i++ { // (1/4)^k = (1/2)^(2*k)
		tmp.Sub(four, s)
		s.Mul(s, tmp)
	}

	cosx = new(big.Float).Quo(s, new(big.Float).SetPrec(p).SetInt64(2))
	cosx.Sub(new(big.Float).SetPrec(p).SetInt64(1), cosx)
	return cosx.SetPrec(p)
}

// Sin returns sin(x) = cos(x - pi/2).
func Sin(x *big.Float) (sinx *big.Float) {
	halfPi, _ := new(big.Float).SetPrec(x.Prec() + 64).SetString(piDigits)
	if x.Prec()+64 > ln2Bits {
		halfPi = machinPi(x.Prec() + 64)
	}
	halfPi.Quo(halfPi, new(big.Float).SetInt64(2))
	return Cos(new(big.Float).SetPrec(x.Prec()).Sub(x, halfPi))
}

// Tan returns sin(x)/cos(x).
func Tan(x *big.Float) *big.Float {
	return new(big.Float).SetPrec(x.Prec()).Quo(Sin(x), Cos(x))
}

// atanTaylor evaluates atan(x) for |x| <= 1 at precision wp using argument
// halving followed by the Taylor series.
func atanTaylor(x *big.Float, wp uint) *big.Float {
	x = new(big.Float).SetPrec(wp).Set(x)
	one := new(big.Float).SetPrec(wp).SetInt64(1)

	// atan(x) = 2*atan(x / (1 + sqrt(1 + x^2))); halve until |x| < 2^-8 so
	// the series below needs few terms.
	var k int
	threshold := new(big.Float).SetPrec(wp).SetMantExp(one, -8)
	tmp := new(big.Float).SetPrec(wp)
	for new(big.Float).Abs(x).Cmp(threshold) >= 0 {
		tmp.Mul(x, x)
		tmp.Add(tmp, one)
		tmp.Sqrt(tmp)
		tmp.Add(tmp, one)
		x.Quo(x, tmp)
		k++
	}

	// atan(x) = sum (-1)^n x^(2n+1) / (2n+1)
	x2 := new(big.Float).SetPrec(wp).Mul(x, x)
	term := new(big.Float).SetPrec(wp).Set(x)
	sum := new(big.Float).SetPrec(wp).Set(x)
	t := new(big.Float).SetPrec(wp)
	eps := new(big.Float).SetPrec(wp).SetMantExp(one, -int(wp)-2)
	for n := int64(1); ; n++ {
		term.Mul(term, x2)
		term.Neg(term)
		t.Quo(term, new(big.Float).SetPrec(wp).SetInt64(2*n+1))
		sum.Add(sum, t)
		if new(big.Float).Abs(t).Cmp(eps) < 0 {
			break
		}
	}

	if k > 0 {
		sum.SetMantExp(sum, k)
	}
	return sum
}

// ATan returns the arc tangent of x.
func ATan(x *big.Float) *big.Float {
	p := x.Prec()
	wp := p + 64

	if x.Sign() == 0 {
		return new(big.Float).SetPrec(p)
	}

	ax := new(big.Float).SetPrec(wp).Abs(x)
	one := new(big.Float).SetPrec(wp).SetInt64(1)

	var r *big.Float
	if ax.Cmp(one) <= 0 {
		r = atanTaylor(ax, wp)
	} else {
		// atan(x) = pi/2 - atan(1/x) for x > 0.
		halfPi, _ := new(big.Float).SetPrec(wp).SetString(piDigits)
		if wp > ln2Bits {
			halfPi = machinPi(wp)
		}
		halfPi.Quo(halfPi, new(big.Float).SetInt64(2))
		r = halfPi.Sub(halfPi, atanTaylor(one.Quo(one, ax), wp))
	}

	if x.Sign() < 0 {
		r.Neg(r)
	}
	return r.SetPrec(p)
}

// ASin returns the arc sine of x for x in [-1, 1].
func ASin(x *big.Float) *big.Float {
	p := x.Prec()
	wp := p + 64
	one := new(big.Float).SetPrec(wp).SetInt64(1)
	ax := new(big.Float).SetPrec(wp).Abs(x)

	switch ax.Cmp(one) {
	case 1:
		panic(fmt.Errorf("asin: argument %v outside [-1, 1]", x))
	case 0:
		halfPi, _ := new(big.Float).SetPrec(wp).SetString(piDigits)
		if wp > ln2Bits {
			halfPi = machinPi(wp)
		}
		halfPi.Quo(halfPi, new(big.Float).SetInt64(2))
		if x.Sign() < 0 {
			halfPi.Neg(halfPi)
		}
		return halfPi.SetPrec(p)
	}

	// asin(x) = atan(x / sqrt(1 - x^2))
	d := new(big.Float).SetPrec(wp).Mul(x, x)
	d.Sub(one, d)
	d.Sqrt(d)
	d.Quo(new(big.Float).SetPrec(wp).Set(x), d)
	return ATan(d).SetPrec(p)
}

// ACos returns the arc cosine of x for x in [-1, 1].
func ACos(x *big.Float) *big.Float {
	p := x.Prec()
	wp := p + 64
	halfPi, _ := new(big.Float).SetPrec(wp).SetString(piDigits)
	if wp > ln2Bits {
		halfPi = machinPi(wp)
	}
	halfPi.Quo(halfPi, new(big.Float).SetInt64(2))
	return halfPi.Sub(halfPi, new(big.Float).SetPrec(wp).Set(ASin(new(big.Float).SetPrec(wp).Set(x)))).SetPrec(p)
}

// ATan2 returns the angle of the point (x, y) in the plane, in (-pi, pi].
func ATan2(y, x *big.Float) *big.Float {
	p := y.Prec()
	wp := p + 64

	pi, _ := new(big.Float).SetPrec(wp).SetString(piDigits)
	if wp > ln2Bits {
		pi = machinPi(wp)
	}

	switch {
	case x.Sign() > 0:
		return ATan(new(big.Float).SetPrec(wp).Quo(y, x)).SetPrec(p)
	case x.Sign() < 0:
		r := ATan(new(big.Float).SetPrec(wp).Quo(y, x))
		if y.Sign() >= 0 {
			r.Add(r, pi)
		} else {
			r.Sub(r, pi)
		}
		return r.SetPrec(p)
	default:
		if y.Sign() == 0 {
			return new(big.Float).SetPrec(p)
		}
		pi.Quo(pi, new(big.Float).SetInt64(2))
		if y.Sign() < 0 {
			pi.Neg(pi)
		}
		return pi.SetPrec(p)
	}
}

// SinH returns the hyperbolic sine of x.
func SinH(x *big.Float) (sinh *big.Float) {
	sinh = new(big.Float).Set(x)
	sinh.Add(sinh, sinh)
	sinh.Neg(sinh)
	sinh = Exp(sinh)
	sinh.Neg(sinh)
	sinh.Add(sinh, new(big.Float).SetPrec(x.Prec()).SetInt64(1))
	tmp := new(big.Float).Set(x)
	tmp.Neg(tmp)
	tmp = Exp(tmp)
	tmp.Add(tmp, tmp)
	sinh.Quo(sinh, tmp)
	return
}

// CosH returns the hyperbolic cosine of x.
func CosH(x *big.Float) (cosh *big.Float) {
	cosh = Exp(x)
	tmp := Exp(new(big.Float).Neg(x))
	cosh.Add(cosh, tmp)
	cosh.Quo(cosh, new(big.Float).SetPrec(x.Prec()).SetInt64(2))
	return
}

// TanH returns the hyperbolic tangent of x.
func TanH(x *big.Float) (tanh *big.Float) {
	tanh = new(big.Float).Set(x)
	tanh.Add(tanh, tanh)
	tanh = Exp(tanh)
	tmp := new(big.Float).Set(tanh)
	tmp.Add(tmp, new(big.Float).SetPrec(x.Prec()).SetInt64(1))
	tanh.Sub(tanh, new(big.Float).SetPrec(x.Prec()).SetInt64(1))
	tanh.Quo(tanh, tmp)
	return
}

// Erf returns the error function of x, computed with the Taylor series at a
// boosted working precision. Arguments large enough that erf(x) rounds to
// +-1 at the target precision saturate immediately.
func Erf(x *big.Float) *big.Float {
	p := x.Prec()

	if x.Sign() == 0 {
		return new(big.Float).SetPrec(p)
	}

	// erf(x) ~ 1 - exp(-x^2)/(x*sqrt(pi)); once x^2 > (p+2)*ln2 the tail is
	// below one ulp and the result rounds to +-1.
	xf, _ := x.Float64()
	if xf*xf > float64(p+2)*0.6931471805599453 {
		one := new(big.Float).SetPrec(p).SetInt64(1)
		if x.Sign() < 0 {
			one.Neg(one)
		}
		return one
	}

	// The alternating series loses ~x^2*log2(e) bits to cancellation.
	wp := p + uint(xf*xf*1.4426950408889634) + 64

	xw := new(big.Float).SetPrec(wp).Set(x)
	x2 := new(big.Float).SetPrec(wp).Mul(xw, xw)

	// erf(x) = 2/sqrt(pi) * sum (-1)^n x^(2n+1) / (n! (2n+1))
	term := new(big.Float).SetPrec(wp).Set(xw)
	sum := new(big.Float).SetPrec(wp).Set(xw)
	t := new(big.Float).SetPrec(wp)
	one := new(big.Float).SetPrec(wp).SetInt64(1)
	eps := new(big.Float).SetPrec(wp).SetMantExp(one, -int(wp)-2)
	for n := int64(1); ; n++ {
		term.Mul(term, x2)
		term.Quo(term, new(big.Float).SetPrec(wp).SetInt64(n))
		term.Neg(term)
		t.Quo(term, new(big.Float).SetPrec(wp).SetInt64(2*n+1))
		sum.Add(sum, t)
		if new(big.Float).Abs(t).Cmp(eps) < 0 {
			break
		}
	}

	pi, _ := new(big.Float).SetPrec(wp).SetString(piDigits)
	if wp > ln2Bits {
		pi = machinPi(wp)
	}
	pi.Sqrt(pi)
	sum.Quo(sum, pi)
	sum.Add(sum, sum)
	return sum.SetPrec(p)
}
