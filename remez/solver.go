// Package remez implements the Remez exchange algorithm for minimax
// polynomial approximation of a real function over a closed interval,
// optionally weighted by a second function.
//
// The solver works on the canonical interval [-1, 1]; the requested range
// [xmin, xmax] is mapped onto it affinely and the final estimate is composed
// with the inverse map before being returned. Each iteration solves a
// (order+2)-dimensional linear system whose last column carries the
// alternating error, then relocates the control points on the extrema of the
// weighted error function. Zero and extremum searches are independent per
// bracket and are dispatched to a small worker pool.
package remez

import (
	"fmt"
	"math/big"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/approxtools/polyrem/bignum"
	"github.com/approxtools/polyrem/expr"
	"github.com/approxtools/polyrem/utils"
)

var two = bignum.NewFloat(2.0)

// Solver runs the Remez exchange on a parsed function expression.
// Configure it with the Set* methods, call Init once, then Step until it
// returns false.
type Solver struct {
	order   int
	digits  int
	xmin    *big.Float
	xmax    *big.Float
	fn      *expr.Expression
	fnStr   string
	weight  *expr.Expression
	wStr    string
	hasW    bool
	strategy RootFinder
	workers int
	prng    *utils.KeyedPRNG

	k1, k2  *big.Float
	epsilon *big.Float

	estimate *bignum.Polynomial
	maxErr   *big.Float
	levelErr *big.Float

	control []*big.Float
	zeros   []*big.Float

	zeroState    []zeroBracket
	extremaState []extremumBracket

	questions chan int
	answers   chan int
	eg        *errgroup.Group

	constant  bool
	started   bool
	closed    bool
	iteration int

	stats Stats
}

// NewSolver returns a solver with default settings: 20 significant digits,
// the pegasus root finder, a deterministic seed and up to four workers.
func NewSolver() *Solver {
	s := &Solver{
		order:    4,
		digits:   20,
		xmin:     bignum.NewFloat(-1.0),
		xmax:     bignum.NewFloat(1.0),
		strategy: Pegasus,
		workers:  utils.Min(4, runtime.NumCPU()),
		maxErr:   bignum.Zero(),
		levelErr: bignum.Zero(),
	}
	s.prng, _ = utils.NewKeyedPRNG(nil)
	return s
}

// SetOrder sets the degree of the approximating polynomial.
func (s *Solver) SetOrder(order int) error {
	if order < 1 || order >= extremumBase-1 {
		return fmt.Errorf("invalid order %d: must be in [1, %d]", order, extremumBase-2)
	}
	s.order = order
	return nil
}

// SetDigits sets the number of significant digits the result is meant for.
// The convergence threshold is 10^-(digits+2).
func (s *Solver) SetDigits(digits int) error {
	if digits < 1 {
		return fmt.Errorf("invalid digit count %d", digits)
	}
	s.digits = digits
	return nil
}

// Digits returns the configured number of significant digits.
func (s *Solver) Digits() int {
	return s.digits
}

// SetRange sets the approximation interval [xmin, xmax].
func (s *Solver) SetRange(xmin, xmax *big.Float) error {
	if xmin.Cmp(xmax) >= 0 {
		return fmt.Errorf("invalid range [%v, %v]: xmin must be smaller than xmax", xmin, xmax)
	}
	s.xmin = new(big.Float).Set(xmin)
	s.xmax = new(big.Float).Set(xmax)
	return nil
}

// SetFunc parses and installs the function to approximate.
func (s *Solver) SetFunc(fn string) error {
	e, err := expr.Parse(fn)
	if err != nil {
		return fmt.Errorf("function: %w", err)
	}
	s.fn = e
	s.fnStr = fn
	return nil
}

// SetWeight parses and installs the weight function. The solver minimises
// the maximum of |error/weight| over the interval. An empty string clears
// the weight, and a constant expression is equivalent to no weight since it
// scales the error uniformly.
func (s *Solver) SetWeight(weight string) error {
	if weight == "" {
		s.weight = nil
		s.wStr = ""
		s.hasW = false
		return nil
	}
	e, err := expr.Parse(weight)
	if err != nil {
		return fmt.Errorf("weight: %w", err)
	}
	if e.IsConstant() {
		s.weight = nil
		s.wStr = ""
		s.hasW = false
		return nil
	}
	s.weight = e
	s.wStr = weight
	s.hasW = true
	return nil
}

// FuncString returns the source of the function being approximated.
func (s *Solver) FuncString() string {
	return s.fnStr
}

// WeightString returns the source of the weight function, or "" if none
// was set.
func (s *Solver) WeightString() string {
	return s.wStr
}

// HasWeight reports whether a weight function is installed.
func (s *Solver) HasWeight() bool {
	return s.hasW
}

// Range returns copies of the interval bounds.
func (s *Solver) Range() (xmin, xmax *big.Float) {
	return new(big.Float).Set(s.xmin), new(big.Float).Set(s.xmax)
}

// Order returns the degree of the approximating polynomial.
func (s *Solver) Order() int {
	return s.order
}

// SetRootFinder selects the bracketing strategy for the zero search.
func (s *Solver) SetRootFinder(r RootFinder) {
	s.strategy = r
}

// SetSeed reseeds the PRNG used to place the initial extremum probes.
// Solvers with the same configuration and seed walk through identical
// iterations.
func (s *Solver) SetSeed(seed uint64) {
	key := make([]byte, 8)
	for i := 0; i < 8; i++ {
		key[i] = byte(seed >> (56 - 8*i))
	}
	s.prng, _ = utils.NewKeyedPRNG(key)
}

// SetWorkers sets the number of search workers. Must be called before Init.
func (s *Solver) SetWorkers(n int) error {
	if s.started {
		return fmt.Errorf("cannot change worker count after Init")
	}
	if n < 1 {
		return fmt.Errorf("invalid worker count %d", n)
	}
	s.workers = n
	return nil
}

// Init validates the configuration, computes the affine map onto [-1, 1]
// and produces the initial Chebyshev interpolation estimate. It must be
// called exactly once before Step.
func (s *Solver) Init() error {
	if s.fn == nil {
		return fmt.Errorf("no function set")
	}
	if s.started {
		return fmt.Errorf("Init called twice")
	}

	s.k1 = new(big.Float).Add(s.xmax, s.xmin)
	s.k1.Quo(s.k1, two)
	s.k2 = new(big.Float).Sub(s.xmax, s.xmin)
	s.k2.Quo(s.k2, two)

	exponent := bignum.NewFloat(float64(-(s.digits + 2)))
	s.epsilon = bignum.Pow(bignum.Ten(), exponent)

	// A constant function is its own minimax approximation at any degree.
	if s.fn.IsConstant() {
		c := s.evalFunc(bignum.Zero())
		s.estimate = bignum.NewPolynomial([]*big.Float{c})
		s.maxErr = bignum.Zero()
		s.constant = true
		s.started = true
		return nil
	}

	n := s.order

	s.zeros = make([]*big.Float, n+1)
	s.control = make([]*big.Float, n+2)
	for i := range s.zeros {
		s.zeros[i] = bignum.Zero()
	}
	for i := range s.control {
		s.control[i] = bignum.Zero()
	}

	s.zeroState = make([]zeroBracket, n+1)
	for i := range s.zeroState {
		s.zeroState[i] = newZeroBracket()
	}
	s.extremaState = make([]extremumBracket, n+2)
	for i := range s.extremaState {
		s.extremaState[i] = newExtremumBracket()
	}

	// Sized so both the search dispatch and the shutdown handshake never
	// block the coordinator.
	size := n + 2 + s.workers
	s.questions = make(chan int, size)
	s.answers = make(chan int, size)
	s.eg = &errgroup.Group{}
	for w := 0; w < s.workers; w++ {
		s.eg.Go(s.worker)
	}
	s.started = true

	s.remezInit()
	return nil
}

// Step runs one exchange iteration: relocate the control points on the
// extrema of the weighted error, solve the levelled system, then check for
// convergence. It returns false once the minimax error is stable to within
// the configured precision.
func (s *Solver) Step() bool {
	if s.constant {
		return false
	}
	s.iteration++

	oldErr := new(big.Float).Set(s.maxErr)

	s.findExtrema()
	s.remezStep()

	if s.maxErr.Sign() >= 0 {
		diff := new(big.Float).Sub(s.maxErr, oldErr)
		diff.Abs(diff)
		threshold := new(big.Float).Mul(s.maxErr, s.epsilon)
		if diff.Cmp(threshold) <= 0 {
			return false
		}
	}

	s.findZeros()
	return true
}

// Iteration returns the number of completed Step calls.
func (s *Solver) Iteration() int {
	return s.iteration
}

// remezInit solves a Chebyshev-basis interpolation system at the order+1
// equally spaced nodes (2i-order)/(order+1) to obtain the starting
// estimate. The nodes double as the initial zeros of the error function.
func (s *Solver) remezInit() {
	n := s.order + 1

	fxn := make([]*big.Float, n)
	for i := 0; i < n; i++ {
		s.zeros[i].SetInt64(int64(2*i - s.order))
		s.zeros[i].Quo(s.zeros[i], bignum.NewFloat(float64(n)))
		fxn[i] = s.evalFunc(s.zeros[i])
	}

	system := bignum.NewMatrix(n)
	for k := 0; k < n; k++ {
		cheb := bignum.Chebyshev(k)
		for i := 0; i < n; i++ {
			system.Set(i, k, cheb.Eval(s.zeros[i]))
		}
	}

	inv := system.Inverse()

	s.estimate = bignum.NewPolynomial(nil)
	for k := 0; k < n; k++ {
		c := bignum.Zero()
		for i := 0; i < n; i++ {
			c.Add(c, new(big.Float).Mul(inv.At(k, i), fxn[i]))
		}
		s.estimate = s.estimate.Add(bignum.Chebyshev(k).MulScalar(c))
	}
}

// remezStep solves the levelled system of order+2 control points. The last
// column holds the alternating weighted error, so the solution yields both
// the refined coefficients and the level error E.
func (s *Solver) remezStep() {
	start := time.Now()
	n := s.order + 2

	fxn := make([]*big.Float, n)
	for i := 0; i < n; i++ {
		fxn[i] = s.evalFunc(s.control[i])
	}

	system := bignum.NewMatrix(n)
	for k := 0; k < s.order+1; k++ {
		cheb := bignum.Chebyshev(k)
		for i := 0; i < n; i++ {
			system.Set(i, k, cheb.Eval(s.control[i]))
		}
	}
	for i := 0; i < n; i++ {
		e := bignum.Abs(s.evalWeight(s.control[i]))
		if i&1 == 1 {
			e.Neg(e)
		}
		system.Set(i, n-1, e)
	}

	inv := system.Inverse()

	s.estimate = bignum.NewPolynomial(nil)
	for k := 0; k < s.order+1; k++ {
		c := bignum.Zero()
		for i := 0; i < n; i++ {
			c.Add(c, new(big.Float).Mul(inv.At(k, i), fxn[i]))
		}
		s.estimate = s.estimate.Add(bignum.Chebyshev(k).MulScalar(c))
	}

	s.levelErr.SetInt64(0)
	for i := 0; i < n; i++ {
		s.levelErr.Add(s.levelErr, new(big.Float).Mul(inv.At(n-1, i), fxn[i]))
	}

	s.stats.record(PhaseInversion, time.Since(start))
}

// findZeros locates one zero of the error function in each interval between
// consecutive control points. The zeros of the weighted and absolute errors
// coincide, so the cheaper absolute error is bracketed.
func (s *Solver) findZeros() {
	start := time.Now()
	n := s.order + 1

	for i := 0; i < n; i++ {
		s.zeroState[i].reset(
			s.control[i], s.control[i+1],
			s.evalAbsoluteError(s.control[i]),
			s.evalAbsoluteError(s.control[i+1]),
		)
		s.questions <- i
	}

	for finished := 0; finished < n; {
		i := <-s.answers
		br := &s.zeroState[i]

		width := new(big.Float).Sub(br.a.x, br.b.x)
		width.Abs(width)
		if br.c.err.Sign() == 0 || width.Cmp(s.epsilon) <= 0 {
			s.zeros[i].Set(br.c.x)
			finished++
			continue
		}
		s.questions <- i
	}

	s.stats.record(PhaseZeros, time.Since(start))
}

// findExtrema relocates every control point on a local maximum of the
// weighted relative error. The outermost brackets run from the interval
// bounds to the nearest zero, so the endpoint control points may move
// inward when the extremum is interior.
func (s *Solver) findExtrema() {
	start := time.Now()
	n := s.order + 2

	s.maxErr.SetInt64(0)

	for i := 0; i < n; i++ {
		br := &s.extremaState[i]
		a, b, c := &br.a, &br.b, &br.c

		if i == 0 {
			a.x.SetInt64(-1)
		} else {
			a.x.Set(s.zeros[i-1])
		}
		if i == n-1 {
			b.x.SetInt64(1)
		} else {
			b.x.Set(s.zeros[i])
		}

		u := utils.RandFloat64(s.prng, 0.4, 0.6)
		c.x.Sub(b.x, a.x)
		c.x.Mul(c.x, bignum.NewFloat(u))
		c.x.Add(c.x, a.x)

		a.err.Set(s.evalRelativeError(a.x))
		b.err.Set(s.evalRelativeError(b.x))
		c.err.Set(s.evalRelativeError(c.x))

		s.questions <- i + extremumBase
	}

	for finished := 0; finished < n; {
		i := <-s.answers
		br := &s.extremaState[i-extremumBase]

		width := new(big.Float).Sub(br.b.x, br.a.x)
		if width.Cmp(s.epsilon) <= 0 {
			s.control[i-extremumBase].Set(br.c.x)
			if br.c.err.Cmp(s.maxErr) > 0 {
				s.maxErr.Set(br.c.err)
			}
			finished++
			continue
		}
		s.questions <- i
	}

	s.stats.record(PhaseExtrema, time.Since(start))
}

// extremumBase offsets extremum bracket indices in the worker protocol so
// a single answer channel serves both searches.
const extremumBase = 1000

// worker serves bracket refinement requests until it receives a negative
// index, which it echoes back before returning.
func (s *Solver) worker() error {
	for {
		i := <-s.questions
		switch {
		case i < 0:
			s.answers <- i
			return nil
		case i < extremumBase:
			s.zeroStep(&s.zeroState[i])
		default:
			s.extremumStep(&s.extremaState[i-extremumBase])
		}
		s.answers <- i
	}
}

// Close shuts the worker pool down. It is safe to call more than once and
// on solvers that never started a pool.
func (s *Solver) Close() error {
	if !s.started || s.constant || s.closed {
		s.closed = true
		return nil
	}
	s.closed = true
	for w := 0; w < s.workers; w++ {
		s.questions <- -1
	}
	for w := 0; w < s.workers; w++ {
		<-s.answers
	}
	return s.eg.Wait()
}

func (s *Solver) evalFunc(t *big.Float) *big.Float {
	x := new(big.Float).Mul(t, s.k2)
	x.Add(x, s.k1)
	y, err := s.fn.Eval(x)
	if err != nil {
		panic(fmt.Errorf("function evaluation: %w", err))
	}
	return y
}

func (s *Solver) evalWeight(t *big.Float) *big.Float {
	if !s.hasW {
		return bignum.One()
	}
	x := new(big.Float).Mul(t, s.k2)
	x.Add(x, s.k1)
	y, err := s.weight.Eval(x)
	if err != nil {
		panic(fmt.Errorf("weight evaluation: %w", err))
	}
	return y
}

// evalAbsoluteError returns p(t) - F(t) on the canonical interval.
func (s *Solver) evalAbsoluteError(t *big.Float) *big.Float {
	e := s.estimate.Eval(t)
	e.Sub(e, s.evalFunc(t))
	return e
}

// evalRelativeError returns |(p(t) - F(t)) / W(t)|.
func (s *Solver) evalRelativeError(t *big.Float) *big.Float {
	e := s.evalAbsoluteError(t)
	e.Quo(e, s.evalWeight(t))
	return e.Abs(e)
}

// Estimate returns the current approximation expressed in the original
// variable x rather than the canonical one.
func (s *Solver) Estimate() *bignum.Polynomial {
	if s.constant {
		return s.estimate.Clone()
	}
	// q maps x back onto [-1, 1]: q(x) = x/k2 - k1/k2.
	c0 := new(big.Float).Quo(s.k1, s.k2)
	c0.Neg(c0)
	c1 := new(big.Float).Quo(bignum.One(), s.k2)
	q := bignum.NewPolynomial([]*big.Float{c0, c1})
	return s.estimate.Compose(q)
}

// MaxError returns the maximum weighted error of the current estimate.
func (s *Solver) MaxError() *big.Float {
	return new(big.Float).Set(s.maxErr)
}

// LevelError returns the signed level error E of the last solved system.
func (s *Solver) LevelError() *big.Float {
	return new(big.Float).Set(s.levelErr)
}

// K1 returns the offset of the affine map from [-1, 1] onto [xmin, xmax].
func (s *Solver) K1() *big.Float {
	return new(big.Float).Set(s.k1)
}

// K2 returns the scale of the affine map from [-1, 1] onto [xmin, xmax].
func (s *Solver) K2() *big.Float {
	return new(big.Float).Set(s.k2)
}

// Epsilon returns the convergence threshold derived from the digit count.
func (s *Solver) Epsilon() *big.Float {
	return new(big.Float).Set(s.epsilon)
}

// Stats returns a snapshot of the per-phase timing samples.
func (s *Solver) Stats() *Stats {
	return s.stats.clone()
}
