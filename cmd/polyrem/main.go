// Package main implements the polyrem command, a front-end to the Remez
// exchange solver.
package main

import (
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/approxtools/polyrem/bignum"
	"github.com/approxtools/polyrem/expr"
	"github.com/approxtools/polyrem/remez"
)

const version = "0.1.0"

// outputMode selects the literal type of the generated source function.
type outputMode int

const (
	modeFloat outputMode = iota
	modeDouble
	modeLongDouble
)

func (m outputMode) typeName() string {
	switch m {
	case modeFloat:
		return "float"
	case modeLongDouble:
		return "long double"
	default:
		return "double"
	}
}

func (m outputMode) suffix() string {
	switch m {
	case modeFloat:
		return "f"
	case modeLongDouble:
		return "l"
	default:
		return ""
	}
}

// digits returns the number of significant decimal digits printed for the
// selected type: its guaranteed decimal precision (FLT_DIG, DBL_DIG or
// LDBL_DIG) plus two.
func (m outputMode) digits() int {
	switch m {
	case modeFloat:
		return 8
	case modeLongDouble:
		return 20
	default:
		return 17
	}
}

type options struct {
	degree    int
	rangeStr  string
	precision uint32
	float     bool
	double    bool
	ldouble   bool

	bisect      bool
	regulaFalsi bool
	illinois    bool
	pegasus     bool
	ford        bool

	progress bool
	stats    bool
	debug    bool

	calc    string
	seed    uint64
	version bool
}

func main() {
	opt := &options{}

	cmd := &cobra.Command{
		Use:           "polyrem [flags] <function> [weight]",
		Short:         "Find a polynomial approximation for a function",
		Long:          "polyrem finds the polynomial of a given degree that minimises the maximum\nerror against a function over an interval, optionally weighted.",
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		Example: "  polyrem -d 4 -r -1:1 \"atan(exp(1+x))\"\n" +
			"  polyrem -d 4 -r -1:1 \"atan(exp(1+x))\" \"exp(1+x)\"",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opt, args)
		},
	}

	f := cmd.Flags()
	f.IntVarP(&opt.degree, "degree", "d", 4, "degree of final polynomial")
	f.StringVarP(&opt.rangeStr, "range", "r", "-1:1", "range over which to approximate, as xmin:xmax")
	f.Uint32VarP(&opt.precision, "precision", "p", 512, "internal precision in bits")
	f.BoolVar(&opt.float, "float", false, "use float type in output")
	f.BoolVar(&opt.double, "double", false, "use double type in output (default)")
	f.BoolVar(&opt.ldouble, "long-double", false, "use long double type in output")
	f.BoolVar(&opt.bisect, "bisect", false, "use bisection for root finding")
	f.BoolVar(&opt.regulaFalsi, "regula-falsi", false, "use regula falsi for root finding")
	f.BoolVar(&opt.illinois, "illinois", false, "use the Illinois method for root finding")
	f.BoolVar(&opt.pegasus, "pegasus", false, "use the Pegasus method for root finding (default)")
	f.BoolVar(&opt.ford, "ford", false, "use Ford's method for root finding")
	f.BoolVar(&opt.progress, "progress", false, "print intermediate polynomial each iteration")
	f.BoolVar(&opt.stats, "stats", false, "print timing statistics")
	f.BoolVar(&opt.debug, "debug", false, "print internal solver scalars")
	f.StringVar(&opt.calc, "calc", "", "evaluate a constant expression and exit")
	f.Uint64Var(&opt.seed, "seed", 0, "seed for the extremum search perturbation")
	f.BoolVarP(&opt.version, "version", "V", false, "output version information and exit")

	if err := cmd.Execute(); err != nil {
		fail("%s", err)
	}
}

// fail prints a diagnostic and the help hint, then exits with status 1.
func fail(format string, args ...interface{}) {
	fmt.Printf("Error: "+format+"\n", args...)
	fmt.Println("Try 'polyrem --help' for more information.")
	os.Exit(1)
}

func run(opt *options, args []string) error {
	if opt.version {
		fmt.Printf("polyrem %s\n", version)
		return nil
	}

	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if opt.debug {
		log.SetLevel(logrus.DebugLevel)
	}

	if opt.precision < 32 || opt.precision > 65535 {
		fail("invalid precision: must be in [32, 65535]")
	}
	bignum.SetPrecision(32 * ((uint(opt.precision) + 31) / 32))

	if opt.calc != "" {
		e, err := expr.Parse(opt.calc)
		if err != nil {
			fail("invalid expression syntax: %s", opt.calc)
		}
		if !e.IsConstant() {
			fail("invalid expression: must be constant")
		}
		v, err := e.Eval(bignum.Zero())
		if err != nil {
			fail("cannot evaluate expression: %s", err)
		}
		fmt.Println(formatFloat(v, 40))
		return nil
	}

	mode := modeDouble
	if opt.float {
		mode = modeFloat
	}
	if opt.ldouble {
		mode = modeLongDouble
	}

	if opt.degree < 1 {
		fail("invalid degree: must be at least 1")
	}

	parts := strings.Split(opt.rangeStr, ":")
	if len(parts) != 2 {
		fail("invalid range %q: expected xmin:xmax", opt.rangeStr)
	}
	xmin := parseConstant(parts[0], "xmin")
	xmax := parseConstant(parts[1], "xmax")

	if len(args) < 1 {
		fail("too few arguments: no function specified")
	}
	if len(args) > 2 {
		fail("too many arguments")
	}

	solver := remez.NewSolver()
	if err := solver.SetOrder(opt.degree); err != nil {
		fail("%s", err)
	}
	if err := solver.SetRange(xmin, xmax); err != nil {
		fail("%s", err)
	}
	if err := solver.SetFunc(args[0]); err != nil {
		fail("invalid function: %s", args[0])
	}
	if len(args) == 2 {
		if err := solver.SetWeight(args[1]); err != nil {
			fail("invalid weight function: %s", args[1])
		}
	}
	if err := solver.SetDigits(mode.digits()); err != nil {
		fail("%s", err)
	}
	solver.SetRootFinder(rootFinder(opt))
	if opt.seed != 0 {
		solver.SetSeed(opt.seed)
	}

	if err := solver.Init(); err != nil {
		fail("%s", err)
	}
	defer solver.Close()

	if opt.debug {
		log.WithFields(logrus.Fields{
			"k1":      formatFloat(solver.K1(), mode.digits()),
			"k2":      formatFloat(solver.K2(), mode.digits()),
			"epsilon": formatFloat(solver.Epsilon(), 3),
		}).Debug("solver initialised")
	}

	for iteration := 0; ; iteration++ {
		fmt.Fprintf(os.Stderr, "Iteration: %d\r", iteration)

		if !solver.Step() {
			break
		}

		if opt.progress {
			log.Info(gnuplot(solver.Estimate(), mode.digits()))
		}
		if opt.debug {
			log.WithFields(logrus.Fields{
				"error": formatFloat(solver.MaxError(), mode.digits()),
				"level": formatFloat(solver.LevelError(), mode.digits()),
			}).Debugf("iteration %d", iteration)
		}
	}
	fmt.Fprintln(os.Stderr)

	if opt.stats {
		for _, sum := range solver.Stats().Summaries() {
			log.WithFields(logrus.Fields{
				"count":     sum.Count,
				"mean_ms":   fmt.Sprintf("%.3f", sum.Mean),
				"median_ms": fmt.Sprintf("%.3f", sum.Median),
				"max_ms":    fmt.Sprintf("%.3f", sum.Max),
			}).Infof("timing for %s", sum.Phase)
		}
	}

	printSource(os.Stdout, solver, mode)
	return nil
}

// parseConstant evaluates one side of the range argument, which may be any
// constant expression.
func parseConstant(s, name string) *big.Float {
	e, err := expr.Parse(s)
	if err != nil {
		fail("invalid range %s syntax: %s", name, s)
	}
	if !e.IsConstant() {
		fail("invalid range: %s must be constant", name)
	}
	v, err := e.Eval(bignum.Zero())
	if err != nil {
		fail("invalid range %s: %s", name, err)
	}
	return v
}

func rootFinder(opt *options) remez.RootFinder {
	switch {
	case opt.bisect:
		return remez.Bisect
	case opt.regulaFalsi:
		return remez.RegulaFalsi
	case opt.illinois:
		return remez.Illinois
	case opt.ford:
		return remez.Ford
	default:
		return remez.Pegasus
	}
}
