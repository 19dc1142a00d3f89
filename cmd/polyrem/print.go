package main

import (
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/approxtools/polyrem/bignum"
	"github.com/approxtools/polyrem/remez"
)

// formatFloat renders x with the given number of significant decimal digits,
// using exponent notation when the magnitude calls for it.
func formatFloat(x *big.Float, digits int) string {
	return x.Text('g', digits)
}

// gnuplot renders p as a gnuplot-compatible expression, one term per
// coefficient in ascending order.
func gnuplot(p *bignum.Polynomial, digits int) string {
	var b strings.Builder
	for j, c := range p.Coefficients {
		if j > 0 && c.Sign() >= 0 {
			b.WriteByte('+')
		}
		b.WriteString(formatFloat(c, digits))
		switch {
		case j == 1:
			b.WriteString("*x")
		case j > 1:
			fmt.Fprintf(&b, "*x**%d", j)
		}
	}
	return b.String()
}

// printSource writes the estimate as a compilable function in Horner form,
// preceded by a comment describing the approximation.
func printSource(w io.Writer, s *remez.Solver, mode outputMode) {
	p := s.Estimate()
	degree := p.Degree()
	xmin, xmax := s.Range()
	digits := mode.digits()

	fmt.Fprintf(w, "/* Approximation of f(x) = %s\n", s.FuncString())
	if s.HasWeight() {
		fmt.Fprintf(w, " * with weight function g(x) = %s\n", s.WeightString())
	}
	fmt.Fprintf(w, " * on interval [ %s, %s ]\n", formatFloat(xmin, digits), formatFloat(xmax, digits))
	fmt.Fprintf(w, " * with a polynomial of degree %d. */\n", degree)

	typ := mode.typeName()
	suffix := mode.suffix()
	fmt.Fprintf(w, "%s f(%s x)\n{\n", typ, typ)
	if degree == 0 {
		fmt.Fprintf(w, "    return %s%s;\n}\n", formatFloat(p.Coefficients[0], digits), suffix)
		return
	}
	for j := degree; j >= 0; j-- {
		switch j {
		case degree:
			fmt.Fprintf(w, "    %s u = ", typ)
		case 0:
			fmt.Fprint(w, "    return u * x + ")
		default:
			fmt.Fprint(w, "    u = u * x + ")
		}
		fmt.Fprintf(w, "%s%s;\n", formatFloat(p.Coefficients[j], digits), suffix)
	}
	fmt.Fprintln(w, "}")
}
