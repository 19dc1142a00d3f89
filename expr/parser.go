package expr

import (
	"fmt"
	"math/big"

	"github.com/approxtools/polyrem/bignum"
)

// Parse compiles s into a postfix Expression. The grammar is the usual
// arithmetic one with `+ -` < `* / %` < `^`/`**` (right-associative), where
// a unary sign binds to the base and to the exponent before `^` applies
// (-2^2 is (-2)^2), plus function calls, parentheses, decimal and hexadecimal
// float literals, the named constants e, pi/π and tau/τ, the variables x and
// y, and Unicode superscript exponents attached to a terminal.
func Parse(s string) (*Expression, error) {
	p := &parser{src: []rune(s), e: &Expression{}}
	if err := p.expr(); err != nil {
		return nil, err
	}
	p.space()
	if p.pos != len(p.src) {
		return nil, p.errorf("unexpected %q", string(p.src[p.pos]))
	}
	return p.e, nil
}

type parser struct {
	src []rune
	pos int
	e   *Expression
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("parse error at offset %d: %s", p.pos, fmt.Sprintf(format, args...))
}

func (p *parser) space() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

// at reports whether s occurs at the current position.
func (p *parser) at(s string) bool {
	i := p.pos
	for _, r := range s {
		if i >= len(p.src) || p.src[i] != r {
			return false
		}
		i++
	}
	return true
}

// lit consumes s if it occurs at the current position.
func (p *parser) lit(s string) bool {
	if !p.at(s) {
		return false
	}
	p.pos += len([]rune(s))
	return true
}

func (p *parser) emit(code Opcode) {
	p.e.ops = append(p.e.ops, Op{Code: code, Index: -1})
}

func (p *parser) pushConst(v *big.Float) {
	p.e.ops = append(p.e.ops, Op{Code: OpConst, Index: len(p.e.constants)})
	p.e.constants = append(p.e.constants, v)
}

// expr <- term (('+' / '-') term)*
func (p *parser) expr() error {
	if err := p.term(); err != nil {
		return err
	}
	for {
		p.space()
		switch {
		case p.lit("+"):
			if err := p.term(); err != nil {
				return err
			}
			p.emit(OpAdd)
		case p.lit("-"):
			if err := p.term(); err != nil {
				return err
			}
			p.emit(OpSub)
		default:
			return nil
		}
	}
}

// term <- factor (('*' / '/' / '%') factor)*
func (p *parser) term() error {
	if err := p.factor(); err != nil {
		return err
	}
	for {
		p.space()
		switch {
		case !p.at("**") && p.lit("*"):
			if err := p.factor(); err != nil {
				return err
			}
			p.emit(OpMul)
		case p.lit("/"):
			if err := p.factor(); err != nil {
				return err
			}
			p.emit(OpDiv)
		case p.lit("%"):
			if err := p.factor(); err != nil {
				return err
			}
			p.emit(OpMod)
		default:
			return nil
		}
	}
}

// factor <- signed (('^' / '**') factor)?
//
// The exponent operand is a full factor, which makes the operator
// right-associative and lets a sign bind inside it: -2^2 = (-2)^2 = 4.
func (p *parser) factor() error {
	if err := p.signed(); err != nil {
		return err
	}
	p.space()
	if p.lit("**") || p.lit("^") {
		if err := p.factor(); err != nil {
			return err
		}
		p.emit(OpPow)
	}
	return nil
}

// signed <- '-' signed / '+' signed / terminal
func (p *parser) signed() error {
	p.space()
	switch {
	case p.lit("-"):
		if err := p.signed(); err != nil {
			return err
		}
		p.emit(OpMinus)
		return nil
	case p.lit("+"):
		return p.signed()
	default:
		return p.terminal()
	}
}

var binaryFuns = []struct {
	name string
	code Opcode
}{
	{"atan2", OpATan2},
	{"pow", OpPow},
	{"min", OpMin},
	{"max", OpMax},
	{"fmod", OpFmod},
}

// Longer names come before the shorter names that prefix them.
var unaryFuns = []struct {
	name string
	code Opcode
}{
	{"ldouble", OpToLDouble},
	{"double", OpToDouble},
	{"float", OpToFloat},
	{"log10", OpLog10},
	{"log2", OpLog2},
	{"log", OpLog},
	{"exp2", OpExp2},
	{"exp", OpExp},
	{"erf", OpErf},
	{"sqrt", OpSqrt},
	{"cbrt", OpCbrt},
	{"sinh", OpSinH},
	{"cosh", OpCosH},
	{"tanh", OpTanH},
	{"asin", OpASin},
	{"acos", OpACos},
	{"atan", OpATan},
	{"abs", OpAbs},
	{"sin", OpSin},
	{"cos", OpCos},
	{"tan", OpTan},
}

// call parses a unary or binary function call. It reports whether a call was
// committed to; a name not followed by '(' backtracks.
func (p *parser) call() (bool, error) {
	for _, f := range binaryFuns {
		save := p.pos
		if !p.lit(f.name) {
			continue
		}
		p.space()
		if !p.lit("(") {
			p.pos = save
			continue
		}
		if err := p.expr(); err != nil {
			return true, err
		}
		p.space()
		if !p.lit(",") {
			return true, p.errorf("expected ',' in call to %s", f.name)
		}
		if err := p.expr(); err != nil {
			return true, err
		}
		p.space()
		if !p.lit(")") {
			return true, p.errorf("expected ')' in call to %s", f.name)
		}
		p.emit(f.code)
		return true, nil
	}

	for _, f := range unaryFuns {
		save := p.pos
		if !p.lit(f.name) {
			continue
		}
		p.space()
		if !p.lit("(") {
			p.pos = save
			continue
		}
		if err := p.expr(); err != nil {
			return true, err
		}
		p.space()
		if !p.lit(")") {
			return true, p.errorf("expected ')' in call to %s", f.name)
		}
		p.emit(f.code)
		return true, nil
	}

	return false, nil
}

// terminal <- call / paren / number / var / named-constant, each optionally
// followed by a superscript exponent.
func (p *parser) terminal() error {
	p.space()

	if p.pos >= len(p.src) {
		return p.errorf("unexpected end of expression")
	}

	if done, err := p.call(); done {
		if err != nil {
			return err
		}
		p.superscript()
		return nil
	}

	if p.lit("(") {
		if err := p.expr(); err != nil {
			return err
		}
		p.space()
		if !p.lit(")") {
			return p.errorf("expected ')'")
		}
		p.superscript()
		return nil
	}

	if done, err := p.number(); done {
		if err != nil {
			return err
		}
		p.superscript()
		return nil
	}

	switch {
	case p.lit("x"):
		p.emit(OpVarX)
	case p.lit("y"):
		p.emit(OpVarY)
	case p.lit("pi"), p.lit("π"):
		p.pushConst(bignum.Pi())
	case p.lit("tau"), p.lit("τ"):
		p.pushConst(bignum.Tau())
	case p.lit("e"):
		p.pushConst(bignum.E())
	default:
		return p.errorf("unexpected %q", string(p.src[p.pos]))
	}

	p.superscript()
	return nil
}

var superDigits = map[rune]int64{
	'⁰': 0, '¹': 1, '²': 2, '³': 3, '⁴': 4,
	'⁵': 5, '⁶': 6, '⁷': 7, '⁸': 8, '⁹': 9,
}

// superscript parses an optional run of Unicode superscript digits directly
// attached to the preceding terminal. The digits concatenate into a single
// integer exponent: x²³ is x^23.
func (p *parser) superscript() {
	k := new(big.Int)
	n := 0
	for p.pos < len(p.src) {
		d, ok := superDigits[p.src[p.pos]]
		if !ok {
			break
		}
		k.Mul(k, big.NewInt(10))
		k.Add(k, big.NewInt(d))
		p.pos++
		n++
	}
	if n == 0 {
		return
	}
	p.pushConst(bignum.NewFloat(k))
	p.emit(OpPow)
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// number parses a decimal or hexadecimal float literal. It reports whether a
// literal was committed to.
func (p *parser) number() (bool, error) {
	if p.at("0x") || p.at("0X") {
		if p.pos+2 < len(p.src) && isHexDigit(p.src[p.pos+2]) {
			return true, p.hexFloat()
		}
	}

	if p.pos >= len(p.src) || !isDigit(p.src[p.pos]) {
		return false, nil
	}

	start := p.pos
	for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
		p.pos++
	}
	if p.pos < len(p.src) && p.src[p.pos] == '.' {
		p.pos++
		for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
			p.pos++
		}
	}
	if p.pos < len(p.src) && (p.src[p.pos] == 'e' || p.src[p.pos] == 'E') {
		// Only consume the exponent if digits follow; otherwise the literal
		// ends before the 'e'.
		save := p.pos
		p.pos++
		if p.pos < len(p.src) && (p.src[p.pos] == '+' || p.src[p.pos] == '-') {
			p.pos++
		}
		if p.pos < len(p.src) && isDigit(p.src[p.pos]) {
			for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
				p.pos++
			}
		} else {
			p.pos = save
		}
	}

	v, _, err := big.ParseFloat(string(p.src[start:p.pos]), 10, bignum.Precision(), big.ToNearestEven)
	if err != nil {
		return true, p.errorf("bad numeric literal %q: %v", string(p.src[start:p.pos]), err)
	}
	p.pushConst(v)
	return true, nil
}

func (p *parser) hexFloat() error {
	start := p.pos
	p.pos += 2 // 0x
	for p.pos < len(p.src) && isHexDigit(p.src[p.pos]) {
		p.pos++
	}
	if p.pos < len(p.src) && p.src[p.pos] == '.' {
		p.pos++
		for p.pos < len(p.src) && isHexDigit(p.src[p.pos]) {
			p.pos++
		}
	}
	hasExp := false
	if p.pos < len(p.src) && (p.src[p.pos] == 'p' || p.src[p.pos] == 'P') {
		save := p.pos
		p.pos++
		if p.pos < len(p.src) && (p.src[p.pos] == '+' || p.src[p.pos] == '-') {
			p.pos++
		}
		if p.pos < len(p.src) && isDigit(p.src[p.pos]) {
			hasExp = true
			for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
				p.pos++
			}
		} else {
			p.pos = save
		}
	}

	s := string(p.src[start:p.pos])
	if !hasExp {
		s += "p0"
	}
	v, _, err := big.ParseFloat(s, 0, bignum.Precision(), big.ToNearestEven)
	if err != nil {
		return p.errorf("bad numeric literal %q: %v", s, err)
	}
	p.pushConst(v)
	return nil
}
