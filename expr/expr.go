// Package expr implements an arithmetic expression engine over
// arbitrary-precision reals. Expressions are compiled to a postfix op list
// and evaluated on a value stack, so a compiled Expression is immutable and
// safe for concurrent evaluation.
package expr

import (
	"fmt"
	"math/big"

	"github.com/approxtools/polyrem/bignum"
)

// Opcode identifies a postfix operation.
type Opcode uint8

const (
	// Values.
	OpVarX Opcode = iota
	OpVarY
	OpConst

	// Unary.
	OpMinus
	OpAbs
	OpSqrt
	OpCbrt
	OpExp
	OpExp2
	OpErf
	OpLog
	OpLog2
	OpLog10
	OpSin
	OpCos
	OpTan
	OpASin
	OpACos
	OpATan
	OpSinH
	OpCosH
	OpTanH
	OpToFloat
	OpToDouble
	OpToLDouble

	// Binary.
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpATan2
	OpPow
	OpMin
	OpMax
	OpFmod
)

// Op is a single postfix operation. Index is the constant-table index for
// OpConst and -1 otherwise.
type Op struct {
	Code  Opcode
	Index int
}

// Expression is a compiled arithmetic expression in x. The zero value is not
// usable; use Parse.
type Expression struct {
	ops       []Op
	constants []*big.Float
}

// IsConstant reports whether the expression does not depend on x.
func (e *Expression) IsConstant() bool {
	for _, op := range e.ops {
		if op.Code == OpVarX {
			return false
		}
	}
	return true
}

// narrow rounds v through a mantissa of the given width and back to the
// original precision.
func narrow(v *big.Float, mant uint) *big.Float {
	r := new(big.Float).SetPrec(mant).Set(v)
	return new(big.Float).SetPrec(v.Prec()).Set(r)
}

// Eval evaluates the expression at x. Arithmetic domain failures panic the
// way the underlying real kernel does; an error is returned only when the op
// sequence violates the stack discipline, which cannot happen for an
// expression produced by Parse.
func (e *Expression) Eval(x *big.Float) (*big.Float, error) {
	stack := make([]*big.Float, 0, 8)

	pop := func() (*big.Float, error) {
		if len(stack) == 0 {
			return nil, fmt.Errorf("eval: stack underflow")
		}
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v, nil
	}

	for _, op := range e.ops {
		switch op.Code {
		case OpVarX:
			stack = append(stack, new(big.Float).SetPrec(bignum.Precision()).Set(x))
			continue
		case OpVarY:
			// Reserved for a second variable; evaluates to 0.
			stack = append(stack, bignum.Zero())
			continue
		case OpConst:
			stack = append(stack, new(big.Float).Set(e.constants[op.Index]))
			continue
		}

		head, err := pop()
		if err != nil {
			return nil, err
		}

		var r *big.Float
		switch op.Code {
		case OpMinus:
			r = new(big.Float).Neg(head)
		case OpAbs:
			r = bignum.Abs(head)
		case OpSqrt:
			r = bignum.Sqrt(head)
		case OpCbrt:
			r = bignum.Cbrt(head)
		case OpExp:
			r = bignum.Exp(head)
		case OpExp2:
			r = bignum.Exp2(head)
		case OpErf:
			r = bignum.Erf(head)
		case OpLog:
			r = bignum.Log(head)
		case OpLog2:
			r = bignum.Log2(head)
		case OpLog10:
			r = bignum.Log10(head)
		case OpSin:
			r = bignum.Sin(head)
		case OpCos:
			r = bignum.Cos(head)
		case OpTan:
			r = bignum.Tan(head)
		case OpASin:
			r = bignum.ASin(head)
		case OpACos:
			r = bignum.ACos(head)
		case OpATan:
			r = bignum.ATan(head)
		case OpSinH:
			r = bignum.SinH(head)
		case OpCosH:
			r = bignum.CosH(head)
		case OpTanH:
			r = bignum.TanH(head)
		case OpToFloat:
			r = narrow(head, 24)
		case OpToDouble:
			r = narrow(head, 53)
		case OpToLDouble:
			r = narrow(head, 64)

		default:
			lhs, err := pop()
			if err != nil {
				return nil, err
			}
			switch op.Code {
			case OpAdd:
				r = new(big.Float).Add(lhs, head)
			case OpSub:
				r = new(big.Float).Sub(lhs, head)
			case OpMul:
				r = new(big.Float).Mul(lhs, head)
			case OpDiv:
				r = new(big.Float).Quo(lhs, head)
			case OpMod, OpFmod:
				r = bignum.FMod(lhs, head)
			case OpATan2:
				r = bignum.ATan2(lhs, head)
			case OpPow:
				r = bignum.Pow(lhs, head)
			case OpMin:
				r = bignum.Min(lhs, head)
			case OpMax:
				r = bignum.Max(lhs, head)
			default:
				return nil, fmt.Errorf("eval: unknown opcode %d", op.Code)
			}
		}

		stack = append(stack, r)
	}

	if len(stack) != 1 {
		return nil, fmt.Errorf("eval: %d values left on stack", len(stack))
	}
	return stack[0], nil
}
