// Copyright 2015 by the Authors
// This file is part of the go-core library.
//
// The go-core library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-core library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-core library. If not, see <http://www.gnu.org/licenses/>.

package vm

import (
	"math"
	"math/big"

	"github.com/lumen-run/lumen/core/value"
)

func promoteToBig(v value.Value) (*big.Int, bool) {
	if i, ok := v.AsInt(); ok {
		return big.NewInt(i), true
	}
	if b, ok := v.AsBigInt(); ok {
		return b, true
	}
	return nil, false
}

func addOverflows(a, b int64) bool {
	sum := a + b
	return ((a > 0 && b > 0 && sum < 0) || (a < 0 && b < 0 && sum > 0))
}
func subOverflows(a, b int64) bool {
	diff := a - b
	return ((b < 0 && diff < a) || (b > 0 && diff > a))
}
func mulOverflows(a, b int64) bool {
	if a == 0 || b == 0 {
		return false
	}
	if (a == -1 && b == math.MinInt64) || (a == math.MinInt64 && b == -1) {
		return true
	}
	p := a * b
	return p/b != a
}

// opArith dispatches Add/Sub/Mul/Div/Mod/Neg/BAnd/BOr/BXor/BNot/Shl/Shr
// over R(B) [op] R(C) into R(A). Int overflow promotes to BigInt rather
// than wrapping, per spec.md's arbitrary-precision BigInt variant.
func opArith(pc *int, ex *Executor, fr *Frame, regs *Registers, ins Instruction) (ctrl, error) {
	op := ins.OpCode()
	a := int(ins.A())

	if op == Neg || op == BNot {
		b := regs.Get(int(ins.B()))
		switch op {
		case Neg:
			if i, ok := b.AsInt(); ok {
				if i == math.MinInt64 {
					regs.Set(a, value.BigInt(new(big.Int).Neg(big.NewInt(i))))
				} else {
					regs.Set(a, value.Int(-i))
				}
				return ctrlNext, nil
			}
			if f, ok := b.AsFloat(); ok {
				regs.Set(a, value.Float(-f))
				return ctrlNext, nil
			}
			if bi, ok := b.AsBigInt(); ok {
				regs.Set(a, value.BigInt(new(big.Int).Neg(bi)))
				return ctrlNext, nil
			}
			return 0, &TypeMismatch{Op: "Neg", Expected: "int|float|bigint", Got: b.Kind().String()}
		case BNot:
			i, ok := b.AsInt()
			if !ok {
				return 0, &TypeMismatch{Op: "BNot", Expected: "int", Got: b.Kind().String()}
			}
			regs.Set(a, value.Int(^i))
			return ctrlNext, nil
		}
	}

	lhs := regs.Get(int(ins.B()))
	rhs := regs.Get(int(ins.C()))

	if lf, lok := lhs.AsFloat(); lok {
		rf, rok := asFloat(rhs)
		if !rok {
			return 0, &TypeMismatch{Op: op.String(), Expected: "float", Got: rhs.Kind().String()}
		}
		return ctrlNext, floatArith(regs, a, op, lf, rf)
	}
	if rf, rok := rhs.AsFloat(); rok {
		lf, lok := asFloat(lhs)
		if !lok {
			return 0, &TypeMismatch{Op: op.String(), Expected: "float", Got: lhs.Kind().String()}
		}
		return ctrlNext, floatArith(regs, a, op, lf, rf)
	}

	if _, isBig := lhs.AsBigInt(); isBig {
		return ctrlNext, bigArith(regs, a, op, lhs, rhs)
	}
	if _, isBig := rhs.AsBigInt(); isBig {
		return ctrlNext, bigArith(regs, a, op, lhs, rhs)
	}

	li, lok := lhs.AsInt()
	ri, rok := rhs.AsInt()
	if !lok || !rok {
		return 0, &TypeMismatch{Op: op.String(), Expected: "int", Got: lhs.Kind().String() + "," + rhs.Kind().String()}
	}
	return ctrlNext, intArith(regs, a, op, li, ri)
}

func asFloat(v value.Value) (float64, bool) {
	if f, ok := v.AsFloat(); ok {
		return f, true
	}
	if i, ok := v.AsInt(); ok {
		return float64(i), true
	}
	return 0, false
}

func floatArith(regs *Registers, a int, op OpCode, l, r float64) error {
	var out float64
	switch op {
	case Add:
		out = l + r
	case Sub:
		out = l - r
	case Mul:
		out = l * r
	case Div:
		out = l / r
	case Mod:
		out = math.Mod(l, r)
	default:
		return &TypeMismatch{Op: op.String(), Expected: "int", Got: "float"}
	}
	regs.Set(a, value.Float(out))
	return nil
}

func bigArith(regs *Registers, a int, op OpCode, lhs, rhs value.Value) error {
	l, ok1 := promoteToBig(lhs)
	r, ok2 := promoteToBig(rhs)
	if !ok1 || !ok2 {
		return &TypeMismatch{Op: op.String(), Expected: "int|bigint", Got: "mixed"}
	}
	out := new(big.Int)
	switch op {
	case Add:
		out.Add(l, r)
	case Sub:
		out.Sub(l, r)
	case Mul:
		out.Mul(l, r)
	case Div:
		if r.Sign() == 0 {
			return &ArithmeticOverflow{Op: "div-by-zero"}
		}
		out.Quo(l, r)
	case Mod:
		if r.Sign() == 0 {
			return &ArithmeticOverflow{Op: "mod-by-zero"}
		}
		out.Mod(l, r)
	case BAnd:
		out.And(l, r)
	case BOr:
		out.Or(l, r)
	case BXor:
		out.Xor(l, r)
	case Shl:
		out.Lsh(l, uint(r.Int64()))
	case Shr:
		out.Rsh(l, uint(r.Int64()))
	default:
		return &TypeMismatch{Op: op.String(), Expected: "arith", Got: "bigint"}
	}
	regs.Set(a, value.BigInt(out))
	return nil
}

func intArith(regs *Registers, a int, op OpCode, l, r int64) error {
	switch op {
	case Add:
		if addOverflows(l, r) {
			regs.Set(a, value.BigInt(new(big.Int).Add(big.NewInt(l), big.NewInt(r))))
			return nil
		}
		regs.Set(a, value.Int(l+r))
	case Sub:
		if subOverflows(l, r) {
			regs.Set(a, value.BigInt(new(big.Int).Sub(big.NewInt(l), big.NewInt(r))))
			return nil
		}
		regs.Set(a, value.Int(l-r))
	case Mul:
		if mulOverflows(l, r) {
			regs.Set(a, value.BigInt(new(big.Int).Mul(big.NewInt(l), big.NewInt(r))))
			return nil
		}
		regs.Set(a, value.Int(l*r))
	case Div:
		if r == 0 {
			return &ArithmeticOverflow{Op: "div-by-zero"}
		}
		if l == math.MinInt64 && r == -1 {
			regs.Set(a, value.BigInt(new(big.Int).Neg(big.NewInt(l))))
			return nil
		}
		regs.Set(a, value.Int(l/r))
	case Mod:
		if r == 0 {
			return &ArithmeticOverflow{Op: "mod-by-zero"}
		}
		regs.Set(a, value.Int(l%r))
	case BAnd:
		regs.Set(a, value.Int(l&r))
	case BOr:
		regs.Set(a, value.Int(l|r))
	case BXor:
		regs.Set(a, value.Int(l^r))
	case Shl:
		regs.Set(a, value.Int(l<<uint(r)))
	case Shr:
		regs.Set(a, value.Int(l>>uint(r)))
	default:
		return &TypeMismatch{Op: op.String(), Expected: "arith", Got: "int"}
	}
	return nil
}

// opCompare implements Eq/Lt/Le. Eq follows the "skip-next-on-mismatch"
// convention from spec.md §4.2: `Eq A B C` skips the following
// instruction if `(RegB == RegC) != (A != 0)`. Lt/Le instead write a
// Bool result into R(A), matching the teacher's SLT/SGT family which
// write rather than skip outside of the legacy JUMPI fusion path.
func opCompare(pc *int, ex *Executor, fr *Frame, regs *Registers, ins Instruction) (ctrl, error) {
	op := ins.OpCode()
	b := regs.Get(int(ins.B()))
	c := regs.Get(int(ins.C()))

	if op == Eq {
		eq := value.Equal(b, c)
		if eq != (ins.A() != 0) {
			*pc++
		}
		return ctrlNext, nil
	}

	lf, lok := asFloat(b)
	rf, rok := asFloat(c)
	var result bool
	if lok && rok {
		if op == Lt {
			result = lf < rf
		} else {
			result = lf <= rf
		}
	} else {
		return 0, &TypeMismatch{Op: op.String(), Expected: "orderable", Got: b.Kind().String()}
	}
	regs.Set(int(ins.A()), value.Bool(result))
	return ctrlNext, nil
}
