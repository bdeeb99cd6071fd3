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
	"sort"
	"strings"

	"github.com/lumen-run/lumen/core/value"
)

// Builtin enumerates the Intrinsic opcode's B-operand selector (spec.md
// §4.2 "length, map/filter/reduce, string ops, sort, etc"). Variants that
// take a closure argument (map/filter/reduce) are left to the analyzer's
// desugaring pass, which lowers them to an explicit Call inside a loop —
// an opcode handler cannot itself re-enter the executor's run loop.
type Builtin uint8

const (
	BuiltinLen Builtin = iota
	BuiltinTypeName
	BuiltinToString
	BuiltinConcat
	BuiltinSortInts
	BuiltinSortStrings
	BuiltinContains
	BuiltinKeys
	BuiltinValues
	BuiltinReverse
	BuiltinBytesLen
	BuiltinNow
	BuiltinMonotonic
	BuiltinRandomBytes
	BuiltinNewUUID
)

// opIntrinsic implements `Intrinsic A B C`: B selects the Builtin, C is
// the base register of its arguments, A receives the result.
func opIntrinsic(pc *int, ex *Executor, fr *Frame, regs *Registers, ins Instruction) (ctrl, error) {
	a, sel, base := int(ins.A()), Builtin(ins.B()), int(ins.C())

	switch sel {
	case BuiltinLen:
		v := regs.Get(base)
		n, err := containerLen(v)
		if err != nil {
			return 0, err
		}
		regs.Set(a, value.Int(int64(n)))

	case BuiltinTypeName:
		v := regs.Get(base)
		regs.Set(a, value.OwnedString(v.Kind().String()))

	case BuiltinToString:
		v := regs.Get(base)
		regs.Set(a, value.OwnedString(v.String()))

	case BuiltinConcat:
		lhs, rhs := regs.Get(base), regs.Get(base+1)
		l, lok, _, _ := stringOf(lhs)
		r, rok, _, _ := stringOf(rhs)
		if !lok || !rok {
			return 0, &TypeMismatch{Op: "Concat", Expected: "string", Got: lhs.Kind().String()}
		}
		regs.Set(a, value.OwnedString(l+r))

	case BuiltinSortInts:
		l, ok := regs.Get(base).AsList()
		if !ok {
			return 0, &TypeMismatch{Op: "SortInts", Expected: "list", Got: regs.Get(base).Kind().String()}
		}
		out := make([]int64, 0, l.Len())
		l.Each(func(_ int, v value.Value) bool {
			i, _ := v.AsInt()
			out = append(out, i)
			return true
		})
		sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
		items := make([]value.Value, len(out))
		for i, n := range out {
			items[i] = value.Int(n)
		}
		regs.Set(a, value.NewList(items...))

	case BuiltinSortStrings:
		l, ok := regs.Get(base).AsList()
		if !ok {
			return 0, &TypeMismatch{Op: "SortStrings", Expected: "list", Got: regs.Get(base).Kind().String()}
		}
		out := make([]string, 0, l.Len())
		l.Each(func(_ int, v value.Value) bool {
			s, _, _, _ := stringOf(v)
			out = append(out, s)
			return true
		})
		sort.Strings(out)
		items := make([]value.Value, len(out))
		for i, s := range out {
			items[i] = value.OwnedString(s)
		}
		regs.Set(a, value.NewList(items...))

	case BuiltinContains:
		container, needle := regs.Get(base), regs.Get(base+1)
		regs.Set(a, value.Bool(containerHas(container, needle)))

	case BuiltinKeys:
		m, ok := regs.Get(base).AsMap()
		if !ok {
			return 0, &TypeMismatch{Op: "Keys", Expected: "map", Got: regs.Get(base).Kind().String()}
		}
		var keys []value.Value
		m.Each(func(k, _ value.Value) bool { keys = append(keys, k); return true })
		regs.Set(a, value.NewList(keys...))

	case BuiltinValues:
		m, ok := regs.Get(base).AsMap()
		if !ok {
			return 0, &TypeMismatch{Op: "Values", Expected: "map", Got: regs.Get(base).Kind().String()}
		}
		var vals []value.Value
		m.Each(func(_, v value.Value) bool { vals = append(vals, v); return true })
		regs.Set(a, value.NewList(vals...))

	case BuiltinReverse:
		l, ok := regs.Get(base).AsList()
		if !ok {
			return 0, &TypeMismatch{Op: "Reverse", Expected: "list", Got: regs.Get(base).Kind().String()}
		}
		n := l.Len()
		items := make([]value.Value, n)
		l.Each(func(i int, v value.Value) bool { items[n-1-i] = v; return true })
		regs.Set(a, value.NewList(items...))

	case BuiltinBytesLen:
		b, ok := regs.Get(base).AsBytes()
		if !ok {
			return 0, &TypeMismatch{Op: "BytesLen", Expected: "bytes", Got: regs.Get(base).Kind().String()}
		}
		regs.Set(a, value.Int(int64(len(b))))

	case BuiltinNow:
		regs.Set(a, value.Int(ex.Nondet.TimestampMillis()))

	case BuiltinMonotonic:
		regs.Set(a, value.Int(ex.Nondet.MonotonicNanos()))

	case BuiltinRandomBytes:
		n, ok := regs.Get(base).AsInt()
		if !ok || n < 0 {
			return 0, &TypeMismatch{Op: "RandomBytes", Expected: "non-negative int", Got: regs.Get(base).Kind().String()}
		}
		regs.Set(a, value.Bytes(ex.Nondet.RandomBytes(int(n))))

	case BuiltinNewUUID:
		regs.Set(a, value.OwnedString(ex.Nondet.UUID()))

	default:
		return 0, &TypeMismatch{Op: "Intrinsic", Expected: "known builtin", Got: "unknown"}
	}
	return ctrlNext, nil
}

func containerLen(v value.Value) (int, error) {
	switch v.Kind() {
	case value.KindList:
		l, _ := v.AsList()
		return l.Len(), nil
	case value.KindTuple:
		t, _ := v.AsTuple()
		return t.Len(), nil
	case value.KindSet:
		s, _ := v.AsSet()
		return s.Len(), nil
	case value.KindMap:
		m, _ := v.AsMap()
		return m.Len(), nil
	case value.KindBytes:
		b, _ := v.AsBytes()
		return len(b), nil
	case value.KindString:
		s, _, interned, _ := v.StringRef()
		if interned {
			return 0, &TypeMismatch{Op: "Len", Expected: "resolved string", Got: "interned"}
		}
		return len(s), nil
	default:
		return 0, &TypeMismatch{Op: "Len", Expected: "container|string|bytes", Got: v.Kind().String()}
	}
}

func stringOf(v value.Value) (s string, ok bool, internID uint32, interned bool) {
	owned, id, isIntern, valid := v.StringRef()
	if !valid {
		return "", false, 0, false
	}
	if isIntern {
		return "", true, id, true
	}
	return owned, true, 0, false
}

func containerHas(container, needle value.Value) bool {
	switch container.Kind() {
	case value.KindList:
		l, _ := container.AsList()
		found := false
		l.Each(func(_ int, v value.Value) bool {
			if value.Equal(v, needle) {
				found = true
				return false
			}
			return true
		})
		return found
	case value.KindSet:
		s, _ := container.AsSet()
		return s.Has(needle)
	case value.KindMap:
		m, _ := container.AsMap()
		_, ok := m.Get(needle)
		return ok
	case value.KindString:
		hs, _, _, _ := stringOf(container)
		ns, _, _, _ := stringOf(needle)
		return strings.Contains(hs, ns)
	default:
		return false
	}
}
