// Released under an MIT license. See LICENSE.

package machine

import (
	"github.com/pkg/errors"

	"github.com/michaelmacinnis/mes/internal/engine/cell"
)

// Native procedure signatures. FnN receives its arguments as a list.
type (
	Fn0 func() cell.H
	Fn1 func(cell.H) cell.H
	Fn2 func(cell.H, cell.H) cell.H
	Fn3 func(cell.H, cell.H, cell.H) cell.H
	FnN func(cell.H) cell.H
)

// Field indices of a builtin struct.
const (
	builtinName     = 3
	builtinFunction = 5
)

// Register binds name to a builtin that calls fn, which must be one of
// Fn0, Fn1, Fn2, Fn3 or FnN. Builtins are numbered in the order they are
// registered and images refer to them by number.
func (m *machine) Register(name string, fn interface{}) cell.H {
	var arity int64

	switch fn.(type) {
	case Fn0:
		arity = 0
	case Fn1:
		arity = 1
	case Fn2:
		arity = 2
	case Fn3:
		arity = 3
	case FnN:
		arity = -1
	default:
		panic(errors.Errorf("register %s: unsupported function type %T", name, fn))
	}

	index := int64(len(m.natives))
	m.natives = append(m.natives, fn)

	b := m.MakeStruct(m.List(
		cell.SymbolBuiltin,
		cell.False,
		cell.SymbolBuiltin,
		m.MakeString(name),
		m.Number(arity),
		m.Make(cell.Function, arity, index),
	))

	m.Define(m.Intern(name), b)

	return b
}

// IsBuiltin returns true if x is a builtin struct.
func (m *machine) IsBuiltin(x cell.H) bool {
	return m.Type(x) == cell.Struct &&
		m.Length(x) > builtinFunction &&
		m.Ref0(x, 2) == cell.SymbolBuiltin
}

// BuiltinName returns the name of the builtin f.
func (m *machine) BuiltinName(f cell.H) string {
	return m.Text(m.Ref0(f, builtinName))
}

// Builtins see the first value when a multiple value result is passed as
// their first or second argument.
func (m *machine) applyBuiltin(f, args cell.H) cell.H {
	fn := m.Ref0(f, builtinFunction)
	arity := m.Value(fn)

	m.checkArity(f, arity, args)

	if m.Type(args) == cell.Pair {
		if x := m.Car(args); m.Type(x) == cell.Values {
			args = m.Cons(m.firstValue(x), m.Cdr(args))
		}

		if rest := m.Cdr(args); m.Type(rest) == cell.Pair {
			if x := m.Car(rest); m.Type(x) == cell.Values {
				args = m.Cons(m.Car(args), m.Cons(m.firstValue(x), m.Cdr(rest)))
			}
		}
	}

	index := int(m.Cdr(fn))
	if index < 0 || index >= len(m.natives) {
		panic(&Fatal{errors.Errorf("builtin %s: no native function %d", m.BuiltinName(f), index)})
	}

	var a [3]cell.H

	for i, l := 0, args; i < len(a) && m.Type(l) == cell.Pair; i, l = i+1, m.Cdr(l) {
		a[i] = m.Car(l)
	}

	switch n := m.natives[index].(type) {
	case Fn0:
		return n()
	case Fn1:
		return n(a[0])
	case Fn2:
		return n(a[0], a[1])
	case Fn3:
		return n(a[0], a[1], a[2])
	case FnN:
		return n(args)
	}

	panic(&Fatal{errors.Errorf("builtin %s: arity %d", m.BuiltinName(f), arity)})
}

func (m *machine) firstValue(x cell.H) cell.H {
	l := m.Cdr(x)
	if m.Type(l) != cell.Pair {
		return cell.Unspecified
	}

	return m.Car(l)
}
