// Released under an MIT license. See LICENSE.

// Package builtins provides the native procedures of the core.
package builtins

import (
	"sort"

	"github.com/michaelmacinnis/mes/internal/engine/cell"
	"github.com/michaelmacinnis/mes/internal/engine/heap"
	"github.com/michaelmacinnis/mes/internal/engine/machine"
)

type builtins struct {
	*machine.T
}

// Register binds every builtin in m's boot module. Builtins are registered
// in name order so that an image written by one machine can be loaded by
// another built from the same source.
func Register(m *machine.T) {
	b := &builtins{m}

	all := map[string]interface{}{}

	for _, group := range []map[string]interface{}{
		b.core(),
		b.lists(),
		b.numbers(),
		b.ports(),
		b.posix(),
		b.strings(),
		b.vectors(),
	} {
		for name, fn := range group {
			all[name] = fn
		}
	}

	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		m.Register(name, all[name])
	}
}

// Argument helpers.

func (b *builtins) integer(name string, x cell.H) int64 {
	if b.Type(x) != cell.Number {
		b.Error(cell.SymbolNotANumber, b.Cons(b.MakeString(name), x))
	}

	return b.Value(x)
}

func (b *builtins) char(name string, x cell.H) rune {
	if b.Type(x) != cell.Char {
		b.WrongType(name, x)
	}

	return rune(b.Value(x))
}

func (b *builtins) pair(name string, x cell.H) cell.H {
	if b.Type(x) != cell.Pair {
		b.Error(cell.SymbolNotAPair, b.List(x, b.Intern(name)))
	}

	return x
}

func (b *builtins) text(name string, x cell.H) string {
	switch b.Type(x) {
	case cell.Keyword, cell.String, cell.Symbol, cell.Special:
		return b.Text(x)
	}

	b.WrongType(name, x)

	return ""
}

func (b *builtins) typed(name string, x cell.H, t cell.Tag) cell.H {
	if b.Type(x) != t {
		b.WrongType(name, x)
	}

	return x
}

// The i'th element of the argument list args, if present.
func (b *builtins) optional(args cell.H, i int) (cell.H, bool) {
	for ; i > 0 && b.Type(args) == cell.Pair; i-- {
		args = b.Cdr(args)
	}

	if b.Type(args) != cell.Pair {
		return cell.Unspecified, false
	}

	return b.Car(args), true
}

// The required i'th element of args.
func (b *builtins) required(name string, args cell.H, i int) cell.H {
	x, ok := b.optional(args, i)
	if !ok {
		msg := name + ": missing argument"
		b.Error(cell.SymbolWrongNumberOfArgs, b.Cons(b.MakeString(msg), args))
	}

	return x
}

// A predicate that is true for cells tagged t.
func (b *builtins) isType(t cell.Tag) machine.Fn1 {
	return func(x cell.H) cell.H {
		return heap.Boolean(b.Type(x) == t)
	}
}
