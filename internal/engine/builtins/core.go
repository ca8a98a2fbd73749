// Released under an MIT license. See LICENSE.

package builtins

import (
	"github.com/michaelmacinnis/mes/internal/engine/cell"
	"github.com/michaelmacinnis/mes/internal/engine/heap"
	"github.com/michaelmacinnis/mes/internal/engine/machine"
)

// Field index of the frames of a stack and the procedure of a frame.
const (
	stackFrames    = 3
	frameProcedure = 3
)

func (b *builtins) core() map[string]interface{} {
	return map[string]interface{}{
		"acons":            machine.Fn3(b.Acons),
		"arena-size":       machine.Fn0(b.arenaSize),
		"car":              machine.Fn1(b.car),
		"cdr":              machine.Fn1(b.cdr),
		"cons":             machine.Fn2(b.Cons),
		"core:car":         machine.Fn1(b.coreCar),
		"core:cdr":         machine.Fn1(b.coreCdr),
		"core:make-cell":   machine.Fn3(b.makeCell),
		"core:raise":       machine.Fn2(b.raise),
		"core:type":        machine.Fn1(b.coreType),
		"eq?":              machine.Fn2(b.eq),
		"error":            machine.Fn2(b.error),
		"exit":             machine.FnN(b.exit),
		"frame-procedure":  machine.Fn1(b.frameProcedure),
		"gc":               machine.Fn0(b.gc),
		"gc-check":         machine.Fn0(b.gcCheck),
		"length":           machine.Fn1(b.length),
		"list":             machine.FnN(b.list),
		"macro-get-handle": machine.Fn1(b.MacroGetHandle),
		"make-stack":       machine.FnN(b.makeStack),
		"module-define!":   machine.Fn3(b.moduleDefine),
		"module-ref":       machine.Fn2(b.moduleRef),
		"module-variable":  machine.Fn2(b.ModuleVariable),
		"null?":            machine.Fn1(b.isNull),
		"pair?":            machine.Fn1(b.isPair),
		"set-car!":         machine.Fn2(b.setCar),
		"set-cdr!":         machine.Fn2(b.setCdr),
		"set-env!":         machine.Fn3(b.SetEnv),
		"stack-length":     machine.Fn1(b.stackLength),
		"stack-ref":        machine.Fn2(b.stackRef),
		"values":           machine.FnN(b.Values),
	}
}

func (b *builtins) arenaSize() cell.H {
	return b.Number(b.Arena())
}

func (b *builtins) car(x cell.H) cell.H {
	return b.Car(b.pair("car", x))
}

func (b *builtins) cdr(x cell.H) cell.H {
	return b.Cdr(b.pair("cdr", x))
}

// The raw payload words. Words that hold handles are returned as they are;
// other words are returned as numbers.
func (b *builtins) coreCar(x cell.H) cell.H {
	switch b.Type(x) {
	case cell.Macro, cell.Pair, cell.Ref, cell.Variable:
		return b.Car(x)
	}

	return b.Number(b.Cell(x).Car)
}

func (b *builtins) coreCdr(x cell.H) cell.H {
	switch b.Type(x) {
	case cell.Closure, cell.Continuation, cell.Keyword, cell.Macro,
		cell.Pair, cell.Port, cell.Special, cell.String, cell.Symbol,
		cell.Values:
		return b.Cdr(x)
	}

	return b.Number(b.Cell(x).Cdr)
}

func (b *builtins) coreType(x cell.H) cell.H {
	return b.Number(int64(b.Type(x)))
}

func (b *builtins) eq(x, y cell.H) cell.H {
	return heap.Boolean(b.Eq(x, y))
}

func (b *builtins) error(key, x cell.H) cell.H {
	b.Error(key, x)

	return cell.Unspecified
}

func (b *builtins) exit(args cell.H) cell.H {
	code := 0

	if x, ok := b.optional(args, 0); ok {
		switch {
		case x == cell.False:
			code = 1
		case b.Type(x) == cell.Number:
			code = int(b.Value(x))
		}
	}

	b.Exit(code)

	return cell.Unspecified
}

func (b *builtins) frameProcedure(x cell.H) cell.H {
	return b.Ref0(b.typed("frame-procedure", x, cell.Struct), frameProcedure)
}

func (b *builtins) gc() cell.H {
	b.Collect()

	return cell.Unspecified
}

func (b *builtins) gcCheck() cell.H {
	return heap.Boolean(b.Check())
}

func (b *builtins) isNull(x cell.H) cell.H {
	return heap.Boolean(x == cell.Nil)
}

func (b *builtins) isPair(x cell.H) cell.H {
	return heap.Boolean(b.Type(x) == cell.Pair)
}

func (b *builtins) length(x cell.H) cell.H {
	n := b.ListLength(x)
	if n < 0 {
		b.WrongType("length", x)
	}

	return b.Number(n)
}

func (b *builtins) list(args cell.H) cell.H {
	return args
}

// Numbers and chars in the payload are stored by value.
func (b *builtins) makeCell(t, car, cdr cell.H) cell.H {
	word := func(x cell.H) int64 {
		switch b.Type(x) {
		case cell.Char, cell.Number:
			return b.Value(x)
		}

		return int64(x)
	}

	tag := cell.Tag(b.integer("core:make-cell", t))
	if tag < 0 || tag >= cell.Tags {
		b.WrongType("core:make-cell", t)
	}

	return b.Make(tag, word(car), word(cdr))
}

// A snapshot of the frame stack, innermost frame first.
func (b *builtins) makeStack(cell.H) cell.H {
	var frames []cell.H

	for _, f := range b.Frames() {
		frames = append(frames, b.MakeStruct(b.List(
			cell.SymbolFrame,
			cell.False,
			cell.SymbolFrame,
			f.Procedure,
		)))
	}

	return b.MakeStruct(b.List(
		cell.SymbolStack,
		cell.False,
		cell.SymbolStack,
		b.VectorOf(frames),
	))
}

func (b *builtins) moduleDefine(module, name, v cell.H) cell.H {
	if !b.IsModule(module) {
		b.WrongType("module-define!", module)
	}

	b.ModuleDefine(module, name, v)

	return cell.Unspecified
}

func (b *builtins) moduleRef(env, name cell.H) cell.H {
	return b.ModuleRef(env, name)
}

func (b *builtins) raise(key, x cell.H) cell.H {
	b.Raise(key, x)

	return cell.Unspecified
}

func (b *builtins) setCar(x, v cell.H) cell.H {
	b.SetCar(b.pair("set-car!", x), v)

	return cell.Unspecified
}

func (b *builtins) setCdr(x, v cell.H) cell.H {
	b.SetCdr(b.pair("set-cdr!", x), v)

	return cell.Unspecified
}

func (b *builtins) stackFrames(name string, x cell.H) cell.H {
	return b.Ref0(b.typed(name, x, cell.Struct), stackFrames)
}

func (b *builtins) stackLength(x cell.H) cell.H {
	return b.Number(b.Length(b.stackFrames("stack-length", x)))
}

func (b *builtins) stackRef(x, i cell.H) cell.H {
	frames := b.stackFrames("stack-ref", x)

	k := b.integer("stack-ref", i)
	if k < 0 || k >= b.Length(frames) {
		b.WrongType("stack-ref", i)
	}

	return b.Ref0(frames, k)
}
