// Released under an MIT license. See LICENSE.

package builtins

import (
	"strconv"
	"strings"

	"github.com/michaelmacinnis/mes/internal/engine/cell"
	"github.com/michaelmacinnis/mes/internal/engine/machine"
)

func (b *builtins) numbers() map[string]interface{} {
	return map[string]interface{}{
		"*":              machine.FnN(b.multiply),
		"+":              machine.FnN(b.add),
		"-":              machine.FnN(b.subtract),
		"/":              machine.FnN(b.divide),
		"<":              machine.FnN(b.less),
		"=":              machine.FnN(b.equals),
		">":              machine.FnN(b.greater),
		"ash":            machine.Fn2(b.ash),
		"logand":         machine.FnN(b.logand),
		"logior":         machine.FnN(b.logior),
		"lognot":         machine.Fn1(b.lognot),
		"logxor":         machine.FnN(b.logxor),
		"modulo":         machine.Fn2(b.modulo),
		"number->string": machine.FnN(b.numberToString),
		"number?":        b.isType(cell.Number),
		"remainder":      machine.Fn2(b.remainder),
		"string->number": machine.FnN(b.stringToNumber),
	}
}

// Fold the numbers in args with f, starting from n.
func (b *builtins) fold(name string, args cell.H, n int64, f func(int64, int64) int64) cell.H {
	for ; b.Type(args) == cell.Pair; args = b.Cdr(args) {
		n = f(n, b.integer(name, b.Car(args)))
	}

	return b.Number(n)
}

// The first number in args folded with the rest, or f(unit, first) if
// there is only one.
func (b *builtins) reduce(name string, args cell.H, unit int64, f func(int64, int64) int64) cell.H {
	first := b.integer(name, b.required(name, args, 0))

	rest := b.Cdr(args)
	if rest == cell.Nil {
		return b.Number(f(unit, first))
	}

	return b.fold(name, rest, first, f)
}

// Compare each adjacent pair of numbers in args with f.
func (b *builtins) compare(name string, args cell.H, f func(int64, int64) bool) cell.H {
	if args == cell.Nil {
		return cell.True
	}

	x := b.integer(name, b.Car(args))

	for args = b.Cdr(args); b.Type(args) == cell.Pair; args = b.Cdr(args) {
		y := b.integer(name, b.Car(args))
		if !f(x, y) {
			return cell.False
		}

		x = y
	}

	return cell.True
}

func (b *builtins) nonzero(name string, x cell.H) int64 {
	n := b.integer(name, x)
	if n == 0 {
		b.Error(b.Intern("divide-by-zero"), b.Cons(b.MakeString(name), x))
	}

	return n
}

func (b *builtins) add(args cell.H) cell.H {
	return b.fold("+", args, 0, func(x, y int64) int64 { return x + y })
}

func (b *builtins) ash(x, y cell.H) cell.H {
	n := b.integer("ash", x)
	k := b.integer("ash", y)

	if k < 0 {
		return b.Number(n >> uint64(-k))
	}

	return b.Number(n << uint64(k))
}

func (b *builtins) divide(args cell.H) cell.H {
	first := b.integer("/", b.required("/", args, 0))

	rest := b.Cdr(args)
	if rest == cell.Nil {
		return b.Number(1 / b.nonzero("/", b.Car(args)))
	}

	for ; b.Type(rest) == cell.Pair; rest = b.Cdr(rest) {
		first /= b.nonzero("/", b.Car(rest))
	}

	return b.Number(first)
}

func (b *builtins) equals(args cell.H) cell.H {
	return b.compare("=", args, func(x, y int64) bool { return x == y })
}

func (b *builtins) greater(args cell.H) cell.H {
	return b.compare(">", args, func(x, y int64) bool { return x > y })
}

func (b *builtins) less(args cell.H) cell.H {
	return b.compare("<", args, func(x, y int64) bool { return x < y })
}

func (b *builtins) logand(args cell.H) cell.H {
	return b.fold("logand", args, -1, func(x, y int64) int64 { return x & y })
}

func (b *builtins) logior(args cell.H) cell.H {
	return b.fold("logior", args, 0, func(x, y int64) int64 { return x | y })
}

func (b *builtins) lognot(x cell.H) cell.H {
	return b.Number(^b.integer("lognot", x))
}

func (b *builtins) logxor(args cell.H) cell.H {
	return b.fold("logxor", args, 0, func(x, y int64) int64 { return x ^ y })
}

// The result has the sign of the divisor.
func (b *builtins) modulo(x, y cell.H) cell.H {
	n := b.integer("modulo", x)
	d := b.nonzero("modulo", y)

	r := n % d
	if r != 0 && (r < 0) != (d < 0) {
		r += d
	}

	return b.Number(r)
}

func (b *builtins) multiply(args cell.H) cell.H {
	return b.fold("*", args, 1, func(x, y int64) int64 { return x * y })
}

func (b *builtins) numberToString(args cell.H) cell.H {
	n := b.integer("number->string", b.required("number->string", args, 0))

	return b.MakeString(strconv.FormatInt(n, b.radix("number->string", args)))
}

// The result has the sign of the dividend.
func (b *builtins) remainder(x, y cell.H) cell.H {
	return b.Number(b.integer("remainder", x) % b.nonzero("remainder", y))
}

func (b *builtins) radix(name string, args cell.H) int {
	x, ok := b.optional(args, 1)
	if !ok {
		return 10
	}

	r := b.integer(name, x)
	if r < 2 || r > 36 {
		b.WrongType(name, x)
	}

	return int(r)
}

func (b *builtins) stringToNumber(args cell.H) cell.H {
	s := b.text("string->number", b.required("string->number", args, 0))

	n, err := strconv.ParseInt(strings.TrimPrefix(s, "+"), b.radix("string->number", args), 64)
	if err != nil {
		return cell.False
	}

	return b.Number(n)
}

func (b *builtins) subtract(args cell.H) cell.H {
	return b.reduce("-", args, 0, func(x, y int64) int64 { return x - y })
}
