// Released under an MIT license. See LICENSE.

package builtins

import (
	"strings"

	"github.com/michaelmacinnis/mes/internal/engine/cell"
	"github.com/michaelmacinnis/mes/internal/engine/machine"
)

func (b *builtins) strings() map[string]interface{} {
	return map[string]interface{}{
		"char->integer":   machine.Fn1(b.charToInteger),
		"char?":           b.isType(cell.Char),
		"integer->char":   machine.Fn1(b.integerToChar),
		"keyword?":        b.isType(cell.Keyword),
		"keyword->string": machine.Fn1(b.keywordToString),
		"list->string":    machine.Fn1(b.listToString),
		"make-symbol":     machine.Fn1(b.makeSymbol),
		"string->keyword": machine.Fn1(b.stringToKeyword),
		"string->list":    machine.Fn1(b.stringToList),
		"string->symbol":  machine.Fn1(b.stringToSymbol),
		"string-append":   machine.FnN(b.stringAppend),
		"string-length":   machine.Fn1(b.stringLength),
		"string-ref":      machine.Fn2(b.stringRef),
		"string=?":        machine.FnN(b.stringEqual),
		"string?":         b.isType(cell.String),
		"substring":       machine.FnN(b.substring),
		"symbol->keyword": machine.Fn1(b.symbolToKeyword),
		"symbol->string":  machine.Fn1(b.symbolToString),
		"symbol?":         b.isType(cell.Symbol),
	}
}

func (b *builtins) str(name string, x cell.H) string {
	return b.Text(b.typed(name, x, cell.String))
}

func (b *builtins) charToInteger(x cell.H) cell.H {
	return b.Number(int64(b.char("char->integer", x)))
}

func (b *builtins) integerToChar(x cell.H) cell.H {
	return b.Char(rune(b.integer("integer->char", x)))
}

func (b *builtins) keywordToString(x cell.H) cell.H {
	return b.MakeString(b.Text(b.typed("keyword->string", x, cell.Keyword)))
}

// Chars are stored a byte at a time.
func (b *builtins) listToString(l cell.H) cell.H {
	if b.ListLength(l) < 0 {
		b.WrongType("list->string", l)
	}

	var s strings.Builder

	for ; l != cell.Nil; l = b.Cdr(l) {
		s.WriteByte(byte(b.char("list->string", b.Car(l))))
	}

	return b.MakeString(s.String())
}

// An uninterned symbol.
func (b *builtins) makeSymbol(x cell.H) cell.H {
	return b.MakeSymbol(b.str("make-symbol", x))
}

func (b *builtins) stringAppend(args cell.H) cell.H {
	var s strings.Builder

	for ; b.Type(args) == cell.Pair; args = b.Cdr(args) {
		s.WriteString(b.str("string-append", b.Car(args)))
	}

	return b.MakeString(s.String())
}

func (b *builtins) stringEqual(args cell.H) cell.H {
	if args == cell.Nil {
		return cell.True
	}

	s := b.str("string=?", b.Car(args))

	for args = b.Cdr(args); b.Type(args) == cell.Pair; args = b.Cdr(args) {
		if b.str("string=?", b.Car(args)) != s {
			return cell.False
		}
	}

	return cell.True
}

func (b *builtins) stringLength(x cell.H) cell.H {
	return b.Number(int64(len(b.str("string-length", x))))
}

func (b *builtins) stringRef(x, i cell.H) cell.H {
	s := b.str("string-ref", x)

	k := b.integer("string-ref", i)
	if k < 0 || k >= int64(len(s)) {
		b.WrongType("string-ref", i)
	}

	return b.Char(rune(s[k]))
}

func (b *builtins) stringToKeyword(x cell.H) cell.H {
	return b.MakeKeyword(b.str("string->keyword", x))
}

func (b *builtins) stringToList(x cell.H) cell.H {
	s := b.str("string->list", x)

	l := cell.Nil
	for i := len(s) - 1; i >= 0; i-- {
		l = b.Cons(b.Char(rune(s[i])), l)
	}

	return l
}

func (b *builtins) stringToSymbol(x cell.H) cell.H {
	return b.Intern(b.str("string->symbol", x))
}

// (substring s start [end])
func (b *builtins) substring(args cell.H) cell.H {
	s := b.str("substring", b.required("substring", args, 0))
	n := int64(len(s))

	start := b.integer("substring", b.required("substring", args, 1))
	end := n

	if x, ok := b.optional(args, 2); ok {
		end = b.integer("substring", x)
	}

	if start < 0 || start > n {
		b.WrongType("substring", b.Number(start))
	}

	if end < start || end > n {
		b.WrongType("substring", b.Number(end))
	}

	return b.MakeString(s[start:end])
}

func (b *builtins) symbolToKeyword(x cell.H) cell.H {
	return b.MakeKeyword(b.Text(b.typed("symbol->keyword", x, cell.Symbol)))
}

func (b *builtins) symbolToString(x cell.H) cell.H {
	return b.MakeString(b.Text(b.typed("symbol->string", x, cell.Symbol)))
}
