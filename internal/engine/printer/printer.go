// Released under an MIT license. See LICENSE.

// Package printer renders cells in the two external representations used
// by display and write.
package printer

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/michaelmacinnis/mes/internal/engine/cell"
)

// Heap is the read-only view of the cell heap the printer needs.
type Heap interface {
	Car(x cell.H) cell.H
	Cdr(x cell.H) cell.H
	Length(x cell.H) int64
	Ref0(x cell.H, i int64) cell.H
	Text(x cell.H) string
	Type(x cell.H) cell.Tag
	Value(x cell.H) int64
}

// Nesting beyond this depth is elided. Environments and modules can
// refer to themselves.
const maxDepth = 64

// Field indices of a builtin struct.
const (
	builtinName     = 3
	builtinFunction = 5
)

type printer struct {
	*bufio.Writer

	h     Heap
	depth int
	write bool
}

// Display writes the human readable representation of x to w.
func Display(w io.Writer, h Heap, x cell.H) error {
	return render(w, h, x, false)
}

// Write writes the machine readable representation of x to w.
func Write(w io.Writer, h Heap, x cell.H) error {
	return render(w, h, x, true)
}

// DisplayString returns the human readable representation of x.
func DisplayString(h Heap, x cell.H) string {
	var b strings.Builder

	_ = Display(&b, h, x)

	return b.String()
}

// WriteString returns the machine readable representation of x.
func WriteString(h Heap, x cell.H) string {
	var b strings.Builder

	_ = Write(&b, h, x)

	return b.String()
}

func render(w io.Writer, h Heap, x cell.H, write bool) error {
	p := &printer{
		Writer: bufio.NewWriter(w),
		h:      h,
		write:  write,
	}

	p.cell(x)

	return p.Flush()
}

func (p *printer) cell(x cell.H) {
	if p.depth >= maxDepth {
		p.WriteString("...")

		return
	}

	p.depth++
	defer func() { p.depth-- }()

	h := p.h

	switch t := h.Type(x); t {
	case cell.Char:
		p.char(rune(h.Value(x)))
	case cell.Closure:
		p.WriteString("#<closure ")
		p.plain(h.Car(h.Cdr(h.Cdr(x))))
		p.WriteByte('>')
	case cell.Continuation:
		p.WriteString("#<continuation ")
		p.WriteString(strconv.FormatInt(h.Value(x), 10))
		p.WriteByte('>')
	case cell.Keyword:
		p.WriteString("#:")
		p.WriteString(h.Text(x))
	case cell.Macro:
		p.WriteString("#<macro ")
		p.WriteString(h.Text(x))
		p.WriteByte('>')
	case cell.Number:
		p.WriteString(strconv.FormatInt(h.Value(x), 10))
	case cell.Pair:
		p.list(x)
	case cell.Port:
		p.WriteString("#<port ")
		p.WriteString(strconv.FormatInt(h.Value(x), 10))
		p.WriteByte('>')
	case cell.Ref:
		p.cell(h.Car(x))
	case cell.Special, cell.Symbol:
		p.WriteString(h.Text(x))
	case cell.String:
		p.string(h.Text(x))
	case cell.Struct:
		p.structure(x)
	case cell.Values:
		for i, l := 0, h.Cdr(x); h.Type(l) == cell.Pair; i, l = i+1, h.Cdr(l) {
			if i > 0 {
				p.WriteByte(' ')
			}

			p.cell(h.Car(l))
		}
	case cell.Variable:
		p.WriteString("#<variable ")
		p.plain(h.Car(h.Car(x)))
		p.WriteByte('>')
	case cell.Vector:
		p.WriteString("#(")

		for i := int64(0); i < h.Length(x); i++ {
			if i > 0 {
				p.WriteByte(' ')
			}

			p.cell(h.Ref0(x, i))
		}

		p.WriteByte(')')
	default:
		p.WriteByte('<')
		p.WriteString(strconv.FormatInt(int64(t), 10))
		p.WriteByte(':')
		p.WriteString(strconv.FormatInt(int64(x), 10))
		p.WriteByte('>')
	}
}

func (p *printer) char(r rune) {
	if !p.write {
		p.WriteRune(r)

		return
	}

	p.WriteString(`#\`)

	if name, ok := charNames[r]; ok {
		p.WriteString(name)

		return
	}

	p.WriteRune(r)
}

func (p *printer) list(x cell.H) {
	h := p.h

	p.WriteByte('(')

	if h.Car(x) == cell.Circular && h.Type(h.Cdr(x)) == cell.Pair &&
		h.Car(h.Cdr(x)) != cell.ClosureHead {
		p.WriteString("*circ* . ...)")

		return
	}

	for n := 0; ; n++ {
		if n > 0 {
			p.WriteByte(' ')
		}

		if n >= maxDepth*16 {
			p.WriteString("...)")

			return
		}

		p.cell(h.Car(x))

		x = h.Cdr(x)
		if h.Type(x) != cell.Pair {
			break
		}
	}

	if x != cell.Nil {
		p.WriteString(" . ")
		p.cell(x)
	}

	p.WriteByte(')')
}

// Print x in display form regardless of the current mode.
func (p *printer) plain(x cell.H) {
	write := p.write
	p.write = false
	p.cell(x)
	p.write = write
}

func (p *printer) string(s string) {
	if !p.write {
		p.WriteString(s)

		return
	}

	p.WriteByte('"')

	for i := 0; i < len(s); i++ {
		if e, ok := stringEscapes[s[i]]; ok {
			p.WriteString(e)
		} else {
			p.WriteByte(s[i])
		}
	}

	p.WriteByte('"')
}

func (p *printer) structure(x cell.H) {
	h := p.h
	n := h.Length(x)

	if n > builtinFunction && h.Ref0(x, 2) == cell.SymbolBuiltin {
		p.WriteString("#<procedure ")
		p.WriteString(h.Text(h.Ref0(x, builtinName)))
		p.WriteByte(' ')
		p.WriteString(formals(h.Value(h.Ref0(x, builtinFunction))))
		p.WriteByte('>')

		return
	}

	p.WriteString("#<")
	p.cell(h.Ref0(x, 0))

	for i := int64(2); i < n; i++ {
		p.WriteByte(' ')
		p.cell(h.Ref0(x, i))
	}

	p.WriteByte('>')
}

// The parameter list shown for a builtin of the given arity.
func formals(arity int64) string {
	if arity < 0 {
		return "_"
	}

	return "(" + strings.TrimSpace(strings.Repeat("_ ", int(arity))) + ")"
}

//nolint:gochecknoglobals
var (
	charNames = map[rune]string{
		0:    "nul",
		'\a': "alarm",
		'\b': "backspace",
		'\t': "tab",
		'\n': "newline",
		'\v': "vtab",
		'\f': "page",
		'\r': "return",
		' ':  "space",
		0x7f: "delete",
		-1:   "eof",
	}

	stringEscapes = map[byte]string{
		0:    `\0`,
		'\a': `\a`,
		'\b': `\b`,
		'\t': `\t`,
		'\v': `\v`,
		'\n': `\n`,
		'\f': `\f`,
		'\r': `\r`,
		0x1b: `\e`,
		'\\': `\\`,
		'"':  `\"`,
	}
)
