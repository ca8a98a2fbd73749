// Released under an MIT license. See LICENSE.

// Package parser provides a recursive descent parser for s-expressions.
package parser

import (
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/michaelmacinnis/adapted"
	"github.com/pkg/errors"

	"github.com/michaelmacinnis/mes/internal/engine/cell"
	"github.com/michaelmacinnis/mes/internal/reader/token"
)

// ErrIncomplete is returned when the tokens run out in the middle of a datum.
var ErrIncomplete = errors.New("incomplete datum") //nolint:gochecknoglobals

// Builder creates the cells for parsed data.
type Builder interface {
	Char(r rune) cell.H
	Cons(car, cdr cell.H) cell.H
	Keyword(s string) cell.H
	Number(n int64) cell.H
	String(s string) cell.H
	Symbol(s string) cell.H
	Vector(l cell.H) cell.H
}

// T holds the state of the parser.
type T struct {
	ahead int             // Lookahead count.
	b     Builder         // Cell constructors.
	item  func() *token.T // Function to call to get another token.
	token *token.T        // Token lookahead.
}

type incomplete struct{}

// New creates a new parser.
// It connects a producer of tokens with a builder of cells.
func New(b Builder, item func() *token.T) *T {
	return &T{b: b, item: item}
}

// Parse consumes the tokens for one datum. It returns io.EOF if there are
// no more tokens and ErrIncomplete if they ran out part way through.
func (p *T) Parse() (c cell.H, err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		c = cell.Zero

		switch r := r.(type) {
		case incomplete:
			err = ErrIncomplete
		case error:
			err = r
		default:
			panic(r)
		}
	}()

	for p.peek().Is(token.DatumComment) {
		p.consume()
		p.datum()
	}

	if p.peek() == nil {
		return cell.Zero, io.EOF
	}

	return p.datum(), nil
}

func (p *T) consume() *token.T {
	if p.ahead == 0 {
		panic(errors.New("nothing to consume"))
	}

	t := p.token

	p.ahead = 0
	p.token = nil

	return t
}

func (p *T) expect(c token.Class) {
	if p.want().Is(c) {
		p.consume()

		return
	}

	p.unexpected(p.peek(), "expected "+c.String())
}

func (p *T) peek() *token.T {
	if p.ahead > 0 {
		return p.token
	}

	t := p.item()
	if t == nil {
		return nil
	}

	p.token = t
	p.ahead = 1

	return t
}

func (p *T) unexpected(t *token.T, context string) {
	msg := t.Source().String() + ": unexpected '" + t.Value() + "'"
	if context != "" {
		msg += ", " + context
	}

	panic(errors.New(msg))
}

// The next token, which must exist.
func (p *T) want() *token.T {
	t := p.peek()
	if t == nil {
		panic(incomplete{})
	}

	return t
}

// T state functions.

// <datum> ::= <atom> | <list> | <vector> | <abbreviation> .
func (p *T) datum() cell.H {
	t := p.want()

	switch t.Class() {
	case '(':
		p.consume()

		return p.list()
	case token.VectorOpen:
		p.consume()

		return p.b.Vector(p.list())
	case '\'':
		return p.abbreviation(cell.SymbolQuote)
	case '`':
		return p.abbreviation(cell.SymbolQuasiquote)
	case ',':
		return p.abbreviation(cell.SymbolUnquote)
	case token.UnquoteSplicing:
		return p.abbreviation(cell.SymbolUnquoteSplicing)
	case token.DatumComment:
		p.consume()
		p.datum()

		return p.datum()
	case token.Atom:
		p.consume()

		return p.atom(t)
	case token.Char:
		p.consume()

		return p.char(t)
	case token.DoubleQuoted:
		p.consume()

		return p.string(t)
	case token.Keyword:
		p.consume()

		return p.b.Keyword(t.Value())
	}

	p.unexpected(t, "")

	return cell.Zero
}

// <abbreviation> ::= ( '\'' | '`' | ',' | ',@' ) <datum> .
func (p *T) abbreviation(s cell.H) cell.H {
	p.consume()

	return p.b.Cons(s, p.b.Cons(p.datum(), cell.Nil))
}

// <list> ::= <datum>* ( '.' <datum> )? ')' .
func (p *T) list() cell.H {
	var xs []cell.H

	tail := cell.Nil

	for {
		t := p.want()

		if t.Is(')') {
			p.consume()

			break
		}

		if t.Is(token.DatumComment) {
			p.consume()
			p.datum()

			continue
		}

		if t.Is(token.Atom) && t.Value() == "." && len(xs) > 0 {
			p.consume()

			tail = p.datum()

			for p.want().Is(token.DatumComment) {
				p.consume()
				p.datum()
			}

			p.expect(')')

			break
		}

		xs = append(xs, p.datum())
	}

	for i := len(xs) - 1; i >= 0; i-- {
		tail = p.b.Cons(xs[i], tail)
	}

	return tail
}

func (p *T) atom(t *token.T) cell.H {
	s := t.Value()

	switch s {
	case "#t", "#true":
		return cell.True
	case "#f", "#false":
		return cell.False
	case ".":
		p.unexpected(t, "")
	}

	if n, ok := number(s); ok {
		return p.b.Number(n)
	}

	if strings.HasPrefix(s, "#") && len(s) > 1 && strings.ContainsRune("bdox", rune(s[1])) {
		p.unexpected(t, "bad number")
	}

	return p.b.Symbol(s)
}

func (p *T) char(t *token.T) cell.H {
	s := t.Value()[2:]

	if utf8.RuneCountInString(s) == 1 {
		r, _ := utf8.DecodeRuneInString(s)

		return p.b.Char(r)
	}

	if r, ok := charNames[s]; ok {
		return p.b.Char(r)
	}

	if s[0] == 'x' {
		if n, err := strconv.ParseInt(s[1:], 16, 32); err == nil {
			return p.b.Char(rune(n))
		}
	}

	p.unexpected(t, "unknown character name")

	return cell.Zero
}

func (p *T) string(t *token.T) cell.H {
	text := t.Value()

	s, err := adapted.ActualBytes(escapes.Replace(text[1 : len(text)-1]))
	if err != nil {
		p.unexpected(t, err.Error())
	}

	return p.b.String(s)
}

// Helper functions.

func number(s string) (int64, bool) {
	base := 10

	if len(s) > 2 && s[0] == '#' {
		switch s[1] {
		case 'b':
			base = 2
		case 'd':
			base = 10
		case 'o':
			base = 8
		case 'x':
			base = 16
		default:
			return 0, false
		}

		s = s[2:]
	}

	if s == "" || s == "+" || s == "-" {
		return 0, false
	}

	n, err := strconv.ParseInt(s, base, 64)
	if err != nil {
		return 0, false
	}

	return n, true
}

//nolint:gochecknoglobals
var (
	charNames = map[string]rune{
		"alarm":     '\a',
		"backspace": '\b',
		"delete":    0x7f,
		"escape":    0x1b,
		"linefeed":  '\n',
		"newline":   '\n',
		"nul":       0,
		"null":      0,
		"page":      '\f',
		"return":    '\r',
		"rubout":    0x7f,
		"space":     ' ',
		"tab":       '\t',
		"vtab":      '\v',
	}

	// Escapes that Go does not share with Scheme.
	escapes = strings.NewReplacer(`\\`, `\\`, `\e`, `\x1b`, `\0`, `\x00`)
)
