// Released under an MIT license. See LICENSE.

// Package lexer provides a lexical scanner for s-expressions.
//
// The lexer adapts the state function approach used by Go's text/template
// lexer and described in detail in Rob Pike's talk "Lexical Scanning in Go".
// See https://talks.golang.org/2011/lex.slide for more information.
//
// Each state emits at most one token, and a token is only handed to the
// parser when it asks for one, so the bytes that follow the last token
// returned are always available from Rest.
package lexer

import (
	"strings"
	"unicode/utf8"

	"github.com/michaelmacinnis/mes/internal/reader/loc"
	"github.com/michaelmacinnis/mes/internal/reader/token"
)

// T holds the state of the scanner.
type T struct {
	bytes string   // Buffer being scanned.
	first int      // Index of the current token's first byte.
	index int      // Index of the current byte.
	queue []string // Buffers waiting to be scanned.
	runes int      // Runes scanned on the current line.
	saved action   // Escaped action.
	state action   // Current action.

	source loc.T

	tokens chan *token.T
}

// New creates a new T. Label can be a file name or other identifier.
func New(label string) *T {
	l := &T{
		source: loc.T{
			Char: 1,
			Line: 1,
			Name: label,
		},
		runes: 1,
	}

	l.state = skipWhitespace

	return l
}

// Rest returns the bytes that have not been returned as part of a token.
func (l *T) Rest() string {
	l.gather()

	return l.bytes[l.first:]
}

// Scan passes a text buffer to the lexer for scanning.
// If a buffer is currently being scanned, the new buffer will
// be appended to the list of buffers waiting to be scanned.
func (l *T) Scan(text string) {
	l.queue = append(l.queue, text)
}

// Text is used to return the text corresponding to the current token.
func (l *T) Text() string {
	return l.bytes[l.first:l.index]
}

// Token returns the next scanned token, or nil if no token is available.
func (l *T) Token() *token.T {
	for {
		l.gather()
		if len(l.bytes) == 0 {
			return nil
		}

		select {
		case t := <-l.tokens:
			return t
		default:
			state := l.state(l)
			if state != nil {
				l.state = state
			} else {
				close(l.tokens)
			}
		}
	}
}

type action func(*T) action

const eof = -1

func (l *T) accept(r token.Class, w int) {
	if r == '\n' {
		l.source.Line++
		l.runes = 1
	} else if r != eof {
		l.runes++
	}

	l.index += w
}

func (l *T) emit(c token.Class, v string) {
	l.tokens <- token.New(c, v, l.source)
	l.skip()
}

func (l *T) escape(escaped, a action) action {
	l.saved = escaped

	return a
}

func (l *T) gather() {
	if len(l.queue) == 0 {
		return
	}

	bytes := strings.Join(l.queue, "")

	if l.first < len(l.bytes) {
		// Prepend leftover to new bytes.
		bytes = l.bytes[l.first:] + bytes
	}

	l.queue = nil
	l.bytes = bytes
	l.index -= l.first
	l.first = 0
	l.tokens = make(chan *token.T, 1)
}

func (l *T) next() token.Class {
	r, w := l.peek()
	l.accept(r, w)

	return r
}

func (l *T) peek() (token.Class, int) {
	r, w := rune(eof), 0
	if l.index < len(l.bytes) {
		r, w = utf8.DecodeRuneInString(l.bytes[l.index:])
	}

	return token.Class(r), w
}

func (l *T) resume() action {
	resumed := l.saved
	l.saved = nil

	return resumed
}

func (l *T) skip() {
	l.source.Char = l.runes
	l.first = l.index
}

// Skip everything up to and including the terminator. Returns false if
// more input is needed.
func (l *T) skipUntil(terminator string) bool {
	for {
		if strings.HasPrefix(l.bytes[l.index:], terminator) {
			for range terminator {
				l.next()
			}

			l.skip()

			return true
		}

		if l.next() == eof {
			return false
		}
	}
}

// T states.

func afterComma(l *T) action {
	r, w := l.peek()

	switch r {
	case eof:
		return nil
	case '@':
		l.accept(r, w)
		l.emit(token.UnquoteSplicing, l.Text())
	default:
		l.emit(',', l.Text())
	}

	return skipWhitespace
}

func afterHash(l *T) action {
	r, w := l.peek()

	switch r {
	case eof:
		return nil
	case '(':
		l.accept(r, w)
		l.emit(token.VectorOpen, l.Text())
	case ';':
		l.accept(r, w)
		l.emit(token.DatumComment, l.Text())
	case '\\':
		l.accept(r, w)
		return scanChar
	case ':':
		l.accept(r, w)
		return scanKeyword
	case '|':
		l.accept(r, w)
		return skipBlockComment
	case '!':
		l.accept(r, w)
		return skipScriptHeader
	default:
		return scanAtom
	}

	return skipWhitespace
}

func escapeNextCharacter(l *T) action {
	r := l.next()

	if r == eof {
		return nil
	}

	return l.resume()
}

func scanAtom(l *T) action {
	for {
		r, w := l.peek()

		if r == eof {
			return nil
		}

		if delimiter(r) {
			l.emit(token.Atom, l.Text())

			return skipWhitespace
		}

		l.accept(r, w)
	}
}

func scanChar(l *T) action {
	// The first character after #\ is always part of the token.
	if len(l.Text()) == 2 {
		r, w := l.peek()
		if r == eof {
			return nil
		}

		l.accept(r, w)
	}

	for {
		r, w := l.peek()

		if r == eof {
			return nil
		}

		if delimiter(r) {
			l.emit(token.Char, l.Text())

			return skipWhitespace
		}

		l.accept(r, w)
	}
}

func scanDoubleQuoted(l *T) action {
	for {
		c := l.next()

		switch c {
		case eof:
			return nil
		case '"':
			l.emit(token.DoubleQuoted, l.Text())

			return skipWhitespace
		case '\\':
			return l.escape(scanDoubleQuoted, escapeNextCharacter)
		}
	}
}

func scanKeyword(l *T) action {
	for {
		r, w := l.peek()

		if r == eof {
			return nil
		}

		if delimiter(r) {
			l.emit(token.Keyword, l.Text()[2:])

			return skipWhitespace
		}

		l.accept(r, w)
	}
}

func skipBlockComment(l *T) action {
	if !l.skipUntil("|#") {
		return nil
	}

	return skipWhitespace
}

func skipComment(l *T) action {
	for {
		switch l.next() {
		case eof:
			return nil
		case '\n':
			l.skip()

			return skipWhitespace
		}
	}
}

func skipScriptHeader(l *T) action {
	if !l.skipUntil("!#") {
		return nil
	}

	return skipWhitespace
}

func skipWhitespace(l *T) action {
	for {
		r := l.next()

		switch r {
		case eof:
			return nil
		case '\t', '\n', '\f', '\r', ' ':
			l.skip()

			continue
		case '(', ')', '\'', '`':
			l.emit(r, l.Text())

			return skipWhitespace
		case ',':
			return afterComma
		case ';':
			return skipComment
		case '"':
			return scanDoubleQuoted
		case '#':
			return afterHash
		default:
			return scanAtom
		}
	}
}

func delimiter(r token.Class) bool {
	switch r {
	case '\t', '\n', '\f', '\r', ' ', '"', '\'', '(', ')', ',', ';', '`':
		return true
	}

	return false
}
