// Released under an MIT license. See LICENSE.

// Package reader turns source text into cells.
package reader

import (
	"io"
	"strings"

	"github.com/michaelmacinnis/mes/internal/engine/cell"
	"github.com/michaelmacinnis/mes/internal/reader/lexer"
	"github.com/michaelmacinnis/mes/internal/reader/parser"
)

// Builder creates the cells for parsed data.
type Builder = parser.Builder

// ErrIncomplete is returned when the text ends in the middle of a datum.
var ErrIncomplete = parser.ErrIncomplete //nolint:gochecknoglobals

// T (reader) encapsulates the lexer and parser.
type T struct {
	p *parser.T
	s *lexer.T
}

type reader = T

// New creates a new reader for name.
func New(name string, b Builder) *T {
	s := lexer.New(name)

	return &T{
		p: parser.New(b, s.Token),
		s: s,
	}
}

// Read returns the next datum. It returns io.EOF when the text is
// exhausted and ErrIncomplete if the text ends part way through a datum.
// After ErrIncomplete the reader must be discarded.
func (r *reader) Read() (cell.H, error) {
	x, err := r.p.Parse()
	if err == io.EOF && strings.TrimSpace(r.s.Rest()) != "" { //nolint:errorlint
		// An unterminated string or comment.
		return x, ErrIncomplete
	}

	return x, err
}

// Rest returns the text that follows the last datum read.
func (r *reader) Rest() string {
	return r.s.Rest()
}

// Scan appends text to the input.
func (r *reader) Scan(text string) {
	r.s.Scan(text)
}

// ReadAll returns every datum in text.
func ReadAll(name, text string, b Builder) ([]cell.H, error) {
	r := New(name, b)

	// A final delimiter completes a trailing atom.
	r.Scan(text + "\n")

	var xs []cell.H

	for {
		x, err := r.Read()
		if err == io.EOF { //nolint:errorlint
			return xs, nil
		}

		if err != nil {
			return xs, err
		}

		xs = append(xs, x)
	}
}
