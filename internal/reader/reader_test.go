// Released under an MIT license. See LICENSE.

package reader

import (
	"errors"
	"io"
	"testing"

	"github.com/michaelmacinnis/mes/internal/engine/cell"
	"github.com/michaelmacinnis/mes/internal/engine/heap"
	"github.com/michaelmacinnis/mes/internal/engine/printer"
)

type builder struct {
	*heap.T
}

func (b builder) Keyword(s string) cell.H {
	return b.MakeKeyword(s)
}

func (b builder) String(s string) cell.H {
	return b.MakeString(s)
}

func (b builder) Symbol(s string) cell.H {
	return b.Intern(s)
}

func (b builder) Vector(l cell.H) cell.H {
	return b.ListToVector(l)
}

func newBuilder() builder {
	return builder{heap.New(heap.Defaults())}
}

func TestReadAll(t *testing.T) {
	b := newBuilder()

	xs, err := ReadAll("test", "(define x 1) ; comment\nx 'y", b)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	want := []string{"(define x 1)", "x", "(quote y)"}

	if len(xs) != len(want) {
		t.Fatalf("Expected %d data; got %d", len(want), len(xs))
	}

	for i, x := range xs {
		if got := printer.WriteString(b, x); got != want[i] {
			t.Fatalf("Expected %s; got %s", want[i], got)
		}
	}
}

func TestReadAllErrors(t *testing.T) {
	b := newBuilder()

	if _, err := ReadAll("test", "(a b", b); !errors.Is(err, ErrIncomplete) {
		t.Fatalf("Expected ErrIncomplete; got %v", err)
	}

	if _, err := ReadAll("test", `"abc`, b); !errors.Is(err, ErrIncomplete) {
		t.Fatalf("Expected ErrIncomplete for an unterminated string; got %v", err)
	}

	if _, err := ReadAll("test", "#| open", b); !errors.Is(err, ErrIncomplete) {
		t.Fatalf("Expected ErrIncomplete for an unterminated comment; got %v", err)
	}

	_, err := ReadAll("test", "a\n  )", b)
	if err == nil || err.Error() != "test:2:3: unexpected ')'" {
		t.Fatalf("Expected positioned error; got %v", err)
	}
}

func TestReadIncrementally(t *testing.T) {
	b := newBuilder()
	r := New("repl", b)

	r.Scan("(+ 1\n")

	if _, err := r.Read(); !errors.Is(err, ErrIncomplete) {
		t.Fatalf("Expected ErrIncomplete; got %v", err)
	}

	r = New("repl", b)
	r.Scan("(+ 1\n")
	r.Scan("2) rest\n")

	x, err := r.Read()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if got := printer.WriteString(b, x); got != "(+ 1 2)" {
		t.Fatalf("Expected (+ 1 2); got %s", got)
	}

	if rest := r.Rest(); rest != " rest\n" {
		t.Fatalf("Expected %q; got %q", " rest\n", rest)
	}
}

func TestReadEmpty(t *testing.T) {
	r := New("empty", newBuilder())
	r.Scan("  ; nothing\n")

	if _, err := r.Read(); err != io.EOF { //nolint:errorlint
		t.Fatalf("Expected io.EOF; got %v", err)
	}
}
