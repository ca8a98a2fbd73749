// Released under an MIT license. See LICENSE.

package engine

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/michaelmacinnis/mes/internal/engine/heap"
	"github.com/michaelmacinnis/mes/internal/engine/machine"
)

func booted(t *testing.T) (*T, *bytes.Buffer) {
	t.Helper()

	var out bytes.Buffer

	e, err := New(heap.Defaults(), machine.Stdout(&out))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	program, err := e.Boot(func(string) string { return "" })
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if _, err := e.Run(program); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	return e, &out
}

func (e *T) eval(t *testing.T, src string) string {
	t.Helper()

	r := e.Reader("test")
	r.Scan(src + "\n")

	last := ""

	for {
		x, err := r.Read()
		if errors.Is(err, io.EOF) {
			return last
		}

		if err != nil {
			t.Fatalf("%s: %v", src, err)
		}

		if last, err = e.Eval(x); err != nil {
			t.Fatalf("%s: %v", src, err)
		}
	}
}

func TestConstants(t *testing.T) {
	e, _ := booted(t)

	if v := e.eval(t, `%version`); v != `"`+Version+`"` {
		t.Fatalf("Expected %%version to be %q; got %s", Version, v)
	}

	if v := e.eval(t, `internal-time-units-per-second`); v != "1000000" {
		t.Fatalf("Unexpected time units: %s", v)
	}

	if v := e.eval(t, `%argv`); v != "()" {
		t.Fatalf("Expected an empty %%argv; got %s", v)
	}

	if err := e.SetArgs([]string{"prog.scm", "x"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if v := e.eval(t, `%argv`); v != `("prog.scm" "x")` {
		t.Fatalf("Unexpected %%argv: %s", v)
	}
}

func TestEval(t *testing.T) {
	e, out := booted(t)

	for _, tc := range []struct {
		src  string
		want string
	}{
		{`(+ 1 2)`, `3`},
		{`(define (f x) (if (= x 0) 0 (+ x (f (- x 1))))) (f 10000)`, `50005000`},
		{`(call-with-current-continuation (lambda (k) (+ 1 (k 42))))`, `42`},
		{`(define-macro (my-if c a b) (list 'if c a b)) (my-if #t 'yes 'no)`, `yes`},
		{`(call-with-values (lambda () (values 1 2)) +)`, `3`},
		{`(if #f #f)`, ``},
	} {
		if v := e.eval(t, tc.src); v != tc.want {
			t.Fatalf("%s: expected %q; got %q", tc.src, tc.want, v)
		}
	}

	e.eval(t, `(display "hi")`)

	if out.String() != "hi" {
		t.Fatalf("Expected output %q; got %q", "hi", out.String())
	}
}

func TestImageRoundTrip(t *testing.T) {
	e, err := New(heap.Defaults())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	program, err := e.Boot(func(string) string { return "" })
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var image bytes.Buffer

	if err := e.DumpImage(&image, program); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	l, err := New(heap.Defaults())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	program, err = l.LoadImage(&image)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if err := l.SetArgs([]string{"mes"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if _, err := l.Run(program); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if v := l.eval(t, `(map 1+ (list 1 2 3))`); v != "(2 3 4)" {
		t.Fatalf("Expected (2 3 4); got %s", v)
	}
}

func TestLimitsOutsideRun(t *testing.T) {
	c := heap.Defaults()
	c.MaxString = 100

	e, err := New(c)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	err = e.SetArgs([]string{"prog.scm", strings.Repeat("a", 200)})

	var fatal *machine.Fatal
	if !errors.As(err, &fatal) || !strings.Contains(err.Error(), "string too long") {
		t.Fatalf("Expected a fatal string too long error; got %v", err)
	}

	c = heap.Defaults()
	c.Arena = 4000
	c.MaxArena = 4000
	c.Jam = 0

	if _, err := New(c); !errors.As(err, &fatal) || !strings.Contains(err.Error(), "out of memory") {
		t.Fatalf("Expected a fatal out of memory error; got %v", err)
	}
}
