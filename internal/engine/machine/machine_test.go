// Released under an MIT license. See LICENSE.

package machine

import (
	"bytes"
	"strings"
	"testing"

	"github.com/michaelmacinnis/mes/internal/engine/cell"
	"github.com/michaelmacinnis/mes/internal/engine/heap"
	"github.com/michaelmacinnis/mes/internal/engine/printer"
)

func config() heap.Config {
	return heap.Config{
		Arena:     20000,
		Jam:       2000,
		MaxArena:  4000000,
		MaxStack:  4000000,
		MaxString: 10000,
		Safety:    200,
		Stack:     1000,
	}
}

// A machine with just enough natives to write test programs.
func testMachine(t *testing.T, c heap.Config, opts ...Option) *T {
	t.Helper()

	m := New(c, opts...)

	m.Register("+", FnN(func(args cell.H) cell.H {
		n := int64(0)
		for _, x := range m.Slice(args) {
			n += m.Value(x)
		}

		return m.Number(n)
	}))
	m.Register("-", Fn2(func(a, b cell.H) cell.H {
		return m.Number(m.Value(a) - m.Value(b))
	}))
	m.Register("<", Fn2(func(a, b cell.H) cell.H {
		return heap.Boolean(m.Value(a) < m.Value(b))
	}))
	m.Register("=", Fn2(func(a, b cell.H) cell.H {
		return heap.Boolean(m.Value(a) == m.Value(b))
	}))
	m.Register("car", Fn1(m.checkedCar))
	m.Register("cdr", Fn1(m.checkedCdr))
	m.Register("cons", Fn2(m.Cons))
	m.Register("list", FnN(func(args cell.H) cell.H {
		return args
	}))
	m.Register("null?", Fn1(func(x cell.H) cell.H {
		return heap.Boolean(x == cell.Nil)
	}))
	m.Register("values", FnN(m.Values))
	m.Register("read", Fn0(func() cell.H {
		return m.ReadDatum(m.Input())
	}))

	return m
}

func run(m *T, src string) (string, error) {
	program, err := m.Parse("test", src)
	if err != nil {
		return "", err
	}

	v, err := m.Run(program)
	if err != nil {
		return "", err
	}

	return printer.WriteString(m, v), nil
}

func expect(t *testing.T, m *T, src, want string) {
	t.Helper()

	got, err := run(m, src)
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", src, err)
	}

	if got != want {
		t.Fatalf("%s: expected %q; got %q", src, want, got)
	}
}

func fails(t *testing.T, m *T, src, want string) {
	t.Helper()

	_, err := run(m, src)
	if err == nil {
		t.Fatalf("%s: expected error %q; got none", src, want)
	}

	if !strings.Contains(err.Error(), want) {
		t.Fatalf("%s: expected error %q; got %q", src, want, err.Error())
	}
}

func TestSpecialForms(t *testing.T) {
	m := testMachine(t, config())

	for _, tc := range []struct {
		src  string
		want string
	}{
		{`'(a b . c)`, `(a b . c)`},
		{`(quote "x")`, `"x"`},
		{`(if #f 1 2)`, `2`},
		{`(if '() 1 2)`, `1`},
		{`(begin 1 2 3)`, `3`},
		{`(begin 1 (begin 2 3) 4)`, `4`},
		{`((lambda (x y) (cons y x)) 1 2)`, `(2 . 1)`},
		{`((lambda args args) 1 2 3)`, `(1 2 3)`},
		{`((lambda (a . rest) rest) 1 2 3)`, `(2 3)`},
		{`(define x 5) (set! x (+ x 1)) x`, `6`},
		{`(define (f) (define a 1) (define b 2) (+ a b)) (f)`, `3`},
		{`(pmatch-car '(1 2))`, `1`},
		{`(pmatch-cdr '(1 2))`, `(2)`},
		{`(call-with-values (lambda () (values 1 2)) (lambda (a b) (+ a b)))`, `3`},
		{`(call-with-values (lambda () 7) (lambda (a) a))`, `7`},
		{`(core:apply + '(1 2 3))`, `6`},
		{`(core:eval-expanded '(+ 1 2) (current-module))`, `3`},
		{`(core:eval '(begin (define y 9) y) (current-module))`, `9`},
	} {
		expect(t, m, tc.src, tc.want)
	}
}

func TestClosuresCaptureEnvironment(t *testing.T) {
	m := testMachine(t, config())

	expect(t, m, `
		(define (counter)
		  (define n 0)
		  (lambda () (set! n (+ n 1)) n))
		(define c (counter))
		(c)
		(c)
		(c)`, `3`)
}

func TestRecursion(t *testing.T) {
	m := testMachine(t, config())

	expect(t, m, `
		(define (f n)
		  (if (= n 0) 0 (+ n (f (- n 1)))))
		(f 10000)`, `50005000`)
}

func TestTailCallsRunInConstantStack(t *testing.T) {
	m := testMachine(t, config())

	depth := m.Depth()

	expect(t, m, `
		(define (loop n)
		  (if (= n 0) 'done (loop (- n 1))))
		(loop 100000)`, `done`)

	if m.Depth() != depth {
		t.Fatalf("Expected stack depth %d after run; got %d", depth, m.Depth())
	}

	if m.Collections() == 0 {
		t.Fatalf("Expected the loop to collect")
	}
}

func TestCollectionPreservesData(t *testing.T) {
	m := testMachine(t, config())

	expect(t, m, `
		(define (build n acc)
		  (if (= n 0) acc (build (- n 1) (cons n acc))))
		(define (len l n)
		  (if (null? l) n (len (cdr l) (+ n 1))))
		(define (sum l n)
		  (if (null? l) n (sum (cdr l) (+ n (car l)))))
		(define l (build 5000 '()))
		(list (len l 0) (sum l 0) (car l))`, `(5000 12502500 1)`)

	if m.Collections() == 0 {
		t.Fatalf("Expected at least one collection")
	}
}

func TestCallCC(t *testing.T) {
	m := testMachine(t, config())

	expect(t, m, `(+ 1 (call/cc (lambda (k) (+ 10 (k 41)))))`, `42`)
	expect(t, m, `(call-with-current-continuation (lambda (k) 5))`, `5`)
}

func TestContinuationReentry(t *testing.T) {
	m := testMachine(t, config())

	expect(t, m, `
		(define r #f)
		(define n 0)
		(define v (+ 100 (call/cc (lambda (k) (set! r k) 1))))
		(set! n (+ n 1))
		(if (< n 3) (r n) (list v n))`, `(102 3)`)
}

func TestMacros(t *testing.T) {
	m := testMachine(t, config())

	expect(t, m, `
		(define-macro (my-if c a b) (list 'if c a b))
		(my-if #t 'yes 'no)`, `yes`)

	expect(t, m, `
		(define-macro (swap a b) (list 'cons b a))
		(define (f x) (swap x 1))
		(f 2)`, `(1 . 2)`)

	expect(t, m, `(core:macro-expand '(my-if 1 2 3))`, `(if 1 2 3)`)
}

func TestMacrosShadowDefinitionForms(t *testing.T) {
	m := testMachine(t, config())

	expect(t, m, `(core:macro-expand '(set! x 1))`, `(set! x 1)`)

	expect(t, m, `
		(define-macro (set! a b) (list 'list a b))
		(core:macro-expand '(set! x 1))`, `(list x 1)`)
}

func TestErrors(t *testing.T) {
	m := testMachine(t, config())

	for _, tc := range []struct {
		src  string
		want string
	}{
		{`((lambda (x) x))`, `wrong-number-of-args: ("apply: wrong number of arguments; expected: 1"`},
		{`(car 1 2)`, `wrong-number-of-args`},
		{`(1 2)`, `wrong-type-arg: ("cannot apply: number" 1 2)`},
		{`("f")`, `cannot apply: string`},
		{`(#f)`, `cannot apply: bool`},
		{`nowhere`, `unbound-variable: nowhere`},
		{`(set! nowhere 1)`, `unbound-variable`},
		{`(car 5)`, `not-a-pair: (5 car)`},
		{`(pmatch-cdr 5)`, `not-a-pair`},
		{`(primitive-load 'x)`, `wrong-type-arg`},
		{`(primitive-load "/nonexistent/file.scm")`, `system-error`},
	} {
		fails(t, m, tc.src, tc.want)
	}

	// The machine is usable after an error.
	expect(t, m, `(+ 1 2)`, `3`)
}

func TestArityCheckedBeforeBody(t *testing.T) {
	m := testMachine(t, config())

	expect(t, m, `
		(define touched 0)
		(define (f x) (set! touched 1) x)
		(define (g x y) (set! touched 2) y)
		touched`, `0`)

	fails(t, m, `(f)`, `wrong-number-of-args`)
	fails(t, m, `(f 1 2)`, `wrong-number-of-args`)
	fails(t, m, `(g 1 2 3)`, `wrong-number-of-args`)
	fails(t, m, `((lambda (x) (set! touched 3) x))`, `wrong-number-of-args`)

	expect(t, m, `touched`, `0`)
	expect(t, m, `(g 1 2)`, `2`)
	expect(t, m, `touched`, `2`)
}

func TestThrow(t *testing.T) {
	m := testMachine(t, config())

	expect(t, m, `
		(define handler #f)
		(define (throw key value) (handler (list key value)))
		(call/cc (lambda (k) (set! handler k) (car 5)))`, `(not-a-pair (5 car))`)
}

func TestThrowReturns(t *testing.T) {
	c := config()
	c.MaxString = 20

	m := testMachine(t, c)
	m.Register("make-string", Fn1(func(n cell.H) cell.H {
		return m.MakeString(strings.Repeat("a", int(m.Value(n))))
	}))

	expect(t, m, `(make-string 20)`, `"aaaaaaaaaaaaaaaaaaaa"`)
	fails(t, m, `(make-string 21)`, `system-error: "string too long: 21 > MES_MAX_STRING (20)"`)

	// Each condition gets its own call to throw.
	expect(t, m, `
		(define (throw key value) (list 'caught key))
		(list (make-string 31) (car 5))`, `((caught system-error) (caught not-a-pair))`)
}

func TestErrorInThrowIsFatal(t *testing.T) {
	m := testMachine(t, config())

	fails(t, m, `
		(define (throw key value) (car 1))
		(car 2)`, `not-a-pair: (1 car)`)

	// The failed call to throw does not poison later runs.
	expect(t, m, `
		(define (throw key value) key)
		(car 3)`, `not-a-pair`)
}

func TestBrokenHeartIsFatal(t *testing.T) {
	m := testMachine(t, config())
	m.Register("broken-heart", Fn0(func() cell.H {
		return m.Make(cell.BrokenHeart, 0, 0)
	}))

	fails(t, m, `
		(define (throw key value) 'recovered)
		(core:eval-expanded (broken-heart) (current-module))`, `eval: broken heart`)
}

func TestApply(t *testing.T) {
	m := testMachine(t, config())

	plus := m.ModuleRef(m.M0, m.Intern("+"))

	v, err := m.Apply(plus, m.List(m.Number(1), m.Number(2)))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if m.Value(v) != 3 {
		t.Fatalf("Expected 3; got %s", printer.WriteString(m, v))
	}
}

func TestPrimitiveLoadFromStdin(t *testing.T) {
	m := testMachine(t, config(), Stdin(strings.NewReader("(define z 4) (+ z 1)")))

	expect(t, m, `(primitive-load 0)`, `5`)
}

func TestReadDatum(t *testing.T) {
	m := testMachine(t, config(), Stdin(strings.NewReader("(a\n b) c\n")))

	expect(t, m, `(read)`, `(a b)`)
	expect(t, m, `(read)`, `c`)

	if got := printer.WriteString(m, m.ReadDatum(0)); got != `#\eof` {
		t.Fatalf("Expected eof; got %s", got)
	}
}

func TestStringPorts(t *testing.T) {
	m := testMachine(t, config())

	p := m.OpenInputString("hi")
	n := m.PortNumber("test", p)

	if n >= 0 {
		t.Fatalf("Expected a negative port number; got %d", n)
	}

	if b := m.PeekByte(n); b != 'h' {
		t.Fatalf("Expected 'h'; got %d", b)
	}

	if b := m.ReadByte(n); b != 'h' {
		t.Fatalf("Expected 'h'; got %d", b)
	}

	m.UnreadByte(n, 'x')

	rest, err := m.ReadAll(n)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if string(rest) != "xi" {
		t.Fatalf("Expected %q; got %q", "xi", rest)
	}

	if b := m.ReadByte(n); b != EOF {
		t.Fatalf("Expected EOF; got %d", b)
	}
}

func TestWrite(t *testing.T) {
	var out, errs bytes.Buffer

	m := testMachine(t, config(), Stdout(&out), Stderr(&errs))

	if err := m.Write(1, []byte("out")); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if _, err := m.Writer(2).Write([]byte("err")); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if out.String() != "out" || errs.String() != "err" {
		t.Fatalf("Expected out/err; got %q/%q", out.String(), errs.String())
	}
}

func TestImage(t *testing.T) {
	m := testMachine(t, config())

	expect(t, m, `(define (sq x) (+ x x)) (define k 7) (sq k)`, `14`)

	program, err := m.Parse("test", `(+ k 1)`)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var b bytes.Buffer

	if err := m.DumpImage(&b, program); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !bytes.HasPrefix(b.Bytes(), []byte(heap.Magic)) {
		t.Fatalf("Expected image magic")
	}

	loaded := testMachine(t, config())

	program, err = loaded.LoadImage(&b)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	v, err := loaded.Run(program)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if loaded.Value(v) != 8 {
		t.Fatalf("Expected 8; got %s", printer.WriteString(loaded, v))
	}

	if _, err := loaded.LoadImage(strings.NewReader("junk")); err == nil {
		t.Fatalf("Expected a bad image to be rejected")
	}
}

func TestUnknownPhase(t *testing.T) {
	m := testMachine(t, config())

	_, err := m.start(cell.Nil, cell.SymbolLambda)
	if err == nil || !strings.Contains(err.Error(), "unknown continuation") {
		t.Fatalf("Expected unknown continuation error; got %v", err)
	}
}
