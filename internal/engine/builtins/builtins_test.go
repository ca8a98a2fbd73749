// Released under an MIT license. See LICENSE.

package builtins

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/michaelmacinnis/mes/internal/engine/heap"
	"github.com/michaelmacinnis/mes/internal/engine/machine"
	"github.com/michaelmacinnis/mes/internal/engine/printer"
)

type harness struct {
	*testing.T

	m   *machine.T
	out bytes.Buffer
	err bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	c := heap.Config{
		Arena:     20000,
		Jam:       2000,
		MaxArena:  4000000,
		MaxStack:  4000000,
		MaxString: 10000,
		Safety:    200,
		Stack:     1000,
	}

	h := &harness{T: t}
	h.m = machine.New(c, machine.Stdout(&h.out), machine.Stderr(&h.err))

	Register(h.m)

	return h
}

func (h *harness) run(src string) (string, error) {
	program, err := h.m.Parse("test", src)
	if err != nil {
		return "", err
	}

	v, err := h.m.Run(program)
	if err != nil {
		return "", err
	}

	return printer.WriteString(h.m, v), nil
}

func (h *harness) expect(src, want string) {
	h.Helper()

	got, err := h.run(src)
	if err != nil {
		h.Fatalf("%s: unexpected error: %v", src, err)
	}

	if got != want {
		h.Fatalf("%s: expected %q; got %q", src, want, got)
	}
}

func (h *harness) fails(src, want string) {
	h.Helper()

	_, err := h.run(src)
	if err == nil {
		h.Fatalf("%s: expected error %q; got none", src, want)
	}

	if !strings.Contains(err.Error(), want) {
		h.Fatalf("%s: expected error %q; got %q", src, want, err.Error())
	}
}

type example struct {
	src  string
	want string
}

func (h *harness) table(examples []example) {
	h.Helper()

	for _, e := range examples {
		h.expect(e.src, e.want)
	}
}

func TestCore(t *testing.T) {
	h := newHarness(t)

	h.table([]example{
		{`(cons 1 2)`, `(1 . 2)`},
		{`(car '(1 2))`, `1`},
		{`(cdr '(1 2))`, `(2)`},
		{`(list 1 2 3)`, `(1 2 3)`},
		{`(null? '())`, `#t`},
		{`(null? 1)`, `#f`},
		{`(pair? '(1))`, `#t`},
		{`(eq? 'a 'a)`, `#t`},
		{`(eq? "a" "a")`, `#f`},
		{`(length '(1 2 3))`, `3`},
		{`(acons 'a 1 '())`, `((a . 1))`},
		{`(define p (cons 1 2)) (set-car! p 3) (set-cdr! p 4) p`, `(3 . 4)`},
		{`(= (core:type 1) <cell:number>)`, `#t`},
		{`(= (core:type "s") <cell:string>)`, `#t`},
		{`(core:car 42)`, `42`},
		{`(core:make-cell <cell:number> 5 0)`, `5`},
		{`(module-define! (boot-module) 'zz 5) zz`, `5`},
		{`(module-ref (current-module) 'zz)`, `5`},
		{`(pair? (module-variable (current-module) 'zz))`, `#t`},
		{`(gc) (list 1 2)`, `(1 2)`},
		{`(> (arena-size) 0)`, `#t`},
		{`(< 0 (stack-length (make-stack)))`, `#t`},
	})

	h.fails(`(car '())`, "not-a-pair")
	h.fails(`(length '(1 . 2))`, "wrong-type-arg")
	h.fails(`(error 'my-error "bad")`, `my-error: "bad"`)
	h.fails(`(core:raise 'my-error 1)`, `my-error: 1`)
	h.fails(`(stack-ref (make-stack) 100000)`, "wrong-type-arg")
}

func TestExit(t *testing.T) {
	h := newHarness(t)

	for _, tc := range []struct {
		src  string
		code int
	}{
		{`(exit)`, 0},
		{`(exit 3)`, 3},
		{`(exit #f)`, 1},
	} {
		_, err := h.run(tc.src)

		var e *machine.Exit
		if !errors.As(err, &e) {
			t.Fatalf("%s: expected exit; got %v", tc.src, err)
		}

		if e.Code != tc.code {
			t.Fatalf("%s: expected code %d; got %d", tc.src, tc.code, e.Code)
		}
	}
}

func TestLists(t *testing.T) {
	h := newHarness(t)

	h.table([]example{
		{`(append2 '(1 2) '(3))`, `(1 2 3)`},
		{`(append-reverse '(2 1) '(3))`, `(1 2 3)`},
		{`(core:reverse! (list 1 2 3) '())`, `(3 2 1)`},
		{`(assq 'b '((a . 1) (b . 2)))`, `(b . 2)`},
		{`(assq 'c '((a . 1)))`, `#f`},
		{`(assoc "b" '(("a" . 1) ("b" . 2)))`, `("b" . 2)`},
		{`(memq 'c '(a b c d))`, `(c d)`},
		{`(memq 'e '(a b))`, `#f`},
		{`(last-pair '(1 2 3))`, `(3)`},
		{`(equal2? '(1 "a" #(2)) '(1 "a" #(2)))`, `#t`},
		{`(equal2? '(1) '(2))`, `#f`},
		{`(cdr (assq 'b (pairlis '(a b) '(1 2) '())))`, `2`},
	})

	h.fails(`(append2 '(1 . 2) '())`, "wrong-type-arg")
}

func TestNumbers(t *testing.T) {
	h := newHarness(t)

	h.table([]example{
		{`(+)`, `0`},
		{`(+ 1 2 3)`, `6`},
		{`(- 5)`, `-5`},
		{`(- 10 1 2)`, `7`},
		{`(* 2 3 4)`, `24`},
		{`(/ 7 2)`, `3`},
		{`(modulo -7 2)`, `1`},
		{`(modulo 7 -2)`, `-1`},
		{`(remainder -7 2)`, `-1`},
		{`(< 1 2 3)`, `#t`},
		{`(> 3 2 2)`, `#f`},
		{`(= 2 2)`, `#t`},
		{`(ash 1 4)`, `16`},
		{`(ash 16 -2)`, `4`},
		{`(logand 12 10)`, `8`},
		{`(logior 12 10)`, `14`},
		{`(logxor 12 10)`, `6`},
		{`(lognot 0)`, `-1`},
		{`(number->string -42)`, `"-42"`},
		{`(number->string 255 16)`, `"ff"`},
		{`(string->number "123")`, `123`},
		{`(string->number "ff" 16)`, `255`},
		{`(string->number "x")`, `#f`},
		{`(number? 1)`, `#t`},
	})

	h.fails(`(/ 1 0)`, "divide-by-zero")
	h.fails(`(modulo 1 0)`, "divide-by-zero")
	h.fails(`(+ 1 "a")`, "not-a-number")
	h.fails(`(number->string 1 99)`, "wrong-type-arg")
}

func TestStrings(t *testing.T) {
	h := newHarness(t)

	h.table([]example{
		{`(string-append "ab" "cd" "")`, `"abcd"`},
		{`(string-length "abc")`, `3`},
		{`(string-ref "abc" 1)`, `#\b`},
		{`(substring "hello" 1 3)`, `"el"`},
		{`(substring "hello" 2)`, `"llo"`},
		{`(string->list "ab")`, `(#\a #\b)`},
		{`(list->string '(#\a #\b))`, `"ab"`},
		{`(symbol->string 'foo)`, `"foo"`},
		{`(eq? (string->symbol "x") 'x)`, `#t`},
		{`(eq? (make-symbol "x") 'x)`, `#f`},
		{`(symbol->keyword 'k)`, `#:k`},
		{`(keyword->string (string->keyword "k"))`, `"k"`},
		{`(char->integer #\A)`, `65`},
		{`(integer->char 97)`, `#\a`},
		{`(string=? "a" "a" "a")`, `#t`},
		{`(string=? "a" "b")`, `#f`},
		{`(string? "a")`, `#t`},
		{`(symbol? 'a)`, `#t`},
		{`(char? #\a)`, `#t`},
		{`(keyword? #:a)`, `#t`},
	})

	h.fails(`(string-ref "abc" 3)`, "wrong-type-arg")
	h.fails(`(substring "abc" 2 1)`, "wrong-type-arg")
	h.fails(`(string-length 'abc)`, "wrong-type-arg")
}

func TestVectors(t *testing.T) {
	h := newHarness(t)

	h.table([]example{
		{`(vector-ref (list->vector '(1 2 3)) 1)`, `2`},
		{`(vector->list (make-vector 2 0))`, `(0 0)`},
		{`(vector-length (make-vector 3))`, `3`},
		{`(vector-length (core:make-vector 4))`, `4`},
		{`(define v (make-vector 2 'a)) (vector-set! v 0 'b) v`, `#(b a)`},
		{`(vector? v)`, `#t`},
		{`(define s (make-struct 'point '(1 2) #f)) s`, `#<point 1 2>`},
		{`(struct-length s)`, `4`},
		{`(struct-ref s 2)`, `1`},
		{`(struct-vtable s)`, `point`},
		{`(struct-set! s 3 5) (struct-ref s 3)`, `5`},
		{`(struct? s)`, `#t`},
	})

	h.fails(`(vector-ref v 5)`, "wrong-type-arg")
	h.fails(`(vector-ref s 0)`, "wrong-type-arg")
}

func TestHashTables(t *testing.T) {
	h := newHarness(t)

	h.table([]example{
		{`(define t (make-hash-table)) (hash-table? t)`, `#t`},
		{`(hashq-set! t 'a 1) (hashq-ref t 'a)`, `1`},
		{`(hashq-ref t 'b)`, `#f`},
		{`(hashq-ref t 'b 0)`, `0`},
		{`(hash-set! t "s" 2) (hash-ref t "s")`, `2`},
		{`(hashq-get-handle t 'a)`, `(a . 1)`},
		{`(hashq-set! t 'a 3) (hashq-ref t 'a)`, `3`},
		{`(length (hash-table->alist t))`, `2`},
	})

	h.fails(`(hashq-ref '() 'a)`, "wrong-type-arg")
}

func TestOutput(t *testing.T) {
	h := newHarness(t)

	h.expect(`(core:display "hi") (core:write "hi") (write-char #\!) (write-byte 10)`, `10`)

	if got := h.out.String(); got != "hi\"hi\"!\n" {
		t.Fatalf("Expected output %q; got %q", "hi\"hi\"!\n", got)
	}

	h.expect(`(core:display-error 'e) (core:write-error #\x)`, `*unspecified*`)

	if got := h.err.String(); got != `e#\x` {
		t.Fatalf("Expected error output %q; got %q", `e#\x`, got)
	}

	h.table([]example{
		{`(current-input-port)`, `0`},
		{`(current-output-port)`, `1`},
		{`(current-error-port)`, `2`},
		{`(set-current-output-port 2)`, `1`},
		{`(set-current-output-port 1)`, `2`},
	})
}

func TestStringPorts(t *testing.T) {
	h := newHarness(t)

	h.table([]example{
		{`(define p (open-input-string "ab")) (port? p)`, `#t`},
		{`(read-char p)`, `#\a`},
		{`(peek-char p)`, `#\b`},
		{`(unread-char #\z p) (read-char p)`, `#\z`},
		{`(read-byte p)`, `98`},
		{`(read-char p)`, `#\eof`},
		{`(read-byte p)`, `-1`},
		{`(read-string (open-input-string "xyz"))`, `"xyz"`},
		{`(define r (open-input-string "(1 2) 3")) (read r)`, `(1 2)`},
		{`(read r)`, `3`},
		{`(read r)`, `#\eof`},
		{`(define q (open-input-string "")) (core:write "s" q) (core:display-port 42 q) (read-string q)`, `"\"s\"42"`},
	})
}

func TestFilePorts(t *testing.T) {
	h := newHarness(t)

	name := strconv.Quote(filepath.Join(t.TempDir(), "out.txt"))

	h.expect(`(define fd (open-output-file `+name+`)) (> fd 2)`, `#t`)
	h.expect(`(core:write-port '(a "b") fd) (close-port fd)`, `*unspecified*`)
	h.expect(`(define in (open-input-file `+name+`)) (read-string in)`, `"(a \"b\")"`)
	h.expect(`(close-port in) (open-input-file "/nonexistent/file")`, `-1`)
}

func TestPosix(t *testing.T) {
	h := newHarness(t)

	t.Setenv("MES_BUILTINS_TEST", "value")

	dir := t.TempDir()
	file := filepath.Join(dir, "f")

	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	h.table([]example{
		{`(getenv "MES_BUILTINS_TEST")`, `"value"`},
		{`(getenv "MES_BUILTINS_UNSET")`, `#f`},
		{`(setenv "MES_BUILTINS_TEST" "other") (getenv "MES_BUILTINS_TEST")`, `"other"`},
		{`(getpid)`, strconv.Itoa(os.Getpid())},
		{`(access? ` + strconv.Quote(file) + ` 0)`, `#t`},
		{`(chmod ` + strconv.Quote(file) + ` 384) (delete-file ` + strconv.Quote(file) + `)`, `*unspecified*`},
		{`(access? ` + strconv.Quote(file) + ` 0)`, `#f`},
		{`(string? (getcwd))`, `#t`},
		{`(< 0 (current-time))`, `#t`},
		{`(number? (car (gettimeofday)))`, `#t`},
		{`(< -1 (get-internal-run-time))`, `#t`},
		{`(define fd (dup 1)) (> fd 2)`, `#t`},
		{`(= (dup2 1 fd) fd)`, `#t`},
		{`(close-port fd)`, `*unspecified*`},
	})

	h.fails(`(delete-file `+strconv.Quote(file)+`)`, "system-error")
}
