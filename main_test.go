// Released under an MIT license. See LICENSE.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type result struct {
	stdout string
	stderr string
	code   int
}

func mes(t *testing.T, env map[string]string, stdin string, argv ...string) result {
	t.Helper()

	var stdout, stderr bytes.Buffer

	code := run(argv, system{
		getenv: func(name string) string { return env[name] },
		stdin:  strings.NewReader(stdin),
		stdout: &stdout,
		stderr: &stderr,
		tty:    func() bool { return false },
	})

	return result{stdout.String(), stderr.String(), code}
}

func program(t *testing.T, text string) string {
	t.Helper()

	name := filepath.Join(t.TempDir(), "prog.scm")

	if err := os.WriteFile(name, []byte(text), 0o600); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	return name
}

func expect(t *testing.T, r result, stdout string) {
	t.Helper()

	if r.code != 0 {
		t.Fatalf("Expected success; got %d: %s", r.code, r.stderr)
	}

	if r.stdout != stdout {
		t.Fatalf("Expected %q; got %q", stdout, r.stdout)
	}
}

func TestStdin(t *testing.T) {
	expect(t, mes(t, nil, `(display (+ 1 2))`), "3")
}

func TestProgramFile(t *testing.T) {
	name := program(t, `
		(define (f n)
		  (if (= n 0) 0 (+ n (f (- n 1)))))
		(display (f 10000))
		(newline)
		(display (cdr %argv))`)

	expect(t, mes(t, nil, "", name, "a", "b"), "50005000\n(a b)")
}

func TestCallCC(t *testing.T) {
	expect(t, mes(t, nil, `(display (+ 1 (call/cc (lambda (k) (+ 10 (k 41))))))`), "42")
}

func TestMacros(t *testing.T) {
	expect(t, mes(t, nil, `
		(define-macro (my-if c a b) (list 'if c a b))
		(display (my-if #t 'yes 'no))`), "yes")

	expect(t, mes(t, nil, `
		(define-macro (my-unless c . body) `+"`"+`(if ,c #f (begin ,@body)))
		(display (my-unless #f 1 2))`), "2")
}

func TestLibrary(t *testing.T) {
	for _, tc := range []struct {
		src  string
		want string
	}{
		{`(let loop ((i 0) (acc '())) (if (= i 3) (reverse acc) (loop (+ i 1) (cons i acc))))`, `(0 1 2)`},
		{`(let* ((a 1) (b (+ a 1))) (list a b))`, `(1 2)`},
		{`(letrec ((even (lambda (n) (if (= n 0) #t (odd (- n 1))))) (odd (lambda (n) (if (= n 0) #f (even (- n 1)))))) (even 10))`, `#t`},
		{`(cond ((assq 'b '((a 1) (b 2))) => cadr) (else 'none))`, `2`},
		{`(cond (#f 1) (else 3))`, `3`},
		{`(case 3 ((1 2) 'low) ((3 4) 'high) (else 'none))`, `high`},
		{`(and 1 2 3)`, `3`},
		{`(or #f 2)`, `2`},
		{`(when (> 2 1) 'yes)`, `yes`},
		{`(map + '(1 2) '(10 20))`, `(11 22)`},
		{`(apply + 1 2 '(3 4))`, `10`},
		{`(append '(1) '(2) '(3 4))`, `(1 2 3 4)`},
		{`(let ((x 5)) ` + "`" + `(a ,x ,@(list 1 2)))`, `(a 5 1 2)`},
		{`(procedure? car)`, `#t`},
		{`(procedure? (lambda () 1))`, `#t`},
		{`(procedure? 'car)`, `#f`},
		{`(list-ref '(a b c) 2)`, `c`},
		{`(member "b" '("a" "b"))`, `("b")`},
		{`(vector 1 2)`, `#(1 2)`},
	} {
		expect(t, mes(t, nil, "", "-e", tc.src), tc.want+"\n")
	}
}

func TestTailCalls(t *testing.T) {
	env := map[string]string{"MES_ARENA": "20000"}

	expect(t, mes(t, env, `
		(define (loop n)
		  (if (= n 0) (display 'done) (loop (- n 1))))
		(loop 100000)`), "done")
}

func TestContinuationReentry(t *testing.T) {
	expect(t, mes(t, nil, `
		(define k #f)
		(define n 0)
		(display (+ 100 (call/cc (lambda (c) (set! k c) 1))))
		(newline)
		(set! n (+ n 1))
		(if (< n 3) (k n))`), "101\n101\n102\n")
}

func TestCatch(t *testing.T) {
	expect(t, mes(t, nil, `
		(display (catch 'oops
		  (lambda () (throw 'oops 1 2))
		  (lambda (key . args) (list key args))))`), "(oops (1 2))")

	expect(t, mes(t, nil, `
		(display (catch #t
		  (lambda () (car '()))
		  (lambda (key . args) key)))`), "not-a-pair")

	expect(t, mes(t, nil, `(display (catch 'x (lambda () 'fine) (lambda args 'caught)))`), "fine")
}

func TestErrors(t *testing.T) {
	for _, tc := range []struct {
		src  string
		want string
	}{
		{`(car 1)`, "not-a-pair"},
		{`((lambda (x) x))`, "wrong-number-of-args"},
		{`(1 2)`, "wrong-type-arg"},
		{`(display undefined-thing)`, "unbound-variable"},
		{`(throw 'custom 1)`, "custom: 1"},
		{`(display "unterminated`, "incomplete"},
	} {
		r := mes(t, nil, tc.src)
		if r.code != 1 {
			t.Fatalf("%s: expected exit status 1; got %d", tc.src, r.code)
		}

		if !strings.Contains(r.stderr, tc.want) {
			t.Fatalf("%s: expected %q; got %q", tc.src, tc.want, r.stderr)
		}
	}
}

func TestExit(t *testing.T) {
	r := mes(t, nil, `(display 1) (exit 3) (display 2)`)
	if r.code != 3 || r.stdout != "1" {
		t.Fatalf("Expected output 1 and status 3; got %q and %d", r.stdout, r.code)
	}
}

func TestImage(t *testing.T) {
	r := mes(t, nil, "", "--dump")
	if r.code != 0 {
		t.Fatalf("Expected success; got %d: %s", r.code, r.stderr)
	}

	if !strings.HasPrefix(r.stdout, "MES") {
		t.Fatalf("Expected an image")
	}

	image := filepath.Join(t.TempDir(), "boot.mes")

	if err := os.WriteFile(image, []byte(r.stdout), 0o600); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	expect(t, mes(t, nil, `(display (let ((x 2)) (* x 21)))`, "--load="+image), "42")

	r = mes(t, nil, "", "--load="+program(t, "not an image"))
	if r.code != 1 || !strings.Contains(r.stderr, "bad image") {
		t.Fatalf("Expected a bad image error; got %d: %s", r.code, r.stderr)
	}
}

func TestEnvironment(t *testing.T) {
	r := mes(t, map[string]string{"MES_ARENA": "lots"}, "")
	if r.code != 1 || !strings.Contains(r.stderr, "MES_ARENA") {
		t.Fatalf("Expected a MES_ARENA error; got %d: %s", r.code, r.stderr)
	}

	boot := program(t, `(define (hello) 'hi)`)

	expect(t, mes(t, map[string]string{"MES_BOOT": boot}, `(core:display (hello))`), "hi")
}

func TestLimits(t *testing.T) {
	env := map[string]string{"MES_MAX_STRING": "60"}
	long := strings.Repeat("a", 40)

	expect(t, mes(t, env, `
		(display (catch 'system-error
		  (lambda () (string-append "`+long+`" "`+long+`"))
		  (lambda (key . args) (list 'caught key))))`), "(caught system-error)")

	r := mes(t, map[string]string{"MES_MAX_STRING": "100"}, "", program(t, "1"), strings.Repeat("b", 200))
	if r.code != 1 || !strings.HasPrefix(r.stderr, "mes: string too long") {
		t.Fatalf("Expected a string too long error; got %d: %s", r.code, r.stderr)
	}

	r = mes(t, map[string]string{"MES_ARENA": "4000", "MES_MAX_ARENA": "4000"}, "")
	if r.code != 1 || !strings.HasPrefix(r.stderr, "mes: ") || !strings.Contains(r.stderr, "out of memory") {
		t.Fatalf("Expected an out of memory error; got %d: %s", r.code, r.stderr)
	}
}

func TestErrorInThrow(t *testing.T) {
	r := mes(t, nil, `(define (throw k . a) (car 1)) (car 2)`)
	if r.code != 1 || !strings.Contains(r.stderr, "not-a-pair") {
		t.Fatalf("Expected not-a-pair and status 1; got %d: %s", r.code, r.stderr)
	}
}
