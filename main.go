// Released under an MIT license. See LICENSE.

/*
Mes is a minimal Scheme interpreter for bootstrapping. It reads a small
core library, then the program named on the command line or the program
on stdin, and evaluates both with a register machine that keeps Scheme
recursion off the Go stack:

	mes prog.scm a b c
	echo '(display (+ 1 2))' | mes
	mes --dump >boot.mes
	mes --load=boot.mes prog.scm
	mes -e '(map 1+ (list 1 2 3))'

Started on a terminal with no program, mes runs an interactive session.
The heap is tuned with the MES_* environment variables described by -h.
*/
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple" // Logging backend.

	"github.com/michaelmacinnis/mes/internal/engine"
	"github.com/michaelmacinnis/mes/internal/engine/cell"
	"github.com/michaelmacinnis/mes/internal/engine/heap"
	"github.com/michaelmacinnis/mes/internal/engine/machine"
	"github.com/michaelmacinnis/mes/internal/system/options"
	"github.com/michaelmacinnis/mes/internal/ui"
)

// The system type is the world the interpreter runs in.
type system struct {
	getenv func(string) string
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	tty    func() bool
}

func main() {
	os.Exit(run(os.Args[1:], system{
		getenv: os.Getenv,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		tty:    options.Stdin,
	}))
}

// Run mes with the arguments argv and return its exit status.
func run(argv []string, sys system) int {
	c, err := heap.FromEnv(sys.getenv)
	if err != nil {
		return fatal(sys, 0, err)
	}

	commonlog.Configure(int(c.Debug), nil)

	o, err := options.Parse(argv, engine.Version, sys.tty)
	if err != nil {
		return fatal(sys, c.Debug, err)
	}

	e, err := engine.New(c, machine.Stdin(sys.stdin), machine.Stdout(sys.stdout), machine.Stderr(sys.stderr))
	if err != nil {
		return fatal(sys, c.Debug, err)
	}

	program, err := start(e, o.Image, sys.getenv)
	if err != nil {
		return fatal(sys, c.Debug, err)
	}

	if o.Dump {
		w := bufio.NewWriter(sys.stdout)

		if err := e.DumpImage(w, program); err != nil {
			return fatal(sys, c.Debug, err)
		}

		if err := w.Flush(); err != nil {
			return fatal(sys, c.Debug, err)
		}

		return 0
	}

	if err := e.SetArgs(o.Args); err != nil {
		return fatal(sys, c.Debug, err)
	}

	switch {
	case o.Expression != "":
		err = evaluate(e, program, o.Expression, sys.stdout)
	case o.Interactive:
		if _, err = e.Run(program); err == nil {
			err = ui.Run(e, sys.stdout, sys.stderr)
		}
	default:
		if program, err = e.Program(program, o.File); err == nil {
			_, err = e.Run(program)
		}
	}

	var exit *machine.Exit
	if errors.As(err, &exit) {
		return exit.Code
	}

	if err != nil {
		return fatal(sys, c.Debug, err)
	}

	return 0
}

// The boot program, read from the boot script or an image.
func start(e *engine.T, image string, getenv func(string) string) (cell.H, error) {
	if image == "" {
		return e.Boot(getenv)
	}

	f, err := os.Open(image)
	if err != nil {
		return cell.Nil, err
	}
	defer f.Close()

	return e.LoadImage(bufio.NewReader(f))
}

// Boot, then evaluate each datum in text and write the last value.
func evaluate(e *engine.T, program cell.H, text string, w io.Writer) error {
	if _, err := e.Run(program); err != nil {
		return err
	}

	r := e.Reader("-e")
	r.Scan(text + "\n")

	last := ""

	for {
		x, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return err
		}

		if last, err = e.Eval(x); err != nil {
			return err
		}
	}

	if last != "" {
		_, err := io.WriteString(w, last+"\n")

		return err
	}

	return nil
}

func fatal(sys system, debug int64, err error) int {
	if debug > 0 {
		fmt.Fprintf(sys.stderr, "mes: %+v\n", err)
	} else {
		fmt.Fprintf(sys.stderr, "mes: %v\n", err)
	}

	return 1
}
