// Released under an MIT license. See LICENSE.

// Package engine provides an evaluator for Scheme programs.
package engine

import (
	"io"
	"runtime"

	"github.com/tliron/commonlog"

	"github.com/michaelmacinnis/mes/internal/engine/boot"
	"github.com/michaelmacinnis/mes/internal/engine/builtins"
	"github.com/michaelmacinnis/mes/internal/engine/cell"
	"github.com/michaelmacinnis/mes/internal/engine/heap"
	"github.com/michaelmacinnis/mes/internal/engine/machine"
	"github.com/michaelmacinnis/mes/internal/engine/printer"
	"github.com/michaelmacinnis/mes/internal/reader"
)

// Version is bound to %version.
const Version = "0.1.0"

//nolint:gochecknoglobals
var log = commonlog.GetLogger("mes.engine")

// T (engine) is a facade in front of the machinery for evaluating Scheme.
type T struct {
	m *machine.T
}

// New creates an engine whose heap is sized by c. The initial module
// holds the builtins and the constants describing this implementation.
// It fails if the heap cannot hold them.
func New(c heap.Config, opts ...machine.Option) (*T, error) {
	e := &T{}

	err := machine.Guard(func() {
		e.m = machine.New(c, opts...)

		builtins.Register(e.m)

		e.bindConstants()
		e.bindArgs(nil)
	})
	if err != nil {
		return nil, err
	}

	return e, nil
}

// Boot returns the forms of the boot script without evaluating them.
func (e *T) Boot(getenv func(string) string) (cell.H, error) {
	name, text, err := boot.Load(getenv)
	if err != nil {
		return cell.Nil, err
	}

	if e.m.Debug() > 0 {
		log.Infof("boot: reading %s", name)
	}

	program := cell.Nil

	if gerr := machine.Guard(func() { program, err = e.m.Parse(name, text) }); gerr != nil {
		return cell.Nil, gerr
	}

	return program, err
}

// Program returns program followed by a form that loads the program in
// file, or the standard input if file is empty.
func (e *T) Program(program cell.H, file string) (cell.H, error) {
	err := machine.Guard(func() {
		src := e.m.Number(0)
		if file != "" {
			src = e.m.MakeString(file)
		}

		program = e.m.Append2(program, e.m.List(e.m.List(cell.SymbolPrimitiveLoad, src)))
	})

	return program, err
}

// Run expands and evaluates each form of program.
func (e *T) Run(program cell.H) (cell.H, error) {
	return e.m.Run(program)
}

// Eval evaluates x and returns the written representation of its value.
// Unspecified values are written as the empty string.
func (e *T) Eval(x cell.H) (string, error) {
	v, err := e.m.Eval(x)
	if err != nil || v == cell.Unspecified {
		return "", err
	}

	return printer.WriteString(e.m, v), nil
}

// Reader returns a reader that builds cells for this engine.
func (e *T) Reader(name string) *reader.T {
	return reader.New(name, e.m.Builder())
}

// SetArgs binds %argv to args.
func (e *T) SetArgs(args []string) error {
	return machine.Guard(func() {
		e.bindArgs(args)
	})
}

func (e *T) bindArgs(args []string) {
	l := cell.Nil
	for i := len(args) - 1; i >= 0; i-- {
		l = e.m.Cons(e.m.MakeString(args[i]), l)
	}

	e.m.Define(cell.SymbolArgv, l)
}

// DumpImage writes an image of the heap that resumes with program.
func (e *T) DumpImage(w io.Writer, program cell.H) error {
	if e.m.Debug() > 0 {
		log.Infof("dump: %d cells", e.m.Free())
	}

	var err error

	if gerr := machine.Guard(func() { err = e.m.DumpImage(w, program) }); gerr != nil {
		return gerr
	}

	return err
}

// LoadImage replaces the heap with an image and returns its program.
// Arguments must be bound again after loading.
func (e *T) LoadImage(r io.Reader) (cell.H, error) {
	var (
		program = cell.Nil
		err     error
	)

	if gerr := machine.Guard(func() { program, err = e.m.LoadImage(r) }); gerr != nil {
		return cell.Nil, gerr
	}

	if err != nil {
		return cell.Nil, err
	}

	if e.m.Debug() > 0 {
		log.Infof("load: %d cells", e.m.Free())
	}

	return program, nil
}

func (e *T) bindConstants() {
	e.m.Define(cell.SymbolVersion, e.m.MakeString(Version))
	e.m.Define(cell.SymbolArch, e.m.MakeString(runtime.GOARCH))
	e.m.Define(cell.SymbolCompiler, e.m.MakeString(runtime.Compiler))
	e.m.Define(cell.SymbolDatadir, e.m.MakeString(""))
	e.m.Define(cell.SymbolInternalTimeUnits, e.m.Number(builtins.InternalTimeUnits))
}
