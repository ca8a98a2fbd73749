// Released under an MIT license. See LICENSE.

// Package machine provides the register machine that evaluates cells.
//
// The evaluator is a trampoline. Each phase is a function that returns the
// phase to run next. A phase that needs a sub-evaluation pushes a frame
// recording the phase to resume, and the shared return phase pops that
// frame when the sub-evaluation has a value. Scheme recursion therefore
// grows the frame stack, never the Go stack.
package machine

import (
	"bufio"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/tliron/commonlog"

	"github.com/michaelmacinnis/mes/internal/engine/cell"
	"github.com/michaelmacinnis/mes/internal/engine/heap"
)

// Field indices of a module struct.
const (
	moduleName    = 3
	moduleLocals  = 4
	moduleGlobals = 5
)

// Default number of buckets in the global and macro tables.
const tableSize = 1021

//nolint:gochecknoglobals
var log = commonlog.GetLogger("mes.machine")

// The registers type holds the machine's working registers. R0 is the
// environment, R1 the expression or value, R2 a phase's saved argument and
// R3 the phase a frame resumes.
type registers struct {
	R0 cell.H
	R1 cell.H
	R2 cell.H
	R3 cell.H
}

// T (machine) is one evaluator with its heap.
type T struct {
	*heap.T
	registers

	M0     cell.H // Boot module.
	macros cell.H // Hashq table of macro bindings.
	ports  cell.H // Open string ports.
	top    cell.H // Top-level environment.
	last   cell.H // Value of the last form evaluated by a begin loop.

	continuations int64
	natives       []interface{}

	input  int64
	output int64
	errput int64

	pushback map[int64][]byte
	stdin    *bufio.Reader
	stdout   io.Writer
	stderr   io.Writer
}

type machine = T

// Option configures a machine.
type Option func(*T)

// Stdin sets the reader used for file descriptor 0.
func Stdin(r io.Reader) Option {
	return func(m *T) {
		m.stdin = bufio.NewReader(r)
	}
}

// Stdout sets the writer used for file descriptor 1.
func Stdout(w io.Writer) Option {
	return func(m *T) {
		m.stdout = w
	}
}

// Stderr sets the writer used for file descriptor 2.
func Stderr(w io.Writer) Option {
	return func(m *T) {
		m.stderr = w
	}
}

// New creates a machine with a heap sized by c and an initial module
// holding only the core bindings.
func New(c heap.Config, opts ...Option) *T {
	m := &T{
		T:        heap.New(c),
		input:    0,
		output:   1,
		errput:   2,
		pushback: map[int64][]byte{},
		stderr:   os.Stderr,
		stdout:   os.Stdout,
	}

	for _, o := range opts {
		o(m)
	}

	if m.stdin == nil {
		m.stdin = bufio.NewReader(os.Stdin)
	}

	m.Protect(&m.R0, &m.R1, &m.R2, &m.R3, &m.M0, &m.macros, &m.ports, &m.top, &m.last)

	m.R1 = cell.Unspecified
	m.R2 = cell.Unspecified
	m.R3 = cell.Unspecified
	m.last = cell.Unspecified
	m.ports = cell.Nil

	m.M0 = m.MakeModule(m.Intern("boot"))
	m.macros = m.MakeHashTable(tableSize)
	m.top = m.List(m.Cons(cell.SymbolModule, m.M0))
	m.R0 = m.top

	m.Define(cell.SymbolCallWithValues, cell.SymbolCallWithValues)
	m.Define(cell.SymbolBootModule, cell.SymbolBootModule)
	m.Define(cell.SymbolCurrentModule, cell.SymbolCurrentModule)
	m.Define(cell.SymbolCallCC, cell.CallCC)
	m.Define(cell.SymbolCallCCShort, cell.CallCC)

	for t := cell.Tag(0); t < cell.Tags; t++ {
		m.Define(cell.TypeName(t), m.Number(int64(t)))
	}

	return m
}

// Apply applies the procedure f to the list args.
func (m *machine) Apply(f, args cell.H) (cell.H, error) {
	return m.start(m.Cons(f, args), cell.VMApply)
}

// Define binds name to v in the boot module.
func (m *machine) Define(name, v cell.H) {
	m.ModuleDefine(m.M0, name, v)
}

// Eval expands and evaluates x in the top-level environment.
func (m *machine) Eval(x cell.H) (cell.H, error) {
	return m.Run(m.List(x))
}

// Run expands and evaluates each form in the list program, in order, and
// returns the value of the last.
func (m *machine) Run(program cell.H) (cell.H, error) {
	return m.start(program, cell.VMBeginExpand)
}

// Top returns the top-level environment.
func (m *machine) Top() cell.H {
	return m.top
}

func (m *machine) popFrame() {
	f := m.PopFrame()

	m.R0 = f.R0
	m.R1 = f.R1
	m.R2 = f.R2
	m.R3 = f.R3
}

// Push a frame that resumes phase c with R2 set to p2, then continue
// with R1 set to p1 and the environment a.
func (m *machine) pushCC(p1, p2, a, c cell.H) {
	m.PushFrame(heap.Frame{
		Procedure: cell.False,
		R0:        m.R0,
		R1:        m.R1,
		R2:        p2,
		R3:        c,
	})

	m.R2 = p2
	m.R1 = p1
	m.R0 = a
}

// The value of one phase was the last thing being computed when a
// condition was raised. Convert it to an error or a call to throw.
func (m *machine) recovered(r interface{}) (cell.H, error) {
	switch r := r.(type) {
	case *Condition:
		return m.throw(r)
	case *heap.Limit:
		return m.throw(&Condition{Key: cell.SymbolSystemError, Value: m.Diagnostic(r.Error())})
	case *heap.Abort:
		return cell.Unspecified, &Fatal{r}
	case *Exit:
		return cell.Unspecified, r
	case *Fatal:
		return cell.Unspecified, r
	case error:
		return cell.Unspecified, &Fatal{errors.WithStack(r)}
	}

	return cell.Unspecified, &Fatal{errors.Errorf("%v", r)}
}

// Apply throw to the condition c in the current continuation. The call
// is marked by a frame so that a condition raised before it returns or
// escapes is fatal.
func (m *machine) throw(c *Condition) (cell.H, error) {
	if c.Uncaught || m.throwing() {
		return cell.Unspecified, m.fatal(c)
	}

	throw := m.ModuleRef(m.R0, cell.SymbolThrow)
	if throw == cell.Undefined {
		return cell.Unspecified, m.fatal(c)
	}

	m.pushCC(m.List(throw, c.Key, c.Value), cell.SymbolThrow, m.R0, cell.VMReturn)

	return cell.VMApply, nil
}

func (m *machine) throwing() bool {
	for _, f := range m.Frames() {
		if f.R2 == cell.SymbolThrow && f.R3 == cell.VMReturn {
			return true
		}
	}

	return false
}

func (m *machine) run(label cell.H) error {
	var err error

	for label != cell.Unspecified {
		label, err = m.steps(label)
		if err != nil {
			return err
		}
	}

	return nil
}

func (m *machine) start(x, label cell.H) (cell.H, error) {
	depth := m.Depth()

	m.pushCC(x, cell.Unspecified, m.R0, cell.Unspecified)

	if err := m.run(label); err != nil {
		if m.Depth() >= depth+heap.FrameSize {
			m.Unwind(depth + heap.FrameSize)
			m.popFrame()
		} else {
			m.R0 = m.top
		}

		return cell.Unspecified, err
	}

	return m.R1, nil
}

// Run phases until the outermost frame returns or a condition is raised.
func (m *machine) steps(label cell.H) (next cell.H, err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		next, err = m.recovered(r)
	}()

	trace := m.Debug() > 3

	for label != cell.Unspecified {
		if !cell.IsPhase(label) {
			return cell.Unspecified, &Fatal{errors.Errorf("eval/apply unknown continuation: %d", label)}
		}

		if trace {
			log.Debugf("%s", cell.Name(label))
		}

		label = phases[label-cell.VMApply](m)
	}

	return label, nil
}
