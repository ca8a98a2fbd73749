// Released under an MIT license. See LICENSE.

package machine

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/michaelmacinnis/mes/internal/engine/cell"
	"github.com/michaelmacinnis/mes/internal/engine/heap"
	"github.com/michaelmacinnis/mes/internal/engine/printer"
)

// Condition is raised by Error. It is handed to throw if throw is bound.
type Condition struct {
	Key      cell.H
	Value    cell.H
	Uncaught bool
}

// Fatal is an error the machine cannot recover from.
type Fatal struct {
	error
}

// Unwrap returns the underlying error.
func (f *Fatal) Unwrap() error {
	return f.error
}

// Exit is returned when a program calls exit.
type Exit struct {
	Code int
}

func (e *Exit) Error() string {
	return "exit " + strconv.Itoa(e.Code)
}

// Guard calls fn outside of a run. Heap aborts and exceeded limits raised
// by fn are returned as a *Fatal.
func Guard(fn func()) (err error) {
	defer func() {
		switch r := recover().(type) {
		case nil:
		case *heap.Abort:
			err = &Fatal{r}
		case *heap.Limit:
			err = &Fatal{r}
		case *Fatal:
			err = r
		default:
			panic(r)
		}
	}()

	fn()

	return nil
}

// Error raises the condition key with the payload x.
func (m *machine) Error(key, x cell.H) {
	panic(&Condition{Key: key, Value: x})
}

// Raise raises the condition key with the payload x, bypassing throw.
func (m *machine) Raise(key, x cell.H) {
	panic(&Condition{Key: key, Value: x, Uncaught: true})
}

// Exit unwinds the machine with the status code.
func (m *machine) Exit(code int) {
	panic(&Exit{Code: code})
}

// WrongType raises wrong-type-arg for the argument x of the named procedure.
func (m *machine) WrongType(name string, x cell.H) {
	m.Error(cell.SymbolWrongTypeArg, m.Cons(m.MakeString(name), x))
}

func (m *machine) assertDefined(name, v cell.H) cell.H {
	if v == cell.Undefined {
		m.Error(cell.SymbolUnboundVariable, name)
	}

	return v
}

// Raise wrong-number-of-args if args does not match the formals of a
// closure. Improper lists accept any count.
func (m *machine) checkFormals(f, formals, args cell.H) {
	m.checkArity(f, m.ListLength(formals), args)
}

func (m *machine) checkArity(f cell.H, n int64, args cell.H) {
	k := m.ListLength(args)
	if k == n || k == -1 || n == -1 {
		return
	}

	msg := "apply: wrong number of arguments; expected: " + strconv.FormatInt(n, 10)
	m.Error(cell.SymbolWrongNumberOfArgs, m.Cons(m.MakeString(msg), f))
}

// Raise wrong-type-arg if f cannot be applied.
func (m *machine) checkApply(f, e cell.H) {
	name := ""

	switch f {
	case cell.False, cell.True:
		name = "bool"
	case cell.Nil:
		name = "nil"
	case cell.Unspecified:
		name = "*unspecified*"
	case cell.Undefined:
		name = "*undefined*"
	case cell.VMApply, cell.VMBeginExpand, cell.VMEval, cell.CallCC:
		return
	case cell.SymbolCallWithValues, cell.SymbolCurrentModule, cell.SymbolBootModule:
		return
	}

	if name == "" {
		switch t := m.Type(f); t {
		case cell.Closure, cell.Continuation:
			return
		case cell.Char:
			name = "char"
		case cell.Number:
			name = "number"
		case cell.String:
			name = "string"
		case cell.Struct:
			if m.IsBuiltin(f) {
				return
			}

			name = "#<...>"
		case cell.BrokenHeart:
			name = "<3"
		case cell.Pair:
			if m.Car(f) == cell.SymbolLambda {
				return
			}

			name = "pair"
		default:
			name = t.String()
		}
	}

	m.Error(cell.SymbolWrongTypeArg, m.Cons(m.MakeString("cannot apply: "+name), e))
}

// The error for a condition that nothing caught.
func (m *machine) fatal(c *Condition) error {
	return &Fatal{errors.New(printer.DisplayString(m, c.Key) + ": " + printer.WriteString(m, c.Value))}
}
