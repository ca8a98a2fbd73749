// Released under an MIT license. See LICENSE.

package machine

import (
	"github.com/pkg/errors"

	"github.com/michaelmacinnis/mes/internal/engine/cell"
)

// Phase is one step of the evaluator. It returns the phase to run next.
type Phase func(*T) cell.H

//nolint:gochecknoglobals
var phases = [cell.VMReturn - cell.VMApply + 1]Phase{
	cell.VMApply - cell.VMApply:                    apply,
	cell.VMApply2 - cell.VMApply:                   apply2,
	cell.VMBegin - cell.VMApply:                    begin,
	cell.VMBeginEval - cell.VMApply:                beginEval,
	cell.VMBeginExpand - cell.VMApply:              beginExpand,
	cell.VMBeginExpandEval - cell.VMApply:          beginExpandEval,
	cell.VMBeginExpandMacro - cell.VMApply:         beginExpandMacro,
	cell.VMBeginExpandPrimitiveLoad - cell.VMApply: beginExpandPrimitiveLoad,
	cell.VMBeginPrimitiveLoad - cell.VMApply:       beginPrimitiveLoad,
	cell.VMCallCC2 - cell.VMApply:                  callCC2,
	cell.VMCallWithValues2 - cell.VMApply:          callWithValues2,
	cell.VMEval - cell.VMApply:                     eval,
	cell.VMEval2 - cell.VMApply:                    eval2,
	cell.VMEvalCheckFunc - cell.VMApply:            evalCheckFunc,
	cell.VMEvalDefine - cell.VMApply:               evalDefine,
	cell.VMEvalMacroExpandEval - cell.VMApply:      evalMacroExpandEval,
	cell.VMEvalMacroExpandExpand - cell.VMApply:    vmReturn,
	cell.VMEvalPmatchCar - cell.VMApply:            evalPmatchCar,
	cell.VMEvalPmatchCdr - cell.VMApply:            evalPmatchCdr,
	cell.VMEvalSetX - cell.VMApply:                 evalSetX,
	cell.VMEvlis - cell.VMApply:                    evlis,
	cell.VMEvlis2 - cell.VMApply:                   evlis2,
	cell.VMEvlis3 - cell.VMApply:                   evlis3,
	cell.VMIf - cell.VMApply:                       vmIf,
	cell.VMIfExpr - cell.VMApply:                   ifExpr,
	cell.VMMacroExpand - cell.VMApply:              macroExpand,
	cell.VMMacroExpandCar - cell.VMApply:           macroExpandCar,
	cell.VMMacroExpandCdr - cell.VMApply:           macroExpandCdr,
	cell.VMMacroExpandDefine - cell.VMApply:        macroExpandDefine,
	cell.VMMacroExpandDefineMacro - cell.VMApply:   macroExpandDefineMacro,
	cell.VMMacroExpandLambda - cell.VMApply:        macroExpandTail,
	cell.VMMacroExpandSetX - cell.VMApply:          macroExpandTail,
	cell.VMReturn - cell.VMApply:                   vmReturn,
}

// Helpers.

func (m *machine) cadr(x cell.H) cell.H {
	return m.Car(m.Cdr(x))
}

func (m *machine) cddr(x cell.H) cell.H {
	return m.Cdr(m.Cdr(x))
}

func (m *machine) caddr(x cell.H) cell.H {
	return m.Car(m.Cdr(m.Cdr(x)))
}

// Enter a procedure body. The environment's head marks it as a closure
// frame and tracks the frame's bindings.
func (m *machine) callLambda(body, p cell.H) cell.H {
	m.R0 = m.Cons(m.Cons(cell.ClosureHead, p), p)
	m.R1 = body

	return cell.VMBegin
}

// The car of x, raising not-a-pair if x is not a pair.
func (m *machine) checkedCar(x cell.H) cell.H {
	if m.Type(x) != cell.Pair {
		m.Error(cell.SymbolNotAPair, m.List(x, cell.SymbolCar))
	}

	return m.Car(x)
}

// The cdr of x, raising not-a-pair if x is not a pair.
func (m *machine) checkedCdr(x cell.H) cell.H {
	if m.Type(x) != cell.Pair {
		m.Error(cell.SymbolNotAPair, m.List(x, cell.SymbolCdr))
	}

	return m.Cdr(x)
}

// The form is (primitive-load ...).
func (m *machine) primitiveLoad(x cell.H) bool {
	return m.Type(x) == cell.Pair && m.Car(x) == cell.SymbolPrimitiveLoad
}

// Argument evaluation.

func evlis(m *T) cell.H {
	if m.R1 == cell.Nil {
		return cell.VMReturn
	}

	if m.Type(m.R1) != cell.Pair {
		return cell.VMEval
	}

	m.pushCC(m.Car(m.R1), m.R1, m.R0, cell.VMEvlis2)

	return cell.VMEval
}

func evlis2(m *T) cell.H {
	m.pushCC(m.Cdr(m.R2), m.R1, m.R0, cell.VMEvlis3)

	return cell.VMEvlis
}

func evlis3(m *T) cell.H {
	m.R1 = m.Cons(m.R2, m.R1)

	return cell.VMReturn
}

// Application. R1 is (procedure . arguments).

func apply(m *T) cell.H {
	f := m.Car(m.R1)

	m.SetProcedure(f)

	switch m.Type(f) {
	case cell.Struct:
		if m.IsBuiltin(f) {
			m.R1 = m.applyBuiltin(f, m.Cdr(m.R1))

			return cell.VMReturn
		}
	case cell.Closure:
		cl := m.Cdr(f)
		formals := m.cadr(cl)
		args := m.Cdr(m.R1)

		m.checkFormals(f, formals, args)

		p := m.Pairlis(formals, args, m.Cdr(m.Cdr(m.Car(cl))))

		return m.callLambda(m.cddr(cl), p)
	case cell.Continuation:
		args := m.Cdr(m.R1)

		m.RestoreStack(m.Cdr(f))

		m.R1 = cell.Unspecified
		if m.Type(args) == cell.Pair {
			m.R1 = m.Car(args)
		}

		return cell.VMReturn
	case cell.Special:
		switch f {
		case cell.VMApply:
			m.pushCC(m.Cons(m.cadr(m.R1), m.caddr(m.R1)), m.R1, m.R0, cell.VMReturn)

			return cell.VMApply
		case cell.VMEval:
			m.pushCC(m.cadr(m.R1), m.R1, m.moduleArgument(), cell.VMReturn)

			return cell.VMEval
		case cell.VMBeginExpand:
			m.pushCC(m.List(m.cadr(m.R1)), m.R1, m.moduleArgument(), cell.VMReturn)

			return cell.VMBeginExpand
		case cell.CallCC:
			m.R1 = m.Cdr(m.R1)

			return callCC(m)
		}
	case cell.Symbol:
		switch f {
		case cell.SymbolCallWithValues:
			m.R1 = m.Cdr(m.R1)

			return callWithValues(m)
		case cell.SymbolCurrentModule:
			m.R1 = m.R0

			return cell.VMReturn
		case cell.SymbolBootModule:
			m.R1 = m.M0

			return cell.VMReturn
		}
	case cell.Pair:
		if m.Car(f) == cell.SymbolLambda {
			formals := m.cadr(f)
			args := m.Cdr(m.R1)

			m.checkFormals(f, formals, args)

			return m.callLambda(m.cddr(f), m.Pairlis(formals, args, m.R0))
		}
	}

	if t := m.Type(f); t == cell.Pair || t == cell.Symbol {
		m.pushCC(f, m.R1, m.R0, cell.VMApply2)

		return cell.VMEval
	}

	m.checkApply(f, m.R1)

	return cell.VMReturn
}

func apply2(m *T) cell.H {
	m.checkApply(m.R1, m.Car(m.R2))
	m.R1 = m.Cons(m.R1, m.Cdr(m.R2))

	return cell.VMApply
}

// The environment named by the optional module argument of R1.
func (m *machine) moduleArgument() cell.H {
	if rest := m.cddr(m.R1); m.Type(rest) == cell.Pair {
		return m.environment(m.Car(rest))
	}

	return m.R0
}

// Evaluation. R1 is the expression.

func eval(m *T) cell.H {
	switch m.Type(m.R1) {
	case cell.Pair:
		return m.evalPair()
	case cell.Symbol:
		switch m.R1 {
		case cell.SymbolBootModule, cell.SymbolCurrentModule:
			return cell.VMReturn
		case cell.SymbolBegin:
			m.R1 = cell.Begin

			return cell.VMReturn
		}

		m.R1 = m.assertDefined(m.R1, m.ModuleRef(m.R0, m.R1))

		return cell.VMReturn
	case cell.Variable:
		m.R1 = m.Cdr(m.Car(m.R1))

		return cell.VMReturn
	case cell.BrokenHeart:
		panic(&Fatal{errors.Errorf("eval: broken heart %d", m.R1)})
	}

	return cell.VMReturn
}

func (m *machine) evalPair() cell.H {
	switch m.Car(m.R1) {
	case cell.SymbolPmatchCar:
		m.pushCC(m.cadr(m.R1), m.R1, m.R0, cell.VMEvalPmatchCar)

		return cell.VMEval
	case cell.SymbolPmatchCdr:
		m.pushCC(m.cadr(m.R1), m.R1, m.R0, cell.VMEvalPmatchCdr)

		return cell.VMEval
	case cell.SymbolQuote:
		m.R1 = m.cadr(m.R1)

		return cell.VMReturn
	case cell.SymbolBegin:
		m.R1 = m.Cdr(m.R1)

		return cell.VMBegin
	case cell.SymbolLambda:
		m.R1 = m.Make(cell.Closure, int64(cell.False), int64(m.Cons(
			m.Cons(cell.Circular, m.R0),
			m.Cdr(m.R1),
		)))

		return cell.VMReturn
	case cell.SymbolIf:
		m.R1 = m.Cdr(m.R1)

		return cell.VMIf
	case cell.SymbolSetX:
		m.pushCC(m.caddr(m.R1), m.R1, m.R0, cell.VMEvalSetX)

		return cell.VMEval
	case cell.SymbolDefine, cell.SymbolDefineMacro:
		return m.evalDefineForm()
	case cell.VMMacroExpand:
		m.pushCC(m.cadr(m.R1), m.R1, m.R0, cell.VMEvalMacroExpandEval)

		return cell.VMEval
	}

	m.pushCC(m.Car(m.R1), m.R1, m.R0, cell.VMEvalCheckFunc)
	m.Check()

	return cell.VMEval
}

func evalPmatchCar(m *T) cell.H {
	m.R1 = m.checkedCar(m.R1)

	return cell.VMReturn
}

func evalPmatchCdr(m *T) cell.H {
	m.R1 = m.checkedCdr(m.R1)

	return cell.VMReturn
}

func evalSetX(m *T) cell.H {
	m.R1 = m.SetEnv(m.cadr(m.R2), m.R1, m.R0)

	return cell.VMReturn
}

func evalMacroExpandEval(m *T) cell.H {
	m.pushCC(m.R1, m.R2, m.R0, cell.VMEvalMacroExpandExpand)

	return cell.VMMacroExpand
}

// R1 is the value of the operator. R2 is the form being applied.
func evalCheckFunc(m *T) cell.H {
	m.pushCC(m.Cdr(m.R2), m.R1, m.R0, cell.VMEval2)

	return cell.VMEvlis
}

// R1 is the evaluated arguments. R2 is the value of the operator.
func eval2(m *T) cell.H {
	m.R1 = m.Cons(m.R2, m.R1)

	return cell.VMApply
}

// Global definitions are entered before their value is computed so that
// the value may refer to them.
func (m *machine) evalDefineForm() cell.H {
	form := m.R1
	macro := m.Car(form) == cell.SymbolDefineMacro
	global := m.global(m.R0)

	if m.Type(m.Cdr(form)) != cell.Pair {
		m.Error(cell.SymbolSystemError, m.Cons(m.MakeString("define: missing name"), form))
	}

	if global {
		name := m.definedName(form)

		if macro {
			if m.MacroGetHandle(name) == cell.False {
				m.setMacro(name, cell.False)
			}
		} else if m.ModuleVariable(m.R0, name) == cell.False {
			m.ModuleDefine(m.M0, name, cell.Undefined)
		}
	}

	m.R2 = form

	if m.Type(m.cadr(form)) != cell.Pair {
		value := cell.Unspecified
		if m.Type(m.cddr(form)) == cell.Pair {
			value = m.caddr(form)
		}

		m.pushCC(value, m.R2, m.R0, cell.VMEvalDefine)

		return cell.VMEval
	}

	formals := m.Cdr(m.cadr(form))
	body := m.cddr(form)

	if macro || global {
		m.expandVariable(body, formals)
	}

	m.R1 = m.Cons(cell.SymbolLambda, m.Cons(formals, body))
	m.pushCC(m.R1, m.R2, m.R0, cell.VMEvalDefine)

	return cell.VMEval
}

// R1 is the value. R2 is the define form.
func evalDefine(m *T) cell.H {
	name := m.definedName(m.R2)

	switch {
	case m.Car(m.R2) == cell.SymbolDefineMacro:
		m.setMacro(name, m.MakeMacro(name, m.R1))
	case m.global(m.R0):
		if x := m.ModuleVariable(m.R0, name); x != cell.False {
			m.SetCdr(x, m.R1)
		} else {
			m.ModuleDefine(m.M0, name, m.R1)
		}
	default:
		entry := m.Cons(name, m.R1)
		aa := m.Cons(entry, m.Cdr(m.R0))

		m.SetCdr(m.R0, aa)
		m.SetCdr(m.Assq(cell.ClosureHead, m.R0), aa)
	}

	m.R1 = cell.Unspecified

	return cell.VMReturn
}

// Macro expansion. R1 is the form to expand.

func macroExpand(m *T) cell.H {
	x := m.R1

	if m.Type(x) != cell.Pair {
		return cell.VMReturn
	}

	head := m.Car(x)

	switch head {
	case cell.SymbolQuote:
		return cell.VMReturn
	case cell.SymbolLambda:
		m.pushCC(m.cddr(x), x, m.R0, cell.VMMacroExpandLambda)

		return cell.VMMacroExpand
	}

	symbol := m.Type(head) == cell.Symbol

	if symbol {
		if macro := m.getMacro(head); macro != cell.False {
			m.R1 = m.Cons(macro, m.Cdr(x))
			m.pushCC(m.R1, cell.Nil, m.R0, cell.VMMacroExpand)

			return cell.VMApply
		}
	}

	switch head {
	case cell.SymbolDefine, cell.SymbolDefineMacro:
		m.pushCC(m.cddr(x), x, m.R0, cell.VMMacroExpandDefine)

		return cell.VMMacroExpand
	case cell.SymbolSetX:
		m.pushCC(m.cddr(x), x, m.R0, cell.VMMacroExpandSetX)

		return cell.VMMacroExpand
	}

	if symbol && head != cell.SymbolBegin && m.getMacro(cell.SymbolPortableMacroExpand) != cell.False {
		expanders := m.ModuleRef(m.R0, cell.SymbolScExpanderAlist)
		if expanders != cell.Undefined && m.Assq(head, expanders) != cell.False {
			expand := m.ModuleRef(m.R0, cell.SymbolMacroExpand)
			if expand != cell.Undefined && expand != cell.False {
				m.R2 = x
				m.R1 = m.List(expand, x)

				return cell.VMApply
			}
		}
	}

	m.pushCC(head, x, m.R0, cell.VMMacroExpandCar)

	return cell.VMMacroExpand
}

func macroExpandCar(m *T) cell.H {
	m.SetCar(m.R2, m.R1)
	m.R1 = m.R2

	if m.Type(m.Cdr(m.R1)) != cell.Pair {
		return cell.VMReturn
	}

	m.pushCC(m.Cdr(m.R1), m.R1, m.R0, cell.VMMacroExpandCdr)

	return cell.VMMacroExpand
}

func macroExpandCdr(m *T) cell.H {
	m.SetCdr(m.R2, m.R1)
	m.R1 = m.R2

	return cell.VMReturn
}

// Splice the expanded tail of a lambda or set! form back into it.
func macroExpandTail(m *T) cell.H {
	m.SetCdr(m.Cdr(m.R2), m.R1)
	m.R1 = m.R2

	return cell.VMReturn
}

// A define-macro is evaluated as soon as it is expanded so that the
// forms after it can use the macro.
func macroExpandDefine(m *T) cell.H {
	macroExpandTail(m)

	if m.Car(m.R1) == cell.SymbolDefineMacro {
		m.pushCC(m.R1, m.R1, m.R0, cell.VMMacroExpandDefineMacro)

		return cell.VMEval
	}

	return cell.VMReturn
}

func macroExpandDefineMacro(m *T) cell.H {
	m.R1 = m.R2

	return cell.VMReturn
}

// Sequencing. R1 is the list of forms.

func begin(m *T) cell.H {
	m.last = cell.Unspecified

	return m.beginLoop()
}

func (m *machine) beginLoop() cell.H {
	for m.R1 != cell.Nil {
		m.Check()

		if m.Type(m.R1) != cell.Pair {
			m.Error(cell.SymbolSystemError, m.Cons(m.MakeString("begin: improper body"), m.R1))
		}

		x := m.Car(m.R1)

		if m.Type(x) == cell.Pair {
			if m.Car(x) == cell.SymbolBegin {
				m.R1 = m.Append2(m.Cdr(x), m.Cdr(m.R1))

				continue
			}

			if m.primitiveLoad(x) {
				m.pushCC(m.List(x), m.R1, m.R0, cell.VMBeginPrimitiveLoad)

				return cell.VMBeginExpand
			}
		}

		if m.Cdr(m.R1) == cell.Nil {
			m.R1 = x

			return cell.VMEval
		}

		m.pushCC(x, m.R1, m.R0, cell.VMBeginEval)

		return cell.VMEval
	}

	m.R1 = m.last

	return cell.VMReturn
}

func beginEval(m *T) cell.H {
	m.last = m.R1
	m.R1 = m.Cdr(m.R2)

	return m.beginLoop()
}

// The loaded forms have been evaluated. Their value takes the place of
// the primitive-load form.
func beginPrimitiveLoad(m *T) cell.H {
	m.R1 = m.Cons(m.List(cell.SymbolQuote, m.R1), m.Cdr(m.R2))

	return m.beginLoop()
}

// Expanding sequences. Each form is macro expanded, has its global
// references resolved and is evaluated before the next form is read.

func beginExpand(m *T) cell.H {
	m.last = cell.Unspecified

	return m.beginExpandLoop()
}

func (m *machine) beginExpandLoop() cell.H {
	for m.R1 != cell.Nil {
		m.Check()

		if m.Type(m.R1) != cell.Pair {
			m.Error(cell.SymbolSystemError, m.Cons(m.MakeString("begin: improper body"), m.R1))
		}

		x := m.Car(m.R1)

		if m.Type(x) == cell.Pair {
			if m.Car(x) == cell.SymbolBegin {
				m.R1 = m.Append2(m.Cdr(x), m.Cdr(m.R1))

				continue
			}

			if m.primitiveLoad(x) {
				m.pushCC(m.cadr(x), m.R1, m.R0, cell.VMBeginExpandPrimitiveLoad)

				return cell.VMEval
			}
		}

		m.pushCC(x, m.R1, m.R0, cell.VMBeginExpandMacro)

		return cell.VMMacroExpand
	}

	m.R1 = m.last

	return cell.VMReturn
}

func beginExpandEval(m *T) cell.H {
	m.last = m.R1
	m.R1 = m.Cdr(m.R2)

	return m.beginExpandLoop()
}

// R1 is the expanded form. R2 is the remaining forms.
func beginExpandMacro(m *T) cell.H {
	if m.R1 != m.Car(m.R2) {
		m.SetCar(m.R2, m.R1)
		m.R1 = m.R2

		return m.beginExpandLoop()
	}

	m.R1 = m.R2
	m.expandVariable(m.Car(m.R1), cell.Nil)
	m.pushCC(m.Car(m.R1), m.R1, m.R0, cell.VMBeginExpandEval)

	return cell.VMEval
}

// R1 is the port to load. The forms read replace the primitive-load form.
func beginExpandPrimitiveLoad(m *T) cell.H {
	forms := m.load(m.R1)

	m.R1 = m.Cons(m.Cons(cell.SymbolBegin, forms), m.Cdr(m.R2))

	return m.beginExpandLoop()
}

// Conditionals. R1 is (test consequent [alternate]).

func vmIf(m *T) cell.H {
	m.pushCC(m.Car(m.R1), m.R1, m.R0, cell.VMIfExpr)

	return cell.VMEval
}

func ifExpr(m *T) cell.H {
	test := m.R1
	m.R1 = m.R2

	if test != cell.False {
		m.R1 = m.cadr(m.R1)

		return cell.VMEval
	}

	if alternate := m.cddr(m.R1); alternate != cell.Nil {
		m.R1 = m.Car(alternate)

		return cell.VMEval
	}

	m.R1 = cell.Unspecified

	return cell.VMReturn
}

// Continuations. R1 is (receiver).

func callCC(m *T) cell.H {
	k := m.Make(cell.Continuation, m.continuations, int64(m.CaptureStack()))
	m.continuations++

	m.pushCC(m.List(m.Car(m.R1), k), k, m.R0, cell.VMCallCC2)

	return cell.VMApply
}

func callCC2(m *T) cell.H {
	return cell.VMReturn
}

// Multiple values. R1 is (producer consumer).

func callWithValues(m *T) cell.H {
	m.pushCC(m.List(m.Car(m.R1)), m.R1, m.R0, cell.VMCallWithValues2)

	return cell.VMApply
}

func callWithValues2(m *T) cell.H {
	args := m.List(m.R1)
	if m.Type(m.R1) == cell.Values {
		args = m.Cdr(m.R1)
	}

	m.R1 = m.Cons(m.cadr(m.R2), args)

	return cell.VMApply
}

// The shared return. R1 is the value for the phase that resumes.
func vmReturn(m *T) cell.H {
	x := m.R1

	m.popFrame()
	m.R1 = x

	return m.R3
}
