// Released under an MIT license. See LICENSE.

package machine

import (
	"github.com/michaelmacinnis/mes/internal/engine/cell"
)

// MakeModule creates a module named name with an empty global table.
func (m *machine) MakeModule(name cell.H) cell.H {
	return m.MakeStruct(m.List(
		cell.SymbolModule,
		cell.False,
		cell.SymbolModule,
		name,
		cell.Nil,
		m.MakeHashTable(tableSize),
	))
}

// IsModule returns true if x is a module struct.
func (m *machine) IsModule(x cell.H) bool {
	return m.Type(x) == cell.Struct &&
		m.Length(x) > moduleGlobals &&
		m.Ref0(x, 2) == cell.SymbolModule
}

// ModuleDefine binds name to v in the global table of module.
func (m *machine) ModuleDefine(module, name, v cell.H) {
	m.HashSet(m.Ref0(module, moduleGlobals), name, v, false)
}

// ModuleRef returns the value of name in env, or *undefined*.
func (m *machine) ModuleRef(env, name cell.H) cell.H {
	x := m.ModuleVariable(env, name)
	if x == cell.False {
		return cell.Undefined
	}

	return m.Cdr(x)
}

// ModuleVariable returns the binding pair for name. Lexical bindings in
// env come first, then the globals of the boot module. If env is a module
// only its globals are searched. Returns #f if name is unbound.
func (m *machine) ModuleVariable(env, name cell.H) cell.H {
	if m.IsModule(env) {
		return m.HashGetHandle(m.Ref0(env, moduleGlobals), name, false)
	}

	if x := m.Assq(name, env); x != cell.False {
		return x
	}

	return m.HashGetHandle(m.Ref0(m.M0, moduleGlobals), name, false)
}

// Environment returns the environment a module argument denotes.
func (m *machine) environment(x cell.H) cell.H {
	if m.Type(x) == cell.Pair {
		return x
	}

	return m.top
}

// Global is true when the environment e is not a closure body.
func (m *machine) global(e cell.H) bool {
	return m.Type(e) != cell.Pair || m.Type(m.Car(e)) != cell.Pair ||
		m.Car(m.Car(e)) != cell.ClosureHead
}

// SetEnv assigns v to the existing binding of x, which is a symbol or a
// variable.
func (m *machine) SetEnv(x, v, env cell.H) cell.H {
	p := cell.False

	if m.Type(x) == cell.Variable {
		p = m.Car(x)
	} else {
		p = m.ModuleVariable(env, x)
	}

	if p == cell.False {
		m.Error(cell.SymbolUnboundVariable, x)
	}

	m.SetCdr(p, v)

	return cell.Unspecified
}

// Macros.

// MacroGetHandle returns the macro table binding for name, or #f.
func (m *machine) MacroGetHandle(name cell.H) cell.H {
	if m.Type(name) != cell.Symbol {
		return cell.False
	}

	return m.HashGetHandle(m.macros, name, false)
}

// MakeMacro wraps the transformer f as a macro named by the symbol name.
func (m *machine) MakeMacro(name, f cell.H) cell.H {
	return m.Make(cell.Macro, int64(f), int64(m.Cdr(name)))
}

// The transformer for the macro name, or #f.
func (m *machine) getMacro(name cell.H) cell.H {
	x := m.MacroGetHandle(name)
	if x == cell.False || m.Type(m.Cdr(x)) != cell.Macro {
		return cell.False
	}

	return m.Car(m.Cdr(x))
}

func (m *machine) setMacro(name, v cell.H) {
	m.HashSet(m.macros, name, v, false)
}

// Variable expansion.

func (m *machine) addFormals(formals, x cell.H) cell.H {
	for ; m.Type(x) == cell.Pair; x = m.Cdr(x) {
		formals = m.Cons(m.Car(x), formals)
	}

	if m.Type(x) == cell.Symbol {
		formals = m.Cons(x, formals)
	}

	return formals
}

// The name a define form binds. Expansion may already have replaced it
// with a variable.
func (m *machine) definedName(form cell.H) cell.H {
	name := m.Car(m.Cdr(form))
	if m.Type(name) == cell.Pair {
		name = m.Car(name)
	}

	if m.Type(name) == cell.Variable {
		name = m.Car(m.Car(name))
	}

	return name
}

// Replace the free symbols of x that name global bindings with variables
// referring directly to the binding.
func (m *machine) expandVariable(x, formals cell.H) {
	m.expandVariables(x, formals, true)
}

func (m *machine) expandVariables(x, formals cell.H, top bool) {
	for ; m.Type(x) == cell.Pair; x, top = m.Cdr(x), false {
		a := m.Car(x)

		if m.Type(a) == cell.Pair {
			switch m.Car(a) {
			case cell.SymbolLambda, cell.SymbolDefine, cell.SymbolDefineMacro:
				if m.Type(m.Cdr(a)) == cell.Pair {
					formals = m.addFormals(formals, m.Car(m.Cdr(a)))
				}
			case cell.SymbolQuote:
				continue
			}

			m.expandVariables(a, formals, false)

			continue
		}

		switch a {
		case cell.SymbolLambda, cell.SymbolDefine, cell.SymbolDefineMacro:
			if m.Type(m.Cdr(x)) != cell.Pair {
				return
			}

			f := m.Car(m.Cdr(x))
			if top && a != cell.SymbolLambda && m.Type(f) == cell.Pair {
				f = m.Cdr(f)
			}

			formals = m.addFormals(formals, f)
			x = m.Cdr(x)
		case cell.SymbolQuote:
			return
		case cell.SymbolBootModule, cell.SymbolCurrentModule, cell.SymbolPrimitiveLoad:
		default:
			if m.Type(a) == cell.Symbol && !m.formal(a, formals) {
				if v := m.ModuleVariable(m.R0, a); v != cell.False {
					m.SetCar(x, m.Variable(v))
				}
			}
		}
	}
}

func (m *machine) formal(x, formals cell.H) bool {
	for ; m.Type(formals) == cell.Pair; formals = m.Cdr(formals) {
		if m.Car(formals) == x {
			return true
		}
	}

	return formals == x
}
