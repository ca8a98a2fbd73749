// Released under an MIT license. See LICENSE.

package heap

import (
	"github.com/michaelmacinnis/mes/internal/engine/cell"
)

const symbolBuckets = 1021

// Intern returns the symbol named s, creating it if necessary. Names of
// the reserved specials intern to the special itself.
func (h *heap) Intern(s string) cell.H {
	if x, ok := h.Lookup(s); ok {
		return x
	}

	x := h.text(cell.Symbol, s)
	h.addSymbol(x, s)

	return x
}

// Lookup returns the interned symbol named s, if there is one.
func (h *heap) Lookup(s string) (cell.H, bool) {
	i := hashText([]byte(s), symbolBuckets)

	for l := h.Ref0(h.symbols, i); h.Type(l) == cell.Pair; l = h.Cdr(l) {
		if h.Text(h.Car(l)) == s {
			return h.Car(l), true
		}
	}

	return cell.False, false
}

// MakeSymbol creates a fresh, uninterned symbol named s.
func (h *heap) MakeSymbol(s string) cell.H {
	return h.text(cell.Symbol, s)
}

// Symbols returns the symbol table.
func (h *heap) Symbols() cell.H {
	return h.symbols
}

// SetSymbols replaces the symbol table. Used when loading an image.
func (h *heap) SetSymbols(x cell.H) {
	h.symbols = x
}

// SymbolList returns every interned symbol.
func (h *heap) SymbolList() cell.H {
	l := cell.Nil

	for i := int64(0); i < symbolBuckets; i++ {
		for b := h.Ref0(h.symbols, i); h.Type(b) == cell.Pair; b = h.Cdr(b) {
			l = h.Cons(h.Car(b), l)
		}
	}

	return l
}

func (h *heap) addSymbol(x cell.H, s string) {
	i := hashText([]byte(s), symbolBuckets)
	h.Set0(h.symbols, i, h.Cons(x, h.Ref0(h.symbols, i)))
}

func (h *heap) initSymbols() {
	for x := cell.Nil; x < cell.Max; x++ {
		t := cell.Special
		if x >= cell.FirstSymbol {
			t = cell.Symbol
		}

		h.cells[x] = cell.New(t, int64(len(cell.Name(x))), 0)
	}

	h.symbols = h.MakeVector(symbolBuckets, cell.Nil)

	for x := cell.Nil; x < cell.Max; x++ {
		name := cell.Name(x)

		h.SetCdr(x, h.MakeBytes([]byte(name)))
		h.addSymbol(x, name)
	}
}
