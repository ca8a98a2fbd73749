// Released under an MIT license. See LICENSE.

package heap

import (
	"github.com/michaelmacinnis/mes/internal/engine/cell"
)

// MakeVector creates a vector of k elements, each set to fill.
func (h *heap) MakeVector(k int64, fill cell.H) cell.H {
	return h.elements(cell.Vector, k, fill)
}

// MakeStruct creates a struct whose fields are the elements of the list l.
func (h *heap) MakeStruct(l cell.H) cell.H {
	k := h.ListLength(l)
	if k < 0 {
		k = 0
	}

	x := h.elements(cell.Struct, k, cell.Unspecified)

	for i := int64(0); i < k; i++ {
		h.setEntry(x, i, h.Car(l))
		l = h.Cdr(l)
	}

	return x
}

// Entry returns a cell suitable for storing x inline in a vector: numbers
// and characters are stored by value, everything else by reference.
func (h *heap) Entry(x cell.H) cell.H {
	switch h.Type(x) {
	case cell.Char, cell.Number:
		return h.Make(h.Type(x), h.Value(x), 0)
	}

	return h.Ref(x)
}

// Ref0 returns the element at index i of the vector or struct x.
func (h *heap) Ref0(x cell.H, i int64) cell.H {
	e := h.Cdr(x) + cell.H(i)

	switch h.Type(e) {
	case cell.Ref:
		return h.Car(e)
	case cell.Char, cell.Number:
		return h.Make(h.Type(e), h.Value(e), 0)
	}

	return e
}

// Set0 stores v at index i of the vector or struct x.
func (h *heap) Set0(x cell.H, i int64, v cell.H) {
	h.setEntry(x, i, v)
}

// VectorToList returns the elements of the vector x as a list.
func (h *heap) VectorToList(x cell.H) cell.H {
	l := cell.Nil

	for i := h.Length(x) - 1; i >= 0; i-- {
		l = h.Cons(h.Ref0(x, i), l)
	}

	return l
}

// ListToVector returns a vector holding the elements of the list l.
func (h *heap) ListToVector(l cell.H) cell.H {
	k := h.ListLength(l)
	if k < 0 {
		k = 0
	}

	v := h.MakeVector(k, cell.Unspecified)

	for i := int64(0); i < k; i++ {
		h.setEntry(v, i, h.Car(l))
		l = h.Cdr(l)
	}

	return v
}

// VectorOf returns a vector holding xs.
func (h *heap) VectorOf(xs []cell.H) cell.H {
	v := h.MakeVector(int64(len(xs)), cell.Unspecified)

	for i, x := range xs {
		h.setEntry(v, int64(i), x)
	}

	return v
}

func (h *heap) elements(t cell.Tag, k int64, fill cell.H) cell.H {
	base := h.Alloc(k)

	for i := int64(0); i < k; i++ {
		h.cells[base+cell.H(i)] = h.entry(fill)
	}

	return h.Make(t, k, int64(base))
}

// The entry for x written directly into an element slot.
func (h *heap) entry(x cell.H) cell.T {
	switch h.Type(x) {
	case cell.Char, cell.Number:
		return cell.New(h.Type(x), h.Value(x), 0)
	}

	return cell.New(cell.Ref, int64(x), 0)
}

func (h *heap) setEntry(x cell.H, i int64, v cell.H) {
	h.cells[h.Cdr(x)+cell.H(i)] = h.entry(v)
}
