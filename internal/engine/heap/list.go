// Released under an MIT license. See LICENSE.

package heap

import (
	"bytes"

	"github.com/michaelmacinnis/mes/internal/engine/cell"
)

// List creates a proper list of xs.
func (h *heap) List(xs ...cell.H) cell.H {
	l := cell.Nil

	for i := len(xs) - 1; i >= 0; i-- {
		l = h.Cons(xs[i], l)
	}

	return l
}

// Slice returns the elements of the proper list l.
func (h *heap) Slice(l cell.H) []cell.H {
	var xs []cell.H

	for ; h.Type(l) == cell.Pair; l = h.Cdr(l) {
		xs = append(xs, h.Car(l))
	}

	return xs
}

// ListLength returns the length of l, or -1 if l is not a proper list.
func (h *heap) ListLength(l cell.H) int64 {
	n := int64(0)

	for ; l != cell.Nil; l = h.Cdr(l) {
		if h.Type(l) != cell.Pair {
			return -1
		}

		n++
	}

	return n
}

// Acons prepends (key . value) to the association list a.
func (h *heap) Acons(key, value, a cell.H) cell.H {
	return h.Cons(h.Cons(key, value), a)
}

// Append2 returns a fresh copy of x followed by y.
func (h *heap) Append2(x, y cell.H) cell.H {
	if x == cell.Nil {
		return y
	}

	xs := h.Slice(x)
	for i := len(xs) - 1; i >= 0; i-- {
		y = h.Cons(xs[i], y)
	}

	return y
}

// AppendReverse returns the elements of x reversed, followed by y.
func (h *heap) AppendReverse(x, y cell.H) cell.H {
	for ; h.Type(x) == cell.Pair; x = h.Cdr(x) {
		y = h.Cons(h.Car(x), y)
	}

	return y
}

// ReverseX reverses x in place, appending t.
func (h *heap) ReverseX(x, t cell.H) cell.H {
	for x != cell.Nil && h.Type(x) == cell.Pair {
		next := h.Cdr(x)
		h.SetCdr(x, t)
		t = x
		x = next
	}

	return t
}

// LastPair returns the last pair of the list x.
func (h *heap) LastPair(x cell.H) cell.H {
	for x != cell.Nil && h.Type(x) == cell.Pair && h.Cdr(x) != cell.Nil {
		x = h.Cdr(x)
	}

	return x
}

// Pairlis pairs the formals x with the arguments y on top of a. A symbol
// in tail position collects the remaining arguments.
func (h *heap) Pairlis(x, y, a cell.H) cell.H {
	if x == cell.Nil {
		return a
	}

	if h.Type(x) != cell.Pair {
		return h.Acons(x, y, a)
	}

	var keys, values []cell.H

	for ; h.Type(x) == cell.Pair; x = h.Cdr(x) {
		v := cell.Undefined
		if h.Type(y) == cell.Pair {
			v = h.Car(y)
			y = h.Cdr(y)
		}

		keys = append(keys, h.Car(x))
		values = append(values, v)
	}

	if x != cell.Nil {
		a = h.Acons(x, y, a)
	}

	for i := len(keys) - 1; i >= 0; i-- {
		a = h.Acons(keys[i], values[i], a)
	}

	return a
}

// Assq returns the first pair in a whose car is Eq to x, or #f.
func (h *heap) Assq(x, a cell.H) cell.H {
	for ; h.Type(a) == cell.Pair; a = h.Cdr(a) {
		if h.Eq(h.Car(h.Car(a)), x) {
			return h.Car(a)
		}
	}

	return cell.False
}

// Assoc returns the first pair in a whose car is Equal to x, or #f.
func (h *heap) Assoc(x, a cell.H) cell.H {
	for ; h.Type(a) == cell.Pair; a = h.Cdr(a) {
		if h.Equal(h.Car(h.Car(a)), x) {
			return h.Car(a)
		}
	}

	return cell.False
}

// Memq returns the first tail of a whose car is Eq to x, or #f.
func (h *heap) Memq(x, a cell.H) cell.H {
	for ; h.Type(a) == cell.Pair; a = h.Cdr(a) {
		if h.Eq(h.Car(a), x) {
			return a
		}
	}

	return cell.False
}

// Eq compares by identity, except that numbers, characters and keywords
// compare by value.
func (h *heap) Eq(x, y cell.H) bool {
	if x == y {
		return true
	}

	t := h.Type(x)
	if t != h.Type(y) {
		return false
	}

	switch t {
	case cell.Char, cell.Number:
		return h.Value(x) == h.Value(y)
	case cell.Keyword:
		return h.Text(x) == h.Text(y)
	}

	return false
}

// Equal compares structurally.
func (h *heap) Equal(x, y cell.H) bool {
	for {
		if h.Eq(x, y) {
			return true
		}

		t := h.Type(x)
		if t != h.Type(y) {
			return false
		}

		switch t {
		case cell.Pair:
			if !h.Equal(h.Car(x), h.Car(y)) {
				return false
			}

			x, y = h.Cdr(x), h.Cdr(y)

			continue
		case cell.String:
			return bytes.Equal(h.Bytes(h.Cdr(x)), h.Bytes(h.Cdr(y)))
		case cell.Vector:
			n := h.Length(x)
			if n != h.Length(y) {
				return false
			}

			for i := int64(0); i < n; i++ {
				if !h.Equal(h.Ref0(x, i), h.Ref0(y, i)) {
					return false
				}
			}

			return true
		}

		return false
	}
}
