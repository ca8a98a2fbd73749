// Released under an MIT license. See LICENSE.

package heap

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/michaelmacinnis/mes/internal/engine/cell"
)

// The header of a Bytes cell carries 8 payload bytes in its Cdr word. Each
// following cell carries 16 more in its Car and Cdr words.
const (
	headBytes = 8
	cellBytes = 16
)

// BytesCells returns the number of cells a Bytes payload of n bytes uses,
// including its header.
func BytesCells(n int64) int64 {
	if n <= headBytes {
		return 1
	}

	return 1 + (n-headBytes+cellBytes-1)/cellBytes
}

// MakeBytes copies b into a fresh Bytes cell.
func (h *heap) MakeBytes(b []byte) cell.H {
	n := int64(len(b))
	x := h.Alloc(BytesCells(n))

	h.cells[x] = cell.New(cell.Bytes, n, word(b, 0))

	for i, off := x+1, headBytes; off < len(b); i, off = i+1, off+cellBytes {
		h.cells[i] = cell.New(cell.Char, word(b, off), word(b, off+headBytes))
	}

	return x
}

// Bytes returns a copy of the payload of the Bytes cell x.
func (h *heap) Bytes(x cell.H) []byte {
	n := h.cells[x].Car
	b := make([]byte, BytesCells(n)*cellBytes)

	binary.LittleEndian.PutUint64(b, uint64(h.cells[x].Cdr))

	for i, off := x+1, headBytes; int64(off) < n; i, off = i+1, off+cellBytes {
		binary.LittleEndian.PutUint64(b[off:], uint64(h.cells[i].Car))
		binary.LittleEndian.PutUint64(b[off+headBytes:], uint64(h.cells[i].Cdr))
	}

	return b[:n]
}

// MakeString creates a String cell holding s.
func (h *heap) MakeString(s string) cell.H {
	return h.text(cell.String, s)
}

// MakeKeyword creates a Keyword cell named s.
func (h *heap) MakeKeyword(s string) cell.H {
	return h.text(cell.Keyword, s)
}

// MakePort creates a string port numbered n reading from the char list l.
func (h *heap) MakePort(n int64, l cell.H) cell.H {
	return h.Make(cell.Port, n, int64(l))
}

// Text returns the characters of a String, Symbol, Keyword, Special or
// Macro cell.
func (h *heap) Text(x cell.H) string {
	if x == cell.Zero {
		return ""
	}

	switch h.Type(x) {
	case cell.String, cell.Symbol, cell.Keyword, cell.Special, cell.Macro:
		return string(h.Bytes(h.Cdr(x)))
	}

	return ""
}

func (h *heap) text(t cell.Tag, s string) cell.H {
	if h.maxString > 0 && int64(len(s)) > h.maxString {
		panic(&Limit{errors.Errorf("string too long: %d > MES_MAX_STRING (%d)", len(s), h.maxString)})
	}

	return h.makeText(t, s)
}

// Diagnostic returns a string cell holding msg. It is not subject to
// MES_MAX_STRING.
func (h *heap) Diagnostic(msg string) cell.H {
	return h.makeText(cell.String, msg)
}

func (h *heap) makeText(t cell.Tag, s string) cell.H {
	b := h.MakeBytes([]byte(s))

	return h.Make(t, int64(len(s)), int64(b))
}

func word(b []byte, off int) int64 {
	if off >= len(b) {
		return 0
	}

	var w [8]byte

	copy(w[:], b[off:])

	return int64(binary.LittleEndian.Uint64(w[:]))
}
