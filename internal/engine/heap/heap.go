// Released under an MIT license. See LICENSE.

// Package heap provides the cell arena, its bump allocator, the frame stack
// and the stop-and-copy collector that keeps the arena compact.
//
// The allocator never collects. Collection happens only when the evaluator
// calls Check at one of its safe points, so Go code may hold raw handles
// between allocations as long as it does not hold them across a safe point.
// Anything that must survive a collection lives in a register registered
// with Protect, on the frame stack, or is reachable from one of those.
package heap

import (
	"github.com/pkg/errors"
	"github.com/tliron/commonlog"

	"github.com/michaelmacinnis/mes/internal/engine/cell"
)

// Max is the first handle available to the allocator.
const Max = cell.Max

// T (heap) holds every cell, the frame stack and the symbol table.
type T struct {
	cells []cell.T // Live arena.
	news  []cell.T // Scratch arena used while collecting.
	free  cell.H   // Next unallocated cell.

	arena     int64
	jam       int64
	maxArena  int64
	maxString int64
	safety    int64

	stack    []cell.H
	sp       int
	maxStack int

	roots   []*cell.H
	symbols cell.H

	collections int
	debug       int64
}

type heap = T

// Abort reports a condition the heap cannot recover from.
type Abort struct {
	error
}

// Unwrap returns the underlying error.
func (a *Abort) Unwrap() error {
	return a.error
}

// Limit reports a value that exceeds a configured limit. Unlike an
// Abort, the machine raises it as a system-error.
type Limit struct {
	error
}

// Unwrap returns the underlying error.
func (l *Limit) Unwrap() error {
	return l.error
}

//nolint:gochecknoglobals
var log = commonlog.GetLogger("mes.heap")

// New creates a heap sized by c with the reserved range and symbol table
// initialized.
func New(c Config) *T {
	h := &T{
		arena:     c.Arena,
		debug:     c.Debug,
		jam:       c.Jam,
		maxArena:  c.MaxArena,
		maxStack:  int(c.MaxStack),
		maxString: c.MaxString,
		safety:    c.Safety,
	}

	h.cells = make([]cell.T, c.Arena+c.Jam)
	h.stack = make([]cell.H, c.Stack)
	h.sp = len(h.stack)

	h.cells[cell.Zero] = cell.New(cell.Char, 'c', 0)
	h.free = Max

	h.initSymbols()

	return h
}

func abort(format string, args ...interface{}) {
	panic(&Abort{errors.Errorf(format, args...)})
}

// Alloc returns the first of n contiguous fresh cells.
func (h *heap) Alloc(n int64) cell.H {
	x := h.free

	need := int64(x) + n
	if need > int64(len(h.cells)) {
		h.reserve(need)
	}

	h.free = cell.H(need)

	return x
}

// Make allocates and initializes a single cell.
func (h *heap) Make(t cell.Tag, car, cdr int64) cell.H {
	x := h.Alloc(1)
	h.cells[x] = cell.New(t, car, cdr)

	return x
}

// Arena returns the current soft arena size, in cells.
func (h *heap) Arena() int64 {
	return h.arena
}

// Cell returns a copy of the cell at x.
func (h *heap) Cell(x cell.H) cell.T {
	return h.cells[x]
}

// Collections returns the number of collections performed so far.
func (h *heap) Collections() int {
	return h.collections
}

// Debug returns the configured debug level.
func (h *heap) Debug() int64 {
	return h.debug
}

// Free returns the next unallocated handle.
func (h *heap) Free() cell.H {
	return h.free
}

// Protect registers each register in rs as a collector root.
func (h *heap) Protect(rs ...*cell.H) {
	h.roots = append(h.roots, rs...)
}

// Type returns the tag of the cell at x.
func (h *heap) Type(x cell.H) cell.Tag {
	return h.cells[x].Type
}

// SetType retags the cell at x.
func (h *heap) SetType(x cell.H, t cell.Tag) {
	h.cells[x].Type = t
}

// Car returns the first payload word of x as a handle.
func (h *heap) Car(x cell.H) cell.H {
	return cell.H(h.cells[x].Car)
}

// Cdr returns the second payload word of x as a handle.
func (h *heap) Cdr(x cell.H) cell.H {
	return cell.H(h.cells[x].Cdr)
}

// SetCar sets the first payload word of x.
func (h *heap) SetCar(x, v cell.H) {
	h.cells[x].Car = int64(v)
}

// SetCdr sets the second payload word of x.
func (h *heap) SetCdr(x, v cell.H) {
	h.cells[x].Cdr = int64(v)
}

// Value returns the raw value of a Number or Char cell.
func (h *heap) Value(x cell.H) int64 {
	return h.cells[x].Car
}

// Length returns the length recorded in a String, Symbol, Keyword,
// Special, Bytes, Vector or Struct cell.
func (h *heap) Length(x cell.H) int64 {
	return h.cells[x].Car
}

// Cons creates a pair.
func (h *heap) Cons(car, cdr cell.H) cell.H {
	return h.Make(cell.Pair, int64(car), int64(cdr))
}

// Number creates a number cell.
func (h *heap) Number(n int64) cell.H {
	return h.Make(cell.Number, n, 0)
}

// Char creates a character cell.
func (h *heap) Char(r rune) cell.H {
	return h.Make(cell.Char, int64(r), 0)
}

// Ref creates a cell referring to x.
func (h *heap) Ref(x cell.H) cell.H {
	return h.Make(cell.Ref, int64(x), 0)
}

// Variable creates a cell referring to the binding pair x.
func (h *heap) Variable(x cell.H) cell.H {
	return h.Make(cell.Variable, int64(x), 0)
}

// Values wraps the list x as multiple values.
func (h *heap) Values(x cell.H) cell.H {
	return h.Make(cell.Values, 0, int64(x))
}

// Boolean returns #t or #f.
func Boolean(b bool) cell.H {
	if b {
		return cell.True
	}

	return cell.False
}

func (h *heap) reserve(need int64) {
	limit := h.maxArena + h.jam
	if need > limit {
		abort("alloc: out of memory")
	}

	size := 2 * int64(len(h.cells))
	if size < need {
		size = need
	}

	if size > limit {
		size = limit
	}

	grown := make([]cell.T, size)
	copy(grown, h.cells[:h.free])

	h.cells = grown

	if h.debug > 1 {
		log.Debugf("arena reserve: %d cells", size)
	}
}
