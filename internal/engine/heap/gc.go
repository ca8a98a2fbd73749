// Released under an MIT license. See LICENSE.

package heap

import (
	"github.com/michaelmacinnis/mes/internal/engine/cell"
)

// Check collects if fewer than the configured safety margin of cells remain
// in the arena. It is only called at the evaluator's safe points.
func (h *heap) Check() bool {
	if int64(h.free)+h.safety >= h.arena {
		h.Collect()

		if int64(h.free)+h.safety >= h.arena && h.arena >= h.maxArena {
			abort("gc: out of memory: %d live cells, MES_MAX_ARENA %d", h.free, h.maxArena)
		}

		return true
	}

	return false
}

// Collect copies every cell reachable from the roots into a fresh arena
// and makes that arena live.
func (h *heap) Collect() {
	before := h.free

	h.initNews()

	h.free = cell.Nil

	// The reserved range is copied first and in order so that its handles
	// are unchanged.
	for x := cell.Nil; x < cell.Max; x++ {
		h.copy(x)
	}

	h.symbols = h.copy(h.symbols)

	for _, r := range h.roots {
		*r = h.copy(*r)
	}

	for i := h.sp; i < len(h.stack); i++ {
		h.stack[i] = h.copy(h.stack[i])
	}

	h.scan(cell.Nil)
	h.flip()

	h.collections++

	if h.debug > 1 {
		log.Debugf("gc %d: %d => %d cells, arena %d, jam %d",
			h.collections, before, h.free, h.arena, h.jam)
	}

	if h.arena < h.maxArena && int64(h.free)+h.jam >= h.arena {
		h.upArena()
	}
}

// copy moves the cell at old into the new arena, leaving a broken heart
// that forwards to the new handle.
func (h *heap) copy(old cell.H) cell.H {
	if old == cell.Zero {
		return old
	}

	c := h.cells[old]
	if c.Type == cell.BrokenHeart {
		return cell.H(c.Car)
	}

	n := h.free
	h.free++

	h.news[n] = c

	switch c.Type {
	case cell.Struct, cell.Vector:
		h.news[n].Cdr = int64(h.free)

		base := cell.H(c.Cdr)
		for i := cell.H(0); i < cell.H(c.Car); i++ {
			h.news[h.free] = h.cells[base+i]
			h.free++
		}
	case cell.Bytes:
		for i := int64(1); i < BytesCells(c.Car); i++ {
			h.news[h.free] = h.cells[old+cell.H(i)]
			h.free++
		}
	}

	h.cells[old] = cell.New(cell.BrokenHeart, int64(n), 0)

	return n
}

// scan relocates the references held by each copied cell, breadth first,
// until it catches up with the allocation pointer.
func (h *heap) scan(s cell.H) {
	for ; s < h.free; s++ {
		c := &h.news[s]

		switch c.Type {
		case cell.Macro, cell.Pair, cell.Ref, cell.Variable:
			c.Car = int64(h.copy(cell.H(c.Car)))
		}

		switch c.Type {
		case cell.Closure, cell.Continuation, cell.Keyword, cell.Macro,
			cell.Pair, cell.Port, cell.Special, cell.String,
			cell.Symbol, cell.Values:
			c.Cdr = int64(h.copy(cell.H(c.Cdr)))
		case cell.Bytes:
			s += cell.H(BytesCells(c.Car) - 1)
		}
	}
}

func (h *heap) initNews() {
	if len(h.news) < len(h.cells) {
		h.news = make([]cell.T, len(h.cells))
	}

	h.news[cell.Zero] = cell.New(cell.Char, 'n', 0)
}

func (h *heap) flip() {
	if int64(h.free) > h.jam {
		h.jam = int64(h.free) + int64(h.free)/2
	}

	h.cells, h.news = h.news, h.cells
}

func (h *heap) upArena() {
	if h.arena>>1 < h.maxArena>>2 {
		h.arena <<= 1
		h.jam <<= 1
		h.safety <<= 1
	} else if h.maxArena-h.jam > h.arena {
		h.arena = h.maxArena - h.jam
	} else {
		h.arena = h.maxArena
	}

	if size := h.arena + h.jam; size > int64(len(h.cells)) {
		grown := make([]cell.T, size)
		copy(grown, h.cells[:h.free])
		h.cells = grown
	}

	if h.debug > 1 {
		log.Debugf("arena up: %d cells", h.arena)
	}
}
