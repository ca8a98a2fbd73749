// Released under an MIT license. See LICENSE.

package heap

import (
	"github.com/michaelmacinnis/mes/internal/engine/cell"
)

// FrameSize is the number of stack slots in a frame.
const FrameSize = 5

// Slot offsets within a frame.
const (
	FrameProcedure = iota
	FrameR0
	FrameR1
	FrameR2
	FrameR3
)

// Frame is a saved snapshot of the machine registers. R3 holds the phase
// that resumes when the frame is popped.
type Frame struct {
	Procedure cell.H
	R0        cell.H
	R1        cell.H
	R2        cell.H
	R3        cell.H
}

// PushFrame pushes f, growing the stack if it is full.
func (h *heap) PushFrame(f Frame) {
	if h.sp < FrameSize {
		h.growStack()
	}

	h.sp -= FrameSize

	s := h.stack[h.sp : h.sp+FrameSize]
	s[FrameProcedure] = f.Procedure
	s[FrameR0] = f.R0
	s[FrameR1] = f.R1
	s[FrameR2] = f.R2
	s[FrameR3] = f.R3
}

// PopFrame pops the top frame.
func (h *heap) PopFrame() Frame {
	if h.sp+FrameSize > len(h.stack) {
		abort("stack underflow")
	}

	s := h.stack[h.sp : h.sp+FrameSize]
	h.sp += FrameSize

	return Frame{
		Procedure: s[FrameProcedure],
		R0:        s[FrameR0],
		R1:        s[FrameR1],
		R2:        s[FrameR2],
		R3:        s[FrameR3],
	}
}

// SetProcedure records x as the procedure of the top frame.
func (h *heap) SetProcedure(x cell.H) {
	if h.sp < len(h.stack) {
		h.stack[h.sp+FrameProcedure] = x
	}
}

// Depth returns the number of live stack slots.
func (h *heap) Depth() int {
	return len(h.stack) - h.sp
}

// Frames returns the live frames, innermost first.
func (h *heap) Frames() []Frame {
	var fs []Frame

	for i := h.sp; i+FrameSize <= len(h.stack); i += FrameSize {
		s := h.stack[i : i+FrameSize]
		fs = append(fs, Frame{
			Procedure: s[FrameProcedure],
			R0:        s[FrameR0],
			R1:        s[FrameR1],
			R2:        s[FrameR2],
			R3:        s[FrameR3],
		})
	}

	return fs
}

// CaptureStack copies the live stack slots into a vector.
func (h *heap) CaptureStack() cell.H {
	return h.VectorOf(h.stack[h.sp:])
}

// RestoreStack replaces the live stack with the slots saved in the vector v.
func (h *heap) RestoreStack(v cell.H) {
	n := int(h.Length(v))
	for n > len(h.stack) {
		h.growStack()
	}

	h.sp = len(h.stack) - n

	for i := 0; i < n; i++ {
		h.stack[h.sp+i] = h.Ref0(v, int64(i))
	}
}

// Unwind drops frames until only depth slots remain.
func (h *heap) Unwind(depth int) {
	if depth <= h.Depth() {
		h.sp = len(h.stack) - depth
	}
}

func (h *heap) growStack() {
	size := 2 * len(h.stack)
	if size > h.maxStack {
		size = h.maxStack
	}

	if size-len(h.stack) < FrameSize {
		abort("STACK FULL")
	}

	grown := make([]cell.H, size)
	depth := h.Depth()

	copy(grown[size-depth:], h.stack[h.sp:])

	h.stack = grown
	h.sp = size - depth

	if h.debug > 1 {
		log.Debugf("stack grown: %d slots", size)
	}
}
