// Released under an MIT license. See LICENSE.

package machine

import (
	"io"

	"github.com/pkg/errors"

	"github.com/michaelmacinnis/mes/internal/engine/cell"
	"github.com/michaelmacinnis/mes/internal/engine/heap"
)

// DumpImage writes an image of the machine to w. The program is stored
// with it and is returned by LoadImage.
//
// The registers are saved in a frame on top of the stack: the symbol table
// in the procedure slot, the environment, the program, the macro table and
// the boot module.
func (m *machine) DumpImage(w io.Writer, program cell.H) error {
	m.PushFrame(heap.Frame{
		Procedure: m.Symbols(),
		R0:        m.R0,
		R1:        program,
		R2:        m.macros,
		R3:        m.M0,
	})

	defer m.PopFrame()

	m.Collect()

	return m.Dump(w)
}

// LoadImage replaces the machine's heap with an image written by DumpImage
// and returns the program stored with it. Builtins must have been
// registered in the same order as in the machine that wrote the image.
func (m *machine) LoadImage(r io.Reader) (cell.H, error) {
	if err := m.Load(r); err != nil {
		return cell.Nil, err
	}

	if m.Depth() < heap.FrameSize {
		return cell.Nil, errors.Wrap(heap.ErrImage, "load: no saved registers")
	}

	f := m.PopFrame()

	m.SetSymbols(f.Procedure)

	m.R0 = f.R0
	m.R1 = cell.Unspecified
	m.R2 = cell.Unspecified
	m.R3 = cell.Unspecified
	m.macros = f.R2
	m.M0 = f.R3
	m.last = cell.Unspecified
	m.ports = cell.Nil

	if !m.IsModule(m.M0) {
		return cell.Nil, errors.Wrap(heap.ErrImage, "load: no boot module")
	}

	m.top = m.List(m.Cons(cell.SymbolModule, m.M0))
	if m.global(m.R0) {
		m.R0 = m.top
	}

	return f.R1, nil
}
