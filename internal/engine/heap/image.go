// Released under an MIT license. See LICENSE.

package heap

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/michaelmacinnis/mes/internal/engine/cell"
)

// Magic starts every image.
const Magic = "MES"

const (
	headerBytes = len(Magic) + 2
	wordBytes   = 8
	cellWords   = 3
)

// ErrImage is returned when an image is malformed.
var ErrImage = errors.New("bad image") //nolint:gochecknoglobals

// Dump writes the live arena and stack. The image is the magic, the live
// stack depth as a big-endian uint16, every cell below the free pointer as
// three big-endian words, and finally the live stack slots.
func (h *heap) Dump(w io.Writer) error {
	depth := h.Depth()
	if depth > 0xffff {
		return errors.Errorf("dump: stack depth %d does not fit in an image", depth)
	}

	b := bufio.NewWriter(w)

	hdr := make([]byte, headerBytes)
	copy(hdr, Magic)
	binary.BigEndian.PutUint16(hdr[len(Magic):], uint16(depth))

	if _, err := b.Write(hdr); err != nil {
		return errors.Wrap(err, "dump")
	}

	var buf [cellWords * wordBytes]byte

	for _, c := range h.cells[:h.free] {
		binary.BigEndian.PutUint64(buf[0:], uint64(c.Type))
		binary.BigEndian.PutUint64(buf[8:], uint64(c.Car))
		binary.BigEndian.PutUint64(buf[16:], uint64(c.Cdr))

		if _, err := b.Write(buf[:]); err != nil {
			return errors.Wrap(err, "dump")
		}
	}

	for _, x := range h.stack[h.sp:] {
		binary.BigEndian.PutUint64(buf[:wordBytes], uint64(x))

		if _, err := b.Write(buf[:wordBytes]); err != nil {
			return errors.Wrap(err, "dump")
		}
	}

	if h.debug > 1 {
		log.Debugf("dump: %d cells, %d stack slots", h.free, depth)
	}

	return errors.Wrap(b.Flush(), "dump")
}

// Load replaces the arena and stack with the contents of an image written
// by Dump. The symbol table must be restored by the caller.
func (h *heap) Load(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return errors.Wrap(err, "load")
	}

	if len(data) < headerBytes || string(data[:len(Magic)]) != Magic {
		return errors.Wrap(ErrImage, "load: missing magic")
	}

	depth := int(binary.BigEndian.Uint16(data[len(Magic):headerBytes]))
	data = data[headerBytes:]

	stackBytes := depth * wordBytes
	cellBytes := len(data) - stackBytes

	if cellBytes < 0 || cellBytes%(cellWords*wordBytes) != 0 {
		return errors.Wrap(ErrImage, "load: truncated")
	}

	n := cellBytes / (cellWords * wordBytes)
	if n < int(cell.Max) {
		return errors.Wrap(ErrImage, "load: too few cells")
	}

	if size := int64(n) + h.jam; size > int64(len(h.cells)) {
		h.cells = make([]cell.T, size)
	}

	for i := 0; i < n; i++ {
		w := data[i*cellWords*wordBytes:]
		h.cells[i] = cell.T{
			Type: cell.Tag(binary.BigEndian.Uint64(w[0:])),
			Car:  int64(binary.BigEndian.Uint64(w[8:])),
			Cdr:  int64(binary.BigEndian.Uint64(w[16:])),
		}
	}

	h.free = cell.H(n)

	for depth > len(h.stack) {
		h.growStack()
	}

	h.sp = len(h.stack) - depth
	slots := data[cellBytes:]

	for i := 0; i < depth; i++ {
		h.stack[h.sp+i] = cell.H(binary.BigEndian.Uint64(slots[i*wordBytes:]))
	}

	if h.debug > 1 {
		log.Debugf("load: %d cells, %d stack slots", n, depth)
	}

	return nil
}
