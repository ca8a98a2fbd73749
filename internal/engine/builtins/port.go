// Released under an MIT license. See LICENSE.

package builtins

import (
	"io"

	"github.com/mattn/go-isatty"

	"github.com/michaelmacinnis/mes/internal/engine/cell"
	"github.com/michaelmacinnis/mes/internal/engine/heap"
	"github.com/michaelmacinnis/mes/internal/engine/machine"
	"github.com/michaelmacinnis/mes/internal/engine/printer"
)

// Default permissions for open-output-file.
const fileMode = 0o644

func (b *builtins) ports() map[string]interface{} {
	return map[string]interface{}{
		"close-port":              machine.Fn1(b.closePort),
		"core:display":            machine.FnN(b.render("core:display", b.Output, printer.Display)),
		"core:display-error":      machine.FnN(b.render("core:display-error", b.Errput, printer.Display)),
		"core:display-port":       machine.Fn2(b.renderPort("core:display-port", printer.Display)),
		"core:write":              machine.FnN(b.render("core:write", b.Output, printer.Write)),
		"core:write-error":        machine.FnN(b.render("core:write-error", b.Errput, printer.Write)),
		"core:write-port":         machine.Fn2(b.renderPort("core:write-port", printer.Write)),
		"current-error-port":      machine.Fn0(b.currentPort(b.Errput)),
		"current-input-port":      machine.Fn0(b.currentPort(b.Input)),
		"current-output-port":     machine.Fn0(b.currentPort(b.Output)),
		"isatty?":                 machine.Fn1(b.isatty),
		"open-input-file":         machine.Fn1(b.openInputFile),
		"open-input-string":       machine.Fn1(b.openInputString),
		"open-output-file":        machine.FnN(b.openOutputFile),
		"peek-byte":               machine.FnN(b.peekByte),
		"peek-char":               machine.FnN(b.peekChar),
		"port?":                   b.isType(cell.Port),
		"read":                    machine.FnN(b.read),
		"read-byte":               machine.FnN(b.readByte),
		"read-char":               machine.FnN(b.readChar),
		"read-string":             machine.FnN(b.readString),
		"set-current-error-port":  machine.Fn1(b.SetErrput),
		"set-current-input-port":  machine.Fn1(b.SetInput),
		"set-current-output-port": machine.Fn1(b.SetOutput),
		"unread-byte":             machine.FnN(b.unreadByte),
		"unread-char":             machine.FnN(b.unreadChar),
		"write-byte":              machine.FnN(b.writeByte),
		"write-char":              machine.FnN(b.writeChar),
	}
}

// The port argument at index i of args, or the current port.
func (b *builtins) port(name string, args cell.H, i int, current func() int64) int64 {
	if x, ok := b.optional(args, i); ok {
		return b.PortNumber(name, x)
	}

	return current()
}

func (b *builtins) systemError(err error, x cell.H) {
	b.Error(cell.SymbolSystemError, b.List(b.MakeString(err.Error()), x))
}

func (b *builtins) closePort(x cell.H) cell.H {
	b.ClosePort(b.PortNumber("close-port", x))

	return cell.Unspecified
}

func (b *builtins) currentPort(current func() int64) machine.Fn0 {
	return func() cell.H {
		return b.PortCell(current())
	}
}

func (b *builtins) isatty(x cell.H) cell.H {
	return heap.Boolean(isatty.IsTerminal(uintptr(b.integer("isatty?", x))))
}

func (b *builtins) openInputFile(x cell.H) cell.H {
	return b.Number(b.OpenInputFile(b.str("open-input-file", x)))
}

func (b *builtins) openInputString(x cell.H) cell.H {
	return b.OpenInputString(b.str("open-input-string", x))
}

// (open-output-file name [mode])
func (b *builtins) openOutputFile(args cell.H) cell.H {
	name := b.str("open-output-file", b.required("open-output-file", args, 0))

	mode := int64(fileMode)
	if x, ok := b.optional(args, 1); ok {
		mode = b.integer("open-output-file", x)
	}

	return b.Number(b.OpenOutputFile(name, uint32(mode)))
}

func (b *builtins) peekByte(args cell.H) cell.H {
	return b.Number(int64(b.PeekByte(b.port("peek-byte", args, 0, b.Input))))
}

func (b *builtins) peekChar(args cell.H) cell.H {
	return b.Char(rune(b.PeekByte(b.port("peek-char", args, 0, b.Input))))
}

func (b *builtins) read(args cell.H) cell.H {
	return b.ReadDatum(b.port("read", args, 0, b.Input))
}

func (b *builtins) readByte(args cell.H) cell.H {
	return b.Number(int64(b.ReadByte(b.port("read-byte", args, 0, b.Input))))
}

func (b *builtins) readChar(args cell.H) cell.H {
	return b.Char(rune(b.ReadByte(b.port("read-char", args, 0, b.Input))))
}

// The rest of the input of a port as a string.
func (b *builtins) readString(args cell.H) cell.H {
	n := b.port("read-string", args, 0, b.Input)

	text, err := b.ReadAll(n)
	if err != nil {
		b.systemError(err, b.PortCell(n))
	}

	return b.MakeString(string(text))
}

// Display or write x on the port current returns, or on the port given
// as the second argument.
func (b *builtins) render(
	name string, current func() int64, f func(w io.Writer, h printer.Heap, x cell.H) error,
) machine.FnN {
	return func(args cell.H) cell.H {
		x := b.required(name, args, 0)

		if err := f(b.Writer(b.port(name, args, 1, current)), b, x); err != nil {
			b.systemError(err, x)
		}

		return cell.Unspecified
	}
}

func (b *builtins) renderPort(
	name string, f func(w io.Writer, h printer.Heap, x cell.H) error,
) machine.Fn2 {
	return func(x, p cell.H) cell.H {
		if err := f(b.Writer(b.PortNumber(name, p)), b, x); err != nil {
			b.systemError(err, x)
		}

		return cell.Unspecified
	}
}

// (unread-byte b [port])
func (b *builtins) unreadByte(args cell.H) cell.H {
	x := b.required("unread-byte", args, 0)
	b.UnreadByte(b.port("unread-byte", args, 1, b.Input), int(b.integer("unread-byte", x)))

	return x
}

// (unread-char c [port])
func (b *builtins) unreadChar(args cell.H) cell.H {
	x := b.required("unread-char", args, 0)
	b.UnreadByte(b.port("unread-char", args, 1, b.Input), int(b.char("unread-char", x)))

	return x
}

func (b *builtins) write(name string, args cell.H, c byte) cell.H {
	n := b.port(name, args, 1, b.Output)

	if err := b.Write(n, []byte{c}); err != nil {
		b.systemError(err, b.PortCell(n))
	}

	return b.Car(args)
}

// (write-byte b [port])
func (b *builtins) writeByte(args cell.H) cell.H {
	return b.write("write-byte", args, byte(b.integer("write-byte", b.required("write-byte", args, 0))))
}

// (write-char c [port])
func (b *builtins) writeChar(args cell.H) cell.H {
	return b.write("write-char", args, byte(b.char("write-char", b.required("write-char", args, 0))))
}
