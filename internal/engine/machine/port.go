// Released under an MIT license. See LICENSE.

package machine

import (
	"io"

	"golang.org/x/sys/unix"

	"github.com/michaelmacinnis/mes/internal/engine/cell"
)

// EOF is the value read-byte and read-char return at the end of input.
const EOF = -1

// Ports.
//
// A port is a file descriptor or a string port. File descriptors are
// numbers. Descriptors 0, 1 and 2 use the machine's stdin, stdout and
// stderr; the rest are read and written directly. String ports are port
// cells with negative numbers. Their pending input is a list of chars.

// Input returns the current input port number.
func (m *machine) Input() int64 {
	return m.input
}

// Output returns the current output port number.
func (m *machine) Output() int64 {
	return m.output
}

// Errput returns the current error port number.
func (m *machine) Errput() int64 {
	return m.errput
}

// SetInput makes the port x current for input and returns the previous port.
func (m *machine) SetInput(x cell.H) cell.H {
	prev := m.PortCell(m.input)
	m.input = m.PortNumber("set-current-input-port", x)

	return prev
}

// SetOutput makes the port x current for output and returns the previous port.
func (m *machine) SetOutput(x cell.H) cell.H {
	prev := m.PortCell(m.output)
	m.output = m.PortNumber("set-current-output-port", x)

	return prev
}

// SetErrput makes the port x current for errors and returns the previous port.
func (m *machine) SetErrput(x cell.H) cell.H {
	prev := m.PortCell(m.errput)
	m.errput = m.PortNumber("set-current-error-port", x)

	return prev
}

// PortNumber returns the number of the port x. The name of the calling
// procedure is used if x is not a port.
func (m *machine) PortNumber(name string, x cell.H) int64 {
	switch m.Type(x) {
	case cell.Number, cell.Port:
		return m.Value(x)
	}

	m.WrongType(name, x)

	return EOF
}

// PortCell returns the value that denotes the port numbered n.
func (m *machine) PortCell(n int64) cell.H {
	if n >= 0 {
		return m.Number(n)
	}

	if p := m.stringPort(n); p != cell.False {
		return p
	}

	return m.Number(n)
}

// OpenInputString creates a string port that reads the bytes of s.
func (m *machine) OpenInputString(s string) cell.H {
	chars := cell.Nil
	for i := len(s) - 1; i >= 0; i-- {
		chars = m.Cons(m.Char(rune(s[i])), chars)
	}

	p := m.MakePort(-(m.ListLength(m.ports) + 2), chars)
	m.ports = m.Cons(p, m.ports)

	return p
}

// OpenInputFile opens the file name for reading and returns its descriptor,
// or -1.
func (m *machine) OpenInputFile(name string) int64 {
	fd, err := unix.Open(name, unix.O_RDONLY, 0)
	if err != nil {
		return EOF
	}

	return int64(fd)
}

// OpenOutputFile opens the file name for writing, creating or truncating
// it, and returns its descriptor or -1.
func (m *machine) OpenOutputFile(name string, mode uint32) int64 {
	fd, err := unix.Open(name, unix.O_WRONLY|unix.O_CREAT|unix.O_TRUNC, mode)
	if err != nil {
		return EOF
	}

	return int64(fd)
}

// ClosePort closes the port n.
func (m *machine) ClosePort(n int64) {
	delete(m.pushback, n)

	if n < 0 {
		if p := m.stringPort(n); p != cell.False {
			m.SetCdr(p, cell.Nil)
		}

		return
	}

	if n > 2 {
		_ = unix.Close(int(n))
	}
}

// ReadByte returns the next byte from port n, or EOF.
func (m *machine) ReadByte(n int64) int {
	if q := m.pushback[n]; len(q) > 0 {
		m.pushback[n] = q[1:]

		return int(q[0])
	}

	if n < 0 {
		p := m.stringPort(n)
		if p == cell.False || m.Type(m.Cdr(p)) != cell.Pair {
			return EOF
		}

		c := m.Car(m.Cdr(p))
		m.SetCdr(p, m.Cdr(m.Cdr(p)))

		return int(m.Value(c))
	}

	if n == 0 {
		b, err := m.stdin.ReadByte()
		if err != nil {
			return EOF
		}

		return int(b)
	}

	var buf [1]byte

	k, err := unix.Read(int(n), buf[:])
	if err != nil || k < 1 {
		return EOF
	}

	return int(buf[0])
}

// PeekByte returns the next byte from port n without consuming it.
func (m *machine) PeekByte(n int64) int {
	b := m.ReadByte(n)
	if b != EOF {
		m.UnreadByte(n, b)
	}

	return b
}

// UnreadByte pushes b back onto port n.
func (m *machine) UnreadByte(n int64, b int) {
	if b == EOF {
		return
	}

	m.Unread(n, []byte{byte(b)})
}

// Unread pushes the bytes b back onto port n so that they are read next.
func (m *machine) Unread(n int64, b []byte) {
	if len(b) == 0 {
		return
	}

	m.pushback[n] = append(append([]byte{}, b...), m.pushback[n]...)
}

// ReadAll returns the remaining input of port n.
func (m *machine) ReadAll(n int64) ([]byte, error) {
	b := m.pushback[n]
	delete(m.pushback, n)

	switch {
	case n < 0:
		for c := m.ReadByte(n); c != EOF; c = m.ReadByte(n) {
			b = append(b, byte(c))
		}

		return b, nil
	case n == 0:
		rest, err := io.ReadAll(m.stdin)

		return append(b, rest...), err
	}

	return readFd(int(n), b)
}

// ReadLine returns the bytes of port n up to and including the next
// newline. The second result is true at the end of input.
func (m *machine) ReadLine(n int64) ([]byte, bool) {
	var line []byte

	for {
		c := m.ReadByte(n)
		if c == EOF {
			return line, true
		}

		line = append(line, byte(c))
		if c == '\n' {
			return line, false
		}
	}
}

// Write writes b to port n.
func (m *machine) Write(n int64, b []byte) error {
	switch n {
	case 1:
		_, err := m.stdout.Write(b)

		return err
	case 2:
		_, err := m.stderr.Write(b)

		return err
	}

	if n < 0 {
		p := m.stringPort(n)
		if p == cell.False {
			return unix.EBADF
		}

		tail := cell.Nil
		for i := len(b) - 1; i >= 0; i-- {
			tail = m.Cons(m.Char(rune(b[i])), tail)
		}

		m.SetCdr(p, m.Append2(m.Cdr(p), tail))

		return nil
	}

	for len(b) > 0 {
		k, err := unix.Write(int(n), b)
		if err != nil {
			return err
		}

		b = b[k:]
	}

	return nil
}

// Writer returns an io.Writer for port n.
func (m *machine) Writer(n int64) io.Writer {
	return portWriter{m, n}
}

type portWriter struct {
	m *T
	n int64
}

func (w portWriter) Write(b []byte) (int, error) {
	if err := w.m.Write(w.n, b); err != nil {
		return 0, err
	}

	return len(b), nil
}

func (m *machine) stringPort(n int64) cell.H {
	for l := m.ports; m.Type(l) == cell.Pair; l = m.Cdr(l) {
		if m.Value(m.Car(l)) == n {
			return m.Car(l)
		}
	}

	return cell.False
}

func readFd(fd int, b []byte) ([]byte, error) {
	var buf [4096]byte

	for {
		k, err := unix.Read(fd, buf[:])
		if err == unix.EINTR { //nolint:errorlint
			continue
		}

		if err != nil {
			return b, err
		}

		if k == 0 {
			return b, nil
		}

		b = append(b, buf[:k]...)
	}
}

func readFile(name string) ([]byte, error) {
	fd, err := unix.Open(name, unix.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}

	defer unix.Close(fd) //nolint:errcheck

	return readFd(fd, nil)
}
