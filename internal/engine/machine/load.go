// Released under an MIT license. See LICENSE.

package machine

import (
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/michaelmacinnis/mes/internal/engine/cell"
	"github.com/michaelmacinnis/mes/internal/reader"
)

// The builder type adapts the machine's constructors for the reader.
type builder struct {
	*T
}

func (b builder) Keyword(s string) cell.H {
	return b.MakeKeyword(s)
}

func (b builder) String(s string) cell.H {
	return b.MakeString(s)
}

func (b builder) Symbol(s string) cell.H {
	return b.Intern(s)
}

func (b builder) Vector(l cell.H) cell.H {
	return b.ListToVector(l)
}

// Builder returns a reader.Builder that creates cells in this machine.
func (m *machine) Builder() reader.Builder {
	return builder{m}
}

// Parse returns every datum in text as a list.
func (m *machine) Parse(name, text string) (cell.H, error) {
	xs, err := reader.ReadAll(name, text, builder{m})
	if err != nil {
		return cell.Nil, err
	}

	return m.List(xs...), nil
}

// ReadDatum reads one datum from port n. Input is consumed a line at a
// time until a complete datum has been read. Whatever follows the datum
// is pushed back onto the port. Returns the EOF char at the end of input.
func (m *machine) ReadDatum(n int64) cell.H {
	var text []byte

	for {
		line, eof := m.ReadLine(n)
		text = append(text, line...)

		src := string(text)
		if eof {
			src += "\n"
		}

		r := reader.New(portName(n), builder{m})
		r.Scan(src)

		x, err := r.Read()

		switch {
		case err == nil:
			rest := r.Rest()
			if eof {
				rest = strings.TrimSuffix(rest, "\n")
			}

			m.Unread(n, []byte(rest))

			return x
		case err == io.EOF || errors.Is(err, reader.ErrIncomplete): //nolint:errorlint
			if eof {
				return m.Char(EOF)
			}
		default:
			m.Error(cell.SymbolSystemError, m.MakeString(err.Error()))
		}
	}
}

// The forms of the program denoted by x: a file name, a port or a
// descriptor. Descriptor 0 is the standard input.
func (m *machine) load(x cell.H) cell.H {
	var (
		name string
		text []byte
		err  error
	)

	switch m.Type(x) {
	case cell.String:
		name = m.Text(x)
		text, err = readFile(name)
	case cell.Number, cell.Port:
		n := m.Value(x)
		name = portName(n)
		text, err = m.ReadAll(n)
	default:
		m.WrongType("primitive-load", x)
	}

	if err != nil {
		m.Error(cell.SymbolSystemError, m.List(m.MakeString(err.Error()), x))
	}

	if m.Debug() > 1 {
		log.Debugf("primitive-load %s: %d bytes", name, len(text))
	}

	forms, err := m.Parse(name, string(text))
	if err != nil {
		m.Error(cell.SymbolSystemError, m.List(m.MakeString(err.Error()), x))
	}

	return forms
}

func portName(n int64) string {
	if n == 0 {
		return "<stdin>"
	}

	return "<port " + strconv.FormatInt(n, 10) + ">"
}
