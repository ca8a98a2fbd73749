// Released under an MIT license. See LICENSE.

package builtins

import (
	"github.com/michaelmacinnis/mes/internal/engine/cell"
	"github.com/michaelmacinnis/mes/internal/engine/heap"
	"github.com/michaelmacinnis/mes/internal/engine/machine"
)

func (b *builtins) lists() map[string]interface{} {
	return map[string]interface{}{
		"append-reverse": machine.Fn2(b.appendReverse),
		"append2":        machine.Fn2(b.append2),
		"assoc":          machine.Fn2(b.Assoc),
		"assq":           machine.Fn2(b.Assq),
		"core:reverse!":  machine.Fn2(b.reverseX),
		"equal2?":        machine.Fn2(b.equal),
		"last-pair":      machine.Fn1(b.LastPair),
		"memq":           machine.Fn2(b.Memq),
		"pairlis":        machine.Fn3(b.Pairlis),
	}
}

func (b *builtins) append2(x, y cell.H) cell.H {
	if b.ListLength(x) < 0 {
		b.WrongType("append2", x)
	}

	return b.Append2(x, y)
}

func (b *builtins) appendReverse(x, y cell.H) cell.H {
	if b.ListLength(x) < 0 {
		b.WrongType("append-reverse", x)
	}

	return b.AppendReverse(x, y)
}

func (b *builtins) equal(x, y cell.H) cell.H {
	return heap.Boolean(b.Equal(x, y))
}

func (b *builtins) reverseX(x, t cell.H) cell.H {
	if b.ListLength(x) < 0 {
		b.WrongType("core:reverse!", x)
	}

	return b.ReverseX(x, t)
}
