// Released under an MIT license. See LICENSE.

package builtins

import (
	"github.com/michaelmacinnis/mes/internal/engine/cell"
	"github.com/michaelmacinnis/mes/internal/engine/heap"
	"github.com/michaelmacinnis/mes/internal/engine/machine"
)

func (b *builtins) vectors() map[string]interface{} {
	return map[string]interface{}{
		"core:make-vector":  machine.Fn1(b.coreMakeVector),
		"hash-ref":          machine.FnN(b.hashRef(true)),
		"hash-set!":         machine.Fn3(b.hashSet(true)),
		"hash-table->alist": machine.Fn1(b.hashToAlist),
		"hash-table?":       machine.Fn1(b.isHashTable),
		"hashq-get-handle":  machine.Fn2(b.hashqGetHandle),
		"hashq-ref":         machine.FnN(b.hashRef(false)),
		"hashq-set!":        machine.Fn3(b.hashSet(false)),
		"list->vector":      machine.Fn1(b.listToVector),
		"make-hash-table":   machine.FnN(b.makeHashTable),
		"make-struct":       machine.Fn3(b.makeStruct),
		"make-vector":       machine.FnN(b.makeVector),
		"struct-length":     machine.Fn1(b.structLength),
		"struct-ref":        machine.Fn2(b.structRef),
		"struct-set!":       machine.Fn3(b.structSet),
		"struct-vtable":     machine.Fn1(b.structVtable),
		"struct?":           b.isType(cell.Struct),
		"vector->list":      machine.Fn1(b.vectorToList),
		"vector-entry":      machine.Fn1(b.Entry),
		"vector-length":     machine.Fn1(b.vectorLength),
		"vector-ref":        machine.Fn2(b.vectorRef),
		"vector-set!":       machine.Fn3(b.vectorSet),
		"vector?":           b.isType(cell.Vector),
	}
}

// The index i of the vector or struct x, checked against its length.
func (b *builtins) index(name string, x, i cell.H) int64 {
	k := b.integer(name, i)
	if k < 0 || k >= b.Length(x) {
		b.WrongType(name, i)
	}

	return k
}

func (b *builtins) table(name string, x cell.H) cell.H {
	if !b.IsHashTable(x) {
		b.WrongType(name, x)
	}

	return x
}

func (b *builtins) coreMakeVector(k cell.H) cell.H {
	return b.MakeVector(b.size("core:make-vector", k), cell.Unspecified)
}

// (hash-ref table key [default])
func (b *builtins) hashRef(equal bool) machine.FnN {
	name := "hashq-ref"
	if equal {
		name = "hash-ref"
	}

	return func(args cell.H) cell.H {
		t := b.table(name, b.required(name, args, 0))
		key := b.required(name, args, 1)

		dflt, ok := b.optional(args, 2)
		if !ok {
			dflt = cell.False
		}

		return b.HashRef(t, key, dflt, equal)
	}
}

func (b *builtins) hashSet(equal bool) machine.Fn3 {
	name := "hashq-set!"
	if equal {
		name = "hash-set!"
	}

	return func(t, key, v cell.H) cell.H {
		return b.HashSet(b.table(name, t), key, v, equal)
	}
}

func (b *builtins) hashToAlist(t cell.H) cell.H {
	return b.HashToAlist(b.table("hash-table->alist", t))
}

func (b *builtins) hashqGetHandle(t, key cell.H) cell.H {
	return b.HashGetHandle(b.table("hashq-get-handle", t), key, false)
}

func (b *builtins) isHashTable(x cell.H) cell.H {
	return heap.Boolean(b.IsHashTable(x))
}

func (b *builtins) listToVector(l cell.H) cell.H {
	if b.ListLength(l) < 0 {
		b.WrongType("list->vector", l)
	}

	return b.ListToVector(l)
}

// (make-hash-table [size])
func (b *builtins) makeHashTable(args cell.H) cell.H {
	size := int64(0)
	if x, ok := b.optional(args, 0); ok {
		size = b.integer("make-hash-table", x)
	}

	return b.MakeHashTable(size)
}

// The printer and fields follow the type in the struct.
func (b *builtins) makeStruct(t, fields, printer cell.H) cell.H {
	if b.ListLength(fields) < 0 {
		b.WrongType("make-struct", fields)
	}

	return b.MakeStruct(b.Cons(t, b.Cons(printer, fields)))
}

// (make-vector k [fill])
func (b *builtins) makeVector(args cell.H) cell.H {
	k := b.size("make-vector", b.required("make-vector", args, 0))

	fill, ok := b.optional(args, 1)
	if !ok {
		fill = cell.Unspecified
	}

	return b.MakeVector(k, fill)
}

func (b *builtins) size(name string, x cell.H) int64 {
	k := b.integer(name, x)
	if k < 0 {
		b.WrongType(name, x)
	}

	return k
}

func (b *builtins) structLength(x cell.H) cell.H {
	return b.Number(b.Length(b.typed("struct-length", x, cell.Struct)))
}

func (b *builtins) structRef(x, i cell.H) cell.H {
	x = b.typed("struct-ref", x, cell.Struct)

	return b.Ref0(x, b.index("struct-ref", x, i))
}

func (b *builtins) structSet(x, i, v cell.H) cell.H {
	x = b.typed("struct-set!", x, cell.Struct)
	b.Set0(x, b.index("struct-set!", x, i), v)

	return v
}

func (b *builtins) structVtable(x cell.H) cell.H {
	return b.Ref0(b.typed("struct-vtable", x, cell.Struct), 0)
}

func (b *builtins) vectorLength(x cell.H) cell.H {
	return b.Number(b.Length(b.typed("vector-length", x, cell.Vector)))
}

func (b *builtins) vectorRef(x, i cell.H) cell.H {
	x = b.typed("vector-ref", x, cell.Vector)

	return b.Ref0(x, b.index("vector-ref", x, i))
}

func (b *builtins) vectorSet(x, i, v cell.H) cell.H {
	x = b.typed("vector-set!", x, cell.Vector)
	b.Set0(x, b.index("vector-set!", x, i), v)

	return cell.Unspecified
}

func (b *builtins) vectorToList(x cell.H) cell.H {
	return b.VectorToList(b.typed("vector->list", x, cell.Vector))
}
