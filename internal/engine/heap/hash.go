// Released under an MIT license. See LICENSE.

package heap

import (
	"hash/fnv"

	"github.com/michaelmacinnis/mes/internal/engine/cell"
)

// Field indices of a hash table struct.
const (
	HashSize    = 3
	HashBuckets = 4
)

// MakeHashTable creates a hash table with size buckets.
func (h *heap) MakeHashTable(size int64) cell.H {
	if size <= 0 {
		size = 100
	}

	buckets := h.MakeVector(size, cell.Nil)

	return h.MakeStruct(h.List(
		cell.SymbolHashqTable,
		cell.False,
		cell.SymbolHashqTable,
		h.Number(size),
		buckets,
	))
}

// IsHashTable returns true if x is a hash table struct.
func (h *heap) IsHashTable(x cell.H) bool {
	return h.Type(x) == cell.Struct &&
		h.Length(x) > HashBuckets &&
		h.Ref0(x, 2) == cell.SymbolHashqTable
}

// HashGetHandle returns the (key . value) pair for key in table, or #f.
// If equal is true keys are compared structurally.
func (h *heap) HashGetHandle(table, key cell.H, equal bool) cell.H {
	bucket := h.bucket(table, key)
	if equal {
		return h.Assoc(key, bucket)
	}

	return h.Assq(key, bucket)
}

// HashRef returns the value for key in table, or dflt.
func (h *heap) HashRef(table, key, dflt cell.H, equal bool) cell.H {
	x := h.HashGetHandle(table, key, equal)
	if x == cell.False {
		return dflt
	}

	return h.Cdr(x)
}

// HashSet binds key to value in table, updating an existing binding in
// place so that references to the binding pair stay valid.
func (h *heap) HashSet(table, key, value cell.H, equal bool) cell.H {
	x := h.HashGetHandle(table, key, equal)
	if x != cell.False {
		h.SetCdr(x, value)

		return value
	}

	buckets := h.Ref0(table, HashBuckets)
	i := h.hash(key, h.Length(buckets))

	h.Set0(buckets, i, h.Acons(key, value, h.Ref0(buckets, i)))

	return value
}

// HashToAlist returns every binding in table.
func (h *heap) HashToAlist(table cell.H) cell.H {
	buckets := h.Ref0(table, HashBuckets)
	a := cell.Nil

	for i := int64(0); i < h.Length(buckets); i++ {
		for b := h.Ref0(buckets, i); h.Type(b) == cell.Pair; b = h.Cdr(b) {
			a = h.Cons(h.Car(b), a)
		}
	}

	return a
}

func (h *heap) bucket(table, key cell.H) cell.H {
	buckets := h.Ref0(table, HashBuckets)

	return h.Ref0(buckets, h.hash(key, h.Length(buckets)))
}

// The hash of a key depends only on its contents so that it survives
// relocation.
func (h *heap) hash(key cell.H, size int64) int64 {
	switch h.Type(key) {
	case cell.Char, cell.Number:
		v := h.Value(key) % size
		if v < 0 {
			v += size
		}

		return v
	case cell.Keyword, cell.Special, cell.String, cell.Symbol:
		return hashText(h.Bytes(h.Cdr(key)), size)
	}

	return 0
}

func hashText(b []byte, size int64) int64 {
	f := fnv.New32a()
	_, _ = f.Write(b)

	return int64(f.Sum32()) % size
}
