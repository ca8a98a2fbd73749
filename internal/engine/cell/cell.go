// Released under an MIT license. See LICENSE.

// Package cell defines the tagged record that every value is stored in.
//
// A value is never a Go pointer. It is an H (handle), an index into the
// heap's cell array, and is only meaningful against the current arena.
// The two payload words of a cell mean different things for each tag:
//
//	Pair          Car and Cdr are handles.
//	Number, Char  Car is the value.
//	Bytes         Car is the length; the payload follows in place.
//	String, Symbol, Keyword, Special
//	              Car is the length; Cdr is a Bytes handle.
//	Vector, Struct
//	              Car is the length; Cdr is the first element cell.
//	Closure       Cdr is ((*circular* . env) formals . body).
//	Continuation  Car is a serial number; Cdr is a Vector of stack slots.
//	Macro         Car is the transformer; Cdr is the name's Bytes.
//	Variable, Ref Car is the referenced handle.
//	Port          Car is the port number; Cdr is the pending input.
//	Values        Cdr is the list of values.
//	Function      Car is the arity; Cdr indexes the native function table.
//	BrokenHeart   Car is the forwarding handle.
package cell

import "strconv"

// H (handle) is the index of a cell in the heap.
type H int64

// Tag identifies how a cell's payload is interpreted.
type Tag int64

// Type tags.
const (
	Char Tag = iota
	Bytes
	Closure
	Continuation
	Keyword
	Macro
	Number
	Pair
	Port
	Ref
	Special
	String
	Struct
	Symbol
	Values
	Variable
	Vector
	BrokenHeart
	Function

	Tags = iota
)

//nolint:gochecknoglobals
var tagNames = [Tags]string{
	"char",
	"bytes",
	"closure",
	"continuation",
	"keyword",
	"macro",
	"number",
	"pair",
	"port",
	"ref",
	"special",
	"string",
	"struct",
	"symbol",
	"values",
	"variable",
	"vector",
	"broken-heart",
	"function",
}

// String returns the name of the tag t.
func (t Tag) String() string {
	if t < 0 || t >= Tags {
		return "tag:" + strconv.FormatInt(int64(t), 10)
	}

	return tagNames[t]
}

// T (cell) is a fixed-size tagged record.
type T struct {
	Type Tag
	Car  int64
	Cdr  int64
}

// New creates a cell with tag t and payload words car and cdr.
func New(t Tag, car, cdr int64) T {
	return T{Type: t, Car: car, Cdr: cdr}
}
