package record

import (
	"encoding/hex"
	"math"
	"strconv"
	"strings"
)

// Kind is the storage class of a value.
type Kind uint8

const (
	Null Kind = iota
	Integer
	Float
	Blob
	Text
)

func (kind Kind) String() string {
	switch kind {
	case Null:
		return "null"
	case Integer:
		return "integer"
	case Float:
		return "float"
	case Blob:
		return "blob"
	case Text:
		return "text"
	}
	return "kind(" + strconv.Itoa(int(kind)) + ")"
}

// SerialType is the type code stored in a record header.
// It determines both the kind of a value and its width in the record body.
type SerialType int64

// Kind returns the storage class of st, and false for reserved or invalid codes.
func (st SerialType) Kind() (Kind, bool) {
	switch {
	case st == 0:
		return Null, true
	case st >= 1 && st <= 6, st == 8, st == 9:
		return Integer, true
	case st == 7:
		return Float, true
	case st >= 12 && st%2 == 0:
		return Blob, true
	case st >= 13 && st%2 == 1:
		return Text, true
	}
	return Null, false
}

// Width returns the number of body bytes a value of type st occupies,
// or -1 for reserved or invalid codes.
func (st SerialType) Width() int64 {
	switch {
	case st == 0, st == 8, st == 9:
		return 0
	case st >= 1 && st <= 4:
		return int64(st)
	case st == 5:
		return 6
	case st == 6, st == 7:
		return 8
	case st >= 12:
		return (int64(st) - 12) / 2
	}
	return -1
}

// Value is one field of a record.
//
// The serial type is kept, so integer width and the constant 0/1 encodings
// survive decoding. Int, Float, Bytes and Text are widened accessors.
type Value struct {
	typ SerialType
	num uint64 // integer bits or float bits
	raw []byte // blob or text bytes
}

// NullValue returns a NULL value.
func NullValue() Value {
	return Value{}
}

// IntValue returns v stored with the narrowest serial type that holds it.
func IntValue(v int64) Value {
	var st SerialType
	switch {
	case v == 0:
		st = 8
	case v == 1:
		st = 9
	case v >= math.MinInt8 && v <= math.MaxInt8:
		st = 1
	case v >= math.MinInt16 && v <= math.MaxInt16:
		st = 2
	case v >= -1<<23 && v < 1<<23:
		st = 3
	case v >= math.MinInt32 && v <= math.MaxInt32:
		st = 4
	case v >= -1<<47 && v < 1<<47:
		st = 5
	default:
		st = 6
	}
	return Value{typ: st, num: uint64(v)}
}

// FloatValue returns f stored as an 8-byte IEEE-754 float.
func FloatValue(f float64) Value {
	return Value{typ: 7, num: math.Float64bits(f)}
}

// BlobValue returns a blob holding b. b is not copied.
func BlobValue(b []byte) Value {
	return Value{typ: SerialType(12 + 2*len(b)), raw: b}
}

// TextValue returns a UTF-8 text value.
func TextValue(s string) Value {
	return Value{typ: SerialType(13 + 2*len(s)), raw: []byte(s)}
}

func (v Value) SerialType() SerialType {
	return v.typ
}

func (v Value) Kind() Kind {
	kind, _ := v.typ.Kind()
	return kind
}

// Width returns the number of body bytes the value occupied.
func (v Value) Width() int64 {
	return v.typ.Width()
}

func (v Value) IsNull() bool {
	return v.typ == 0
}

// Int returns the value as a 64-bit integer. Floats are truncated;
// NULL, blob and text values return 0.
func (v Value) Int() int64 {
	switch v.Kind() {
	case Integer:
		return int64(v.num)
	case Float:
		return int64(math.Float64frombits(v.num))
	}
	return 0
}

// Float returns the value as a float64. Integers are converted;
// NULL, blob and text values return 0.
func (v Value) Float() float64 {
	switch v.Kind() {
	case Integer:
		return float64(int64(v.num))
	case Float:
		return math.Float64frombits(v.num)
	}
	return 0
}

// Bytes returns the raw bytes of a blob or text value.
// The returned slice must not be modified.
func (v Value) Bytes() []byte {
	return v.raw
}

// Text returns the bytes of a blob or text value as a string. Decoded text
// values are always valid UTF-8.
func (v Value) Text() string {
	return string(v.raw)
}

// String formats the value as a literal: NULL, 42, 1.5, "text", x'0a0b'.
func (v Value) String() string {
	switch v.Kind() {
	case Integer:
		return strconv.FormatInt(v.Int(), 10)
	case Float:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64)
	case Blob:
		return "x'" + hex.EncodeToString(v.raw) + "'"
	case Text:
		return strconv.Quote(string(v.raw))
	}
	return "NULL"
}

// Record is the ordered sequence of values decoded from one cell payload.
type Record []Value

func (rec Record) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range rec {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(v.String())
	}
	b.WriteByte(']')
	return b.String()
}

// Field returns the i-th value, or NULL when the record is shorter.
func (rec Record) Field(i int) Value {
	if i < 0 || i >= len(rec) {
		return Value{}
	}
	return rec[i]
}
