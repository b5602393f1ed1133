// Package record decodes cell payloads into typed values.
//
// A payload is a header followed by a body:
//
//	header: varint(header length, counting itself), varint(serial type)...
//	body:   one value per serial type, in header order, no padding
//
// The serial type fixes both the kind of a value and how many body bytes it
// occupies, so the body is decoded strictly sequentially.
package record

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/dacapoday/litescan"
	"github.com/dacapoday/litescan/internal/codec"
)

var (
	ErrTruncated           = litescan.ErrTruncated
	ErrInvalidRecordType   = litescan.ErrInvalidRecordType
	ErrBadRecord           = litescan.ErrBadRecord
	ErrUnsupportedEncoding = litescan.ErrUnsupportedEncoding
)

// EncodingUTF8 is the only text encoding text values can be decoded under.
const EncodingUTF8 = 1

// Source is a sequential big-endian input positioned at a record.
// *codec.Reader implements it.
type Source interface {
	io.ByteReader
	Pos() int64
	Int(width int) (int64, error)
	Uint64() (uint64, error)
	Bytes(n int64) ([]byte, error)
}

var _ Source = (*codec.Reader)(nil)

// Decode reads one record from src. encoding is the database text encoding;
// text values fail with ErrUnsupportedEncoding unless it is EncodingUTF8.
func Decode(src Source, encoding uint32) (Record, error) {
	start := src.Pos()
	size, err := codec.ReadVarint(src)
	if err != nil {
		return nil, fmt.Errorf("header length: %w", err)
	}
	if size < 1 {
		return nil, fmt.Errorf("%w: header length %d", ErrBadRecord, size)
	}

	end := start + size
	var types []SerialType
	for src.Pos() < end {
		code, err := codec.ReadVarint(src)
		if err != nil {
			return nil, fmt.Errorf("serial type %d: %w", len(types), err)
		}
		types = append(types, SerialType(code))
	}
	if pos := src.Pos(); pos != end {
		return nil, fmt.Errorf("%w: header overruns its length %d by %d bytes", ErrBadRecord, size, pos-end)
	}

	rec := make(Record, len(types))
	for i, st := range types {
		if rec[i], err = decodeValue(src, st, encoding); err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
	}
	return rec, nil
}

// Parse decodes a record held entirely in payload.
func Parse(payload []byte, encoding uint32) (Record, error) {
	return Decode(codec.NewReader(bytes.NewReader(payload), int64(len(payload))), encoding)
}

func decodeValue(src Source, st SerialType, encoding uint32) (Value, error) {
	switch {
	case st == 0, st == 8:
		return Value{typ: st}, nil
	case st == 9:
		return Value{typ: st, num: 1}, nil
	case st >= 1 && st <= 6:
		v, err := src.Int(int(st.Width()))
		if err != nil {
			return Value{}, err
		}
		return Value{typ: st, num: uint64(v)}, nil
	case st == 7:
		bits, err := src.Uint64()
		if err != nil {
			return Value{}, err
		}
		return Value{typ: st, num: bits}, nil
	case st >= 12 && st%2 == 0:
		raw, err := src.Bytes(st.Width())
		if err != nil {
			return Value{}, err
		}
		return Value{typ: st, raw: raw}, nil
	case st >= 13 && st%2 == 1:
		if encoding != EncodingUTF8 {
			return Value{}, fmt.Errorf("%w: %d (serial type %d)", ErrUnsupportedEncoding, encoding, st)
		}
		raw, err := src.Bytes(st.Width())
		if err != nil {
			return Value{}, err
		}
		if !utf8.Valid(raw) {
			return Value{}, fmt.Errorf("%w: text is not valid UTF-8 (serial type %d)", ErrBadRecord, st)
		}
		return Value{typ: st, raw: raw}, nil
	}
	return Value{}, fmt.Errorf("%w: %d", ErrInvalidRecordType, int64(st))
}

// Append encodes rec and appends it to dst.
// Each value keeps its own serial type, so decoding the result reproduces
// the exact storage widths.
func Append(dst []byte, rec Record) []byte {
	var header []byte
	for _, v := range rec {
		header = codec.AppendVarint(header, uint64(v.typ))
	}
	size := len(header) + 1
	for codec.VarintLen(uint64(size))+len(header) != size {
		size = codec.VarintLen(uint64(size)) + len(header)
	}
	dst = codec.AppendVarint(dst, uint64(size))
	dst = append(dst, header...)

	for _, v := range rec {
		switch kind := v.Kind(); {
		case kind == Integer && v.typ < 8, kind == Float:
			width := int(v.Width())
			for i := width - 1; i >= 0; i-- {
				dst = append(dst, byte(v.num>>(8*uint(i))))
			}
		case kind == Blob, kind == Text:
			dst = append(dst, v.raw...)
		}
	}
	return dst
}
