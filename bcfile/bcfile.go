// Copyright (C) 2024 clox authors.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package bcfile implements the bit-exact binary serialization format
// for a chunk.Chunk (spec.md §4.3): a magic header, a three-part
// version gate, and separate little-endian data and code segments.
//
// The wire format is deliberately plain bytes with explicit framing,
// the same design sneller's ion package uses for its own binary
// encoding (magic-tagged segments, little-endian integers via
// encoding/binary, a dedicated variable-length prefix for strings)
// rather than reaching for a general-purpose serialization library:
// the format must be bit-exact and independently specified, which
// rules out anything that embeds its own schema or versioning.
package bcfile

import (
	"encoding/binary"
	"fmt"

	"github.com/cloxlang/clox/chunk"
	"github.com/cloxlang/clox/value"
)

var magic = [8]byte{'_', 'C', 'O', 'D', 'E', '4', '2', '_'}

// Version identifies the wire format's revision. Readers refuse files
// whose Major differs from CurrentVersion.Major (spec.md §4.3).
type Version struct {
	Major, Minor, Build uint8
}

// CurrentVersion is the version this package writes and the baseline
// readers check compatibility against.
var CurrentVersion = Version{Major: 1, Minor: 0, Build: 0}

var dataTag = [5]byte{'.', 'D', 'A', 'T', 'A'}
var codeTag = [5]byte{'.', 'C', 'O', 'D', 'E'}

// constant type tags, one byte each, preceding a constant's payload.
const (
	ctNull ctype = iota
	ctBool
	ctInteger
	ctNumber
	ctString
)

type ctype byte

// Error reports a failure to parse or validate a bytecode file. Kind
// is a short machine-readable label such as "truncated", "bad-magic"
// or "version-mismatch";
// distinct kinds let callers distinguish truncation from a version
// mismatch without string-matching Msg.
type Error struct {
	Kind string
	Msg  string
}

func (e *Error) Error() string { return fmt.Sprintf("bcfile: %s: %s", e.Kind, e.Msg) }

var errTruncated = &Error{Kind: "truncated", Msg: "unexpected end of file"}

// Serialize encodes c into the bit-exact wire format described in
// spec.md §4.3.
func Serialize(c *chunk.Chunk) ([]byte, error) {
	out := make([]byte, 0, 32+len(c.Code)+8*len(c.Constants))
	out = append(out, magic[:]...)
	out = append(out, CurrentVersion.Major, CurrentVersion.Minor, CurrentVersion.Build)

	out = append(out, dataTag[:]...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(c.Constants)))
	for _, v := range c.Constants {
		var err error
		out, err = appendConstant(out, v)
		if err != nil {
			return nil, err
		}
	}

	out = append(out, codeTag[:]...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(c.Code)))
	out = append(out, c.Code...)

	return out, nil
}

func appendConstant(dst []byte, v value.Value) ([]byte, error) {
	switch v.Tag() {
	case value.Null:
		return append(dst, byte(ctNull)), nil
	case value.Bool:
		b := byte(0)
		if v.AsBool() {
			b = 1
		}
		return append(dst, byte(ctBool), b), nil
	case value.Integer:
		dst = append(dst, byte(ctInteger))
		return binary.LittleEndian.AppendUint32(dst, uint32(v.AsInt())), nil
	case value.Number:
		dst = append(dst, byte(ctNumber))
		return binary.LittleEndian.AppendUint64(dst, mathFloatBits(v.AsNum())), nil
	case value.Object:
		obj := v.AsObj()
		if obj.Type != value.ObjString {
			return nil, &Error{Kind: "unsupported-constant", Msg: "only string objects are serializable"}
		}
		dst = append(dst, byte(ctString))
		dst = putLength(dst, obj.Len())
		return append(dst, obj.Str()...), nil
	default:
		return nil, &Error{Kind: "unsupported-constant", Msg: fmt.Sprintf("tag %s has no wire encoding", v.Tag())}
	}
}

// Deserialize decodes a chunk previously produced by Serialize.
// Allocated string constants are created on heap.
func Deserialize(data []byte, heap *value.Heap) (*chunk.Chunk, error) {
	if len(data) < 8+3 {
		return nil, errTruncated
	}
	if string(data[:8]) != string(magic[:]) {
		return nil, &Error{Kind: "bad-magic", Msg: "file does not begin with the clox bytecode magic"}
	}
	major, minor, build := data[8], data[9], data[10]
	if major != CurrentVersion.Major {
		return nil, &Error{Kind: "version-mismatch", Msg: fmt.Sprintf("file version %d.%d.%d incompatible with runtime %d.x", major, minor, build, CurrentVersion.Major)}
	}
	rest := data[11:]

	c := chunk.New()
	rest, err := readDataSeg(rest, c, heap)
	if err != nil {
		return nil, err
	}
	rest, err = readCodeSeg(rest, c)
	if err != nil {
		return nil, err
	}
	_ = rest
	return c, nil
}

func readDataSeg(rest []byte, c *chunk.Chunk, heap *value.Heap) ([]byte, error) {
	if len(rest) < 5+4 {
		return nil, errTruncated
	}
	if string(rest[:5]) != string(dataTag[:]) {
		return nil, &Error{Kind: "bad-segment", Msg: "expected .DATA segment"}
	}
	count := binary.LittleEndian.Uint32(rest[5:9])
	rest = rest[9:]

	for i := uint32(0); i < count; i++ {
		v, tail, err := readConstant(rest, heap)
		if err != nil {
			return nil, err
		}
		rest = tail
		if _, err := c.AddConstant(v); err != nil {
			return nil, err
		}
	}
	return rest, nil
}

func readConstant(rest []byte, heap *value.Heap) (value.Value, []byte, error) {
	if len(rest) < 1 {
		return value.Value{}, nil, errTruncated
	}
	switch ctype(rest[0]) {
	case ctNull:
		return value.NullValue, rest[1:], nil
	case ctBool:
		if len(rest) < 2 {
			return value.Value{}, nil, errTruncated
		}
		return value.BoolVal(rest[1] != 0), rest[2:], nil
	case ctInteger:
		if len(rest) < 5 {
			return value.Value{}, nil, errTruncated
		}
		n := int32(binary.LittleEndian.Uint32(rest[1:5]))
		return value.IntVal(n), rest[5:], nil
	case ctNumber:
		if len(rest) < 9 {
			return value.Value{}, nil, errTruncated
		}
		bits := binary.LittleEndian.Uint64(rest[1:9])
		return value.NumVal(mathFloatFromBits(bits)), rest[9:], nil
	case ctString:
		n, consumed, err := getLength(rest[1:])
		if err != nil {
			return value.Value{}, nil, err
		}
		start := 1 + consumed
		if len(rest) < start+n {
			return value.Value{}, nil, errTruncated
		}
		s := string(rest[start : start+n])
		obj := heap.CopyString(s)
		return value.ObjVal(obj), rest[start+n:], nil
	default:
		return value.Value{}, nil, &Error{Kind: "unknown-constant-type", Msg: fmt.Sprintf("constant type byte %d not recognized", rest[0])}
	}
}

func readCodeSeg(rest []byte, c *chunk.Chunk) ([]byte, error) {
	if len(rest) < 5+4 {
		return nil, errTruncated
	}
	if string(rest[:5]) != string(codeTag[:]) {
		return nil, &Error{Kind: "bad-segment", Msg: "expected .CODE segment"}
	}
	count := binary.LittleEndian.Uint32(rest[5:9])
	rest = rest[9:]
	if uint32(len(rest)) < count {
		return nil, errTruncated
	}
	for i, b := range rest[:count] {
		if err := c.Write(b, 0); err != nil {
			return nil, err
		}
		_ = i
	}
	return rest[count:], nil
}
