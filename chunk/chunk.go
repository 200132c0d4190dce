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

// Package chunk implements the compact bytecode buffer the compiler
// emits into and the VM executes: a byte-addressable code stream, a
// deduplicated constant pool, and a line table mapping code positions
// back to source lines.
package chunk

import (
	"fmt"

	"github.com/cloxlang/clox/opcode"
	"github.com/cloxlang/clox/value"
)

// MaxConstants is the largest number of distinct constants a Chunk
// may hold; Constant/Global* opcodes spend a single byte on the pool
// index (spec.md §3).
const MaxConstants = 256

// MaxCode is the largest number of code bytes a Chunk may hold; code
// positions are addressed with a 16-bit index (spec.md §3).
const MaxCode = 65535

// lineRun is one entry of the run-length-encoded line table: "the
// next `count` bytes of code were all emitted while compiling source
// line `line`". Grounded on clox/src/chunk.h's run-compressed
// LineInfo vector (original_source/), since spec.md leaves the exact
// encoding as an implementation detail behind lineOf.
type lineRun struct {
	line  int
	count int
}

// Chunk owns a compiled unit of bytecode: the code stream, the
// constant pool, and the line table. Chunks are produced by the
// compiler, optionally round-tripped through bcfile, and executed by
// the VM.
type Chunk struct {
	Code      []byte
	Constants []value.Value
	lines     []lineRun
}

// New returns an empty Chunk.
func New() *Chunk {
	return &Chunk{}
}

// TooLargeError reports that a Chunk invariant (code length or
// constant count) would be violated.
type TooLargeError struct {
	What  string
	Limit int
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("%s exceeds limit of %d", e.What, e.Limit)
}

// Write appends a single byte to the code stream, recording that it
// was emitted for the given source line.
func (c *Chunk) Write(b byte, line int) error {
	if len(c.Code) >= MaxCode {
		return &TooLargeError{What: "chunk code", Limit: MaxCode}
	}
	c.Code = append(c.Code, b)
	if n := len(c.lines); n > 0 && c.lines[n-1].line == line {
		c.lines[n-1].count++
	} else {
		c.lines = append(c.lines, lineRun{line: line, count: 1})
	}
	return nil
}

// WriteOp appends an opcode byte.
func (c *Chunk) WriteOp(op opcode.Op, line int) error {
	return c.Write(byte(op), line)
}

// AddConstant returns the index of v in the constant pool, appending
// it if no equal value is already present (spec.md §4.2: "linear-
// search the pool for an equal Value; return existing index, else
// append"). Every call scans the whole pool with value.Equal, which
// compares Object::String constants byte for byte; the Heap's siphash
// index is not consulted here.
func (c *Chunk) AddConstant(v value.Value) (int, error) {
	for i, existing := range c.Constants {
		if value.Equal(existing, v) {
			return i, nil
		}
	}
	if len(c.Constants) >= MaxConstants {
		return 0, &TooLargeError{What: "constant pool", Limit: MaxConstants}
	}
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1, nil
}

// LineOf returns the source line that produced the instruction at
// codePos.
func (c *Chunk) LineOf(codePos int) int {
	pos := 0
	for _, run := range c.lines {
		pos += run.count
		if codePos < pos {
			return run.line
		}
	}
	if len(c.lines) == 0 {
		return 0
	}
	return c.lines[len(c.lines)-1].line
}

// Len returns the number of code bytes currently written.
func (c *Chunk) Len() int { return len(c.Code) }
