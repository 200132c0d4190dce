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

// Package compile implements the single-pass Pratt compiler: it
// consumes scan.Tokens and emits bytecode directly into a chunk.Chunk,
// with no intermediate AST (spec.md §1, §4.5).
package compile

import (
	"github.com/cloxlang/clox/chunk"
	"github.com/cloxlang/clox/opcode"
	"github.com/cloxlang/clox/scan"
	"github.com/cloxlang/clox/value"
)

// MaxLocals is the largest number of local variables live in one
// scope chain at once; slot indices are single bytes (spec.md §4.5
// "Locals exceed 255 ⇒ compile error").
const MaxLocals = 255

// Options configures compiler behavior that spec.md §6/§9 leaves as
// toggles with no effect on the emitted bytecode's shape:
// AllowDynamicVariables and DefaultConstVariables are accepted and
// threaded through but do not currently change codegen (see
// DESIGN.md's Open Question decision on `mut`).
type Options struct {
	AllowDynamicVariables bool
	DefaultConstVariables bool
	AllowMut              bool
}

type local struct {
	name        string
	depth       int
	initialized bool
}

// compiler holds all single-pass compilation state: the token cursor,
// the chunk being emitted into, and the local-variable table. There
// is exactly one compiler per Compile call; it does not recurse into
// sub-compilers (no nested function bodies, per spec.md's Non-goals).
type compiler struct {
	src []byte
	sc  *scan.Scanner
	opt Options

	current  scan.Token
	previous scan.Token

	panicMode bool
	diags     []*Error

	chunk *chunk.Chunk
	heap  *value.Heap

	locals     []local
	scopeDepth int
}

// Compile parses src and emits bytecode for it into a fresh
// chunk.Chunk. It always returns a non-nil chunk (possibly partial, if
// errors were recorded) and a Result describing every diagnostic
// collected via panic-mode recovery; callers should check
// Result.Err() before executing the chunk.
func Compile(src []byte, heap *value.Heap, opt Options) (*chunk.Chunk, *Result) {
	c := &compiler{
		src:   src,
		sc:    scan.New(src),
		opt:   opt,
		chunk: chunk.New(),
		heap:  heap,
	}
	c.sc.AllowMut = opt.AllowMut
	c.advance()
	for !c.check(scan.EOF) {
		c.declaration()
	}
	c.emit(opcode.Return, c.previous.Line)
	return c.chunk, &Result{diagnostics: c.diags}
}

func (c *compiler) advance() {
	c.previous = c.current
	for {
		tok, err := c.sc.Next()
		if err != nil {
			se := err.(*scan.Error)
			c.errorAt(se.Line, "%s", se.Msg)
			continue
		}
		c.current = tok
		if tok.Type == scan.Comment {
			continue
		}
		break
	}
}

func (c *compiler) check(t scan.Type) bool { return c.current.Type == t }

func (c *compiler) match(t scan.Type) bool {
	if !c.check(t) {
		return false
	}
	c.advance()
	return true
}

func (c *compiler) consume(t scan.Type, msg string) {
	if c.current.Type == t {
		c.advance()
		return
	}
	c.errorAtCurrent(msg)
}

func (c *compiler) lexeme(t scan.Token) string { return t.Lexeme(c.src) }

func (c *compiler) errorAtCurrent(msg string) { c.errorAt(c.current.Line, "%s", msg) }

func (c *compiler) errorAt(line int, format string, args ...interface{}) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.diags = append(c.diags, errat(line, format, args...))
}

// synchronize implements panic-mode recovery (spec.md §4.5): advance
// past tokens until a statement boundary (a `;`, or a token that
// starts a new statement) so the next declaration starts clean.
func (c *compiler) synchronize() {
	c.panicMode = false
	for c.current.Type != scan.EOF {
		if c.previous.Type == scan.Semicolon {
			return
		}
		switch c.current.Type {
		case scan.Class, scan.Var, scan.For, scan.If, scan.While, scan.Print, scan.Return:
			return
		}
		c.advance()
	}
}

// ---- bytecode emission helpers ----

func (c *compiler) emit(op opcode.Op, line int) {
	if err := c.chunk.WriteOp(op, line); err != nil {
		c.errorAt(line, "%s", err)
	}
}

func (c *compiler) emitByte(b byte, line int) {
	if err := c.chunk.Write(b, line); err != nil {
		c.errorAt(line, "%s", err)
	}
}

func (c *compiler) emitConstant(v value.Value, line int) {
	idx, err := c.chunk.AddConstant(v)
	if err != nil {
		c.errorAt(line, "%s", err)
		return
	}
	c.emit(opcode.Constant, line)
	c.emitByte(byte(idx), line)
}

// emitJump writes op followed by a two-byte placeholder displacement
// and returns the offset of the first placeholder byte, to be passed
// to patchJump later (spec.md §4.5 "Jump patching").
func (c *compiler) emitJump(op opcode.Op, line int) int {
	c.emit(op, line)
	c.emitByte(0xff, line)
	c.emitByte(0xff, line)
	return c.chunk.Len() - 2
}

// patchJump backfills the displacement at offset with the distance
// from just past the placeholder to the current code position.
func (c *compiler) patchJump(offset int) {
	disp := c.chunk.Len() - offset - 2
	if disp > 0xffff {
		c.errorAt(c.previous.Line, "jump too large")
		return
	}
	c.chunk.Code[offset] = byte(uint16(disp) >> 8)
	c.chunk.Code[offset+1] = byte(uint16(disp))
}

// emitLoop emits an unconditional backward Jump to loopStart.
func (c *compiler) emitLoop(loopStart int, line int) {
	c.emit(opcode.Jump, line)
	disp := -(c.chunk.Len() - loopStart + 2)
	if disp < -0x8000 {
		c.errorAt(line, "jump too large")
		return
	}
	c.emitByte(byte(uint16(disp)>>8), line)
	c.emitByte(byte(uint16(disp)), line)
}
