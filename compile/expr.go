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

package compile

import (
	"strconv"

	"github.com/cloxlang/clox/opcode"
	"github.com/cloxlang/clox/scan"
	"github.com/cloxlang/clox/value"
)

func number(c *compiler, canAssign bool) {
	lex := c.lexeme(c.previous)
	line := c.previous.Line
	if c.previous.Type == scan.NumberFloat {
		f, err := strconv.ParseFloat(lex, 64)
		if err != nil {
			c.errorAt(line, "invalid number literal %q", lex)
			return
		}
		c.emitConstant(value.NumVal(f), line)
		return
	}
	n, err := strconv.ParseInt(lex, 10, 32)
	if err != nil {
		c.errorAt(line, "invalid integer literal %q", lex)
		return
	}
	c.emitConstant(value.IntVal(int32(n)), line)
}

func stringLit(c *compiler, canAssign bool) {
	lex := c.lexeme(c.previous)
	line := c.previous.Line
	// strip surrounding quotes
	body := lex[1 : len(lex)-1]
	obj := c.heap.CopyString(body)
	c.emitConstant(value.ObjVal(obj), line)
}

func literal(c *compiler, canAssign bool) {
	line := c.previous.Line
	switch c.previous.Type {
	case scan.Null:
		c.emit(opcode.Null, line)
	case scan.True:
		c.emit(opcode.True, line)
	case scan.False:
		c.emit(opcode.False, line)
	}
}

func grouping(c *compiler, canAssign bool) {
	c.expression()
	c.consume(scan.RightParen, "expect ')' after expression")
}

func unary(c *compiler, canAssign bool) {
	op := c.previous.Type
	line := c.previous.Line
	c.parsePrecedence(precUnary)
	switch op {
	case scan.Minus:
		c.emit(opcode.Negate, line)
	case scan.Bang:
		c.emit(opcode.Not, line)
	}
}

func binary(c *compiler, canAssign bool) {
	op := c.previous.Type
	line := c.previous.Line
	rule := ruleFor(op)
	c.parsePrecedence(rule.prec + 1)

	switch op {
	case scan.Plus:
		c.emit(opcode.Add, line)
	case scan.Minus:
		c.emit(opcode.Sub, line)
	case scan.Star:
		c.emit(opcode.Mul, line)
	case scan.Slash:
		c.emit(opcode.Div, line)
	case scan.EqualEqual:
		c.emit(opcode.Equal, line)
	case scan.BangEqual:
		c.emit(opcode.Equal, line)
		c.emit(opcode.Not, line)
	case scan.Greater:
		c.emit(opcode.Greater, line)
	case scan.GreaterEqual:
		c.emit(opcode.Less, line)
		c.emit(opcode.Not, line)
	case scan.Less:
		c.emit(opcode.Less, line)
	case scan.LessEqual:
		c.emit(opcode.Greater, line)
		c.emit(opcode.Not, line)
	}
}

// and_ implements short-circuiting `and` with JumpIfFalse: if the left
// operand is falsey, skip evaluating the right operand entirely and
// leave the falsey left value as the result.
func and_(c *compiler, canAssign bool) {
	line := c.previous.Line
	endJump := c.emitJump(opcode.JumpIfFalse, line)
	c.emit(opcode.Pop, line)
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

// or_ implements short-circuiting `or` with JumpIfTrue, the symmetric
// counterpart (spec.md §4.6's instruction table calls JumpIfTrue out
// explicitly for this purpose).
func or_(c *compiler, canAssign bool) {
	line := c.previous.Line
	endJump := c.emitJump(opcode.JumpIfTrue, line)
	c.emit(opcode.Pop, line)
	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

// variable resolves an identifier as either a local slot or a global
// name, emitting the matching Get/Set opcode (spec.md §4.5 "variable").
func variable(c *compiler, canAssign bool) {
	name := c.lexeme(c.previous)
	line := c.previous.Line

	if slot, ok := c.resolveLocal(name); ok {
		if canAssign && c.match(scan.Equal) {
			c.expression()
			c.emit(opcode.LocalVarSet, line)
			c.emitByte(byte(slot), line)
			return
		}
		c.emit(opcode.LocalVarGet, line)
		c.emitByte(byte(slot), line)
		return
	}

	idx := c.identifierConstant(name, line)
	if canAssign && c.match(scan.Equal) {
		c.expression()
		c.emit(opcode.GlobalVarSet, line)
		c.emitByte(byte(idx), line)
		return
	}
	c.emit(opcode.GlobalVarGet, line)
	c.emitByte(byte(idx), line)
}

// identifierConstant interns name as a string constant (a copy, so it
// outlives the source buffer per spec.md §5) and returns its pool
// index.
func (c *compiler) identifierConstant(name string, line int) int {
	var obj *value.Obj
	if existing, ok := c.heap.FindString(name); ok {
		obj = existing
	} else {
		obj = c.heap.CopyString(name)
	}
	idx, err := c.chunk.AddConstant(value.ObjVal(obj))
	if err != nil {
		c.errorAt(line, "%s", err)
		return 0
	}
	return idx
}
