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
	"github.com/cloxlang/clox/opcode"
	"github.com/cloxlang/clox/scan"
)

// declaration implements `declaration := varDecl | statement`
// (spec.md §4.5), with panic-mode recovery at each boundary.
func (c *compiler) declaration() {
	switch {
	case c.match(scan.Var):
		c.varDecl()
	default:
		c.statement()
	}
	if c.panicMode {
		c.synchronize()
	}
}

func (c *compiler) varDecl() {
	line := c.previous.Line
	// the mut-extension keyword is accepted and discarded; see
	// DESIGN.md's Open Question decision.
	if c.opt.AllowMut {
		c.match(scan.Mut)
	}
	c.consume(scan.Identifier, "expect variable name")
	name := c.lexeme(c.previous)
	nameLine := c.previous.Line

	global := -1
	if c.scopeDepth == 0 {
		global = c.identifierConstant(name, nameLine)
	} else {
		c.declareLocal(name, nameLine)
	}

	if c.match(scan.Equal) {
		c.expression()
	} else {
		c.emit(opcode.Null, nameLine)
	}
	c.consume(scan.Semicolon, "expect ';' after variable declaration")

	if global >= 0 {
		c.emit(opcode.GlobalVarDef, line)
		c.emitByte(byte(global), line)
	} else {
		c.markInitialized()
	}
}

func (c *compiler) statement() {
	switch {
	case c.match(scan.Print):
		c.printStmt()
	case c.match(scan.Exit):
		c.exitStmt()
	case c.match(scan.If):
		c.ifStmt()
	case c.match(scan.While):
		c.whileStmt()
	case c.match(scan.For):
		c.forStmt()
	case c.match(scan.LeftBrace):
		line := c.previous.Line
		c.beginScope(line)
		c.block()
		c.endScope(c.previous.Line)
	default:
		c.exprStmt()
	}
}

func (c *compiler) block() {
	for !c.check(scan.RightBrace) && !c.check(scan.EOF) {
		c.declaration()
	}
	c.consume(scan.RightBrace, "expect '}' after block")
}

func (c *compiler) printStmt() {
	line := c.previous.Line
	c.expression()
	c.consume(scan.Semicolon, "expect ';' after value")
	c.emit(opcode.Print, line)
	c.emit(opcode.Pop, line)
}

// exitStmt implements SPEC_FULL.md §12's `exit <expr>;` extension,
// recovered from original_source/clox/src/scanner.h's reserved word
// table: compile the operand, emit Halt.
func (c *compiler) exitStmt() {
	line := c.previous.Line
	c.expression()
	c.consume(scan.Semicolon, "expect ';' after exit code")
	c.emit(opcode.Halt, line)
}

func (c *compiler) exprStmt() {
	line := c.previous.Line
	c.expression()
	c.consume(scan.Semicolon, "expect ';' after expression")
	c.emit(opcode.Pop, line)
}

func (c *compiler) ifStmt() {
	line := c.previous.Line
	c.consume(scan.LeftParen, "expect '(' after 'if'")
	c.expression()
	c.consume(scan.RightParen, "expect ')' after condition")

	thenJump := c.emitJump(opcode.JumpIfFalse, line)
	c.emit(opcode.Pop, line)
	c.statement()

	elseLine := c.previous.Line
	endJump := c.emitJump(opcode.Jump, elseLine)
	c.patchJump(thenJump)
	c.emit(opcode.Pop, elseLine)

	if c.match(scan.Else) {
		c.statement()
	}
	c.patchJump(endJump)
}

func (c *compiler) whileStmt() {
	line := c.previous.Line
	loopStart := c.chunk.Len()
	c.consume(scan.LeftParen, "expect '(' after 'while'")
	c.expression()
	c.consume(scan.RightParen, "expect ')' after condition")

	exitJump := c.emitJump(opcode.JumpIfFalse, line)
	c.emit(opcode.Pop, line)
	c.statement()
	c.emitLoop(loopStart, c.previous.Line)

	c.patchJump(exitJump)
	c.emit(opcode.Pop, c.previous.Line)
}

// forStmt lowers `for` onto the same primitives as `while` (spec.md
// §4.5): an optional initializer in a fresh scope, then a while loop
// over the condition, with the increment spliced in after the body
// via a forward jump over it and a backward jump back to it.
func (c *compiler) forStmt() {
	line := c.previous.Line
	c.beginScope(line)
	c.consume(scan.LeftParen, "expect '(' after 'for'")

	switch {
	case c.match(scan.Semicolon):
		// no initializer
	case c.match(scan.Var):
		c.varDecl()
	default:
		c.exprStmt()
	}

	loopStart := c.chunk.Len()
	exitJump := -1
	if !c.check(scan.Semicolon) {
		c.expression()
		c.consume(scan.Semicolon, "expect ';' after loop condition")
		exitJump = c.emitJump(opcode.JumpIfFalse, c.previous.Line)
		c.emit(opcode.Pop, c.previous.Line)
	} else {
		c.consume(scan.Semicolon, "expect ';' after loop condition")
	}

	if !c.check(scan.RightParen) {
		bodyJump := c.emitJump(opcode.Jump, c.previous.Line)
		incrStart := c.chunk.Len()
		c.expression()
		c.emit(opcode.Pop, c.previous.Line)
		c.consume(scan.RightParen, "expect ')' after for clauses")
		c.emitLoop(loopStart, c.previous.Line)
		loopStart = incrStart
		c.patchJump(bodyJump)
	} else {
		c.consume(scan.RightParen, "expect ')' after for clauses")
	}

	c.statement()
	c.emitLoop(loopStart, c.previous.Line)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emit(opcode.Pop, c.previous.Line)
	}
	c.endScope(c.previous.Line)
}
