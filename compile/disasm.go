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
	encbinary "encoding/binary"
	"fmt"
	"io"

	"github.com/cloxlang/clox/chunk"
	"github.com/cloxlang/clox/opcode"
)

// Disassemble writes a human-readable instruction listing of c to w,
// for the driver's `-disassemble` flag. It is a debugging aid with no
// invariants of its own (spec.md §1 calls disassembly out of the
// core's design substance; see SPEC_FULL.md §12).
func Disassemble(w io.Writer, c *chunk.Chunk, name string) {
	fmt.Fprintf(w, "== %s ==\n", name)
	for pos := 0; pos < c.Len(); {
		pos = disassembleInstruction(w, c, pos)
	}
}

func disassembleInstruction(w io.Writer, c *chunk.Chunk, pos int) int {
	op := opcode.Op(c.Code[pos])
	line := c.LineOf(pos)
	fmt.Fprintf(w, "%04d %4d %s", pos, line, op)

	width := opcode.OperandWidth(op)
	switch width {
	case 0:
		fmt.Fprintln(w)
		return pos + 1
	case 1:
		operand := c.Code[pos+1]
		switch op {
		case opcode.Constant, opcode.GlobalVarDef, opcode.GlobalVarGet, opcode.GlobalVarSet:
			if int(operand) < len(c.Constants) {
				fmt.Fprintf(w, " %d (%v)\n", operand, c.Constants[operand])
			} else {
				fmt.Fprintf(w, " %d (out of range)\n", operand)
			}
		default:
			fmt.Fprintf(w, " %d\n", operand)
		}
		return pos + 2
	case 2:
		disp := int16(encbinary.BigEndian.Uint16(c.Code[pos+1 : pos+3]))
		fmt.Fprintf(w, " %d -> %d\n", disp, pos+3+int(disp))
		return pos + 3
	default:
		fmt.Fprintln(w)
		return pos + 1
	}
}
