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

package vm

import (
	"fmt"

	"github.com/cloxlang/clox/opcode"
	"github.com/cloxlang/clox/value"
)

func (vm *VM) dispatch(op opcode.Op) error {
	switch op {
	case opcode.Constant:
		idx := vm.readByte()
		if int(idx) >= len(vm.chunk.Constants) {
			return &RuntimeError{Line: vm.currentLine(), Msg: "constant index out of range"}
		}
		return vm.push(vm.chunk.Constants[idx])

	case opcode.Null:
		return vm.push(value.NullValue)
	case opcode.True:
		return vm.push(value.BoolVal(true))
	case opcode.False:
		return vm.push(value.BoolVal(false))
	case opcode.Pop:
		_, err := vm.pop()
		return err

	case opcode.Negate:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		r, err := value.Negate(v)
		if err != nil {
			return &RuntimeError{Line: vm.currentLine(), Msg: err.Error()}
		}
		return vm.push(r)

	case opcode.Not:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		return vm.push(value.Not(v))

	case opcode.Add, opcode.Sub, opcode.Mul, opcode.Div:
		return vm.binaryArith(op)

	case opcode.Equal:
		b, err := vm.pop()
		if err != nil {
			return err
		}
		a, err := vm.pop()
		if err != nil {
			return err
		}
		return vm.push(value.BoolVal(value.Equal(a, b)))

	case opcode.Greater, opcode.Less:
		return vm.binaryCompare(op)

	case opcode.Print:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		fmt.Fprintln(vm.Stdout, v.String())
		return vm.push(v) // re-pushed; the following Pop (always emitted) removes it

	case opcode.GlobalVarDef:
		idx := vm.readByte()
		name, err := vm.constantName(idx)
		if err != nil {
			return err
		}
		v, err := vm.pop()
		if err != nil {
			return err
		}
		vm.Globals[name] = v
		return nil

	case opcode.GlobalVarGet:
		idx := vm.readByte()
		name, err := vm.constantName(idx)
		if err != nil {
			return err
		}
		v, ok := vm.Globals[name]
		if !ok {
			return &RuntimeError{Line: vm.currentLine(), Msg: fmt.Sprintf("undefined variable '%s'", name)}
		}
		return vm.push(v)

	case opcode.GlobalVarSet:
		idx := vm.readByte()
		name, err := vm.constantName(idx)
		if err != nil {
			return err
		}
		if _, ok := vm.Globals[name]; !ok {
			return &RuntimeError{Line: vm.currentLine(), Msg: fmt.Sprintf("undefined variable '%s'", name)}
		}
		top, err := vm.peek(0)
		if err != nil {
			return err
		}
		vm.Globals[name] = top
		return nil

	case opcode.LocalVarGet:
		slot := vm.readByte()
		return vm.push(vm.stack[int(slot)])

	case opcode.LocalVarSet:
		slot := vm.readByte()
		top, err := vm.peek(0)
		if err != nil {
			return err
		}
		vm.stack[int(slot)] = top
		return nil

	case opcode.Jump:
		off := vm.readJumpOffset()
		vm.ip += int(off)
		return nil

	case opcode.JumpIfFalse:
		off := vm.readJumpOffset()
		top, err := vm.peek(0)
		if err != nil {
			return err
		}
		if top.IsFalsey() {
			vm.ip += int(off)
		}
		return nil

	case opcode.JumpIfTrue:
		off := vm.readJumpOffset()
		top, err := vm.peek(0)
		if err != nil {
			return err
		}
		if !top.IsFalsey() {
			vm.ip += int(off)
		}
		return nil

	case opcode.ScopeBegin, opcode.ScopeEnd:
		return nil // debugger markers only, no runtime effect

	case opcode.Halt:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		if v.Tag() != value.Integer {
			return &RuntimeError{Line: vm.currentLine(), Msg: "exit code must be an integer"}
		}
		vm.halted = true
		vm.exitCode = v.AsInt()
		return nil

	case opcode.Return:
		if vm.sp > 0 {
			v, err := vm.peek(0)
			if err != nil {
				return err
			}
			fmt.Fprintln(vm.Stdout, v.String())
		}
		vm.ip = len(vm.chunk.Code)
		return nil

	default:
		return &RuntimeError{Line: vm.currentLine(), Msg: fmt.Sprintf("unknown opcode %d", byte(op))}
	}
}

func (vm *VM) constantName(idx byte) (string, error) {
	if int(idx) >= len(vm.chunk.Constants) {
		return "", &RuntimeError{Line: vm.currentLine(), Msg: "constant index out of range"}
	}
	c := vm.chunk.Constants[idx]
	if c.Tag() != value.Object || c.AsObj().Type != value.ObjString {
		return "", &RuntimeError{Line: vm.currentLine(), Msg: "global name constant is not a string"}
	}
	return c.AsObj().Str(), nil
}

func (vm *VM) binaryArith(op opcode.Op) error {
	b, err := vm.pop()
	if err != nil {
		return err
	}
	a, err := vm.pop()
	if err != nil {
		return err
	}
	var sym string
	switch op {
	case opcode.Add:
		sym = "+"
	case opcode.Sub:
		sym = "-"
	case opcode.Mul:
		sym = "*"
	case opcode.Div:
		sym = "/"
	}
	r, err := value.Arith(vm.Heap, sym, a, b)
	if err != nil {
		return &RuntimeError{Line: vm.currentLine(), Msg: err.Error()}
	}
	return vm.push(r)
}

func (vm *VM) binaryCompare(op opcode.Op) error {
	b, err := vm.pop()
	if err != nil {
		return err
	}
	a, err := vm.pop()
	if err != nil {
		return err
	}
	var r bool
	var cmpErr error
	if op == opcode.Greater {
		r, cmpErr = value.Greater(a, b)
	} else {
		r, cmpErr = value.Less(a, b)
	}
	if cmpErr != nil {
		return &RuntimeError{Line: vm.currentLine(), Msg: cmpErr.Error()}
	}
	return vm.push(value.BoolVal(r))
}
