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
	"bytes"
	"testing"

	"github.com/cloxlang/clox/chunk"
	"github.com/cloxlang/clox/opcode"
	"github.com/cloxlang/clox/value"
)

func TestPushConstantAndPrint(t *testing.T) {
	c := chunk.New()
	idx, err := c.AddConstant(value.IntVal(7))
	if err != nil {
		t.Fatal(err)
	}
	must := func(e error) {
		t.Helper()
		if e != nil {
			t.Fatal(e)
		}
	}
	must(c.WriteOp(opcode.Constant, 1))
	must(c.Write(byte(idx), 1))
	must(c.WriteOp(opcode.Print, 1))
	must(c.WriteOp(opcode.Pop, 1))

	var out bytes.Buffer
	v := New()
	v.Stdout = &out
	_, halted, err := v.Interpret(c)
	if err != nil {
		t.Fatal(err)
	}
	if halted {
		t.Fatal("did not expect halt")
	}
	if out.String() != "7\n" {
		t.Fatalf("got %q, want %q", out.String(), "7\n")
	}
	if v.StackDepth() != 0 {
		t.Fatalf("expected empty stack after Print+Pop, got depth %d", v.StackDepth())
	}
}

func TestUndefinedGlobalIsRuntimeError(t *testing.T) {
	c := chunk.New()
	heap := value.NewHeap()
	name := heap.CopyString("nope")
	idx, err := c.AddConstant(value.ObjVal(name))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.WriteOp(opcode.GlobalVarGet, 3); err != nil {
		t.Fatal(err)
	}
	if err := c.Write(byte(idx), 3); err != nil {
		t.Fatal(err)
	}

	v := New()
	v.Heap = heap
	_, _, err = v.Interpret(c)
	if err == nil {
		t.Fatal("expected undefined-variable runtime error")
	}
	rerr, ok := err.(*RuntimeError)
	if !ok {
		t.Fatalf("expected *RuntimeError, got %T", err)
	}
	if rerr.Line != 3 {
		t.Fatalf("expected line 3, got %d", rerr.Line)
	}
}

func TestStackUnderflow(t *testing.T) {
	c := chunk.New()
	if err := c.WriteOp(opcode.Pop, 1); err != nil {
		t.Fatal(err)
	}
	v := New()
	_, _, err := v.Interpret(c)
	if err == nil {
		t.Fatal("expected stack underflow error")
	}
}

func TestStackOverflow(t *testing.T) {
	c := chunk.New()
	idx, err := c.AddConstant(value.IntVal(1))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < StackCapacity+1; i++ {
		if err := c.WriteOp(opcode.Constant, 1); err != nil {
			t.Fatal(err)
		}
		if err := c.Write(byte(idx), 1); err != nil {
			t.Fatal(err)
		}
	}
	v := New()
	_, _, err = v.Interpret(c)
	if err == nil {
		t.Fatal("expected stack overflow error")
	}
}

func TestGlobalsAndHeapPersistAcrossInterpretCalls(t *testing.T) {
	v := New()

	c1 := chunk.New()
	name := v.Heap.CopyString("a")
	idx, err := c1.AddConstant(value.ObjVal(name))
	if err != nil {
		t.Fatal(err)
	}
	vidx, err := c1.AddConstant(value.IntVal(5))
	if err != nil {
		t.Fatal(err)
	}
	must := func(e error) {
		t.Helper()
		if e != nil {
			t.Fatal(e)
		}
	}
	must(c1.WriteOp(opcode.Constant, 1))
	must(c1.Write(byte(vidx), 1))
	must(c1.WriteOp(opcode.GlobalVarDef, 1))
	must(c1.Write(byte(idx), 1))
	if _, _, err := v.Interpret(c1); err != nil {
		t.Fatal(err)
	}

	c2 := chunk.New()
	idx2, err := c2.AddConstant(value.ObjVal(name))
	if err != nil {
		t.Fatal(err)
	}
	must(c2.WriteOp(opcode.GlobalVarGet, 1))
	must(c2.Write(byte(idx2), 1))
	must(c2.WriteOp(opcode.Print, 1))
	must(c2.WriteOp(opcode.Pop, 1))

	var out bytes.Buffer
	v.Stdout = &out
	if _, _, err := v.Interpret(c2); err != nil {
		t.Fatal(err)
	}
	if out.String() != "5\n" {
		t.Fatalf("expected global to persist across Interpret calls, got %q", out.String())
	}
}

func TestHaltOpcode(t *testing.T) {
	c := chunk.New()
	idx, err := c.AddConstant(value.IntVal(2))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.WriteOp(opcode.Constant, 1); err != nil {
		t.Fatal(err)
	}
	if err := c.Write(byte(idx), 1); err != nil {
		t.Fatal(err)
	}
	if err := c.WriteOp(opcode.Halt, 1); err != nil {
		t.Fatal(err)
	}

	v := New()
	code, halted, err := v.Interpret(c)
	if err != nil {
		t.Fatal(err)
	}
	if !halted || code != 2 {
		t.Fatalf("expected halted=true code=2, got halted=%v code=%d", halted, code)
	}
}
