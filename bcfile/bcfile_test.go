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

package bcfile

import (
	"bytes"
	"testing"

	"github.com/cloxlang/clox/chunk"
	"github.com/cloxlang/clox/opcode"
	"github.com/cloxlang/clox/value"
)

func buildSample(t *testing.T, heap *value.Heap) *chunk.Chunk {
	t.Helper()
	c := chunk.New()
	idx, err := c.AddConstant(value.IntVal(42))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.WriteOp(opcode.Constant, 1); err != nil {
		t.Fatal(err)
	}
	if err := c.Write(byte(idx), 1); err != nil {
		t.Fatal(err)
	}
	if err := c.WriteOp(opcode.Print, 1); err != nil {
		t.Fatal(err)
	}
	if err := c.WriteOp(opcode.Pop, 1); err != nil {
		t.Fatal(err)
	}

	name := heap.CopyString("a long enough string to cross the 62-byte inline length class, just in case")
	if _, err := c.AddConstant(value.ObjVal(name)); err != nil {
		t.Fatal(err)
	}
	return c
}

func TestRoundTrip(t *testing.T) {
	heap := value.NewHeap()
	c := buildSample(t, heap)

	data, err := Serialize(c)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, magic[:]) {
		t.Fatalf("missing magic prefix")
	}

	heap2 := value.NewHeap()
	got, err := Deserialize(data, heap2)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got.Code, c.Code) {
		t.Fatalf("code mismatch: got %v want %v", got.Code, c.Code)
	}
	if len(got.Constants) != len(c.Constants) {
		t.Fatalf("constant count mismatch: got %d want %d", len(got.Constants), len(c.Constants))
	}
	for i := range c.Constants {
		if !value.Equal(got.Constants[i], c.Constants[i]) {
			t.Fatalf("constant %d mismatch: got %v want %v", i, got.Constants[i], c.Constants[i])
		}
	}
}

func TestRoundTripCompressed(t *testing.T) {
	heap := value.NewHeap()
	c := buildSample(t, heap)

	raw, err := Serialize(c)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := WriteCompressed(&buf, raw); err != nil {
		t.Fatal(err)
	}
	got, err := ReadCompressed(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, raw) {
		t.Fatalf("decompressed bytes do not match serialize() output")
	}
}

func TestBadMagic(t *testing.T) {
	_, err := Deserialize([]byte("not a clox bytecode file at all"), value.NewHeap())
	if err == nil {
		t.Fatal("expected error for bad magic")
	}
	serr, ok := err.(*Error)
	if !ok || serr.Kind != "bad-magic" {
		t.Fatalf("expected bad-magic error, got %v", err)
	}
}

func TestTruncated(t *testing.T) {
	heap := value.NewHeap()
	c := buildSample(t, heap)
	data, err := Serialize(c)
	if err != nil {
		t.Fatal(err)
	}
	_, err = Deserialize(data[:len(data)-3], value.NewHeap())
	if err == nil {
		t.Fatal("expected truncation error")
	}
}

func TestVersionMismatch(t *testing.T) {
	heap := value.NewHeap()
	c := buildSample(t, heap)
	data, err := Serialize(c)
	if err != nil {
		t.Fatal(err)
	}
	data[8] = CurrentVersion.Major + 1
	_, err = Deserialize(data, value.NewHeap())
	if err == nil {
		t.Fatal("expected version mismatch error")
	}
	serr, ok := err.(*Error)
	if !ok || serr.Kind != "version-mismatch" {
		t.Fatalf("expected version-mismatch error, got %v", err)
	}
}
