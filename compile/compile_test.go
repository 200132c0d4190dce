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
	"testing"

	"github.com/cloxlang/clox/value"
)

func TestCompileSimpleOK(t *testing.T) {
	heap := value.NewHeap()
	_, res := Compile([]byte(`var a = 1; print a;`), heap, Options{})
	if err := res.Err(); err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}
}

func TestInvalidAssignmentTarget(t *testing.T) {
	heap := value.NewHeap()
	_, res := Compile([]byte("var a; var b; a*b = c+d;"), heap, Options{})
	err := res.Err()
	if err == nil {
		t.Fatal("expected a compile error")
	}
	cerr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *compile.Error, got %T", err)
	}
	if cerr.Line != 1 {
		t.Fatalf("expected error on line 1, got line %d", cerr.Line)
	}
}

func TestRedeclaredLocal(t *testing.T) {
	heap := value.NewHeap()
	_, res := Compile([]byte(`{ var x = 1; var x = 2; }`), heap, Options{})
	if res.Err() == nil {
		t.Fatal("expected redeclaration error")
	}
}

func TestSelfReferentialInitializer(t *testing.T) {
	heap := value.NewHeap()
	_, res := Compile([]byte(`{ var x = x; }`), heap, Options{})
	if res.Err() == nil {
		t.Fatal("expected self-referential initializer error")
	}
}

func TestTooManyLocals(t *testing.T) {
	heap := value.NewHeap()
	src := "{\n"
	for i := 0; i < MaxLocals+1; i++ {
		src += "var v" + strconv.Itoa(i) + " = 0;\n"
	}
	src += "}\n"
	_, res := Compile([]byte(src), heap, Options{})
	if res.Err() == nil {
		t.Fatal("expected too-many-locals error")
	}
}

func TestPanicModeRecoversMultipleErrors(t *testing.T) {
	heap := value.NewHeap()
	_, res := Compile([]byte("var; var; print 1;"), heap, Options{})
	if len(res.Diagnostics()) < 2 {
		t.Fatalf("expected at least two diagnostics, got %d", len(res.Diagnostics()))
	}
}
