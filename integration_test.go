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

// End-to-end scenarios from spec.md §8, run across scan -> compile ->
// vm (and, for the round-trip scenario, bcfile too).
package clox_test

import (
	"bytes"
	"testing"

	"github.com/cloxlang/clox/bcfile"
	"github.com/cloxlang/clox/compile"
	"github.com/cloxlang/clox/value"
	"github.com/cloxlang/clox/vm"
)

func run(t *testing.T, v *vm.VM, src string) (string, error) {
	t.Helper()
	c, res := compile.Compile([]byte(src), v.Heap, compile.Options{})
	if err := res.Err(); err != nil {
		return "", err
	}
	var out bytes.Buffer
	v.Stdout = &out
	_, _, err := v.Interpret(c)
	return out.String(), err
}

func TestScenarioArithmetic(t *testing.T) {
	// spec.md §8 scenario 1: integer-truncating semantics are pinned
	// (DESIGN.md Open Question decisions), so -1+2-4*3/(-5-6+35) is
	// evaluated entirely in Integer arithmetic: (-1+2)=1, 4*3=12,
	// (-5-6+35)=24, 12/24 truncates toward zero to 0, so 1-0=1.
	out, err := run(t, vm.New(), `print (-1 + 2) - 4 * 3 / (-5 - 6 + 35);`)
	if err != nil {
		t.Fatal(err)
	}
	if out != "1\n" {
		t.Fatalf("got %q, want %q", out, "1\n")
	}
}

func TestScenarioGlobals(t *testing.T) {
	out, err := run(t, vm.New(), `var a=1; var b=2; var c=a+b; print c;`)
	if err != nil {
		t.Fatal(err)
	}
	if out != "3\n" {
		t.Fatalf("got %q, want %q", out, "3\n")
	}
}

func TestScenarioStringConcat(t *testing.T) {
	out, err := run(t, vm.New(), `print "foo" + "bar";`)
	if err != nil {
		t.Fatal(err)
	}
	if out != "foobar\n" {
		t.Fatalf("got %q, want %q", out, "foobar\n")
	}
}

func TestScenarioScope(t *testing.T) {
	out, err := run(t, vm.New(), `var x=1; { var x=2; print x; } print x;`)
	if err != nil {
		t.Fatal(err)
	}
	if out != "2\n1\n" {
		t.Fatalf("got %q, want %q", out, "2\n1\n")
	}
}

func TestScenarioControlFlow(t *testing.T) {
	out, err := run(t, vm.New(), `var i=0; while (i<3) { print i; i = i+1; }`)
	if err != nil {
		t.Fatal(err)
	}
	if out != "0\n1\n2\n" {
		t.Fatalf("got %q, want %q", out, "0\n1\n2\n")
	}
}

func TestScenarioRoundTrip(t *testing.T) {
	heap := value.NewHeap()
	c1, res := compile.Compile([]byte(`print 42;`), heap, compile.Options{})
	if err := res.Err(); err != nil {
		t.Fatal(err)
	}

	data, err := bcfile.Serialize(c1)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("_CODE42_")) {
		t.Fatalf("expected magic prefix _CODE42_, got %q", data[:8])
	}

	heap2 := value.NewHeap()
	c2, err := bcfile.Deserialize(data, heap2)
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	v := vm.New()
	v.Heap = heap2
	v.Stdout = &out
	if _, _, err := v.Interpret(c2); err != nil {
		t.Fatal(err)
	}
	if out.String() != "42\n" {
		t.Fatalf("got %q, want %q", out.String(), "42\n")
	}
}

func TestScenarioInvalidAssignmentTarget(t *testing.T) {
	_, res := compile.Compile([]byte("var a; var b; a*b = c+d;"), value.NewHeap(), compile.Options{})
	err := res.Err()
	if err == nil {
		t.Fatal("expected compile error")
	}
	cerr, ok := err.(*compile.Error)
	if !ok || cerr.Line != 1 {
		t.Fatalf("expected *compile.Error on line 1, got %v", err)
	}
}

func TestScenarioUndefinedGlobal(t *testing.T) {
	_, err := run(t, vm.New(), `print nope;`)
	if err == nil {
		t.Fatal("expected runtime error for undefined global")
	}
	rerr, ok := err.(*vm.RuntimeError)
	if !ok {
		t.Fatalf("expected *vm.RuntimeError, got %T", err)
	}
	if rerr.Msg != "undefined variable 'nope'" {
		t.Fatalf("got message %q", rerr.Msg)
	}
}
