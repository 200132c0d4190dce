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

package scan

import "testing"

func scanAll(t *testing.T, src string) []Token {
	t.Helper()
	s := New([]byte(src))
	var toks []Token
	for {
		tok, err := s.Next()
		if err != nil {
			t.Fatalf("unexpected scan error: %v", err)
		}
		toks = append(toks, tok)
		if tok.Type == EOF {
			break
		}
	}
	return toks
}

func TestBasicTokens(t *testing.T) {
	src := `var a = 1 + 2.5;`
	toks := scanAll(t, src)
	want := []Type{Var, Identifier, Equal, Number, Plus, NumberFloat, Semicolon, EOF}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %+v", len(toks), len(want), toks)
	}
	for i, w := range want {
		if toks[i].Type != w {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Type, w)
		}
	}
}

func TestStringWithEmbeddedNewline(t *testing.T) {
	src := "\"foo\nbar\";"
	s := New([]byte(src))
	tok, err := s.Next()
	if err != nil {
		t.Fatal(err)
	}
	if tok.Type != String {
		t.Fatalf("got %s, want String", tok.Type)
	}
	semi, err := s.Next()
	if err != nil {
		t.Fatal(err)
	}
	if semi.Line != 2 {
		t.Fatalf("expected line counter to advance past embedded newline, got line %d", semi.Line)
	}
}

func TestUnterminatedString(t *testing.T) {
	s := New([]byte(`"abc`))
	_, err := s.Next()
	if err == nil {
		t.Fatal("expected unterminated string error")
	}
}

func TestCommentsSurfaced(t *testing.T) {
	toks := scanAll(t, "// line comment\n/* block */ var")
	if toks[0].Type != Comment || toks[1].Type != Comment || toks[2].Type != Var {
		t.Fatalf("unexpected token sequence: %+v", toks)
	}
}

func TestMutKeywordGated(t *testing.T) {
	s := New([]byte("mut"))
	tok, err := s.Next()
	if err != nil {
		t.Fatal(err)
	}
	if tok.Type != Identifier {
		t.Fatalf("expected mut to scan as Identifier when AllowMut is false, got %s", tok.Type)
	}

	s2 := New([]byte("mut"))
	s2.AllowMut = true
	tok2, err := s2.Next()
	if err != nil {
		t.Fatal(err)
	}
	if tok2.Type != Mut {
		t.Fatalf("expected Mut token when AllowMut is true, got %s", tok2.Type)
	}
}

func TestUnexpectedCharacter(t *testing.T) {
	s := New([]byte("@"))
	_, err := s.Next()
	if err == nil {
		t.Fatal("expected error for unexpected character")
	}
}
