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

// Package scan turns source text into a lazy sequence of Tokens.
//
// Tokens reference the original source buffer by offset and length
// rather than copying (spec.md §4.4); the compiler is responsible for
// copying any bytes that need to outlive the source buffer, such as
// identifier names placed in a Chunk's constant pool (spec.md §5).
package scan

// Type identifies the lexical class of a Token.
type Type int

const (
	EOF Type = iota
	ErrorToken
	Comment

	// single/double-character punctuation
	LeftParen
	RightParen
	LeftBrace
	RightBrace
	Comma
	Dot
	Minus
	Plus
	Semicolon
	Slash
	Star
	Bang
	BangEqual
	Equal
	EqualEqual
	Greater
	GreaterEqual
	Less
	LessEqual

	// literals
	Identifier
	String
	Number
	NumberFloat

	// keywords
	And
	Class
	Else
	Exit
	False
	For
	If
	Null
	Or
	Print
	Return
	Super
	This
	True
	Var
	Mut
	While
)

var typeNames = map[Type]string{
	EOF: "EOF", ErrorToken: "Error", Comment: "Comment",
	LeftParen: "(", RightParen: ")", LeftBrace: "{", RightBrace: "}",
	Comma: ",", Dot: ".", Minus: "-", Plus: "+", Semicolon: ";",
	Slash: "/", Star: "*", Bang: "!", BangEqual: "!=", Equal: "=",
	EqualEqual: "==", Greater: ">", GreaterEqual: ">=", Less: "<",
	LessEqual: "<=", Identifier: "identifier", String: "string",
	Number: "number", NumberFloat: "float", And: "and", Class: "class",
	Else: "else", Exit: "exit", False: "false", For: "for", If: "if",
	Null: "null", Or: "or", Print: "print", Return: "return",
	Super: "super", This: "this", True: "true", Var: "var", Mut: "mut",
	While: "while",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "?"
}

// reserved words that always map to a keyword token.
var reserved = map[string]Type{
	"and": And, "class": Class, "else": Else, "exit": Exit,
	"false": False, "for": For, "if": If, "null": Null, "or": Or,
	"print": Print, "return": Return, "super": Super, "this": This,
	"true": True, "var": Var, "while": While,
}

// Token is a lexeme reference into the source buffer the Scanner was
// constructed with: Start/Length index into that buffer, never a copy.
type Token struct {
	Type   Type
	Start  int
	Length int
	Line   int
}

// Lexeme returns the token's text, borrowed from src (the same buffer
// the producing Scanner was built from).
func (t Token) Lexeme(src []byte) string {
	return string(src[t.Start : t.Start+t.Length])
}
