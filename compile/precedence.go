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

import "github.com/cloxlang/clox/scan"

// Precedence implements the ladder in spec.md §4.5:
// NONE < ASSIGNMENT < OR < AND < EQUALITY < COMPARISON < TERM < FACTOR
// < UNARY < CALL < PRIMARY.
type Precedence int

const (
	precNone Precedence = iota
	precAssignment
	precOr
	precAnd
	precEquality
	precComparison
	precTerm
	precFactor
	precUnary
	precCall
	precPrimary
)

type parseFn func(c *compiler, canAssign bool)

type parseRule struct {
	prefix parseFn
	infix  parseFn
	prec   Precedence
}

// rules is the parse-rule table of function pointers (spec.md §4.5,
// §9), indexed by scan.Type. Grounded on the original clox
// ParseRule[] table (original_source/clox/src/compiler.h) and on
// spec.md §9's explicit instruction to pass the compiler as an
// explicit argument to each rule function rather than close over
// mutable state.
var rules map[scan.Type]parseRule

func init() {
	rules = map[scan.Type]parseRule{
		scan.LeftParen:     {prefix: grouping},
		scan.Minus:         {prefix: unary, infix: binary, prec: precTerm},
		scan.Plus:          {infix: binary, prec: precTerm},
		scan.Slash:         {infix: binary, prec: precFactor},
		scan.Star:          {infix: binary, prec: precFactor},
		scan.Bang:          {prefix: unary},
		scan.BangEqual:     {infix: binary, prec: precEquality},
		scan.EqualEqual:    {infix: binary, prec: precEquality},
		scan.Greater:       {infix: binary, prec: precComparison},
		scan.GreaterEqual:  {infix: binary, prec: precComparison},
		scan.Less:          {infix: binary, prec: precComparison},
		scan.LessEqual:     {infix: binary, prec: precComparison},
		scan.Identifier:    {prefix: variable},
		scan.String:        {prefix: stringLit},
		scan.Number:        {prefix: number},
		scan.NumberFloat:   {prefix: number},
		scan.False:         {prefix: literal},
		scan.True:          {prefix: literal},
		scan.Null:          {prefix: literal},
		scan.And:           {infix: and_, prec: precAnd},
		scan.Or:            {infix: or_, prec: precOr},
	}
}

func ruleFor(t scan.Type) parseRule { return rules[t] }

// parsePrecedence is the core Pratt loop (spec.md §4.5).
func (c *compiler) parsePrecedence(prec Precedence) {
	c.advance()
	prefix := ruleFor(c.previous.Type).prefix
	if prefix == nil {
		c.errorAt(c.previous.Line, "expect expression")
		return
	}
	canAssign := prec <= precAssignment
	prefix(c, canAssign)

	for prec <= ruleFor(c.current.Type).prec {
		c.advance()
		infix := ruleFor(c.previous.Type).infix
		infix(c, canAssign)
	}

	if canAssign && c.match(scan.Equal) {
		c.errorAt(c.previous.Line, "invalid assignment target")
	}
}

func (c *compiler) expression() {
	c.parsePrecedence(precAssignment)
}
