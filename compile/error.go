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

import "fmt"

// Error is a ParseError or CompileError (spec.md §7): a syntax
// problem or a semantic one (too many locals, jump too large,
// redeclared local, invalid assignment target), always tied to a
// source line. Grounded on expr.SyntaxError/expr.TypeError
// (SnellerInc/sneller, expr/check.go), whose At-node is replaced here
// with a line number since this compiler never builds an AST.
type Error struct {
	Line int
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("[line %d] Error: %s", e.Line, e.Msg)
}

func errat(line int, format string, args ...interface{}) *Error {
	return &Error{Line: line, Msg: fmt.Sprintf(format, args...)}
}

// Result carries every diagnostic collected across one Compile call's
// panic-mode recovery (spec.md §4.5 "Panic-mode recovery"): multiple
// errors may be reported, but Err returns only the first, matching
// expr.Check's convention of joining errors with "%w and %d other
// errors" while still surfacing the earliest one as the primary cause.
type Result struct {
	diagnostics []*Error
}

// Err returns the first diagnostic recorded, or nil if compilation
// produced none.
func (r *Result) Err() error {
	if len(r.diagnostics) == 0 {
		return nil
	}
	return r.diagnostics[0]
}

// Diagnostics returns every error recorded during compilation, in the
// order they were produced.
func (r *Result) Diagnostics() []error {
	out := make([]error, len(r.diagnostics))
	for i, d := range r.diagnostics {
		out[i] = d
	}
	return out
}
