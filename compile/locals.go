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
	"golang.org/x/exp/slices"

	"github.com/cloxlang/clox/opcode"
)

// resolveLocal scans the locals table back-to-front for name,
// returning its stack slot (spec.md §4.5 "Local resolution rules").
// Referencing a local still mid-initialization (its own initializer
// referring to itself) is a compile error.
func (c *compiler) resolveLocal(name string) (int, bool) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		l := c.locals[i]
		if l.name != name {
			continue
		}
		if !l.initialized {
			c.errorAt(c.previous.Line, "cannot read local variable %q in its own initializer", name)
			return 0, false
		}
		return i, true
	}
	return 0, false
}

// declareLocal registers name as a new local in the current scope.
// Redeclaring a name already present at the same depth is a compile
// error (spec.md §4.5).
func (c *compiler) declareLocal(name string, line int) {
	if c.scopeDepth == 0 {
		return
	}
	conflict := slices.IndexFunc(c.locals, func(l local) bool {
		return l.depth == c.scopeDepth && l.name == name
	}) >= 0
	if conflict {
		c.errorAt(line, "variable %q already declared in this scope", name)
		return
	}
	if len(c.locals) >= MaxLocals {
		c.errorAt(line, "too many local variables in scope")
		return
	}
	c.locals = append(c.locals, local{name: name, depth: c.scopeDepth})
}

// markInitialized flips the most recently declared local's
// initialized bit, allowed to be referenced by subsequent expressions.
func (c *compiler) markInitialized() {
	if c.scopeDepth == 0 || len(c.locals) == 0 {
		return
	}
	c.locals[len(c.locals)-1].initialized = true
}

func (c *compiler) beginScope(line int) {
	c.scopeDepth++
	c.emit(opcode.ScopeBegin, line)
}

// endScope pops every local whose depth exceeds the scope being
// closed, one Pop per local, then emits ScopeEnd (spec.md §4.5 "block").
func (c *compiler) endScope(line int) {
	c.scopeDepth--
	for len(c.locals) > 0 && c.locals[len(c.locals)-1].depth > c.scopeDepth {
		c.emit(opcode.Pop, line)
		c.locals = c.locals[:len(c.locals)-1]
	}
	c.emit(opcode.ScopeEnd, line)
}
