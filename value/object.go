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

package value

import "github.com/dchest/siphash"

// ObjType discriminates the variants of Obj. String is the only
// variant implemented by the core; ObjFunction is reserved (spec.md
// §9, opcode.Return) for a future closures/calls extension and is
// never constructed here.
type ObjType byte

const (
	ObjString ObjType = iota
	ObjFunction
)

// Obj is a heap-allocated, reference-counted-by-nothing object: its
// lifetime is governed entirely by the owning Heap's allocation list,
// never by the Values that reference it (see Heap).
type Obj struct {
	Type ObjType
	str  string // valid when Type == ObjString

	next *Obj // intrusive link in the owning Heap's allocation list
}

func (o *Obj) String() string {
	switch o.Type {
	case ObjString:
		return o.str
	default:
		return "<object>"
	}
}

// Str returns the string payload; valid only when Type == ObjString.
func (o *Obj) Str() string { return o.str }

// Len returns the cached byte length of a string object.
func (o *Obj) Len() int { return len(o.str) }

// Heap is the VM-owned arena that exclusively owns every allocated
// Obj. It tracks allocations on an intrusive singly-linked list
// (spec.md §3, "Object") and additionally indexes the strings it
// allocates by siphash, so FindString can look up an existing object
// with the same bytes without walking the list; the final decision
// about equality is always a byte-for-byte comparison. The index is
// not used by chunk.AddConstant, which scans its pool linearly.
//
// All objects are freed when the Heap is discarded (Free); there is
// no reachability analysis and no cycle collection, per spec.md §1/§5.
type Heap struct {
	head *Obj // most recently allocated object

	k0, k1 uint64 // siphash key, fixed for the Heap's lifetime
	index  map[uint64][]*Obj
}

// NewHeap creates an empty allocation arena.
func NewHeap() *Heap {
	return &Heap{
		k0:    0x636c6f78766d3432, // "cloxvm42" — fixed, not secret
		k1:    0x6865617073697068, // "heapsiph"
		index: make(map[uint64][]*Obj),
	}
}

func (h *Heap) link(o *Obj) *Obj {
	o.next = h.head
	h.head = o
	return o
}

// NewString allocates an empty string object. It is not added to the
// siphash index.
func (h *Heap) NewString() *Obj {
	return h.link(&Obj{Type: ObjString})
}

// CopyString allocates a string object by copying s (e.g. a scanner
// lexeme, which must not be retained past the source buffer's
// lifetime per spec.md §5).
func (h *Heap) CopyString(s string) *Obj {
	cp := string(append([]byte(nil), s...))
	o := h.link(&Obj{Type: ObjString, str: cp})
	h.internString(o)
	return o
}

// ConcatStrings allocates a new string object holding a's bytes
// followed by b's bytes.
func (h *Heap) ConcatStrings(a, b *Obj) *Obj {
	buf := make([]byte, 0, len(a.str)+len(b.str))
	buf = append(buf, a.str...)
	buf = append(buf, b.str...)
	o := h.link(&Obj{Type: ObjString, str: string(buf)})
	h.internString(o)
	return o
}

func (h *Heap) hashString(s string) uint64 {
	return siphash.Hash(h.k0, h.k1, []byte(s))
}

func (h *Heap) internString(o *Obj) {
	k := h.hashString(o.str)
	h.index[k] = append(h.index[k], o)
}

// FindString returns a previously allocated string object with
// identical contents, if one exists. The compiler uses it to reuse an
// existing object for an identifier name instead of allocating a new
// one: the siphash bucket narrows the search to objects that are very
// likely equal, and FindString still compares bytes before returning.
func (h *Heap) FindString(s string) (*Obj, bool) {
	bucket := h.index[h.hashString(s)]
	for _, o := range bucket {
		if o.str == s {
			return o, true
		}
	}
	return nil, false
}

// Free releases every allocation tracked by the Heap. Called when the
// owning VM session ends (spec.md §5); there is no partial free.
func (h *Heap) Free() {
	h.head = nil
	h.index = make(map[uint64][]*Obj)
}

// Count reports the number of live allocations, for diagnostics only.
func (h *Heap) Count() int {
	n := 0
	for o := h.head; o != nil; o = o.next {
		n++
	}
	return n
}
