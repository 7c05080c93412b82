// Copyright 2025 Ian Lewis
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ispell

import (
	"encoding/binary"

	"github.com/ianlewis/go-ispell/aff"
)

// The word trie is stored as a flat byte arena so that it can be mapped
// into memory and shared between processes without relocation. Nodes
// reference their children by arena offset rather than by pointer.
//
// Node layout (little endian):
//
//	count    uint32
//	entries  count * 10 bytes:
//	    val    uint8   byte value at this level
//	    bits   uint8   bit 0: end of word, bits 1-4: compound attrs
//	    affix  uint32  index into the affix set table
//	    child  uint32  arena offset of the child node
//
// Entries are sorted by val and searched with binary search.
const (
	trieNodeHdrSize  = 4
	trieEntrySize    = 10
	trieInvalidOFF   = ^uint32(0)
	trieEntryIsWord  = 0x01
	trieEntryAttrOff = 1
)

// trieArena is a word trie in its serialized form.
type trieArena []byte

// trieEntry is a decoded trie node entry.
type trieEntry struct {
	val    byte
	isword bool
	attr   aff.Attr
	affix  uint32
	child  uint32
}

// node returns the entry count and entry region of the node at the
// given offset.
func (a trieArena) node(off uint32) (uint32, []byte) {
	count := binary.LittleEndian.Uint32(a[off:])
	start := off + trieNodeHdrSize
	return count, a[start : start+count*trieEntrySize]
}

func decodeTrieEntry(b []byte) trieEntry {
	return trieEntry{
		val:    b[0],
		isword: b[1]&trieEntryIsWord != 0,
		attr:   aff.Attr(b[1] >> trieEntryAttrOff),
		affix:  binary.LittleEndian.Uint32(b[2:]),
		child:  binary.LittleEndian.Uint32(b[6:]),
	}
}

// find binary searches the node at off for the given byte value.
func (a trieArena) find(off uint32, val byte) (trieEntry, bool) {
	count, entries := a.node(off)
	lo, hi := uint32(0), count
	for lo < hi {
		mid := lo + (hi-lo)/2
		e := entries[mid*trieEntrySize:]
		switch {
		case e[0] == val:
			return decodeTrieEntry(e), true
		case e[0] < val:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return trieEntry{}, false
}

// walk descends the trie along the bytes of s starting from the node at
// off. It returns the offset of the node reached after consuming s.
func (a trieArena) walk(off uint32, s string) uint32 {
	for i := 0; i < len(s); i++ {
		if off == trieInvalidOFF {
			return trieInvalidOFF
		}
		e, ok := a.find(off, s[i])
		if !ok {
			return trieInvalidOFF
		}
		off = e.child
	}
	return off
}

// trieBuilder accumulates trie nodes during compilation.
type trieBuilder struct {
	arena []byte
}

// alloc reserves a node with the given entry count and returns its
// offset. Entries are zeroed with invalid child offsets.
func (b *trieBuilder) alloc(count int) uint32 {
	off := uint32(len(b.arena))
	size := trieNodeHdrSize + count*trieEntrySize
	b.arena = append(b.arena, make([]byte, size)...)
	binary.LittleEndian.PutUint32(b.arena[off:], uint32(count))
	for i := 0; i < count; i++ {
		b.setChild(off, i, trieInvalidOFF)
	}
	return off
}

func (b *trieBuilder) entry(node uint32, i int) []byte {
	start := node + trieNodeHdrSize + uint32(i)*trieEntrySize
	return b.arena[start : start+trieEntrySize]
}

func (b *trieBuilder) setVal(node uint32, i int, val byte) {
	b.entry(node, i)[0] = val
}

func (b *trieBuilder) setWord(node uint32, i int, attr aff.Attr, affix uint32) {
	e := b.entry(node, i)
	e[1] = trieEntryIsWord | byte(attr&aff.CompoundPosMask)<<trieEntryAttrOff
	binary.LittleEndian.PutUint32(e[2:], affix)
}

func (b *trieBuilder) setChild(node uint32, i int, child uint32) {
	binary.LittleEndian.PutUint32(b.entry(node, i)[6:], child)
}
