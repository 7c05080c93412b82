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
	"errors"
	"fmt"

	"github.com/ianlewis/go-ispell/aff"
)

// Dictionary blob layout (all integers little endian):
//
//	magic      4 bytes  "ISPL"
//	version    uint32
//	flagMode   uint8
//	compound   uint8
//	aliases    uint8
//	pad        uint8
//	root       uint32   arena offset of the trie root
//	affix set table
//	affix rule table
//	word trie arena
//
// The trie arena is position independent, so a blob can be written to a
// file, mapped into memory and used directly.
const (
	blobMagic   = "ISPL"
	blobVersion = 1
)

// ErrBadBlob indicates that a dictionary blob is malformed.
var ErrBadBlob = errors.New("malformed dictionary blob")

// ErrBlobVersion indicates that a dictionary blob was written by an
// incompatible version.
var ErrBlobVersion = errors.New("unsupported dictionary blob version")

type blobWriter struct {
	buf []byte
}

func (w *blobWriter) bytes(b []byte) {
	w.buf = append(w.buf, b...)
}

func (w *blobWriter) uint8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *blobWriter) uint16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

func (w *blobWriter) uint32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *blobWriter) string(s string) {
	w.uint32(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

// Blob serializes the dictionary.
func (d *Dict) Blob() []byte {
	var w blobWriter

	w.bytes([]byte(blobMagic))
	w.uint32(blobVersion)
	w.uint8(uint8(d.flagMode))
	w.uint8(boolByte(d.useCompound))
	w.uint8(boolByte(d.useFlagAliases))
	w.uint8(0)
	w.uint32(d.root)

	w.uint32(uint32(len(d.affixSets)))
	for _, set := range d.affixSets {
		w.string(set)
	}

	w.uint32(uint32(len(d.affixes)))
	for _, a := range d.affixes {
		w.uint8(uint8(a.typ))
		w.uint8(0)
		w.uint16(uint16(a.attr))
		w.string(a.flag)
		w.string(a.find)
		w.string(a.replace)
		w.string(a.mask)
	}

	w.uint32(uint32(len(d.words)))
	w.bytes(d.words)

	return w.buf
}

func boolByte(v bool) uint8 {
	if v {
		return 1
	}
	return 0
}

type blobReader struct {
	buf []byte
	off int
	err error
}

func (r *blobReader) bytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.buf) {
		r.err = fmt.Errorf("%w: truncated at offset %d", ErrBadBlob, r.off)
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *blobReader) uint8() uint8 {
	b := r.bytes(1)
	if r.err != nil {
		return 0
	}
	return b[0]
}

func (r *blobReader) uint16() uint16 {
	b := r.bytes(2)
	if r.err != nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *blobReader) uint32() uint32 {
	b := r.bytes(4)
	if r.err != nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *blobReader) string() string {
	n := r.uint32()
	return string(r.bytes(int(n)))
}

// Load deserializes a dictionary blob produced by Blob. The word trie
// references the blob without copying, so the blob must remain valid
// and unmodified for the lifetime of the dictionary. This allows
// loading directly from a memory-mapped file.
func Load(blob []byte, options *Options) (*Dict, error) {
	if options == nil {
		options = DefaultOptions
	}

	r := &blobReader{buf: blob}

	if string(r.bytes(len(blobMagic))) != blobMagic {
		if r.err != nil {
			return nil, r.err
		}
		return nil, fmt.Errorf("%w: bad magic", ErrBadBlob)
	}
	if v := r.uint32(); r.err == nil && v != blobVersion {
		return nil, fmt.Errorf("%w: %d", ErrBlobVersion, v)
	}

	d := &Dict{
		flagMode:       aff.FlagMode(r.uint8()),
		useCompound:    r.uint8() != 0,
		useFlagAliases: r.uint8() != 0,
	}
	r.uint8() // pad
	d.root = r.uint32()

	nsets := r.uint32()
	for i := uint32(0); i < nsets && r.err == nil; i++ {
		d.affixSets = append(d.affixSets, r.string())
	}

	naffix := r.uint32()
	for i := uint32(0); i < naffix && r.err == nil; i++ {
		a := &affix{}
		a.typ = aff.Type(r.uint8())
		r.uint8() // pad
		a.attr = aff.Attr(r.uint16())
		a.flag = r.string()
		a.find = r.string()
		a.replace = r.string()
		a.mask = r.string()
		d.affixes = append(d.affixes, a)
	}

	nwords := r.uint32()
	d.words = trieArena(r.bytes(int(nwords)))

	if r.err != nil {
		return nil, r.err
	}
	if d.root != trieInvalidOFF && uint64(d.root)+trieNodeHdrSize > uint64(len(d.words)) {
		return nil, fmt.Errorf("%w: trie root out of range", ErrBadBlob)
	}

	if err := d.initCache(options); err != nil {
		return nil, err
	}
	return d, nil
}
