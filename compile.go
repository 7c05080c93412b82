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
	"fmt"
	"sort"
	"strconv"

	"github.com/ianlewis/go-ispell/aff"
	"github.com/ianlewis/go-ispell/dic"
)

// spell is a single word during compilation.
type spell struct {
	word  string
	affix uint32
	attr  aff.Attr
}

// buildWords assembles the affix set table and the word trie from the
// parsed word list.
func (d *Dict) buildWords(entries []*dic.Entry, affFile *aff.File) error {
	var words []spell

	if d.useFlagAliases {
		// Word flags are alias indexes into the AF table.
		d.affixSets = append([]string{}, affFile.AliasSets...)
		if len(d.affixSets) == 0 {
			d.affixSets = []string{""}
		}

		for _, e := range entries {
			if e.Word == "" {
				continue
			}
			idx := 0
			if e.Flag != "" {
				var err error
				idx, err = strconv.Atoi(e.Flag)
				if err != nil {
					return fmt.Errorf("%w: %q", aff.ErrBadAlias, e.Flag)
				}
				// Aliases beyond the table resolve to the empty set.
				if idx < 0 || idx >= len(d.affixSets) {
					idx = 0
				}
			}
			words = append(words, spell{word: e.Word, affix: uint32(idx)})
		}
	} else {
		// Collect the distinct flag sets used by the word list. Index 0
		// is reserved for the empty set.
		uniq := map[string]bool{}
		for _, e := range entries {
			if e.Word != "" && e.Flag != "" {
				uniq[e.Flag] = true
			}
		}
		flags := make([]string, 0, len(uniq))
		for flag := range uniq {
			flags = append(flags, flag)
		}
		sort.Strings(flags)

		d.affixSets = append([]string{""}, flags...)
		index := make(map[string]uint32, len(d.affixSets))
		for i, set := range d.affixSets {
			index[set] = uint32(i)
		}

		for _, e := range entries {
			if e.Word == "" {
				continue
			}
			words = append(words, spell{word: e.Word, affix: index[e.Flag]})
		}
	}

	sort.Slice(words, func(i, j int) bool {
		if words[i].word != words[j].word {
			return words[i].word < words[j].word
		}
		return words[i].affix < words[j].affix
	})

	merged, err := d.mergeHomonyms(words, affFile)
	if err != nil {
		return err
	}

	var b trieBuilder
	d.root = d.mkTrieNode(&b, merged, 0, len(merged), 0)
	d.words = b.arena
	return nil
}

// compoundAttrsOf returns the compound attributes of the affix set with
// the given index.
func compoundAttrsOf(affFile *aff.File, sets []string, idx uint32) (aff.Attr, error) {
	attr, err := affFile.CompoundAttrs(sets[idx])
	if err != nil {
		return 0, err
	}
	return attr & aff.CompoundPosMask, nil
}

// fixupAttr widens compound-only words to all compound positions when
// no position was given explicitly.
func fixupAttr(attr aff.Attr) aff.Attr {
	if attr&aff.CompoundOnly != 0 && attr&aff.CompoundAny == 0 {
		attr |= aff.CompoundAny
	}
	return attr
}

// mergeHomonyms collapses runs of identical words into single entries,
// merging their flag sets. If one homonym may only appear inside
// compound words and another may stand alone, the compound-only
// restriction is lifted.
func (d *Dict) mergeHomonyms(words []spell, affFile *aff.File) ([]spell, error) {
	var merged []spell
	for i := 0; i < len(words); {
		j := i
		for j < len(words) && words[j].word == words[i].word {
			j++
		}

		cur := words[i]
		attr, err := compoundAttrsOf(affFile, d.affixSets, cur.affix)
		if err != nil {
			return nil, err
		}
		attr = fixupAttr(attr)

		for _, next := range words[i+1 : j] {
			if next.affix == cur.affix {
				continue
			}
			nextAttr, err := compoundAttrsOf(affFile, d.affixSets, next.affix)
			if err != nil {
				return nil, err
			}
			clearOnly := attr&aff.CompoundOnly&nextAttr == 0

			cur.affix = d.mergeAffixSets(cur.affix, next.affix)
			attr, err = compoundAttrsOf(affFile, d.affixSets, cur.affix)
			if err != nil {
				return nil, err
			}
			attr = fixupAttr(attr)
			if clearOnly {
				attr &^= aff.CompoundOnly
			}
		}

		cur.attr = attr
		merged = append(merged, cur)
		i = j
	}
	return merged, nil
}

// mergeAffixSets concatenates two affix flag sets and registers the
// result as a new set. Merging with the empty set is a no-op.
func (d *Dict) mergeAffixSets(a1, a2 uint32) uint32 {
	if d.affixSets[a1] == "" {
		return a2
	}
	if d.affixSets[a2] == "" {
		return a1
	}

	set := d.affixSets[a1] + d.affixSets[a2]
	if d.flagMode == aff.FlagNum {
		set = d.affixSets[a1] + "," + d.affixSets[a2]
	}
	d.affixSets = append(d.affixSets, set)
	return uint32(len(d.affixSets) - 1)
}

// mkTrieNode builds one trie level from the sorted word slice
// restricted to [low, high) and returns the node's arena offset.
func (d *Dict) mkTrieNode(b *trieBuilder, words []spell, low, high, level int) uint32 {
	nchar := 0
	var lastchar byte
	seen := false
	for i := low; i < high; i++ {
		if len(words[i].word) > level && (!seen || lastchar != words[i].word[level]) {
			nchar++
			lastchar = words[i].word[level]
			seen = true
		}
	}
	if nchar == 0 {
		return trieInvalidOFF
	}

	node := b.alloc(nchar)
	entry := 0
	lownew := low
	seen = false
	for i := low; i < high; i++ {
		if len(words[i].word) <= level {
			continue
		}
		c := words[i].word[level]
		if seen && lastchar != c {
			b.setChild(node, entry, d.mkTrieNode(b, words, lownew, i, level+1))
			entry++
			lownew = i
		}
		lastchar = c
		seen = true

		b.setVal(node, entry, c)
		if len(words[i].word) == level+1 {
			b.setWord(node, entry, words[i].attr, words[i].affix)
		}
	}
	b.setChild(node, entry, d.mkTrieNode(b, words, lownew, high, level+1))

	return node
}
