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
	"strings"

	"github.com/ianlewis/go-ispell/aff"
)

// addToResult appends a normal form unless it duplicates the
// immediately preceding one. Results are capped at maxNorm.
func addToResult(forms []string, word string) []string {
	if len(forms) >= maxNorm-1 {
		return forms
	}
	if len(forms) == 0 || forms[len(forms)-1] != word {
		return append(forms, word)
	}
	return forms
}

// normalizeSubWord returns the normal forms of a word or of a single
// compound segment. It checks the word itself, prefix-only
// derivations, and suffix derivations optionally combined with a
// prefix. compound is the required compound position, zero for plain
// words.
func (d *Dict) normalizeSubWord(word string, compound aff.Attr) []string {
	if len(word) > maxNormLen {
		return nil
	}

	var forms []string

	if d.findWord(word, "", compound) {
		forms = addToResult(forms, word)
	}

	pnode := d.prefix
	plevel := 0
	for pnode != nil {
		prefix := findAffixes(pnode, word, &plevel, aff.Prefix)
		if prefix == nil {
			break
		}
		for _, pa := range prefix.aff {
			if newword, ok := pa.checkAffix(word, compound, nil); ok {
				if d.findWord(newword, pa.flag, compound) {
					forms = addToResult(forms, newword)
				}
			}
		}
		pnode = prefix.child
	}

	snode := d.suffix
	slevel := 0
	for snode != nil {
		baselen := 0
		suffix := findAffixes(snode, word, &slevel, aff.Suffix)
		if suffix == nil {
			break
		}
		for _, sa := range suffix.aff {
			newword, ok := sa.checkAffix(word, compound, &baselen)
			if !ok {
				continue
			}
			if d.findWord(newword, sa.flag, compound) {
				forms = addToResult(forms, newword)
			}

			// Re-check the stripped word against prefixes. A rule pair
			// marked for cross product needs only the word itself in
			// the dictionary, not both flags.
			pnode := d.prefix
			plevel := 0
			for pnode != nil {
				prefix := findAffixes(pnode, newword, &plevel, aff.Prefix)
				if prefix == nil {
					break
				}
				for _, pa := range prefix.aff {
					pnewword, ok := pa.checkAffix(newword, compound, &baselen)
					if !ok {
						continue
					}
					flag := pa.flag
					if pa.attr&sa.attr&aff.CrossProduct != 0 {
						flag = ""
					}
					if d.findWord(pnewword, flag, compound) {
						forms = addToResult(forms, pnewword)
					}
				}
				pnode = prefix.child
			}
		}
		snode = suffix.child
	}

	return forms
}

// checkCompoundAffixes scans the compound affix list from *idx for an
// entry matching the remainder of the word. In-place matching anchors
// the entry at the start of the remainder; otherwise the entry may
// occur anywhere in it. It returns the number of bytes of the current
// segment covered by a matching linking suffix (zero for a prefix) and
// whether a match was found. *idx advances so that repeated calls
// enumerate all matches.
func checkCompoundAffixes(list []cmpdAffix, idx *int, word string, checkInPlace bool) (int, bool) {
	for *idx < len(list) {
		ca := &list[*idx]
		*idx++
		if len(word) <= len(ca.repl) {
			continue
		}
		if checkInPlace {
			if strings.HasPrefix(word, ca.repl) {
				if ca.issuffix {
					return len(ca.repl), true
				}
				return 0, true
			}
		} else {
			if pos := strings.Index(word, ca.repl); pos >= 0 {
				if ca.issuffix {
					return pos + len(ca.repl), true
				}
				return 0, true
			}
		}
	}
	return 0, false
}

// splitFrame is one pending branch of the compound word search. A
// frame restarts the search at startpos with the trie walked up to
// minpos. Branch points push new frames instead of recursing so the
// search depth is bounded by the worklist.
type splitFrame struct {
	stems    []string
	startpos int
	minpos   int

	// walk indicates that the trie position at minpos has to be
	// restored by walking word[startpos:minpos] from the root.
	walk bool
}

// maxSplitFrames bounds the number of branches followed during
// compound word splitting.
const maxSplitFrames = maxNorm

// splitToVariants segments a compound word into candidate stem lists.
// Every returned variant covers the whole word.
func (d *Dict) splitToVariants(word string) [][]string {
	var variants [][]string

	queue := []splitFrame{{startpos: 0, minpos: -1}}
	frames := 0

	for len(queue) > 0 && frames < maxSplitFrames {
		frame := queue[0]
		queue = queue[1:]
		frames++

		stems := append([]string(nil), frame.stems...)
		startpos, minpos := frame.startpos, frame.minpos

		node := d.root
		level := startpos
		if frame.walk {
			node = d.words.walk(d.root, word[startpos:minpos])
			level = minpos
		}

		// Segment positions already covered by a linking affix branch.
		probed := make([]bool, len(word))

		for level < len(word) {
			// Look for linking elements between stems, such as the
			// German Fugen-s.
			caff := 0
			for level > startpos {
				lenaff, ok := checkCompoundAffixes(d.compound, &caff, word[level:], node != trieInvalidOFF)
				if !ok {
					break
				}

				lenaff = level - startpos + lenaff
				if probed[startpos+lenaff-1] {
					continue
				}
				if level+lenaff-1 <= minpos {
					continue
				}
				if lenaff >= maxNormLen {
					continue
				}

				seg := word[startpos : startpos+lenaff]
				compound := aff.CompoundMiddle
				if level == 0 {
					compound = aff.CompoundBegin
				} else if level == len(word)-1 {
					compound = aff.CompoundLast
				}

				subres := d.normalizeSubWord(seg, compound)
				if len(subres) == 0 {
					continue
				}
				probed[startpos+lenaff-1] = true

				next := append(append([]string(nil), stems...), subres...)
				queue = append(queue, splitFrame{
					stems:    next,
					startpos: startpos + lenaff,
					minpos:   startpos + lenaff,
				})
			}

			if node == trieInvalidOFF {
				break
			}

			e, found := d.words.find(node, word[level])
			if found {
				compound := aff.CompoundMiddle
				if startpos == 0 {
					compound = aff.CompoundBegin
				} else if level == len(word)-1 {
					compound = aff.CompoundLast
				}

				if e.isword && e.attr&compound != 0 && !probed[level] && level > minpos {
					if len(word) == level+1 {
						// The rest of the word is itself a stem.
						break
					}

					// Keep searching for a longer stem at the same
					// point in a separate branch.
					queue = append(queue, splitFrame{
						stems:    append([]string(nil), stems...),
						startpos: startpos,
						minpos:   level,
						walk:     true,
					})

					level++
					stems = append(stems, word[startpos:level])
					node = d.root
					startpos = level
					continue
				}
				node = e.child
			} else {
				node = trieInvalidOFF
			}
			level++
		}

		stems = append(stems, word[startpos:])
		variants = append(variants, stems)
	}

	return variants
}

// appendNorm appends a lexeme up to the result cap.
func appendNorm(res []Lexeme, word string, nvariant uint16) []Lexeme {
	if len(res) >= maxNorm-1 {
		return res
	}
	return append(res, Lexeme{Value: word, NVariant: nvariant})
}

// normalizeWord computes all normal forms of a word, including
// compound segmentations when the dictionary supports compound words.
func (d *Dict) normalizeWord(word string) []Lexeme {
	var res []Lexeme
	nvariant := uint16(1)

	for _, form := range d.normalizeSubWord(word, 0) {
		res = appendNorm(res, form, nvariant)
		nvariant++
	}

	if !d.useCompound {
		return res
	}

	for _, stems := range d.splitToVariants(word) {
		if len(stems) <= 1 {
			continue
		}

		// Only the final stem still carries the inflection; normalize
		// it and emit one variant group per normal form.
		for _, sub := range d.normalizeSubWord(stems[len(stems)-1], aff.CompoundLast) {
			for _, stem := range stems[:len(stems)-1] {
				res = appendNorm(res, stem, nvariant)
			}
			res = appendNorm(res, sub, nvariant)
			nvariant++
		}
	}

	return res
}
