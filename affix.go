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
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/ianlewis/go-ispell/aff"
)

// affix is a compiled affix rule. The mask matcher is compiled lazily
// per process since compiled state cannot be serialized.
type affix struct {
	typ     aff.Type
	flag    string
	attr    aff.Attr
	find    string
	replace string
	mask    string

	compileOnce sync.Once
	matcher     maskMatcher
	compileErr  error
}

// replByte returns the byte of the replace string at the given level in
// trie order. Suffixes are indexed from the end of the string since the
// suffix tree is keyed on reversed replace strings.
func (a *affix) replByte(level int) byte {
	if a.typ == aff.Suffix {
		return a.replace[len(a.replace)-1-level]
	}
	return a.replace[level]
}

// match reports whether the condition mask accepts the candidate word.
func (a *affix) match(word string) bool {
	a.compileOnce.Do(func() {
		a.matcher, a.compileErr = compileMask(a.mask, a.typ)
	})
	if a.compileErr != nil {
		return false
	}
	return a.matcher.match(word)
}

type maskMatcher interface {
	match(word string) bool
}

// matchAny accepts every word. Used for empty and "." masks.
type matchAny struct{}

func (matchAny) match(string) bool { return true }

// charClass is a single position of a character class mask: either a
// literal rune or a (possibly negated) bracket class.
type charClass struct {
	negate bool
	runes  string
}

func (c *charClass) match(r rune) bool {
	found := strings.ContainsRune(c.runes, r)
	return found != c.negate
}

// matchClasses matches a sequence of character classes against the end
// of the word for suffixes and the beginning for prefixes.
type matchClasses struct {
	classes []charClass
	suffix  bool
}

func (m *matchClasses) match(word string) bool {
	runes := []rune(word)
	if len(runes) < len(m.classes) {
		return false
	}
	if m.suffix {
		runes = runes[len(runes)-len(m.classes):]
	} else {
		runes = runes[:len(m.classes)]
	}
	for i := range m.classes {
		if !m.classes[i].match(runes[i]) {
			return false
		}
	}
	return true
}

// matchRegexp matches masks that need full regular expressions. The
// pattern is anchored at the end of the word for suffixes and at the
// beginning for prefixes.
type matchRegexp struct {
	re *regexp.Regexp
}

func (m *matchRegexp) match(word string) bool {
	return m.re.MatchString(word)
}

// isClassMask reports whether the mask contains only letters, digits
// and bracket classes and can be matched without a regexp.
func isClassMask(mask string) bool {
	for _, r := range mask {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) &&
			r != '[' && r != ']' && r != '^' {
			return false
		}
	}
	return true
}

// parseClassMask parses a mask consisting of literal characters and
// bracket classes.
func parseClassMask(mask string) ([]charClass, error) {
	var classes []charClass
	for i := 0; i < len(mask); {
		r, size := utf8.DecodeRuneInString(mask[i:])
		i += size
		if r != '[' {
			classes = append(classes, charClass{runes: string(r)})
			continue
		}

		var c charClass
		if strings.HasPrefix(mask[i:], "^") {
			c.negate = true
			i++
		}
		end := strings.IndexByte(mask[i:], ']')
		if end < 0 {
			return nil, fmt.Errorf("%w: unterminated class in mask %q", aff.ErrSyntax, mask)
		}
		c.runes = mask[i : i+end]
		i += end + 1
		classes = append(classes, c)
	}
	return classes, nil
}

// compileMask compiles a condition mask into a matcher.
func compileMask(mask string, typ aff.Type) (maskMatcher, error) {
	if mask == "" || mask == "." {
		return matchAny{}, nil
	}
	if isClassMask(mask) {
		classes, err := parseClassMask(mask)
		if err != nil {
			return nil, err
		}
		return &matchClasses{
			classes: classes,
			suffix:  typ == aff.Suffix,
		}, nil
	}

	pattern := "^" + mask
	if typ == aff.Suffix {
		pattern = mask + "$"
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid affix mask %q: %w", mask, err)
	}
	return &matchRegexp{re: re}, nil
}

// checkMask validates a mask without compiling its matcher. Invalid
// masks are configuration errors and are reported at compile time.
func checkMask(mask string, typ aff.Type) error {
	_, err := compileMask(mask, typ)
	return err
}

// checkAffix applies the affix rule in reverse to derive the candidate
// base word. word is the surface form, compound is the required
// compound position (zero outside compound words) and baselen carries
// the length of the unchanged part of the word between a suffix match
// and the following prefix match. It returns the base word and whether
// the rule applies.
func (a *affix) checkAffix(word string, compound aff.Attr, baselen *int) (string, bool) {
	switch {
	case compound == 0:
		if a.attr&aff.CompoundOnly != 0 {
			return "", false
		}
	case compound&aff.CompoundBegin != 0:
		if a.attr&aff.CompoundForbid != 0 {
			return "", false
		}
		if a.attr&aff.CompoundBegin == 0 && a.typ == aff.Suffix {
			return "", false
		}
	case compound&aff.CompoundMiddle != 0:
		if a.attr&aff.CompoundMiddle == 0 || a.attr&aff.CompoundForbid != 0 {
			return "", false
		}
	case compound&aff.CompoundLast != 0:
		if a.attr&aff.CompoundForbid != 0 {
			return "", false
		}
		if a.attr&aff.CompoundLast == 0 && a.typ == aff.Prefix {
			return "", false
		}
	}

	var newword string
	if a.typ == aff.Suffix {
		base := len(word) - len(a.replace)
		newword = word[:base] + a.find
		if baselen != nil {
			*baselen = base
		}
	} else {
		// A word made of nothing but a prefix and a suffix is not a
		// derivation.
		if baselen != nil && *baselen+len(a.find) <= len(a.replace) {
			return "", false
		}
		newword = a.find + word[len(a.replace):]
	}

	if !a.match(newword) {
		return "", false
	}
	return newword, true
}

// affixNode is a node of the prefix or suffix search tree. The trees
// are keyed on the replace strings of the affix rules, reversed for
// suffixes. They are small and rebuilt in each process rather than
// serialized.
type affixNode struct {
	isvoid  bool
	entries []affixNodeEntry
}

type affixNodeEntry struct {
	val   byte
	aff   []*affix
	child *affixNode
}

// findAffixes descends one matching step into the tree and returns the
// first entry holding affix rules along with the advanced level.
// Successive calls with the returned entry's child continue the search
// for longer matches.
func findAffixes(node *affixNode, word string, level *int, typ aff.Type) *affixNodeEntry {
	if node != nil && node.isvoid {
		// Rules with an empty replace string match at level zero.
		if len(node.entries[0].aff) > 0 {
			return &node.entries[0]
		}
		node = node.entries[0].child
	}

	for node != nil && *level < len(word) {
		val := word[*level]
		if typ == aff.Suffix {
			val = word[len(word)-1-*level]
		}

		found := false
		lo, hi := 0, len(node.entries)
		for lo < hi {
			mid := lo + (hi-lo)/2
			e := &node.entries[mid]
			if e.val == val {
				*level++
				if len(e.aff) > 0 {
					return e
				}
				node = e.child
				found = true
				break
			} else if e.val < val {
				lo = mid + 1
			} else {
				hi = mid
			}
		}
		if !found {
			break
		}
	}
	return nil
}

// mkAffixNode builds a search tree level from the sorted affix slice
// restricted to [low, high).
func mkAffixNode(affixes []*affix, low, high, level int) *affixNode {
	var vals []byte
	last := byte(0)
	seen := false
	for i := low; i < high; i++ {
		if len(affixes[i].replace) > level {
			v := affixes[i].replByte(level)
			if !seen || v != last {
				vals = append(vals, v)
				last = v
				seen = true
			}
		}
	}
	if len(vals) == 0 {
		return nil
	}

	node := &affixNode{entries: make([]affixNodeEntry, len(vals))}
	entry := 0
	lownew := low
	seen = false
	for i := low; i < high; i++ {
		if len(affixes[i].replace) <= level {
			continue
		}
		v := affixes[i].replByte(level)
		if seen && v != last {
			node.entries[entry].child = mkAffixNode(affixes, lownew, i, level+1)
			entry++
			lownew = i
		}
		last = v
		seen = true
		node.entries[entry].val = v
		if len(affixes[i].replace) == level+1 {
			node.entries[entry].aff = append(node.entries[entry].aff, affixes[i])
		}
	}
	node.entries[entry].child = mkAffixNode(affixes, lownew, high, level+1)

	return node
}

// mkVoidAffix prepends a sentinel root holding the rules with an empty
// replace string. The sentinel is checked before the tree proper.
func mkVoidAffix(affixes []*affix, root *affixNode, typ aff.Type) *affixNode {
	node := &affixNode{
		isvoid:  true,
		entries: []affixNodeEntry{{child: root}},
	}
	for _, a := range affixes {
		if a.typ == typ && a.replace == "" {
			node.entries[0].aff = append(node.entries[0].aff, a)
		}
	}
	return node
}

// strbcmp compares two strings backwards byte by byte. It defines the
// ordering of the suffix tree.
func strbcmp(s1, s2 string) int {
	i1, i2 := len(s1)-1, len(s2)-1
	for i1 >= 0 && i2 >= 0 {
		if s1[i1] < s2[i2] {
			return -1
		}
		if s1[i1] > s2[i2] {
			return 1
		}
		i1--
		i2--
	}
	if i1 < i2 {
		return -1
	}
	if i1 > i2 {
		return 1
	}
	return 0
}

// strbncmp compares at most count bytes of two strings backwards.
func strbncmp(s1, s2 string, count int) int {
	i1, i2 := len(s1)-1, len(s2)-1
	n := count
	for i1 >= 0 && i2 >= 0 && n > 0 {
		if s1[i1] < s2[i2] {
			return -1
		}
		if s1[i1] > s2[i2] {
			return 1
		}
		i1--
		i2--
		n--
	}
	if n == 0 {
		return 0
	}
	if i1 < i2 {
		return -1
	}
	if i1 > i2 {
		return 1
	}
	return 0
}

// sortAffixes orders affixes with prefixes before suffixes. Prefixes
// compare forward on the replace string and suffixes backwards, so
// that the search trees can be built from contiguous ranges.
func sortAffixes(affixes []*affix) {
	sort.SliceStable(affixes, func(i, j int) bool {
		a1, a2 := affixes[i], affixes[j]
		if a1.typ != a2.typ {
			return a1.typ < a2.typ
		}
		if a1.typ == aff.Prefix {
			return a1.replace < a2.replace
		}
		return strbcmp(a1.replace, a2.replace) < 0
	})
}

// cmpdAffix is an entry of the compound affix list: a replace string
// that may join the parts of a compound word, such as a linking
// element between stems.
type cmpdAffix struct {
	repl     string
	issuffix bool
}

// mkCompoundAffixes collects the replace strings of compound-enabled
// affix rules whose flag is actually used by the dictionary. Only
// unique minimal strings are kept.
func mkCompoundAffixes(affixes []*affix, isFlagInUse func(flag string) bool) []cmpdAffix {
	var list []cmpdAffix
	for _, a := range affixes {
		if a.attr&aff.CompoundAny == 0 || a.replace == "" || !isFlagInUse(a.flag) {
			continue
		}
		if n := len(list); n > 0 &&
			list[n-1].issuffix == (a.typ == aff.Suffix) &&
			strbncmp(list[n-1].repl, a.replace, len(list[n-1].repl)) == 0 {
			continue
		}
		list = append(list, cmpdAffix{
			repl:     a.replace,
			issuffix: a.typ == aff.Suffix,
		})
	}
	return list
}
