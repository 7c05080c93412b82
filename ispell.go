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
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ianlewis/go-ispell/aff"
	"github.com/ianlewis/go-ispell/dic"
)

const (
	// maxNorm caps the number of normal forms returned for one word.
	maxNorm = 1024

	// maxNormLen caps the byte length of words considered for
	// normalization.
	maxNormLen = 256
)

// Lexeme is a single normal form of a word.
type Lexeme struct {
	// Value is the normalized form.
	Value string

	// NVariant groups the stems that belong to the same interpretation
	// of the word. All lexemes of one compound segmentation share an
	// NVariant value.
	NVariant uint16
}

// Options are options for compiling and loading dictionaries.
type Options struct {
	// DicOptions are options for reading the word list.
	DicOptions *dic.ScannerOptions

	// AffOptions are options for parsing the affix file.
	AffOptions *aff.Options

	// ResultCacheSize is the number of normalization results cached per
	// dictionary. Zero disables the cache.
	ResultCacheSize int
}

// DefaultOptions is the default options for Compile and Load.
var DefaultOptions = &Options{
	ResultCacheSize: 8192,
}

// Dict is a compiled dictionary. The word list is stored as a flat,
// position-independent trie so that a compiled dictionary can be
// serialized with Blob and shared between processes. The affix search
// trees are small and rebuilt lazily in each process.
//
// A Dict is safe for concurrent use.
type Dict struct {
	flagMode       aff.FlagMode
	useCompound    bool
	useFlagAliases bool

	// affixSets holds the distinct affix flag sets used by the
	// dictionary. Index 0 is always the empty set. Trie entries refer
	// to flag sets by index.
	affixSets []string

	affixes []*affix

	words trieArena
	root  uint32

	localOnce sync.Once
	prefix    *affixNode
	suffix    *affixNode
	compound  []cmpdAffix

	results *lru.Cache[string, []Lexeme]
}

// Compile reads a word list and an affix file and compiles them into a
// dictionary.
func Compile(dictPath, affixPath string, options *Options) (*Dict, error) {
	if options == nil {
		options = DefaultOptions
	}

	affFile, err := aff.Open(affixPath, options.AffOptions)
	if err != nil {
		return nil, err
	}

	entries, err := dic.ReadAll(dictPath, options.DicOptions)
	if err != nil {
		return nil, err
	}

	return New(entries, affFile, options)
}

// New compiles a dictionary from parsed word list entries and an affix
// file.
func New(entries []*dic.Entry, affFile *aff.File, options *Options) (*Dict, error) {
	if options == nil {
		options = DefaultOptions
	}

	d := &Dict{
		flagMode:       affFile.FlagMode,
		useCompound:    affFile.UseCompound,
		useFlagAliases: affFile.UseFlagAliases,
	}

	for _, r := range affFile.Rules {
		if err := checkMask(r.Mask, r.Type); err != nil {
			return nil, err
		}
		d.affixes = append(d.affixes, &affix{
			typ:     r.Type,
			flag:    r.Flag,
			attr:    r.Attr,
			find:    r.Find,
			replace: r.Replace,
			mask:    r.Mask,
		})
	}
	sortAffixes(d.affixes)

	if err := d.buildWords(entries, affFile); err != nil {
		return nil, err
	}

	if err := d.initCache(options); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dict) initCache(options *Options) error {
	if options.ResultCacheSize <= 0 {
		return nil
	}
	cache, err := lru.New[string, []Lexeme](options.ResultCacheSize)
	if err != nil {
		return fmt.Errorf("creating result cache: %w", err)
	}
	d.results = cache
	return nil
}

// buildLocal constructs the per-process affix search structures.
func (d *Dict) buildLocal() {
	var firstSuffix int
	for firstSuffix = 0; firstSuffix < len(d.affixes); firstSuffix++ {
		if d.affixes[firstSuffix].typ == aff.Suffix {
			break
		}
	}

	prefixes := d.affixes[:firstSuffix]
	suffixes := d.affixes[firstSuffix:]

	d.prefix = mkVoidAffix(prefixes, mkAffixNode(prefixes, 0, len(prefixes), 0), aff.Prefix)
	d.suffix = mkVoidAffix(suffixes, mkAffixNode(suffixes, 0, len(suffixes), 0), aff.Suffix)
	d.compound = mkCompoundAffixes(d.affixes, d.isFlagInUse)
}

// isFlagInUse reports whether any word in the dictionary carries the
// given affix flag.
func (d *Dict) isFlagInUse(flag string) bool {
	for _, set := range d.affixSets {
		ok, err := d.flagMode.Contains(set, flag)
		if err == nil && ok {
			return true
		}
	}
	return false
}

// findWord looks the word up in the trie. affixFlag, when non-empty,
// requires the word to carry that flag. compound is the required
// compound position, zero outside compound words.
func (d *Dict) findWord(word, affixFlag string, compound aff.Attr) bool {
	compound &= aff.CompoundPosMask

	off := d.root
	for i := 0; i < len(word); i++ {
		if off == trieInvalidOFF {
			return false
		}
		e, ok := d.words.find(off, word[i])
		if !ok {
			return false
		}
		if i == len(word)-1 && e.isword {
			if compound == 0 {
				// Words restricted to compounds are not normal forms on
				// their own.
				if e.attr&aff.CompoundOnly != 0 {
					return false
				}
			} else if e.attr&compound == 0 {
				return false
			}
			ok, err := d.flagMode.Contains(d.affixSets[e.affix], affixFlag)
			return err == nil && ok
		}
		off = e.child
	}
	return false
}

// Normalize returns the normal forms of the given word. Words not
// covered by the dictionary normalize to nil. The returned slice is
// shared with the internal cache and must not be modified.
func (d *Dict) Normalize(word string) []Lexeme {
	d.localOnce.Do(d.buildLocal)

	if d.results != nil {
		if res, ok := d.results.Get(word); ok {
			return res
		}
	}

	res := d.normalizeWord(word)

	if d.results != nil {
		d.results.Add(word, res)
	}
	return res
}
