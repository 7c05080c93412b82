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

package aff

import (
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"
)

// ErrSyntax indicates a syntax error in an affix file.
var ErrSyntax = errors.New("affix syntax error")

// ErrBadFlag indicates a malformed or out-of-range affix flag.
var ErrBadFlag = errors.New("invalid affix flag")

// ErrMixedDialect indicates that an affix file mixes old-style Ispell
// and new-style Hunspell commands.
var ErrMixedDialect = errors.New("affix file contains both old-style and new-style commands")

// ErrBadAlias indicates a malformed flag alias or alias table.
var ErrBadAlias = errors.New("invalid affix alias")

const (
	// FlagNumMax is the maximum value of a numeric affix flag.
	FlagNumMax = 65000

	// FlagMaxLen is the maximum byte length of an affix flag name.
	FlagMaxLen = 5

	// FindMaxLen is the maximum byte length of an affix find field.
	FindMaxLen = 255

	// ReplaceMaxLen is the maximum byte length of an affix replace field.
	ReplaceMaxLen = 255
)

// Type is the type of an affix rule.
type Type int

const (
	// Prefix rules strip and replace at the beginning of a word.
	Prefix Type = iota

	// Suffix rules strip and replace at the end of a word.
	Suffix
)

// String implements [fmt.Stringer].
func (t Type) String() string {
	switch t {
	case Prefix:
		return "prefix"
	case Suffix:
		return "suffix"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// FlagMode is the encoding used for affix flags in a dictionary.
type FlagMode int

const (
	// FlagChar flags are single characters (classic Ispell).
	FlagChar FlagMode = iota

	// FlagLong flags are two characters.
	FlagLong

	// FlagNum flags are numbers in [0, FlagNumMax], comma-separated
	// within a flag set.
	FlagNum
)

// String implements [fmt.Stringer].
func (m FlagMode) String() string {
	switch m {
	case FlagChar:
		return "default"
	case FlagLong:
		return "long"
	case FlagNum:
		return "num"
	default:
		return fmt.Sprintf("FlagMode(%d)", int(m))
	}
}

// Attr is a set of attribute bits on an affix rule or dictionary word.
// Compound position bits additionally appear on word trie entries to
// mark how a word may participate in compound words.
type Attr uint16

const (
	// CompoundOnly marks a word or rule used only inside compound words.
	CompoundOnly Attr = 1 << iota

	// CompoundBegin permits use at the beginning of a compound word.
	CompoundBegin

	// CompoundMiddle permits use in the middle of a compound word.
	CompoundMiddle

	// CompoundLast permits use at the end of a compound word.
	CompoundLast

	// CompoundPermit permits an affix between compound segments.
	CompoundPermit

	// CompoundForbid forbids an affix inside compound words.
	CompoundForbid

	// CrossProduct marks a rule eligible for prefix+suffix combination
	// without a joint flag.
	CrossProduct
)

// CompoundAny is the set of all compound position bits.
const CompoundAny = CompoundBegin | CompoundMiddle | CompoundLast

// CompoundPosMask selects the bits of an Attr that are stored on word
// trie entries.
const CompoundPosMask = CompoundOnly | CompoundAny

// Rule is a single parsed affix rule.
type Rule struct {
	// Type is the rule type (prefix or suffix).
	Type Type

	// Flag is the affix flag naming this rule.
	Flag string

	// Attr is the set of attribute bits for this rule.
	Attr Attr

	// Find is the string stripped from the word when the rule is
	// applied in the generating direction, i.e. the string restored
	// during normalization.
	Find string

	// Replace is the string appended when the rule is applied in the
	// generating direction, i.e. the string stripped during
	// normalization.
	Replace string

	// Mask is the condition a word must satisfy for the rule to apply.
	// It is either ".", a restricted character-class pattern, or a full
	// regular expression.
	Mask string
}

// File is a parsed affix file.
type File struct {
	// FlagMode is the affix flag encoding declared by the file.
	FlagMode FlagMode

	// UseFlagAliases is true if the file declared an AF alias table.
	UseFlagAliases bool

	// UseCompound is true if the file declared any compound directives.
	UseCompound bool

	// AliasSets is the AF alias table. Index 0 is the reserved empty
	// flag set.
	AliasSets []string

	// Rules are the parsed affix rules in file order.
	Rules []*Rule

	// compoundFlags maps a (normalized) affix flag to the compound
	// attributes declared for it.
	compoundFlags map[string]Attr
}

// Next scans the first affix flag from a flag set and returns it along
// with the remainder of the set.
//
// Depending on the flag mode a flag set has one of the following forms:
//
//	FlagChar: ABCD     (flags A, B, C and D)
//	FlagLong: ABCD     (flags AB and CD)
//	FlagNum:  200,5    (flags 200 and 5)
func (m FlagMode) Next(set string) (flag, rest string, err error) {
	switch m {
	case FlagChar:
		_, size := utf8.DecodeRuneInString(set)
		return set[:size], set[size:], nil
	case FlagLong:
		_, size := utf8.DecodeRuneInString(set)
		if size >= len(set) {
			return "", "", fmt.Errorf("%w: %q with \"long\" flag value", ErrBadFlag, set)
		}
		_, size2 := utf8.DecodeRuneInString(set[size:])
		return set[:size+size2], set[size+size2:], nil
	case FlagNum:
		i := 0
		for i < len(set) && set[i] >= '0' && set[i] <= '9' {
			i++
		}
		if i == 0 {
			return "", "", fmt.Errorf("%w: %q", ErrBadFlag, set)
		}
		n, convErr := strconv.Atoi(set[:i])
		if convErr != nil || n < 0 || n > FlagNumMax {
			return "", "", fmt.Errorf("%w: %q is out of range", ErrBadFlag, set)
		}

		// Validate the separator up to the start of the next flag:
		// digits separated by a single comma with optional surrounding
		// whitespace.
		metComma := false
		for ; i < len(set); i++ {
			c := set[i]
			switch {
			case c >= '0' && c <= '9':
				if !metComma {
					return "", "", fmt.Errorf("%w: %q", ErrBadFlag, set)
				}
				return strconv.Itoa(n), set[i:], nil
			case c == ',':
				if metComma {
					return "", "", fmt.Errorf("%w: %q", ErrBadFlag, set)
				}
				metComma = true
			case c == ' ' || c == '\t':
			default:
				return "", "", fmt.Errorf("%w: invalid character in %q", ErrBadFlag, set)
			}
		}
		return strconv.Itoa(n), "", nil
	default:
		return "", "", fmt.Errorf("%w: unrecognized flag mode %d", ErrBadFlag, int(m))
	}
}

// Contains reports whether the flag set contains the given affix flag.
// The empty flag is contained in every set.
func (m FlagMode) Contains(set, flag string) (bool, error) {
	if flag == "" {
		return true, nil
	}
	for set != "" {
		var cur string
		var err error
		cur, set, err = m.Next(set)
		if err != nil {
			return false, err
		}
		if cur == flag {
			return true, nil
		}
	}
	return false, nil
}

// CompoundAttrs returns the compound attributes declared for the flags
// in the given flag set.
func (f *File) CompoundAttrs(set string) (Attr, error) {
	if len(f.compoundFlags) == 0 {
		return 0, nil
	}

	var attr Attr
	for set != "" {
		var cur string
		var err error
		cur, set, err = f.FlagMode.Next(set)
		if err != nil {
			return 0, err
		}
		attr |= f.compoundFlags[cur]
	}
	return attr, nil
}

// AliasSet resolves a flag set through the AF alias table. If the file
// does not use aliases the set is returned unchanged. An alias index
// beyond the table resolves to the empty set.
func (f *File) AliasSet(set string) (string, error) {
	if !f.UseFlagAliases || set == "" {
		return set, nil
	}

	idx, err := strconv.Atoi(set)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrBadAlias, set)
	}
	if idx <= 0 || idx >= len(f.AliasSets) {
		return "", nil
	}
	return f.AliasSets[idx], nil
}

// addCompoundFlag records compound attributes for a single affix flag
// and marks the file as using compound words.
func (f *File) addCompoundFlag(flag string, attr Attr) error {
	if f.FlagMode == FlagNum {
		n, err := strconv.Atoi(flag)
		if err != nil || n < 0 || n > FlagNumMax {
			return fmt.Errorf("%w: %q", ErrBadFlag, flag)
		}
		flag = strconv.Itoa(n)
	}

	if f.compoundFlags == nil {
		f.compoundFlags = map[string]Attr{}
	}
	f.compoundFlags[flag] |= attr
	f.UseCompound = true
	return nil
}

// addRule validates field lengths and appends a rule.
func (f *File) addRule(r *Rule) error {
	if len(r.Flag) > FlagMaxLen {
		return fmt.Errorf("%w: affix flag %q too long", ErrSyntax, r.Flag)
	}
	if len(r.Find) > FindMaxLen {
		return fmt.Errorf("%w: affix find field %q too long", ErrSyntax, r.Find)
	}
	if len(r.Replace) > ReplaceMaxLen {
		return fmt.Errorf("%w: affix replace field %q too long", ErrSyntax, r.Replace)
	}

	// Compound-only and compound-permit rules implicitly allow all
	// compound positions unless a position is given explicitly.
	if r.Attr&(CompoundOnly|CompoundPermit) != 0 && r.Attr&CompoundAny == 0 {
		r.Attr |= CompoundAny
	}

	f.Rules = append(f.Rules, r)
	return nil
}
