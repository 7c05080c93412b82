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
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/transform"

	"github.com/ianlewis/go-ispell/internal/folding"
)

// Options are options for parsing an affix file.
type Options struct {
	// Folder returns a [transform.Transformer] that folds affix fields
	// as they are read (e.g. locale-aware lowercasing).
	Folder func() transform.Transformer
}

// DefaultOptions is the default options for Parse.
var DefaultOptions = &Options{
	Folder: folding.Lower(language.Und),
}

// Parse parses an affix file, auto-detecting the dialect. Files in the
// legacy Ispell format are parsed with a line-oriented state machine;
// once a new-format (Hunspell/MySpell) command is seen the file is
// re-read from the start with the new-format parser. Mixing both styles
// in one file is an error.
func Parse(r io.Reader, options *Options) (*File, error) {
	if options == nil {
		options = DefaultOptions
	}
	folder := DefaultOptions.Folder
	if options.Folder != nil {
		folder = options.Folder
	}

	var lines []string
	s := bufio.NewScanner(r)
	for s.Scan() {
		lines = append(lines, s.Text())
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("reading affix file: %w", err)
	}

	p := &parser{
		lines:  lines,
		folder: folder,
	}
	return p.parse()
}

// Open parses the affix file at the given path. Files with a .gz
// extension are decompressed with gzip.
func Open(path string, options *Options) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %q: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.ToLower(filepath.Ext(path)) == ".gz" {
		z, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("opening %q: %w", path, err)
		}
		defer z.Close()
		r = z
	}

	aff, err := Parse(r, options)
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", path, err)
	}
	return aff, nil
}

type parser struct {
	lines  []string
	folder func() transform.Transformer
}

func (p *parser) fold(s string) (string, error) {
	folded, _, err := transform.String(p.folder(), s)
	if err != nil {
		return "", fmt.Errorf("folding %q: %w", s, err)
	}
	return folded, nil
}

// newFormatTokens are tokens that unambiguously select the
// Hunspell/MySpell dialect.
var newFormatTokens = map[string]bool{
	"PFX":          true,
	"SFX":          true,
	"AF":           true,
	"COMPOUNDFLAG": true,
	"COMPOUNDMIN":  true,
}

// parse runs the legacy-format state machine. If a new-format command is
// found before any legacy command, the whole file is handed off to
// parseNewFormat.
func (p *parser) parse() (*File, error) {
	f := &File{FlagMode: FlagChar}

	var suffixes, prefixes bool
	var oldFormat bool
	var flag string
	var flagAttr Attr

	for i, raw := range p.lines {
		lineno := i + 1
		if isBlankOrComment(raw) {
			continue
		}

		lower, err := p.fold(raw)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineno, err)
		}

		newFormat := false
		switch {
		case strings.HasPrefix(lower, "compoundwords"):
			if err := p.parseCompoundWords(f, raw); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineno, err)
			}
			oldFormat = true
			continue
		case strings.HasPrefix(lower, "suffixes"):
			suffixes, prefixes = true, false
			oldFormat = true
			continue
		case strings.HasPrefix(lower, "prefixes"):
			suffixes, prefixes = false, true
			oldFormat = true
			continue
		case strings.HasPrefix(lower, "flag"):
			flag, flagAttr, newFormat = parseLegacyFlag(raw[len("flag"):])
			if !newFormat {
				oldFormat = true
				continue
			}
		default:
			newFormat = newFormatTokens[firstField(raw)]
		}

		if newFormat {
			if oldFormat {
				return nil, fmt.Errorf("line %d: %w", lineno, ErrMixedDialect)
			}
			return p.parseNewFormat()
		}

		if !suffixes && !prefixes {
			continue
		}

		mask, find, repl, ok, err := parseAffixEntry(lower)
		if err != nil {
			return nil, fmt.Errorf("line %d: %q: %w", lineno, raw, err)
		}
		if !ok {
			continue
		}

		typ := Prefix
		if suffixes {
			typ = Suffix
		}
		rule := &Rule{
			Type:    typ,
			Flag:    flag,
			Attr:    flagAttr,
			Find:    find,
			Replace: repl,
			Mask:    mask,
		}
		if err := f.addRule(rule); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineno, err)
		}
	}

	return f, nil
}

// parseCompoundWords handles the legacy directive
//
//	compoundwords controlled <flag>
//
// which names the flag controlling compound word formation.
func (p *parser) parseCompoundWords(f *File, raw string) error {
	fields := strings.Fields(raw)
	for i, field := range fields[1:] {
		if strings.ContainsAny(field, "lL") {
			rest := fields[2+i:]
			if len(rest) != 1 || len(rest[0]) != 1 {
				return fmt.Errorf("%w: %q", ErrSyntax, raw)
			}
			return f.addCompoundFlag(rest[0], CompoundAny)
		}
	}
	return fmt.Errorf("%w: %q", ErrSyntax, raw)
}

// parseLegacyFlag parses a legacy flag group header such as
//
//	flag *X:
//	flag ~\Y:
//
// where '*' marks cross-product rules and '~' marks compound-only rules.
// A legacy flag is a single ASCII character followed by EOL, whitespace,
// '#' or ':'. Anything else means the line is actually a new-format FLAG
// command.
func parseLegacyFlag(s string) (flag string, attr Attr, newFormat bool) {
	s = strings.TrimLeft(s, " \t")
	if strings.HasPrefix(s, "*") {
		attr |= CrossProduct
		s = s[1:]
	} else if strings.HasPrefix(s, "~") {
		attr |= CompoundOnly
		s = s[1:]
	}
	s = strings.TrimPrefix(s, "\\")

	if s == "" {
		return "", 0, true
	}
	c := s[0]
	if c >= 0x80 {
		return "", 0, true
	}
	rest := s[1:]
	if rest == "" || rest[0] == '#' || rest[0] == ':' || rest[0] == ' ' || rest[0] == '\t' {
		return string(c), attr, false
	}
	return "", 0, true
}

// Parsing states for parseAffixEntry.
const (
	paeWaitMask = iota
	paeInMask
	paeWaitFind
	paeInFind
	paeWaitRepl
	paeInRepl
)

// parseAffixEntry parses a legacy affix rule line of the form
//
//	<mask> > [-<find>,]<replace>
//
// field by field. ok is false for lines that don't form a complete rule
// (e.g. comments); malformed tokens are an error.
func parseAffixEntry(line string) (mask, find, repl string, ok bool, err error) {
	var maskB, findB, replB strings.Builder
	state := paeWaitMask

loop:
	for _, r := range line {
		switch state {
		case paeWaitMask:
			if r == '#' {
				return "", "", "", false, nil
			}
			if !unicode.IsSpace(r) {
				maskB.WriteRune(r)
				state = paeInMask
			}
		case paeInMask:
			if r == '>' {
				state = paeWaitFind
			} else if !unicode.IsSpace(r) {
				maskB.WriteRune(r)
			}
		case paeWaitFind:
			switch {
			case r == '-':
				state = paeInFind
			case unicode.IsLetter(r) || r == '\'': // english 's
				replB.WriteRune(r)
				state = paeInRepl
			case !unicode.IsSpace(r):
				return "", "", "", false, ErrSyntax
			}
		case paeInFind:
			switch {
			case r == ',':
				state = paeWaitRepl
			case unicode.IsLetter(r):
				findB.WriteRune(r)
			case !unicode.IsSpace(r):
				return "", "", "", false, ErrSyntax
			}
		case paeWaitRepl:
			switch {
			case r == '-': // void replace string
				break loop
			case unicode.IsLetter(r):
				replB.WriteRune(r)
				state = paeInRepl
			case !unicode.IsSpace(r):
				return "", "", "", false, ErrSyntax
			}
		case paeInRepl:
			switch {
			case r == '#':
				break loop
			case unicode.IsLetter(r):
				replB.WriteRune(r)
			case !unicode.IsSpace(r):
				return "", "", "", false, ErrSyntax
			}
		}
	}

	mask, find, repl = maskB.String(), findB.String(), replB.String()
	return mask, find, repl, mask != "" && (find != "" || repl != ""), nil
}

// parseNewFormat parses the whole file as Hunspell/MySpell format. The
// first pass collects file-level options (flag mode and compound flag
// roles); the second pass reads the AF alias table and the affix rules.
func (p *parser) parseNewFormat() (*File, error) {
	f := &File{FlagMode: FlagChar}

	for i, raw := range p.lines {
		lineno := i + 1
		if isBlankOrComment(raw) {
			continue
		}

		var err error
		switch {
		case strings.HasPrefix(raw, "COMPOUNDFLAG"):
			err = addCompoundDirective(f, raw[len("COMPOUNDFLAG"):], CompoundAny)
		case strings.HasPrefix(raw, "COMPOUNDBEGIN"):
			err = addCompoundDirective(f, raw[len("COMPOUNDBEGIN"):], CompoundBegin)
		case strings.HasPrefix(raw, "COMPOUNDLAST"):
			err = addCompoundDirective(f, raw[len("COMPOUNDLAST"):], CompoundLast)
		// COMPOUNDLAST and COMPOUNDEND are synonyms.
		case strings.HasPrefix(raw, "COMPOUNDEND"):
			err = addCompoundDirective(f, raw[len("COMPOUNDEND"):], CompoundLast)
		case strings.HasPrefix(raw, "COMPOUNDMIDDLE"):
			err = addCompoundDirective(f, raw[len("COMPOUNDMIDDLE"):], CompoundMiddle)
		case strings.HasPrefix(raw, "ONLYINCOMPOUND"):
			err = addCompoundDirective(f, raw[len("ONLYINCOMPOUND"):], CompoundOnly)
		case strings.HasPrefix(raw, "COMPOUNDPERMITFLAG"):
			err = addCompoundDirective(f, raw[len("COMPOUNDPERMITFLAG"):], CompoundPermit)
		case strings.HasPrefix(raw, "COMPOUNDFORBIDFLAG"):
			err = addCompoundDirective(f, raw[len("COMPOUNDFORBIDFLAG"):], CompoundForbid)
		case strings.HasPrefix(raw, "FLAG"):
			switch firstField(raw[len("FLAG"):]) {
			case "long":
				f.FlagMode = FlagLong
			case "num":
				f.FlagMode = FlagNum
			case "default", "":
				f.FlagMode = FlagChar
			default:
				err = fmt.Errorf("%w: FLAG supports only \"default\", \"long\", and \"num\" values", ErrSyntax)
			}
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineno, err)
		}
	}

	var isSuffix bool
	var crossProduct Attr
	var naliases int

	for i, raw := range p.lines {
		lineno := i + 1
		if isBlankOrComment(raw) {
			continue
		}

		fields := splitFields(raw, 5)
		if len(fields) == 0 {
			continue
		}
		typ, err := p.fold(fields[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineno, err)
		}

		// AF alias table: the first AF line is the alias count, the
		// rest are alias definitions consumed positionally.
		if typ == "af" {
			if len(fields) < 2 {
				return nil, fmt.Errorf("line %d: %w: %q", lineno, ErrBadAlias, raw)
			}
			if !f.UseFlagAliases {
				f.UseFlagAliases = true
				n, err := strconv.Atoi(fields[1])
				if err != nil || n <= 0 {
					return nil, fmt.Errorf("line %d: %w: invalid number of flag vector aliases", lineno, ErrBadAlias)
				}
				naliases = n
				// Index 0 is the reserved empty flag set.
				f.AliasSets = append(f.AliasSets, "")
			} else {
				if len(f.AliasSets) > naliases {
					return nil, fmt.Errorf("line %d: %w: number of aliases exceeds specified number %d", lineno, ErrBadAlias, naliases)
				}
				f.AliasSets = append(f.AliasSets, fields[1])
			}
			continue
		}

		if len(fields) < 4 || (typ != "sfx" && typ != "pfx") {
			continue
		}

		flag := fields[1]
		if len(flag) == 0 ||
			(len(flag) > 1 && f.FlagMode == FlagChar) ||
			(len(flag) > 2 && f.FlagMode == FlagLong) {
			continue
		}

		if len(fields) == 4 {
			// Affix group header:
			//   SFX X Y 2
			isSuffix = typ == "sfx"
			crossProduct = 0
			if fields[2] == "y" || fields[2] == "Y" {
				crossProduct = CrossProduct
			}
			continue
		}

		// Affix rule:
		//   SFX X   <find> <replace>[/<flags>] <mask>
		find, repl, mask := fields[2], fields[3], fields[4]
		attr := crossProduct

		if j := strings.IndexByte(repl, '/'); j >= 0 {
			// Flags on the replace string are case-sensitive and may be
			// an AF alias reference.
			set, err := f.AliasSet(repl[j+1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineno, err)
			}
			compound, err := f.CompoundAttrs(set)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineno, err)
			}
			attr |= compound
			repl = repl[:j]
		}

		if find == "0" {
			find = ""
		}
		if repl == "0" {
			repl = ""
		}
		if find, err = p.fold(find); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineno, err)
		}
		if repl, err = p.fold(repl); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineno, err)
		}
		if mask, err = p.fold(mask); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineno, err)
		}

		ruleType := Prefix
		if isSuffix {
			ruleType = Suffix
		}
		rule := &Rule{
			Type:    ruleType,
			Flag:    flag,
			Attr:    attr,
			Find:    find,
			Replace: repl,
			Mask:    mask,
		}
		if err := f.addRule(rule); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineno, err)
		}
	}

	return f, nil
}

// addCompoundDirective records the flag named by a compound directive.
func addCompoundDirective(f *File, rest string, attr Attr) error {
	flag := firstField(rest)
	if flag == "" {
		return fmt.Errorf("%w: missing compound flag", ErrSyntax)
	}
	return f.addCompoundFlag(flag, attr)
}

func isBlankOrComment(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed == "" || strings.HasPrefix(trimmed, "#")
}

func firstField(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// splitFields splits a line into at most max whitespace-separated
// fields. A field starting with '#' terminates the line.
func splitFields(line string, max int) []string {
	var fields []string
	for _, field := range strings.Fields(line) {
		if strings.HasPrefix(field, "#") {
			break
		}
		fields = append(fields, field)
		if len(fields) == max {
			break
		}
	}
	return fields
}
