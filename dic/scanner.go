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

package dic

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/transform"

	"github.com/ianlewis/go-ispell/internal/folding"
)

// Entry is a single word list entry.
type Entry struct {
	// Word is the lowercased dictionary word.
	Word string

	// Flag is the raw affix flag set following the '/' separator. It is
	// empty if the entry has no flags. Flags are not interpreted here;
	// their encoding depends on the affix file's flag mode.
	Flag string
}

// ScannerOptions are options for scanning a .dict file.
type ScannerOptions struct {
	// Folder returns a [transform.Transformer] that folds words as they
	// are read (e.g. locale-aware lowercasing).
	Folder func() transform.Transformer
}

// DefaultScannerOptions is the default options for a Scanner.
var DefaultScannerOptions = &ScannerOptions{
	Folder: folding.Lower(language.Und),
}

// Scanner scans a word list from start to end.
type Scanner struct {
	r      io.ReadCloser
	s      *bufio.Scanner
	folder func() transform.Transformer

	line  int
	entry *Entry
	err   error
}

// NewScanner returns a new word list scanner. The Scanner assumes
// ownership of the reader and should be closed with the Close method.
func NewScanner(r io.ReadCloser, options *ScannerOptions) (*Scanner, error) {
	if options == nil {
		options = DefaultScannerOptions
	}

	s := &Scanner{
		r:      r,
		s:      bufio.NewScanner(bufio.NewReader(r)),
		folder: DefaultScannerOptions.Folder,
	}
	if options.Folder != nil {
		s.folder = options.Folder
	}
	return s, nil
}

// Scan advances the scanner to the next word list entry, skipping blank
// lines. It returns false if the scan stops either by reaching the end
// of the file or an error.
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}
	for s.s.Scan() {
		s.line++
		entry, err := s.parseLine(s.s.Text())
		if err != nil {
			s.err = err
			return false
		}
		if entry == nil {
			continue
		}
		s.entry = entry
		return true
	}
	s.err = s.s.Err()
	return false
}

// Entry returns the current word list entry.
func (s *Scanner) Entry() *Entry {
	return s.entry
}

// Err returns the first error encountered.
func (s *Scanner) Err() error {
	return s.err
}

// Close closes the underlying reader.
func (s *Scanner) Close() error {
	if err := s.r.Close(); err != nil {
		return fmt.Errorf("closing word list: %w", err)
	}
	return nil
}

// parseLine parses a single word list line. It returns nil for lines
// with no word on them.
func (s *Scanner) parseLine(line string) (*Entry, error) {
	var flag string
	if i := strings.IndexByte(line, '/'); i >= 0 {
		// Only single-byte printable flags are allowed so that flag sets
		// can be scanned without decoding. The flag set ends at the
		// first byte that doesn't qualify.
		flag = line[i+1:]
		for j := 0; j < len(flag); j++ {
			c := rune(flag[j])
			if flag[j] >= utf8.RuneSelf || !unicode.IsPrint(c) || unicode.IsSpace(c) {
				flag = flag[:j]
				break
			}
		}
		line = line[:i]
	}

	// The word ends at the first whitespace.
	if i := strings.IndexFunc(line, unicode.IsSpace); i >= 0 {
		line = line[:i]
	}
	if line == "" {
		return nil, nil
	}

	word, _, err := transform.String(s.folder(), line)
	if err != nil {
		return nil, fmt.Errorf("folding word %q on line %d: %w", line, s.line, err)
	}

	return &Entry{
		Word: word,
		Flag: flag,
	}, nil
}
