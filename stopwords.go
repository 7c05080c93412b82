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
	"bufio"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/language"
	"golang.org/x/text/transform"

	"github.com/ianlewis/go-ispell/internal/folding"
	"github.com/ianlewis/go-ispell/internal/index"
)

// StopList is a sorted list of words excluded from normalization
// results.
type StopList struct {
	words *index.Words
}

// NewStopList creates a stop list from the given words. The words are
// folded with the given folder, which may be nil for default
// lowercasing. Surrounding whitespace is stripped and internal
// whitespace spans are collapsed to a single space.
func NewStopList(words []string, folder func() transform.Transformer) (*StopList, error) {
	if folder == nil {
		folder = folding.Lower(language.Und)
	}

	folded := make([]string, 0, len(words))
	for _, w := range words {
		f, _, err := transform.String(transform.Chain(&folding.WhitespaceFolder{}, folder()), w)
		if err != nil {
			return nil, fmt.Errorf("folding stop word %q: %w", w, err)
		}
		if f == "" {
			continue
		}
		folded = append(folded, f)
	}

	return &StopList{words: index.New(folded)}, nil
}

// ReadStopList reads a stop word list with one word per line.
func ReadStopList(r io.Reader, folder func() transform.Transformer) (*StopList, error) {
	var words []string
	s := bufio.NewScanner(r)
	for s.Scan() {
		words = append(words, s.Text())
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("reading stop words: %w", err)
	}
	return NewStopList(words, folder)
}

// OpenStopList reads the stop word file at the given path.
func OpenStopList(path string, folder func() transform.Transformer) (*StopList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %q: %w", path, err)
	}
	defer f.Close()

	s, err := ReadStopList(f, folder)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}
	return s, nil
}

// Len returns the number of stop words.
func (s *StopList) Len() int {
	return s.words.Len()
}

// Contains reports whether the word is a stop word.
func (s *StopList) Contains(word string) bool {
	return s.words.Contains(word)
}

// Filter removes lexemes whose value is a stop word.
func (s *StopList) Filter(lexemes []Lexeme) []Lexeme {
	var out []Lexeme
	for _, l := range lexemes {
		if !s.Contains(l.Value) {
			out = append(out, l)
		}
	}
	return out
}
