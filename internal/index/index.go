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

// Package index implements a sorted word list with binary search.
package index

import (
	"slices"
)

// Words is a sorted, deduplicated word list.
type Words struct {
	words []string
}

// New creates a word list from the given words. The input slice is not
// modified.
func New(words []string) *Words {
	sorted := make([]string, len(words))
	copy(sorted, words)
	slices.Sort(sorted)

	return &Words{
		words: slices.Compact(sorted),
	}
}

// Len returns the number of words.
func (w *Words) Len() int {
	return len(w.words)
}

// Contains performs a binary search over the word list.
func (w *Words) Contains(word string) bool {
	_, found := slices.BinarySearch(w.words, word)
	return found
}
