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

// Package folding implements text folding transformers used when reading
// dictionary resources and query words.
package folding

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/transform"
)

// Lower returns a transformer factory that performs locale-aware
// lowercasing for the given language. A new transformer is returned on
// each call because casers are stateful and must not be shared between
// goroutines.
func Lower(tag language.Tag) func() transform.Transformer {
	return func() transform.Transformer {
		return cases.Lower(tag)
	}
}

// Nop returns a transformer factory that passes text through unchanged.
func Nop() func() transform.Transformer {
	return func() transform.Transformer {
		return transform.Nop
	}
}
