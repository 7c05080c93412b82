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

// Package ispell compiles Ispell and Hunspell dictionaries and
// normalizes words with them.
//
// A dictionary is compiled from a word list (.dict) and an affix file
// (.affix):
//
//	d, err := ispell.Compile("english.dict", "english.affix", nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	lexemes := d.Normalize("stories")
//
// Normalize strips affixes according to the affix rules and returns the
// dictionary forms of the word. Dictionaries that declare compound word
// flags also segment compound words into their stems.
//
// A compiled dictionary can be serialized with [Dict.Blob] and loaded
// again with [Load]. The serialized form is position independent and
// can be shared between processes through the
// [github.com/ianlewis/go-ispell/shdict] package.
package ispell
