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

// Package dic implements reading of Ispell/Hunspell word list (.dict)
// files.
//
// A word list is a line-oriented text file with one entry per line. An
// entry is a word optionally followed by a '/' and a set of affix flags
// that select which affix rules from the companion .affix file apply to
// the word:
//
//	book/GS
//	running
//	foot/X
//
// Words are lowercased as they are read. Word lists may be stored
// uncompressed, gzip-compressed (.gz), or dictzip-compressed (.dz).
package dic
