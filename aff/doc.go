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

// Package aff implements parsing of Ispell affix files.
//
// Two dialects are supported and auto-detected. The legacy Ispell
// format groups rules under flag headers:
//
//	flag *X:
//	    E Y > -Y, IES
//
// The newer Hunspell/MySpell format uses PFX/SFX commands:
//
//	SFX X Y 1
//	SFX X 0 ies [^aeiou]y
//
// along with FLAG (flag naming mode), COMPOUND* (compound word roles),
// and AF (flag set alias) commands. The two dialects cannot be mixed in
// a single file.
package aff
