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
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFlagMode_Next(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		mode     FlagMode
		set      string
		expected string
		rest     string
		err      error
	}{
		{
			name:     "char single",
			mode:     FlagChar,
			set:      "A",
			expected: "A",
			rest:     "",
		},
		{
			name:     "char multiple",
			mode:     FlagChar,
			set:      "ABC",
			expected: "A",
			rest:     "BC",
		},
		{
			name:     "char multibyte",
			mode:     FlagChar,
			set:      "ÖA",
			expected: "Ö",
			rest:     "A",
		},
		{
			name:     "long pair",
			mode:     FlagLong,
			set:      "ABCD",
			expected: "AB",
			rest:     "CD",
		},
		{
			name: "long truncated",
			mode: FlagLong,
			set:  "A",
			err:  ErrBadFlag,
		},
		{
			name:     "num single",
			mode:     FlagNum,
			set:      "200",
			expected: "200",
			rest:     "",
		},
		{
			name:     "num comma separated",
			mode:     FlagNum,
			set:      "200,5",
			expected: "200",
			rest:     "5",
		},
		{
			name:     "num whitespace around comma",
			mode:     FlagNum,
			set:      "200 , 5",
			expected: "200",
			rest:     "5",
		},
		{
			name:     "num leading zeros",
			mode:     FlagNum,
			set:      "007,5",
			expected: "7",
			rest:     "5",
		},
		{
			name: "num missing comma",
			mode: FlagNum,
			set:  "200 5",
			err:  ErrBadFlag,
		},
		{
			name: "num double comma",
			mode: FlagNum,
			set:  "200,,5",
			err:  ErrBadFlag,
		},
		{
			name: "num not a number",
			mode: FlagNum,
			set:  "x",
			err:  ErrBadFlag,
		},
		{
			name: "num out of range",
			mode: FlagNum,
			set:  "65001",
			err:  ErrBadFlag,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			flag, rest, err := tc.mode.Next(tc.set)
			if got, want := err, tc.err; !errors.Is(got, want) {
				t.Fatalf("unexpected error: got: %v, want: %v", got, want)
			}
			if err != nil {
				return
			}
			if got, want := flag, tc.expected; got != want {
				t.Errorf("unexpected flag (-want +got):\n%s", cmp.Diff(want, got))
			}
			if got, want := rest, tc.rest; got != want {
				t.Errorf("unexpected rest (-want +got):\n%s", cmp.Diff(want, got))
			}
		})
	}
}

func TestFlagMode_Contains(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		mode     FlagMode
		set      string
		flag     string
		expected bool
	}{
		{
			name:     "char found",
			mode:     FlagChar,
			set:      "ABC",
			flag:     "B",
			expected: true,
		},
		{
			name:     "char not found",
			mode:     FlagChar,
			set:      "ABC",
			flag:     "D",
			expected: false,
		},
		{
			name:     "empty flag always matches",
			mode:     FlagChar,
			set:      "",
			flag:     "",
			expected: true,
		},
		{
			name:     "long found",
			mode:     FlagLong,
			set:      "ABCD",
			flag:     "CD",
			expected: true,
		},
		{
			name:     "long no partial match",
			mode:     FlagLong,
			set:      "ABCD",
			flag:     "BC",
			expected: false,
		},
		{
			name:     "num found",
			mode:     FlagNum,
			set:      "200,5,13",
			flag:     "5",
			expected: true,
		},
		{
			name:     "num normalized",
			mode:     FlagNum,
			set:      "007",
			flag:     "7",
			expected: true,
		},
		{
			name:     "num not found",
			mode:     FlagNum,
			set:      "200,5",
			flag:     "20",
			expected: false,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := tc.mode.Contains(tc.set, tc.flag)
			if err != nil {
				t.Fatalf("Contains: %v", err)
			}
			if want := tc.expected; got != want {
				t.Errorf("unexpected result: got: %v, want: %v", got, want)
			}
		})
	}
}

func TestFile_AliasSet(t *testing.T) {
	t.Parallel()

	f := &File{
		FlagMode:       FlagNum,
		UseFlagAliases: true,
		AliasSets:      []string{"", "100,101", "100"},
	}

	tests := []struct {
		name     string
		set      string
		expected string
		err      error
	}{
		{
			name:     "first alias",
			set:      "1",
			expected: "100,101",
		},
		{
			name:     "second alias",
			set:      "2",
			expected: "100",
		},
		{
			name:     "out of range",
			set:      "3",
			expected: "",
		},
		{
			name:     "reserved empty set",
			set:      "0",
			expected: "",
		},
		{
			name: "not a number",
			set:  "x",
			err:  ErrBadAlias,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := f.AliasSet(tc.set)
			if want := tc.err; !errors.Is(err, want) {
				t.Fatalf("unexpected error: got: %v, want: %v", err, want)
			}
			if want := tc.expected; got != want {
				t.Errorf("unexpected set: got: %q, want: %q", got, want)
			}
		})
	}
}

func TestFile_CompoundAttrs(t *testing.T) {
	t.Parallel()

	f := &File{FlagMode: FlagNum}
	if err := f.addCompoundFlag("100", CompoundAny); err != nil {
		t.Fatalf("addCompoundFlag: %v", err)
	}
	if err := f.addCompoundFlag("101", CompoundPermit); err != nil {
		t.Fatalf("addCompoundFlag: %v", err)
	}

	if !f.UseCompound {
		t.Errorf("expected UseCompound to be set")
	}

	got, err := f.CompoundAttrs("100,101")
	if err != nil {
		t.Fatalf("CompoundAttrs: %v", err)
	}
	if want := CompoundAny | CompoundPermit; got != want {
		t.Errorf("unexpected attrs: got: %v, want: %v", got, want)
	}

	got, err = f.CompoundAttrs("102")
	if err != nil {
		t.Fatalf("CompoundAttrs: %v", err)
	}
	if want := Attr(0); got != want {
		t.Errorf("unexpected attrs: got: %v, want: %v", got, want)
	}
}
