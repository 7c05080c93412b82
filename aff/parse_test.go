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
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestParse_legacy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected *File
		err      error
	}{
		{
			name: "suffix rules",
			input: strings.Join([]string{
				"suffixes",
				"flag *X:",
				"    E           >       -E, S",
				"    Y           >       -Y, IES",
			}, "\n"),
			expected: &File{
				FlagMode: FlagChar,
				Rules: []*Rule{
					{Type: Suffix, Flag: "X", Attr: CrossProduct, Find: "e", Replace: "s", Mask: "e"},
					{Type: Suffix, Flag: "X", Attr: CrossProduct, Find: "y", Replace: "ies", Mask: "y"},
				},
			},
		},
		{
			name: "prefix rules",
			input: strings.Join([]string{
				"prefixes",
				"flag U:",
				"    .           >       UN",
			}, "\n"),
			expected: &File{
				FlagMode: FlagChar,
				Rules: []*Rule{
					{Type: Prefix, Flag: "U", Find: "", Replace: "un", Mask: "."},
				},
			},
		},
		{
			name: "compound only flag group",
			input: strings.Join([]string{
				"suffixes",
				"flag ~\\T:",
				"    E > ST",
			}, "\n"),
			expected: &File{
				FlagMode: FlagChar,
				Rules: []*Rule{
					{
						Type:    Suffix,
						Flag:    "T",
						Attr:    CompoundOnly | CompoundAny,
						Find:    "",
						Replace: "st",
						Mask:    "e",
					},
				},
			},
		},
		{
			name: "compoundwords controlled",
			input: strings.Join([]string{
				"compoundwords controlled z",
				"suffixes",
				"flag *X:",
				"    E > -E, S",
			}, "\n"),
			expected: &File{
				FlagMode:    FlagChar,
				UseCompound: true,
				Rules: []*Rule{
					{Type: Suffix, Flag: "X", Attr: CrossProduct, Find: "e", Replace: "s", Mask: "e"},
				},
			},
		},
		{
			name: "comments and blank lines skipped",
			input: strings.Join([]string{
				"# comment",
				"",
				"suffixes",
				"flag *X:",
				"# another comment",
				"    E > -E, S",
			}, "\n"),
			expected: &File{
				FlagMode: FlagChar,
				Rules: []*Rule{
					{Type: Suffix, Flag: "X", Attr: CrossProduct, Find: "e", Replace: "s", Mask: "e"},
				},
			},
		},
		{
			name: "rules before a section header skipped",
			input: strings.Join([]string{
				"    E > -E, S",
				"suffixes",
				"flag *X:",
				"    Y > -Y, IES",
			}, "\n"),
			expected: &File{
				FlagMode: FlagChar,
				Rules: []*Rule{
					{Type: Suffix, Flag: "X", Attr: CrossProduct, Find: "y", Replace: "ies", Mask: "y"},
				},
			},
		},
		{
			name: "malformed rule",
			input: strings.Join([]string{
				"suffixes",
				"flag *X:",
				"    E > -E; S",
			}, "\n"),
			err: ErrSyntax,
		},
		{
			name: "mixed dialects",
			input: strings.Join([]string{
				"suffixes",
				"flag *X:",
				"    E > -E, S",
				"SFX A Y 1",
			}, "\n"),
			err: ErrMixedDialect,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f, err := Parse(strings.NewReader(tc.input), nil)
			if got, want := err, tc.err; !errors.Is(got, want) {
				t.Fatalf("unexpected error: got: %v, want: %v", got, want)
			}
			if err != nil {
				return
			}

			diff := cmp.Diff(tc.expected, f,
				cmpopts.IgnoreUnexported(File{}),
			)
			if diff != "" {
				t.Errorf("unexpected file (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_newFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected *File
		err      error
	}{
		{
			name: "suffix and prefix rules",
			input: strings.Join([]string{
				"SFX X Y 2",
				"SFX X   0       s       [^s]",
				"SFX X   y       ies     [^aeiou]y",
				"PFX U N 1",
				"PFX U   0       un      .",
			}, "\n"),
			expected: &File{
				FlagMode: FlagChar,
				Rules: []*Rule{
					{Type: Suffix, Flag: "X", Attr: CrossProduct, Find: "", Replace: "s", Mask: "[^s]"},
					{Type: Suffix, Flag: "X", Attr: CrossProduct, Find: "y", Replace: "ies", Mask: "[^aeiou]y"},
					{Type: Prefix, Flag: "U", Find: "", Replace: "un", Mask: "."},
				},
			},
		},
		{
			name: "numeric flags with compound roles",
			input: strings.Join([]string{
				"FLAG num",
				"COMPOUNDFLAG 100",
				"COMPOUNDPERMITFLAG 101",
				"SFX 201 Y 1",
				"SFX 201  0  s  [^s]",
			}, "\n"),
			expected: &File{
				FlagMode:    FlagNum,
				UseCompound: true,
				Rules: []*Rule{
					{Type: Suffix, Flag: "201", Attr: CrossProduct, Find: "", Replace: "s", Mask: "[^s]"},
				},
			},
		},
		{
			name: "long flags",
			input: strings.Join([]string{
				"FLAG long",
				"SFX AB Y 1",
				"SFX AB  0  en  .",
			}, "\n"),
			expected: &File{
				FlagMode: FlagLong,
				Rules: []*Rule{
					{Type: Suffix, Flag: "AB", Attr: CrossProduct, Find: "", Replace: "en", Mask: "."},
				},
			},
		},
		{
			name: "flags on replace string",
			input: strings.Join([]string{
				"COMPOUNDBEGIN B",
				"COMPOUNDPERMITFLAG P",
				"SFX S N 1",
				"SFX S  0  es/BP  .",
			}, "\n"),
			expected: &File{
				FlagMode:    FlagChar,
				UseCompound: true,
				Rules: []*Rule{
					{
						Type:    Suffix,
						Flag:    "S",
						Attr:    CompoundBegin | CompoundPermit,
						Find:    "",
						Replace: "es",
						Mask:    ".",
					},
				},
			},
		},
		{
			name: "alias table",
			input: strings.Join([]string{
				"FLAG num",
				"COMPOUNDFLAG 100",
				"AF 2",
				"AF 100,101",
				"AF 101",
				"SFX 201 Y 1",
				"SFX 201  0  s/1  .",
			}, "\n"),
			expected: &File{
				FlagMode:       FlagNum,
				UseFlagAliases: true,
				UseCompound:    true,
				AliasSets:      []string{"", "100,101", "101"},
				Rules: []*Rule{
					{
						Type:    Suffix,
						Flag:    "201",
						Attr:    CrossProduct | CompoundAny,
						Find:    "",
						Replace: "s",
						Mask:    ".",
					},
				},
			},
		},
		{
			name: "flag longer than mode skipped",
			input: strings.Join([]string{
				"SFX LONG Y 1",
				"SFX LONG  0  s  .",
				"SFX X Y 1",
				"SFX X  0  s  .",
			}, "\n"),
			expected: &File{
				FlagMode: FlagChar,
				Rules: []*Rule{
					{Type: Suffix, Flag: "X", Attr: CrossProduct, Find: "", Replace: "s", Mask: "."},
				},
			},
		},
		{
			name: "zero placeholders",
			input: strings.Join([]string{
				"PFX U Y 1",
				"PFX U  0  0  .",
			}, "\n"),
			expected: &File{
				FlagMode: FlagChar,
				Rules: []*Rule{
					{Type: Prefix, Flag: "U", Attr: CrossProduct, Find: "", Replace: "", Mask: "."},
				},
			},
		},
		{
			name: "bad flag mode",
			input: strings.Join([]string{
				"FLAG UTF-8",
				"SFX X Y 1",
				"SFX X  0  s  .",
			}, "\n"),
			err: ErrSyntax,
		},
		{
			name: "bad alias count",
			input: strings.Join([]string{
				"AF zero",
				"AF AB",
			}, "\n"),
			err: ErrBadAlias,
		},
		{
			name: "too many aliases",
			input: strings.Join([]string{
				"AF 1",
				"AF AB",
				"AF CD",
			}, "\n"),
			err: ErrBadAlias,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f, err := Parse(strings.NewReader(tc.input), nil)
			if got, want := err, tc.err; !errors.Is(got, want) {
				t.Fatalf("unexpected error: got: %v, want: %v", got, want)
			}
			if err != nil {
				return
			}

			diff := cmp.Diff(tc.expected, f,
				cmpopts.IgnoreUnexported(File{}),
			)
			if diff != "" {
				t.Errorf("unexpected file (-want +got):\n%s", diff)
			}
		})
	}
}
