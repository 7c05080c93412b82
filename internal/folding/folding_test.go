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

package folding

import (
	"testing"

	"golang.org/x/text/language"
	"golang.org/x/text/transform"
)

func TestLower(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		tag      language.Tag
		input    string
		expected string
	}{
		{
			name:     "ascii",
			tag:      language.Und,
			input:    "FooBar",
			expected: "foobar",
		},
		{
			name:     "non-ascii",
			tag:      language.Und,
			input:    "GRÜSSE",
			expected: "grüsse",
		},
		{
			name:     "turkish dotless i",
			tag:      language.Turkish,
			input:    "DIŞ",
			expected: "dış",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			got, _, err := transform.String(Lower(test.tag)(), test.input)
			if err != nil {
				t.Fatalf("Lower: %v", err)
			}
			if got != test.expected {
				t.Errorf("unexpected result: got: %q, want: %q", got, test.expected)
			}
		})
	}
}

func TestWhitespaceFolder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "no whitespace",
			input:    "foo",
			expected: "foo",
		},
		{
			name:     "leading and trailing",
			input:    "  foo\t",
			expected: "foo",
		},
		{
			name:     "internal span",
			input:    "foo \t bar",
			expected: "foo bar",
		},
		{
			name:     "only whitespace",
			input:    " \t\n ",
			expected: "",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			got, _, err := transform.String(&WhitespaceFolder{}, test.input)
			if err != nil {
				t.Fatalf("WhitespaceFolder: %v", err)
			}
			if got != test.expected {
				t.Errorf("unexpected result: got: %q, want: %q", got, test.expected)
			}
		})
	}
}
