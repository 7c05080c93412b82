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

// Package testutil provides helpers for writing dictionary test
// fixtures.
package testutil

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ianlewis/go-dictzip"
)

// FileOptions are options for writing fixture files.
type FileOptions struct {
	// Ext overrides the file extension.
	Ext string

	// Gzip compresses the file with gzip.
	Gzip bool

	// DictZip compresses the file with dictzip.
	DictZip bool
}

func (o *FileOptions) ext(base string) string {
	if o == nil {
		return base
	}
	if o.Ext != "" {
		return o.Ext
	}
	if o.DictZip {
		return base + ".dz"
	}
	if o.Gzip {
		return base + ".gz"
	}
	return base
}

// WriteTempDict writes a temporary word list file with one entry per
// line and returns its path.
func WriteTempDict(t *testing.T, lines []string, opts *FileOptions) string {
	t.Helper()
	return writeTemp(t, "words"+opts.ext(".dict"), lines, opts)
}

// WriteTempAffix writes a temporary affix file and returns its path.
func WriteTempAffix(t *testing.T, lines []string, opts *FileOptions) string {
	t.Helper()
	return writeTemp(t, "rules"+opts.ext(".affix"), lines, opts)
}

func writeTemp(t *testing.T, name string, lines []string, opts *FileOptions) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			t.Fatal(err)
		}
	}()

	content := []byte(strings.Join(lines, "\n") + "\n")

	switch {
	case opts != nil && opts.DictZip:
		z, err := dictzip.NewWriter(f)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := z.Write(content); err != nil {
			t.Fatal(err)
		}
		if err := z.Close(); err != nil {
			t.Fatal(err)
		}
	case opts != nil && opts.Gzip:
		z := gzip.NewWriter(f)
		if _, err := z.Write(content); err != nil {
			t.Fatal(err)
		}
		if err := z.Close(); err != nil {
			t.Fatal(err)
		}
	default:
		if _, err := f.Write(content); err != nil {
			t.Fatal(err)
		}
	}

	return path
}
