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

package dic

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ianlewis/go-dictzip"
)

// readCloser wraps a decompressing reader together with the closers for
// the underlying file.
type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (r *readCloser) Close() error {
	for _, c := range r.closers {
		if err := c.Close(); err != nil {
			return fmt.Errorf("closing word list: %w", err)
		}
	}
	return nil
}

// Open opens the word list file at the given path. Files with a .gz
// extension are decompressed with gzip and files with a .dz extension
// are decompressed with dictzip.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %q: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		z, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("opening %q: %w", path, err)
		}
		return &readCloser{Reader: z, closers: []io.Closer{z, f}}, nil
	case ".dz":
		z, err := dictzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("opening %q: %w", path, err)
		}
		return &readCloser{Reader: z, closers: []io.Closer{z, f}}, nil
	default:
		return f, nil
	}
}

// ReadAll reads all entries from the word list file at the given path.
func ReadAll(path string, options *ScannerOptions) ([]*Entry, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}

	s, err := NewScanner(r, options)
	if err != nil {
		_ = r.Close()
		return nil, err
	}
	defer s.Close()

	var entries []*Entry
	for s.Scan() {
		entries = append(entries, s.Entry())
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}
	return entries, nil
}
