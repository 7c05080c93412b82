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

package shdict

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// The registry file lists the dictionaries published in a cache
// directory together with their sizes and reference counts. It is only
// read and written while holding the cache lock.
//
// Layout (little endian):
//
//	magic    4 bytes  "ISPR"
//	version  uint32
//	count    uint32
//	entries  count * 24 bytes:
//	    id    uint32
//	    pad   uint32
//	    size  uint64
//	    refs  uint64
const (
	registryMagic   = "ISPR"
	registryVersion = 1

	registryHdrSize   = 12
	registryEntrySize = 24
)

// ErrRegistryVersion indicates that the registry file was written by an
// incompatible version.
var ErrRegistryVersion = errors.New("unsupported cache registry version")

var errBadRegistry = errors.New("malformed cache registry")

// registryEntry describes one published dictionary.
type registryEntry struct {
	id   uint32
	size uint64
	refs uint64
}

type registry struct {
	entries []registryEntry
}

func (r *registry) find(id uint32) *registryEntry {
	for i := range r.entries {
		if r.entries[i].id == id {
			return &r.entries[i]
		}
	}
	return nil
}

func (r *registry) remove(id uint32) {
	for i := range r.entries {
		if r.entries[i].id == id {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return
		}
	}
}

// totalSize returns the combined size of all published dictionaries.
func (r *registry) totalSize() uint64 {
	var total uint64
	for i := range r.entries {
		total += r.entries[i].size
	}
	return total
}

// readRegistry reads the registry file. A missing file is an empty
// registry.
func readRegistry(path string) (*registry, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &registry{}, nil
		}
		return nil, fmt.Errorf("reading registry: %w", err)
	}

	if len(buf) < registryHdrSize || string(buf[:4]) != registryMagic {
		return nil, fmt.Errorf("%w: bad magic", errBadRegistry)
	}
	if v := binary.LittleEndian.Uint32(buf[4:]); v != registryVersion {
		return nil, fmt.Errorf("%w: %d", ErrRegistryVersion, v)
	}

	count := binary.LittleEndian.Uint32(buf[8:])
	if uint64(len(buf)) < registryHdrSize+uint64(count)*registryEntrySize {
		return nil, fmt.Errorf("%w: truncated", errBadRegistry)
	}

	r := &registry{}
	for i := uint32(0); i < count; i++ {
		b := buf[registryHdrSize+i*registryEntrySize:]
		r.entries = append(r.entries, registryEntry{
			id:   binary.LittleEndian.Uint32(b),
			size: binary.LittleEndian.Uint64(b[8:]),
			refs: binary.LittleEndian.Uint64(b[16:]),
		})
	}
	return r, nil
}

// writeRegistry atomically replaces the registry file.
func writeRegistry(path string, r *registry) error {
	buf := make([]byte, 0, registryHdrSize+len(r.entries)*registryEntrySize)
	buf = append(buf, registryMagic...)
	buf = binary.LittleEndian.AppendUint32(buf, registryVersion)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(r.entries)))
	for i := range r.entries {
		e := &r.entries[i]
		buf = binary.LittleEndian.AppendUint32(buf, e.id)
		buf = binary.LittleEndian.AppendUint32(buf, 0)
		buf = binary.LittleEndian.AppendUint64(buf, e.size)
		buf = binary.LittleEndian.AppendUint64(buf, e.refs)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "registry-*")
	if err != nil {
		return fmt.Errorf("writing registry: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		return fmt.Errorf("writing registry: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing registry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing registry: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing registry: %w", err)
	}
	return nil
}
