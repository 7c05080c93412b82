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
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildBlob(blob []byte) BuildFunc {
	return func() ([]byte, error) {
		return blob, nil
	}
}

func TestID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ID("a.dict", "a.affix"), ID("a.dict", "a.affix"))
	assert.NotEqual(t, ID("a.dict", "a.affix"), ID("b.dict", "a.affix"))
	// The separator keeps path boundaries from shifting.
	assert.NotEqual(t, ID("ab", "c"), ID("a", "bc"))
}

func TestCache_GetOrBuild(t *testing.T) {
	t.Parallel()

	c, err := Open(t.TempDir(), nil)
	require.NoError(t, err)
	defer c.Close()

	blob := []byte("dictionary data")
	id := ID("en.dict", "en.affix")

	h, err := c.GetOrBuild(id, buildBlob(blob))
	require.NoError(t, err)
	defer h.Close()

	assert.True(t, h.Shared())
	assert.Equal(t, blob, h.Bytes())

	// A second handle attaches without building.
	h2, err := c.GetOrBuild(id, func() ([]byte, error) {
		t.Error("unexpected build")
		return nil, nil
	})
	require.NoError(t, err)
	defer h2.Close()

	assert.True(t, h2.Shared())
	assert.Equal(t, blob, h2.Bytes())
}

func TestCache_GetOrBuild_buildError(t *testing.T) {
	t.Parallel()

	c, err := Open(t.TempDir(), nil)
	require.NoError(t, err)
	defer c.Close()

	errBuild := errors.New("build failed")
	_, err = c.GetOrBuild(1, func() ([]byte, error) {
		return nil, errBuild
	})
	assert.ErrorIs(t, err, errBuild)
}

func TestCache_GetOrBuild_disabled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c, err := Open(dir, &Options{MaxBytes: 0})
	require.NoError(t, err)
	defer c.Close()

	blob := []byte("dictionary data")
	h, err := c.GetOrBuild(1, buildBlob(blob))
	require.NoError(t, err)
	defer h.Close()

	assert.False(t, h.Shared())
	assert.Equal(t, blob, h.Bytes())

	// Nothing was published.
	_, err = os.Stat(c.dictPath(1))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCache_GetOrBuild_quotaExceeded(t *testing.T) {
	t.Parallel()

	c, err := Open(t.TempDir(), &Options{MaxBytes: 1})
	require.NoError(t, err)
	defer c.Close()

	blob := []byte("dictionary data")
	h, err := c.GetOrBuild(1, buildBlob(blob))
	require.NoError(t, err)
	defer h.Close()

	// Over quota the dictionary still works but is process private.
	assert.False(t, h.Shared())
	assert.Equal(t, blob, h.Bytes())

	_, err = os.Stat(c.dictPath(1))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCache_GetOrBuild_concurrent(t *testing.T) {
	t.Parallel()

	c, err := Open(t.TempDir(), nil)
	require.NoError(t, err)
	defer c.Close()

	var builds atomic.Int32
	build := func() ([]byte, error) {
		builds.Add(1)
		return []byte("dictionary data"), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := c.GetOrBuild(1, build)
			if assert.NoError(t, err) {
				assert.Equal(t, []byte("dictionary data"), h.Bytes())
				assert.NoError(t, h.Close())
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), builds.Load())
}

func TestCache_release(t *testing.T) {
	t.Parallel()

	c, err := Open(t.TempDir(), nil)
	require.NoError(t, err)
	defer c.Close()

	h, err := c.GetOrBuild(1, buildBlob([]byte("dictionary data")))
	require.NoError(t, err)

	_, err = os.Stat(c.dictPath(1))
	require.NoError(t, err)

	// Closing the last handle removes the dictionary.
	require.NoError(t, h.Close())
	_, err = os.Stat(c.dictPath(1))
	assert.ErrorIs(t, err, os.ErrNotExist)

	reg, err := readRegistry(c.registryPath())
	require.NoError(t, err)
	assert.Empty(t, reg.entries)

	// Close is idempotent.
	require.NoError(t, h.Close())
}

func TestCache_crossProcess(t *testing.T) {
	t.Parallel()

	// Two caches on the same directory behave like two processes.
	dir := t.TempDir()
	c1, err := Open(dir, nil)
	require.NoError(t, err)
	defer c1.Close()
	c2, err := Open(dir, nil)
	require.NoError(t, err)
	defer c2.Close()

	blob := []byte("dictionary data")
	h1, err := c1.GetOrBuild(1, buildBlob(blob))
	require.NoError(t, err)

	h2, err := c2.GetOrBuild(1, func() ([]byte, error) {
		t.Error("unexpected build")
		return nil, nil
	})
	require.NoError(t, err)

	assert.True(t, h2.Shared())
	assert.Equal(t, blob, h2.Bytes())

	// The dictionary survives until the last user is gone.
	require.NoError(t, h1.Close())
	_, err = os.Stat(c1.dictPath(1))
	require.NoError(t, err)

	require.NoError(t, h2.Close())
	_, err = os.Stat(c1.dictPath(1))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCache_versionMismatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c, err := Open(dir, nil)
	require.NoError(t, err)
	defer c.Close()

	// Publish a dictionary written by a hypothetical newer version.
	require.NoError(t, os.WriteFile(c.dictPath(1), []byte("ISPD\x02\x00\x00\x00data"), 0o600))
	require.NoError(t, writeRegistry(c.registryPath(), &registry{
		entries: []registryEntry{{id: 1, size: 12, refs: 1}},
	}))

	_, err = c.GetOrBuild(1, buildBlob([]byte("dictionary data")))
	assert.ErrorIs(t, err, ErrDictVersion)
}

func TestCache_staleRegistryEntry(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c, err := Open(dir, nil)
	require.NoError(t, err)
	defer c.Close()

	// A registry entry whose file has disappeared is repaired by
	// rebuilding the dictionary.
	require.NoError(t, writeRegistry(c.registryPath(), &registry{
		entries: []registryEntry{{id: 1, size: 12, refs: 1}},
	}))

	h, err := c.GetOrBuild(1, buildBlob([]byte("dictionary data")))
	require.NoError(t, err)
	defer h.Close()

	assert.True(t, h.Shared())
	assert.Equal(t, []byte("dictionary data"), h.Bytes())
}

func TestCache_closed(t *testing.T) {
	t.Parallel()

	c, err := Open(t.TempDir(), nil)
	require.NoError(t, err)
	require.NoError(t, c.Close())

	_, err = c.GetOrBuild(1, buildBlob([]byte("dictionary data")))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRegistry_roundTrip(t *testing.T) {
	t.Parallel()

	path := t.TempDir() + "/registry"

	// A missing registry reads as empty.
	reg, err := readRegistry(path)
	require.NoError(t, err)
	assert.Empty(t, reg.entries)

	reg.entries = []registryEntry{
		{id: 1, size: 100, refs: 2},
		{id: 42, size: 2048, refs: 1},
	}
	require.NoError(t, writeRegistry(path, reg))

	got, err := readRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, reg.entries, got.entries)

	// Truncated registries are rejected.
	buf, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, buf[:len(buf)-1], 0o600))
	_, err = readRegistry(path)
	assert.ErrorIs(t, err, errBadRegistry)
}
