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
	"fmt"
	"hash/fnv"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"

	"github.com/edsrzf/mmap-go"
	"github.com/gofrs/flock"
	"golang.org/x/sync/singleflight"
)

// Shared dictionary files carry a small header in front of the
// dictionary blob.
//
//	magic    4 bytes  "ISPD"
//	version  uint32
const (
	dictMagic   = "ISPD"
	dictVersion = 1
	dictHdrSize = 8
)

// QuotaUnlimited disables the cache size limit.
const QuotaUnlimited int64 = -1

// ErrDictVersion indicates that a shared dictionary file was written by
// an incompatible version.
var ErrDictVersion = errors.New("unsupported shared dictionary version")

// ErrClosed is returned when using a closed cache.
var ErrClosed = errors.New("cache is closed")

// Options are options for opening a shared dictionary cache.
type Options struct {
	// MaxBytes is the combined size limit of the dictionaries published
	// in the cache directory. Zero disables sharing entirely and
	// QuotaUnlimited removes the limit. When publishing a dictionary
	// would exceed the limit the caller gets a process-private copy
	// instead.
	MaxBytes int64

	// Logger is used to report non-fatal conditions such as quota
	// fallbacks. Defaults to [slog.Default].
	Logger *slog.Logger
}

// DefaultOptions is the default options for Open.
var DefaultOptions = &Options{
	MaxBytes: QuotaUnlimited,
}

// BuildFunc compiles a dictionary into its serialized form.
type BuildFunc func() ([]byte, error)

// Cache is a dictionary cache shared between processes through a
// common directory. Dictionaries are stored as files and mapped into
// memory on attach, so every process using a dictionary shares one
// copy of its data. A registry file tracks the published dictionaries
// and their reference counts; a dictionary is removed once the last
// process detaches from it.
//
// A Cache is safe for concurrent use.
type Cache struct {
	dir      string
	maxBytes int64
	logger   *slog.Logger

	// lock serializes registry access across processes. File locks do
	// not exclude goroutines of the same process, so regMu is held
	// alongside it for every registry read-modify-write.
	lock  *flock.Flock
	regMu sync.Mutex

	group singleflight.Group

	mu     sync.Mutex
	maps   map[uint32]*attachment
	closed bool
}

// attachment is a per-process memory mapping of a shared dictionary.
type attachment struct {
	f    *os.File
	mm   mmap.MMap
	refs int
}

// Handle is a reference to a dictionary obtained from a cache. The
// dictionary bytes stay valid until the handle is closed.
type Handle struct {
	cache  *Cache
	id     uint32
	data   []byte
	shared bool

	closeOnce sync.Once
	closeErr  error
}

// Bytes returns the serialized dictionary.
func (h *Handle) Bytes() []byte {
	return h.data
}

// Shared reports whether the dictionary is shared with other processes
// rather than private to the caller.
func (h *Handle) Shared() bool {
	return h.shared
}

// Close releases the handle. Closing the last handle of a dictionary
// across all processes removes it from the cache.
func (h *Handle) Close() error {
	h.closeOnce.Do(func() {
		runtime.SetFinalizer(h, nil)
		if h.shared {
			h.closeErr = h.cache.release(h.id)
		}
	})
	return h.closeErr
}

// ID derives a cache id from a set of file paths, typically the
// dictionary and affix file paths the dictionary was compiled from.
func ID(paths ...string) uint32 {
	h := fnv.New32a()
	for _, p := range paths {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return h.Sum32()
}

// Open opens the shared dictionary cache in the given directory,
// creating it if necessary.
func Open(dir string, options *Options) (*Cache, error) {
	if options == nil {
		options = DefaultOptions
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	return &Cache{
		dir:      dir,
		maxBytes: options.MaxBytes,
		logger:   logger,
		lock:     flock.New(filepath.Join(dir, "lock")),
		maps:     map[uint32]*attachment{},
	}, nil
}

func (c *Cache) registryPath() string {
	return filepath.Join(c.dir, "registry")
}

func (c *Cache) dictPath(id uint32) string {
	return filepath.Join(c.dir, fmt.Sprintf("%08x.dict", id))
}

// GetOrBuild returns a handle to the dictionary with the given id,
// building and publishing it first if no process has published it yet.
// The build runs outside the cache lock so that other dictionaries
// remain usable while it runs. When sharing is disabled or the cache
// is over quota the handle wraps a process-private copy.
func (c *Cache) GetOrBuild(id uint32, build BuildFunc) (*Handle, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	if c.maxBytes == 0 {
		blob, err := build()
		if err != nil {
			return nil, err
		}
		return &Handle{data: blob}, nil
	}

	for attempt := 0; attempt < 3; attempt++ {
		h, err := c.attach(id)
		if err != nil {
			return nil, err
		}
		if h != nil {
			return h, nil
		}

		// One build per id per process; concurrent callers share the
		// result.
		v, err, _ := c.group.Do(strconv.FormatUint(uint64(id), 16), func() (any, error) {
			return c.buildAndPublish(id, build)
		})
		if err != nil {
			return nil, err
		}
		if blob, ok := v.([]byte); ok && blob != nil {
			// Not published due to the quota; use the built copy.
			return &Handle{data: blob}, nil
		}

		// Published; attach on the next iteration. Retry in case
		// another process removed the dictionary in between.
	}

	return nil, fmt.Errorf("attaching shared dictionary %08x: retries exhausted", id)
}

// buildAndPublish builds the dictionary and publishes it unless another
// process got there first. It returns a non-nil blob when the quota
// prevented publication.
func (c *Cache) buildAndPublish(id uint32, build BuildFunc) ([]byte, error) {
	// Double-checked: another process may have published while we
	// waited for the build slot.
	published, err := c.isPublished(id)
	if err != nil {
		return nil, err
	}
	if published {
		return nil, nil
	}

	blob, err := build()
	if err != nil {
		return nil, err
	}

	c.regMu.Lock()
	defer c.regMu.Unlock()
	if err := c.lock.Lock(); err != nil {
		return nil, fmt.Errorf("locking cache: %w", err)
	}
	defer c.lock.Unlock()

	reg, err := readRegistry(c.registryPath())
	if err != nil {
		return nil, err
	}
	if reg.find(id) != nil {
		// Raced with another process; discard our build.
		return nil, nil
	}

	size := uint64(len(blob)) + dictHdrSize
	if c.maxBytes > 0 && reg.totalSize()+size > uint64(c.maxBytes) {
		c.logger.Warn("shared dictionary cache quota exceeded, using process-private copy",
			"id", fmt.Sprintf("%08x", id),
			"size", size,
			"max_bytes", c.maxBytes,
		)
		return blob, nil
	}

	if err := c.writeDict(id, blob); err != nil {
		return nil, err
	}

	reg.entries = append(reg.entries, registryEntry{id: id, size: size})
	if err := writeRegistry(c.registryPath(), reg); err != nil {
		os.Remove(c.dictPath(id))
		return nil, err
	}
	return nil, nil
}

func (c *Cache) isPublished(id uint32) (bool, error) {
	c.regMu.Lock()
	defer c.regMu.Unlock()
	if err := c.lock.RLock(); err != nil {
		return false, fmt.Errorf("locking cache: %w", err)
	}
	defer c.lock.Unlock()

	reg, err := readRegistry(c.registryPath())
	if err != nil {
		return false, err
	}
	return reg.find(id) != nil, nil
}

// writeDict writes the dictionary file, fsyncs it and moves it into
// place.
func (c *Cache) writeDict(id uint32, blob []byte) error {
	tmp, err := os.CreateTemp(c.dir, "dict-*")
	if err != nil {
		return fmt.Errorf("writing dictionary: %w", err)
	}
	defer os.Remove(tmp.Name())

	hdr := make([]byte, 0, dictHdrSize)
	hdr = append(hdr, dictMagic...)
	hdr = append(hdr, byte(dictVersion), 0, 0, 0)

	if _, err := tmp.Write(hdr); err != nil {
		tmp.Close()
		return fmt.Errorf("writing dictionary: %w", err)
	}
	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		return fmt.Errorf("writing dictionary: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing dictionary: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing dictionary: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.dictPath(id)); err != nil {
		return fmt.Errorf("publishing dictionary: %w", err)
	}
	return nil
}

// attach maps the published dictionary into memory and takes a
// reference on it. It returns nil without error when the dictionary is
// not published.
func (c *Cache) attach(id uint32) (*Handle, error) {
	c.regMu.Lock()
	defer c.regMu.Unlock()
	if err := c.lock.Lock(); err != nil {
		return nil, fmt.Errorf("locking cache: %w", err)
	}
	defer c.lock.Unlock()

	reg, err := readRegistry(c.registryPath())
	if err != nil {
		return nil, err
	}
	e := reg.find(id)
	if e == nil {
		return nil, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	att := c.maps[id]
	if att == nil {
		f, err := os.Open(c.dictPath(id))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				// Stale registry entry; drop it.
				reg.remove(id)
				if err := writeRegistry(c.registryPath(), reg); err != nil {
					return nil, err
				}
				return nil, nil
			}
			return nil, fmt.Errorf("opening shared dictionary: %w", err)
		}

		hdr := make([]byte, dictHdrSize)
		if _, err := f.ReadAt(hdr, 0); err != nil {
			f.Close()
			return nil, fmt.Errorf("reading shared dictionary header: %w", err)
		}
		if string(hdr[:4]) != dictMagic || hdr[4] != dictVersion {
			f.Close()
			return nil, fmt.Errorf("%w: %08x", ErrDictVersion, id)
		}

		mm, err := mmap.Map(f, mmap.RDONLY, 0)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("mapping shared dictionary: %w", err)
		}

		att = &attachment{f: f, mm: mm}
		c.maps[id] = att
	}
	att.refs++
	e.refs++
	if err := writeRegistry(c.registryPath(), reg); err != nil {
		return nil, err
	}

	h := &Handle{
		cache:  c,
		id:     id,
		data:   att.mm[dictHdrSize:],
		shared: true,
	}
	// Safety net for leaked handles. Explicit Close is still required
	// for prompt cleanup.
	runtime.SetFinalizer(h, func(h *Handle) { h.Close() })
	return h, nil
}

// release drops one reference to the dictionary. The dictionary file
// is removed when the last reference across all processes is gone.
func (c *Cache) release(id uint32) error {
	c.regMu.Lock()
	defer c.regMu.Unlock()
	if err := c.lock.Lock(); err != nil {
		return fmt.Errorf("locking cache: %w", err)
	}
	defer c.lock.Unlock()

	reg, err := readRegistry(c.registryPath())
	if err != nil {
		return err
	}
	if e := reg.find(id); e != nil {
		if e.refs > 0 {
			e.refs--
		}
		if e.refs == 0 {
			reg.remove(id)
			os.Remove(c.dictPath(id))
		}
		if err := writeRegistry(c.registryPath(), reg); err != nil {
			return err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	att := c.maps[id]
	if att == nil {
		return nil
	}
	att.refs--
	if att.refs > 0 {
		return nil
	}
	delete(c.maps, id)
	if err := att.mm.Unmap(); err != nil {
		att.f.Close()
		return fmt.Errorf("unmapping shared dictionary: %w", err)
	}
	if err := att.f.Close(); err != nil {
		return fmt.Errorf("closing shared dictionary: %w", err)
	}
	return nil
}

// Close releases all handles held by this process.
func (c *Cache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	refs := map[uint32]int{}
	for id, att := range c.maps {
		refs[id] = att.refs
	}
	c.mu.Unlock()

	var errs []error
	for id, n := range refs {
		for i := 0; i < n; i++ {
			if err := c.release(id); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
