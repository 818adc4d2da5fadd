// Package mapcache provides a process-wide cache of memory-mapped media
// files, coalesced by path. Multiple sessions streaming the same file share
// exactly one backing mmap; the mapping is dropped once the last session
// that checked it out releases it. Modeled on the in-flight-map coalescing
// pattern in the tuner's materializer cache (internal/materializer/cache.go),
// adapted from "download once, let waiters share the result" to "mmap once,
// let every session read the same bytes".
package mapcache

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// MappedFile is an immutable read-only memory map of a filesystem path.
// Once handed out by Cache.Get, its byte slice is stable until the mapping
// is actually unmapped, which only happens when the last outstanding
// Get/Release pair has closed.
type MappedFile struct {
	path string
	data []byte
}

// Path returns the mapped file's source path.
func (m *MappedFile) Path() string { return m.path }

// Bytes returns the mapped, read-only byte slice. Valid as long as the
// caller holds an outstanding reference obtained from Cache.Get.
func (m *MappedFile) Bytes() []byte { return m.data }

// Len returns the mapped file size in bytes.
func (m *MappedFile) Len() int { return len(m.data) }

func openMappedFile(path string) (*MappedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mapcache: open %s: %w", path, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("mapcache: stat %s: %w", path, err)
	}
	size := fi.Size()
	if size == 0 {
		return nil, fmt.Errorf("mapcache: %s is empty", path)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mapcache: mmap %s: %w", path, err)
	}

	return &MappedFile{path: path, data: data}, nil
}

func (m *MappedFile) close() error {
	if m.data == nil {
		return nil
	}
	err := unix.Munmap(m.data)
	m.data = nil
	return err
}

type entry struct {
	file *MappedFile
	refs int
}

// Cache is a process-wide map from path to a refcounted MappedFile. A
// query for path P returns the existing MappedFile iff some caller still
// holds an outstanding reference to it (i.e. has called Get without a
// matching Release); otherwise the file is mapped again. This is the
// explicit strong-ref-plus-refcount realization of "weak reference to
// mapped files" called out as the idiom to use in languages without
// first-class weak pointers — it keeps mmap/munmap timing deterministic
// instead of tying it to GC finalization.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[string]*entry)}
}

// Get returns the shared MappedFile for path, mapping the file if no
// outstanding handle currently exists. Each successful call must be paired
// with exactly one Release call once the caller is done with the file.
func (c *Cache) Get(path string) (*MappedFile, error) {
	c.mu.Lock()
	if e, ok := c.entries[path]; ok {
		e.refs++
		c.mu.Unlock()
		return e.file, nil
	}
	c.mu.Unlock()

	mf, err := openMappedFile(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Another goroutine may have raced us and already installed a mapping
	// for the same path; prefer it and unmap ours to avoid a leaked mmap.
	if e, ok := c.entries[path]; ok {
		e.refs++
		_ = mf.close()
		return e.file, nil
	}
	c.entries[path] = &entry{file: mf, refs: 1}
	return mf, nil
}

// Release drops one outstanding reference to path's mapping. When the
// reference count reaches zero the mapping is unmapped and the cache entry
// removed. Releasing a path with no outstanding references is a no-op.
func (c *Cache) Release(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[path]
	if !ok {
		return
	}
	e.refs--
	if e.refs <= 0 {
		_ = e.file.close()
		delete(c.entries, path)
	}
}

// ActiveCount returns the number of paths with a currently-live mapping.
func (c *Cache) ActiveCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every entry, unmapping each live mapping immediately
// regardless of outstanding reference counts. Used at process shutdown.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for path, e := range c.entries {
		_ = e.file.close()
		delete(c.entries, path)
	}
}
