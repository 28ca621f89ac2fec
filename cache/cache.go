// Package cache provides the content-addressed store for prepared OCR
// surfaces. Keys combine a hash of the raw input bytes with a signature of the
// preprocessing flags that affect pixel output, so entries can never go stale;
// they are only ever missing. Concurrent writers racing on the same key are
// benign because both produce byte-identical entries.
package cache

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/blake2b"
)

// Key addresses one prepared surface.
type Key struct {
	// ContentHash is the hex BLAKE2b-256 digest of the raw input bytes.
	ContentHash string
	// Signature encodes the preprocessing flags applied to the content.
	Signature string
}

func (k Key) String() string { return k.ContentHash + "-" + k.Signature }

// HashBytes returns the hex BLAKE2b-256 digest of data.
func HashBytes(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Cache stores prepared surfaces by key. Get reports a miss with ok=false;
// Put failures are surfaced so callers can log them, but callers treat writes
// as best-effort.
type Cache interface {
	Get(key Key) (data []byte, ok bool)
	Put(key Key, data []byte) error
}

// Dir is a Cache backed by a shared scratch directory. Entries are written to
// a temporary file and renamed into place so readers never observe partial
// content. Entries are never proactively deleted.
type Dir struct {
	root string
}

// NewDir creates the scratch directory if needed and returns a Dir cache.
func NewDir(root string) (*Dir, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Dir{root: root}, nil
}

func (d *Dir) path(key Key) string {
	return filepath.Join(d.root, key.String()+".png")
}

// Get reads the entry for key, if present.
func (d *Dir) Get(key Key) ([]byte, bool) {
	data, err := os.ReadFile(d.path(key))
	if err != nil {
		return nil, false
	}
	return data, true
}

// Put writes the entry atomically (write-then-rename).
func (d *Dir) Put(key Key, data []byte) error {
	tmp, err := os.CreateTemp(d.root, key.String()+".tmp-*")
	if err != nil {
		return fmt.Errorf("create cache temp: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("write cache temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("close cache temp: %w", err)
	}
	if err := os.Rename(name, d.path(key)); err != nil {
		os.Remove(name)
		return fmt.Errorf("publish cache entry: %w", err)
	}
	return nil
}

// Mem is an in-memory Cache for tests and short-lived processes.
type Mem struct {
	mu      sync.RWMutex
	entries map[Key][]byte
}

// NewMem returns an empty in-memory cache.
func NewMem() *Mem {
	return &Mem{entries: make(map[Key][]byte)}
}

func (m *Mem) Get(key Key) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.entries[key]
	return data, ok
}

func (m *Mem) Put(key Key, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = append([]byte(nil), data...)
	return nil
}

// Nop is a Cache that never hits and discards writes, used when caching is
// disabled.
type Nop struct{}

func (Nop) Get(Key) ([]byte, bool) { return nil, false }
func (Nop) Put(Key, []byte) error  { return nil }
