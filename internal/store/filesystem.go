package store

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FilesystemBackend stores one JSON file per key under a root directory.
// Cache keys contain characters that are unsafe in filenames (":", CJK,
// user-supplied location strings), so each key is mapped to a sanitized
// prefix plus a hex suffix of the unsafe remainder.
type FilesystemBackend struct {
	root      string
	writeLock sync.Mutex
}

// NewFilesystemBackend creates a file-backed store rooted at dir.
func NewFilesystemBackend(dir string) *FilesystemBackend {
	return &FilesystemBackend{root: dir}
}

// Path returns the filesystem path for the given cache key.
func (b *FilesystemBackend) Path(key string) string {
	return filepath.Join(b.root, encodeKey(key)+".json")
}

func (b *FilesystemBackend) Load(key string) ([]byte, bool) {
	data, err := os.ReadFile(b.Path(key))
	if err != nil {
		return nil, false
	}
	return data, true
}

func (b *FilesystemBackend) Save(key string, value []byte) error {
	b.writeLock.Lock()
	defer b.writeLock.Unlock()

	if err := os.MkdirAll(b.root, 0o755); err != nil {
		return err
	}

	// Write to a temp file first, then rename (atomic).
	path := b.Path(key)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, value, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

func (b *FilesystemBackend) Reset() error {
	b.writeLock.Lock()
	defer b.writeLock.Unlock()

	entries, err := os.ReadDir(b.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var firstErr error
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		if err := os.Remove(filepath.Join(b.root, e.Name())); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// encodeKey maps a cache key to a filename: a readable sanitized prefix plus
// a short SHA-256 suffix of the full key so distinct keys never collide.
func encodeKey(key string) string {
	sum := sha256.Sum256([]byte(key))

	var safe strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			safe.WriteRune(r)
		default:
			safe.WriteByte('_')
		}
	}

	prefix := safe.String()
	if len(prefix) > 48 {
		prefix = prefix[:48]
	}
	return prefix + "-" + hex.EncodeToString(sum[:6])
}
