package restclient

import (
	"crypto/md5"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Store is the key-value backing for cached responses. Implementations
// return verbatim response bytes; a missing or unreadable entry is a miss.
type Store interface {
	Get(key string) ([]byte, bool)
	Put(key string, data []byte) error
}

// FileStore persists one JSON file per request signature in a flat directory.
// Entries are never expired; delete the file to invalidate.
type FileStore struct {
	dir string
}

// NewFileStore creates the cache directory if needed and returns a store
// rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory backing the store.
func (fs *FileStore) Dir() string {
	return fs.dir
}

func (fs *FileStore) Get(key string) ([]byte, bool) {
	data, err := os.ReadFile(fs.path(key))
	if err != nil {
		return nil, false
	}
	return data, true
}

// Put writes via a temp file and rename so a partial write is never
// observable as a cache entry.
func (fs *FileStore) Put(key string, data []byte) error {
	path := fs.path(key)
	tmp, err := os.CreateTemp(fs.dir, ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

func (fs *FileStore) path(key string) string {
	return filepath.Join(fs.dir, key+".json")
}

// MemStore is an in-memory Store for tests.
type MemStore struct {
	entries map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{entries: make(map[string][]byte)}
}

func (ms *MemStore) Get(key string) ([]byte, bool) {
	data, ok := ms.entries[key]
	return data, ok
}

func (ms *MemStore) Put(key string, data []byte) error {
	ms.entries[key] = data
	return nil
}

// Len returns the number of stored entries.
func (ms *MemStore) Len() int {
	return len(ms.entries)
}

// cacheKey builds a deterministic, filesystem-safe signature from the
// method, endpoint, sorted query parameters and (for POST) the body bytes.
func cacheKey(method, endpoint string, params url.Values, body []byte) string {
	parts := []string{method, endpoint}

	if len(params) > 0 {
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			parts = append(parts, k+"="+strings.Join(params[k], ","))
		}
	}

	if len(body) > 0 {
		parts = append(parts, fmt.Sprintf("%x", md5.Sum(body)))
	}

	return sanitizeKey(strings.Join(parts, "_"))
}

// sanitizeKey replaces path and query separators so the signature is a valid
// flat filename. Overlong keys fall back to a digest to stay under
// filesystem name limits.
func sanitizeKey(key string) string {
	if len(key) > 200 {
		return fmt.Sprintf("sig_%x", md5.Sum([]byte(key)))
	}
	replacer := strings.NewReplacer(
		"/", "_", ":", "_", "?", "_", "&", "_",
		"=", "_", "#", "_", " ", "_", "*", "_",
		"<", "_", ">", "_", "|", "_", "\"", "_",
	)
	return replacer.Replace(key)
}
