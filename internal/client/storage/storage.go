// Package storage provides the key-value stores the storefront client keeps
// its state in: an in-memory map, a JSON file, an SQLite database, and an
// encrypting wrapper around any of them.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// DefaultFile is the file used by FileStore when no path is given.
const DefaultFile = "storefront.json"

// FileStore keeps every key in one JSON document. The whole document is
// rewritten on each Set or Remove.
type FileStore struct {
	mu   sync.Mutex
	path string
	data map[string]string
}

// document is the on-disk layout of a FileStore.
type document struct {
	Entries map[string]string `json:"entries"`
}

// NewFileStore opens the store at path. A missing file is an empty store.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		path = DefaultFile
	}
	fs := &FileStore{path: path, data: make(map[string]string)}
	if err := fs.load(); err != nil {
		return nil, err
	}
	return fs, nil
}

func (fs *FileStore) load() error {
	f, err := os.Open(fs.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open %s: %w", fs.path, err)
	}
	defer f.Close()

	var doc document
	if err := json.NewDecoder(f).Decode(&doc); err != nil {
		return fmt.Errorf("decode %s: %w", fs.path, err)
	}
	if doc.Entries != nil {
		fs.data = doc.Entries
	}
	return nil
}

func (fs *FileStore) save() error {
	if dir := filepath.Dir(fs.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	f, err := os.OpenFile(fs.path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("create %s: %w", fs.path, err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(document{Entries: fs.data})
}

// Get returns the value stored under key.
func (fs *FileStore) Get(key string) (string, bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	v, ok := fs.data[key]
	return v, ok, nil
}

// Set stores value under key and rewrites the file.
func (fs *FileStore) Set(key, value string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.data[key] = value
	return fs.save()
}

// Remove deletes key and rewrites the file.
func (fs *FileStore) Remove(key string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if _, ok := fs.data[key]; !ok {
		return nil
	}
	delete(fs.data, key)
	return fs.save()
}

// Path returns the file backing the store.
func (fs *FileStore) Path() string { return fs.path }
