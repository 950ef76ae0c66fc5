package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps all pairs in a single JSON document on disk. Every
// mutation rewrites the document through a temp file and rename, so readers
// never observe a partially written store.
type FileStore struct {
	path  string
	mu    sync.Mutex
	pairs map[string][]byte
}

// NewFileStore opens (or creates) the store backed by the file at path.
func NewFileStore(path string) (*FileStore, error) {
	fs := &FileStore{path: path, pairs: make(map[string][]byte)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fs, nil
		}
		return nil, fmt.Errorf("read store file: %w", err)
	}
	if err := json.Unmarshal(data, &fs.pairs); err != nil {
		return nil, fmt.Errorf("decode store file: %w", err)
	}
	return fs, nil
}

// Get returns the value stored under key.
func (fs *FileStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	v, ok := fs.pairs[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// Set stores value under key and flushes the document to disk before
// returning.
func (fs *FileStore) Set(_ context.Context, key string, value []byte) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	fs.pairs[key] = v
	return fs.save()
}

// Delete removes key and flushes the document to disk.
func (fs *FileStore) Delete(_ context.Context, key string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if _, ok := fs.pairs[key]; !ok {
		return nil
	}
	delete(fs.pairs, key)
	return fs.save()
}

// save writes the full document atomically. Callers must hold fs.mu.
func (fs *FileStore) save() error {
	data, err := json.Marshal(fs.pairs)
	if err != nil {
		return fmt.Errorf("encode store file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fs.path), ".vault-*")
	if err != nil {
		return fmt.Errorf("create temp store file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp store file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp store file: %w", err)
	}
	if err := os.Rename(tmp.Name(), fs.path); err != nil {
		return fmt.Errorf("replace store file: %w", err)
	}
	return nil
}
