package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// fileKV stores one JSON file per key under basePath/<bucket>/
type fileKV struct {
	basePath string
	mu       sync.RWMutex
}

// NewFileStore creates a file store
func NewFileStore(basePath string) (*DocumentStore, error) {
	for _, bucket := range []string{bucketCatalogs, bucketStrategies, bucketResults} {
		if err := os.MkdirAll(filepath.Join(basePath, bucket), 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}
	return newDocumentStore(BackendFile, &fileKV{basePath: basePath}), nil
}

func (f *fileKV) path(bucket, key string) string {
	return filepath.Join(f.basePath, bucket, key+".json")
}

func (f *fileKV) put(bucket, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	// Write then rename so readers never see a partial file
	tmp := f.path(bucket, key) + ".tmp"
	if err := os.WriteFile(tmp, value, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return os.Rename(tmp, f.path(bucket, key))
}

func (f *fileKV) get(bucket, key string) ([]byte, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	data, err := os.ReadFile(f.path(bucket, key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (f *fileKV) each(bucket string, fn func(string, []byte) error) error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	// ReadDir returns entries sorted by filename
	entries, err := os.ReadDir(filepath.Join(f.basePath, bucket))
	if err != nil {
		return fmt.Errorf("failed to read storage: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(f.basePath, bucket, name))
		if err != nil {
			return err
		}
		if err := fn(strings.TrimSuffix(name, ".json"), data); err != nil {
			return err
		}
	}
	return nil
}

func (f *fileKV) remove(bucket, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	err := os.Remove(f.path(bucket, key))
	if os.IsNotExist(err) {
		return false, nil
	}
	return err == nil, err
}

func (f *fileKV) Close() error {
	return nil
}
