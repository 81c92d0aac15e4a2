// Package blobstore is the string-keyed blob persistence behind the wallet.
package blobstore

import (
	"fmt"
	"sync"
)

// Store is a string-keyed blob store.
// Get reports ok=false for missing keys; errors are reserved for I/O failures.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

// Memory is an in-process Store.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// Copy copies the given keys from src to dst and returns how many were
// present. Missing keys are skipped.
func Copy(dst, src Store, keys ...string) (int, error) {
	n := 0
	for _, key := range keys {
		v, ok, err := src.Get(key)
		if err != nil {
			return n, fmt.Errorf("failed to read %s: %w", key, err)
		}
		if !ok {
			continue
		}
		if err := dst.Set(key, v); err != nil {
			return n, fmt.Errorf("failed to write %s: %w", key, err)
		}
		n++
	}
	return n, nil
}
