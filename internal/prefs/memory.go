package prefs

import (
	"context"
	"sync"
)

// MemoryKV is a process-local KV, used when no external store is configured.
type MemoryKV struct {
	mu sync.RWMutex
	m  map[string]string
}

// NewMemoryKV returns an empty MemoryKV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{m: make(map[string]string)}
}

// Get returns the value under key. ok is false on a miss.
func (kv *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	v, ok := kv.m[key]
	return v, ok, nil
}

// Set stores value under key. It never fails.
func (kv *MemoryKV) Set(_ context.Context, key, value string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.m[key] = value
	return nil
}
