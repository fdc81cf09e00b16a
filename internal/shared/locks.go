package shared

import (
	"fmt"
	"sync"
)

// PostingLockKey builds the critical-section key for one reference pair.
func PostingLockKey(referenceType, referenceID string) string {
	return fmt.Sprintf("posting:%s:%s:lock", referenceType, referenceID)
}

// KeyedMutex hands out one mutex per key so posting and reversal of the same
// source record serialize against each other while unrelated records proceed
// in parallel.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewKeyedMutex builds a KeyedMutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key and returns its unlock func.
func (k *KeyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()
	m.Lock()
	return m.Unlock
}
