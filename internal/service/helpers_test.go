package service

import (
	"context"
	"errors"
	"sync"

	"flashquiz/internal/storage"
)

var errDisk = errors.New("disk full")

// faultyStore wraps a MemoryStore and fails selected operations
type faultyStore struct {
	*storage.MemoryStore
	mu       sync.Mutex
	failGet  map[string]bool
	failSet  map[string]bool
	failAll  bool
	removals []string
}

func newFaultyStore() *faultyStore {
	return &faultyStore{
		MemoryStore: storage.NewMemoryStore(),
		failGet:     make(map[string]bool),
		failSet:     make(map[string]bool),
	}
}

func (f *faultyStore) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	fail := f.failAll || f.failGet[key]
	f.mu.Unlock()
	if fail {
		return "", &storage.StorageError{Op: "get", Key: key, Err: errDisk}
	}
	return f.MemoryStore.Get(ctx, key)
}

func (f *faultyStore) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	fail := f.failAll || f.failSet[key]
	f.mu.Unlock()
	if fail {
		return &storage.StorageError{Op: "set", Key: key, Err: errDisk}
	}
	return f.MemoryStore.Set(ctx, key, value)
}

func (f *faultyStore) Remove(ctx context.Context, key string) error {
	f.mu.Lock()
	fail := f.failAll
	f.removals = append(f.removals, key)
	f.mu.Unlock()
	if fail {
		return &storage.StorageError{Op: "remove", Key: key, Err: errDisk}
	}
	return f.MemoryStore.Remove(ctx, key)
}

// persistErrors records every reported persistence failure
type persistErrors struct {
	mu     sync.Mutex
	events []string
}

func (p *persistErrors) record(op, key string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, op+" "+key)
}

func (p *persistErrors) list() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

func (p *persistErrors) has(event string) bool {
	for _, e := range p.list() {
		if e == event {
			return true
		}
	}
	return false
}
