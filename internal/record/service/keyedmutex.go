package service

import "sync"

// keyedMutex serializes work per entity key. Merges read-then-write whole
// records, so two writers on the same key would race on the discrepancy
// recomputation; distinct keys stay independent and run in parallel.
//
// Entries are reference-counted and removed when the last holder releases,
// keeping the map bounded by in-flight keys rather than all keys ever seen.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyLock)}
}

// Lock acquires the mutex for key, creating it on first use.
func (m *keyedMutex) Lock(key string) {
	m.mu.Lock()
	l, ok := m.locks[key]
	if !ok {
		l = &keyLock{}
		m.locks[key] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
}

// Unlock releases the mutex for key and drops the entry when unused.
func (m *keyedMutex) Unlock(key string) {
	m.mu.Lock()
	l := m.locks[key]
	l.refs--
	if l.refs == 0 {
		delete(m.locks, key)
	}
	m.mu.Unlock()

	l.mu.Unlock()
}
