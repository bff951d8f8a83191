package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	m := newKeyedMutex()
	var counter int

	const workers = 50
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Lock("entity-a")
			defer m.Unlock("entity-a")
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, workers, counter)
}

func TestKeyedMutex_DistinctKeysIndependent(t *testing.T) {
	m := newKeyedMutex()
	m.Lock("entity-a")

	done := make(chan struct{})
	go func() {
		m.Lock("entity-b") // must not wait on entity-a's holder
		m.Unlock("entity-b")
		close(done)
	}()
	<-done

	m.Unlock("entity-a")
}

func TestKeyedMutex_EntriesReleased(t *testing.T) {
	m := newKeyedMutex()
	m.Lock("entity-a")
	m.Unlock("entity-a")

	m.mu.Lock()
	defer m.mu.Unlock()
	assert.Empty(t, m.locks, "released keys must not accumulate")
}
