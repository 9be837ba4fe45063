package lock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	t.Parallel()
	km := NewKeyedMutex()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			km.Lock("emp-1|2025-03-10")
			defer km.Unlock("emp-1|2025-03-10")
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestKeyedMutex_DifferentKeysDoNotBlock(t *testing.T) {
	t.Parallel()
	km := NewKeyedMutex()

	km.Lock("emp-1|2025-03-10")
	done := make(chan struct{})
	go func() {
		km.Lock("emp-2|2025-03-10")
		km.Unlock("emp-2|2025-03-10")
		close(done)
	}()
	<-done
	km.Unlock("emp-1|2025-03-10")
}

func TestKeyedMutex_EntriesAreReleased(t *testing.T) {
	t.Parallel()
	km := NewKeyedMutex()

	km.Lock("a")
	km.Unlock("a")

	km.mu.Lock()
	defer km.mu.Unlock()
	assert.Empty(t, km.locks)
}
