package shardlock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndex_Stable(t *testing.T) {
	s := New(8)

	assert.Equal(t, 8, s.Len())
	assert.Equal(t, s.Index("203.0.113.7"), s.Index("203.0.113.7"))
	assert.Less(t, s.Index("user_1"), 8)
}

func TestNew_DefaultShards(t *testing.T) {
	assert.Equal(t, DefaultShards, New(0).Len())
}

func TestLock_SerializesSameKey(t *testing.T) {
	s := New(4)
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := s.Lock("user_1")
			counter++
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}
