package counter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryStoreIncrementAndGet(t *testing.T) {
	store := NewMemoryStore()

	value, err := store.Increment("k", time.Hour)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), value)

	value, err = store.Increment("k", time.Hour)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), value)

	value, err = store.Get("k")
	assert.NoError(t, err)
	assert.Equal(t, int64(2), value)

	// Missing keys read as zero
	value, err = store.Get("missing")
	assert.NoError(t, err)
	assert.Equal(t, int64(0), value)
}

func TestMemoryStoreIncrementIfBelow(t *testing.T) {
	store := NewMemoryStore()

	for i := 0; i < 3; i++ {
		ok, err := store.IncrementIfBelow("k", 3, time.Hour)
		assert.NoError(t, err)
		assert.True(t, ok)
	}

	ok, err := store.IncrementIfBelow("k", 3, time.Hour)
	assert.NoError(t, err)
	assert.False(t, ok)

	value, _ := store.Get("k")
	assert.Equal(t, int64(3), value)
}

func TestMemoryStoreDecrementFloorsAtZero(t *testing.T) {
	store := NewMemoryStore()

	assert.NoError(t, store.Decrement("k"))
	value, _ := store.Get("k")
	assert.Equal(t, int64(0), value)

	store.Increment("k", time.Hour)
	assert.NoError(t, store.Decrement("k"))
	value, _ = store.Get("k")
	assert.Equal(t, int64(0), value)
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	current := time.Now()
	store.now = func() time.Time { return current }

	store.Increment("k", time.Hour)

	current = current.Add(2 * time.Hour)
	value, err := store.Get("k")
	assert.NoError(t, err)
	assert.Equal(t, int64(0), value)

	// A fresh increment after expiry starts a new bucket
	value, err = store.Increment("k", time.Hour)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), value)
}
