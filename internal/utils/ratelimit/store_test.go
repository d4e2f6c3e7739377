package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStore(t *testing.T) {
	// Arrange & Act
	store := NewStore("general", Rate{Capacity: 10, Interval: time.Minute}, 100, time.Minute)

	// Assert
	require.NotNil(t, store)
	assert.Equal(t, "general", store.Name())
	assert.Zero(t, store.Len())
}

func TestStore_GetLimiter(t *testing.T) {
	t.Run("Same key returns the same bucket", func(t *testing.T) {
		// Arrange
		store := NewStore("general", Rate{Capacity: 10, Interval: time.Minute}, 100, time.Minute)

		// Act
		first := store.GetLimiter("10.0.0.1")
		second := store.GetLimiter("10.0.0.1")

		// Assert
		assert.Same(t, first, second)
		assert.Equal(t, 1, store.Len())
	})

	t.Run("Different keys get independent buckets", func(t *testing.T) {
		// Arrange
		store := NewStore("login", Rate{Capacity: 1, Interval: time.Minute}, 100, time.Minute)

		// Act & Assert
		assert.True(t, store.TryConsume("10.0.0.1"))
		assert.False(t, store.TryConsume("10.0.0.1"))
		assert.True(t, store.TryConsume("10.0.0.2"))
	})

	t.Run("Concurrent first use creates exactly one bucket", func(t *testing.T) {
		// Arrange
		store := NewStore("general", Rate{Capacity: 5, Interval: time.Hour}, 100, time.Minute)
		limiters := make([]*Limiter, 64)
		var wg sync.WaitGroup

		// Act
		for i := range limiters {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				limiters[i] = store.GetLimiter("10.0.0.1")
			}(i)
		}
		wg.Wait()

		// Assert
		for _, l := range limiters {
			assert.Same(t, limiters[0], l)
		}
		assert.Equal(t, 1, store.Len())
	})
}

func TestStore_TryConsume(t *testing.T) {
	t.Run("Capacity five admits five then rejects", func(t *testing.T) {
		store := NewStore("general", Rate{Capacity: 5, Interval: time.Minute}, 100, time.Minute)

		for i := 0; i < 5; i++ {
			require.True(t, store.TryConsume("10.0.0.1"), "request %d", i+1)
		}
		assert.False(t, store.TryConsume("10.0.0.1"))
	})

	t.Run("Concurrent consumers on one key share the bucket", func(t *testing.T) {
		store := NewStore("general", Rate{Capacity: 20, Interval: time.Hour}, 100, time.Minute)
		var mu sync.Mutex
		admitted := 0
		var wg sync.WaitGroup

		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if store.TryConsume("10.0.0.1") {
					mu.Lock()
					admitted++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 20, admitted)
	})
}

func TestStore_Eviction(t *testing.T) {
	t.Run("Key count is bounded", func(t *testing.T) {
		// Arrange
		store := NewStore("general", Rate{Capacity: 1, Interval: time.Minute}, 3, time.Minute)

		// Act
		for i := 0; i < 10; i++ {
			store.TryConsume(fmt.Sprintf("10.0.0.%d", i))
		}

		// Assert
		assert.Equal(t, 3, store.Len())
	})

	t.Run("Idle bucket expires and comes back full", func(t *testing.T) {
		// Arrange
		store := NewStore("login", Rate{Capacity: 1, Interval: time.Hour}, 10, 20*time.Millisecond)
		require.True(t, store.TryConsume("10.0.0.1"))
		require.False(t, store.TryConsume("10.0.0.1"))

		// Act
		time.Sleep(50 * time.Millisecond)

		// Assert
		assert.True(t, store.TryConsume("10.0.0.1"))
	})
}

func TestStore_RetryAfter(t *testing.T) {
	tests := []struct {
		name     string
		rate     Rate
		want     time.Duration
		wantSecs int
	}{
		{name: "Login limiter", rate: Rate{Capacity: 5, Interval: time.Minute}, want: 12 * time.Second, wantSecs: 12},
		{name: "Sub-second refill rounds up", rate: Rate{Capacity: 100, Interval: time.Minute}, want: 600 * time.Millisecond, wantSecs: 1},
		{name: "Unconfigured rate", rate: Rate{}, want: time.Second, wantSecs: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewStore("test", tt.rate, 10, time.Minute)

			assert.Equal(t, tt.want, store.RetryAfter())
			assert.Equal(t, tt.wantSecs, store.RetryAfterSeconds())
		})
	}
}
