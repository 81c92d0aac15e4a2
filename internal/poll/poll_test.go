package poll

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestUntilImmediate(t *testing.T) {
	calls := 0
	v, ok := Until(context.Background(), Options{Attempts: 5, Interval: time.Hour}, func(context.Context) (string, bool) {
		calls++
		return "meta", true
	})
	assert.True(t, ok)
	assert.Equal(t, "meta", v)
	assert.Equal(t, 1, calls)
}

func TestUntilEventually(t *testing.T) {
	calls := 0
	v, ok := Until(context.Background(), Options{Attempts: 5, Interval: time.Millisecond}, func(context.Context) (int, bool) {
		calls++
		return calls, calls == 3
	})
	assert.True(t, ok)
	assert.Equal(t, 3, v)
	assert.Equal(t, 3, calls)
}

func TestUntilExhausts(t *testing.T) {
	calls := 0
	_, ok := Until(context.Background(), Options{Attempts: 4, Interval: time.Millisecond}, func(context.Context) (*int, bool) {
		calls++
		return nil, false
	})
	assert.False(t, ok)
	assert.Equal(t, 5, calls, "one immediate call plus four retries")
}

func TestUntilZeroAttempts(t *testing.T) {
	calls := 0
	_, ok := Until(context.Background(), Options{}, func(context.Context) (int, bool) {
		calls++
		return 0, false
	})
	assert.False(t, ok)
	assert.Equal(t, 1, calls)
}

func TestUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	start := time.Now()
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, ok := Until(ctx, Options{Attempts: 100, Interval: time.Hour}, func(context.Context) (int, bool) {
		calls++
		return 0, false
	})
	assert.False(t, ok)
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), time.Minute)
}
