package ratelimit_test

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/site-auditor/internal/ratelimit"
)

// timerSlack absorbs goroutine scheduling between admission and the timestamp.
const timerSlack = 5 * time.Millisecond

func TestWaitTurn_SpacesSameOrigin(t *testing.T) {
	t.Parallel()

	const delay = 80 * time.Millisecond
	limiter := ratelimit.New(delay)
	ctx := context.Background()

	var (
		mu     sync.Mutex
		starts []time.Time
		wg     sync.WaitGroup
	)
	for range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, limiter.WaitTurn(ctx, "https://example.com"))
			mu.Lock()
			starts = append(starts, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, starts, 3)
	slices.SortFunc(starts, time.Time.Compare)
	for i := 1; i < len(starts); i++ {
		assert.GreaterOrEqual(t, starts[i].Sub(starts[i-1]), delay-timerSlack)
	}
}

func TestWaitTurn_OriginsIndependent(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.New(time.Second)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, limiter.WaitTurn(ctx, "https://a.example"))
	require.NoError(t, limiter.WaitTurn(ctx, "https://b.example"))
	require.NoError(t, limiter.WaitTurn(ctx, "https://c.example"))

	assert.Less(t, time.Since(start), 200*time.Millisecond)
}

func TestWaitTurn_ZeroDelay(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.New(0)
	start := time.Now()
	for range 50 {
		require.NoError(t, limiter.WaitTurn(context.Background(), "https://example.com"))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestWaitTurn_ContextCanceled(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.New(5 * time.Second)
	require.NoError(t, limiter.WaitTurn(context.Background(), "https://example.com"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := limiter.WaitTurn(ctx, "https://example.com")
	require.Error(t, err)
}

func TestRaise(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.New(10 * time.Millisecond)
	origin := "https://example.com"

	limiter.Raise(origin, 60*time.Millisecond)
	assert.Equal(t, 60*time.Millisecond, limiter.Delay(origin))

	limiter.Raise(origin, 5*time.Millisecond)
	assert.Equal(t, 60*time.Millisecond, limiter.Delay(origin), "raise never lowers")

	ctx := context.Background()
	require.NoError(t, limiter.WaitTurn(ctx, origin))
	first := time.Now()
	require.NoError(t, limiter.WaitTurn(ctx, origin))
	assert.GreaterOrEqual(t, time.Since(first), 60*time.Millisecond-timerSlack)
}

func TestRaise_CapsAtMaxDelay(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.New(time.Second)
	origin := "https://slow.example.com"

	limiter.Raise(origin, 24*time.Hour)
	assert.Equal(t, ratelimit.MaxDelay, limiter.Delay(origin))
}

func TestWaitTurn_DeadlineShorterThanDelay(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.New(5 * time.Second)
	origin := "https://example.com"
	require.NoError(t, limiter.WaitTurn(context.Background(), origin))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	require.Error(t, limiter.WaitTurn(ctx, origin))
	assert.Less(t, time.Since(start), time.Second, "a turn that cannot come before the deadline is refused early")
}
