package limiter

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/securechat/server/core"
)

func TestCheckAllowedBelowThreshold(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLimiter()

	for i := 0; i < MaxFailures-1; i++ {
		require.NoError(t, l.RecordFailure(ctx, "10.0.0.1"))
		assert.NoError(t, l.CheckAllowed(ctx, "10.0.0.1"))
	}
}

func TestLockoutAtThreshold(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLimiter()

	for i := 0; i < MaxFailures; i++ {
		require.NoError(t, l.RecordFailure(ctx, "10.0.0.1"))
	}

	assert.ErrorIs(t, l.CheckAllowed(ctx, "10.0.0.1"), core.ErrRateLimited)
	// Other keys are unaffected
	assert.NoError(t, l.CheckAllowed(ctx, "10.0.0.2"))
}

func TestLockoutExpiryClearsRecord(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	l := NewMemoryLimiter()
	l.now = func() time.Time { return now }

	for i := 0; i < MaxFailures; i++ {
		require.NoError(t, l.RecordFailure(ctx, "10.0.0.1"))
	}
	require.ErrorIs(t, l.CheckAllowed(ctx, "10.0.0.1"), core.ErrRateLimited)

	now = now.Add(LockoutDuration + time.Second)
	assert.NoError(t, l.CheckAllowed(ctx, "10.0.0.1"))

	// Counter was reset along with the lockout: the next failures
	// start from zero again.
	for i := 0; i < MaxFailures-1; i++ {
		require.NoError(t, l.RecordFailure(ctx, "10.0.0.1"))
	}
	assert.NoError(t, l.CheckAllowed(ctx, "10.0.0.1"))
}

func TestRecordSuccessClearsEverything(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLimiter()

	for i := 0; i < MaxFailures; i++ {
		require.NoError(t, l.RecordFailure(ctx, "10.0.0.1"))
	}
	require.ErrorIs(t, l.CheckAllowed(ctx, "10.0.0.1"), core.ErrRateLimited)

	require.NoError(t, l.RecordSuccess(ctx, "10.0.0.1"))
	assert.NoError(t, l.CheckAllowed(ctx, "10.0.0.1"))
}

func TestConcurrentFailuresAreNotLost(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLimiter()

	var wg sync.WaitGroup
	for i := 0; i < MaxFailures; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.RecordFailure(ctx, "10.0.0.1")
		}()
	}
	wg.Wait()

	assert.ErrorIs(t, l.CheckAllowed(ctx, "10.0.0.1"), core.ErrRateLimited)
}

func TestLaterFailuresExtendLockout(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	l := NewMemoryLimiter()
	l.now = func() time.Time { return now }

	for i := 0; i < MaxFailures; i++ {
		require.NoError(t, l.RecordFailure(ctx, "10.0.0.1"))
	}

	now = now.Add(10 * time.Minute)
	require.NoError(t, l.RecordFailure(ctx, "10.0.0.1"))

	now = now.Add(10 * time.Minute) // 20 min after first lockout, 10 after extension
	assert.ErrorIs(t, l.CheckAllowed(ctx, "10.0.0.1"), core.ErrRateLimited)
}
