package security

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanLimiter(t *testing.T) {
	db, mock := redismock.NewClientMock()
	limiter := NewScanLimiter(db, 3, time.Minute)
	ctx := context.Background()

	t.Run("first request starts the window", func(t *testing.T) {
		mock.ExpectIncr("ratelimit:scan:vol1").SetVal(1)
		mock.ExpectExpire("ratelimit:scan:vol1", time.Minute).SetVal(true)

		require.NoError(t, limiter.Allow(ctx, "vol1"))
	})

	t.Run("within budget", func(t *testing.T) {
		mock.ExpectIncr("ratelimit:scan:vol1").SetVal(3)

		require.NoError(t, limiter.Allow(ctx, "vol1"))
	})

	t.Run("over budget", func(t *testing.T) {
		mock.ExpectIncr("ratelimit:scan:vol1").SetVal(4)

		assert.ErrorIs(t, limiter.Allow(ctx, "vol1"), ErrRateLimited)
	})

	t.Run("redis failure fails open", func(t *testing.T) {
		mock.ExpectIncr("ratelimit:scan:vol1").SetErr(errors.New("connection refused"))

		assert.NoError(t, limiter.Allow(ctx, "vol1"))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
