package repository

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type storeFactory func(t *testing.T, clock *fakeClock) ResetCodeStore

func memoryFactory(t *testing.T, clock *fakeClock) ResetCodeStore {
	s := NewMemoryResetCodeStore(DefaultResetCodeTTL)
	s.now = clock.Now
	return s
}

func redisFactory(t *testing.T, clock *fakeClock) ResetCodeStore {
	t.Helper()
	m := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		m.Close()
	})
	s := NewRedisResetCodeStore(client, "reset_test", DefaultResetCodeTTL)
	s.now = clock.Now
	return s
}

func forEachStore(t *testing.T, fn func(t *testing.T, store ResetCodeStore, clock *fakeClock)) {
	factories := map[string]storeFactory{
		"memory": memoryFactory,
		"redis":  redisFactory,
	}
	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			clock := &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
			fn(t, factory(t, clock), clock)
		})
	}
}

func TestResetCodeStore_IssueFormat(t *testing.T) {
	forEachStore(t, func(t *testing.T, store ResetCodeStore, _ *fakeClock) {
		for i := 0; i < 50; i++ {
			code, err := store.Issue(context.Background(), "a@x.com")
			require.NoError(t, err)
			require.Len(t, code, 6)
			n, err := strconv.Atoi(code)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, n, 100000)
			assert.LessOrEqual(t, n, 999999)
		}
	})
}

func TestResetCodeStore_Lifecycle(t *testing.T) {
	forEachStore(t, func(t *testing.T, store ResetCodeStore, _ *fakeClock) {
		ctx := context.Background()

		status, err := store.Verify(ctx, "a@x.com", "123456")
		require.NoError(t, err)
		assert.Equal(t, ResetCodeNotFound, status)

		code, err := store.Issue(ctx, "a@x.com")
		require.NoError(t, err)

		wrong := "000000"
		if code == wrong {
			wrong = "000001"
		}
		status, err = store.Verify(ctx, "a@x.com", wrong)
		require.NoError(t, err)
		assert.Equal(t, ResetCodeMismatch, status)

		// после промаха запись остаётся, можно попробовать ещё раз
		status, err = store.Verify(ctx, "a@x.com", code)
		require.NoError(t, err)
		assert.Equal(t, ResetCodeVerified, status)

		rec, err := store.ConsumeIfVerified(ctx, "a@x.com")
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, code, rec.Code)

		rec, err = store.ConsumeIfVerified(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Nil(t, rec, "record must be consumed once")
	})
}

func TestResetCodeStore_ConsumeRequiresVerify(t *testing.T) {
	forEachStore(t, func(t *testing.T, store ResetCodeStore, _ *fakeClock) {
		ctx := context.Background()
		_, err := store.Issue(ctx, "a@x.com")
		require.NoError(t, err)

		rec, err := store.ConsumeIfVerified(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Nil(t, rec)
	})
}

func TestResetCodeStore_Expiry(t *testing.T) {
	forEachStore(t, func(t *testing.T, store ResetCodeStore, clock *fakeClock) {
		ctx := context.Background()
		code, err := store.Issue(ctx, "a@x.com")
		require.NoError(t, err)

		clock.Advance(DefaultResetCodeTTL + time.Second)

		status, err := store.Verify(ctx, "a@x.com", code)
		require.NoError(t, err)
		assert.Equal(t, ResetCodeExpired, status)

		status, err = store.Verify(ctx, "a@x.com", code)
		require.NoError(t, err)
		assert.Equal(t, ResetCodeNotFound, status, "expired record must be gone")
	})
}

func TestResetCodeStore_ExpiredVerifiedCannotBeConsumed(t *testing.T) {
	forEachStore(t, func(t *testing.T, store ResetCodeStore, clock *fakeClock) {
		ctx := context.Background()
		code, err := store.Issue(ctx, "a@x.com")
		require.NoError(t, err)

		status, err := store.Verify(ctx, "a@x.com", code)
		require.NoError(t, err)
		require.Equal(t, ResetCodeVerified, status)

		clock.Advance(DefaultResetCodeTTL + time.Second)

		rec, err := store.ConsumeIfVerified(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Nil(t, rec)
	})
}

func TestResetCodeStore_ReissueInvalidatesPrevious(t *testing.T) {
	forEachStore(t, func(t *testing.T, store ResetCodeStore, clock *fakeClock) {
		ctx := context.Background()
		first, err := store.Issue(ctx, "a@x.com")
		require.NoError(t, err)

		status, err := store.Verify(ctx, "a@x.com", first)
		require.NoError(t, err)
		require.Equal(t, ResetCodeVerified, status)

		clock.Advance(4 * time.Minute)
		second, err := store.Issue(ctx, "a@x.com")
		require.NoError(t, err)

		// новая выдача сбрасывает флаг verified
		rec, err := store.ConsumeIfVerified(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Nil(t, rec)

		// и перезапускает таймер
		clock.Advance(4 * time.Minute)
		status, err = store.Verify(ctx, "a@x.com", second)
		require.NoError(t, err)
		assert.Equal(t, ResetCodeVerified, status)
	})
}

func TestResetCodeStore_Restore(t *testing.T) {
	forEachStore(t, func(t *testing.T, store ResetCodeStore, clock *fakeClock) {
		ctx := context.Background()
		code, err := store.Issue(ctx, "a@x.com")
		require.NoError(t, err)
		_, err = store.Verify(ctx, "a@x.com", code)
		require.NoError(t, err)

		rec, err := store.ConsumeIfVerified(ctx, "a@x.com")
		require.NoError(t, err)
		require.NotNil(t, rec)

		// смена пароля не удалась, запись возвращается подтверждённой
		require.NoError(t, store.Restore(ctx, "a@x.com", rec))

		again, err := store.ConsumeIfVerified(ctx, "a@x.com")
		require.NoError(t, err)
		require.NotNil(t, again)
		assert.Equal(t, code, again.Code)
		assert.Equal(t, rec.ExpiresAt.UnixMilli(), again.ExpiresAt.UnixMilli())

		// истёкшая запись не восстанавливается
		clock.Advance(DefaultResetCodeTTL + time.Second)
		require.NoError(t, store.Restore(ctx, "a@x.com", again))
		status, err := store.Verify(ctx, "a@x.com", code)
		require.NoError(t, err)
		assert.Equal(t, ResetCodeNotFound, status)
	})
}

func TestResetCodeStore_RestoreKeepsNewerCode(t *testing.T) {
	forEachStore(t, func(t *testing.T, store ResetCodeStore, _ *fakeClock) {
		ctx := context.Background()
		first, err := store.Issue(ctx, "a@x.com")
		require.NoError(t, err)
		_, err = store.Verify(ctx, "a@x.com", first)
		require.NoError(t, err)
		rec, err := store.ConsumeIfVerified(ctx, "a@x.com")
		require.NoError(t, err)
		require.NotNil(t, rec)

		second, err := store.Issue(ctx, "a@x.com")
		require.NoError(t, err)
		require.NoError(t, store.Restore(ctx, "a@x.com", rec))

		// новая выдача осталась неподтверждённой
		got, err := store.ConsumeIfVerified(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Nil(t, got)

		if first != second {
			status, err := store.Verify(ctx, "a@x.com", first)
			require.NoError(t, err)
			assert.Equal(t, ResetCodeMismatch, status)
		}
	})
}

func TestResetCodeStore_Delete(t *testing.T) {
	forEachStore(t, func(t *testing.T, store ResetCodeStore, _ *fakeClock) {
		ctx := context.Background()
		code, err := store.Issue(ctx, "a@x.com")
		require.NoError(t, err)

		require.NoError(t, store.Delete(ctx, "a@x.com"))

		status, err := store.Verify(ctx, "a@x.com", code)
		require.NoError(t, err)
		assert.Equal(t, ResetCodeNotFound, status)
	})
}

func TestMemoryResetCodeStore_Sweep(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	s := NewMemoryResetCodeStore(time.Minute)
	s.now = clock.Now
	ctx := context.Background()

	_, err := s.Issue(ctx, "old@x.com")
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	_, err = s.Issue(ctx, "new@x.com")
	require.NoError(t, err)

	assert.Equal(t, 1, s.size())
}

func TestRedisResetCodeStore_KeyTTL(t *testing.T) {
	m := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s := NewRedisResetCodeStore(client, "", time.Minute)
	_, err := s.Issue(context.Background(), "a@x.com")
	require.NoError(t, err)

	assert.True(t, m.Exists("reset_code:a@x.com"))
	assert.Equal(t, time.Minute+redisResetCodeGrace, m.TTL("reset_code:a@x.com"))

	m.FastForward(time.Minute + redisResetCodeGrace + time.Second)
	assert.False(t, m.Exists("reset_code:a@x.com"))
}

func TestResetCodeStatus_String(t *testing.T) {
	assert.Equal(t, "verified", ResetCodeVerified.String())
	assert.Equal(t, "expired", ResetCodeExpired.String())
	assert.Equal(t, "mismatch", ResetCodeMismatch.String())
	assert.Equal(t, "not_found", ResetCodeNotFound.String())
}
