package repository

import (
	"chapterauth/internal/models"
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Ключ живёт дольше самого кода, чтобы Verify мог честно ответить "expired", а не "not_found".
const redisResetCodeGrace = time.Minute

var redisResetVerifyScript = redis.NewScript(`
local key = KEYS[1]
local code = ARGV[1]
local now_ms = tonumber(ARGV[2])

if redis.call("EXISTS", key) == 0 then
  return "not_found"
end

local expires_at = tonumber(redis.call("HGET", key, "expires_at"))
if expires_at == nil or now_ms > expires_at then
  redis.call("DEL", key)
  return "expired"
end

if redis.call("HGET", key, "code") ~= code then
  return "mismatch"
end

redis.call("HSET", key, "verified", "1")
return "verified"
`)

var redisResetConsumeScript = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])

if redis.call("EXISTS", key) == 0 then
  return false
end

local raw_expires = redis.call("HGET", key, "expires_at")
local expires_at = tonumber(raw_expires)
if expires_at == nil or now_ms > expires_at then
  redis.call("DEL", key)
  return false
end

if redis.call("HGET", key, "verified") ~= "1" then
  return false
end

local code = redis.call("HGET", key, "code")
redis.call("DEL", key)
return {code, raw_expires}
`)

var redisResetRestoreScript = redis.NewScript(`
local key = KEYS[1]
local expires_at = tonumber(ARGV[2])
local ttl_ms = tonumber(ARGV[3])
local now_ms = tonumber(ARGV[4])

if redis.call("EXISTS", key) == 1 or now_ms > expires_at then
  return 0
end

redis.call("HSET", key, "code", ARGV[1], "expires_at", ARGV[2], "verified", "1")
redis.call("PEXPIRE", key, ttl_ms)
return 1
`)

// RedisResetCodeStore — тот же контракт, что у MemoryResetCodeStore, но общий для всех инстансов.
type RedisResetCodeStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

func NewRedisResetCodeStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisResetCodeStore {
	if prefix == "" {
		prefix = "reset_code"
	}
	if ttl <= 0 {
		ttl = DefaultResetCodeTTL
	}
	return &RedisResetCodeStore{client: client, prefix: prefix, ttl: ttl, now: time.Now}
}

func (s *RedisResetCodeStore) key(email string) string {
	return fmt.Sprintf("%s:%s", s.prefix, email)
}

func (s *RedisResetCodeStore) Issue(ctx context.Context, email string) (string, error) {
	code, err := generateResetCode()
	if err != nil {
		return "", err
	}

	key := s.key(email)
	expiresAt := s.now().Add(s.ttl).UnixMilli()

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, "code", code, "expires_at", strconv.FormatInt(expiresAt, 10), "verified", "0")
	pipe.PExpire(ctx, key, s.ttl+redisResetCodeGrace)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("redis issue reset code: %w", err)
	}
	return code, nil
}

func (s *RedisResetCodeStore) Verify(ctx context.Context, email, code string) (ResetCodeStatus, error) {
	res, err := redisResetVerifyScript.Run(ctx, s.client,
		[]string{s.key(email)},
		code,
		s.now().UnixMilli(),
	).Text()
	if err != nil {
		return ResetCodeNotFound, fmt.Errorf("redis verify reset code: %w", err)
	}

	switch res {
	case "verified":
		return ResetCodeVerified, nil
	case "expired":
		return ResetCodeExpired, nil
	case "mismatch":
		return ResetCodeMismatch, nil
	case "not_found":
		return ResetCodeNotFound, nil
	default:
		return ResetCodeNotFound, fmt.Errorf("unexpected redis verify result %q", res)
	}
}

func (s *RedisResetCodeStore) ConsumeIfVerified(ctx context.Context, email string) (*models.ResetCode, error) {
	res, err := redisResetConsumeScript.Run(ctx, s.client,
		[]string{s.key(email)},
		s.now().UnixMilli(),
	).StringSlice()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis consume reset code: %w", err)
	}
	if len(res) != 2 {
		return nil, fmt.Errorf("unexpected redis consume result %q", res)
	}

	expiresMs, err := strconv.ParseInt(res[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("redis consume reset code: bad expires_at: %w", err)
	}
	return &models.ResetCode{
		Code:      res[0],
		ExpiresAt: time.UnixMilli(expiresMs),
		Verified:  true,
	}, nil
}

func (s *RedisResetCodeStore) Restore(ctx context.Context, email string, rec *models.ResetCode) error {
	if rec == nil {
		return nil
	}
	now := s.now()
	keyTTL := rec.ExpiresAt.Sub(now) + redisResetCodeGrace
	err := redisResetRestoreScript.Run(ctx, s.client,
		[]string{s.key(email)},
		rec.Code,
		rec.ExpiresAt.UnixMilli(),
		keyTTL.Milliseconds(),
		now.UnixMilli(),
	).Err()
	if err != nil {
		return fmt.Errorf("redis restore reset code: %w", err)
	}
	return nil
}

func (s *RedisResetCodeStore) Delete(ctx context.Context, email string) error {
	return s.client.Del(ctx, s.key(email)).Err()
}
