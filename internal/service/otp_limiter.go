package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prperemyshlev/storefront-auth/pkg/database"
	"github.com/redis/go-redis/v9"
)

const otpAttemptsPrefix = "otp:attempts:"

var otpFailureScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// OTPLimiter caps wrong-code attempts per special token. The special token
// row itself is left alone; once the cap is reached every further attempt
// fails until the token expires.
type OTPLimiter struct {
	redis       *database.Redis
	maxAttempts int
}

// NewOTPLimiter creates a limiter. maxAttempts <= 0 disables it.
func NewOTPLimiter(redis *database.Redis, maxAttempts int) *OTPLimiter {
	return &OTPLimiter{redis: redis, maxAttempts: maxAttempts}
}

// Allowed reports whether another attempt may be made for the token
func (l *OTPLimiter) Allowed(ctx context.Context, tokenID string) (bool, error) {
	if l.maxAttempts <= 0 {
		return true, nil
	}

	count, err := l.redis.Client.Get(ctx, otpAttemptsPrefix+tokenID).Int()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read otp attempts: %w", err)
	}

	return count < l.maxAttempts, nil
}

// RecordFailure counts a wrong code. ttl should match the token lifetime.
func (l *OTPLimiter) RecordFailure(ctx context.Context, tokenID string, ttl time.Duration) (int64, error) {
	if l.maxAttempts <= 0 {
		return 0, nil
	}

	ttlMS := ttl.Milliseconds()
	if ttlMS <= 0 {
		ttlMS = time.Minute.Milliseconds()
	}

	count, err := otpFailureScript.Run(ctx, l.redis.Client, []string{otpAttemptsPrefix + tokenID}, ttlMS).Int64()
	if err != nil {
		return 0, fmt.Errorf("failed to record otp attempt: %w", err)
	}
	return count, nil
}

// Reset forgets the attempts of a redeemed token
func (l *OTPLimiter) Reset(ctx context.Context, tokenID string) error {
	if l.maxAttempts <= 0 {
		return nil
	}
	return l.redis.Client.Del(ctx, otpAttemptsPrefix+tokenID).Err()
}
