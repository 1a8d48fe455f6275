package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

const otpKeyPrefix = "otp:"

// incrementIfExists bumps the attempt counter without resurrecting an
// expired code.
var incrementIfExists = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -1
end
return redis.call('HINCRBY', KEYS[1], 'attempts', 1)
`)

// OTPRepository implements repository.OTPRepository using Redis hashes.
type OTPRepository struct {
	client *redis.Client
}

// NewOTPRepository creates a new Redis-backed OTP repository.
func NewOTPRepository(client *redis.Client) *OTPRepository {
	return &OTPRepository{client: client}
}

func otpKey(email string) string {
	return otpKeyPrefix + strings.ToLower(strings.TrimSpace(email))
}

// Save stores codeHash for email, replacing any pending code.
func (r *OTPRepository) Save(ctx context.Context, email, codeHash string, ttl time.Duration) error {
	key := otpKey(email)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, "code", codeHash, "attempts", 0)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save otp: %w", err)
	}
	return nil
}

// Get returns the pending code hash and failed attempts for email.
func (r *OTPRepository) Get(ctx context.Context, email string) (string, int, error) {
	vals, err := r.client.HGetAll(ctx, otpKey(email)).Result()
	if err != nil {
		return "", 0, fmt.Errorf("redis get otp: %w", err)
	}
	code, ok := vals["code"]
	if !ok {
		return "", 0, apperrors.NotFound("otp", email)
	}

	attempts, err := strconv.Atoi(vals["attempts"])
	if err != nil {
		attempts = 0
	}
	return code, attempts, nil
}

// IncrementAttempts records a failed attempt and returns the new count.
func (r *OTPRepository) IncrementAttempts(ctx context.Context, email string) (int, error) {
	n, err := incrementIfExists.Run(ctx, r.client, []string{otpKey(email)}).Int()
	if err != nil {
		return 0, fmt.Errorf("redis increment otp attempts: %w", err)
	}
	if n < 0 {
		return 0, apperrors.NotFound("otp", email)
	}
	return n, nil
}

// Delete removes the pending code for email.
func (r *OTPRepository) Delete(ctx context.Context, email string) error {
	if err := r.client.Del(ctx, otpKey(email)).Err(); err != nil {
		return fmt.Errorf("redis delete otp: %w", err)
	}
	return nil
}
