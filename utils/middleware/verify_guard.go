package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/sahilchouksey/coursecheckout-api/utils/response"
)

const (
	verifyAttemptWindow = 15 * time.Minute
)

// AttemptStore is the subset of the redis cache the guard needs
type AttemptStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
	Increment(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, expiration time.Duration) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// VerifyAttemptGuard locks a user out of payment verification after repeated
// signature failures. A nil store disables the guard.
type VerifyAttemptGuard struct {
	store AttemptStore
}

// NewVerifyAttemptGuard creates a guard backed by store
func NewVerifyAttemptGuard(store AttemptStore) *VerifyAttemptGuard {
	return &VerifyAttemptGuard{store: store}
}

func attemptKey(userID uint) string {
	return fmt.Sprintf("payment_verify:attempts:%d", userID)
}

func lockKey(userID uint) string {
	return fmt.Sprintf("payment_verify:lock:%d", userID)
}

// lockoutFor returns how long to lock after the given number of failures
func lockoutFor(attempts int64) time.Duration {
	switch {
	case attempts >= 25:
		return 24 * time.Hour
	case attempts >= 10:
		return time.Hour
	case attempts >= 5:
		return 2 * time.Minute
	default:
		return 0
	}
}

// Check rejects locked-out users with 429. It must run after AuthMiddleware.Required.
func (g *VerifyAttemptGuard) Check() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if g == nil || g.store == nil {
			return c.Next()
		}
		userID, ok := GetUserID(c)
		if !ok {
			return c.Next()
		}

		key := lockKey(userID)
		locked, err := g.store.Exists(c.UserContext(), key)
		if err != nil {
			// Redis being down must not block payments
			log.Warn().Err(err).Uint("user_id", userID).Msg("[VERIFY-GUARD] lock lookup failed")
			return c.Next()
		}
		if !locked {
			return c.Next()
		}

		ttl, _ := g.store.TTL(c.UserContext(), key)
		retryAfter := int(ttl.Seconds())
		if retryAfter <= 0 {
			retryAfter = 60
		}

		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
		return response.TooManyRequests(c, fmt.Sprintf("Too many failed verification attempts. Try again in %d seconds", retryAfter))
	}
}

// RecordFailure counts a failed verification and applies progressive lockouts
func (g *VerifyAttemptGuard) RecordFailure(ctx context.Context, userID uint) {
	if g == nil || g.store == nil {
		return
	}

	attempts, err := g.store.Increment(ctx, attemptKey(userID))
	if err != nil {
		log.Warn().Err(err).Uint("user_id", userID).Msg("[VERIFY-GUARD] failed to record attempt")
		return
	}
	if attempts == 1 {
		_ = g.store.Expire(ctx, attemptKey(userID), verifyAttemptWindow)
	}

	if d := lockoutFor(attempts); d > 0 {
		if err := g.store.Set(ctx, lockKey(userID), attempts, d); err != nil {
			log.Warn().Err(err).Uint("user_id", userID).Msg("[VERIFY-GUARD] failed to set lock")
			return
		}
		log.Warn().Uint("user_id", userID).Int64("attempts", attempts).Dur("lockout", d).Msg("[VERIFY-GUARD] user locked out of payment verification")
	}
}

// Clear resets the counter after a successful verification
func (g *VerifyAttemptGuard) Clear(ctx context.Context, userID uint) {
	if g == nil || g.store == nil {
		return
	}
	if err := g.store.Delete(ctx, attemptKey(userID), lockKey(userID)); err != nil {
		log.Warn().Err(err).Uint("user_id", userID).Msg("[VERIFY-GUARD] failed to clear attempts")
	}
}
