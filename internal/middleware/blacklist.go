package middleware

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const blacklistTTL = 24 * time.Hour

// RevokeToken blacklists a token string until its natural expiry window has
// passed. Logout relies on this since the JWTs themselves are stateless.
func RevokeToken(ctx context.Context, rdb *redis.Client, token string) error {
	return rdb.Set(ctx, "revoked:"+token, true, blacklistTTL).Err()
}

func IsTokenRevoked(ctx context.Context, rdb *redis.Client, token string) bool {
	_, err := rdb.Get(ctx, "revoked:"+token).Result()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		// Fail open: an unreachable redis must not lock every user out.
		log.Printf("[AUTH] [ERROR] blacklist check failed: %v", err)
		return false
	}
	return true
}
