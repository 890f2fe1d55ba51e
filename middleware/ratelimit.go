package middleware

import (
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed window limiter backed by Redis. A nil limiter or an
// unreachable Redis lets every request through.
type RateLimiter struct {
	client *redis.Client
}

func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// Limit allows `limit` requests per caller per window for the named route group.
// Callers are identified by user id when authenticated, otherwise by IP.
func (rl *RateLimiter) Limit(keySuffix string, limit int64, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rl == nil || rl.client == nil {
			return c.Next()
		}

		identity := c.IP()
		if userID, ok := c.Locals("userId").(uint); ok && userID != 0 {
			identity = fmt.Sprintf("user:%d", userID)
		}
		key := fmt.Sprintf("rate_limit:%s:%s", keySuffix, identity)
		ctx := c.UserContext()

		count, err := rl.client.Incr(ctx, key).Result()
		if err != nil {
			log.Printf("[RATE-LIMIT] Redis unavailable, allowing request: %v", err)
			return c.Next()
		}
		if count == 1 {
			rl.client.Expire(ctx, key, window)
		}

		if count > limit {
			ttl, err := rl.client.TTL(ctx, key).Result()
			if err != nil || ttl < 0 {
				ttl = window
			}
			c.Set(fiber.HeaderRetryAfter, fmt.Sprintf("%d", int(ttl.Seconds())))
			return JsonResponse(c, fiber.StatusTooManyRequests, false, "Too many requests, please try again later!", fiber.Map{
				"retry_after_seconds": int(ttl.Seconds()),
			})
		}
		return c.Next()
	}
}
