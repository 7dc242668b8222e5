package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"socialpay/internal/models"
)

// SubmitDeduper remembers idempotency keys of submissions already accepted.
// Seen claims the key; Forget releases a claim whose submission was refused.
type SubmitDeduper interface {
	Seen(ctx context.Context, key string) (bool, error)
	Forget(ctx context.Context, key string) error
}

type redisSubmitDeduper struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func (d *redisSubmitDeduper) Seen(ctx context.Context, key string) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.prefix+":"+key, "1", d.ttl).Result()
	if err != nil {
		return false, err
	}
	// false => already exists => duplicate
	return !ok, nil
}

func (d *redisSubmitDeduper) Forget(ctx context.Context, key string) error {
	return d.client.Del(ctx, d.prefix+":"+key).Err()
}

type memorySubmitDeduper struct {
	mu     sync.Mutex
	seen   map[string]time.Time
	ttl    time.Duration
	nextGC time.Time
}

func newMemorySubmitDeduper(ttl time.Duration) *memorySubmitDeduper {
	return &memorySubmitDeduper{
		seen:   make(map[string]time.Time),
		ttl:    ttl,
		nextGC: time.Now().Add(ttl),
	}
}

func (d *memorySubmitDeduper) Seen(_ context.Context, key string) (bool, error) {
	now := time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	if exp, ok := d.seen[key]; ok && exp.After(now) {
		return true, nil
	}

	d.seen[key] = now.Add(d.ttl)
	if now.After(d.nextGC) {
		for k, exp := range d.seen {
			if exp.Before(now) {
				delete(d.seen, k)
			}
		}
		d.nextGC = now.Add(d.ttl)
	}

	return false, nil
}

func (d *memorySubmitDeduper) Forget(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, key)
	return nil
}

// NewSubmitDeduper uses Redis when a client is given and memory otherwise.
func NewSubmitDeduper(client *redis.Client, ttl time.Duration) SubmitDeduper {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if client == nil {
		return newMemorySubmitDeduper(ttl)
	}
	return &redisSubmitDeduper{client: client, prefix: "socialpay:submit", ttl: ttl}
}

// SubmitDedup answers 409 to a submission whose Idempotency-Key was already
// accepted. The key is released again when the handler does not answer 2xx,
// so a corrected retry after a validation error goes through. Requests
// without the header are not deduplicated; a failing store lets the request
// through, since the session itself rejects a second submission.
func SubmitDedup(deduper SubmitDeduper) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if deduper == nil {
				return next(c)
			}
			key := strings.TrimSpace(c.Request().Header.Get("Idempotency-Key"))
			if key == "" {
				return next(c)
			}

			ctx := c.Request().Context()
			key = c.Param("id") + ":" + key
			dup, err := deduper.Seen(ctx, key)
			if err != nil {
				return next(c)
			}
			if dup {
				return c.JSON(http.StatusConflict, models.APIResponse{Status: false, Msg: "Duplicate submission"})
			}

			err = next(c)
			if status := c.Response().Status; err != nil || status < 200 || status >= 300 {
				_ = deduper.Forget(context.WithoutCancel(ctx), key)
			}
			return err
		}
	}
}
