package payment

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"socialpay/internal/models"
)

const catalogCacheKey = "socialpay:gateways"

// CatalogCache stores the last gateway listing.
type CatalogCache interface {
	Get(ctx context.Context) ([]models.Gateway, bool, error)
	Set(ctx context.Context, gateways []models.Gateway, ttl time.Duration) error
}

type redisCatalogCache struct {
	client *redis.Client
	key    string
}

func (c *redisCatalogCache) Get(ctx context.Context) ([]models.Gateway, bool, error) {
	raw, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var gateways []models.Gateway
	if err := json.Unmarshal(raw, &gateways); err != nil {
		return nil, false, err
	}
	return gateways, true, nil
}

func (c *redisCatalogCache) Set(ctx context.Context, gateways []models.Gateway, ttl time.Duration) error {
	raw, err := json.Marshal(gateways)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key, raw, ttl).Err()
}

type memoryCatalogCache struct {
	mu       sync.RWMutex
	gateways []models.Gateway
	expires  time.Time
}

func (c *memoryCatalogCache) Get(_ context.Context) ([]models.Gateway, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.gateways == nil || time.Now().After(c.expires) {
		return nil, false, nil
	}
	out := make([]models.Gateway, len(c.gateways))
	copy(out, c.gateways)
	return out, true, nil
}

func (c *memoryCatalogCache) Set(_ context.Context, gateways []models.Gateway, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gateways = make([]models.Gateway, len(gateways))
	copy(c.gateways, gateways)
	c.expires = time.Now().Add(ttl)
	return nil
}

// NewCatalogCache uses Redis when a client is given and memory otherwise.
func NewCatalogCache(client *redis.Client) CatalogCache {
	if client == nil {
		return &memoryCatalogCache{}
	}
	return &redisCatalogCache{client: client, key: catalogCacheKey}
}
