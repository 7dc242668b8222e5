package payment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"socialpay/internal/models"
)

// Catalog reads the gateway listing and keeps it warm in a cache.
type Catalog struct {
	backend Backend
	cache   CatalogCache
	ttl     time.Duration
	logger  *zap.Logger
}

// NewCatalog creates a catalog accessor.
func NewCatalog(backend Backend, cache CatalogCache, ttl time.Duration, logger *zap.Logger) *Catalog {
	if cache == nil {
		cache = NewCatalogCache(nil)
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Catalog{backend: backend, cache: cache, ttl: ttl, logger: logger}
}

// List returns every gateway, from cache when possible.
func (c *Catalog) List(ctx context.Context) ([]models.Gateway, error) {
	gateways, ok, err := c.cache.Get(ctx)
	if err != nil {
		c.logger.Warn("Gateway cache read failed", zap.Error(err))
	}
	if ok {
		return gateways, nil
	}
	return c.Refresh(ctx)
}

// Refresh fetches the listing from the backend and stores it.
func (c *Catalog) Refresh(ctx context.Context) ([]models.Gateway, error) {
	gateways, err := c.backend.ListGateways(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh gateway catalog: %w", err)
	}
	if err := c.cache.Set(ctx, gateways, c.ttl); err != nil {
		c.logger.Warn("Gateway cache write failed", zap.Error(err))
	}
	return gateways, nil
}

// Mediums returns the gateways a payer can pay with.
func (c *Catalog) Mediums(ctx context.Context) ([]models.PaymentMedium, error) {
	gateways, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	mediums := make([]models.PaymentMedium, 0, len(gateways))
	for _, g := range gateways {
		if g.CanProcess {
			mediums = append(mediums, g.Medium())
		}
	}
	return mediums, nil
}

// Lookup finds a processable medium by key.
func (c *Catalog) Lookup(ctx context.Context, key string) (models.PaymentMedium, error) {
	mediums, err := c.Mediums(ctx)
	if err != nil {
		return models.PaymentMedium{}, err
	}
	key = strings.ToUpper(strings.TrimSpace(key))
	for _, m := range mediums {
		if m.Key == key {
			return m, nil
		}
	}
	return models.PaymentMedium{}, fmt.Errorf("%w: %s", ErrGatewayNotFound, key)
}
