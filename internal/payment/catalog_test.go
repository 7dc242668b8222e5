package payment

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"socialpay/internal/models"
)

type listOnlyBackend struct {
	Backend
	gateways []models.Gateway
	err      error
	calls    int32
}

func (b *listOnlyBackend) ListGateways(ctx context.Context) ([]models.Gateway, error) {
	atomic.AddInt32(&b.calls, 1)
	return b.gateways, b.err
}

func TestCatalog_CachesListing(t *testing.T) {
	backend := &listOnlyBackend{gateways: []models.Gateway{
		{Key: "TELEBIRR", Type: models.GatewayTypeWallet, CanProcess: true},
		{Key: "AWASH", Type: models.GatewayTypeBank, CanProcess: false, CanSettle: true},
	}}
	catalog := NewCatalog(backend, nil, time.Minute, zap.NewNop())

	for i := 0; i < 3; i++ {
		if _, err := catalog.List(context.Background()); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
	}
	if n := atomic.LoadInt32(&backend.calls); n != 1 {
		t.Errorf("Expected 1 backend call, got %d", n)
	}
}

func TestCatalog_MediumsFiltersCanProcess(t *testing.T) {
	backend := &listOnlyBackend{gateways: []models.Gateway{
		{Key: "TELEBIRR", CanProcess: true},
		{Key: "AWASH", CanProcess: false},
	}}
	catalog := NewCatalog(backend, nil, time.Minute, zap.NewNop())

	mediums, err := catalog.Mediums(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(mediums) != 1 || mediums[0].Key != "TELEBIRR" {
		t.Errorf("Expected only TELEBIRR, got %+v", mediums)
	}

	if _, err := catalog.Lookup(context.Background(), "awash"); !errors.Is(err, ErrGatewayNotFound) {
		t.Errorf("Expected ErrGatewayNotFound, got %v", err)
	}
	m, err := catalog.Lookup(context.Background(), " telebirr ")
	if err != nil || m.Key != "TELEBIRR" {
		t.Errorf("Expected TELEBIRR lookup to succeed, got %+v, %v", m, err)
	}
}

func TestCatalog_RefreshError(t *testing.T) {
	backend := &listOnlyBackend{err: &TransportError{Op: "list gateways", StatusCode: 500}}
	catalog := NewCatalog(backend, nil, time.Minute, zap.NewNop())

	_, err := catalog.List(context.Background())
	if !IsTransport(err) {
		t.Errorf("Expected wrapped transport error, got %v", err)
	}
}
