package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if cfg.Checkout.PollInterval != 3*time.Second {
		t.Errorf("Expected 3s poll interval, got %s", cfg.Checkout.PollInterval)
	}
	if cfg.Checkout.CountdownSeconds != 60 {
		t.Errorf("Expected countdown 60, got %d", cfg.Checkout.CountdownSeconds)
	}
	if cfg.Checkout.CountryCode != "+251" {
		t.Errorf("Expected +251, got %s", cfg.Checkout.CountryCode)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("CHECKOUT_POLL_INTERVAL", "5s")
	t.Setenv("CHECKOUT_FULL_REDIRECT_MEDIUMS", "ethswitch, cybersource ,")
	t.Setenv("SOCIALPAY_API_URL", "https://sandbox.socialpay.et/")
	t.Setenv("CHECKOUT_SESSION_TTL", "nonsense")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if cfg.Checkout.PollInterval != 5*time.Second {
		t.Errorf("Expected 5s, got %s", cfg.Checkout.PollInterval)
	}
	got := cfg.Checkout.FullRedirectMediums
	if len(got) != 2 || got[0] != "ETHSWITCH" || got[1] != "CYBERSOURCE" {
		t.Errorf("Expected [ETHSWITCH CYBERSOURCE], got %v", got)
	}
	if cfg.Backend.URL != "https://sandbox.socialpay.et" {
		t.Errorf("Expected trailing slash trimmed, got %s", cfg.Backend.URL)
	}
	if cfg.Checkout.SessionTTL != 30*time.Minute {
		t.Errorf("Expected fallback TTL, got %s", cfg.Checkout.SessionTTL)
	}
}

func TestLoadDatabaseOnly_RequiresName(t *testing.T) {
	t.Setenv("DB_NAME", "")
	if _, err := LoadDatabaseOnly(); err == nil {
		t.Error("Expected error without DB_NAME")
	}
}
