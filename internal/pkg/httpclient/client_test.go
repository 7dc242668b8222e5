package httpclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_PostSendsJSONAndHeaders(t *testing.T) {
	var gotBody map[string]interface{}
	var gotAuth, gotLang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotLang = r.Header.Get("Accept-Language")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := New().WithBaseURL(srv.URL)
	resp, err := c.Post(context.Background(), "/pay", map[string]interface{}{"amount": 10}, Headers{
		"Authorization":   "Bearer abc",
		"Accept-Language": "",
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !resp.OK() || resp.StatusCode != http.StatusCreated {
		t.Errorf("Expected 201, got %d", resp.StatusCode)
	}
	if gotAuth != "Bearer abc" {
		t.Errorf("Expected bearer header, got %q", gotAuth)
	}
	if gotLang != "" {
		t.Errorf("Expected empty header to be skipped, got %q", gotLang)
	}
	if gotBody["amount"] != float64(10) {
		t.Errorf("Expected amount 10 in body, got %v", gotBody["amount"])
	}
}

func TestClient_NonSuccessIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	resp, err := New().Get(context.Background(), srv.URL+"/status", nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if resp.OK() {
		t.Error("Expected non-2xx response")
	}
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("Expected 502, got %d", resp.StatusCode)
	}
}

func TestClient_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().Get(ctx, srv.URL, nil); err == nil {
		t.Error("Expected error for cancelled context")
	}
}
