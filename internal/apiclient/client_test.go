package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(Options{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return client, srv
}

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Error("New() without base URL expected error")
	}
}

func TestGetDecodesResponse(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("missing X-Request-ID header")
		}
		if got := r.URL.Query().Get("q"); got != "pasta" {
			t.Errorf("q = %q, want pasta", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"_id":"r1"}],"nextCursor":"c1","hasNextPage":true}`))
	}))

	var out struct {
		Items []struct {
			ID string `json:"_id"`
		} `json:"items"`
		NextCursor  string `json:"nextCursor"`
		HasNextPage bool   `json:"hasNextPage"`
	}
	query := url.Values{"q": {"pasta"}}
	if err := client.Get(context.Background(), "/recipes", query, &out); err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if len(out.Items) != 1 || out.Items[0].ID != "r1" {
		t.Errorf("items = %+v", out.Items)
	}
	if out.NextCursor != "c1" || !out.HasNextPage {
		t.Errorf("cursor = %q hasNextPage = %v", out.NextCursor, out.HasNextPage)
	}
}

func TestErrorNormalization(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"Description too long"}`))
	}))

	err := client.Post(context.Background(), "/recipes", map[string]string{"title": "x"}, nil)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if apiErr.Status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", apiErr.Status)
	}
	if apiErr.Message() != "Description too long" {
		t.Errorf("message = %q", apiErr.Message())
	}
}

func TestErrorNonJSONBodyKeptAsText(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream exploded"))
	}))

	err := client.Post(context.Background(), "/recipes", nil, nil)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if apiErr.Status != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", apiErr.Status)
	}
	if apiErr.Data != "upstream exploded" {
		t.Errorf("data = %v, want raw text", apiErr.Data)
	}
}

func TestGetRetriesTransient(t *testing.T) {
	var calls atomic.Int64
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))

	var out map[string]any
	if err := client.Get(context.Background(), "/recipes", nil, &out); err != nil {
		t.Fatalf("Get() error after retries: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int64
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"not found"}`))
	}))

	err := client.Get(context.Background(), "/recipes/missing", nil, nil)
	if err == nil {
		t.Fatal("Get() expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1 (4xx must not retry)", calls.Load())
	}
}

func TestMutationsDoNotRetry(t *testing.T) {
	var calls atomic.Int64
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_ = client.Post(context.Background(), "/recipes", nil, nil)
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1 (mutations never retry)", calls.Load())
	}
}

func TestCookiesPersistAcrossCalls(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/signin":
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "tok123", Path: "/"})
			_, _ = w.Write([]byte(`{"_id":"u1"}`))
		case "/auth/me":
			cookie, err := r.Cookie("session")
			if err != nil || cookie.Value != "tok123" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"message":"no session"}`))
				return
			}
			_, _ = w.Write([]byte(`{"_id":"u1"}`))
		}
	}))

	var raw json.RawMessage
	if err := client.Post(context.Background(), "/auth/signin", map[string]string{}, &raw); err != nil {
		t.Fatalf("signin error: %v", err)
	}
	if err := client.Get(context.Background(), "/auth/me", nil, &raw); err != nil {
		t.Fatalf("me error (cookie not carried?): %v", err)
	}
}

func TestTransportFailureNormalized(t *testing.T) {
	client, err := New(Options{BaseURL: "http://127.0.0.1:1"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	err = client.Post(context.Background(), "/recipes", nil, nil)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if apiErr.Status != 0 {
		t.Errorf("status = %d, want 0 for transport failure", apiErr.Status)
	}
}
