// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package switchapi implements the client for the dead man's switch service.
package switchapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// staticCreds mints the same token every time and counts mints.
type staticCreds struct {
	token string
	mints int
	err   error
}

func (s *staticCreds) RequestCredential(ctx context.Context) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.mints++
	return s.token, nil
}

// newTestClient builds a client against the given handler with rate
// limiting disabled so tests run instantly.
func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server, *staticCreds) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	creds := &staticCreds{token: "tok-123"}
	client := NewClient(srv.URL, creds).WithHTTPClient(srv.Client()).WithRateLimit(0)
	return client, srv, creds
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode request body: %v", err)
	}
	return body
}

// =============================================================================
// CHECK-IN
// =============================================================================

func TestCheckIn_SendsModeAndBearer(t *testing.T) {
	var gotAuth, gotRequestID string
	var gotBody map[string]any

	client, _, creds := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		gotBody = decodeBody(t, r)
		w.WriteHeader(http.StatusOK)
	})

	if err := client.CheckIn(context.Background(), "user-1"); err != nil {
		t.Fatalf("CheckIn failed: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q, want Bearer tok-123", gotAuth)
	}
	if gotRequestID == "" {
		t.Error("X-Request-ID header missing")
	}
	if gotBody["mode"] != "checkin" || gotBody["user_id"] != "user-1" {
		t.Errorf("body = %v", gotBody)
	}
	if creds.mints != 1 {
		t.Errorf("credential mints = %d, want 1", creds.mints)
	}
}

func TestCheckIn_NoConfigYetIsSuccess(t *testing.T) {
	// The backend answers 204 when no configuration exists to check in
	// against. That is not an error for the client.
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	if err := client.CheckIn(context.Background(), "user-1"); err != nil {
		t.Fatalf("CheckIn on 204 should succeed, got %v", err)
	}
}

// =============================================================================
// FETCH
// =============================================================================

func TestFetchConfig_ParsesConfiguration(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		if body["mode"] != "fetch" {
			t.Errorf("mode = %v, want fetch", body["mode"])
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"threshold_hours":72,"last_checkin_time":"2024-01-01T00:00:00Z","contact_emails":["x@y.com"]}`))
	})

	cfg, err := client.FetchConfig(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("FetchConfig failed: %v", err)
	}
	if cfg == nil {
		t.Fatal("FetchConfig returned nil config")
	}
	if cfg.ThresholdHours != 72 {
		t.Errorf("ThresholdHours = %d, want 72", cfg.ThresholdHours)
	}
	want := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	if !cfg.LastCheckIn.Equal(want) {
		t.Errorf("LastCheckIn = %v, want %v", cfg.LastCheckIn, want)
	}
	if len(cfg.ContactEmails) != 1 || cfg.ContactEmails[0] != "x@y.com" {
		t.Errorf("ContactEmails = %v", cfg.ContactEmails)
	}
}

func TestFetchConfig_ParsesOffsetTimestamp(t *testing.T) {
	// The backend emits isoformat timestamps with an explicit offset.
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"threshold_hours":48,"last_checkin_time":"2024-06-01T10:30:00+00:00","contact_emails":["a@b.com"]}`))
	})

	cfg, err := client.FetchConfig(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("FetchConfig failed: %v", err)
	}
	want := time.Date(2024, time.June, 1, 10, 30, 0, 0, time.UTC)
	if !cfg.LastCheckIn.Equal(want) {
		t.Errorf("LastCheckIn = %v, want %v", cfg.LastCheckIn, want)
	}
}

func TestFetchConfig_AbsentIsNotAnError(t *testing.T) {
	for name, handler := range map[string]http.HandlerFunc{
		"204 no content": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		},
		"empty body": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		},
		"null body": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("null"))
		},
	} {
		t.Run(name, func(t *testing.T) {
			client, _, _ := newTestClient(t, handler)
			cfg, err := client.FetchConfig(context.Background(), "user-1")
			if err != nil {
				t.Fatalf("absent config should not error: %v", err)
			}
			if cfg != nil {
				t.Errorf("absent config should be nil, got %+v", cfg)
			}
		})
	}
}

// =============================================================================
// SAVE
// =============================================================================

func TestSaveConfig_OmitsModeField(t *testing.T) {
	var gotBody map[string]any
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotBody = decodeBody(t, r)
		w.WriteHeader(http.StatusOK)
	})

	err := client.SaveConfig(context.Background(), "user-1", 48, []string{"a@b.com"})
	if err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
	if _, hasMode := gotBody["mode"]; hasMode {
		t.Error("save request must not carry a mode field")
	}
	if gotBody["threshold_hours"] != float64(48) {
		t.Errorf("threshold_hours = %v, want 48", gotBody["threshold_hours"])
	}
	emails, ok := gotBody["contact_emails"].([]any)
	if !ok || len(emails) != 1 || emails[0] != "a@b.com" {
		t.Errorf("contact_emails = %v", gotBody["contact_emails"])
	}
}

// =============================================================================
// DELETE
// =============================================================================

func TestDeleteAccount_SendsDeleteMode(t *testing.T) {
	var gotBody map[string]any
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotBody = decodeBody(t, r)
		w.WriteHeader(http.StatusOK)
	})

	if err := client.DeleteAccount(context.Background(), "user-1"); err != nil {
		t.Fatalf("DeleteAccount failed: %v", err)
	}
	if gotBody["mode"] != "delete" {
		t.Errorf("mode = %v, want delete", gotBody["mode"])
	}
}

// =============================================================================
// ERROR HANDLING
// =============================================================================

func TestRemoteError_CarriesStatusAndBody(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"boom"}`))
	})

	err := client.CheckIn(context.Background(), "user-1")
	if err == nil {
		t.Fatal("expected error on 500")
	}
	re, ok := IsRemote(err)
	if !ok {
		t.Fatalf("error is not RemoteError: %v", err)
	}
	if re.Status != http.StatusInternalServerError {
		t.Errorf("Status = %d, want 500", re.Status)
	}
	if re.Body != `{"error":"boom"}` {
		t.Errorf("Body = %q", re.Body)
	}
}

func TestDo_CredentialFailurePropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should reach the server without a credential")
	}))
	defer srv.Close()

	wantErr := errors.New("no active session")
	client := NewClient(srv.URL, &staticCreds{err: wantErr}).WithRateLimit(0)

	err := client.CheckIn(context.Background(), "user-1")
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want wrapped %v", err, wantErr)
	}
}

func TestDo_NotConfigured(t *testing.T) {
	client := NewClient("", &staticCreds{token: "t"})
	if err := client.CheckIn(context.Background(), "u"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
}

func TestDo_FreshCredentialPerCall(t *testing.T) {
	client, _, creds := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	ctx := context.Background()
	_ = client.CheckIn(ctx, "u")
	_, _ = client.FetchConfig(ctx, "u")
	_ = client.SaveConfig(ctx, "u", 48, []string{"a@b.com"})

	if creds.mints != 3 {
		t.Errorf("credential mints = %d, want one per call (3)", creds.mints)
	}
}

func TestWithTimeout_OverridesRequestDeadline(t *testing.T) {
	client := NewClient("https://switch.example", &staticCreds{token: "t"})
	if client.httpClient.Timeout != DefaultTimeout {
		t.Fatalf("fresh client timeout = %v, want %v", client.httpClient.Timeout, DefaultTimeout)
	}

	client = client.WithTimeout(90 * time.Second)
	if client.httpClient.Timeout != 90*time.Second {
		t.Errorf("timeout = %v, want 90s", client.httpClient.Timeout)
	}
	if sharedHTTPClient.Timeout != DefaultTimeout {
		t.Errorf("shared client timeout changed to %v", sharedHTTPClient.Timeout)
	}

	// Non-positive values keep the current timeout.
	client = client.WithTimeout(0)
	if client.httpClient.Timeout != 90*time.Second {
		t.Errorf("timeout after WithTimeout(0) = %v, want 90s", client.httpClient.Timeout)
	}
}
