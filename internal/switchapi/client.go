// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package switchapi implements the client for the dead man's switch service.
//
// The service exposes a single endpoint discriminated by a "mode" field in
// the request body: "checkin", "fetch", "delete", or (implicitly, when no
// mode is present) save. Every request is authenticated with a bearer
// credential minted immediately before the call; credentials are short-lived
// and never reused across requests.
package switchapi

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Configuration constants for the switch service API.
const (
	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion attacks.
	MaxResponseSize = 1 * 1024 * 1024 // 1MB limit

	// defaultRequestsPerMinute bounds how fast UI-triggered operations may
	// reach the endpoint.
	defaultRequestsPerMinute = 30
)

// sharedHTTPClient is used for all switch service requests.
// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
// SECURITY: TLS verification required for production; TLS 1.2 minimum.
var sharedHTTPClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	},
	Timeout: DefaultTimeout,
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotConfigured indicates the service endpoint is not set.
	ErrNotConfigured = errors.New("switch service endpoint not configured")
)

// RemoteError represents a non-success response from the switch service.
// The coordinator decides whether to surface or suppress it.
type RemoteError struct {
	Status int
	Body   string
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("switch service error (HTTP %d): %s", e.Status, e.Body)
	}
	return fmt.Sprintf("switch service error (HTTP %d)", e.Status)
}

// IsRemote reports whether err is a RemoteError, returning it if so.
func IsRemote(err error) (*RemoteError, bool) {
	var re *RemoteError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// =============================================================================
// CREDENTIAL SOURCE
// =============================================================================

// CredentialSource mints a fresh short-lived bearer credential for a single
// request. Implementations may need a network round-trip to the identity
// provider; they must fail when no session is active.
type CredentialSource interface {
	RequestCredential(ctx context.Context) (string, error)
}

// =============================================================================
// WIRE TYPES
// =============================================================================

// Request modes understood by the service. Save is the implicit mode and
// carries no mode field at all.
const (
	modeCheckIn = "checkin"
	modeFetch   = "fetch"
	modeDelete  = "delete"
)

// Config is the stored liveness policy for a principal.
// LastCheckIn is set by the backend, never by this client.
type Config struct {
	ThresholdHours int
	LastCheckIn    time.Time
	ContactEmails  []string
}

// modeRequest is the body for checkin, fetch, and delete operations.
type modeRequest struct {
	Mode   string `json:"mode"`
	UserID string `json:"user_id"`
}

// saveRequest is the body for the implicit save operation; it deliberately
// has no mode field.
type saveRequest struct {
	UserID         string   `json:"user_id"`
	ThresholdHours int      `json:"threshold_hours"`
	ContactEmails  []string `json:"contact_emails"`
}

// fetchResponse is the wire shape of a stored configuration.
type fetchResponse struct {
	ThresholdHours int      `json:"threshold_hours"`
	LastCheckIn    string   `json:"last_checkin_time"`
	ContactEmails  []string `json:"contact_emails"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client communicates with the switch service endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	creds      CredentialSource
	limiter    *rate.Limiter
	userAgent  string
}

// NewClient creates a client for the given endpoint. Credentials are minted
// through creds just before each request.
func NewClient(endpoint string, creds CredentialSource) *Client {
	return &Client{
		endpoint:   strings.TrimSuffix(strings.TrimSpace(endpoint), "/"),
		httpClient: sharedHTTPClient,
		creds:      creds,
		limiter:    rate.NewLimiter(rate.Limit(float64(defaultRequestsPerMinute)/60.0), 5),
		userAgent:  "dmswitch/1.0",
	}
}

// WithHTTPClient sets a custom HTTP client (used by tests).
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// WithTimeout overrides the per-request timeout. The shared transport is
// kept; only the timeout differs. Non-positive values are ignored.
func (c *Client) WithTimeout(d time.Duration) *Client {
	if d <= 0 {
		return c
	}
	hc := *c.httpClient
	hc.Timeout = d
	c.httpClient = &hc
	return c
}

// WithRateLimit overrides the requests-per-minute cap. A non-positive
// value disables rate limiting.
func (c *Client) WithRateLimit(perMinute int) *Client {
	if perMinute <= 0 {
		c.limiter = nil
		return c
	}
	c.limiter = rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), 5)
	return c
}

// IsConfigured returns true if the client has an endpoint configured.
func (c *Client) IsConfigured() bool {
	return c.endpoint != ""
}

// =============================================================================
// OPERATIONS
// =============================================================================

// CheckIn records a liveness signal for the principal. The backend advances
// its last-check-in timestamp; no payload beyond success is consumed here.
// A 204 (no stored configuration yet) still counts as success.
func (c *Client) CheckIn(ctx context.Context, principalID string) error {
	_, _, err := c.do(ctx, modeRequest{Mode: modeCheckIn, UserID: principalID})
	return err
}

// FetchConfig returns the stored configuration for the principal, or
// (nil, nil) when none exists yet. Absence is a valid, non-error state for
// first-time users.
func (c *Client) FetchConfig(ctx context.Context, principalID string) (*Config, error) {
	body, status, err := c.do(ctx, modeRequest{Mode: modeFetch, UserID: principalID})
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent || len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	var resp fetchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	// An explicit null body also means no configuration.
	if resp.ThresholdHours == 0 && resp.LastCheckIn == "" && resp.ContactEmails == nil {
		return nil, nil
	}

	lastCheckIn, err := time.Parse(time.RFC3339, resp.LastCheckIn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse last check-in time %q: %w", resp.LastCheckIn, err)
	}

	return &Config{
		ThresholdHours: resp.ThresholdHours,
		LastCheckIn:    lastCheckIn.UTC(),
		ContactEmails:  resp.ContactEmails,
	}, nil
}

// SaveConfig persists a new configuration. The backend is the source of
// truth: callers re-fetch afterwards to redisplay authoritative state.
func (c *Client) SaveConfig(ctx context.Context, principalID string, thresholdHours int, emails []string) error {
	_, _, err := c.do(ctx, saveRequest{
		UserID:         principalID,
		ThresholdHours: thresholdHours,
		ContactEmails:  emails,
	})
	return err
}

// DeleteAccount irreversibly removes the configuration and any backend
// record tied to the principal. Callers must follow with a local sign-out
// regardless of the outcome.
func (c *Client) DeleteAccount(ctx context.Context, principalID string) error {
	_, _, err := c.do(ctx, modeRequest{Mode: modeDelete, UserID: principalID})
	return err
}

// =============================================================================
// TRANSPORT
// =============================================================================

// do posts one JSON body to the endpoint with a freshly minted bearer
// credential and returns the response body and status. Any non-2xx response
// becomes a *RemoteError. There is no automatic retry: the coordinator
// surfaces failures and the user retries manually.
func (c *Client) do(ctx context.Context, reqBody any) ([]byte, int, error) {
	if !c.IsConfigured() {
		return nil, 0, ErrNotConfigured
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, 0, err
		}
	}

	// Fresh credential per call: tokens are short-lived and may have
	// expired since the previous request.
	token, err := c.creds.RequestCredential(ctx)
	if err != nil {
		return nil, 0, err
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)

	// SECURITY: Clear Authorization header immediately after the request to
	// keep the credential out of any later logging of the request object.
	req.Header.Del("Authorization")

	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := readResponse(resp)
	if err != nil {
		return nil, resp.StatusCode, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, &RemoteError{
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(body)),
		}
	}

	return body, resp.StatusCode, nil
}

// readResponse reads the response body with a size limit.
// SECURITY: Response size limit prevents memory exhaustion attacks.
func readResponse(resp *http.Response) ([]byte, error) {
	limitedReader := io.LimitReader(resp.Body, MaxResponseSize)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}
