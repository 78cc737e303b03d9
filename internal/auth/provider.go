// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth manages the dmswitch sign-in session.
package auth

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
)

// =============================================================================
// CONSTANTS
// =============================================================================

// DefaultTimeout is the timeout for identity provider requests.
const DefaultTimeout = 30 * time.Second

// MaxResponseSize limits identity provider response bodies (64KB).
const MaxResponseSize = 64 * 1024

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNoSession indicates an operation that needs a signed-in session.
	ErrNoSession = errors.New("not signed in")

	// ErrSignInFailed indicates the provider rejected the credentials.
	ErrSignInFailed = errors.New("sign-in rejected")
)

// AuthError is a failure reported by the identity provider.
type AuthError struct {
	Op      string // "signin", "token", "revoke"
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("auth %s failed: HTTP %d: %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("auth %s failed: HTTP %d", e.Op, e.Status)
}

// IsAuthError reports whether err carries an *AuthError.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// =============================================================================
// WIRE TYPES
// =============================================================================

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	TOTPCode string `json:"totp_code,omitempty"`
}

type signInResponse struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type revokeRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// =============================================================================
// PROVIDER
// =============================================================================

// sharedAuthClient is reused across Provider instances for connection pooling.
var sharedAuthClient = &http.Client{
	Timeout: DefaultTimeout,
	Transport: &http.Transport{
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     90 * time.Second,
	},
}

// Provider is the HTTP client for the identity provider.
type Provider struct {
	baseURL    string
	httpClient *http.Client
}

// NewProvider creates an identity provider client for baseURL.
func NewProvider(baseURL string) *Provider {
	return &Provider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: sharedAuthClient,
	}
}

// WithHTTPClient replaces the HTTP client (used by tests).
func (p *Provider) WithHTTPClient(c *http.Client) *Provider {
	p.httpClient = c
	return p
}

// SignIn exchanges credentials for a refresh token.
func (p *Provider) SignIn(ctx context.Context, email, password, totpCode string) (string, error) {
	var resp signInResponse
	err := p.post(ctx, "signin", "/v1/signin",
		signInRequest{Email: email, Password: password, TOTPCode: totpCode}, &resp)
	if err != nil {
		var ae *AuthError
		if errors.As(err, &ae) && (ae.Status == http.StatusUnauthorized || ae.Status == http.StatusForbidden) {
			return "", fmt.Errorf("%w: %v", ErrSignInFailed, err)
		}
		return "", err
	}
	if resp.RefreshToken == "" {
		return "", fmt.Errorf("sign-in response missing refresh token")
	}
	return resp.RefreshToken, nil
}

// Mint exchanges a refresh token for a short-lived access token.
func (p *Provider) Mint(ctx context.Context, refreshToken string) (string, error) {
	var resp tokenResponse
	err := p.post(ctx, "token", "/v1/token", tokenRequest{RefreshToken: refreshToken}, &resp)
	if err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("token response missing access token")
	}
	return resp.AccessToken, nil
}

// Revoke invalidates a refresh token server-side.
func (p *Provider) Revoke(ctx context.Context, refreshToken string) error {
	return p.post(ctx, "revoke", "/v1/revoke", revokeRequest{RefreshToken: refreshToken}, nil)
}

func (p *Provider) post(ctx context.Context, op, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", op, err)
	}
	defer resp.Body.Close()

	// RELIABILITY: Cap response size to prevent memory exhaustion.
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var er errorResponse
		_ = json.Unmarshal(data, &er)
		msg := er.Message
		if msg == "" {
			msg = er.Error
		}
		return &AuthError{Op: op, Status: resp.StatusCode, Message: msg}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to parse %s response: %w", op, err)
		}
	}
	return nil
}
