/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package metabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/evesallesleite-cell/lab-site-sub000/tabular"
)

const (
	sessionHeader   = "X-Metabase-Session"
	sessionCacheKey = "session"
)

const (
	// DefaultSessionTTL is how long a session token is reused before logging
	// in again. Metabase keeps sessions for 14 days, so a token revoked on the
	// server is replaced within half a day without waiting for a 401.
	DefaultSessionTTL = 12 * time.Hour
	// DefaultTimeout bounds each HTTP call when no client is supplied.
	DefaultTimeout = 30 * time.Second
	// DefaultRate is the outbound request rate, in requests per second.
	DefaultRate = 5.0
	// DefaultBurst is the number of requests allowed above DefaultRate at once.
	DefaultBurst = 5
)

// Config holds the Metabase connection settings.
type Config struct {
	URL        string
	Username   string
	Password   string
	SessionTTL time.Duration
	// RequestsPerSecond bounds outbound calls, including logins.
	RequestsPerSecond float64
	Burst             int
	HTTPClient        *http.Client
}

// Client runs saved questions ("cards") on a Metabase instance. It is safe
// for concurrent use.
type Client struct {
	baseURL    string
	username   string
	password   string
	sessionTTL time.Duration
	httpClient *http.Client
	sessions   *gocache.Cache
	limiter    *rate.Limiter
}

// New creates a Metabase client.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, ErrURLRequired
	}

	if cfg.Username == "" || cfg.Password == "" {
		return nil, ErrCredentialsRequired
	}

	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}

	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRate
	}

	if cfg.Burst <= 0 {
		cfg.Burst = DefaultBurst
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		username:   cfg.Username,
		password:   cfg.Password,
		sessionTTL: cfg.SessionTTL,
		httpClient: httpClient,
		sessions:   gocache.New(cfg.SessionTTL, cfg.SessionTTL),
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
	}, nil
}

// QueryCard runs card cardID and returns at most limit rows. A rejected
// session is refreshed and the query retried once.
func (c *Client) QueryCard(ctx context.Context, cardID, limit int) ([]tabular.Row, error) {
	rows, err := c.queryCard(ctx, cardID, limit)
	if err == nil || !errors.Is(err, ErrUnauthorized) {
		return rows, err
	}

	logger.Info("session rejected, logging in again", "card_id", cardID)
	c.sessions.Delete(sessionCacheKey)

	return c.queryCard(ctx, cardID, limit)
}

func (c *Client) queryCard(ctx context.Context, cardID, limit int) ([]tabular.Row, error) {
	token, err := c.session(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := c.baseURL + "/api/card/" + strconv.Itoa(cardID) + "/query/json"

	resp, err := c.do(ctx, http.MethodPost, endpoint, token, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Warn("Failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrQueryFailed, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	rows, err := tabular.DecodeRows(resp.Body, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	logger.Debug("card queried", "card_id", cardID, "rows", len(rows))

	return rows, nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	ID string `json:"id"`
}

// session returns the cached token or logs in for a new one.
func (c *Client) session(ctx context.Context) (string, error) {
	if token, ok := c.sessions.Get(sessionCacheKey); ok {
		return token.(string), nil
	}

	body, err := json.Marshal(loginRequest{Username: c.username, Password: c.password})
	if err != nil {
		return "", fmt.Errorf("failed to marshal login request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, c.baseURL+"/api/session", "", body)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}

	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Warn("Failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d", ErrLoginFailed, resp.StatusCode)
	}

	var login loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&login); err != nil {
		return "", fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}

	if login.ID == "" {
		return "", fmt.Errorf("%w: empty session id", ErrLoginFailed)
	}

	c.sessions.Set(sessionCacheKey, login.ID, c.sessionTTL)
	logger.Info("logged in", "url", c.baseURL)

	return login.ID, nil
}

func (c *Client) do(ctx context.Context, method, endpoint, token string, body []byte) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if token != "" {
		req.Header.Set(sessionHeader, token)
	}

	return c.httpClient.Do(req)
}
