package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotools/trader/internal/config"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const (
	securityCookieName = ".ROBLOSECURITY"
	maxRetries         = 3
)

// UpstreamError carries the status code and body of a non-2xx upstream
// response so handlers can pass the status through.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned status code %d: %s", e.StatusCode, e.Body)
}

// RobloxClient handles communication with the Roblox platform APIs
type RobloxClient struct {
	authURL       string
	tradesURL     string
	thumbnailsURL string
	usersURL      string
	httpClient    *http.Client
	logger        *zap.Logger
}

// NewRobloxClient creates a new Roblox platform API client
func NewRobloxClient(cfg config.RobloxConfig, logger *zap.Logger) *RobloxClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RobloxClient{
		authURL:       strings.TrimSuffix(cfg.AuthURL, "/"),
		tradesURL:     strings.TrimSuffix(cfg.TradesURL, "/"),
		thumbnailsURL: strings.TrimSuffix(cfg.ThumbnailsURL, "/"),
		usersURL:      strings.TrimSuffix(cfg.UsersURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func cookieHeader(cookie string) string {
	return securityCookieName + "=" + cookie
}

// getJSON performs an authenticated GET with bounded exponential backoff.
// Only transport failures and 5xx responses are retried; everything else is
// treated as permanent.
func (c *RobloxClient) getJSON(ctx context.Context, url, cookie string, out interface{}) error {
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		if cookie != "" {
			req.Header.Set("Cookie", cookieHeader(cookie))
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Warn("Roblox API request failed, will retry",
				zap.Error(err),
				zap.String("url", url))
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			bodyBytes, _ := io.ReadAll(resp.Body)
			c.logger.Warn("Roblox API server error, will retry",
				zap.Int("statusCode", resp.StatusCode),
				zap.String("url", url))
			return &UpstreamError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
		}

		if resp.StatusCode != http.StatusOK {
			bodyBytes, _ := io.ReadAll(resp.Body)
			c.logger.Error("Roblox API error response",
				zap.Int("statusCode", resp.StatusCode),
				zap.String("url", url),
				zap.String("response", string(bodyBytes)))
			return backoff.Permanent(&UpstreamError{StatusCode: resp.StatusCode, Body: string(bodyBytes)})
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
		}
		return nil
	}

	return backoff.Retry(operation, backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx))
}

// csrfToken harvests a CSRF token by posting to the logout endpoint without
// performing a real logout. The platform rejects the call but answers with
// the token header; mutating calls cannot proceed without it.
func (c *RobloxClient) csrfToken(ctx context.Context, cookie string) (string, error) {
	url := fmt.Sprintf("%s/v2/logout", c.authURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create CSRF request: %w", err)
	}
	req.Header.Set("Cookie", cookieHeader(cookie))
	req.Header.Set("Content-Length", "0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to fetch CSRF token", zap.Error(err))
		return "", fmt.Errorf("failed to fetch CSRF token: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	token := resp.Header.Get("x-csrf-token")
	if token == "" {
		c.logger.Error("CSRF token missing from upstream response",
			zap.Int("statusCode", resp.StatusCode))
		return "", fmt.Errorf("upstream did not provide a CSRF token")
	}
	return token, nil
}

// postJSON performs a mutating call. It first harvests a fresh CSRF token
// and aborts before the real request if the token is missing. The token is
// used for exactly one call.
func (c *RobloxClient) postJSON(ctx context.Context, url, cookie string, body, out interface{}) error {
	token, err := c.csrfToken(ctx, cookie)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Cookie", cookieHeader(cookie))
	req.Header.Set("x-csrf-token", token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Roblox API mutating request failed",
			zap.Error(err),
			zap.String("url", url))
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		c.logger.Error("Roblox API error response",
			zap.Int("statusCode", resp.StatusCode),
			zap.String("url", url),
			zap.String("response", string(bodyBytes)))
		return &UpstreamError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
