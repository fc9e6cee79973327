package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rotools/trader/internal/model"

	"go.uber.org/zap"
)

// GetAuthenticatedUser resolves the user the cookie belongs to. A 401
// response means the cookie is invalid or expired.
func (c *RobloxClient) GetAuthenticatedUser(ctx context.Context, cookie string) (*model.AuthenticatedUser, error) {
	url := fmt.Sprintf("%s/v1/users/authenticated", c.usersURL)

	var user model.AuthenticatedUser
	if err := c.getJSON(ctx, url, cookie, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// RefreshCookie performs the cookie refresh exchange: harvest a CSRF token,
// request an authentication ticket, then redeem it. The platform may rotate
// the cookie during redemption; when it does not, the original cookie is
// still valid and returned unchanged.
func (c *RobloxClient) RefreshCookie(ctx context.Context, cookie string) (*model.RefreshResult, error) {
	token, err := c.csrfToken(ctx, cookie)
	if err != nil {
		return nil, err
	}

	ticket, err := c.authenticationTicket(ctx, cookie, token)
	if err != nil {
		return nil, err
	}

	refreshed, err := c.redeemTicket(ctx, ticket)
	if err != nil {
		return nil, err
	}
	if refreshed == "" {
		refreshed = cookie
	}

	return &model.RefreshResult{
		RefreshedCookie: refreshed,
		AuthTicket:      ticket,
	}, nil
}

func (c *RobloxClient) authenticationTicket(ctx context.Context, cookie, csrf string) (string, error) {
	url := fmt.Sprintf("%s/v1/authentication-ticket", c.authURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Cookie", cookieHeader(cookie))
	req.Header.Set("x-csrf-token", csrf)
	req.Header.Set("RBXAuthenticationNegotiation", "1")
	req.Header.Set("Referer", "https://www.roblox.com/")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to request authentication ticket", zap.Error(err))
		return "", fmt.Errorf("failed to request authentication ticket: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", &UpstreamError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	ticket := resp.Header.Get("rbx-authentication-ticket")
	if ticket == "" {
		bodyBytes, _ := io.ReadAll(resp.Body)
		c.logger.Error("Authentication ticket missing from upstream response",
			zap.Int("statusCode", resp.StatusCode),
			zap.String("response", string(bodyBytes)))
		return "", &UpstreamError{StatusCode: http.StatusUnauthorized, Body: "authentication ticket not granted"}
	}
	return ticket, nil
}

// redeemTicket exchanges an authentication ticket and returns the rotated
// cookie from the Set-Cookie response headers, or "" if no rotation
// happened.
func (c *RobloxClient) redeemTicket(ctx context.Context, ticket string) (string, error) {
	url := fmt.Sprintf("%s/v1/authentication-ticket/redeem", c.authURL)

	body := strings.NewReader(fmt.Sprintf(`{"authenticationTicket":%q}`, ticket))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("RBXAuthenticationNegotiation", "1")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to redeem authentication ticket", zap.Error(err))
		return "", fmt.Errorf("failed to redeem authentication ticket: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", &UpstreamError{StatusCode: resp.StatusCode, Body: "ticket redemption rejected"}
	}

	for _, ck := range resp.Cookies() {
		if ck.Name == securityCookieName {
			return ck.Value, nil
		}
	}
	return "", nil
}
