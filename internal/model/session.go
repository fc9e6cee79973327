package model

import "time"

// Profile is the authenticated user's public profile.
type Profile struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar,omitempty"`
}

// LoginRequest carries the Roblox session cookie to validate. The cookie is
// exchanged upstream and never echoed back in any response.
type LoginRequest struct {
	Cookie string `json:"cookie" binding:"required"`
}

// LoginResponse returns the session-indicator token. The token gates UI
// state only; it never contains the credential.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      Profile   `json:"user"`
}

// RefreshRequest asks for a cookie refresh exchange.
type RefreshRequest struct {
	Cookie string `json:"cookie" binding:"required"`
}

// ValidateTokenRequest carries a session-indicator token to check.
type ValidateTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// ValidateTokenResponse reports whether a session-indicator token is valid.
type ValidateTokenResponse struct {
	IsValid bool     `json:"isValid"`
	User    *Profile `json:"user,omitempty"`
}
