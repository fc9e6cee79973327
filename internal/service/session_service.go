package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rotools/trader/internal/client"
	"github.com/rotools/trader/internal/config"
	"github.com/rotools/trader/internal/model"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
)

// ErrNotAuthenticated is returned when an operation requires an active
// session credential and none is held.
var ErrNotAuthenticated = errors.New("not authenticated")

// SessionManager holds at most one authenticated Roblox credential at a
// time. Login validates the cookie through the refresh exchange; while a
// session is active a background task re-validates it on a fixed interval
// and purges the credential when the exchange fails. The session-indicator
// token issued on login never contains the credential.
type SessionManager struct {
	roblox *client.RobloxClient
	cfg    config.SessionConfig
	logger *zap.Logger

	mu     sync.RWMutex
	cookie string
	user   *model.Profile
	cancel context.CancelFunc
}

// NewSessionManager creates a session manager. No session is active until
// Login succeeds.
func NewSessionManager(roblox *client.RobloxClient, cfg config.SessionConfig, logger *zap.Logger) *SessionManager {
	return &SessionManager{
		roblox: roblox,
		cfg:    cfg,
		logger: logger,
	}
}

// Login validates the cookie by performing the refresh exchange, persists
// the possibly-rotated credential and starts periodic re-validation. On
// failure the session stays unauthenticated.
func (m *SessionManager) Login(ctx context.Context, cookie string) (*model.LoginResponse, error) {
	result, err := m.roblox.RefreshCookie(ctx, cookie)
	if err != nil {
		m.logger.Debug("login failed", zap.Error(err))
		return nil, err
	}

	user, err := m.roblox.GetAuthenticatedUser(ctx, result.RefreshedCookie)
	if err != nil {
		return nil, err
	}
	profile := &model.Profile{
		ID:          user.ID,
		Name:        user.Name,
		DisplayName: user.DisplayName,
	}

	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
	}
	m.cookie = result.RefreshedCookie
	m.user = profile
	revalCtx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.mu.Unlock()

	go m.revalidateLoop(revalCtx)

	token, expiresAt, err := m.issueToken(profile)
	if err != nil {
		return nil, err
	}

	m.logger.Info("session authenticated", zap.Int64("userId", profile.ID))
	return &model.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      *profile,
	}, nil
}

// Logout purges the credential and stops re-validation. Idempotent.
func (m *SessionManager) Logout() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	if m.cookie != "" {
		m.logger.Info("session logged out")
	}
	m.cookie = ""
	m.user = nil
}

// Close stops the re-validation task on shutdown.
func (m *SessionManager) Close() {
	m.Logout()
}

// Refresh performs a cookie refresh exchange. When the refreshed cookie
// belongs to the active session the stored credential is updated to the
// rotated one.
func (m *SessionManager) Refresh(ctx context.Context, cookie string) (*model.RefreshResult, error) {
	result, err := m.roblox.RefreshCookie(ctx, cookie)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.cookie != "" && m.cookie == cookie {
		m.cookie = result.RefreshedCookie
	}
	m.mu.Unlock()

	return result, nil
}

// Credential returns the active session cookie, if any. Callers must check
// the second return before issuing any upstream call.
func (m *SessionManager) Credential() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cookie, m.cookie != ""
}

// CurrentUser returns the profile of the active session.
func (m *SessionManager) CurrentUser() (*model.Profile, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil, false
	}
	user := *m.user
	return &user, true
}

// ResolveUser identifies the user a credential belongs to. The active
// session's profile is reused when the cookie matches; any other cookie is
// resolved with an upstream authenticated-user check.
func (m *SessionManager) ResolveUser(ctx context.Context, cookie string) (*model.Profile, error) {
	m.mu.RLock()
	if m.user != nil && m.cookie == cookie {
		user := *m.user
		m.mu.RUnlock()
		return &user, nil
	}
	m.mu.RUnlock()

	user, err := m.roblox.GetAuthenticatedUser(ctx, cookie)
	if err != nil {
		return nil, err
	}
	return &model.Profile{
		ID:          user.ID,
		Name:        user.Name,
		DisplayName: user.DisplayName,
	}, nil
}

// ValidateToken checks a session-indicator token and returns the profile it
// was issued for.
func (m *SessionManager) ValidateToken(tokenString string) (*model.Profile, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(m.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if tokenType, ok := claims["type"].(string); !ok || tokenType != "session" {
		return nil, errors.New("invalid token type")
	}

	userID, ok := claims["sub"].(float64)
	if !ok {
		return nil, errors.New("invalid user ID in token")
	}
	name, _ := claims["name"].(string)
	displayName, _ := claims["display_name"].(string)

	return &model.Profile{
		ID:          int64(userID),
		Name:        name,
		DisplayName: displayName,
	}, nil
}

func (m *SessionManager) issueToken(user *model.Profile) (string, time.Time, error) {
	expiresAt := time.Now().Add(m.cfg.TokenTTL)
	claims := jwt.MapClaims{
		"sub":          user.ID,
		"name":         user.Name,
		"display_name": user.DisplayName,
		"type":         "session",
		"iat":          time.Now().Unix(),
		"exp":          expiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.cfg.JWTSecret))
	if err != nil {
		m.logger.Error("failed to sign session token", zap.Error(err))
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// revalidateLoop repeats the refresh exchange on a fixed interval. Each
// attempt is bounded by the configured timeout; a failed exchange purges
// the credential and ends the loop.
func (m *SessionManager) revalidateLoop(ctx context.Context) {
	interval := m.cfg.RefreshInterval
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !m.revalidate(ctx) {
				return
			}
		}
	}
}

func (m *SessionManager) revalidate(ctx context.Context) bool {
	cookie, ok := m.Credential()
	if !ok {
		return false
	}

	timeout := m.cfg.ValidateTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := m.roblox.RefreshCookie(attemptCtx, cookie)
	if err != nil {
		m.logger.Warn("session re-validation failed, purging credential", zap.Error(err))
		m.Logout()
		return false
	}

	m.mu.Lock()
	// Logout may have run while the exchange was in flight; storing the
	// refreshed cookie then would resurrect a purged credential.
	if m.cookie != cookie {
		m.mu.Unlock()
		return false
	}
	m.cookie = result.RefreshedCookie
	m.mu.Unlock()

	m.logger.Debug("session re-validated")
	return true
}
