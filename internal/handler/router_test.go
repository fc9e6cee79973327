package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rotools/trader/internal/client"
	"github.com/rotools/trader/internal/config"
	"github.com/rotools/trader/internal/middleware"
	"github.com/rotools/trader/internal/model"
	"github.com/rotools/trader/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeUpstream struct {
	whoamiStatus int
	whoamiCalls  int
	itemsFail    bool
	trades       []model.RobloxTradeSummary
}

func (u *fakeUpstream) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v2/logout":
			w.Header().Set("x-csrf-token", "tok123")
			w.WriteHeader(http.StatusForbidden)

		case r.URL.Path == "/v1/authentication-ticket":
			w.Header().Set("rbx-authentication-ticket", "ticket-abc")

		case r.URL.Path == "/v1/authentication-ticket/redeem":
			http.SetCookie(w, &http.Cookie{Name: ".ROBLOSECURITY", Value: "rotated-cookie"})
			w.Write([]byte(`{}`))

		case r.URL.Path == "/v1/trades/inbound/count":
			json.NewEncoder(w).Encode(map[string]int64{"count": 0})

		case strings.HasSuffix(r.URL.Path, "/decline"):
			w.Write([]byte(`{}`))

		case r.URL.Path == "/v1/users/authenticated":
			u.whoamiCalls++
			if u.whoamiStatus != 0 {
				w.WriteHeader(u.whoamiStatus)
				w.Write([]byte(`{"errors":[{"message":"Token Validation Failed"}]}`))
				return
			}
			json.NewEncoder(w).Encode(model.AuthenticatedUser{ID: 1000, Name: "me", DisplayName: "Me"})

		case r.URL.Path == "/items/v1/itemdetails":
			if u.itemsFail {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			json.NewEncoder(w).Encode(model.RolimonsItemDetails{
				Success:   true,
				ItemCount: 1,
				Items: map[string][]interface{}{
					"22": {"Dominus", "DOM", float64(50000), float64(48000), float64(48000), float64(4), float64(2), float64(0), float64(0), float64(0)},
				},
			})

		case strings.HasPrefix(r.URL.Path, "/v1/trades/"):
			json.NewEncoder(w).Encode(model.RobloxTradeList{Data: u.trades})

		case r.URL.Path == "/v1/users/avatar-headshot" || r.URL.Path == "/v1/assets":
			json.NewEncoder(w).Encode(model.ThumbnailBatch{Data: []model.ThumbnailResult{
				{TargetID: 1000, State: "Completed", ImageURL: "https://cdn.example/1000"},
			}})

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func newRouterFixture(t *testing.T) (*gin.Engine, *fakeUpstream) {
	t.Helper()

	upstream := &fakeUpstream{}
	server := httptest.NewServer(upstream.handler())
	t.Cleanup(server.Close)

	logger := zap.NewNop()
	roblox := client.NewRobloxClient(config.RobloxConfig{
		AuthURL:       server.URL,
		TradesURL:     server.URL,
		ThumbnailsURL: server.URL,
		UsersURL:      server.URL,
	}, logger)
	rolimons := client.NewRolimonsClient(config.RolimonsConfig{URL: server.URL}, logger)

	sessions := service.NewSessionManager(roblox, config.SessionConfig{
		JWTSecret: "test-secret",
		TokenTTL:  time.Hour,
	}, logger)
	t.Cleanup(sessions.Close)

	pricing := service.NewPricingService(rolimons, 5*time.Minute, logger)
	thumbs := service.NewThumbnailService(roblox, 128, logger)
	trades := service.NewTradeService(roblox, pricing, thumbs, 5*time.Minute, nil, "", logger)

	router := NewRouter(RouterDeps{
		Config:   &config.Config{},
		Sessions: sessions,
		Pricing:  pricing,
		Thumbs:   thumbs,
		Trades:   trades,
		Logger:   logger,
	})
	return router, upstream
}

func perform(router *gin.Engine, method, path string, body string, withCookie bool) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if withCookie {
		req.Header.Set(middleware.CookieHeader, "test-cookie")
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newRouterFixture(t)

	resp := perform(router, http.MethodGet, "/health", "", false)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"status":"ok"`)
}

func TestMissingCredentialRejected(t *testing.T) {
	router, upstream := newRouterFixture(t)

	for _, path := range []string{
		"/api/profile",
		"/api/inventory",
		"/api/roblox/trades/inbound",
		"/api/roblox/trades/unread/count",
	} {
		resp := perform(router, http.MethodGet, path, "", false)
		assert.Equal(t, http.StatusUnauthorized, resp.Code, path)
	}
	assert.Equal(t, 0, upstream.whoamiCalls, "rejection must happen before any upstream call")
}

func TestProfileServed(t *testing.T) {
	router, _ := newRouterFixture(t)

	resp := perform(router, http.MethodGet, "/api/profile", "", true)
	require.Equal(t, http.StatusOK, resp.Code)

	var profile model.Profile
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &profile))
	assert.Equal(t, int64(1000), profile.ID)
	assert.Equal(t, "https://cdn.example/1000", profile.Avatar)
}

func TestProfileForbiddenPassesThrough(t *testing.T) {
	router, upstream := newRouterFixture(t)
	upstream.whoamiStatus = http.StatusForbidden

	resp := perform(router, http.MethodGet, "/api/profile", "", true)

	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.Contains(t, resp.Body.String(), "denied")
	assert.Equal(t, 1, upstream.whoamiCalls, "a 4xx response must not be retried")
}

func TestProfileUnauthorizedPassesThrough(t *testing.T) {
	router, upstream := newRouterFixture(t)
	upstream.whoamiStatus = http.StatusUnauthorized

	resp := perform(router, http.MethodGet, "/api/profile", "", true)

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Contains(t, resp.Body.String(), "Invalid or expired")
}

func TestItemsEndpoint(t *testing.T) {
	router, _ := newRouterFixture(t)

	resp := perform(router, http.MethodGet, "/api/items", "", false)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Dominus")
}

func TestItemsEndpointFailureIsBadGateway(t *testing.T) {
	router, upstream := newRouterFixture(t)
	upstream.itemsFail = true

	resp := perform(router, http.MethodGet, "/api/items", "", false)
	assert.Equal(t, http.StatusBadGateway, resp.Code)
}

func TestInvalidTradeKindRejected(t *testing.T) {
	router, _ := newRouterFixture(t)

	resp := perform(router, http.MethodGet, "/api/roblox/trades/sideways", "", true)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestTradeListingServed(t *testing.T) {
	router, upstream := newRouterFixture(t)
	upstream.trades = []model.RobloxTradeSummary{
		{ID: 555, User: model.RobloxUser{ID: 2000, Name: "partner"}, Status: "Open"},
	}

	resp := perform(router, http.MethodGet, "/api/roblox/trades/inbound", "", true)
	require.Equal(t, http.StatusOK, resp.Code)

	var page model.TradePage
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &page))
	require.Len(t, page.Trades, 1)
	assert.Equal(t, model.TradeStatusInbound, page.Trades[0].Status)
}

func TestTradeDetailBadIDRejected(t *testing.T) {
	router, _ := newRouterFixture(t)

	resp := perform(router, http.MethodGet, "/api/roblox/trades/detail/abc", "", true)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestThumbnailsRequireIDs(t *testing.T) {
	router, _ := newRouterFixture(t)

	resp := perform(router, http.MethodGet, "/api/roblox/thumbnails", "", true)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = perform(router, http.MethodGet, "/api/roblox/avatars?userIds=abc", "", true)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestValidateTokenEndpoint(t *testing.T) {
	router, _ := newRouterFixture(t)

	resp := perform(router, http.MethodPost, "/api/validate-token", `{}`, false)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = perform(router, http.MethodPost, "/api/validate-token", `{"token":"garbage"}`, false)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Contains(t, resp.Body.String(), `"isValid":false`)
}

func TestRefreshAuthenticatesWithBodyCookieAlone(t *testing.T) {
	router, _ := newRouterFixture(t)

	// No header credential and no active session: the body cookie is the
	// input to the exchange and must be enough on its own
	resp := perform(router, http.MethodPost, "/api/roblox/refresh", `{"cookie":"some-cookie"}`, false)
	require.Equal(t, http.StatusOK, resp.Code)

	var result model.RefreshResult
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	assert.Equal(t, "rotated-cookie", result.RefreshedCookie)
}

func TestRefreshRequiresCookieField(t *testing.T) {
	router, _ := newRouterFixture(t)

	resp := perform(router, http.MethodPost, "/api/roblox/refresh", `{}`, false)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestDeclineTradeReportsSuccess(t *testing.T) {
	router, _ := newRouterFixture(t)

	resp := perform(router, http.MethodPost, "/api/roblox/trades/555/decline", "", true)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"success":true`)
	assert.Contains(t, resp.Body.String(), `"tradeId":555`)
}

func TestLoginRequiresCookieField(t *testing.T) {
	router, _ := newRouterFixture(t)

	resp := perform(router, http.MethodPost, "/api/auth/login", `{}`, false)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestCounterTradeValidation(t *testing.T) {
	router, _ := newRouterFixture(t)

	// Empty item lists are rejected before any upstream call
	resp := perform(router, http.MethodPost, "/api/roblox/trades/counter",
		`{"tradeId":555,"offerItems":[],"requestItems":[92]}`, true)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
