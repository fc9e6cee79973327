package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CookieHeader is the request header carrying the Roblox session cookie.
const CookieHeader = "X-Roblox-Cookie"

// CookieContextKey is the gin context key the resolved credential is stored
// under.
const CookieContextKey = "robloxCookie"

// CredentialSource supplies the active session credential when a request
// does not carry its own.
type CredentialSource interface {
	Credential() (string, bool)
}

// RequireCredential resolves the Roblox cookie for a request: the explicit
// header wins, otherwise the active session's credential is used. Requests
// without either are rejected before any upstream call is made.
func RequireCredential(sessions CredentialSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie := c.GetHeader(CookieHeader)
		if cookie == "" && sessions != nil {
			cookie, _ = sessions.Credential()
		}
		if cookie == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required: missing Roblox session cookie"})
			c.Abort()
			return
		}

		c.Set(CookieContextKey, cookie)
		c.Next()
	}
}

// Credential returns the cookie resolved by RequireCredential.
func Credential(c *gin.Context) string {
	return c.GetString(CookieContextKey)
}
