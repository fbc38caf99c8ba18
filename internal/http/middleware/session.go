package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	sessionIDKey     = "session_id"
	SessionHeader    = "X-Session-ID"
	SessionCookie    = "sid"
	sessionCookieAge = 24 * 60 * 60
)

// Session identifies the browser session a pending payment belongs to:
// X-Session-ID header first, then the sid cookie. A new id is issued as a
// cookie when neither is present.
func Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		sid := strings.TrimSpace(c.GetHeader(SessionHeader))
		if sid == "" {
			if v, err := c.Cookie(SessionCookie); err == nil {
				sid = strings.TrimSpace(v)
			}
		}
		if sid == "" || len(sid) > 128 {
			sid = uuid.NewString()
			http.SetCookie(c.Writer, &http.Cookie{
				Name:     SessionCookie,
				Value:    sid,
				Path:     "/",
				MaxAge:   sessionCookieAge,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		c.Set(sessionIDKey, sid)
		c.Writer.Header().Set(SessionHeader, sid)
		c.Next()
	}
}

// GetSessionID returns the id set by Session.
func GetSessionID(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(sessionIDKey)
}
