package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// RequireJWT verifies an HS256 bearer token and puts its user_id and role
// claims on the context as "userID" and "userRole".
func RequireJWT(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		if len(raw) < 7 || !strings.EqualFold(raw[:7], "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized: missing bearer token"})
			return
		}
		if len(secret) == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized: token verification not configured"})
			return
		}

		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(strings.TrimSpace(raw[7:]), claims, func(t *jwt.Token) (any, error) {
			return secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
		if err != nil {
			msg := "unauthorized: invalid token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				msg = "unauthorized: token expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		if role, ok := claims["role"].(string); ok {
			c.Set("userRole", role)
		}
		if uid, ok := claims["user_id"]; ok && uid != nil {
			c.Set("userID", fmt.Sprint(uid))
		}
		c.Next()
	}
}
