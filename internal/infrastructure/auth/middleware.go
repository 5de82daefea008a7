package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

// Context keys set by the middleware for downstream handlers.
const (
	CtxUserID   = "userID"
	CtxUserName = "userName"
)

var ErrInvalidToken = errors.New("auth: invalid token")

// IssueToken mints an HMAC-signed bearer token for the given user. Used by
// local tooling and tests; production deployments bring their own issuer.
func IssueToken(secret []byte, userID, name string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  userID,
		"name": name,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func parseToken(secret []byte, tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Middleware validates the Authorization bearer token on user routes and
// stores the caller identity in the gin context. An empty secret disables
// validation (local development); callers then identify via the X-User-ID
// header.
func Middleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(secret) == 0 {
			if id := c.GetHeader("X-User-ID"); id != "" {
				c.Set(CtxUserID, id)
			}
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := parseToken(secret, tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		sub, _ := claims["sub"].(string)
		if sub == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token missing subject"})
			return
		}
		c.Set(CtxUserID, sub)
		if name, _ := claims["name"].(string); name != "" {
			c.Set(CtxUserName, name)
		}
		c.Next()
	}
}

// Identity resolves the caller for mixed user/service routes. Requests
// carrying X-API-Key are service calls: the key is checked and identity comes
// from X-Assistant-ID. Everything else goes through the bearer-token flow.
func Identity(secret []byte, apiKey string) gin.HandlerFunc {
	users := Middleware(secret)
	return func(c *gin.Context) {
		provided := c.GetHeader("X-API-Key")
		if provided == "" {
			users(c)
			return
		}
		if apiKey != "" && subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
			return
		}
		if id := c.GetHeader("X-Assistant-ID"); id != "" {
			c.Set(CtxUserID, id)
		}
		c.Next()
	}
}

// APIKeyMiddleware guards assistant-service routes with a shared key carried
// in the X-API-Key header. An empty configured key disables the check.
func APIKeyMiddleware(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			c.Next()
			return
		}
		provided := c.GetHeader("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
			return
		}
		c.Next()
	}
}
