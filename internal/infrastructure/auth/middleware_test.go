package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func identityRouter(secret []byte, apiKey string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Identity(secret, apiKey))
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(CtxUserID))
	})
	return r
}

func TestBearerTokenSetsIdentity(t *testing.T) {
	secret := []byte("test-secret")
	token, err := IssueToken(secret, "u1", "User One", time.Minute)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	r := identityRouter(secret, "")
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if w.Body.String() != "u1" {
		t.Errorf("identity = %q, want u1", w.Body.String())
	}
}

func TestMissingBearerTokenRejected(t *testing.T) {
	r := identityRouter([]byte("test-secret"), "")
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestDevModeUsesHeaderIdentity(t *testing.T) {
	r := identityRouter(nil, "")
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-User-ID", "dev-user")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK || w.Body.String() != "dev-user" {
		t.Errorf("status = %d, identity = %q", w.Code, w.Body.String())
	}
}

func TestServiceKeyIdentity(t *testing.T) {
	r := identityRouter([]byte("test-secret"), "svc-key")

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-API-Key", "svc-key")
	req.Header.Set("X-Assistant-ID", "a1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != "a1" {
		t.Errorf("status = %d, identity = %q", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-API-Key", "wrong")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad key status = %d, want 401", w.Code)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	secret := []byte("test-secret")
	token, err := IssueToken(secret, "u1", "", -time.Minute)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	r := identityRouter(secret, "")
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}
