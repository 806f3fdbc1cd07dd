package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/order-engine/internal/api/handler"
)

func sign(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func ownerOf(t *testing.T, setup func(r *http.Request)) (string, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	var owner, actor string
	r.GET("/", Auth("s3cret", "order-engine"), CartOwner(), func(c *gin.Context) {
		owner = c.GetString(handler.CtxCartOwner)
		actor = c.GetString(handler.CtxActor)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	setup(req)
	r.ServeHTTP(httptest.NewRecorder(), req)
	return owner, actor
}

func TestCartOwnerPrecedence(t *testing.T) {
	valid := sign(t, "s3cret", Claims{Role: "customer", RegisteredClaims: jwt.RegisteredClaims{
		Subject: "42", Issuer: "order-engine", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}})

	owner, actor := ownerOf(t, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+valid)
		r.Header.Set(HeaderCartSession, "hdr")
	})
	assert.Equal(t, "user:42", owner)
	assert.Equal(t, "42", actor)

	owner, _ = ownerOf(t, func(r *http.Request) {
		r.Header.Set(HeaderCartSession, "hdr")
		r.AddCookie(&http.Cookie{Name: CookieCartSession, Value: "cookie"})
	})
	assert.Equal(t, "session:hdr", owner)

	owner, _ = ownerOf(t, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: CookieCartSession, Value: "cookie"})
	})
	assert.Equal(t, "session:cookie", owner)

	owner, _ = ownerOf(t, func(*http.Request) {})
	assert.Empty(t, owner)
}

func TestAuthRejectsBadTokens(t *testing.T) {
	expired := sign(t, "s3cret", Claims{Role: RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{
		Subject: "a", Issuer: "order-engine", ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}})
	wrongIssuer := sign(t, "s3cret", Claims{Role: RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{
		Subject: "a", Issuer: "someone-else",
	}})
	wrongKey := sign(t, "other", Claims{Role: RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{
		Subject: "a", Issuer: "order-engine",
	}})

	for name, tok := range map[string]string{"expired": expired, "issuer": wrongIssuer, "key": wrongKey} {
		t.Run(name, func(t *testing.T) {
			_, err := parseToken(tok, "s3cret", "order-engine")
			assert.Error(t, err)
		})
	}

	_, err := parseToken("x", "", "")
	assert.Error(t, err)
}

func TestRequireAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", Auth("s3cret", ""), RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusOK) })

	call := func(auth string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}
	assert.Equal(t, http.StatusUnauthorized, call(""))
	assert.Equal(t, http.StatusUnauthorized, call("Bearer garbage"))
	assert.Equal(t, http.StatusForbidden, call("Bearer "+sign(t, "s3cret", Claims{Role: "customer"})))
	assert.Equal(t, http.StatusOK, call("bearer "+sign(t, "s3cret", Claims{Role: RoleAdmin})))
}

func TestIPRateLimiter(t *testing.T) {
	l := NewIPRateLimiter(0.0001, 2)
	assert.True(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("1.1.1.1"))
	assert.False(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("2.2.2.2"), "limits are per client")
}

func TestRecoveryReturnsGenericError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.GET("/", func(*gin.Context) { panic("db exploded") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "exploded")
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
}
