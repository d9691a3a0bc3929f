package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"eshop/internal/logger"
	"eshop/internal/models"
	"eshop/internal/services/auth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fakeAuthenticator map[string]*auth.Claims

func (f fakeAuthenticator) Authenticate(_ context.Context, token string) (*auth.Claims, error) {
	if token == "revoked" {
		return nil, auth.ErrTokenRevoked
	}
	claims, ok := f[token]
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	return claims, nil
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Recovery(logger.NewNop()))
	handlers = append(handlers, func(c *gin.Context) {
		userID := ""
		if claims := Claims(c); claims != nil {
			userID = claims.UserID
		}
		c.String(http.StatusOK, userID)
	})
	router.GET("/", handlers...)
	return router
}

func get(router *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuth(t *testing.T) {
	authenticator := fakeAuthenticator{
		"admin": {UserID: "a1", Role: models.RoleAdmin},
		"user":  {UserID: "u1", Role: models.RoleUser},
	}
	router := newRouter(RequireAuth(authenticator, models.RoleAdmin))

	assert.Equal(t, http.StatusUnauthorized, get(router, "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(router, "nope").Code)

	rec := get(router, "revoked")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Token revoked"}`, rec.Body.String())

	assert.Equal(t, http.StatusForbidden, get(router, "user").Code)

	rec = get(router, "admin")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a1", rec.Body.String())
}

func TestOptionalAuth(t *testing.T) {
	router := newRouter(OptionalAuth(fakeAuthenticator{"user": {UserID: "u1", Role: models.RoleUser}}))

	assert.Equal(t, "", get(router, "").Body.String())
	assert.Equal(t, "", get(router, "nope").Body.String())
	assert.Equal(t, "u1", get(router, "user").Body.String())
}

func TestBearerToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	for header, want := range map[string]string{
		"Bearer abc":  "abc",
		"bearer  abc": "abc",
		"Basic abc":   "",
		"Bearer":      "",
	} {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Request.Header.Set("Authorization", header)
		assert.Equal(t, want, BearerToken(c), header)
	}
}

func TestRecovery(t *testing.T) {
	router := newRouter(func(c *gin.Context) {
		panic(errors.New("boom"))
	})

	rec := get(router, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
}
