package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"ctchen222/Bookshelf/internal/api/models"
	"ctchen222/Bookshelf/internal/apperr"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubResolver map[string]*models.User

func (s stubResolver) Resolve(_ context.Context, token string) (*models.User, error) {
	if token == "broken-store" {
		return nil, apperr.Internal("failed to get user by username", nil)
	}
	user, ok := s[token]
	if !ok {
		return nil, apperr.Unauthorized("Could not validate credentials")
	}
	return user, nil
}

func newAuthRouter(handlerCalled *bool) *gin.Engine {
	r := gin.New()
	resolver := stubResolver{"good": {ID: "u1", Username: "alice"}}
	r.GET("/me", RequireAuth(resolver), func(c *gin.Context) {
		*handlerCalled = true
		c.String(http.StatusOK, CurrentUser(c).ID)
	})
	return r
}

func TestRequireAuth(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCalled bool
		wantAuth   string
	}{
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized, wantAuth: "Bearer"},
		{name: "wrong scheme", header: "Basic good", wantStatus: http.StatusUnauthorized, wantAuth: "Bearer"},
		{name: "empty token", header: "Bearer ", wantStatus: http.StatusUnauthorized, wantAuth: "Bearer"},
		{name: "invalid token", header: "Bearer forged", wantStatus: http.StatusUnauthorized, wantAuth: "Bearer"},
		{name: "store failure", header: "Bearer broken-store", wantStatus: http.StatusInternalServerError},
		{name: "valid token", header: "Bearer good", wantStatus: http.StatusOK, wantCalled: true},
		{name: "lowercase scheme", header: "bearer good", wantStatus: http.StatusOK, wantCalled: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			r := newAuthRouter(&called)

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCalled, called)
			assert.Equal(t, tt.wantAuth, w.Header().Get("WWW-Authenticate"))
			if tt.wantCalled {
				assert.Equal(t, "u1", w.Body.String())
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Logger())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost"}))
	r.GET("/books", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/books", nil)
	req.Header.Set("Origin", "http://localhost")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/books", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/books", nil)
	req.Header.Set("Origin", "http://localhost")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
