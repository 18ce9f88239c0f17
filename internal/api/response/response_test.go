package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"ctchen222/Bookshelf/internal/apperr"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/books", nil)
	return c, w
}

type envelope struct {
	Success bool           `json:"success"`
	Code    int            `json:"code"`
	Extras  map[string]any `json:"extras"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var body envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestError_MapsKinds(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
		wantAuth    bool
	}{
		{name: "validation", err: apperr.Validation("title must not be blank"), wantStatus: http.StatusBadRequest, wantMessage: "title must not be blank"},
		{name: "conflict", err: apperr.Conflict("Username already registered"), wantStatus: http.StatusBadRequest, wantMessage: "Username already registered"},
		{name: "not found", err: apperr.NotFound("Book not found"), wantStatus: http.StatusNotFound, wantMessage: "Book not found"},
		{name: "unauthorized", err: apperr.Unauthorized("Could not validate credentials"), wantStatus: http.StatusUnauthorized, wantMessage: "Could not validate credentials", wantAuth: true},
		{name: "invalid token", err: apperr.InvalidToken("Could not validate refresh token", nil), wantStatus: http.StatusUnauthorized, wantMessage: "Could not validate refresh token", wantAuth: true},
		{name: "internal", err: apperr.Internal("failed to list books", errors.New("database is locked")), wantStatus: http.StatusInternalServerError, wantMessage: "Server error"},
		{name: "plain error", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantMessage: "Server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newContext()
			Error(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			body := decode(t, w)
			assert.False(t, body.Success)
			assert.Equal(t, tt.wantStatus, body.Code)
			assert.Equal(t, tt.wantMessage, body.Extras["message"])
			if tt.wantAuth {
				assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
			} else {
				assert.Empty(t, w.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestSuccessResponseList_NilIsEmptyArray(t *testing.T) {
	c, w := newContext()
	var items []string
	SuccessResponseList(c, items)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"code":200,"extras":{"list":[]}}`, w.Body.String())
}

func TestEnvelopes(t *testing.T) {
	tests := []struct {
		name     string
		write    func(c *gin.Context)
		wantCode int
		wantBody string
	}{
		{
			name:     "message",
			write:    func(c *gin.Context) { SuccessResponseMessage(c, "Book deleted successfully") },
			wantCode: http.StatusOK,
			wantBody: `{"success":true,"code":200,"extras":{"message":"Book deleted successfully"}}`,
		},
		{
			name:     "extras",
			write:    func(c *gin.Context) { SuccessResponse(c, map[string]int{"total_books": 3}) },
			wantCode: http.StatusOK,
			wantBody: `{"success":true,"code":200,"extras":{"total_books":3}}`,
		},
		{
			name:     "error",
			write:    func(c *gin.Context) { ErrorResponse(c, http.StatusNotFound, "Book not found") },
			wantCode: http.StatusNotFound,
			wantBody: `{"success":false,"code":404,"extras":{"message":"Book not found"}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newContext()
			tt.write(c)
			assert.Equal(t, tt.wantCode, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestAbortWithError(t *testing.T) {
	c, w := newContext()
	AbortWithError(c, apperr.Unauthorized("Could not validate credentials"))

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
