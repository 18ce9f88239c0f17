package response

import (
	"log/slog"
	"net/http"

	"ctchen222/Bookshelf/internal/apperr"
	"ctchen222/Bookshelf/internal/validator"

	"github.com/gin-gonic/gin"
)

// StatusOf maps an error kind to its HTTP status. Conflicts are reported as
// 400 like other rejected input.
func StatusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindConflict:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindUnauthorized, apperr.KindInvalidToken:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err as an error response. Internal errors are logged with
// their cause and reported with a generic message.
func Error(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := StatusOf(kind)

	switch kind {
	case apperr.KindInternal:
		slog.ErrorContext(c.Request.Context(), "Request failed",
			"method", c.Request.Method, "path", c.FullPath(), "error", err)
	case apperr.KindUnauthorized, apperr.KindInvalidToken:
		c.Header("WWW-Authenticate", "Bearer")
	}

	ErrorResponse(c, status, apperr.MessageOf(err))
}

// AbortWithError writes err like Error and stops the handler chain.
func AbortWithError(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}

// BindError reports a request that failed to bind or validate.
func BindError(c *gin.Context, err error) {
	ErrorResponse(c, http.StatusBadRequest, validator.Describe(err))
}
