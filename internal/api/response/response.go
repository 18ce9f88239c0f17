package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the envelope every endpoint answers with. Code repeats the
// HTTP status so clients that only see the body can still branch on it.
type Response struct {
	Success bool `json:"success"`
	Code    int  `json:"code"`
	Extras  any  `json:"extras"`
}

func NewResponse(success bool, code int, extras any) Response {
	return Response{
		Success: success,
		Code:    code,
		Extras:  extras,
	}
}

func write(c *gin.Context, success bool, code int, extras any) {
	c.JSON(code, NewResponse(success, code, extras))
}

func message(text string) map[string]any {
	return map[string]any{"message": text}
}

// SuccessResponseMessage returns a JSON response with a success message
func SuccessResponseMessage(c *gin.Context, text string) {
	write(c, true, http.StatusOK, message(text))
}

// SuccessResponseList wraps list as {"list": [...]}; nil renders as [].
func SuccessResponseList[T any](c *gin.Context, list []T) {
	if list == nil {
		list = []T{}
	}
	write(c, true, http.StatusOK, map[string]any{"list": list})
}

func SuccessResponse(c *gin.Context, extras any) {
	write(c, true, http.StatusOK, extras)
}

// ErrorResponse writes a failed envelope with code as both the HTTP status
// and the body code. It does not abort the handler chain; see AbortWithError.
func ErrorResponse(c *gin.Context, code int, text string) {
	write(c, false, code, message(text))
}
