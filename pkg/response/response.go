package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Business codes carried in Response.Code. 0 is success.
const (
	CodeOK = 0

	// 100xx request level
	CodeValidation   = 10001
	CodeUnauthorized = 10002
	CodeForbidden    = 10003
	CodeRateLimited  = 10004
	CodeBodyTooLarge = 10005

	// 130xx departments
	CodeDepartmentNotFound = 13001

	// 140xx phases
	CodePhaseNotFound    = 14001
	CodePhaseTitleExists = 14002
	CodePhaseWindow      = 14003
	CodePhaseTimeFormat  = 14004
	CodeNoTransition     = 14005
	CodePhaseBusy        = 14006

	// 150xx processes
	CodeProcessNotFound = 15001
	CodePhaseRollback   = 15002
	CodeProcessConflict = 15003

	// 160xx reviews
	CodeReviewNotFound  = 16001
	CodeReviewForbidden = 16002

	// 170xx exports
	CodeExportEmpty  = 17001
	CodeExportFailed = 17002

	CodeInternal = 50000
)

// Response is the unified response envelope. Error envelopes echo the
// request id so a caller can quote it when reporting a failure.
type Response struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// ── success ──

// OK 200
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeOK,
		Message: "success",
		Data:    data,
	})
}

// ── errors ──

// Error writes an error envelope.
func Error(c *gin.Context, httpStatus int, code int, message string) {
	c.JSON(httpStatus, Response{
		Code:      code,
		Message:   message,
		RequestID: c.GetString("request_id"),
	})
}

// BadRequest 400
func BadRequest(c *gin.Context, code int, message string) {
	Error(c, http.StatusBadRequest, code, message)
}

// Unauthorized 401
func Unauthorized(c *gin.Context, code int, message string) {
	Error(c, http.StatusUnauthorized, code, message)
}

// Forbidden 403
func Forbidden(c *gin.Context, code int, message string) {
	Error(c, http.StatusForbidden, code, message)
}

// NotFound 404
func NotFound(c *gin.Context, code int, message string) {
	Error(c, http.StatusNotFound, code, message)
}

// Conflict 409
func Conflict(c *gin.Context, code int, message string) {
	Error(c, http.StatusConflict, code, message)
}

// InternalError 500
func InternalError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, CodeInternal, "internal server error")
}
