package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imam0321/bistro-boss-server/common/logger"
)

// Error represents an application error
type Error struct {
	Code    int    `json:"-"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same status code, so that
// errors.Is(err, ErrForbidden) matches any forbidden error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// MarshalJSON renders the flat {error, message} body sent to clients.
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(body{Error: true, Message: e.Message})
}

type body struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

// New creates a new Error
func New(code int, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error types. These are comparison targets; use the constructors
// below to build errors carrying a cause.
var (
	ErrBadRequest   = New(http.StatusBadRequest, "Bad request", nil)
	ErrUnauthorized = New(http.StatusUnauthorized, "unauthorized access", nil)
	ErrForbidden    = New(http.StatusForbidden, "forbidden access", nil)
	ErrNotFound     = New(http.StatusNotFound, "Not found", nil)
	ErrUpstream     = New(http.StatusBadGateway, "Upstream service failure", nil)
	ErrInternal     = New(http.StatusInternalServerError, "Something went wrong!", nil)
)

func BadRequest(message string, err error) *Error {
	return New(http.StatusBadRequest, message, err)
}

func Unauthorized(message string, err error) *Error {
	return New(http.StatusUnauthorized, message, err)
}

func Forbidden(message string) *Error {
	return New(http.StatusForbidden, message, nil)
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, message, nil)
}

// Upstream wraps a failure of the storage layer or the payment processor.
func Upstream(message string, err error) *Error {
	return New(http.StatusBadGateway, message, err)
}

// Internal wraps an unexpected failure. The cause is never shown to clients.
func Internal(err error) *Error {
	return New(ErrInternal.Code, ErrInternal.Message, err)
}

// From converts any error into an *Error, treating unknown errors as internal.
func From(err error) *Error {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// Abort records err on the gin context and stops the handler chain.
// ErrorMiddleware renders the response.
func Abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ErrorMiddleware renders the last error attached to the gin context.
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		appErr := From(c.Errors.Last().Err)
		if appErr.Code >= http.StatusInternalServerError {
			logger.Error(c, "request failed", appErr.Err,
				zap.Int("status", appErr.Code),
				zap.String("path", c.FullPath()),
			)
		}

		message := appErr.Message
		if appErr.Code >= http.StatusInternalServerError && appErr.Code != http.StatusBadGateway {
			message = ErrInternal.Message
		}
		c.JSON(appErr.Code, body{Error: true, Message: message})
	}
}

// Recovery catches panics, logs them and answers with a generic failure.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error(c, "panic recovered", fmt.Errorf("%v", recovered))
		c.AbortWithStatusJSON(http.StatusInternalServerError, body{Error: true, Message: ErrInternal.Message})
	})
}
