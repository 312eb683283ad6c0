package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/gin-gonic/gin"
)

// ErrorCategory defines the type of error for proper handling
type ErrorCategory string

const (
	CategoryInputMissing   ErrorCategory = "input_missing"
	CategorySchemaMismatch ErrorCategory = "schema_mismatch"
	CategoryValidation     ErrorCategory = "validation"
	CategoryIO             ErrorCategory = "io"
	CategoryConfiguration  ErrorCategory = "configuration"
	CategoryNotFound       ErrorCategory = "not_found"
	CategoryUnauthorized   ErrorCategory = "unauthorized"
	CategoryRateLimit      ErrorCategory = "rate_limit"
	CategoryInternal       ErrorCategory = "internal"
)

// AppError wraps an errbuilder error with a category and the HTTP status the
// API boundary should answer with.
type AppError struct {
	*errbuilder.ErrBuilder
	Category   ErrorCategory     `json:"category"`
	HTTPStatus int               `json:"http_status"`
	Timestamp  time.Time         `json:"timestamp"`
	Fields     map[string]string `json:"fields,omitempty"`
	StackTrace string            `json:"stack_trace,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", strings.ToUpper(string(e.Category)), e.ErrBuilder.Msg)
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.ErrBuilder.Unwrap()
}

// MarshalJSON renders the API error body.
func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Category   ErrorCategory     `json:"category"`
		Code       string            `json:"code"`
		Message    string            `json:"message"`
		HTTPStatus int               `json:"http_status"`
		Timestamp  time.Time         `json:"timestamp"`
		Fields     map[string]string `json:"fields,omitempty"`
		StackTrace string            `json:"stack_trace,omitempty"`
	}{
		Category:   e.Category,
		Code:       fmt.Sprintf("%v", e.ErrBuilder.ErrCode()),
		Message:    e.ErrBuilder.Msg,
		HTTPStatus: e.HTTPStatus,
		Timestamp:  e.Timestamp,
		Fields:     e.Fields,
		StackTrace: e.StackTrace,
	})
}

// Detail returns the detail recorded under key, or "" when absent.
func (e *AppError) Detail(key string) string {
	if e == nil {
		return ""
	}
	return e.Fields[key]
}

// NewAppError creates an AppError from errbuilder with additional context
func NewAppError(builder *errbuilder.ErrBuilder, category ErrorCategory, httpStatus int) *AppError {
	return &AppError{
		ErrBuilder: builder,
		Category:   category,
		HTTPStatus: httpStatus,
		Timestamp:  time.Now(),
	}
}

func withDetails(builder *errbuilder.ErrBuilder, details map[string]string) *errbuilder.ErrBuilder {
	if len(details) == 0 {
		return builder
	}
	errorMap := errbuilder.ErrorMap{}
	for key, value := range details {
		errorMap.Set(key, errors.New(value))
	}
	return builder.WithDetails(errbuilder.NewErrDetails(errorMap))
}

// newDetailedError builds an AppError whose details are recorded both on the
// errbuilder payload and in Fields.
func newDetailedError(builder *errbuilder.ErrBuilder, category ErrorCategory, httpStatus int, details map[string]string) *AppError {
	appErr := NewAppError(withDetails(builder, details), category, httpStatus)
	if len(details) > 0 {
		appErr.Fields = details
	}
	return appErr
}

// NewInputMissingError reports a required input (file, column or rows) that is absent.
func NewInputMissingError(what string) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("required input missing: %s", what))
	return newDetailedError(builder, CategoryInputMissing, http.StatusBadRequest, map[string]string{"missing": what})
}

// NewSchemaMismatchError reports a sprint table whose header cannot be mapped.
func NewSchemaMismatchError(message string, headers []string) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(message)
	var details map[string]string
	if len(headers) > 0 {
		details = map[string]string{"headers": strings.Join(headers, ",")}
	}

	return newDetailedError(builder, CategorySchemaMismatch, http.StatusUnprocessableEntity, details)
}

// NewAmbiguousColumnError reports two or more headers competing for one field.
func NewAmbiguousColumnError(field string, candidates []string) *AppError {
	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)

	builder := errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(fmt.Sprintf("column for %q is ambiguous: %s", field, strings.Join(sorted, ", ")))
	return newDetailedError(builder, CategorySchemaMismatch, http.StatusUnprocessableEntity, map[string]string{
		"field":      field,
		"candidates": strings.Join(sorted, ","),
	})
}

// NewValidationError creates a validation error using errbuilder
func NewValidationError(message string, details ...interface{}) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(message)

	var fields map[string]string
	if len(details) > 0 {
		fields = map[string]string{"validation_details": fmt.Sprintf("%v", details[0])}
	}

	return newDetailedError(builder, CategoryValidation, http.StatusBadRequest, fields)
}

// NewCellError reports an unparsable sprint-table cell.
func NewCellError(line int, column, value, reason string) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("line %d, column %q: %s", line, column, reason))
	return newDetailedError(builder, CategoryValidation, http.StatusBadRequest, map[string]string{
		"line":   fmt.Sprintf("%d", line),
		"column": column,
		"value":  value,
	})
}

// NewIOError reports an input that could not be read or decoded.
func NewIOError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(message)

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return NewAppError(builder, CategoryIO, http.StatusBadRequest)
}

// NewConfigurationError creates a configuration error using errbuilder
func NewConfigurationError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(message)
	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return newDetailedError(builder, CategoryConfiguration, http.StatusInternalServerError,
		map[string]string{"config_details": message})
}

// NewNotFoundError reports an unknown resource such as a run id.
func NewNotFoundError(resource, id string) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("%s %q not found", resource, id))
	return newDetailedError(builder, CategoryNotFound, http.StatusNotFound, map[string]string{"resource": resource, "id": id})
}

// NewUnauthorizedError rejects a request without a valid admin token
func NewUnauthorizedError(reason string) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeUnauthenticated).
		WithMsg("Authentication required")
	return newDetailedError(builder, CategoryUnauthorized, http.StatusUnauthorized, map[string]string{"reason": reason})
}

// NewRateLimitError creates a rate limit error using errbuilder
func NewRateLimitError(retryAfter string) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeResourceExhausted).
		WithMsg("Rate limit exceeded")
	return newDetailedError(builder, CategoryRateLimit, http.StatusTooManyRequests, map[string]string{"retry_after": retryAfter})
}

// NewInternalError creates an internal server error using errbuilder
func NewInternalError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("Internal server error")
	if cause != nil {
		builder = builder.WithCause(cause)
	}

	appErr := newDetailedError(builder, CategoryInternal, http.StatusInternalServerError,
		map[string]string{"internal_details": message})

	// Capture stack trace in development/debug mode
	if gin.Mode() == gin.DebugMode || gin.Mode() == gin.TestMode {
		appErr.StackTrace = captureStackTrace()
	}

	return appErr
}

// captureStackTrace captures a stack trace for debugging
func captureStackTrace() string {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

// ToAppError converts any error to an AppError
func ToAppError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	if ebErr, ok := err.(*errbuilder.ErrBuilder); ok {
		return NewAppError(ebErr, CategoryInternal, http.StatusInternalServerError)
	}

	return NewInternalError("An unexpected error occurred", err)
}

// CategoryOf returns the category of err, or "" for nil.
func CategoryOf(err error) ErrorCategory {
	if err == nil {
		return ""
	}
	return ToAppError(err).Category
}

// IsRecoverable reports whether the caller can fix err by supplying different
// input, as opposed to a crash or misconfiguration.
func IsRecoverable(err error) bool {
	switch CategoryOf(err) {
	case CategoryInputMissing, CategorySchemaMismatch, CategoryValidation, CategoryIO:
		return true
	default:
		return false
	}
}

// ErrorHandler is a Gin middleware that provides centralized error handling
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			appErr := ToAppError(c.Errors.Last().Err)
			LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
		}
	}
}

// RecoveryHandler provides panic recovery with structured error responses
func RecoveryHandler() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, err interface{}) {
		appErr := NewInternalError(
			fmt.Sprintf("Panic recovered: %v", err),
			fmt.Errorf("%v", err),
		)
		appErr.StackTrace = captureStackTrace()

		LogError(c, appErr)
		c.AbortWithStatusJSON(appErr.HTTPStatus, appErr)
	})
}

// LogError logs an error with appropriate level and context
func LogError(c *gin.Context, err *AppError) {
	logEntry := slog.With(
		"error_category", err.Category,
		"error_code", err.ErrBuilder.ErrCode(),
		"http_status", err.HTTPStatus,
		"ip", c.ClientIP(),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"request_id", c.GetHeader("X-Request-ID"),
	)

	errorMsg := err.ErrBuilder.Msg
	switch err.Category {
	case CategoryInputMissing, CategorySchemaMismatch, CategoryValidation, CategoryIO,
		CategoryNotFound, CategoryRateLimit:
		if len(err.Fields) > 0 {
			logEntry.Warn(errorMsg, "details", err.Fields)
		} else {
			logEntry.Warn(errorMsg)
		}
	default:
		if cause := err.ErrBuilder.Unwrap(); cause != nil {
			logEntry.Error(errorMsg, "cause", cause)
		} else {
			logEntry.Error(errorMsg)
		}
	}

	if err.StackTrace != "" && (gin.Mode() == gin.DebugMode || gin.Mode() == gin.TestMode) {
		logEntry.Debug("stack_trace", "trace", err.StackTrace)
	}
}

// WrapError wraps an error with additional context
func WrapError(err error, message string, args ...interface{}) error {
	if err == nil {
		return nil
	}

	contextMsg := fmt.Sprintf(message, args...)
	return fmt.Errorf("%s: %w", contextMsg, err)
}

// SafeClose safely closes a resource and logs any errors
func SafeClose(closer interface{ Close() error }, resourceName string) {
	if closer == nil {
		return
	}

	if err := closer.Close(); err != nil {
		slog.Warn("Failed to close resource",
			"resource", resourceName,
			"error", err)
	}
}
