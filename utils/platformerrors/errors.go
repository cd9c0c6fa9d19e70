package platformerrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type requestIDKey struct{}

// WithRequestID stores the request ID so errors created further down carry it.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext extracts the request ID stored by WithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	requestID, _ := ctx.Value(requestIDKey{}).(string)
	return requestID
}

// ErrorType is the coarse category a failure is reported under.
type ErrorType string

const (
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeValidation   ErrorType = "VALIDATION"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeInternal     ErrorType = "INTERNAL"
	ErrorTypeExternal     ErrorType = "EXTERNAL"
	ErrorTypeCancelled    ErrorType = "CANCELLED"
)

var httpStatusByType = map[ErrorType]int{
	ErrorTypeNotFound:     http.StatusNotFound,
	ErrorTypeValidation:   http.StatusBadRequest,
	ErrorTypeUnauthorized: http.StatusUnauthorized,
	ErrorTypeExternal:     http.StatusBadGateway,
	ErrorTypeCancelled:    http.StatusRequestTimeout,
}

// HTTPStatus is the status code an HTTP handler answers with for this type.
// Unknown types are internal errors.
func (t ErrorType) HTTPStatus() int {
	if status, ok := httpStatusByType[t]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Layer names where in the stack the error was raised.
type Layer string

const (
	LayerDomain         Layer = "domain"
	LayerRoute          Layer = "route"
	LayerInfrastructure Layer = "infrastructure"
)

// PlatformError is a typed error carrying a stable call-site UUID.
// Message is safe to show to callers; Err keeps the cause for errors.Is.
type PlatformError struct {
	UUID      string
	Type      ErrorType
	Message   string
	Err       error
	RequestID string
	Layer     Layer
}

func (e *PlatformError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s (%s, %s layer, %s)", e.Message, e.Type, e.Layer, e.UUID)
	}
	return fmt.Sprintf("%s (%s, %s layer, %s): %v", e.Message, e.Type, e.Layer, e.UUID, e.Err)
}

func (e *PlatformError) Unwrap() error {
	return e.Err
}

func (e *PlatformError) GetErrorType() ErrorType {
	return e.Type
}

func (e *PlatformError) GetRequestID() string {
	return e.RequestID
}

func (e *PlatformError) GetUUID() string {
	return e.UUID
}

// NewError builds a PlatformError. callSiteUUID identifies the place that
// raised it; a random one is used when it is empty.
func NewError(ctx context.Context, layer Layer, errorType ErrorType, message string, err error, callSiteUUID string) *PlatformError {
	if callSiteUUID == "" {
		callSiteUUID = uuid.NewString()
	}
	return &PlatformError{
		UUID:      callSiteUUID,
		Type:      errorType,
		Message:   message,
		Err:       err,
		RequestID: RequestIDFromContext(ctx),
		Layer:     layer,
	}
}

// IsErrorType reports whether err wraps a PlatformError of the given type.
func IsErrorType(err error, errorType ErrorType) bool {
	var platformErr *PlatformError
	if errors.As(err, &platformErr) {
		return platformErr.Type == errorType
	}
	return false
}

// Annotate adds the fields of the first PlatformError found in err to a log
// event. Plain errors only get the err field.
func Annotate(event *zerolog.Event, err error) *zerolog.Event {
	var platformErr *PlatformError
	if !errors.As(err, &platformErr) {
		return event.Err(err)
	}

	event = event.
		Str("error_uuid", platformErr.UUID).
		Str("error_type", string(platformErr.Type)).
		Str("layer", string(platformErr.Layer))
	if platformErr.RequestID != "" {
		event = event.Str("request_id", platformErr.RequestID)
	}
	return event.Err(err)
}
