package platformerrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"apex-server/router-api/internal/utils/httpclients"
)

// ErrorType is the stable error category exposed to callers.
type ErrorType string

const (
	ErrorTypeNotFound        ErrorType = "NOT_FOUND"
	ErrorTypeValidation      ErrorType = "VALIDATION"
	ErrorTypeConflict        ErrorType = "CONFLICT"
	ErrorTypeInternal        ErrorType = "INTERNAL"
	ErrorTypeExternal        ErrorType = "EXTERNAL"
	ErrorTypeProviderError   ErrorType = "PROVIDER_ERROR"
	ErrorTypeAllModelsFailed ErrorType = "ALL_MODELS_FAILED"
	ErrorTypeNotImplemented  ErrorType = "NOT_IMPLEMENTED"
)

// Layer names where in the service an error originated.
type Layer string

const (
	LayerDomain         Layer = "domain"
	LayerHandler        Layer = "handler"
	LayerRoute          Layer = "route"
	LayerInfrastructure Layer = "infrastructure"
	LayerCommon         Layer = "common"
)

// PlatformError is the service-wide error value. The UUID identifies the
// raise site (fixed per call site, greppable), not the occurrence.
type PlatformError struct {
	UUID      string
	Type      ErrorType
	Layer     Layer
	Message   string
	Err       error
	Context   map[string]any
	RequestID string
	Timestamp time.Time
}

func (e *PlatformError) Error() string {
	msg := fmt.Sprintf("[%s][%s][%s] %s", e.Layer, e.Type, e.UUID, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PlatformError) Unwrap() error { return e.Err }

// NewError builds a PlatformError without extra context fields. siteUUID
// should be a fixed literal identifying the raise site; an empty value gets
// a random id.
func NewError(ctx context.Context, layer Layer, errType ErrorType, message string, err error, siteUUID string) *PlatformError {
	return NewErrorWithContext(ctx, layer, errType, message, err, siteUUID, nil)
}

// NewErrorWithContext builds a PlatformError carrying structured context
// fields that end up on the log line.
func NewErrorWithContext(ctx context.Context, layer Layer, errType ErrorType, message string, err error, siteUUID string, fields map[string]any) *PlatformError {
	if siteUUID == "" {
		siteUUID = uuid.NewString()
	}

	errCtx := make(map[string]any, len(fields))
	for k, v := range fields {
		errCtx[k] = v
	}

	return &PlatformError{
		UUID:      siteUUID,
		Type:      errType,
		Layer:     layer,
		Message:   message,
		Err:       err,
		Context:   errCtx,
		RequestID: requestIDFrom(ctx),
		Timestamp: time.Now().UTC(),
	}
}

// AsError coerces any error into a PlatformError at the given layer. A
// wrapped PlatformError keeps its type and site UUID; anything else becomes
// INTERNAL.
func AsError(ctx context.Context, layer Layer, err error, message string) *PlatformError {
	if err == nil {
		return nil
	}
	var pe *PlatformError
	if errors.As(err, &pe) {
		return NewError(ctx, layer, pe.Type, message+": "+pe.Message, pe, pe.UUID)
	}
	return NewError(ctx, layer, ErrorTypeInternal, message, err, "")
}

// IsErrorType reports whether err wraps a PlatformError of the given type.
func IsErrorType(err error, errType ErrorType) bool {
	var pe *PlatformError
	return errors.As(err, &pe) && pe.Type == errType
}

// ErrorTypeToHTTPStatus maps error categories onto response status codes.
func ErrorTypeToHTTPStatus(errType ErrorType) int {
	switch errType {
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypeConflict:
		return http.StatusConflict
	case ErrorTypeNotImplemented:
		return http.StatusNotImplemented
	case ErrorTypeExternal, ErrorTypeProviderError, ErrorTypeAllModelsFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// LogError writes err as one structured error line including its context
// fields.
func LogError(logger zerolog.Logger, err *PlatformError) {
	if err == nil {
		return
	}

	event := logger.Error().
		Str("error_uuid", err.UUID).
		Str("error_type", string(err.Type)).
		Str("layer", string(err.Layer)).
		Time("timestamp_utc", err.Timestamp)
	if err.RequestID != "" {
		event = event.Str("request_id", err.RequestID)
	}
	for k, v := range err.Context {
		event = event.Interface(k, v)
	}
	if err.Err != nil {
		event = event.Err(err.Err)
	}
	event.Msg(err.Message)
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(httpclients.RequestID{}).(string)
	return id
}
