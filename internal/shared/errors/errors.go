package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies portal failures.
type ErrorType string

const (
	ErrorTypeValidation     ErrorType = "VALIDATION_ERROR"
	ErrorTypeInfrastructure ErrorType = "INFRASTRUCTURE_ERROR"
	ErrorTypeAuthentication ErrorType = "AUTHENTICATION_ERROR"
	ErrorTypeRegistration   ErrorType = "REGISTRATION_ERROR"
	ErrorTypeProfileFetch   ErrorType = "PROFILE_FETCH_ERROR"
	ErrorTypePrediction     ErrorType = "PREDICTION_ERROR"
	ErrorTypeHistoryFetch   ErrorType = "HISTORY_FETCH_ERROR"
	ErrorTypeAnalyticsFetch ErrorType = "ANALYTICS_FETCH_ERROR"
	ErrorTypeNotFound       ErrorType = "NOT_FOUND_ERROR"
	ErrorTypeConflict       ErrorType = "CONFLICT_ERROR"
	ErrorTypeInternal       ErrorType = "INTERNAL_ERROR"
)

// Common application errors
var (
	ErrNotFound       = errors.New("resource not found")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNoSession      = errors.New("no session")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUpstream       = errors.New("clinical api unavailable")
	ErrUpstreamReject = errors.New("clinical api rejected the request")
	ErrTimeout        = errors.New("request timed out")
)

// AppError represents a custom application error with context
type AppError struct {
	Type      ErrorType              `json:"type"`
	Message   string                 `json:"message"`
	Code      string                 `json:"code,omitempty"`
	HTTPCode  int                    `json:"-"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Cause     error                  `json:"-"`
	Component string                 `json:"component,omitempty"`
}

// Error returns the user-facing message. The cause is kept for logs via Unwrap.
func (e *AppError) Error() string {
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Verbose renders the message followed by its cause.
func (e *AppError) Verbose() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// NewAppError creates a new application error
func NewAppError(errorType ErrorType, message string, httpCode int) *AppError {
	return &AppError{
		Type:     errorType,
		Message:  message,
		HTTPCode: httpCode,
		Details:  make(map[string]interface{}),
	}
}

// WithCode adds an error code
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// WithCause adds the underlying cause
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithComponent adds the component name
func (e *AppError) WithComponent(component string) *AppError {
	e.Component = component
	return e
}

// WithDetail adds a detail field
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return NewAppError(ErrorTypeValidation, message, http.StatusBadRequest)
}

// NewInfrastructureError creates an infrastructure error
func NewInfrastructureError(message string) *AppError {
	return NewAppError(ErrorTypeInfrastructure, message, http.StatusServiceUnavailable)
}

// NewAuthenticationError reports a failed login. message is shown to the user verbatim.
func NewAuthenticationError(message string) *AppError {
	return NewAppError(ErrorTypeAuthentication, orDefault(message, "Login failed"), http.StatusUnauthorized)
}

// NewRegistrationError reports a rejected registration.
func NewRegistrationError(message string) *AppError {
	return NewAppError(ErrorTypeRegistration, orDefault(message, "Registration failed"), http.StatusBadRequest)
}

// NewProfileFetchError reports a failed /me call. Callers log it and fall back.
func NewProfileFetchError(message string) *AppError {
	return NewAppError(ErrorTypeProfileFetch, orDefault(message, "Failed to fetch user profile"), http.StatusBadGateway)
}

// NewPredictionError reports an upload or classification failure.
func NewPredictionError(detail string) *AppError {
	return NewAppError(ErrorTypePrediction, "Prediction error: "+orDefault(detail, "unknown error"), http.StatusBadGateway)
}

// NewHistoryFetchError reports a failed history or records read.
func NewHistoryFetchError(message string) *AppError {
	return NewAppError(ErrorTypeHistoryFetch, orDefault(message, "Failed to fetch history"), http.StatusBadGateway)
}

// NewAnalyticsFetchError reports a failed analytics read.
func NewAnalyticsFetchError(message string) *AppError {
	return NewAppError(ErrorTypeAnalyticsFetch, orDefault(message, "Failed to fetch analytics"), http.StatusBadGateway)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrorTypeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

// NewConflictError creates a conflict error
func NewConflictError(message string) *AppError {
	return NewAppError(ErrorTypeConflict, message, http.StatusConflict)
}

// NewInternalError creates an internal server error
func NewInternalError(message string) *AppError {
	return NewAppError(ErrorTypeInternal, message, http.StatusInternalServerError)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// ValidationError represents validation errors for multiple fields
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// ValidationErrors represents a collection of validation errors
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// Error implements the error interface
func (ve *ValidationErrors) Error() string {
	if len(ve.Errors) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", ve.Errors[0].Message)
}

// NewValidationErrors creates a new validation errors instance
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{Errors: make([]ValidationError, 0)}
}

// Add adds a validation error
func (ve *ValidationErrors) Add(field, message string, value interface{}) *ValidationErrors {
	ve.Errors = append(ve.Errors, ValidationError{Field: field, Message: message, Value: value})
	return ve
}

// HasErrors returns true if there are validation errors
func (ve *ValidationErrors) HasErrors() bool {
	return len(ve.Errors) > 0
}

// ToAppError converts validation errors to an AppError. The first field message
// becomes the headline so forms can show it directly.
func (ve *ValidationErrors) ToAppError() *AppError {
	if !ve.HasErrors() {
		return nil
	}
	appErr := NewValidationError(ve.Errors[0].Message)
	appErr.Details["validation_errors"] = ve.Errors
	return appErr
}

// WrapError wraps an error with context
func WrapError(err error, message string) *AppError {
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return NewInternalError(message).WithCause(err)
}

// AsAppError finds the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HTTPStatus maps err to a response status.
func HTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok && appErr.HTTPCode != 0 {
		return appErr.HTTPCode
	}
	return http.StatusInternalServerError
}

func isType(err error, t ErrorType) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Type == t
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return isType(err, ErrorTypeNotFound) || errors.Is(err, ErrNotFound)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return isType(err, ErrorTypeValidation) || errors.Is(err, ErrInvalidInput)
}

// IsAuthentication checks if an error is an authentication error
func IsAuthentication(err error) bool {
	return isType(err, ErrorTypeAuthentication) || errors.Is(err, ErrUnauthorized)
}

// IsRegistration checks if an error is a registration error
func IsRegistration(err error) bool { return isType(err, ErrorTypeRegistration) }

// IsProfileFetch checks if an error is a profile fetch error
func IsProfileFetch(err error) bool { return isType(err, ErrorTypeProfileFetch) }

// IsPrediction checks if an error is a prediction error
func IsPrediction(err error) bool { return isType(err, ErrorTypePrediction) }

// IsHistoryFetch checks if an error is a history fetch error
func IsHistoryFetch(err error) bool { return isType(err, ErrorTypeHistoryFetch) }

// IsAnalyticsFetch checks if an error is an analytics fetch error
func IsAnalyticsFetch(err error) bool { return isType(err, ErrorTypeAnalyticsFetch) }

// IsConflict checks if an error is a conflict error
func IsConflict(err error) bool { return isType(err, ErrorTypeConflict) }
