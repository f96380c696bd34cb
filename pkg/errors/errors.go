package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents network-related errors
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeParsing represents price and HTML parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeValidation represents invalid entity values
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeNotFound represents id lookups that miss
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeStorage represents database errors
	ErrorTypeStorage ErrorType = "storage"
	// ErrorTypeCache represents cache-related errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// Sentinel causes, matched with errors.Is through AppError.Unwrap.
var (
	ErrEmptyPrice     = stderrors.New("empty price")
	ErrInvalidNumeric = stderrors.New("invalid numeric price")
	ErrValidation     = stderrors.New("validation failed")
	ErrTransient      = stderrors.New("transient fetch failure")
	ErrFetchExhausted = stderrors.New("fetch retries exhausted")
	ErrInvalidRequest = stderrors.New("invalid request")
	ErrNotFound       = stderrors.New("not found")
)

// AppError represents an error raised by one of the application components
type AppError struct {
	Type      ErrorType
	Component string
	Message   string
	Err       error
	Time      time.Time
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Component == "" {
		if e.Err != nil {
			return fmt.Sprintf("[%s] %s - %v", e.Type, e.Message, e.Err)
		}
		return fmt.Sprintf("[%s] %s", e.Type, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Component, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Component, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is retryable
func (e *AppError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork:
		return stderrors.Is(e.Err, ErrTransient)
	default:
		return false
	}
}

// New creates a new AppError
func New(errType ErrorType, component, message string, err error) *AppError {
	return &AppError{
		Type:      errType,
		Component: component,
		Message:   message,
		Err:       err,
		Time:      time.Now(),
	}
}

// NewParsing creates a new parsing error around one of the price sentinels
func NewParsing(component, message string, cause error) *AppError {
	return New(ErrorTypeParsing, component, message, cause)
}

// NewValidation creates a new validation error
func NewValidation(component, message string) *AppError {
	return New(ErrorTypeValidation, component, message, ErrValidation)
}

// NewTransient creates a retryable network error
func NewTransient(component, message string, err error) *AppError {
	if err == nil {
		return New(ErrorTypeNetwork, component, message, ErrTransient)
	}
	return New(ErrorTypeNetwork, component, message, fmt.Errorf("%w: %w", ErrTransient, err))
}

// NewExhausted creates the error returned once the retry budget is spent
func NewExhausted(component string, attempts int, last error) *AppError {
	message := fmt.Sprintf("gave up after %d attempts", attempts)
	if last == nil {
		return New(ErrorTypeNetwork, component, message, ErrFetchExhausted)
	}
	return New(ErrorTypeNetwork, component, message, fmt.Errorf("%w: %w", ErrFetchExhausted, last))
}

// NewInvalidRequest creates a non-retryable request error
func NewInvalidRequest(component, message string, err error) *AppError {
	if err == nil {
		return New(ErrorTypeNetwork, component, message, ErrInvalidRequest)
	}
	return New(ErrorTypeNetwork, component, message, fmt.Errorf("%w: %w", ErrInvalidRequest, err))
}

// NewNotFound creates a new not found error
func NewNotFound(component string, id int64) *AppError {
	return New(ErrorTypeNotFound, component, fmt.Sprintf("id %d", id), ErrNotFound)
}

// NewStorage creates a new storage error
func NewStorage(component, message string, err error) *AppError {
	return New(ErrorTypeStorage, component, message, err)
}

// NewCache creates a new cache error
func NewCache(component, message string, err error) *AppError {
	return New(ErrorTypeCache, component, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(component, message string, err error) *AppError {
	return New(ErrorTypePublisher, component, message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *AppError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// IsNotFound reports whether err is a missed id lookup
func IsNotFound(err error) bool {
	return stderrors.Is(err, ErrNotFound)
}
