package errors

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors
	ErrConfiguration       = errors.New("invalid configuration")
	ErrUnsupportedProvider = errors.New("unsupported payment provider")

	// Request errors
	ErrValidationFailed = errors.New("validation failed")
	ErrMalformedPayload = errors.New("malformed payload")

	// Provider errors
	ErrTransport           = errors.New("provider transport failure")
	ErrAuthFailed          = errors.New("provider authentication failed")
	ErrInvalidSignature    = errors.New("invalid webhook signature")
	ErrProviderAPI         = errors.New("provider API error")
	ErrProviderUnavailable = errors.New("payment provider unavailable")
)

// DomainError wraps errors with additional context
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ConfigurationError reports missing or invalid provider credentials/settings.
type ConfigurationError struct {
	Key     string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error for %s: %s", e.Key, e.Message)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// NewConfigurationError creates a new configuration error
func NewConfigurationError(key, message string) *ConfigurationError {
	return &ConfigurationError{Key: key, Message: message}
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidationFailed }

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// TransportError is a connection-level failure talking to a provider.
type TransportError struct {
	Provider string
	Op       string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: transport failure: %v", e.Provider, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// NewTransportError creates a new transport error
func NewTransportError(provider, op string, err error) *TransportError {
	return &TransportError{Provider: provider, Op: op, Err: err}
}

// AuthError reports a failed credential exchange.
type AuthError struct {
	Provider string
	Status   int
	Message  string
}

func (e *AuthError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s authentication failed (status %d): %s", e.Provider, e.Status, e.Message)
	}
	return fmt.Sprintf("%s authentication failed: %s", e.Provider, e.Message)
}

func (e *AuthError) Is(target error) bool { return target == ErrAuthFailed }

// NewAuthError creates a new auth error
func NewAuthError(provider string, status int, message string) *AuthError {
	return &AuthError{Provider: provider, Status: status, Message: message}
}

// SignatureError reports a webhook that failed authenticity verification.
type SignatureError struct {
	Provider string
	Reason   string
	Err      error
}

func (e *SignatureError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s webhook signature rejected: %s: %v", e.Provider, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s webhook signature rejected: %s", e.Provider, e.Reason)
}

func (e *SignatureError) Unwrap() error { return e.Err }

func (e *SignatureError) Is(target error) bool { return target == ErrInvalidSignature }

// NewSignatureError creates a new signature error
func NewSignatureError(provider, reason string, err error) *SignatureError {
	return &SignatureError{Provider: provider, Reason: reason, Err: err}
}

// APIError is a remote API rejection (HTTP status >= 400 or an SDK-level error).
type APIError struct {
	Provider string
	Status   int
	Body     []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.Status, string(e.Body))
}

func (e *APIError) Is(target error) bool { return target == ErrProviderAPI }

// NewAPIError creates a new API error
func NewAPIError(provider string, status int, body []byte) *APIError {
	return &APIError{Provider: provider, Status: status, Body: body}
}

// UnsupportedProviderError is returned by the gateway factory for an unknown selector.
type UnsupportedProviderError struct {
	Provider string
}

func (e *UnsupportedProviderError) Error() string {
	return fmt.Sprintf("unsupported payment provider: %s", e.Provider)
}

func (e *UnsupportedProviderError) Is(target error) bool { return target == ErrUnsupportedProvider }

// MalformedPayloadError reports a webhook body that is not valid JSON.
type MalformedPayloadError struct {
	Err error
}

func (e *MalformedPayloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid webhook payload: %v", e.Err)
	}
	return "invalid webhook payload"
}

func (e *MalformedPayloadError) Unwrap() error { return e.Err }

func (e *MalformedPayloadError) Is(target error) bool { return target == ErrMalformedPayload }
