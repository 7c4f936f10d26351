package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeBadRequest         = "bad_request"
	ErrCodeUnauthorized       = "unauthorized"
	ErrCodeInternal           = "internal"
	ErrCodeUnknownType        = "invalid_message"
	ErrCodeUnsupportedVersion = "unsupported_version"
)

var (
	ErrEmptyReply     = errors.New("reply text is required")
	ErrMissingSession = errors.New("session_id is required")
	ErrHubStopped     = errors.New("hub stopped")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
