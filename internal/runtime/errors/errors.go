package errors

import (
	"fmt"

	sterrors "errors"
)

var (
	ErrRequestRequired       = sterrors.New("cirrus: request is required")
	ErrResponseRequired      = sterrors.New("cirrus: response is required")
	ErrMetadataRequired      = sterrors.New("cirrus: metadata is required")
	ErrMetadataNotStringMap  = sterrors.New("cirrus: metadata must be a string-to-string map")
	ErrEndpointRequired      = sterrors.New("cirrus: endpoint is required")
	ErrQueueNameRequired     = sterrors.New("cirrus: queue name is required")
	ErrContainerNameRequired = sterrors.New("cirrus: container name is required")
	ErrObjectNameRequired    = sterrors.New("cirrus: object name is required")
	ErrConfigRequired        = sterrors.New("cirrus: configuration is required")
	ErrLoggerRequired        = sterrors.New("cirrus: logger is required")
	ErrMessageBodyRequired   = sterrors.New("cirrus: message body is required")
	ErrMessageIDRequired     = sterrors.New("cirrus: message id is required")
)

// ConfigValidationError wraps the validation failures reported by
// Config.Validate so callers can detect them with errors.As.
type ConfigValidationError struct {
	Err error
}

func (e ConfigValidationError) Error() string {
	return fmt.Sprintf("cirrus: invalid configuration: %v", e.Err)
}

func (e ConfigValidationError) Unwrap() error { return e.Err }

// NewConfigValidationError wraps err, returning nil when err is nil.
func NewConfigValidationError(err error) error {
	if err == nil {
		return nil
	}
	return ConfigValidationError{Err: err}
}

// MalformedResponseError reports a response body that could not be decoded
// into the shape the service documents. The decode failure is preserved for
// errors.Is/As inspection; no recovery is attempted.
type MalformedResponseError struct {
	Err error
}

func (e MalformedResponseError) Error() string {
	return fmt.Sprintf("cirrus: malformed response: %v", e.Err)
}

func (e MalformedResponseError) Unwrap() error { return e.Err }
