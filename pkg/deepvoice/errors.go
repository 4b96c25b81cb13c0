package deepvoice

import "time"

// Error codes as constants
const (
	ErrCodeDevice       = "DEVICE_ERROR"
	ErrCodeTransport    = "TRANSPORT_ERROR"
	ErrCodeBackend      = "BACKEND_ERROR"
	ErrCodePlayback     = "PLAYBACK_ERROR"
	ErrCodeInvalidState = "INVALID_STATE"
	ErrCodeTimeout      = "TIMEOUT_ERROR"
	ErrCodeConfig       = "CONFIG_INVALID"
	ErrCodeJSONParse    = "JSON_PARSE_ERROR"
	ErrCodeAuth         = "AUTH_FAILED"
	ErrCodeUnknown      = "UNKNOWN_ERROR"
)

// VoiceError is the single error vocabulary of the SDK. Every failure a
// caller can observe carries a code from the constants above plus a
// human-readable message suitable for direct display.
type VoiceError struct {
	Message   string
	Code      string
	Timestamp float64
	err       error
	Details   map[string]interface{}
}

func (e *VoiceError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return e.Message
}

func (e *VoiceError) Unwrap() error {
	return e.err
}

func NewVoiceError(message, code string) *VoiceError {
	return &VoiceError{
		Message:   message,
		Code:      code,
		Timestamp: float64(time.Now().UnixMilli()),
	}
}

// Specific error creators with common codes
func NewDeviceError(message string) *VoiceError {
	return NewVoiceError(message, ErrCodeDevice)
}

func NewTransportError(message string) *VoiceError {
	return NewVoiceError(message, ErrCodeTransport)
}

func NewBackendError(message string) *VoiceError {
	return NewVoiceError(message, ErrCodeBackend)
}

func NewPlaybackError(message string) *VoiceError {
	return NewVoiceError(message, ErrCodePlayback)
}

func NewInvalidStateError(message string) *VoiceError {
	return NewVoiceError(message, ErrCodeInvalidState)
}

func NewTimeoutError(message string) *VoiceError {
	return NewVoiceError(message, ErrCodeTimeout)
}

func NewConfigError(message string) *VoiceError {
	return NewVoiceError(message, ErrCodeConfig)
}

func NewJSONError(message string) *VoiceError {
	return NewVoiceError(message, ErrCodeJSONParse)
}

func NewAuthError(message string) *VoiceError {
	return NewVoiceError(message, ErrCodeAuth)
}

func NewUnknownError(message string) *VoiceError {
	return NewVoiceError(message, ErrCodeUnknown)
}

// WrapError wraps any error as a VoiceError with the given code.
func WrapError(err error, code string) *VoiceError {
	if err == nil {
		return nil
	}
	vErr := NewVoiceError(err.Error(), code)
	vErr.err = err
	return vErr
}

// IsErrorCode reports whether err carries the given code.
func IsErrorCode(err *VoiceError, code string) bool {
	if err == nil {
		return false
	}
	return err.Code == code
}

// AddDetail attaches a key/value pair to the error and returns it for chaining.
func (e *VoiceError) AddDetail(key string, value interface{}) *VoiceError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func (e *VoiceError) GetDetail(key string) (interface{}, bool) {
	if e.Details == nil {
		return nil, false
	}
	value, exists := e.Details[key]
	return value, exists
}

// IsTransportFailure distinguishes network-level failures (including
// timeouts) from structured backend rejections. The session controller
// surfaces both, but callers deciding whether a retry could help need
// the distinction.
func IsTransportFailure(err *VoiceError) bool {
	if err == nil {
		return false
	}
	return err.Code == ErrCodeTransport || err.Code == ErrCodeTimeout
}
