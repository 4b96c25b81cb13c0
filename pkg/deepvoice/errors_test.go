package deepvoice

import (
	"errors"
	"fmt"
	"testing"
)

func TestVoiceErrorCodes(t *testing.T) {
	tests := []struct {
		err  *VoiceError
		code string
	}{
		{NewDeviceError("m"), ErrCodeDevice},
		{NewTransportError("m"), ErrCodeTransport},
		{NewBackendError("m"), ErrCodeBackend},
		{NewPlaybackError("m"), ErrCodePlayback},
		{NewInvalidStateError("m"), ErrCodeInvalidState},
		{NewTimeoutError("m"), ErrCodeTimeout},
		{NewConfigError("m"), ErrCodeConfig},
		{NewAuthError("m"), ErrCodeAuth},
	}

	for _, tt := range tests {
		if tt.err.Code != tt.code {
			t.Errorf("Expected code %s, got %s", tt.code, tt.err.Code)
		}
		if !IsErrorCode(tt.err, tt.code) {
			t.Errorf("IsErrorCode failed for %s", tt.code)
		}
	}

	if IsErrorCode(nil, ErrCodeDevice) {
		t.Error("IsErrorCode must be false for nil error")
	}
}

func TestWrapErrorUnwraps(t *testing.T) {
	inner := fmt.Errorf("socket closed")
	wrapped := WrapError(inner, ErrCodeTransport)

	if wrapped.Code != ErrCodeTransport {
		t.Errorf("Expected %s, got %s", ErrCodeTransport, wrapped.Code)
	}
	if !errors.Is(wrapped, inner) {
		t.Error("Expected wrapped error to match errors.Is")
	}
	if WrapError(nil, ErrCodeTransport) != nil {
		t.Error("Wrapping nil must return nil")
	}
}

func TestVoiceErrorDetails(t *testing.T) {
	err := NewBackendError("rejected").AddDetail("status_code", 422)

	value, ok := err.GetDetail("status_code")
	if !ok || value != 422 {
		t.Errorf("Expected detail 422, got %v (ok=%v)", value, ok)
	}
	if _, ok := err.GetDetail("missing"); ok {
		t.Error("Expected missing detail to report not found")
	}
}

func TestIsTransportFailure(t *testing.T) {
	if !IsTransportFailure(NewTransportError("m")) {
		t.Error("Transport errors are transport failures")
	}
	if !IsTransportFailure(NewTimeoutError("m")) {
		t.Error("Timeouts are transport failures")
	}
	if IsTransportFailure(NewBackendError("m")) {
		t.Error("Backend rejections are not transport failures")
	}
	if IsTransportFailure(nil) {
		t.Error("Nil is not a transport failure")
	}
}
