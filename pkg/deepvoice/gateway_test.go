package deepvoice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testGateway(baseURL string) *BackendGateway {
	return NewBackendGateway(&ClientConfig{
		BackendURL:     baseURL,
		RequestTimeout: 5.0,
	})
}

func testClip(t *testing.T) CapturedClip {
	t.Helper()
	samples := make([]int16, 160)
	data, vErr := EncodeWAV(samples, 16000)
	if vErr != nil {
		t.Fatalf("EncodeWAV failed: %v", vErr)
	}
	return CapturedClip{Data: data, MimeType: "audio/wav", Samples: len(samples), SampleRate: 16000}
}

func TestInitSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/init" {
			t.Errorf("Unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("Expected X-Request-ID header")
		}
		json.NewEncoder(w).Encode(map[string]string{
			"user_id":    "user-42",
			"audio_path": "/static/greeting.wav",
		})
	}))
	defer server.Close()

	gw := testGateway(server.URL)
	info, vErr := gw.InitSession(context.Background())
	if vErr != nil {
		t.Fatalf("InitSession failed: %v", vErr)
	}
	if info.UserID != "user-42" {
		t.Errorf("Expected user-42, got %s", info.UserID)
	}
	if info.GreetingAudio != "/static/greeting.wav" {
		t.Errorf("Unexpected greeting path: %s", info.GreetingAudio)
	}
}

func TestInitSessionMissingUserID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"audio_path": "/static/greeting.wav"})
	}))
	defer server.Close()

	gw := testGateway(server.URL)
	if _, vErr := gw.InitSession(context.Background()); vErr == nil {
		t.Fatal("Expected error for missing user_id")
	} else if vErr.Code != ErrCodeTransport {
		t.Errorf("Expected %s, got %s", ErrCodeTransport, vErr.Code)
	}
}

func TestSubmitTurn(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/voice" {
			t.Errorf("Unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("Failed to parse multipart form: %v", err)
		}
		if got := r.FormValue("user_id"); got != "user-42" {
			t.Errorf("Expected user_id user-42, got %s", got)
		}
		if got := r.FormValue("mode"); got != "topic" {
			t.Errorf("Expected mode topic, got %s", got)
		}

		file, header, err := r.FormFile("audio")
		if err != nil {
			t.Fatalf("Expected audio file part: %v", err)
		}
		defer file.Close()
		if header.Filename != "input.wav" {
			t.Errorf("Expected filename input.wav, got %s", header.Filename)
		}
		if ct := header.Header.Get("Content-Type"); ct != "audio/wav" {
			t.Errorf("Expected audio/wav part type, got %s", ct)
		}

		json.NewEncoder(w).Encode(map[string]string{
			"transcribed_text": "tell me about space",
			"answer":           "Space is big.",
			"audio_path":       "static/answer.wav",
		})
	}))
	defer server.Close()

	gw := testGateway(server.URL)
	result, vErr := gw.SubmitTurn(context.Background(), "user-42", testClip(t), TopicMode)
	if vErr != nil {
		t.Fatalf("SubmitTurn failed: %v", vErr)
	}
	if result.TranscribedText != "tell me about space" {
		t.Errorf("Unexpected transcription: %s", result.TranscribedText)
	}
	if result.AnswerText != "Space is big." {
		t.Errorf("Unexpected answer: %s", result.AnswerText)
	}
	if result.AnswerAudio != "static/answer.wav" {
		t.Errorf("Unexpected audio path: %s", result.AnswerAudio)
	}
}

func TestSubmitTurnBackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"error": "stt failed"})
	}))
	defer server.Close()

	gw := testGateway(server.URL)
	_, vErr := gw.SubmitTurn(context.Background(), "user-42", testClip(t), ConversationMode)
	if vErr == nil {
		t.Fatal("Expected backend error")
	}
	if vErr.Code != ErrCodeBackend {
		t.Errorf("Expected %s, got %s", ErrCodeBackend, vErr.Code)
	}
	if vErr.Message != "stt failed" {
		t.Errorf("Expected server message verbatim, got %q", vErr.Message)
	}
	if IsTransportFailure(vErr) {
		t.Error("Backend rejection must not look like a transport failure")
	}
}

func TestSubmitTurnNon2xxStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "model unavailable"})
	}))
	defer server.Close()

	gw := testGateway(server.URL)
	_, vErr := gw.SubmitTurn(context.Background(), "user-42", testClip(t), TopicMode)
	if vErr == nil {
		t.Fatal("Expected error for 500 response")
	}
	if vErr.Code != ErrCodeBackend {
		t.Errorf("Expected %s, got %s", ErrCodeBackend, vErr.Code)
	}
	if vErr.Message != "model unavailable" {
		t.Errorf("Expected server message verbatim, got %q", vErr.Message)
	}
}

func TestSubmitTurnTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	gw := testGateway(server.URL)
	_, vErr := gw.SubmitTurn(context.Background(), "user-42", testClip(t), TopicMode)
	if vErr == nil {
		t.Fatal("Expected transport error against a dead server")
	}
	if !IsTransportFailure(vErr) {
		t.Errorf("Expected a transport failure, got code %s", vErr.Code)
	}
}

func TestGatewayTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()

	gw := NewBackendGateway(&ClientConfig{
		BackendURL:     server.URL,
		RequestTimeout: 0.05,
	})
	_, vErr := gw.InitSession(context.Background())
	if vErr == nil {
		t.Fatal("Expected timeout error")
	}
	if vErr.Code != ErrCodeTimeout {
		t.Errorf("Expected %s, got %s", ErrCodeTimeout, vErr.Code)
	}
	if !IsTransportFailure(vErr) {
		t.Error("Timeout must count as a transport failure")
	}
}

func TestEndSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/stop" {
			t.Errorf("Unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("Failed to decode stop payload: %v", err)
		}
		if payload["user_id"] != "user-42" {
			t.Errorf("Expected user_id user-42, got %s", payload["user_id"])
		}
		json.NewEncoder(w).Encode(map[string]string{"audio_path": "/static/farewell.wav"})
	}))
	defer server.Close()

	gw := testGateway(server.URL)
	end, vErr := gw.EndSession(context.Background(), "user-42")
	if vErr != nil {
		t.Fatalf("EndSession failed: %v", vErr)
	}
	if end.FarewellAudio != "/static/farewell.wav" {
		t.Errorf("Unexpected farewell path: %s", end.FarewellAudio)
	}
}

func TestGatewayAuthHeader(t *testing.T) {
	token := "test-token-abc"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer "+token {
			t.Errorf("Expected bearer token, got %q", got)
		}
		json.NewEncoder(w).Encode(map[string]string{"user_id": "user-42"})
	}))
	defer server.Close()

	gw := NewBackendGateway(&ClientConfig{
		BackendURL:     server.URL,
		AuthToken:      &token,
		RequestTimeout: 5.0,
	})
	if _, vErr := gw.InitSession(context.Background()); vErr != nil {
		t.Fatalf("InitSession failed: %v", vErr)
	}
}

func TestResolveAudioURL(t *testing.T) {
	gw := testGateway("http://localhost:5001/")

	tests := []struct {
		ref      string
		expected string
	}{
		{"", ""},
		{"/static/answer.wav", "http://localhost:5001/static/answer.wav"},
		{"static/answer.wav", "http://localhost:5001/static/answer.wav"},
		{"https://cdn.example.com/clip.wav", "https://cdn.example.com/clip.wav"},
	}

	for _, tt := range tests {
		if got := gw.ResolveAudioURL(tt.ref); got != tt.expected {
			t.Errorf("ResolveAudioURL(%q) = %q, expected %q", tt.ref, got, tt.expected)
		}
	}
}

func TestExtractErrorMessage(t *testing.T) {
	if msg := extractErrorMessage([]byte(`{"error": "bad input"}`)); msg != "bad input" {
		t.Errorf("Expected bad input, got %q", msg)
	}
	if msg := extractErrorMessage([]byte("not json")); msg != "" {
		t.Errorf("Expected empty message for unparseable body, got %q", msg)
	}
	if msg := extractErrorMessage([]byte(`{"other": "field"}`)); msg != "" {
		t.Errorf("Expected empty message when error field absent, got %q", msg)
	}
}

func TestGatewayTrimsTrailingSlash(t *testing.T) {
	gw := testGateway("http://localhost:5001///")
	if !strings.HasPrefix(gw.ResolveAudioURL("a.wav"), "http://localhost:5001/a.wav") {
		t.Errorf("Expected trailing slashes trimmed, got %q", gw.ResolveAudioURL("a.wav"))
	}
}
