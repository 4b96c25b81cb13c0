package deepvoice

import "time"

// Result carries either a value or a VoiceError from an operation that
// cannot use a plain error return (config probing, token helpers).
type Result[T any] struct {
	Data    T
	Error   *VoiceError
	Success bool
}

func Ok[T any](data T) Result[T] {
	return Result[T]{Data: data, Success: true}
}

func Err[T any](err *VoiceError) Result[T] {
	return Result[T]{Error: err, Success: false}
}

// SessionPhase enum
type SessionPhase string

const (
	PhaseIdle      SessionPhase = "idle"
	PhaseListening SessionPhase = "listening"
	PhaseThinking  SessionPhase = "thinking"
	PhaseError     SessionPhase = "error"
	PhaseEnded     SessionPhase = "ended"
)

// TurnMode enum. A session starts in TopicMode and flips to
// ConversationMode after the first error-free turn, never back.
type TurnMode string

const (
	TopicMode        TurnMode = "topic"
	ConversationMode TurnMode = "conversation"
)

// DeviceDescriptor describes one audio input device.
type DeviceDescriptor struct {
	ID                int
	Label             string
	MaxInputChannels  int
	DefaultSampleRate float64
	IsDefault         bool
}

// CapturedClip is one finalized recording span: encoded audio bytes plus
// the container label the backend is told about. Immutable once built.
type CapturedClip struct {
	Data       []byte
	MimeType   string
	Samples    int
	SampleRate int
}

// Empty reports whether the clip contains no audio samples.
func (c CapturedClip) Empty() bool {
	return c.Samples == 0
}

// Duration of the recorded audio.
func (c CapturedClip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(c.Samples) / float64(c.SampleRate) * float64(time.Second))
}

// SessionInfo is the backend's answer to the init call.
type SessionInfo struct {
	UserID        string `json:"user_id"`
	GreetingAudio string `json:"audio_path"`
}

// TurnResult is the backend's answer to one uploaded clip.
type TurnResult struct {
	TranscribedText string `json:"transcribed_text"`
	AnswerText      string `json:"answer"`
	AnswerAudio     string `json:"audio_path,omitempty"`
}

// SessionEnd is the backend's answer to the end-of-session call.
type SessionEnd struct {
	FarewellAudio string `json:"audio_path,omitempty"`
}

// SessionSnapshot is a consistent read of everything the UI layer renders.
type SessionSnapshot struct {
	Phase       SessionPhase `json:"phase"`
	Mode        TurnMode     `json:"mode"`
	Status      string       `json:"status"`
	Transcribed string       `json:"transcribed"`
	Answer      string       `json:"answer"`
	LastError   string       `json:"error"`
	Thinking    bool         `json:"thinking"`
	Ended       bool         `json:"ended"`
}

// Handler types
type PhaseHandler func(SessionPhase)
type ErrorHandler func(*VoiceError)
type AmplitudeHandler func(float32)
