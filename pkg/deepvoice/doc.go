// Package deepvoice is a Go client for the DeepVoice conversational
// backend: it records a spoken turn from the microphone, uploads it,
// and plays back the synthesized answer, cycling between a topic-setting
// turn and conversation turns until the user ends the session.
//
// # Overview
//
// The package provides:
//   - Audio input device enumeration and selection
//   - Microphone capture with an energy tap for visualization
//   - A session state machine owning the turn lifecycle
//   - The HTTP gateway to the backend (init / voice / stop)
//   - Interruptible playback of answer clips
//   - A websocket state stream for local front ends
//   - Structured logging with Zerolog
//
// # Quick Start
//
//	config := deepvoice.NewClientConfig()
//	audioConfig := deepvoice.NewAudioConfig()
//
//	registry := deepvoice.NewDeviceRegistry()
//	if err := registry.Initialize(); err != nil {
//		log.Fatal(err)
//	}
//	defer registry.Cleanup()
//
//	session := deepvoice.NewSessionController(
//		deepvoice.NewBackendGateway(config),
//		deepvoice.NewCapturePipeline(audioConfig),
//		registry,
//		deepvoice.NewPlayer(audioConfig),
//	)
//	defer session.Cleanup()
//
//	ctx := context.Background()
//	if err := session.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//
//	session.BeginTurn()
//	// ... the user speaks ...
//	session.EndTurn(ctx)
//
//	fmt.Println(session.Transcribed(), "->", session.Answer())
//	session.StopConversation(ctx)
//
// # Session lifecycle
//
// A session moves Idle -> Listening -> Thinking -> Idle on a successful
// turn, or to Error on any failure, from which the next BeginTurn is
// allowed again. At most one turn is in flight: BeginTurn during
// Listening or Thinking is rejected with an INVALID_STATE error. The
// first error-free turn flips the mode from "topic" to "conversation"
// permanently. StopConversation ends the session from any phase and is
// idempotent.
//
// # Configuration
//
// ClientConfig loads from DEEPVOICE_* environment variables (a .env file
// is honored via godotenv):
//
//	DEEPVOICE_BACKEND_URL      backend origin (default http://localhost:5001)
//	DEEPVOICE_AUTH_TOKEN       optional bearer token
//	DEEPVOICE_REQUEST_TIMEOUT  per-call bound in seconds (default 30)
//	DEEPVOICE_AUDIO_DEVICE_ID  input device override
//	DEEPVOICE_UI_LISTEN_ADDR   state stream address (default 127.0.0.1:8310)
//
// # Errors
//
// Every failure is a *VoiceError carrying a code (DEVICE_ERROR,
// TRANSPORT_ERROR, BACKEND_ERROR, PLAYBACK_ERROR, INVALID_STATE,
// TIMEOUT_ERROR, ...) and a message suitable for direct display.
// Transport failures and structured backend rejections are
// distinguishable via IsTransportFailure. Playback errors are reported
// but never move the session phase.
package deepvoice
