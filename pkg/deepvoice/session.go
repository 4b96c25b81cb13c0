package deepvoice

import (
	"context"
	"sync"
)

// Gateway is the network boundary the session controller talks to.
// BackendGateway is the HTTP implementation; tests substitute their own.
type Gateway interface {
	InitSession(ctx context.Context) (*SessionInfo, *VoiceError)
	SubmitTurn(ctx context.Context, userID string, clip CapturedClip, mode TurnMode) (*TurnResult, *VoiceError)
	EndSession(ctx context.Context, userID string) (*SessionEnd, *VoiceError)
	ResolveAudioURL(ref string) string
}

// Recorder opens microphone streams. CapturePipeline is the
// portaudio-backed implementation.
type Recorder interface {
	Open(deviceID int) (RecordingHandle, *VoiceError)
}

// DeviceSelector supplies the device a new turn records from.
// DeviceRegistry satisfies it.
type DeviceSelector interface {
	CurrentSelection() (DeviceDescriptor, *VoiceError)
}

// SessionController owns the turn lifecycle. It is the only component
// that mutates session state: one turn in flight at most, turnMode
// flipping Topic to Conversation exactly once, and every held device
// stream released on every exit path.
type SessionController struct {
	gateway  Gateway
	recorder Recorder
	devices  DeviceSelector
	player   AudioSink
	logger   *VoiceLogger

	mu          sync.Mutex
	userID      string
	phase       SessionPhase
	mode        TurnMode
	ended       bool
	handle      RecordingHandle
	status      string
	transcribed string
	answer      string
	lastError   string

	phaseHandlers []PhaseHandler
	errorHandlers []ErrorHandler
}

func NewSessionController(gateway Gateway, recorder Recorder, devices DeviceSelector, player AudioSink) *SessionController {
	return &SessionController{
		gateway:  gateway,
		recorder: recorder,
		devices:  devices,
		player:   player,
		phase:    PhaseIdle,
		mode:     TopicMode,
		status:   "Loading...",
		logger:   GetGlobalLogger().WithComponent("SessionController"),
	}
}

// Start issues the init call, adopts the backend-assigned session
// identity, and plays the greeting clip. The session is unusable until
// Start succeeds.
func (s *SessionController) Start(ctx context.Context) *VoiceError {
	info, vErr := s.gateway.InitSession(ctx)
	if vErr != nil {
		s.mu.Lock()
		s.lastError = vErr.Message
		s.status = "Init failed."
		s.setPhaseLocked(PhaseError)
		s.mu.Unlock()
		s.notifyError(vErr)
		return vErr
	}

	s.mu.Lock()
	s.userID = info.UserID
	s.status = "Please listen, then choose your mic and speak your topic."
	s.setPhaseLocked(PhaseIdle)
	greeting := info.GreetingAudio
	s.mu.Unlock()

	s.logger.WithField("user_id", info.UserID).Info("Session started")
	s.playRef(greeting)
	return nil
}

// BeginTurn opens the capture pipeline on the selected device and starts
// recording. Rejected while another turn is active or after the session
// has ended; the rejection is an error, never a queue.
func (s *SessionController) BeginTurn() *VoiceError {
	s.mu.Lock()

	if s.ended {
		s.mu.Unlock()
		return NewInvalidStateError("session has ended")
	}
	if s.userID == "" {
		s.mu.Unlock()
		return NewInvalidStateError("session not initialized")
	}
	if s.phase == PhaseListening || s.phase == PhaseThinking {
		s.mu.Unlock()
		return NewInvalidStateError("a turn is already active").AddDetail("phase", s.phase)
	}

	device, vErr := s.devices.CurrentSelection()
	if vErr != nil {
		s.failLocked(vErr)
		s.mu.Unlock()
		s.notifyError(vErr)
		return vErr
	}

	handle, vErr := s.recorder.Open(device.ID)
	if vErr != nil {
		s.failLocked(vErr)
		s.mu.Unlock()
		s.notifyError(vErr)
		return vErr
	}

	if vErr := handle.BeginRecording(); vErr != nil {
		handle.Close()
		s.failLocked(vErr)
		s.mu.Unlock()
		s.notifyError(vErr)
		return vErr
	}

	s.handle = handle
	s.transcribed = ""
	s.answer = ""
	s.lastError = ""
	s.status = "Listening... speak now."
	s.setPhaseLocked(PhaseListening)
	s.mu.Unlock()
	return nil
}

// EndTurn stops recording and submits the clip. An empty clip is a valid
// stop but is not uploaded: the session returns to Idle with a no-speech
// status. Otherwise the machine sits in Thinking until the backend
// answers or the bounded wait expires.
func (s *SessionController) EndTurn(ctx context.Context) *VoiceError {
	s.mu.Lock()

	if s.phase != PhaseListening || s.handle == nil {
		s.mu.Unlock()
		return NewInvalidStateError("no recording in progress").AddDetail("phase", s.phase)
	}

	handle := s.handle
	s.handle = nil
	clip, vErr := handle.EndRecording()
	if vErr != nil {
		handle.Close()
		s.failLocked(vErr)
		s.mu.Unlock()
		s.notifyError(vErr)
		return vErr
	}

	if clip.Empty() {
		s.status = "No speech detected. Try again."
		s.setPhaseLocked(PhaseIdle)
		s.mu.Unlock()
		return nil
	}

	userID := s.userID
	mode := s.mode
	s.status = "Thinking..."
	s.setPhaseLocked(PhaseThinking)
	s.mu.Unlock()

	result, vErr := s.gateway.SubmitTurn(ctx, userID, clip, mode)

	s.mu.Lock()
	if vErr != nil {
		// The turn is applied all or nothing: transcript, answer, and
		// mode stay exactly as they were before the upload.
		s.failLocked(vErr)
		s.mu.Unlock()
		s.notifyError(vErr)
		return vErr
	}

	s.transcribed = result.TranscribedText
	s.answer = result.AnswerText
	if s.mode == TopicMode {
		s.mode = ConversationMode
	}
	s.status = "Got system response."
	s.setPhaseLocked(PhaseIdle)
	answerRef := result.AnswerAudio
	s.mu.Unlock()

	s.playRef(answerRef)
	return nil
}

// StopConversation ends the session from any phase: any held device
// stream is released first, then the end-of-session call is issued.
// Calling it again is a safe local no-op; the backend is told once.
func (s *SessionController) StopConversation(ctx context.Context) *VoiceError {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return nil
	}
	s.ended = true

	if s.handle != nil {
		s.handle.Close()
		s.handle = nil
	}

	userID := s.userID
	s.status = "Ending conversation..."
	s.setPhaseLocked(PhaseEnded)
	s.mu.Unlock()

	if userID == "" {
		s.setStatus("Conversation ended.")
		return nil
	}

	end, vErr := s.gateway.EndSession(ctx, userID)

	s.mu.Lock()
	s.status = "Conversation ended."
	if vErr != nil {
		s.lastError = vErr.Message
	}
	s.mu.Unlock()

	if vErr != nil {
		s.notifyError(vErr)
		return vErr
	}

	s.playRef(end.FarewellAudio)
	return nil
}

// Cleanup releases anything the session still holds. The session is left
// ended without contacting the backend.
func (s *SessionController) Cleanup() {
	s.mu.Lock()
	s.ended = true
	if s.handle != nil {
		s.handle.Close()
		s.handle = nil
	}
	s.mu.Unlock()

	if s.player != nil {
		s.player.Stop()
	}
	s.logger.Info("Session controller cleaned up")
}

// playRef resolves and plays a backend clip reference. Playback is
// best-effort: failures are reported through the error handlers and
// logged, never reflected in the session phase.
func (s *SessionController) playRef(ref string) {
	if ref == "" || s.player == nil {
		return
	}
	if vErr := s.player.Play(s.gateway.ResolveAudioURL(ref)); vErr != nil {
		s.logger.LogError(vErr)
		s.notifyError(vErr)
	}
}

// failLocked moves the machine to the Error phase and records the
// message for display. Callers hold the lock.
func (s *SessionController) failLocked(vErr *VoiceError) {
	s.lastError = vErr.Message
	s.status = "Error, please re-try."
	s.setPhaseLocked(PhaseError)
}

func (s *SessionController) setPhaseLocked(phase SessionPhase) {
	if s.phase == phase {
		return
	}
	from := s.phase
	s.phase = phase
	s.logger.LogPhaseEvent(from, phase, nil)

	handlers := make([]PhaseHandler, len(s.phaseHandlers))
	copy(handlers, s.phaseHandlers)
	for _, h := range handlers {
		go h(phase)
	}
}

func (s *SessionController) setStatus(status string) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

func (s *SessionController) notifyError(vErr *VoiceError) {
	s.mu.Lock()
	handlers := make([]ErrorHandler, len(s.errorHandlers))
	copy(handlers, s.errorHandlers)
	s.mu.Unlock()

	for _, h := range handlers {
		go h(vErr)
	}
}

// AddPhaseHandler registers a phase transition observer and returns a
// function that removes it.
func (s *SessionController) AddPhaseHandler(handler PhaseHandler) func() {
	s.mu.Lock()
	s.phaseHandlers = append(s.phaseHandlers, handler)
	index := len(s.phaseHandlers) - 1
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		if index < len(s.phaseHandlers) {
			s.phaseHandlers = append(s.phaseHandlers[:index], s.phaseHandlers[index+1:]...)
		}
		s.mu.Unlock()
	}
}

// AddErrorHandler registers an error observer and returns a function
// that removes it.
func (s *SessionController) AddErrorHandler(handler ErrorHandler) func() {
	s.mu.Lock()
	s.errorHandlers = append(s.errorHandlers, handler)
	index := len(s.errorHandlers) - 1
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		if index < len(s.errorHandlers) {
			s.errorHandlers = append(s.errorHandlers[:index], s.errorHandlers[index+1:]...)
		}
		s.mu.Unlock()
	}
}

// Observables read by the UI layer.

func (s *SessionController) Phase() SessionPhase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *SessionController) Mode() TurnMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

func (s *SessionController) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

func (s *SessionController) StatusMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *SessionController) Transcribed() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcribed
}

func (s *SessionController) Answer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answer
}

func (s *SessionController) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

func (s *SessionController) IsThinking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase == PhaseThinking
}

func (s *SessionController) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

// Snapshot returns a consistent read of everything the UI renders.
func (s *SessionController) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionSnapshot{
		Phase:       s.phase,
		Mode:        s.mode,
		Status:      s.status,
		Transcribed: s.transcribed,
		Answer:      s.answer,
		LastError:   s.lastError,
		Thinking:    s.phase == PhaseThinking,
		Ended:       s.ended,
	}
}

// Waveform exposes the active capture handle's energy tap for the
// visualization layer; nil when no handle is open.
func (s *SessionController) Waveform() []byte {
	s.mu.Lock()
	handle := s.handle
	s.mu.Unlock()

	if handle == nil {
		return nil
	}
	return handle.SampleWaveform()
}

// Amplitude exposes the active capture handle's RMS amplitude; zero when
// no handle is open.
func (s *SessionController) Amplitude() float32 {
	s.mu.Lock()
	handle := s.handle
	s.mu.Unlock()

	if handle == nil {
		return 0
	}
	return handle.Amplitude()
}
