package deepvoice

import (
	"sync"

	"github.com/gordonklaus/portaudio"
)

// CapturePipeline opens microphone streams and turns one recording span
// into a CapturedClip. A handle owns the device stream and its energy tap
// exclusively for one open/close cycle.
type CapturePipeline struct {
	config *AudioConfig
	logger *VoiceLogger
}

func NewCapturePipeline(config *AudioConfig) *CapturePipeline {
	if config == nil {
		config = NewAudioConfig()
	}
	return &CapturePipeline{
		config: config,
		logger: GetGlobalLogger().WithComponent("CapturePipeline"),
	}
}

// Open acquires the input stream for the given device and attaches the
// energy tap. The stream runs immediately so the tap has data before
// recording begins; samples are discarded until BeginRecording.
func (cp *CapturePipeline) Open(deviceID int) (RecordingHandle, *VoiceError) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, WrapError(err, ErrCodeDevice)
	}
	if deviceID < 0 || deviceID >= len(devices) {
		return nil, NewDeviceError("input device not found").AddDetail("device_id", deviceID)
	}
	dev := devices[deviceID]
	if dev.MaxInputChannels < cp.config.Channels {
		return nil, NewDeviceError("device cannot record requested channel count").
			AddDetail("device_label", dev.Name)
	}

	h := &CaptureHandle{
		config: *cp.config,
		buf:    newClipBuffer(),
		tap:    newEnergyTap(energyTapSize),
		logger: cp.logger,
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: cp.config.Channels,
			Latency:  dev.DefaultLowInputLatency,
		},
		SampleRate:      float64(cp.config.SampleRate),
		FramesPerBuffer: cp.config.BufferSize,
	}

	stream, err := portaudio.OpenStream(params, h.onSamples)
	if err != nil {
		cp.logger.WithError(err).Error("Failed to open input stream")
		return nil, WrapError(err, ErrCodeDevice)
	}
	h.stream = stream

	if err := stream.Start(); err != nil {
		stream.Close()
		cp.logger.WithError(err).Error("Failed to start input stream")
		return nil, WrapError(err, ErrCodeDevice)
	}

	cp.logger.LogAudioEvent("stream_opened", map[string]interface{}{
		"device_label": dev.Name,
		"sample_rate":  cp.config.SampleRate,
	})
	return h, nil
}

// RecordingHandle is what the session controller drives. The concrete
// portaudio-backed implementation is CaptureHandle; tests substitute
// their own.
type RecordingHandle interface {
	BeginRecording() *VoiceError
	EndRecording() (CapturedClip, *VoiceError)
	SampleWaveform() []byte
	Amplitude() float32
	Close()
}

// CaptureHandle owns one device stream from Open until EndRecording or
// Close. All methods are safe for concurrent use.
type CaptureHandle struct {
	mu        sync.Mutex
	config    AudioConfig
	stream    *portaudio.Stream
	buf       *clipBuffer
	tap       *energyTap
	recording bool
	closed    bool
	logger    *VoiceLogger
}

// onSamples runs on the audio callback thread. The tap always sees the
// samples; the clip buffer only while recording.
func (h *CaptureHandle) onSamples(in []int16) {
	h.tap.feed(in)

	h.mu.Lock()
	recording := h.recording && !h.closed
	h.mu.Unlock()

	if recording {
		h.buf.Append(in)
	}
}

// BeginRecording starts accumulating chunks. Calling it while already
// recording is a no-op.
func (h *CaptureHandle) BeginRecording() *VoiceError {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return NewInvalidStateError("capture handle is closed")
	}
	if h.recording {
		return nil
	}

	h.buf.Reset()
	h.recording = true
	h.logger.LogAudioEvent("recording_started", nil)
	return nil
}

// EndRecording stops the encoder, concatenates the accumulated chunks in
// arrival order into one WAV clip, and releases the stream and tap. Safe
// to call with zero captured chunks; the result is then an empty clip.
func (h *CaptureHandle) EndRecording() (CapturedClip, *VoiceError) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return CapturedClip{}, NewInvalidStateError("capture handle is closed")
	}
	h.recording = false
	h.mu.Unlock()

	samples := h.buf.Finalize()
	h.Close()

	data, err := EncodeWAV(samples, h.config.SampleRate)
	if err != nil {
		return CapturedClip{}, err
	}

	clip := CapturedClip{
		Data:       data,
		MimeType:   h.config.Format,
		Samples:    len(samples),
		SampleRate: h.config.SampleRate,
	}
	h.logger.LogAudioEvent("recording_stopped", map[string]interface{}{
		"samples":  clip.Samples,
		"duration": clip.Duration().String(),
	})
	return clip, nil
}

// Close releases the device stream and detaches the tap. Idempotent, and
// called on every exit path so an abandoned handle never holds the mic.
func (h *CaptureHandle) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	h.recording = false
	stream := h.stream
	h.stream = nil
	h.mu.Unlock()

	if stream != nil {
		if err := stream.Stop(); err != nil {
			h.logger.WithError(err).Warn("Failed to stop input stream")
		}
		if err := stream.Close(); err != nil {
			h.logger.WithError(err).Warn("Failed to close input stream")
		}
	}
	h.tap.close()
}

// SampleWaveform exposes the energy tap; nil once the handle is closed.
func (h *CaptureHandle) SampleWaveform() []byte {
	return h.tap.Waveform()
}

// Amplitude exposes the tap's current RMS amplitude.
func (h *CaptureHandle) Amplitude() float32 {
	return h.tap.Amplitude()
}

// clipBuffer accumulates recorded chunks in arrival order. Finalize
// concatenates them in that same order with no loss or duplication.
type clipBuffer struct {
	mu     sync.Mutex
	chunks [][]int16
	total  int
}

func newClipBuffer() *clipBuffer {
	return &clipBuffer{chunks: make([][]int16, 0)}
}

// Append stores a copy of the chunk; the audio callback reuses its slice.
func (b *clipBuffer) Append(chunk []int16) {
	c := make([]int16, len(chunk))
	copy(c, chunk)

	b.mu.Lock()
	b.chunks = append(b.chunks, c)
	b.total += len(c)
	b.mu.Unlock()
}

func (b *clipBuffer) Reset() {
	b.mu.Lock()
	b.chunks = b.chunks[:0]
	b.total = 0
	b.mu.Unlock()
}

// Len returns the total number of buffered samples.
func (b *clipBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.total
}

func (b *clipBuffer) Finalize() []int16 {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]int16, 0, b.total)
	for _, chunk := range b.chunks {
		out = append(out, chunk...)
	}
	return out
}
