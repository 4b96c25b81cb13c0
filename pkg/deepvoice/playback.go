package deepvoice

import (
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
)

// AudioSink plays answer clips. At most one clip plays at a time; a new
// Play always interrupts the current clip regardless of how far along it
// is. The session controller treats playback as best-effort, so a failing
// sink never moves the session phase.
type AudioSink interface {
	Play(url string) *VoiceError
	Stop()
}

// Player fetches a clip by URL, decodes it, and streams it to the default
// output device. Requires PortAudio to be initialized (the device
// registry does this).
type Player struct {
	httpClient *http.Client
	config     *AudioConfig
	logger     *VoiceLogger

	mu      sync.Mutex
	stopCh  chan struct{}
	playing bool
}

func NewPlayer(config *AudioConfig) *Player {
	if config == nil {
		config = NewAudioConfig()
	}
	return &Player{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		config:     config,
		logger:     GetGlobalLogger().WithComponent("Player"),
	}
}

// Play fetches and starts the clip at the given URL, stopping whatever is
// currently playing first. Fetch, decode, and device-open failures are
// returned; the playback itself runs in the background.
func (p *Player) Play(url string) *VoiceError {
	if url == "" {
		return NewPlaybackError("empty playback URL")
	}

	resp, err := p.httpClient.Get(url)
	if err != nil {
		return WrapError(err, ErrCodePlayback)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return NewPlaybackError("clip fetch failed").AddDetail("status_code", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return WrapError(err, ErrCodePlayback)
	}

	samples, sampleRate, channels, vErr := DecodeWAV(data)
	if vErr != nil {
		return vErr
	}
	if len(samples) == 0 {
		return NewPlaybackError("clip contains no audio")
	}

	p.mu.Lock()
	if p.stopCh != nil {
		close(p.stopCh)
	}
	stopCh := make(chan struct{})
	p.stopCh = stopCh
	p.playing = true
	p.mu.Unlock()

	p.logger.LogAudioEvent("playback_started", map[string]interface{}{
		"url":     url,
		"samples": len(samples),
	})

	go p.playSamples(samples, sampleRate, channels, stopCh)
	return nil
}

// Stop interrupts the current clip, if any.
func (p *Player) Stop() {
	p.mu.Lock()
	if p.stopCh != nil {
		close(p.stopCh)
		p.stopCh = nil
	}
	p.playing = false
	p.mu.Unlock()
}

// IsPlaying reports whether a clip is currently playing.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *Player) playSamples(samples []int16, sampleRate, channels int, stopCh chan struct{}) {
	done := make(chan struct{})
	var once sync.Once
	sampleIndex := 0
	var cbMu sync.Mutex

	stream, err := portaudio.OpenDefaultStream(0, channels, float64(sampleRate), p.config.BufferSize, func(out []int16) {
		cbMu.Lock()
		defer cbMu.Unlock()

		for i := range out {
			if sampleIndex < len(samples) {
				out[i] = samples[sampleIndex]
				sampleIndex++
			} else {
				out[i] = 0
			}
		}
		if sampleIndex >= len(samples) {
			once.Do(func() { close(done) })
		}
	})
	if err != nil {
		p.logger.WithError(err).Error("Failed to open playback stream")
		p.finish(stopCh)
		return
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		p.logger.WithError(err).Error("Failed to start playback stream")
		p.finish(stopCh)
		return
	}

	// Generous upper bound in case the device stalls.
	frames := len(samples) / channels
	maxWait := time.Duration(float64(frames)/float64(sampleRate)*1.5*float64(time.Second)) + time.Second

	select {
	case <-done:
	case <-stopCh:
		p.logger.Debug("Playback interrupted")
	case <-time.After(maxWait):
		p.logger.Warn("Playback timed out")
	}

	if err := stream.Stop(); err != nil {
		p.logger.WithError(err).Warn("Failed to stop playback stream")
	}

	p.finish(stopCh)
}

// finish clears the playing state if this clip is still the current one.
func (p *Player) finish(stopCh chan struct{}) {
	p.mu.Lock()
	if p.stopCh == stopCh {
		p.stopCh = nil
		p.playing = false
	}
	p.mu.Unlock()
}
