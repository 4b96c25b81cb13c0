package deepvoice

import (
	"math"
	"sync"
)

// energyTapSize is how many recent samples the tap retains, enough for
// one display frame of waveform.
const energyTapSize = 2048

// energyTap is the visualization side channel of a capture handle. It
// keeps a rolling window of the most recent samples and derives waveform
// bytes and an RMS amplitude from it. It never participates in session
// state: once closed it simply yields nothing and the caller skips the
// frame.
type energyTap struct {
	mu      sync.Mutex
	window  []int16
	pos     int
	filled  bool
	rms     float32
	closed  bool
}

func newEnergyTap(size int) *energyTap {
	if size <= 0 {
		size = energyTapSize
	}
	return &energyTap{window: make([]int16, size)}
}

// feed runs on the audio callback thread.
func (t *energyTap) feed(samples []int16) {
	if len(samples) == 0 {
		return
	}

	var sum float64
	for _, s := range samples {
		v := float64(s) / math.MaxInt16
		sum += v * v
	}
	rms := float32(math.Sqrt(sum / float64(len(samples))))

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.rms = rms
	for _, s := range samples {
		t.window[t.pos] = s
		t.pos++
		if t.pos == len(t.window) {
			t.pos = 0
			t.filled = true
		}
	}
}

// Waveform returns the retained window as unsigned amplitude bytes
// centered on 128, oldest sample first. Nil once the tap is closed or
// before any audio has arrived.
func (t *energyTap) Waveform() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	if !t.filled && t.pos == 0 {
		return nil
	}

	n := len(t.window)
	start := t.pos
	if !t.filled {
		n = t.pos
		start = 0
	}

	out := make([]byte, n)
	for i := 0; i < n; i++ {
		s := t.window[(start+i)%len(t.window)]
		out[i] = byte(int(s)/256 + 128)
	}
	return out
}

// Amplitude returns the RMS amplitude of the most recent chunk, in the
// range [0, 1]. Zero once closed.
func (t *energyTap) Amplitude() float32 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return 0
	}
	return t.rms
}

func (t *energyTap) close() {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
}
