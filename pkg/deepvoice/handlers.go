package deepvoice

import (
	"sync"
	"time"
)

// Factory functions for common handlers

// CreatePhaseLoggingHandler logs every phase transition.
func CreatePhaseLoggingHandler() PhaseHandler {
	logger := GetGlobalLogger().WithComponent("PhaseObserver")
	return func(phase SessionPhase) {
		logger.WithField("phase", string(phase)).Info("Session phase changed")
	}
}

// CreateErrorLoggingHandler logs errors with a prefix identifying the
// subscriber.
func CreateErrorLoggingHandler(prefix string) ErrorHandler {
	logger := GetGlobalLogger().WithComponent(prefix)
	return func(err *VoiceError) {
		if err != nil {
			logger.LogError(err)
		}
	}
}

// CreatePhaseCallbackHandler forwards transitions to a callback, useful
// for wiring UI updates without importing the UI layer here.
func CreatePhaseCallbackHandler(callback func(SessionPhase)) PhaseHandler {
	return func(phase SessionPhase) {
		if callback != nil {
			callback(phase)
		}
	}
}

// CreateSilenceDetector returns an amplitude handler that fires the
// callback once the amplitude stays below threshold for the given
// duration, then re-arms after the next loud sample. Feed it at display
// cadence from the session's Amplitude observable to end turns
// hands-free.
func CreateSilenceDetector(threshold float32, silenceDuration time.Duration, callback func()) AmplitudeHandler {
	var mu sync.Mutex
	var silenceStart time.Time
	var fired bool

	return func(amplitude float32) {
		mu.Lock()
		defer mu.Unlock()

		if amplitude < threshold {
			if silenceStart.IsZero() {
				silenceStart = time.Now()
			} else if !fired && time.Since(silenceStart) >= silenceDuration {
				fired = true
				callback()
			}
		} else {
			silenceStart = time.Time{}
			fired = false
		}
	}
}

// CreateAmplitudeLevelMonitor tracks average and peak amplitude across
// the samples it has seen and reports both on every call.
func CreateAmplitudeLevelMonitor(callback func(avg, max float32)) AmplitudeHandler {
	var mu sync.Mutex
	var sum float64
	var count int64
	var peak float32

	return func(amplitude float32) {
		mu.Lock()
		defer mu.Unlock()

		sum += float64(amplitude)
		count++
		if amplitude > peak {
			peak = amplitude
		}

		if callback != nil {
			callback(float32(sum/float64(count)), peak)
		}
	}
}

// Composability functions

func ChainPhaseHandlers(handlers ...PhaseHandler) PhaseHandler {
	return func(phase SessionPhase) {
		for _, h := range handlers {
			if h != nil {
				h(phase)
			}
		}
	}
}

func ChainErrorHandlers(handlers ...ErrorHandler) ErrorHandler {
	return func(err *VoiceError) {
		for _, h := range handlers {
			if h != nil {
				h(err)
			}
		}
	}
}

func ChainAmplitudeHandlers(handlers ...AmplitudeHandler) AmplitudeHandler {
	return func(amplitude float32) {
		for _, h := range handlers {
			if h != nil {
				h(amplitude)
			}
		}
	}
}
