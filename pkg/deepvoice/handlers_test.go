package deepvoice

import (
	"testing"
	"time"
)

func TestSilenceDetectorFiresAfterWindow(t *testing.T) {
	fired := 0
	detector := CreateSilenceDetector(0.1, 30*time.Millisecond, func() {
		fired++
	})

	detector(0.01)
	if fired != 0 {
		t.Fatal("Detector must not fire before the window elapses")
	}

	time.Sleep(40 * time.Millisecond)
	detector(0.01)
	if fired != 1 {
		t.Fatalf("Expected one callback, got %d", fired)
	}

	// Continued silence must not re-fire.
	detector(0.01)
	if fired != 1 {
		t.Fatalf("Expected detector to stay fired, got %d callbacks", fired)
	}
}

func TestSilenceDetectorRearmsAfterSpeech(t *testing.T) {
	fired := 0
	detector := CreateSilenceDetector(0.1, 20*time.Millisecond, func() {
		fired++
	})

	detector(0.01)
	time.Sleep(30 * time.Millisecond)
	detector(0.01)
	if fired != 1 {
		t.Fatalf("Expected first callback, got %d", fired)
	}

	detector(0.5) // speech resets the window
	detector(0.01)
	if fired != 1 {
		t.Fatal("Detector must not fire immediately after re-arming")
	}

	time.Sleep(30 * time.Millisecond)
	detector(0.01)
	if fired != 2 {
		t.Fatalf("Expected second callback after re-arm, got %d", fired)
	}
}

func TestAmplitudeLevelMonitor(t *testing.T) {
	var gotAvg, gotPeak float32
	monitor := CreateAmplitudeLevelMonitor(func(avg, max float32) {
		gotAvg, gotPeak = avg, max
	})

	monitor(0.2)
	monitor(0.6)
	monitor(0.4)

	if gotPeak != 0.6 {
		t.Errorf("Expected peak 0.6, got %f", gotPeak)
	}
	if gotAvg < 0.39 || gotAvg > 0.41 {
		t.Errorf("Expected average near 0.4, got %f", gotAvg)
	}
}

func TestChainPhaseHandlers(t *testing.T) {
	var calls []int
	chained := ChainPhaseHandlers(
		func(SessionPhase) { calls = append(calls, 1) },
		nil,
		func(SessionPhase) { calls = append(calls, 2) },
	)

	chained(PhaseListening)
	if len(calls) != 2 || calls[0] != 1 || calls[1] != 2 {
		t.Errorf("Expected handlers called in order, got %v", calls)
	}
}

func TestChainErrorHandlers(t *testing.T) {
	count := 0
	chained := ChainErrorHandlers(
		func(*VoiceError) { count++ },
		func(*VoiceError) { count++ },
	)

	chained(NewBackendError("stt failed"))
	if count != 2 {
		t.Errorf("Expected both handlers called, got %d", count)
	}
}
