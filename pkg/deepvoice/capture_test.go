package deepvoice

import "testing"

func TestClipBufferOrderedConcat(t *testing.T) {
	buf := newClipBuffer()

	c1 := []int16{1, 2, 3}
	c2 := []int16{}
	c3 := []int16{4, 5}
	buf.Append(c1)
	buf.Append(c2)
	buf.Append(c3)

	if buf.Len() != 5 {
		t.Errorf("Expected 5 buffered samples, got %d", buf.Len())
	}

	out := buf.Finalize()
	expected := []int16{1, 2, 3, 4, 5}
	if len(out) != len(expected) {
		t.Fatalf("Expected %d samples, got %d", len(expected), len(out))
	}
	for i := range expected {
		if out[i] != expected[i] {
			t.Errorf("Sample %d: expected %d, got %d", i, expected[i], out[i])
		}
	}
}

func TestClipBufferCopiesChunks(t *testing.T) {
	buf := newClipBuffer()

	chunk := []int16{10, 20, 30}
	buf.Append(chunk)
	// The audio callback reuses its slice between invocations.
	chunk[0] = 99

	out := buf.Finalize()
	if out[0] != 10 {
		t.Errorf("Expected stored copy to keep 10, got %d", out[0])
	}
}

func TestClipBufferReset(t *testing.T) {
	buf := newClipBuffer()
	buf.Append([]int16{1, 2, 3})
	buf.Reset()

	if buf.Len() != 0 {
		t.Errorf("Expected empty buffer after reset, got %d samples", buf.Len())
	}
	if out := buf.Finalize(); len(out) != 0 {
		t.Errorf("Expected no samples after reset, got %d", len(out))
	}
}

func TestClipBufferEmptyFinalize(t *testing.T) {
	buf := newClipBuffer()
	out := buf.Finalize()
	if len(out) != 0 {
		t.Errorf("Expected zero samples, got %d", len(out))
	}
}

func TestCapturedClipEmpty(t *testing.T) {
	clip := CapturedClip{Data: make([]byte, 44), Samples: 0, SampleRate: 16000}
	if !clip.Empty() {
		t.Error("Expected zero-sample clip to be empty even with header bytes present")
	}

	clip.Samples = 160
	if clip.Empty() {
		t.Error("Expected clip with samples to be non-empty")
	}
}

func TestCapturedClipDuration(t *testing.T) {
	clip := CapturedClip{Samples: 16000, SampleRate: 16000}
	if d := clip.Duration().Seconds(); d != 1.0 {
		t.Errorf("Expected 1s duration, got %.3fs", d)
	}

	clip = CapturedClip{Samples: 8000, SampleRate: 0}
	if clip.Duration() != 0 {
		t.Error("Expected zero duration for invalid sample rate")
	}
}
