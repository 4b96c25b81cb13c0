package deepvoice

import (
	"math"
	"testing"
)

func TestEnergyTapWaveformBytes(t *testing.T) {
	tap := newEnergyTap(8)
	tap.feed([]int16{0, 256, -256, 32512})

	wave := tap.Waveform()
	if len(wave) != 4 {
		t.Fatalf("Expected 4 waveform bytes, got %d", len(wave))
	}

	expected := []byte{128, 129, 127, 255}
	for i := range expected {
		if wave[i] != expected[i] {
			t.Errorf("Byte %d: expected %d, got %d", i, expected[i], wave[i])
		}
	}
}

func TestEnergyTapRollingWindow(t *testing.T) {
	tap := newEnergyTap(4)
	tap.feed([]int16{256, 512, 768, 1024})
	tap.feed([]int16{1280, 1536})

	// Window keeps the newest 4 samples, oldest first.
	wave := tap.Waveform()
	if len(wave) != 4 {
		t.Fatalf("Expected 4 waveform bytes, got %d", len(wave))
	}
	expected := []byte{131, 132, 133, 134}
	for i := range expected {
		if wave[i] != expected[i] {
			t.Errorf("Byte %d: expected %d, got %d", i, expected[i], wave[i])
		}
	}
}

func TestEnergyTapBeforeAnyAudio(t *testing.T) {
	tap := newEnergyTap(8)
	if wave := tap.Waveform(); wave != nil {
		t.Errorf("Expected nil waveform before any audio, got %d bytes", len(wave))
	}
	if amp := tap.Amplitude(); amp != 0 {
		t.Errorf("Expected zero amplitude before any audio, got %f", amp)
	}
}

func TestEnergyTapClosed(t *testing.T) {
	tap := newEnergyTap(8)
	tap.feed([]int16{1000, 2000, 3000})
	tap.close()

	if wave := tap.Waveform(); wave != nil {
		t.Error("Expected nil waveform after close")
	}
	if amp := tap.Amplitude(); amp != 0 {
		t.Errorf("Expected zero amplitude after close, got %f", amp)
	}

	// Feeding a closed tap must not panic or revive it.
	tap.feed([]int16{4000})
	if wave := tap.Waveform(); wave != nil {
		t.Error("Expected closed tap to ignore new samples")
	}
}

func TestEnergyTapAmplitude(t *testing.T) {
	tap := newEnergyTap(8)

	tap.feed([]int16{0, 0, 0, 0})
	if amp := tap.Amplitude(); amp != 0 {
		t.Errorf("Expected zero amplitude for silence, got %f", amp)
	}

	tap.feed([]int16{math.MaxInt16, math.MaxInt16})
	if amp := tap.Amplitude(); amp < 0.99 || amp > 1.01 {
		t.Errorf("Expected full-scale amplitude near 1.0, got %f", amp)
	}
}
