package deepvoice

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestEncodeWAVHeader(t *testing.T) {
	samples := []int16{0, 100, -100, 32767, -32768}
	data, vErr := EncodeWAV(samples, 16000)
	if vErr != nil {
		t.Fatalf("EncodeWAV failed: %v", vErr)
	}

	if len(data) != 44+len(samples)*2 {
		t.Errorf("Expected %d bytes, got %d", 44+len(samples)*2, len(data))
	}
	if string(data[0:4]) != "RIFF" {
		t.Errorf("Expected RIFF chunk ID, got %q", data[0:4])
	}
	if string(data[8:12]) != "WAVE" {
		t.Errorf("Expected WAVE format, got %q", data[8:12])
	}

	sampleRate := binary.LittleEndian.Uint32(data[24:28])
	if sampleRate != 16000 {
		t.Errorf("Expected sample rate 16000, got %d", sampleRate)
	}
	dataSize := binary.LittleEndian.Uint32(data[40:44])
	if dataSize != uint32(len(samples)*2) {
		t.Errorf("Expected data size %d, got %d", len(samples)*2, dataSize)
	}
}

func TestEncodeWAVEmptyClip(t *testing.T) {
	data, vErr := EncodeWAV(nil, 16000)
	if vErr != nil {
		t.Fatalf("EncodeWAV failed on empty input: %v", vErr)
	}
	if len(data) != 44 {
		t.Errorf("Expected header-only clip of 44 bytes, got %d", len(data))
	}
	if binary.LittleEndian.Uint32(data[40:44]) != 0 {
		t.Error("Expected zero data size for empty clip")
	}
}

func TestEncodeWAVInvalidRate(t *testing.T) {
	if _, vErr := EncodeWAV([]int16{1, 2, 3}, 0); vErr == nil {
		t.Error("Expected error for zero sample rate")
	} else if vErr.Code != ErrCodeConfig {
		t.Errorf("Expected %s, got %s", ErrCodeConfig, vErr.Code)
	}
	if _, vErr := EncodeWAV([]int16{1, 2, 3}, -8000); vErr == nil {
		t.Error("Expected error for negative sample rate")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	samples := make([]int16, 1600)
	for i := range samples {
		samples[i] = int16(i % 512)
	}

	data, vErr := EncodeWAV(samples, 16000)
	if vErr != nil {
		t.Fatalf("EncodeWAV failed: %v", vErr)
	}

	decoded, sampleRate, channels, vErr := DecodeWAV(data)
	if vErr != nil {
		t.Fatalf("DecodeWAV failed: %v", vErr)
	}
	if sampleRate != 16000 {
		t.Errorf("Expected sample rate 16000, got %d", sampleRate)
	}
	if channels != 1 {
		t.Errorf("Expected 1 channel, got %d", channels)
	}
	if len(decoded) != len(samples) {
		t.Fatalf("Expected %d samples, got %d", len(samples), len(decoded))
	}
	for i := range samples {
		if decoded[i] != samples[i] {
			t.Fatalf("Sample %d: expected %d, got %d", i, samples[i], decoded[i])
		}
	}
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	_, _, _, vErr := DecodeWAV(bytes.Repeat([]byte{0xFF}, 64))
	if vErr == nil {
		t.Fatal("Expected error for non-WAV data")
	}
	if vErr.Code != ErrCodePlayback {
		t.Errorf("Expected %s, got %s", ErrCodePlayback, vErr.Code)
	}
}
