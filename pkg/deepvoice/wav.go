package deepvoice

import (
	"bytes"
	"encoding/binary"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavHeader is the 44-byte canonical PCM WAV header.
type wavHeader struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32
}

// EncodeWAV encodes mono PCM-16 samples into a WAV byte sequence. Zero
// samples is legal and yields a header-only clip, so a turn that stopped
// before any audio arrived still finalizes cleanly.
func EncodeWAV(samples []int16, sampleRate int) ([]byte, *VoiceError) {
	if sampleRate <= 0 {
		return nil, NewConfigError("sample rate must be positive")
	}

	numChannels := uint16(1)
	bitsPerSample := uint16(16)
	dataSize := uint32(len(samples) * 2)

	header := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1, // PCM
		NumChannels:   numChannels,
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate) * uint32(numChannels) * uint32(bitsPerSample) / 8,
		BlockAlign:    numChannels * bitsPerSample / 8,
		BitsPerSample: bitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	buf := bytes.NewBuffer(make([]byte, 0, 44+len(samples)*2))
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, WrapError(err, ErrCodeUnknown)
	}
	if len(samples) > 0 {
		if err := binary.Write(buf, binary.LittleEndian, samples); err != nil {
			return nil, WrapError(err, ErrCodeUnknown)
		}
	}

	return buf.Bytes(), nil
}

// DecodeWAV decodes a fetched WAV clip into PCM-16 samples for playback.
// Returns the samples, the sample rate, and the channel count.
func DecodeWAV(data []byte) ([]int16, int, int, *VoiceError) {
	decoder := wav.NewDecoder(bytes.NewReader(data))
	if !decoder.IsValidFile() {
		return nil, 0, 0, NewPlaybackError("not a valid WAV file")
	}

	pcm, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, 0, WrapError(err, ErrCodePlayback)
	}
	if pcm.Format == nil {
		return nil, 0, 0, NewPlaybackError("WAV file has no format information")
	}

	shift := uint(0)
	switch decoder.BitDepth {
	case 16:
	case 24:
		shift = 8
	case 32:
		shift = 16
	default:
		return nil, 0, 0, NewPlaybackError("unsupported WAV bit depth").
			AddDetail("bit_depth", decoder.BitDepth)
	}

	return pcmToSamples(pcm, shift), pcm.Format.SampleRate, pcm.Format.NumChannels, nil
}

// pcmToSamples flattens a decoded buffer to PCM-16, shifting higher bit
// depths down.
func pcmToSamples(pcm *audio.IntBuffer, shift uint) []int16 {
	samples := make([]int16, len(pcm.Data))
	for i, v := range pcm.Data {
		samples[i] = int16(v >> shift)
	}
	return samples
}
