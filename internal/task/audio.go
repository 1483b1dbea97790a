package task

import (
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	// fingerprintWindow bounds how much leading audio feeds the fingerprint
	fingerprintWindow = 2 * time.Second
	fingerprintLength = 12

	wavBitDepth    = 16
	wavPCMFormat   = 1
	wavNumChannels = 1
)

// Audio is a mono 16-bit PCM recording
type Audio struct {
	Samples    []int16
	SampleRate int
}

// Validate checks that the payload can be stored
func (a Audio) Validate() error {
	if len(a.Samples) == 0 {
		return fmt.Errorf("%w: no samples", ErrInvalidAudio)
	}
	if a.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive, got %d", ErrInvalidAudio, a.SampleRate)
	}
	return nil
}

// Duration returns the playback length of the recording
func (a Audio) Duration() time.Duration {
	if a.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(a.Samples)) * time.Second / time.Duration(a.SampleRate)
}

// Fingerprint returns a short SHA-1 digest over the first two seconds of
// audio. It is only meant for correlating log lines: collisions are expected.
func Fingerprint(a Audio) string {
	n := len(a.Samples)
	if a.SampleRate > 0 {
		if limit := int(int64(a.SampleRate) * int64(fingerprintWindow) / int64(time.Second)); limit < n {
			n = limit
		}
	}

	buf := make([]byte, 2*n)
	for i, s := range a.Samples[:n] {
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(s))
	}

	sum := sha1.Sum(buf)
	return hex.EncodeToString(sum[:])[:fingerprintLength]
}

// EncodeWAV writes a as a 16-bit mono PCM WAV stream
func EncodeWAV(w io.WriteSeeker, a Audio) error {
	if err := a.Validate(); err != nil {
		return err
	}

	enc := wav.NewEncoder(w, a.SampleRate, wavBitDepth, wavNumChannels, wavPCMFormat)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: wavNumChannels,
			SampleRate:  a.SampleRate,
		},
		Data:           make([]int, len(a.Samples)),
		SourceBitDepth: wavBitDepth,
	}
	for i, s := range a.Samples {
		buf.Data[i] = int(s)
	}

	if err := enc.Write(buf); err != nil {
		enc.Close()
		return fmt.Errorf("failed to write WAV data: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize WAV data: %w", err)
	}
	return nil
}

// DecodeWAV reads a 16-bit PCM WAV stream. Multi-channel input is downmixed
// to mono by averaging the channels of each frame.
func DecodeWAV(r io.ReadSeeker) (Audio, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return Audio{}, fmt.Errorf("%w: not a valid WAV stream", ErrInvalidAudio)
	}
	if dec.BitDepth != wavBitDepth {
		return Audio{}, fmt.Errorf("%w: unsupported bit depth %d (only 16-bit is supported)",
			ErrInvalidAudio, dec.BitDepth)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Audio{}, fmt.Errorf("%w: failed to read PCM data: %v", ErrInvalidAudio, err)
	}

	channels := int(dec.NumChans)
	if channels < 1 {
		channels = 1
	}
	frames := len(buf.Data) / channels
	samples := make([]int16, frames)
	for i := 0; i < frames; i++ {
		sum := 0
		for c := 0; c < channels; c++ {
			sum += buf.Data[i*channels+c]
		}
		samples[i] = int16(sum / channels)
	}

	a := Audio{Samples: samples, SampleRate: int(dec.SampleRate)}
	if err := a.Validate(); err != nil {
		return Audio{}, err
	}
	return a, nil
}
