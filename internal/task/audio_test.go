package task

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAudio_Validate(t *testing.T) {
	assert.NoError(t, testAudio(1).Validate())
	assert.ErrorIs(t, Audio{SampleRate: 16000}.Validate(), ErrInvalidAudio)
	assert.ErrorIs(t, Audio{Samples: []int16{1}}.Validate(), ErrInvalidAudio)
}

func TestAudio_Duration(t *testing.T) {
	a := Audio{Samples: make([]int16, 8000), SampleRate: 16000}
	assert.Equal(t, "500ms", a.Duration().String())
	assert.Zero(t, Audio{Samples: []int16{1}}.Duration())
}

func TestFingerprint(t *testing.T) {
	const rate = 16000

	base := make([]int16, 3*rate)
	for i := range base {
		base[i] = int16(i % 251)
	}
	a := Audio{Samples: base, SampleRate: rate}

	fp := Fingerprint(a)
	assert.Len(t, fp, 12)
	assert.Equal(t, fp, Fingerprint(a), "fingerprint must be stable")

	t.Run("ignores audio after two seconds", func(t *testing.T) {
		tail := append([]int16(nil), base...)
		tail[len(tail)-1] = 9999
		assert.Equal(t, fp, Fingerprint(Audio{Samples: tail, SampleRate: rate}))
	})

	t.Run("changes with the leading audio", func(t *testing.T) {
		head := append([]int16(nil), base...)
		head[0] = 9999
		assert.NotEqual(t, fp, Fingerprint(Audio{Samples: head, SampleRate: rate}))
	})

	t.Run("short recordings use every sample", func(t *testing.T) {
		short := Audio{Samples: []int16{1, 2, 3}, SampleRate: rate}
		assert.Len(t, Fingerprint(short), 12)
		assert.NotEqual(t, Fingerprint(short), Fingerprint(Audio{Samples: []int16{1, 2, 4}, SampleRate: rate}))
	})
}

func TestWAVRoundTrip(t *testing.T) {
	original := Audio{
		Samples:    []int16{0, 1, -1, 32767, -32768, 1234, -4321},
		SampleRate: 16000,
	}

	path := filepath.Join(t.TempDir(), "clip.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, EncodeWAV(f, original))
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "RIFF", string(data[:4]))
	assert.Equal(t, "WAVE", string(data[8:12]))

	decoded, err := DecodeWAV(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, original.SampleRate, decoded.SampleRate)
	assert.Equal(t, original.Samples, decoded.Samples)
}

func TestDecodeWAV_Invalid(t *testing.T) {
	_, err := DecodeWAV(bytes.NewReader([]byte("definitely not a wav file")))
	assert.ErrorIs(t, err, ErrInvalidAudio)
}

func TestEncodeWAV_RejectsEmptyAudio(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "empty.wav"))
	require.NoError(t, err)
	defer f.Close()

	assert.ErrorIs(t, EncodeWAV(f, Audio{SampleRate: 16000}), ErrInvalidAudio)
}
