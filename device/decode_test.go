package device

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeAmplitudesZeroLevel(t *testing.T) {
	// 201 pairs of sample value 800 (0x0320) decode to 0.0 dBm at 0 dB
	// attenuation.
	payload := bytes.Repeat([]byte{0x03, 0x20}, 201)
	require.Len(t, payload, 402)

	amplitudes := DecodeAmplitudes(payload, 0)
	require.Len(t, amplitudes, 201)
	for _, a := range amplitudes {
		assert.Equal(t, 0.0, a)
	}
}

func TestDecodeAmplitudesMaskIsIdempotent(t *testing.T) {
	// The top 5 bits are reserved; setting them must not change the result.
	masked := DecodeAmplitudes([]byte{0x03, 0x20}, 0)
	flagged := DecodeAmplitudes([]byte{0xFB, 0x20}, 0)
	assert.Equal(t, masked, flagged)
}

func TestDecodeAmplitudesAttenuationOffset(t *testing.T) {
	payload := []byte{0x03, 0x20}
	assert.Equal(t, []float64{0.0}, DecodeAmplitudes(payload, 0))
	// -30 dB attenuation shifts every reading by +0.3 dBm.
	assert.InDelta(t, 0.3, DecodeAmplitudes(payload, -30)[0], 1e-9)
}

func TestDecodeAmplitudesByteOrder(t *testing.T) {
	// 0x0321 = 801 -> (800-801)/10 = -0.1; swapped bytes give a different
	// sample, so order matters.
	assert.InDelta(t, -0.1, DecodeAmplitudes([]byte{0x03, 0x21}, 0)[0], 1e-9)
	assert.NotEqual(t, DecodeAmplitudes([]byte{0x03, 0x21}, 0), DecodeAmplitudes([]byte{0x21, 0x03}, 0))
}

func TestDecodeAmplitudesOddTrailingByte(t *testing.T) {
	amplitudes := DecodeAmplitudes([]byte{0x03, 0x20, 0xFF}, 0)
	assert.Len(t, amplitudes, 1)
}

func TestDecodeAmplitudesDeterministic(t *testing.T) {
	payload := []byte{0x00, 0x00, 0x07, 0xFF, 0x03, 0x20}
	assert.Equal(t, DecodeAmplitudes(payload, -10), DecodeAmplitudes(payload, -10))
}

func TestDecodeAmplitudesEmpty(t *testing.T) {
	assert.Empty(t, DecodeAmplitudes(nil, 0))
	assert.Empty(t, DecodeAmplitudes([]byte{0x01}, 0))
}
