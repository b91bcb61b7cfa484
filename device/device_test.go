package device

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	writes    [][]byte
	responses [][]byte
	errs      []error
	reads     int
	closed    bool
}

func (t *fakeTransport) Write(p []byte) error {
	t.writes = append(t.writes, append([]byte(nil), p...))
	return nil
}

func (t *fakeTransport) ReadUntil(delim []byte, count int) ([]byte, error) {
	i := t.reads
	t.reads++
	var err error
	if i < len(t.errs) {
		err = t.errs[i]
	}
	var resp []byte
	if i < len(t.responses) {
		resp = t.responses[i]
	}
	return resp, err
}

func (t *fakeTransport) Close() error {
	t.closed = true
	return nil
}

func response(segments ...[]byte) []byte {
	var raw []byte
	for _, seg := range segments {
		raw = append(raw, seg...)
		raw = append(raw, '\r', '\n')
	}
	return raw
}

func TestGeneratorOnOff(t *testing.T) {
	tr := &fakeTransport{
		responses: [][]byte{
			response([]byte("gon 0"), []byte("complete 0")),
			response([]byte("gof 1"), []byte("complete 1")),
		},
	}
	s := NewSession(tr)

	require.NoError(t, s.TurnOn())
	require.NoError(t, s.TurnOff())

	require.Len(t, tr.writes, 2)
	assert.Equal(t, []byte("gon 0\r\n"), tr.writes[0])
	assert.Equal(t, []byte("gof 1\r\n"), tr.writes[1])
}

func TestGeneratorOnMismatch(t *testing.T) {
	tr := &fakeTransport{
		responses: [][]byte{
			response([]byte("gon 0"), []byte("busy")),
		},
	}
	s := NewSession(tr)

	err := s.TurnOn()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrResponseMismatch))
}

func TestPackageIndexIncrementsOnEveryRequest(t *testing.T) {
	tr := &fakeTransport{
		responses: [][]byte{
			response([]byte("gon 0"), []byte("complete 0")),
			nil, // timeout
			response([]byte("gon 2"), []byte("nope")), // mismatch
		},
		errs: []error{nil, ErrResponseTimeout, nil},
	}
	s := NewSession(tr)

	require.NoError(t, s.TurnOn())
	require.Error(t, s.TurnOn())
	require.Error(t, s.TurnOn())

	// The counter moves on regardless of the response outcome.
	assert.Equal(t, uint64(3), s.pkgIndex)
	require.Len(t, tr.writes, 3)
	assert.Equal(t, []byte("gon 2\r\n"), tr.writes[2])
}

func TestSetFrequency(t *testing.T) {
	tr := &fakeTransport{
		responses: [][]byte{
			response([]byte("scf 145000000 0"), []byte("success"), []byte("complete 0")),
		},
	}
	s := NewSession(tr)

	require.NoError(t, s.SetFrequency(145000000))
	assert.Equal(t, []byte("scf 145000000 0\r\n"), tr.writes[0])
}

func TestSetFrequencyWrongShape(t *testing.T) {
	tr := &fakeTransport{
		responses: [][]byte{
			// Missing the "success" segment.
			response([]byte("scf 145000000 0"), []byte("complete 0")),
		},
	}
	s := NewSession(tr)

	err := s.SetFrequency(145000000)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrResponseMismatch))
}

func TestSetAmplitudeEncoding(t *testing.T) {
	tr := &fakeTransport{
		responses: [][]byte{
			response([]byte("sga 9500 0"), []byte("complete 0")),
		},
	}
	s := NewSession(tr)

	// -20 dBm maps to device units (-20+15)*100+10000 = 9500.
	require.NoError(t, s.SetAmplitude(-20))
	assert.Equal(t, []byte("sga 9500 0\r\n"), tr.writes[0])
}

func TestSetAmplitudeOutOfRange(t *testing.T) {
	tr := &fakeTransport{}
	s := NewSession(tr)

	for _, dbm := range []int{-26, -14, 0, 10} {
		err := s.SetAmplitude(dbm)
		require.Error(t, err, "amplitude %d", dbm)
		var verr *ValidationError
		assert.True(t, errors.As(err, &verr), "amplitude %d", dbm)
	}
	// Rejections never reach the wire.
	assert.Empty(t, tr.writes)
	assert.Equal(t, uint64(0), s.pkgIndex)
}

func TestScanRange(t *testing.T) {
	cfg := ScanConfig{
		StartHz:       1_500_000_000,
		StopHz:        1_700_000_000,
		StepHz:        1_000_000,
		AttenuationDb: 0,
	}
	numPoints := cfg.NumPoints()
	require.Equal(t, 201, numPoints)

	// Sample value 801 per pair, big endian, followed by the two trailing
	// bytes ScanRange trims before decoding.
	payload := bytes.Repeat([]byte{0x03, 0x21}, numPoints)
	payload = append(payload, 0xAA, 0xBB)

	tr := &fakeTransport{
		responses: [][]byte{
			response([]byte("scn20 0"), payload, []byte("res"), []byte("complete 0")),
		},
	}
	s := NewSession(tr)

	amplitudes, err := s.ScanRange(cfg)
	require.NoError(t, err)
	require.Len(t, amplitudes, numPoints)
	for _, a := range amplitudes {
		assert.InDelta(t, -0.1, a, 1e-9)
	}

	assert.Equal(t, []byte("scn20 1500000000 1700000000 1000000 200 20 10700000 10000 0\r\n"), tr.writes[0])
}

func TestScanRangeTrackingToken(t *testing.T) {
	cfg := ScanConfig{
		StartHz:       1_500_000_000,
		StopHz:        1_700_000_000,
		StepHz:        1_000_000,
		AttenuationDb: -10,
		Tracking:      true,
	}
	payload := append(bytes.Repeat([]byte{0x03, 0x21}, cfg.NumPoints()), 0xAA, 0xBB)
	tr := &fakeTransport{
		responses: [][]byte{
			response([]byte("scn22 0"), payload, []byte("res"), []byte("complete 0")),
		},
	}
	s := NewSession(tr)

	_, err := s.ScanRange(cfg)
	require.NoError(t, err)
	// Attenuation -10 dB maps to device units -10*100+10000 = 9000.
	assert.Equal(t, []byte("scn22 1500000000 1700000000 1000000 200 20 10700000 9000 0\r\n"), tr.writes[0])
}

func TestScanRangeValidationBeforeIO(t *testing.T) {
	tr := &fakeTransport{}
	s := NewSession(tr)

	_, err := s.ScanRange(ScanConfig{StartHz: 500_000, StopHz: 1_700_000_000, StepHz: 1_000_000})
	require.Error(t, err)
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.Empty(t, tr.writes)
}

func TestScanRangeMismatch(t *testing.T) {
	cfg := ScanConfig{StartHz: 1_500_000_000, StopHz: 1_700_000_000, StepHz: 1_000_000}
	tr := &fakeTransport{
		responses: [][]byte{
			response([]byte("scn20 0"), []byte("xx"), []byte("res"), []byte("aborted")),
		},
	}
	s := NewSession(tr)

	_, err := s.ScanRange(cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrResponseMismatch))
}

func TestScanRangeTimeout(t *testing.T) {
	cfg := ScanConfig{StartHz: 1_500_000_000, StopHz: 1_700_000_000, StepHz: 1_000_000}
	tr := &fakeTransport{errs: []error{ErrResponseTimeout}}
	s := NewSession(tr)

	_, err := s.ScanRange(cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrResponseTimeout))
}

func TestClosedSession(t *testing.T) {
	tr := &fakeTransport{}
	s := NewSession(tr)
	require.NoError(t, s.Close())
	assert.True(t, tr.closed)
	assert.False(t, s.Connected())

	assert.ErrorIs(t, s.TurnOn(), ErrNotConnected)
	_, err := s.ScanRange(ScanConfig{StartHz: 1_500_000_000, StopHz: 1_700_000_000, StepHz: 1_000_000})
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.ErrorIs(t, s.Close(), ErrNotConnected)
}
