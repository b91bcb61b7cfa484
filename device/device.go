// Package device speaks the serial protocol of the Arinst spectrum analyzer:
// command framing, response parsing, scan parameter validation and binary
// sample decoding.
package device

import (
	"fmt"
	"sync"
	"time"
)

const (
	// SourceName identifies this device type in exported frames.
	SourceName = "arinst"

	DefaultBaudRate    = 115200
	DefaultReadTimeout = time.Second
)

// Command identifies one of the operations the device understands.
type Command int

const (
	CmdGeneratorOn Command = iota
	CmdGeneratorOff
	CmdSetFrequency
	CmdSetAmplitude
	CmdScanRange
	CmdScanRangeTracking

	numCommands
)

// commandSpec ties a command to its wire token and the number of CRLF
// terminated segments the device answers with. Both are protocol constants,
// never inferred at runtime.
type commandSpec struct {
	token    string
	segments int
}

var commandTable = [numCommands]commandSpec{
	CmdGeneratorOn:       {token: "gon", segments: 2},
	CmdGeneratorOff:      {token: "gof", segments: 2},
	CmdSetFrequency:      {token: "scf", segments: 3},
	CmdSetAmplitude:      {token: "sga", segments: 2},
	CmdScanRange:         {token: "scn20", segments: 4},
	CmdScanRangeTracking: {token: "scn22", segments: 4},
}

// Fixed scan command parameters: IF bandwidth, reference level and IF
// frequency in Hz.
const (
	scanIFBandwidth = 200
	scanRefLevel    = 20
	scanIFHz        = 10_700_000
)

// Amplitude limits the generator accepts, in dBm.
const (
	MinAmplitudeDbm = -25
	MaxAmplitudeDbm = -15
)

// Session owns one transport and serializes all device operations over it.
// The protocol has no multiplexing, so exactly one request may be in flight;
// a second caller blocks until the previous response is fully drained.
type Session struct {
	mu       sync.Mutex
	tr       Transport
	pkgIndex uint64
}

// Open opens the named serial port and returns a connected session.
func Open(portName string, baudRate int, readTimeout time.Duration) (*Session, error) {
	tr, err := OpenPort(portName, baudRate, readTimeout)
	if err != nil {
		return nil, err
	}
	return NewSession(tr), nil
}

// NewSession wraps an already open transport.
func NewSession(tr Transport) *Session {
	return &Session{tr: tr}
}

// Close closes the transport and leaves the session disconnected. There is no
// implicit reconnect; open a new session instead.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tr == nil {
		return ErrNotConnected
	}
	err := s.tr.Close()
	s.tr = nil
	return err
}

// Connected reports whether the session still owns an open transport.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tr != nil
}

// command runs one write+read transaction while holding the session lock.
// The package index increments once per encode no matter how the transaction
// ends.
func (s *Session) command(cmd Command, args ...int64) ([][][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tr == nil {
		return nil, ErrNotConnected
	}
	req := encodeRequest(cmd, args, s.pkgIndex)
	s.pkgIndex++
	if err := s.tr.Write(req); err != nil {
		return nil, fmt.Errorf("writing %s request: %w", commandTable[cmd].token, err)
	}
	raw, err := s.tr.ReadUntil(terminator, commandTable[cmd].segments)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", commandTable[cmd].token, err)
	}
	return splitResponse(raw), nil
}

// completed reports whether the response echoes the wire token in its first
// segment and carries the completion marker in its last one.
func completed(resp [][][]byte, cmd Command) bool {
	if len(resp) < 2 {
		return false
	}
	return firstTokenIs(resp[0], commandTable[cmd].token) && firstTokenIs(resp[len(resp)-1], "complete")
}

// TurnOn powers the generator output on.
func (s *Session) TurnOn() error {
	return s.generator(CmdGeneratorOn)
}

// TurnOff powers the generator output off.
func (s *Session) TurnOff() error {
	return s.generator(CmdGeneratorOff)
}

func (s *Session) generator(cmd Command) error {
	resp, err := s.command(cmd)
	if err != nil {
		return err
	}
	if !completed(resp, cmd) {
		return fmt.Errorf("%s: %w", commandTable[cmd].token, ErrResponseMismatch)
	}
	return nil
}

// SetFrequency tunes the generator to the given frequency.
func (s *Session) SetFrequency(hz uint64) error {
	resp, err := s.command(CmdSetFrequency, int64(hz))
	if err != nil {
		return err
	}
	if len(resp) != 3 || !firstTokenIs(resp[0], commandTable[CmdSetFrequency].token) ||
		!firstTokenIs(resp[1], "success") || !firstTokenIs(resp[2], "complete") {
		return fmt.Errorf("%s: %w", commandTable[CmdSetFrequency].token, ErrResponseMismatch)
	}
	return nil
}

// SetAmplitude sets the generator output level. The device accepts -25 to -15
// dBm; anything else is rejected without touching the wire.
func (s *Session) SetAmplitude(dbm int) error {
	if dbm < MinAmplitudeDbm || dbm > MaxAmplitudeDbm {
		return &ValidationError{Reason: fmt.Sprintf("amplitude %d dBm outside %d..%d dBm", dbm, MinAmplitudeDbm, MaxAmplitudeDbm)}
	}
	cmd := CmdSetAmplitude
	resp, err := s.command(cmd, int64((dbm+15)*100+10000))
	if err != nil {
		return err
	}
	if !completed(resp, cmd) {
		return fmt.Errorf("%s: %w", commandTable[cmd].token, ErrResponseMismatch)
	}
	return nil
}

// ScanRange performs one sweep and returns the calibrated amplitudes in dBm,
// one per scan point. The config is validated before anything is written to
// the device. The scan payload is the first token of the second response
// segment with its two trailing bytes trimmed.
func (s *Session) ScanRange(cfg ScanConfig) ([]float64, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cmd := CmdScanRange
	if cfg.Tracking {
		cmd = CmdScanRangeTracking
	}
	resp, err := s.command(cmd,
		int64(cfg.StartHz), int64(cfg.StopHz), int64(cfg.StepHz),
		scanIFBandwidth, scanRefLevel, scanIFHz,
		int64(cfg.AttenuationDb)*100+10000)
	if err != nil {
		return nil, err
	}
	if len(resp) < 3 || !completed(resp, cmd) || len(resp[1]) == 0 {
		return nil, fmt.Errorf("%s: %w", commandTable[cmd].token, ErrResponseMismatch)
	}
	payload := resp[1][0]
	if len(payload) < 2 {
		return nil, fmt.Errorf("%s: short scan payload: %w", commandTable[cmd].token, ErrResponseMismatch)
	}
	return DecodeAmplitudes(payload[:len(payload)-2], cfg.AttenuationDb), nil
}
