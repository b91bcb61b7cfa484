package device

import (
	"bytes"
	"fmt"
	"time"

	"go.bug.st/serial"
)

// Transport is an ordered, reliable byte channel to the device. Reads time out
// per attempt instead of blocking forever. Retry policy belongs to callers.
type Transport interface {
	Write(p []byte) error
	// ReadUntil reads until count occurrences of delim have arrived and returns
	// everything read so far. ErrResponseTimeout if the device goes quiet first.
	ReadUntil(delim []byte, count int) ([]byte, error)
	Close() error
}

type serialTransport struct {
	port serial.Port
}

// OpenPort opens a serial transport on the named port. readTimeout bounds each
// individual read attempt, not the whole response.
func OpenPort(name string, baudRate int, readTimeout time.Duration) (Transport, error) {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}
	port, err := serial.Open(name, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("unable to open %q: %w", name, err)
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("unable to set read timeout on %q: %w", name, err)
	}
	return &serialTransport{port: port}, nil
}

func (t *serialTransport) Write(p []byte) error {
	_, err := t.port.Write(p)
	return err
}

func (t *serialTransport) ReadUntil(delim []byte, count int) ([]byte, error) {
	var msg []byte
	buf := make([]byte, 256)
	for bytes.Count(msg, delim) < count {
		n, err := t.port.Read(buf)
		if err != nil {
			return msg, fmt.Errorf("reading response: %w", err)
		}
		if n == 0 {
			// go.bug.st/serial signals an expired read timeout as a zero
			// length read with a nil error.
			return msg, ErrResponseTimeout
		}
		msg = append(msg, buf[:n]...)
	}
	// Drop anything the device sent beyond the expected response.
	t.port.ResetInputBuffer()
	t.port.ResetOutputBuffer()
	return msg, nil
}

func (t *serialTransport) Close() error {
	return t.port.Close()
}
