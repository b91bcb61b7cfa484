// Package acquisition runs the background sweep loop that turns repeated scan
// calls into a steady stream of frames.
package acquisition

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/w6rfk/arinst/device"
	"github.com/w6rfk/arinst/sweep"
)

const (
	// DefaultInterval is the pause after a successful sweep, capping the
	// emission rate at roughly 20 frames per second.
	DefaultInterval = 50 * time.Millisecond
	// DefaultBackoff is the pause after a failed iteration so a wedged device
	// is not hammered with retries.
	DefaultBackoff = time.Second
)

// Scanner is the single device operation the loop needs. *device.Session
// implements it.
type Scanner interface {
	ScanRange(cfg device.ScanConfig) ([]float64, error)
}

// Loop repeatedly scans one device and emits a frame per completed sweep.
// Frames come out in scan completion order. Failed iterations emit on the
// error channel and back off; only cancelling the context stops the loop.
type Loop struct {
	Scanner    Scanner
	Identifier string
	Interval   time.Duration
	Backoff    time.Duration

	mu        sync.Mutex
	cfg       device.ScanConfig
	recording bool
	recorded  []sweep.Frame

	frames chan sweep.Frame
	errs   chan error
}

// New returns a loop for the given scanner with default pacing.
func New(scanner Scanner, identifier string, cfg device.ScanConfig) *Loop {
	return &Loop{
		Scanner:    scanner,
		Identifier: identifier,
		Interval:   DefaultInterval,
		Backoff:    DefaultBackoff,
		cfg:        cfg,
		frames:     make(chan sweep.Frame, 16),
		errs:       make(chan error, 16),
	}
}

// Frames is the stream of completed sweeps. Closed when Run returns.
func (l *Loop) Frames() <-chan sweep.Frame {
	return l.frames
}

// Errors signals failed iterations. Closed when Run returns.
func (l *Loop) Errors() <-chan error {
	return l.errs
}

// Configure replaces the scan configuration. It takes effect at the next
// iteration boundary, never mid-scan.
func (l *Loop) Configure(cfg device.ScanConfig) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cfg = cfg
}

// Config returns the configuration the next iteration will use.
func (l *Loop) Config() device.ScanConfig {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cfg
}

// StartRecording clears the recording buffer and starts appending a copy of
// every emitted frame to it.
func (l *Loop) StartRecording() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.recording = true
	l.recorded = nil
}

// StopRecording stops recording and detaches the recorded frames.
func (l *Loop) StopRecording() []sweep.Frame {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.recording = false
	recorded := l.recorded
	l.recorded = nil
	return recorded
}

// Run blocks until ctx is cancelled, closing the frame and error channels on
// the way out. Join on Run returning before closing the device session so a
// scan never races a port close.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.frames)
	defer close(l.errs)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		cfg := l.Config()
		amplitudes, err := l.Scanner.ScanRange(cfg)
		if err != nil {
			l.emitError(err)
			if !l.sleep(ctx, l.Backoff) {
				return ctx.Err()
			}
			continue
		}

		frame := sweep.Frame{
			Identifier:    l.Identifier,
			Source:        device.SourceName,
			FrequenciesHz: make([]uint64, len(amplitudes)),
			AmplitudesDbm: amplitudes,
			Timestamp:     time.Now(),
		}
		for i := range frame.FrequenciesHz {
			frame.FrequenciesHz[i] = cfg.StartHz + uint64(i)*cfg.StepHz
		}

		l.record(frame)
		select {
		case l.frames <- frame:
		case <-ctx.Done():
			return ctx.Err()
		}

		if !l.sleep(ctx, l.Interval) {
			return ctx.Err()
		}
	}
}

func (l *Loop) record(frame sweep.Frame) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.recording {
		return
	}
	l.recorded = append(l.recorded, frame.Clone())
}

// emitError never blocks; a consumer that stopped draining errors must not
// stall the scan loop. Overflowing failures still land in the log.
func (l *Loop) emitError(err error) {
	select {
	case l.errs <- err:
	default:
		glog.Warningf("scan failed (error channel full): %s\n", err)
	}
}

func (l *Loop) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
