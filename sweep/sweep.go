// Package sweep defines the frame type produced by the acquisition pipeline
// and consumed by exporters, the collect server and any other subscriber.
package sweep

import "time"

// Frame is one full frequency sweep. FrequenciesHz and AmplitudesDbm always
// have the same length and share index order.
type Frame struct {
	// Metadata
	Identifier string
	Source     string

	// Radio Data
	FrequenciesHz []uint64
	AmplitudesDbm []float64
	Timestamp     time.Time
}

// Clone returns a deep copy so consumers can keep frames around without
// aliasing the emitter's slices.
func (f Frame) Clone() Frame {
	cp := f
	cp.FrequenciesHz = append([]uint64(nil), f.FrequenciesHz...)
	cp.AmplitudesDbm = append([]float64(nil), f.AmplitudesDbm...)
	return cp
}
