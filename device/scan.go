package device

import "fmt"

// Frequency bounds and scan limits imposed by the device.
const (
	MinFrequencyHz   = 1_000_000
	MaxFrequencyHz   = 6_000_000_000
	MinStepHz        = 1_000
	MaxScanPoints    = 2000
	MinAttenuationDb = -30
	MaxAttenuationDb = 0
)

// ScanConfig describes one frequency sweep.
type ScanConfig struct {
	StartHz       uint64
	StopHz        uint64
	StepHz        uint64
	AttenuationDb int
	Tracking      bool
}

// NumPoints returns the number of scan points the config produces.
func (c ScanConfig) NumPoints() int {
	if c.StepHz == 0 || c.StopHz <= c.StartHz {
		return 0
	}
	return int((c.StopHz-c.StartHz)/c.StepHz) + 1
}

// Validate checks the scan parameters against the device limits. It performs
// no I/O, so rejected configs never reach the wire.
func (c ScanConfig) Validate() error {
	switch {
	case c.StartHz < MinFrequencyHz || c.StartHz > MaxFrequencyHz:
		return &ValidationError{Reason: fmt.Sprintf("start frequency %d Hz outside %d..%d Hz", c.StartHz, MinFrequencyHz, uint64(MaxFrequencyHz))}
	case c.StopHz < MinFrequencyHz || c.StopHz > MaxFrequencyHz:
		return &ValidationError{Reason: fmt.Sprintf("stop frequency %d Hz outside %d..%d Hz", c.StopHz, MinFrequencyHz, uint64(MaxFrequencyHz))}
	case c.StartHz >= c.StopHz:
		return &ValidationError{Reason: fmt.Sprintf("start frequency %d Hz not below stop frequency %d Hz", c.StartHz, c.StopHz)}
	case c.StepHz < MinStepHz:
		return &ValidationError{Reason: fmt.Sprintf("step %d Hz below minimum %d Hz", c.StepHz, MinStepHz)}
	case c.StepHz > c.StopHz-c.StartHz:
		return &ValidationError{Reason: fmt.Sprintf("step %d Hz larger than span %d Hz", c.StepHz, c.StopHz-c.StartHz)}
	case c.NumPoints() > MaxScanPoints:
		return &ValidationError{Reason: fmt.Sprintf("%d scan points exceed maximum %d", c.NumPoints(), MaxScanPoints)}
	case c.AttenuationDb < MinAttenuationDb || c.AttenuationDb > MaxAttenuationDb:
		return &ValidationError{Reason: fmt.Sprintf("attenuation %d dB outside %d..%d dB", c.AttenuationDb, MinAttenuationDb, MaxAttenuationDb)}
	}
	return nil
}
