package export

import "github.com/w6rfk/arinst/sweep"

// Filterer decides whether a frame should be withheld from export.
type Filterer interface {
	ShouldIgnore(*sweep.Frame) bool
}

// Filter forwards frames from input to output, dropping the ones the filters
// reject. It returns once input closes.
func Filter(input <-chan sweep.Frame, output chan<- sweep.Frame, filters []Filterer) error {
	for f := range input {
		skip := false
		for _, flt := range filters {
			if flt.ShouldIgnore(&f) {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		output <- f
	}
	return nil
}

// FilterFreq ignores frames that lie entirely outside a frequency window.
type FilterFreq struct {
	FreqLow  uint64
	FreqHigh uint64
}

func (f *FilterFreq) ShouldIgnore(frame *sweep.Frame) bool {
	if len(frame.FrequenciesHz) == 0 {
		return true
	}
	// Frame starts above the window.
	if frame.FrequenciesHz[0] > f.FreqHigh {
		return true
	}
	// Frame ends below the window.
	if frame.FrequenciesHz[len(frame.FrequenciesHz)-1] < f.FreqLow {
		return true
	}
	return false
}
