package export

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/w6rfk/arinst/sweep"
)

func TestFilterFreq(t *testing.T) {
	f := &FilterFreq{FreqLow: 1_400_000_000, FreqHigh: 1_600_000_000}

	inWindow := testFrame(1_500_000_000)
	assert.False(t, f.ShouldIgnore(&inWindow))

	above := testFrame(1_700_000_000)
	assert.True(t, f.ShouldIgnore(&above))

	below := testFrame(1_000_000_000)
	assert.True(t, f.ShouldIgnore(&below))

	empty := sweep.Frame{}
	assert.True(t, f.ShouldIgnore(&empty))
}

func TestFilter(t *testing.T) {
	input := make(chan sweep.Frame, 3)
	input <- testFrame(1_500_000_000)
	input <- testFrame(2_500_000_000)
	input <- testFrame(1_550_000_000)
	close(input)

	output := make(chan sweep.Frame, 3)
	err := Filter(input, output, []Filterer{
		&FilterFreq{FreqLow: 1_400_000_000, FreqHigh: 1_600_000_000},
	})
	assert.NoError(t, err)
	close(output)

	var got []sweep.Frame
	for f := range output {
		got = append(got, f)
	}
	assert.Len(t, got, 2)
	for _, f := range got {
		assert.LessOrEqual(t, f.FrequenciesHz[0], uint64(1_600_000_000))
	}
}

func TestFilterAnyRejectionDrops(t *testing.T) {
	input := make(chan sweep.Frame, 2)
	input <- testFrame(1_500_000_000)
	input <- testFrame(2_500_000_000)
	close(input)

	output := make(chan sweep.Frame, 2)
	// The 2.5 GHz frame passes the second window but not the first; one
	// rejection is enough to drop it regardless of filter order.
	err := Filter(input, output, []Filterer{
		&FilterFreq{FreqLow: 1_400_000_000, FreqHigh: 1_600_000_000},
		&FilterFreq{FreqLow: 2_000_000_000, FreqHigh: 3_000_000_000},
	})
	assert.NoError(t, err)
	close(output)

	var got []sweep.Frame
	for f := range output {
		got = append(got, f)
	}
	assert.Empty(t, got)
}
