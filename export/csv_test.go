package export

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/w6rfk/arinst/sweep"
)

func testFrame(startHz uint64) sweep.Frame {
	return sweep.Frame{
		Identifier:    "test-id",
		Source:        "arinst",
		FrequenciesHz: []uint64{startHz, startHz + 1_000_000},
		AmplitudesDbm: []float64{-10.5, -90},
		Timestamp:     time.UnixMilli(1700000000000),
	}
}

func TestCSVWrite(t *testing.T) {
	frames := make(chan sweep.Frame, 1)
	frames <- testFrame(1_500_000_000)
	close(frames)

	var buf bytes.Buffer
	c := &CSV{W: &buf}
	require.NoError(t, c.Write(context.Background(), frames))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3) // header plus one row per point
	assert.Equal(t, "Source,Identifier,FreqHz,AmplitudeDbm,TimeUnixMilli", lines[0])
	assert.Equal(t, "arinst,test-id,1500000000,-10.500000,1700000000000", lines[1])
	assert.Equal(t, "arinst,test-id,1501000000,-90.000000,1700000000000", lines[2])
}
