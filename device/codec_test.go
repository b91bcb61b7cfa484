package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeRequest(t *testing.T) {
	for _, tc := range []struct {
		name     string
		cmd      Command
		args     []int64
		pkgIndex uint64
		want     string
	}{
		{name: "no args", cmd: CmdGeneratorOn, pkgIndex: 0, want: "gon 0\r\n"},
		{name: "single arg", cmd: CmdSetFrequency, args: []int64{1000000}, pkgIndex: 7, want: "scf 1000000 7\r\n"},
		{
			name:     "scan args in order",
			cmd:      CmdScanRange,
			args:     []int64{1500000000, 1700000000, 1000000, 200, 20, 10700000, 10000},
			pkgIndex: 42,
			want:     "scn20 1500000000 1700000000 1000000 200 20 10700000 10000 42\r\n",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, []byte(tc.want), encodeRequest(tc.cmd, tc.args, tc.pkgIndex))
		})
	}
}

func TestSplitResponse(t *testing.T) {
	raw := []byte("scn20 3\r\nabc def\r\n\r\ncomplete 3\r\n")
	resp := splitResponse(raw)

	// The empty segment between the consecutive terminators is dropped.
	require.Len(t, resp, 3)
	assert.Equal(t, [][]byte{[]byte("scn20"), []byte("3")}, resp[0])
	assert.Equal(t, [][]byte{[]byte("abc"), []byte("def")}, resp[1])
	assert.Equal(t, [][]byte{[]byte("complete"), []byte("3")}, resp[2])
}

func TestSplitResponseBinarySegment(t *testing.T) {
	raw := append([]byte("scn20 0\r\n"), 0x03, 0x21, 0x03, 0x21, '\r', '\n')
	raw = append(raw, []byte("complete 0\r\n")...)
	resp := splitResponse(raw)

	require.Len(t, resp, 3)
	assert.Equal(t, []byte{0x03, 0x21, 0x03, 0x21}, resp[1][0])
}

func TestCommandTableIsComplete(t *testing.T) {
	for cmd := Command(0); cmd < numCommands; cmd++ {
		spec := commandTable[cmd]
		assert.NotEmpty(t, spec.token, "command %d has no wire token", cmd)
		assert.Greater(t, spec.segments, 0, "command %d has no segment count", cmd)
	}
}
