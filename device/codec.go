package device

import (
	"bytes"
	"strconv"
)

// terminator delimits both requests and response segments on the wire.
var terminator = []byte("\r\n")

// encodeRequest frames a command as ASCII: the wire token, each argument and
// the package index separated by single spaces, CRLF terminated.
func encodeRequest(cmd Command, args []int64, pkgIndex uint64) []byte {
	var b bytes.Buffer
	b.WriteString(commandTable[cmd].token)
	for _, a := range args {
		b.WriteByte(' ')
		b.WriteString(strconv.FormatInt(a, 10))
	}
	b.WriteByte(' ')
	b.WriteString(strconv.FormatUint(pkgIndex, 10))
	b.Write(terminator)
	return b.Bytes()
}

// splitResponse splits raw response bytes into terminator delimited segments
// and each segment into space separated field groups. Empty segments are
// dropped. Field meaning is left to the individual operations.
func splitResponse(raw []byte) [][][]byte {
	var resp [][][]byte
	for _, seg := range bytes.Split(raw, terminator) {
		if len(seg) == 0 {
			continue
		}
		resp = append(resp, bytes.Split(seg, []byte{' '}))
	}
	return resp
}

// firstTokenIs reports whether the first token of a field group equals s.
func firstTokenIs(group [][]byte, s string) bool {
	return len(group) > 0 && string(group[0]) == s
}
