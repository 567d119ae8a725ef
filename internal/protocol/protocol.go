// Package protocol implements the wire codec for the two P2P-DI message
// families: the peer-registry control protocol and the peer-peer transfer
// protocol. Both are line-oriented text with CRLF line endings and a blank
// line closing the header block. The codec is pure: no I/O, no state.
package protocol

import (
	"errors"
	"strings"
)

// Version is the single supported protocol version. Requests carrying any
// other version token are answered with 505.
const Version = "P2P-DI/1.0"

const (
	crlf       = "\r\n"
	docKeyword = "DOC"
	allKeyword = "ALL"
)

// ErrMalformed is returned for any structurally invalid message. Parse
// functions never return a partially populated result alongside it.
var ErrMalformed = errors.New("malformed message")

// splitMessage breaks a message into its first line and a header map.
// Header lines are "Key: Value" with the value trimmed; a header line
// without a colon fails the whole message. Parsing stops at the first
// empty line.
func splitMessage(text string) (string, map[string]string, bool) {
	lines := strings.Split(text, crlf)
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return "", nil, false
	}

	headers := make(map[string]string)
	for _, line := range lines[1:] {
		if line == "" {
			break
		}
		key, value, found := strings.Cut(line, ":")
		if !found {
			return "", nil, false
		}
		headers[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	return strings.TrimSpace(lines[0]), headers, true
}
