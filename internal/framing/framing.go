// Package framing accumulates raw bytes from a connection into complete
// protocol messages. It knows nothing about message contents beyond the
// CRLFCRLF marker that closes a header block.
package framing

import (
	"bytes"
	"errors"
	"io"
)

const bufferSize = 4096

// Marker closes a header block in both protocols.
var Marker = []byte("\r\n\r\n")

// ErrStreamClosed reports that the connection closed before a complete
// message arrived. Session loops treat it as a normal disconnect.
var ErrStreamClosed = errors.New("stream closed")

// ReadMessage reads until the marker appears and returns everything read
// so far, marker included. Bytes past the marker, if the peer pipelined
// anything, are returned too.
func ReadMessage(r io.Reader) ([]byte, error) {
	buf := make([]byte, 0, bufferSize)
	chunk := make([]byte, bufferSize)
	for {
		n, err := r.Read(chunk)
		buf = append(buf, chunk[:n]...)
		if bytes.Contains(buf, Marker) {
			return buf, nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, ErrStreamClosed
			}
			return nil, err
		}
	}
}

// ReadControlResponse reads a full control response: the header block up
// to the first marker, then the record block up to its terminating blank
// line. A zero-record response ends right after the marker with a single
// lone CRLF, so the second pass must not block waiting for more.
func ReadControlResponse(r io.Reader) ([]byte, error) {
	buf, err := ReadMessage(r)
	if err != nil {
		return nil, err
	}

	head, rest, _ := bytes.Cut(buf, Marker)

	chunk := make([]byte, bufferSize)
	for !bytes.Contains(rest, Marker) {
		if bytes.Equal(rest, []byte("\r\n")) {
			break
		}
		n, err := r.Read(chunk)
		rest = append(rest, chunk[:n]...)
		if err != nil {
			break
		}
	}

	out := make([]byte, 0, len(head)+len(Marker)+len(rest))
	out = append(out, head...)
	out = append(out, Marker...)
	out = append(out, rest...)
	return out, nil
}

// ReadBytes reads exactly n bytes or fails with the first read error.
func ReadBytes(r io.Reader, n int) ([]byte, error) {
	result := make([]byte, 0, n)
	for len(result) < n {
		buff := make([]byte, n-len(result))
		read, err := r.Read(buff)
		result = append(result, buff[:read]...)
		if err != nil && len(result) < n {
			return nil, err
		}
	}
	return result, nil
}
