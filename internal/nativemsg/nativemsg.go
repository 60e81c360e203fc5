// Package nativemsg implements the browser native-messaging wire format.
//
// Every message is a frame: a 4-byte unsigned length in little-endian byte
// order followed by that many bytes of UTF-8 encoded JSON. The host reads one
// frame from stdin and answers with one frame on stdout.
package nativemsg

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"unicode/utf8"
)

// MaxFrameSize is the largest payload the length prefix can describe.
const MaxFrameSize = math.MaxUint32

// prefixSize is the size of the length prefix in bytes.
const prefixSize = 4

// preallocLimit caps the buffer reserved up front for a payload. Larger
// payloads grow the buffer as bytes actually arrive.
const preallocLimit = 1 << 20

var (
	// ErrNoMessage means the stream closed before any byte of a frame arrived.
	// The browser uses this to signal there is nothing more to read.
	ErrNoMessage = errors.New("no message")
	// ErrTruncated means the stream ended inside a frame.
	ErrTruncated = errors.New("truncated frame")
	// ErrMalformed means the payload is not a UTF-8 JSON object.
	ErrMalformed = errors.New("malformed message")
	// ErrTooLarge means a payload does not fit the 32-bit length prefix.
	ErrTooLarge = errors.New("frame too large")
)

// Request is the message the extension sends to the host.
type Request struct {
	URL string `json:"url,omitempty"`

	// Fields holds every top-level field of the decoded message.
	Fields map[string]any `json:"-"`
}

// Response is the message the host sends back. Error is only set when
// Success is false.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Success returns the response reporting that the request was accepted.
func Success() Response {
	return Response{Success: true}
}

// Failure returns a failed response carrying msg.
func Failure(msg string) Response {
	return Response{Success: false, Error: msg}
}

type flusher interface {
	Flush() error
}

// ReadFrame reads one length-prefixed frame from r and returns its payload.
func ReadFrame(r io.Reader) ([]byte, error) {
	var prefix [prefixSize]byte
	n, err := io.ReadFull(r, prefix[:])
	switch {
	case n == 0 && errors.Is(err, io.EOF):
		return nil, ErrNoMessage
	case errors.Is(err, io.ErrUnexpectedEOF):
		return nil, fmt.Errorf("%w: length prefix has %d of %d bytes", ErrTruncated, n, prefixSize)
	case err != nil:
		return nil, fmt.Errorf("read length prefix: %w", err)
	}

	size := binary.LittleEndian.Uint32(prefix[:])
	var buf bytes.Buffer
	if size <= preallocLimit {
		buf.Grow(int(size))
	}
	got, err := io.CopyN(&buf, r, int64(size))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: payload has %d of %d bytes", ErrTruncated, got, size)
		}
		return nil, fmt.Errorf("read payload: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFrame writes payload to w behind its length prefix. Prefix and payload
// go out in a single write, and w is flushed when it supports flushing.
func WriteFrame(w io.Writer, payload []byte) error {
	if uint64(len(payload)) > MaxFrameSize {
		return fmt.Errorf("%w: %d bytes", ErrTooLarge, len(payload))
	}

	frame := make([]byte, prefixSize+len(payload))
	binary.LittleEndian.PutUint32(frame, uint32(len(payload)))
	copy(frame[prefixSize:], payload)

	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	if f, ok := w.(flusher); ok {
		if err := f.Flush(); err != nil {
			return fmt.Errorf("flush frame: %w", err)
		}
	}
	return nil
}

// ReadMessage reads one frame and decodes its JSON payload into v.
func ReadMessage(r io.Reader, v any) error {
	payload, err := ReadFrame(r)
	if err != nil {
		return err
	}
	if !utf8.Valid(payload) {
		return fmt.Errorf("%w: payload is not valid UTF-8", ErrMalformed)
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// WriteMessage encodes v as JSON and writes it as one frame.
func WriteMessage(w io.Writer, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	return WriteFrame(w, payload)
}

// ReadRequest reads one frame and decodes it as a Request. The payload must
// be a JSON object. A url field that is missing or not a string leaves URL
// empty.
func ReadRequest(r io.Reader) (*Request, error) {
	var fields map[string]any
	if err := ReadMessage(r, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: payload is null", ErrMalformed)
	}

	req := &Request{Fields: fields}
	if url, ok := fields["url"].(string); ok {
		req.URL = url
	}
	return req, nil
}

// WriteResponse writes resp as one frame.
func WriteResponse(w io.Writer, resp Response) error {
	return WriteMessage(w, resp)
}
