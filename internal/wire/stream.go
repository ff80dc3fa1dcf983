package wire

import (
	"encoding/json"
	"errors"
	"io"
)

// Stream frames one JSON value per logical message over a byte stream.
//
// Outgoing messages are newline-terminated and written with a single Write
// call so concurrent writers (serialized by the connection) never interleave
// partial messages. Incoming messages are split by the JSON decoder itself,
// so any whitespace framing from the peer is accepted.
type Stream struct {
	dec *json.Decoder
	w   io.Writer
}

// NewStream wraps a byte stream. The read half belongs to whoever drives
// ReadMessage; the decoder buffers internally, so nothing else may read from
// rw once the stream is created.
func NewStream(rw io.ReadWriter) *Stream {
	return &Stream{dec: json.NewDecoder(rw), w: rw}
}

// ReadMessage reads the next JSON value from the stream.
func (s *Stream) ReadMessage() (json.RawMessage, error) {
	var raw json.RawMessage
	if err := s.dec.Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// WriteMessage writes one message followed by a newline in a single call.
func (s *Stream) WriteMessage(msg []byte) error {
	framed := make([]byte, 0, len(msg)+1)
	framed = append(framed, msg...)
	framed = append(framed, '\n')
	_, err := s.w.Write(framed)
	return err
}

// IsSyntaxError reports whether a ReadMessage failure indicates malformed
// JSON from the peer rather than a stream-level failure such as EOF or reset.
func IsSyntaxError(err error) bool {
	var syntax *json.SyntaxError
	var unmarshalType *json.UnmarshalTypeError
	return errors.As(err, &syntax) || errors.As(err, &unmarshalType)
}
