package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"
)

// ResponseKind classifies an incoming message by its distinguishing member.
type ResponseKind uint8

const (
	// KindResult is a final successful reply.
	KindResult ResponseKind = iota
	// KindError is an error reply; without an id it is connection-fatal.
	KindError
	// KindUpdate is an incremental progress message for a running request.
	KindUpdate
)

// Response is a parsed incoming message.
type Response struct {
	// ID is the identifier the message carried, if any.
	ID ID
	// HasID reports whether an identifier was present.
	HasID bool
	// Kind reports which of result, error, or update the message carries.
	Kind ResponseKind
	// Raw is the message exactly as received, suitable for handing to the
	// caller or embedding in an error.
	Raw string
}

// ParseResponse interprets one incoming JSON value as a protocol message.
// A returned error means the peer violated the protocol shape.
func ParseResponse(raw json.RawMessage) (*Response, error) {
	// The JSON decoder tolerates raw non-UTF-8 bytes inside strings, but Raw
	// is handed to callers as text and must stay valid UTF-8.
	if !utf8.Valid(raw) {
		return nil, errors.New("message is not valid UTF-8")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("message is not a JSON object: %w", err)
	}
	if fields == nil {
		return nil, errors.New("message is not a JSON object")
	}

	resp := &Response{Raw: string(bytes.TrimSpace(raw))}

	var kinds []ResponseKind
	if _, ok := fields["result"]; ok {
		kinds = append(kinds, KindResult)
	}
	if _, ok := fields["error"]; ok {
		kinds = append(kinds, KindError)
	}
	if _, ok := fields["update"]; ok {
		kinds = append(kinds, KindUpdate)
	}
	if len(kinds) != 1 {
		return nil, fmt.Errorf("message must carry exactly one of result, error, or update; found %d", len(kinds))
	}
	resp.Kind = kinds[0]

	if rawID, ok := fields["id"]; ok {
		id, err := parseID(rawID)
		if err != nil {
			return nil, fmt.Errorf("message id is invalid: %w", err)
		}
		resp.ID = id
		resp.HasID = true
	}
	return resp, nil
}
