package wire

import (
	"encoding/json"
	"strings"

	"shroud/internal/rpcerr"
	"shroud/internal/status"
)

// Request is a validated outgoing request.
//
// When the caller supplied an id, the original text is written verbatim.
// When the id was generated, the object is re-encoded with the id injected;
// all other fields pass through untouched.
type Request struct {
	id        ID
	generated bool
	fields    map[string]json.RawMessage
	verbatim  string
}

// ParseRequest validates that text is a single JSON object with an id of a
// supported type. It performs no I/O and registers nothing; malformed input
// fails with InvalidInput.
func ParseRequest(text string) (*Request, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	var fields map[string]json.RawMessage
	if err := dec.Decode(&fields); err != nil {
		return nil, rpcerr.Wrap(status.InvalidInput, "request is not a JSON object", err)
	}
	if fields == nil {
		return nil, rpcerr.New(status.InvalidInput, "request is not a JSON object")
	}
	if dec.More() {
		return nil, rpcerr.New(status.InvalidInput, "request has trailing data after the JSON object")
	}

	req := &Request{fields: fields, verbatim: text}
	if rawID, ok := fields["id"]; ok {
		id, err := parseID(rawID)
		if err != nil {
			return nil, rpcerr.Wrap(status.InvalidInput, "request id is invalid", err)
		}
		req.id = id
	}
	return req, nil
}

// HasID reports whether the caller supplied an identifier.
func (r *Request) HasID() bool { return !r.id.IsZero() }

// ID returns the request identifier. It is the zero ID until the caller's id
// was parsed or a generated id was assigned.
func (r *Request) ID() ID { return r.id }

// AssignID injects a generated identifier. Only valid on requests parsed
// without one.
func (r *Request) AssignID(id ID) {
	r.id = id
	r.generated = true
}

// Encode returns the exact message bytes to put on the wire.
func (r *Request) Encode() ([]byte, error) {
	if !r.generated {
		return []byte(r.verbatim), nil
	}
	idJSON, err := r.id.MarshalJSON()
	if err != nil {
		return nil, rpcerr.Wrap(status.Internal, "encode request id", err)
	}
	r.fields["id"] = idJSON
	encoded, err := json.Marshal(r.fields)
	if err != nil {
		return nil, rpcerr.Wrap(status.Internal, "encode request", err)
	}
	return encoded, nil
}
