package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/google/uuid"
)

type idKind uint8

const (
	idNone idKind = iota
	idString
	idInt
)

// ID is a request identifier: a JSON string or a JSON integer.
//
// Identifiers are compared structurally over their parsed JSON form, so the
// string "1" and the number 1 are distinct and never coerced into each other.
type ID struct {
	kind idKind
	str  string
	num  int64
}

// StringID builds an identifier from a JSON string value.
func StringID(s string) ID {
	return ID{kind: idString, str: s}
}

// IntID builds an identifier from a JSON integer value.
func IntID(n int64) ID {
	return ID{kind: idInt, num: n}
}

// GenerateID returns a fresh random identifier. Uniqueness against the set of
// currently pending ids is the caller's responsibility; the caller checks the
// pending table and redraws on collision.
func GenerateID() ID {
	return StringID(uuid.NewString())
}

// IsZero reports whether the identifier is absent.
func (id ID) IsZero() bool { return id.kind == idNone }

// Key returns a map key embedding the JSON kind, so structurally distinct
// identifiers never collide.
func (id ID) Key() string {
	switch id.kind {
	case idString:
		return "s:" + id.str
	case idInt:
		return "n:" + strconv.FormatInt(id.num, 10)
	default:
		return ""
	}
}

// String renders the identifier for log output.
func (id ID) String() string {
	switch id.kind {
	case idString:
		return strconv.Quote(id.str)
	case idInt:
		return strconv.FormatInt(id.num, 10)
	default:
		return "(no id)"
	}
}

// MarshalJSON encodes the identifier in its original JSON form.
func (id ID) MarshalJSON() ([]byte, error) {
	switch id.kind {
	case idString:
		return json.Marshal(id.str)
	case idInt:
		return []byte(strconv.FormatInt(id.num, 10)), nil
	default:
		return nil, errors.New("cannot encode an absent request id")
	}
}

var errBadIDType = errors.New("request id must be a JSON string or integer")

// parseID interprets a raw JSON value as an identifier. Only strings and
// integers are accepted.
func parseID(raw json.RawMessage) (ID, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return ID{}, errBadIDType
	}
	switch value := v.(type) {
	case string:
		return StringID(value), nil
	case json.Number:
		n, err := strconv.ParseInt(value.String(), 10, 64)
		if err != nil {
			return ID{}, errBadIDType
		}
		return IntID(n), nil
	default:
		return ID{}, errBadIDType
	}
}
