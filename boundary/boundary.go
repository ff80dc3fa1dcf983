package boundary

import (
	"sync"
	"unicode/utf8"

	"shroud"
	"shroud/internal/rpcerr"
	"shroud/internal/status"
)

// Status is the numeric outcome code accompanying every operation.
type Status = shroud.Status

// Conn is an opaque handle to an authenticated connection.
type Conn struct {
	mu       sync.Mutex
	released bool
	conn     *shroud.Conn
}

// Str is an opaque handle to a string produced by the library, such as a raw
// response.
type Str struct {
	mu       sync.Mutex
	released bool
	text     string
}

// Err is an opaque handle to a structured failure report.
type Err struct {
	mu       sync.Mutex
	released bool
	err      *rpcerr.Error
}

// Connect establishes and authenticates a connection from a descriptor. On
// success the connection handle is non-nil and the error handle is nil; on
// failure the reverse holds.
func Connect(descriptor string) (Status, *Conn, *Err) {
	if !utf8.ValidString(descriptor) {
		e := rpcerr.New(status.InvalidInput, "descriptor is not valid UTF-8")
		return e.Status(), nil, &Err{err: e}
	}
	c, err := shroud.Connect(descriptor)
	if err != nil {
		e := rpcerr.From(err)
		return e.Status(), nil, &Err{err: e}
	}
	return status.Success, &Conn{conn: c}, nil
}

// Execute runs one request on the connection and returns the raw response as
// a string handle.
func Execute(c *Conn, request string) (Status, *Str, *Err) {
	cc, useErr := c.use()
	if useErr != nil {
		return useErr.Status(), nil, &Err{err: useErr}
	}
	response, err := cc.Execute(request)
	if err != nil {
		e := rpcerr.From(err)
		return e.Status(), nil, &Err{err: e}
	}
	return status.Success, &Str{text: response}, nil
}

func (c *Conn) use() (*shroud.Conn, *rpcerr.Error) {
	if c == nil {
		return nil, rpcerr.New(status.InvalidInput, "connection handle is nil")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return nil, rpcerr.New(status.InvalidInput, "connection handle was released")
	}
	return c.conn, nil
}

// ReleaseConn closes the connection and invalidates the handle. Nil and
// already-released handles are no-ops.
func ReleaseConn(c *Conn) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return
	}
	c.released = true
	_ = c.conn.Close()
	c.conn = nil
}

// ReleaseStr invalidates a string handle. Nil and already-released handles
// are no-ops.
func ReleaseStr(s *Str) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released = true
	s.text = ""
}

// ReleaseErr invalidates an error handle. Nil and already-released handles
// are no-ops.
func ReleaseErr(e *Err) {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.released = true
	e.err = nil
}

// CloneErr returns an independent copy of an error handle, or nil when the
// handle is nil or released. The clone outlives the original.
func CloneErr(e *Err) *Err {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.released {
		return nil
	}
	return &Err{err: e.err.Clone()}
}

// ErrStatus returns the status carried by an error handle. A nil or released
// handle reports InvalidInput: asking a missing error for its status is
// itself a caller mistake.
func ErrStatus(e *Err) Status {
	if e == nil {
		return status.InvalidInput
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.released {
		return status.InvalidInput
	}
	return e.err.Status()
}

// ErrMessage returns the human-readable message of an error handle.
func ErrMessage(e *Err) (string, bool) {
	if e == nil {
		return "", false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.released {
		return "", false
	}
	return e.err.Error(), true
}

// ErrResponse returns the literal peer-supplied JSON payload behind an error
// handle, when the failure came from an explicit peer reply.
func ErrResponse(e *Err) (string, bool) {
	if e == nil {
		return "", false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.released {
		return "", false
	}
	return e.err.Response()
}

// StrBytes returns a copy of the bytes behind a string handle. The copy stays
// valid after the handle is released.
func StrBytes(s *Str) ([]byte, bool) {
	if s == nil {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return nil, false
	}
	return []byte(s.text), true
}

// StatusName returns the fixed human-readable name for a status code. The
// result is non-empty for every input, including unknown codes.
func StatusName(st Status) string {
	return st.String()
}
