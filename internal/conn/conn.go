package conn

import (
	"log/slog"
	"net"
	"sync"

	"shroud/internal/logging"
	"shroud/internal/rpcerr"
	"shroud/internal/status"
	"shroud/internal/wire"
)

type state uint8

const (
	stateOpen state = iota
	stateBroken
	stateClosed
)

// outcome is the single resolution of a pending request: exactly one of a
// raw response or an error.
type outcome struct {
	response string
	err      *rpcerr.Error
}

// Conn is a live, authenticated connection to the daemon.
//
// Any number of goroutines may call Execute concurrently; one background
// reader goroutine owns the read half of the stream and routes replies to
// waiting callers by identifier. Writes are serialized so concurrent
// requests never interleave partial message bytes.
type Conn struct {
	nc     net.Conn
	stream *wire.Stream
	logger *slog.Logger

	// writeMu serializes whole-message writes. It is never held while a
	// caller waits for its reply.
	writeMu sync.Mutex

	// mu guards the pending table and the liveness state. Registrations
	// happen only while the state is open, and the failure transition sweeps
	// the table under the same lock, so no registration can be lost.
	mu      sync.Mutex
	pending map[string]chan outcome
	state   state
	fatal   *rpcerr.Error

	readerDone chan struct{}
}

// New wraps an authenticated stream and starts its reader loop. The
// connection takes over the read half of the stream; nothing else may read
// from it afterward.
func New(nc net.Conn, stream *wire.Stream, logger *slog.Logger) *Conn {
	c := &Conn{
		nc:         nc,
		stream:     stream,
		logger:     logging.NewComponentLogger(logger, "conn"),
		pending:    make(map[string]chan outcome),
		readerDone: make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// Execute sends one request and blocks until its reply arrives or the
// connection fails. On success it returns the full raw response text,
// including the id and result fields.
//
// If the request omits an id, a fresh one is generated and injected; a
// caller-supplied id must not collide with a request currently in flight.
func (c *Conn) Execute(request string) (string, error) {
	req, err := wire.ParseRequest(request)
	if err != nil {
		return "", err
	}

	ch := make(chan outcome, 1)

	c.mu.Lock()
	if c.state != stateOpen {
		fatal := c.fatal
		c.mu.Unlock()
		return "", staleFatal(fatal)
	}
	if !req.HasID() {
		for {
			id := wire.GenerateID()
			if _, inUse := c.pending[id.Key()]; !inUse {
				req.AssignID(id)
				break
			}
		}
	} else if _, inUse := c.pending[req.ID().Key()]; inUse {
		c.mu.Unlock()
		return "", rpcerr.Newf(status.InvalidInput, "request id %s is already in use", req.ID())
	}
	key := req.ID().Key()
	c.pending[key] = ch
	c.mu.Unlock()

	msg, err := req.Encode()
	if err != nil {
		c.mu.Lock()
		delete(c.pending, key)
		c.mu.Unlock()
		return "", err
	}

	c.writeMu.Lock()
	writeErr := c.stream.WriteMessage(msg)
	c.writeMu.Unlock()
	if writeErr != nil {
		// A failed write may have left a partial message on the wire; the
		// connection is unusable. The sweep resolves our own entry too.
		c.fail(stateBroken, rpcerr.Wrap(status.Shutdown, "write request", writeErr))
	}

	out := <-ch
	if out.err != nil {
		return "", out.err
	}
	return out.response, nil
}

// Close tears down the connection: the stream is closed, the reader loop is
// stopped, and every still-pending request resolves with Shutdown. Close is
// idempotent and safe to call concurrently with Execute.
func (c *Conn) Close() error {
	c.fail(stateClosed, rpcerr.New(status.Shutdown, "connection closed"))
	<-c.readerDone
	return nil
}

// readLoop is the single reader for this connection. It terminates when the
// stream ends or the connection leaves the open state.
func (c *Conn) readLoop() {
	defer close(c.readerDone)
	for {
		raw, err := c.stream.ReadMessage()
		if err != nil {
			if wire.IsSyntaxError(err) {
				c.fail(stateBroken, rpcerr.Wrap(status.PeerProtocolViolation, "malformed message from peer", err))
			} else {
				c.fail(stateClosed, rpcerr.New(status.Shutdown, "connection closed by peer"))
			}
			return
		}

		resp, perr := wire.ParseResponse(raw)
		if perr != nil {
			c.fail(stateBroken, rpcerr.Wrap(status.PeerProtocolViolation, "invalid message from peer", perr))
			return
		}

		if resp.Kind == wire.KindUpdate {
			c.logger.Debug("dropping update message", logging.String(logging.FieldRequestID, resp.ID.String()))
			continue
		}
		if !resp.HasID {
			if resp.Kind == wire.KindError {
				// A peer-initiated failure not tied to any one request kills
				// the connection; every waiter sees the peer's payload.
				c.fail(stateBroken, rpcerr.WithResponse(status.Shutdown, "peer reported connection-level error", resp.Raw))
				return
			}
			c.logger.Debug("dropping unaddressed message")
			continue
		}

		c.mu.Lock()
		ch, matched := c.pending[resp.ID.Key()]
		if matched {
			delete(c.pending, resp.ID.Key())
		}
		c.mu.Unlock()
		if !matched {
			c.logger.Debug("dropping uncorrelated reply", logging.String(logging.FieldRequestID, resp.ID.String()))
			continue
		}

		switch resp.Kind {
		case wire.KindResult:
			ch <- outcome{response: resp.Raw}
		case wire.KindError:
			ch <- outcome{err: rpcerr.WithResponse(status.RequestFailed, "peer reported request failure", resp.Raw)}
		}
	}
}

// staleFatal derives the error for Execute calls arriving after the
// connection left the open state. The break-time status belongs to the
// requests that were pending at the break; later attempts on the dead
// connection report Shutdown, keeping the original detail in the message.
func staleFatal(fatal *rpcerr.Error) *rpcerr.Error {
	st := fatal.Status()
	if st == status.Shutdown || st == status.Internal {
		return fatal.Clone()
	}
	msg := "connection is no longer usable: " + fatal.Error()
	if resp, ok := fatal.Response(); ok {
		return rpcerr.WithResponse(status.Shutdown, msg, resp)
	}
	return rpcerr.New(status.Shutdown, msg)
}

// fail moves the connection out of the open state exactly once, closes the
// stream, and resolves every pending request with the fatal error. Later
// calls are no-ops, so the transition is idempotent.
func (c *Conn) fail(to state, fatal *rpcerr.Error) {
	c.mu.Lock()
	if c.state != stateOpen {
		c.mu.Unlock()
		return
	}
	c.state = to
	c.fatal = fatal
	swept := c.pending
	c.pending = make(map[string]chan outcome)
	c.mu.Unlock()

	// Each swept channel is buffered and no longer reachable from the table,
	// so exactly one resolution reaches each waiter.
	for _, ch := range swept {
		ch <- outcome{err: fatal.Clone()}
	}
	_ = c.nc.Close()

	if len(swept) > 0 {
		c.logger.Debug("resolved pending requests after connection loss",
			logging.Int("pending_count", len(swept)),
			logging.String("status", fatal.Status().String()))
	}
}
