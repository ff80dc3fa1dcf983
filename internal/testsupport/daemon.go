package testsupport

import (
	"encoding/json"
	"net"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// Request is one decoded message received from a client.
type Request map[string]json.RawMessage

// ID returns the raw id field, which may be a JSON string or integer.
func (r Request) ID() json.RawMessage { return r["id"] }

// Method returns the request method, or "" when the field is missing or
// malformed.
func (r Request) Method() string {
	var method string
	_ = json.Unmarshal(r["method"], &method)
	return method
}

// Peer is the daemon's side of one accepted connection.
type Peer struct {
	t testing.TB
	c net.Conn

	mu sync.Mutex
}

// Send encodes v as a single newline-terminated message.
func (p *Peer) Send(v any) {
	p.t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		p.t.Errorf("daemon encode: %v", err)
		return
	}
	p.SendRaw(string(raw) + "\n")
}

// SendRaw writes text verbatim, letting tests feed the client malformed data.
func (p *Peer) SendRaw(text string) {
	p.t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := p.c.Write([]byte(text)); err != nil && !isClosedErr(err) {
		p.t.Errorf("daemon write: %v", err)
	}
}

// Reply sends a result message for req, echoing its id.
func (p *Peer) Reply(req Request, result any) {
	p.t.Helper()
	p.Send(map[string]any{"id": req.ID(), "result": result})
}

// ReplyError sends an error message for req, echoing its id.
func (p *Peer) ReplyError(req Request, message string, code int) {
	p.t.Helper()
	p.Send(map[string]any{
		"id":    req.ID(),
		"error": map[string]any{"message": message, "code": code},
	})
}

// Close drops the connection from the daemon side.
func (p *Peer) Close() { p.c.Close() }

// Handler services one post-handshake request.
type Handler func(p *Peer, req Request)

// Daemon is a scripted stand-in for the routing daemon, listening on a real
// socket so tests exercise the full connect path: dial, handshake, request
// dispatch.
type Daemon struct {
	t  testing.TB
	ln net.Listener

	socketPath string
	schemes    []string
	rejectAuth bool
	handler    Handler

	wg sync.WaitGroup
}

// DaemonOption adjusts a test daemon's scripted behavior.
type DaemonOption func(*Daemon)

// WithSchemes overrides the auth scheme list the daemon advertises.
func WithSchemes(schemes ...string) DaemonOption {
	return func(d *Daemon) { d.schemes = schemes }
}

// WithAuthRejection makes the daemon reject every authenticate attempt.
func WithAuthRejection() DaemonOption {
	return func(d *Daemon) { d.rejectAuth = true }
}

// WithHandler installs the post-handshake request handler. The default
// handler replies to every request with an empty result.
func WithHandler(fn Handler) DaemonOption {
	return func(d *Daemon) { d.handler = fn }
}

// StartDaemon listens on a fresh socket under t.TempDir and serves scripted
// sessions until the test ends.
func StartDaemon(t testing.TB, opts ...DaemonOption) *Daemon {
	t.Helper()

	d := &Daemon{
		t:          t,
		socketPath: filepath.Join(t.TempDir(), "rpc.sock"),
		schemes:    []string{"auth:none", "auth:cookie"},
		handler: func(p *Peer, req Request) {
			p.Reply(req, map[string]any{})
		},
	}
	for _, opt := range opts {
		opt(d)
	}

	ln, err := net.Listen("unix", d.socketPath)
	if err != nil {
		t.Skipf("listen on unix socket: %v", err)
	}
	d.ln = ln
	t.Cleanup(d.Stop)

	d.wg.Add(1)
	go d.acceptLoop()
	return d
}

// SocketPath returns the path the daemon listens on.
func (d *Daemon) SocketPath() string { return d.socketPath }

// Descriptor returns a shorthand connect descriptor for this daemon.
func (d *Daemon) Descriptor() string { return "unix:" + d.socketPath }

// Stop closes the listener and waits for all sessions to wind down.
func (d *Daemon) Stop() {
	d.ln.Close()
	d.wg.Wait()
}

func (d *Daemon) acceptLoop() {
	defer d.wg.Done()
	for {
		c, err := d.ln.Accept()
		if err != nil {
			return
		}
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.serve(c)
		}()
	}
}

func (d *Daemon) serve(c net.Conn) {
	defer c.Close()

	peer := &Peer{t: d.t, c: c}
	dec := json.NewDecoder(c)
	for {
		var req Request
		if err := dec.Decode(&req); err != nil {
			return
		}
		switch req.Method() {
		case "auth:query":
			peer.Reply(req, map[string]any{"schemes": d.schemes})
		case "auth:authenticate":
			if d.rejectAuth {
				peer.ReplyError(req, "authentication rejected", 13)
				return
			}
			peer.Reply(req, map[string]any{"session": "test-session"})
		default:
			d.handler(peer, req)
		}
	}
}

func isClosedErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "closed")
}
