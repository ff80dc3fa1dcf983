package shroud

import (
	"log/slog"
	"time"
	"unicode/utf8"

	"shroud/internal/auth"
	"shroud/internal/conn"
	"shroud/internal/connpt"
	"shroud/internal/rpcerr"
	"shroud/internal/status"
	"shroud/internal/transport"
	"shroud/internal/wire"
)

// Status identifies the broad class of an operation's outcome. The numeric
// codes are stable across releases.
type Status = status.Status

const (
	StatusSuccess               = status.Success
	StatusInvalidInput          = status.InvalidInput
	StatusNotSupported          = status.NotSupported
	StatusConnectIo             = status.ConnectIo
	StatusBadAuth               = status.BadAuth
	StatusPeerProtocolViolation = status.PeerProtocolViolation
	StatusShutdown              = status.Shutdown
	StatusInternal              = status.Internal
	StatusRequestFailed         = status.RequestFailed
	StatusRequestCancelled      = status.RequestCancelled
)

// Error is the structured error type returned by every operation in this
// module. It carries a Status and, when the failure originated in an explicit
// peer reply, the literal response text.
type Error = rpcerr.Error

// Option adjusts connection establishment.
type Option func(*options)

type options struct {
	logger      *slog.Logger
	dialTimeout time.Duration
}

// WithLogger routes the connection's diagnostics to logger. The default
// discards all output.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithDialTimeout bounds transport establishment. Zero or negative restores
// the default.
func WithDialTimeout(d time.Duration) Option {
	return func(o *options) { o.dialTimeout = d }
}

// Conn is a live, authenticated connection to the daemon. It is safe for
// concurrent use by multiple goroutines.
type Conn struct {
	engine *conn.Conn
}

// Connect parses descriptor, opens the transport it describes, and runs the
// authentication handshake. The returned connection is ready for Execute.
// On any failure no connection is returned and the underlying stream is
// closed.
func Connect(descriptor string, opts ...Option) (*Conn, error) {
	var cfg options
	for _, opt := range opts {
		opt(&cfg)
	}

	pt, err := connpt.Parse(descriptor)
	if err != nil {
		return nil, err
	}
	nc, err := transport.Open(pt, cfg.dialTimeout)
	if err != nil {
		return nil, err
	}
	stream := wire.NewStream(nc)
	if err := auth.Authenticate(stream, pt, cfg.logger); err != nil {
		_ = nc.Close()
		return nil, err
	}
	return &Conn{engine: conn.New(nc, stream, cfg.logger)}, nil
}

// Execute sends one request and blocks until its reply arrives or the
// connection fails. The request must be a complete JSON object; if it has no
// id, one is generated and injected. On success the full raw response text is
// returned, including the id and result fields.
func (c *Conn) Execute(request string) (string, error) {
	if c == nil || c.engine == nil {
		return "", rpcerr.New(status.InvalidInput, "connection is nil")
	}
	if !utf8.ValidString(request) {
		return "", rpcerr.New(status.InvalidInput, "request is not valid UTF-8")
	}
	return c.engine.Execute(request)
}

// Close tears the connection down. Pending requests resolve with Shutdown.
// Close is idempotent and safe to call concurrently with Execute.
func (c *Conn) Close() error {
	if c == nil || c.engine == nil {
		return nil
	}
	return c.engine.Close()
}
