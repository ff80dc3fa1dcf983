package transport

import (
	"net"
	"time"

	"shroud/internal/connpt"
	"shroud/internal/rpcerr"
	"shroud/internal/status"
)

// DefaultDialTimeout bounds connection establishment when the caller does not
// supply a timeout.
const DefaultDialTimeout = 2 * time.Second

// Open establishes the byte stream described by pt. The returned connection
// is open but not yet authenticated.
func Open(pt *connpt.ConnPt, timeout time.Duration) (net.Conn, error) {
	if pt == nil {
		return nil, rpcerr.New(status.InvalidInput, "connection point is nil")
	}
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}
	if pt.RequirePeerUID && !peerCredSupported {
		return nil, rpcerr.New(status.NotSupported, "peer uid verification is not supported on this platform")
	}

	var network string
	switch pt.Scheme {
	case connpt.SchemeUnix:
		network = "unix"
	case connpt.SchemeInet:
		network = "tcp"
	default:
		return nil, rpcerr.Newf(status.NotSupported, "connection scheme %q is not supported", pt.Scheme)
	}

	nc, err := net.DialTimeout(network, pt.Addr, timeout)
	if err != nil {
		return nil, rpcerr.Wrap(status.ConnectIo, "dial daemon", err)
	}

	if pt.RequirePeerUID {
		if err := verifyPeerUID(nc); err != nil {
			_ = nc.Close()
			return nil, err
		}
	}
	return nc, nil
}
