//go:build !linux

package transport

import (
	"net"

	"shroud/internal/rpcerr"
	"shroud/internal/status"
)

const peerCredSupported = false

func verifyPeerUID(net.Conn) error {
	return rpcerr.New(status.NotSupported, "peer uid verification is not supported on this platform")
}
