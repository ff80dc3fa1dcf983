//go:build linux

package transport

import (
	"net"
	"os"

	"golang.org/x/sys/unix"

	"shroud/internal/rpcerr"
	"shroud/internal/status"
)

const peerCredSupported = true

// verifyPeerUID checks over SO_PEERCRED that the listening daemon runs as
// the same uid as this process. A mismatch means we connected to a socket we
// should not trust.
func verifyPeerUID(nc net.Conn) error {
	uc, ok := nc.(*net.UnixConn)
	if !ok {
		return rpcerr.New(status.Internal, "peer uid verification requires a unix socket")
	}
	raw, err := uc.SyscallConn()
	if err != nil {
		return rpcerr.Wrap(status.ConnectIo, "access socket descriptor", err)
	}

	var cred *unix.Ucred
	var credErr error
	ctrlErr := raw.Control(func(fd uintptr) {
		cred, credErr = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	})
	if ctrlErr != nil {
		return rpcerr.Wrap(status.ConnectIo, "read peer credentials", ctrlErr)
	}
	if credErr != nil {
		return rpcerr.Wrap(status.ConnectIo, "read peer credentials", credErr)
	}

	if int(cred.Uid) != os.Getuid() {
		return rpcerr.Newf(status.ConnectIo, "daemon socket is owned by uid %d, expected %d", cred.Uid, os.Getuid())
	}
	return nil
}
