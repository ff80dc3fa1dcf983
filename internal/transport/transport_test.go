package transport_test

import (
	"net"
	"path/filepath"
	"strings"
	"testing"

	"shroud/internal/connpt"
	"shroud/internal/rpcerr"
	"shroud/internal/status"
	"shroud/internal/transport"
)

func TestOpenUnixSocket(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "shroud.sock")
	listener, err := net.Listen("unix", socket)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping unix socket test: %v", err)
		}
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { listener.Close() })

	pt := &connpt.ConnPt{Scheme: connpt.SchemeUnix, Addr: socket, Auth: connpt.AuthNone}
	nc, err := transport.Open(pt, 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	nc.Close()
}

func TestOpenNoListenerIsConnectIo(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "nobody-home.sock")
	pt := &connpt.ConnPt{Scheme: connpt.SchemeUnix, Addr: socket, Auth: connpt.AuthNone}
	_, err := transport.Open(pt, 0)
	if err == nil {
		t.Fatal("expected dial failure")
	}
	if st := rpcerr.StatusOf(err); st != status.ConnectIo {
		t.Fatalf("expected ConnectIo, got %v", st)
	}
}

func TestOpenNilConnPt(t *testing.T) {
	_, err := transport.Open(nil, 0)
	if st := rpcerr.StatusOf(err); st != status.InvalidInput {
		t.Fatalf("expected InvalidInput, got %v", st)
	}
}

func TestOpenUnknownScheme(t *testing.T) {
	pt := &connpt.ConnPt{Scheme: connpt.Scheme("carrier-pigeon"), Addr: "coop"}
	_, err := transport.Open(pt, 0)
	if st := rpcerr.StatusOf(err); st != status.NotSupported {
		t.Fatalf("expected NotSupported, got %v", st)
	}
}
