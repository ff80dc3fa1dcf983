package auth_test

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"shroud/internal/auth"
	"shroud/internal/connpt"
	"shroud/internal/rpcerr"
	"shroud/internal/status"
	"shroud/internal/wire"
)

// peer is the scripted daemon side of an in-memory handshake.
type peer struct {
	t   *testing.T
	dec *json.Decoder
	c   net.Conn
}

func (p *peer) read() map[string]json.RawMessage {
	p.t.Helper()
	var req map[string]json.RawMessage
	if err := p.dec.Decode(&req); err != nil {
		p.t.Errorf("peer read: %v", err)
		return nil
	}
	return req
}

func (p *peer) send(v any) {
	p.t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		p.t.Errorf("peer encode: %v", err)
		return
	}
	if _, err := p.c.Write(append(raw, '\n')); err != nil {
		p.t.Errorf("peer write: %v", err)
	}
}

func (p *peer) sendRaw(text string) {
	p.t.Helper()
	if _, err := io.WriteString(p.c, text); err != nil {
		p.t.Errorf("peer write: %v", err)
	}
}

func (p *peer) offerSchemes(schemes ...string) {
	p.t.Helper()
	req := p.read()
	if req == nil {
		return
	}
	p.send(map[string]any{
		"id":     json.RawMessage(req["id"]),
		"result": map[string]any{"schemes": schemes},
	})
}

// runHandshake drives auth.Authenticate against a scripted peer and returns
// the client-side outcome.
func runHandshake(t *testing.T, pt *connpt.ConnPt, script func(p *peer)) error {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() {
		client.Close()
		server.Close()
	})

	peerDone := make(chan struct{})
	go func() {
		defer close(peerDone)
		defer server.Close()
		script(&peer{t: t, dec: json.NewDecoder(server), c: server})
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- auth.Authenticate(wire.NewStream(client), pt, nil)
	}()

	select {
	case err := <-errCh:
		<-peerDone
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("handshake timed out")
		return nil
	}
}

func TestAuthenticateNone(t *testing.T) {
	pt := &connpt.ConnPt{Scheme: connpt.SchemeUnix, Addr: "/x", Auth: connpt.AuthNone}
	err := runHandshake(t, pt, func(p *peer) {
		p.offerSchemes("auth:none", "auth:cookie")
		req := p.read()
		if req == nil {
			return
		}
		var params struct {
			Scheme string `json:"scheme"`
		}
		_ = json.Unmarshal(req["params"], &params)
		if params.Scheme != "auth:none" {
			t.Errorf("expected auth:none scheme, got %q", params.Scheme)
		}
		p.send(map[string]any{
			"id":     json.RawMessage(req["id"]),
			"result": map[string]any{"session": "sess-1"},
		})
	})
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
}

func TestAuthenticateCookie(t *testing.T) {
	cookiePath := filepath.Join(t.TempDir(), "rpc.cookie")
	secret := []byte("very secret cookie bytes")
	if err := os.WriteFile(cookiePath, secret, 0o600); err != nil {
		t.Fatalf("write cookie: %v", err)
	}

	pt := &connpt.ConnPt{Scheme: connpt.SchemeUnix, Addr: "/x", Auth: connpt.AuthCookie, CookiePath: cookiePath}
	err := runHandshake(t, pt, func(p *peer) {
		p.offerSchemes("auth:cookie")
		req := p.read()
		if req == nil {
			return
		}
		var params struct {
			Scheme string `json:"scheme"`
			Cookie string `json:"cookie"`
		}
		_ = json.Unmarshal(req["params"], &params)
		if params.Scheme != "auth:cookie" {
			t.Errorf("expected auth:cookie scheme, got %q", params.Scheme)
		}
		if params.Cookie != base64.StdEncoding.EncodeToString(secret) {
			t.Errorf("cookie credential does not match the cookie file")
		}
		p.send(map[string]any{
			"id":     json.RawMessage(req["id"]),
			"result": map[string]any{"session": "sess-2"},
		})
	})
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
}

func TestAuthenticateRejectionIsBadAuthWithPayload(t *testing.T) {
	pt := &connpt.ConnPt{Scheme: connpt.SchemeUnix, Addr: "/x", Auth: connpt.AuthNone}
	err := runHandshake(t, pt, func(p *peer) {
		p.offerSchemes("auth:none")
		req := p.read()
		if req == nil {
			return
		}
		p.send(map[string]any{
			"id":    json.RawMessage(req["id"]),
			"error": map[string]any{"message": "credentials rejected", "code": 13},
		})
	})
	if err == nil {
		t.Fatal("expected rejection")
	}
	if st := rpcerr.StatusOf(err); st != status.BadAuth {
		t.Fatalf("expected BadAuth, got %v", st)
	}
	resp, ok := rpcerr.From(err).Response()
	if !ok {
		t.Fatal("rejection must carry the peer payload")
	}
	var payload struct {
		Error struct {
			Message string `json:"message"`
			Code    int    `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(resp), &payload); err != nil {
		t.Fatalf("carried payload is not JSON: %v", err)
	}
	if payload.Error.Message != "credentials rejected" || payload.Error.Code != 13 {
		t.Fatalf("payload does not match the peer's rejection: %s", resp)
	}
}

func TestAuthenticateSchemeUnavailable(t *testing.T) {
	pt := &connpt.ConnPt{Scheme: connpt.SchemeUnix, Addr: "/x", Auth: connpt.AuthCookie, CookiePath: "/nonexistent"}
	err := runHandshake(t, pt, func(p *peer) {
		p.offerSchemes("auth:none")
	})
	if st := rpcerr.StatusOf(err); st != status.NotSupported {
		t.Fatalf("expected NotSupported, got %v (%v)", st, err)
	}
}

func TestAuthenticateGarbageIsProtocolViolation(t *testing.T) {
	pt := &connpt.ConnPt{Scheme: connpt.SchemeUnix, Addr: "/x", Auth: connpt.AuthNone}
	err := runHandshake(t, pt, func(p *peer) {
		p.read()
		p.sendRaw("this is not json\n")
	})
	if st := rpcerr.StatusOf(err); st != status.PeerProtocolViolation {
		t.Fatalf("expected PeerProtocolViolation, got %v (%v)", st, err)
	}
}

func TestAuthenticateMismatchedReplyIDIsProtocolViolation(t *testing.T) {
	pt := &connpt.ConnPt{Scheme: connpt.SchemeUnix, Addr: "/x", Auth: connpt.AuthNone}
	err := runHandshake(t, pt, func(p *peer) {
		p.read()
		p.send(map[string]any{"id": "someone-else", "result": map[string]any{}})
	})
	if st := rpcerr.StatusOf(err); st != status.PeerProtocolViolation {
		t.Fatalf("expected PeerProtocolViolation, got %v (%v)", st, err)
	}
}

func TestAuthenticatePeerClosesIsConnectIo(t *testing.T) {
	pt := &connpt.ConnPt{Scheme: connpt.SchemeUnix, Addr: "/x", Auth: connpt.AuthNone}
	err := runHandshake(t, pt, func(p *peer) {
		p.read()
	})
	if st := rpcerr.StatusOf(err); st != status.ConnectIo {
		t.Fatalf("expected ConnectIo, got %v (%v)", st, err)
	}
}
