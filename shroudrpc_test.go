package shroud_test

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"shroud"
	"shroud/internal/testsupport"
)

func mustConnect(t *testing.T, daemon *testsupport.Daemon) *shroud.Conn {
	t.Helper()
	c, err := shroud.Connect(daemon.Descriptor())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func statusOf(t *testing.T, err error) shroud.Status {
	t.Helper()
	var rpcErr *shroud.Error
	if !errors.As(err, &rpcErr) {
		t.Fatalf("error %v is not a *shroud.Error", err)
	}
	return rpcErr.Status()
}

func TestConnectAndExecute(t *testing.T) {
	daemon := testsupport.StartDaemon(t, testsupport.WithHandler(func(p *testsupport.Peer, req testsupport.Request) {
		p.Reply(req, map[string]any{"method": req.Method()})
	}))
	c := mustConnect(t, daemon)

	response, err := c.Execute(`{"obj":"session","method":"shroud:get_info"}`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	var body struct {
		ID     string `json:"id"`
		Result struct {
			Method string `json:"method"`
		} `json:"result"`
	}
	if err := json.Unmarshal([]byte(response), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if body.ID == "" {
		t.Fatal("response lost the generated request id")
	}
	if body.Result.Method != "shroud:get_info" {
		t.Fatalf("unexpected result %q", body.Result.Method)
	}
}

func TestConnectMalformedDescriptor(t *testing.T) {
	c, err := shroud.Connect("not a descriptor at all")
	if c != nil {
		t.Fatal("got a connection from a malformed descriptor")
	}
	if st := statusOf(t, err); st != shroud.StatusInvalidInput {
		t.Fatalf("expected InvalidInput, got %v", st)
	}
}

func TestConnectDeadAddress(t *testing.T) {
	c, err := shroud.Connect("unix:" + filepath.Join(t.TempDir(), "nobody-home.sock"))
	if c != nil {
		t.Fatal("got a connection without a daemon")
	}
	if st := statusOf(t, err); st != shroud.StatusConnectIo {
		t.Fatalf("expected ConnectIo, got %v", st)
	}
}

func TestConnectAuthRejected(t *testing.T) {
	daemon := testsupport.StartDaemon(t, testsupport.WithAuthRejection())

	c, err := shroud.Connect(daemon.Descriptor())
	if c != nil {
		t.Fatal("got a connection despite auth rejection")
	}
	var rpcErr *shroud.Error
	if !errors.As(err, &rpcErr) {
		t.Fatalf("error %v is not a *shroud.Error", err)
	}
	if rpcErr.Status() != shroud.StatusBadAuth {
		t.Fatalf("expected BadAuth, got %v", rpcErr.Status())
	}
	payload, ok := rpcErr.Response()
	if !ok {
		t.Fatal("auth rejection must carry the peer payload")
	}
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(payload), &body); err != nil || body.Error.Message != "authentication rejected" {
		t.Fatalf("unexpected rejection payload %s", payload)
	}
}

func TestConnectSchemeUnavailable(t *testing.T) {
	daemon := testsupport.StartDaemon(t, testsupport.WithSchemes("auth:cookie"))

	c, err := shroud.Connect(daemon.Descriptor())
	if c != nil {
		t.Fatal("got a connection without a usable auth scheme")
	}
	if st := statusOf(t, err); st != shroud.StatusNotSupported {
		t.Fatalf("expected NotSupported, got %v", st)
	}
}

func TestExecuteRequestFailure(t *testing.T) {
	daemon := testsupport.StartDaemon(t, testsupport.WithHandler(func(p *testsupport.Peer, req testsupport.Request) {
		p.ReplyError(req, "no such object", 404)
	}))
	c := mustConnect(t, daemon)

	_, err := c.Execute(`{"obj":"missing","method":"x"}`)
	if st := statusOf(t, err); st != shroud.StatusRequestFailed {
		t.Fatalf("expected RequestFailed, got %v", st)
	}
}

func TestExecuteAfterClose(t *testing.T) {
	daemon := testsupport.StartDaemon(t)
	c := mustConnect(t, daemon)

	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	_, err := c.Execute(`{"method":"late"}`)
	if st := statusOf(t, err); st != shroud.StatusShutdown {
		t.Fatalf("expected Shutdown after close, got %v", st)
	}
}

func TestExecuteRejectsInvalidUTF8(t *testing.T) {
	daemon := testsupport.StartDaemon(t)
	c := mustConnect(t, daemon)

	_, err := c.Execute("{\"method\":\"\xff\"}")
	if st := statusOf(t, err); st != shroud.StatusInvalidInput {
		t.Fatalf("expected InvalidInput, got %v", st)
	}
}

func TestNilConnIsSafe(t *testing.T) {
	var c *shroud.Conn
	if err := c.Close(); err != nil {
		t.Fatalf("Close on nil: %v", err)
	}
	_, err := c.Execute(`{"method":"x"}`)
	if st := statusOf(t, err); st != shroud.StatusInvalidInput {
		t.Fatalf("expected InvalidInput on nil conn, got %v", st)
	}
}
