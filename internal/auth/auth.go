package auth

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"os"
	"slices"

	"shroud/internal/connpt"
	"shroud/internal/logging"
	"shroud/internal/rpcerr"
	"shroud/internal/status"
	"shroud/internal/wire"
)

// Scheme names exchanged during the handshake.
const (
	schemeNone   = "auth:none"
	schemeCookie = "auth:cookie"
)

// Fixed handshake request ids. The handshake runs before the correlator
// exists, so replies are matched sequentially against these.
var (
	queryID        = wire.StringID("auth:query#0")
	authenticateID = wire.StringID("auth:authenticate#0")
)

// Authenticate runs the handshake on a freshly opened stream: query the
// peer's schemes, present credentials for the method the descriptor selected,
// and read the confirmation. It returns only after the peer has accepted us;
// on any failure the caller must discard the stream.
func Authenticate(stream *wire.Stream, pt *connpt.ConnPt, logger *slog.Logger) error {
	logger = logging.NewComponentLogger(logger, "auth")

	schemes, err := querySchemes(stream)
	if err != nil {
		return err
	}

	var want string
	switch pt.Auth {
	case connpt.AuthCookie:
		want = schemeCookie
	default:
		want = schemeNone
	}
	if !slices.Contains(schemes, want) {
		return rpcerr.Newf(status.NotSupported, "peer does not offer authentication scheme %q", want)
	}

	params := map[string]any{"scheme": want}
	if pt.Auth == connpt.AuthCookie {
		cookie, err := os.ReadFile(pt.CookiePath)
		if err != nil {
			return rpcerr.Wrap(status.ConnectIo, "read cookie file", err)
		}
		params["cookie"] = base64.StdEncoding.EncodeToString(cookie)
	}

	resp, err := roundTrip(stream, authenticateID, "auth:authenticate", params)
	if err != nil {
		return err
	}
	if resp.Kind != wire.KindResult {
		return rpcerr.WithResponse(status.BadAuth, "peer rejected authentication", resp.Raw)
	}

	logger.Debug("authenticated", logging.String("scheme", want))
	return nil
}

func querySchemes(stream *wire.Stream) ([]string, error) {
	resp, err := roundTrip(stream, queryID, "auth:query", map[string]any{})
	if err != nil {
		return nil, err
	}
	if resp.Kind != wire.KindResult {
		return nil, rpcerr.WithResponse(status.BadAuth, "peer rejected authentication query", resp.Raw)
	}

	var body struct {
		Result struct {
			Schemes []string `json:"schemes"`
		} `json:"result"`
	}
	if err := json.Unmarshal([]byte(resp.Raw), &body); err != nil {
		return nil, rpcerr.Wrap(status.PeerProtocolViolation, "malformed scheme listing", err)
	}
	if len(body.Result.Schemes) == 0 {
		return nil, rpcerr.New(status.PeerProtocolViolation, "peer offered no authentication schemes")
	}
	return body.Result.Schemes, nil
}

// roundTrip writes one handshake request and reads its reply. The reply must
// be a final response carrying the request's id; anything else is a protocol
// violation. The reply may be an error response, which is returned for the
// caller to classify.
func roundTrip(stream *wire.Stream, id wire.ID, method string, params map[string]any) (*wire.Response, error) {
	idJSON, err := id.MarshalJSON()
	if err != nil {
		return nil, rpcerr.Wrap(status.Internal, "encode handshake id", err)
	}
	msg, err := json.Marshal(map[string]any{
		"id":     json.RawMessage(idJSON),
		"obj":    "connection",
		"method": method,
		"params": params,
	})
	if err != nil {
		return nil, rpcerr.Wrap(status.Internal, "encode handshake request", err)
	}
	if err := stream.WriteMessage(msg); err != nil {
		return nil, rpcerr.Wrap(status.ConnectIo, "write handshake request", err)
	}

	raw, err := stream.ReadMessage()
	if err != nil {
		if wire.IsSyntaxError(err) {
			return nil, rpcerr.Wrap(status.PeerProtocolViolation, "malformed handshake reply", err)
		}
		return nil, rpcerr.Wrap(status.ConnectIo, "read handshake reply", err)
	}
	resp, perr := wire.ParseResponse(raw)
	if perr != nil {
		return nil, rpcerr.Wrap(status.PeerProtocolViolation, "invalid handshake reply", perr)
	}
	if resp.Kind == wire.KindUpdate {
		return nil, rpcerr.New(status.PeerProtocolViolation, "unexpected update during handshake")
	}
	if !resp.HasID || resp.ID.Key() != id.Key() {
		return nil, rpcerr.Newf(status.PeerProtocolViolation, "handshake reply for unexpected id %s", resp.ID)
	}
	return resp, nil
}
