package connpt

import (
	"net"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pelletier/go-toml/v2"

	"shroud/internal/rpcerr"
	"shroud/internal/status"
)

// Scheme selects the transport kind.
type Scheme string

const (
	// SchemeUnix is a Unix domain socket transport.
	SchemeUnix Scheme = "unix"
	// SchemeInet is a TCP transport restricted to loopback addresses.
	SchemeInet Scheme = "inet"
)

// AuthMethod selects the authentication handshake variant.
type AuthMethod string

const (
	// AuthNone authenticates with no credential; trust comes from the
	// transport (socket permissions, loopback binding).
	AuthNone AuthMethod = "none"
	// AuthCookie authenticates by presenting the contents of a secret cookie
	// file written by the daemon.
	AuthCookie AuthMethod = "cookie"
)

// ConnPt is a parsed connection descriptor. Immutable once parsed.
type ConnPt struct {
	Scheme Scheme
	// Addr is the socket path for unix, or host:port for inet.
	Addr string
	Auth AuthMethod
	// CookiePath is set when Auth is AuthCookie.
	CookiePath string
	// RequirePeerUID asks the transport to verify that the daemon process
	// runs as the same uid as this client. Unix sockets only.
	RequirePeerUID bool
}

// Parse interprets a connection descriptor. See the package documentation
// for the grammar. Malformed descriptors fail with InvalidInput; well-formed
// descriptors naming an unavailable scheme or method fail with NotSupported.
func Parse(descriptor string) (*ConnPt, error) {
	if !utf8.ValidString(descriptor) {
		return nil, rpcerr.New(status.InvalidInput, "descriptor is not valid UTF-8")
	}
	trimmed := strings.TrimSpace(descriptor)
	if trimmed == "" {
		return nil, rpcerr.New(status.InvalidInput, "descriptor is empty")
	}
	if strings.ContainsAny(trimmed, "\n") || strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "#") {
		return parseDocument(trimmed)
	}
	return parseShorthand(trimmed)
}

func parseShorthand(s string) (*ConnPt, error) {
	scheme, rest, ok := strings.Cut(s, ":")
	if !ok || scheme == "" {
		return nil, rpcerr.Newf(status.InvalidInput, "descriptor %q has no scheme", s)
	}
	if !validSchemeToken(scheme) {
		return nil, rpcerr.Newf(status.InvalidInput, "descriptor scheme %q is malformed", scheme)
	}
	switch Scheme(scheme) {
	case SchemeUnix:
		if !filepath.IsAbs(rest) {
			return nil, rpcerr.Newf(status.InvalidInput, "unix socket path %q must be absolute", rest)
		}
		return &ConnPt{Scheme: SchemeUnix, Addr: rest, Auth: AuthNone}, nil
	case SchemeInet:
		host, port, err := net.SplitHostPort(rest)
		if err != nil {
			return nil, rpcerr.Wrap(status.InvalidInput, "inet descriptor must be host:port", err)
		}
		if !isLoopbackHost(host) {
			return nil, rpcerr.Newf(status.InvalidInput, "inet descriptor must target a loopback address, got %q", host)
		}
		if n, err := strconv.Atoi(port); err != nil || n < 1 || n > 65535 {
			return nil, rpcerr.Newf(status.InvalidInput, "inet descriptor port %q is invalid", port)
		}
		return &ConnPt{Scheme: SchemeInet, Addr: rest, Auth: AuthNone}, nil
	default:
		// A well-formed scheme token this build does not implement.
		return nil, rpcerr.Newf(status.NotSupported, "connection scheme %q is not supported", scheme)
	}
}

type document struct {
	Connect connectTable `toml:"connect"`
}

type connectTable struct {
	Socket         string `toml:"socket"`
	Auth           string `toml:"auth"`
	CookiePath     string `toml:"cookie_path"`
	RequirePeerUID bool   `toml:"require_peer_uid"`
}

func parseDocument(s string) (*ConnPt, error) {
	var doc document
	dec := toml.NewDecoder(strings.NewReader(s))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, rpcerr.Wrap(status.InvalidInput, "descriptor document is invalid", err)
	}
	if strings.TrimSpace(doc.Connect.Socket) == "" {
		return nil, rpcerr.New(status.InvalidInput, "descriptor document is missing connect.socket")
	}

	pt, err := parseShorthand(strings.TrimSpace(doc.Connect.Socket))
	if err != nil {
		return nil, err
	}

	switch AuthMethod(strings.TrimSpace(doc.Connect.Auth)) {
	case AuthNone, "":
		pt.Auth = AuthNone
		if doc.Connect.CookiePath != "" {
			return nil, rpcerr.New(status.InvalidInput, "connect.cookie_path requires auth = \"cookie\"")
		}
	case AuthCookie:
		pt.Auth = AuthCookie
		cookiePath := strings.TrimSpace(doc.Connect.CookiePath)
		if cookiePath == "" {
			return nil, rpcerr.New(status.InvalidInput, "auth = \"cookie\" requires connect.cookie_path")
		}
		if !filepath.IsAbs(cookiePath) {
			return nil, rpcerr.Newf(status.InvalidInput, "connect.cookie_path %q must be absolute", cookiePath)
		}
		pt.CookiePath = cookiePath
	default:
		return nil, rpcerr.Newf(status.NotSupported, "authentication method %q is not supported", doc.Connect.Auth)
	}

	if doc.Connect.RequirePeerUID {
		if pt.Scheme != SchemeUnix {
			return nil, rpcerr.New(status.InvalidInput, "connect.require_peer_uid applies only to unix sockets")
		}
		pt.RequirePeerUID = true
	}
	return pt, nil
}

func validSchemeToken(s string) bool {
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case i > 0 && (r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}

func isLoopbackHost(host string) bool {
	ip := net.ParseIP(host)
	if ip == nil {
		return host == "localhost"
	}
	return ip.IsLoopback()
}
