// Package connpt parses connection descriptors: the textual specification of
// how and where to reach the daemon.
//
// Two forms are accepted.
//
// Shorthand, a single line of scheme:locator:
//
//	unix:/run/shroud/rpc.sock
//	inet:127.0.0.1:18929
//
// Unix paths must be absolute; inet addresses must be loopback. Any other
// well-formed scheme token is reported as NotSupported.
//
// Document, an inline TOML document with a [connect] table:
//
//	[connect]
//	socket = "unix:/run/shroud/rpc.sock"
//	auth = "cookie"
//	cookie_path = "/run/shroud/rpc.cookie"
//	require_peer_uid = true
//
// auth defaults to "none". cookie_path is required exactly when auth is
// "cookie" and must be absolute. require_peer_uid asks the transport to
// verify the daemon's uid over SO_PEERCRED and applies only to unix sockets.
// Unknown keys are rejected so grammar growth stays detectable.
//
// The grammar is part of the compatibility contract with the daemon; change
// it only in lockstep with the daemon's connect-point handling.
package connpt
