// Package shroud is the client-side core for talking to a locally running
// privacy-routing daemon over its JSON message protocol.
//
// A connection is established from a descriptor (see internal/connpt for the
// grammar), authenticated before it is returned, and then serves any number
// of concurrent Execute calls. Callers supply complete JSON request objects
// and receive the peer's raw JSON responses; this package does not interpret
// request or response semantics beyond correlation and failure handling.
//
// All errors returned by this package are *Error values carrying a stable
// numeric Status, retrievable with errors.As.
package shroud
