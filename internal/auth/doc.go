// Package auth implements the once-per-connection authentication handshake.
//
// The handshake runs synchronously inside connection establishment: the
// connect operation does not return a usable connection until the peer has
// confirmed our credentials. No half-authenticated connection ever escapes.
package auth
