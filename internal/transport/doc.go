// Package transport opens the byte stream to the daemon described by a
// parsed connection point: unix domain sockets and loopback TCP, with an
// optional peer-uid trust check on platforms that support it.
package transport
