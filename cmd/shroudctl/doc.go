// Package main hosts the shroudctl debug CLI.
//
// The Cobra-based command tree connects to a routing daemon from a connection
// descriptor and runs raw JSON requests against it, plus small introspection
// helpers such as the status-code listing. Protocol behavior lives in the
// library packages; this package only handles terminal I/O and flag plumbing.
package main
