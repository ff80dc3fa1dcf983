// Package rpcerr models failures as structured values carrying a status code,
// a message, and the literal peer payload when one exists.
//
// Internal code passes these around as ordinary Go errors; the boundary
// package flattens them to status-code-plus-object form for cross-language
// callers.
package rpcerr
