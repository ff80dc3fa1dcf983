// Package wire models the JSON message exchange with the daemon: request
// validation and id injection, response classification, structural id
// equality, and one-JSON-value-per-message framing.
//
// The package never interprets the semantic content of requests or
// responses; callers receive the raw JSON text back.
package wire
