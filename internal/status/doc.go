// Package status defines the stable numeric status taxonomy shared by every
// fallible operation in the client library and its boundary surface.
package status
