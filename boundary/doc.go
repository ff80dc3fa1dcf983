// Package boundary flattens the client into a handle-and-status surface
// suitable for exposure to other languages: every operation returns a numeric
// status plus out-values, failure detail travels in explicit error handles,
// and every handle is released exactly once by its owner.
//
// All functions accept nil handles. Releasing nil is a no-op, releasing twice
// is detected, and using a released handle fails with InvalidInput rather
// than corrupting state. Inputs must be valid UTF-8; outputs always are.
package boundary
