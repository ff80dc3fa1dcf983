// Package logging provides slog helpers shared across the library.
//
// The library never logs unless a caller hands it a logger; every component
// falls back to the no-op logger so embedding applications stay in control of
// output.
package logging
