// Package logging wraps log/slog construction and provides attr helpers so
// callers never import slog field constructors directly.
//
// The core treats the logger as a side-effect-only sink: nothing in control
// flow depends on it, and logging.NewNop() satisfies the contract in tests.
package logging
