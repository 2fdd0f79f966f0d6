// Package logging provides structured logging for stash, built on Go's
// standard slog package.
//
// The package exposes level-filtered, subsystem-tagged logging helpers
// (Debug, Info, Warn, Error). Init wires them to a text handler on the
// writer of the caller's choice; until Init runs every helper is a no-op,
// which keeps the command engine silent when embedded as a library.
package logging
