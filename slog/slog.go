// Package slog decorates the prodex service interfaces with structured
// logging through log/slog.
package slog
