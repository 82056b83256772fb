// Package utils holds small helpers shared across the sheetscan binary and
// its internal packages.
package utils

import "go.uber.org/zap"

// NewProductionLogger returns a production zap logger for the sheetscan server
// and watcher daemons.
func NewProductionLogger() (*zap.Logger, error) {
	return zap.NewProduction()
}

// NewLogger returns the zap logger the sheetscan commands share. When debug is
// true, uses development config (human-readable, debug level); otherwise uses
// production config (JSON, info level).
func NewLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
