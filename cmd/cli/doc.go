// Package cli constructs the git-cfsync command-line interface, wiring the
// Cobra root command, configuration loader, structured logging, and the
// cfsync repository accessor.
package cli
