// Package execshell provides structured helpers for invoking external tools.
//
// It wraps os/exec with logging via ShellExecutor, exposes OSCommandRunner for
// default process execution, and classifies command outcomes into typed errors
// so callers can distinguish a non-zero exit from a tool that never started.
package execshell
