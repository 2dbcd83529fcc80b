// Package cfsync binds a configuration directory managed by git and reads the
// settings cfsync stores in git's own configuration under the "cfsync."
// namespace.
//
// Repository is the handle for one directory. It verifies the directory,
// loads every recognized setting through a ConfigurationReader, and hosts the
// periodic task routine. GitCommandReader queries the git binary with explicit
// argument arrays; NativeReader reads the same configuration through go-git.
// The process working directory is never changed: the repository path is
// passed to every operation instead.
package cfsync
