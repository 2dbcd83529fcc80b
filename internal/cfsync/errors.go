package cfsync

import (
	"errors"
	"fmt"
	"strings"
)

const (
	directoryErrorTemplateConstant                  = "cannot use %s as repository directory: %v"
	subprocessFailedErrorTemplateConstant           = "%s exited with status %d"
	subprocessFailedWithOutputErrorTemplateConstant = "%s exited with status %d: %s"
	subprocessStartErrorTemplateConstant            = "%s could not be run: %v"
	repositoryErrorTemplateConstant                 = "cannot read git repository at %s: %v"
	subprocessArgumentSeparatorConstant             = " "
	notDirectoryMessageConstant                     = "not a directory"
	readerNotConfiguredMessageConstant              = "configuration reader not configured"
	executorNotConfiguredMessageConstant            = "git executor not configured"
	subprocessNotStartedExitCodeConstant            = -1
)

var (
	// ErrNotDirectory indicates the repository path exists but is not a directory.
	ErrNotDirectory = errors.New(notDirectoryMessageConstant)
	// ErrReaderNotConfigured indicates Open was called without a ConfigurationReader.
	ErrReaderNotConfigured = errors.New(readerNotConfiguredMessageConstant)
	// ErrExecutorNotConfigured indicates a GitCommandReader was built without an executor.
	ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)
)

// DirectoryError reports a repository path that is missing, not a directory, or inaccessible.
type DirectoryError struct {
	Path  string
	Cause error
}

// Error describes the directory failure.
func (directoryError DirectoryError) Error() string {
	return fmt.Sprintf(directoryErrorTemplateConstant, directoryError.Path, directoryError.Cause)
}

// Unwrap exposes the underlying cause.
func (directoryError DirectoryError) Unwrap() error {
	return directoryError.Cause
}

// SubprocessError reports an external command that could not run or exited with an unexpected status.
// ExitCode is -1 when the command never started.
type SubprocessError struct {
	Arguments     []string
	ExitCode      int
	StandardError string
	Cause         error
}

// Error describes the subprocess failure.
func (subprocessError SubprocessError) Error() string {
	commandLine := strings.Join(subprocessError.Arguments, subprocessArgumentSeparatorConstant)
	if subprocessError.ExitCode == subprocessNotStartedExitCodeConstant {
		return fmt.Sprintf(subprocessStartErrorTemplateConstant, commandLine, subprocessError.Cause)
	}
	trimmedStandardError := strings.TrimSpace(subprocessError.StandardError)
	if len(trimmedStandardError) == 0 {
		return fmt.Sprintf(subprocessFailedErrorTemplateConstant, commandLine, subprocessError.ExitCode)
	}
	return fmt.Sprintf(subprocessFailedWithOutputErrorTemplateConstant, commandLine, subprocessError.ExitCode, trimmedStandardError)
}

// Unwrap exposes the underlying cause.
func (subprocessError SubprocessError) Unwrap() error {
	return subprocessError.Cause
}

// RepositoryError reports a repository go-git could not open or whose configuration it could not read.
type RepositoryError struct {
	Path  string
	Cause error
}

// Error describes the repository failure.
func (repositoryError RepositoryError) Error() string {
	return fmt.Sprintf(repositoryErrorTemplateConstant, repositoryError.Path, repositoryError.Cause)
}

// Unwrap exposes the underlying cause.
func (repositoryError RepositoryError) Unwrap() error {
	return repositoryError.Cause
}
