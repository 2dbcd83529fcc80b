package cfsync

import (
	"context"
	"errors"
	"strings"

	"github.com/temirov/cfsync/internal/execshell"
)

const (
	gitExecutableNameConstant         = "git"
	gitRevParseSubcommandConstant     = "rev-parse"
	gitGitDirectoryFlagConstant       = "--git-dir"
	gitConfigSubcommandConstant       = "config"
	gitGetAllFlagConstant             = "--get-all"
	gitConfigUnsetKeyExitCodeConstant = 1
	gitConfigValueSeparatorConstant   = "\n"
)

// ConfigurationReader resolves cfsync settings for a repository directory.
type ConfigurationReader interface {
	// VerifyRepository confirms repositoryPath belongs to a git repository.
	VerifyRepository(executionContext context.Context, repositoryPath string) error
	// ReadValues returns every raw value of the qualified key, in git's resolution order.
	// An unset key yields an empty slice and no error.
	ReadValues(executionContext context.Context, repositoryPath string, qualifiedKey string) ([]string, error)
}

// GitCommandExecutor is the minimal interface required from execshell.ShellExecutor.
type GitCommandExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// GitCommandReader reads configuration by running the git binary.
type GitCommandReader struct {
	executor GitCommandExecutor
}

// NewGitCommandReader constructs a GitCommandReader around the provided executor.
func NewGitCommandReader(executor GitCommandExecutor) (*GitCommandReader, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &GitCommandReader{executor: executor}, nil
}

// VerifyRepository runs git rev-parse --git-dir inside repositoryPath.
func (reader *GitCommandReader) VerifyRepository(executionContext context.Context, repositoryPath string) error {
	arguments := []string{gitRevParseSubcommandConstant, gitGitDirectoryFlagConstant}
	_, executionError := reader.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		return newSubprocessError(arguments, executionError)
	}
	return nil
}

// ReadValues runs git config --get-all <qualifiedKey> inside repositoryPath.
// Exit status 1 means the key is unset.
func (reader *GitCommandReader) ReadValues(executionContext context.Context, repositoryPath string, qualifiedKey string) ([]string, error) {
	arguments := []string{gitConfigSubcommandConstant, gitGetAllFlagConstant, qualifiedKey}
	executionResult, executionError := reader.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		var commandFailure execshell.CommandFailedError
		if errors.As(executionError, &commandFailure) && commandFailure.Result.ExitCode == gitConfigUnsetKeyExitCodeConstant {
			return []string{}, nil
		}
		return nil, newSubprocessError(arguments, executionError)
	}

	values := []string{}
	for _, outputLine := range strings.Split(executionResult.StandardOutput, gitConfigValueSeparatorConstant) {
		if len(strings.TrimSpace(outputLine)) == 0 {
			continue
		}
		values = append(values, outputLine)
	}
	return values, nil
}

func newSubprocessError(arguments []string, executionError error) SubprocessError {
	commandLine := append([]string{gitExecutableNameConstant}, arguments...)

	var commandFailure execshell.CommandFailedError
	if errors.As(executionError, &commandFailure) {
		return SubprocessError{
			Arguments:     commandLine,
			ExitCode:      commandFailure.Result.ExitCode,
			StandardError: commandFailure.Result.StandardError,
			Cause:         executionError,
		}
	}

	return SubprocessError{
		Arguments: commandLine,
		ExitCode:  subprocessNotStartedExitCodeConstant,
		Cause:     unwrapExecutionCause(executionError),
	}
}

func unwrapExecutionCause(executionError error) error {
	var executionFailure execshell.CommandExecutionError
	if errors.As(executionError, &executionFailure) && executionFailure.Cause != nil {
		return executionFailure.Cause
	}
	return executionError
}
