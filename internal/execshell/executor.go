package execshell

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	commandGitNameConstant                       = "git"
	loggerNotConfiguredMessageConstant           = "shell executor logger not configured"
	commandRunnerNotConfiguredMessageConstant    = "shell executor command runner not configured"
	commandFailedErrorTemplateConstant           = "%s exited with status %d"
	commandFailedWithOutputErrorTemplateConstant = "%s exited with status %d: %s"
	commandExecutionErrorTemplateConstant        = "%s could not be executed: %v"
	logFieldCommandConstant                      = "command"
	logFieldArgumentsConstant                    = "arguments"
	logFieldWorkingDirectoryConstant             = "working_directory"
	logFieldExitCodeConstant                     = "exit_code"
	logFieldStandardErrorConstant                = "stderr"
)

// CommandName identifies an executable invoked through the shell executor.
type CommandName string

// CommandGit identifies the git executable.
const CommandGit CommandName = CommandName(commandGitNameConstant)

// CommandDetails describes the arguments and environment of a single invocation.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
}

// ShellCommand pairs an executable with the details of one invocation.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures the observable output of a finished command.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner runs shell commands.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

var (
	// ErrLoggerNotConfigured indicates a nil logger was supplied to NewShellExecutor.
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)
	// ErrCommandRunnerNotConfigured indicates a nil runner was supplied to NewShellExecutor.
	ErrCommandRunnerNotConfigured = errors.New(commandRunnerNotConfiguredMessageConstant)
)

// CommandFailedError reports a command that ran and exited with a non-zero code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error describes the failed command.
func (failure CommandFailedError) Error() string {
	trimmedStandardError := strings.TrimSpace(failure.Result.StandardError)
	if len(trimmedStandardError) == 0 {
		return fmt.Sprintf(commandFailedErrorTemplateConstant, failure.Command.Label(), failure.Result.ExitCode)
	}
	return fmt.Sprintf(commandFailedWithOutputErrorTemplateConstant, failure.Command.Label(), failure.Result.ExitCode, trimmedStandardError)
}

// CommandExecutionError reports a command that could not be started.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the execution failure.
func (failure CommandExecutionError) Error() string {
	return fmt.Sprintf(commandExecutionErrorTemplateConstant, failure.Command.Label(), failure.Cause)
}

// Unwrap exposes the underlying cause.
func (failure CommandExecutionError) Unwrap() error {
	return failure.Cause
}

// Label renders the command and its arguments as a single line.
func (command ShellCommand) Label() string {
	if len(command.Details.Arguments) == 0 {
		return string(command.Name)
	}
	return string(command.Name) + commandArgumentsJoinSeparatorConstant + strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant)
}

// ShellExecutor runs commands through a CommandRunner and logs their lifecycle.
type ShellExecutor struct {
	logger           *zap.Logger
	runner           CommandRunner
	messageFormatter CommandMessageFormatter
}

// NewShellExecutor validates dependencies and constructs a ShellExecutor.
func NewShellExecutor(logger *zap.Logger, runner CommandRunner) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if runner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}
	return &ShellExecutor{logger: logger, runner: runner, messageFormatter: CommandMessageFormatter{}}, nil
}

// Execute runs an arbitrary command. A non-zero exit yields CommandFailedError
// and a runner failure yields CommandExecutionError.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	commandFields := []zap.Field{
		zap.String(logFieldCommandConstant, string(command.Name)),
		zap.Strings(logFieldArgumentsConstant, command.Details.Arguments),
		zap.String(logFieldWorkingDirectoryConstant, command.Details.WorkingDirectory),
	}

	executor.logger.Debug(executor.messageFormatter.BuildStartedMessage(command), commandFields...)

	executionResult, runError := executor.runner.Run(executionContext, command)
	if runError != nil {
		executor.logger.Warn(executor.messageFormatter.BuildExecutionFailureMessage(command, runError), append(commandFields, zap.Error(runError))...)
		return ExecutionResult{}, CommandExecutionError{Command: command, Cause: runError}
	}

	if executionResult.ExitCode != 0 {
		executor.logger.Debug(
			executor.messageFormatter.BuildFailureMessage(command, executionResult),
			append(commandFields,
				zap.Int(logFieldExitCodeConstant, executionResult.ExitCode),
				zap.String(logFieldStandardErrorConstant, strings.TrimSpace(executionResult.StandardError)),
			)...,
		)
		return ExecutionResult{}, CommandFailedError{Command: command, Result: executionResult}
	}

	executor.logger.Debug(executor.messageFormatter.BuildSuccessMessage(command, executionResult), commandFields...)
	return executionResult, nil
}

// ExecuteGit runs git with the provided details.
func (executor *ShellExecutor) ExecuteGit(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandGit, Details: details})
}
