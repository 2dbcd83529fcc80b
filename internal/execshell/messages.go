package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	defaultWorkingDirectoryLabelConstant    = "current directory"
	fallbackUnknownValueLabelConstant       = "unknown"
)

const (
	gitRevParseSubcommandNameConstant = "rev-parse"
	gitGitDirectoryFlagConstant       = "--git-dir"
	gitConfigSubcommandNameConstant   = "config"
	gitGetAllFlagConstant             = "--get-all"
	gitConfigUnsetKeyExitCodeConstant = 1
)

const (
	gitDirectoryStartTemplateConstant             = "Locating Git directory for %s"
	gitDirectorySuccessTemplateConstant           = "%s uses Git directory %s"
	gitDirectoryFailureTemplateConstant           = "Could not confirm %s is a Git repository (exit code %d%s)"
	gitDirectoryExecutionFailureTemplateConstant  = "Could not analyze %s: %s"
	gitConfigReadStartTemplateConstant            = "Reading %s in %s"
	gitConfigReadSuccessTemplateConstant          = "Read %d value(s) of %s in %s"
	gitConfigReadUnsetTemplateConstant            = "%s is not set in %s"
	gitConfigReadFailureTemplateConstant          = "Failed to read %s in %s (exit code %d%s)"
	gitConfigReadExecutionFailureTemplateConstant = "Unable to read %s in %s: %s"
	gitConfigOutputLineSeparatorConstant          = "\n"
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	switch command.Name {
	case CommandGit:
		return formatter.describeGitMessage(command, result, failure, stage)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if len(command.Details.Arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	subcommand := strings.TrimSpace(command.Details.Arguments[0])
	switch subcommand {
	case gitRevParseSubcommandNameConstant:
		if containsArgument(command.Details.Arguments, gitGitDirectoryFlagConstant) {
			return formatter.describeGitDirectoryMessage(command, result, failure, stage)
		}
		return formatter.buildGenericMessage(command, result, failure, stage)
	case gitConfigSubcommandNameConstant:
		if containsArgument(command.Details.Arguments, gitGetAllFlagConstant) {
			return formatter.describeGitConfigReadMessage(command, result, failure, stage)
		}
		return formatter.buildGenericMessage(command, result, failure, stage)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitDirectoryMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitDirectoryStartTemplateConstant, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitDirectorySuccessTemplateConstant, workingDirectory, formatter.ensureValue(strings.TrimSpace(result.StandardOutput)))
	case messageStageFailure:
		return fmt.Sprintf(gitDirectoryFailureTemplateConstant, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(gitDirectoryExecutionFailureTemplateConstant, workingDirectory, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) describeGitConfigReadMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	configurationKey := formatter.ensureValue(findFlagValue(command.Details.Arguments, gitGetAllFlagConstant))

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitConfigReadStartTemplateConstant, configurationKey, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitConfigReadSuccessTemplateConstant, countOutputLines(result.StandardOutput), configurationKey, workingDirectory)
	case messageStageFailure:
		if result.ExitCode == gitConfigUnsetKeyExitCodeConstant && len(strings.TrimSpace(result.StandardError)) == 0 {
			return fmt.Sprintf(gitConfigReadUnsetTemplateConstant, configurationKey, workingDirectory)
		}
		return fmt.Sprintf(gitConfigReadFailureTemplateConstant, configurationKey, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(gitConfigReadExecutionFailureTemplateConstant, configurationKey, workingDirectory, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	return fmt.Sprintf(commandLabelTemplateConstant, command.Label(), formatter.formatWorkingDirectorySuffix(command))
}

func (formatter CommandMessageFormatter) formatWorkingDirectorySuffix(command ShellCommand) string {
	workingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(workingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, workingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmed := strings.TrimSpace(standardError)
	if len(trimmed) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmed)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	workingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(workingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return workingDirectory
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	if len(strings.TrimSpace(value)) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return value
}

func containsArgument(arguments []string, value string) bool {
	for _, argument := range arguments {
		if strings.TrimSpace(argument) == value {
			return true
		}
	}
	return false
}

func findFlagValue(arguments []string, flag string) string {
	for argumentIndex := 0; argumentIndex < len(arguments)-1; argumentIndex++ {
		if strings.TrimSpace(arguments[argumentIndex]) == flag {
			return strings.TrimSpace(arguments[argumentIndex+1])
		}
	}
	return emptyStringConstant
}

func countOutputLines(output string) int {
	trimmed := strings.TrimSpace(output)
	if len(trimmed) == 0 {
		return 0
	}
	return len(strings.Split(trimmed, gitConfigOutputLineSeparatorConstant))
}
