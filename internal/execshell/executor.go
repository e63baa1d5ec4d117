package execshell

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	loggerNotConfiguredMessageConstant        = "logger not configured"
	commandRunnerNotConfiguredMessageConstant = "command runner not configured"
	commandFailedTemplateConstant             = "%s exited with code %d%s"
	commandExecutionTemplateConstant          = "%s could not be executed: %s"
	commandTimeoutTemplateConstant            = "%s timed out after %s"
	standardErrorSuffixTemplateConstant       = ": %s"
	commandLabelSeparatorConstant             = " "
	defaultCommandTimeoutConstant             = 30 * time.Second
	logFieldCommandConstant                   = "command"
	logFieldWorkingDirectoryConstant          = "working_directory"
	logFieldExitCodeConstant                  = "exit_code"
	logFieldStandardErrorConstant             = "standard_error"
	logFieldTimeoutConstant                   = "timeout"
	commandStartedMessageConstant             = "external command started"
	commandCompletedMessageConstant           = "external command completed"
	commandFailedMessageConstant              = "external command failed"
	commandTimedOutMessageConstant            = "external command timed out"
)

// Sentinel errors surfaced during executor construction.
var (
	ErrLoggerNotConfigured        = errors.New(loggerNotConfiguredMessageConstant)
	ErrCommandRunnerNotConfigured = errors.New(commandRunnerNotConfiguredMessageConstant)
)

// CommandName identifies an external executable supported by the executor.
type CommandName string

// Supported external executables.
const (
	CommandGit    CommandName = "git"
	CommandGitHub CommandName = "gh"
)

// CommandDetails describes the arguments and environment for one invocation.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
}

// ShellCommand couples an executable name with its invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures the observable outcome of a completed command.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner abstracts process execution for testing.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

// CommandFailedError reports a command that completed with a non-zero exit code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error describes the failed command including trimmed standard error output.
func (failure CommandFailedError) Error() string {
	standardErrorSuffix := ""
	trimmedStandardError := strings.TrimSpace(failure.Result.StandardError)
	if len(trimmedStandardError) > 0 {
		standardErrorSuffix = fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
	}
	return fmt.Sprintf(commandFailedTemplateConstant, formatCommandLabel(failure.Command), failure.Result.ExitCode, standardErrorSuffix)
}

// CommandExecutionError reports a command that never produced an execution result.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the execution failure.
func (failure CommandExecutionError) Error() string {
	return fmt.Sprintf(commandExecutionTemplateConstant, formatCommandLabel(failure.Command), failure.Cause)
}

// Unwrap exposes the underlying cause for errors.Is and errors.As inspection.
func (failure CommandExecutionError) Unwrap() error {
	return failure.Cause
}

// CommandTimedOutError reports a command forcibly terminated after exceeding its timeout.
type CommandTimedOutError struct {
	Command ShellCommand
	Timeout time.Duration
}

// Error describes the timed out command.
func (failure CommandTimedOutError) Error() string {
	return fmt.Sprintf(commandTimeoutTemplateConstant, formatCommandLabel(failure.Command), failure.Timeout)
}

// ExecutorOption customizes ShellExecutor construction.
type ExecutorOption func(*ShellExecutor)

// WithCommandTimeout overrides the default per-command timeout.
func WithCommandTimeout(timeout time.Duration) ExecutorOption {
	return func(executor *ShellExecutor) {
		if timeout > 0 {
			executor.commandTimeout = timeout
		}
	}
}

// WithCommandEventObserver registers an observer receiving command lifecycle events.
func WithCommandEventObserver(observer CommandEventObserver) ExecutorOption {
	return func(executor *ShellExecutor) {
		if observer != nil {
			executor.eventObserver = observer
		}
	}
}

// ShellExecutor runs external commands with logging and bounded execution time.
type ShellExecutor struct {
	logger         *zap.Logger
	commandRunner  CommandRunner
	commandTimeout time.Duration
	eventObserver  CommandEventObserver
}

// NewShellExecutor validates collaborators and assembles an executor.
func NewShellExecutor(logger *zap.Logger, commandRunner CommandRunner, options ...ExecutorOption) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if commandRunner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}

	executor := &ShellExecutor{
		logger:         logger,
		commandRunner:  commandRunner,
		commandTimeout: defaultCommandTimeoutConstant,
		eventObserver:  noopCommandEventObserver{},
	}

	for _, option := range options {
		option(executor)
	}

	return executor, nil
}

// CommandTimeout reports the configured per-command timeout.
func (executor *ShellExecutor) CommandTimeout() time.Duration {
	return executor.commandTimeout
}

// ExecuteGit runs the git executable with the provided details.
func (executor *ShellExecutor) ExecuteGit(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandGit, Details: details})
}

// ExecuteGitHubCLI runs the GitHub CLI executable with the provided details.
func (executor *ShellExecutor) ExecuteGitHubCLI(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandGitHub, Details: details})
}

// Execute runs the supplied command, enforcing the configured timeout.
//
// A non-zero exit code is returned as CommandFailedError together with the
// captured result; callers that tolerate non-zero exits inspect the result
// instead of the error. A command exceeding the timeout has its process group
// terminated and yields CommandTimedOutError.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	boundedContext, cancelExecution := context.WithTimeout(executionContext, executor.commandTimeout)
	defer cancelExecution()

	executor.logger.Debug(
		commandStartedMessageConstant,
		zap.String(logFieldCommandConstant, formatCommandLabel(command)),
		zap.String(logFieldWorkingDirectoryConstant, command.Details.WorkingDirectory),
	)
	executor.eventObserver.CommandStarted(command)

	executionResult, runError := executor.commandRunner.Run(boundedContext, command)
	if runError != nil {
		if errors.Is(runError, context.DeadlineExceeded) && executionContext.Err() == nil {
			timeoutError := CommandTimedOutError{Command: command, Timeout: executor.commandTimeout}
			executor.logger.Warn(
				commandTimedOutMessageConstant,
				zap.String(logFieldCommandConstant, formatCommandLabel(command)),
				zap.Duration(logFieldTimeoutConstant, executor.commandTimeout),
			)
			executor.eventObserver.CommandExecutionFailed(command, timeoutError)
			return executionResult, timeoutError
		}

		executionError := CommandExecutionError{Command: command, Cause: runError}
		executor.logger.Error(
			commandFailedMessageConstant,
			zap.String(logFieldCommandConstant, formatCommandLabel(command)),
			zap.Error(runError),
		)
		executor.eventObserver.CommandExecutionFailed(command, executionError)
		return ExecutionResult{}, executionError
	}

	executor.eventObserver.CommandCompleted(command, executionResult)

	if executionResult.ExitCode != 0 {
		executor.logger.Debug(
			commandFailedMessageConstant,
			zap.String(logFieldCommandConstant, formatCommandLabel(command)),
			zap.Int(logFieldExitCodeConstant, executionResult.ExitCode),
			zap.String(logFieldStandardErrorConstant, strings.TrimSpace(executionResult.StandardError)),
		)
		return executionResult, CommandFailedError{Command: command, Result: executionResult}
	}

	executor.logger.Debug(
		commandCompletedMessageConstant,
		zap.String(logFieldCommandConstant, formatCommandLabel(command)),
	)

	return executionResult, nil
}

func formatCommandLabel(command ShellCommand) string {
	labelParts := []string{string(command.Name)}
	labelParts = append(labelParts, command.Details.Arguments...)
	return strings.Join(labelParts, commandLabelSeparatorConstant)
}
