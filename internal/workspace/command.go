package workspace

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/viewyard/internal/config"
	"github.com/temirov/viewyard/internal/execshell"
	"github.com/temirov/viewyard/internal/gitrepo"
	"github.com/temirov/viewyard/internal/ui"
)

const (
	statusCommandUseConstant               = "status"
	statusCommandShortDescriptionConstant  = "Show branch and change summary for every repository in the view"
	commitCommandUseConstant               = "commit-all"
	commitCommandShortDescriptionConstant  = "Commit staged and unstaged changes in every dirty repository"
	pushCommandUseConstant                 = "push-all"
	pushCommandShortDescriptionConstant    = "Push unpushed commits in every repository of the view"
	rebaseCommandUseConstant               = "rebase"
	rebaseCommandShortDescriptionConstant  = "Rebase every repository onto its freshly fetched default branch"
	flagMessageNameConstant                = "message"
	flagMessageShorthandConstant           = "m"
	flagMessageDescriptionConstant         = "Commit message applied to every repository"
	unexpectedArgumentsMessageConstant     = "this command does not accept positional arguments"
	missingCommitMessageConstant           = "a commit message is required (positional argument or --message)"
	operationFailedTemplateConstant        = "%s stopped: %d of %d repositories failed"
	viewHeadingTemplateConstant            = "View %s (%d repositories)"
	statusLineTemplateConstant             = "%s [%s] changes:%d ahead:%d stash:%d"
	statusMissingTemplateConstant          = "%s missing from view"
	statusBrokenTemplateConstant           = "%s %s"
	statusSummaryTemplateConstant          = "%d clean, %d dirty, %d ahead"
	outcomeFailureLineTemplateConstant     = "%s: %s"
	outcomeHintLineTemplateConstant        = "  hint: %s"
	summaryTotalsTemplateConstant          = "%d succeeded, %d skipped, %d failed, %d not attempted"
)

var errUnexpectedArguments = errors.New(unexpectedArgumentsMessageConstant)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the view-scoped bulk commands.
type CommandBuilder struct {
	LoggerProvider   LoggerProvider
	GitExecutor      gitrepo.GitExecutor
	WorkingDirectory string
	CommandTimeout   time.Duration
	Output           io.Writer
}

type commandEnvironment struct {
	logger           *zap.Logger
	engine           *SyncEngine
	console          *ui.ConsoleWriter
	workspaceContext WorkspaceContext
	targets          []RepositoryTarget
}

// BuildStatusCommand constructs the status command.
func (builder *CommandBuilder) BuildStatusCommand() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   statusCommandUseConstant,
		Short: statusCommandShortDescriptionConstant,
		RunE:  builder.runStatus,
	}
	return command, nil
}

// BuildCommitAllCommand constructs the commit-all command.
func (builder *CommandBuilder) BuildCommitAllCommand() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commitCommandUseConstant + " [message]",
		Args:  cobra.MaximumNArgs(1),
		Short: commitCommandShortDescriptionConstant,
		RunE:  builder.runCommitAll,
	}
	command.Flags().StringP(flagMessageNameConstant, flagMessageShorthandConstant, "", flagMessageDescriptionConstant)
	return command, nil
}

// BuildPushAllCommand constructs the push-all command.
func (builder *CommandBuilder) BuildPushAllCommand() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   pushCommandUseConstant,
		Short: pushCommandShortDescriptionConstant,
		RunE:  builder.runPushAll,
	}
	return command, nil
}

// BuildRebaseCommand constructs the rebase command.
func (builder *CommandBuilder) BuildRebaseCommand() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   rebaseCommandUseConstant,
		Short: rebaseCommandShortDescriptionConstant,
		RunE:  builder.runRebase,
	}
	return command, nil
}

func (builder *CommandBuilder) runStatus(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errUnexpectedArguments
	}

	environment, environmentError := builder.prepare()
	if environmentError != nil {
		return environmentError
	}

	reports, statusError := environment.engine.Status(command.Context(), environment.targets)
	if statusError != nil {
		return statusError
	}

	environment.console.Headingf(viewHeadingTemplateConstant, environment.workspaceContext.ViewName, len(environment.targets))
	branchObservations := make([]BranchObservation, 0, len(reports))
	for _, report := range reports {
		builder.renderStatusReport(environment.console, report)
		branchObservations = append(branchObservations, BranchObservation{RepositoryName: report.RepositoryName, BranchName: report.BranchName})
	}
	for _, warning := range BranchConsistencyWarnings(branchObservations, environment.workspaceContext.ViewName) {
		environment.console.Warningf("%s", warning)
	}

	cleanCount := 0
	dirtyCount := 0
	aheadCount := 0
	for _, report := range reports {
		if report.Missing {
			continue
		}
		switch report.State {
		case gitrepo.RepositoryStateClean:
			cleanCount++
		case gitrepo.RepositoryStateDirty:
			dirtyCount++
		}
		if report.CommitsAhead > 0 {
			aheadCount++
		}
	}
	environment.console.Printf(statusSummaryTemplateConstant, cleanCount, dirtyCount, aheadCount)
	return nil
}

func (builder *CommandBuilder) renderStatusReport(console *ui.ConsoleWriter, report RepositoryStatusReport) {
	if report.Missing {
		console.Errorf(statusMissingTemplateConstant, report.RepositoryName)
		return
	}
	if len(report.ErrorDetail) > 0 {
		console.Errorf(statusBrokenTemplateConstant, report.RepositoryName, report.ErrorDetail)
		return
	}
	switch report.State {
	case gitrepo.RepositoryStateNotRepository:
		console.Errorf(statusBrokenTemplateConstant, report.RepositoryName, "is not a git repository")
	case gitrepo.RepositoryStateConflicted:
		console.Errorf(statusBrokenTemplateConstant, report.RepositoryName, conflictedWorktreeDetailConstant)
	case gitrepo.RepositoryStateDetached:
		console.Warningf(statusBrokenTemplateConstant, report.RepositoryName, detachedHeadDetailConstant)
	case gitrepo.RepositoryStateDirty:
		console.Warningf(statusLineTemplateConstant, report.RepositoryName, report.BranchName, report.UncommittedChanges, report.CommitsAhead, report.StashedChanges)
	default:
		console.Successf(statusLineTemplateConstant, report.RepositoryName, report.BranchName, report.UncommittedChanges, report.CommitsAhead, report.StashedChanges)
	}
}

func (builder *CommandBuilder) runCommitAll(command *cobra.Command, arguments []string) error {
	commitMessageValue, _ := command.Flags().GetString(flagMessageNameConstant)
	trimmedCommitMessage := strings.TrimSpace(commitMessageValue)
	if len(trimmedCommitMessage) == 0 && len(arguments) == 1 {
		trimmedCommitMessage = strings.TrimSpace(arguments[0])
	}
	if len(trimmedCommitMessage) == 0 {
		return errors.New(missingCommitMessageConstant)
	}

	environment, environmentError := builder.prepare()
	if environmentError != nil {
		return environmentError
	}

	summary, commitError := environment.engine.CommitAll(command.Context(), environment.targets, trimmedCommitMessage)
	renderError := builder.renderSummary(environment, commitCommandUseConstant, summary)
	if commitError != nil {
		return commitError
	}
	return renderError
}

func (builder *CommandBuilder) runPushAll(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errUnexpectedArguments
	}

	environment, environmentError := builder.prepare()
	if environmentError != nil {
		return environmentError
	}

	summary, pushError := environment.engine.PushAll(command.Context(), environment.targets)
	renderError := builder.renderSummary(environment, pushCommandUseConstant, summary)
	if pushError != nil {
		return pushError
	}
	return renderError
}

func (builder *CommandBuilder) runRebase(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errUnexpectedArguments
	}

	environment, environmentError := builder.prepare()
	if environmentError != nil {
		return environmentError
	}

	summary, rebaseError := environment.engine.Rebase(command.Context(), environment.targets)
	renderError := builder.renderSummary(environment, rebaseCommandUseConstant, summary)
	if rebaseError != nil {
		return rebaseError
	}
	return renderError
}

func (builder *CommandBuilder) renderSummary(environment commandEnvironment, operationName string, summary OperationSummary) error {
	for _, outcome := range summary.Outcomes {
		switch outcome.Status {
		case OutcomeSucceeded:
			if len(outcome.Detail) > 0 {
				environment.console.Successf(outcomeFailureLineTemplateConstant, outcome.RepositoryName, outcome.Detail)
			} else {
				environment.console.Successf("%s", outcome.RepositoryName)
			}
		case OutcomeSkipped:
			environment.console.Skippedf(outcomeFailureLineTemplateConstant, outcome.RepositoryName, outcome.Detail)
		case OutcomeNotAttempted:
			environment.console.Skippedf(outcomeFailureLineTemplateConstant, outcome.RepositoryName, outcome.Detail)
		case OutcomeFailed:
			environment.console.Errorf(outcomeFailureLineTemplateConstant, outcome.RepositoryName, outcome.Detail)
			if len(outcome.Hint) > 0 {
				environment.console.Printf(outcomeHintLineTemplateConstant, outcome.Hint)
			}
		}
	}

	environment.console.Printf(summaryTotalsTemplateConstant,
		summary.CountByStatus(OutcomeSucceeded),
		summary.CountByStatus(OutcomeSkipped),
		summary.CountByStatus(OutcomeFailed),
		summary.CountByStatus(OutcomeNotAttempted),
	)

	if summary.Failed() {
		return fmt.Errorf(operationFailedTemplateConstant, operationName, summary.CountByStatus(OutcomeFailed), len(summary.Outcomes))
	}
	return nil
}

func (builder *CommandBuilder) prepare() (commandEnvironment, error) {
	logger := builder.resolveLogger()

	gitExecutor, executorError := builder.resolveGitExecutor(logger)
	if executorError != nil {
		return commandEnvironment{}, executorError
	}

	repositoryManager, managerError := gitrepo.NewRepositoryManager(gitExecutor)
	if managerError != nil {
		return commandEnvironment{}, managerError
	}

	engine, engineError := NewSyncEngine(logger, repositoryManager)
	if engineError != nil {
		return commandEnvironment{}, engineError
	}

	workingDirectory, workingDirectoryError := builder.resolveWorkingDirectory()
	if workingDirectoryError != nil {
		return commandEnvironment{}, workingDirectoryError
	}

	workspaceContext, resolutionError := ResolveWorkspaceContext(workingDirectory)
	if resolutionError != nil {
		return commandEnvironment{}, resolutionError
	}
	if viewError := workspaceContext.RequireView(); viewError != nil {
		return commandEnvironment{}, viewError
	}

	console := ui.NewConsoleWriter(builder.resolveOutput())

	descriptors, warnings, loadError := config.NewDescriptorStore().Load(workspaceContext.ViewsetRoot)
	if loadError != nil {
		return commandEnvironment{}, loadError
	}
	for _, warning := range warnings {
		console.Warningf("%s", warning)
	}

	return commandEnvironment{
		logger:           logger,
		engine:           engine,
		console:          console,
		workspaceContext: workspaceContext,
		targets:          TargetsFromDescriptors(workspaceContext, descriptors),
	}, nil
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveGitExecutor(logger *zap.Logger) (gitrepo.GitExecutor, error) {
	if builder.GitExecutor != nil {
		return builder.GitExecutor, nil
	}

	executorOptions := []execshell.ExecutorOption{}
	if builder.CommandTimeout > 0 {
		executorOptions = append(executorOptions, execshell.WithCommandTimeout(builder.CommandTimeout))
	}
	return execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner(), executorOptions...)
}

func (builder *CommandBuilder) resolveWorkingDirectory() (string, error) {
	if len(strings.TrimSpace(builder.WorkingDirectory)) > 0 {
		return builder.WorkingDirectory, nil
	}
	return os.Getwd()
}

func (builder *CommandBuilder) resolveOutput() io.Writer {
	if builder.Output != nil {
		return builder.Output
	}
	return os.Stdout
}
