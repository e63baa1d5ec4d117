package view

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
	"github.com/temirov/viewyard/internal/workspace"
)

const (
	viewCommandUseConstant                = "view"
	viewCommandShortDescriptionConstant   = "Manage views of the current viewset"
	createCommandUseConstant              = "create <name>"
	createCommandShortDescription         = "Clone every catalog repository into a new view"
	updateCommandUseConstant              = "update [name]"
	updateCommandShortDescription         = "Clone catalog repositories missing from a view"
	listCommandUseConstant                = "list"
	listCommandShortDescriptionConstant   = "List views under the current viewset"
	deleteCommandUseConstant              = "delete <name>"
	deleteCommandShortDescriptionConstant = "Delete a view directory"
	flagForceNameConstant                 = "force"
	flagForceDescriptionConstant          = "Delete without confirmation"
	deletePromptTemplateConstant          = "Permanently delete view %q and everything under %s? [y/N] "
	deletionCancelledMessageConstant      = "deletion cancelled"
	updateViewNameRequiredConstant        = "provide a view name or run inside a view"
	createdMessageTemplateConstant        = "View %s created with %d repositories"
	updatedMessageTemplateConstant        = "View %s updated: %d repositories added"
	upToDateMessageTemplateConstant       = "View %s is already up to date"
	noViewsMessageConstant                = "No views found. Create one with: viewyard view create <name>"
	listLineTemplateConstant              = "%s (%d repositories)"
	deleteSuccessTemplateConstant         = "View %s deleted"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the view management commands.
type CommandBuilder struct {
	LoggerProvider   LoggerProvider
	GitExecutor      gitrepo.GitExecutor
	WorkingDirectory string
	CommandTimeout   time.Duration
	Output           io.Writer
	Input            io.Reader
	Prompter         ui.ConfirmationPrompter
}

// Build constructs the view command with its subcommands.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	viewCommand := &cobra.Command{
		Use:   viewCommandUseConstant,
		Short: viewCommandShortDescriptionConstant,
	}

	createCommand := &cobra.Command{
		Use:   createCommandUseConstant,
		Short: createCommandShortDescription,
		Args:  cobra.ExactArgs(1),
		RunE:  builder.runCreate,
	}

	updateCommand := &cobra.Command{
		Use:   updateCommandUseConstant,
		Short: updateCommandShortDescription,
		Args:  cobra.MaximumNArgs(1),
		RunE:  builder.runUpdate,
	}

	listCommand := &cobra.Command{
		Use:   listCommandUseConstant,
		Short: listCommandShortDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.runList,
	}

	deleteCommand := &cobra.Command{
		Use:   deleteCommandUseConstant,
		Short: deleteCommandShortDescriptionConstant,
		Args:  cobra.ExactArgs(1),
		RunE:  builder.runDelete,
	}
	deleteCommand.Flags().Bool(flagForceNameConstant, false, flagForceDescriptionConstant)

	viewCommand.AddCommand(createCommand, updateCommand, listCommand, deleteCommand)
	return viewCommand, nil
}

type commandEnvironment struct {
	logger           *zap.Logger
	console          *ui.ConsoleWriter
	workspaceContext workspace.WorkspaceContext
	descriptors      []config.RepositoryDescriptor
	lifecycle        *LifecycleManager
}

func (builder *CommandBuilder) runCreate(command *cobra.Command, arguments []string) error {
	environment, environmentError := builder.prepare(true)
	if environmentError != nil {
		return environmentError
	}

	viewName := strings.TrimSpace(arguments[0])
	if createError := environment.lifecycle.Create(command.Context(), environment.workspaceContext.ViewsetRoot, viewName, environment.descriptors); createError != nil {
		return createError
	}

	environment.console.Successf(createdMessageTemplateConstant, viewName, len(environment.descriptors))
	return nil
}

func (builder *CommandBuilder) runUpdate(command *cobra.Command, arguments []string) error {
	environment, environmentError := builder.prepare(true)
	if environmentError != nil {
		return environmentError
	}

	viewName := environment.workspaceContext.ViewName
	if len(arguments) == 1 {
		viewName = strings.TrimSpace(arguments[0])
	}
	if len(viewName) == 0 {
		return errors.New(updateViewNameRequiredConstant)
	}

	addedRepositories, updateError := environment.lifecycle.Update(command.Context(), environment.workspaceContext.ViewsetRoot, viewName, environment.descriptors)
	if updateError != nil {
		return updateError
	}

	if len(addedRepositories) == 0 {
		environment.console.Successf(upToDateMessageTemplateConstant, viewName)
		return nil
	}
	environment.console.Successf(updatedMessageTemplateConstant, viewName, len(addedRepositories))
	return nil
}

func (builder *CommandBuilder) runList(_ *cobra.Command, _ []string) error {
	environment, environmentError := builder.prepare(false)
	if environmentError != nil {
		return environmentError
	}

	summaries, listError := List(environment.workspaceContext.ViewsetRoot)
	if listError != nil {
		return listError
	}

	if len(summaries) == 0 {
		environment.console.Printf(noViewsMessageConstant)
		return nil
	}
	for _, summary := range summaries {
		environment.console.Printf(listLineTemplateConstant, summary.Name, summary.RepositoryCount)
	}
	return nil
}

func (builder *CommandBuilder) runDelete(command *cobra.Command, arguments []string) error {
	environment, environmentError := builder.prepare(false)
	if environmentError != nil {
		return environmentError
	}

	viewName := strings.TrimSpace(arguments[0])
	forceValue, _ := command.Flags().GetBool(flagForceNameConstant)

	if !forceValue {
		prompter := builder.resolvePrompter()
		prompt := fmt.Sprintf(deletePromptTemplateConstant, viewName, environment.workspaceContext.ViewsetRoot)
		confirmed, promptError := prompter.Confirm(prompt)
		if promptError != nil {
			return promptError
		}
		if !confirmed {
			environment.console.Printf(deletionCancelledMessageConstant)
			return nil
		}
	}

	if deleteError := Delete(environment.workspaceContext.ViewsetRoot, viewName); deleteError != nil {
		return deleteError
	}
	environment.console.Successf(deleteSuccessTemplateConstant, viewName)
	return nil
}

func (builder *CommandBuilder) prepare(needGitService bool) (commandEnvironment, error) {
	logger := builder.resolveLogger()

	workingDirectory := builder.WorkingDirectory
	if len(strings.TrimSpace(workingDirectory)) == 0 {
		currentDirectory, workingDirectoryError := os.Getwd()
		if workingDirectoryError != nil {
			return commandEnvironment{}, workingDirectoryError
		}
		workingDirectory = currentDirectory
	}

	workspaceContext, resolutionError := workspace.ResolveWorkspaceContext(workingDirectory)
	if resolutionError != nil {
		return commandEnvironment{}, resolutionError
	}

	console := ui.NewConsoleWriter(builder.resolveOutput())

	descriptors, warnings, loadError := config.NewDescriptorStore().Load(workspaceContext.ViewsetRoot)
	if loadError != nil {
		return commandEnvironment{}, loadError
	}
	for _, warning := range warnings {
		console.Warningf("%s", warning)
	}

	environment := commandEnvironment{
		logger:           logger,
		console:          console,
		workspaceContext: workspaceContext,
		descriptors:      descriptors,
	}

	if needGitService {
		gitExecutor, executorError := builder.resolveGitExecutor(logger)
		if executorError != nil {
			return commandEnvironment{}, executorError
		}
		repositoryManager, managerError := gitrepo.NewRepositoryManager(gitExecutor)
		if managerError != nil {
			return commandEnvironment{}, managerError
		}
		lifecycle, lifecycleError := NewLifecycleManager(logger, repositoryManager)
		if lifecycleError != nil {
			return commandEnvironment{}, lifecycleError
		}
		environment.lifecycle = lifecycle
	}

	return environment, nil
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

func (builder *CommandBuilder) resolveOutput() io.Writer {
	if builder.Output != nil {
		return builder.Output
	}
	return os.Stdout
}

func (builder *CommandBuilder) resolvePrompter() ui.ConfirmationPrompter {
	if builder.Prompter != nil {
		return builder.Prompter
	}
	inputReader := builder.Input
	if inputReader == nil {
		inputReader = os.Stdin
	}
	return ui.NewIOConfirmationPrompter(inputReader, builder.resolveOutput())
}
