package onboard

import (
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/viewyard/internal/execshell"
	"github.com/temirov/viewyard/internal/githubcli"
	"github.com/temirov/viewyard/internal/ui"
	pathutils "github.com/temirov/viewyard/internal/utils/path"
)

const (
	viewsetCommandUseConstant              = "viewset"
	viewsetCommandShortDescriptionConstant = "Manage viewset catalogs"
	initCommandUseConstant                 = "init [directory]"
	initCommandShortDescriptionConstant    = "Discover repositories via the GitHub CLI and write the repository catalog"
	defaultTargetDirectoryConstant         = "."
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the viewset onboarding commands.
type CommandBuilder struct {
	LoggerProvider LoggerProvider
	GitHubExecutor githubcli.GitHubCommandExecutor
	CommandTimeout time.Duration
	Output         io.Writer
	Input          io.Reader
	Selector       RepositorySelector
}

// Build constructs the viewset command with its init subcommand.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	viewsetCommand := &cobra.Command{
		Use:   viewsetCommandUseConstant,
		Short: viewsetCommandShortDescriptionConstant,
	}

	initCommand := &cobra.Command{
		Use:   initCommandUseConstant,
		Args:  cobra.MaximumNArgs(1),
		Short: initCommandShortDescriptionConstant,
		RunE:  builder.runInit,
	}
	viewsetCommand.AddCommand(initCommand)
	return viewsetCommand, nil
}

func (builder *CommandBuilder) runInit(command *cobra.Command, arguments []string) error {
	targetDirectory := defaultTargetDirectoryConstant
	if len(arguments) == 1 {
		targetDirectory = arguments[0]
	}
	targetDirectory = pathutils.NewHomeExpander().Expand(targetDirectory)

	service, serviceError := builder.prepareService()
	if serviceError != nil {
		return serviceError
	}
	return service.Run(command.Context(), targetDirectory)
}

func (builder *CommandBuilder) prepareService() (*Service, error) {
	logger := builder.resolveLogger()

	githubExecutor, executorError := builder.resolveGitHubExecutor(logger)
	if executorError != nil {
		return nil, executorError
	}
	discoveryClient, clientError := githubcli.NewClient(githubExecutor)
	if clientError != nil {
		return nil, clientError
	}

	output := builder.resolveOutput()
	selector := builder.Selector
	if selector == nil {
		selector = NewInteractiveSelector(builder.resolveInput(), output)
	}

	return NewService(logger, discoveryClient, selector, ui.NewConsoleWriter(output))
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

func (builder *CommandBuilder) resolveGitHubExecutor(logger *zap.Logger) (githubcli.GitHubCommandExecutor, error) {
	if builder.GitHubExecutor != nil {
		return builder.GitHubExecutor, nil
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

func (builder *CommandBuilder) resolveInput() io.Reader {
	if builder.Input != nil {
		return builder.Input
	}
	return os.Stdin
}
