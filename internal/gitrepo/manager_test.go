package gitrepo_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/viewyard/internal/execshell"
	"github.com/temirov/viewyard/internal/gitrepo"
)

const (
	testRepositoryPathConstant = "/workspace/views/feature/service"
	testBranchNameConstant     = "feature"
)

type scriptedResponse struct {
	result  execshell.ExecutionResult
	failure error
}

type scriptedGitExecutor struct {
	responses        map[string]scriptedResponse
	executedCommands []string
}

func newScriptedGitExecutor() *scriptedGitExecutor {
	return &scriptedGitExecutor{responses: map[string]scriptedResponse{}}
}

func (executor *scriptedGitExecutor) script(commandLine string, result execshell.ExecutionResult, failure error) {
	executor.responses[commandLine] = scriptedResponse{result: result, failure: failure}
}

func (executor *scriptedGitExecutor) scriptFailure(commandLine string, exitCode int, standardError string) {
	command := execshell.ShellCommand{Name: execshell.CommandGit, Details: execshell.CommandDetails{Arguments: strings.Fields(commandLine)}}
	result := execshell.ExecutionResult{ExitCode: exitCode, StandardError: standardError}
	executor.responses[commandLine] = scriptedResponse{result: result, failure: execshell.CommandFailedError{Command: command, Result: result}}
}

func (executor *scriptedGitExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	commandLine := strings.Join(details.Arguments, " ")
	executor.executedCommands = append(executor.executedCommands, commandLine)
	if response, scripted := executor.responses[commandLine]; scripted {
		return response.result, response.failure
	}
	return execshell.ExecutionResult{ExitCode: 0}, nil
}

func newTestRepositoryManager(testInstance *testing.T, executor gitrepo.GitExecutor) *gitrepo.RepositoryManager {
	repositoryManager, constructionError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, constructionError)
	return repositoryManager
}

func TestNewRepositoryManagerRequiresExecutor(testInstance *testing.T) {
	_, constructionError := gitrepo.NewRepositoryManager(nil)
	require.ErrorIs(testInstance, constructionError, gitrepo.ErrExecutorNotConfigured)
}

func TestRepositoryManagerCurrentBranchTrimsOutput(testInstance *testing.T) {
	scriptedExecutor := newScriptedGitExecutor()
	scriptedExecutor.script("rev-parse --abbrev-ref HEAD", execshell.ExecutionResult{StandardOutput: testBranchNameConstant + "\n"}, nil)
	repositoryManager := newTestRepositoryManager(testInstance, scriptedExecutor)

	currentBranch, branchError := repositoryManager.CurrentBranch(context.Background(), testRepositoryPathConstant)

	require.NoError(testInstance, branchError)
	require.Equal(testInstance, testBranchNameConstant, currentBranch)
}

func TestRepositoryManagerUncommittedChangeCount(testInstance *testing.T) {
	scriptedExecutor := newScriptedGitExecutor()
	scriptedExecutor.script("status --porcelain", execshell.ExecutionResult{StandardOutput: " M main.go\n?? notes.txt\n"}, nil)
	repositoryManager := newTestRepositoryManager(testInstance, scriptedExecutor)

	changeCount, statusError := repositoryManager.UncommittedChangeCount(context.Background(), testRepositoryPathConstant)

	require.NoError(testInstance, statusError)
	require.Equal(testInstance, 2, changeCount)
}

func TestRepositoryManagerAheadCount(testInstance *testing.T) {
	testCases := []struct {
		name          string
		configure     func(executor *scriptedGitExecutor)
		expectedCount int
	}{
		{
			name: "commits_ahead",
			configure: func(executor *scriptedGitExecutor) {
				executor.script("rev-list --count @{upstream}..HEAD", execshell.ExecutionResult{StandardOutput: "3\n"}, nil)
			},
			expectedCount: 3,
		},
		{
			name: "missing_upstream_reports_zero",
			configure: func(executor *scriptedGitExecutor) {
				executor.scriptFailure("rev-list --count @{upstream}..HEAD", 128, "fatal: no upstream configured for branch 'feature'")
			},
			expectedCount: 0,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			scriptedExecutor := newScriptedGitExecutor()
			testCase.configure(scriptedExecutor)
			repositoryManager := newTestRepositoryManager(testInstance, scriptedExecutor)

			aheadCount, aheadError := repositoryManager.AheadCount(context.Background(), testRepositoryPathConstant)

			require.NoError(testInstance, aheadError)
			require.Equal(testInstance, testCase.expectedCount, aheadCount)
		})
	}
}

func TestRepositoryManagerStashCount(testInstance *testing.T) {
	scriptedExecutor := newScriptedGitExecutor()
	scriptedExecutor.script("stash list", execshell.ExecutionResult{StandardOutput: "stash@{0}: WIP on feature\n"}, nil)
	repositoryManager := newTestRepositoryManager(testInstance, scriptedExecutor)

	stashCount, stashError := repositoryManager.StashCount(context.Background(), testRepositoryPathConstant)

	require.NoError(testInstance, stashError)
	require.Equal(testInstance, 1, stashCount)
}

func TestRepositoryManagerRemoteBranchExists(testInstance *testing.T) {
	testCases := []struct {
		name           string
		configure      func(executor *scriptedGitExecutor)
		expectedExists bool
	}{
		{
			name:           "branch_present",
			configure:      func(executor *scriptedGitExecutor) {},
			expectedExists: true,
		},
		{
			name: "branch_absent",
			configure: func(executor *scriptedGitExecutor) {
				executor.scriptFailure("show-ref --verify --quiet refs/remotes/origin/feature", 1, "")
			},
			expectedExists: false,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			scriptedExecutor := newScriptedGitExecutor()
			testCase.configure(scriptedExecutor)
			repositoryManager := newTestRepositoryManager(testInstance, scriptedExecutor)

			branchExists, probeError := repositoryManager.RemoteBranchExists(context.Background(), testRepositoryPathConstant, testBranchNameConstant)

			require.NoError(testInstance, probeError)
			require.Equal(testInstance, testCase.expectedExists, branchExists)
		})
	}
}

func TestRepositoryManagerCommitRequiresMessage(testInstance *testing.T) {
	repositoryManager := newTestRepositoryManager(testInstance, newScriptedGitExecutor())

	commitError := repositoryManager.Commit(context.Background(), testRepositoryPathConstant, "   ")

	require.Error(testInstance, commitError)
}

func TestRepositoryManagerSetLocalConfigStaysRepositoryLocal(testInstance *testing.T) {
	scriptedExecutor := newScriptedGitExecutor()
	repositoryManager := newTestRepositoryManager(testInstance, scriptedExecutor)

	configurationError := repositoryManager.SetLocalConfig(context.Background(), testRepositoryPathConstant, "user.email", "dev@example.com")

	require.NoError(testInstance, configurationError)
	require.Equal(testInstance, []string{"config user.email dev@example.com"}, scriptedExecutor.executedCommands)
	for _, executedCommand := range scriptedExecutor.executedCommands {
		require.NotContains(testInstance, executedCommand, "--global")
	}
}

func TestRepositoryManagerBranchSetupCommands(testInstance *testing.T) {
	scriptedExecutor := newScriptedGitExecutor()
	repositoryManager := newTestRepositoryManager(testInstance, scriptedExecutor)
	executionContext := context.Background()

	require.NoError(testInstance, repositoryManager.CreateBranch(executionContext, testRepositoryPathConstant, testBranchNameConstant, "origin/main"))
	require.NoError(testInstance, repositoryManager.PushSetUpstream(executionContext, testRepositoryPathConstant, testBranchNameConstant))
	require.NoError(testInstance, repositoryManager.StageAll(executionContext, testRepositoryPathConstant))
	require.NoError(testInstance, repositoryManager.ResetIndex(executionContext, testRepositoryPathConstant))

	require.Equal(testInstance, []string{
		"checkout -b feature origin/main",
		"push -u origin feature",
		"add -A",
		"reset HEAD",
	}, scriptedExecutor.executedCommands)
}
