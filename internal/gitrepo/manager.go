package gitrepo

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/temirov/viewyard/internal/execshell"
)

const (
	requiredValueMessageConstant       = "value required"
	originRemoteNameConstant           = "origin"
	remoteBranchReferencePrefix        = "refs/remotes/origin/"
	currentBranchArgumentConstant      = "--abbrev-ref"
	headReferenceConstant              = "HEAD"
	porcelainStatusFlagConstant        = "--porcelain"
	upstreamRevisionRangeConstant      = "@{upstream}..HEAD"
	commitMessageFlagConstant          = "-m"
	setUpstreamFlagConstant            = "-u"
	createBranchFlagConstant           = "-b"
	stageAllFlagConstant               = "-A"
	showRefVerifyFlagConstant          = "--verify"
	showRefQuietFlagConstant           = "--quiet"
	revListCountFlagConstant           = "--count"
	fastForwardOnlyFlagConstant        = "--ff-only"
	newlineConstant                    = "\n"
)

// ErrExecutorNotConfigured indicates construction without a git executor.
var ErrExecutorNotConfigured = errors.New("git executor not configured")

// GitExecutor runs git subcommands.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// RepositoryManager performs structured git operations against one repository
// working tree at a time.
//
// Every method is repository-local: configuration writes never touch the
// global git configuration.
type RepositoryManager struct {
	executor GitExecutor
}

// NewRepositoryManager constructs a RepositoryManager backed by the provided executor.
func NewRepositoryManager(executor GitExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &RepositoryManager{executor: executor}, nil
}

func (manager *RepositoryManager) runGit(executionContext context.Context, repositoryPath string, commandArguments ...string) (execshell.ExecutionResult, error) {
	return manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        commandArguments,
		WorkingDirectory: repositoryPath,
	})
}

// CurrentBranch returns the checked-out branch name, or "HEAD" when detached.
func (manager *RepositoryManager) CurrentBranch(executionContext context.Context, repositoryPath string) (string, error) {
	executionResult, executionError := manager.runGit(executionContext, repositoryPath, "rev-parse", currentBranchArgumentConstant, headReferenceConstant)
	if executionError != nil {
		return "", executionError
	}
	return strings.TrimSpace(executionResult.StandardOutput), nil
}

// UncommittedChangeCount counts entries reported by git status --porcelain.
func (manager *RepositoryManager) UncommittedChangeCount(executionContext context.Context, repositoryPath string) (int, error) {
	executionResult, executionError := manager.runGit(executionContext, repositoryPath, "status", porcelainStatusFlagConstant)
	if executionError != nil {
		return 0, executionError
	}
	return countNonEmptyLines(executionResult.StandardOutput), nil
}

// AheadCount counts commits ahead of the upstream branch.
//
// Repositories without an upstream report zero rather than an error.
func (manager *RepositoryManager) AheadCount(executionContext context.Context, repositoryPath string) (int, error) {
	executionResult, executionError := manager.runGit(executionContext, repositoryPath, "rev-list", revListCountFlagConstant, upstreamRevisionRangeConstant)
	if executionError != nil {
		commandFailure := execshell.CommandFailedError{}
		if errors.As(executionError, &commandFailure) {
			return 0, nil
		}
		return 0, executionError
	}

	trimmedCount := strings.TrimSpace(executionResult.StandardOutput)
	aheadCount, parseError := strconv.Atoi(trimmedCount)
	if parseError != nil {
		return 0, parseError
	}
	return aheadCount, nil
}

// StashCount counts entries reported by git stash list.
func (manager *RepositoryManager) StashCount(executionContext context.Context, repositoryPath string) (int, error) {
	executionResult, executionError := manager.runGit(executionContext, repositoryPath, "stash", "list")
	if executionError != nil {
		return 0, executionError
	}
	return countNonEmptyLines(executionResult.StandardOutput), nil
}

// Clone clones the remote into targetPath.
func (manager *RepositoryManager) Clone(executionContext context.Context, remoteURL string, targetPath string) error {
	_, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments: []string{"clone", remoteURL, targetPath},
	})
	return executionError
}

// Fetch updates remote tracking references from origin.
func (manager *RepositoryManager) Fetch(executionContext context.Context, repositoryPath string) error {
	_, executionError := manager.runGit(executionContext, repositoryPath, "fetch", originRemoteNameConstant)
	return executionError
}

// Checkout switches the working tree to an existing branch.
func (manager *RepositoryManager) Checkout(executionContext context.Context, repositoryPath string, branchName string) error {
	_, executionError := manager.runGit(executionContext, repositoryPath, "checkout", branchName)
	return executionError
}

// CreateBranch creates and checks out branchName starting from startPoint.
func (manager *RepositoryManager) CreateBranch(executionContext context.Context, repositoryPath string, branchName string, startPoint string) error {
	commandArguments := []string{"checkout", createBranchFlagConstant, branchName}
	if len(strings.TrimSpace(startPoint)) > 0 {
		commandArguments = append(commandArguments, startPoint)
	}
	_, executionError := manager.runGit(executionContext, repositoryPath, commandArguments...)
	return executionError
}

// PushSetUpstream publishes branchName to origin and records it as upstream.
func (manager *RepositoryManager) PushSetUpstream(executionContext context.Context, repositoryPath string, branchName string) error {
	_, executionError := manager.runGit(executionContext, repositoryPath, "push", setUpstreamFlagConstant, originRemoteNameConstant, branchName)
	return executionError
}

// Push publishes the current branch to its upstream.
func (manager *RepositoryManager) Push(executionContext context.Context, repositoryPath string) error {
	_, executionError := manager.runGit(executionContext, repositoryPath, "push")
	return executionError
}

// StageAll stages every change in the working tree, including deletions.
func (manager *RepositoryManager) StageAll(executionContext context.Context, repositoryPath string) error {
	_, executionError := manager.runGit(executionContext, repositoryPath, "add", stageAllFlagConstant)
	return executionError
}

// ResetIndex unstages everything while leaving the working tree untouched.
func (manager *RepositoryManager) ResetIndex(executionContext context.Context, repositoryPath string) error {
	_, executionError := manager.runGit(executionContext, repositoryPath, "reset", headReferenceConstant)
	return executionError
}

// Commit records the staged changes with the provided message.
func (manager *RepositoryManager) Commit(executionContext context.Context, repositoryPath string, commitMessage string) error {
	if len(strings.TrimSpace(commitMessage)) == 0 {
		return errors.New(requiredValueMessageConstant)
	}
	_, executionError := manager.runGit(executionContext, repositoryPath, "commit", commitMessageFlagConstant, commitMessage)
	return executionError
}

// MergeFastForward advances the current branch to the upstream reference,
// refusing to create a merge commit.
func (manager *RepositoryManager) MergeFastForward(executionContext context.Context, repositoryPath string, upstreamReference string) error {
	_, executionError := manager.runGit(executionContext, repositoryPath, "merge", fastForwardOnlyFlagConstant, upstreamReference)
	return executionError
}

// Rebase replays the current branch onto the provided upstream reference.
func (manager *RepositoryManager) Rebase(executionContext context.Context, repositoryPath string, upstreamReference string) error {
	_, executionError := manager.runGit(executionContext, repositoryPath, "rebase", upstreamReference)
	return executionError
}

// RemoteBranchExists reports whether origin carries a branch with the given name.
//
// The probe relies on the local remote tracking references, so callers should
// Fetch first when freshness matters.
func (manager *RepositoryManager) RemoteBranchExists(executionContext context.Context, repositoryPath string, branchName string) (bool, error) {
	_, executionError := manager.runGit(executionContext, repositoryPath, "show-ref", showRefVerifyFlagConstant, showRefQuietFlagConstant, remoteBranchReferencePrefix+branchName)
	if executionError != nil {
		commandFailure := execshell.CommandFailedError{}
		if errors.As(executionError, &commandFailure) {
			return false, nil
		}
		return false, executionError
	}
	return true, nil
}

// SetLocalConfig writes a repository-local configuration value.
func (manager *RepositoryManager) SetLocalConfig(executionContext context.Context, repositoryPath string, configurationKey string, configurationValue string) error {
	if len(strings.TrimSpace(configurationKey)) == 0 {
		return errors.New(requiredValueMessageConstant)
	}
	_, executionError := manager.runGit(executionContext, repositoryPath, "config", configurationKey, configurationValue)
	return executionError
}

func countNonEmptyLines(commandOutput string) int {
	lineCount := 0
	for _, outputLine := range strings.Split(commandOutput, newlineConstant) {
		if len(strings.TrimSpace(outputLine)) > 0 {
			lineCount++
		}
	}
	return lineCount
}
