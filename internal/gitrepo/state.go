package gitrepo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/temirov/viewyard/internal/execshell"
)

const (
	gitDirectoryArgumentConstant   = "--git-dir"
	rebaseMergeDirectoryConstant   = "rebase-merge"
	rebaseApplyDirectoryConstant   = "rebase-apply"
	detachedHeadBranchNameConstant = "HEAD"
)

// RepositoryStateKind tags the InspectRepositoryState result.
type RepositoryStateKind string

// Repository states ordered by inspection precedence.
const (
	RepositoryStateNotRepository RepositoryStateKind = "not_repository"
	RepositoryStateConflicted    RepositoryStateKind = "conflicted"
	RepositoryStateDetached      RepositoryStateKind = "detached"
	RepositoryStateDirty         RepositoryStateKind = "dirty"
	RepositoryStateClean         RepositoryStateKind = "clean"
)

// RepositoryState describes the condition of one working tree.
//
// Branch is populated for every kind except NotRepository; for Detached it
// holds the literal "HEAD".
type RepositoryState struct {
	Kind   RepositoryStateKind
	Branch string
}

// InspectRepositoryState determines the working tree condition in one pass.
//
// Precedence: not a repository, then an in-progress rebase or merge conflict,
// then a detached HEAD, then uncommitted changes, then clean.
func (manager *RepositoryManager) InspectRepositoryState(executionContext context.Context, repositoryPath string) (RepositoryState, error) {
	gitDirectoryResult, gitDirectoryError := manager.runGit(executionContext, repositoryPath, "rev-parse", gitDirectoryArgumentConstant)
	if gitDirectoryError != nil {
		commandFailure := execshell.CommandFailedError{}
		if errors.As(gitDirectoryError, &commandFailure) {
			return RepositoryState{Kind: RepositoryStateNotRepository}, nil
		}
		return RepositoryState{}, gitDirectoryError
	}

	gitDirectory := strings.TrimSpace(gitDirectoryResult.StandardOutput)
	if !filepath.IsAbs(gitDirectory) {
		gitDirectory = filepath.Join(repositoryPath, gitDirectory)
	}

	for _, operationDirectory := range []string{rebaseMergeDirectoryConstant, rebaseApplyDirectoryConstant} {
		if _, statError := os.Stat(filepath.Join(gitDirectory, operationDirectory)); statError == nil {
			return RepositoryState{Kind: RepositoryStateConflicted}, nil
		}
	}

	currentBranch, branchError := manager.CurrentBranch(executionContext, repositoryPath)
	if branchError != nil {
		return RepositoryState{}, branchError
	}
	if currentBranch == detachedHeadBranchNameConstant {
		return RepositoryState{Kind: RepositoryStateDetached, Branch: currentBranch}, nil
	}

	uncommittedChangeCount, statusError := manager.UncommittedChangeCount(executionContext, repositoryPath)
	if statusError != nil {
		return RepositoryState{}, statusError
	}
	if uncommittedChangeCount > 0 {
		return RepositoryState{Kind: RepositoryStateDirty, Branch: currentBranch}, nil
	}

	return RepositoryState{Kind: RepositoryStateClean, Branch: currentBranch}, nil
}
