package gitrepo

import (
	"context"
	"errors"
	"strings"

	"github.com/temirov/viewyard/internal/execshell"
)

const (
	symbolicRefRemoteHeadConstant    = "refs/remotes/origin/HEAD"
	remoteShowHeadBranchPrefixStanza = "HEAD branch:"
)

// ErrNoDefaultBranch indicates that no detection strategy produced a branch.
var ErrNoDefaultBranch = errors.New("unable to determine default branch")

var defaultBranchCandidates = []string{"main", "master", "develop"}

// DetectDefaultBranch determines the default branch of origin.
//
// Strategies run in order until one succeeds: the symbolic-ref recorded at
// clone time, the HEAD branch reported by git remote show, and finally a probe
// of the conventional branch names.
func (manager *RepositoryManager) DetectDefaultBranch(executionContext context.Context, repositoryPath string) (string, error) {
	symbolicReferenceResult, symbolicReferenceError := manager.runGit(executionContext, repositoryPath, "symbolic-ref", symbolicRefRemoteHeadConstant)
	if symbolicReferenceError == nil {
		referenceName := strings.TrimSpace(symbolicReferenceResult.StandardOutput)
		branchName := strings.TrimPrefix(referenceName, remoteBranchReferencePrefix)
		if len(branchName) > 0 && branchName != referenceName {
			return branchName, nil
		}
	} else if !isCommandFailure(symbolicReferenceError) {
		return "", symbolicReferenceError
	}

	remoteShowResult, remoteShowError := manager.runGit(executionContext, repositoryPath, "remote", "show", originRemoteNameConstant)
	if remoteShowError == nil {
		if branchName := parseRemoteShowHeadBranch(remoteShowResult.StandardOutput); len(branchName) > 0 {
			return branchName, nil
		}
	} else if !isCommandFailure(remoteShowError) {
		return "", remoteShowError
	}

	for _, candidateBranch := range defaultBranchCandidates {
		candidateExists, probeError := manager.RemoteBranchExists(executionContext, repositoryPath, candidateBranch)
		if probeError != nil {
			return "", probeError
		}
		if candidateExists {
			return candidateBranch, nil
		}
	}

	return "", ErrNoDefaultBranch
}

func parseRemoteShowHeadBranch(remoteShowOutput string) string {
	for _, outputLine := range strings.Split(remoteShowOutput, newlineConstant) {
		trimmedLine := strings.TrimSpace(outputLine)
		if strings.HasPrefix(trimmedLine, remoteShowHeadBranchPrefixStanza) {
			branchName := strings.TrimSpace(strings.TrimPrefix(trimmedLine, remoteShowHeadBranchPrefixStanza))
			if branchName == "(unknown)" {
				return ""
			}
			return branchName
		}
	}
	return ""
}

func isCommandFailure(executionError error) bool {
	commandFailure := execshell.CommandFailedError{}
	return errors.As(executionError, &commandFailure)
}
