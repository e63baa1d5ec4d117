package execshell

import (
	"errors"
	"strings"
)

// FailureKind categorizes why a git invocation failed, derived from stderr.
type FailureKind string

// Failure categories selected by ClassifyFailure.
const (
	FailureKindAuth          FailureKind = "auth"
	FailureKindNotFound      FailureKind = "not_found"
	FailureKindNetwork       FailureKind = "network"
	FailureKindAlreadyExists FailureKind = "already_exists"
	FailureKindDirtyWorktree FailureKind = "dirty_worktree"
	FailureKindTimedOut      FailureKind = "timed_out"
	FailureKindGeneric       FailureKind = "generic"
)

var authenticationPatterns = []string{"permission denied", "publickey"}
var notFoundPatterns = []string{"not found", "does not exist"}
var networkPatterns = []string{"timeout", "network", "could not resolve host"}
var alreadyExistsPatterns = []string{"already exists"}
var dirtyWorktreePatterns = []string{"uncommitted changes", "would be overwritten"}

// ClassifyStandardError maps git stderr output onto a FailureKind.
//
// Matching is substring based and case insensitive; it selects remediation
// text in higher layers and never changes control flow. This function is the
// single classification surface for the whole program.
func ClassifyStandardError(standardError string) FailureKind {
	loweredStandardError := strings.ToLower(standardError)

	patternGroups := []struct {
		patterns []string
		kind     FailureKind
	}{
		{patterns: authenticationPatterns, kind: FailureKindAuth},
		{patterns: notFoundPatterns, kind: FailureKindNotFound},
		{patterns: networkPatterns, kind: FailureKindNetwork},
		{patterns: alreadyExistsPatterns, kind: FailureKindAlreadyExists},
		{patterns: dirtyWorktreePatterns, kind: FailureKindDirtyWorktree},
	}

	for _, patternGroup := range patternGroups {
		for _, pattern := range patternGroup.patterns {
			if strings.Contains(loweredStandardError, pattern) {
				return patternGroup.kind
			}
		}
	}

	return FailureKindGeneric
}

// ClassifyFailure maps an executor error onto a FailureKind.
func ClassifyFailure(failure error) FailureKind {
	if failure == nil {
		return FailureKindGeneric
	}

	timeoutError := CommandTimedOutError{}
	if errors.As(failure, &timeoutError) {
		return FailureKindTimedOut
	}

	commandFailure := CommandFailedError{}
	if errors.As(failure, &commandFailure) {
		return ClassifyStandardError(commandFailure.Result.StandardError)
	}

	return FailureKindGeneric
}

// FailureDetail extracts the most informative human-readable detail from an executor error.
func FailureDetail(failure error) string {
	if failure == nil {
		return ""
	}

	commandFailure := CommandFailedError{}
	if errors.As(failure, &commandFailure) {
		trimmedStandardError := strings.TrimSpace(commandFailure.Result.StandardError)
		if len(trimmedStandardError) > 0 {
			return trimmedStandardError
		}
	}

	return failure.Error()
}
