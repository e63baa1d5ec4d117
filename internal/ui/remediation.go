package ui

import "github.com/temirov/viewyard/internal/execshell"

const (
	authenticationRemediationConstant = "Check repository access and SSH keys (try: ssh -T git@github.com)."
	notFoundRemediationConstant       = "Verify the repository URL and that your account can reach it."
	networkRemediationConstant        = "Check your network connection and retry."
	alreadyExistsRemediationConstant  = "Remove or rename the conflicting path, or pick a different view name."
	dirtyWorktreeRemediationConstant  = "Commit or stash local changes, then retry."
	timedOutRemediationConstant       = "The command exceeded its timeout; retry or raise git.command_timeout in the configuration."
)

var remediationHintsByFailureKind = map[execshell.FailureKind]string{
	execshell.FailureKindAuth:          authenticationRemediationConstant,
	execshell.FailureKindNotFound:      notFoundRemediationConstant,
	execshell.FailureKindNetwork:       networkRemediationConstant,
	execshell.FailureKindAlreadyExists: alreadyExistsRemediationConstant,
	execshell.FailureKindDirtyWorktree: dirtyWorktreeRemediationConstant,
	execshell.FailureKindTimedOut:      timedOutRemediationConstant,
}

// RemediationHint returns a one-line suggestion for the given failure kind.
//
// Generic failures yield an empty string so callers only print hints that add
// information beyond the raw git stderr.
func RemediationHint(failureKind execshell.FailureKind) string {
	return remediationHintsByFailureKind[failureKind]
}

// RemediationHintForError classifies the error and returns the matching hint.
func RemediationHintForError(failure error) string {
	return RemediationHint(execshell.ClassifyFailure(failure))
}
