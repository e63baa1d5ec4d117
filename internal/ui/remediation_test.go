package ui_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/viewyard/internal/execshell"
	"github.com/temirov/viewyard/internal/ui"
)

func TestRemediationHintCoversEveryActionableKind(testInstance *testing.T) {
	actionableKinds := []execshell.FailureKind{
		execshell.FailureKindAuth,
		execshell.FailureKindNotFound,
		execshell.FailureKindNetwork,
		execshell.FailureKindAlreadyExists,
		execshell.FailureKindDirtyWorktree,
		execshell.FailureKindTimedOut,
	}

	for _, failureKind := range actionableKinds {
		require.NotEmpty(testInstance, ui.RemediationHint(failureKind), string(failureKind))
	}

	require.Empty(testInstance, ui.RemediationHint(execshell.FailureKindGeneric))
}

func TestRemediationHintForErrorClassifiesFirst(testInstance *testing.T) {
	authenticationFailure := execshell.CommandFailedError{
		Command: execshell.ShellCommand{Name: execshell.CommandGit},
		Result:  execshell.ExecutionResult{ExitCode: 128, StandardError: "Permission denied (publickey)"},
	}

	require.Equal(testInstance, ui.RemediationHint(execshell.FailureKindAuth), ui.RemediationHintForError(authenticationFailure))
	require.Empty(testInstance, ui.RemediationHintForError(errors.New("unrelated failure")))
}
