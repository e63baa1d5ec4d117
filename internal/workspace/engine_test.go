package workspace_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/viewyard/internal/execshell"
	"github.com/temirov/viewyard/internal/gitrepo"
	"github.com/temirov/viewyard/internal/workspace"
)

type fakeGitService struct {
	states          map[string]gitrepo.RepositoryState
	stateFailures   map[string]error
	aheadCounts     map[string]int
	aheadFailures   map[string]error
	stashCounts     map[string]int
	changeCounts    map[string]int
	stageFailures   map[string]error
	commitFailures  map[string]error
	pushFailures    map[string]error
	fetchFailures   map[string]error
	rebaseFailures  map[string]error
	defaultBranches map[string]string
	stagedPaths     []string
	committedPaths  []string
	resetPaths      []string
	pushedPaths     []string
	rebasedPaths    []string
	mergedPaths     []string
}

func newFakeGitService() *fakeGitService {
	return &fakeGitService{
		states:          map[string]gitrepo.RepositoryState{},
		stateFailures:   map[string]error{},
		aheadCounts:     map[string]int{},
		aheadFailures:   map[string]error{},
		stashCounts:     map[string]int{},
		changeCounts:    map[string]int{},
		stageFailures:   map[string]error{},
		commitFailures:  map[string]error{},
		pushFailures:    map[string]error{},
		fetchFailures:   map[string]error{},
		rebaseFailures:  map[string]error{},
		defaultBranches: map[string]string{},
	}
}

func (service *fakeGitService) InspectRepositoryState(_ context.Context, repositoryPath string) (gitrepo.RepositoryState, error) {
	if stateFailure, failing := service.stateFailures[repositoryPath]; failing {
		return gitrepo.RepositoryState{}, stateFailure
	}
	if state, known := service.states[repositoryPath]; known {
		return state, nil
	}
	return gitrepo.RepositoryState{Kind: gitrepo.RepositoryStateClean, Branch: "feature"}, nil
}

func (service *fakeGitService) UncommittedChangeCount(_ context.Context, repositoryPath string) (int, error) {
	return service.changeCounts[repositoryPath], nil
}

func (service *fakeGitService) AheadCount(_ context.Context, repositoryPath string) (int, error) {
	if aheadFailure, failing := service.aheadFailures[repositoryPath]; failing {
		return 0, aheadFailure
	}
	return service.aheadCounts[repositoryPath], nil
}

func (service *fakeGitService) StashCount(_ context.Context, repositoryPath string) (int, error) {
	return service.stashCounts[repositoryPath], nil
}

func (service *fakeGitService) StageAll(_ context.Context, repositoryPath string) error {
	if stageFailure, failing := service.stageFailures[repositoryPath]; failing {
		return stageFailure
	}
	service.stagedPaths = append(service.stagedPaths, repositoryPath)
	return nil
}

func (service *fakeGitService) Commit(_ context.Context, repositoryPath string, _ string) error {
	if commitFailure, failing := service.commitFailures[repositoryPath]; failing {
		return commitFailure
	}
	service.committedPaths = append(service.committedPaths, repositoryPath)
	return nil
}

func (service *fakeGitService) ResetIndex(_ context.Context, repositoryPath string) error {
	service.resetPaths = append(service.resetPaths, repositoryPath)
	return nil
}

func (service *fakeGitService) Push(_ context.Context, repositoryPath string) error {
	if pushFailure, failing := service.pushFailures[repositoryPath]; failing {
		return pushFailure
	}
	service.pushedPaths = append(service.pushedPaths, repositoryPath)
	return nil
}

func (service *fakeGitService) Fetch(_ context.Context, repositoryPath string) error {
	return service.fetchFailures[repositoryPath]
}

func (service *fakeGitService) DetectDefaultBranch(_ context.Context, repositoryPath string) (string, error) {
	if defaultBranch, known := service.defaultBranches[repositoryPath]; known {
		return defaultBranch, nil
	}
	return "main", nil
}

func (service *fakeGitService) Rebase(_ context.Context, repositoryPath string, _ string) error {
	if rebaseFailure, failing := service.rebaseFailures[repositoryPath]; failing {
		return rebaseFailure
	}
	service.rebasedPaths = append(service.rebasedPaths, repositoryPath)
	return nil
}

func (service *fakeGitService) MergeFastForward(_ context.Context, repositoryPath string, _ string) error {
	service.mergedPaths = append(service.mergedPaths, repositoryPath)
	return nil
}

func commandFailure(standardError string) error {
	return execshell.CommandFailedError{
		Command: execshell.ShellCommand{Name: execshell.CommandGit},
		Result:  execshell.ExecutionResult{ExitCode: 1, StandardError: standardError},
	}
}

func commandTimeout() error {
	return execshell.CommandTimedOutError{
		Command: execshell.ShellCommand{Name: execshell.CommandGit},
		Timeout: time.Second,
	}
}

func newEngine(testInstance *testing.T, service workspace.RepositoryGitService) *workspace.SyncEngine {
	engine, constructionError := workspace.NewSyncEngine(zap.NewNop(), service)
	require.NoError(testInstance, constructionError)
	return engine
}

func makeTargets(testInstance *testing.T, repositoryNames ...string) []workspace.RepositoryTarget {
	viewRoot := testInstance.TempDir()
	targets := make([]workspace.RepositoryTarget, 0, len(repositoryNames))
	for _, repositoryName := range repositoryNames {
		repositoryPath := filepath.Join(viewRoot, repositoryName)
		require.NoError(testInstance, os.MkdirAll(repositoryPath, 0o755))
		targets = append(targets, workspace.RepositoryTarget{Name: repositoryName, Path: repositoryPath})
	}
	return targets
}

func outcomeStatuses(summary workspace.OperationSummary) []workspace.OutcomeStatus {
	statuses := make([]workspace.OutcomeStatus, 0, len(summary.Outcomes))
	for _, outcome := range summary.Outcomes {
		statuses = append(statuses, outcome.Status)
	}
	return statuses
}

func TestSyncEngineStatusReportsMissingCheckoutAndContinues(testInstance *testing.T) {
	service := newFakeGitService()
	targets := makeTargets(testInstance, "service", "library")
	targets = append([]workspace.RepositoryTarget{{Name: "ghost", Path: filepath.Join(testInstance.TempDir(), "ghost")}}, targets...)

	reports, statusError := newEngine(testInstance, service).Status(context.Background(), targets)

	require.NoError(testInstance, statusError)
	require.Len(testInstance, reports, 3)
	require.True(testInstance, reports[0].Missing)
	require.Equal(testInstance, gitrepo.RepositoryStateClean, reports[1].State)
	require.Equal(testInstance, "feature", reports[1].BranchName)
}

func TestSyncEngineStatusContinuesPastInspectionFailure(testInstance *testing.T) {
	service := newFakeGitService()
	targets := makeTargets(testInstance, "service", "library")
	service.stateFailures[targets[0].Path] = commandTimeout()

	reports, statusError := newEngine(testInstance, service).Status(context.Background(), targets)

	require.NoError(testInstance, statusError)
	require.Len(testInstance, reports, 2)
	require.NotEmpty(testInstance, reports[0].ErrorDetail)
	require.Empty(testInstance, reports[1].ErrorDetail)
	require.Equal(testInstance, gitrepo.RepositoryStateClean, reports[1].State)
	require.Equal(testInstance, "feature", reports[1].BranchName)
}

func TestSyncEngineStatusRecordsChangeCountFailure(testInstance *testing.T) {
	service := newFakeGitService()
	targets := makeTargets(testInstance, "service", "library")
	service.aheadFailures[targets[0].Path] = commandFailure("fatal: no upstream configured")

	reports, statusError := newEngine(testInstance, service).Status(context.Background(), targets)

	require.NoError(testInstance, statusError)
	require.Len(testInstance, reports, 2)
	require.Contains(testInstance, reports[0].ErrorDetail, "no upstream configured")
	require.Equal(testInstance, "feature", reports[0].BranchName)
	require.Empty(testInstance, reports[1].ErrorDetail)
}

func TestSyncEngineCommitAllTwoPhase(testInstance *testing.T) {
	service := newFakeGitService()
	targets := makeTargets(testInstance, "alpha", "beta", "gamma", "delta")
	service.states[targets[0].Path] = gitrepo.RepositoryState{Kind: gitrepo.RepositoryStateDirty, Branch: "feature"}
	service.states[targets[2].Path] = gitrepo.RepositoryState{Kind: gitrepo.RepositoryStateDirty, Branch: "feature"}
	service.states[targets[3].Path] = gitrepo.RepositoryState{Kind: gitrepo.RepositoryStateDirty, Branch: "feature"}
	service.commitFailures[targets[2].Path] = commandFailure("pre-commit hook declined")

	summary, commitError := newEngine(testInstance, service).CommitAll(context.Background(), targets, "sync view")

	require.NoError(testInstance, commitError)
	require.Equal(testInstance, []workspace.OutcomeStatus{
		workspace.OutcomeSucceeded,
		workspace.OutcomeSkipped,
		workspace.OutcomeFailed,
		workspace.OutcomeNotAttempted,
	}, outcomeStatuses(summary))
	require.Equal(testInstance, []string{targets[0].Path}, service.committedPaths)
	require.Equal(testInstance, []string{targets[2].Path}, service.resetPaths)
	require.Contains(testInstance, summary.Outcomes[2].Detail, "pre-commit hook declined")
	require.True(testInstance, summary.Failed())
}

func TestSyncEngineCommitAllAbortsScanOnConflict(testInstance *testing.T) {
	service := newFakeGitService()
	targets := makeTargets(testInstance, "alpha", "beta")
	service.states[targets[0].Path] = gitrepo.RepositoryState{Kind: gitrepo.RepositoryStateDirty, Branch: "feature"}
	service.states[targets[1].Path] = gitrepo.RepositoryState{Kind: gitrepo.RepositoryStateConflicted}

	summary, commitError := newEngine(testInstance, service).CommitAll(context.Background(), targets, "sync view")

	require.NoError(testInstance, commitError)
	require.Empty(testInstance, service.stagedPaths)
	require.Equal(testInstance, []workspace.OutcomeStatus{
		workspace.OutcomeNotAttempted,
		workspace.OutcomeFailed,
	}, outcomeStatuses(summary))
	require.Equal(testInstance, "alpha", summary.Outcomes[0].RepositoryName)
	require.Equal(testInstance, "beta", summary.Outcomes[1].RepositoryName)
}

func TestSyncEngineCommitAllReportsScanFailureAcrossTargets(testInstance *testing.T) {
	service := newFakeGitService()
	targets := makeTargets(testInstance, "alpha", "beta", "gamma")
	service.stateFailures[targets[1].Path] = commandTimeout()

	summary, commitError := newEngine(testInstance, service).CommitAll(context.Background(), targets, "sync view")

	require.NoError(testInstance, commitError)
	require.Empty(testInstance, service.stagedPaths)
	require.Equal(testInstance, []workspace.OutcomeStatus{
		workspace.OutcomeSkipped,
		workspace.OutcomeFailed,
		workspace.OutcomeNotAttempted,
	}, outcomeStatuses(summary))
	require.Contains(testInstance, summary.Outcomes[1].Detail, "timed out")
	require.True(testInstance, summary.Failed())
}

func TestSyncEngineCommitAllResetsIndexWhenStagingFails(testInstance *testing.T) {
	service := newFakeGitService()
	targets := makeTargets(testInstance, "alpha", "beta")
	service.states[targets[0].Path] = gitrepo.RepositoryState{Kind: gitrepo.RepositoryStateDirty, Branch: "feature"}
	service.stageFailures[targets[0].Path] = commandFailure("unable to write index file")

	summary, commitError := newEngine(testInstance, service).CommitAll(context.Background(), targets, "sync view")

	require.NoError(testInstance, commitError)
	require.Empty(testInstance, service.committedPaths)
	require.Equal(testInstance, []string{targets[0].Path}, service.resetPaths)
	require.Equal(testInstance, []workspace.OutcomeStatus{
		workspace.OutcomeFailed,
		workspace.OutcomeSkipped,
	}, outcomeStatuses(summary))
	require.Contains(testInstance, summary.Outcomes[0].Detail, "unable to write index file")
}

func TestSyncEnginePushAllStopsAtFirstFailure(testInstance *testing.T) {
	service := newFakeGitService()
	targets := makeTargets(testInstance, "alpha", "beta", "gamma", "delta")
	service.aheadCounts[targets[0].Path] = 2
	service.aheadCounts[targets[2].Path] = 1
	service.aheadCounts[targets[3].Path] = 1
	service.pushFailures[targets[2].Path] = commandFailure("Permission denied (publickey)")

	summary, pushError := newEngine(testInstance, service).PushAll(context.Background(), targets)

	require.NoError(testInstance, pushError)
	require.Equal(testInstance, []workspace.OutcomeStatus{
		workspace.OutcomeSucceeded,
		workspace.OutcomeSkipped,
		workspace.OutcomeFailed,
		workspace.OutcomeNotAttempted,
	}, outcomeStatuses(summary))
	require.Equal(testInstance, []string{targets[0].Path}, service.pushedPaths)
	require.NotEmpty(testInstance, summary.Outcomes[2].Hint)
}

func TestSyncEnginePushAllRecordsAheadQueryFailure(testInstance *testing.T) {
	service := newFakeGitService()
	targets := makeTargets(testInstance, "alpha", "beta")
	service.aheadFailures[targets[0].Path] = commandTimeout()
	service.aheadCounts[targets[1].Path] = 1

	summary, pushError := newEngine(testInstance, service).PushAll(context.Background(), targets)

	require.NoError(testInstance, pushError)
	require.Empty(testInstance, service.pushedPaths)
	require.Equal(testInstance, []workspace.OutcomeStatus{
		workspace.OutcomeFailed,
		workspace.OutcomeNotAttempted,
	}, outcomeStatuses(summary))
	require.Contains(testInstance, summary.Outcomes[0].Detail, "timed out")
}

func TestSyncEngineRebaseRecordsInspectionFailure(testInstance *testing.T) {
	service := newFakeGitService()
	targets := makeTargets(testInstance, "alpha", "beta")
	service.stateFailures[targets[0].Path] = commandTimeout()

	summary, rebaseError := newEngine(testInstance, service).Rebase(context.Background(), targets)

	require.NoError(testInstance, rebaseError)
	require.Empty(testInstance, service.rebasedPaths)
	require.Equal(testInstance, []workspace.OutcomeStatus{
		workspace.OutcomeFailed,
		workspace.OutcomeNotAttempted,
	}, outcomeStatuses(summary))
}

func TestSyncEngineRebaseRequiresCleanWorktree(testInstance *testing.T) {
	service := newFakeGitService()
	targets := makeTargets(testInstance, "alpha", "beta")
	service.states[targets[0].Path] = gitrepo.RepositoryState{Kind: gitrepo.RepositoryStateDirty, Branch: "feature"}

	summary, rebaseError := newEngine(testInstance, service).Rebase(context.Background(), targets)

	require.NoError(testInstance, rebaseError)
	require.Empty(testInstance, service.rebasedPaths)
	require.Equal(testInstance, []workspace.OutcomeStatus{
		workspace.OutcomeFailed,
		workspace.OutcomeNotAttempted,
	}, outcomeStatuses(summary))
}

func TestSyncEngineRebaseUsesDetectedDefaultBranch(testInstance *testing.T) {
	service := newFakeGitService()
	targets := makeTargets(testInstance, "alpha")
	service.defaultBranches[targets[0].Path] = "trunk"

	summary, rebaseError := newEngine(testInstance, service).Rebase(context.Background(), targets)

	require.NoError(testInstance, rebaseError)
	require.False(testInstance, summary.Failed())
	require.Equal(testInstance, []string{targets[0].Path}, service.rebasedPaths)
	require.Equal(testInstance, "origin/trunk", summary.Outcomes[0].Detail)
}

func TestSyncEngineRebaseFastForwardsOnDefaultBranch(testInstance *testing.T) {
	service := newFakeGitService()
	targets := makeTargets(testInstance, "alpha")
	service.states[targets[0].Path] = gitrepo.RepositoryState{Kind: gitrepo.RepositoryStateClean, Branch: "main"}

	summary, rebaseError := newEngine(testInstance, service).Rebase(context.Background(), targets)

	require.NoError(testInstance, rebaseError)
	require.False(testInstance, summary.Failed())
	require.Empty(testInstance, service.rebasedPaths)
	require.Equal(testInstance, []string{targets[0].Path}, service.mergedPaths)
}
