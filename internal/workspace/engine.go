package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/temirov/viewyard/internal/config"
	"github.com/temirov/viewyard/internal/execshell"
	"github.com/temirov/viewyard/internal/gitrepo"
	"github.com/temirov/viewyard/internal/ui"
)

const (
	missingCheckoutDetailConstant         = "missing from view"
	nothingToCommitDetailConstant         = "nothing to commit"
	nothingToPushDetailConstant           = "nothing to push"
	stoppedAfterFailureDetailConstant     = "not attempted after earlier failure"
	conflictedWorktreeDetailConstant      = "rebase or merge in progress"
	detachedHeadDetailConstant            = "detached HEAD"
	dirtyWorktreePreconditionConstant     = "uncommitted changes present"
	rebaseConflictHintConstant            = "Resolve the conflicts and run git rebase --continue, or git rebase --abort to back out."
	conflictedWorktreeHintConstant        = "Finish or abort the in-progress operation before retrying."
	statusInspectionFailedMessageConstant = "repository inspection failed"
	commitRolledBackDetailTemplate        = "commit failed, index reset: %s"
	rebaseUpstreamReferenceTemplate       = "origin/%s"
	repositoryNameLogFieldConstant        = "repository"
	operationLogFieldConstant             = "operation"
	statusOperationNameConstant           = "status"
	commitAllOperationNameConstant        = "commit-all"
	pushAllOperationNameConstant          = "push-all"
	rebaseOperationNameConstant           = "rebase"
)

// ErrLoggerNotConfigured indicates construction without a logger.
var ErrLoggerNotConfigured = errors.New("logger not configured")

// ErrGitServiceNotConfigured indicates construction without a git service.
var ErrGitServiceNotConfigured = errors.New("git service not configured")

// RepositoryGitService captures the git operations the engine needs per repository.
type RepositoryGitService interface {
	InspectRepositoryState(executionContext context.Context, repositoryPath string) (gitrepo.RepositoryState, error)
	UncommittedChangeCount(executionContext context.Context, repositoryPath string) (int, error)
	AheadCount(executionContext context.Context, repositoryPath string) (int, error)
	StashCount(executionContext context.Context, repositoryPath string) (int, error)
	StageAll(executionContext context.Context, repositoryPath string) error
	Commit(executionContext context.Context, repositoryPath string, commitMessage string) error
	ResetIndex(executionContext context.Context, repositoryPath string) error
	Push(executionContext context.Context, repositoryPath string) error
	Fetch(executionContext context.Context, repositoryPath string) error
	DetectDefaultBranch(executionContext context.Context, repositoryPath string) (string, error)
	Rebase(executionContext context.Context, repositoryPath string, upstreamReference string) error
	MergeFastForward(executionContext context.Context, repositoryPath string, upstreamReference string) error
}

// RepositoryTarget pairs a catalog entry with its checkout path inside a view.
type RepositoryTarget struct {
	Name string
	Path string
}

// TargetsFromDescriptors maps catalog entries to checkout paths in catalog order.
func TargetsFromDescriptors(workspaceContext WorkspaceContext, descriptors []config.RepositoryDescriptor) []RepositoryTarget {
	targets := make([]RepositoryTarget, 0, len(descriptors))
	for _, descriptor := range descriptors {
		targets = append(targets, RepositoryTarget{
			Name: descriptor.Name,
			Path: workspaceContext.RepositoryPath(descriptor.DirectoryName()),
		})
	}
	return targets
}

// RepositoryStatusReport describes one repository for the status table.
//
// ErrorDetail is set when inspecting the repository itself failed; such an
// entry carries no usable branch or change information.
type RepositoryStatusReport struct {
	RepositoryName     string
	BranchName         string
	State              gitrepo.RepositoryStateKind
	UncommittedChanges int
	CommitsAhead       int
	StashedChanges     int
	Missing            bool
	ErrorDetail        string
}

// SyncEngine runs bulk operations across every repository of a view.
//
// Repositories are always processed sequentially in catalog order; mutating
// operations stop at the first failure and report the remainder as not
// attempted.
type SyncEngine struct {
	logger     *zap.Logger
	gitService RepositoryGitService
}

// NewSyncEngine constructs a SyncEngine from its collaborators.
func NewSyncEngine(logger *zap.Logger, gitService RepositoryGitService) (*SyncEngine, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if gitService == nil {
		return nil, ErrGitServiceNotConfigured
	}
	return &SyncEngine{logger: logger, gitService: gitService}, nil
}

func checkoutExists(repositoryPath string) bool {
	pathInfo, statError := os.Stat(repositoryPath)
	return statError == nil && pathInfo.IsDir()
}

// Status collects a report for every repository without mutating anything.
//
// Missing or broken checkouts are reported in place and never interrupt the
// remaining repositories.
func (engine *SyncEngine) Status(executionContext context.Context, targets []RepositoryTarget) ([]RepositoryStatusReport, error) {
	reports := make([]RepositoryStatusReport, 0, len(targets))
	for _, target := range targets {
		if contextError := executionContext.Err(); contextError != nil {
			return reports, contextError
		}

		if !checkoutExists(target.Path) {
			reports = append(reports, RepositoryStatusReport{RepositoryName: target.Name, Missing: true})
			continue
		}

		repositoryState, stateError := engine.gitService.InspectRepositoryState(executionContext, target.Path)
		if stateError != nil {
			engine.logger.Warn(statusInspectionFailedMessageConstant,
				zap.String(repositoryNameLogFieldConstant, target.Name),
				zap.Error(stateError),
			)
			reports = append(reports, RepositoryStatusReport{RepositoryName: target.Name, ErrorDetail: execshell.FailureDetail(stateError)})
			continue
		}

		report := RepositoryStatusReport{
			RepositoryName: target.Name,
			BranchName:     repositoryState.Branch,
			State:          repositoryState.Kind,
		}

		if repositoryState.Kind == gitrepo.RepositoryStateDirty || repositoryState.Kind == gitrepo.RepositoryStateClean {
			if countError := engine.populateChangeCounts(executionContext, target.Path, &report); countError != nil {
				engine.logger.Warn(statusInspectionFailedMessageConstant,
					zap.String(repositoryNameLogFieldConstant, target.Name),
					zap.Error(countError),
				)
				report.ErrorDetail = execshell.FailureDetail(countError)
				reports = append(reports, report)
				continue
			}
		}

		engine.logger.Debug(statusOperationNameConstant,
			zap.String(repositoryNameLogFieldConstant, target.Name),
			zap.String("state", string(repositoryState.Kind)),
		)
		reports = append(reports, report)
	}
	return reports, nil
}

func (engine *SyncEngine) populateChangeCounts(executionContext context.Context, repositoryPath string, report *RepositoryStatusReport) error {
	uncommittedChanges, statusError := engine.gitService.UncommittedChangeCount(executionContext, repositoryPath)
	if statusError != nil {
		return statusError
	}
	commitsAhead, aheadError := engine.gitService.AheadCount(executionContext, repositoryPath)
	if aheadError != nil {
		return aheadError
	}
	stashedChanges, stashError := engine.gitService.StashCount(executionContext, repositoryPath)
	if stashError != nil {
		return stashError
	}
	report.UncommittedChanges = uncommittedChanges
	report.CommitsAhead = commitsAhead
	report.StashedChanges = stashedChanges
	return nil
}

// CommitAll commits every dirty repository with one shared message.
//
// A scan phase first decides which repositories need a commit, so a failure
// in the commit phase never leaves later repositories half staged. The failed
// repository itself has its index reset before the operation stops.
func (engine *SyncEngine) CommitAll(executionContext context.Context, targets []RepositoryTarget, commitMessage string) (OperationSummary, error) {
	summary := OperationSummary{}

	type commitCandidate struct {
		target    RepositoryTarget
		hasWork   bool
		skipCause string
	}

	candidates := make([]commitCandidate, 0, len(targets))
	abortScan := func(failedOutcome RepositoryOutcome, remainingTargets []RepositoryTarget) OperationSummary {
		for _, candidate := range candidates {
			if candidate.hasWork {
				summary.Append(RepositoryOutcome{RepositoryName: candidate.target.Name, Status: OutcomeNotAttempted, Detail: stoppedAfterFailureDetailConstant})
				continue
			}
			summary.Append(RepositoryOutcome{RepositoryName: candidate.target.Name, Status: OutcomeSkipped, Detail: candidate.skipCause})
		}
		summary.Append(failedOutcome)
		for _, remainingTarget := range remainingTargets {
			summary.Append(RepositoryOutcome{RepositoryName: remainingTarget.Name, Status: OutcomeNotAttempted, Detail: stoppedAfterFailureDetailConstant})
		}
		return summary
	}

	for targetIndex, target := range targets {
		if contextError := executionContext.Err(); contextError != nil {
			return summary, contextError
		}
		remainingTargets := targets[targetIndex+1:]

		if !checkoutExists(target.Path) {
			return abortScan(RepositoryOutcome{RepositoryName: target.Name, Status: OutcomeFailed, Detail: missingCheckoutDetailConstant}, remainingTargets), nil
		}

		repositoryState, stateError := engine.gitService.InspectRepositoryState(executionContext, target.Path)
		if stateError != nil {
			engine.logger.Warn(statusInspectionFailedMessageConstant,
				zap.String(repositoryNameLogFieldConstant, target.Name),
				zap.Error(stateError),
			)
			failedOutcome := RepositoryOutcome{
				RepositoryName: target.Name,
				Status:         OutcomeFailed,
				Detail:         execshell.FailureDetail(stateError),
				Hint:           ui.RemediationHintForError(stateError),
			}
			return abortScan(failedOutcome, remainingTargets), nil
		}

		switch repositoryState.Kind {
		case gitrepo.RepositoryStateConflicted:
			return abortScan(RepositoryOutcome{RepositoryName: target.Name, Status: OutcomeFailed, Detail: conflictedWorktreeDetailConstant, Hint: conflictedWorktreeHintConstant}, remainingTargets), nil
		case gitrepo.RepositoryStateNotRepository:
			return abortScan(RepositoryOutcome{RepositoryName: target.Name, Status: OutcomeFailed, Detail: missingCheckoutDetailConstant}, remainingTargets), nil
		case gitrepo.RepositoryStateDetached:
			return abortScan(RepositoryOutcome{RepositoryName: target.Name, Status: OutcomeFailed, Detail: detachedHeadDetailConstant}, remainingTargets), nil
		case gitrepo.RepositoryStateDirty:
			candidates = append(candidates, commitCandidate{target: target, hasWork: true})
		default:
			candidates = append(candidates, commitCandidate{target: target, skipCause: nothingToCommitDetailConstant})
		}
	}

	commitFailed := false
	for _, candidate := range candidates {
		if !candidate.hasWork {
			summary.Append(RepositoryOutcome{RepositoryName: candidate.target.Name, Status: OutcomeSkipped, Detail: candidate.skipCause})
			continue
		}
		if commitFailed {
			summary.Append(RepositoryOutcome{RepositoryName: candidate.target.Name, Status: OutcomeNotAttempted, Detail: stoppedAfterFailureDetailConstant})
			continue
		}

		if stageError := engine.stageAndCommit(executionContext, candidate.target, commitMessage); stageError != nil {
			commitFailed = true
			summary.Append(RepositoryOutcome{
				RepositoryName: candidate.target.Name,
				Status:         OutcomeFailed,
				Detail:         fmt.Sprintf(commitRolledBackDetailTemplate, execshell.FailureDetail(stageError)),
				Hint:           ui.RemediationHintForError(stageError),
			})
			continue
		}

		engine.logger.Info(commitAllOperationNameConstant, zap.String(repositoryNameLogFieldConstant, candidate.target.Name))
		summary.Append(RepositoryOutcome{RepositoryName: candidate.target.Name, Status: OutcomeSucceeded})
	}

	return summary, nil
}

func (engine *SyncEngine) stageAndCommit(executionContext context.Context, target RepositoryTarget, commitMessage string) error {
	if stageError := engine.gitService.StageAll(executionContext, target.Path); stageError != nil {
		engine.resetIndexQuietly(executionContext, target)
		return stageError
	}
	if commitError := engine.gitService.Commit(executionContext, target.Path, commitMessage); commitError != nil {
		engine.resetIndexQuietly(executionContext, target)
		return commitError
	}
	return nil
}

func (engine *SyncEngine) resetIndexQuietly(executionContext context.Context, target RepositoryTarget) {
	if resetError := engine.gitService.ResetIndex(executionContext, target.Path); resetError != nil {
		engine.logger.Warn("index reset failed",
			zap.String(repositoryNameLogFieldConstant, target.Name),
			zap.Error(resetError),
		)
	}
}

// PushAll pushes every repository with unpushed commits.
//
// Repositories without an upstream or without commits ahead are skipped. The
// first push failure stops the operation.
func (engine *SyncEngine) PushAll(executionContext context.Context, targets []RepositoryTarget) (OperationSummary, error) {
	summary := OperationSummary{}
	pushFailed := false
	for _, target := range targets {
		if contextError := executionContext.Err(); contextError != nil {
			return summary, contextError
		}
		if pushFailed {
			summary.Append(RepositoryOutcome{RepositoryName: target.Name, Status: OutcomeNotAttempted, Detail: stoppedAfterFailureDetailConstant})
			continue
		}

		if !checkoutExists(target.Path) {
			pushFailed = true
			summary.Append(RepositoryOutcome{RepositoryName: target.Name, Status: OutcomeFailed, Detail: missingCheckoutDetailConstant})
			continue
		}

		commitsAhead, aheadError := engine.gitService.AheadCount(executionContext, target.Path)
		if aheadError != nil {
			pushFailed = true
			summary.Append(RepositoryOutcome{
				RepositoryName: target.Name,
				Status:         OutcomeFailed,
				Detail:         execshell.FailureDetail(aheadError),
				Hint:           ui.RemediationHintForError(aheadError),
			})
			continue
		}
		if commitsAhead == 0 {
			summary.Append(RepositoryOutcome{RepositoryName: target.Name, Status: OutcomeSkipped, Detail: nothingToPushDetailConstant})
			continue
		}

		if pushError := engine.gitService.Push(executionContext, target.Path); pushError != nil {
			pushFailed = true
			summary.Append(RepositoryOutcome{
				RepositoryName: target.Name,
				Status:         OutcomeFailed,
				Detail:         execshell.FailureDetail(pushError),
				Hint:           ui.RemediationHintForError(pushError),
			})
			continue
		}

		engine.logger.Info(pushAllOperationNameConstant, zap.String(repositoryNameLogFieldConstant, target.Name))
		summary.Append(RepositoryOutcome{RepositoryName: target.Name, Status: OutcomeSucceeded})
	}
	return summary, nil
}

// Rebase replays every repository onto its freshly fetched default branch.
//
// A repository must be clean before its rebase starts. When git stops on
// conflicts the repository is reported with resolution instructions and the
// remaining repositories are not attempted.
func (engine *SyncEngine) Rebase(executionContext context.Context, targets []RepositoryTarget) (OperationSummary, error) {
	summary := OperationSummary{}
	rebaseFailed := false
	for _, target := range targets {
		if contextError := executionContext.Err(); contextError != nil {
			return summary, contextError
		}
		if rebaseFailed {
			summary.Append(RepositoryOutcome{RepositoryName: target.Name, Status: OutcomeNotAttempted, Detail: stoppedAfterFailureDetailConstant})
			continue
		}

		if !checkoutExists(target.Path) {
			rebaseFailed = true
			summary.Append(RepositoryOutcome{RepositoryName: target.Name, Status: OutcomeFailed, Detail: missingCheckoutDetailConstant})
			continue
		}

		repositoryState, stateError := engine.gitService.InspectRepositoryState(executionContext, target.Path)
		if stateError != nil {
			rebaseFailed = true
			summary.Append(RepositoryOutcome{
				RepositoryName: target.Name,
				Status:         OutcomeFailed,
				Detail:         execshell.FailureDetail(stateError),
				Hint:           ui.RemediationHintForError(stateError),
			})
			continue
		}
		switch repositoryState.Kind {
		case gitrepo.RepositoryStateConflicted:
			rebaseFailed = true
			summary.Append(RepositoryOutcome{RepositoryName: target.Name, Status: OutcomeFailed, Detail: conflictedWorktreeDetailConstant, Hint: conflictedWorktreeHintConstant})
			continue
		case gitrepo.RepositoryStateDirty:
			rebaseFailed = true
			summary.Append(RepositoryOutcome{RepositoryName: target.Name, Status: OutcomeFailed, Detail: dirtyWorktreePreconditionConstant, Hint: ui.RemediationHint(execshell.FailureKindDirtyWorktree)})
			continue
		case gitrepo.RepositoryStateNotRepository, gitrepo.RepositoryStateDetached:
			rebaseFailed = true
			summary.Append(RepositoryOutcome{RepositoryName: target.Name, Status: OutcomeFailed, Detail: string(repositoryState.Kind)})
			continue
		}

		if fetchError := engine.gitService.Fetch(executionContext, target.Path); fetchError != nil {
			rebaseFailed = true
			summary.Append(RepositoryOutcome{
				RepositoryName: target.Name,
				Status:         OutcomeFailed,
				Detail:         execshell.FailureDetail(fetchError),
				Hint:           ui.RemediationHintForError(fetchError),
			})
			continue
		}

		defaultBranch, detectionError := engine.gitService.DetectDefaultBranch(executionContext, target.Path)
		if detectionError != nil {
			rebaseFailed = true
			summary.Append(RepositoryOutcome{RepositoryName: target.Name, Status: OutcomeFailed, Detail: detectionError.Error()})
			continue
		}

		upstreamReference := fmt.Sprintf(rebaseUpstreamReferenceTemplate, defaultBranch)
		synchronize := engine.gitService.Rebase
		if repositoryState.Branch == defaultBranch {
			synchronize = engine.gitService.MergeFastForward
		}
		if rebaseError := synchronize(executionContext, target.Path, upstreamReference); rebaseError != nil {
			rebaseFailed = true
			outcome := RepositoryOutcome{
				RepositoryName: target.Name,
				Status:         OutcomeFailed,
				Detail:         execshell.FailureDetail(rebaseError),
				Hint:           ui.RemediationHintForError(rebaseError),
			}
			postRebaseState, postStateError := engine.gitService.InspectRepositoryState(executionContext, target.Path)
			if postStateError == nil && postRebaseState.Kind == gitrepo.RepositoryStateConflicted {
				outcome.Hint = rebaseConflictHintConstant
			}
			summary.Append(outcome)
			continue
		}

		engine.logger.Info(rebaseOperationNameConstant,
			zap.String(repositoryNameLogFieldConstant, target.Name),
			zap.String("upstream", upstreamReference),
		)
		summary.Append(RepositoryOutcome{RepositoryName: target.Name, Status: OutcomeSucceeded, Detail: upstreamReference})
	}
	return summary, nil
}
