package view

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/viewyard/internal/config"
)

const (
	stagingSuffixConstant                 = ".tmp"
	maximumViewNameLengthConstant         = 100
	emptyViewNameMessageConstant          = "view name must not be empty"
	slashedViewNameMessageConstant        = "view names cannot contain slashes"
	dottedViewNameMessageConstant         = "view names cannot start with a dot"
	overlongViewNameMessageConstant       = "view names must be at most %d characters"
	viewExistsTemplateConstant            = "view %q already exists at %s"
	viewMissingTemplateConstant           = "view %q does not exist"
	populateFailureTemplateConstant       = "populating %s: %w"
	branchSetupFailureTemplateConstant    = "setting up branch %s in %s: %w"
	localUserConfigurationKeyConstant     = "viewyard.account"
	defaultBranchReferenceTemplate        = "origin/%s"
	viewNameLogFieldConstant              = "view"
	repositoryNameLogFieldConstant        = "repository"
)

// ViewGitService captures the git operations the lifecycle needs.
type ViewGitService interface {
	Clone(executionContext context.Context, remoteURL string, targetPath string) error
	RemoteBranchExists(executionContext context.Context, repositoryPath string, branchName string) (bool, error)
	DetectDefaultBranch(executionContext context.Context, repositoryPath string) (string, error)
	Checkout(executionContext context.Context, repositoryPath string, branchName string) error
	CreateBranch(executionContext context.Context, repositoryPath string, branchName string, startPoint string) error
	PushSetUpstream(executionContext context.Context, repositoryPath string, branchName string) error
	SetLocalConfig(executionContext context.Context, repositoryPath string, configurationKey string, configurationValue string) error
}

// ErrLoggerNotConfigured indicates construction without a logger.
var ErrLoggerNotConfigured = errors.New("logger not configured")

// ErrGitServiceNotConfigured indicates construction without a git service.
var ErrGitServiceNotConfigured = errors.New("git service not configured")

// ValidateViewName enforces the naming rules for new views.
func ValidateViewName(viewName string) error {
	trimmedViewName := strings.TrimSpace(viewName)
	if len(trimmedViewName) == 0 {
		return errors.New(emptyViewNameMessageConstant)
	}
	if strings.ContainsAny(trimmedViewName, `/\`) {
		return errors.New(slashedViewNameMessageConstant)
	}
	if strings.HasPrefix(trimmedViewName, ".") {
		return errors.New(dottedViewNameMessageConstant)
	}
	if len(trimmedViewName) > maximumViewNameLengthConstant {
		return fmt.Errorf(overlongViewNameMessageConstant, maximumViewNameLengthConstant)
	}
	return nil
}

// LifecycleManager materializes, extends, lists, and deletes views.
//
// Create stages everything in a sibling temporary directory and promotes it
// with one rename, so an interrupted run never leaves a half-built view under
// the final name.
type LifecycleManager struct {
	logger     *zap.Logger
	gitService ViewGitService
	clock      func() time.Time
}

// NewLifecycleManager constructs a LifecycleManager.
func NewLifecycleManager(logger *zap.Logger, gitService ViewGitService) (*LifecycleManager, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if gitService == nil {
		return nil, ErrGitServiceNotConfigured
	}
	return &LifecycleManager{logger: logger, gitService: gitService, clock: time.Now}, nil
}

// Create materializes a new view for every catalog entry.
//
// Repositories are cloned into <name>.tmp in catalog order; the first failure
// aborts the run and removes the staging directory entirely. Only a fully
// populated staging directory is renamed to the final view name.
func (manager *LifecycleManager) Create(executionContext context.Context, viewsetRoot string, viewName string, descriptors []config.RepositoryDescriptor) error {
	if validationError := ValidateViewName(viewName); validationError != nil {
		return validationError
	}

	viewPath := filepath.Join(viewsetRoot, viewName)
	if _, statError := os.Stat(viewPath); statError == nil {
		return fmt.Errorf(viewExistsTemplateConstant, viewName, viewPath)
	}

	stagingPath := viewPath + stagingSuffixConstant
	if removeError := os.RemoveAll(stagingPath); removeError != nil {
		return removeError
	}
	if mkdirError := os.MkdirAll(stagingPath, 0o755); mkdirError != nil {
		return mkdirError
	}

	repositoryNames := make([]string, 0, len(descriptors))
	for _, descriptor := range descriptors {
		if populateError := manager.populateRepository(executionContext, stagingPath, viewName, descriptor); populateError != nil {
			if abortError := os.RemoveAll(stagingPath); abortError != nil {
				manager.logger.Warn("staging cleanup failed",
					zap.String(viewNameLogFieldConstant, viewName),
					zap.Error(abortError),
				)
			}
			return populateError
		}
		repositoryNames = append(repositoryNames, descriptor.Name)
	}

	metadata := ViewMetadata{ViewName: viewName, CreatedAt: manager.clock().UTC(), Repositories: repositoryNames}
	if metadataError := WriteMetadata(stagingPath, metadata); metadataError != nil {
		if abortError := os.RemoveAll(stagingPath); abortError != nil {
			manager.logger.Warn("staging cleanup failed", zap.Error(abortError))
		}
		return metadataError
	}

	if renameError := os.Rename(stagingPath, viewPath); renameError != nil {
		if abortError := os.RemoveAll(stagingPath); abortError != nil {
			manager.logger.Warn("staging cleanup failed", zap.Error(abortError))
		}
		return renameError
	}

	manager.logger.Info("view created",
		zap.String(viewNameLogFieldConstant, viewName),
		zap.Int("repositories", len(repositoryNames)),
	)
	return nil
}

// Update clones catalog repositories missing from an existing view.
//
// Existing checkouts are left untouched, so running Update twice is a no-op.
// A failed clone is removed before the error is returned.
func (manager *LifecycleManager) Update(executionContext context.Context, viewsetRoot string, viewName string, descriptors []config.RepositoryDescriptor) ([]string, error) {
	viewPath := filepath.Join(viewsetRoot, viewName)
	if pathInfo, statError := os.Stat(viewPath); statError != nil || !pathInfo.IsDir() {
		return nil, fmt.Errorf(viewMissingTemplateConstant, viewName)
	}

	addedRepositories := []string{}
	for _, descriptor := range descriptors {
		checkoutPath := filepath.Join(viewPath, descriptor.DirectoryName())
		if _, statError := os.Stat(checkoutPath); statError == nil {
			continue
		}

		if populateError := manager.populateRepository(executionContext, viewPath, viewName, descriptor); populateError != nil {
			if cleanupError := os.RemoveAll(checkoutPath); cleanupError != nil {
				manager.logger.Warn("partial clone cleanup failed",
					zap.String(repositoryNameLogFieldConstant, descriptor.Name),
					zap.Error(cleanupError),
				)
			}
			return addedRepositories, populateError
		}
		addedRepositories = append(addedRepositories, descriptor.Name)
	}

	if metadata, metadataPresent := ReadMetadata(viewPath); metadataPresent && len(addedRepositories) > 0 {
		metadata.Repositories = mergeRepositoryNames(metadata.Repositories, addedRepositories)
		if metadataError := WriteMetadata(viewPath, metadata); metadataError != nil {
			manager.logger.Warn("metadata refresh failed", zap.Error(metadataError))
		}
	}

	return addedRepositories, nil
}

func (manager *LifecycleManager) populateRepository(executionContext context.Context, parentDirectory string, viewName string, descriptor config.RepositoryDescriptor) error {
	checkoutPath := filepath.Join(parentDirectory, descriptor.DirectoryName())

	if cloneError := manager.gitService.Clone(executionContext, descriptor.RemoteURL, checkoutPath); cloneError != nil {
		return fmt.Errorf(populateFailureTemplateConstant, descriptor.Name, cloneError)
	}

	if branchError := manager.setupViewBranch(executionContext, checkoutPath, viewName); branchError != nil {
		return fmt.Errorf(branchSetupFailureTemplateConstant, viewName, descriptor.Name, branchError)
	}

	if trimmedAccount := strings.TrimSpace(descriptor.Account); len(trimmedAccount) > 0 {
		if configurationError := manager.gitService.SetLocalConfig(executionContext, checkoutPath, localUserConfigurationKeyConstant, trimmedAccount); configurationError != nil {
			return fmt.Errorf(populateFailureTemplateConstant, descriptor.Name, configurationError)
		}
	}

	manager.logger.Debug("repository populated",
		zap.String(viewNameLogFieldConstant, viewName),
		zap.String(repositoryNameLogFieldConstant, descriptor.Name),
	)
	return nil
}

// setupViewBranch checks out the view branch, creating and publishing it from
// the default branch when origin does not carry it yet.
func (manager *LifecycleManager) setupViewBranch(executionContext context.Context, repositoryPath string, viewName string) error {
	branchExists, probeError := manager.gitService.RemoteBranchExists(executionContext, repositoryPath, viewName)
	if probeError != nil {
		return probeError
	}

	if branchExists {
		return manager.gitService.Checkout(executionContext, repositoryPath, viewName)
	}

	defaultBranch, detectionError := manager.gitService.DetectDefaultBranch(executionContext, repositoryPath)
	if detectionError != nil {
		return detectionError
	}
	startPoint := fmt.Sprintf(defaultBranchReferenceTemplate, defaultBranch)
	if createError := manager.gitService.CreateBranch(executionContext, repositoryPath, viewName, startPoint); createError != nil {
		return createError
	}
	return manager.gitService.PushSetUpstream(executionContext, repositoryPath, viewName)
}

// ViewSummary describes one view for listings.
type ViewSummary struct {
	Name            string
	RepositoryCount int
	CreatedAt       time.Time
}

// List enumerates the views under a viewset root in name order.
//
// A directory counts as a view when it carries the metadata marker or at
// least one subdirectory; staging leftovers and hidden directories are
// excluded.
func List(viewsetRoot string) ([]ViewSummary, error) {
	directoryEntries, readError := os.ReadDir(viewsetRoot)
	if readError != nil {
		return nil, readError
	}

	summaries := []ViewSummary{}
	for _, directoryEntry := range directoryEntries {
		if !directoryEntry.IsDir() {
			continue
		}
		entryName := directoryEntry.Name()
		if strings.HasPrefix(entryName, ".") || strings.HasSuffix(entryName, stagingSuffixConstant) {
			continue
		}

		viewPath := filepath.Join(viewsetRoot, entryName)
		repositoryCount := countSubdirectories(viewPath)
		metadata, metadataPresent := ReadMetadata(viewPath)
		if !metadataPresent && repositoryCount == 0 {
			continue
		}

		summaries = append(summaries, ViewSummary{
			Name:            entryName,
			RepositoryCount: repositoryCount,
			CreatedAt:       metadata.CreatedAt,
		})
	}

	sort.Slice(summaries, func(firstIndex, secondIndex int) bool {
		return summaries[firstIndex].Name < summaries[secondIndex].Name
	})
	return summaries, nil
}

// Delete removes a view directory recursively.
func Delete(viewsetRoot string, viewName string) error {
	if validationError := ValidateViewName(viewName); validationError != nil {
		return validationError
	}
	viewPath := filepath.Join(viewsetRoot, viewName)
	if pathInfo, statError := os.Stat(viewPath); statError != nil || !pathInfo.IsDir() {
		return fmt.Errorf(viewMissingTemplateConstant, viewName)
	}
	return os.RemoveAll(viewPath)
}

func countSubdirectories(directoryPath string) int {
	directoryEntries, readError := os.ReadDir(directoryPath)
	if readError != nil {
		return 0
	}
	subdirectoryCount := 0
	for _, directoryEntry := range directoryEntries {
		if directoryEntry.IsDir() && !strings.HasPrefix(directoryEntry.Name(), ".") {
			subdirectoryCount++
		}
	}
	return subdirectoryCount
}

func mergeRepositoryNames(existingNames []string, addedNames []string) []string {
	seenNames := map[string]bool{}
	mergedNames := []string{}
	for _, repositoryName := range append(append([]string{}, existingNames...), addedNames...) {
		if seenNames[repositoryName] {
			continue
		}
		seenNames[repositoryName] = true
		mergedNames = append(mergedNames, repositoryName)
	}
	return mergedNames
}
