package onboard

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/temirov/viewyard/internal/config"
	"github.com/temirov/viewyard/internal/githubcli"
	"github.com/temirov/viewyard/internal/gitrepo"
	"github.com/temirov/viewyard/internal/ui"
)

const (
	githubSourceNameConstant                   = "github"
	viewsetDirectoryModeConstant               = 0o755
	discoveryClientNotConfiguredMessage        = "discovery client not configured"
	selectorNotConfiguredMessageConstant       = "repository selector not configured"
	descriptorExistsTemplateConstant           = "%s already exists in %s; remove it before onboarding again"
	authenticationRequiredTemplateConstant     = "github cli authentication required (run \"gh auth login\"): %w"
	createDirectoryTemplateConstant            = "creating viewset directory %s: %w"
	discoveryHeadingConstant                   = "Discovering repositories"
	organizationListFailedTemplateConstant     = "organization listing failed, continuing with personal repositories: %v"
	ownerListFailedTemplateConstant            = "listing repositories for %s failed, skipping: %v"
	noRepositoriesFoundMessageConstant         = "No repositories found."
	noRepositoriesSelectedMessageConstant      = "No repositories selected."
	descriptorWrittenTemplateConstant          = "Wrote %s with %d repositories"
	nextStepMessageConstant                    = "Create a view next: viewyard view create <name>"
	loggerFieldViewsetDirectoryNameConstant    = "viewset_directory"
	loggerFieldRepositoryCountNameConstant     = "repository_count"
	loggerFieldOwnerNameConstant               = "owner"
	onboardingCompletedLogMessageConstant      = "viewset onboarding completed"
	repositoryListingFailedLogMessageConstant  = "repository listing failed"
	organizationListingFailedLogMessage        = "organization listing failed"
)

var (
	// ErrDiscoveryClientNotConfigured indicates the service was constructed without a discovery client.
	ErrDiscoveryClientNotConfigured = errors.New(discoveryClientNotConfiguredMessage)
	// ErrSelectorNotConfigured indicates the service was constructed without a selector.
	ErrSelectorNotConfigured = errors.New(selectorNotConfiguredMessageConstant)
)

// CandidateRepository is a repository offered for selection during onboarding.
type CandidateRepository struct {
	Name      string
	RemoteURL string
	IsPrivate bool
	Account   string
}

// DiscoveryClient enumerates repositories reachable through the GitHub CLI.
type DiscoveryClient interface {
	CheckAuthentication(executionContext context.Context) error
	AuthenticatedUser(executionContext context.Context) (string, error)
	ListOrganizations(executionContext context.Context) ([]string, error)
	ListRepositories(executionContext context.Context, options githubcli.RepositoryListOptions) ([]githubcli.DiscoveredRepository, error)
}

// RepositorySelector narrows discovered candidates down to the ones the user wants.
type RepositorySelector interface {
	SelectRepositories(candidates []CandidateRepository) ([]CandidateRepository, error)
}

// Service drives viewset onboarding: discovery, selection, and catalog write.
type Service struct {
	logger          *zap.Logger
	discoveryClient DiscoveryClient
	selector        RepositorySelector
	descriptorStore *config.DescriptorStore
	console         *ui.ConsoleWriter
}

// NewService constructs an onboarding service.
func NewService(logger *zap.Logger, discoveryClient DiscoveryClient, selector RepositorySelector, console *ui.ConsoleWriter) (*Service, error) {
	if discoveryClient == nil {
		return nil, ErrDiscoveryClientNotConfigured
	}
	if selector == nil {
		return nil, ErrSelectorNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if console == nil {
		console = ui.NewConsoleWriter(os.Stdout)
	}
	return &Service{
		logger:          logger,
		discoveryClient: discoveryClient,
		selector:        selector,
		descriptorStore: config.NewDescriptorStore(),
		console:         console,
	}, nil
}

// Run discovers repositories, lets the user select, and writes the catalog
// into the target directory.
//
// An existing catalog file is never overwritten. Organization-level listing
// failures are reported and skipped so a single misconfigured organization
// does not abort onboarding.
func (service *Service) Run(executionContext context.Context, targetDirectory string) error {
	if service.descriptorStore.Exists(targetDirectory) {
		return fmt.Errorf(descriptorExistsTemplateConstant, config.DescriptorFileName, targetDirectory)
	}

	if authenticationError := service.discoveryClient.CheckAuthentication(executionContext); authenticationError != nil {
		return fmt.Errorf(authenticationRequiredTemplateConstant, authenticationError)
	}

	service.console.Headingf(discoveryHeadingConstant)

	candidates, discoveryError := service.discoverCandidates(executionContext)
	if discoveryError != nil {
		return discoveryError
	}
	if len(candidates) == 0 {
		service.console.Printf(noRepositoriesFoundMessageConstant)
		return nil
	}

	selectedCandidates, selectionError := service.selector.SelectRepositories(candidates)
	if selectionError != nil {
		return selectionError
	}
	if len(selectedCandidates) == 0 {
		service.console.Printf(noRepositoriesSelectedMessageConstant)
		return nil
	}

	if directoryError := os.MkdirAll(targetDirectory, viewsetDirectoryModeConstant); directoryError != nil {
		return fmt.Errorf(createDirectoryTemplateConstant, targetDirectory, directoryError)
	}

	descriptors := make([]config.RepositoryDescriptor, 0, len(selectedCandidates))
	for _, selectedCandidate := range selectedCandidates {
		descriptors = append(descriptors, config.RepositoryDescriptor{
			Name:      selectedCandidate.Name,
			RemoteURL: selectedCandidate.RemoteURL,
			IsPrivate: selectedCandidate.IsPrivate,
			Source:    githubSourceNameConstant,
			Account:   selectedCandidate.Account,
		})
	}
	if saveError := service.descriptorStore.Save(targetDirectory, descriptors); saveError != nil {
		return saveError
	}

	service.logger.Info(onboardingCompletedLogMessageConstant,
		zap.String(loggerFieldViewsetDirectoryNameConstant, targetDirectory),
		zap.Int(loggerFieldRepositoryCountNameConstant, len(descriptors)),
	)
	service.console.Successf(descriptorWrittenTemplateConstant, config.DescriptorFileName, len(descriptors))
	service.console.Printf(nextStepMessageConstant)
	return nil
}

func (service *Service) discoverCandidates(executionContext context.Context) ([]CandidateRepository, error) {
	authenticatedLogin, loginError := service.discoveryClient.AuthenticatedUser(executionContext)
	if loginError != nil {
		return nil, loginError
	}

	personalRepositories, personalListError := service.discoveryClient.ListRepositories(executionContext, githubcli.RepositoryListOptions{})
	if personalListError != nil {
		return nil, personalListError
	}
	candidates := appendCandidates(nil, personalRepositories, authenticatedLogin)

	organizations, organizationListError := service.discoveryClient.ListOrganizations(executionContext)
	if organizationListError != nil {
		service.logger.Warn(organizationListingFailedLogMessage, zap.Error(organizationListError))
		service.console.Warningf(organizationListFailedTemplateConstant, organizationListError)
		return candidates, nil
	}

	for _, organizationLogin := range organizations {
		organizationRepositories, listError := service.discoveryClient.ListRepositories(executionContext, githubcli.RepositoryListOptions{Owner: organizationLogin})
		if listError != nil {
			service.logger.Warn(repositoryListingFailedLogMessageConstant,
				zap.String(loggerFieldOwnerNameConstant, organizationLogin),
				zap.Error(listError),
			)
			service.console.Warningf(ownerListFailedTemplateConstant, organizationLogin, listError)
			continue
		}
		candidates = appendCandidates(candidates, organizationRepositories, organizationLogin)
	}
	return candidates, nil
}

func appendCandidates(candidates []CandidateRepository, repositories []githubcli.DiscoveredRepository, account string) []CandidateRepository {
	for _, repository := range repositories {
		candidates = append(candidates, CandidateRepository{
			Name:      repository.Name,
			RemoteURL: gitrepo.NormalizeRemoteURL(repository.SSHURL),
			IsPrivate: repository.IsPrivate,
			Account:   account,
		})
	}
	return candidates
}
