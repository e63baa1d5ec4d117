package githubcli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/temirov/viewyard/internal/execshell"
)

const (
	repoSubcommandConstant                   = "repo"
	listSubcommandConstant                   = "list"
	authSubcommandConstant                   = "auth"
	statusSubcommandConstant                 = "status"
	apiSubcommandConstant                    = "api"
	jsonFlagConstant                         = "--json"
	limitFlagConstant                        = "--limit"
	jqFlagConstant                           = "--jq"
	userEndpointConstant                     = "user"
	organizationsEndpointConstant            = "user/orgs"
	loginSelectorConstant                    = ".login"
	organizationLoginSelectorConstant        = ".[].login"
	executorNotConfiguredMessageConstant     = "github cli executor not configured"
	repositoryListLimitDefaultValueConstant  = 1000
	repositoryListJSONFieldsConstant         = "name,sshUrl,isPrivate"
	operationErrorMessageTemplateConstant    = "%s operation failed"
	operationErrorWithCauseTemplateConstant  = "%s operation failed: %s"
	responseDecodingErrorTemplateConstant    = "%s response decoding failed: %s"
	checkAuthenticationOperationNameConstant = OperationName("CheckAuthentication")
	authenticatedUserOperationNameConstant   = OperationName("AuthenticatedUser")
	listOrganizationsOperationNameConstant   = OperationName("ListOrganizations")
	listRepositoriesOperationNameConstant    = OperationName("ListRepositories")
)

// OperationName describes a named GitHub CLI workflow supported by the client.
type OperationName string

// DiscoveredRepository contains the repository details needed for catalog entries.
type DiscoveredRepository struct {
	Name      string
	SSHURL    string
	IsPrivate bool
}

// RepositoryListOptions configures ListRepositories queries.
type RepositoryListOptions struct {
	Owner       string
	ResultLimit int
}

// GitHubCommandExecutor is the minimal interface required from execshell.ShellExecutor.
type GitHubCommandExecutor interface {
	ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Client coordinates GitHub CLI invocations through execshell.
type Client struct {
	executor GitHubCommandExecutor
}

var (
	// ErrExecutorNotConfigured indicates the client was constructed without an executor.
	ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)
)

// OperationError wraps execution issues for GitHub CLI operations.
type OperationError struct {
	Operation OperationName
	Cause     error
}

// Error describes the operation failure.
func (operationError OperationError) Error() string {
	if operationError.Cause == nil {
		return fmt.Sprintf(operationErrorMessageTemplateConstant, operationError.Operation)
	}
	return fmt.Sprintf(operationErrorWithCauseTemplateConstant, operationError.Operation, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// ResponseDecodingError indicates JSON decoding failures.
type ResponseDecodingError struct {
	Operation OperationName
	Cause     error
}

// Error describes the decoding failure.
func (decodingError ResponseDecodingError) Error() string {
	return fmt.Sprintf(responseDecodingErrorTemplateConstant, decodingError.Operation, decodingError.Cause)
}

// Unwrap exposes the underlying JSON error.
func (decodingError ResponseDecodingError) Unwrap() error {
	return decodingError.Cause
}

// NewClient constructs a GitHub CLI client.
func NewClient(executor GitHubCommandExecutor) (*Client, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &Client{executor: executor}, nil
}

// CheckAuthentication verifies that the GitHub CLI holds valid credentials.
func (client *Client) CheckAuthentication(executionContext context.Context) error {
	commandDetails := execshell.CommandDetails{
		Arguments: []string{authSubcommandConstant, statusSubcommandConstant},
	}

	_, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		return OperationError{Operation: checkAuthenticationOperationNameConstant, Cause: executionError}
	}
	return nil
}

// AuthenticatedUser resolves the login of the currently authenticated user.
func (client *Client) AuthenticatedUser(executionContext context.Context) (string, error) {
	commandDetails := execshell.CommandDetails{
		Arguments: []string{apiSubcommandConstant, userEndpointConstant, jqFlagConstant, loginSelectorConstant},
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		return "", OperationError{Operation: authenticatedUserOperationNameConstant, Cause: executionError}
	}
	return strings.TrimSpace(executionResult.StandardOutput), nil
}

// ListOrganizations enumerates organizations the authenticated user belongs to.
func (client *Client) ListOrganizations(executionContext context.Context) ([]string, error) {
	commandDetails := execshell.CommandDetails{
		Arguments: []string{apiSubcommandConstant, organizationsEndpointConstant, jqFlagConstant, organizationLoginSelectorConstant},
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		return nil, OperationError{Operation: listOrganizationsOperationNameConstant, Cause: executionError}
	}

	organizations := []string{}
	for _, outputLine := range strings.Split(executionResult.StandardOutput, "\n") {
		trimmedLine := strings.TrimSpace(outputLine)
		if len(trimmedLine) > 0 {
			organizations = append(organizations, trimmedLine)
		}
	}
	return organizations, nil
}

// ListRepositories enumerates repositories using gh repo list.
//
// An empty Owner lists the authenticated user's own repositories.
func (client *Client) ListRepositories(executionContext context.Context, options RepositoryListOptions) ([]DiscoveredRepository, error) {
	resultLimit := options.ResultLimit
	if resultLimit <= 0 {
		resultLimit = repositoryListLimitDefaultValueConstant
	}

	commandArguments := []string{repoSubcommandConstant, listSubcommandConstant}
	if trimmedOwner := strings.TrimSpace(options.Owner); len(trimmedOwner) > 0 {
		commandArguments = append(commandArguments, trimmedOwner)
	}
	commandArguments = append(commandArguments,
		limitFlagConstant,
		strconv.Itoa(resultLimit),
		jsonFlagConstant,
		repositoryListJSONFieldsConstant,
	)

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, execshell.CommandDetails{Arguments: commandArguments})
	if executionError != nil {
		return nil, OperationError{Operation: listRepositoriesOperationNameConstant, Cause: executionError}
	}

	var response []struct {
		Name      string `json:"name"`
		SSHURL    string `json:"sshUrl"`
		IsPrivate bool   `json:"isPrivate"`
	}

	decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &response)
	if decodingError != nil {
		return nil, ResponseDecodingError{Operation: listRepositoriesOperationNameConstant, Cause: decodingError}
	}

	repositories := make([]DiscoveredRepository, 0, len(response))
	for _, repositoryEntry := range response {
		repositories = append(repositories, DiscoveredRepository{
			Name:      repositoryEntry.Name,
			SSHURL:    repositoryEntry.SSHURL,
			IsPrivate: repositoryEntry.IsPrivate,
		})
	}
	return repositories, nil
}
