package config

import "strings"

// DescriptorFileName is the catalog file stored at the viewset root.
const DescriptorFileName = ".viewyard-repos.json"

// RepositoryDescriptor describes one repository tracked by a viewset.
//
// Descriptors are stored as a JSON array so the file order defines the
// processing order of every bulk operation.
type RepositoryDescriptor struct {
	Name            string `json:"name"`
	RemoteURL       string `json:"url"`
	IsPrivate       bool   `json:"is_private"`
	Source          string `json:"source,omitempty"`
	Account         string `json:"account,omitempty"`
	DirectoryOption string `json:"directory_name,omitempty"`
	BuildCommand    string `json:"build,omitempty"`
	TestCommand     string `json:"test,omitempty"`
}

// DirectoryName returns the checkout directory for the repository.
//
// The explicit directory_name wins; otherwise the repository name is used.
func (descriptor RepositoryDescriptor) DirectoryName() string {
	trimmedDirectoryOption := strings.TrimSpace(descriptor.DirectoryOption)
	if len(trimmedDirectoryOption) > 0 {
		return trimmedDirectoryOption
	}
	return strings.TrimSpace(descriptor.Name)
}
