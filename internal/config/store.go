package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	descriptorFileModeConstant                = 0o644
	descriptorIndentConstant                  = "  "
	missingDescriptorFileTemplateConstant     = "no %s found at %s: %w"
	unreadableDescriptorFileTemplateConstant  = "reading %s: %w"
	malformedDescriptorFileTemplateConstant   = "parsing %s: %w"
	missingNameTemplateConstant               = "repository at index %d: name must not be empty"
	missingRemoteURLTemplateConstant          = "repository %q (index %d): url must not be empty"
	duplicateDirectoryTemplateConstant        = "repository %q (index %d): directory %q already used by %q"
	suspiciousRemoteURLWarningTemplateConsant = "repository %q: url %q does not look like a git remote"
	writeDescriptorFileTemplateConstant       = "writing %s: %w"
)

// ErrDescriptorFileNotFound reports that the viewset root carries no catalog.
var ErrDescriptorFileNotFound = errors.New("repository descriptor file not found")

var recognizedRemoteFragments = []string{"git", "github", "gitlab"}

// DescriptorStore reads and writes the repository catalog of a viewset.
type DescriptorStore struct{}

// NewDescriptorStore constructs a catalog store.
func NewDescriptorStore() *DescriptorStore {
	return &DescriptorStore{}
}

// Load reads and validates the catalog at the provided viewset root.
//
// Descriptor order is preserved. Validation failures carry the array index so
// the offending entry can be located in hand-edited files. Warnings returned
// alongside a successful load are advisory only.
func (store *DescriptorStore) Load(viewsetRoot string) ([]RepositoryDescriptor, []string, error) {
	descriptorFilePath := filepath.Join(viewsetRoot, DescriptorFileName)

	descriptorContent, readError := os.ReadFile(descriptorFilePath)
	if readError != nil {
		if os.IsNotExist(readError) {
			return nil, nil, fmt.Errorf(missingDescriptorFileTemplateConstant, DescriptorFileName, viewsetRoot, ErrDescriptorFileNotFound)
		}
		return nil, nil, fmt.Errorf(unreadableDescriptorFileTemplateConstant, descriptorFilePath, readError)
	}

	descriptors := []RepositoryDescriptor{}
	if unmarshalError := json.Unmarshal(descriptorContent, &descriptors); unmarshalError != nil {
		return nil, nil, fmt.Errorf(malformedDescriptorFileTemplateConstant, descriptorFilePath, unmarshalError)
	}

	warnings := []string{}
	directoryOwners := map[string]string{}
	for descriptorIndex, descriptor := range descriptors {
		trimmedName := strings.TrimSpace(descriptor.Name)
		if len(trimmedName) == 0 {
			return nil, nil, fmt.Errorf(missingNameTemplateConstant, descriptorIndex)
		}
		trimmedRemoteURL := strings.TrimSpace(descriptor.RemoteURL)
		if len(trimmedRemoteURL) == 0 {
			return nil, nil, fmt.Errorf(missingRemoteURLTemplateConstant, trimmedName, descriptorIndex)
		}

		directoryName := descriptor.DirectoryName()
		if existingOwner, directoryTaken := directoryOwners[directoryName]; directoryTaken {
			return nil, nil, fmt.Errorf(duplicateDirectoryTemplateConstant, trimmedName, descriptorIndex, directoryName, existingOwner)
		}
		directoryOwners[directoryName] = trimmedName

		if !looksLikeGitRemote(trimmedRemoteURL) {
			warnings = append(warnings, fmt.Sprintf(suspiciousRemoteURLWarningTemplateConsant, trimmedName, trimmedRemoteURL))
		}
	}

	return descriptors, warnings, nil
}

// Save writes the catalog to the provided viewset root with stable formatting.
func (store *DescriptorStore) Save(viewsetRoot string, descriptors []RepositoryDescriptor) error {
	descriptorFilePath := filepath.Join(viewsetRoot, DescriptorFileName)

	encodedDescriptors, marshalError := json.MarshalIndent(descriptors, "", descriptorIndentConstant)
	if marshalError != nil {
		return fmt.Errorf(writeDescriptorFileTemplateConstant, descriptorFilePath, marshalError)
	}
	encodedDescriptors = append(encodedDescriptors, '\n')

	if writeError := os.WriteFile(descriptorFilePath, encodedDescriptors, descriptorFileModeConstant); writeError != nil {
		return fmt.Errorf(writeDescriptorFileTemplateConstant, descriptorFilePath, writeError)
	}
	return nil
}

// Exists reports whether the viewset root carries a catalog file.
func (store *DescriptorStore) Exists(viewsetRoot string) bool {
	_, statError := os.Stat(filepath.Join(viewsetRoot, DescriptorFileName))
	return statError == nil
}

// looksLikeGitRemote is a deliberately loose heuristic: catalog entries come
// from hand-edited files and unusual but working remotes must stay warning
// free, so only URLs carrying none of the familiar hosting fragments are
// flagged.
func looksLikeGitRemote(remoteURL string) bool {
	loweredRemoteURL := strings.ToLower(remoteURL)
	for _, recognizedFragment := range recognizedRemoteFragments {
		if strings.Contains(loweredRemoteURL, recognizedFragment) {
			return true
		}
	}
	return false
}
