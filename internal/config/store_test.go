package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/viewyard/internal/config"
)

const (
	validCatalogContentConstant = `[
  {"name": "service", "url": "git@github.com:acme/service.git", "is_private": true, "source": "github", "account": "acme"},
  {"name": "library", "url": "git@github.com:acme/library.git", "is_private": false, "directory_name": "lib"}
]`
	missingNameCatalogContentConstant = `[
  {"name": "service", "url": "git@github.com:acme/service.git"},
  {"name": "  ", "url": "git@github.com:acme/library.git"}
]`
	missingURLCatalogContentConstant       = `[{"name": "service", "url": ""}]`
	suspiciousURLCatalogContentConstant    = `[{"name": "service", "url": "https://example.com/archive.tar.gz"}]`
	unusualRemoteCatalogContentConstant    = `[{"name": "tool", "url": "git://internal.example.com/team/tool"}]`
	duplicateDirectoryCatalogContent       = `[{"name": "service", "url": "git@github.com:acme/service.git", "directory_name": "app"}, {"name": "frontend", "url": "git@github.com:acme/frontend.git", "directory_name": "app"}]`
	malformedCatalogContentConstant        = `{"name": "service"}`
	testServiceRepositoryNameConstant      = "service"
	testLibraryDirectoryNameConstant       = "lib"
)

func writeCatalog(testInstance *testing.T, catalogContent string) string {
	viewsetRoot := testInstance.TempDir()
	writeError := os.WriteFile(filepath.Join(viewsetRoot, config.DescriptorFileName), []byte(catalogContent), 0o644)
	require.NoError(testInstance, writeError)
	return viewsetRoot
}

func TestDescriptorStoreLoadValidCatalog(testInstance *testing.T) {
	viewsetRoot := writeCatalog(testInstance, validCatalogContentConstant)

	descriptors, warnings, loadError := config.NewDescriptorStore().Load(viewsetRoot)

	require.NoError(testInstance, loadError)
	require.Empty(testInstance, warnings)
	require.Len(testInstance, descriptors, 2)
	require.Equal(testInstance, testServiceRepositoryNameConstant, descriptors[0].Name)
	require.True(testInstance, descriptors[0].IsPrivate)
	require.Equal(testInstance, testServiceRepositoryNameConstant, descriptors[0].DirectoryName())
	require.Equal(testInstance, testLibraryDirectoryNameConstant, descriptors[1].DirectoryName())
}

func TestDescriptorStoreLoadFailures(testInstance *testing.T) {
	testCases := []struct {
		name             string
		catalogContent   string
		expectedFragment string
	}{
		{
			name:             "blank_repository_name",
			catalogContent:   missingNameCatalogContentConstant,
			expectedFragment: "index 1",
		},
		{
			name:             "blank_remote_url",
			catalogContent:   missingURLCatalogContentConstant,
			expectedFragment: "url must not be empty",
		},
		{
			name:             "duplicate_directory",
			catalogContent:   duplicateDirectoryCatalogContent,
			expectedFragment: "already used by",
		},
		{
			name:             "not_an_array",
			catalogContent:   malformedCatalogContentConstant,
			expectedFragment: "parsing",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			viewsetRoot := writeCatalog(testInstance, testCase.catalogContent)

			_, _, loadError := config.NewDescriptorStore().Load(viewsetRoot)

			require.Error(testInstance, loadError)
			require.Contains(testInstance, loadError.Error(), testCase.expectedFragment)
		})
	}
}

func TestDescriptorStoreLoadMissingFile(testInstance *testing.T) {
	_, _, loadError := config.NewDescriptorStore().Load(testInstance.TempDir())

	require.ErrorIs(testInstance, loadError, config.ErrDescriptorFileNotFound)
}

func TestDescriptorStoreLoadWarnsOnSuspiciousURL(testInstance *testing.T) {
	viewsetRoot := writeCatalog(testInstance, suspiciousURLCatalogContentConstant)

	descriptors, warnings, loadError := config.NewDescriptorStore().Load(viewsetRoot)

	require.NoError(testInstance, loadError)
	require.Len(testInstance, descriptors, 1)
	require.Len(testInstance, warnings, 1)
	require.Contains(testInstance, warnings[0], "does not look like a git remote")
}

func TestDescriptorStoreLoadAcceptsUnusualGitRemote(testInstance *testing.T) {
	viewsetRoot := writeCatalog(testInstance, unusualRemoteCatalogContentConstant)

	descriptors, warnings, loadError := config.NewDescriptorStore().Load(viewsetRoot)

	require.NoError(testInstance, loadError)
	require.Len(testInstance, descriptors, 1)
	require.Empty(testInstance, warnings)
}

func TestDescriptorStoreSaveRoundTrip(testInstance *testing.T) {
	viewsetRoot := testInstance.TempDir()
	descriptorStore := config.NewDescriptorStore()

	savedDescriptors := []config.RepositoryDescriptor{
		{Name: "service", RemoteURL: "git@github.com:acme/service.git", IsPrivate: true, Source: "github", Account: "acme"},
	}
	require.NoError(testInstance, descriptorStore.Save(viewsetRoot, savedDescriptors))
	require.True(testInstance, descriptorStore.Exists(viewsetRoot))

	loadedDescriptors, warnings, loadError := descriptorStore.Load(viewsetRoot)
	require.NoError(testInstance, loadError)
	require.Empty(testInstance, warnings)
	require.Equal(testInstance, savedDescriptors, loadedDescriptors)
}
