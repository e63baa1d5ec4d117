package gitrepo_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/viewyard/internal/gitrepo"
)

func TestParseRemoteURL(testInstance *testing.T) {
	testCases := []struct {
		name        string
		remote      string
		expected    gitrepo.RemoteURL
		expectError bool
	}{
		{
			name:   "ssh_shorthand",
			remote: "git@github.com:acme/service.git",
			expected: gitrepo.RemoteURL{
				Protocol:   gitrepo.RemoteProtocolSSH,
				Host:       "github.com",
				Owner:      "acme",
				Repository: "service",
			},
		},
		{
			name:   "ssh_scheme",
			remote: "ssh://git@github.com/acme/service.git",
			expected: gitrepo.RemoteURL{
				Protocol:   gitrepo.RemoteProtocolSSH,
				Host:       "github.com",
				Owner:      "acme",
				Repository: "service",
			},
		},
		{
			name:   "https",
			remote: "https://github.com/acme/service.git",
			expected: gitrepo.RemoteURL{
				Protocol:   gitrepo.RemoteProtocolHTTPS,
				Host:       "github.com",
				Owner:      "acme",
				Repository: "service",
			},
		},
		{name: "empty", remote: "  ", expectError: true},
		{name: "no_protocol", remote: "example.com/acme/service", expectError: true},
		{name: "https_without_owner", remote: "https://example.com/archive.tar.gz", expectError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			parsedRemote, parseError := gitrepo.ParseRemoteURL(testCase.remote)

			if testCase.expectError {
				require.Error(testInstance, parseError)
				return
			}
			require.NoError(testInstance, parseError)
			require.Equal(testInstance, testCase.expected, parsedRemote)
		})
	}
}

func TestFormatRemoteURL(testInstance *testing.T) {
	structuredRemote := gitrepo.RemoteURL{
		Protocol:   gitrepo.RemoteProtocolSSH,
		Host:       "github.com",
		Owner:      "acme",
		Repository: "service",
	}

	sshRemote, sshFormatError := gitrepo.FormatRemoteURL(structuredRemote)
	require.NoError(testInstance, sshFormatError)
	require.Equal(testInstance, "git@github.com:acme/service.git", sshRemote)

	structuredRemote.Protocol = gitrepo.RemoteProtocolHTTPS
	httpsRemote, httpsFormatError := gitrepo.FormatRemoteURL(structuredRemote)
	require.NoError(testInstance, httpsFormatError)
	require.Equal(testInstance, "https://github.com/acme/service.git", httpsRemote)

	structuredRemote.Protocol = gitrepo.RemoteProtocol("ftp")
	_, unsupportedError := gitrepo.FormatRemoteURL(structuredRemote)
	require.Error(testInstance, unsupportedError)
}

func TestNormalizeRemoteURL(testInstance *testing.T) {
	testCases := []struct {
		name     string
		remote   string
		expected string
	}{
		{name: "ssh_scheme_to_shorthand", remote: "ssh://git@github.com/acme/service.git", expected: "git@github.com:acme/service.git"},
		{name: "adds_repository_suffix", remote: "git@github.com:acme/service", expected: "git@github.com:acme/service.git"},
		{name: "https_kept_canonical", remote: "https://github.com/acme/service", expected: "https://github.com/acme/service.git"},
		{name: "unparseable_kept_verbatim", remote: "example.com/acme/service", expected: "example.com/acme/service"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expected, gitrepo.NormalizeRemoteURL(testCase.remote))
		})
	}
}
