package gitrepo

import (
	"fmt"
	"strings"
)

const (
	sshSchemePrefixConstant             = "ssh://"
	httpsSchemePrefixConstant           = "https://"
	sshUserPrefixConstant               = "git@"
	repositorySuffixConstant            = ".git"
	remoteURLParseErrorTemplateConstant = "%s: %s"
	invalidRemoteURLMessageConstant     = "invalid remote url"
	unknownProtocolMessageConstant      = "unsupported remote protocol"
)

// RemoteProtocol enumerates the remote transports viewyard understands.
type RemoteProtocol string

// Supported remote protocols.
const (
	RemoteProtocolSSH   RemoteProtocol = "ssh"
	RemoteProtocolHTTPS RemoteProtocol = "https"
)

// RemoteURL is the structured form of a git remote address.
type RemoteURL struct {
	Protocol   RemoteProtocol
	Host       string
	Owner      string
	Repository string
}

// RemoteURLParseError indicates a remote string could not be parsed.
type RemoteURLParseError struct {
	Input   string
	Message string
}

// Error describes the parse failure.
func (parseError RemoteURLParseError) Error() string {
	return fmt.Sprintf(remoteURLParseErrorTemplateConstant, parseError.Input, parseError.Message)
}

// UnsupportedProtocolError indicates the provided protocol cannot be formatted.
type UnsupportedProtocolError struct {
	Protocol RemoteProtocol
}

// Error describes the unsupported protocol.
func (protocolError UnsupportedProtocolError) Error() string {
	return fmt.Sprintf(remoteURLParseErrorTemplateConstant, protocolError.Protocol, unknownProtocolMessageConstant)
}

// ParseRemoteURL converts a textual remote URL into its structured form.
//
// Accepted shapes are ssh:// URLs, git@host:owner/repo shorthand, and
// https:// URLs; the trailing .git suffix is stripped from the repository
// name in every case.
func ParseRemoteURL(remote string) (RemoteURL, error) {
	trimmedRemote := strings.TrimSpace(remote)
	if len(trimmedRemote) == 0 {
		return RemoteURL{}, RemoteURLParseError{Input: remote, Message: requiredValueMessageConstant}
	}

	switch {
	case strings.HasPrefix(trimmedRemote, sshSchemePrefixConstant):
		return parseSSHRemote(strings.TrimPrefix(trimmedRemote, sshSchemePrefixConstant))
	case strings.HasPrefix(trimmedRemote, sshUserPrefixConstant):
		return parseSSHRemote(trimmedRemote)
	case strings.HasPrefix(trimmedRemote, httpsSchemePrefixConstant):
		return parseHTTPSRemote(strings.TrimPrefix(trimmedRemote, httpsSchemePrefixConstant))
	}

	return RemoteURL{}, RemoteURLParseError{Input: remote, Message: invalidRemoteURLMessageConstant}
}

func parseSSHRemote(remote string) (RemoteURL, error) {
	_, hostAndPath, hasUser := strings.Cut(remote, "@")
	if !hasUser {
		return RemoteURL{}, RemoteURLParseError{Input: remote, Message: invalidRemoteURLMessageConstant}
	}

	// Shorthand remotes separate host and path with a colon, scheme remotes
	// with a slash.
	host, repositoryPath, hasColon := strings.Cut(hostAndPath, ":")
	if !hasColon {
		host, repositoryPath, hasColon = strings.Cut(hostAndPath, "/")
		if !hasColon {
			return RemoteURL{}, RemoteURLParseError{Input: remote, Message: invalidRemoteURLMessageConstant}
		}
	}

	owner, repository, splitError := splitOwnerAndRepository(repositoryPath)
	if splitError != nil {
		return RemoteURL{}, splitError
	}
	return RemoteURL{Protocol: RemoteProtocolSSH, Host: host, Owner: owner, Repository: repository}, nil
}

func parseHTTPSRemote(remote string) (RemoteURL, error) {
	host, repositoryPath, hasPath := strings.Cut(remote, "/")
	if !hasPath {
		return RemoteURL{}, RemoteURLParseError{Input: remote, Message: invalidRemoteURLMessageConstant}
	}
	owner, repository, splitError := splitOwnerAndRepository(repositoryPath)
	if splitError != nil {
		return RemoteURL{}, splitError
	}
	return RemoteURL{Protocol: RemoteProtocolHTTPS, Host: host, Owner: owner, Repository: repository}, nil
}

func splitOwnerAndRepository(repositoryPath string) (string, string, error) {
	owner, repository, hasRepository := strings.Cut(repositoryPath, "/")
	if !hasRepository || strings.Contains(repository, "/") {
		return "", "", RemoteURLParseError{Input: repositoryPath, Message: invalidRemoteURLMessageConstant}
	}
	repository = strings.TrimSuffix(repository, repositorySuffixConstant)
	if len(owner) == 0 || len(repository) == 0 {
		return "", "", RemoteURLParseError{Input: repositoryPath, Message: invalidRemoteURLMessageConstant}
	}
	return owner, repository, nil
}

// FormatRemoteURL renders a structured remote back into its textual form.
func FormatRemoteURL(remote RemoteURL) (string, error) {
	for _, requiredComponent := range []string{remote.Host, remote.Owner, remote.Repository} {
		if len(strings.TrimSpace(requiredComponent)) == 0 {
			return "", RemoteURLParseError{Input: requiredComponent, Message: requiredValueMessageConstant}
		}
	}

	switch remote.Protocol {
	case RemoteProtocolSSH:
		return fmt.Sprintf("%s%s:%s/%s%s", sshUserPrefixConstant, remote.Host, remote.Owner, remote.Repository, repositorySuffixConstant), nil
	case RemoteProtocolHTTPS:
		return fmt.Sprintf("%s%s/%s/%s%s", httpsSchemePrefixConstant, remote.Host, remote.Owner, remote.Repository, repositorySuffixConstant), nil
	default:
		return "", UnsupportedProtocolError{Protocol: remote.Protocol}
	}
}

// NormalizeRemoteURL rewrites a remote into its canonical textual form for
// the protocol it already uses, so equivalent spellings (ssh:// scheme versus
// git@ shorthand, with or without the .git suffix) compare equal in the
// catalog.
//
// Remotes that do not parse are returned unchanged; the catalog keeps
// whatever the discovery source reported.
func NormalizeRemoteURL(remote string) string {
	parsedRemote, parseError := ParseRemoteURL(remote)
	if parseError != nil {
		return remote
	}
	canonicalRemote, formatError := FormatRemoteURL(parsedRemote)
	if formatError != nil {
		return remote
	}
	return canonicalRemote
}
