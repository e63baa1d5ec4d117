// Package githubcli wraps the GitHub CLI for repository discovery during
// viewset onboarding: authentication checks, account and organization
// resolution, and repository listings.
package githubcli
