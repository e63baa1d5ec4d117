// Package search provides fuzzy name filtering for interactive repository
// selection during onboarding.
package search
