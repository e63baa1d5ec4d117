// Package gitrepo contains helpers for interrogating and manipulating Git repositories.
//
// It exposes RepositoryManager for branch setup, status interrogation, and
// history-safe synchronization, plus remote URL parsing shared by onboarding
// and view population.
package gitrepo
