// Package onboard implements viewset initialization: repository discovery
// through the GitHub CLI, interactive selection, and catalog creation.
package onboard
