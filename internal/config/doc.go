// Package config models the repository catalog a viewset is built from.
//
// The catalog lives in .viewyard-repos.json at the viewset root as an ordered
// JSON array; every bulk operation walks repositories in catalog order.
package config
