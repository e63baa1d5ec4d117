// Package cli assembles the viewyard root command: configuration loading,
// logger construction, and registration of the viewset, view, and
// view-synchronization commands.
package cli
