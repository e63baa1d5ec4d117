// Package execshell provides structured helpers for invoking external tools.
//
// It wraps os/exec with logging, enforced timeouts, and process-group
// termination via ShellExecutor, exposes OSCommandRunner for default process
// execution, and holds the single stderr classification surface used to
// categorize git failures across viewyard.
package execshell
