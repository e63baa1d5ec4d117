// Package workspace implements the view-scoped bulk operations: status,
// commit-all, push-all, and rebase.
//
// A WorkspaceContext is resolved once per invocation by walking up from the
// working directory to the viewset catalog. The SyncEngine then processes
// repositories sequentially in catalog order; mutating operations stop at the
// first failure and report untouched repositories as not attempted.
package workspace
