package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/temirov/viewyard/internal/config"
)

const (
	outsideViewsetMessageConstant = "no %s found in %s or any parent directory"
	notInsideViewMessageConstant  = "run this command inside a view directory, not the viewset root"
)

// ErrOutsideViewset indicates that no catalog was found walking up from the working directory.
var ErrOutsideViewset = errors.New("outside any viewset")

// ErrNotInsideView indicates a view-scoped command ran at the viewset root.
var ErrNotInsideView = errors.New(notInsideViewMessageConstant)

// WorkspaceContext locates the current command inside a viewset.
//
// It is resolved once per command invocation and threaded through every
// operation so path decisions never consult the environment twice.
type WorkspaceContext struct {
	ViewsetRoot string
	ViewName    string
	ViewRoot    string
}

// ResolveWorkspaceContext walks up from workingDirectory until it finds the
// viewset catalog, recording which view (if any) contains the directory.
func ResolveWorkspaceContext(workingDirectory string) (WorkspaceContext, error) {
	absoluteDirectory, absoluteError := filepath.Abs(workingDirectory)
	if absoluteError != nil {
		return WorkspaceContext{}, absoluteError
	}

	currentDirectory := absoluteDirectory
	previousComponent := ""
	for {
		if _, statError := os.Stat(filepath.Join(currentDirectory, config.DescriptorFileName)); statError == nil {
			resolvedContext := WorkspaceContext{ViewsetRoot: currentDirectory}
			if len(previousComponent) > 0 {
				resolvedContext.ViewName = previousComponent
				resolvedContext.ViewRoot = filepath.Join(currentDirectory, previousComponent)
			}
			return resolvedContext, nil
		}

		parentDirectory := filepath.Dir(currentDirectory)
		if parentDirectory == currentDirectory {
			return WorkspaceContext{}, fmt.Errorf(outsideViewsetMessageConstant+": %w", config.DescriptorFileName, absoluteDirectory, ErrOutsideViewset)
		}
		previousComponent = filepath.Base(currentDirectory)
		currentDirectory = parentDirectory
	}
}

// RequireView fails when the context does not point inside a view.
func (workspaceContext WorkspaceContext) RequireView() error {
	if len(strings.TrimSpace(workspaceContext.ViewName)) == 0 {
		return ErrNotInsideView
	}
	return nil
}

// RepositoryPath returns the checkout path of a repository inside the current view.
func (workspaceContext WorkspaceContext) RepositoryPath(directoryName string) string {
	return filepath.Join(workspaceContext.ViewRoot, directoryName)
}
