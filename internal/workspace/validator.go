package workspace

import "fmt"

const branchMismatchWarningTemplateConstant = "%s is on %q, expected %q"

// BranchObservation pairs a repository with its checked-out branch.
type BranchObservation struct {
	RepositoryName string
	BranchName     string
}

// BranchConsistencyWarnings names repositories whose branch deviates from the
// view branch.
//
// The view name doubles as the expected branch for every repository in the
// view, so any deviation usually means a checkout was changed by hand.
func BranchConsistencyWarnings(observations []BranchObservation, expectedBranch string) []string {
	if len(expectedBranch) == 0 {
		return nil
	}

	warnings := []string{}
	for _, observation := range observations {
		if len(observation.BranchName) == 0 {
			continue
		}
		if observation.BranchName != expectedBranch {
			warnings = append(warnings, fmt.Sprintf(branchMismatchWarningTemplateConstant, observation.RepositoryName, observation.BranchName, expectedBranch))
		}
	}
	return warnings
}
