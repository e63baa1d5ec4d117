package workspace

// OutcomeStatus classifies how a repository fared during a bulk operation.
type OutcomeStatus string

// Outcome statuses reported per repository.
const (
	OutcomeSucceeded    OutcomeStatus = "succeeded"
	OutcomeSkipped      OutcomeStatus = "skipped"
	OutcomeFailed       OutcomeStatus = "failed"
	OutcomeNotAttempted OutcomeStatus = "not_attempted"
)

// RepositoryOutcome records the result of one repository within a bulk operation.
type RepositoryOutcome struct {
	RepositoryName string
	Status         OutcomeStatus
	Detail         string
	Hint           string
}

// OperationSummary aggregates per-repository outcomes in catalog order.
type OperationSummary struct {
	Outcomes []RepositoryOutcome
}

// Append records an outcome.
func (summary *OperationSummary) Append(outcome RepositoryOutcome) {
	summary.Outcomes = append(summary.Outcomes, outcome)
}

// Failed reports whether any repository outcome failed.
func (summary OperationSummary) Failed() bool {
	for _, outcome := range summary.Outcomes {
		if outcome.Status == OutcomeFailed {
			return true
		}
	}
	return false
}

// CountByStatus returns how many outcomes carry the given status.
func (summary OperationSummary) CountByStatus(status OutcomeStatus) int {
	statusCount := 0
	for _, outcome := range summary.Outcomes {
		if outcome.Status == status {
			statusCount++
		}
	}
	return statusCount
}
