package board

import "strings"

// Eligible reports whether a job belongs on the board at all: its
// distribution branch must be the workshop branch and its stage must not be
// in the exclusion set. Ineligible jobs are simply dropped, never errors.
//
// Branch comparison is case-insensitive. Cin7 branch names are typed in by
// operators and the casing is not reliable across orders.
func Eligible(j Job, workshopBranch string) bool {
	if !strings.EqualFold(j.DistributionBranch, workshopBranch) {
		return false
	}
	return !ExcludedStages[j.Stage]
}
