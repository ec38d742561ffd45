package board

import (
	"strings"
	"time"
)

// Search filters jobs by a case-insensitive substring match on reference,
// project name or company. An empty query returns the input unchanged.
func Search(jobs []ClassifiedJob, query string) []ClassifiedJob {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return jobs
	}
	out := make([]ClassifiedJob, 0, len(jobs))
	for _, j := range jobs {
		if strings.Contains(strings.ToLower(j.Reference), q) ||
			strings.Contains(strings.ToLower(j.ProjectName), q) ||
			strings.Contains(strings.ToLower(j.Company), q) {
			out = append(out, j)
		}
	}
	return out
}

// FilterUpcoming keeps jobs due within the next days calendar days. Jobs
// with no ETD are kept: they still need attention. days <= 0 disables the
// filter.
func FilterUpcoming(jobs []ClassifiedJob, days int, now time.Time, loc *time.Location) []ClassifiedJob {
	if days <= 0 {
		return jobs
	}
	cutoff := DateOf(now, loc).AddDate(0, 0, days)
	out := make([]ClassifiedJob, 0, len(jobs))
	for _, j := range jobs {
		if j.ETD == nil || !j.ETD.After(cutoff) {
			out = append(out, j)
		}
	}
	return out
}
