package board

import (
	"strings"
	"time"

	"workshopboard/internal/errs"
)

// Normalize maps one raw record onto a Job. It fails with a malformed-record
// error when the reference is missing or empty; every other field defaults.
// Dates are truncated to the calendar date in loc, since due-date math never
// looks at time-of-day.
func Normalize(rec Record, loc *time.Location) (Job, error) {
	ref := strings.TrimSpace(rec.Reference)
	if ref == "" {
		return Job{}, errs.Malformed("reference is missing")
	}

	job := Job{
		Reference:          ref,
		ProjectName:        strings.TrimSpace(rec.ProjectName),
		Company:            strings.TrimSpace(rec.Company),
		DistributionBranch: strings.TrimSpace(rec.DistributionBranch),
		Stage:              Stage(strings.TrimSpace(rec.Stage)),
		SourceURL:          rec.SourceURL,
	}
	if rec.ETD != nil {
		d := DateOf(*rec.ETD, loc)
		job.ETD = &d
	}
	if rec.CreatedDate != nil {
		job.CreatedDate = DateOf(*rec.CreatedDate, loc)
	}
	return job, nil
}

// DateOf truncates t to midnight of its calendar date in loc.
func DateOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
