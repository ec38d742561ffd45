package board

import "time"

// Classify computes urgency from an ETD and the current time. etd must
// already be a calendar date (midnight in loc); now may carry time-of-day.
//
// A job due today is due-soon, not overdue. The due-soon window is inclusive
// at both ends: today <= etd <= today+windowDays.
func Classify(etd *time.Time, now time.Time, windowDays int, loc *time.Location) (Urgency, int) {
	if etd == nil {
		return UrgencyNoEtd, 0
	}
	today := DateOf(now, loc)
	days := wholeDays(today, *etd)
	switch {
	case days < 0:
		return UrgencyOverdue, -days
	case days <= windowDays:
		return UrgencyDueSoon, days
	default:
		return UrgencyOnTrack, days
	}
}

// wholeDays counts calendar days from a to b. Using the date components
// rather than Sub keeps DST transitions from producing off-by-one days.
func wholeDays(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua) / (24 * time.Hour))
}
