package board

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func datePtr(s string) *time.Time {
	d := date(s)
	return &d
}

func TestClassify_Boundaries(t *testing.T) {
	now := date("2026-03-10").Add(14 * time.Hour) // time-of-day must not matter

	tests := []struct {
		name     string
		etd      *time.Time
		urgency  Urgency
		days     int
	}{
		{"no etd", nil, UrgencyNoEtd, 0},
		{"due today is due soon, not overdue", datePtr("2026-03-10"), UrgencyDueSoon, 0},
		{"yesterday is overdue by one day", datePtr("2026-03-09"), UrgencyOverdue, 1},
		{"ten days ago", datePtr("2026-02-28"), UrgencyOverdue, 10},
		{"window upper bound inclusive", datePtr("2026-03-17"), UrgencyDueSoon, 7},
		{"one past the window", datePtr("2026-03-18"), UrgencyOnTrack, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			urgency, days := Classify(tt.etd, now, 7, time.UTC)
			assert.Equal(t, tt.urgency, urgency)
			assert.Equal(t, tt.days, days)
		})
	}
}

func TestClassify_WindowIsConfigurable(t *testing.T) {
	now := date("2026-03-10")

	urgency, _ := Classify(datePtr("2026-03-13"), now, 2, time.UTC)
	assert.Equal(t, UrgencyOnTrack, urgency)

	urgency, _ = Classify(datePtr("2026-03-12"), now, 2, time.UTC)
	assert.Equal(t, UrgencyDueSoon, urgency)
}

func TestClassify_UsesBoardTimezoneForToday(t *testing.T) {
	// 11:30 UTC on March 9 is already March 10 in Auckland. A job due
	// March 9 must be overdue there, not due today.
	loc := time.FixedZone("NZDT", 13*60*60)
	now := time.Date(2026, 3, 9, 11, 30, 0, 0, time.UTC)
	etd := time.Date(2026, 3, 9, 0, 0, 0, 0, loc)

	urgency, days := Classify(&etd, now, 7, loc)
	assert.Equal(t, UrgencyOverdue, urgency)
	assert.Equal(t, 1, days)
}
