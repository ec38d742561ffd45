// Package board is the pure classification and view-composition engine.
// It turns a snapshot of raw sales-order records plus the current time into
// the desktop and TV board views. Nothing in this package performs I/O or
// holds state between calls.
package board

import "time"

// Stage is the workflow state of an order as recorded in Cin7. Values the
// engine does not recognize are passed through verbatim.
type Stage string

const (
	StageNew             Stage = "New"
	StageProcessing      Stage = "Processing"
	StageJobComplete     Stage = "Job Complete"
	StageToCollect       Stage = "To Collect"
	StageFullyDispatched Stage = "Fully Dispatched"
	StageCancelled       Stage = "Cancelled"
)

// ExcludedStages are never board-eligible: the work is finished or dead.
var ExcludedStages = map[Stage]bool{
	StageFullyDispatched: true,
	StageCancelled:       true,
}

// Record is the raw order shape the engine requires from a data source.
// Timestamps carry whatever time-of-day the source reported; the normalizer
// truncates them to calendar dates in the board timezone.
type Record struct {
	ID                 int64
	Reference          string
	ProjectName        string
	Company            string
	DistributionBranch string
	Stage              string
	ETD                *time.Time
	CreatedDate        *time.Time
	SourceURL          string
}

// Job is a normalized workshop job. ETD is nil when the order has no
// estimated delivery date; both dates are midnight in the board timezone.
type Job struct {
	Reference          string     `json:"reference"`
	ProjectName        string     `json:"projectName"`
	Company            string     `json:"company"`
	DistributionBranch string     `json:"distributionBranch"`
	Stage              Stage      `json:"stage"`
	ETD                *time.Time `json:"etd,omitempty"`
	CreatedDate        time.Time  `json:"createdDate"`
	SourceURL          string     `json:"sourceUrl,omitempty"`
}

// Urgency is derived from ETD and the current date on every classification.
// It is never stored.
type Urgency string

const (
	UrgencyOverdue Urgency = "overdue"
	UrgencyDueSoon Urgency = "due-soon"
	UrgencyOnTrack Urgency = "on-track"
	UrgencyNoEtd   Urgency = "no-etd"
)

// ClassifiedJob pairs a job with its urgency for one composition cycle.
type ClassifiedJob struct {
	Job
	Urgency Urgency `json:"urgency"`
	// DaysOverdue is the whole-day overdue magnitude, zero unless overdue.
	DaysOverdue int `json:"daysOverdue,omitempty"`
	// DaysUntilDue is set for due-soon and on-track jobs ("Due in Nd").
	DaysUntilDue int `json:"daysUntilDue,omitempty"`
}
