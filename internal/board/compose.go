package board

import (
	"cmp"
	"slices"
	"time"
)

// Options fix the composition rules for one Composer. Zero values are not
// usable; build Options from config.
type Options struct {
	// WorkshopBranch is the distribution branch shown on the board.
	WorkshopBranch string
	// DueSoonWindowDays is the inclusive due-soon horizon.
	DueSoonWindowDays int
	// TVSectionCap limits each TV section after sorting.
	TVSectionCap int
	// DisplayedStages is the allow-list applied to the detailed listing
	// only. The highlighted sections ignore it.
	DisplayedStages []Stage
	// Location is the operational timezone for all date-boundary math.
	Location *time.Location
}

// Composer turns a fetch snapshot into the board views. It is stateless and
// safe for concurrent use.
type Composer struct {
	opts      Options
	displayed map[Stage]bool
}

func NewComposer(opts Options) *Composer {
	displayed := make(map[Stage]bool, len(opts.DisplayedStages))
	for _, s := range opts.DisplayedStages {
		displayed[s] = true
	}
	return &Composer{opts: opts, displayed: displayed}
}

// Counts are the pre-cap KPI totals shared by both views.
type Counts struct {
	Active     int `json:"active"`
	Overdue    int `json:"overdue"`
	DueSoon    int `json:"dueSoon"`
	OnTrack    int `json:"onTrack"`
	NoEtd      int `json:"noEtd"`
	InWorkshop int `json:"inWorkshop"`
	ToCollect  int `json:"toCollect"`
	Queue      int `json:"queue"`
}

// DesktopView is the interactive board. The six section slices partition the
// eligible set: every eligible job appears in exactly one of them. Detailed
// is derived separately from the full eligible set with the displayed-stage
// allow-list applied; renderers search and export against it.
type DesktopView struct {
	InWorkshop []ClassifiedJob `json:"inWorkshop"`
	ToCollect  []ClassifiedJob `json:"toCollect"`
	Overdue    []ClassifiedJob `json:"overdue"`
	NeedsEtd   []ClassifiedJob `json:"needsEtd"`
	Queue      []ClassifiedJob `json:"queue"`
	Other      []ClassifiedJob `json:"other"`
	Detailed   []ClassifiedJob `json:"detailed"`
}

// TVSection is one capped column on the TV display. Jobs holds at most the
// cap; Total is the true pre-cap count so the renderer can show "+N more".
type TVSection struct {
	Title string          `json:"title"`
	Jobs  []ClassifiedJob `json:"jobs"`
	Shown int             `json:"shown"`
	Total int             `json:"total"`
}

// Hidden is the count trimmed off by the cap.
func (s TVSection) Hidden() int {
	return s.Total - s.Shown
}

// TVView is the passive wall display: four fixed capped sections, no search,
// no detailed listing.
type TVView struct {
	Overdue    TVSection `json:"overdue"`
	InWorkshop TVSection `json:"inWorkshop"`
	ToCollect  TVSection `json:"toCollect"`
	Queue      TVSection `json:"queue"`
}

// Board is the composed view model, produced fresh on every computation
// cycle and never mutated afterwards.
type Board struct {
	GeneratedAt time.Time   `json:"generatedAt"`
	Desktop     DesktopView `json:"desktop"`
	TV          TVView      `json:"tv"`
	Counts      Counts      `json:"counts"`
	// Eligible is the full eligible set before the displayed-stage
	// allow-list, in detailed-listing order.
	Eligible []ClassifiedJob `json:"-"`
	// SkippedRecords counts malformed source records dropped during
	// normalization.
	SkippedRecords int `json:"skippedRecords"`
}

// Compose runs the whole pipeline: normalize, filter, classify, partition,
// sort, cap. Malformed records are skipped and counted, never fatal.
func (c *Composer) Compose(records []Record, now time.Time) *Board {
	b := &Board{GeneratedAt: now}

	eligible := make([]ClassifiedJob, 0, len(records))
	for _, rec := range records {
		job, err := Normalize(rec, c.opts.Location)
		if err != nil {
			b.SkippedRecords++
			continue
		}
		if !Eligible(job, c.opts.WorkshopBranch) {
			continue
		}
		urgency, days := Classify(job.ETD, now, c.opts.DueSoonWindowDays, c.opts.Location)
		cj := ClassifiedJob{Job: job, Urgency: urgency}
		if urgency == UrgencyOverdue {
			cj.DaysOverdue = days
		} else if urgency != UrgencyNoEtd {
			cj.DaysUntilDue = days
		}
		eligible = append(eligible, cj)
	}

	c.partition(eligible, b)
	c.sortSections(b)
	b.Eligible = sortedCopy(eligible, byETDThenCreated)
	b.Desktop.Detailed = c.detailed(b.Eligible)
	b.Counts = c.counts(eligible)
	b.TV = c.tvView(b)
	return b
}

// partition claims each eligible job for exactly one desktop section,
// walking a fixed priority order. A job already placed by stage is never
// duplicated into an urgency section.
func (c *Composer) partition(eligible []ClassifiedJob, b *Board) {
	for _, j := range eligible {
		switch {
		case j.Stage == StageProcessing:
			b.Desktop.InWorkshop = append(b.Desktop.InWorkshop, j)
		case j.Stage == StageToCollect:
			b.Desktop.ToCollect = append(b.Desktop.ToCollect, j)
		case j.Urgency == UrgencyOverdue:
			b.Desktop.Overdue = append(b.Desktop.Overdue, j)
		case j.Urgency == UrgencyNoEtd:
			b.Desktop.NeedsEtd = append(b.Desktop.NeedsEtd, j)
		case j.Urgency == UrgencyDueSoon:
			b.Desktop.Queue = append(b.Desktop.Queue, j)
		default:
			b.Desktop.Other = append(b.Desktop.Other, j)
		}
	}
}

func (c *Composer) sortSections(b *Board) {
	slices.SortStableFunc(b.Desktop.InWorkshop, byETD)
	slices.SortStableFunc(b.Desktop.ToCollect, byETD)
	slices.SortStableFunc(b.Desktop.Overdue, byDaysOverdue)
	slices.SortStableFunc(b.Desktop.NeedsEtd, byCreated)
	slices.SortStableFunc(b.Desktop.Queue, byETD)
	slices.SortStableFunc(b.Desktop.Other, byETDThenCreated)
}

// detailed applies the displayed-stage allow-list. Unrecognized stages are
// not in the default allow-list and drop out of the listing; they still show
// in whichever highlighted section claimed them.
func (c *Composer) detailed(eligible []ClassifiedJob) []ClassifiedJob {
	out := make([]ClassifiedJob, 0, len(eligible))
	for _, j := range eligible {
		if c.displayed[j.Stage] {
			out = append(out, j)
		}
	}
	return out
}

func (c *Composer) counts(eligible []ClassifiedJob) Counts {
	n := Counts{Active: len(eligible)}
	for _, j := range eligible {
		switch j.Urgency {
		case UrgencyOverdue:
			n.Overdue++
		case UrgencyDueSoon:
			n.DueSoon++
		case UrgencyOnTrack:
			n.OnTrack++
		case UrgencyNoEtd:
			n.NoEtd++
		}
		switch j.Stage {
		case StageProcessing:
			n.InWorkshop++
		case StageToCollect:
			n.ToCollect++
		default:
			// Queue matches the Queue partition: due soon and not
			// claimed by a stage section.
			if j.Urgency == UrgencyDueSoon {
				n.Queue++
			}
		}
	}
	return n
}

// tvView reuses the already-sorted desktop sections: the TV columns select
// and sort by the same rules, so capping the desktop slices is sufficient.
func (c *Composer) tvView(b *Board) TVView {
	return TVView{
		Overdue:    c.capped("OVERDUE", b.Desktop.Overdue),
		InWorkshop: c.capped("IN WORKSHOP", b.Desktop.InWorkshop),
		ToCollect:  c.capped("TO COLLECT", b.Desktop.ToCollect),
		Queue:      c.capped("COMING UP", b.Desktop.Queue),
	}
}

func (c *Composer) capped(title string, jobs []ClassifiedJob) TVSection {
	s := TVSection{Title: title, Total: len(jobs)}
	s.Shown = min(len(jobs), c.opts.TVSectionCap)
	s.Jobs = slices.Clone(jobs[:s.Shown])
	return s
}

func sortedCopy(jobs []ClassifiedJob, less func(a, b ClassifiedJob) int) []ClassifiedJob {
	out := slices.Clone(jobs)
	slices.SortStableFunc(out, less)
	return out
}

// Section comparators. All ties break on reference ascending so repeated
// compositions of the same snapshot are byte-identical.

func byETD(a, b ClassifiedJob) int {
	if n := compareETD(a.ETD, b.ETD); n != 0 {
		return n
	}
	return cmp.Compare(a.Reference, b.Reference)
}

func byDaysOverdue(a, b ClassifiedJob) int {
	if n := cmp.Compare(b.DaysOverdue, a.DaysOverdue); n != 0 {
		return n
	}
	return cmp.Compare(a.Reference, b.Reference)
}

func byCreated(a, b ClassifiedJob) int {
	if n := a.CreatedDate.Compare(b.CreatedDate); n != 0 {
		return n
	}
	return cmp.Compare(a.Reference, b.Reference)
}

func byETDThenCreated(a, b ClassifiedJob) int {
	if n := compareETD(a.ETD, b.ETD); n != 0 {
		return n
	}
	if n := a.CreatedDate.Compare(b.CreatedDate); n != 0 {
		return n
	}
	return cmp.Compare(a.Reference, b.Reference)
}

// compareETD orders dates ascending with missing ETDs last.
func compareETD(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return a.Compare(*b)
	}
}
