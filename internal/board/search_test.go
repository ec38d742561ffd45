package board

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func cj(ref, project, company string) ClassifiedJob {
	return ClassifiedJob{Job: Job{Reference: ref, ProjectName: project, Company: company}}
}

func TestSearch(t *testing.T) {
	jobs := []ClassifiedJob{
		cj("SO-101", "Front door rekey", "Acme Hotels"),
		cj("SO-102", "Master key system", "Beachside Motel"),
		cj("SO-103", "Safe opening", "acme warehouse"),
	}

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"empty query returns all", "", []string{"SO-101", "SO-102", "SO-103"}},
		{"reference substring", "103", []string{"SO-103"}},
		{"project, case-insensitive", "MASTER", []string{"SO-102"}},
		{"company across cases", "acme", []string{"SO-101", "SO-103"}},
		{"no match", "padlock", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Search(jobs, tt.query)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, refs(got))
		})
	}
}

func TestFilterUpcoming(t *testing.T) {
	now := date("2026-03-10")
	jobs := []ClassifiedJob{
		{Job: Job{Reference: "SO-1", ETD: datePtr("2026-03-20")}},
		{Job: Job{Reference: "SO-2", ETD: datePtr("2026-04-25")}},
		{Job: Job{Reference: "SO-3"}}, // no ETD stays
		{Job: Job{Reference: "SO-4", ETD: datePtr("2026-04-09")}}, // cutoff inclusive
	}

	got := FilterUpcoming(jobs, 30, now, time.UTC)
	assert.Equal(t, []string{"SO-1", "SO-3", "SO-4"}, refs(got))

	// Disabled filter passes everything through.
	assert.Len(t, FilterUpcoming(jobs, 0, now, time.UTC), 4)
}
