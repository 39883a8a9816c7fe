// Package dashboard computes the read-only projections a career-outcomes
// dashboard renders from a generated cohort: KPI cards, the placement funnel,
// per-major and per-university tables, box-plot statistics and the event ROI
// trendline. Nothing in this package mutates or regenerates records.
package dashboard

import (
	"strings"

	"github.com/careerpulse/cohortsim/sim/cohort"
)

// Filter selects records by major and graduation year.
// Dimensions are AND-combined; values within a dimension are OR-combined.
// An empty dimension places no restriction. Majors match case-insensitively.
type Filter struct {
	Majors          []string `json:"majors,omitempty"`
	GraduationYears []int    `json:"graduation_years,omitempty"`
}

// IsEmpty reports whether the filter selects every record.
func (f Filter) IsEmpty() bool {
	return len(f.Majors) == 0 && len(f.GraduationYears) == 0
}

// Apply returns the records matching f. The input slice is returned as-is
// when the filter is empty; otherwise a new slice of copies is built.
func (f Filter) Apply(records []cohort.StudentRecord) []cohort.StudentRecord {
	if f.IsEmpty() {
		return records
	}

	majors := make(map[string]bool, len(f.Majors))
	for _, m := range f.Majors {
		majors[strings.ToLower(m)] = true
	}
	years := make(map[int]bool, len(f.GraduationYears))
	for _, y := range f.GraduationYears {
		years[y] = true
	}

	out := make([]cohort.StudentRecord, 0, len(records))
	for _, r := range records {
		if len(majors) > 0 && !majors[strings.ToLower(r.Major)] {
			continue
		}
		if len(years) > 0 && !years[r.GraduationYear] {
			continue
		}
		out = append(out, r)
	}
	return out
}
