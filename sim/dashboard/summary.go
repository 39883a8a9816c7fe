package dashboard

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/careerpulse/cohortsim/sim/cohort"
)

// KPIs are the headline cards.
type KPIs struct {
	TotalStudents   int      `json:"total_students"`
	Applicants      int      `json:"applicants"`
	Shortlisted     int      `json:"shortlisted"`
	Hired           int      `json:"hired"`
	ApplicantRate   float64  `json:"applicant_rate"`
	PlacementRate   float64  `json:"placement_rate"`
	InternshipRate  float64  `json:"internship_rate"`
	MedianDaysToJob *float64 `json:"median_days_to_job"` // nil when nobody was hired
	AvgApplications float64  `json:"avg_applications"`
}

// FunnelStage is one bar of the placement funnel.
type FunnelStage struct {
	Stage string `json:"stage"`
	Count int    `json:"count"`
	// Conversion is Count divided by the previous stage's count (1 for the first stage).
	Conversion float64 `json:"conversion"`
}

// MajorRow is one line of the per-major table.
type MajorRow struct {
	Major           string   `json:"major"`
	Students        int      `json:"students"`
	AvgApplications float64  `json:"avg_applications"`
	PlacementRate   float64  `json:"placement_rate"`
	MedianDaysToJob *float64 `json:"median_days_to_job"`
}

// UniversityRow is one line of the university ranking.
type UniversityRow struct {
	University    string  `json:"university"`
	Students      int     `json:"students"`
	Hired         int     `json:"hired"`
	PlacementRate float64 `json:"placement_rate"`
}

// MonthCount is the number of registrations in a YYYY-MM month.
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// InternshipOutcomes feeds the internship donut.
type InternshipOutcomes struct {
	Completed    int     `json:"completed"`
	NotCompleted int     `json:"not_completed"`
	Rate         float64 `json:"rate"`
}

// DefaultRollingWindow is the trailing window, in months, used by Summarize.
const DefaultRollingWindow = 3

// PlacementMonth is the placement rate of students registered in one YYYY-MM
// month. Rate is nil for months without registrations; Rolling is nil until a
// full window of months with a rate is available.
type PlacementMonth struct {
	Month    string   `json:"month"`
	Students int      `json:"students"`
	Hired    int      `json:"hired"`
	Rate     *float64 `json:"rate"`
	Rolling  *float64 `json:"rolling_rate"`
}

// RollingPlacement is the trailing-mean placement trend.
type RollingPlacement struct {
	Window int              `json:"window"`
	Months []PlacementMonth `json:"months"`
}

// IndustryCount is the total number of applications into one industry.
type IndustryCount struct {
	Industry     string `json:"industry"`
	Applications int    `json:"applications"`
}

// Summary bundles every projection for one filter.
type Summary struct {
	Filter                 Filter               `json:"filter"`
	KPIs                   KPIs                 `json:"kpis"`
	Funnel                 []FunnelStage        `json:"funnel"`
	ByMajor                []MajorRow           `json:"by_major"`
	UniversityRanking      []UniversityRow      `json:"university_ranking"`
	DaysToJobByMajor       map[string]*BoxStats `json:"days_to_job_by_major"`
	EventROI               EventROI             `json:"event_roi"`
	MonthlyRegistrations   []MonthCount         `json:"monthly_registrations"`
	Internships            InternshipOutcomes   `json:"internships"`
	RollingPlacement       RollingPlacement     `json:"rolling_placement"`
	ApplicationsByIndustry []IndustryCount      `json:"applications_by_industry"`
}

// Summarize computes every projection over the records matching f.
// weights is the ROI weighting used for the trendline's x axis.
func Summarize(records []cohort.StudentRecord, f Filter, weights cohort.InviteWeights) *Summary {
	return SummarizeWindow(records, f, weights, DefaultRollingWindow)
}

// SummarizeWindow is Summarize with an explicit rolling placement window.
func SummarizeWindow(records []cohort.StudentRecord, f Filter, weights cohort.InviteWeights, window int) *Summary {
	selected := f.Apply(records)
	return &Summary{
		Filter:                 f,
		KPIs:                   ComputeKPIs(selected),
		Funnel:                 ComputeFunnel(selected),
		ByMajor:                ComputeByMajor(selected),
		UniversityRanking:      RankUniversities(selected),
		DaysToJobByMajor:       DaysToJobByMajor(selected),
		EventROI:               ComputeEventROI(selected, weights),
		MonthlyRegistrations:   MonthlyRegistrations(selected),
		Internships:            ComputeInternships(selected),
		RollingPlacement:       ComputeRollingPlacement(selected, window),
		ApplicationsByIndustry: ApplicationsByIndustry(selected),
	}
}

// ComputeKPIs returns the headline numbers. Safe for empty input.
func ComputeKPIs(records []cohort.StudentRecord) KPIs {
	k := KPIs{TotalStudents: len(records)}
	apps := make([]float64, 0, len(records))
	var days []float64
	internships := 0
	for _, r := range records {
		apps = append(apps, float64(r.ApplicationsSubmitted))
		if r.IsApplicant {
			k.Applicants++
		}
		if r.Shortlisted {
			k.Shortlisted++
		}
		if r.Hired {
			k.Hired++
		}
		if r.DaysToJob != nil {
			days = append(days, *r.DaysToJob)
		}
		if r.InternshipCompleted {
			internships++
		}
	}
	k.ApplicantRate = rate(k.Applicants, k.TotalStudents)
	k.PlacementRate = rate(k.Hired, k.TotalStudents)
	k.InternshipRate = rate(internships, k.TotalStudents)
	k.MedianDaysToJob = median(days)
	k.AvgApplications = mean(apps)
	return k
}

// ComputeFunnel returns Registered → Applicant → Shortlisted → Hired.
func ComputeFunnel(records []cohort.StudentRecord) []FunnelStage {
	k := ComputeKPIs(records)
	counts := []struct {
		stage string
		n     int
	}{
		{"Registered", k.TotalStudents},
		{"Applicant", k.Applicants},
		{"Shortlisted", k.Shortlisted},
		{"Hired", k.Hired},
	}
	stages := make([]FunnelStage, len(counts))
	for i, c := range counts {
		conv := 1.0
		if i > 0 {
			conv = rate(c.n, counts[i-1].n)
		}
		stages[i] = FunnelStage{Stage: c.stage, Count: c.n, Conversion: conv}
	}
	return stages
}

// ComputeByMajor returns one row per major, sorted by name.
func ComputeByMajor(records []cohort.StudentRecord) []MajorRow {
	groups := groupBy(records, func(r *cohort.StudentRecord) string { return r.Major })
	rows := make([]MajorRow, 0, len(groups))
	for major, members := range groups {
		apps := make([]float64, 0, len(members))
		var days []float64
		hired := 0
		for _, r := range members {
			apps = append(apps, float64(r.ApplicationsSubmitted))
			if r.Hired {
				hired++
			}
			if r.DaysToJob != nil {
				days = append(days, *r.DaysToJob)
			}
		}
		rows = append(rows, MajorRow{
			Major:           major,
			Students:        len(members),
			AvgApplications: mean(apps),
			PlacementRate:   rate(hired, len(members)),
			MedianDaysToJob: median(days),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Major < rows[j].Major })
	return rows
}

// RankUniversities sorts universities by placement rate, highest first.
// Ties break on student count (desc), then name.
func RankUniversities(records []cohort.StudentRecord) []UniversityRow {
	groups := groupBy(records, func(r *cohort.StudentRecord) string { return r.University })
	rows := make([]UniversityRow, 0, len(groups))
	for uni, members := range groups {
		hired := 0
		for _, r := range members {
			if r.Hired {
				hired++
			}
		}
		rows = append(rows, UniversityRow{
			University:    uni,
			Students:      len(members),
			Hired:         hired,
			PlacementRate: rate(hired, len(members)),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].PlacementRate != rows[j].PlacementRate {
			return rows[i].PlacementRate > rows[j].PlacementRate
		}
		if rows[i].Students != rows[j].Students {
			return rows[i].Students > rows[j].Students
		}
		return rows[i].University < rows[j].University
	})
	return rows
}

// DaysToJobByMajor returns box-plot statistics of days_to_job per major.
// Majors without any hire map to nil.
func DaysToJobByMajor(records []cohort.StudentRecord) map[string]*BoxStats {
	groups := groupBy(records, func(r *cohort.StudentRecord) string { return r.Major })
	out := make(map[string]*BoxStats, len(groups))
	for major, members := range groups {
		var days []float64
		for _, r := range members {
			if r.DaysToJob != nil {
				days = append(days, *r.DaysToJob)
			}
		}
		out[major] = NewBoxStats(days)
	}
	return out
}

// MonthlyRegistrations counts registrations per calendar month, ascending.
func MonthlyRegistrations(records []cohort.StudentRecord) []MonthCount {
	counts := make(map[string]int)
	for _, r := range records {
		counts[r.RegisteredOn.Format("2006-01")]++
	}
	months := make([]MonthCount, 0, len(counts))
	for m, n := range counts {
		months = append(months, MonthCount{Month: m, Count: n})
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Month < months[j].Month })
	return months
}

// ComputeRollingPlacement buckets students by registration month, covering
// every month from the earliest to the latest registration, and averages the
// monthly placement rate over a trailing window. A window below 1 is treated as 1.
func ComputeRollingPlacement(records []cohort.StudentRecord, window int) RollingPlacement {
	if window < 1 {
		window = 1
	}
	out := RollingPlacement{Window: window, Months: []PlacementMonth{}}
	if len(records) == 0 {
		return out
	}

	type tally struct{ students, hired int }
	tallies := make(map[string]*tally)
	first, last := monthStart(records[0].RegisteredOn), monthStart(records[0].RegisteredOn)
	for _, r := range records {
		m := monthStart(r.RegisteredOn)
		if m.Before(first) {
			first = m
		}
		if m.After(last) {
			last = m
		}
		key := m.Format("2006-01")
		t, ok := tallies[key]
		if !ok {
			t = &tally{}
			tallies[key] = t
		}
		t.students++
		if r.Hired {
			t.hired++
		}
	}

	var rates []float64
	for m := first; !m.After(last); m = m.AddDate(0, 1, 0) {
		pm := PlacementMonth{Month: m.Format("2006-01")}
		if t, ok := tallies[pm.Month]; ok {
			pm.Students, pm.Hired = t.students, t.hired
			r := rate(t.hired, t.students)
			pm.Rate = &r
			rates = append(rates, r)
		} else {
			rates = append(rates, math.NaN())
		}
		out.Months = append(out.Months, pm)
	}

	for i := window - 1; i < len(rates); i++ {
		span := rates[i-window+1 : i+1]
		if hasNaN(span) {
			continue
		}
		m := stat.Mean(span, nil)
		out.Months[i].Rolling = &m
	}
	return out
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func hasNaN(xs []float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) {
			return true
		}
	}
	return false
}

// ApplicationsByIndustry totals per-industry applications, sorted by industry.
func ApplicationsByIndustry(records []cohort.StudentRecord) []IndustryCount {
	totals := make(map[string]int)
	for _, r := range records {
		for ind, n := range r.IndustryApplications {
			totals[ind] += n
		}
	}
	out := make([]IndustryCount, 0, len(totals))
	for ind, n := range totals {
		out = append(out, IndustryCount{Industry: ind, Applications: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Industry < out[j].Industry })
	return out
}

// ComputeInternships counts internship outcomes.
func ComputeInternships(records []cohort.StudentRecord) InternshipOutcomes {
	var out InternshipOutcomes
	for _, r := range records {
		if r.InternshipCompleted {
			out.Completed++
		} else {
			out.NotCompleted++
		}
	}
	out.Rate = rate(out.Completed, len(records))
	return out
}

// EventROI relates event attendance to interview invites.
type EventROI struct {
	Points int `json:"points"`
	// Trend is the least-squares line invites = Intercept + Slope*weighted_attendance.
	// Nil when fewer than two points or the attendance axis has no spread.
	Trend *Trendline `json:"trend"`

	AvgInvitesWithWorkshop    *float64 `json:"avg_invites_with_workshop"`
	AvgInvitesWithoutWorkshop *float64 `json:"avg_invites_without_workshop"`
	// WorkshopLift is with/without - 1; nil unless both groups have students
	// and the without-workshop mean is positive.
	WorkshopLift *float64 `json:"workshop_lift"`
}

// Trendline is a fitted simple linear regression.
type Trendline struct {
	Intercept float64 `json:"intercept"`
	Slope     float64 `json:"slope"`
	RSquared  float64 `json:"r_squared"`
}

// ComputeEventROI fits interview invites against the ROI-weighted attendance.
func ComputeEventROI(records []cohort.StudentRecord, weights cohort.InviteWeights) EventROI {
	roi := EventROI{Points: len(records)}
	xs := make([]float64, len(records))
	ys := make([]float64, len(records))
	var with, without []float64
	for i, r := range records {
		xs[i] = weights.Weighted(r.CareerFairAttendance, r.WorkshopAttendance, r.InfoSessionAttendance)
		ys[i] = float64(r.InterviewInvites)
		if r.ResumeWorkshopAttended {
			with = append(with, ys[i])
		} else {
			without = append(without, ys[i])
		}
	}

	if len(xs) >= 2 && stat.Variance(xs, nil) > 0 {
		alpha, beta := stat.LinearRegression(xs, ys, nil, false)
		r2 := stat.RSquared(xs, ys, nil, alpha, beta)
		if math.IsNaN(r2) {
			r2 = 0 // constant invites: nothing to explain
		}
		roi.Trend = &Trendline{Intercept: alpha, Slope: beta, RSquared: r2}
	}

	if len(with) > 0 {
		m := mean(with)
		roi.AvgInvitesWithWorkshop = &m
	}
	if len(without) > 0 {
		m := mean(without)
		roi.AvgInvitesWithoutWorkshop = &m
	}
	if roi.AvgInvitesWithWorkshop != nil && roi.AvgInvitesWithoutWorkshop != nil && *roi.AvgInvitesWithoutWorkshop > 0 {
		lift := *roi.AvgInvitesWithWorkshop / *roi.AvgInvitesWithoutWorkshop - 1
		roi.WorkshopLift = &lift
	}
	return roi
}

func groupBy(records []cohort.StudentRecord, key func(*cohort.StudentRecord) string) map[string][]*cohort.StudentRecord {
	groups := make(map[string][]*cohort.StudentRecord)
	for i := range records {
		k := key(&records[i])
		groups[k] = append(groups[k], &records[i])
	}
	return groups
}
