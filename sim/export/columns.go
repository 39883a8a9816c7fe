// Package export writes a generated cohort to files (CSV, JSON, XLSX) or to
// a Postgres table. Every sink uses the same column order as Header.
package export

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/careerpulse/cohortsim/sim/cohort"
)

// Header is the column order shared by every tabular sink.
var Header = []string{
	"student_id",
	"university",
	"major",
	"graduation_year",
	"registered",
	"registered_on",
	"applications_submitted",
	"is_applicant",
	"shortlisted",
	"hired",
	"internship_completed",
	"career_fair_attendance",
	"workshop_attendance",
	"info_session_attendance",
	"resume_workshop_attended",
	"interview_invites",
	"days_to_job",
	"employer",
	"login_count",
	"profile_completed",
	"resume_uploads",
	"internship_employer",
	"industry_applications",
}

// values returns the record's cells in Header order with their natural Go types.
// days_to_job is nil when absent.
func values(r *cohort.StudentRecord) []any {
	var days any
	if r.DaysToJob != nil {
		days = *r.DaysToJob
	}
	return []any{
		r.StudentID,
		r.University,
		r.Major,
		r.GraduationYear,
		r.Registered,
		r.RegisteredOn,
		r.ApplicationsSubmitted,
		r.IsApplicant,
		r.Shortlisted,
		r.Hired,
		r.InternshipCompleted,
		r.CareerFairAttendance,
		r.WorkshopAttendance,
		r.InfoSessionAttendance,
		r.ResumeWorkshopAttended,
		r.InterviewInvites,
		days,
		r.Employer,
		r.LoginCount,
		r.ProfileCompleted,
		r.ResumeUploads,
		r.InternshipEmployer,
		formatIndustryApplications(r.IndustryApplications),
	}
}

// formatIndustryApplications renders counts as "Finance=7;Tech=3", sorted by
// industry. A nil map renders as the empty string.
func formatIndustryApplications(m map[string]int) string {
	if len(m) == 0 {
		return ""
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + strconv.Itoa(m[k])
	}
	return strings.Join(parts, ";")
}

func parseIndustryApplications(cell string) (map[string]int, error) {
	if cell == "" {
		return nil, nil
	}
	m := make(map[string]int)
	for _, part := range strings.Split(cell, ";") {
		name, count, ok := strings.Cut(part, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("malformed entry %q", part)
		}
		n, err := strconv.Atoi(count)
		if err != nil {
			return nil, err
		}
		m[name] = n
	}
	return m, nil
}

// formatRow renders the record as text cells: dates as YYYY-MM-DD, bools as
// true/false, absent days_to_job as an empty cell.
func formatRow(r *cohort.StudentRecord) []string {
	vals := values(r)
	row := make([]string, len(vals))
	for i, v := range vals {
		switch x := v.(type) {
		case nil:
			row[i] = ""
		case string:
			row[i] = x
		case int:
			row[i] = strconv.Itoa(x)
		case bool:
			row[i] = strconv.FormatBool(x)
		case float64:
			row[i] = strconv.FormatFloat(x, 'f', -1, 64)
		case time.Time:
			row[i] = x.Format(cohort.DateLayout)
		default:
			row[i] = fmt.Sprint(x)
		}
	}
	return row
}

// parseRow is the inverse of formatRow.
func parseRow(row []string) (cohort.StudentRecord, error) {
	var r cohort.StudentRecord
	if len(row) != len(Header) {
		return r, fmt.Errorf("expected %d columns, got %d", len(Header), len(row))
	}
	p := rowParser{row: row}
	r.StudentID = row[0]
	r.University = row[1]
	r.Major = row[2]
	r.GraduationYear = p.int(3)
	r.Registered = p.bool(4)
	r.RegisteredOn = p.date(5)
	r.ApplicationsSubmitted = p.int(6)
	r.IsApplicant = p.bool(7)
	r.Shortlisted = p.bool(8)
	r.Hired = p.bool(9)
	r.InternshipCompleted = p.bool(10)
	r.CareerFairAttendance = p.int(11)
	r.WorkshopAttendance = p.int(12)
	r.InfoSessionAttendance = p.int(13)
	r.ResumeWorkshopAttended = p.bool(14)
	r.InterviewInvites = p.int(15)
	r.DaysToJob = p.optFloat(16)
	r.Employer = row[17]
	r.LoginCount = p.int(18)
	r.ProfileCompleted = p.bool(19)
	r.ResumeUploads = p.int(20)
	r.InternshipEmployer = row[21]
	r.IndustryApplications = p.industries(22)
	return r, p.err
}

// rowParser keeps the first conversion error so parseRow reads top to bottom.
type rowParser struct {
	row []string
	err error
}

func (p *rowParser) fail(col int, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("column %s: %w", Header[col], err)
	}
}

func (p *rowParser) int(col int) int {
	v, err := strconv.Atoi(p.row[col])
	if err != nil {
		p.fail(col, err)
	}
	return v
}

func (p *rowParser) bool(col int) bool {
	v, err := strconv.ParseBool(p.row[col])
	if err != nil {
		p.fail(col, err)
	}
	return v
}

func (p *rowParser) date(col int) time.Time {
	v, err := time.Parse(cohort.DateLayout, p.row[col])
	if err != nil {
		p.fail(col, err)
	}
	return v
}

func (p *rowParser) industries(col int) map[string]int {
	v, err := parseIndustryApplications(p.row[col])
	if err != nil {
		p.fail(col, err)
	}
	return v
}

func (p *rowParser) optFloat(col int) *float64 {
	if p.row[col] == "" {
		return nil
	}
	v, err := strconv.ParseFloat(p.row[col], 64)
	if err != nil {
		p.fail(col, err)
		return nil
	}
	return &v
}
