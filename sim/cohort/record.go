package cohort

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidParameter is wrapped by every configuration error returned from
// Validate and Generate.
var ErrInvalidParameter = errors.New("invalid parameter")

// DateLayout is the calendar-date format used for registration dates.
const DateLayout = "2006-01-02"

// StudentRecord is one row of a generated cohort.
//
// Funnel fields are populated in stage order, so
// Hired implies Shortlisted implies IsApplicant implies ApplicationsSubmitted >= 1.
type StudentRecord struct {
	StudentID      string    `json:"student_id"`
	University     string    `json:"university"`
	Major          string    `json:"major"`
	GraduationYear int       `json:"graduation_year"`
	Registered     bool      `json:"registered"`
	RegisteredOn   time.Time `json:"registered_on"`

	ApplicationsSubmitted int  `json:"applications_submitted"`
	IsApplicant           bool `json:"is_applicant"`
	Shortlisted           bool `json:"shortlisted"`
	Hired                 bool `json:"hired"`
	InternshipCompleted   bool `json:"internship_completed"`

	CareerFairAttendance   int  `json:"career_fair_attendance"`
	WorkshopAttendance     int  `json:"workshop_attendance"`
	InfoSessionAttendance  int  `json:"info_session_attendance"`
	ResumeWorkshopAttended bool `json:"resume_workshop_attended"`
	InterviewInvites       int  `json:"interview_invites"`

	DaysToJob *float64 `json:"days_to_job"` // nil unless Hired
	Employer  string   `json:"employer,omitempty"`

	LoginCount       int  `json:"login_count"`
	ProfileCompleted bool `json:"profile_completed"`
	ResumeUploads    int  `json:"resume_uploads"`

	InternshipEmployer string `json:"internship_employer,omitempty"` // empty unless InternshipCompleted

	// IndustryApplications counts applications per configured industry.
	// Independent of ApplicationsSubmitted; nil when no industries are configured.
	IndustryApplications map[string]int `json:"industry_applications,omitempty"`
}

// CheckInvariants reports the first per-record invariant the record violates.
func (r *StudentRecord) CheckInvariants() error {
	switch {
	case !r.Registered:
		return fmt.Errorf("%s: registered must be true", r.StudentID)
	case r.IsApplicant != (r.ApplicationsSubmitted >= 1):
		return fmt.Errorf("%s: is_applicant=%v with %d applications", r.StudentID, r.IsApplicant, r.ApplicationsSubmitted)
	case r.Shortlisted && !r.IsApplicant:
		return fmt.Errorf("%s: shortlisted without applying", r.StudentID)
	case r.Hired && !r.Shortlisted:
		return fmt.Errorf("%s: hired without being shortlisted", r.StudentID)
	case r.Hired != (r.DaysToJob != nil):
		return fmt.Errorf("%s: days_to_job presence does not match hired=%v", r.StudentID, r.Hired)
	case r.DaysToJob != nil && *r.DaysToJob <= 0:
		return fmt.Errorf("%s: days_to_job must be positive, got %g", r.StudentID, *r.DaysToJob)
	case r.ResumeWorkshopAttended != (r.WorkshopAttendance >= 1):
		return fmt.Errorf("%s: resume_workshop_attended does not match workshop attendance", r.StudentID)
	case r.InterviewInvites > r.ApplicationsSubmitted:
		return fmt.Errorf("%s: %d invites exceed %d applications", r.StudentID, r.InterviewInvites, r.ApplicationsSubmitted)
	case r.InternshipEmployer != "" && !r.InternshipCompleted:
		return fmt.Errorf("%s: internship employer without an internship", r.StudentID)
	}
	for _, c := range []struct {
		name string
		n    int
	}{
		{"applications_submitted", r.ApplicationsSubmitted},
		{"career_fair_attendance", r.CareerFairAttendance},
		{"workshop_attendance", r.WorkshopAttendance},
		{"info_session_attendance", r.InfoSessionAttendance},
		{"interview_invites", r.InterviewInvites},
		{"login_count", r.LoginCount},
		{"resume_uploads", r.ResumeUploads},
	} {
		if c.n < 0 {
			return fmt.Errorf("%s: %s is negative (%d)", r.StudentID, c.name, c.n)
		}
	}
	for industry, n := range r.IndustryApplications {
		if n < 0 {
			return fmt.Errorf("%s: applications for %s are negative (%d)", r.StudentID, industry, n)
		}
	}
	return nil
}

// Cohort is the immutable result of one generation run.
type Cohort struct {
	RunID   uuid.UUID
	Seed    int64
	Records []StudentRecord
}

// Len returns the number of records.
func (c *Cohort) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Records)
}
