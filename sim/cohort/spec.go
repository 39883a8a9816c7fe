package cohort

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Population bounds accepted by Validate.
const (
	MinPopulation = 1
	MaxPopulation = 100_000
)

// CohortSpec is the top-level generator configuration.
// Loaded from YAML via LoadCohortSpec(path), or built with DefaultCohortSpec.
type CohortSpec struct {
	Version               string             `yaml:"version"`
	Seed                  int64              `yaml:"seed"`
	Population            int                `yaml:"population"`
	Workers               int                `yaml:"workers,omitempty"` // 0 or 1 = sequential
	Universities          []string           `yaml:"universities"`
	Majors                []string           `yaml:"majors"`
	MajorWeights          []float64          `yaml:"major_weights,omitempty"`
	GraduationYears       []int              `yaml:"graduation_years"`
	GraduationYearWeights []float64          `yaml:"graduation_year_weights,omitempty"`
	Registration          RegistrationWindow `yaml:"registration"`
	Employers             []string           `yaml:"employers,omitempty"`
	Industries            []string           `yaml:"industries,omitempty"`
	Parameters            Parameters         `yaml:"parameters"`
}

// RegistrationWindow bounds the registration date, inclusive, as YYYY-MM-DD.
type RegistrationWindow struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// Parameters holds every distribution and probability the generator draws from.
type Parameters struct {
	Applications         DistSpec `yaml:"applications"`
	ShortlistProbability float64  `yaml:"shortlist_probability"`
	HireProbability      float64  `yaml:"hire_probability"`

	CareerFair  DistSpec      `yaml:"career_fair"`
	Workshop    DistSpec      `yaml:"workshop"`
	InfoSession DistSpec      `yaml:"info_session"`
	Invites     InviteWeights `yaml:"invites"`

	InternshipRate          float64 `yaml:"internship_rate"`
	InternshipApplicantLift float64 `yaml:"internship_applicant_lift"`

	DaysToJob DistSpec `yaml:"days_to_job"`

	Logins                DistSpec `yaml:"logins"`
	ResumeUploads         DistSpec `yaml:"resume_uploads"`
	ProfileCompletionRate float64  `yaml:"profile_completion_rate"`

	// IndustryApplications is sampled once per configured industry.
	IndustryApplications DistSpec `yaml:"industry_applications,omitempty"`

	ByMajor map[string]MajorOverride `yaml:"by_major,omitempty"`
}

// MajorOverride replaces event distributions or the internship rate for one major.
type MajorOverride struct {
	CareerFair     *DistSpec `yaml:"career_fair,omitempty"`
	Workshop       *DistSpec `yaml:"workshop,omitempty"`
	InfoSession    *DistSpec `yaml:"info_session,omitempty"`
	InternshipRate *float64  `yaml:"internship_rate,omitempty"`
}

// InviteWeights is the event ROI weighting behind interview invites.
// The invite rate is (CareerFair*cf + Workshop*ws + InfoSession*info + Floor),
// multiplied by WorkshopBoost when at least one workshop was attended.
type InviteWeights struct {
	CareerFair    float64 `yaml:"career_fair_weight"`
	Workshop      float64 `yaml:"workshop_weight"`
	InfoSession   float64 `yaml:"info_session_weight"`
	Floor         float64 `yaml:"floor"`
	WorkshopBoost float64 `yaml:"workshop_boost"`
}

// Weighted returns the linear ROI combination of the three attendance counts.
func (w InviteWeights) Weighted(careerFair, workshop, infoSession int) float64 {
	return w.CareerFair*float64(careerFair) + w.Workshop*float64(workshop) + w.InfoSession*float64(infoSession)
}

// Rate returns the Poisson rate for interview invites.
func (w InviteWeights) Rate(careerFair, workshop, infoSession int) float64 {
	rate := w.Weighted(careerFair, workshop, infoSession) + w.Floor
	if workshop >= 1 {
		rate *= w.WorkshopBoost
	}
	return rate
}

// DefaultCohortSpec returns the built-in career-services cohort.
func DefaultCohortSpec() *CohortSpec {
	return &CohortSpec{
		Version:    "1",
		Seed:       42,
		Population: 2500,
		Workers:    1,
		Universities: []string{
			"Arizona State U.", "UCLA", "UT Austin", "Ohio State",
			"Michigan", "Georgia Tech", "NYU", "Florida", "Penn State",
			"Purdue", "UCSD", "Boston University",
		},
		Majors:          []string{"Computer Science", "Liberal Arts", "Business", "Engineering", "Life Sciences"},
		GraduationYears: []int{2024, 2025},
		Registration:    RegistrationWindow{Start: "2024-01-01", End: "2025-12-31"},
		Employers: []string{
			"Google", "Microsoft", "Amazon", "Apple", "Meta", "Tesla",
			"Goldman Sachs", "JPMorgan Chase", "Deloitte", "EY", "Pfizer",
			"Johnson & Johnson", "Intel", "Cisco", "General Electric",
		},
		Industries: []string{"Tech", "Finance", "Healthcare", "Education", "Manufacturing"},
		Parameters: Parameters{
			Applications:         DistSpec{Type: "hurdle_poisson", Params: map[string]float64{"zero_probability": 0.3, "mean": 35}},
			ShortlistProbability: 0.52,
			HireProbability:      0.6,
			CareerFair:           DistSpec{Type: "gaussian", Params: map[string]float64{"mean": 2.5, "std_dev": 1.0}},
			Workshop:             DistSpec{Type: "gaussian", Params: map[string]float64{"mean": 3, "std_dev": 1.2}},
			InfoSession:          DistSpec{Type: "gaussian", Params: map[string]float64{"mean": 2, "std_dev": 0.8}},
			Invites: InviteWeights{
				CareerFair: 0.35, Workshop: 0.55, InfoSession: 0.25,
				Floor: 1.5, WorkshopBoost: 1.25,
			},
			InternshipRate:          0.7,
			InternshipApplicantLift: 0.05,
			DaysToJob:               DistSpec{Type: "lognormal", Params: map[string]float64{"mu": 4.5, "sigma": 0.5, "min": 1}},
			Logins:                  DistSpec{Type: "poisson", Params: map[string]float64{"mean": 150}},
			ResumeUploads:           DistSpec{Type: "poisson", Params: map[string]float64{"mean": 3}},
			ProfileCompletionRate:   0.93,
			IndustryApplications:    DistSpec{Type: "poisson", Params: map[string]float64{"mean": 7}},
			ByMajor: map[string]MajorOverride{
				"Computer Science": {
					CareerFair:     &DistSpec{Type: "gaussian", Params: map[string]float64{"mean": 4, "std_dev": 1.0}},
					InternshipRate: ptr(0.88),
				},
				"Engineering": {
					CareerFair:     &DistSpec{Type: "gaussian", Params: map[string]float64{"mean": 4, "std_dev": 1.0}},
					InternshipRate: ptr(0.82),
				},
				"Liberal Arts": {
					Workshop:       &DistSpec{Type: "gaussian", Params: map[string]float64{"mean": 4, "std_dev": 1.2}},
					InternshipRate: ptr(0.58),
				},
				"Business": {
					Workshop:       &DistSpec{Type: "gaussian", Params: map[string]float64{"mean": 4, "std_dev": 1.2}},
					InternshipRate: ptr(0.72),
				},
				"Life Sciences": {
					InternshipRate: ptr(0.68),
				},
			},
		},
	}
}

func ptr[T any](v T) *T { return &v }

// LoadCohortSpec reads and parses a YAML cohort specification file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadCohortSpec(path string) (*CohortSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading cohort spec: %w", err)
	}
	var spec CohortSpec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("parsing cohort spec: %w", err)
	}
	if spec.Version == "" {
		spec.Version = "1"
	}
	if spec.Version != "1" {
		logrus.Warnf("cohort spec version %q is newer than this build understands; parsing as version 1", spec.Version)
	}
	return &spec, nil
}

// Validate checks that all fields in the spec are valid.
// Every returned error wraps ErrInvalidParameter.
func (s *CohortSpec) Validate() error {
	_, err := s.compile()
	return err
}

func invalid(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrInvalidParameter)...)
}

// plan is a validated spec with every sampler constructed.
type plan struct {
	universities []string
	majors       *weightedChoice
	majorNames   []string
	years        *weightedChoice
	yearValues   []int
	employers    []string
	industries   []string

	regStart time.Time
	regDays  int

	applications CountSampler
	shortlist    float64
	hire         float64
	invites      InviteWeights
	lift         float64
	days         DaysSampler
	logins       CountSampler
	uploads      CountSampler
	profile      float64
	industryApps CountSampler

	byMajor []majorPlan // indexed like majorNames
}

type majorPlan struct {
	careerFair, workshop, infoSession CountSampler
	internshipRate                    float64
}

func (s *CohortSpec) compile() (*plan, error) {
	if s.Population < MinPopulation || s.Population > MaxPopulation {
		return nil, invalid("population must be in [%d, %d], got %d", MinPopulation, MaxPopulation, s.Population)
	}
	if s.Workers < 0 {
		return nil, invalid("workers must be non-negative, got %d", s.Workers)
	}
	if err := requireDistinct("universities", s.Universities); err != nil {
		return nil, err
	}
	if err := requireDistinct("majors", s.Majors); err != nil {
		return nil, err
	}
	if len(s.GraduationYears) == 0 {
		return nil, invalid("graduation_years must not be empty")
	}
	seenYears := make(map[int]bool, len(s.GraduationYears))
	for _, y := range s.GraduationYears {
		if seenYears[y] {
			return nil, invalid("graduation_years: duplicate value %d", y)
		}
		seenYears[y] = true
	}

	majors, err := newWeightedChoice("major_weights", len(s.Majors), s.MajorWeights)
	if err != nil {
		return nil, err
	}
	years, err := newWeightedChoice("graduation_year_weights", len(s.GraduationYears), s.GraduationYearWeights)
	if err != nil {
		return nil, err
	}

	regStart, regDays, err := s.Registration.span()
	if err != nil {
		return nil, err
	}

	if len(s.Industries) > 0 {
		if err := requireDistinct("industries", s.Industries); err != nil {
			return nil, err
		}
		for _, ind := range s.Industries {
			if strings.ContainsAny(ind, "=;") {
				return nil, invalid("industries: %q must not contain '=' or ';'", ind)
			}
		}
	}

	p := &plan{
		universities: s.Universities,
		majors:       majors,
		majorNames:   s.Majors,
		years:        years,
		yearValues:   s.GraduationYears,
		employers:    s.Employers,
		industries:   s.Industries,
		regStart:     regStart,
		regDays:      regDays,
	}

	params := &s.Parameters
	for _, f := range []namedValue{
		{"parameters.shortlist_probability", params.ShortlistProbability},
		{"parameters.hire_probability", params.HireProbability},
		{"parameters.internship_rate", params.InternshipRate},
		{"parameters.internship_applicant_lift", params.InternshipApplicantLift},
		{"parameters.profile_completion_rate", params.ProfileCompletionRate},
	} {
		if err := probability(f.name, f.value); err != nil {
			return nil, err
		}
	}
	p.shortlist = params.ShortlistProbability
	p.hire = params.HireProbability
	p.lift = params.InternshipApplicantLift
	p.profile = params.ProfileCompletionRate

	if err := params.Invites.validate(); err != nil {
		return nil, err
	}
	p.invites = params.Invites

	if p.applications, err = countSampler("parameters.applications", params.Applications); err != nil {
		return nil, err
	}
	if p.logins, err = countSampler("parameters.logins", params.Logins); err != nil {
		return nil, err
	}
	if p.uploads, err = countSampler("parameters.resume_uploads", params.ResumeUploads); err != nil {
		return nil, err
	}
	if p.days, err = NewDaysSampler(params.DaysToJob); err != nil {
		return nil, fmt.Errorf("parameters.days_to_job: %w", err)
	}
	if len(p.industries) > 0 {
		if p.industryApps, err = countSampler("parameters.industry_applications", params.IndustryApplications); err != nil {
			return nil, err
		}
	}

	base := majorPlan{internshipRate: params.InternshipRate}
	if base.careerFair, err = countSampler("parameters.career_fair", params.CareerFair); err != nil {
		return nil, err
	}
	if base.workshop, err = countSampler("parameters.workshop", params.Workshop); err != nil {
		return nil, err
	}
	if base.infoSession, err = countSampler("parameters.info_session", params.InfoSession); err != nil {
		return nil, err
	}

	majorIndex := make(map[string]int, len(s.Majors))
	p.byMajor = make([]majorPlan, len(s.Majors))
	for i, m := range s.Majors {
		majorIndex[m] = i
		p.byMajor[i] = base
	}
	// Sorted so that the first reported error does not depend on map order.
	names := make([]string, 0, len(params.ByMajor))
	for name := range params.ByMajor {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		idx, ok := majorIndex[name]
		if !ok {
			return nil, invalid("parameters.by_major: %q is not a configured major", name)
		}
		if err := params.ByMajor[name].apply(fmt.Sprintf("parameters.by_major[%s]", name), &p.byMajor[idx]); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (o MajorOverride) apply(prefix string, mp *majorPlan) error {
	var err error
	if o.CareerFair != nil {
		if mp.careerFair, err = countSampler(prefix+".career_fair", *o.CareerFair); err != nil {
			return err
		}
	}
	if o.Workshop != nil {
		if mp.workshop, err = countSampler(prefix+".workshop", *o.Workshop); err != nil {
			return err
		}
	}
	if o.InfoSession != nil {
		if mp.infoSession, err = countSampler(prefix+".info_session", *o.InfoSession); err != nil {
			return err
		}
	}
	if o.InternshipRate != nil {
		if err := probability(prefix+".internship_rate", *o.InternshipRate); err != nil {
			return err
		}
		mp.internshipRate = *o.InternshipRate
	}
	return nil
}

// namedValue pairs a field path with its value; validation walks these in
// declaration order so the first reported error is stable.
type namedValue struct {
	name  string
	value float64
}

func (w InviteWeights) validate() error {
	for _, f := range []namedValue{
		{"career_fair_weight", w.CareerFair},
		{"workshop_weight", w.Workshop},
		{"info_session_weight", w.InfoSession},
		{"floor", w.Floor},
		{"workshop_boost", w.WorkshopBoost},
	} {
		if math.IsNaN(f.value) || f.value < 0 || f.value > MaxCountParam {
			return invalid("parameters.invites.%s must be in [0, %g], got %g", f.name, MaxCountParam, f.value)
		}
	}
	return nil
}

func (r RegistrationWindow) span() (time.Time, int, error) {
	start, err := time.Parse(DateLayout, r.Start)
	if err != nil {
		return time.Time{}, 0, invalid("registration.start %q is not a YYYY-MM-DD date", r.Start)
	}
	end, err := time.Parse(DateLayout, r.End)
	if err != nil {
		return time.Time{}, 0, invalid("registration.end %q is not a YYYY-MM-DD date", r.End)
	}
	if end.Before(start) {
		return time.Time{}, 0, invalid("registration.end %s is before start %s", r.End, r.Start)
	}
	return start, int(end.Sub(start).Hours() / 24), nil
}

func countSampler(prefix string, d DistSpec) (CountSampler, error) {
	s, err := NewCountSampler(d)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", prefix, err)
	}
	return s, nil
}

func probability(name string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return invalid("%s must be in [0,1], got %g", name, v)
	}
	return nil
}

func requireDistinct(name string, values []string) error {
	if len(values) == 0 {
		return invalid("%s must not be empty", name)
	}
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if v == "" {
			return invalid("%s: empty value", name)
		}
		if seen[v] {
			return invalid("%s: duplicate value %q", name, v)
		}
		seen[v] = true
	}
	return nil
}
