package cohort

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCohortSpec_Valid(t *testing.T) {
	require.NoError(t, DefaultCohortSpec().Validate())
}

func TestValidate_RejectsInvalidSpecs(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *CohortSpec)
		wantMsg string
	}{
		{"zero population", func(s *CohortSpec) { s.Population = 0 }, "population"},
		{"negative population", func(s *CohortSpec) { s.Population = -5 }, "population"},
		{"population above max", func(s *CohortSpec) { s.Population = MaxPopulation + 1 }, "population"},
		{"negative workers", func(s *CohortSpec) { s.Workers = -1 }, "workers"},
		{"no universities", func(s *CohortSpec) { s.Universities = nil }, "universities"},
		{"no majors", func(s *CohortSpec) { s.Majors = []string{} }, "majors"},
		{"duplicate major", func(s *CohortSpec) { s.Majors = []string{"A", "A"}; s.Parameters.ByMajor = nil }, "duplicate"},
		{"no graduation years", func(s *CohortSpec) { s.GraduationYears = nil }, "graduation_years"},
		{"duplicate graduation year", func(s *CohortSpec) { s.GraduationYears = []int{2024, 2024} }, "graduation_years"},
		{"weights mismatch", func(s *CohortSpec) { s.MajorWeights = []float64{1} }, "major_weights"},
		{"shortlist above one", func(s *CohortSpec) { s.Parameters.ShortlistProbability = 1.2 }, "shortlist_probability"},
		{"hire negative", func(s *CohortSpec) { s.Parameters.HireProbability = -0.1 }, "hire_probability"},
		{"internship rate above one", func(s *CohortSpec) { s.Parameters.InternshipRate = 2 }, "internship_rate"},
		{"negative application mean", func(s *CohortSpec) {
			s.Parameters.Applications = DistSpec{Type: "poisson", Params: map[string]float64{"mean": -1}}
		}, "parameters.applications"},
		{"unknown days type", func(s *CohortSpec) { s.Parameters.DaysToJob = DistSpec{Type: "weibull"} }, "days_to_job"},
		{"negative invite weight", func(s *CohortSpec) { s.Parameters.Invites.Workshop = -0.5 }, "workshop_weight"},
		{"override for unknown major", func(s *CohortSpec) {
			s.Parameters.ByMajor["Astrology"] = MajorOverride{InternshipRate: ptr(0.5)}
		}, "Astrology"},
		{"override rate above one", func(s *CohortSpec) {
			s.Parameters.ByMajor["Business"] = MajorOverride{InternshipRate: ptr(1.5)}
		}, "by_major[Business]"},
		{"duplicate industry", func(s *CohortSpec) { s.Industries = []string{"Tech", "Tech"} }, "industries"},
		{"industry with separator", func(s *CohortSpec) { s.Industries = []string{"Tech;Media"} }, "industries"},
		{"bad industry distribution", func(s *CohortSpec) {
			s.Parameters.IndustryApplications = DistSpec{Type: "poisson", Params: map[string]float64{"mean": 1e19}}
		}, "industry_applications"},
		{"huge invite floor", func(s *CohortSpec) { s.Parameters.Invites.Floor = 1e19 }, "floor"},
		{"bad registration date", func(s *CohortSpec) { s.Registration.Start = "01/01/2024" }, "registration.start"},
		{"registration inverted", func(s *CohortSpec) { s.Registration.End = "2023-01-01" }, "before start"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := DefaultCohortSpec()
			tt.mutate(spec)
			err := spec.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidParameter), "error %v does not wrap ErrInvalidParameter", err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestValidate_FirstErrorIsStable(t *testing.T) {
	// GIVEN a spec with several invalid probabilities and invite weights
	spec := DefaultCohortSpec()
	spec.Parameters.ShortlistProbability = 2
	spec.Parameters.HireProbability = 2
	spec.Parameters.ProfileCompletionRate = 2
	spec.Parameters.Invites.Floor = -1
	spec.Parameters.Invites.CareerFair = -1

	// WHEN validated repeatedly
	// THEN the same field is reported every time, in declaration order
	for i := 0; i < 20; i++ {
		err := spec.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parameters.shortlist_probability")
	}

	spec.Parameters.ShortlistProbability = 0.5
	spec.Parameters.HireProbability = 0.5
	spec.Parameters.ProfileCompletionRate = 0.5
	for i := 0; i < 20; i++ {
		err := spec.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parameters.invites.career_fair_weight")
	}
}

func TestLoadCohortSpec_ParsesYAML(t *testing.T) {
	yamlData := `
version: "1"
seed: 7
population: 300
universities: ["North", "South"]
majors: ["Math", "History"]
major_weights: [3, 1]
graduation_years: [2024, 2025]
registration: {start: "2024-01-01", end: "2024-06-30"}
parameters:
  applications: {type: poisson, params: {mean: 2}}
  shortlist_probability: 0.5
  hire_probability: 0.5
  career_fair: {type: poisson, params: {mean: 1}}
  workshop: {type: gaussian, params: {mean: 2, std_dev: 1}}
  info_session: {type: constant, params: {value: 1}}
  invites: {career_fair_weight: 0.3, workshop_weight: 0.5, info_session_weight: 0.2, floor: 1, workshop_boost: 1.3}
  internship_rate: 0.6
  internship_applicant_lift: 0.1
  days_to_job: {type: uniform, params: {min: 30, max: 300}}
  logins: {type: poisson, params: {mean: 40}}
  resume_uploads: {type: poisson, params: {mean: 1}}
  profile_completion_rate: 0.9
  by_major:
    Math:
      internship_rate: 0.8
`
	path := filepath.Join(t.TempDir(), "cohort.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlData), 0o644))

	spec, err := LoadCohortSpec(path)
	require.NoError(t, err)
	require.NoError(t, spec.Validate())

	assert.Equal(t, int64(7), spec.Seed)
	assert.Equal(t, 300, spec.Population)
	assert.Equal(t, []float64{3, 1}, spec.MajorWeights)
	assert.Equal(t, 1.3, spec.Parameters.Invites.WorkshopBoost)
	require.NotNil(t, spec.Parameters.ByMajor["Math"].InternshipRate)
	assert.Equal(t, 0.8, *spec.Parameters.ByMajor["Math"].InternshipRate)
}

func TestLoadCohortSpec_ShippedExample(t *testing.T) {
	spec, err := LoadCohortSpec(filepath.Join("..", "..", "examples", "cohort.yaml"))
	require.NoError(t, err)
	require.NoError(t, spec.Validate())
	assert.Equal(t, 4, spec.Workers)
	assert.Equal(t, "hurdle_poisson", spec.Parameters.Applications.Type)
	require.Contains(t, spec.Parameters.ByMajor, "Engineering")
	require.NotNil(t, spec.Parameters.ByMajor["Engineering"].InternshipRate)
	assert.Equal(t, 0.8, *spec.Parameters.ByMajor["Engineering"].InternshipRate)
	assert.Len(t, spec.Industries, 5)
	assert.Equal(t, "poisson", spec.Parameters.IndustryApplications.Type)
}

func TestLoadCohortSpec_RejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("populaton: 10\n"), 0o644))

	_, err := LoadCohortSpec(path)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "populaton"), "error should name the unknown key: %v", err)
}

func TestLoadCohortSpec_MissingFile(t *testing.T) {
	_, err := LoadCohortSpec(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestInviteWeights_Rate(t *testing.T) {
	w := InviteWeights{CareerFair: 0.35, Workshop: 0.55, InfoSession: 0.25, Floor: 1.5, WorkshopBoost: 1.25}

	// GIVEN no workshop: plain linear combination plus floor
	assert.InDelta(t, 0.35*2+0.25*1+1.5, w.Rate(2, 0, 1), 1e-12)

	// GIVEN a workshop: the whole rate is boosted
	assert.InDelta(t, (0.35*2+0.55*1+0.25*1+1.5)*1.25, w.Rate(2, 1, 1), 1e-12)

	assert.InDelta(t, 0.35*2+0.55*3+0.25*4, w.Weighted(2, 3, 4), 1e-12)
}
