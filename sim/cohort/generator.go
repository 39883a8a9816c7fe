package cohort

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/careerpulse/cohortsim/sim"
)

// runNamespace scopes run IDs derived from a spec.
var runNamespace = uuid.MustParse("6f1c2a7e-3d4b-5e8f-9a0b-1c2d3e4f5a6b")

// Generate creates a cohort from a CohortSpec.
// Deterministic given the same spec: every record draws from its own stream
// derived from (Seed, index), so the worker count never changes the output.
// Returns records in StudentID order, or an error wrapping ErrInvalidParameter
// before any record is drawn.
func Generate(spec *CohortSpec) (*Cohort, error) {
	p, err := spec.compile()
	if err != nil {
		return nil, fmt.Errorf("invalid cohort spec: %w", err)
	}

	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(spec.Seed))
	records := make([]StudentRecord, spec.Population)

	workers := spec.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(records) {
		workers = len(records)
	}
	chunk := (len(records) + workers - 1) / workers

	var g errgroup.Group
	g.SetLimit(workers)
	for start := 0; start < len(records); start += chunk {
		end := min(start+chunk, len(records))
		g.Go(func() error {
			for i := start; i < end; i++ {
				p.draw(i, rng.ForRecord(i), &records[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	runID, err := RunID(spec)
	if err != nil {
		return nil, err
	}
	logrus.Debugf("generated %d records (seed=%d, workers=%d, run=%s)", len(records), spec.Seed, workers, runID)

	return &Cohort{RunID: runID, Seed: spec.Seed, Records: records}, nil
}

// RunID derives a stable identifier from the full spec, so identical
// configurations map to the same run across processes.
func RunID(spec *CohortSpec) (uuid.UUID, error) {
	canonical := *spec
	canonical.Workers = 0 // output does not depend on parallelism
	data, err := yaml.Marshal(&canonical)
	if err != nil {
		return uuid.Nil, fmt.Errorf("encoding cohort spec: %w", err)
	}
	return uuid.NewSHA1(runNamespace, data), nil
}

// draw fills r for record index i. Funnel stages are staged draws that
// short-circuit to false, so the funnel ordering holds by construction.
func (p *plan) draw(i int, rng *rand.Rand, r *StudentRecord) {
	// 1. identity and categorical attributes
	r.StudentID = fmt.Sprintf("S%05d", i+1)
	r.Registered = true
	r.University = p.universities[rng.IntN(len(p.universities))]
	mi := p.majors.pick(rng)
	r.Major = p.majorNames[mi]
	r.GraduationYear = p.yearValues[p.years.pick(rng)]
	r.RegisteredOn = p.regStart.AddDate(0, 0, rng.IntN(p.regDays+1))
	mp := &p.byMajor[mi]

	// 2-5. funnel
	r.ApplicationsSubmitted = p.applications.Sample(rng)
	r.IsApplicant = r.ApplicationsSubmitted >= 1
	if r.IsApplicant {
		r.Shortlisted = bernoulli(rng, p.shortlist)
	}
	if r.Shortlisted {
		r.Hired = bernoulli(rng, p.hire)
	}

	// 6. event engagement
	r.CareerFairAttendance = mp.careerFair.Sample(rng)
	r.WorkshopAttendance = mp.workshop.Sample(rng)
	r.InfoSessionAttendance = mp.infoSession.Sample(rng)
	r.ResumeWorkshopAttended = r.WorkshopAttendance >= 1

	// 7. invites: ROI-weighted rate, never more invites than applications
	rate := p.invites.Rate(r.CareerFairAttendance, r.WorkshopAttendance, r.InfoSessionAttendance)
	r.InterviewInvites = min(poisson(rng, rate), r.ApplicationsSubmitted)

	// 8. internship
	internship := mp.internshipRate
	if r.IsApplicant {
		internship = math.Min(1, internship+p.lift)
	}
	r.InternshipCompleted = bernoulli(rng, internship)
	if r.InternshipCompleted && len(p.employers) > 0 {
		r.InternshipEmployer = p.employers[rng.IntN(len(p.employers))]
	}

	// 9. placement timing
	if r.Hired {
		days := p.days.Sample(rng)
		r.DaysToJob = &days
		if len(p.employers) > 0 {
			r.Employer = p.employers[rng.IntN(len(p.employers))]
		}
	}

	// 10. platform usage
	r.LoginCount = p.logins.Sample(rng)
	r.ProfileCompleted = bernoulli(rng, p.profile)
	r.ResumeUploads = p.uploads.Sample(rng)

	// 11. applications by industry, in configured order
	if len(p.industries) > 0 {
		r.IndustryApplications = make(map[string]int, len(p.industries))
		for _, ind := range p.industries {
			r.IndustryApplications[ind] = p.industryApps.Sample(rng)
		}
	}
}

// Sample returns up to n records chosen without replacement, in StudentID order.
// The choice is deterministic for the cohort's seed.
func (c *Cohort) Sample(n int) []StudentRecord {
	if n <= 0 || c.Len() == 0 {
		return nil
	}
	if n >= c.Len() {
		return append([]StudentRecord(nil), c.Records...)
	}
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(c.Seed)).ForSubsystem(sim.SubsystemSample)
	picked := rng.Perm(c.Len())[:n]
	keep := make([]bool, c.Len())
	for _, idx := range picked {
		keep[idx] = true
	}
	out := make([]StudentRecord, 0, n)
	for i, k := range keep {
		if k {
			out = append(out, c.Records[i])
		}
	}
	return out
}
