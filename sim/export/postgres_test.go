package export

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careerpulse/cohortsim/sim/cohort"
)

func TestPostgresSink_DeleteRunQuery(t *testing.T) {
	s := newPostgresSink(nil, "")

	sql, args, err := s.deleteRunQuery("3f1c")
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "student_records" WHERE run_id = $1`, sql)
	assert.Equal(t, []any{"3f1c"}, args)
}

func TestPostgresSink_CreateTableQuotesName(t *testing.T) {
	s := newPostgresSink(nil, `cohort"; drop`)
	sql := s.createTableSQL()
	assert.Contains(t, sql, `CREATE TABLE IF NOT EXISTS "cohort""; drop" (`)
	for _, col := range copyColumns() {
		assert.Contains(t, sql, "\t"+col+" ", "column %s missing from DDL", col)
	}
}

func TestCopyRow_PrefixesRunIDAndKeepsTypes(t *testing.T) {
	d := 45.0
	reg := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	rec := cohort.StudentRecord{
		StudentID: "S00007", GraduationYear: 2025, Registered: true, RegisteredOn: reg,
		ApplicationsSubmitted: 2, IsApplicant: true, Shortlisted: true, Hired: true,
		DaysToJob: &d, Employer: "Initech", InternshipCompleted: true, InternshipEmployer: "Globex",
		IndustryApplications: map[string]int{"Tech": 2, "Finance": 1},
	}

	row := copyRow("run-1", &rec)
	require.Len(t, row, len(copyColumns()))
	assert.Equal(t, "run-1", row[0])
	assert.Equal(t, "S00007", row[1])
	assert.Equal(t, 2025, row[4])
	assert.Equal(t, reg, row[6])
	assert.Equal(t, 45.0, row[17])
	assert.Equal(t, "Initech", row[18])
	assert.Equal(t, "Globex", row[22])
	assert.Equal(t, "Finance=1;Tech=2", row[23])

	rec.DaysToJob = nil
	assert.Nil(t, copyRow("run-1", &rec)[17], "absent days_to_job maps to NULL")
}

func TestNewPostgresSink_BadDSN(t *testing.T) {
	_, err := NewPostgresSink(context.Background(), "postgres://%zz", "")
	assert.Error(t, err)
}
