package export

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/careerpulse/cohortsim/sim/cohort"
)

// DefaultTable is the table PostgresSink writes to when none is configured.
const DefaultTable = "student_records"

// PostgresSink writes cohorts into a Postgres table keyed by run id.
// Writing the same run twice replaces the earlier rows.
type PostgresSink struct {
	pool  *pgxpool.Pool
	table string
	sb    squirrel.StatementBuilderType
}

// NewPostgresSink connects to dsn and verifies the connection.
func NewPostgresSink(ctx context.Context, dsn, table string) (*PostgresSink, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pgxpool config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to establish database connection: %w", err)
	}
	return newPostgresSink(pool, table), nil
}

func newPostgresSink(pool *pgxpool.Pool, table string) *PostgresSink {
	if table == "" {
		table = DefaultTable
	}
	return &PostgresSink{
		pool:  pool,
		table: table,
		sb:    squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Close releases the connection pool.
func (s *PostgresSink) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Write creates the table if needed, removes rows from an earlier write of the
// same run and copies the cohort in, all in one transaction.
func (s *PostgresSink) Write(ctx context.Context, c *cohort.Cohort) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, s.createTableSQL()); err != nil {
		return fmt.Errorf("creating table %s: %w", s.table, err)
	}

	sql, args, err := s.deleteRunQuery(c.RunID.String())
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}
	tag, err := tx.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("deleting previous rows for run %s: %w", c.RunID, err)
	}
	if tag.RowsAffected() > 0 {
		logrus.Infof("Replaced %d rows from an earlier write of run %s", tag.RowsAffected(), c.RunID)
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{s.table}, copyColumns(), pgx.CopyFromSlice(c.Len(), func(i int) ([]any, error) {
		return copyRow(c.RunID.String(), &c.Records[i]), nil
	}))
	if err != nil {
		return fmt.Errorf("copying records into %s: %w", s.table, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	logrus.Debugf("Copied %d records into %s", n, s.table)
	return nil
}

func (s *PostgresSink) deleteRunQuery(runID string) (string, []any, error) {
	return s.sb.Delete(pgx.Identifier{s.table}.Sanitize()).
		Where(squirrel.Eq{"run_id": runID}).
		ToSql()
}

func (s *PostgresSink) createTableSQL() string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	run_id text NOT NULL,
	student_id text NOT NULL,
	university text NOT NULL,
	major text NOT NULL,
	graduation_year integer NOT NULL,
	registered boolean NOT NULL,
	registered_on date NOT NULL,
	applications_submitted integer NOT NULL,
	is_applicant boolean NOT NULL,
	shortlisted boolean NOT NULL,
	hired boolean NOT NULL,
	internship_completed boolean NOT NULL,
	career_fair_attendance integer NOT NULL,
	workshop_attendance integer NOT NULL,
	info_session_attendance integer NOT NULL,
	resume_workshop_attended boolean NOT NULL,
	interview_invites integer NOT NULL,
	days_to_job double precision,
	employer text NOT NULL,
	login_count integer NOT NULL,
	profile_completed boolean NOT NULL,
	resume_uploads integer NOT NULL,
	internship_employer text NOT NULL,
	industry_applications text NOT NULL,
	PRIMARY KEY (run_id, student_id)
)`, pgx.Identifier{s.table}.Sanitize())
}

func copyColumns() []string {
	return append([]string{"run_id"}, Header...)
}

func copyRow(runID string, r *cohort.StudentRecord) []any {
	return append([]any{runID}, values(r)...)
}
