package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/careerpulse/cohortsim/sim/cohort"
	"github.com/careerpulse/cohortsim/sim/export"
)

var (
	outPath       string // Output file; format chosen by extension
	postgresDSN   string // Postgres connection string
	postgresTable string // Target table for the Postgres sink
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a cohort and write it to a file and/or Postgres",
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := loadSpec(cmd)
		if err != nil {
			return err
		}

		dsn := postgresDSN
		if dsn == "" {
			dsn = getenv("COHORTSIM_POSTGRES_DSN", "")
		}
		if outPath == "" && dsn == "" {
			return fmt.Errorf("nothing to write: pass --out and/or --postgres-dsn")
		}

		start := time.Now()
		c, err := cohort.Generate(spec)
		if err != nil {
			return err
		}
		logrus.Infof("Generated %d records (run %s, seed %d) in %s", c.Len(), c.RunID, c.Seed, time.Since(start).Round(time.Millisecond))

		if outPath != "" {
			if err := export.WriteFile(outPath, c); err != nil {
				return err
			}
		}
		if dsn != "" {
			table := postgresTable
			if !cmd.Flags().Changed("postgres-table") {
				table = getenv("COHORTSIM_POSTGRES_TABLE", postgresTable)
			}
			if err := writePostgres(cmd.Context(), dsn, table, c); err != nil {
				return err
			}
		}
		return nil
	},
}

func writePostgres(ctx context.Context, dsn, table string, c *cohort.Cohort) error {
	if ctx == nil {
		ctx = context.Background()
	}
	sink, err := export.NewPostgresSink(ctx, dsn, table)
	if err != nil {
		return err
	}
	defer sink.Close()
	if err := sink.Write(ctx, c); err != nil {
		return err
	}
	logrus.Infof("Wrote %d records to Postgres table %s", c.Len(), table)
	return nil
}

func init() {
	generateCmd.Flags().StringVar(&outPath, "out", "", "Output path (.csv, .json or .xlsx)")
	generateCmd.Flags().StringVar(&postgresDSN, "postgres-dsn", "", "Postgres DSN (falls back to COHORTSIM_POSTGRES_DSN)")
	generateCmd.Flags().StringVar(&postgresTable, "postgres-table", export.DefaultTable, "Postgres table for generated rows")
}
