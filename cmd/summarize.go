package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/careerpulse/cohortsim/sim/cohort"
	"github.com/careerpulse/cohortsim/sim/dashboard"
	"github.com/careerpulse/cohortsim/sim/export"
)

var (
	inPath      string   // CSV written by generate; empty means generate in memory
	filterMajor []string // Majors to keep (repeatable)
	filterYear  []int    // Graduation years to keep (repeatable)
	window      int      // Rolling placement window in months
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Print dashboard KPIs, funnel and breakdowns as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := loadSpec(cmd)
		if err != nil {
			return err
		}

		var records []cohort.StudentRecord
		if inPath != "" {
			records, err = export.ReadFile(inPath)
			if err != nil {
				return err
			}
			logrus.Infof("Loaded %d records from %s", len(records), inPath)
		} else {
			c, err := cohort.Generate(spec)
			if err != nil {
				return err
			}
			records = c.Records
		}

		if window < 1 {
			return fmt.Errorf("--window must be at least 1, got %d", window)
		}
		f := dashboard.Filter{Majors: filterMajor, GraduationYears: filterYear}
		summary := dashboard.SummarizeWindow(records, f, spec.Parameters.Invites, window)

		data, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding summary: %w", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	},
}

func init() {
	summarizeCmd.Flags().StringVar(&inPath, "in", "", "Summarize a CSV written by generate instead of generating")
	summarizeCmd.Flags().StringSliceVar(&filterMajor, "major", nil, "Only include these majors (repeatable)")
	summarizeCmd.Flags().IntSliceVar(&filterYear, "year", nil, "Only include these graduation years (repeatable)")
	summarizeCmd.Flags().IntVar(&window, "window", dashboard.DefaultRollingWindow, "Rolling placement window in months")
}
