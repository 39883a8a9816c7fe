package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/careerpulse/cohortsim/sim/cohort"
)

var (
	// Persistent CLI flags
	logLevel   string // Log verbosity level
	configPath string // Path to a CohortSpec YAML file

	// Cohort overrides, applied only when the flag is explicitly set
	population int   // Number of students to generate
	seed       int64 // Seed for the cohort
	workers    int   // Parallel generation workers
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "cohortsim",
	Short: "Seeded synthetic generator for student career cohorts",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logrus.SetLevel(level)

		// .env is optional
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			logrus.Warnf("Could not load .env: %v", err)
		}
		return nil
	},
	SilenceUsage: true,
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadSpec reads --config (or the built-in defaults) and applies the
// explicitly set override flags on top.
func loadSpec(cmd *cobra.Command) (*cohort.CohortSpec, error) {
	var spec *cohort.CohortSpec
	if configPath != "" {
		s, err := cohort.LoadCohortSpec(configPath)
		if err != nil {
			return nil, err
		}
		spec = s
	} else {
		spec = cohort.DefaultCohortSpec()
	}
	applyOverrides(cmd, spec)
	return spec, nil
}

// applyOverrides copies flag values into spec only for flags the user set, so
// a YAML seed or population is preserved when the flag is absent.
func applyOverrides(cmd *cobra.Command, spec *cohort.CohortSpec) {
	if cmd.Flags().Changed("seed") {
		logrus.Infof("CLI --seed %d overrides seed %d", seed, spec.Seed)
		spec.Seed = seed
	}
	if cmd.Flags().Changed("population") {
		spec.Population = population
	}
	if cmd.Flags().Changed("workers") {
		spec.Workers = workers
	}
}

// addCohortFlags registers the override flags shared by every command that generates.
func addCohortFlags(c *cobra.Command) {
	c.Flags().IntVar(&population, "population", 2500, "Number of students to generate")
	c.Flags().Int64Var(&seed, "seed", 42, "Seed for cohort generation")
	c.Flags().IntVar(&workers, "workers", 1, "Parallel generation workers (output does not depend on it)")
}

// getenv returns the environment value for key, or fallback when unset.
func getenv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a cohort spec YAML file (defaults to the built-in spec)")

	addCohortFlags(generateCmd)
	addCohortFlags(summarizeCmd)
	addCohortFlags(serveCmd)

	rootCmd.AddCommand(generateCmd, summarizeCmd, serveCmd)
}
