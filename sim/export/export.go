package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/careerpulse/cohortsim/sim/cohort"
)

// writers maps a file extension to its encoder.
var writers = map[string]func(io.Writer, *cohort.Cohort) error{
	".csv":  WriteCSV,
	".json": WriteJSON,
	".xlsx": WriteXLSX,
}

// Formats lists the supported file extensions.
func Formats() []string {
	return []string{".csv", ".json", ".xlsx"}
}

// WriteFile writes the cohort to path, choosing the format from its extension.
func WriteFile(path string, c *cohort.Cohort) (err error) {
	ext := strings.ToLower(filepath.Ext(path))
	write, ok := writers[ext]
	if !ok {
		return fmt.Errorf("unsupported output format %q; valid: %s", ext, strings.Join(Formats(), ", "))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()

	if err := write(f, c); err != nil {
		return err
	}
	logrus.Infof("Wrote %d records to %s", c.Len(), path)
	return nil
}

// ReadFile loads records from a CSV file written by WriteFile.
func ReadFile(path string) ([]cohort.StudentRecord, error) {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".csv" {
		return nil, fmt.Errorf("reading %q files is not supported; use .csv", ext)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return ReadCSV(f)
}
