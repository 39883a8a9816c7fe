// Package testutil provides shared test infrastructure for cohortsim.
// It holds golden-file helpers and float assertions used across the
// sim/cohort, sim/export and sim/dashboard test packages.
package testutil

import (
	"encoding/json"
	"flag"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

var update = flag.Bool("update", false, "rewrite golden files under testdata/")

// AssertGoldenJSON compares got, encoded as indented JSON, against
// testdata/<name>. Run `go test -update` to (re)record the file; a missing
// golden file fails the test.
func AssertGoldenJSON(t *testing.T, name string, got any) {
	t.Helper()

	data, err := json.MarshalIndent(got, "", "  ")
	require.NoError(t, err)
	data = append(data, '\n')

	path := filepath.Join("testdata", name)
	if *update {
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, data, 0o644))
		return
	}
	want, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		t.Fatalf("golden file %s is missing; run `go test -update` to record it", path)
	}
	require.NoError(t, err)
	require.JSONEq(t, string(want), string(data), "golden mismatch for %s; rerun with -update if the change is intended", path)
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
