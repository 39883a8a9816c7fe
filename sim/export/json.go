package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/careerpulse/cohortsim/sim/cohort"
)

// Document is the JSON envelope written by WriteJSON.
type Document struct {
	RunID      string                 `json:"run_id"`
	Seed       int64                  `json:"seed"`
	Population int                    `json:"population"`
	Records    []cohort.StudentRecord `json:"records"`
}

// WriteJSON writes the cohort as an indented Document.
func WriteJSON(w io.Writer, c *cohort.Cohort) error {
	doc := Document{
		RunID:      c.RunID.String(),
		Seed:       c.Seed,
		Population: c.Len(),
		Records:    c.Records,
	}
	if doc.Records == nil {
		doc.Records = []cohort.StudentRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding cohort json: %w", err)
	}
	return nil
}
