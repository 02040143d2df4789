// Package output renders compiled plans for people and tools. It provides
// three formats: SQL, JSON and a compact summary.
package output

import (
	"fmt"
	"io"
	"strings"

	"schemac/internal/plan"
)

// Format is an enum type representing the available output formats.
type Format string

const (
	FormatSQL     Format = "sql"
	FormatJSON    Format = "json"
	FormatSummary Format = "summary"
)

// Formatter renders an ordered list of plans.
type Formatter interface {
	FormatPlans(plans []*plan.Plan) (string, error)
}

// NewFormatter creates a new Formatter instance based on the given name.
// If no format is specified, defaults to SQL format.
func NewFormatter(name string) (Formatter, error) {
	format := Format(strings.ToLower(strings.TrimSpace(name)))
	switch format {
	case "", FormatSQL:
		return sqlFormatter{}, nil
	case FormatJSON:
		return jsonFormatter{}, nil
	case FormatSummary:
		return summaryFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s; use 'sql', 'json', or 'summary'", name)
	}
}

// Write formats plans with f and writes the result to w.
func Write(w io.Writer, f Formatter, plans []*plan.Plan) error {
	content, err := f.FormatPlans(plans)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, content)
	return err
}

type totals struct {
	Plans       int `json:"plans"`
	Statements  int `json:"statements"`
	Warnings    int `json:"warnings"`
	Limitations int `json:"limitations"`
	Notes       int `json:"notes"`
}

func countTotals(plans []*plan.Plan) totals {
	var t totals
	for _, p := range plans {
		if p == nil {
			continue
		}
		t.Plans++
		t.Statements += len(p.Statements)
		t.Warnings += len(p.Warnings())
		t.Limitations += len(p.Limitations())
		t.Notes += len(p.InfoNotes())
	}
	return t
}

// planLabel names what a plan is about.
func planLabel(p *plan.Plan) string {
	if p.Table == "" {
		return string(p.Mode)
	}
	return fmt.Sprintf("%s (%s)", p.Table, p.Mode)
}

func terminate(stmt string) string {
	stmt = strings.TrimSpace(stmt)
	if stmt == "" || strings.HasSuffix(stmt, ";") {
		return stmt
	}
	return stmt + ";"
}
