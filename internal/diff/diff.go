// Package diff compares table definitions and derives the alteration
// requests that turn the current state into the desired one. Column renames
// are detected heuristically.
package diff

import (
	"schemac/internal/core"
)

const (
	// renameDetectionScoreThreshold is the minimum similarity score required to consider
	// a removed+added column pair as a rename. The score is computed by comparing column
	// attributes (type=4pts, type arguments=2pts, nullable=1pt, etc., 13 in total). A
	// threshold of 11 requires near-identical column definitions to avoid false positives.
	renameDetectionScoreThreshold = 11

	// renameSharedTokenMinLen is the minimum length of shared name tokens (e.g., "user" in
	// "user_id" and "user_name") required as additional evidence for rename detection.
	renameSharedTokenMinLen = 3
)

// SchemaDiff represents the differences between two sets of tables.
type SchemaDiff struct {
	Warnings       []string `json:"warnings,omitempty"`
	AddedTables    []*core.Table
	RemovedTables  []*core.Table
	ModifiedTables []*TableDiff
}

// TableDiff represents the differences between two versions of a table.
type TableDiff struct {
	Name                string
	Warnings            []string `json:"warnings,omitempty"`
	AddedColumns        []*core.Column
	RemovedColumns      []*core.Column
	RenamedColumns      []*ColumnRename
	ModifiedColumns     []*ColumnChange
	AddedConstraints    []*core.Constraint
	RemovedConstraints  []*core.Constraint
	ModifiedConstraints []*ConstraintChange
	AddedIndexes        []*core.Index
	RemovedIndexes      []*core.Index
	ModifiedIndexes     []*IndexChange
	Comment             *FieldChange

	current *core.Table
	desired *core.Table
	// origins map renamed copies back to the current definitions.
	constraintOrigins map[*core.Constraint]*core.Constraint
	indexOrigins      map[*core.Index]*core.Index
}

// ColumnChange represents the differences between two columns.
type ColumnChange struct {
	Name    string
	Old     *core.Column
	New     *core.Column
	Changes []*FieldChange
}

// ColumnRename is a removed and added column pair detected as a rename.
type ColumnRename struct {
	Old   *core.Column
	New   *core.Column
	Score int
}

// ConstraintChange represents the constraint difference between old table and new table.
type ConstraintChange struct {
	Name          string
	Old           *core.Constraint
	New           *core.Constraint
	Changes       []*FieldChange
	RebuildOnly   bool
	RebuildReason string
}

// IndexChange represents the differences between indexes of old table and new table.
type IndexChange struct {
	Name    string
	Old     *core.Index
	New     *core.Index
	Changes []*FieldChange
}

// FieldChange represents the differences between two fields.
type FieldChange struct {
	Field string
	Old   string
	New   string
}

// GetName methods implement the Named interface for type-safe sorting.
func (td *TableDiff) GetName() string        { return td.Name }
func (cc *ColumnChange) GetName() string     { return cc.Name }
func (cc *ConstraintChange) GetName() string { return cc.Name }
func (ic *IndexChange) GetName() string      { return ic.Name }

// Options controls the comparison.
type Options struct {
	DetectColumnRenames bool
}

// DefaultOptions enables rename detection.
func DefaultOptions() Options {
	return Options{DetectColumnRenames: true}
}

// Schemas compares two sets of tables by case-insensitive name.
func Schemas(current, desired []*core.Table, opts Options) *SchemaDiff {
	d := &SchemaDiff{}
	oldTables, oldCollisions := mapTablesByName(current)
	newTables, newCollisions := mapTablesByName(desired)
	for _, c := range oldCollisions {
		d.Warnings = append(d.Warnings, "current schema: "+c)
	}
	for _, c := range newCollisions {
		d.Warnings = append(d.Warnings, "desired schema: "+c)
	}

	for name, nt := range newTables {
		ot, ok := oldTables[name]
		if !ok {
			d.AddedTables = append(d.AddedTables, nt)
			continue
		}

		td := Compare(ot, nt, opts)
		if td != nil {
			d.ModifiedTables = append(d.ModifiedTables, td)
		}
	}

	for name, ot := range oldTables {
		if _, ok := newTables[name]; !ok {
			d.RemovedTables = append(d.RemovedTables, ot)
		}
	}

	sortNamed(d.AddedTables)
	sortNamed(d.RemovedTables)
	sortNamed(d.ModifiedTables)

	return d
}

// Tables derives the alteration request that turns current into desired,
// using the default options. It returns nil when the tables are equal.
func Tables(current, desired *core.Table) *core.AlterationRequest {
	td := Compare(current, desired, DefaultOptions())
	if td == nil {
		return nil
	}
	return td.Request()
}

// IsEmpty returns true if there are no differences in the schema diff.
func (d *SchemaDiff) IsEmpty() bool {
	return len(d.AddedTables) == 0 && len(d.RemovedTables) == 0 && len(d.ModifiedTables) == 0
}

// Requests returns one alteration request per modified table, in name order.
func (d *SchemaDiff) Requests() []*core.AlterationRequest {
	out := make([]*core.AlterationRequest, 0, len(d.ModifiedTables))
	for _, td := range d.ModifiedTables {
		if req := td.Request(); req != nil {
			out = append(out, req)
		}
	}
	return out
}
