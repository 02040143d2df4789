package core

import (
	"strings"
)

func validateColumns(table *Table) error {
	seen := make(map[string]bool, len(table.Columns))
	for i, col := range table.Columns {
		if col == nil {
			return Errorf(ErrInconsistentRequest, table.Name, "", "column at index %d is nil", i)
		}
		lower := strings.ToLower(col.Name)
		if seen[lower] {
			return Errorf(ErrNameCollision, table.Name, "column "+col.Name, "duplicate column name %q", col.Name)
		}
		seen[lower] = true

		if err := col.Validate(table.Name); err != nil {
			return err
		}
	}
	return nil
}

// validatePKConflict ensures a table doesn't define primary keys both at the
// column level and in the constraints section, and has at most one primary key.
func validatePKConflict(table *Table) error {
	columnPK := 0
	for _, col := range table.Columns {
		if col.PrimaryKey {
			columnPK++
		}
	}
	constraintPK := 0
	for _, con := range table.Constraints {
		if con != nil && con.Type == ConstraintPrimaryKey {
			constraintPK++
		}
	}
	if constraintPK > 1 {
		return Errorf(ErrInconsistentRequest, table.Name, "primary key",
			"multiple PRIMARY KEY constraints declared; a table can have at most one primary key")
	}
	if columnPK > 0 && constraintPK > 0 {
		return Errorf(ErrInconsistentRequest, table.Name, "primary key",
			"primary key declared on both column(s) and in constraints; use one or the other")
	}
	return nil
}

// InlinePrimaryKey returns the single column flagged as primary key when the
// table declares its key that way. Composite column-level keys are folded
// into a constraint by AssignNames instead.
func (t *Table) InlinePrimaryKey() *Column {
	var found *Column
	for _, col := range t.Columns {
		if !col.PrimaryKey {
			continue
		}
		if found != nil {
			return nil
		}
		found = col
	}
	return found
}

// AssignNames fills in derived names for unnamed constraints and indexes,
// folds composite column-level primary keys into a constraint, and checks
// that the resulting names are unique. It mutates t; pass a clone when the
// caller's value must be kept.
func (t *Table) AssignNames(maxLen int) error {
	synthesizeCompositePK(t, maxLen)

	names := make(map[string]string, len(t.Constraints)+len(t.Indexes))
	for _, con := range t.Constraints {
		if con.Name == "" {
			con.Name = ConstraintName(t.Name, con.Type, con.Columns, con.CheckExpression, maxLen)
		} else if err := CheckIdentifier(t.Name, "constraint", con.Name, maxLen); err != nil {
			return err
		}
		lower := strings.ToLower(con.Name)
		if prev, ok := names[lower]; ok {
			return Errorf(ErrNameCollision, t.Name, "constraint "+con.Name, "name already used by %s", prev)
		}
		names[lower] = "constraint " + con.Name
	}
	for _, idx := range t.Indexes {
		if idx.Name == "" {
			idx.Name = IndexName(t.Name, idx.Columns, idx.Unique, maxLen)
		} else if err := CheckIdentifier(t.Name, "index", idx.Name, maxLen); err != nil {
			return err
		}
		lower := strings.ToLower(idx.Name)
		if prev, ok := names[lower]; ok {
			return Errorf(ErrNameCollision, t.Name, "index "+idx.Name, "name already used by %s", prev)
		}
		names[lower] = "index " + idx.Name
	}
	return nil
}

func synthesizeCompositePK(t *Table, maxLen int) {
	if t.PrimaryKey() != nil {
		return
	}
	var cols []string
	for _, col := range t.Columns {
		if col.PrimaryKey {
			cols = append(cols, col.Name)
		}
	}
	if len(cols) < 2 {
		return
	}
	for _, col := range t.Columns {
		col.PrimaryKey = false
	}
	t.Constraints = append([]*Constraint{{
		Name:    ConstraintName(t.Name, ConstraintPrimaryKey, cols, "", maxLen),
		Type:    ConstraintPrimaryKey,
		Columns: cols,
	}}, t.Constraints...)
}
