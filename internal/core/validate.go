package core

import (
	"strings"
)

// Validate runs structural validation on a table spec. It checks names,
// column types and options, constraint and index references, and returns
// the first problem as a *CompileError.
//
// Validate does not assign derived names; call AssignNames first when the
// uniqueness of derived constraint names matters.
func (t *Table) Validate() error {
	if t == nil {
		return Errorf(ErrInconsistentRequest, "", "", "table is nil")
	}
	if strings.TrimSpace(t.Name) == "" {
		return Errorf(ErrInvalidIdentifier, t.Name, "table", "table name is empty")
	}
	if len(t.Columns) == 0 {
		return Errorf(ErrInconsistentRequest, t.Name, "", "table has no columns")
	}

	if err := validateColumns(t); err != nil {
		return err
	}
	if err := validatePKConflict(t); err != nil {
		return err
	}
	if err := validateConstraints(t); err != nil {
		return err
	}
	return validateIndexes(t)
}

// CheckIdentifier reports explicit names that exceed the dialect limit.
// Derived names are shortened instead and never fail here.
func CheckIdentifier(table, kind, name string, maxLen int) error {
	if strings.TrimSpace(name) == "" {
		return Errorf(ErrInvalidIdentifier, table, kind, "name is empty")
	}
	if maxLen > 0 && len(name) > maxLen {
		return Errorf(ErrInvalidIdentifier, table, kind, "%q exceeds maximum identifier length %d", name, maxLen)
	}
	return nil
}
