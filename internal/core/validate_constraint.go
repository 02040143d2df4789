package core

import (
	"strings"
)

// validateConstraints checks that every constraint lists existing columns
// and that foreign keys and checks carry their required options.
func validateConstraints(table *Table) error {
	for i, con := range table.Constraints {
		if con == nil {
			return Errorf(ErrInconsistentRequest, table.Name, "", "constraint at index %d is nil", i)
		}
		if err := con.Validate(table); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks a single constraint against the table that owns it.
func (c *Constraint) Validate(table *Table) error {
	object := "constraint"
	if c.Name != "" {
		object = "constraint " + c.Name
	}

	switch c.Type {
	case ConstraintPrimaryKey, ConstraintForeignKey, ConstraintUnique:
		if len(c.Columns) == 0 {
			return Errorf(ErrMissingRequiredOption, table.Name, object, "%s constraint has no columns", c.Type)
		}
	case ConstraintCheck:
		if strings.TrimSpace(c.CheckExpression) == "" {
			return Errorf(ErrMissingRequiredOption, table.Name, object, "check constraint must have an expression")
		}
	default:
		return Errorf(ErrUnsupportedOperation, table.Name, object, "unknown constraint type %q", c.Type)
	}

	for _, col := range c.Columns {
		if table.FindColumn(col) == nil {
			return Errorf(ErrInconsistentRequest, table.Name, object, "references nonexistent column %q", col)
		}
	}

	if c.Type == ConstraintForeignKey {
		if strings.TrimSpace(c.ReferencedTable) == "" {
			return Errorf(ErrMissingRequiredOption, table.Name, object, "foreign key must reference a table")
		}
		if len(c.ReferencedColumns) == 0 {
			return Errorf(ErrMissingRequiredOption, table.Name, object, "foreign key must reference columns")
		}
		if len(c.Columns) != len(c.ReferencedColumns) {
			return Errorf(ErrInconsistentRequest, table.Name, object,
				"foreign key has %d columns but references %d", len(c.Columns), len(c.ReferencedColumns))
		}
		if _, ok := ParseReferentialAction(string(c.OnDelete)); !ok {
			return Errorf(ErrUnsupportedOperation, table.Name, object, "invalid ON DELETE action %q", c.OnDelete)
		}
		if _, ok := ParseReferentialAction(string(c.OnUpdate)); !ok {
			return Errorf(ErrUnsupportedOperation, table.Name, object, "invalid ON UPDATE action %q", c.OnUpdate)
		}
	}
	return nil
}
