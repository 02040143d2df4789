package document

import (
	"fmt"
	"strings"

	"schemac/internal/core"
)

// Constraint maps [[tables.constraints]].
type Constraint struct {
	Name              string   `toml:"name" yaml:"name"`
	Type              string   `toml:"type" yaml:"type"`
	Columns           []string `toml:"columns" yaml:"columns"`
	ReferencedTable   string   `toml:"referenced_table" yaml:"referenced_table"`
	ReferencedColumns []string `toml:"referenced_columns" yaml:"referenced_columns"`
	OnDelete          string   `toml:"on_delete" yaml:"on_delete"`
	OnUpdate          string   `toml:"on_update" yaml:"on_update"`
	CheckExpression   string   `toml:"check_expression" yaml:"check_expression"`
}

// Index maps [[tables.indexes]].
type Index struct {
	Name    string   `toml:"name" yaml:"name"`
	Columns []string `toml:"columns" yaml:"columns"`
	Unique  bool     `toml:"unique" yaml:"unique"`
}

func convertConstraint(tc *Constraint) (*core.Constraint, error) {
	kind, ok := core.ParseConstraintType(tc.Type)
	if !ok {
		return nil, fmt.Errorf("constraint %q: unknown type %q", tc.Name, tc.Type)
	}
	onDelete, err := parseAction(tc.OnDelete)
	if err != nil {
		return nil, fmt.Errorf("constraint %q: on_delete: %w", tc.Name, err)
	}
	onUpdate, err := parseAction(tc.OnUpdate)
	if err != nil {
		return nil, fmt.Errorf("constraint %q: on_update: %w", tc.Name, err)
	}
	return &core.Constraint{
		Name:              strings.TrimSpace(tc.Name),
		Type:              kind,
		Columns:           tc.Columns,
		ReferencedTable:   tc.ReferencedTable,
		ReferencedColumns: tc.ReferencedColumns,
		OnDelete:          onDelete,
		OnUpdate:          onUpdate,
		CheckExpression:   strings.TrimSpace(tc.CheckExpression),
	}, nil
}

func convertIndex(ti *Index) (*core.Index, error) {
	if len(ti.Columns) == 0 {
		name := ti.Name
		if name == "" {
			name = "(unnamed)"
		}
		return nil, fmt.Errorf("index %s has no columns", name)
	}
	return &core.Index{
		Name:    strings.TrimSpace(ti.Name),
		Columns: ti.Columns,
		Unique:  ti.Unique,
	}, nil
}

func parseAction(s string) (core.ReferentialAction, error) {
	a, ok := core.ParseReferentialAction(s)
	if !ok {
		return "", fmt.Errorf("unknown referential action %q", s)
	}
	return a, nil
}

// synthesizeConstraints turns column-level unique, check and references
// shorthands into unnamed table constraints, appended after the declared
// ones in column order.
func synthesizeConstraints(table *core.Table, cols []Column) error {
	for i := range cols {
		tc := &cols[i]
		name := strings.TrimSpace(tc.Name)
		if tc.Unique {
			table.Constraints = append(table.Constraints, &core.Constraint{
				Type:    core.ConstraintUnique,
				Columns: []string{name},
			})
		}
		if expr := strings.TrimSpace(tc.Check); expr != "" {
			table.Constraints = append(table.Constraints, &core.Constraint{
				Type:            core.ConstraintCheck,
				Columns:         []string{name},
				CheckExpression: expr,
			})
		}
		if tc.References == "" {
			if tc.OnDelete != "" || tc.OnUpdate != "" {
				return fmt.Errorf("column %q: on_delete/on_update require references", name)
			}
			continue
		}
		refTable, refCol, ok := core.ParseReferences(tc.References)
		if !ok {
			return fmt.Errorf("column %q: invalid references %q: expected format \"table.column\"", name, tc.References)
		}
		onDelete, err := parseAction(tc.OnDelete)
		if err != nil {
			return fmt.Errorf("column %q: on_delete: %w", name, err)
		}
		onUpdate, err := parseAction(tc.OnUpdate)
		if err != nil {
			return fmt.Errorf("column %q: on_update: %w", name, err)
		}
		table.Constraints = append(table.Constraints, &core.Constraint{
			Type:              core.ConstraintForeignKey,
			Columns:           []string{name},
			ReferencedTable:   refTable,
			ReferencedColumns: []string{refCol},
			OnDelete:          onDelete,
			OnUpdate:          onUpdate,
		})
	}
	return nil
}
