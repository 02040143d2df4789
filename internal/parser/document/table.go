package document

import (
	"fmt"
	"strings"

	"schemac/internal/core"
)

// Table maps [[tables]] and [[current]].
type Table struct {
	Name        string       `toml:"name" yaml:"name"`
	Comment     string       `toml:"comment" yaml:"comment"`
	Columns     []Column     `toml:"columns" yaml:"columns"`
	Constraints []Constraint `toml:"constraints" yaml:"constraints"`
	Indexes     []Index      `toml:"indexes" yaml:"indexes"`
	Timestamps  *Timestamps  `toml:"timestamps" yaml:"timestamps"`
}

// Timestamps maps [tables.timestamps].
type Timestamps struct {
	Enabled       bool   `toml:"enabled" yaml:"enabled"`
	CreatedColumn string `toml:"created_column" yaml:"created_column"`
	UpdatedColumn string `toml:"updated_column" yaml:"updated_column"`
}

func (c *converter) convertTable(tt *Table) (*core.Table, error) {
	if err := c.validateName("table", tt.Name, c.maxTableName()); err != nil {
		return nil, err
	}
	table := &core.Table{
		Name:    strings.TrimSpace(tt.Name),
		Comment: tt.Comment,
	}

	if err := c.convertTableColumns(table, tt); err != nil {
		return nil, err
	}

	table.Constraints = make([]*core.Constraint, 0, len(tt.Constraints))
	for i := range tt.Constraints {
		con, err := convertConstraint(&tt.Constraints[i])
		if err != nil {
			return nil, err
		}
		table.Constraints = append(table.Constraints, con)
	}
	if err := synthesizeConstraints(table, tt.Columns); err != nil {
		return nil, err
	}

	table.Indexes = make([]*core.Index, 0, len(tt.Indexes))
	for i := range tt.Indexes {
		idx, err := convertIndex(&tt.Indexes[i])
		if err != nil {
			return nil, err
		}
		table.Indexes = append(table.Indexes, idx)
	}
	return table, nil
}

// convertTableColumns populates table.Columns and injects timestamp
// columns when enabled.
func (c *converter) convertTableColumns(table *core.Table, tt *Table) error {
	table.Columns = make([]*core.Column, 0, len(tt.Columns)+2)
	for i := range tt.Columns {
		col, err := c.convertColumn(&tt.Columns[i])
		if err != nil {
			return fmt.Errorf("column %q: %w", tt.Columns[i].Name, err)
		}
		table.Columns = append(table.Columns, col)
	}
	if tt.Timestamps != nil && tt.Timestamps.Enabled {
		injectTimestampColumns(table, tt.Timestamps)
	}
	return nil
}

// injectTimestampColumns appends created/updated columns that are not
// declared already. Both default to CURRENT_TIMESTAMP.
func injectTimestampColumns(table *core.Table, ts *Timestamps) {
	created := "created_at"
	updated := "updated_at"
	if ts.CreatedColumn != "" {
		created = ts.CreatedColumn
	}
	if ts.UpdatedColumn != "" {
		updated = ts.UpdatedColumn
	}
	for _, name := range []string{created, updated} {
		if table.FindColumn(name) != nil {
			continue
		}
		table.Columns = append(table.Columns, &core.Column{
			Name:    name,
			Type:    core.TypeTimestamp,
			Default: &core.Default{Expr: "CURRENT_TIMESTAMP"},
		})
	}
}
