package dialect

import (
	"fmt"

	"schemac/internal/core"
	"schemac/internal/plan"
)

// AlterTable returns the "ALTER TABLE <name>" prefix.
func (d *Dialect) AlterTable(table string) string {
	return "ALTER TABLE " + d.QuoteIdentifier(table)
}

// CompileType compiles a semantic type with the dialect strategy.
func (d *Dialect) CompileType(table string, col *core.Column) (TypeSQL, error) {
	return d.ColumnType(d, table, col)
}

// AutoIncrementSQL applies the auto increment strategy. The shared default
// leaves the type alone and has no clause.
func (d *Dialect) AutoIncrementSQL(col *core.Column, inlinePK bool, typeSQL string) (string, string, error) {
	if !col.AutoIncrement {
		return typeSQL, "", nil
	}
	if d.AutoIncrement == nil {
		return typeSQL, "", nil
	}
	return d.AutoIncrement(d, col, inlinePK, typeSQL)
}

// AlterColumnSQL returns the statements that change a column definition.
func (d *Dialect) AlterColumnSQL(in AlterColumnInput) ([]plan.Statement, error) {
	if d.AlterColumn == nil || !d.SupportsInlineAlterColumn {
		return nil, core.Errorf(core.ErrUnsupportedOperation, in.Table, "column "+in.New.Name,
			"%s cannot alter a column in place", d.Type)
	}
	return d.AlterColumn(d, in)
}

// RenameColumnSQL returns the statements that rename a column. The shared
// default is ALTER TABLE ... RENAME COLUMN.
func (d *Dialect) RenameColumnSQL(in RenameColumnInput) ([]plan.Statement, error) {
	if d.RenameColumn != nil {
		return d.RenameColumn(d, in)
	}
	return []plan.Statement{plan.Stmt(fmt.Sprintf("%s RENAME COLUMN %s TO %s",
		d.AlterTable(in.Table), d.QuoteIdentifier(in.From), d.QuoteIdentifier(in.To)))}, nil
}

// DropConstraintSQL returns the statement dropping a named constraint. The
// shared default is ALTER TABLE ... DROP CONSTRAINT.
func (d *Dialect) DropConstraintSQL(table string, con *core.Constraint) (plan.Statement, error) {
	if d.DropConstraint != nil {
		return d.DropConstraint(d, table, con)
	}
	return plan.Stmt(fmt.Sprintf("%s DROP CONSTRAINT %s", d.AlterTable(table), d.QuoteIdentifier(con.Name))), nil
}

// DropIndexSQL returns the statement dropping an index.
func (d *Dialect) DropIndexSQL(table, name string) plan.Statement {
	if d.DropIndexOnTable {
		return plan.Stmt(fmt.Sprintf("DROP INDEX %s ON %s", d.QuoteIdentifier(name), d.QuoteIdentifier(table)))
	}
	return plan.Stmt("DROP INDEX " + d.QuoteIdentifier(name))
}

// CommentSQL returns the statements that set or clear a comment. Dialects
// without a comment strategy return nothing.
func (d *Dialect) CommentSQL(in CommentInput) []plan.Statement {
	if d.CommentStatement == nil {
		return nil
	}
	return d.CommentStatement(d, in)
}

// BeforeDropColumnSQL returns statements that must run before a column drop.
func (d *Dialect) BeforeDropColumnSQL(table, column string) []plan.Statement {
	if d.BeforeDropColumn == nil {
		return nil
	}
	return d.BeforeDropColumn(d, table, column)
}

// NeedsRebuild reports whether the dialect escalates op to a rebuild.
func (d *Dialect) NeedsRebuild(op core.Operation, current *core.Table) (bool, string) {
	if d.RequiresRebuild == nil {
		return false, ""
	}
	return d.RequiresRebuild(d, op, current)
}

// RenameTableSQL returns the statement renaming a table.
func (d *Dialect) RenameTableSQL(from, to string) string {
	return fmt.Sprintf("%s RENAME TO %s", d.AlterTable(from), d.QuoteIdentifier(to))
}
