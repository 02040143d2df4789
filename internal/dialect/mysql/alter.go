package mysql

import (
	"fmt"

	"schemac/internal/core"
	"schemac/internal/dialect"
	"schemac/internal/plan"
)

func alterColumn(d *dialect.Dialect, in dialect.AlterColumnInput) ([]plan.Statement, error) {
	return []plan.Statement{
		plan.Stmt(fmt.Sprintf("%s MODIFY COLUMN %s", d.AlterTable(in.Table), in.Definition)),
	}, nil
}

// renameColumn uses RENAME COLUMN where available and falls back to CHANGE
// COLUMN, which restates the full definition and so needs the current column.
func renameColumn(f features) func(*dialect.Dialect, dialect.RenameColumnInput) ([]plan.Statement, error) {
	return func(d *dialect.Dialect, in dialect.RenameColumnInput) ([]plan.Statement, error) {
		if f.renameColumn {
			return []plan.Statement{plan.Stmt(fmt.Sprintf("%s RENAME COLUMN %s TO %s",
				d.AlterTable(in.Table), d.QuoteIdentifier(in.From), d.QuoteIdentifier(in.To)))}, nil
		}
		if in.Current == nil || in.Definition == "" {
			return nil, core.Errorf(core.ErrInconsistentRequest, in.Table, "column "+in.From,
				"%s %s renames columns with CHANGE COLUMN, which needs the current column definition", d.Type, d.Version)
		}
		return []plan.Statement{plan.Stmt(fmt.Sprintf("%s CHANGE COLUMN %s %s",
			d.AlterTable(in.Table), d.QuoteIdentifier(in.From), in.Definition))}, nil
	}
}

func dropConstraint(f features) func(*dialect.Dialect, string, *core.Constraint) (plan.Statement, error) {
	return func(d *dialect.Dialect, table string, con *core.Constraint) (plan.Statement, error) {
		prefix := d.AlterTable(table)
		switch con.Type {
		case core.ConstraintPrimaryKey:
			return plan.Stmt(prefix + " DROP PRIMARY KEY"), nil
		case core.ConstraintForeignKey:
			return plan.Stmt(prefix + " DROP FOREIGN KEY " + d.QuoteIdentifier(con.Name)), nil
		case core.ConstraintUnique:
			return plan.Stmt(prefix + " DROP INDEX " + d.QuoteIdentifier(con.Name)), nil
		case core.ConstraintCheck:
			switch {
			case f.dropCheck:
				return plan.Stmt(prefix + " DROP CHECK " + d.QuoteIdentifier(con.Name)), nil
			case d.DiscardsChecks:
				return plan.Statement{}, core.Errorf(core.ErrUnsupportedOperation, table, "constraint "+con.Name,
					"%s %s does not store CHECK constraints, so none can be dropped", d.Type, d.Version)
			}
			return plan.Stmt(prefix + " DROP CONSTRAINT " + d.QuoteIdentifier(con.Name)), nil
		}
		return plan.Statement{}, core.Errorf(core.ErrMissingRequiredOption, table, "constraint "+con.Name,
			"%s drops constraints by kind; the constraint kind is unknown", d.Type)
	}
}

// commentStatement only handles table comments; column comments are part
// of the column definition.
func commentStatement(d *dialect.Dialect, in dialect.CommentInput) []plan.Statement {
	if in.Column != "" {
		return nil
	}
	text := ""
	if in.Comment != nil {
		text = *in.Comment
	}
	return []plan.Statement{plan.Stmt(fmt.Sprintf("%s COMMENT = %s", d.AlterTable(in.Table), d.CommentLiteral(text)))}
}
