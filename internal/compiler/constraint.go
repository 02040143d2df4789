package compiler

import (
	"fmt"
	"strings"

	"schemac/internal/core"
	"schemac/internal/plan"
)

// constraintClause renders a named table constraint, as used inside CREATE
// TABLE and after ALTER TABLE ... ADD.
func (c *Compiler) constraintClause(con *core.Constraint) string {
	var sb strings.Builder
	sb.Grow(96)
	sb.WriteString("CONSTRAINT ")
	sb.WriteString(c.dialect.QuoteIdentifier(con.Name))
	sb.WriteString(" ")

	switch con.Type {
	case core.ConstraintPrimaryKey:
		fmt.Fprintf(&sb, "PRIMARY KEY (%s)", c.dialect.QuoteIdentifiers(con.Columns))
	case core.ConstraintUnique:
		fmt.Fprintf(&sb, "UNIQUE (%s)", c.dialect.QuoteIdentifiers(con.Columns))
	case core.ConstraintCheck:
		fmt.Fprintf(&sb, "CHECK (%s)", strings.TrimSpace(con.CheckExpression))
	case core.ConstraintForeignKey:
		fmt.Fprintf(&sb, "FOREIGN KEY (%s) REFERENCES %s (%s)",
			c.dialect.QuoteIdentifiers(con.Columns),
			c.dialect.QuoteIdentifier(con.ReferencedTable),
			c.dialect.QuoteIdentifiers(con.ReferencedColumns))
		if del := strings.TrimSpace(string(con.OnDelete)); del != "" {
			sb.WriteString(" ON DELETE ")
			sb.WriteString(del)
		}
		if upd := strings.TrimSpace(string(con.OnUpdate)); upd != "" {
			sb.WriteString(" ON UPDATE ")
			sb.WriteString(upd)
		}
	}
	return sb.String()
}

// addConstraintStatement returns ALTER TABLE ... ADD CONSTRAINT. Foreign
// keys weakly reference their target table unless it points at itself.
func (c *Compiler) addConstraintStatement(table string, con *core.Constraint) plan.Statement {
	s := plan.Stmt(fmt.Sprintf("%s ADD %s", c.dialect.AlterTable(table), c.constraintClause(con))).
		Provide(plan.ConstraintKey(table, con.Name)).
		Require(columnKeys(table, con.Columns)...)
	return s.Reference(foreignTarget(table, con)...)
}

// dropConstraintStatement returns the dialect drop statement for con. The
// statement reads the constrained columns so that it runs before any of
// them is dropped.
func (c *Compiler) dropConstraintStatement(table string, con *core.Constraint) (plan.Statement, error) {
	s, err := c.dialect.DropConstraintSQL(table, con)
	if err != nil {
		return plan.Statement{}, err
	}
	return s.Drop(plan.ConstraintKey(table, con.Name)).Require(columnKeys(table, con.Columns)...), nil
}

func (c *Compiler) createIndexStatement(table string, idx *core.Index) plan.Statement {
	kind := "INDEX"
	if idx.Unique {
		kind = "UNIQUE INDEX"
	}
	return plan.Stmt(fmt.Sprintf("CREATE %s %s ON %s (%s)", kind,
		c.dialect.QuoteIdentifier(idx.Name), c.dialect.QuoteIdentifier(table), c.dialect.QuoteIdentifiers(idx.Columns))).
		Provide(plan.IndexKey(table, idx.Name)).
		Require(plan.TableKey(table)).
		Require(columnKeys(table, idx.Columns)...)
}

func (c *Compiler) dropIndexStatement(table string, idx *core.Index) plan.Statement {
	return c.dialect.DropIndexSQL(table, idx.Name).
		Drop(plan.IndexKey(table, idx.Name)).
		Require(columnKeys(table, idx.Columns)...)
}

// resolveConstraint returns the constraint a DropConstraint targets. With
// a known table the snapshot resolves it; otherwise the name is taken or
// derived from the operation alone.
func (c *Compiler) resolveConstraint(table string, live *snapshot, op core.DropConstraint) (*core.Constraint, error) {
	if live != nil {
		return live.findConstraint(op)
	}
	name := strings.TrimSpace(op.Name)
	if name == "" {
		if op.Type == "" {
			return nil, core.Errorf(core.ErrMissingRequiredOption, table, "constraint",
				"dropping a constraint needs a name or a kind and columns to derive it from")
		}
		name = core.ConstraintName(table, op.Type, op.Columns, "", c.dialect.MaxIdentifierLength)
	}
	return &core.Constraint{Name: name, Type: op.Type, Columns: op.Columns}, nil
}

// resolveIndex returns the index a DropIndex targets.
func (c *Compiler) resolveIndex(table string, live *snapshot, op core.DropIndex) (*core.Index, error) {
	if live != nil {
		return live.findIndex(op)
	}
	name := strings.TrimSpace(op.Name)
	if name == "" {
		if len(op.Columns) == 0 {
			return nil, core.Errorf(core.ErrMissingRequiredOption, table, "index",
				"dropping an index needs a name or columns to derive it from")
		}
		name = core.IndexName(table, op.Columns, op.Unique, c.dialect.MaxIdentifierLength)
	}
	return &core.Index{Name: name, Columns: op.Columns, Unique: op.Unique}, nil
}

func columnKeys(table string, columns []string) []string {
	keys := make([]string, 0, len(columns))
	for _, col := range columns {
		keys = append(keys, plan.ColumnKey(table, col))
	}
	return keys
}

func foreignTarget(table string, con *core.Constraint) []string {
	if con.Type != core.ConstraintForeignKey || strings.EqualFold(con.ReferencedTable, table) {
		return nil
	}
	return []string{plan.TableKey(con.ReferencedTable)}
}
