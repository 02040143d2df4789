package compiler

import (
	"fmt"
	"strings"

	"schemac/internal/core"
	"schemac/internal/dialect"
	"schemac/internal/plan"
)

// directPlan translates each operation into ALTER statements in request
// order. A running snapshot of the current table, when known, supplies old
// definitions and the dependents of dropped columns.
func (p *planner) directPlan() (*unit, error) {
	u := p.c.newUnit(p.table, plan.ModeDirect)

	var live *snapshot
	if p.current != nil {
		live = newSnapshot(p.current, p.c.dialect.MaxIdentifierLength)
	}
	explicit := p.explicitDrops()

	for _, st := range p.steps {
		if err := p.directStep(u, st.op, live, explicit); err != nil {
			return nil, err
		}
		if live != nil {
			if _, err := live.apply(st.op); err != nil {
				return nil, err
			}
		}
	}
	return u, nil
}

// explicitDrops returns the lower-cased names of constraints and indexes
// the request drops itself. Dropping a column leaves those to their own
// operation.
func (p *planner) explicitDrops() map[string]bool {
	maxLen := p.c.dialect.MaxIdentifierLength
	out := make(map[string]bool)
	for _, st := range p.steps {
		switch o := st.op.(type) {
		case core.DropConstraint:
			name := o.Name
			if name == "" && o.Type != "" {
				name = core.ConstraintName(p.table, o.Type, o.Columns, "", maxLen)
			}
			out[strings.ToLower(name)] = true
		case core.DropIndex:
			name := o.Name
			if name == "" {
				name = core.IndexName(p.table, o.Columns, o.Unique, maxLen)
			}
			out[strings.ToLower(name)] = true
		}
	}
	return out
}

func (p *planner) directStep(u *unit, op core.Operation, live *snapshot, explicit map[string]bool) error {
	c, d, table := p.c, p.c.dialect, p.table
	var cur *core.Table
	if live != nil {
		cur = live.table
	}
	switch o := op.(type) {
	case core.AddColumn:
		cs, err := c.compileColumn(u, table, o.Column, o.Column.PrimaryKey, columnAdd)
		if err != nil {
			return err
		}
		u.addBefore(cs.before)
		u.Add(plan.Stmt(fmt.Sprintf("%s %s %s", d.AlterTable(table), d.AddColumnKeyword, cs.definition)).
			Provide(plan.ColumnKey(table, o.Column.Name)).
			Require(cs.requires...))
		u.Add(cs.after...)

	case core.DropColumn:
		return p.dropColumn(u, o.Name, cur, explicit)

	case core.AlterColumnType:
		var old *core.Column
		if cur != nil {
			old = cur.FindColumn(o.Column.Name)
		}
		return p.alterColumn(u, old, o.Column)

	case core.RenameColumn:
		in := dialect.RenameColumnInput{Table: table, From: o.From, To: o.To}
		if cur != nil {
			in.Current = cur.FindColumn(o.From)
			renamed := in.Current.Clone()
			renamed.Name = o.To
			cs, err := c.compileColumn(u, table, renamed, false, columnRestate)
			if err != nil {
				return err
			}
			in.Definition = cs.definition
		}
		stmts, err := d.RenameColumnSQL(in)
		if err != nil {
			return err
		}
		for _, s := range stmts {
			u.Add(s.Drop(plan.ColumnKey(table, o.From)).Provide(plan.ColumnKey(table, o.To)))
		}

	case core.AddConstraint:
		con := o.Constraint.Clone()
		if con.Name == "" {
			con.Name = core.ConstraintName(table, con.Type, con.Columns, con.CheckExpression, d.MaxIdentifierLength)
		}
		u.Add(c.addConstraintStatement(table, con))

	case core.DropConstraint:
		con, err := c.resolveConstraint(table, live, o)
		if err != nil {
			return err
		}
		s, err := c.dropConstraintStatement(table, con)
		if err != nil {
			return err
		}
		u.Add(s)

	case core.SetComment:
		return p.setComment(u, o, cur)

	case core.AddIndex:
		idx := o.Index.Clone()
		if idx.Name == "" {
			idx.Name = core.IndexName(table, idx.Columns, idx.Unique, d.MaxIdentifierLength)
		}
		u.Add(c.createIndexStatement(table, idx))

	case core.DropIndex:
		idx, err := c.resolveIndex(table, live, o)
		if err != nil {
			return err
		}
		u.Add(c.dropIndexStatement(table, idx))
	}
	return nil
}

// dropColumn drops a column. Where the dialect does not drop dependents
// with the column, constraints and indexes using it are dropped first,
// unless the request drops them itself.
func (p *planner) dropColumn(u *unit, name string, cur *core.Table, explicit map[string]bool) error {
	c, d, table := p.c, p.c.dialect, p.table
	if cur != nil {
		col := cur.FindColumn(name)
		deps := dependentsOf(cur, name)
		cons := deps.constraints
		if col.PrimaryKey && cur.PrimaryKey() == nil && d.NamedInlinePrimaryKey {
			cons = append(cons, &core.Constraint{
				Name:    core.ConstraintName(table, core.ConstraintPrimaryKey, nil, "", d.MaxIdentifierLength),
				Type:    core.ConstraintPrimaryKey,
				Columns: []string{col.Name},
			})
		}
		if checkName, expr := c.columnCheck(table, col); expr != "" && !d.DiscardsChecks {
			cons = append(cons, &core.Constraint{Name: checkName, Type: core.ConstraintCheck, Columns: []string{col.Name}, CheckExpression: expr})
		}

		for _, con := range cons {
			if explicit[strings.ToLower(con.Name)] {
				continue
			}
			if d.DropColumnCascades {
				u.AddNote(plan.NoteInfo, fmt.Sprintf("dropping column %s.%s also drops constraint %s", table, name, con.Name))
				continue
			}
			s, err := c.dropConstraintStatement(table, con)
			if err != nil {
				return err
			}
			u.Add(s)
		}
		for _, idx := range deps.indexes {
			if explicit[strings.ToLower(idx.Name)] {
				continue
			}
			if d.DropColumnCascades {
				u.AddNote(plan.NoteInfo, fmt.Sprintf("dropping column %s.%s also drops index %s", table, name, idx.Name))
				continue
			}
			u.Add(c.dropIndexStatement(table, idx))
		}
	}

	for _, s := range d.BeforeDropColumnSQL(table, name) {
		u.Add(s.Require(plan.ColumnKey(table, name)))
	}
	u.Add(plan.Stmt(fmt.Sprintf("%s DROP COLUMN %s", d.AlterTable(table), d.QuoteIdentifier(name))).
		Drop(plan.ColumnKey(table, name)))
	u.AddNote(plan.NoteWarning, fmt.Sprintf("dropping column %s.%s deletes its data", table, name))
	return nil
}

// alterColumn restates a column with a new definition. The implicit column
// check is dropped before the change and added back after it.
func (p *planner) alterColumn(u *unit, old, next *core.Column) error {
	c, d, table := p.c, p.c.dialect, p.table
	next = next.Clone()
	if old != nil {
		next.Name = old.Name
		next.PrimaryKey = old.PrimaryKey
	}
	cs, err := c.compileColumn(u, table, next, false, columnRestate)
	if err != nil {
		return err
	}
	u.addBefore(cs.before)

	oldCheck, oldExpr := c.columnCheck(table, old)
	newCheck, newExpr := c.columnCheck(table, next)
	if oldExpr != "" && oldExpr != newExpr && !d.DiscardsChecks {
		s, err := c.dropConstraintStatement(table, &core.Constraint{Name: oldCheck, Type: core.ConstraintCheck, Columns: []string{old.Name}})
		if err != nil {
			return err
		}
		u.Add(s)
	}

	stmts, err := d.AlterColumnSQL(dialect.AlterColumnInput{
		Table:      table,
		Old:        old,
		New:        next,
		Definition: cs.definition,
		Type:       cs.typeSQL,
		Default:    cs.defaultSQL,
	})
	if err != nil {
		return err
	}
	for _, s := range stmts {
		u.Add(s.Require(plan.ColumnKey(table, next.Name)).Require(cs.requires...))
	}

	if newExpr != "" && newExpr != oldExpr {
		u.Add(plan.Stmt(fmt.Sprintf("%s ADD CONSTRAINT %s CHECK (%s)", d.AlterTable(table), d.QuoteIdentifier(newCheck), newExpr)).
			Provide(plan.ConstraintKey(table, newCheck)).
			Require(plan.ColumnKey(table, next.Name)))
	}
	u.Add(c.columnComment(u, table, next, old, columnRestate)...)
	return nil
}

// setComment sets or clears a table or column comment. Inline comment
// dialects restate the whole column, which needs its current definition.
func (p *planner) setComment(u *unit, op core.SetComment, cur *core.Table) error {
	d, table := p.c.dialect, p.table

	if op.Column != "" && d.Comments == dialect.CommentInline {
		if cur == nil {
			return core.Errorf(core.ErrInconsistentRequest, table, "column "+op.Column,
				"%s stores column comments in the column definition; changing one needs the current table definition", d.Type)
		}
		col := cur.FindColumn(op.Column).Clone()
		col.Comment = op.Comment
		return p.alterColumn(u, cur.FindColumn(op.Column), col)
	}

	existed := false
	if cur != nil {
		if op.Column == "" {
			existed = cur.Comment != ""
		} else if col := cur.FindColumn(op.Column); col != nil {
			existed = col.Comment != nil
		}
	}
	stmts := d.CommentSQL(dialect.CommentInput{Table: table, Column: op.Column, Comment: op.Comment, Existed: existed})
	for _, s := range stmts {
		if op.Column != "" {
			s = s.Require(plan.ColumnKey(table, op.Column))
		}
		u.Add(s)
	}
	return nil
}
