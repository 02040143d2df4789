package compiler

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"schemac/internal/core"
	"schemac/internal/dialect"
	"schemac/internal/plan"
)

// addCreateTable adds CREATE TABLE for t under the physical name, plus its
// prerequisites and comments. Derived names and comments use the logical
// name t.Name. With deferFKs set, foreign keys are left out and returned
// so the caller can add them once every table exists.
func (c *Compiler) addCreateTable(u *unit, t *core.Table, physical string, deferFKs bool) ([]*core.Constraint, error) {
	var (
		lines    []string
		requires []string
		after    []plan.Statement
		deferred []*core.Constraint
	)

	var inlinePK *core.Column
	if t.PrimaryKey() == nil {
		inlinePK = t.InlinePrimaryKey()
	}

	for _, col := range t.Columns {
		cs, err := c.compileColumn(u, t.Name, col, col == inlinePK, columnCreate)
		if err != nil {
			return nil, err
		}
		u.addBefore(cs.before)
		lines = append(lines, "  "+cs.definition)
		requires = append(requires, cs.requires...)
		after = append(after, cs.after...)
	}

	var refs []string
	for _, con := range t.Constraints {
		if con.Type == core.ConstraintForeignKey && deferFKs {
			deferred = append(deferred, con)
			continue
		}
		lines = append(lines, "  "+c.constraintClause(con))
		if !u.local[strings.ToLower(con.ReferencedTable)] {
			refs = append(refs, foreignTarget(t.Name, con)...)
		}
	}

	var sb strings.Builder
	sb.Grow(64 + 48*len(lines))
	fmt.Fprintf(&sb, "CREATE TABLE %s (\n", c.dialect.QuoteIdentifier(physical))
	sb.WriteString(strings.Join(lines, ",\n"))
	sb.WriteString("\n)")
	if cmt := strings.TrimSpace(t.Comment); cmt != "" {
		switch c.dialect.Comments {
		case dialect.CommentInline:
			sb.WriteString(" COMMENT=")
			sb.WriteString(c.dialect.CommentLiteral(cmt))
		case dialect.CommentSeparate:
			stmts := c.dialect.CommentSQL(dialect.CommentInput{Table: t.Name, Comment: &cmt})
			for i := range stmts {
				stmts[i] = stmts[i].Require(plan.TableKey(t.Name))
			}
			after = append(stmts, after...)
		default:
			u.AddNote(plan.NoteWarning, fmt.Sprintf("comment on table %s dropped: %s does not support comments", t.Name, c.dialect.Type))
			c.logger.Warn("table comment dropped", zap.String("table", t.Name))
		}
	}

	u.Add(plan.Stmt(sb.String()).
		Provide(plan.TableKey(physical)).
		Require(requires...).
		Reference(refs...))
	u.Add(after...)
	return deferred, nil
}

// addIndexes adds CREATE INDEX statements for every index of t.
func (c *Compiler) addIndexes(u *unit, t *core.Table) {
	for _, idx := range t.Indexes {
		u.Add(c.createIndexStatement(t.Name, idx))
	}
}
