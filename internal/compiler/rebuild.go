package compiler

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"schemac/internal/core"
	"schemac/internal/plan"
)

// rebuildPlan emulates the batch by rebuilding the table:
//
//  1. CREATE TABLE <temp> with the target definition and every constraint inline,
//  2. INSERT INTO <temp> ... SELECT the surviving columns FROM <table>,
//  3. DROP TABLE <table>,
//  4. ALTER TABLE <temp> RENAME TO <table>,
//  5. CREATE INDEX for every surviving index.
//
// The target snapshot was built and validated while collecting.
func (p *planner) rebuildPlan() (*unit, error) {
	c, d, table := p.c, p.c.dialect, p.table
	target := p.target.table
	temp := core.RebuildTableName(table, d.MaxIdentifierLength)

	u := c.newUnit(table, plan.ModeRebuild)
	for _, st := range p.steps {
		if st.rebuild {
			u.AddNote(plan.NoteInfo, fmt.Sprintf("%s %s needs a table rebuild: %s", st.op.Kind(), st.op.Target(), st.reason))
		}
	}

	if _, err := c.addCreateTable(u, target, temp, false); err != nil {
		return nil, err
	}

	var dst, src []string
	for _, col := range target.Columns {
		from, ok := p.target.source(col.Name)
		if !ok {
			if !col.Nullable && col.Default == nil && !col.AutoIncrement {
				u.AddNote(plan.NoteWarning, fmt.Sprintf(
					"new column %s.%s is NOT NULL without a default; copying existing rows fails unless the table is empty", table, col.Name))
			}
			continue
		}
		dst = append(dst, d.QuoteIdentifier(col.Name))
		src = append(src, d.QuoteIdentifier(from))
	}
	if len(dst) > 0 {
		u.Add(plan.Stmt(fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s",
			d.QuoteIdentifier(temp), strings.Join(dst, ", "), strings.Join(src, ", "), d.QuoteIdentifier(table))).
			Require(plan.TableKey(temp), plan.TableKey(table)))
	} else {
		u.AddNote(plan.NoteWarning, fmt.Sprintf("no column of %s survives the rebuild; existing rows are not copied", table))
	}

	u.Add(plan.Stmt("DROP TABLE " + d.QuoteIdentifier(table)).Drop(plan.TableKey(table)))
	u.Add(plan.Stmt(d.RenameTableSQL(temp, table)).
		Require(plan.TableKey(temp)).
		Drop(plan.TableKey(temp)).
		Provide(plan.TableKey(table)))
	c.addIndexes(u, target)

	u.AddNote(plan.NoteLimitation, fmt.Sprintf(
		"foreign keys on other tables that reference %s are not recreated by this plan; re-point or recreate them after the rebuild", table))
	p.log.Info("table rebuild planned",
		zap.String("temp_table", temp),
		zap.Int("columns_copied", len(dst)),
		zap.Int("indexes", len(target.Indexes)),
	)
	return u, nil
}
