package compiler

import (
	"fmt"
	"slices"
	"strings"

	"schemac/internal/core"
	"schemac/internal/plan"
)

// CompileSchema compiles CREATE TABLE statements for a set of tables.
// Tables are ordered so that foreign key targets come first. Dialects that
// can add foreign keys with ALTER TABLE get them after every table exists,
// which also handles circular references; other dialects keep them inline.
func (c *Compiler) CompileSchema(tables []*core.Table) (*plan.Plan, error) {
	if len(tables) == 0 {
		return nil, core.Errorf(core.ErrInconsistentRequest, "", "schema", "schema has no tables")
	}

	prepared := make([]*core.Table, 0, len(tables))
	seen := make(map[string]bool, len(tables))
	for _, t := range tables {
		target, err := c.prepareTable(t)
		if err != nil {
			return nil, err
		}
		key := strings.ToLower(target.Name)
		if seen[key] {
			return nil, core.Errorf(core.ErrNameCollision, target.Name, "table", "table is declared more than once")
		}
		seen[key] = true
		prepared = append(prepared, target)
	}

	deferFKs := c.dialect.SupportsAddForeignKeyInline
	ordered, cyclic := orderByForeignKeys(prepared)

	u := c.newUnit("", plan.ModeSchema)
	u.local = seen
	if len(cyclic) > 0 && !deferFKs {
		u.AddNote(plan.NoteWarning, fmt.Sprintf(
			"circular foreign keys between %s; tables are created in declaration order", strings.Join(cyclic, ", ")))
	}

	var fks []struct {
		table string
		con   *core.Constraint
	}
	for _, t := range ordered {
		deferred, err := c.addCreateTable(u, t, t.Name, deferFKs)
		if err != nil {
			return nil, err
		}
		c.addIndexes(u, t)
		for _, con := range deferred {
			fks = append(fks, struct {
				table string
				con   *core.Constraint
			}{t.Name, con})
		}
	}

	if len(fks) > 0 {
		u.AddNote(plan.NoteInfo, "foreign keys are added after table creation to avoid dependency issues")
	}
	for _, fk := range fks {
		s := c.addConstraintStatement(fk.table, fk.con).Require(plan.TableKey(fk.table))
		if seen[strings.ToLower(fk.con.ReferencedTable)] {
			s = s.Require(plan.TableKey(fk.con.ReferencedTable))
		}
		u.Add(s)
	}
	return c.finish(u)
}

// orderByForeignKeys sorts tables so that referenced tables come first,
// keeping declaration order among independent tables. Tables on a
// reference cycle keep their declaration order and are returned as cyclic.
func orderByForeignKeys(tables []*core.Table) ([]*core.Table, []string) {
	index := make(map[string]int, len(tables))
	for i, t := range tables {
		index[strings.ToLower(t.Name)] = i
	}

	deps := make([][]int, len(tables))
	indegree := make([]int, len(tables))
	for i, t := range tables {
		for _, con := range t.Constraints {
			if con.Type != core.ConstraintForeignKey {
				continue
			}
			j, ok := index[strings.ToLower(con.ReferencedTable)]
			if !ok || j == i || slices.Contains(deps[j], i) {
				continue
			}
			deps[j] = append(deps[j], i)
			indegree[i]++
		}
	}

	out := make([]*core.Table, 0, len(tables))
	done := make([]bool, len(tables))
	for len(out) < len(tables) {
		next := -1
		for i := range tables {
			if !done[i] && indegree[i] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			var cyclic []string
			for i, t := range tables {
				if !done[i] {
					cyclic = append(cyclic, t.Name)
					out = append(out, t)
				}
			}
			return out, cyclic
		}
		done[next] = true
		out = append(out, tables[next])
		for _, k := range deps[next] {
			indegree[k]--
		}
	}
	return out, nil
}
