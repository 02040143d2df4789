package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"schemac/internal/core"
)

// introspectIndexes reads created indexes as indexes and the automatic
// indexes behind UNIQUE clauses as unnamed unique constraints.
func introspectIndexes(ctx context.Context, db *sql.DB, t *core.Table) error {
	rows, err := db.QueryContext(ctx, pragma("index_list", t.Name))
	if err != nil {
		return err
	}
	type listed struct {
		name, origin string
		unique       bool
	}
	var indexes []listed
	for rows.Next() {
		var (
			seq, unique, partial int
			name, origin         string
		)
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			rows.Close()
			return err
		}
		indexes = append(indexes, listed{name: name, origin: origin, unique: unique == 1})
	}
	if err := rows.Close(); err != nil {
		return err
	}

	// index_list reports newest first.
	for i := len(indexes) - 1; i >= 0; i-- {
		idx := indexes[i]
		if idx.origin == "pk" {
			continue
		}
		columns, err := indexColumns(ctx, db, idx.name)
		if err != nil {
			return fmt.Errorf("index %s: %w", idx.name, err)
		}
		if idx.origin == "u" {
			t.Constraints = append(t.Constraints, &core.Constraint{Type: core.ConstraintUnique, Columns: columns})
			continue
		}
		t.Indexes = append(t.Indexes, &core.Index{Name: idx.name, Columns: columns, Unique: idx.unique})
	}
	return nil
}

func indexColumns(ctx context.Context, db *sql.DB, index string) ([]string, error) {
	rows, err := db.QueryContext(ctx, pragma("index_info", index))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var seqno, cid int
		var name sql.NullString
		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, err
		}
		columns = append(columns, name.String)
	}
	return columns, rows.Err()
}

// introspectForeignKeys groups foreign_key_list rows by key id.
func introspectForeignKeys(ctx context.Context, db *sql.DB, t *core.Table) error {
	rows, err := db.QueryContext(ctx, pragma("foreign_key_list", t.Name))
	if err != nil {
		return err
	}
	defer rows.Close()

	byID := make(map[int]*core.Constraint)
	var order []int
	for rows.Next() {
		var (
			id, seq                                int
			refTable, from, onUpdate, onDelete, mt string
			to                                     sql.NullString
		)
		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &mt); err != nil {
			return err
		}
		c, ok := byID[id]
		if !ok {
			c = &core.Constraint{
				Type:            core.ConstraintForeignKey,
				ReferencedTable: refTable,
				OnDelete:        referentialAction(onDelete),
				OnUpdate:        referentialAction(onUpdate),
			}
			byID[id] = c
			order = append(order, id)
		}
		c.Columns = append(c.Columns, from)
		c.ReferencedColumns = append(c.ReferencedColumns, to.String)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	// foreign_key_list reports newest first.
	for i := len(order) - 1; i >= 0; i-- {
		t.Constraints = append(t.Constraints, byID[order[i]])
	}
	return nil
}

// referentialAction maps SQLite's implicit NO ACTION onto an unset action.
func referentialAction(s string) core.ReferentialAction {
	a, ok := core.ParseReferentialAction(s)
	if !ok || a == core.RefActionNoAction {
		return core.RefActionNone
	}
	return a
}
