// Package sqlite introspects SQLite databases through the table_info,
// index_list and foreign_key_list pragmas. CHECK constraints are not
// reported by SQLite and are left out of the result.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"schemac/internal/core"
	"schemac/internal/dialect"
	"schemac/internal/introspect"
)

func init() {
	introspect.Register(dialect.SQLite, New)
}

type sqliteIntrospecter struct{}

func New() introspect.Introspecter {
	return &sqliteIntrospecter{}
}

func (i *sqliteIntrospecter) Introspect(ctx context.Context, db *sql.DB) (*introspect.Schema, error) {
	var version string
	if err := db.QueryRowContext(ctx, "SELECT sqlite_version()").Scan(&version); err != nil {
		return nil, fmt.Errorf("detect version: %w", err)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT name, sql
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	type entry struct{ name, ddl string }
	var entries []entry
	for rows.Next() {
		var e entry
		var ddl sql.NullString
		if err := rows.Scan(&e.name, &ddl); err != nil {
			rows.Close()
			return nil, err
		}
		e.ddl = ddl.String
		entries = append(entries, e)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	s := &introspect.Schema{Dialect: dialect.SQLite, Version: version}
	for _, e := range entries {
		t := &core.Table{Name: e.name}
		autoInc := strings.Contains(strings.ToUpper(e.ddl), "AUTOINCREMENT")
		if err := introspectColumns(ctx, db, t, autoInc); err != nil {
			return nil, fmt.Errorf("table %s: %w", e.name, err)
		}
		if err := introspectIndexes(ctx, db, t); err != nil {
			return nil, fmt.Errorf("table %s: %w", e.name, err)
		}
		if err := introspectForeignKeys(ctx, db, t); err != nil {
			return nil, fmt.Errorf("table %s: %w", e.name, err)
		}
		s.Tables = append(s.Tables, t)
	}
	return s, nil
}

func pragma(name, table string) string {
	return fmt.Sprintf("PRAGMA %s(%s)", name, quoteIdentifier(table))
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
