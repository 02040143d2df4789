// Package mysql contains introspect implementation for MySQL and MariaDB,
// since they share the wire protocol, it detects which server it talks to and
// reads every base table of the current database.
package mysql

import (
	"context"
	"database/sql"

	"schemac/internal/dialect"
	"schemac/internal/introspect"
)

func init() {
	introspect.Register(dialect.MySQL, New)
	introspect.Register(dialect.MariaDB, New)
}

type introspecter struct{}

type introspectCtx struct {
	db  *sql.DB
	ctx context.Context
}

func New() introspect.Introspecter {
	return &introspecter{}
}

func (i *introspecter) Introspect(ctx context.Context, db *sql.DB) (*introspect.Schema, error) {
	t, version, err := detectDialect(ctx, db)
	if err != nil {
		return nil, err
	}

	ic := &introspectCtx{db: db, ctx: ctx}
	tables, err := introspectTables(ic)
	if err != nil {
		return nil, err
	}

	return &introspect.Schema{Dialect: t, Version: version, Tables: tables}, nil
}
