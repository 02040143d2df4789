package mysql

import (
	"fmt"
	"strings"

	"schemac/internal/core"
	mysqlparser "schemac/internal/parser/mysql"
)

// introspectTables reads SHOW CREATE TABLE for every base table and runs the
// output through the dump parser, so live state and dumps share one mapping.
func introspectTables(ic *introspectCtx) ([]*core.Table, error) {
	names, err := tableNames(ic)
	if err != nil {
		return nil, err
	}

	var ddl strings.Builder
	for _, name := range names {
		var tableName, create string
		err := ic.db.QueryRowContext(ic.ctx, "SHOW CREATE TABLE "+quoteIdentifier(name)).Scan(&tableName, &create)
		if err != nil {
			return nil, fmt.Errorf("show create table %s: %w", name, err)
		}
		ddl.WriteString(create)
		ddl.WriteString(";\n")
	}
	if ddl.Len() == 0 {
		return nil, nil
	}

	return mysqlparser.NewParser().Parse(ddl.String())
}

func tableNames(ic *introspectCtx) ([]string, error) {
	rows, err := ic.db.QueryContext(ic.ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func quoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
