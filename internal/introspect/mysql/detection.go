package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"schemac/internal/dialect"
)

func detectDialect(ctx context.Context, db *sql.DB) (dialect.Type, string, error) {
	var varName, comment string

	err := db.QueryRowContext(ctx, "SHOW VARIABLES LIKE 'version_comment'").Scan(&varName, &comment)
	if err != nil {
		return "", "", fmt.Errorf("detect server: %w", err)
	}

	version := getVersion(ctx, db)
	if strings.Contains(strings.ToLower(comment), "mariadb") || strings.Contains(strings.ToLower(version), "mariadb") {
		return dialect.MariaDB, trimVersion(version), nil
	}
	return dialect.MySQL, trimVersion(version), nil
}

func getVersion(ctx context.Context, db *sql.DB) string {
	var version string
	_ = db.QueryRowContext(ctx, "SELECT VERSION()").Scan(&version)
	return version
}

// trimVersion drops build suffixes such as "-log" or "-MariaDB-1:10.11".
func trimVersion(version string) string {
	if idx := strings.Index(version, "-"); idx > 0 {
		return version[:idx]
	}
	return version
}
