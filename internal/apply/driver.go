package apply

import (
	"fmt"
	"net/url"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"
	_ "modernc.org/sqlite"

	"schemac/internal/dialect"
)

// DriverName returns the database/sql driver registered for a dialect.
func DriverName(t dialect.Type) (string, error) {
	switch t {
	case dialect.MySQL, dialect.MariaDB:
		return "mysql", nil
	case dialect.PostgreSQL:
		return "postgres", nil
	case dialect.SQLite:
		return "sqlite", nil
	case dialect.MSSQL:
		return "sqlserver", nil
	default:
		return "", fmt.Errorf("%w %q: no database driver", dialect.ErrUnsupportedDialect, t)
	}
}

// describeDSN validates dsn for the dialect and returns a description of the
// target without credentials, suitable for logs.
func describeDSN(t dialect.Type, dsn string) (string, error) {
	switch t {
	case dialect.MySQL, dialect.MariaDB:
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return "", fmt.Errorf("invalid %s DSN: %w", t, err)
		}
		return cfg.Addr + "/" + cfg.DBName, nil
	case dialect.MSSQL:
		cfg, err := msdsn.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("invalid %s DSN: %w", t, err)
		}
		return fmt.Sprintf("%s:%d/%s", cfg.Host, cfg.Port, cfg.Database), nil
	case dialect.PostgreSQL:
		u, err := url.Parse(dsn)
		if err != nil || u.Host == "" {
			// key=value connection strings are passed through untouched.
			return "postgres", nil
		}
		return u.Host + u.Path, nil
	default:
		return dsn, nil
	}
}
