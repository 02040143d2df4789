// Package mysql provides the MySQL and MariaDB dialects: backtick quoting,
// inline comments and enums, MODIFY COLUMN alterations and kind specific
// constraint drops.
package mysql

import (
	"strings"

	"schemac/internal/core"
	"schemac/internal/dialect"
)

const mysqlMaxIdentLen = 64

func init() {
	dialect.Register(dialect.MySQL, func(v dialect.Version) *dialect.Dialect {
		return New(v, false)
	})
	dialect.Register(dialect.MariaDB, func(v dialect.Version) *dialect.Dialect {
		return New(v, true)
	})
}

// features holds the version thresholds that differ between MySQL and MariaDB.
type features struct {
	nativeJSON   bool
	renameColumn bool
	dropCheck    bool
}

func detect(v dialect.Version, mariadb bool) features {
	if mariadb {
		return features{
			nativeJSON:   v.AtLeast("10.2.7"),
			renameColumn: v.AtLeast("10.5.2"),
		}
	}
	return features{
		nativeJSON:   v.AtLeast("5.7.8"),
		renameColumn: v.AtLeast("8.0.0"),
		dropCheck:    v.AtLeast("8.0.16"),
	}
}

// New builds the MySQL descriptor, or the MariaDB one when mariadb is set.
func New(v dialect.Version, mariadb bool) *dialect.Dialect {
	f := detect(v, mariadb)
	t := dialect.MySQL
	if mariadb {
		t = dialect.MariaDB
	}
	return &dialect.Dialect{
		Type:    t,
		Version: v,
		Capabilities: dialect.Capabilities{
			SupportsInlineAlterColumn:    true,
			SupportsDropColumnDirect:     true,
			SupportsNamedConstraintAlter: true,
			SupportsAddForeignKeyInline:  true,
			SupportsRenameColumn:         true,
			SupportsRebuild:              false,
			SupportsUnsigned:             true,
			DropColumnCascades:           false,
			TransactionalDDL:             false,
			ExplicitNull:                 true,
			DiscardsChecks:               !mariadb && !f.dropCheck,
			NamedInlinePrimaryKey:        false,
			QuoteOpen:                    "`",
			QuoteClose:                   "`",
			MaxIdentifierLength:          mysqlMaxIdentLen,
			Comments:                     dialect.CommentInline,
			Enums:                        dialect.EnumInline,
			BoolTrue:                     "1",
			BoolFalse:                    "0",
			DefaultDecimalPrecision:      10,
			DefaultStringLength:          255,
			AddColumnKeyword:             "ADD COLUMN",
			DropIndexOnTable:             true,
		},
		Strategies: dialect.Strategies{
			ColumnType: func(d *dialect.Dialect, table string, col *core.Column) (dialect.TypeSQL, error) {
				return columnType(d, f, table, col)
			},
			AutoIncrement:    autoIncrement,
			AlterColumn:      alterColumn,
			RenameColumn:     renameColumn(f),
			DropConstraint:   dropConstraint(f),
			CommentStatement: commentStatement,
			QuoteString:      QuoteString,
			QuoteComment:     QuoteComment,
		},
	}
}

// QuoteString quotes a string literal, escaping quotes and the characters
// MySQL treats specially inside literals.
func QuoteString(value string) string {
	var b strings.Builder
	b.Grow(len(value) + len(value)/10 + 2)

	b.WriteByte('\'')
	for _, char := range value {
		switch char {
		case '\'':
			b.WriteString("''")
		default:
			writeEscaped(&b, char)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// QuoteComment quotes comment text. Quotes go through the shared single
// pass comment escaping; backslashes and control characters are escaped
// as in QuoteString.
func QuoteComment(value string) string {
	escaped := core.EscapeComment(value)
	var b strings.Builder
	b.Grow(len(escaped) + 2)

	b.WriteByte('\'')
	for _, char := range escaped {
		writeEscaped(&b, char)
	}
	b.WriteByte('\'')
	return b.String()
}

func writeEscaped(b *strings.Builder, char rune) {
	switch char {
	case '\\':
		b.WriteString(`\\`)
	case '\x00':
		b.WriteString(`\0`)
	case '\n':
		b.WriteString(`\n`)
	case '\r':
		b.WriteString(`\r`)
	case '\x1A':
		b.WriteString(`\Z`)
	default:
		b.WriteRune(char)
	}
}
