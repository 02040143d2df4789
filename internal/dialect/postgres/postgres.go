// Package postgres provides the PostgreSQL dialect: named enum types,
// separate COMMENT ON statements and transactional DDL.
package postgres

import (
	"fmt"
	"strings"

	"schemac/internal/core"
	"schemac/internal/dialect"
	"schemac/internal/plan"
)

const postgresMaxIdentLen = 63

func init() {
	dialect.Register(dialect.PostgreSQL, New)
}

// New builds the PostgreSQL descriptor for a server version.
func New(v dialect.Version) *dialect.Dialect {
	return &dialect.Dialect{
		Type:    dialect.PostgreSQL,
		Version: v,
		Capabilities: dialect.Capabilities{
			SupportsInlineAlterColumn:    true,
			SupportsDropColumnDirect:     true,
			SupportsNamedConstraintAlter: true,
			SupportsAddForeignKeyInline:  true,
			SupportsRenameColumn:         true,
			SupportsRebuild:              false,
			SupportsUnsigned:             false,
			DropColumnCascades:           true,
			TransactionalDDL:             true,
			ExplicitNull:                 false,
			NamedInlinePrimaryKey:        true,
			QuoteOpen:                    `"`,
			QuoteClose:                   `"`,
			MaxIdentifierLength:          postgresMaxIdentLen,
			Comments:                     dialect.CommentSeparate,
			Enums:                        dialect.EnumNamedType,
			BoolTrue:                     "TRUE",
			BoolFalse:                    "FALSE",
			DefaultDecimalPrecision:      10,
			DefaultStringLength:          255,
			AddColumnKeyword:             "ADD COLUMN",
			DropIndexOnTable:             false,
		},
		Strategies: dialect.Strategies{
			ColumnType:       columnType,
			AutoIncrement:    autoIncrement,
			AlterColumn:      alterColumn,
			CommentStatement: commentStatement,
		},
	}
}

func columnType(d *dialect.Dialect, table string, col *core.Column) (dialect.TypeSQL, error) {
	var sql string
	switch col.Type {
	case core.TypeInteger:
		sql = "integer"
	case core.TypeBigInt:
		sql = "bigint"
	case core.TypeFloat:
		sql = "double precision"
	case core.TypeDecimal:
		sql = d.Decimal("decimal", col)
	case core.TypeString:
		sql = fmt.Sprintf("varchar(%d)", d.StringLength(col))
	case core.TypeText:
		sql = "text"
	case core.TypeBinary:
		sql = "bytea"
	case core.TypeBoolean:
		sql = "boolean"
	case core.TypeUUID:
		sql = "uuid"
	case core.TypeJSON:
		sql = jsonType(d.Version, false)
	case core.TypeJSONB:
		sql = jsonType(d.Version, true)
	case core.TypeDate:
		sql = "date"
	case core.TypeTimestamp:
		if col.Timestamp.WithTimezone() {
			sql = "timestamptz" + dialect.TimestampPrecision(col)
		} else {
			sql = "timestamp" + dialect.TimestampPrecision(col)
		}
	case core.TypeEnum:
		return enumType(d, table, col)
	case core.TypeBit:
		n := col.Length
		if n <= 0 {
			n = 1
		}
		sql = fmt.Sprintf("bit(%d)", n)
	default:
		return dialect.TypeSQL{}, d.UnsupportedType(table, col, "unknown type %q", col.Type)
	}
	return dialect.TypeSQL{SQL: sql}, nil
}

func jsonType(v dialect.Version, binary bool) string {
	switch {
	case binary && v.AtLeast("9.4"):
		return "jsonb"
	case v.AtLeast("9.2"):
		return "json"
	default:
		return "text"
	}
}

// enumType references a named enum type. The CREATE TYPE statement is
// returned as a prerequisite unless the caller says the type exists.
func enumType(d *dialect.Dialect, table string, col *core.Column) (dialect.TypeSQL, error) {
	if col.Enum == nil || len(col.Enum.Values) == 0 {
		return dialect.TypeSQL{}, core.Errorf(core.ErrMissingRequiredOption, table, "column "+col.Name, "enum column requires values")
	}
	name := strings.TrimSpace(col.Enum.TypeName)
	if name == "" {
		return dialect.TypeSQL{}, core.Errorf(core.ErrMissingRequiredOption, table, "column "+col.Name,
			"native enum on %s requires a type name", d.Type)
	}
	if err := core.CheckIdentifier(table, "enum type", name, d.MaxIdentifierLength); err != nil {
		return dialect.TypeSQL{}, err
	}
	out := dialect.TypeSQL{
		SQL:      d.QuoteIdentifier(name),
		Requires: []string{plan.TypeKey(name)},
	}
	if !col.Enum.ExistingType {
		create := plan.Stmt(fmt.Sprintf("CREATE TYPE %s AS ENUM (%s)", d.QuoteIdentifier(name), d.EnumValues(col.Enum.Values))).
			Provide(plan.TypeKey(name))
		out.Before = append(out.Before, create)
	}
	return out, nil
}

// autoIncrement maps integer columns to their serial pseudo types.
func autoIncrement(_ *dialect.Dialect, col *core.Column, _ bool, _ string) (string, string, error) {
	if col.Type == core.TypeBigInt {
		return "bigserial", "", nil
	}
	return "serial", "", nil
}

// alterColumn changes type, nullability and default in one ALTER TABLE.
func alterColumn(d *dialect.Dialect, in dialect.AlterColumnInput) ([]plan.Statement, error) {
	if in.New.AutoIncrement && (in.Old == nil || !in.Old.AutoIncrement) {
		return nil, core.Errorf(core.ErrUnsupportedOperation, in.Table, "column "+in.New.Name,
			"%s cannot turn an existing column into a serial column", d.Type)
	}
	// serial is not a real type; a serial column keeps its integer type
	// and its sequence default.
	typ := in.Type
	if in.New.AutoIncrement {
		typ = "integer"
		if in.New.Type == core.TypeBigInt {
			typ = "bigint"
		}
	}
	col := d.QuoteIdentifier(in.New.Name)
	actions := []string{
		fmt.Sprintf("ALTER COLUMN %s TYPE %s USING %s::%s", col, typ, col, typ),
	}
	if in.New.Nullable {
		actions = append(actions, fmt.Sprintf("ALTER COLUMN %s DROP NOT NULL", col))
	} else {
		actions = append(actions, fmt.Sprintf("ALTER COLUMN %s SET NOT NULL", col))
	}
	switch {
	case in.New.AutoIncrement:
	case in.Default != "":
		actions = append(actions, fmt.Sprintf("ALTER COLUMN %s SET DEFAULT %s", col, in.Default))
	default:
		actions = append(actions, fmt.Sprintf("ALTER COLUMN %s DROP DEFAULT", col))
	}
	return []plan.Statement{plan.Stmt(d.AlterTable(in.Table) + " " + strings.Join(actions, ", "))}, nil
}

func commentStatement(d *dialect.Dialect, in dialect.CommentInput) []plan.Statement {
	value := "NULL"
	if in.Comment != nil {
		value = d.CommentLiteral(*in.Comment)
	}
	if in.Column == "" {
		return []plan.Statement{plan.Stmt(fmt.Sprintf("COMMENT ON TABLE %s IS %s", d.QuoteIdentifier(in.Table), value))}
	}
	return []plan.Statement{plan.Stmt(fmt.Sprintf("COMMENT ON COLUMN %s.%s IS %s",
		d.QuoteIdentifier(in.Table), d.QuoteIdentifier(in.Column), value))}
}
