// Package sqlite provides the SQLite dialect. SQLite cannot alter columns
// or constraints in place, so most alterations are planned as table rebuilds.
package sqlite

import (
	"fmt"

	"schemac/internal/core"
	"schemac/internal/dialect"
)

func init() {
	dialect.Register(dialect.SQLite, New)
}

// New builds the SQLite descriptor for a library version.
func New(v dialect.Version) *dialect.Dialect {
	return &dialect.Dialect{
		Type:    dialect.SQLite,
		Version: v,
		Capabilities: dialect.Capabilities{
			SupportsInlineAlterColumn:    false,
			SupportsDropColumnDirect:     v.AtLeast("3.35.0"),
			SupportsNamedConstraintAlter: false,
			SupportsAddForeignKeyInline:  false,
			SupportsRenameColumn:         v.AtLeast("3.25.0"),
			SupportsRebuild:              true,
			SupportsUnsigned:             false,
			DropColumnCascades:           false,
			TransactionalDDL:             true,
			ExplicitNull:                 false,
			NamedInlinePrimaryKey:        true,
			QuoteOpen:                    `"`,
			QuoteClose:                   `"`,
			MaxIdentifierLength:          0,
			Comments:                     dialect.CommentUnsupported,
			Enums:                        dialect.EnumNone,
			BoolTrue:                     "1",
			BoolFalse:                    "0",
			DefaultDecimalPrecision:      10,
			DefaultStringLength:          255,
			AddColumnKeyword:             "ADD COLUMN",
			DropIndexOnTable:             false,
		},
		Strategies: dialect.Strategies{
			ColumnType:      columnType,
			AutoIncrement:   autoIncrement,
			RequiresRebuild: requiresRebuild,
		},
	}
}

func columnType(d *dialect.Dialect, table string, col *core.Column) (dialect.TypeSQL, error) {
	var sql string
	switch col.Type {
	case core.TypeInteger, core.TypeBit:
		sql = "integer"
	case core.TypeBigInt:
		sql = "bigint"
	case core.TypeFloat:
		sql = "real"
	case core.TypeDecimal:
		sql = d.Decimal("decimal", col)
	case core.TypeString:
		sql = fmt.Sprintf("varchar(%d)", d.StringLength(col))
	case core.TypeText, core.TypeUUID, core.TypeJSON, core.TypeJSONB:
		sql = "text"
	case core.TypeBinary:
		sql = "blob"
	case core.TypeBoolean:
		sql = "boolean"
	case core.TypeDate:
		sql = "date"
	case core.TypeTimestamp:
		sql = "datetime"
	case core.TypeEnum:
		if col.Enum != nil && col.Enum.Native {
			return dialect.TypeSQL{}, d.UnsupportedType(table, col, "no native enum type; use an emulated enum")
		}
		sql = "text"
	default:
		return dialect.TypeSQL{}, d.UnsupportedType(table, col, "unknown type %q", col.Type)
	}
	return dialect.TypeSQL{SQL: sql}, nil
}

// autoIncrement only works on the rowid alias, an inline INTEGER PRIMARY KEY.
func autoIncrement(d *dialect.Dialect, col *core.Column, inlinePK bool, _ string) (string, string, error) {
	if !inlinePK {
		return "", "", core.Errorf(core.ErrUnsupportedOperation, "", "column "+col.Name,
			"%s AUTOINCREMENT is only allowed on a single column INTEGER PRIMARY KEY", d.Type)
	}
	return "integer", "AUTOINCREMENT", nil
}

// requiresRebuild escalates the ALTER TABLE forms SQLite rejects.
func requiresRebuild(_ *dialect.Dialect, op core.Operation, current *core.Table) (bool, string) {
	switch o := op.(type) {
	case core.AddColumn:
		col := o.Column
		switch {
		case col.PrimaryKey:
			return true, "cannot add a PRIMARY KEY column"
		case !col.Nullable && col.Default == nil:
			return true, "cannot add a NOT NULL column without a default"
		case col.Default.IsExpr():
			return true, "cannot add a column with an expression default"
		}
	case core.DropColumn:
		if current == nil {
			return false, ""
		}
		col := current.FindColumn(o.Name)
		if col != nil && col.PrimaryKey {
			return true, "cannot drop a PRIMARY KEY column"
		}
		if col != nil && hasColumnCheck(col) {
			return true, fmt.Sprintf("column %s carries a CHECK constraint", o.Name)
		}
		for _, con := range current.Constraints {
			if con.DependsOn(current.Name, o.Name) {
				return true, fmt.Sprintf("column %s is used by constraint %s", o.Name, con.Name)
			}
		}
		for _, idx := range current.Indexes {
			if idx.References(o.Name) {
				return true, fmt.Sprintf("column %s is used by index %s", o.Name, idx.Name)
			}
		}
	}
	return false, ""
}

// hasColumnCheck reports whether the column definition carries the check
// emitted for emulated enums and unsigned numbers.
func hasColumnCheck(col *core.Column) bool {
	if col.Type == core.TypeEnum {
		return col.Enum != nil && !col.Enum.Native && len(col.Enum.Values) > 0
	}
	return col.Unsigned && col.IsNumeric()
}
