package mysql

import (
	"fmt"

	"schemac/internal/core"
	"schemac/internal/dialect"
)

func columnType(d *dialect.Dialect, f features, table string, col *core.Column) (dialect.TypeSQL, error) {
	var sql string
	switch col.Type {
	case core.TypeInteger:
		sql = "int"
	case core.TypeBigInt:
		sql = "bigint"
	case core.TypeFloat:
		sql = "double"
	case core.TypeDecimal:
		sql = d.Decimal("decimal", col)
	case core.TypeString:
		sql = fmt.Sprintf("varchar(%d)", d.StringLength(col))
	case core.TypeText:
		sql = "text"
	case core.TypeBinary:
		if col.Length > 0 {
			sql = fmt.Sprintf("varbinary(%d)", col.Length)
		} else {
			sql = "blob"
		}
	case core.TypeBoolean:
		sql = "tinyint(1)"
	case core.TypeUUID:
		sql = "char(36)"
	case core.TypeJSON, core.TypeJSONB:
		if f.nativeJSON {
			sql = "json"
		} else {
			sql = "longtext"
		}
	case core.TypeDate:
		sql = "date"
	case core.TypeTimestamp:
		if col.Timestamp.WithTimezone() {
			sql = "timestamp" + dialect.TimestampPrecision(col)
		} else {
			sql = "datetime" + dialect.TimestampPrecision(col)
		}
	case core.TypeEnum:
		if col.Enum == nil || len(col.Enum.Values) == 0 {
			return dialect.TypeSQL{}, core.Errorf(core.ErrMissingRequiredOption, table, "column "+col.Name, "enum column requires values")
		}
		sql = "enum(" + d.EnumValues(col.Enum.Values) + ")"
	case core.TypeBit:
		n := col.Length
		if n <= 0 {
			n = 1
		}
		if n > 64 {
			return dialect.TypeSQL{}, d.UnsupportedType(table, col, "bit length %d exceeds 64", n)
		}
		sql = fmt.Sprintf("bit(%d)", n)
	default:
		return dialect.TypeSQL{}, d.UnsupportedType(table, col, "unknown type %q", col.Type)
	}

	if col.Unsigned && col.IsNumeric() {
		sql += " unsigned"
	}
	return dialect.TypeSQL{SQL: sql}, nil
}

func autoIncrement(_ *dialect.Dialect, _ *core.Column, _ bool, typeSQL string) (string, string, error) {
	return typeSQL, "AUTO_INCREMENT", nil
}
