package dialect

import (
	"fmt"
	"strings"

	"schemac/internal/core"
)

// Decimal renders a decimal type. Without precision and scale the bare
// name is used; a scale without precision gets the dialect default precision.
func (d *Dialect) Decimal(name string, col *core.Column) string {
	switch {
	case col.Precision == nil && col.Scale == nil:
		return name
	case col.Precision == nil:
		return fmt.Sprintf("%s(%d, %d)", name, d.DefaultDecimalPrecision, *col.Scale)
	case col.Scale == nil:
		return fmt.Sprintf("%s(%d)", name, *col.Precision)
	default:
		return fmt.Sprintf("%s(%d, %d)", name, *col.Precision, *col.Scale)
	}
}

// StringLength returns the column length or the dialect default.
func (d *Dialect) StringLength(col *core.Column) int {
	if col.Length > 0 {
		return col.Length
	}
	return d.DefaultStringLength
}

// TimestampPrecision returns "(p)" when a precision was given, including
// zero, and "" otherwise.
func TimestampPrecision(col *core.Column) string {
	if col.Timestamp == nil || col.Timestamp.Precision == nil {
		return ""
	}
	return fmt.Sprintf("(%d)", *col.Timestamp.Precision)
}

// EnumValues renders the quoted, comma separated enum values.
func (d *Dialect) EnumValues(values []string) string {
	quoted := make([]string, 0, len(values))
	for _, v := range values {
		quoted = append(quoted, d.QuoteLiteral(v))
	}
	return strings.Join(quoted, ", ")
}

// UnsupportedType builds the error for a type the dialect cannot express.
func (d *Dialect) UnsupportedType(table string, col *core.Column, format string, args ...any) error {
	return core.Errorf(core.ErrUnsupportedType, table, "column "+col.Name, "%s: %s", d.Type, fmt.Sprintf(format, args...))
}
