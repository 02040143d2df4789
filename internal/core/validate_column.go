package core

import (
	"strings"
)

// Validate checks a single column for structural correctness.
func (c *Column) Validate(table string) error {
	if strings.TrimSpace(c.Name) == "" {
		return Errorf(ErrInvalidIdentifier, table, "column", "column name is empty")
	}
	object := "column " + c.Name

	if !c.Type.IsKnown() {
		return Errorf(ErrUnsupportedType, table, object, "unknown type %q", c.Type)
	}

	switch c.Type {
	case TypeDecimal:
		if c.Precision != nil && *c.Precision <= 0 {
			return Errorf(ErrInconsistentRequest, table, object, "decimal precision must be positive")
		}
		if c.Scale != nil && *c.Scale < 0 {
			return Errorf(ErrInconsistentRequest, table, object, "decimal scale must not be negative")
		}
		if c.Precision != nil && c.Scale != nil && *c.Scale > *c.Precision {
			return Errorf(ErrInconsistentRequest, table, object, "decimal scale %d exceeds precision %d", *c.Scale, *c.Precision)
		}
	case TypeEnum:
		if c.Enum == nil || len(c.Enum.Values) == 0 {
			return Errorf(ErrMissingRequiredOption, table, object, "enum column requires values")
		}
		seen := make(map[string]bool, len(c.Enum.Values))
		for _, v := range c.Enum.Values {
			if seen[v] {
				return Errorf(ErrInconsistentRequest, table, object, "duplicate enum value %q", v)
			}
			seen[v] = true
		}
	case TypeTimestamp:
		if c.Timestamp != nil && c.Timestamp.Precision != nil && (*c.Timestamp.Precision < 0 || *c.Timestamp.Precision > 6) {
			return Errorf(ErrInconsistentRequest, table, object, "timestamp precision must be between 0 and 6")
		}
	case TypeBit, TypeString, TypeBinary:
		if c.Length < 0 {
			return Errorf(ErrInconsistentRequest, table, object, "length must not be negative")
		}
	}

	if c.AutoIncrement && c.Type != TypeInteger && c.Type != TypeBigInt {
		return Errorf(ErrInconsistentRequest, table, object, "auto increment is only allowed on integer columns")
	}
	if c.PrimaryKey && c.Nullable {
		return Errorf(ErrInconsistentRequest, table, object, "primary key columns cannot be nullable")
	}
	if c.Unsigned && !c.IsNumeric() {
		return Errorf(ErrInconsistentRequest, table, object, "unsigned is only allowed on numeric columns")
	}
	return nil
}

// IsNumeric reports whether the column holds numbers.
func (c *Column) IsNumeric() bool {
	switch c.Type {
	case TypeInteger, TypeBigInt, TypeFloat, TypeDecimal:
		return true
	}
	return false
}
