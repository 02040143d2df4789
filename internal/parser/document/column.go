package document

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"schemac/internal/core"
)

// Column maps [[tables.columns]].
type Column struct {
	Name string `toml:"name" yaml:"name"`
	// Type is a portable type name, optionally with arguments:
	// "varchar(255)", "decimal(10,2)", "bit(8)".
	Type      string `toml:"type" yaml:"type"`
	Length    int    `toml:"length" yaml:"length"`
	Precision *int   `toml:"precision" yaml:"precision"`
	Scale     *int   `toml:"scale" yaml:"scale"`

	Unsigned      bool `toml:"unsigned" yaml:"unsigned"`
	Nullable      bool `toml:"nullable" yaml:"nullable"`
	PrimaryKey    bool `toml:"primary_key" yaml:"primary_key"`
	AutoIncrement bool `toml:"auto_increment" yaml:"auto_increment"`

	// Default accepts string, bool or number. DefaultExpr is emitted verbatim.
	Default     any     `toml:"default" yaml:"default"`
	DefaultExpr string  `toml:"default_expr" yaml:"default_expr"`
	Comment     *string `toml:"comment" yaml:"comment"`
	Collate     string  `toml:"collate" yaml:"collate"`

	WithoutTimezone    bool `toml:"without_timezone" yaml:"without_timezone"`
	TimestampPrecision *int `toml:"timestamp_precision" yaml:"timestamp_precision"`

	Values       []string `toml:"values" yaml:"values"`
	Native       bool     `toml:"native" yaml:"native"`
	EnumType     string   `toml:"enum_type" yaml:"enum_type"`
	ExistingType bool     `toml:"existing_type" yaml:"existing_type"`

	// Column-level shorthands, synthesized into unnamed table constraints.
	Unique     bool   `toml:"unique" yaml:"unique"`
	Check      string `toml:"check" yaml:"check"`
	References string `toml:"references" yaml:"references"`
	OnDelete   string `toml:"on_delete" yaml:"on_delete"`
	OnUpdate   string `toml:"on_update" yaml:"on_update"`
}

var typeArgsRe = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_ ]*?)\s*(?:\(\s*(\d+)\s*(?:,\s*(\d+)\s*)?\))?$`)

var typeAliases = map[string]core.TypeTag{
	"int":              core.TypeInteger,
	"integer":          core.TypeInteger,
	"bigint":           core.TypeBigInt,
	"float":            core.TypeFloat,
	"double":           core.TypeFloat,
	"decimal":          core.TypeDecimal,
	"numeric":          core.TypeDecimal,
	"string":           core.TypeString,
	"varchar":          core.TypeString,
	"text":             core.TypeText,
	"binary":           core.TypeBinary,
	"blob":             core.TypeBinary,
	"bool":             core.TypeBoolean,
	"boolean":          core.TypeBoolean,
	"uuid":             core.TypeUUID,
	"json":             core.TypeJSON,
	"jsonb":            core.TypeJSONB,
	"date":             core.TypeDate,
	"timestamp":        core.TypeTimestamp,
	"datetime":         core.TypeTimestamp,
	"timestamptz":      core.TypeTimestamp,
	"enum":             core.TypeEnum,
	"bit":              core.TypeBit,
	"double precision": core.TypeFloat,
}

func (c *converter) convertColumn(tc *Column) (*core.Column, error) {
	if err := c.validateName("column", tc.Name, c.maxColumnName()); err != nil {
		return nil, err
	}

	col := &core.Column{
		Name:          strings.TrimSpace(tc.Name),
		Unsigned:      tc.Unsigned,
		Nullable:      tc.Nullable,
		PrimaryKey:    tc.PrimaryKey,
		AutoIncrement: tc.AutoIncrement,
		Comment:       tc.Comment,
		Collation:     tc.Collate,
	}

	if err := resolveColumnType(col, tc); err != nil {
		return nil, err
	}

	switch {
	case strings.TrimSpace(tc.DefaultExpr) != "":
		col.Default = &core.Default{Expr: strings.TrimSpace(tc.DefaultExpr)}
	case tc.Default != nil:
		v, err := normalizeDefault(tc.Default)
		if err != nil {
			return nil, err
		}
		col.Default = &core.Default{Value: v}
	}

	if col.Type == core.TypeTimestamp {
		if tc.WithoutTimezone {
			var precision *int
			if col.Timestamp != nil {
				precision = col.Timestamp.Precision
			}
			col.Timestamp = core.TimestampWithoutTZ(true)
			col.Timestamp.Precision = precision
		}
		if tc.TimestampPrecision != nil {
			if col.Timestamp == nil {
				col.Timestamp = &core.TimestampOptions{}
			}
			col.Timestamp.Precision = tc.TimestampPrecision
		}
	}
	if col.Type == core.TypeEnum {
		col.Enum = &core.EnumOptions{
			Values:       tc.Values,
			Native:       tc.Native,
			TypeName:     tc.EnumType,
			ExistingType: tc.ExistingType,
		}
	}
	return col, nil
}

// resolveColumnType parses the portable type name and its arguments.
// Explicit length, precision and scale keys win over arguments.
func resolveColumnType(col *core.Column, tc *Column) error {
	raw := strings.TrimSpace(tc.Type)
	if raw == "" {
		return errors.New("type is empty")
	}
	m := typeArgsRe.FindStringSubmatch(raw)
	if m == nil {
		return fmt.Errorf("cannot parse type %q", raw)
	}
	name := strings.ToLower(strings.Join(strings.Fields(m[1]), " "))
	tag, ok := typeAliases[name]
	if !ok {
		return fmt.Errorf("unknown type %q", raw)
	}
	col.Type = tag

	var args []int
	for _, s := range m[2:] {
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("type %q: %w", raw, err)
		}
		args = append(args, n)
	}

	switch tag {
	case core.TypeDecimal:
		if len(args) > 0 {
			col.Precision = &args[0]
		}
		if len(args) > 1 {
			col.Scale = &args[1]
		}
	case core.TypeString, core.TypeBinary, core.TypeBit:
		if len(args) > 0 {
			col.Length = args[0]
		}
	case core.TypeTimestamp:
		if len(args) > 0 {
			p := args[0]
			col.Timestamp = &core.TimestampOptions{Precision: &p}
		}
		if name == "timestamptz" {
			tz := true
			if col.Timestamp == nil {
				col.Timestamp = &core.TimestampOptions{}
			}
			col.Timestamp.UseTZ = &tz
		}
	default:
		if len(args) > 0 {
			return fmt.Errorf("type %q takes no arguments", raw)
		}
	}

	if tc.Length > 0 {
		col.Length = tc.Length
	}
	if tc.Precision != nil {
		col.Precision = tc.Precision
	}
	if tc.Scale != nil {
		col.Scale = tc.Scale
	}
	return nil
}

// normalizeDefault maps decoded literals onto string, bool, int64 and float64.
func normalizeDefault(v any) (any, error) {
	switch val := v.(type) {
	case string, bool, int64, float64:
		return val, nil
	case int:
		return int64(val), nil
	case int32:
		return int64(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("default value %d is out of range for a 64-bit integer", val)
		}
		return int64(val), nil
	case float32:
		return float64(val), nil
	default:
		return nil, fmt.Errorf("unsupported default value %v of type %T", v, v)
	}
}
