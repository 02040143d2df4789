package sqlite

import (
	"context"
	"database/sql"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"schemac/internal/core"
)

var declTypeRe = regexp.MustCompile(`^([a-z_ ]+?)\s*(?:\(\s*(\d+)\s*(?:,\s*(\d+)\s*)?\))?$`)

func introspectColumns(ctx context.Context, db *sql.DB, t *core.Table, autoInc bool) error {
	rows, err := db.QueryContext(ctx, pragma("table_info", t.Name))
	if err != nil {
		return err
	}
	defer rows.Close()

	type pkPart struct {
		pos  int
		name string
	}
	var pk []pkPart
	for rows.Next() {
		var (
			cid, notNull, pkPos int
			name, declType      string
			defaultVal          sql.NullString
		)
		if err := rows.Scan(&cid, &name, &declType, &notNull, &defaultVal, &pkPos); err != nil {
			return err
		}

		col := &core.Column{Name: name, Nullable: notNull == 0}
		resolveType(col, declType)
		if defaultVal.Valid {
			col.Default = parseDefault(defaultVal.String)
		}
		if pkPos > 0 {
			pk = append(pk, pkPart{pos: pkPos, name: name})
			col.Nullable = false
		}
		t.Columns = append(t.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	switch len(pk) {
	case 0:
	case 1:
		col := t.FindColumn(pk[0].name)
		col.PrimaryKey = true
		col.AutoIncrement = autoInc && col.Type == core.TypeInteger
	default:
		sort.Slice(pk, func(i, j int) bool { return pk[i].pos < pk[j].pos })
		c := &core.Constraint{Type: core.ConstraintPrimaryKey}
		for _, p := range pk {
			c.Columns = append(c.Columns, p.name)
		}
		t.Constraints = append(t.Constraints, c)
	}
	return nil
}

// resolveType maps a declared column type back onto a semantic type. Names
// the compiler never emits fall back to SQLite's affinity rules.
func resolveType(col *core.Column, declType string) {
	decl := strings.ToLower(strings.TrimSpace(declType))
	m := declTypeRe.FindStringSubmatch(decl)
	name := decl
	var args []int
	if m != nil {
		name = strings.Join(strings.Fields(m[1]), " ")
		for _, s := range m[2:] {
			if n, err := strconv.Atoi(s); err == nil {
				args = append(args, n)
			}
		}
	}

	switch name {
	case "integer", "int":
		col.Type = core.TypeInteger
	case "bigint":
		col.Type = core.TypeBigInt
	case "real", "float", "double", "double precision":
		col.Type = core.TypeFloat
	case "decimal", "numeric":
		col.Type = core.TypeDecimal
		if len(args) > 0 {
			col.Precision = &args[0]
		}
		if len(args) > 1 {
			col.Scale = &args[1]
		}
	case "varchar", "character varying", "char", "nvarchar":
		col.Type = core.TypeString
		if len(args) > 0 {
			col.Length = args[0]
		}
	case "text", "clob":
		col.Type = core.TypeText
	case "blob":
		col.Type = core.TypeBinary
	case "boolean", "bool":
		col.Type = core.TypeBoolean
	case "date":
		col.Type = core.TypeDate
	case "datetime", "timestamp":
		col.Type = core.TypeTimestamp
	default:
		col.Type = affinity(name)
	}
}

func affinity(name string) core.TypeTag {
	switch {
	case strings.Contains(name, "int"):
		return core.TypeInteger
	case strings.Contains(name, "char"), strings.Contains(name, "clob"), strings.Contains(name, "text"):
		return core.TypeText
	case name == "", strings.Contains(name, "blob"):
		return core.TypeBinary
	case strings.Contains(name, "real"), strings.Contains(name, "floa"), strings.Contains(name, "doub"):
		return core.TypeFloat
	default:
		return core.TypeDecimal
	}
}

// parseDefault reads the default clause text stored by SQLite.
func parseDefault(raw string) *core.Default {
	raw = strings.TrimSpace(raw)
	if strings.EqualFold(raw, "NULL") {
		return nil
	}
	if len(raw) >= 2 && raw[0] == '\'' && raw[len(raw)-1] == '\'' {
		return &core.Default{Value: strings.ReplaceAll(raw[1:len(raw)-1], "''", "'")}
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return &core.Default{Value: n}
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return &core.Default{Value: f}
	}
	if strings.HasPrefix(raw, "(") && strings.HasSuffix(raw, ")") {
		raw = strings.TrimSpace(raw[1 : len(raw)-1])
	}
	return &core.Default{Expr: raw}
}
