package diff

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"schemac/internal/core"
)

type columnAttrMatch struct {
	Type          bool
	TypeArgs      bool
	Unsigned      bool
	Nullable      bool
	PrimaryKey    bool
	AutoIncrement bool
	Collation     bool
	Comment       bool
	DefaultValue  bool
}

func compareColumnAttrs(a, b *core.Column) columnAttrMatch {
	return columnAttrMatch{
		Type:          a.Type == b.Type,
		TypeArgs:      typeString(a) == typeString(b),
		Unsigned:      a.Unsigned == b.Unsigned,
		Nullable:      a.Nullable == b.Nullable,
		PrimaryKey:    a.PrimaryKey == b.PrimaryKey,
		AutoIncrement: a.AutoIncrement == b.AutoIncrement,
		Collation:     strings.EqualFold(strings.TrimSpace(a.Collation), strings.TrimSpace(b.Collation)),
		Comment:       ptrStr(a.Comment) == ptrStr(b.Comment),
		DefaultValue:  defaultString(a.Default) == defaultString(b.Default),
	}
}

func (m columnAttrMatch) allMatch() bool {
	return m.Type && m.TypeArgs && m.Unsigned && m.Nullable && m.PrimaryKey &&
		m.AutoIncrement && m.Collation && m.Comment && m.DefaultValue
}

// onlyComment reports whether the comment is the single difference.
func (m columnAttrMatch) onlyComment() bool {
	return !m.Comment && m.Type && m.TypeArgs && m.Unsigned && m.Nullable && m.PrimaryKey &&
		m.AutoIncrement && m.Collation && m.DefaultValue
}

// similarityScore calculates a similarity score between two column attributes.
// It is used to detect renames between two columns.
func (m columnAttrMatch) similarityScore() int {
	score := 0
	if m.Type {
		score += 4
	}
	if m.TypeArgs {
		score += 2
	}
	if m.Unsigned {
		score += 1
	}
	if m.Nullable {
		score += 1
	}
	if m.AutoIncrement {
		score += 1
	}
	if m.PrimaryKey {
		score += 1
	}
	if m.DefaultValue {
		score += 1
	}
	if m.Collation {
		score += 1
	}
	if m.Comment {
		score += 1
	}
	return score
}

// typeString renders the type tag with its arguments, e.g. "decimal(10,2)"
// or "timestamp(3) without time zone".
func typeString(c *core.Column) string {
	var sb strings.Builder
	sb.WriteString(string(c.Type))
	switch c.Type {
	case core.TypeString, core.TypeBinary, core.TypeBit:
		if c.Length > 0 {
			sb.WriteString("(" + strconv.Itoa(c.Length) + ")")
		}
	case core.TypeDecimal:
		if c.Precision != nil {
			sb.WriteString("(" + strconv.Itoa(*c.Precision))
			if c.Scale != nil {
				sb.WriteString("," + strconv.Itoa(*c.Scale))
			}
			sb.WriteString(")")
		}
	case core.TypeTimestamp:
		if c.Timestamp != nil && c.Timestamp.Precision != nil {
			sb.WriteString("(" + strconv.Itoa(*c.Timestamp.Precision) + ")")
		}
		if !c.Timestamp.WithTimezone() {
			sb.WriteString(" without time zone")
		}
	case core.TypeEnum:
		if c.Enum != nil {
			sb.WriteString("(" + strings.Join(c.Enum.Values, ",") + ")")
			if c.Enum.Native {
				sb.WriteString(" native")
				if c.Enum.TypeName != "" {
					sb.WriteString(" " + c.Enum.TypeName)
				}
			}
		}
	}
	return sb.String()
}

func defaultString(d *core.Default) string {
	switch {
	case d == nil:
		return ""
	case d.IsExpr():
		return "expr:" + strings.ToUpper(strings.TrimSpace(d.Expr))
	case d.Value == nil:
		return "NULL"
	default:
		return fmt.Sprint(d.Value)
	}
}

type fieldChangeCollector struct {
	Changes []*FieldChange
}

func (c *fieldChangeCollector) Add(field, oldV, newV string) {
	if oldV == newV {
		return
	}
	c.Changes = append(c.Changes, &FieldChange{Field: field, Old: oldV, New: newV})
}

// Named is implemented by types that have a name identifier.
// This interface enables type-safe sorting and mapping operations.
type Named interface {
	GetName() string
}

// sortNamed sorts a slice of Named items by name (case-insensitive).
func sortNamed[T Named](items []T) {
	sortByFunc(items, func(item T) string { return item.GetName() })
}

// sortByFunc sorts items using a custom name extractor function.
func sortByFunc[T any](items []T, getName func(T) string) {
	if len(items) <= 1 {
		return
	}
	sort.SliceStable(items, func(i, j int) bool {
		return strings.ToLower(getName(items[i])) < strings.ToLower(getName(items[j]))
	})
}

// mapTablesByName creates a lookup map of tables keyed by lowercase name.
// Returns the map and any case-insensitive name collisions found.
func mapTablesByName(tables []*core.Table) (map[string]*core.Table, []string) {
	return mapByName(tables)
}

// mapColumnsByName creates a lookup map of columns keyed by lowercase name.
// Returns the map and any case-insensitive name collisions found.
func mapColumnsByName(columns []*core.Column) (map[string]*core.Column, []string) {
	return mapByName(columns)
}

func mapByName[T Named](items []T) (map[string]T, []string) {
	m := make(map[string]T, len(items))
	original := make(map[string]string, len(items))
	var collisions []string

	for _, item := range items {
		name := item.GetName()
		key := strings.ToLower(name)
		if prev, ok := original[key]; ok {
			if prev != name {
				collisions = append(collisions, fmt.Sprintf("case-insensitive name collision: %q vs %q", prev, name))
			}
			continue
		}
		original[key] = name
		m[key] = item
	}
	return m, collisions
}

// mapByKey creates a lookup map keyed by a custom key function.
func mapByKey[T any](items []T, keyFn func(T) string) map[string]T {
	m := make(map[string]T, len(items))
	for _, item := range items {
		m[keyFn(item)] = item
	}
	return m
}

func equalStringSliceCI(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}

func ptrStr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func formatNameList(items []string) string {
	return "(" + strings.Join(items, ", ") + ")"
}
