package plan

import "strings"

// Statement is one compiled SQL statement.
//
// Bindings carry data values only; identifiers are always quoted into SQL.
// The hint fields describe what the statement creates, needs and removes,
// and are consumed by Sequence.
type Statement struct {
	SQL      string `json:"sql"`
	Bindings []any  `json:"bindings"`
	Order    int    `json:"order"`

	Provides   []string `json:"-"`
	Requires   []string `json:"-"`
	Drops      []string `json:"-"`
	References []string `json:"-"`
}

// Stmt builds a statement without hints.
func Stmt(sql string, bindings ...any) Statement {
	if bindings == nil {
		bindings = []any{}
	}
	return Statement{SQL: sql, Bindings: bindings}
}

// Provide adds keys the statement creates.
func (s Statement) Provide(keys ...string) Statement {
	s.Provides = appendKeys(s.Provides, keys)
	return s
}

// Require adds keys that must exist before the statement runs.
func (s Statement) Require(keys ...string) Statement {
	s.Requires = appendKeys(s.Requires, keys)
	return s
}

// Drop adds keys the statement removes.
func (s Statement) Drop(keys ...string) Statement {
	s.Drops = appendKeys(s.Drops, keys)
	return s
}

// Reference adds weak references: keys the statement points at by name
// without requiring them to be created in the same plan.
func (s Statement) Reference(keys ...string) Statement {
	s.References = appendKeys(s.References, keys)
	return s
}

func appendKeys(dst, keys []string) []string {
	for _, k := range keys {
		if k != "" {
			dst = append(dst, k)
		}
	}
	return dst
}

// Dependency keys. Names are case-folded so that hints match regardless of
// how the caller spelled an identifier.

// TableKey identifies a table.
func TableKey(name string) string { return "table:" + strings.ToLower(name) }

// TypeKey identifies a named type, such as a PostgreSQL enum.
func TypeKey(name string) string { return "type:" + strings.ToLower(name) }

// ColumnKey identifies a column of a table.
func ColumnKey(table, column string) string {
	return "column:" + strings.ToLower(table) + "." + strings.ToLower(column)
}

// ConstraintKey identifies a constraint of a table.
func ConstraintKey(table, name string) string {
	return "constraint:" + strings.ToLower(table) + "." + strings.ToLower(name)
}

// IndexKey identifies an index of a table.
func IndexKey(table, name string) string {
	return "index:" + strings.ToLower(table) + "." + strings.ToLower(name)
}

// SplitKey returns the kind and name parts of a dependency key.
func SplitKey(key string) (kind, name string) {
	kind, name, ok := strings.Cut(key, ":")
	if !ok {
		return "object", key
	}
	return kind, name
}
