// Package core contains the single source of truth for the abstract schema model.
// It provides a structured, dialect-agnostic representation of tables, columns,
// constraints and indexes, plus the alteration operations the compiler turns into SQL.
package core

import (
	"fmt"
	"slices"
	"strings"
)

// TypeTag is an ENUM with all semantic column types the compiler understands.
type TypeTag string

const (
	TypeInteger   TypeTag = "integer"
	TypeBigInt    TypeTag = "bigint"
	TypeFloat     TypeTag = "float"
	TypeDecimal   TypeTag = "decimal"
	TypeString    TypeTag = "string"
	TypeText      TypeTag = "text"
	TypeBinary    TypeTag = "binary"
	TypeBoolean   TypeTag = "boolean"
	TypeUUID      TypeTag = "uuid"
	TypeJSON      TypeTag = "json"
	TypeJSONB     TypeTag = "jsonb"
	TypeDate      TypeTag = "date"
	TypeTimestamp TypeTag = "timestamp"
	TypeEnum      TypeTag = "enum"
	TypeBit       TypeTag = "bit"
)

// TypeTags returns all known semantic type tags.
func TypeTags() []TypeTag {
	return []TypeTag{
		TypeInteger, TypeBigInt, TypeFloat, TypeDecimal, TypeString, TypeText,
		TypeBinary, TypeBoolean, TypeUUID, TypeJSON, TypeJSONB, TypeDate,
		TypeTimestamp, TypeEnum, TypeBit,
	}
}

// IsKnown reports whether t is one of the semantic type tags.
func (t TypeTag) IsKnown() bool {
	return slices.Contains(TypeTags(), t)
}

// Table represents a table in the schema. For create operations it is the
// desired end state, for alter operations the known current state.
type Table struct {
	Name        string        `json:"name"`
	Columns     []*Column     `json:"columns"`
	Constraints []*Constraint `json:"constraints,omitempty"`
	Indexes     []*Index      `json:"indexes,omitempty"`
	Comment     string        `json:"comment,omitempty"`
}

// Column represents a single column inside a table.
type Column struct {
	Name string  `json:"name"`
	Type TypeTag `json:"type"`

	// Length applies to string, binary and bit columns. Zero means the
	// dialect default.
	Length int `json:"length,omitempty"`

	// Precision and Scale apply to decimal columns. Nil means unspecified.
	Precision *int `json:"precision,omitempty"`
	Scale     *int `json:"scale,omitempty"`

	Unsigned      bool `json:"unsigned,omitempty"`
	Nullable      bool `json:"nullable"`
	PrimaryKey    bool `json:"primaryKey,omitempty"`
	AutoIncrement bool `json:"autoIncrement,omitempty"`

	Default   *Default `json:"default,omitempty"`
	Comment   *string  `json:"comment,omitempty"`
	Collation string   `json:"collation,omitempty"`

	Timestamp *TimestampOptions `json:"timestamp,omitempty"`
	Enum      *EnumOptions      `json:"enum,omitempty"`
}

// Default holds either a literal value or a raw SQL expression.
// Expr wins when both are set.
type Default struct {
	// Value is a literal: string, bool, int64 or float64.
	Value any `json:"value,omitempty"`
	// Expr is emitted verbatim, e.g. CURRENT_TIMESTAMP.
	Expr string `json:"expr,omitempty"`
}

// IsExpr reports whether the default is a raw SQL expression.
func (d *Default) IsExpr() bool {
	return d != nil && strings.TrimSpace(d.Expr) != ""
}

// TimestampOptions configures timestamp columns.
//
// UseTZ nil means timezone-aware. Precision nil omits the precision clause,
// while a zero precision is emitted explicitly.
type TimestampOptions struct {
	UseTZ     *bool `json:"useTz,omitempty"`
	Precision *int  `json:"precision,omitempty"`
}

// TimestampWithoutTZ builds options from the boolean "without timezone" flag.
func TimestampWithoutTZ(withoutTZ bool) *TimestampOptions {
	useTZ := !withoutTZ
	return &TimestampOptions{UseTZ: &useTZ}
}

// WithTimezone reports whether the timestamp is timezone-aware.
func (o *TimestampOptions) WithTimezone() bool {
	if o == nil || o.UseTZ == nil {
		return true
	}
	return *o.UseTZ
}

// EnumOptions configures enum columns.
type EnumOptions struct {
	Values []string `json:"values"`
	// Native selects the dialect's own enumerated type instead of a text
	// column with a membership check.
	Native bool `json:"native,omitempty"`
	// TypeName names the native type on dialects with named enum types.
	TypeName string `json:"typeName,omitempty"`
	// ExistingType skips creating the named type.
	ExistingType bool `json:"existingType,omitempty"`
}

// Constraint contains all constraint options for a table.
type Constraint struct {
	Name    string         `json:"name,omitempty"`
	Type    ConstraintType `json:"type"`
	Columns []string       `json:"columns"`

	ReferencedTable   string            `json:"referencedTable,omitempty"`
	ReferencedColumns []string          `json:"referencedColumns,omitempty"`
	OnDelete          ReferentialAction `json:"onDelete,omitempty"`
	OnUpdate          ReferentialAction `json:"onUpdate,omitempty"`

	CheckExpression string `json:"checkExpression,omitempty"`
}

// ConstraintType is an ENUM with all possible constraint types.
type ConstraintType string

const (
	ConstraintPrimaryKey ConstraintType = "PRIMARY KEY"
	ConstraintForeignKey ConstraintType = "FOREIGN KEY"
	ConstraintUnique     ConstraintType = "UNIQUE"
	ConstraintCheck      ConstraintType = "CHECK"
)

// ReferentialAction is an ENUM with all possible referential actions.
type ReferentialAction string

const (
	RefActionNone       ReferentialAction = ""
	RefActionCascade    ReferentialAction = "CASCADE"
	RefActionRestrict   ReferentialAction = "RESTRICT"
	RefActionSetNull    ReferentialAction = "SET NULL"
	RefActionSetDefault ReferentialAction = "SET DEFAULT"
	RefActionNoAction   ReferentialAction = "NO ACTION"
)

// ParseConstraintType maps user input ("pk", "foreign_key", "UNIQUE", ...) to a ConstraintType.
func ParseConstraintType(s string) (ConstraintType, bool) {
	switch strings.ToLower(strings.NewReplacer("_", " ", "-", " ").Replace(strings.TrimSpace(s))) {
	case "primary key", "pk", "primary":
		return ConstraintPrimaryKey, true
	case "foreign key", "fk", "foreign":
		return ConstraintForeignKey, true
	case "unique":
		return ConstraintUnique, true
	case "check":
		return ConstraintCheck, true
	}
	return "", false
}

// ParseReferentialAction normalizes an ON DELETE / ON UPDATE action.
func ParseReferentialAction(s string) (ReferentialAction, bool) {
	a := ReferentialAction(strings.ToUpper(strings.Join(strings.Fields(strings.ReplaceAll(s, "_", " ")), " ")))
	switch a {
	case RefActionNone, RefActionCascade, RefActionRestrict, RefActionSetNull, RefActionSetDefault, RefActionNoAction:
		return a, true
	}
	return "", false
}

// Index contains index options for a table.
type Index struct {
	Name    string   `json:"name,omitempty"`
	Columns []string `json:"columns"`
	Unique  bool     `json:"unique,omitempty"`
}

// GetName methods allow these types to be used with generic Named helpers.
func (t *Table) GetName() string      { return t.Name }
func (c *Column) GetName() string     { return c.Name }
func (c *Constraint) GetName() string { return c.Name }
func (i *Index) GetName() string      { return i.Name }

// FindColumn looks for a column by name inside a table.
func (t *Table) FindColumn(name string) *Column {
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}

// FindConstraint looks for a constraint by name inside a table.
func (t *Table) FindConstraint(name string) *Constraint {
	for _, c := range t.Constraints {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}

// FindIndex looks for an index by name inside a table.
func (t *Table) FindIndex(name string) *Index {
	for _, i := range t.Indexes {
		if strings.EqualFold(i.Name, name) {
			return i
		}
	}
	return nil
}

// PrimaryKey returns the primary key constraint of the table.
func (t *Table) PrimaryKey() *Constraint {
	for _, c := range t.Constraints {
		if c.Type == ConstraintPrimaryKey {
			return c
		}
	}
	return nil
}

// ColumnNames returns the ordered column names.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// References reports whether the constraint lists the given column.
func (c *Constraint) References(column string) bool {
	return containsFold(c.Columns, column)
}

// DependsOn reports whether the constraint on table uses column, either
// directly or as the target of a self-referencing foreign key.
func (c *Constraint) DependsOn(table, column string) bool {
	if c.References(column) || MentionsColumn(c.CheckExpression, column) {
		return true
	}
	return c.Type == ConstraintForeignKey && strings.EqualFold(c.ReferencedTable, table) &&
		containsFold(c.ReferencedColumns, column)
}

// References reports whether the index lists the given column.
func (i *Index) References(column string) bool {
	return containsFold(i.Columns, column)
}

// String returns a short representation of a table.
func (t *Table) String() string {
	return fmt.Sprintf("Table: %s (%d cols, %d constraints, %d indexes)",
		t.Name, len(t.Columns), len(t.Constraints), len(t.Indexes))
}

// Clone returns a deep copy of the table so operations can be applied
// without touching the caller's value.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	out := &Table{
		Name:        t.Name,
		Comment:     t.Comment,
		Columns:     make([]*Column, 0, len(t.Columns)),
		Constraints: make([]*Constraint, 0, len(t.Constraints)),
		Indexes:     make([]*Index, 0, len(t.Indexes)),
	}
	for _, c := range t.Columns {
		out.Columns = append(out.Columns, c.Clone())
	}
	for _, c := range t.Constraints {
		out.Constraints = append(out.Constraints, c.Clone())
	}
	for _, i := range t.Indexes {
		out.Indexes = append(out.Indexes, i.Clone())
	}
	return out
}

// Clone returns a deep copy of the column.
func (c *Column) Clone() *Column {
	if c == nil {
		return nil
	}
	out := *c
	out.Precision = clonePtr(c.Precision)
	out.Scale = clonePtr(c.Scale)
	out.Comment = clonePtr(c.Comment)
	if c.Default != nil {
		d := *c.Default
		out.Default = &d
	}
	if c.Timestamp != nil {
		ts := TimestampOptions{UseTZ: clonePtr(c.Timestamp.UseTZ), Precision: clonePtr(c.Timestamp.Precision)}
		out.Timestamp = &ts
	}
	if c.Enum != nil {
		e := *c.Enum
		e.Values = slices.Clone(c.Enum.Values)
		out.Enum = &e
	}
	return &out
}

// Clone returns a deep copy of the constraint.
func (c *Constraint) Clone() *Constraint {
	if c == nil {
		return nil
	}
	out := *c
	out.Columns = slices.Clone(c.Columns)
	out.ReferencedColumns = slices.Clone(c.ReferencedColumns)
	return &out
}

// Clone returns a deep copy of the index.
func (i *Index) Clone() *Index {
	if i == nil {
		return nil
	}
	out := *i
	out.Columns = slices.Clone(i.Columns)
	return &out
}

// ParseReferences splits a "table.column" reference string into its two parts.
// It returns ("", "", false) if the format is invalid.
func ParseReferences(ref string) (table, column string, ok bool) {
	ref = strings.TrimSpace(ref)
	dot := strings.LastIndex(ref, ".")
	if dot <= 0 || dot >= len(ref)-1 {
		return "", "", false
	}
	return ref[:dot], ref[dot+1:], true
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
