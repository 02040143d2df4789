// Package dialect provides the capability descriptors of all supported SQL
// dialects. A dialect is static data plus a few strategy functions for the
// places where its SQL truly diverges; the compiler stays the same for all.
package dialect

import (
	"strings"

	"schemac/internal/core"
	"schemac/internal/plan"
)

type Type string

const (
	MySQL      Type = "mysql"
	MariaDB    Type = "mariadb"
	PostgreSQL Type = "postgresql"
	SQLite     Type = "sqlite"
	MSSQL      Type = "mssql"
)

// CommentMechanism tells how column comments reach the database.
type CommentMechanism string

const (
	CommentInline      CommentMechanism = "inline"
	CommentSeparate    CommentMechanism = "separate-statement"
	CommentUnsupported CommentMechanism = "unsupported"
)

// EnumMechanism tells how native enums are declared.
type EnumMechanism string

const (
	EnumInline    EnumMechanism = "inline"
	EnumNamedType EnumMechanism = "named-type"
	EnumNone      EnumMechanism = "none"
)

// Capabilities are the static facts about what a dialect supports natively.
type Capabilities struct {
	SupportsInlineAlterColumn    bool `json:"supportsInlineAlterColumn"`
	SupportsDropColumnDirect     bool `json:"supportsDropColumnDirect"`
	SupportsNamedConstraintAlter bool `json:"supportsNamedConstraintAlter"`
	SupportsAddForeignKeyInline  bool `json:"supportsAddForeignKeyInline"`
	SupportsRenameColumn         bool `json:"supportsRenameColumn"`
	SupportsRebuild              bool `json:"supportsRebuild"`
	SupportsUnsigned             bool `json:"supportsUnsigned"`

	// DropColumnCascades is set when dropping a column also drops the
	// constraints and indexes that use it.
	DropColumnCascades bool `json:"dropColumnCascades"`
	TransactionalDDL   bool `json:"transactionalDdl"`
	// ExplicitNull emits NULL for nullable columns instead of leaving it implied.
	ExplicitNull bool `json:"explicitNull"`
	// DiscardsChecks is set when the server parses CHECK clauses without
	// storing them, so there is never a check constraint to drop.
	DiscardsChecks bool `json:"discardsChecks,omitempty"`
	// NamedInlinePrimaryKey writes CONSTRAINT <name> before a column level
	// PRIMARY KEY so the key can later be dropped by its derived name.
	NamedInlinePrimaryKey bool `json:"namedInlinePrimaryKey"`

	QuoteOpen           string           `json:"quoteOpen"`
	QuoteClose          string           `json:"quoteClose"`
	MaxIdentifierLength int              `json:"maxIdentifierLength"`
	Comments            CommentMechanism `json:"comments"`
	Enums               EnumMechanism    `json:"enums"`

	BoolTrue                string `json:"boolTrue"`
	BoolFalse               string `json:"boolFalse"`
	DefaultDecimalPrecision int    `json:"defaultDecimalPrecision"`
	DefaultStringLength     int    `json:"defaultStringLength"`
	// DefaultConstraintPrefix is set on dialects that model column
	// defaults as named constraints.
	DefaultConstraintPrefix string `json:"defaultConstraintPrefix,omitempty"`
	AddColumnKeyword        string `json:"addColumnKeyword"`
	DropIndexOnTable        bool   `json:"dropIndexOnTable"`
}

// TypeSQL is the result of compiling a semantic type.
type TypeSQL struct {
	SQL string
	// Before lists statements that must exist before any column of this
	// type, such as CREATE TYPE for named enums.
	Before []plan.Statement
	// Requires lists dependency keys the column needs.
	Requires []string
}

// AlterColumnInput carries a column that changes definition.
type AlterColumnInput struct {
	Table string
	// Old is the current definition when known.
	Old *core.Column
	New *core.Column

	// Definition is the complete rendered column definition, starting with
	// the quoted name.
	Definition string
	Type       string
	// Default is the rendered default value, empty when there is none.
	Default string
}

// RenameColumnInput carries a column rename.
type RenameColumnInput struct {
	Table string
	From  string
	To    string
	// Current is the definition before the rename when known, and
	// Definition the same column rendered under its new name.
	Current    *core.Column
	Definition string
}

// CommentInput carries a comment change. An empty Column targets the table.
type CommentInput struct {
	Table   string
	Column  string
	Comment *string
	// Existed tells whether a comment is known to be present already.
	Existed bool
}

// Strategies are the dialect specific override points. A nil function
// means the shared default is used; ColumnType has no default.
type Strategies struct {
	ColumnType func(d *Dialect, table string, col *core.Column) (TypeSQL, error)

	// AutoIncrement adapts the type and returns the clause placed after
	// the inline primary key, if any.
	AutoIncrement func(d *Dialect, col *core.Column, inlinePK bool, typeSQL string) (string, string, error)

	AlterColumn      func(d *Dialect, in AlterColumnInput) ([]plan.Statement, error)
	RenameColumn     func(d *Dialect, in RenameColumnInput) ([]plan.Statement, error)
	DropConstraint   func(d *Dialect, table string, con *core.Constraint) (plan.Statement, error)
	CommentStatement func(d *Dialect, in CommentInput) []plan.Statement
	BeforeDropColumn func(d *Dialect, table, column string) []plan.Statement

	// RequiresRebuild escalates an operation that the capability flags
	// alone would run directly. It returns the reason for the plan log.
	RequiresRebuild func(d *Dialect, op core.Operation, current *core.Table) (bool, string)

	QuoteString  func(s string) string
	QuoteComment func(s string) string
}

// Dialect is a capability descriptor for one backend version plus its
// strategies. Values are read-only after construction and safe to share.
type Dialect struct {
	Type    Type
	Version Version
	Capabilities
	Strategies
}

// Name returns the dialect name.
func (d *Dialect) Name() string { return string(d.Type) }

// QuoteIdentifier quotes an identifier, doubling embedded closing quotes.
func (d *Dialect) QuoteIdentifier(name string) string {
	name = strings.TrimSpace(name)
	if d.QuoteClose != "" {
		name = strings.ReplaceAll(name, d.QuoteClose, d.QuoteClose+d.QuoteClose)
	}
	return d.QuoteOpen + name + d.QuoteClose
}

// QuoteIdentifiers quotes and joins a column list.
func (d *Dialect) QuoteIdentifiers(names []string) string {
	quoted := make([]string, 0, len(names))
	for _, n := range names {
		quoted = append(quoted, d.QuoteIdentifier(n))
	}
	return strings.Join(quoted, ", ")
}

// QuoteLiteral renders a string literal.
func (d *Dialect) QuoteLiteral(s string) string {
	if d.QuoteString != nil {
		return d.QuoteString(s)
	}
	return "'" + core.EscapeLiteral(s) + "'"
}

// CommentLiteral renders comment text as a literal with one escaping pass.
func (d *Dialect) CommentLiteral(s string) string {
	if d.QuoteComment != nil {
		return d.QuoteComment(s)
	}
	return "'" + core.EscapeComment(s) + "'"
}

// Bool renders a boolean literal.
func (d *Dialect) Bool(v bool) string {
	if v {
		return d.BoolTrue
	}
	return d.BoolFalse
}

// FitName shortens a derived identifier to the dialect limit.
func (d *Dialect) FitName(name string) string {
	return core.FitIdentifier(name, d.MaxIdentifierLength)
}

// Clone returns a copy that can be adjusted without touching registered values.
func (d *Dialect) Clone() *Dialect {
	c := *d
	return &c
}
