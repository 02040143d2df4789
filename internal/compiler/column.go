package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"schemac/internal/core"
	"schemac/internal/dialect"
	"schemac/internal/plan"
)

// columnMode tells where a column definition is used.
type columnMode int

const (
	// columnCreate is a definition inside CREATE TABLE.
	columnCreate columnMode = iota
	// columnAdd is a definition in ALTER TABLE ... ADD.
	columnAdd
	// columnRestate restates an existing column for MODIFY or CHANGE.
	// Column checks are managed separately and left out.
	columnRestate
)

// columnSQL is a compiled column.
type columnSQL struct {
	definition string
	typeSQL    string
	defaultSQL string
	// before holds prerequisites such as CREATE TYPE, after holds statements
	// that need the column to exist, such as separate comments.
	before   []plan.Statement
	after    []plan.Statement
	requires []string
}

// compileColumn renders a column definition:
//
//	name type [COLLATE c] [NULL|NOT NULL] [DEFAULT x] [PRIMARY KEY] [auto increment] [CHECK] [COMMENT]
//
// table is the logical table name used for derived names; inlinePK marks
// the single column primary key written at column level.
func (c *Compiler) compileColumn(u *unit, table string, col *core.Column, inlinePK bool, mode columnMode) (columnSQL, error) {
	typ, err := c.compileType(table, col)
	if err != nil {
		return columnSQL{}, err
	}
	// A restated column already holds its key, wherever it was declared.
	typeSQL, autoClause, err := c.dialect.AutoIncrementSQL(col, inlinePK || mode == columnRestate, typ.SQL)
	if err != nil {
		if ce, ok := core.IsCompileError(err); ok && ce.Table == "" {
			ce.Table = table
		}
		return columnSQL{}, err
	}

	out := columnSQL{
		typeSQL:    typeSQL,
		defaultSQL: c.defaultSQL(col),
		before:     typ.Before,
		requires:   typ.Requires,
	}

	parts := []string{c.dialect.QuoteIdentifier(col.Name), typeSQL}
	parts = c.addCollation(parts, col)
	parts = c.addNullability(parts, col)
	parts = c.addDefault(parts, table, col, out.defaultSQL)
	parts = c.addPrimaryKey(parts, table, inlinePK)
	if autoClause != "" {
		parts = append(parts, autoClause)
	}
	if mode != columnRestate {
		parts = c.addColumnCheck(parts, table, col)
	}
	parts = c.addInlineComment(parts, col)
	out.definition = strings.Join(parts, " ")

	if mode != columnRestate {
		out.after = c.columnComment(u, table, col, nil, mode)
	}
	return out, nil
}

// compileType compiles the semantic type. Emulated enums become a string
// column; the membership check is added by addColumnCheck.
func (c *Compiler) compileType(table string, col *core.Column) (dialect.TypeSQL, error) {
	if !col.Type.IsKnown() {
		return dialect.TypeSQL{}, c.dialect.UnsupportedType(table, col, "unknown type %q", col.Type)
	}
	if col.Type == core.TypeEnum && (col.Enum == nil || !col.Enum.Native) {
		if col.Enum == nil || len(col.Enum.Values) == 0 {
			return dialect.TypeSQL{}, core.Errorf(core.ErrMissingRequiredOption, table, "column "+col.Name, "enum column requires values")
		}
		emulated := col.Clone()
		emulated.Type = core.TypeString
		emulated.Enum = nil
		return c.dialect.CompileType(table, emulated)
	}
	return c.dialect.CompileType(table, col)
}

func (c *Compiler) addCollation(parts []string, col *core.Column) []string {
	if coll := strings.TrimSpace(col.Collation); coll != "" {
		parts = append(parts, "COLLATE", coll)
	}
	return parts
}

func (c *Compiler) addNullability(parts []string, col *core.Column) []string {
	switch {
	case !col.Nullable:
		parts = append(parts, "NOT NULL")
	case c.dialect.ExplicitNull:
		parts = append(parts, "NULL")
	}
	return parts
}

func (c *Compiler) addDefault(parts []string, table string, col *core.Column, def string) []string {
	if def == "" {
		return parts
	}
	if prefix := c.dialect.DefaultConstraintPrefix; prefix != "" {
		name := core.DefaultConstraintName(prefix, table, col.Name, c.dialect.MaxIdentifierLength)
		parts = append(parts, "CONSTRAINT", c.dialect.QuoteIdentifier(name))
	}
	return append(parts, "DEFAULT", def)
}

func (c *Compiler) addPrimaryKey(parts []string, table string, inlinePK bool) []string {
	if !inlinePK {
		return parts
	}
	if c.dialect.NamedInlinePrimaryKey {
		name := core.ConstraintName(table, core.ConstraintPrimaryKey, nil, "", c.dialect.MaxIdentifierLength)
		parts = append(parts, "CONSTRAINT", c.dialect.QuoteIdentifier(name))
	}
	return append(parts, "PRIMARY KEY")
}

func (c *Compiler) addColumnCheck(parts []string, table string, col *core.Column) []string {
	name, expr := c.columnCheck(table, col)
	if expr == "" {
		return parts
	}
	return append(parts, "CONSTRAINT", c.dialect.QuoteIdentifier(name), "CHECK ("+expr+")")
}

func (c *Compiler) addInlineComment(parts []string, col *core.Column) []string {
	if c.dialect.Comments != dialect.CommentInline || col.Comment == nil {
		return parts
	}
	return append(parts, "COMMENT", c.dialect.CommentLiteral(*col.Comment))
}

// columnCheck returns the named check a column carries implicitly: value
// membership for emulated enums and a sign check for unsigned numbers on
// dialects without unsigned types.
func (c *Compiler) columnCheck(table string, col *core.Column) (name, expr string) {
	if col == nil {
		return "", ""
	}
	q := c.dialect.QuoteIdentifier(col.Name)
	switch {
	case col.Type == core.TypeEnum && col.Enum != nil && !col.Enum.Native && len(col.Enum.Values) > 0:
		name = core.ConstraintName(table, core.ConstraintCheck, []string{col.Name, "in"}, "", c.dialect.MaxIdentifierLength)
		expr = fmt.Sprintf("%s IN (%s)", q, c.dialect.EnumValues(col.Enum.Values))
	case col.Unsigned && col.IsNumeric() && !c.dialect.SupportsUnsigned:
		name = core.ConstraintName(table, core.ConstraintCheck, []string{col.Name, "unsigned"}, "", c.dialect.MaxIdentifierLength)
		expr = q + " >= 0"
	}
	return name, expr
}

// defaultSQL renders a default. Literals are quoted inline because DDL
// defaults cannot be bound as parameters.
func (c *Compiler) defaultSQL(col *core.Column) string {
	d := col.Default
	if d == nil {
		return ""
	}
	if d.IsExpr() {
		return strings.TrimSpace(d.Expr)
	}
	switch v := d.Value.(type) {
	case nil:
		return "NULL"
	case string:
		return c.dialect.QuoteLiteral(v)
	case bool:
		return c.dialect.Bool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return c.dialect.QuoteLiteral(fmt.Sprint(v))
	}
}

// columnComment returns the separate comment statement for a column. When
// creating or adding, a missing comment needs no statement; when restating
// an existing column, a missing comment clears the stored one. Comments on
// dialects without comment support are dropped with a warning.
func (c *Compiler) columnComment(u *unit, table string, col, old *core.Column, mode columnMode) []plan.Statement {
	switch c.dialect.Comments {
	case dialect.CommentInline:
		return nil
	case dialect.CommentUnsupported:
		if col.Comment != nil {
			msg := fmt.Sprintf("comment on column %s.%s dropped: %s does not support comments", table, col.Name, c.dialect.Type)
			u.AddNote(plan.NoteWarning, msg)
			c.logger.Warn("column comment dropped", zap.String("table", table), zap.String("column", col.Name))
		}
		return nil
	}
	if col.Comment == nil && mode != columnRestate {
		return nil
	}
	stmts := c.dialect.CommentSQL(dialect.CommentInput{
		Table:   table,
		Column:  col.Name,
		Comment: col.Comment,
		Existed: old != nil && old.Comment != nil,
	})
	for i := range stmts {
		stmts[i] = stmts[i].Require(plan.TableKey(table), plan.ColumnKey(table, col.Name))
	}
	return stmts
}
