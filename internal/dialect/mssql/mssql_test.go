package mssql

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemac/internal/core"
	"schemac/internal/dialect"
)

func intPtr(v int) *int { return &v }

func TestColumnTypes(t *testing.T) {
	d := New(dialect.Version{})
	tests := []struct {
		name     string
		col      *core.Column
		expected string
	}{
		{name: "decimal_bare", col: &core.Column{Name: "a", Type: core.TypeDecimal}, expected: "decimal"},
		{name: "decimal_precision_scale", col: &core.Column{Name: "a", Type: core.TypeDecimal, Precision: intPtr(8), Scale: intPtr(2)}, expected: "decimal(8, 2)"},
		{name: "decimal_scale_only", col: &core.Column{Name: "a", Type: core.TypeDecimal, Scale: intPtr(4)}, expected: "decimal(18, 4)"},
		{name: "string", col: &core.Column{Name: "a", Type: core.TypeString, Length: 100}, expected: "nvarchar(100)"},
		{name: "long_string", col: &core.Column{Name: "a", Type: core.TypeString, Length: 5000}, expected: "nvarchar(max)"},
		{name: "json", col: &core.Column{Name: "a", Type: core.TypeJSON}, expected: "nvarchar(max)"},
		{name: "binary", col: &core.Column{Name: "a", Type: core.TypeBinary, Length: 9000}, expected: "varbinary(max)"},
		{name: "boolean", col: &core.Column{Name: "a", Type: core.TypeBoolean}, expected: "bit"},
		{name: "uuid", col: &core.Column{Name: "a", Type: core.TypeUUID}, expected: "uniqueidentifier"},
		{name: "datetime2", col: &core.Column{Name: "a", Type: core.TypeTimestamp, Timestamp: core.TimestampWithoutTZ(true)}, expected: "datetime2"},
		{name: "datetimeoffset", col: &core.Column{Name: "a", Type: core.TypeTimestamp, Timestamp: &core.TimestampOptions{Precision: intPtr(3)}}, expected: "datetimeoffset(3)"},
		{name: "emulated_enum", col: &core.Column{Name: "a", Type: core.TypeEnum, Enum: &core.EnumOptions{Values: []string{"x"}}}, expected: "nvarchar(255)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := d.CompileType("t", tt.col)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out.SQL)
		})
	}
}

func TestUnsupportedTypes(t *testing.T) {
	d := New(dialect.Version{})
	_, err := d.CompileType("t", &core.Column{Name: "flags", Type: core.TypeBit, Length: 8})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrUnsupportedType))

	_, err = d.CompileType("t", &core.Column{Name: "mood", Type: core.TypeEnum, Enum: &core.EnumOptions{Values: []string{"a"}, Native: true}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrUnsupportedType))
}

func TestQuoting(t *testing.T) {
	assert.Equal(t, "N'it''s'", quoteString("it's"))
	assert.Equal(t, "N'it''s'", quoteComment("it''s"))
	d := New(dialect.Version{})
	assert.Equal(t, "[order]", d.QuoteIdentifier("order"))
}

func TestDropColumnLooksUpDefaultConstraint(t *testing.T) {
	d := New(dialect.Version{})
	stmts := d.BeforeDropColumnSQL("users", "bio")
	require.Len(t, stmts, 1)
	assert.Equal(t, []any{"dbo.users", "bio"}, stmts[0].Bindings)
	assert.Contains(t, stmts[0].SQL, "sys.default_constraints")
	assert.Contains(t, stmts[0].SQL, "OBJECT_ID(@p1) AND c.name = @p2")
}

func TestAlterColumnReplacesDefault(t *testing.T) {
	d := New(dialect.Version{})
	stmts, err := d.AlterColumnSQL(dialect.AlterColumnInput{
		Table:   "users",
		New:     &core.Column{Name: "status", Type: core.TypeString, Length: 20},
		Type:    "nvarchar(20)",
		Default: "N'new'",
	})
	require.NoError(t, err)
	require.Len(t, stmts, 3)
	assert.NotEmpty(t, stmts[0].Bindings)
	assert.Equal(t, "ALTER TABLE [users] ALTER COLUMN [status] nvarchar(20) NOT NULL", stmts[1].SQL)
	assert.Equal(t, "ALTER TABLE [users] ADD CONSTRAINT [DF_users_status] DEFAULT N'new' FOR [status]", stmts[2].SQL)

	_, err = d.AlterColumnSQL(dialect.AlterColumnInput{
		Table: "users",
		Old:   &core.Column{Name: "id", Type: core.TypeInteger},
		New:   &core.Column{Name: "id", Type: core.TypeInteger, AutoIncrement: true},
		Type:  "int",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrUnsupportedOperation))
}

func TestRenameColumn(t *testing.T) {
	d := New(dialect.Version{})
	stmts, err := d.RenameColumnSQL(dialect.RenameColumnInput{Table: "users", From: "name", To: "full_name"})
	require.NoError(t, err)
	assert.Equal(t, "EXEC sp_rename N'[users].[name]', N'full_name', N'COLUMN'", stmts[0].SQL)
}

func TestCommentStatements(t *testing.T) {
	d := New(dialect.Version{})
	c := "bio text"

	stmts := d.CommentSQL(dialect.CommentInput{Table: "users", Column: "bio", Comment: &c})
	require.Len(t, stmts, 1)
	assert.Contains(t, stmts[0].SQL, "IF EXISTS")
	assert.Contains(t, stmts[0].SQL, "sp_addextendedproperty @name = N'MS_Description', @value = N'bio text'")
	assert.Contains(t, stmts[0].SQL, "@level2type = N'COLUMN', @level2name = N'bio'")

	stmts = d.CommentSQL(dialect.CommentInput{Table: "users", Comment: &c, Existed: true})
	assert.Equal(t, "EXEC sp_updateextendedproperty @name = N'MS_Description', @value = N'bio text', "+
		"@level0type = N'SCHEMA', @level0name = N'dbo', @level1type = N'TABLE', @level1name = N'users'", stmts[0].SQL)

	stmts = d.CommentSQL(dialect.CommentInput{Table: "users", Existed: true})
	assert.Contains(t, stmts[0].SQL, "EXEC sp_dropextendedproperty")
	assert.NotContains(t, stmts[0].SQL, "IF EXISTS")
}
