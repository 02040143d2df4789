package postgres

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemac/internal/core"
	"schemac/internal/dialect"
	"schemac/internal/plan"
)

func intPtr(v int) *int { return &v }

func TestColumnTypes(t *testing.T) {
	d := New(dialect.MustParseVersion("16.2"))
	tests := []struct {
		name     string
		col      *core.Column
		expected string
	}{
		{name: "decimal_bare", col: &core.Column{Name: "a", Type: core.TypeDecimal}, expected: "decimal"},
		{name: "decimal_precision_scale", col: &core.Column{Name: "a", Type: core.TypeDecimal, Precision: intPtr(8), Scale: intPtr(2)}, expected: "decimal(8, 2)"},
		{name: "float", col: &core.Column{Name: "a", Type: core.TypeFloat}, expected: "double precision"},
		{name: "binary", col: &core.Column{Name: "a", Type: core.TypeBinary}, expected: "bytea"},
		{name: "jsonb", col: &core.Column{Name: "a", Type: core.TypeJSONB}, expected: "jsonb"},
		{name: "timestamptz_default", col: &core.Column{Name: "a", Type: core.TypeTimestamp}, expected: "timestamptz"},
		{name: "timestamp_without_tz", col: &core.Column{Name: "a", Type: core.TypeTimestamp, Timestamp: core.TimestampWithoutTZ(true)}, expected: "timestamp"},
		{name: "timestamp_precision_zero", col: &core.Column{Name: "a", Type: core.TypeTimestamp, Timestamp: &core.TimestampOptions{Precision: intPtr(0)}}, expected: "timestamptz(0)"},
		{name: "bit_length", col: &core.Column{Name: "a", Type: core.TypeBit, Length: 8}, expected: "bit(8)"},
		{name: "uuid", col: &core.Column{Name: "a", Type: core.TypeUUID}, expected: "uuid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := d.CompileType("t", tt.col)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out.SQL)
		})
	}
}

func TestJSONOnOldServers(t *testing.T) {
	d := New(dialect.MustParseVersion("9.3"))
	out, err := d.CompileType("t", &core.Column{Name: "doc", Type: core.TypeJSONB})
	require.NoError(t, err)
	assert.Equal(t, "json", out.SQL)

	d = New(dialect.MustParseVersion("9.1"))
	out, err = d.CompileType("t", &core.Column{Name: "doc", Type: core.TypeJSON})
	require.NoError(t, err)
	assert.Equal(t, "text", out.SQL)
}

func TestNativeEnumCreatesType(t *testing.T) {
	d := New(dialect.Version{})
	col := &core.Column{Name: "mood", Type: core.TypeEnum, Enum: &core.EnumOptions{
		Values: []string{"happy", "sad"}, Native: true, TypeName: "mood_type",
	}}
	out, err := d.CompileType("people", col)
	require.NoError(t, err)
	assert.Equal(t, `"mood_type"`, out.SQL)
	assert.Equal(t, []string{plan.TypeKey("mood_type")}, out.Requires)
	require.Len(t, out.Before, 1)
	assert.Equal(t, `CREATE TYPE "mood_type" AS ENUM ('happy', 'sad')`, out.Before[0].SQL)

	col.Enum.ExistingType = true
	out, err = d.CompileType("people", col)
	require.NoError(t, err)
	assert.Empty(t, out.Before)
}

func TestNativeEnumRequiresTypeName(t *testing.T) {
	d := New(dialect.Version{})
	_, err := d.CompileType("people", &core.Column{Name: "mood", Type: core.TypeEnum, Enum: &core.EnumOptions{
		Values: []string{"happy"}, Native: true,
	}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrMissingRequiredOption))
	assert.Contains(t, err.Error(), "type name")
}

func TestAutoIncrementUsesSerial(t *testing.T) {
	d := New(dialect.Version{})
	typ, clause, err := d.AutoIncrementSQL(&core.Column{Name: "id", Type: core.TypeBigInt, AutoIncrement: true}, true, "bigint")
	require.NoError(t, err)
	assert.Equal(t, "bigserial", typ)
	assert.Empty(t, clause)

	typ, _, err = d.AutoIncrementSQL(&core.Column{Name: "id", Type: core.TypeInteger, AutoIncrement: true}, true, "integer")
	require.NoError(t, err)
	assert.Equal(t, "serial", typ)
}

func TestAlterColumn(t *testing.T) {
	d := New(dialect.Version{})
	stmts, err := d.AlterColumnSQL(dialect.AlterColumnInput{
		Table:   "users",
		New:     &core.Column{Name: "age", Type: core.TypeBigInt},
		Type:    "bigint",
		Default: "0",
	})
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	assert.Equal(t, `ALTER TABLE "users" ALTER COLUMN "age" TYPE bigint USING "age"::bigint, `+
		`ALTER COLUMN "age" SET NOT NULL, ALTER COLUMN "age" SET DEFAULT 0`, stmts[0].SQL)

	stmts, err = d.AlterColumnSQL(dialect.AlterColumnInput{
		Table: "users",
		New:   &core.Column{Name: "age", Type: core.TypeInteger, Nullable: true},
		Type:  "integer",
	})
	require.NoError(t, err)
	assert.Equal(t, `ALTER TABLE "users" ALTER COLUMN "age" TYPE integer USING "age"::integer, `+
		`ALTER COLUMN "age" DROP NOT NULL, ALTER COLUMN "age" DROP DEFAULT`, stmts[0].SQL)
}

func TestAlterColumnKeepsSerial(t *testing.T) {
	d := New(dialect.Version{})
	old := &core.Column{Name: "id", Type: core.TypeInteger, AutoIncrement: true}
	stmts, err := d.AlterColumnSQL(dialect.AlterColumnInput{
		Table: "users",
		Old:   old,
		New:   &core.Column{Name: "id", Type: core.TypeBigInt, AutoIncrement: true},
		Type:  "bigserial",
	})
	require.NoError(t, err)
	assert.Equal(t, `ALTER TABLE "users" ALTER COLUMN "id" TYPE bigint USING "id"::bigint, ALTER COLUMN "id" SET NOT NULL`, stmts[0].SQL)

	_, err = d.AlterColumnSQL(dialect.AlterColumnInput{
		Table: "users",
		Old:   &core.Column{Name: "id", Type: core.TypeInteger},
		New:   &core.Column{Name: "id", Type: core.TypeInteger, AutoIncrement: true},
		Type:  "serial",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrUnsupportedOperation))
}

func TestCommentStatements(t *testing.T) {
	d := New(dialect.Version{})
	comment := "bio text"
	stmts := d.CommentSQL(dialect.CommentInput{Table: "users", Column: "bio", Comment: &comment})
	require.Len(t, stmts, 1)
	assert.Equal(t, `COMMENT ON COLUMN "users"."bio" IS 'bio text'`, stmts[0].SQL)

	stmts = d.CommentSQL(dialect.CommentInput{Table: "users"})
	assert.Equal(t, `COMMENT ON TABLE "users" IS NULL`, stmts[0].SQL)

	quoted := "it''s"
	stmts = d.CommentSQL(dialect.CommentInput{Table: "users", Comment: &quoted})
	assert.Equal(t, `COMMENT ON TABLE "users" IS 'it''s'`, stmts[0].SQL)
}
