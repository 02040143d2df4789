package compiler

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"schemac/internal/core"
	"schemac/internal/plan"
)

func TestCreateTableDecimals(t *testing.T) {
	tests := []struct {
		dialect  string
		expected string
	}{
		{dialect: "postgresql", expected: "CREATE TABLE \"prices\" (\n  \"price\" decimal NOT NULL,\n  \"amount\" decimal(8, 2) NOT NULL\n)"},
		{dialect: "sqlite", expected: "CREATE TABLE \"prices\" (\n  \"price\" decimal NOT NULL,\n  \"amount\" decimal(8, 2) NOT NULL\n)"},
		{dialect: "mysql", expected: "CREATE TABLE `prices` (\n  `price` decimal NOT NULL,\n  `amount` decimal(8, 2) NOT NULL\n)"},
		{dialect: "mssql", expected: "CREATE TABLE [prices] (\n  [price] decimal NOT NULL,\n  [amount] decimal(8, 2) NOT NULL\n)"},
	}
	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			c := newCompiler(t, tt.dialect, "")
			p, err := c.CompileCreateTable(&core.Table{
				Name: "prices",
				Columns: []*core.Column{
					{Name: "price", Type: core.TypeDecimal},
					{Name: "amount", Type: core.TypeDecimal, Precision: intPtr(8), Scale: intPtr(2)},
				},
			})
			require.NoError(t, err)
			assert.Equal(t, plan.ModeCreate, p.Mode)
			assert.Equal(t, []string{tt.expected}, p.SQLStatements())
		})
	}
}

func TestCreateTableWithNativeEnum(t *testing.T) {
	c := newCompiler(t, "postgresql", "")
	p, err := c.CompileCreateTable(&core.Table{
		Name: "people",
		Columns: []*core.Column{
			{Name: "id", Type: core.TypeBigInt, PrimaryKey: true, AutoIncrement: true},
			{Name: "mood", Type: core.TypeEnum, Enum: &core.EnumOptions{Values: []string{"happy", "sad"}, Native: true, TypeName: "mood_type"}},
			{Name: "alt_mood", Type: core.TypeEnum, Nullable: true, Enum: &core.EnumOptions{Values: []string{"happy", "sad"}, Native: true, TypeName: "mood_type"}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		`CREATE TYPE "mood_type" AS ENUM ('happy', 'sad')`,
		"CREATE TABLE \"people\" (\n" +
			"  \"id\" bigserial NOT NULL CONSTRAINT \"people_pkey\" PRIMARY KEY,\n" +
			"  \"mood\" \"mood_type\" NOT NULL,\n" +
			"  \"alt_mood\" \"mood_type\"\n" +
			")",
	}, p.SQLStatements())
}

func TestCreateTableNativeEnumWithoutTypeName(t *testing.T) {
	c := newCompiler(t, "postgresql", "")
	p, err := c.CompileCreateTable(&core.Table{
		Name: "people",
		Columns: []*core.Column{
			{Name: "mood", Type: core.TypeEnum, Enum: &core.EnumOptions{Values: []string{"happy"}, Native: true}},
		},
	})
	require.Error(t, err)
	assert.Nil(t, p)
	assert.True(t, errors.Is(err, core.ErrMissingRequiredOption))
}

func TestCreateTableColumnChecks(t *testing.T) {
	c := newCompiler(t, "postgresql", "")
	p, err := c.CompileCreateTable(&core.Table{
		Name: "orders",
		Columns: []*core.Column{
			{Name: "status", Type: core.TypeEnum, Default: &core.Default{Value: "new"}, Enum: &core.EnumOptions{Values: []string{"new", "paid"}}},
			{Name: "qty", Type: core.TypeInteger, Unsigned: true},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"CREATE TABLE \"orders\" (\n" +
			"  \"status\" varchar(255) NOT NULL DEFAULT 'new' CONSTRAINT \"orders_status_in_check\" CHECK (\"status\" IN ('new', 'paid')),\n" +
			"  \"qty\" integer NOT NULL CONSTRAINT \"orders_qty_unsigned_check\" CHECK (\"qty\" >= 0)\n" +
			")",
	}, p.SQLStatements())
}

func TestCreateTableComments(t *testing.T) {
	table := func() *core.Table {
		return &core.Table{
			Name:    "users",
			Comment: "app users",
			Columns: []*core.Column{
				{Name: "id", Type: core.TypeInteger, PrimaryKey: true, AutoIncrement: true},
				{Name: "bio", Type: core.TypeText, Nullable: true, Comment: strPtr("it's me")},
			},
		}
	}

	t.Run("postgresql", func(t *testing.T) {
		p, err := newCompiler(t, "postgresql", "").CompileCreateTable(table())
		require.NoError(t, err)
		require.Len(t, p.Statements, 3)
		assert.Equal(t, `COMMENT ON TABLE "users" IS 'app users'`, p.Statements[1].SQL)
		assert.Equal(t, `COMMENT ON COLUMN "users"."bio" IS 'it''s me'`, p.Statements[2].SQL)
	})

	t.Run("mysql", func(t *testing.T) {
		p, err := newCompiler(t, "mysql", "8.0.32").CompileCreateTable(table())
		require.NoError(t, err)
		assert.Equal(t, []string{
			"CREATE TABLE `users` (\n" +
				"  `id` int NOT NULL PRIMARY KEY AUTO_INCREMENT,\n" +
				"  `bio` text NULL COMMENT 'it''s me'\n" +
				") COMMENT='app users'",
		}, p.SQLStatements())
	})

	t.Run("sqlite", func(t *testing.T) {
		p, err := newCompiler(t, "sqlite", "").CompileCreateTable(table())
		require.NoError(t, err)
		assert.Equal(t, []string{
			"CREATE TABLE \"users\" (\n" +
				"  \"id\" integer NOT NULL CONSTRAINT \"users_pkey\" PRIMARY KEY AUTOINCREMENT,\n" +
				"  \"bio\" text\n" +
				")",
		}, p.SQLStatements())
		assert.Len(t, p.Warnings(), 2)
	})

	t.Run("mssql", func(t *testing.T) {
		p, err := newCompiler(t, "mssql", "").CompileCreateTable(table())
		require.NoError(t, err)
		require.Len(t, p.Statements, 3)
		assert.Equal(t, "CREATE TABLE [users] (\n"+
			"  [id] int NOT NULL CONSTRAINT [users_pkey] PRIMARY KEY IDENTITY(1,1),\n"+
			"  [bio] nvarchar(max) NULL\n"+
			")", p.Statements[0].SQL)
		assert.Contains(t, p.Statements[1].SQL, "sp_addextendedproperty")
		assert.Contains(t, p.Statements[2].SQL, "@level2name = N'bio'")
	})
}

func TestCreateTableConstraintsAndIndexes(t *testing.T) {
	c := newCompiler(t, "postgresql", "")
	p, err := c.CompileCreateTable(&core.Table{
		Name: "memberships",
		Columns: []*core.Column{
			{Name: "user_id", Type: core.TypeBigInt, PrimaryKey: true},
			{Name: "group_id", Type: core.TypeBigInt, PrimaryKey: true},
			{Name: "role", Type: core.TypeString, Length: 20},
		},
		Constraints: []*core.Constraint{{
			Type: core.ConstraintForeignKey, Columns: []string{"user_id"},
			ReferencedTable: "users", ReferencedColumns: []string{"id"}, OnDelete: core.RefActionCascade,
		}},
		Indexes: []*core.Index{{Columns: []string{"role"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"CREATE TABLE \"memberships\" (\n" +
			"  \"user_id\" bigint NOT NULL,\n" +
			"  \"group_id\" bigint NOT NULL,\n" +
			"  \"role\" varchar(20) NOT NULL,\n" +
			"  CONSTRAINT \"memberships_pkey\" PRIMARY KEY (\"user_id\", \"group_id\"),\n" +
			"  CONSTRAINT \"memberships_user_id_foreign\" FOREIGN KEY (\"user_id\") REFERENCES \"users\" (\"id\") ON DELETE CASCADE\n" +
			")",
		`CREATE INDEX "memberships_role_index" ON "memberships" ("role")`,
	}, p.SQLStatements())
	assert.Equal(t, []string{"referenced table users is not created by this plan and must already exist"}, p.InfoNotes())
}

func TestCreateTableValidation(t *testing.T) {
	c := newCompiler(t, "postgresql", "")
	tests := []struct {
		name  string
		table *core.Table
		kind  error
	}{
		{name: "nil", table: nil, kind: core.ErrInconsistentRequest},
		{name: "no_columns", table: &core.Table{Name: "t"}, kind: core.ErrInconsistentRequest},
		{name: "duplicate_columns", table: &core.Table{Name: "t", Columns: []*core.Column{
			{Name: "a", Type: core.TypeText}, {Name: "A", Type: core.TypeText},
		}}, kind: core.ErrNameCollision},
		{name: "long_table_name", table: &core.Table{
			Name:    "a_table_name_that_is_far_too_long_for_postgres_identifiers_to_hold",
			Columns: []*core.Column{{Name: "a", Type: core.TypeText}},
		}, kind: core.ErrInvalidIdentifier},
		{name: "index_constraint_name_clash", table: &core.Table{
			Name:        "t",
			Columns:     []*core.Column{{Name: "a", Type: core.TypeText}},
			Constraints: []*core.Constraint{{Name: "dup", Type: core.ConstraintUnique, Columns: []string{"a"}}},
			Indexes:     []*core.Index{{Name: "dup", Columns: []string{"a"}}},
		}, kind: core.ErrNameCollision},
		{name: "autoincrement_text", table: &core.Table{Name: "t", Columns: []*core.Column{
			{Name: "a", Type: core.TypeText, AutoIncrement: true},
		}}, kind: core.ErrInconsistentRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := c.CompileCreateTable(tt.table)
			require.Error(t, err)
			assert.Nil(t, p)
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)
		})
	}
}

func TestCreateTableDoesNotModifyInput(t *testing.T) {
	c := newCompiler(t, "postgresql", "")
	table := &core.Table{
		Name:        "t",
		Columns:     []*core.Column{{Name: "a", Type: core.TypeText}},
		Constraints: []*core.Constraint{{Type: core.ConstraintUnique, Columns: []string{"a"}}},
	}
	_, err := c.CompileCreateTable(table)
	require.NoError(t, err)
	assert.Empty(t, table.Constraints[0].Name)
}

func TestCompileDropTable(t *testing.T) {
	p, err := newCompiler(t, "mysql", "").CompileDropTable("users")
	require.NoError(t, err)
	assert.Equal(t, plan.ModeDrop, p.Mode)
	assert.Equal(t, []string{"DROP TABLE `users`"}, p.SQLStatements())
	assert.Len(t, p.Warnings(), 1)

	_, err = newCompiler(t, "mysql", "").CompileDropTable(" ")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrInvalidIdentifier))
}

func blogSchema() []*core.Table {
	return []*core.Table{
		{
			Name: "posts",
			Columns: []*core.Column{
				{Name: "id", Type: core.TypeInteger, PrimaryKey: true},
				{Name: "user_id", Type: core.TypeInteger},
			},
			Constraints: []*core.Constraint{{
				Type: core.ConstraintForeignKey, Columns: []string{"user_id"},
				ReferencedTable: "users", ReferencedColumns: []string{"id"},
			}},
		},
		{
			Name:    "users",
			Columns: []*core.Column{{Name: "id", Type: core.TypeInteger, PrimaryKey: true}},
		},
	}
}

func TestCompileSchemaDefersForeignKeys(t *testing.T) {
	p, err := newCompiler(t, "postgresql", "").CompileSchema(blogSchema())
	require.NoError(t, err)
	assert.Equal(t, plan.ModeSchema, p.Mode)
	assert.Equal(t, []string{
		"CREATE TABLE \"users\" (\n  \"id\" integer NOT NULL CONSTRAINT \"users_pkey\" PRIMARY KEY\n)",
		"CREATE TABLE \"posts\" (\n  \"id\" integer NOT NULL CONSTRAINT \"posts_pkey\" PRIMARY KEY,\n  \"user_id\" integer NOT NULL\n)",
		`ALTER TABLE "posts" ADD CONSTRAINT "posts_user_id_foreign" FOREIGN KEY ("user_id") REFERENCES "users" ("id")`,
	}, p.SQLStatements())
	assert.Equal(t, []string{"foreign keys are added after table creation to avoid dependency issues"}, p.InfoNotes())
}

func TestCompileSchemaKeepsForeignKeysInlineOnSQLite(t *testing.T) {
	p, err := newCompiler(t, "sqlite", "").CompileSchema(blogSchema())
	require.NoError(t, err)
	stmts := p.SQLStatements()
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[0], `CREATE TABLE "users"`)
	assert.Contains(t, stmts[1], `CONSTRAINT "posts_user_id_foreign" FOREIGN KEY ("user_id") REFERENCES "users" ("id")`)
	assert.Empty(t, p.InfoNotes())
}

func TestCompileSchemaCycleOnSQLite(t *testing.T) {
	tables := []*core.Table{
		{
			Name:        "a",
			Columns:     []*core.Column{{Name: "id", Type: core.TypeInteger, PrimaryKey: true}, {Name: "b_id", Type: core.TypeInteger, Nullable: true}},
			Constraints: []*core.Constraint{{Type: core.ConstraintForeignKey, Columns: []string{"b_id"}, ReferencedTable: "b", ReferencedColumns: []string{"id"}}},
		},
		{
			Name:        "b",
			Columns:     []*core.Column{{Name: "id", Type: core.TypeInteger, PrimaryKey: true}, {Name: "a_id", Type: core.TypeInteger, Nullable: true}},
			Constraints: []*core.Constraint{{Type: core.ConstraintForeignKey, Columns: []string{"a_id"}, ReferencedTable: "a", ReferencedColumns: []string{"id"}}},
		},
	}
	p, err := newCompiler(t, "sqlite", "").CompileSchema(tables)
	require.NoError(t, err)
	require.Len(t, p.Statements, 2)
	assert.Contains(t, p.Statements[0].SQL, `CREATE TABLE "a"`)
	assert.Equal(t, []string{"circular foreign keys between a, b; tables are created in declaration order"}, p.Warnings())

	p, err = newCompiler(t, "postgresql", "").CompileSchema(tables)
	require.NoError(t, err)
	assert.Len(t, p.Statements, 4)
	assert.Empty(t, p.Warnings())
}

func TestCompileSchemaRejectsDuplicates(t *testing.T) {
	tables := blogSchema()
	tables = append(tables, &core.Table{Name: "USERS", Columns: []*core.Column{{Name: "id", Type: core.TypeInteger}}})
	_, err := newCompiler(t, "postgresql", "").CompileSchema(tables)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrNameCollision))

	_, err = newCompiler(t, "postgresql", "").CompileSchema(nil)
	require.Error(t, err)
}

func TestConcurrentCompilation(t *testing.T) {
	c := newCompiler(t, "postgresql", "")
	request := func(i int) *core.AlterationRequest {
		return &core.AlterationRequest{
			Table: fmt.Sprintf("table_%d", i),
			Operations: []core.Operation{
				core.AddColumn{Column: &core.Column{Name: "bio", Type: core.TypeText, Nullable: true, Comment: strPtr("bio")}},
				core.AddIndex{Index: &core.Index{Columns: []string{"bio"}}},
			},
		}
	}

	const n = 32
	want := make([][]string, n)
	for i := range n {
		p, err := c.CompileAlteration(request(i))
		require.NoError(t, err)
		want[i] = p.SQLStatements()
	}

	got := make([][]string, n)
	var g errgroup.Group
	for i := range n {
		g.Go(func() error {
			p, err := c.CompileAlteration(request(i))
			if err != nil {
				return err
			}
			got[i] = p.SQLStatements()
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, want, got)
}
