package parser

import (
	"errors"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemac/internal/core"
)

func testdataPath(file string) string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "testdata", file)
}

func TestParseFileTOMLAndYAMLAgree(t *testing.T) {
	fromTOML, err := ParseFile(testdataPath("schema.toml"))
	require.NoError(t, err)
	fromYAML, err := ParseFile(testdataPath("schema.yaml"))
	require.NoError(t, err)

	assert.Equal(t, fromTOML, fromYAML)
}

func TestParseFileSchema(t *testing.T) {
	doc, err := ParseFile(testdataPath("schema.toml"))
	require.NoError(t, err)

	assert.Equal(t, "shop", doc.Name)
	assert.Equal(t, "postgresql", doc.Dialect)
	assert.Equal(t, "15.3", doc.Version)
	assert.Equal(t, []string{"sessions"}, doc.DropTables)
	require.Len(t, doc.Tables, 2)

	users := doc.FindTable("users")
	require.NotNil(t, users)
	assert.Equal(t, "registered users", users.Comment)
	assert.Equal(t, []string{"id", "email", "status", "balance", "bio", "created_at", "updated_at"}, users.ColumnNames())

	id := users.FindColumn("id")
	assert.Equal(t, core.TypeBigInt, id.Type)
	assert.True(t, id.PrimaryKey)
	assert.True(t, id.AutoIncrement)

	assert.Equal(t, 255, users.FindColumn("email").Length)

	status := users.FindColumn("status")
	require.NotNil(t, status.Enum)
	assert.Equal(t, []string{"active", "banned"}, status.Enum.Values)
	assert.True(t, status.Enum.Native)
	assert.Equal(t, "user_status", status.Enum.TypeName)
	assert.Equal(t, "active", status.Default.Value)

	balance := users.FindColumn("balance")
	assert.Equal(t, 10, *balance.Precision)
	assert.Equal(t, 2, *balance.Scale)
	assert.Equal(t, int64(0), balance.Default.Value)

	bio := users.FindColumn("bio")
	assert.True(t, bio.Nullable)
	require.NotNil(t, bio.Comment)
	assert.Equal(t, "free text", *bio.Comment)

	created := users.FindColumn("created_at")
	assert.Equal(t, core.TypeTimestamp, created.Type)
	assert.Equal(t, "CURRENT_TIMESTAMP", created.Default.Expr)

	require.Len(t, users.Constraints, 1)
	assert.Equal(t, core.ConstraintUnique, users.Constraints[0].Type)
	assert.Equal(t, []string{"email"}, users.Constraints[0].Columns)
	require.Len(t, users.Indexes, 1)
	assert.Equal(t, []string{"status"}, users.Indexes[0].Columns)

	orders := doc.FindTable("orders")
	require.NotNil(t, orders)
	require.Len(t, orders.Constraints, 2)
	assert.Equal(t, "orders_positive_id", orders.Constraints[0].Name)
	fk := orders.Constraints[1]
	assert.Equal(t, core.ConstraintForeignKey, fk.Type)
	assert.Equal(t, "users", fk.ReferencedTable)
	assert.Equal(t, []string{"id"}, fk.ReferencedColumns)
	assert.Equal(t, core.RefActionCascade, fk.OnDelete)

	placed := orders.FindColumn("placed_at")
	assert.False(t, placed.Timestamp.WithTimezone())
	assert.Equal(t, 3, *placed.Timestamp.Precision)
	assert.True(t, placed.Default.IsExpr())

	require.NoError(t, users.Validate())
	require.NoError(t, orders.Validate())
}

func TestParseFileAlterations(t *testing.T) {
	doc, err := ParseFile(testdataPath("schema.yaml"))
	require.NoError(t, err)

	require.Len(t, doc.Alterations, 1)
	req := doc.Alterations[0]
	assert.Equal(t, "people", req.Table)
	require.NotNil(t, req.Current)
	assert.Same(t, doc.FindCurrent("people"), req.Current)
	assert.Equal(t, []core.OperationKind{
		core.OpRenameColumn,
		core.OpAddColumn,
		core.OpAddConstraint,
		core.OpSetComment,
		core.OpDropConstraint,
	}, req.Kinds())

	rename := req.Operations[0].(core.RenameColumn)
	assert.Equal(t, "name", rename.From)
	assert.Equal(t, "full_name", rename.To)

	unique := req.Operations[2].(core.AddConstraint)
	assert.Equal(t, core.ConstraintUnique, unique.Constraint.Type)
	assert.Equal(t, []string{"nick"}, unique.Constraint.Columns)

	comment := req.Operations[3].(core.SetComment)
	assert.Empty(t, comment.Column)
	require.NotNil(t, comment.Comment)
	assert.Equal(t, "people we know", *comment.Comment)

	drop := req.Operations[4].(core.DropConstraint)
	assert.Empty(t, drop.Name)
	assert.Equal(t, core.ConstraintUnique, drop.Type)
	assert.Equal(t, []string{"legacy"}, drop.Columns)
}

func TestParseFileSQLDump(t *testing.T) {
	doc, err := ParseFile(testdataPath("dump.sql"))
	require.NoError(t, err)

	assert.Equal(t, "mysql", doc.Dialect)
	assert.Empty(t, doc.Tables)
	require.Len(t, doc.Current, 1)

	people := doc.FindCurrent("people")
	require.NotNil(t, people)
	assert.Equal(t, []string{"id", "name", "age"}, people.ColumnNames())
	assert.True(t, people.FindColumn("id").PrimaryKey)
	assert.Equal(t, 100, people.FindColumn("name").Length)
	assert.True(t, people.FindColumn("age").Nullable)
	require.NotNil(t, people.FindIndex("people_name_index"))
}

func TestParseFileUnsupportedFormat(t *testing.T) {
	_, err := ParseFile("schema.json")
	require.Error(t, err)

	var formatErr *UnsupportedFormatError
	require.True(t, errors.As(err, &formatErr))
	assert.Equal(t, "schema.json", formatErr.Path)
	assert.Equal(t, "unsupported file format: schema.json", err.Error())
}

func TestForPath(t *testing.T) {
	tests := []struct {
		path    string
		wantErr bool
	}{
		{"a.toml", false},
		{"a.TOML", false},
		{"a.yaml", false},
		{"a.yml", false},
		{"a.sql", true},
		{"a", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			p, err := ForPath(tt.path)
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, p)
		})
	}
}

func TestParseFileMissing(t *testing.T) {
	_, err := ParseFile(testdataPath("missing.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "toml: open file")
}
