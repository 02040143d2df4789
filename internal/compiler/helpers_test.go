package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"schemac/internal/core"
	"schemac/internal/dialect"
	_ "schemac/internal/dialect/mssql"
	_ "schemac/internal/dialect/mysql"
	_ "schemac/internal/dialect/postgres"
	_ "schemac/internal/dialect/sqlite"
)

func newCompiler(t *testing.T, name, version string) *Compiler {
	t.Helper()
	d, err := dialect.Get(name, version)
	require.NoError(t, err)
	return New(d)
}

func strPtr(s string) *string { return &s }

func intPtr(v int) *int { return &v }

// fkTable is a table with an id key and a nullable integer column that
// scenarios point at t3.
func fkTable() *core.Table {
	return &core.Table{
		Name: "t",
		Columns: []*core.Column{
			{Name: "id", Type: core.TypeInteger, PrimaryKey: true},
			{Name: "fkey_three", Type: core.TypeInteger, Nullable: true},
		},
	}
}

func fkToT3() *core.Constraint {
	return &core.Constraint{
		Name:              "fk_x",
		Type:              core.ConstraintForeignKey,
		Columns:           []string{"fkey_three"},
		ReferencedTable:   "t3",
		ReferencedColumns: []string{"id"},
	}
}
