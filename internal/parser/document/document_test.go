package document

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemac/internal/core"
)

func intPtr(v int) *int { return &v }

func TestResolveColumnType(t *testing.T) {
	tests := []struct {
		name      string
		in        Column
		tag       core.TypeTag
		length    int
		precision *int
		scale     *int
		wantErr   string
	}{
		{name: "int alias", in: Column{Type: "INT"}, tag: core.TypeInteger},
		{name: "varchar", in: Column{Type: "varchar(64)"}, tag: core.TypeString, length: 64},
		{name: "string key wins", in: Column{Type: "string(64)", Length: 10}, tag: core.TypeString, length: 10},
		{name: "decimal", in: Column{Type: "decimal(8, 2)"}, tag: core.TypeDecimal, precision: intPtr(8), scale: intPtr(2)},
		{name: "decimal scale key", in: Column{Type: "decimal", Scale: intPtr(4)}, tag: core.TypeDecimal, scale: intPtr(4)},
		{name: "double precision", in: Column{Type: "double precision"}, tag: core.TypeFloat},
		{name: "bit", in: Column{Type: "bit(3)"}, tag: core.TypeBit, length: 3},
		{name: "blob", in: Column{Type: "blob"}, tag: core.TypeBinary},
		{name: "empty", in: Column{Type: " "}, wantErr: "type is empty"},
		{name: "unknown", in: Column{Type: "money"}, wantErr: `unknown type "money"`},
		{name: "unparsable", in: Column{Type: "decimal(8,"}, wantErr: "cannot parse type"},
		{name: "arguments not allowed", in: Column{Type: "json(4)"}, wantErr: "takes no arguments"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col := &core.Column{}
			err := resolveColumnType(col, &tt.in)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.tag, col.Type)
			assert.Equal(t, tt.length, col.Length)
			assert.Equal(t, tt.precision, col.Precision)
			assert.Equal(t, tt.scale, col.Scale)
		})
	}
}

func TestConvertTimestampOptions(t *testing.T) {
	c := newConverter(&File{})

	col, err := c.convertColumn(&Column{Name: "at", Type: "timestamp(6)", WithoutTimezone: true})
	require.NoError(t, err)
	assert.False(t, col.Timestamp.WithTimezone())
	assert.Equal(t, 6, *col.Timestamp.Precision)

	col, err = c.convertColumn(&Column{Name: "at", Type: "timestamptz", TimestampPrecision: intPtr(0)})
	require.NoError(t, err)
	assert.True(t, col.Timestamp.WithTimezone())
	assert.Equal(t, 0, *col.Timestamp.Precision)

	col, err = c.convertColumn(&Column{Name: "at", Type: "timestamp"})
	require.NoError(t, err)
	assert.Nil(t, col.Timestamp)
}

func TestNormalizeDefault(t *testing.T) {
	tests := []struct {
		in   any
		want any
	}{
		{"x", "x"},
		{true, true},
		{int64(3), int64(3)},
		{3, int64(3)},
		{2.5, 2.5},
		{float32(0.5), 0.5},
		{uint64(7), int64(7)},
		{uint64(math.MaxInt64), int64(math.MaxInt64)},
	}
	for _, tt := range tests {
		got, err := normalizeDefault(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := normalizeDefault([]any{1})
	require.Error(t, err)

	_, err = normalizeDefault(uint64(math.MaxUint64))
	require.ErrorContains(t, err, "out of range")
	_, err = normalizeDefault(uint64(math.MaxInt64) + 1)
	require.ErrorContains(t, err, "out of range")
}

func TestConvertDefaultExprWins(t *testing.T) {
	col, err := newConverter(&File{}).convertColumn(&Column{Name: "a", Type: "date", Default: "x", DefaultExpr: " CURRENT_DATE "})
	require.NoError(t, err)
	assert.Equal(t, &core.Default{Expr: "CURRENT_DATE"}, col.Default)
}

func TestValidationRules(t *testing.T) {
	f := &File{
		Validation: &Validation{MaxTableNameLength: 5, MaxColumnNameLength: 3, AllowedNamePattern: "^[a-z]+$"},
		Tables:     []Table{{Name: "users", Columns: []Column{{Name: "id", Type: "int"}}}},
	}
	_, err := Convert(f)
	require.NoError(t, err)

	f.Tables[0].Name = "people"
	_, err = Convert(f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds maximum length 5")

	f.Tables[0].Name = "users"
	f.Tables[0].Columns[0].Name = "id_"
	_, err = Convert(f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match allowed pattern")

	f.Validation.AllowedNamePattern = "("
	_, err = Convert(f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid allowed_name_pattern")
}

func TestDuplicateTables(t *testing.T) {
	_, err := Convert(&File{Tables: []Table{
		{Name: "a", Columns: []Column{{Name: "id", Type: "int"}}},
		{Name: "A", Columns: []Column{{Name: "id", Type: "int"}}},
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate table "A"`)
}

func TestTimestampsInjection(t *testing.T) {
	doc, err := Convert(&File{Tables: []Table{{
		Name: "t",
		Columns: []Column{
			{Name: "id", Type: "int"},
			{Name: "made", Type: "timestamp"},
		},
		Timestamps: &Timestamps{Enabled: true, CreatedColumn: "made"},
	}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "made", "updated_at"}, doc.Tables[0].ColumnNames())
	assert.Nil(t, doc.Tables[0].FindColumn("made").Default, "declared column is left alone")
	assert.Equal(t, "CURRENT_TIMESTAMP", doc.Tables[0].FindColumn("updated_at").Default.Expr)
}

func TestSynthesizeConstraints(t *testing.T) {
	table := &core.Table{Name: "t"}
	err := synthesizeConstraints(table, []Column{
		{Name: "a", Unique: true, Check: "a > 0"},
		{Name: "b", References: "other.id", OnUpdate: "set null"},
	})
	require.NoError(t, err)
	require.Len(t, table.Constraints, 3)
	assert.Equal(t, core.ConstraintUnique, table.Constraints[0].Type)
	assert.Equal(t, core.ConstraintCheck, table.Constraints[1].Type)
	assert.Equal(t, "a > 0", table.Constraints[1].CheckExpression)
	assert.Equal(t, core.ConstraintForeignKey, table.Constraints[2].Type)
	assert.Equal(t, core.RefActionSetNull, table.Constraints[2].OnUpdate)

	for _, bad := range []Column{
		{Name: "c", References: "nodot"},
		{Name: "c", OnDelete: "cascade"},
		{Name: "c", References: "o.id", OnDelete: "explode"},
	} {
		require.Error(t, synthesizeConstraints(&core.Table{}, []Column{bad}))
	}
}

func TestConvertAlterationErrors(t *testing.T) {
	tests := []struct {
		name    string
		alt     Alteration
		wantErr string
	}{
		{"no table", Alteration{Operations: []Operation{{Op: "drop_column", Name: "a"}}}, "table name is empty"},
		{"no operations", Alteration{Table: "t"}, "no operations"},
		{"unknown op", Alteration{Table: "t", Operations: []Operation{{Op: "truncate"}}}, `unknown operation "truncate"`},
		{"add column without column", Alteration{Table: "t", Operations: []Operation{{Op: "add_column"}}}, "column is required"},
		{"alter without column", Alteration{Table: "t", Operations: []Operation{{Op: "alter_column_type"}}}, "column is required"},
		{"add constraint without body", Alteration{Table: "t", Operations: []Operation{{Op: "add_constraint"}}}, "constraint is required"},
		{"add index without body", Alteration{Table: "t", Operations: []Operation{{Op: "add_index"}}}, "index is required"},
		{"bad drop type", Alteration{Table: "t", Operations: []Operation{{Op: "drop_constraint", Type: "x"}}}, `unknown constraint type "x"`},
		{"empty index", Alteration{Table: "t", Operations: []Operation{{Op: "add_index", Index: &Index{}}}}, "has no columns"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Convert(&File{Alterations: []Alteration{tt.alt}})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConvertAlterationOperations(t *testing.T) {
	comment := "hi"
	doc, err := Convert(&File{
		Current: []Table{{Name: "T", Columns: []Column{{Name: "id", Type: "int"}}}},
		Alterations: []Alteration{{
			Table: "t",
			Operations: []Operation{
				{Op: "ADD_COLUMN", Column: &Column{Name: "a", Type: "int", References: "u.id"}},
				{Op: "drop_column", Name: "b"},
				{Op: "alter_column_type", Column: &Column{Name: "c", Type: "bigint"}},
				{Op: "add_constraint", Constraint: &Constraint{Type: "pk", Columns: []string{"id"}}},
				{Op: "set_comment", Name: "a", Comment: &comment},
				{Op: "add_index", Index: &Index{Columns: []string{"a"}, Unique: true}},
				{Op: "drop_index", Columns: []string{"d"}},
			},
		}},
	})
	require.NoError(t, err)
	req := doc.Alterations[0]
	assert.NotNil(t, req.Current, "current state is matched case-insensitively")
	assert.Equal(t, []core.OperationKind{
		core.OpAddColumn, core.OpAddConstraint, core.OpDropColumn, core.OpAlterColumnType,
		core.OpAddConstraint, core.OpSetComment, core.OpAddIndex, core.OpDropIndex,
	}, req.Kinds())

	fk := req.Operations[1].(core.AddConstraint).Constraint
	assert.Equal(t, core.ConstraintForeignKey, fk.Type)
	assert.Equal(t, "u", fk.ReferencedTable)
	assert.Equal(t, core.ConstraintPrimaryKey, req.Operations[4].(core.AddConstraint).Constraint.Type)
	assert.True(t, req.Operations[6].(core.AddIndex).Index.Unique)
}
