package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
func boolPtr(v bool) *bool    { return &v }

func TestTableFindHelpers(t *testing.T) {
	table := &Table{
		Name: "users",
		Columns: []*Column{
			{Name: "id", Type: TypeBigInt},
			{Name: "Email", Type: TypeString},
		},
		Constraints: []*Constraint{
			{Name: "users_pkey", Type: ConstraintPrimaryKey, Columns: []string{"id"}},
		},
		Indexes: []*Index{{Name: "users_email_index", Columns: []string{"Email"}}},
	}

	assert.NotNil(t, table.FindColumn("email"))
	assert.Nil(t, table.FindColumn("missing"))
	assert.Equal(t, "users_pkey", table.FindConstraint("USERS_PKEY").Name)
	assert.NotNil(t, table.FindIndex("users_email_index"))
	assert.Equal(t, ConstraintPrimaryKey, table.PrimaryKey().Type)
	assert.Equal(t, []string{"id", "Email"}, table.ColumnNames())
	assert.True(t, table.Indexes[0].References("email"))
}

func TestTableCloneIsDeep(t *testing.T) {
	orig := &Table{
		Name: "orders",
		Columns: []*Column{
			{
				Name:      "amount",
				Type:      TypeDecimal,
				Precision: intPtr(8),
				Scale:     intPtr(2),
				Comment:   strPtr("total"),
				Default:   &Default{Value: "0"},
			},
			{
				Name:      "created_at",
				Type:      TypeTimestamp,
				Timestamp: &TimestampOptions{UseTZ: boolPtr(false), Precision: intPtr(3)},
			},
			{Name: "state", Type: TypeEnum, Enum: &EnumOptions{Values: []string{"new", "paid"}}},
		},
		Constraints: []*Constraint{{Type: ConstraintUnique, Columns: []string{"amount"}}},
		Indexes:     []*Index{{Columns: []string{"state"}}},
	}

	clone := orig.Clone()
	require.NotNil(t, clone)

	*clone.Columns[0].Precision = 10
	*clone.Columns[0].Comment = "changed"
	clone.Columns[0].Default.Value = "1"
	*clone.Columns[1].Timestamp.Precision = 6
	clone.Columns[2].Enum.Values[0] = "draft"
	clone.Constraints[0].Columns[0] = "other"
	clone.Indexes[0].Columns[0] = "other"

	assert.Equal(t, 8, *orig.Columns[0].Precision)
	assert.Equal(t, "total", *orig.Columns[0].Comment)
	assert.Equal(t, "0", orig.Columns[0].Default.Value)
	assert.Equal(t, 3, *orig.Columns[1].Timestamp.Precision)
	assert.Equal(t, "new", orig.Columns[2].Enum.Values[0])
	assert.Equal(t, "amount", orig.Constraints[0].Columns[0])
	assert.Equal(t, "state", orig.Indexes[0].Columns[0])

	assert.Nil(t, (*Table)(nil).Clone())
}

func TestTimestampOptions(t *testing.T) {
	var unset *TimestampOptions
	assert.True(t, unset.WithTimezone())
	assert.True(t, (&TimestampOptions{}).WithTimezone())
	assert.False(t, TimestampWithoutTZ(true).WithTimezone())
	assert.True(t, TimestampWithoutTZ(false).WithTimezone())
}

func TestParseConstraintType(t *testing.T) {
	tests := []struct {
		in   string
		want ConstraintType
		ok   bool
	}{
		{"pk", ConstraintPrimaryKey, true},
		{"primary_key", ConstraintPrimaryKey, true},
		{"FOREIGN KEY", ConstraintForeignKey, true},
		{"fk", ConstraintForeignKey, true},
		{"unique", ConstraintUnique, true},
		{"Check", ConstraintCheck, true},
		{"exclude", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseConstraintType(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseReferentialAction(t *testing.T) {
	got, ok := ParseReferentialAction("set_null")
	assert.True(t, ok)
	assert.Equal(t, RefActionSetNull, got)

	got, ok = ParseReferentialAction("")
	assert.True(t, ok)
	assert.Equal(t, RefActionNone, got)

	_, ok = ParseReferentialAction("explode")
	assert.False(t, ok)
}

func TestParseReferences(t *testing.T) {
	table, column, ok := ParseReferences("t3.id")
	require.True(t, ok)
	assert.Equal(t, "t3", table)
	assert.Equal(t, "id", column)

	table, column, ok = ParseReferences("app.users.id")
	require.True(t, ok)
	assert.Equal(t, "app.users", table)
	assert.Equal(t, "id", column)

	for _, bad := range []string{"", "users", ".id", "users."} {
		_, _, ok := ParseReferences(bad)
		assert.False(t, ok, bad)
	}
}

func TestOperationKindsAndTargets(t *testing.T) {
	req := &AlterationRequest{
		Table: "users",
		Operations: []Operation{
			AddColumn{Column: &Column{Name: "bio", Type: TypeText}},
			RenameColumn{From: "a", To: "b"},
			SetComment{Comment: strPtr("x")},
			DropIndex{Name: "users_bio_index"},
		},
	}
	assert.Equal(t, []OperationKind{OpAddColumn, OpRenameColumn, OpSetComment, OpDropIndex}, req.Kinds())
	assert.Equal(t, "bio", req.Operations[0].Target())
	assert.Equal(t, "a -> b", req.Operations[1].Target())
	assert.Equal(t, "table comment", req.Operations[2].Target())
	assert.Equal(t, "", AddColumn{}.Target())
}

func TestConstraintDependsOn(t *testing.T) {
	selfRef := &Constraint{Name: "n_parent_foreign", Type: ConstraintForeignKey, Columns: []string{"parent_code"},
		ReferencedTable: "N", ReferencedColumns: []string{"code"}}
	otherRef := &Constraint{Name: "n_owner_foreign", Type: ConstraintForeignKey, Columns: []string{"owner_id"},
		ReferencedTable: "owners", ReferencedColumns: []string{"code"}}
	check := &Constraint{Name: "n_paid_check", Type: ConstraintCheck, CheckExpression: "paid >= 0"}

	tests := []struct {
		name     string
		con      *Constraint
		column   string
		expected bool
	}{
		{name: "listed_column", con: selfRef, column: "parent_code", expected: true},
		{name: "self_reference_target", con: selfRef, column: "CODE", expected: true},
		{name: "other_table_target", con: otherRef, column: "code", expected: false},
		{name: "check_expression", con: check, column: "paid", expected: true},
		{name: "check_longer_word", con: check, column: "aid", expected: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.con.DependsOn("n", tt.column))
		})
	}
}

func TestExpressionColumnMatching(t *testing.T) {
	assert.True(t, MentionsColumn("price > 0 AND qty > 0", "QTY"))
	assert.False(t, MentionsColumn("unit_price > 0", "price"))
	assert.False(t, MentionsColumn("", "price"))
	assert.Equal(t, "cost > 0 AND unit_price > 0", RenameInExpression("price > 0 AND unit_price > 0", "price", "cost"))
}
