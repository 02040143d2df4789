package core

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestConstraintName(t *testing.T) {
	tests := []struct {
		name    string
		kind    ConstraintType
		columns []string
		expr    string
		want    string
	}{
		{"primary", ConstraintPrimaryKey, []string{"id"}, "", "users_pkey"},
		{"foreign", ConstraintForeignKey, []string{"fkey_three"}, "", "users_fkey_three_foreign"},
		{"unique composite", ConstraintUnique, []string{"email", "tenant_id"}, "", "users_email_tenant_id_unique"},
		{"check with column", ConstraintCheck, []string{"age"}, "age >= 0", "users_age_check"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConstraintName("users", tt.kind, tt.columns, tt.expr, 63))
		})
	}
}

func TestConstraintNameCheckWithoutColumnsHashesExpression(t *testing.T) {
	a := ConstraintName("users", ConstraintCheck, nil, "age >= 0", 63)
	b := ConstraintName("users", ConstraintCheck, nil, "age >= 0", 63)
	c := ConstraintName("users", ConstraintCheck, nil, "age > 0", 63)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.True(t, strings.HasPrefix(a, "users_"))
	assert.True(t, strings.HasSuffix(a, "_check"))
}

func TestIndexName(t *testing.T) {
	assert.Equal(t, "users_email_index", IndexName("users", []string{"email"}, false, 63))
	assert.Equal(t, "users_email_unique", IndexName("users", []string{"email"}, true, 63))
}

func TestFitIdentifier(t *testing.T) {
	assert.Equal(t, "short", FitIdentifier("short", 10))
	assert.Equal(t, "unlimited_name", FitIdentifier("unlimited_name", 0))

	long := strings.Repeat("a", 40) + "_" + strings.Repeat("b", 40)
	fitted := FitIdentifier(long, 64)
	assert.Len(t, fitted, 64)
	assert.True(t, strings.HasPrefix(fitted, strings.Repeat("a", 40)))
	assert.Equal(t, fitted, FitIdentifier(long, 64))

	other := strings.Repeat("a", 40) + "_" + strings.Repeat("c", 40)
	assert.NotEqual(t, fitted, FitIdentifier(other, 64))

	assert.Len(t, FitIdentifier(long, 8), 8)
}

func TestFitIdentifierKeepsRunesWhole(t *testing.T) {
	tests := []struct {
		name   string
		table  string
		maxLen int
	}{
		{name: "two_byte_runes", table: "a" + strings.Repeat("é", 40), maxLen: 63},
		{name: "three_byte_runes", table: strings.Repeat("表", 30), maxLen: 63},
		{name: "even_boundary", table: strings.Repeat("é", 40), maxLen: 64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ConstraintName(tt.table, ConstraintUnique, []string{"x"}, "", tt.maxLen)
			assert.True(t, utf8.ValidString(got), "%q", got)
			assert.LessOrEqual(t, len(got), tt.maxLen)
			assert.Equal(t, got, ConstraintName(tt.table, ConstraintUnique, []string{"x"}, "", tt.maxLen))
		})
	}
}

func TestRebuildTableName(t *testing.T) {
	users := RebuildTableName("users", 63)
	assert.True(t, strings.HasPrefix(users, "users__schemac_rebuild_"))
	assert.Equal(t, users, RebuildTableName("users", 63))
	assert.NotEqual(t, users, RebuildTableName("orders", 63))

	long := RebuildTableName(strings.Repeat("t", 60), 63)
	assert.LessOrEqual(t, len(long), 63)
	assert.NotEqual(t, long, RebuildTableName(strings.Repeat("t", 61), 63))
}

func TestDefaultConstraintName(t *testing.T) {
	assert.Equal(t, "DF_users_active", DefaultConstraintName("DF", "users", "active", 128))
}

func TestEscapeComment(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"bio text", "bio text"},
		{"it's", "it''s"},
		{"it''s", "it''s"},
		{"'''", "''''"},
		{"'", "''"},
		{"a'b'c", "a''b''c"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, EscapeComment(tt.in))
		})
	}
}

func TestEscapeCommentSinglePassOutputIsPairsOnly(t *testing.T) {
	once := EscapeComment("don't 'quote' me")
	assert.Equal(t, "don''t ''quote'' me", once)
	assert.Equal(t, once, EscapeComment(once))
}

func TestEscapeLiteral(t *testing.T) {
	assert.Equal(t, "it''''s", EscapeLiteral("it''s"))
	assert.Equal(t, "plain", EscapeLiteral("plain"))
}
