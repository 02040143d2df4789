// Package mysql reads MySQL CREATE TABLE statements into table specs, so a
// schema dump can describe the current state of existing tables.
package mysql

import (
	"fmt"
	"strings"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	"github.com/pingcap/tidb/pkg/parser/format"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"

	"schemac/internal/core"
)

// Parser wraps the TiDB SQL parser. It is not safe for concurrent use.
type Parser struct {
	p *parser.Parser
}

// NewParser creates a MySQL DDL parser.
func NewParser() *Parser {
	return &Parser{p: parser.New()}
}

// Parse reads every CREATE TABLE statement in sql. Other statements are
// ignored.
func (p *Parser) Parse(sql string) ([]*core.Table, error) {
	stmtNodes, _, err := p.p.Parse(sql, "", "")
	if err != nil {
		return nil, fmt.Errorf("mysql: parse error: %w", err)
	}

	tables := make([]*core.Table, 0, len(stmtNodes))
	for _, stmtNode := range stmtNodes {
		createStmt, ok := stmtNode.(*ast.CreateTableStmt)
		if !ok {
			continue
		}
		table, err := p.convertCreateTable(createStmt)
		if err != nil {
			return nil, fmt.Errorf("mysql: table %q: %w", createStmt.Table.Name.O, err)
		}
		tables = append(tables, table)
	}
	return tables, nil
}

func (p *Parser) convertCreateTable(stmt *ast.CreateTableStmt) (*core.Table, error) {
	table := &core.Table{
		Name:        stmt.Table.Name.O,
		Columns:     make([]*core.Column, 0, len(stmt.Cols)),
		Constraints: []*core.Constraint{},
		Indexes:     []*core.Index{},
	}

	for _, opt := range stmt.Options {
		if opt.Tp == ast.TableOptionComment {
			table.Comment = opt.StrValue
		}
	}

	if err := p.parseColumns(stmt.Cols, table); err != nil {
		return nil, err
	}
	p.parseConstraints(stmt.Constraints, table)
	return table, nil
}

// exprToString restores expr as SQL text. String literals come back
// unquoted with literal set.
func (p *Parser) exprToString(expr ast.ExprNode) (s string, literal bool, ok bool) {
	if expr == nil {
		return "", false, false
	}

	var sb strings.Builder
	restoreCtx := format.NewRestoreCtx(format.DefaultRestoreFlags, &sb)
	if err := expr.Restore(restoreCtx); err != nil {
		return "", false, false
	}
	s = strings.TrimSpace(sb.String())

	if unquoted, isLiteral := tryUnquoteSQLStringLiteral(s); isLiteral {
		return unquoted, true, true
	}
	return s, false, true
}

func tryUnquoteSQLStringLiteral(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[len(s)-1] != '\'' {
		return "", false
	}

	if s[0] == '\'' {
		return strings.ReplaceAll(s[1:len(s)-1], "''", "'"), true
	}

	q := strings.IndexByte(s, '\'')
	if q <= 0 {
		return "", false
	}
	prefix := strings.TrimSpace(s[:q])
	if !isSQLStringIntroducer(prefix) {
		return "", false
	}
	return strings.ReplaceAll(s[q+1:len(s)-1], "''", "'"), true
}

// isSQLStringIntroducer matches N and charset introducers such as _utf8mb4.
func isSQLStringIntroducer(prefix string) bool {
	if strings.EqualFold(prefix, "N") {
		return true
	}
	if !strings.HasPrefix(prefix, "_") || len(prefix) == 1 {
		return false
	}
	for _, r := range prefix[1:] {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '_' {
			return false
		}
	}
	return true
}
