package mysql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pingcap/tidb/pkg/parser/ast"
	tmysql "github.com/pingcap/tidb/pkg/parser/mysql"
	"github.com/pingcap/tidb/pkg/parser/types"

	"schemac/internal/core"
)

func (p *Parser) parseColumns(cols []*ast.ColumnDef, table *core.Table) error {
	for _, colDef := range cols {
		col, err := newColumnFromDef(colDef)
		if err != nil {
			return err
		}
		for _, opt := range colDef.Options {
			p.applyColumnOption(table, col, opt)
		}
		table.Columns = append(table.Columns, col)
	}
	return nil
}

func newColumnFromDef(colDef *ast.ColumnDef) (*core.Column, error) {
	col := &core.Column{
		Name:      colDef.Name.Name.O,
		Nullable:  true,
		Collation: colDef.Tp.GetCollate(),
	}
	if err := resolveType(col, colDef.Tp); err != nil {
		return nil, fmt.Errorf("column %q: %w", col.Name, err)
	}
	return col, nil
}

// resolveType maps a MySQL field type onto a semantic type tag.
func resolveType(col *core.Column, tp *types.FieldType) error {
	flen := tp.GetFlen()
	decimal := tp.GetDecimal()
	col.Unsigned = tmysql.HasUnsignedFlag(tp.GetFlag())

	switch tp.GetType() {
	case tmysql.TypeTiny:
		if flen == 1 && !col.Unsigned {
			col.Type = core.TypeBoolean
			return nil
		}
		col.Type = core.TypeInteger
	case tmysql.TypeShort, tmysql.TypeInt24, tmysql.TypeLong:
		col.Type = core.TypeInteger
	case tmysql.TypeLonglong:
		col.Type = core.TypeBigInt
	case tmysql.TypeFloat, tmysql.TypeDouble:
		col.Type = core.TypeFloat
	case tmysql.TypeNewDecimal:
		col.Type = core.TypeDecimal
		if flen > 0 {
			col.Precision = &flen
			if decimal >= 0 {
				col.Scale = &decimal
			}
		}
	case tmysql.TypeVarchar, tmysql.TypeVarString, tmysql.TypeString:
		col.Type = core.TypeString
		if isBinary(tp) {
			col.Type = core.TypeBinary
		}
		if flen > 0 {
			col.Length = flen
		}
	case tmysql.TypeTinyBlob, tmysql.TypeBlob, tmysql.TypeMediumBlob, tmysql.TypeLongBlob:
		col.Type = core.TypeText
		if isBinary(tp) {
			col.Type = core.TypeBinary
		}
	case tmysql.TypeJSON:
		col.Type = core.TypeJSON
	case tmysql.TypeDate:
		col.Type = core.TypeDate
	case tmysql.TypeTimestamp, tmysql.TypeDatetime:
		col.Type = core.TypeTimestamp
		col.Timestamp = core.TimestampWithoutTZ(tp.GetType() == tmysql.TypeDatetime)
		if decimal > 0 {
			col.Timestamp.Precision = &decimal
		}
	case tmysql.TypeEnum:
		col.Type = core.TypeEnum
		col.Enum = &core.EnumOptions{Values: append([]string(nil), tp.GetElems()...)}
	case tmysql.TypeBit:
		col.Type = core.TypeBit
		if flen > 0 {
			col.Length = flen
		}
	default:
		return fmt.Errorf("unsupported column type %s", tp.String())
	}
	return nil
}

func isBinary(tp *types.FieldType) bool {
	return tp.GetCharset() == "binary" || tmysql.HasBinaryFlag(tp.GetFlag())
}

func (p *Parser) applyColumnOption(table *core.Table, col *core.Column, opt *ast.ColumnOption) {
	if opt == nil {
		return
	}

	switch opt.Tp {
	case ast.ColumnOptionNotNull:
		col.Nullable = false
	case ast.ColumnOptionNull:
		col.Nullable = true
	case ast.ColumnOptionPrimaryKey:
		col.PrimaryKey = true
		col.Nullable = false
	case ast.ColumnOptionAutoIncrement:
		col.AutoIncrement = true
	case ast.ColumnOptionDefaultValue:
		col.Default = p.defaultFromExpr(opt.Expr)
	case ast.ColumnOptionUniqKey:
		table.Constraints = append(table.Constraints, &core.Constraint{
			Type:    core.ConstraintUnique,
			Columns: []string{col.Name},
		})
	case ast.ColumnOptionComment:
		if s, _, ok := p.exprToString(opt.Expr); ok {
			col.Comment = &s
		}
	case ast.ColumnOptionCollate:
		if opt.StrValue != "" {
			col.Collation = opt.StrValue
		}
	case ast.ColumnOptionCheck:
		if s, _, ok := p.exprToString(opt.Expr); ok {
			table.Constraints = append(table.Constraints, &core.Constraint{
				Type:            core.ConstraintCheck,
				Columns:         []string{col.Name},
				CheckExpression: s,
			})
		}
	case ast.ColumnOptionReference:
		table.Constraints = append(table.Constraints, foreignKey("", []string{col.Name}, opt.Refer))
	}
}

// defaultFromExpr turns a DEFAULT clause into a literal or an expression.
func (p *Parser) defaultFromExpr(expr ast.ExprNode) *core.Default {
	s, literal, ok := p.exprToString(expr)
	if !ok {
		return nil
	}
	if literal {
		return &core.Default{Value: s}
	}
	switch strings.ToUpper(s) {
	case "NULL":
		return nil
	case "TRUE":
		return &core.Default{Value: true}
	case "FALSE":
		return &core.Default{Value: false}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &core.Default{Value: n}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return &core.Default{Value: f}
	}
	return &core.Default{Expr: strings.TrimSuffix(s, "()")}
}
