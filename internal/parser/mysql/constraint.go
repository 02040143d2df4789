package mysql

import (
	"strings"

	"github.com/pingcap/tidb/pkg/parser/ast"

	"schemac/internal/core"
)

func (p *Parser) parseConstraints(constraints []*ast.Constraint, table *core.Table) {
	for _, constraint := range constraints {
		if constraint == nil {
			continue
		}
		p.applyConstraint(table, constraint, constraintColumns(constraint))
	}
}

func constraintColumns(constraint *ast.Constraint) []string {
	columns := make([]string, 0, len(constraint.Keys))
	for _, key := range constraint.Keys {
		if key.Column != nil {
			columns = append(columns, key.Column.Name.O)
		}
	}
	return columns
}

func (p *Parser) applyConstraint(table *core.Table, constraint *ast.Constraint, columns []string) {
	switch constraint.Tp {
	case ast.ConstraintPrimaryKey:
		applyPrimaryKey(table, columns)
	case ast.ConstraintUniq, ast.ConstraintUniqKey, ast.ConstraintUniqIndex:
		table.Constraints = append(table.Constraints, &core.Constraint{
			Name:    constraint.Name,
			Type:    core.ConstraintUnique,
			Columns: columns,
		})
	case ast.ConstraintForeignKey:
		table.Constraints = append(table.Constraints, foreignKey(constraint.Name, columns, constraint.Refer))
	case ast.ConstraintIndex, ast.ConstraintKey, ast.ConstraintFulltext:
		table.Indexes = append(table.Indexes, &core.Index{
			Name:    constraint.Name,
			Columns: columns,
		})
	case ast.ConstraintCheck:
		c := &core.Constraint{
			Name:    constraint.Name,
			Type:    core.ConstraintCheck,
			Columns: columns,
		}
		if s, _, ok := p.exprToString(constraint.Expr); ok {
			c.CheckExpression = s
		}
		table.Constraints = append(table.Constraints, c)
	}
}

// applyPrimaryKey marks a single key column inline and keeps a composite
// key as a table constraint. MySQL always names the key PRIMARY, so the
// constraint stays unnamed.
func applyPrimaryKey(table *core.Table, columns []string) {
	if len(columns) == 1 {
		if col := table.FindColumn(columns[0]); col != nil {
			col.PrimaryKey = true
			col.Nullable = false
			return
		}
	}
	for _, name := range columns {
		if col := table.FindColumn(name); col != nil {
			col.Nullable = false
		}
	}
	table.Constraints = append(table.Constraints, &core.Constraint{
		Type:    core.ConstraintPrimaryKey,
		Columns: columns,
	})
}

func foreignKey(name string, columns []string, refer *ast.ReferenceDef) *core.Constraint {
	c := &core.Constraint{
		Name:    name,
		Type:    core.ConstraintForeignKey,
		Columns: columns,
	}
	if refer == nil {
		return c
	}
	c.ReferencedTable = refer.Table.Name.O
	for _, spec := range refer.IndexPartSpecifications {
		if spec.Column != nil {
			c.ReferencedColumns = append(c.ReferencedColumns, spec.Column.Name.O)
		}
	}
	if refer.OnDelete != nil {
		c.OnDelete = referentialAction(refer.OnDelete.ReferOpt)
	}
	if refer.OnUpdate != nil {
		c.OnUpdate = referentialAction(refer.OnUpdate.ReferOpt)
	}
	return c
}

func referentialAction(opt ast.ReferOptionType) core.ReferentialAction {
	if opt == ast.ReferOptionNoOption {
		return core.RefActionNone
	}
	a, ok := core.ParseReferentialAction(strings.ToUpper(opt.String()))
	if !ok {
		return core.RefActionNone
	}
	return a
}
