package document

import (
	"errors"
	"fmt"
	"strings"

	"schemac/internal/core"
)

// Alteration maps [[alterations]].
type Alteration struct {
	Table      string      `toml:"table" yaml:"table"`
	Operations []Operation `toml:"operations" yaml:"operations"`
}

// Operation maps [[alterations.operations]]. Op selects which of the
// remaining keys apply.
type Operation struct {
	Op string `toml:"op" yaml:"op"`

	// Name is the column for drop_column and set_comment (empty targets the
	// table), or the object name for drop_constraint and drop_index.
	Name string `toml:"name" yaml:"name"`
	From string `toml:"from" yaml:"from"`
	To   string `toml:"to" yaml:"to"`

	Column     *Column     `toml:"column" yaml:"column"`
	Constraint *Constraint `toml:"constraint" yaml:"constraint"`
	Index      *Index      `toml:"index" yaml:"index"`

	// Type, Columns and Unique derive the name of an unnamed drop.
	Type    string   `toml:"type" yaml:"type"`
	Columns []string `toml:"columns" yaml:"columns"`
	Unique  bool     `toml:"unique" yaml:"unique"`

	Comment *string `toml:"comment" yaml:"comment"`
}

var errNoOperations = errors.New("no operations")

func (c *converter) convertAlteration(a *Alteration, doc *Document) (*core.AlterationRequest, error) {
	if strings.TrimSpace(a.Table) == "" {
		return nil, errors.New("table name is empty")
	}
	if len(a.Operations) == 0 {
		return nil, errNoOperations
	}
	req := &core.AlterationRequest{
		Table:      strings.TrimSpace(a.Table),
		Current:    doc.FindCurrent(a.Table),
		Operations: make([]core.Operation, 0, len(a.Operations)),
	}
	for i := range a.Operations {
		ops, err := c.convertOperation(&a.Operations[i])
		if err != nil {
			return nil, fmt.Errorf("operation %d (%s): %w", i+1, a.Operations[i].Op, err)
		}
		req.Operations = append(req.Operations, ops...)
	}
	return req, nil
}

// convertOperation maps one raw operation. add_column may expand into
// several operations when the column carries constraint shorthands.
func (c *converter) convertOperation(o *Operation) ([]core.Operation, error) {
	switch core.OperationKind(strings.ToLower(strings.TrimSpace(o.Op))) {
	case core.OpAddColumn:
		if o.Column == nil {
			return nil, errors.New("column is required")
		}
		col, err := c.convertColumn(o.Column)
		if err != nil {
			return nil, err
		}
		ops := []core.Operation{core.AddColumn{Column: col}}
		scratch := &core.Table{}
		if err := synthesizeConstraints(scratch, []Column{*o.Column}); err != nil {
			return nil, err
		}
		for _, con := range scratch.Constraints {
			ops = append(ops, core.AddConstraint{Constraint: con})
		}
		return ops, nil

	case core.OpDropColumn:
		return one(core.DropColumn{Name: strings.TrimSpace(o.Name)}), nil

	case core.OpAlterColumnType:
		if o.Column == nil {
			return nil, errors.New("column is required")
		}
		col, err := c.convertColumn(o.Column)
		if err != nil {
			return nil, err
		}
		return one(core.AlterColumnType{Column: col}), nil

	case core.OpRenameColumn:
		if err := c.validateName("column", o.To, c.maxColumnName()); err != nil {
			return nil, err
		}
		return one(core.RenameColumn{From: strings.TrimSpace(o.From), To: strings.TrimSpace(o.To)}), nil

	case core.OpAddConstraint:
		if o.Constraint == nil {
			return nil, errors.New("constraint is required")
		}
		con, err := convertConstraint(o.Constraint)
		if err != nil {
			return nil, err
		}
		return one(core.AddConstraint{Constraint: con}), nil

	case core.OpDropConstraint:
		op := core.DropConstraint{Name: strings.TrimSpace(o.Name), Columns: o.Columns}
		if o.Type != "" {
			kind, ok := core.ParseConstraintType(o.Type)
			if !ok {
				return nil, fmt.Errorf("unknown constraint type %q", o.Type)
			}
			op.Type = kind
		}
		return one(op), nil

	case core.OpSetComment:
		return one(core.SetComment{Column: strings.TrimSpace(o.Name), Comment: o.Comment}), nil

	case core.OpAddIndex:
		if o.Index == nil {
			return nil, errors.New("index is required")
		}
		idx, err := convertIndex(o.Index)
		if err != nil {
			return nil, err
		}
		return one(core.AddIndex{Index: idx}), nil

	case core.OpDropIndex:
		return one(core.DropIndex{Name: strings.TrimSpace(o.Name), Columns: o.Columns, Unique: o.Unique}), nil
	}
	return nil, fmt.Errorf("unknown operation %q", o.Op)
}

func one(op core.Operation) []core.Operation {
	return []core.Operation{op}
}
