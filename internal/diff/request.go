package diff

import (
	"strings"

	"schemac/internal/core"
)

// Request converts the differences into an alteration request against the
// current table. Drops come first so that names and columns are free again,
// then renames, column changes, and finally the additions.
func (td *TableDiff) Request() *core.AlterationRequest {
	if td == nil || td.current == nil {
		return nil
	}
	req := &core.AlterationRequest{Table: td.current.Name, Current: td.current}
	add := func(op core.Operation) { req.Operations = append(req.Operations, op) }

	for _, idx := range td.droppedIndexes() {
		add(core.DropIndex{Name: idx.Name, Columns: idx.Columns, Unique: idx.Unique})
	}
	for _, con := range td.droppedConstraints() {
		add(core.DropConstraint{Name: con.Name, Type: con.Type, Columns: con.Columns})
	}
	for _, r := range td.RenamedColumns {
		add(core.RenameColumn{From: r.Old.Name, To: r.New.Name})
	}
	for _, c := range td.RemovedColumns {
		add(core.DropColumn{Name: c.Name})
	}
	for _, mc := range td.ModifiedColumns {
		if onlyCommentChanged(mc) {
			add(core.SetComment{Column: mc.New.Name, Comment: mc.New.Comment})
			continue
		}
		add(core.AlterColumnType{Column: mc.New.Clone()})
	}
	for _, c := range td.addedColumnsInOrder() {
		add(core.AddColumn{Column: c.Clone()})
	}
	for _, con := range td.addedConstraints() {
		add(core.AddConstraint{Constraint: con.Clone()})
	}
	for _, idx := range td.addedIndexes() {
		add(core.AddIndex{Index: idx.Clone()})
	}
	if td.Comment != nil {
		var comment *string
		if c := strings.TrimSpace(td.Comment.New); c != "" {
			comment = &td.Comment.New
		}
		add(core.SetComment{Comment: comment})
	}

	if len(req.Operations) == 0 {
		return nil
	}
	return req
}

func (td *TableDiff) droppedIndexes() []*core.Index {
	out := make([]*core.Index, 0, len(td.RemovedIndexes)+len(td.ModifiedIndexes))
	for _, idx := range td.RemovedIndexes {
		out = append(out, td.indexOrigin(idx))
	}
	for _, ic := range td.ModifiedIndexes {
		out = append(out, td.indexOrigin(ic.Old))
	}
	return out
}

func (td *TableDiff) droppedConstraints() []*core.Constraint {
	out := make([]*core.Constraint, 0, len(td.RemovedConstraints)+len(td.ModifiedConstraints))
	for _, con := range td.RemovedConstraints {
		out = append(out, td.constraintOrigin(con))
	}
	for _, cc := range td.ModifiedConstraints {
		out = append(out, td.constraintOrigin(cc.Old))
	}
	return out
}

func (td *TableDiff) addedConstraints() []*core.Constraint {
	out := make([]*core.Constraint, 0, len(td.AddedConstraints)+len(td.ModifiedConstraints))
	out = append(out, td.AddedConstraints...)
	for _, cc := range td.ModifiedConstraints {
		out = append(out, cc.New)
	}
	return out
}

func (td *TableDiff) addedIndexes() []*core.Index {
	out := make([]*core.Index, 0, len(td.AddedIndexes)+len(td.ModifiedIndexes))
	out = append(out, td.AddedIndexes...)
	for _, ic := range td.ModifiedIndexes {
		out = append(out, ic.New)
	}
	return out
}

// addedColumnsInOrder returns the added columns in desired declaration order.
func (td *TableDiff) addedColumnsInOrder() []*core.Column {
	if td.desired == nil {
		return td.AddedColumns
	}
	added := make(map[*core.Column]struct{}, len(td.AddedColumns))
	for _, c := range td.AddedColumns {
		added[c] = struct{}{}
	}
	out := make([]*core.Column, 0, len(td.AddedColumns))
	for _, c := range td.desired.Columns {
		if _, ok := added[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

func (td *TableDiff) constraintOrigin(c *core.Constraint) *core.Constraint {
	if orig, ok := td.constraintOrigins[c]; ok {
		return orig
	}
	return c
}

func (td *TableDiff) indexOrigin(i *core.Index) *core.Index {
	if orig, ok := td.indexOrigins[i]; ok {
		return orig
	}
	return i
}
