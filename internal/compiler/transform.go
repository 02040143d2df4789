package compiler

import (
	"slices"
	"strings"

	"schemac/internal/core"
)

// snapshot is the in-memory table an alteration is applied to. origin maps
// each column (lower-cased) to the current column its data comes from;
// added columns have no entry.
type snapshot struct {
	table  *core.Table
	origin map[string]string
	maxLen int

	// removed holds constraints and indexes dropped together with a
	// column, so a later explicit drop of one of them still resolves.
	removedConstraints map[string]*core.Constraint
	removedIndexes     map[string]*core.Index
}

// dependents are the constraints and indexes removed together with a column.
type dependents struct {
	constraints []*core.Constraint
	indexes     []*core.Index
}

func newSnapshot(current *core.Table, maxLen int) *snapshot {
	s := &snapshot{
		table:  current.Clone(),
		origin: make(map[string]string, len(current.Columns)),
		maxLen: maxLen,

		removedConstraints: make(map[string]*core.Constraint),
		removedIndexes:     make(map[string]*core.Index),
	}
	for _, col := range current.Columns {
		s.origin[strings.ToLower(col.Name)] = col.Name
	}
	return s
}

// source returns the current column name a target column is copied from.
func (s *snapshot) source(column string) (string, bool) {
	src, ok := s.origin[strings.ToLower(column)]
	return src, ok
}

// apply applies one operation. It fails when the operation targets
// something the table does not have.
func (s *snapshot) apply(op core.Operation) (dependents, error) {
	t := s.table
	switch o := op.(type) {
	case core.AddColumn:
		if t.FindColumn(o.Column.Name) != nil {
			return dependents{}, core.Errorf(core.ErrNameCollision, t.Name, "column "+o.Column.Name, "column already exists")
		}
		if o.Column.PrimaryKey && (t.PrimaryKey() != nil || t.InlinePrimaryKey() != nil) {
			return dependents{}, core.Errorf(core.ErrInconsistentRequest, t.Name, "column "+o.Column.Name, "table already has a primary key")
		}
		t.Columns = append(t.Columns, o.Column.Clone())
		delete(s.origin, strings.ToLower(o.Column.Name))

	case core.DropColumn:
		return s.dropColumn(o.Name)

	case core.AlterColumnType:
		i := s.columnIndex(o.Column.Name)
		if i < 0 {
			return dependents{}, missingColumn(t.Name, o.Column.Name)
		}
		next := o.Column.Clone()
		next.Name = t.Columns[i].Name
		next.PrimaryKey = t.Columns[i].PrimaryKey
		t.Columns[i] = next

	case core.RenameColumn:
		return dependents{}, s.renameColumn(o.From, o.To)

	case core.AddConstraint:
		con := o.Constraint.Clone()
		if con.Name == "" {
			con.Name = core.ConstraintName(t.Name, con.Type, con.Columns, con.CheckExpression, s.maxLen)
		}
		if err := s.checkFreeName("constraint", con.Name); err != nil {
			return dependents{}, err
		}
		t.Constraints = append(t.Constraints, con)

	case core.DropConstraint:
		return dependents{}, s.dropConstraint(o)

	case core.SetComment:
		if o.Column == "" {
			t.Comment = ""
			if o.Comment != nil {
				t.Comment = *o.Comment
			}
			break
		}
		col := t.FindColumn(o.Column)
		if col == nil {
			return dependents{}, missingColumn(t.Name, o.Column)
		}
		col.Comment = o.Comment

	case core.AddIndex:
		idx := o.Index.Clone()
		if idx.Name == "" {
			idx.Name = core.IndexName(t.Name, idx.Columns, idx.Unique, s.maxLen)
		}
		if err := s.checkFreeName("index", idx.Name); err != nil {
			return dependents{}, err
		}
		t.Indexes = append(t.Indexes, idx)

	case core.DropIndex:
		idx, err := s.findIndex(o)
		if err != nil {
			return dependents{}, err
		}
		t.Indexes = slices.DeleteFunc(t.Indexes, func(i *core.Index) bool { return i == idx })
	}
	return dependents{}, nil
}

func (s *snapshot) dropColumn(name string) (dependents, error) {
	t := s.table
	i := s.columnIndex(name)
	if i < 0 {
		return dependents{}, missingColumn(t.Name, name)
	}
	if len(t.Columns) == 1 {
		return dependents{}, core.Errorf(core.ErrInconsistentRequest, t.Name, "column "+name, "cannot drop the only column of a table")
	}
	deps := dependentsOf(t, name)
	for _, con := range deps.constraints {
		s.removedConstraints[strings.ToLower(con.Name)] = con
	}
	for _, idx := range deps.indexes {
		s.removedIndexes[strings.ToLower(idx.Name)] = idx
	}
	t.Columns = slices.Delete(t.Columns, i, i+1)
	delete(s.origin, strings.ToLower(name))
	t.Constraints = slices.DeleteFunc(t.Constraints, func(con *core.Constraint) bool {
		return slices.Contains(deps.constraints, con)
	})
	t.Indexes = slices.DeleteFunc(t.Indexes, func(idx *core.Index) bool {
		return slices.Contains(deps.indexes, idx)
	})
	return deps, nil
}

// dependentsOf returns the constraints and indexes of t that use column.
func dependentsOf(t *core.Table, column string) dependents {
	var deps dependents
	for _, con := range t.Constraints {
		if con.DependsOn(t.Name, column) {
			deps.constraints = append(deps.constraints, con)
		}
	}
	for _, idx := range t.Indexes {
		if idx.References(column) {
			deps.indexes = append(deps.indexes, idx)
		}
	}
	return deps
}

// renameColumn renames a column everywhere it is used, including check
// expressions and self-referencing foreign keys.
func (s *snapshot) renameColumn(from, to string) error {
	t := s.table
	i := s.columnIndex(from)
	if i < 0 {
		return missingColumn(t.Name, from)
	}
	if j := s.columnIndex(to); j >= 0 && j != i {
		return core.Errorf(core.ErrNameCollision, t.Name, "column "+to, "column already exists")
	}
	t.Columns[i].Name = to

	rename := func(cols []string) {
		for k, c := range cols {
			if strings.EqualFold(c, from) {
				cols[k] = to
			}
		}
	}
	for _, con := range t.Constraints {
		rename(con.Columns)
		if con.Type == core.ConstraintForeignKey && strings.EqualFold(con.ReferencedTable, t.Name) {
			rename(con.ReferencedColumns)
		}
		con.CheckExpression = core.RenameInExpression(con.CheckExpression, from, to)
	}
	for _, idx := range t.Indexes {
		rename(idx.Columns)
	}

	src, ok := s.origin[strings.ToLower(from)]
	delete(s.origin, strings.ToLower(from))
	if ok {
		s.origin[strings.ToLower(to)] = src
	}
	return nil
}

func (s *snapshot) dropConstraint(op core.DropConstraint) error {
	con, err := s.findConstraint(op)
	if err != nil {
		return err
	}
	if con.Type == core.ConstraintPrimaryKey && s.table.FindConstraint(con.Name) == nil {
		for _, col := range s.table.Columns {
			col.PrimaryKey = false
		}
		return nil
	}
	s.table.Constraints = slices.DeleteFunc(s.table.Constraints, func(c *core.Constraint) bool { return c == con })
	return nil
}

// findConstraint resolves the constraint a DropConstraint targets. Without
// a name the name is derived from kind and columns, the same way an unnamed
// add derives it. A column level primary key answers to the derived key name.
func (s *snapshot) findConstraint(op core.DropConstraint) (*core.Constraint, error) {
	t := s.table
	name := strings.TrimSpace(op.Name)
	if name == "" {
		if op.Type == "" {
			return nil, core.Errorf(core.ErrMissingRequiredOption, t.Name, "constraint",
				"dropping a constraint needs a name or a kind and columns to derive it from")
		}
		name = core.ConstraintName(t.Name, op.Type, op.Columns, "", s.maxLen)
	}
	if con := t.FindConstraint(name); con != nil {
		return con, nil
	}
	if con, ok := s.removedConstraints[strings.ToLower(name)]; ok {
		return con, nil
	}
	if pk := t.InlinePrimaryKey(); pk != nil && t.PrimaryKey() == nil &&
		strings.EqualFold(name, core.ConstraintName(t.Name, core.ConstraintPrimaryKey, nil, "", s.maxLen)) {
		return &core.Constraint{Name: name, Type: core.ConstraintPrimaryKey, Columns: []string{pk.Name}}, nil
	}
	return nil, core.Errorf(core.ErrInconsistentRequest, t.Name, "constraint "+name, "constraint does not exist in the current table")
}

// findIndex resolves the index a DropIndex targets.
func (s *snapshot) findIndex(op core.DropIndex) (*core.Index, error) {
	t := s.table
	name := strings.TrimSpace(op.Name)
	if name == "" {
		if len(op.Columns) == 0 {
			return nil, core.Errorf(core.ErrMissingRequiredOption, t.Name, "index",
				"dropping an index needs a name or columns to derive it from")
		}
		name = core.IndexName(t.Name, op.Columns, op.Unique, s.maxLen)
	}
	if idx := t.FindIndex(name); idx != nil {
		return idx, nil
	}
	if idx, ok := s.removedIndexes[strings.ToLower(name)]; ok {
		return idx, nil
	}
	return nil, core.Errorf(core.ErrInconsistentRequest, t.Name, "index "+name, "index does not exist in the current table")
}

// checkFreeName enforces the shared namespace of constraints and indexes.
func (s *snapshot) checkFreeName(kind, name string) error {
	if err := core.CheckIdentifier(s.table.Name, kind, name, s.maxLen); err != nil {
		return err
	}
	if s.table.FindConstraint(name) != nil {
		return core.Errorf(core.ErrNameCollision, s.table.Name, kind+" "+name, "name already used by a constraint")
	}
	if s.table.FindIndex(name) != nil {
		return core.Errorf(core.ErrNameCollision, s.table.Name, kind+" "+name, "name already used by an index")
	}
	return nil
}

func (s *snapshot) columnIndex(name string) int {
	return slices.IndexFunc(s.table.Columns, func(c *core.Column) bool { return strings.EqualFold(c.Name, name) })
}

func missingColumn(table, name string) error {
	return core.Errorf(core.ErrInconsistentRequest, table, "column "+name, "column does not exist in the current table")
}
