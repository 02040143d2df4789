package core

import "fmt"

// OperationKind identifies an alteration operation.
type OperationKind string

const (
	OpAddColumn       OperationKind = "add_column"
	OpDropColumn      OperationKind = "drop_column"
	OpAlterColumnType OperationKind = "alter_column_type"
	OpRenameColumn    OperationKind = "rename_column"
	OpAddConstraint   OperationKind = "add_constraint"
	OpDropConstraint  OperationKind = "drop_constraint"
	OpSetComment      OperationKind = "set_comment"
	OpAddIndex        OperationKind = "add_index"
	OpDropIndex       OperationKind = "drop_index"
)

// Operation is a single alteration step. The set of implementations is closed.
type Operation interface {
	Kind() OperationKind
	// Target returns the name of the column, constraint or index the
	// operation is about, used for error messages and plan notes.
	Target() string
	isOperation()
}

// AddColumn appends a new column to the table.
type AddColumn struct {
	Column *Column
}

// DropColumn removes a column and everything that depends on it.
type DropColumn struct {
	Name string
}

// AlterColumnType replaces the definition of an existing column. Column.Name
// selects the column; type, nullability, default and comment are taken as the
// new definition.
type AlterColumnType struct {
	Column *Column
}

// RenameColumn renames a column in place, keeping its data.
type RenameColumn struct {
	From string
	To   string
}

// AddConstraint adds a table constraint. An empty name is derived.
type AddConstraint struct {
	Constraint *Constraint
}

// DropConstraint drops a constraint by name. When Name is empty the name is
// derived from Type and Columns exactly as it would be for an unnamed add.
type DropConstraint struct {
	Name    string
	Type    ConstraintType
	Columns []string
}

// SetComment sets or clears a comment. An empty Column targets the table,
// a nil Comment clears it.
type SetComment struct {
	Column  string
	Comment *string
}

// AddIndex creates a secondary index.
type AddIndex struct {
	Index *Index
}

// DropIndex drops a secondary index. When Name is empty the name is derived
// from Columns and Unique.
type DropIndex struct {
	Name    string
	Columns []string
	Unique  bool
}

func (AddColumn) Kind() OperationKind       { return OpAddColumn }
func (DropColumn) Kind() OperationKind      { return OpDropColumn }
func (AlterColumnType) Kind() OperationKind { return OpAlterColumnType }
func (RenameColumn) Kind() OperationKind    { return OpRenameColumn }
func (AddConstraint) Kind() OperationKind   { return OpAddConstraint }
func (DropConstraint) Kind() OperationKind  { return OpDropConstraint }
func (SetComment) Kind() OperationKind      { return OpSetComment }
func (AddIndex) Kind() OperationKind        { return OpAddIndex }
func (DropIndex) Kind() OperationKind       { return OpDropIndex }

func (o AddColumn) Target() string {
	if o.Column == nil {
		return ""
	}
	return o.Column.Name
}
func (o DropColumn) Target() string { return o.Name }
func (o AlterColumnType) Target() string {
	if o.Column == nil {
		return ""
	}
	return o.Column.Name
}
func (o RenameColumn) Target() string { return fmt.Sprintf("%s -> %s", o.From, o.To) }
func (o AddConstraint) Target() string {
	if o.Constraint == nil {
		return ""
	}
	return o.Constraint.Name
}
func (o DropConstraint) Target() string { return o.Name }
func (o SetComment) Target() string {
	if o.Column == "" {
		return "table comment"
	}
	return o.Column
}
func (o AddIndex) Target() string {
	if o.Index == nil {
		return ""
	}
	return o.Index.Name
}
func (o DropIndex) Target() string { return o.Name }

func (AddColumn) isOperation()       {}
func (DropColumn) isOperation()      {}
func (AlterColumnType) isOperation() {}
func (RenameColumn) isOperation()    {}
func (AddConstraint) isOperation()   {}
func (DropConstraint) isOperation()  {}
func (SetComment) isOperation()      {}
func (AddIndex) isOperation()        {}
func (DropIndex) isOperation()       {}

// AlterationRequest is an ordered batch of operations on one table.
//
// Current is the caller-known state of the table. It may be nil for plans
// that only need direct statements, but rebuilds and most validations need it.
type AlterationRequest struct {
	Table      string      `json:"table"`
	Current    *Table      `json:"current,omitempty"`
	Operations []Operation `json:"-"`
}

// Kinds returns the operation kinds in request order.
func (r *AlterationRequest) Kinds() []OperationKind {
	kinds := make([]OperationKind, len(r.Operations))
	for i, op := range r.Operations {
		kinds[i] = op.Kind()
	}
	return kinds
}
