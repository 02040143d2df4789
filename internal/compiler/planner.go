package compiler

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"schemac/internal/core"
	"schemac/internal/dialect"
	"schemac/internal/plan"
)

// planState is the state of one alteration request in the planner.
type planState int

const (
	stateCollecting planState = iota
	stateClassified
	stateDirect
	stateRebuild
	stateSequenced
)

func (s planState) String() string {
	switch s {
	case stateCollecting:
		return "collecting"
	case stateClassified:
		return "classified"
	case stateDirect:
		return "direct"
	case stateRebuild:
		return "rebuild"
	case stateSequenced:
		return "sequenced"
	}
	return "unknown"
}

// step is a classified operation.
type step struct {
	op      core.Operation
	rebuild bool
	reason  string
}

// planner drives one request through
// collecting -> classified -> direct | rebuild -> sequenced.
type planner struct {
	c       *Compiler
	log     *zap.Logger
	state   planState
	table   string
	steps   []step
	rebuild bool

	// current is the validated, named copy of the caller's current table;
	// target is current with every operation applied. Both are nil when
	// the request has no current table.
	current *core.Table
	target  *snapshot
}

// CompileAlteration compiles an alteration request into one plan. If any
// operation needs a table rebuild the whole batch is compiled as a single
// rebuild; otherwise every operation becomes direct statements.
func (c *Compiler) CompileAlteration(req *core.AlterationRequest) (*plan.Plan, error) {
	p := &planner{c: c, log: c.logger, state: stateCollecting}
	if err := p.collect(req); err != nil {
		return nil, err
	}
	if err := p.classify(); err != nil {
		return nil, err
	}

	var (
		u   *unit
		err error
	)
	if p.rebuild {
		p.transition(stateRebuild)
		u, err = p.rebuildPlan()
	} else {
		p.transition(stateDirect)
		u, err = p.directPlan()
	}
	if err != nil {
		return nil, err
	}

	out, err := c.finish(u)
	if err != nil {
		return nil, err
	}
	p.transition(stateSequenced)
	return out, nil
}

func (p *planner) transition(to planState) {
	p.log.Debug("planner state", zap.Stringer("from", p.state), zap.Stringer("to", to))
	p.state = to
}

// collect checks the request shape and, when the current table is known,
// applies every operation to a snapshot so that a bad target fails before
// any statement is produced.
func (p *planner) collect(req *core.AlterationRequest) error {
	if req == nil {
		return core.Errorf(core.ErrInconsistentRequest, "", "request", "alteration request is nil")
	}
	d := p.c.dialect
	p.table = strings.TrimSpace(req.Table)
	if req.Current != nil && p.table == "" {
		p.table = strings.TrimSpace(req.Current.Name)
	}
	p.log = p.c.logger.With(zap.String("table", p.table))
	if err := core.CheckIdentifier(p.table, "table", p.table, d.MaxIdentifierLength); err != nil {
		return err
	}
	if len(req.Operations) == 0 {
		return core.Errorf(core.ErrInconsistentRequest, p.table, "request", "alteration request has no operations")
	}

	for i, op := range req.Operations {
		if err := p.checkOperation(i, op); err != nil {
			return err
		}
		p.steps = append(p.steps, step{op: op})
	}

	if req.Current == nil {
		return nil
	}
	if !strings.EqualFold(strings.TrimSpace(req.Current.Name), p.table) {
		return core.Errorf(core.ErrInconsistentRequest, p.table, "request",
			"current table is %q but the request targets %q", req.Current.Name, p.table)
	}
	current, err := p.c.prepareTable(req.Current)
	if err != nil {
		return err
	}
	current.Name = p.table
	p.current = current

	p.target = newSnapshot(current, d.MaxIdentifierLength)
	for _, st := range p.steps {
		if _, err := p.target.apply(st.op); err != nil {
			return err
		}
	}
	if err := p.target.table.Validate(); err != nil {
		return err
	}
	return p.target.table.AssignNames(d.MaxIdentifierLength)
}

// checkOperation validates the payload of one operation on its own.
func (p *planner) checkOperation(i int, op core.Operation) error {
	bad := func(format string, args ...any) error {
		return core.Errorf(core.ErrInconsistentRequest, p.table, fmt.Sprintf("operation %d", i+1), format, args...)
	}
	maxLen := p.c.dialect.MaxIdentifierLength
	switch o := op.(type) {
	case nil:
		return bad("operation is nil")
	case core.AddColumn:
		if o.Column == nil {
			return bad("add_column without a column")
		}
		if err := core.CheckIdentifier(p.table, "column "+o.Column.Name, o.Column.Name, maxLen); err != nil {
			return err
		}
		return o.Column.Validate(p.table)
	case core.AlterColumnType:
		if o.Column == nil {
			return bad("alter_column_type without a column")
		}
		return o.Column.Validate(p.table)
	case core.DropColumn:
		if strings.TrimSpace(o.Name) == "" {
			return bad("drop_column without a column name")
		}
	case core.RenameColumn:
		if strings.TrimSpace(o.From) == "" || strings.TrimSpace(o.To) == "" {
			return bad("rename_column needs both names")
		}
		return core.CheckIdentifier(p.table, "column "+o.To, o.To, maxLen)
	case core.AddConstraint:
		if o.Constraint == nil {
			return bad("add_constraint without a constraint")
		}
		stub := &core.Table{Name: p.table}
		for _, col := range o.Constraint.Columns {
			stub.Columns = append(stub.Columns, &core.Column{Name: col})
		}
		if err := o.Constraint.Validate(stub); err != nil {
			return err
		}
		if o.Constraint.Name != "" {
			return core.CheckIdentifier(p.table, "constraint", o.Constraint.Name, maxLen)
		}
	case core.AddIndex:
		if o.Index == nil || len(o.Index.Columns) == 0 {
			return core.Errorf(core.ErrMissingRequiredOption, p.table, fmt.Sprintf("operation %d", i+1), "add_index needs columns")
		}
		if o.Index.Name != "" {
			return core.CheckIdentifier(p.table, "index", o.Index.Name, maxLen)
		}
	case core.DropConstraint, core.DropIndex, core.SetComment:
	default:
		return core.Errorf(core.ErrUnsupportedOperation, p.table, fmt.Sprintf("operation %d", i+1), "unknown operation %T", op)
	}
	return nil
}

// classify labels every operation direct or rebuild. One rebuild turns the
// whole batch into a rebuild.
func (p *planner) classify() error {
	d := p.c.dialect
	for i := range p.steps {
		st := &p.steps[i]
		direct, reason, err := p.classifyOne(st.op)
		if err != nil {
			return err
		}
		if direct {
			if esc, why := d.NeedsRebuild(st.op, p.current); esc {
				direct, reason = false, why
			}
		}
		if !direct && !d.SupportsRebuild {
			return core.Errorf(core.ErrUnsupportedOperation, p.table, string(st.op.Kind())+" "+st.op.Target(),
				"%s cannot run this operation directly and has no rebuild path: %s", d.Type, reason)
		}
		st.rebuild, st.reason = !direct, reason
		p.rebuild = p.rebuild || st.rebuild
		p.log.Debug("operation classified",
			zap.String("operation", string(st.op.Kind())),
			zap.String("target", st.op.Target()),
			zap.Bool("rebuild", st.rebuild),
			zap.String("reason", reason),
		)
	}
	p.transition(stateClassified)

	if p.rebuild && p.current == nil {
		return core.Errorf(core.ErrInconsistentRequest, p.table, "request",
			"the request needs a table rebuild, which requires the current table definition")
	}
	return nil
}

func (p *planner) classifyOne(op core.Operation) (bool, string, error) {
	d := p.c.dialect
	switch o := op.(type) {
	case core.AddColumn, core.AddIndex, core.DropIndex:
		return true, "", nil
	case core.DropColumn:
		return d.SupportsDropColumnDirect, "no direct DROP COLUMN", nil
	case core.AlterColumnType:
		return d.SupportsInlineAlterColumn, "no in-place column alteration", nil
	case core.RenameColumn:
		return d.SupportsRenameColumn, "no RENAME COLUMN", nil
	case core.AddConstraint:
		if o.Constraint.Type == core.ConstraintForeignKey {
			return d.SupportsAddForeignKeyInline, "no ALTER TABLE ADD FOREIGN KEY", nil
		}
		return d.SupportsNamedConstraintAlter, "no ALTER TABLE ADD CONSTRAINT", nil
	case core.DropConstraint:
		return d.SupportsNamedConstraintAlter, "no ALTER TABLE DROP CONSTRAINT", nil
	case core.SetComment:
		if d.Comments == dialect.CommentUnsupported {
			return false, "", core.Errorf(core.ErrUnsupportedOperation, p.table, "comment "+o.Target(),
				"%s does not support comments", d.Type)
		}
		return true, "", nil
	}
	return false, "", core.Errorf(core.ErrUnsupportedOperation, p.table, "", "unknown operation %T", op)
}
