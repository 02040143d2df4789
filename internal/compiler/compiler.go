// Package compiler turns table specs and alteration requests into ordered
// statement plans for one SQL dialect.
//
// A Compiler holds a read-only dialect descriptor and a logger. It keeps no
// state between calls and may be shared between goroutines. Every Compile
// method is all-or-nothing: it returns either a complete plan or an error,
// never both.
package compiler

import (
	"strings"

	"go.uber.org/zap"

	"schemac/internal/core"
	"schemac/internal/dialect"
	"schemac/internal/plan"
)

// Compiler compiles schema changes for one dialect.
type Compiler struct {
	dialect *dialect.Dialect
	logger  *zap.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger used for planner decisions and warnings.
func WithLogger(l *zap.Logger) Option {
	return func(c *Compiler) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns a compiler for the given dialect descriptor.
func New(d *dialect.Dialect, opts ...Option) *Compiler {
	c := &Compiler{dialect: d, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("dialect", d.Name()), zap.Stringer("version", d.Version))
	return c
}

// Dialect returns the descriptor the compiler was built with.
func (c *Compiler) Dialect() *dialect.Dialect { return c.dialect }

// CompileCreateTable compiles a CREATE TABLE plan, including named enum
// types, indexes and separate comment statements.
func (c *Compiler) CompileCreateTable(t *core.Table) (*plan.Plan, error) {
	target, err := c.prepareTable(t)
	if err != nil {
		return nil, err
	}
	u := c.newUnit(target.Name, plan.ModeCreate)
	if _, err := c.addCreateTable(u, target, target.Name, false); err != nil {
		return nil, err
	}
	c.addIndexes(u, target)
	return c.finish(u)
}

// CompileDropTable compiles a DROP TABLE plan.
func (c *Compiler) CompileDropTable(name string) (*plan.Plan, error) {
	name = strings.TrimSpace(name)
	if err := core.CheckIdentifier(name, "table", name, c.dialect.MaxIdentifierLength); err != nil {
		return nil, err
	}
	u := c.newUnit(name, plan.ModeDrop)
	u.Add(plan.Stmt("DROP TABLE " + c.dialect.QuoteIdentifier(name)).Drop(plan.TableKey(name)))
	u.AddNote(plan.NoteWarning, "dropping table "+name+" deletes all of its rows")
	return c.finish(u)
}

// prepareTable validates a copy of t and assigns derived names.
func (c *Compiler) prepareTable(t *core.Table) (*core.Table, error) {
	if t == nil {
		return nil, core.Errorf(core.ErrInconsistentRequest, "", "table", "table is nil")
	}
	target := t.Clone()
	target.Name = strings.TrimSpace(target.Name)
	if err := target.Validate(); err != nil {
		return nil, err
	}
	if err := core.CheckIdentifier(target.Name, "table", target.Name, c.dialect.MaxIdentifierLength); err != nil {
		return nil, err
	}
	for _, col := range target.Columns {
		if err := core.CheckIdentifier(target.Name, "column "+col.Name, col.Name, c.dialect.MaxIdentifierLength); err != nil {
			return nil, err
		}
	}
	if err := target.AssignNames(c.dialect.MaxIdentifierLength); err != nil {
		return nil, err
	}
	return target, nil
}

// unit collects the statements of one compilation.
type unit struct {
	*plan.Builder
	// emitted holds prerequisite statements already added, so a named type
	// shared by several columns is created once.
	emitted map[string]bool
	// local holds the lower-cased tables this plan creates itself; foreign
	// keys to them are ordered by the caller, not by weak references.
	local map[string]bool
}

func (c *Compiler) newUnit(table string, mode plan.Mode) *unit {
	return &unit{
		Builder: plan.NewBuilder(c.dialect.Name(), table, mode),
		emitted: make(map[string]bool),
		local:   make(map[string]bool),
	}
}

func (u *unit) addBefore(stmts []plan.Statement) {
	for _, s := range stmts {
		if u.emitted[s.SQL] {
			continue
		}
		u.emitted[s.SQL] = true
		u.Add(s)
	}
}

func (c *Compiler) finish(u *unit) (*plan.Plan, error) {
	p, err := u.Build()
	if err != nil {
		return nil, err
	}
	c.logger.Debug("plan compiled",
		zap.String("table", p.Table),
		zap.String("mode", string(p.Mode)),
		zap.Int("statements", len(p.Statements)),
		zap.Int("notes", len(p.Notes)),
	)
	return p, nil
}
