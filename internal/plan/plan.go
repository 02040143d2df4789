// Package plan holds the compiled output of the schema compiler: an ordered
// list of SQL statements with their bindings, plus advisory notes.
package plan

import (
	"strings"
)

// Mode tells how a plan achieves its schema transition.
type Mode string

const (
	ModeCreate  Mode = "create"
	ModeDirect  Mode = "direct"
	ModeRebuild Mode = "rebuild"
	ModeDrop    Mode = "drop"
	ModeSchema  Mode = "schema"
)

// NoteKind classifies advisory notes attached to a plan.
type NoteKind string

const (
	NoteInfo       NoteKind = "INFO"
	NoteWarning    NoteKind = "WARNING"
	NoteLimitation NoteKind = "LIMITATION"
)

// Note is an advisory message. Notes never change the statements.
type Note struct {
	Kind NoteKind `json:"kind"`
	Text string   `json:"text"`
}

// Plan is the compiled, ordered statement sequence for one request.
// It is not modified after Build returns it.
type Plan struct {
	Dialect    string      `json:"dialect"`
	Table      string      `json:"table,omitempty"`
	Mode       Mode        `json:"mode"`
	Statements []Statement `json:"statements"`
	Notes      []Note      `json:"notes,omitempty"`
}

// SQLStatements returns the statement texts in execution order.
func (p *Plan) SQLStatements() []string {
	out := make([]string, 0, len(p.Statements))
	for i := range p.Statements {
		out = append(out, p.Statements[i].SQL)
	}
	return out
}

// InfoNotes returns informational notes.
func (p *Plan) InfoNotes() []string { return p.filterByKind(NoteInfo) }

// Warnings returns notes that need the operator's attention.
func (p *Plan) Warnings() []string { return p.filterByKind(NoteWarning) }

// Limitations returns notes about things the plan deliberately leaves to
// the caller, such as foreign keys on other tables that point at a rebuilt table.
func (p *Plan) Limitations() []string { return p.filterByKind(NoteLimitation) }

// HasBindings reports whether any statement carries bound values.
func (p *Plan) HasBindings() bool {
	for i := range p.Statements {
		if len(p.Statements[i].Bindings) > 0 {
			return true
		}
	}
	return false
}

func (p *Plan) filterByKind(kind NoteKind) []string {
	out := make([]string, 0, len(p.Notes)/2+1)
	for _, n := range p.Notes {
		if n.Kind != kind {
			continue
		}
		out = append(out, n.Text)
	}
	return out
}

// Builder accumulates statements and notes during compilation. Build
// sequences the statements and freezes the result.
type Builder struct {
	dialect    string
	table      string
	mode       Mode
	statements []Statement
	notes      []Note
}

// NewBuilder starts a plan for the given dialect and table.
func NewBuilder(dialect, table string, mode Mode) *Builder {
	return &Builder{dialect: dialect, table: table, mode: mode}
}

// SetMode changes the plan mode before Build.
func (b *Builder) SetMode(mode Mode) { b.mode = mode }

// Mode returns the current plan mode.
func (b *Builder) Mode() Mode { return b.mode }

// Add appends statements, assigning ordering keys in call order. Empty
// statements are ignored.
func (b *Builder) Add(stmts ...Statement) {
	for _, s := range stmts {
		s.SQL = strings.TrimSpace(s.SQL)
		if s.SQL == "" {
			continue
		}
		s.Order = len(b.statements)
		b.statements = append(b.statements, s)
	}
}

// AddNote appends a note. Empty and repeated notes are ignored.
func (b *Builder) AddNote(kind NoteKind, msg string) {
	if msg = strings.TrimSpace(msg); msg == "" {
		return
	}
	for _, n := range b.notes {
		if n.Kind == kind && n.Text == msg {
			return
		}
	}
	b.notes = append(b.notes, Note{Kind: kind, Text: msg})
}

// Len returns the number of statements added so far.
func (b *Builder) Len() int { return len(b.statements) }

// Build sequences the statements and returns the finished plan. Weak
// references that no statement provides become advisory notes.
func (b *Builder) Build() (*Plan, error) {
	ordered, unresolved, err := Sequence(b.statements)
	if err != nil {
		return nil, err
	}
	for _, ref := range unresolved {
		kind, name := SplitKey(ref)
		b.AddNote(NoteInfo, "referenced "+kind+" "+name+" is not created by this plan and must already exist")
	}
	for i := range ordered {
		ordered[i].Order = i
	}
	return &Plan{
		Dialect:    b.dialect,
		Table:      b.table,
		Mode:       b.mode,
		Statements: ordered,
		Notes:      append([]Note(nil), b.notes...),
	}, nil
}
