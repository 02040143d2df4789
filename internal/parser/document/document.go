// Package document converts decoded schema documents into the compiler's
// table specs and alteration requests. The TOML and YAML front ends decode
// into File and share the conversion.
package document

import (
	"fmt"
	"regexp"
	"strings"

	"schemac/internal/core"
)

// File is the top-level document. [database], [validation], [[tables]],
// [[current]] and [[alterations]] are all top-level keys.
type File struct {
	Database    Database     `toml:"database" yaml:"database"`
	Validation  *Validation  `toml:"validation" yaml:"validation"`
	Tables      []Table      `toml:"tables" yaml:"tables"`
	Current     []Table      `toml:"current" yaml:"current"`
	Alterations []Alteration `toml:"alterations" yaml:"alterations"`
	DropTables  []string     `toml:"drop_tables" yaml:"drop_tables"`
}

// Database maps [database].
type Database struct {
	Name    string `toml:"name" yaml:"name"`
	Dialect string `toml:"dialect" yaml:"dialect"`
	Version string `toml:"version" yaml:"version"`
}

// Validation maps [validation].
type Validation struct {
	MaxTableNameLength  int    `toml:"max_table_name_length" yaml:"max_table_name_length"`
	MaxColumnNameLength int    `toml:"max_column_name_length" yaml:"max_column_name_length"`
	AllowedNamePattern  string `toml:"allowed_name_pattern" yaml:"allowed_name_pattern"`
}

// Document is a converted schema document.
type Document struct {
	Name    string
	Dialect string
	Version string

	// Tables are desired table specs, Current the known current state of
	// existing tables.
	Tables      []*core.Table
	Current     []*core.Table
	Alterations []*core.AlterationRequest
	DropTables  []string
}

// FindCurrent returns the current table spec with the given name.
func (d *Document) FindCurrent(name string) *core.Table {
	return findTable(d.Current, name)
}

// FindTable returns the desired table spec with the given name.
func (d *Document) FindTable(name string) *core.Table {
	return findTable(d.Tables, name)
}

func findTable(tables []*core.Table, name string) *core.Table {
	for _, t := range tables {
		if strings.EqualFold(t.Name, name) {
			return t
		}
	}
	return nil
}

// Convert turns a decoded file into a Document. Structural problems the
// compiler would also catch are left to it; Convert rejects only what it
// cannot represent.
func Convert(f *File) (*Document, error) {
	return newConverter(f).convert()
}

type converter struct {
	f      *File
	rules  *Validation
	nameRe *regexp.Regexp
}

func newConverter(f *File) *converter {
	return &converter{f: f}
}

func (c *converter) convert() (*Document, error) {
	if err := c.validateRules(); err != nil {
		return nil, err
	}

	doc := &Document{
		Name:       c.f.Database.Name,
		Dialect:    strings.TrimSpace(c.f.Database.Dialect),
		Version:    strings.TrimSpace(c.f.Database.Version),
		Tables:     make([]*core.Table, 0, len(c.f.Tables)),
		Current:    make([]*core.Table, 0, len(c.f.Current)),
		DropTables: c.f.DropTables,
	}

	var err error
	if doc.Tables, err = c.convertTables(c.f.Tables, "table"); err != nil {
		return nil, err
	}
	if doc.Current, err = c.convertTables(c.f.Current, "current table"); err != nil {
		return nil, err
	}

	for i := range c.f.Alterations {
		a := &c.f.Alterations[i]
		req, err := c.convertAlteration(a, doc)
		if err != nil {
			return nil, fmt.Errorf("alteration %q: %w", a.Table, err)
		}
		doc.Alterations = append(doc.Alterations, req)
	}
	return doc, nil
}

func (c *converter) convertTables(raw []Table, kind string) ([]*core.Table, error) {
	out := make([]*core.Table, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for i := range raw {
		lower := strings.ToLower(raw[i].Name)
		if seen[lower] {
			return nil, fmt.Errorf("duplicate %s %q", kind, raw[i].Name)
		}
		seen[lower] = true

		t, err := c.convertTable(&raw[i])
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", kind, raw[i].Name, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// validateRules pre-compiles the name pattern of [validation].
func (c *converter) validateRules() error {
	v := c.f.Validation
	if v == nil {
		return nil
	}
	c.rules = v
	if v.AllowedNamePattern != "" {
		re, err := regexp.Compile(v.AllowedNamePattern)
		if err != nil {
			return fmt.Errorf("invalid allowed_name_pattern %q: %w", v.AllowedNamePattern, err)
		}
		c.nameRe = re
	}
	return nil
}

func (c *converter) validateName(kind, name string, maxLen int) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%s name is empty", kind)
	}
	if maxLen > 0 && len(name) > maxLen {
		return fmt.Errorf("%s %q exceeds maximum length %d", kind, name, maxLen)
	}
	if c.nameRe != nil && !c.nameRe.MatchString(name) {
		return fmt.Errorf("%s %q does not match allowed pattern %q", kind, name, c.nameRe.String())
	}
	return nil
}

func (c *converter) maxTableName() int {
	if c.rules == nil {
		return 0
	}
	return c.rules.MaxTableNameLength
}

func (c *converter) maxColumnName() int {
	if c.rules == nil {
		return 0
	}
	return c.rules.MaxColumnNameLength
}
