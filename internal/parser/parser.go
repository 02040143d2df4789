// Package parser reads schema documents in the supported formats and
// converts them into table specs and alteration requests.
package parser

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"schemac/internal/parser/document"
	"schemac/internal/parser/mysql"
	"schemac/internal/parser/toml"
	"schemac/internal/parser/yaml"
)

// Parser is implemented by every document format.
type Parser interface {
	Parse(r io.Reader) (*document.Document, error)
	ParseFile(path string) (*document.Document, error)
}

// ForPath returns the parser for the file extension of path.
func ForPath(path string) (Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.NewParser(), nil
	case ".yaml", ".yml":
		return yaml.NewParser(), nil
	default:
		return nil, &UnsupportedFormatError{Path: path}
	}
}

// ParseFile parses a schema document. A .sql file is read as a MySQL dump
// whose tables become the document's current state.
func ParseFile(path string) (*document.Document, error) {
	if strings.EqualFold(filepath.Ext(path), ".sql") {
		return parseSQLDump(path)
	}
	p, err := ForPath(path)
	if err != nil {
		return nil, err
	}
	return p.ParseFile(path)
}

func parseSQLDump(path string) (*document.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mysql: read file %q: %w", path, err)
	}
	tables, err := mysql.NewParser().Parse(string(data))
	if err != nil {
		return nil, err
	}
	return &document.Document{Dialect: "mysql", Current: tables}, nil
}

type UnsupportedFormatError struct {
	Path string
}

func (e *UnsupportedFormatError) Error() string {
	return "unsupported file format: " + e.Path
}
