// Package yaml reads schemac schema documents written in YAML.
package yaml

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"schemac/internal/parser/document"
)

// Parser reads YAML schema documents.
type Parser struct{}

// NewParser creates a new YAML schema parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParseFile opens the file at the given path and parses it as a YAML document.
func (p *Parser) ParseFile(path string) (*document.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("yaml: open file %q: %w", path, err)
	}
	defer f.Close()

	return p.Parse(f)
}

// Parse decodes YAML content from r. Unknown keys are rejected and an empty
// stream yields an empty document.
func (p *Parser) Parse(r io.Reader) (*document.Document, error) {
	var f document.File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("yaml: decode error: %w", err)
	}

	doc, err := document.Convert(&f)
	if err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}
	return doc, nil
}
