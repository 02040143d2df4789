package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"schemac/internal/compiler"
	"schemac/internal/core"
	"schemac/internal/dialect"
	_ "schemac/internal/dialect/mssql"
	_ "schemac/internal/dialect/mysql"
	_ "schemac/internal/dialect/postgres"
	_ "schemac/internal/dialect/sqlite"
	"schemac/internal/output"
	"schemac/internal/parser"
	"schemac/internal/parser/document"
	"schemac/internal/plan"
)

// loadDocument parses a schema file and logs what it contains.
func (o *rootOptions) loadDocument(path string) (*document.Document, error) {
	doc, err := parser.ParseFile(path)
	if err != nil {
		return nil, err
	}
	o.log.Debug("document loaded",
		zap.String("path", path),
		zap.Int("tables", len(doc.Tables)),
		zap.Int("current", len(doc.Current)),
		zap.Int("alterations", len(doc.Alterations)),
		zap.Int("drop_tables", len(doc.DropTables)),
	)
	return doc, nil
}

// newCompiler resolves the target dialect. Flags win over the document.
func (o *rootOptions) newCompiler(docs ...*document.Document) (*compiler.Compiler, error) {
	name, version := o.dialect, o.version
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		if name == "" {
			name = doc.Dialect
		}
		if version == "" && strings.EqualFold(name, doc.Dialect) {
			version = doc.Version
		}
	}
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("no dialect given; use --dialect or set [database].dialect")
	}

	d, err := dialect.Get(name, version)
	if err != nil {
		return nil, err
	}
	o.log.Debug("dialect resolved", zap.String("dialect", d.Name()), zap.String("version", d.Version.String()))
	return compiler.New(d, compiler.WithLogger(o.log)), nil
}

// compileTables creates the tables of a document: one create plan for a
// single table, a dependency ordered schema plan otherwise.
func compileTables(c *compiler.Compiler, tables []*core.Table) ([]*plan.Plan, error) {
	switch len(tables) {
	case 0:
		return nil, nil
	case 1:
		p, err := c.CompileCreateTable(tables[0])
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", tables[0].Name, err)
		}
		return []*plan.Plan{p}, nil
	default:
		p, err := c.CompileSchema(tables)
		if err != nil {
			return nil, fmt.Errorf("create schema: %w", err)
		}
		return []*plan.Plan{p}, nil
	}
}

// compileAlterations compiles independent requests concurrently. The
// result keeps the order of reqs.
func compileAlterations(ctx context.Context, c *compiler.Compiler, reqs []*core.AlterationRequest) ([]*plan.Plan, error) {
	plans := make([]*plan.Plan, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, req := range reqs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, err := c.CompileAlteration(req)
			if err != nil {
				return fmt.Errorf("alter %s: %w", req.Table, err)
			}
			plans[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return plans, nil
}

func compileDrops(c *compiler.Compiler, names []string) ([]*plan.Plan, error) {
	plans := make([]*plan.Plan, 0, len(names))
	for _, name := range names {
		p, err := c.CompileDropTable(name)
		if err != nil {
			return nil, fmt.Errorf("drop %s: %w", name, err)
		}
		plans = append(plans, p)
	}
	return plans, nil
}

// writePlans renders plans in the selected format to --output or stdout.
func (o *rootOptions) writePlans(cmd *cobra.Command, plans []*plan.Plan) error {
	formatter, err := output.NewFormatter(o.format)
	if err != nil {
		return err
	}
	if o.output == "" {
		return output.Write(cmd.OutOrStdout(), formatter, plans)
	}

	f, err := os.Create(o.output)
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := output.Write(f, formatter, plans); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	printInfo(cmd, o.format, fmt.Sprintf("Output saved to %s", o.output))
	return nil
}
