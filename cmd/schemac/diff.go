package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"schemac/internal/core"
	"schemac/internal/dialect"
	"schemac/internal/diff"
	"schemac/internal/introspect"
	_ "schemac/internal/introspect/mysql"
	_ "schemac/internal/introspect/sqlite"
	"schemac/internal/parser/document"
	"schemac/internal/plan"
)

func diffCmd(opts *rootOptions) *cobra.Command {
	var noRenames bool
	var dropRemoved bool
	var fromDSN string

	cmd := &cobra.Command{
		Use:   "diff [current] <desired>",
		Short: "Compile the changes that turn the current schema into the desired one",
		Long: `Diff compares two schemas and compiles the statements that migrate the first
into the second. The current schema may be a TOML or YAML file or a MySQL dump
(.sql). With --from-dsn the current schema is read from a live database and only
the desired schema is given. A report of the differences is written to stderr.

Examples:
  schemac diff dump.sql schema.toml --dialect mysql --version 8.0.36
  schemac diff old.yaml new.yaml --drop-removed
  schemac diff schema.toml --from-dsn "user:pass@tcp(localhost:3306)/app"`,
		Args: func(cmd *cobra.Command, args []string) error {
			if fromDSN != "" {
				return cobra.ExactArgs(1)(cmd, args)
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var current, desired *document.Document
			var err error
			if fromDSN != "" {
				if desired, err = opts.loadDocument(args[0]); err != nil {
					return fmt.Errorf("failed to read desired schema: %w", err)
				}
				if current, err = opts.introspect(cmd.Context(), fromDSN, desired); err != nil {
					return err
				}
			} else {
				if current, err = opts.loadDocument(args[0]); err != nil {
					return fmt.Errorf("failed to read current schema: %w", err)
				}
				if desired, err = opts.loadDocument(args[1]); err != nil {
					return fmt.Errorf("failed to read desired schema: %w", err)
				}
			}

			c, err := opts.newCompiler(desired, current)
			if err != nil {
				return err
			}

			diffOpts := diff.DefaultOptions()
			diffOpts.DetectColumnRenames = !noRenames
			schemaDiff := diff.Schemas(currentTables(current), desired.Tables, diffOpts)
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), schemaDiff.String())
			opts.log.Debug("schemas compared",
				zap.Int("added", len(schemaDiff.AddedTables)),
				zap.Int("removed", len(schemaDiff.RemovedTables)),
				zap.Int("modified", len(schemaDiff.ModifiedTables)),
			)

			var plans []*plan.Plan
			creates, err := compileTables(c, schemaDiff.AddedTables)
			if err != nil {
				return err
			}
			plans = append(plans, creates...)

			alters, err := compileAlterations(cmd.Context(), c, schemaDiff.Requests())
			if err != nil {
				return err
			}
			plans = append(plans, alters...)

			if dropRemoved {
				names := make([]string, 0, len(schemaDiff.RemovedTables))
				for _, t := range schemaDiff.RemovedTables {
					names = append(names, t.Name)
				}
				drops, err := compileDrops(c, names)
				if err != nil {
					return err
				}
				plans = append(plans, drops...)
			}
			return opts.writePlans(cmd, plans)
		},
	}

	cmd.Flags().BoolVar(&noRenames, "no-renames", false, "Treat renamed columns as drop plus add")
	cmd.Flags().BoolVar(&dropRemoved, "drop-removed", false, "Drop tables missing from the desired schema")
	cmd.Flags().StringVar(&fromDSN, "from-dsn", "", "Read the current schema from this database")
	return cmd
}

// introspect reads the current state of a live database as a document. The
// dialect comes from the flags or the desired document.
func (o *rootOptions) introspect(ctx context.Context, dsn string, desired *document.Document) (*document.Document, error) {
	name := o.dialect
	if name == "" {
		name = desired.Dialect
	}
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("no dialect given; use --dialect or set [database].dialect")
	}
	t, err := dialect.Resolve(name)
	if err != nil {
		return nil, err
	}

	s, err := introspect.Open(ctx, t, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect database: %w", err)
	}
	o.log.Debug("database introspected",
		zap.String("dialect", string(s.Dialect)),
		zap.String("version", s.Version),
		zap.Int("tables", len(s.Tables)),
	)
	return &document.Document{Dialect: string(s.Dialect), Version: s.Version, Tables: s.Tables}, nil
}

// currentTables returns the [[current]] tables of a document, or its
// [[tables]] when it describes a plain schema.
func currentTables(doc *document.Document) []*core.Table {
	if len(doc.Current) > 0 {
		return doc.Current
	}
	return doc.Tables
}
