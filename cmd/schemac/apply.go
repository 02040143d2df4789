package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"schemac/internal/apply"
	"schemac/internal/plan"
)

func applyCmd(opts *rootOptions) *cobra.Command {
	var dsn string
	var dryRun bool
	var transaction bool
	var allowNonTransactional bool
	var unsafe bool
	var timeout int

	cmd := &cobra.Command{
		Use:   "apply <schema.toml|schema.yaml>",
		Short: "Compile a schema file and apply it to a database",
		Long: `Apply compiles the tables, alterations and table drops of a schema file and
executes the statements on the database given by --dsn.

This command performs preflight checks before execution:
- Warns about potentially blocking DDL operations
- Warns about destructive operations (DROP, TRUNCATE, etc.)
- Checks transaction safety of the plan

Examples:
  schemac apply changes.toml --dialect mysql --dsn "user:pass@tcp(localhost:3306)/mydb"
  schemac apply changes.toml --dialect postgresql --dsn "postgres://u:p@localhost/db" --dry-run
  schemac apply changes.toml --dialect sqlite --dsn app.db --unsafe`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dsn == "" && !dryRun {
				return errors.New("--dsn is required")
			}

			doc, err := opts.loadDocument(args[0])
			if err != nil {
				return err
			}
			c, err := opts.newCompiler(doc)
			if err != nil {
				return err
			}

			var plans []*plan.Plan
			creates, err := compileTables(c, doc.Tables)
			if err != nil {
				return err
			}
			plans = append(plans, creates...)
			alters, err := compileAlterations(cmd.Context(), c, doc.Alterations)
			if err != nil {
				return err
			}
			plans = append(plans, alters...)
			drops, err := compileDrops(c, doc.DropTables)
			if err != nil {
				return err
			}
			plans = append(plans, drops...)

			if len(plans) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No statements to apply")
				return nil
			}

			applier := apply.NewApplier(apply.Options{
				Dialect:               c.Dialect().Type,
				DSN:                   dsn,
				DryRun:                dryRun,
				Transaction:           transaction,
				AllowNonTransactional: allowNonTransactional,
				Unsafe:                unsafe,
				Out:                   cmd.OutOrStdout(),
				Logger:                opts.log,
			})

			preflight := applier.Preflight(plans)
			if dryRun {
				return applier.Apply(cmd.Context(), plans, preflight)
			}

			if apply.HasDestructiveOperations(preflight) && !unsafe {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "--- Preflight Warnings ---")
				for _, w := range preflight.Warnings {
					if w.Level == apply.WarnDanger {
						_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✗ [%s] %s\n", w.Level, w.Message)
						if w.SQL != "" {
							_, _ = fmt.Fprintf(cmd.OutOrStdout(), "    SQL: %s\n", w.SQL)
						}
					}
				}
				return errors.New("destructive operations detected; use --unsafe to allow these operations")
			}

			if transaction && !preflight.IsTransactional && !allowNonTransactional {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "--- Transaction Safety ---")
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Plan is NOT transaction-safe:")
				for _, reason := range preflight.NonTxReasons {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", reason)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Options:")
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "  1. Use --allow-non-transactional to proceed without transaction protection")
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "  2. Use --transaction=false to explicitly disable transaction mode")
				return errors.New("non-transactional DDL detected; use --allow-non-transactional to proceed")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(timeout)*time.Second)
			defer cancel()

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Connecting to database...")
			if err := applier.Connect(ctx); err != nil {
				return err
			}
			defer func() {
				if err := applier.Close(); err != nil {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Failed to close database connection: %v\n", err)
				}
			}()

			return applier.Apply(ctx, plans, preflight)
		},
	}

	cmd.Flags().StringVar(&dsn, "dsn", "", "Database connection string (required unless --dry-run)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print statements and run preflight checks without executing")
	cmd.Flags().BoolVarP(&transaction, "transaction", "t", true, "Run the plans in a transaction if possible")
	cmd.Flags().BoolVar(&allowNonTransactional, "allow-non-transactional", false, "Allow non-transactional DDL when --transaction is set")
	cmd.Flags().BoolVarP(&unsafe, "unsafe", "u", false, "Allow destructive operations (DROP, TRUNCATE, etc.)")
	cmd.Flags().IntVar(&timeout, "timeout", 300, "Timeout in seconds")
	return cmd
}
