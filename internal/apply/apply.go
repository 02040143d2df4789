// Package apply executes compiled plans against a live database. It runs a
// preflight analysis first, can wrap the plans in one transaction, and has a
// dry-run mode that only reports what would happen.
package apply

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"schemac/internal/dialect"
	"schemac/internal/plan"
)

// Options struct contains all settings available for the apply command.
type Options struct {
	Dialect               dialect.Type
	DSN                   string
	DryRun                bool
	Transaction           bool
	AllowNonTransactional bool
	Unsafe                bool
	Out                   io.Writer
	Logger                *zap.Logger
}

// Applier executes plans on one database connection.
type Applier struct {
	db       *sql.DB
	options  Options
	analyzer *StatementAnalyzer
	out      io.Writer
	log      *zap.Logger
}

// NewApplier returns an Applier for the provided options.
func NewApplier(options Options) *Applier {
	out := options.Out
	if out == nil {
		out = io.Discard
	}
	log := options.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Applier{
		options:  options,
		analyzer: NewStatementAnalyzer(options.Dialect),
		out:      out,
		log:      log.With(zap.String("dialect", string(options.Dialect))),
	}
}

func (a *Applier) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}

func (a *Applier) println(args ...any) {
	_, _ = fmt.Fprintln(a.out, args...)
}

// Connect opens the database for the configured dialect and pings it.
func (a *Applier) Connect(ctx context.Context) error {
	driver, err := DriverName(a.options.Dialect)
	if err != nil {
		return err
	}
	target, err := describeDSN(a.options.Dialect, a.options.DSN)
	if err != nil {
		return err
	}

	db, err := sql.Open(driver, a.options.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if pingErr := db.PingContext(ctx); pingErr != nil {
		if closeErr := db.Close(); closeErr != nil {
			return fmt.Errorf("failed to ping database: %w; additionally failed to close connection: %w", pingErr, closeErr)
		}
		return fmt.Errorf("failed to ping database: %w", pingErr)
	}

	a.log.Info("connected", zap.String("driver", driver), zap.String("target", target))
	a.db = db
	return nil
}

// UseDB makes the applier execute on an already open database.
func (a *Applier) UseDB(db *sql.DB) {
	a.db = db
}

// Close closes the connection. It is safe to call more than once.
func (a *Applier) Close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

// Preflight analyzes plans for destructive and non-transactional statements.
func (a *Applier) Preflight(plans []*plan.Plan) *PreflightResult {
	return a.analyzer.AnalyzePlans(plans, a.options.Unsafe)
}

// Apply executes plans in order. Destructive statements need the Unsafe
// option. With Transaction set, the plans run in one transaction unless
// preflight found statements that cannot.
func (a *Applier) Apply(ctx context.Context, plans []*plan.Plan, preflight *PreflightResult) error {
	if preflight == nil {
		preflight = a.Preflight(plans)
	}
	if a.options.DryRun {
		return a.dryRun(plans, preflight)
	}
	if HasDestructiveOperations(preflight) && !a.options.Unsafe {
		return errors.New("plan contains destructive operations; use --unsafe to proceed")
	}
	if a.db == nil {
		return errors.New("not connected")
	}

	stmts := flatten(plans)
	a.log.Info("applying plans", zap.Int("plans", len(plans)), zap.Int("statements", len(stmts)))

	if a.options.Transaction {
		if preflight.IsTransactional {
			return a.applyWithTransaction(ctx, stmts)
		}
		if !a.options.AllowNonTransactional {
			return errors.New("plan contains non-transactional DDL statements; use --allow-non-transactional to proceed")
		}
	}
	return a.applyWithoutTransaction(ctx, stmts)
}

func flatten(plans []*plan.Plan) []plan.Statement {
	var out []plan.Statement
	for _, p := range plans {
		if p == nil {
			continue
		}
		out = append(out, p.Statements...)
	}
	return out
}

func (a *Applier) dryRun(plans []*plan.Plan, preflight *PreflightResult) error {
	a.println("=== DRY RUN MODE ===")

	a.println("--- Preflight Checks ---")
	if len(preflight.Warnings) == 0 {
		a.println("No warnings")
	}
	for _, w := range preflight.Warnings {
		a.printf("[%s] %s\n", w.Level, w.Message)
		if w.SQL != "" {
			a.printf("    SQL: %s\n", truncateSQL(w.SQL))
		}
	}

	a.println("--- Transaction Safety ---")
	if preflight.IsTransactional {
		a.println("All statements are transaction-safe")
	} else {
		a.println("Plan is NOT transaction-safe")
		for _, reason := range preflight.NonTxReasons {
			a.printf("  - %s\n", reason)
		}
	}

	a.println("--- Statements to Execute ---")
	for i, stmt := range flatten(plans) {
		a.printf("%d. %s\n", i+1, stmt.SQL)
		if len(stmt.Bindings) > 0 {
			b, err := json.Marshal(stmt.Bindings)
			if err != nil {
				return fmt.Errorf("encode bindings: %w", err)
			}
			a.printf("   bindings: %s\n", b)
		}
		a.println()
	}

	if HasDestructiveOperations(preflight) && !a.options.Unsafe {
		return errors.New("preflight checks failed: destructive operations detected without --unsafe flag")
	}
	if a.options.Transaction && !preflight.IsTransactional && !a.options.AllowNonTransactional {
		return errors.New("preflight checks failed: non-transactional DDL detected without --allow-non-transactional flag")
	}

	a.println("=== DRY RUN COMPLETE ===")
	a.println("All preflight checks passed. Run without --dry-run to apply.")
	return nil
}

func (a *Applier) applyWithTransaction(ctx context.Context, stmts []plan.Statement) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for i := range stmts {
		a.printf("Executing statement %d/%d...\n", i+1, len(stmts))
		a.log.Debug("exec", zap.Int("n", i+1), zap.String("sql", truncateSQL(stmts[i].SQL)))
		if _, err := tx.ExecContext(ctx, stmts[i].SQL, stmts[i].Bindings...); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				return fmt.Errorf("execute failed: %w; rollback also failed: %w", err, rbErr)
			}
			return fmt.Errorf("execute failed (rolled back): %w\n  Statement: %s", err, truncateSQL(stmts[i].SQL))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	a.printf("Successfully applied %d statements\n", len(stmts))
	return nil
}

func (a *Applier) applyWithoutTransaction(ctx context.Context, stmts []plan.Statement) error {
	a.println("Applying plan without transaction wrapper")

	for i := range stmts {
		a.printf("Executing statement %d/%d...\n", i+1, len(stmts))
		a.log.Debug("exec", zap.Int("n", i+1), zap.String("sql", truncateSQL(stmts[i].SQL)))
		if _, err := a.db.ExecContext(ctx, stmts[i].SQL, stmts[i].Bindings...); err != nil {
			return fmt.Errorf("statement %d failed: %w\n  Statement: %s\n  %d statements were already applied and cannot be automatically rolled back",
				i+1, err, truncateSQL(stmts[i].SQL), i)
		}
	}

	a.printf("Successfully applied %d statements\n", len(stmts))
	return nil
}
