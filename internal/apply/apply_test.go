package apply

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemac/internal/dialect"
	"schemac/internal/plan"
)

func newMockApplier(t *testing.T, opts Options) (*Applier, sqlmock.Sqlmock, *bytes.Buffer) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var out bytes.Buffer
	opts.Out = &out
	a := NewApplier(opts)
	a.UseDB(db)
	return a, mock, &out
}

func pgPlans() []*plan.Plan {
	return []*plan.Plan{
		{
			Dialect: "postgresql",
			Table:   "users",
			Mode:    plan.ModeCreate,
			Statements: []plan.Statement{
				plan.Stmt(`CREATE TABLE "users" ("id" integer NOT NULL)`),
				plan.Stmt(`COMMENT ON TABLE "users" IS 'people'`),
			},
		},
		{
			Dialect:    "postgresql",
			Table:      "orders",
			Mode:       plan.ModeDirect,
			Statements: []plan.Statement{plan.Stmt(`ALTER TABLE "orders" ADD COLUMN "note" text`)},
		},
	}
}

func TestApplyWithTransactionCommits(t *testing.T) {
	a, mock, out := newMockApplier(t, Options{Dialect: dialect.PostgreSQL, Transaction: true})

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TABLE "users" ("id" integer NOT NULL)`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`COMMENT ON TABLE "users" IS 'people'`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`ALTER TABLE "orders" ADD COLUMN "note" text`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, a.Apply(context.Background(), pgPlans(), nil))
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Contains(t, out.String(), "Successfully applied 3 statements")
}

func TestApplyWithTransactionRollsBack(t *testing.T) {
	a, mock, _ := newMockApplier(t, Options{Dialect: dialect.PostgreSQL, Transaction: true})

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TABLE "users" ("id" integer NOT NULL)`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`COMMENT ON TABLE "users" IS 'people'`).WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	err := a.Apply(context.Background(), pgPlans(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "execute failed (rolled back): boom")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyWithoutTransaction(t *testing.T) {
	a, mock, out := newMockApplier(t, Options{Dialect: dialect.PostgreSQL})

	mock.ExpectExec(`CREATE TABLE "users" ("id" integer NOT NULL)`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`COMMENT ON TABLE "users" IS 'people'`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`ALTER TABLE "orders" ADD COLUMN "note" text`).WillReturnError(errors.New("denied"))

	err := a.Apply(context.Background(), pgPlans(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statement 3 failed: denied")
	assert.Contains(t, err.Error(), "2 statements were already applied")
	assert.Contains(t, out.String(), "Applying plan without transaction wrapper")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyNonTransactional(t *testing.T) {
	plans := []*plan.Plan{{
		Dialect:    "mysql",
		Table:      "t",
		Mode:       plan.ModeCreate,
		Statements: []plan.Statement{plan.Stmt("CREATE TABLE `t` (`id` int NOT NULL)")},
	}}

	t.Run("refused", func(t *testing.T) {
		a, mock, _ := newMockApplier(t, Options{Dialect: dialect.MySQL, Transaction: true})
		err := a.Apply(context.Background(), plans, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--allow-non-transactional")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("allowed", func(t *testing.T) {
		a, mock, _ := newMockApplier(t, Options{Dialect: dialect.MySQL, Transaction: true, AllowNonTransactional: true})
		mock.ExpectExec("CREATE TABLE `t` (`id` int NOT NULL)").WillReturnResult(sqlmock.NewResult(0, 0))
		require.NoError(t, a.Apply(context.Background(), plans, nil))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestApplyDestructive(t *testing.T) {
	plans := []*plan.Plan{{
		Dialect:    "postgresql",
		Table:      "old",
		Mode:       plan.ModeDrop,
		Statements: []plan.Statement{plan.Stmt(`DROP TABLE "old"`)},
	}}

	a, mock, _ := newMockApplier(t, Options{Dialect: dialect.PostgreSQL, Transaction: true})
	err := a.Apply(context.Background(), plans, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--unsafe")
	require.NoError(t, mock.ExpectationsWereMet())

	a, mock, _ = newMockApplier(t, Options{Dialect: dialect.PostgreSQL, Transaction: true, Unsafe: true})
	mock.ExpectBegin()
	mock.ExpectExec(`DROP TABLE "old"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	require.NoError(t, a.Apply(context.Background(), plans, nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyPassesBindings(t *testing.T) {
	lookup := "SELECT @df = dc.name FROM sys.default_constraints dc WHERE dc.parent_object_id = OBJECT_ID(@p1)"
	plans := []*plan.Plan{{
		Dialect: "mssql",
		Table:   "users",
		Mode:    plan.ModeDirect,
		Statements: []plan.Statement{
			plan.Stmt(lookup, "dbo.users", "bio"),
			plan.Stmt("ALTER TABLE [users] ADD [nick] nvarchar(50) NULL"),
		},
	}}

	a, mock, _ := newMockApplier(t, Options{Dialect: dialect.MSSQL, Transaction: true})
	mock.ExpectBegin()
	mock.ExpectExec(lookup).WithArgs("dbo.users", "bio").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("ALTER TABLE [users] ADD [nick] nvarchar(50) NULL").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, a.Apply(context.Background(), plans, nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyNotConnected(t *testing.T) {
	a := NewApplier(Options{Dialect: dialect.SQLite})
	err := a.Apply(context.Background(), pgPlans(), nil)
	require.EqualError(t, err, "not connected")
	assert.NoError(t, a.Close())
}

func TestDryRun(t *testing.T) {
	plans := []*plan.Plan{
		{
			Dialect: "mssql",
			Table:   "users",
			Mode:    plan.ModeDirect,
			Statements: []plan.Statement{
				plan.Stmt("SELECT 1 WHERE OBJECT_ID(@p1) IS NOT NULL", "dbo.users"),
			},
			Notes: []plan.Note{{Kind: plan.NoteWarning, Text: "collation ignored"}},
		},
		{
			Dialect:    "mssql",
			Table:      "old",
			Mode:       plan.ModeDrop,
			Statements: []plan.Statement{plan.Stmt("DROP TABLE [old]")},
		},
	}

	t.Run("destructive without unsafe", func(t *testing.T) {
		var out bytes.Buffer
		a := NewApplier(Options{Dialect: dialect.MSSQL, DryRun: true, Out: &out})
		err := a.Apply(context.Background(), plans, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "destructive operations detected without --unsafe flag")

		s := out.String()
		assert.Contains(t, s, "=== DRY RUN MODE ===")
		assert.Contains(t, s, "[CAUTION] collation ignored")
		assert.Contains(t, s, "[DANGER] DROP TABLE will permanently delete the table and all its data (requires --unsafe flag)")
		assert.Contains(t, s, "All statements are transaction-safe")
		assert.Contains(t, s, `   bindings: ["dbo.users"]`)
		assert.Contains(t, s, "2. DROP TABLE [old]")
		assert.NotContains(t, s, "=== DRY RUN COMPLETE ===")
	})

	t.Run("unsafe", func(t *testing.T) {
		var out bytes.Buffer
		a := NewApplier(Options{Dialect: dialect.MSSQL, DryRun: true, Unsafe: true, Out: &out})
		require.NoError(t, a.Apply(context.Background(), plans, nil))
		assert.Contains(t, out.String(), "=== DRY RUN COMPLETE ===")
	})
}

func TestDriverName(t *testing.T) {
	tests := []struct {
		dialect dialect.Type
		want    string
	}{
		{dialect.MySQL, "mysql"},
		{dialect.MariaDB, "mysql"},
		{dialect.PostgreSQL, "postgres"},
		{dialect.SQLite, "sqlite"},
		{dialect.MSSQL, "sqlserver"},
	}
	for _, tt := range tests {
		got, err := DriverName(tt.dialect)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := DriverName("oracle")
	require.ErrorIs(t, err, dialect.ErrUnsupportedDialect)
}

func TestDescribeDSN(t *testing.T) {
	tests := []struct {
		name    string
		dialect dialect.Type
		dsn     string
		want    string
		wantErr bool
	}{
		{"mysql", dialect.MySQL, "root:secret@tcp(db:3306)/app", "db:3306/app", false},
		{"mysql invalid", dialect.MySQL, "root:secret@tcp(db:3306", "", true},
		{"postgres url", dialect.PostgreSQL, "postgres://u:p@db:5432/app?sslmode=disable", "db:5432/app", false},
		{"postgres key value", dialect.PostgreSQL, "host=db user=u", "postgres", false},
		{"mssql", dialect.MSSQL, "sqlserver://sa:pw@db:1433?database=app", "db:1433/app", false},
		{"sqlite", dialect.SQLite, "file.db", "file.db", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := describeDSN(tt.dialect, tt.dsn)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, "secret")
		})
	}
}
