package apply

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver" // registers the TiDB value expression driver

	"schemac/internal/dialect"
)

type alterTableSpecEffect struct {
	blocking          bool
	destructive       bool
	destructiveReason string
	blockingReason    string
}

var alterTableSpecEffects = map[ast.AlterTableType]alterTableSpecEffect{
	ast.AlterTableAddColumns: {
		blocking:       true,
		blockingReason: "ADD COLUMN may require a table rebuild depending on server version and column position",
	},
	ast.AlterTableDropColumn: {
		blocking:          true,
		destructive:       true,
		destructiveReason: "DROP COLUMN will permanently delete the column and its data",
		blockingReason:    "DROP COLUMN typically requires a full table rebuild and will lock the table",
	},
	ast.AlterTableModifyColumn: {
		blocking:       true,
		blockingReason: "MODIFY COLUMN may require a table rebuild if changing column type or size",
	},
	ast.AlterTableChangeColumn: {
		blocking:       true,
		blockingReason: "CHANGE COLUMN may require a table rebuild",
	},
	ast.AlterTableDropIndex: {
		blocking:       true,
		blockingReason: "DROP INDEX may briefly lock the table",
	},
	ast.AlterTableDropForeignKey: {
		blocking:       true,
		blockingReason: "DROP FOREIGN KEY may briefly lock the table",
	},
	ast.AlterTableDropPrimaryKey: {
		blocking:       true,
		blockingReason: "DROP PRIMARY KEY requires a full table rebuild and will lock the table",
	},
}

// nonTransactional lists statement prefixes that cannot run inside a
// transaction on dialects with transactional DDL.
var nonTransactional = map[dialect.Type]map[string]string{
	dialect.PostgreSQL: {
		"CREATE INDEX CONCURRENTLY": "CREATE INDEX CONCURRENTLY cannot run inside a transaction block",
		"DROP INDEX CONCURRENTLY":   "DROP INDEX CONCURRENTLY cannot run inside a transaction block",
		"ALTER TYPE":                "ALTER TYPE ... ADD VALUE cannot run inside a transaction block before PostgreSQL 12",
		"VACUUM":                    "VACUUM cannot run inside a transaction block",
	},
	dialect.SQLite: {
		"VACUUM": "VACUUM cannot run inside a transaction",
	},
	dialect.MSSQL: {
		"ALTER DATABASE":  "ALTER DATABASE is not allowed in an explicit transaction",
		"CREATE FULLTEXT": "full-text DDL is not allowed in an explicit transaction",
		"ALTER FULLTEXT":  "full-text DDL is not allowed in an explicit transaction",
		"DROP FULLTEXT":   "full-text DDL is not allowed in an explicit transaction",
		"BACKUP":          "BACKUP is not allowed in an explicit transaction",
		"RECONFIGURE":     "RECONFIGURE is not allowed in an explicit transaction",
		"CREATE DATABASE": "CREATE DATABASE is not allowed in an explicit transaction",
		"DROP DATABASE":   "DROP DATABASE is not allowed in an explicit transaction",
	},
}

var (
	dropColumnRe = regexp.MustCompile(`(?i)\bDROP\s+COLUMN\b`)
	leadingRe    = regexp.MustCompile(`^\s*(?:--[^\n]*\n\s*)*`)
)

// StatementAnalysis contains the results of analyzing a SQL statement.
type StatementAnalysis struct {
	IsBlocking        bool
	BlockingReasons   []string
	IsDestructive     bool
	DestructiveReason string
	IsTransactionSafe bool
	TxUnsafeReason    string
	StatementType     string
}

// StatementAnalyzer classifies statements for one dialect. MySQL and
// MariaDB statements are parsed with the TiDB parser; other dialects are
// classified by their leading keywords.
type StatementAnalyzer struct {
	dialect dialect.Type
	parser  *parser.Parser
}

// NewStatementAnalyzer creates an analyzer for the given dialect.
func NewStatementAnalyzer(t dialect.Type) *StatementAnalyzer {
	a := &StatementAnalyzer{dialect: t}
	if isMySQLFamily(t) {
		a.parser = parser.New()
	}
	return a
}

func isMySQLFamily(t dialect.Type) bool {
	return t == dialect.MySQL || t == dialect.MariaDB
}

// AnalyzeStatement returns the analysis of a single SQL statement.
func (a *StatementAnalyzer) AnalyzeStatement(sql string) *StatementAnalysis {
	if a.parser == nil {
		return a.analyzeKeywords(sql)
	}

	stmtNodes, _, err := a.parser.Parse(sql, "", "")
	if err != nil || len(stmtNodes) == 0 {
		return a.analyzeKeywords(sql)
	}
	return a.analyzeNode(stmtNodes[0], sql)
}

func (a *StatementAnalyzer) analyzeNode(node ast.StmtNode, originalSQL string) *StatementAnalysis {
	analysis := &StatementAnalysis{IsTransactionSafe: true}

	switch stmt := node.(type) {
	case *ast.DropTableStmt:
		analysis.StatementType = "DROP TABLE"
		analysis.IsDestructive = true
		analysis.DestructiveReason = "DROP TABLE will permanently delete the table and all its data"
		a.implicitCommit(analysis)
	case *ast.CreateTableStmt:
		analysis.StatementType = "CREATE TABLE"
		a.implicitCommit(analysis)
	case *ast.CreateIndexStmt:
		analysis.StatementType = "CREATE INDEX"
		analysis.IsBlocking = true
		analysis.BlockingReasons = append(analysis.BlockingReasons, "CREATE INDEX may lock the table for the duration of index creation")
		a.implicitCommit(analysis)
	case *ast.DropIndexStmt:
		analysis.StatementType = "DROP INDEX"
		analysis.IsBlocking = true
		analysis.BlockingReasons = append(analysis.BlockingReasons, "DROP INDEX may briefly lock the table")
		a.implicitCommit(analysis)
	case *ast.AlterTableStmt:
		analysis.StatementType = "ALTER TABLE"
		a.implicitCommit(analysis)
		for _, spec := range stmt.Specs {
			a.analyzeAlterTableSpec(spec, analysis)
		}
	case *ast.RenameTableStmt:
		analysis.StatementType = "RENAME TABLE"
		analysis.IsBlocking = true
		analysis.BlockingReasons = append(analysis.BlockingReasons, "RENAME TABLE acquires an exclusive lock but is typically fast")
		a.implicitCommit(analysis)
	case *ast.TruncateTableStmt:
		analysis.StatementType = "TRUNCATE TABLE"
		analysis.IsDestructive = true
		analysis.DestructiveReason = "TRUNCATE TABLE will delete all rows from the table"
		a.implicitCommit(analysis)
	case *ast.DeleteStmt:
		analysis.StatementType = "DELETE"
		analysis.IsDestructive = true
		analysis.DestructiveReason = "DELETE will remove rows from the table"
	case *ast.InsertStmt:
		analysis.StatementType = "INSERT"
	case *ast.UpdateStmt:
		analysis.StatementType = "UPDATE"
	case *ast.SelectStmt:
		analysis.StatementType = "SELECT"
	default:
		return a.analyzeKeywords(originalSQL)
	}
	return analysis
}

func (a *StatementAnalyzer) implicitCommit(analysis *StatementAnalysis) {
	analysis.IsTransactionSafe = false
	analysis.TxUnsafeReason = fmt.Sprintf("%s causes an implicit commit in %s", analysis.StatementType, a.dialectLabel())
}

func (a *StatementAnalyzer) dialectLabel() string {
	if a.dialect == dialect.MariaDB {
		return "MariaDB"
	}
	return "MySQL"
}

func (a *StatementAnalyzer) analyzeAlterTableSpec(spec *ast.AlterTableSpec, analysis *StatementAnalysis) {
	if spec.Tp == ast.AlterTableAddConstraint {
		analysis.IsBlocking = true
		reason := "ADD CONSTRAINT may lock the table while validating existing data"
		if spec.Constraint != nil && spec.Constraint.Tp == ast.ConstraintForeignKey {
			reason = "ADD FOREIGN KEY may lock the table while validating existing data"
		}
		analysis.BlockingReasons = append(analysis.BlockingReasons, reason)
		return
	}

	effect, ok := alterTableSpecEffects[spec.Tp]
	if !ok {
		return
	}
	if effect.blocking {
		analysis.IsBlocking = true
	}
	if effect.destructive {
		analysis.IsDestructive = true
		analysis.DestructiveReason = effect.destructiveReason
	}
	if effect.blockingReason != "" {
		analysis.BlockingReasons = append(analysis.BlockingReasons, effect.blockingReason)
	}
}

// analyzeKeywords classifies a statement by its leading keywords.
func (a *StatementAnalyzer) analyzeKeywords(sql string) *StatementAnalysis {
	analysis := &StatementAnalysis{IsTransactionSafe: true, StatementType: "OTHER"}
	upper := strings.ToUpper(strings.Join(strings.Fields(leadingRe.ReplaceAllString(sql, "")), " "))

	switch {
	case strings.HasPrefix(upper, "DROP TABLE"):
		analysis.StatementType = "DROP TABLE"
		analysis.IsDestructive = true
		analysis.DestructiveReason = "DROP TABLE will permanently delete the table and all its data"
	case strings.HasPrefix(upper, "TRUNCATE"):
		analysis.StatementType = "TRUNCATE TABLE"
		analysis.IsDestructive = true
		analysis.DestructiveReason = "TRUNCATE TABLE will delete all rows from the table"
	case strings.HasPrefix(upper, "DELETE"):
		analysis.StatementType = "DELETE"
		analysis.IsDestructive = true
		analysis.DestructiveReason = "DELETE will remove rows from the table"
	case strings.HasPrefix(upper, "ALTER TABLE"):
		analysis.StatementType = "ALTER TABLE"
		if dropColumnRe.MatchString(upper) {
			analysis.IsDestructive = true
			analysis.DestructiveReason = "DROP COLUMN will permanently delete the column and its data"
		}
	case strings.HasPrefix(upper, "CREATE TABLE"):
		analysis.StatementType = "CREATE TABLE"
	case strings.HasPrefix(upper, "CREATE INDEX"), strings.HasPrefix(upper, "CREATE UNIQUE INDEX"):
		analysis.StatementType = "CREATE INDEX"
		analysis.IsBlocking = true
		analysis.BlockingReasons = append(analysis.BlockingReasons, "CREATE INDEX may lock the table for the duration of index creation")
	}

	if isMySQLFamily(a.dialect) {
		if strings.HasPrefix(upper, "CREATE ") || strings.HasPrefix(upper, "DROP ") || strings.HasPrefix(upper, "ALTER ") {
			analysis.IsTransactionSafe = false
			analysis.TxUnsafeReason = "DDL statement causes implicit commit"
		}
		return analysis
	}

	for prefix, reason := range nonTransactional[a.dialect] {
		if strings.HasPrefix(upper, prefix) {
			analysis.IsTransactionSafe = false
			analysis.TxUnsafeReason = reason
			break
		}
	}
	return analysis
}
