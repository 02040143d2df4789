package apply

import (
	"fmt"
	"strings"

	"schemac/internal/plan"
)

// PreflightResult contains a list of warnings, errors, and transactionality info about a plan.
type PreflightResult struct {
	Warnings        []Warning
	IsTransactional bool
	NonTxReasons    []string
}

// Warning contains a Level of a warning, message, and the SQL it concerns.
type Warning struct {
	Level   WarningLevel
	Message string
	SQL     string
}

// WarningLevel classifies how dangerous a statement is.
type WarningLevel string

const (
	WarnCaution WarningLevel = "CAUTION"
	WarnDanger  WarningLevel = "DANGER"
)

// AnalyzePlans runs the analyzer over every statement of plans. Plan
// warnings are carried over as CAUTION. The drop of the original table in
// a rebuild plan is not data loss and is reported as CAUTION too.
func (a *StatementAnalyzer) AnalyzePlans(plans []*plan.Plan, unsafeAllowed bool) *PreflightResult {
	result := &PreflightResult{IsTransactional: true}

	for _, p := range plans {
		if p == nil {
			continue
		}
		for _, w := range p.Warnings() {
			result.Warnings = append(result.Warnings, Warning{Level: WarnCaution, Message: w})
		}
		for i := range p.Statements {
			stmt := p.Statements[i].SQL
			analysis := a.AnalyzeStatement(stmt)
			if p.Mode == plan.ModeRebuild && analysis.StatementType == "DROP TABLE" {
				analysis.IsDestructive = false
				analysis.IsBlocking = true
				analysis.BlockingReasons = append(analysis.BlockingReasons,
					fmt.Sprintf("rebuild of %s replaces the table with a copy", p.Table))
			}
			addBlockingWarnings(result, analysis, stmt)
			addDestructiveWarning(result, analysis, stmt, unsafeAllowed)
			addTransactionSafety(result, analysis, stmt)
		}
	}
	return result
}

func addBlockingWarnings(result *PreflightResult, analysis *StatementAnalysis, stmt string) {
	if !analysis.IsBlocking {
		return
	}
	for _, reason := range analysis.BlockingReasons {
		result.Warnings = append(result.Warnings, Warning{
			Level:   WarnCaution,
			Message: fmt.Sprintf("Potentially blocking DDL: %s", reason),
			SQL:     stmt,
		})
	}
}

func addDestructiveWarning(result *PreflightResult, analysis *StatementAnalysis, stmt string, unsafeAllowed bool) {
	if !analysis.IsDestructive {
		return
	}
	msg := analysis.DestructiveReason
	if !unsafeAllowed {
		msg = fmt.Sprintf("%s (requires --unsafe flag)", msg)
	}
	result.Warnings = append(result.Warnings, Warning{
		Level:   WarnDanger,
		Message: msg,
		SQL:     stmt,
	})
}

func addTransactionSafety(result *PreflightResult, analysis *StatementAnalysis, stmt string) {
	if analysis.IsTransactionSafe {
		return
	}
	result.IsTransactional = false
	reason := analysis.TxUnsafeReason
	if reason == "" {
		reason = "DDL statement causes implicit commit"
	}
	result.NonTxReasons = append(result.NonTxReasons, fmt.Sprintf("%s: %s", reason, truncateSQL(stmt)))
}

// HasDestructiveOperations reports whether preflight found a DANGER warning.
func HasDestructiveOperations(preflight *PreflightResult) bool {
	for _, w := range preflight.Warnings {
		if w.Level == WarnDanger {
			return true
		}
	}
	return false
}

func truncateSQL(stmt string) string {
	stmt = strings.Join(strings.Fields(stmt), " ")
	if len(stmt) > 80 {
		return stmt[:77] + "..."
	}
	return stmt
}
