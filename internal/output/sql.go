package output

import (
	"encoding/json"
	"fmt"
	"strings"

	"schemac/internal/plan"
)

type sqlFormatter struct{}

// FormatPlans renders plans as a reviewable SQL script. Notes become
// comments ahead of the statements they concern.
func (sqlFormatter) FormatPlans(plans []*plan.Plan) (string, error) {
	var sb strings.Builder
	sb.WriteString("-- schemac plan\n")
	sb.WriteString("-- Review before running in production.\n")

	written := 0
	for _, p := range plans {
		if p == nil {
			continue
		}
		fmt.Fprintf(&sb, "\n-- %s, %s\n", planLabel(p), p.Dialect)

		writeCommentSection(&sb, "WARNINGS", p.Warnings())
		writeCommentSection(&sb, "LIMITATIONS", p.Limitations())
		writeCommentSection(&sb, "NOTES", p.InfoNotes())

		for i := range p.Statements {
			if err := writeStatement(&sb, &p.Statements[i]); err != nil {
				return "", err
			}
			written++
		}
	}

	if written == 0 {
		sb.WriteString("\n-- No SQL statements generated.\n")
	}
	return sb.String(), nil
}

func writeStatement(sb *strings.Builder, stmt *plan.Statement) error {
	sql := terminate(stmt.SQL)
	if sql == "" {
		return nil
	}
	if len(stmt.Bindings) > 0 {
		b, err := json.Marshal(stmt.Bindings)
		if err != nil {
			return fmt.Errorf("encode bindings: %w", err)
		}
		sb.WriteString("-- bindings: ")
		sb.Write(b)
		sb.WriteString("\n")
	}
	sb.WriteString(sql)
	sb.WriteString("\n")
	return nil
}

func writeCommentSection(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	sb.WriteString("-- " + title + "\n")
	for _, item := range items {
		for _, line := range splitCommentLines(item) {
			if line == "" {
				continue
			}
			sb.WriteString("-- - " + line + "\n")
		}
	}
}

func splitCommentLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return lines
}
