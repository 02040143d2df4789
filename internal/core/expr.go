package core

import (
	"regexp"
	"strings"
)

func wordPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(name) + `\b`)
}

// MentionsColumn reports whether a SQL expression uses column as a whole word.
func MentionsColumn(expr, column string) bool {
	return strings.TrimSpace(expr) != "" && wordPattern(column).MatchString(expr)
}

// RenameInExpression replaces whole-word uses of from with to.
func RenameInExpression(expr, from, to string) string {
	if expr == "" {
		return expr
	}
	return wordPattern(from).ReplaceAllLiteralString(expr, to)
}
