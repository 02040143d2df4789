package core

import "strings"

// EscapeComment escapes comment text for a single-quoted SQL literal. Each
// quote that is not already half of a doubled pair is doubled; existing
// pairs are copied through. The function is applied exactly once per
// comment by the compiler.
func EscapeComment(s string) string {
	if !strings.Contains(s, "'") {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s) + 4)
	for i := 0; i < len(s); i++ {
		if s[i] != '\'' {
			sb.WriteByte(s[i])
			continue
		}
		if i+1 < len(s) && s[i+1] == '\'' {
			sb.WriteString("''")
			i++
			continue
		}
		sb.WriteString("''")
	}
	return sb.String()
}

// EscapeLiteral doubles every single quote. It is used for string defaults
// and enum values, where the input is data and never pre-escaped.
func EscapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
