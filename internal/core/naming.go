package core

import (
	"fmt"
	"hash/fnv"
	"strings"
	"unicode/utf8"
)

const (
	suffixPrimary = "pkey"
	suffixForeign = "foreign"
	suffixUnique  = "unique"
	suffixCheck   = "check"
	suffixIndex   = "index"
)

// ConstraintName derives the name of an unnamed constraint. The result is a
// pure function of its inputs, so an unnamed drop finds what an unnamed add
// created.
func ConstraintName(table string, kind ConstraintType, columns []string, checkExpr string, maxLen int) string {
	var name string
	switch kind {
	case ConstraintPrimaryKey:
		name = table + "_" + suffixPrimary
	case ConstraintForeignKey:
		name = joinName(table, columns, suffixForeign)
	case ConstraintUnique:
		name = joinName(table, columns, suffixUnique)
	case ConstraintCheck:
		if len(columns) > 0 {
			name = joinName(table, columns, suffixCheck)
		} else {
			name = fmt.Sprintf("%s_%08x_%s", table, hash32(checkExpr), suffixCheck)
		}
	default:
		name = joinName(table, columns, strings.ToLower(strings.ReplaceAll(string(kind), " ", "_")))
	}
	return FitIdentifier(name, maxLen)
}

// IndexName derives the name of an unnamed index.
func IndexName(table string, columns []string, unique bool, maxLen int) string {
	suffix := suffixIndex
	if unique {
		suffix = suffixUnique
	}
	return FitIdentifier(joinName(table, columns, suffix), maxLen)
}

// DefaultConstraintName derives the name of a column default constraint on
// dialects that model defaults as named constraints.
func DefaultConstraintName(prefix, table, column string, maxLen int) string {
	return FitIdentifier(prefix+"_"+table+"_"+column, maxLen)
}

// RebuildTableName returns the temporary table name used while rebuilding
// table. It depends only on the table name, so concurrent rebuilds of
// different tables never share a temporary name.
func RebuildTableName(table string, maxLen int) string {
	return FitIdentifier(fmt.Sprintf("%s__schemac_rebuild_%08x", table, hash32(table)), maxLen)
}

// FitIdentifier shortens name to maxLen by truncating it and appending a
// 16 hex digit FNV-1a hash of the full name. Names within the limit are
// returned unchanged; maxLen <= 0 means unlimited.
func FitIdentifier(name string, maxLen int) string {
	if maxLen <= 0 || len(name) <= maxLen {
		return name
	}
	suffix := fmt.Sprintf("_%016x", hash64(name))
	keep := maxLen - len(suffix)
	if keep < 1 {
		return suffix[len(suffix)-maxLen:]
	}
	for keep > 0 && !utf8.RuneStart(name[keep]) {
		keep--
	}
	return name[:keep] + suffix
}

func joinName(table string, columns []string, suffix string) string {
	parts := make([]string, 0, len(columns)+2)
	parts = append(parts, table)
	parts = append(parts, columns...)
	parts = append(parts, suffix)
	return strings.Join(parts, "_")
}

func hash64(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

func hash32(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}
