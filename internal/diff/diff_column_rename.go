package diff

import (
	"strings"

	"schemac/internal/core"
)

func (td *TableDiff) detectColumnRenames() {
	if len(td.RemovedColumns) == 0 || len(td.AddedColumns) == 0 {
		return
	}
	// Map iteration filled both lists; sort so pairing is deterministic.
	sortNamed(td.RemovedColumns)
	sortNamed(td.AddedColumns)

	usedAdded := make(map[int]struct{}, len(td.AddedColumns))
	var renames []*ColumnRename

	for _, oldC := range td.RemovedColumns {
		bestIdx := -1
		bestScore := -1
		for j, newC := range td.AddedColumns {
			if _, ok := usedAdded[j]; ok {
				continue
			}
			score := renameSimilarityScore(oldC, newC)
			if score > bestScore {
				bestScore = score
				bestIdx = j
			}
		}
		if bestIdx >= 0 && bestScore >= renameDetectionScoreThreshold {
			newC := td.AddedColumns[bestIdx]
			if !renameEvidence(oldC, newC) {
				continue
			}
			usedAdded[bestIdx] = struct{}{}
			renames = append(renames, &ColumnRename{Old: oldC, New: newC, Score: bestScore})
		}
	}

	if len(renames) == 0 {
		return
	}

	removeOld := make(map[*core.Column]struct{}, len(renames))
	removeNew := make(map[*core.Column]struct{}, len(renames))
	for _, r := range renames {
		removeOld[r.Old] = struct{}{}
		removeNew[r.New] = struct{}{}
		if !equalColumn(r.Old, r.New) {
			td.ModifiedColumns = append(td.ModifiedColumns, &ColumnChange{
				Name:    r.New.Name,
				Old:     r.Old,
				New:     r.New,
				Changes: columnFieldChanges(r.Old, r.New),
			})
		}
	}

	var keptRemoved []*core.Column
	for _, c := range td.RemovedColumns {
		if _, ok := removeOld[c]; ok {
			continue
		}
		keptRemoved = append(keptRemoved, c)
	}

	var keptAdded []*core.Column
	for _, c := range td.AddedColumns {
		if _, ok := removeNew[c]; ok {
			continue
		}
		keptAdded = append(keptAdded, c)
	}

	td.RemovedColumns = keptRemoved
	td.AddedColumns = keptAdded
	td.RenamedColumns = append(td.RenamedColumns, renames...)
}

func renameSimilarityScore(oldC, newC *core.Column) int {
	if strings.EqualFold(oldC.Name, newC.Name) {
		return 0
	}
	return compareColumnAttrs(oldC, newC).similarityScore()
}

func renameEvidence(oldC, newC *core.Column) bool {
	if hasSharedNameToken(oldC.Name, newC.Name) {
		return true
	}
	oldComment := strings.TrimSpace(ptrStr(oldC.Comment))
	if oldComment != "" && strings.EqualFold(oldComment, strings.TrimSpace(ptrStr(newC.Comment))) {
		return true
	}
	if oldC.Enum != nil && newC.Enum != nil && len(oldC.Enum.Values) > 0 {
		return equalStringSliceCI(oldC.Enum.Values, newC.Enum.Values)
	}
	return false
}

func hasSharedNameToken(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}

	split := func(s string) []string {
		f := func(r rune) bool {
			return (r < 'a' || r > 'z') && (r < '0' || r > '9')
		}
		parts := strings.FieldsFunc(s, f)
		var out []string
		for _, p := range parts {
			if len(p) < renameSharedTokenMinLen {
				continue
			}
			out = append(out, p)
		}
		return out
	}

	ta := split(a)
	tb := split(b)
	if len(ta) == 0 || len(tb) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(ta))
	for _, t := range ta {
		set[t] = struct{}{}
	}
	for _, t := range tb {
		if _, ok := set[t]; ok {
			return true
		}
	}
	return false
}

// renameMap maps lowercased old column names to their new names.
func (td *TableDiff) renameMap() map[string]string {
	if len(td.RenamedColumns) == 0 {
		return nil
	}
	m := make(map[string]string, len(td.RenamedColumns))
	for _, r := range td.RenamedColumns {
		m[strings.ToLower(r.Old.Name)] = r.New.Name
	}
	return m
}

// renameConstraints returns copies of items with renamed columns applied,
// so a rename alone does not show up as a constraint change. The map leads
// from each copy back to its original.
func renameConstraints(items []*core.Constraint, renames map[string]string) ([]*core.Constraint, map[*core.Constraint]*core.Constraint) {
	if len(renames) == 0 {
		return items, nil
	}
	out := make([]*core.Constraint, len(items))
	origins := make(map[*core.Constraint]*core.Constraint, len(items))
	for i, c := range items {
		cp := c.Clone()
		cp.Columns = renameList(cp.Columns, renames)
		cp.CheckExpression = renameInExpression(cp.CheckExpression, renames)
		out[i] = cp
		origins[cp] = c
	}
	return out, origins
}

func renameIndexes(items []*core.Index, renames map[string]string) ([]*core.Index, map[*core.Index]*core.Index) {
	if len(renames) == 0 {
		return items, nil
	}
	out := make([]*core.Index, len(items))
	origins := make(map[*core.Index]*core.Index, len(items))
	for i, idx := range items {
		cp := idx.Clone()
		cp.Columns = renameList(cp.Columns, renames)
		out[i] = cp
		origins[cp] = idx
	}
	return out, origins
}

func renameList(cols []string, renames map[string]string) []string {
	for i, c := range cols {
		if to, ok := renames[strings.ToLower(c)]; ok {
			cols[i] = to
		}
	}
	return cols
}

func renameInExpression(expr string, renames map[string]string) string {
	if strings.TrimSpace(expr) == "" {
		return expr
	}
	for from, to := range renames {
		expr = core.RenameInExpression(expr, from, to)
	}
	return expr
}
