package diff

import (
	"strings"

	"schemac/internal/core"
)

func compareConstraints(table string, oldItems, newItems []*core.Constraint, td *TableDiff) {
	keyFn := constraintKeyFor(table)
	oldMap := mapByKey(oldItems, keyFn)
	newMap := mapByKey(newItems, keyFn)

	for name, newItem := range newMap {
		oldItem, exists := oldMap[name]
		if !exists {
			td.AddedConstraints = append(td.AddedConstraints, newItem)
			continue
		}
		if !equalConstraint(oldItem, newItem) {
			td.ModifiedConstraints = append(td.ModifiedConstraints, &ConstraintChange{
				Name:    name,
				Old:     oldItem,
				New:     newItem,
				Changes: constraintFieldChanges(oldItem, newItem),
			})
		}
	}

	for name, oldItem := range oldMap {
		if _, exists := newMap[name]; !exists {
			td.RemovedConstraints = append(td.RemovedConstraints, oldItem)
		}
	}
}

// markConstraintsForRebuild recreates unchanged foreign keys and checks on
// columns whose definition changes, since backends reject or re-validate
// them against the old column type.
func markConstraintsForRebuild(table string, oldItems, newItems []*core.Constraint, td *TableDiff) {
	if len(td.ModifiedColumns) == 0 {
		return
	}

	affectedCols := collectAffectedColumns(td.ModifiedColumns)
	if len(affectedCols) == 0 {
		return
	}

	keyFn := constraintKeyFor(table)
	oldMap := mapByKey(oldItems, keyFn)
	newMap := mapByKey(newItems, keyFn)
	already := collectAlreadyModifiedConstraints(td.ModifiedConstraints)

	for key, oldC := range oldMap {
		if oldC.Type != core.ConstraintForeignKey && oldC.Type != core.ConstraintCheck {
			continue
		}
		if shouldRebuildConstraint(key, oldC, newMap, already, affectedCols) {
			td.ModifiedConstraints = append(td.ModifiedConstraints, &ConstraintChange{
				Name:          key,
				Old:           oldC,
				New:           newMap[key],
				RebuildOnly:   true,
				RebuildReason: "dependent column modified",
			})
		}
	}
}

func collectAffectedColumns(modifiedColumns []*ColumnChange) map[string]struct{} {
	affectedCols := make(map[string]struct{}, len(modifiedColumns))
	for _, mc := range modifiedColumns {
		if mc == nil {
			continue
		}
		if onlyCommentChanged(mc) {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(mc.Name))
		if name == "" {
			continue
		}
		affectedCols[name] = struct{}{}
	}
	return affectedCols
}

func onlyCommentChanged(mc *ColumnChange) bool {
	return compareColumnAttrs(mc.Old, mc.New).onlyComment()
}

func collectAlreadyModifiedConstraints(modifiedConstraints []*ConstraintChange) map[string]struct{} {
	already := make(map[string]struct{}, len(modifiedConstraints))
	for _, mc := range modifiedConstraints {
		if mc == nil {
			continue
		}
		already[mc.Name] = struct{}{}
	}
	return already
}

func shouldRebuildConstraint(key string, oldC *core.Constraint, newMap map[string]*core.Constraint, already map[string]struct{}, affectedCols map[string]struct{}) bool {
	newC, ok := newMap[key]
	if !ok {
		return false
	}
	if _, ok := already[key]; ok {
		return false
	}
	if !equalConstraint(oldC, newC) {
		return false
	}
	return constraintTouchesColumns(newC, affectedCols)
}

func constraintTouchesColumns(c *core.Constraint, cols map[string]struct{}) bool {
	if c == nil || len(cols) == 0 {
		return false
	}
	for _, col := range c.Columns {
		name := strings.ToLower(strings.TrimSpace(col))
		if name == "" {
			continue
		}
		if _, ok := cols[name]; ok {
			return true
		}
	}
	return false
}

func equalConstraint(a, b *core.Constraint) bool {
	if a.Type != b.Type {
		return false
	}
	if !equalStringSliceCI(a.Columns, b.Columns) {
		return false
	}
	if !strings.EqualFold(a.ReferencedTable, b.ReferencedTable) {
		return false
	}
	if !equalStringSliceCI(a.ReferencedColumns, b.ReferencedColumns) {
		return false
	}
	if a.OnDelete != b.OnDelete {
		return false
	}
	if a.OnUpdate != b.OnUpdate {
		return false
	}
	if normalizeExpression(a.CheckExpression) != normalizeExpression(b.CheckExpression) {
		return false
	}
	return true
}

// normalizeExpression drops identifier quotes and whitespace so that a check
// read back from a dump compares equal to the declared one.
func normalizeExpression(expr string) string {
	expr = strings.NewReplacer("`", "", `"`, "", "[", "", "]", "").Replace(expr)
	expr = strings.Join(strings.Fields(expr), "")
	for len(expr) >= 2 && expr[0] == '(' && expr[len(expr)-1] == ')' {
		expr = expr[1 : len(expr)-1]
	}
	return strings.ToLower(expr)
}

// constraintKeyFor keys constraints by name, deriving the name of unnamed
// constraints the way the compiler does.
func constraintKeyFor(table string) func(*core.Constraint) string {
	return func(c *core.Constraint) string {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			name = core.ConstraintName(table, c.Type, c.Columns, c.CheckExpression, 0)
		}
		return strings.ToLower(name)
	}
}

func constraintFieldChanges(oldC, newC *core.Constraint) []*FieldChange {
	c := &fieldChangeCollector{}

	c.Add("type", string(oldC.Type), string(newC.Type))
	c.Add("columns", formatNameList(oldC.Columns), formatNameList(newC.Columns))
	c.Add("referenced_table", oldC.ReferencedTable, newC.ReferencedTable)
	c.Add("referenced_columns", formatNameList(oldC.ReferencedColumns), formatNameList(newC.ReferencedColumns))
	c.Add("on_delete", string(oldC.OnDelete), string(newC.OnDelete))
	c.Add("on_update", string(oldC.OnUpdate), string(newC.OnUpdate))
	c.Add("check_expression", strings.TrimSpace(oldC.CheckExpression), strings.TrimSpace(newC.CheckExpression))

	return c.Changes
}
