package diff

import (
	"strconv"
	"strings"

	"schemac/internal/core"
)

func compareIndexes(table string, oldItems, newItems []*core.Index, td *TableDiff) {
	keyFn := indexKeyFor(table)
	oldMap := mapByKey(oldItems, keyFn)
	newMap := mapByKey(newItems, keyFn)

	for name, newItem := range newMap {
		oldItem, exists := oldMap[name]
		if !exists {
			td.AddedIndexes = append(td.AddedIndexes, newItem)
			continue
		}
		if !equalIndex(oldItem, newItem) {
			td.ModifiedIndexes = append(td.ModifiedIndexes, &IndexChange{
				Name:    name,
				Old:     oldItem,
				New:     newItem,
				Changes: indexFieldChanges(oldItem, newItem),
			})
		}
	}

	for name, oldItem := range oldMap {
		if _, exists := newMap[name]; !exists {
			td.RemovedIndexes = append(td.RemovedIndexes, oldItem)
		}
	}
}

func equalIndex(a, b *core.Index) bool {
	return a.Unique == b.Unique && equalStringSliceCI(a.Columns, b.Columns)
}

func indexFieldChanges(oldI, newI *core.Index) []*FieldChange {
	c := &fieldChangeCollector{}

	c.Add("unique", strconv.FormatBool(oldI.Unique), strconv.FormatBool(newI.Unique))
	c.Add("columns", formatNameList(oldI.Columns), formatNameList(newI.Columns))

	return c.Changes
}

func indexKeyFor(table string) func(*core.Index) string {
	return func(i *core.Index) string {
		name := strings.TrimSpace(i.Name)
		if name == "" {
			name = core.IndexName(table, i.Columns, i.Unique, 0)
		}
		return strings.ToLower(name)
	}
}
