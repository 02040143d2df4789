package diff

import (
	"strconv"
	"strings"

	"schemac/internal/core"
)

// Compare returns the differences between current and desired, or nil when
// they are equal. The table name is taken from desired.
func Compare(current, desired *core.Table, opts Options) *TableDiff {
	td := &TableDiff{Name: desired.Name, current: current, desired: desired}

	compareColumns(current.Columns, desired.Columns, td, opts)

	renames := td.renameMap()
	var oldConstraints []*core.Constraint
	var oldIndexes []*core.Index
	oldConstraints, td.constraintOrigins = renameConstraints(current.Constraints, renames)
	oldIndexes, td.indexOrigins = renameIndexes(current.Indexes, renames)

	compareConstraints(current.Name, oldConstraints, desired.Constraints, td)
	markConstraintsForRebuild(current.Name, oldConstraints, desired.Constraints, td)
	compareIndexes(current.Name, oldIndexes, desired.Indexes, td)

	for _, mc := range td.ModifiedColumns {
		if mc.Old.PrimaryKey != mc.New.PrimaryKey {
			td.Warnings = append(td.Warnings, "primary key flag of column "+mc.New.Name+
				" changed; alter the PRIMARY KEY constraint instead")
		}
	}

	if strings.TrimSpace(current.Comment) != strings.TrimSpace(desired.Comment) {
		td.Comment = &FieldChange{Field: "comment", Old: current.Comment, New: desired.Comment}
	}

	if td.isEmpty() {
		return nil
	}

	td.sort()
	return td
}

func compareColumns(oldItems, newItems []*core.Column, td *TableDiff, opts Options) {
	oldMap, oldCollisions := mapColumnsByName(oldItems)
	newMap, newCollisions := mapColumnsByName(newItems)
	for _, c := range oldCollisions {
		td.Warnings = append(td.Warnings, "current table columns: "+c)
	}
	for _, c := range newCollisions {
		td.Warnings = append(td.Warnings, "desired table columns: "+c)
	}

	for name, newItem := range newMap {
		oldItem, exists := oldMap[name]
		if !exists {
			td.AddedColumns = append(td.AddedColumns, newItem)
			continue
		}
		if !equalColumn(oldItem, newItem) {
			td.ModifiedColumns = append(td.ModifiedColumns, &ColumnChange{
				Name:    newItem.Name,
				Old:     oldItem,
				New:     newItem,
				Changes: columnFieldChanges(oldItem, newItem),
			})
		}
	}

	for name, oldItem := range oldMap {
		if _, exists := newMap[name]; !exists {
			td.RemovedColumns = append(td.RemovedColumns, oldItem)
		}
	}

	if opts.DetectColumnRenames {
		td.detectColumnRenames()
	}
}

func equalColumn(a, b *core.Column) bool {
	return compareColumnAttrs(a, b).allMatch()
}

func columnFieldChanges(oldC, newC *core.Column) []*FieldChange {
	c := &fieldChangeCollector{}

	c.Add("type", typeString(oldC), typeString(newC))
	c.Add("unsigned", strconv.FormatBool(oldC.Unsigned), strconv.FormatBool(newC.Unsigned))
	c.Add("nullable", strconv.FormatBool(oldC.Nullable), strconv.FormatBool(newC.Nullable))
	c.Add("primary_key", strconv.FormatBool(oldC.PrimaryKey), strconv.FormatBool(newC.PrimaryKey))
	c.Add("auto_increment", strconv.FormatBool(oldC.AutoIncrement), strconv.FormatBool(newC.AutoIncrement))
	c.Add("collate", strings.TrimSpace(oldC.Collation), strings.TrimSpace(newC.Collation))
	c.Add("comment", ptrStr(oldC.Comment), ptrStr(newC.Comment))
	c.Add("default", defaultString(oldC.Default), defaultString(newC.Default))

	return c.Changes
}

func (td *TableDiff) sort() {
	sortNamed(td.AddedColumns)
	sortNamed(td.RemovedColumns)
	// ColumnRename needs special handling - it uses New.Name, not a direct Name field
	sortByFunc(td.RenamedColumns, func(r *ColumnRename) string {
		if r == nil || r.New == nil {
			return ""
		}
		return r.New.Name
	})
	sortNamed(td.ModifiedColumns)
	sortNamed(td.AddedConstraints)
	sortNamed(td.RemovedConstraints)
	sortNamed(td.ModifiedConstraints)
	sortNamed(td.AddedIndexes)
	sortNamed(td.RemovedIndexes)
	sortNamed(td.ModifiedIndexes)
}

func (td *TableDiff) isEmpty() bool {
	return len(td.AddedColumns) == 0 &&
		len(td.RemovedColumns) == 0 &&
		len(td.RenamedColumns) == 0 &&
		len(td.ModifiedColumns) == 0 &&
		len(td.AddedConstraints) == 0 &&
		len(td.RemovedConstraints) == 0 &&
		len(td.ModifiedConstraints) == 0 &&
		len(td.AddedIndexes) == 0 &&
		len(td.RemovedIndexes) == 0 &&
		len(td.ModifiedIndexes) == 0 &&
		td.Comment == nil
}
