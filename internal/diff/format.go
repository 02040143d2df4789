package diff

import (
	"fmt"
	"strings"

	"schemac/internal/core"
)

// String returns a human readable report of the differences.
func (d *SchemaDiff) String() string {
	if d.IsEmpty() {
		return "No differences detected."
	}

	var sb strings.Builder
	sb.WriteString("Schema differences:\n")

	writeWarnings(&sb, "\nWarnings:\n", "  ", d.Warnings)

	if len(d.AddedTables) > 0 {
		sb.WriteString("\nAdded tables:\n")
		for _, at := range d.AddedTables {
			fmt.Fprintf(&sb, "  - %s\n", at.Name)
		}
	}

	if len(d.RemovedTables) > 0 {
		sb.WriteString("\nRemoved tables:\n")
		for _, rt := range d.RemovedTables {
			fmt.Fprintf(&sb, "  - %s\n", rt.Name)
		}
	}

	if len(d.ModifiedTables) > 0 {
		sb.WriteString("\nModified tables:\n")
		for _, mt := range d.ModifiedTables {
			mt.write(&sb)
		}
	}

	return sb.String()
}

// String returns a report of a single table's differences.
func (td *TableDiff) String() string {
	var sb strings.Builder
	td.write(&sb)
	return sb.String()
}

func writeWarnings(sb *strings.Builder, header, indent string, warnings []string) {
	wrote := false
	for _, w := range warnings {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		if !wrote {
			sb.WriteString(header)
			wrote = true
		}
		fmt.Fprintf(sb, "%s- %s\n", indent, w)
	}
}

func writeChanges(sb *strings.Builder, changes []*FieldChange) {
	for _, fc := range changes {
		fmt.Fprintf(sb, "        - %s: %q -> %q\n", fc.Field, fc.Old, fc.New)
	}
}

func (td *TableDiff) write(sb *strings.Builder) {
	fmt.Fprintf(sb, "\n  - %s\n", td.Name)

	writeWarnings(sb, "    Warnings:\n", "      ", td.Warnings)

	if td.Comment != nil {
		fmt.Fprintf(sb, "    Comment changed: %q -> %q\n", td.Comment.Old, td.Comment.New)
	}

	if len(td.AddedColumns) > 0 {
		sb.WriteString("    Added columns:\n")
		for _, ac := range td.AddedColumns {
			fmt.Fprintf(sb, "      - %s: %s\n", ac.Name, typeString(ac))
		}
	}

	if len(td.RemovedColumns) > 0 {
		sb.WriteString("    Removed columns:\n")
		for _, rc := range td.RemovedColumns {
			fmt.Fprintf(sb, "      - %s: %s\n", rc.Name, typeString(rc))
		}
	}

	if len(td.RenamedColumns) > 0 {
		sb.WriteString("    Renamed columns:\n")
		for _, r := range td.RenamedColumns {
			fmt.Fprintf(sb, "      - %s -> %s (score %d)\n", r.Old.Name, r.New.Name, r.Score)
		}
	}

	if len(td.ModifiedColumns) > 0 {
		sb.WriteString("    Modified columns:\n")
		for _, mc := range td.ModifiedColumns {
			fmt.Fprintf(sb, "      - %s:\n", mc.Name)
			writeChanges(sb, mc.Changes)
		}
	}

	if len(td.AddedConstraints) > 0 {
		sb.WriteString("    Added constraints:\n")
		for _, c := range td.AddedConstraints {
			fmt.Fprintf(sb, "      - %s (%s)\n", td.constraintLabel(c), c.Type)
		}
	}

	if len(td.RemovedConstraints) > 0 {
		sb.WriteString("    Removed constraints:\n")
		for _, c := range td.RemovedConstraints {
			fmt.Fprintf(sb, "      - %s (%s)\n", td.constraintLabel(c), c.Type)
		}
	}

	if len(td.ModifiedConstraints) > 0 {
		sb.WriteString("    Modified constraints:\n")
		for _, mc := range td.ModifiedConstraints {
			if mc.RebuildOnly {
				fmt.Fprintf(sb, "      - %s: recreated (%s)\n", mc.Name, mc.RebuildReason)
				continue
			}
			fmt.Fprintf(sb, "      - %s:\n", mc.Name)
			writeChanges(sb, mc.Changes)
		}
	}

	if len(td.AddedIndexes) > 0 {
		sb.WriteString("    Added indexes:\n")
		for _, idx := range td.AddedIndexes {
			fmt.Fprintf(sb, "      - %s %s\n", td.indexLabel(idx), formatNameList(idx.Columns))
		}
	}

	if len(td.RemovedIndexes) > 0 {
		sb.WriteString("    Removed indexes:\n")
		for _, idx := range td.RemovedIndexes {
			fmt.Fprintf(sb, "      - %s %s\n", td.indexLabel(idx), formatNameList(idx.Columns))
		}
	}

	if len(td.ModifiedIndexes) > 0 {
		sb.WriteString("    Modified indexes:\n")
		for _, mi := range td.ModifiedIndexes {
			fmt.Fprintf(sb, "      - %s:\n", mi.Name)
			writeChanges(sb, mi.Changes)
		}
	}
}

func (td *TableDiff) constraintLabel(c *core.Constraint) string {
	return constraintKeyFor(td.Name)(c)
}

func (td *TableDiff) indexLabel(i *core.Index) string {
	return indexKeyFor(td.Name)(i)
}
