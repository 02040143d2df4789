package output

import (
	"fmt"
	"strings"

	"schemac/internal/plan"
)

type summaryFormatter struct{}

// FormatPlans formats plans as a compact summary.
// Example output:
//
//	Plans:       2
//	Statements:  5
//	Warnings:    1
func (summaryFormatter) FormatPlans(plans []*plan.Plan) (string, error) {
	t := countTotals(plans)
	if t.Plans == 0 {
		return "No plans compiled.\n", nil
	}

	var sb strings.Builder
	sb.WriteString("Compilation Summary\n")
	sb.WriteString("===================\n\n")

	fmt.Fprintf(&sb, "Plans:       %d\n", t.Plans)
	fmt.Fprintf(&sb, "Statements:  %d\n", t.Statements)
	fmt.Fprintf(&sb, "Warnings:    %d\n", t.Warnings)
	fmt.Fprintf(&sb, "Limitations: %d\n", t.Limitations)
	fmt.Fprintf(&sb, "Notes:       %d\n", t.Notes)

	sb.WriteString("\nDetails:\n")
	for _, p := range plans {
		if p == nil {
			continue
		}
		fmt.Fprintf(&sb, "  %s %s: %s\n", modeMarker(p.Mode), planLabel(p), pluralize(len(p.Statements), "statement"))
		for _, w := range p.Warnings() {
			fmt.Fprintf(&sb, "     ! %s\n", w)
		}
		for _, l := range p.Limitations() {
			fmt.Fprintf(&sb, "     * %s\n", l)
		}
	}
	return sb.String(), nil
}

func modeMarker(m plan.Mode) string {
	switch m {
	case plan.ModeCreate, plan.ModeSchema:
		return "+"
	case plan.ModeDrop:
		return "-"
	case plan.ModeRebuild:
		return "#"
	default:
		return "~"
	}
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
