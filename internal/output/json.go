package output

import (
	"encoding/json"

	"schemac/internal/plan"
)

type jsonFormatter struct{}

type plansPayload struct {
	Format  string       `json:"format"`
	Summary totals       `json:"summary"`
	Plans   []*plan.Plan `json:"plans"`
}

func (jsonFormatter) FormatPlans(plans []*plan.Plan) (string, error) {
	payload := plansPayload{
		Format:  string(FormatJSON),
		Summary: countTotals(plans),
		Plans:   make([]*plan.Plan, 0, len(plans)),
	}
	for _, p := range plans {
		if p != nil {
			payload.Plans = append(payload.Plans, p)
		}
	}
	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}
