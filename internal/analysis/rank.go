package analysis

import (
	"sort"

	"market-sim/internal/simulation"
)

// Standing is one participant's position over a whole run.
type Standing struct {
	ParticipantID string

	BuyMWh  float64
	SellMWh float64
	// CashFlow is the participant's net settlement over the run.
	CashFlow float64

	ActiveSteps int

	HasStorage      bool
	FinalStorageMWh float64
}

// RankParticipants totals fills per participant and sorts descending by
// CashFlow; ties are broken by id.
func RankParticipants(records []simulation.Record) []Standing {
	byID := map[string]*Standing{}
	order := []string{}
	for _, r := range records {
		for _, f := range r.Fills {
			s, ok := byID[f.ParticipantID]
			if !ok {
				s = &Standing{ParticipantID: f.ParticipantID}
				byID[f.ParticipantID] = s
				order = append(order, f.ParticipantID)
			}
			s.BuyMWh += f.Order.BuyAmount
			s.SellMWh += f.Order.SellAmount
			s.CashFlow += f.CashFlow
			if f.Order.BuyAmount > 0 || f.Order.SellAmount > 0 {
				s.ActiveSteps++
			}
			if f.HasStorage {
				s.HasStorage = true
				s.FinalStorageMWh = f.StorageMWh
			}
		}
	}

	out := make([]Standing, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CashFlow != out[j].CashFlow {
			return out[i].CashFlow > out[j].CashFlow
		}
		return out[i].ParticipantID < out[j].ParticipantID
	})
	return out
}
