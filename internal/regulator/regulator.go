package regulator

import (
	"fmt"
	"math"
	"sort"

	"market-sim/internal/model"
	"market-sim/internal/participant"
)

// SellMargin is added to the regulator's buy price to get its sell price.
const SellMargin = 20.0

// Defaults used by the reference market.
const (
	DefaultHighPrice = 200.0
	DefaultLowPrice  = 50.0
)

// Merit selects the quantity at which a producer's cost function is
// evaluated to rank it.
type Merit string

const (
	// MeritAtCapacity ranks by cost at full capacity. Ranking happens before
	// the dispatched quantities are known, so a producer that is cheap at
	// capacity may be dear at the quantity it actually delivers.
	MeritAtCapacity Merit = "capacity"
	// MeritAtUnit ranks by the cost of the first MW.
	MeritAtUnit Merit = "unit"
)

// Regulator is the ISO: it dispatches producers in merit order and quotes
// every participant the same price pair.
type Regulator struct {
	HighPrice float64
	LowPrice  float64
	Merit     Merit
}

func New(high, low float64) *Regulator {
	return &Regulator{HighPrice: high, LowPrice: low, Merit: MeritAtCapacity}
}

func (r *Regulator) Validate() error {
	if !model.Finite(r.HighPrice) || !model.Finite(r.LowPrice) || r.HighPrice < 0 || r.LowPrice < 0 {
		return fmt.Errorf("%w: regulator prices must be finite values >= 0", model.ErrInvalidConfiguration)
	}
	switch r.Merit {
	case MeritAtCapacity, MeritAtUnit, "":
	default:
		return fmt.Errorf("%w: unknown merit key %q", model.ErrInvalidConfiguration, r.Merit)
	}
	return nil
}

// DecideAction allocates demand over producers cheapest first and derives
// the step's price pair. Orders come back in the producers' input order.
func (r *Regulator) DecideAction(step int, demand float64, producers []*model.Producer, participants []participant.Participant) model.DispatchResult {
	_ = step

	ranked := r.rank(producers)
	orders := make([]float64, len(producers))
	remaining := demand
	res := model.DispatchResult{Orders: orders}

	for _, idx := range ranked {
		if remaining <= 0 {
			break
		}
		p := producers[idx]
		q := math.Min(remaining, p.CapacityMW)
		if q <= 0 {
			continue
		}
		orders[idx] = q
		res.ProductionCost += p.ProductionCost(q)
		res.CapacityUsed += q
		remaining -= q
	}
	res.Remaining = remaining

	prices := r.quote(remaining)
	res.Quote = prices
	res.Regime = model.RegimeBalanced
	if remaining > 0 {
		res.Regime = model.RegimeShortage
	}

	res.Prices = make([]model.PricePair, len(participants))
	for i := range participants {
		res.Prices[i] = prices
	}
	return res
}

func (r *Regulator) quote(remaining float64) model.PricePair {
	base := r.LowPrice
	if remaining > 0 {
		base = r.HighPrice
	}
	return model.PricePair{BuyPrice: base, SellPrice: base + SellMargin}
}

// rank returns producer indices in merit order; ties keep input order.
func (r *Regulator) rank(producers []*model.Producer) []int {
	keys := make([]float64, len(producers))
	for i, p := range producers {
		keys[i] = p.UnitCost(r.rankQuantity(p))
	}
	idx := make([]int, len(producers))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return keys[idx[a]] < keys[idx[b]]
	})
	return idx
}

func (r *Regulator) rankQuantity(p *model.Producer) float64 {
	if r.Merit == MeritAtUnit {
		return math.Min(1, p.CapacityMW)
	}
	return p.CapacityMW
}
