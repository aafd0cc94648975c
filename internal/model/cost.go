package model

import (
	"fmt"
	"sort"
)

// ConstantCost charges the same unit price at every production level.
func ConstantCost(price float64) CostFunc {
	return func(float64) float64 { return price }
}

// LinearCost charges base + slope*q per unit.
func LinearCost(base, slope float64) CostFunc {
	return func(q float64) float64 { return base + slope*q }
}

// Tier is one step of a tiered tariff: quantities up to and including
// UpToMW are charged Price.
type Tier struct {
	UpToMW float64
	Price  float64
}

// TieredCost picks the price of the first tier whose bound covers q, and
// above for anything beyond the last tier.
func TieredCost(tiers []Tier, above float64) (CostFunc, error) {
	ts := make([]Tier, len(tiers))
	copy(ts, tiers)
	sort.SliceStable(ts, func(i, j int) bool { return ts[i].UpToMW < ts[j].UpToMW })
	for _, t := range ts {
		if !Finite(t.UpToMW) || !Finite(t.Price) {
			return nil, fmt.Errorf("%w: tier bound and price must be finite", ErrInvalidConfiguration)
		}
	}
	if !Finite(above) {
		return nil, fmt.Errorf("%w: price above the last tier must be finite", ErrInvalidConfiguration)
	}
	for i := 1; i < len(ts); i++ {
		if ts[i].UpToMW == ts[i-1].UpToMW {
			return nil, fmt.Errorf("%w: duplicate tier bound %g", ErrInvalidConfiguration, ts[i].UpToMW)
		}
	}
	return func(q float64) float64 {
		for _, t := range ts {
			if q <= t.UpToMW {
				return t.Price
			}
		}
		return above
	}, nil
}
