package analysis

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"market-sim/internal/model"
	"market-sim/internal/simulation"
)

// Summary is a run-level digest of the statistics records.
// Energy totals are MWh assuming one-hour steps; costs are in $.
type Summary struct {
	Steps         int
	ShortageSteps int

	DemandMean   float64
	DemandStdDev float64
	DemandP05    float64
	DemandP95    float64
	PeakDemand   float64

	DemandMWh               float64
	ControlledProductionMWh float64
	BuyMWh                  float64
	SellMWh                 float64
	// UnmetMWh sums the positive part of net demand.
	UnmetMWh float64

	// Costs are accumulated in decimal so long runs do not drift.
	ProductionCost decimal.Decimal
	MarketCost     decimal.Decimal
	TotalCost      decimal.Decimal
	// CostPerMWh is TotalCost over demand served (demand - unmet).
	CostPerMWh decimal.Decimal
}

func Summarize(records []simulation.Record) Summary {
	s := Summary{
		ProductionCost: decimal.Zero,
		MarketCost:     decimal.Zero,
		TotalCost:      decimal.Zero,
		CostPerMWh:     decimal.Zero,
	}
	if len(records) == 0 {
		return s
	}
	s.Steps = len(records)

	demands := make([]float64, 0, len(records))
	s.PeakDemand = math.Inf(-1)
	for _, r := range records {
		demands = append(demands, r.Demand)
		if r.Demand > s.PeakDemand {
			s.PeakDemand = r.Demand
		}
		if r.Regime == model.RegimeShortage {
			s.ShortageSteps++
		}
		s.DemandMWh += r.Demand
		s.ControlledProductionMWh += r.ControlledProduction
		s.BuyMWh += r.TotalBuy
		s.SellMWh += r.TotalSell
		if r.NetDemand > 0 {
			s.UnmetMWh += r.NetDemand
		}
		s.ProductionCost = s.ProductionCost.Add(decimal.NewFromFloat(r.ProductionCost))
		s.MarketCost = s.MarketCost.Add(decimal.NewFromFloat(r.MarketCost))
	}
	s.TotalCost = s.ProductionCost.Add(s.MarketCost)

	if len(demands) > 1 {
		s.DemandMean, s.DemandStdDev = stat.MeanStdDev(demands, nil)
	} else {
		s.DemandMean = demands[0]
	}
	sort.Float64s(demands)
	s.DemandP05 = stat.Quantile(0.05, stat.Empirical, demands, nil)
	s.DemandP95 = stat.Quantile(0.95, stat.Empirical, demands, nil)

	served := s.DemandMWh - s.UnmetMWh
	if served > 0 {
		s.CostPerMWh = s.TotalCost.Div(decimal.NewFromFloat(served)).Round(4)
	}
	return s
}
