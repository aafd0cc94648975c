package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"market-sim/internal/analysis"
	"market-sim/internal/config"
	"market-sim/internal/demand"
	"market-sim/internal/model"
	"market-sim/internal/participant"
	"market-sim/internal/regulator"
	"market-sim/internal/simulation"
)

// Demo:
// - Build the reference market in code (two producers, five storage units)
// - Run it for a day of half-hour steps
// - Print each step to show how the regulator, producers and participants fit together
func main() {
	cfgPath := flag.String("config", "", "Path to YAML scenario (optional, replaces the built-in market)")
	steps := flag.Int("steps", 48, "Number of steps to simulate")
	seed := flag.Uint64("seed", 7, "Demand noise seed")
	n := flag.Int("n", 12, "Number of steps to print")
	outCSV := flag.String("out", "", "Optional path to write records CSV (e.g. results/records.csv)")
	flag.Parse()

	var sc *config.Scenario
	var err error
	if *cfgPath != "" {
		cfg, lerr := config.Load(*cfgPath)
		if lerr != nil {
			panic(lerr)
		}
		sc, err = cfg.Build()
	} else {
		sc, err = referenceMarket(*steps, *seed)
	}
	if err != nil {
		panic(err)
	}

	engine := simulation.New()
	result, err := engine.Run(sc.Steps, sc.Demand, sc.Regulator, sc.Producers, sc.Participants)
	if err != nil {
		panic(err)
	}

	fmt.Printf("Simulated %d steps with %d producers and %d participants\n",
		len(result.Records), len(sc.Producers), len(sc.Participants))
	fmt.Printf("Regulator prices: high=%.0f low=%.0f (+%.0f sell margin), merit=%s\n\n",
		sc.Regulator.HighPrice, sc.Regulator.LowPrice, regulator.SellMargin, sc.Regulator.Merit)

	for i := 0; i < min(*n, len(result.Records)); i++ {
		r := result.Records[i]
		fmt.Printf(
			"step %2d demand=%8.2f  orders=%v  %-9s buy@%-4.0f sell@%-4.0f  agents buy=%6.2f sell=%6.2f  net=%8.2f  cost=%10.2f  cum=%11.2f\n",
			r.Step,
			r.Demand,
			fmtOrders(r.ProductionOrders),
			string(r.Regime),
			r.BuyPrice,
			r.SellPrice,
			r.TotalBuy,
			r.TotalSell,
			r.NetDemand,
			r.TotalCost,
			r.CumCost,
		)
	}

	if *outCSV != "" {
		if err := os.MkdirAll(filepath.Dir(*outCSV), 0o755); err != nil {
			panic(err)
		}
		if err := simulation.WriteRecordsCSV(*outCSV, result.Records); err != nil {
			panic(err)
		}
		fmt.Printf("\nWrote CSV: %s\n", *outCSV)
	}

	s := analysis.Summarize(result.Records)
	fmt.Printf("\nDone. Shortage steps=%d/%d  Total cost=$%s\n", s.ShortageSteps, s.Steps, s.TotalCost.StringFixed(2))
	for id, mwh := range result.FinalStorage {
		fmt.Printf("  %s storage=%.1f MWh\n", id, mwh)
	}
}

// referenceMarket wires the same market examples/scenarios/reference.yaml
// describes, without going through the config layer.
func referenceMarket(steps int, seed uint64) (*config.Scenario, error) {
	src, err := demand.NewGenerator(demand.KindSinusoidal, demand.DefaultParams(), seed)
	if err != nil {
		return nil, err
	}

	tiered, err := model.TieredCost([]model.Tier{
		{UpToMW: 200, Price: 25},
		{UpToMW: 400, Price: 35},
	}, 50)
	if err != nil {
		return nil, err
	}
	p1, err := model.NewProducer("Producer1", 500, model.LinearCost(30, 0.1))
	if err != nil {
		return nil, err
	}
	p2, err := model.NewProducer("Producer2", 600, tiered)
	if err != nil {
		return nil, err
	}

	participants := make([]participant.Participant, 0, 5)
	for i := 0; i < 5; i++ {
		u, err := participant.NewStorageUnit(fmt.Sprintf("PCS_%d", i), participant.StorageParams{
			MaxProductionMW:    repeat(60, steps),
			InternalDemandMW:   repeat(50, steps),
			StorageCapacityMWh: 500,
			ProductionPrice:    70,
		}, 0)
		if err != nil {
			return nil, err
		}
		participants = append(participants, u)
	}

	return &config.Scenario{
		Name:         "reference",
		Steps:        steps,
		Demand:       src,
		Regulator:    regulator.New(regulator.DefaultHighPrice, regulator.DefaultLowPrice),
		Producers:    []*model.Producer{p1, p2},
		Participants: participants,
	}, nil
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func fmtOrders(orders []float64) string {
	s := "["
	for i, o := range orders {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%6.1f", o)
	}
	return s + "]"
}
