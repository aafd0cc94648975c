package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"market-sim/internal/analysis"
	"market-sim/internal/config"
	"market-sim/internal/simulation"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "simulate":
		cmdSimulate(os.Args[2:])
	case "summary":
		cmdSummary(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli simulate --config examples/scenarios/reference.yaml --out results/records.csv [--fills results/fills.csv] [--trace]")
	fmt.Println("  cli summary --config examples/scenarios/reference.yaml [--seed 7]")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - simulate writes one CSV row per step with regime=BALANCED/SHORTAGE")
	fmt.Println("  - --fills adds a second CSV with one row per participant per step")
	fmt.Println("  - summary prints run totals and participants ranked by cash flow")
}

func cmdSimulate(args []string) {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML scenario")
	outPath := fs.String("out", "results/records.csv", "Output CSV path")
	fillsPath := fs.String("fills", "", "Optional: per-participant CSV path")
	steps := fs.Int("steps", 0, "Optional: override the number of steps (0=scenario)")
	trace := fs.Bool("trace", false, "Log every step (and every order at debug level)")
	debug := fs.Bool("debug", false, "Enable debug logging")
	_ = fs.Parse(args)

	if *cfgPath == "" {
		fmt.Println("--config is required")
		os.Exit(2)
	}

	log := newLogger(*debug)
	defer func() { _ = log.Sync() }()

	cfg := loadConfig(log, *cfgPath, *steps)
	var observers []simulation.Observer
	if *trace {
		observers = append(observers, simulation.NewTraceObserver(log))
	}
	res := run(log, cfg, observers...)

	// ensure output dir exists
	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		log.Fatal("create output dir", zap.Error(err))
	}
	if err := simulation.WriteRecordsCSV(*outPath, res.Records); err != nil {
		log.Fatal("write records", zap.Error(err))
	}
	fmt.Printf("Wrote %d rows to %s\n", len(res.Records), *outPath)

	if *fillsPath != "" {
		if err := os.MkdirAll(filepath.Dir(*fillsPath), 0o755); err != nil {
			log.Fatal("create output dir", zap.Error(err))
		}
		if err := simulation.WriteFillsCSV(*fillsPath, res.Records); err != nil {
			log.Fatal("write fills", zap.Error(err))
		}
		fmt.Printf("Wrote fills to %s\n", *fillsPath)
	}

	s := analysis.Summarize(res.Records)
	fmt.Printf("Total cost=$%s  shortage steps=%d/%d\n", s.TotalCost.StringFixed(2), s.ShortageSteps, s.Steps)
}

func cmdSummary(args []string) {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML scenario")
	steps := fs.Int("steps", 0, "Optional: override the number of steps (0=scenario)")
	seed := fs.Int64("seed", -1, "Optional: override the demand seed (-1=scenario)")
	_ = fs.Parse(args)

	if *cfgPath == "" {
		fmt.Println("--config is required")
		os.Exit(2)
	}

	log := newLogger(false)
	defer func() { _ = log.Sync() }()

	cfg := loadConfig(log, *cfgPath, *steps)
	if *seed >= 0 {
		cfg.Demand.Seed = uint64(*seed)
	}
	res := run(log, cfg)
	s := analysis.Summarize(res.Records)

	name := cfg.Name
	if name == "" {
		name = *cfgPath
	}
	fmt.Printf("Scenario: %s\n", name)
	fmt.Printf("%-26s %d (%d shortage)\n", "steps", s.Steps, s.ShortageSteps)
	fmt.Printf("%-26s mean=%.1f sd=%.1f p05=%.1f p95=%.1f peak=%.1f\n", "demand MW",
		s.DemandMean, s.DemandStdDev, s.DemandP05, s.DemandP95, s.PeakDemand)
	fmt.Printf("%-26s %.1f\n", "demand MWh", s.DemandMWh)
	fmt.Printf("%-26s %.1f\n", "controlled production MWh", s.ControlledProductionMWh)
	fmt.Printf("%-26s buy=%.1f sell=%.1f\n", "participants MWh", s.BuyMWh, s.SellMWh)
	fmt.Printf("%-26s %.1f\n", "unmet MWh", s.UnmetMWh)
	fmt.Printf("%-26s production=$%s market=$%s total=$%s\n", "cost",
		s.ProductionCost.StringFixed(2), s.MarketCost.StringFixed(2), s.TotalCost.StringFixed(2))
	fmt.Printf("%-26s $%s\n", "cost per MWh served", s.CostPerMWh.StringFixed(2))

	standings := analysis.RankParticipants(res.Records)
	if len(standings) == 0 {
		return
	}
	fmt.Println("")
	fmt.Printf("%-4s %-16s %-10s %-10s %-12s %-7s %-10s\n", "rank", "participant", "buy", "sell", "cash$", "active", "storage")
	for i, st := range standings {
		storage := "-"
		if st.HasStorage {
			storage = fmt.Sprintf("%.1f", st.FinalStorageMWh)
		}
		fmt.Printf("%-4d %-16s %-10.1f %-10.1f %-12.2f %-7d %-10s\n",
			i+1, st.ParticipantID, st.BuyMWh, st.SellMWh, st.CashFlow, st.ActiveSteps, storage)
	}
}

func newLogger(debug bool) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	if !debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	log, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return log
}

func loadConfig(log *zap.Logger, path string, steps int) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatal("load scenario", zap.String("path", path), zap.Error(err))
	}
	if steps > 0 {
		cfg.Steps = steps
	}
	return cfg
}

func run(log *zap.Logger, cfg *config.Config, observers ...simulation.Observer) *simulation.Result {
	sc, err := cfg.Build()
	if err != nil {
		log.Fatal("build scenario", zap.Error(err))
	}
	res, err := simulation.New(observers...).Run(sc.Steps, sc.Demand, sc.Regulator, sc.Producers, sc.Participants)
	if err != nil {
		log.Fatal("simulation failed", zap.Error(err))
	}
	return res
}
