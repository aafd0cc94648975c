package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"market-sim/internal/demand"
	"market-sim/internal/model"
	"market-sim/internal/participant"
	"market-sim/internal/regulator"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk scenario shape (YAML). The same tags are used for
// JSON so API requests can carry an inline scenario.
type Config struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`

	Steps        int                 `yaml:"steps" json:"steps"`
	Regulator    RegulatorConfig     `yaml:"regulator" json:"regulator"`
	Demand       DemandConfig        `yaml:"demand" json:"demand"`
	Producers    []ProducerConfig    `yaml:"producers" json:"producers"`
	Participants []ParticipantConfig `yaml:"participants" json:"participants"`
}

type RegulatorConfig struct {
	HighPrice float64 `yaml:"high_price" json:"high_price"`
	LowPrice  float64 `yaml:"low_price" json:"low_price"`
	// Merit is "capacity" (default) or "unit".
	Merit string `yaml:"merit" json:"merit"`
}

// RegulatorOverride changes selected regulator fields. Nil prices and an
// empty merit keep the base value; an explicit zero price is applied.
type RegulatorOverride struct {
	HighPrice *float64 `json:"high_price,omitempty"`
	LowPrice  *float64 `json:"low_price,omitempty"`
	Merit     string   `json:"merit,omitempty"`
}

type DemandConfig struct {
	Kind          string `yaml:"kind" json:"kind"`
	demand.Params `yaml:",inline"`
	Seed          uint64 `yaml:"seed" json:"seed"`
	// SeriesFile is read for kind "series". Relative paths are resolved
	// against the config file's directory first.
	SeriesFile string `yaml:"series_file" json:"series_file"`
}

type ProducerConfig struct {
	ID         string     `yaml:"id" json:"id"`
	CapacityMW float64    `yaml:"capacity" json:"capacity"`
	Cost       CostConfig `yaml:"cost" json:"cost"`
}

// CostConfig selects a cost function:
//   - constant: price
//   - linear:   base + slope*q
//   - tiered:   first tier whose upto covers q, else above
type CostConfig struct {
	Kind  string       `yaml:"kind" json:"kind"`
	Price float64      `yaml:"price" json:"price"`
	Base  float64      `yaml:"base" json:"base"`
	Slope float64      `yaml:"slope" json:"slope"`
	Tiers []TierConfig `yaml:"tiers" json:"tiers"`
	Above float64      `yaml:"above" json:"above"`
}

type TierConfig struct {
	UpTo  float64 `yaml:"upto" json:"upto"`
	Price float64 `yaml:"price" json:"price"`
}

// ParticipantConfig describes one participant, or Count identical ones
// named <id>_0 .. <id>_<count-1>.
type ParticipantConfig struct {
	Kind  string `yaml:"kind" json:"kind"`
	ID    string `yaml:"id" json:"id"`
	Count int    `yaml:"count" json:"count"`

	// storage
	MaxProduction   []float64 `yaml:"max_production" json:"max_production"`
	InternalDemand  []float64 `yaml:"internal_demand" json:"internal_demand"`
	StorageCapacity float64   `yaml:"storage_capacity" json:"storage_capacity"`
	InitialStorage  float64   `yaml:"initial_storage" json:"initial_storage"`
	ProductionPrice float64   `yaml:"production_price" json:"production_price"`

	// schedule
	Period     int     `yaml:"period" json:"period"`
	BuyStart   int     `yaml:"buy_start" json:"buy_start"`
	BuyEnd     int     `yaml:"buy_end" json:"buy_end"`
	SellStart  int     `yaml:"sell_start" json:"sell_start"`
	SellEnd    int     `yaml:"sell_end" json:"sell_end"`
	BuyAmount  float64 `yaml:"buy_amount" json:"buy_amount"`
	SellAmount float64 `yaml:"sell_amount" json:"sell_amount"`
	LimitPrice float64 `yaml:"limit_price" json:"limit_price"`
}

const (
	ParticipantStorage  = "storage"
	ParticipantSchedule = "schedule"
)

// Scenario is a runnable, freshly built market. Participants carry state,
// so build a new Scenario for every run.
type Scenario struct {
	Name         string
	Steps        int
	Demand       demand.Source
	Regulator    *regulator.Regulator
	Producers    []*model.Producer
	Participants []participant.Participant
}

// Default returns the reference market settings. Files are decoded on top
// of it, so absent keys keep these values.
func Default() Config {
	return Config{
		Steps: 48,
		Regulator: RegulatorConfig{
			HighPrice: regulator.DefaultHighPrice,
			LowPrice:  regulator.DefaultLowPrice,
			Merit:     string(regulator.MeritAtCapacity),
		},
		Demand: DemandConfig{
			Kind:   string(demand.KindSinusoidal),
			Params: demand.DefaultParams(),
		},
	}
}

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads a scenario and resolves relative paths, but does not
// validate it. Useful for listing presets.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	if c.Demand.SeriesFile != "" && !filepath.IsAbs(c.Demand.SeriesFile) {
		// Prefer paths relative to the config file, but fall back to the
		// provided path (relative to cwd) if that doesn't exist.
		cand := filepath.Join(filepath.Dir(path), c.Demand.SeriesFile)
		if _, err := os.Stat(cand); err == nil {
			c.Demand.SeriesFile = cand
		}
	}
	return c, nil
}

// Parse decodes YAML (or JSON) over Default.
func Parse(raw []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidConfiguration, err)
	}
	return &c, nil
}

// Validate checks the scenario by building it once and discarding the result.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if _, err := c.Build(); err != nil {
		return fmt.Errorf("scenario %q invalid: %w", c.Name, err)
	}
	return nil
}

// Build turns the config into a runnable scenario. All configuration errors
// surface here, before any step runs.
func (c *Config) Build() (*Scenario, error) {
	if c.Steps <= 0 {
		return nil, fmt.Errorf("%w: steps must be > 0", model.ErrInvalidConfiguration)
	}

	reg := c.Regulator.ToRegulator()
	if err := reg.Validate(); err != nil {
		return nil, err
	}

	src, err := c.Demand.ToSource(c.Steps)
	if err != nil {
		return nil, err
	}

	producers := make([]*model.Producer, 0, len(c.Producers))
	seen := map[string]bool{}
	for i, pc := range c.Producers {
		p, err := pc.ToProducer()
		if err != nil {
			return nil, fmt.Errorf("producers[%d]: %w", i, err)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("%w: duplicate producer id %q", model.ErrInvalidConfiguration, p.ID)
		}
		seen[p.ID] = true
		producers = append(producers, p)
	}

	participants := []participant.Participant{}
	seen = map[string]bool{}
	for i, pc := range c.Participants {
		built, err := pc.ToParticipants(c.Steps)
		if err != nil {
			return nil, fmt.Errorf("participants[%d]: %w", i, err)
		}
		for _, p := range built {
			if seen[p.ID()] {
				return nil, fmt.Errorf("%w: duplicate participant id %q", model.ErrInvalidConfiguration, p.ID())
			}
			seen[p.ID()] = true
		}
		participants = append(participants, built...)
	}

	return &Scenario{
		Name:         c.Name,
		Steps:        c.Steps,
		Demand:       src,
		Regulator:    reg,
		Producers:    producers,
		Participants: participants,
	}, nil
}

func (r RegulatorConfig) ToRegulator() *regulator.Regulator {
	reg := regulator.New(r.HighPrice, r.LowPrice)
	if r.Merit != "" {
		reg.Merit = regulator.Merit(r.Merit)
	}
	return reg
}

func (d DemandConfig) ToSource(steps int) (demand.Source, error) {
	kind := demand.Kind(d.Kind)
	if kind == demand.KindSeries {
		if d.SeriesFile == "" {
			return nil, fmt.Errorf("%w: demand.series_file is required for kind series", model.ErrInvalidConfiguration)
		}
		s, err := demand.LoadSeriesJSON(d.SeriesFile)
		if err != nil {
			return nil, err
		}
		if err := s.ValidateHorizon(steps); err != nil {
			return nil, err
		}
		return s, nil
	}
	g, err := demand.NewGenerator(kind, d.Params, d.Seed)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (p ProducerConfig) ToProducer() (*model.Producer, error) {
	cost, err := p.Cost.ToCostFunc()
	if err != nil {
		return nil, err
	}
	return model.NewProducer(p.ID, p.CapacityMW, cost)
}

func (c CostConfig) ToCostFunc() (model.CostFunc, error) {
	for _, v := range []float64{c.Price, c.Base, c.Slope} {
		if !model.Finite(v) {
			return nil, fmt.Errorf("%w: cost parameters must be finite", model.ErrInvalidConfiguration)
		}
	}
	switch c.Kind {
	case "constant":
		return model.ConstantCost(c.Price), nil
	case "linear":
		return model.LinearCost(c.Base, c.Slope), nil
	case "tiered":
		tiers := make([]model.Tier, len(c.Tiers))
		for i, t := range c.Tiers {
			tiers[i] = model.Tier{UpToMW: t.UpTo, Price: t.Price}
		}
		return model.TieredCost(tiers, c.Above)
	default:
		return nil, fmt.Errorf("%w: unsupported cost kind %q", model.ErrInvalidConfiguration, c.Kind)
	}
}

// ToParticipants builds Count participants (at least one).
func (p ParticipantConfig) ToParticipants(steps int) ([]participant.Participant, error) {
	ids := []string{p.ID}
	if p.Count > 1 {
		ids = make([]string, p.Count)
		for i := range ids {
			ids[i] = fmt.Sprintf("%s_%d", p.ID, i)
		}
	} else if p.Count < 0 {
		return nil, fmt.Errorf("%w: %s count must be >= 0", model.ErrInvalidConfiguration, p.ID)
	}

	out := make([]participant.Participant, 0, len(ids))
	for _, id := range ids {
		switch p.Kind {
		case ParticipantStorage:
			prod, err := broadcast(p.MaxProduction, steps, id, "max_production")
			if err != nil {
				return nil, err
			}
			dem, err := broadcast(p.InternalDemand, steps, id, "internal_demand")
			if err != nil {
				return nil, err
			}
			u, err := participant.NewStorageUnit(id, participant.StorageParams{
				MaxProductionMW:    prod,
				InternalDemandMW:   dem,
				StorageCapacityMWh: p.StorageCapacity,
				ProductionPrice:    p.ProductionPrice,
			}, p.InitialStorage)
			if err != nil {
				return nil, err
			}
			out = append(out, u)
		case ParticipantSchedule:
			u, err := participant.NewScheduleUnit(id, participant.ScheduleParams{
				Period:       p.Period,
				BuyStart:     p.BuyStart,
				BuyEnd:       p.BuyEnd,
				SellStart:    p.SellStart,
				SellEnd:      p.SellEnd,
				BuyAmountMW:  p.BuyAmount,
				SellAmountMW: p.SellAmount,
				LimitPrice:   p.LimitPrice,
			})
			if err != nil {
				return nil, err
			}
			out = append(out, u)
		default:
			return nil, fmt.Errorf("%w: unsupported participant kind %q", model.ErrInvalidConfiguration, p.Kind)
		}
	}
	return out, nil
}

// broadcast expands a single value to every step and copies longer lists.
// Any length other than 1 or steps is rejected.
func broadcast(vals []float64, steps int, id, field string) ([]float64, error) {
	switch len(vals) {
	case 1:
		out := make([]float64, steps)
		for i := range out {
			out[i] = vals[0]
		}
		return out, nil
	case steps:
		out := make([]float64, steps)
		copy(out, vals)
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s %s has %d values, want 1 or %d",
			model.ErrInvalidConfiguration, id, field, len(vals), steps)
	}
}

// ConfineSeriesFile resolves a series_file under root. Absolute paths and
// paths that leave root are rejected. Other demand kinds are left alone.
func (c *Config) ConfineSeriesFile(root string) error {
	if demand.Kind(c.Demand.Kind) != demand.KindSeries || c.Demand.SeriesFile == "" {
		return nil
	}
	if !filepath.IsLocal(c.Demand.SeriesFile) {
		return fmt.Errorf("%w: series_file must be a relative path inside the scenario directory", model.ErrInvalidConfiguration)
	}
	c.Demand.SeriesFile = filepath.Join(root, c.Demand.SeriesFile)
	return nil
}

// MergeRegulator overlays the set fields of override onto base.
// This is used when loading a preset and then applying overrides from a request.
func MergeRegulator(base RegulatorConfig, override RegulatorOverride) RegulatorConfig {
	out := base
	if override.HighPrice != nil {
		out.HighPrice = *override.HighPrice
	}
	if override.LowPrice != nil {
		out.LowPrice = *override.LowPrice
	}
	if override.Merit != "" {
		out.Merit = override.Merit
	}
	return out
}
