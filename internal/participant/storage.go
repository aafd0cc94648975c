package participant

import (
	"fmt"
	"math"

	"market-sim/internal/model"
)

// StorageParams defines a storage-capable participant (PCS unit).
// Units:
// - MaxProductionMW, InternalDemandMW: MW per step, indexed by step
// - StorageCapacityMWh: MWh
// - ProductionPrice: $/MWh, the internal cost of self-production
type StorageParams struct {
	MaxProductionMW    []float64
	InternalDemandMW   []float64
	StorageCapacityMWh float64
	ProductionPrice    float64
}

// StorageState captures mutable state. It is the only state in a run that
// carries from one step to the next.
type StorageState struct {
	LevelMWh float64
}

// StorageUnit produces, consumes and banks energy, and trades the
// difference with the regulator using a greedy single-pass rule.
type StorageUnit struct {
	id     string
	Params StorageParams
	State  StorageState
}

func NewStorageUnit(id string, params StorageParams, initialMWh float64) (*StorageUnit, error) {
	u := &StorageUnit{
		id:     id,
		Params: params,
		State:  StorageState{LevelMWh: initialMWh},
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return u, nil
}

func (u *StorageUnit) ID() string { return u.id }

func (u *StorageUnit) StorageLevelMWh() float64 { return u.State.LevelMWh }

func (u *StorageUnit) Validate() error {
	p := u.Params
	if u.id == "" {
		return fmt.Errorf("%w: storage unit id is required", model.ErrInvalidConfiguration)
	}
	if !model.Finite(p.StorageCapacityMWh) || p.StorageCapacityMWh < 0 {
		return fmt.Errorf("%w: %s storage capacity must be a finite value >= 0", model.ErrInvalidConfiguration, u.id)
	}
	if !model.Finite(p.ProductionPrice) {
		return fmt.Errorf("%w: %s production price must be finite", model.ErrInvalidConfiguration, u.id)
	}
	if !inBounds(u.State.LevelMWh, p.StorageCapacityMWh) {
		return fmt.Errorf("%w: %s initial storage %g outside [0, %g]",
			model.ErrInvalidConfiguration, u.id, u.State.LevelMWh, p.StorageCapacityMWh)
	}
	if len(p.MaxProductionMW) != len(p.InternalDemandMW) {
		return fmt.Errorf("%w: %s has %d max_production values but %d internal_demand values",
			model.ErrInvalidConfiguration, u.id, len(p.MaxProductionMW), len(p.InternalDemandMW))
	}
	for i, v := range p.MaxProductionMW {
		if !model.Finite(v) || v < 0 {
			return fmt.Errorf("%w: %s max_production[%d] must be a finite value >= 0", model.ErrInvalidConfiguration, u.id, i)
		}
	}
	for i, v := range p.InternalDemandMW {
		if !model.Finite(v) || v < 0 {
			return fmt.Errorf("%w: %s internal_demand[%d] must be a finite value >= 0", model.ErrInvalidConfiguration, u.id, i)
		}
	}
	return nil
}

// ValidateHorizon checks that the per-step sequences match the run length.
func (u *StorageUnit) ValidateHorizon(steps int) error {
	if len(u.Params.MaxProductionMW) != steps || len(u.Params.InternalDemandMW) != steps {
		return fmt.Errorf("%w: %s per-step sequences have length %d/%d, want %d",
			model.ErrInvalidConfiguration, u.id,
			len(u.Params.MaxProductionMW), len(u.Params.InternalDemandMW), steps)
	}
	return nil
}

// CreateOrder runs the bidding rule for one step. The order of operations
// matters:
//  1. net demand = internal demand - max production
//  2. discharge storage to cover positive net demand
//  3. buy the residual if the market sells below the production price
//  4. sell the surplus (including the discharge) if the market buys above it
//  5. bank whatever surplus is left, up to the storage headroom
func (u *StorageUnit) CreateOrder(step int, prices model.PricePair) (model.Order, error) {
	if step < 0 || step >= len(u.Params.MaxProductionMW) || step >= len(u.Params.InternalDemandMW) {
		return model.Order{}, fmt.Errorf("%w: %s has no data for step %d", model.ErrInvalidConfiguration, u.id, step)
	}
	production := u.Params.MaxProductionMW[step]
	internal := u.Params.InternalDemandMW[step]

	net := internal - production

	discharge := math.Min(u.State.LevelMWh, math.Max(0, net))
	u.State.LevelMWh -= discharge
	net -= discharge

	var order model.Order
	if net > 0 && prices.SellPrice < u.Params.ProductionPrice {
		order.BuyAmount = net
	}

	// The discharge is counted again here; see DESIGN.md.
	surplus := production - internal + discharge
	if surplus > 0 && prices.BuyPrice > u.Params.ProductionPrice {
		order.SellAmount = surplus
		surplus = 0
	}

	headroom := u.Params.StorageCapacityMWh - u.State.LevelMWh
	charge := math.Max(0, math.Min(surplus, headroom))
	if charge > 0 && charge >= headroom {
		u.State.LevelMWh = u.Params.StorageCapacityMWh
	} else {
		u.State.LevelMWh += charge
	}

	if !inBounds(u.State.LevelMWh, u.Params.StorageCapacityMWh) {
		return model.Order{}, fmt.Errorf("%w: %s storage %g outside [0, %g] at step %d",
			model.ErrArithmeticViolation, u.id, u.State.LevelMWh, u.Params.StorageCapacityMWh, step)
	}
	return order, nil
}

// inBounds is false for NaN levels.
func inBounds(level, capacity float64) bool {
	return level >= 0 && level <= capacity
}
