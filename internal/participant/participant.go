package participant

import "market-sim/internal/model"

// Participant is a market actor quoted a price pair by the regulator each
// step. CreateOrder may mutate internal state, so the orchestrator must call
// it exactly once per step.
type Participant interface {
	ID() string
	CreateOrder(step int, prices model.PricePair) (model.Order, error)
}

// HorizonValidator is implemented by participants and demand sources whose
// data is indexed by step and must cover the whole run.
type HorizonValidator interface {
	ValidateHorizon(steps int) error
}

// StorageReporter exposes a storage level for reporting.
type StorageReporter interface {
	StorageLevelMWh() float64
}
