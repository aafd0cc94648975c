package model

import "fmt"

// CostFunc maps a production quantity (MW) to a per-unit cost ($/MWh).
// Monotonicity is not assumed.
type CostFunc func(quantityMW float64) float64

// Producer is a controllable generation unit dispatched by the regulator.
// Capacity and Cost are fixed for the producer's lifetime; ProductionOrder
// is overwritten every step and is only meaningful within that step.
type Producer struct {
	ID         string
	CapacityMW float64
	Cost       CostFunc

	ProductionOrder float64
}

func NewProducer(id string, capacityMW float64, cost CostFunc) (*Producer, error) {
	p := &Producer{
		ID:         id,
		CapacityMW: capacityMW,
		Cost:       cost,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Producer) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: producer id is required", ErrInvalidConfiguration)
	}
	if !Finite(p.CapacityMW) || p.CapacityMW < 0 {
		return fmt.Errorf("%w: producer %s capacity must be a finite value >= 0", ErrInvalidConfiguration, p.ID)
	}
	if p.Cost == nil {
		return fmt.Errorf("%w: producer %s has no cost function", ErrInvalidConfiguration, p.ID)
	}
	return nil
}

// UnitCost evaluates the cost function at q.
func (p *Producer) UnitCost(q float64) float64 {
	return p.Cost(q)
}

// ProductionCost is the total cost of producing q: q * cost(q).
// A zero quantity costs nothing regardless of the cost function.
func (p *Producer) ProductionCost(q float64) float64 {
	if q == 0 {
		return 0
	}
	return q * p.Cost(q)
}

// TotalCapacity sums the capacity of all producers.
func TotalCapacity(producers []*Producer) float64 {
	total := 0.0
	for _, p := range producers {
		total += p.CapacityMW
	}
	return total
}
