package simulation

import (
	"fmt"

	"market-sim/internal/demand"
	"market-sim/internal/model"
	"market-sim/internal/participant"
)

// Dispatcher decides production orders and price pairs for a step.
type Dispatcher interface {
	DecideAction(step int, demand float64, producers []*model.Producer, participants []participant.Participant) model.DispatchResult
}

// Observer is notified after each step is settled. Observers see the
// record after it has been appended and must not modify it.
type Observer interface {
	OnStep(rec Record)
}

type Engine struct {
	observers []Observer
}

func New(observers ...Observer) *Engine {
	return &Engine{observers: observers}
}

// Run executes the market for steps steps. Each step draws demand, asks the
// dispatcher once, hands the production orders to the producers, asks every
// participant exactly once for an order and settles using only the captured
// orders. Any error aborts the run.
func (e *Engine) Run(steps int, src demand.Source, disp Dispatcher, producers []*model.Producer, participants []participant.Participant) (*Result, error) {
	if err := validate(steps, src, disp, producers, participants); err != nil {
		return nil, err
	}

	records := make([]Record, 0, steps)
	cum := 0.0

	for step := 0; step < steps; step++ {
		d, err := src.At(step)
		if err != nil {
			return nil, fmt.Errorf("step %d draw demand: %w", step, err)
		}

		action := disp.DecideAction(step, d, producers, participants)
		if len(action.Orders) != len(producers) {
			return nil, fmt.Errorf("step %d: dispatcher returned %d orders for %d producers", step, len(action.Orders), len(producers))
		}
		if len(action.Prices) != len(participants) {
			return nil, fmt.Errorf("step %d: dispatcher returned %d price pairs for %d participants", step, len(action.Prices), len(participants))
		}

		rec := Record{
			Step:             step,
			Demand:           d,
			Regime:           action.Regime,
			BuyPrice:         action.Quote.BuyPrice,
			SellPrice:        action.Quote.SellPrice,
			ProductionOrders: make([]float64, len(producers)),
			Fills:            make([]Fill, 0, len(participants)),
		}

		for i, p := range producers {
			p.ProductionOrder = action.Orders[i]
			rec.ProductionOrders[i] = p.ProductionOrder
			rec.ControlledProduction += p.ProductionOrder
			rec.ProductionCost += p.ProductionCost(p.ProductionOrder)
		}

		for i, pt := range participants {
			prices := action.Prices[i]
			order, err := pt.CreateOrder(step, prices)
			if err != nil {
				return nil, fmt.Errorf("step %d participant %s: %w", step, pt.ID(), err)
			}
			rec.Fills = append(rec.Fills, settle(pt, prices, order))
		}

		for _, f := range rec.Fills {
			rec.TotalBuy += f.Order.BuyAmount
			rec.TotalSell += f.Order.SellAmount
			rec.MarketCost += f.Order.Settlement(f.Prices)
		}
		rec.NetDemand = d - rec.ControlledProduction - (rec.TotalBuy - rec.TotalSell)
		rec.TotalCost = rec.ProductionCost + rec.MarketCost
		cum += rec.TotalCost
		rec.CumCost = cum

		records = append(records, rec)
		for _, o := range e.observers {
			o.OnStep(rec)
		}
	}

	res := &Result{
		Records:      records,
		TotalCost:    cum,
		FinalStorage: map[string]float64{},
	}
	for _, pt := range participants {
		if sr, ok := pt.(participant.StorageReporter); ok {
			res.FinalStorage[pt.ID()] = sr.StorageLevelMWh()
		}
	}
	return res, nil
}

func settle(pt participant.Participant, prices model.PricePair, order model.Order) Fill {
	f := Fill{
		ParticipantID: pt.ID(),
		Action:        model.ActionFromOrder(order),
		Prices:        prices,
		Order:         order,
		CashFlow:      -order.Settlement(prices),
	}
	if sr, ok := pt.(participant.StorageReporter); ok {
		f.HasStorage = true
		f.StorageMWh = sr.StorageLevelMWh()
	}
	return f
}

func validate(steps int, src demand.Source, disp Dispatcher, producers []*model.Producer, participants []participant.Participant) error {
	if steps <= 0 {
		return fmt.Errorf("%w: steps must be > 0", model.ErrInvalidConfiguration)
	}
	if src == nil {
		return fmt.Errorf("%w: demand source is nil", model.ErrInvalidConfiguration)
	}
	if disp == nil {
		return fmt.Errorf("%w: dispatcher is nil", model.ErrInvalidConfiguration)
	}
	if hv, ok := src.(participant.HorizonValidator); ok {
		if err := hv.ValidateHorizon(steps); err != nil {
			return err
		}
	}

	seen := map[string]bool{}
	for _, p := range producers {
		if p == nil {
			return fmt.Errorf("%w: nil producer", model.ErrInvalidConfiguration)
		}
		if err := p.Validate(); err != nil {
			return err
		}
		if seen[p.ID] {
			return fmt.Errorf("%w: duplicate producer id %q", model.ErrInvalidConfiguration, p.ID)
		}
		seen[p.ID] = true
	}

	seen = map[string]bool{}
	for _, pt := range participants {
		if pt == nil {
			return fmt.Errorf("%w: nil participant", model.ErrInvalidConfiguration)
		}
		if seen[pt.ID()] {
			return fmt.Errorf("%w: duplicate participant id %q", model.ErrInvalidConfiguration, pt.ID())
		}
		seen[pt.ID()] = true
		if hv, ok := pt.(participant.HorizonValidator); ok {
			if err := hv.ValidateHorizon(steps); err != nil {
				return err
			}
		}
	}
	return nil
}
