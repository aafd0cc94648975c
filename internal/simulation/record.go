package simulation

import "market-sim/internal/model"

// Fill is one participant's settled order for a step.
type Fill struct {
	ParticipantID string

	Action model.Action
	Prices model.PricePair
	Order  model.Order

	// CashFlow is the participant's side of the settlement:
	// sell*buyPrice - buy*sellPrice.
	CashFlow float64

	HasStorage bool
	StorageMWh float64
}

// Record is one row of per-step output. Records are appended once and
// never modified.
type Record struct {
	Step int

	Demand               float64
	ControlledProduction float64
	TotalBuy             float64
	TotalSell            float64
	// NetDemand is demand - controlled production - (buy - sell).
	NetDemand float64

	Regime    model.Regime
	BuyPrice  float64
	SellPrice float64

	ProductionCost float64
	MarketCost     float64
	TotalCost      float64
	CumCost        float64

	ProductionOrders []float64
	Fills            []Fill
}

type Result struct {
	Records   []Record
	TotalCost float64
	// FinalStorage maps participant id to storage level for participants
	// that report one.
	FinalStorage map[string]float64
}
