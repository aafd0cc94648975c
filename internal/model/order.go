package model

// PricePair is what the regulator quotes a participant for one step.
// BuyPrice is what the regulator pays the participant for energy it sells;
// SellPrice is what the participant pays for energy it buys.
type PricePair struct {
	BuyPrice  float64 `json:"buy_price"`
	SellPrice float64 `json:"sell_price"`
}

// Order is a participant's reply to a price pair.
type Order struct {
	BuyAmount  float64 `json:"buy_amount"`
	SellAmount float64 `json:"sell_amount"`
}


// Settlement is the regulator's cash position against the order:
// it collects SellPrice for energy bought and pays BuyPrice for energy sold.
// Positive values are a cost to the regulator.
func (o Order) Settlement(p PricePair) float64 {
	return o.BuyAmount*p.SellPrice - o.SellAmount*p.BuyPrice
}

// Regime is the pricing state the regulator ends a step in.
type Regime string

const (
	RegimeBalanced Regime = "BALANCED"
	RegimeShortage Regime = "SHORTAGE"
)

// DispatchResult is the regulator's decision for one step. It is not
// retained beyond the step.
type DispatchResult struct {
	// Orders has one entry per producer, in the producers' input order.
	Orders []float64
	// Prices has one entry per participant, in the participants' input order.
	Prices []PricePair
	// Quote is the pair the regulator derived for the step, reported even
	// when there are no participants.
	Quote PricePair

	Regime Regime
	// Remaining is demand left unallocated after the merit-order walk.
	Remaining      float64
	CapacityUsed   float64
	ProductionCost float64
}
