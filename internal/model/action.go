package model

// Action is a human-friendly label for what a participant did in a step.
// Keep these values stable; they are intended for CSV output.
type Action string

const (
	ActionBuying  Action = "BUYING"
	ActionIdle    Action = "IDLE"
	ActionSelling Action = "SELLING"
	ActionBoth    Action = "BUYING_AND_SELLING"
)

func ActionFromOrder(o Order) Action {
	switch {
	case o.BuyAmount > 0 && o.SellAmount > 0:
		return ActionBoth
	case o.BuyAmount > 0:
		return ActionBuying
	case o.SellAmount > 0:
		return ActionSelling
	default:
		return ActionIdle
	}
}
