package participant

import (
	"fmt"
	"math"

	"market-sim/internal/model"
)

// ScheduleParams implements a simple cyclic step-window participant:
// - Buy BuyAmountMW during [BuyStart, BuyEnd) if the regulator sells at or below LimitPrice
// - Sell SellAmountMW during [SellStart, SellEnd) if the regulator buys at or above LimitPrice
// - Otherwise IDLE
//
// Window bounds are step offsets within a cycle of Period steps.
type ScheduleParams struct {
	Period       int
	BuyStart     int
	BuyEnd       int
	SellStart    int
	SellEnd      int
	BuyAmountMW  float64
	SellAmountMW float64
	LimitPrice   float64
}

// ScheduleUnit is stateless; repeated calls for the same step return the
// same order.
type ScheduleUnit struct {
	id     string
	Params ScheduleParams
}

func NewScheduleUnit(id string, params ScheduleParams) (*ScheduleUnit, error) {
	s := &ScheduleUnit{id: id, Params: params}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ScheduleUnit) ID() string { return s.id }

func (s *ScheduleUnit) Validate() error {
	p := s.Params
	if s.id == "" {
		return fmt.Errorf("%w: schedule unit id is required", model.ErrInvalidConfiguration)
	}
	if p.Period <= 0 {
		return fmt.Errorf("%w: %s period must be > 0", model.ErrInvalidConfiguration, s.id)
	}
	for _, b := range []int{p.BuyStart, p.BuyEnd, p.SellStart, p.SellEnd} {
		if b < 0 || b > p.Period {
			return fmt.Errorf("%w: %s window bound %d outside [0, %d]", model.ErrInvalidConfiguration, s.id, b, p.Period)
		}
	}
	if !model.Finite(p.BuyAmountMW) || !model.Finite(p.SellAmountMW) || p.BuyAmountMW < 0 || p.SellAmountMW < 0 {
		return fmt.Errorf("%w: %s amounts must be finite values >= 0", model.ErrInvalidConfiguration, s.id)
	}
	if !model.Finite(p.LimitPrice) {
		return fmt.Errorf("%w: %s limit price must be finite", model.ErrInvalidConfiguration, s.id)
	}
	return nil
}

func (s *ScheduleUnit) CreateOrder(step int, prices model.PricePair) (model.Order, error) {
	if step < 0 {
		return model.Order{}, fmt.Errorf("%w: %s negative step %d", model.ErrInvalidConfiguration, s.id, step)
	}
	pos := step % s.Params.Period

	var order model.Order
	if inWindow(pos, s.Params.BuyStart, s.Params.BuyEnd) && prices.SellPrice <= s.Params.LimitPrice {
		order.BuyAmount = math.Abs(s.Params.BuyAmountMW)
	}
	if inWindow(pos, s.Params.SellStart, s.Params.SellEnd) && prices.BuyPrice >= s.Params.LimitPrice {
		order.SellAmount = math.Abs(s.Params.SellAmountMW)
	}
	return order, nil
}

// inWindow checks whether pos is in [start, end) on a cyclic step clock.
// If start == end, the window is empty (always false).
// If start > end, it wraps across the cycle boundary.
func inWindow(pos, start, end int) bool {
	if start == end {
		return false
	}
	if start < end {
		return pos >= start && pos < end
	}
	return pos >= start || pos < end
}
