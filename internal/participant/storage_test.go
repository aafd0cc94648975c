package participant

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"market-sim/internal/model"
)

func newPCS(t *testing.T, prod, demand []float64, capacity, initial, price float64) *StorageUnit {
	t.Helper()
	u, err := NewStorageUnit("PCS_0", StorageParams{
		MaxProductionMW:    prod,
		InternalDemandMW:   demand,
		StorageCapacityMWh: capacity,
		ProductionPrice:    price,
	}, initial)
	require.NoError(t, err)
	return u
}

func TestStorageUnitBanksSurplusWhenSellingIsUnprofitable(t *testing.T) {
	u := newPCS(t, []float64{60}, []float64{50}, 500, 0, 70)

	order, err := u.CreateOrder(0, model.PricePair{BuyPrice: 50, SellPrice: 220})
	require.NoError(t, err)

	assert.Equal(t, model.Order{BuyAmount: 0, SellAmount: 0}, order)
	assert.Equal(t, 10.0, u.StorageLevelMWh())
}

func TestStorageUnitSellsSurplusWhenMarketPaysMore(t *testing.T) {
	u := newPCS(t, []float64{60}, []float64{50}, 500, 0, 70)

	order, err := u.CreateOrder(0, model.PricePair{BuyPrice: 200, SellPrice: 220})
	require.NoError(t, err)

	assert.Equal(t, 10.0, order.SellAmount)
	assert.Zero(t, order.BuyAmount)
	assert.Zero(t, u.StorageLevelMWh(), "sold surplus is not banked")
}

func TestStorageUnitDischargesBeforeBuying(t *testing.T) {
	u := newPCS(t, []float64{50}, []float64{65}, 500, 10, 70)

	order, err := u.CreateOrder(0, model.PricePair{BuyPrice: 20, SellPrice: 40})
	require.NoError(t, err)

	assert.Equal(t, 5.0, order.BuyAmount)
	assert.Zero(t, order.SellAmount)
	assert.Zero(t, u.StorageLevelMWh())
}

func TestStorageUnitSkipsExpensiveMarketEnergy(t *testing.T) {
	u := newPCS(t, []float64{50}, []float64{65}, 500, 0, 70)

	order, err := u.CreateOrder(0, model.PricePair{BuyPrice: 200, SellPrice: 220})
	require.NoError(t, err)

	assert.Equal(t, model.Order{}, order)
	assert.Zero(t, u.StorageLevelMWh(), "unmet demand never drives storage negative")
}

func TestStorageUnitChargeIsCappedByHeadroom(t *testing.T) {
	u := newPCS(t, []float64{100}, []float64{10}, 50, 45, 70)

	_, err := u.CreateOrder(0, model.PricePair{BuyPrice: 50, SellPrice: 70})
	require.NoError(t, err)

	assert.Equal(t, 50.0, u.StorageLevelMWh())
}

func TestStorageUnitCreateOrderIsNotIdempotent(t *testing.T) {
	u := newPCS(t, []float64{50}, []float64{60}, 500, 10, 70)
	prices := model.PricePair{BuyPrice: 20, SellPrice: 40}

	first, err := u.CreateOrder(0, prices)
	require.NoError(t, err)
	second, err := u.CreateOrder(0, prices)
	require.NoError(t, err)

	assert.Equal(t, 0.0, first.BuyAmount, "first call is covered by storage")
	assert.Equal(t, 10.0, second.BuyAmount, "second call sees the drained storage")
	assert.NotEqual(t, first, second)
}

func TestStorageUnitRejectsStepOutsideHorizon(t *testing.T) {
	u := newPCS(t, []float64{60}, []float64{50}, 500, 0, 70)

	_, err := u.CreateOrder(1, model.PricePair{})
	assert.True(t, errors.Is(err, model.ErrInvalidConfiguration))
}

func TestStorageUnitReportsNonFiniteLevel(t *testing.T) {
	u := newPCS(t, []float64{60}, []float64{50}, 500, 0, 70)
	u.Params.MaxProductionMW[0] = math.NaN()

	_, err := u.CreateOrder(0, model.PricePair{BuyPrice: 50, SellPrice: 70})
	assert.ErrorIs(t, err, model.ErrArithmeticViolation)
}

func TestNewStorageUnitValidation(t *testing.T) {
	cases := []struct {
		name    string
		params  StorageParams
		initial float64
	}{
		{"negative capacity", StorageParams{StorageCapacityMWh: -1}, 0},
		{"initial above capacity", StorageParams{StorageCapacityMWh: 10}, 11},
		{"initial negative", StorageParams{StorageCapacityMWh: 10}, -1},
		{"mismatched sequences", StorageParams{StorageCapacityMWh: 10, MaxProductionMW: []float64{1, 2}, InternalDemandMW: []float64{1}}, 0},
		{"negative production", StorageParams{StorageCapacityMWh: 10, MaxProductionMW: []float64{-1}, InternalDemandMW: []float64{1}}, 0},
		{"nan production", StorageParams{StorageCapacityMWh: 10, MaxProductionMW: []float64{math.NaN()}, InternalDemandMW: []float64{1}}, 0},
		{"inf demand", StorageParams{StorageCapacityMWh: 10, MaxProductionMW: []float64{1}, InternalDemandMW: []float64{math.Inf(1)}}, 0},
		{"inf capacity", StorageParams{StorageCapacityMWh: math.Inf(1)}, 0},
		{"nan capacity", StorageParams{StorageCapacityMWh: math.NaN()}, 0},
		{"nan initial", StorageParams{StorageCapacityMWh: 10}, math.NaN()},
		{"nan production price", StorageParams{StorageCapacityMWh: 10, ProductionPrice: math.NaN()}, 0},
		{"inf production price", StorageParams{StorageCapacityMWh: 10, ProductionPrice: math.Inf(-1)}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewStorageUnit("PCS", tc.params, tc.initial)
			assert.ErrorIs(t, err, model.ErrInvalidConfiguration)
		})
	}
}

func TestStorageUnitValidateHorizon(t *testing.T) {
	u := newPCS(t, []float64{60, 60}, []float64{50, 50}, 500, 0, 70)

	assert.NoError(t, u.ValidateHorizon(2))
	assert.ErrorIs(t, u.ValidateHorizon(3), model.ErrInvalidConfiguration)
}

func TestStorageLevelStaysWithinBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		steps := rapid.IntRange(1, 48).Draw(t, "steps")
		prod := rapid.SliceOfN(rapid.Float64Range(0, 200), steps, steps).Draw(t, "prod")
		demand := rapid.SliceOfN(rapid.Float64Range(0, 200), steps, steps).Draw(t, "demand")
		capacity := rapid.Float64Range(0, 500).Draw(t, "capacity")
		initial := rapid.Float64Range(0, 1).Draw(t, "initialFrac") * capacity
		price := rapid.Float64Range(0, 300).Draw(t, "productionPrice")

		u, err := NewStorageUnit("PCS", StorageParams{
			MaxProductionMW:    prod,
			InternalDemandMW:   demand,
			StorageCapacityMWh: capacity,
			ProductionPrice:    price,
		}, initial)
		if err != nil {
			t.Fatalf("setup: %v", err)
		}

		for step := 0; step < steps; step++ {
			buy := rapid.Float64Range(0, 300).Draw(t, "buyPrice")
			prices := model.PricePair{BuyPrice: buy, SellPrice: buy + 20}
			order, err := u.CreateOrder(step, prices)
			if err != nil {
				t.Fatalf("step %d: %v", step, err)
			}
			level := u.StorageLevelMWh()
			if level < 0 || level > capacity {
				t.Fatalf("step %d: storage %g outside [0, %g]", step, level, capacity)
			}
			if order.BuyAmount < 0 || order.SellAmount < 0 {
				t.Fatalf("step %d: negative order %+v", step, order)
			}
		}
	})
}
