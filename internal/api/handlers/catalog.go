package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"market-sim/internal/api/models"
	"market-sim/internal/config"
	"market-sim/internal/demand"
)

// CatalogHandler describes the demand and participant kinds a scenario
// can use.
type CatalogHandler struct{}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler() *CatalogHandler {
	return &CatalogHandler{}
}

// ListDemandKinds handles GET /api/v1/demand-kinds
func (h *CatalogHandler) ListDemandKinds(c *gin.Context) {
	def := demand.DefaultParams()
	kinds := []models.KindInfo{
		{
			Name:        string(demand.KindSinusoidal),
			Description: "Daily sinusoid around a mean with Gaussian noise. Clamped at zero.",
			Parameters: []models.ParameterInfo{
				{Name: "mean", Type: "float", Description: "Mean demand in MW", Default: def.Mean},
				{Name: "amplitude", Type: "float", Description: "Peak deviation from the mean in MW", Default: def.Amplitude},
				{Name: "frequency", Type: "float", Description: "Cycles per step", Default: def.Frequency},
				{Name: "noise_std", Type: "float", Description: "Standard deviation of the noise in MW", Default: def.NoiseStd},
				{Name: "seed", Type: "int", Description: "Noise seed; equal seeds give equal runs", Default: 0},
			},
		},
		{
			Name:        string(demand.KindConstant),
			Description: "Flat demand equal to the mean.",
			Parameters: []models.ParameterInfo{
				{Name: "mean", Type: "float", Description: "Demand in MW", Default: def.Mean},
			},
		},
		{
			Name:        string(demand.KindRandom),
			Description: "Independent Gaussian draws per step. Clamped at zero.",
			Parameters: []models.ParameterInfo{
				{Name: "mean", Type: "float", Description: "Mean demand in MW", Default: def.Mean},
				{Name: "amplitude", Type: "float", Description: "Standard deviation in MW", Default: def.Amplitude},
				{Name: "seed", Type: "int", Description: "Noise seed", Default: 0},
			},
		},
		{
			Name:        string(demand.KindSeries),
			Description: "Replays a recorded sequence from a JSON file ({\"demand_mw\": [...]}). Must cover every step.",
			Parameters: []models.ParameterInfo{
				{Name: "series_file", Type: "string", Description: "Path to the JSON file, relative to the scenario file"},
			},
		},
	}
	c.JSON(http.StatusOK, gin.H{"demand_kinds": kinds})
}

// ListParticipantKinds handles GET /api/v1/participant-kinds
func (h *CatalogHandler) ListParticipantKinds(c *gin.Context) {
	kinds := []models.KindInfo{
		{
			Name: config.ParticipantStorage,
			Description: "Self-producing consumer with storage. Discharges to cover its own shortfall, " +
				"buys the rest when the market sells below its production price, sells surplus when the market buys above it, " +
				"and banks what is left.",
			Parameters: []models.ParameterInfo{
				{Name: "max_production", Type: "[]float", Description: "Own production per step in MW; one value is used for every step"},
				{Name: "internal_demand", Type: "[]float", Description: "Own demand per step in MW; one value is used for every step"},
				{Name: "storage_capacity", Type: "float", Description: "Storage size in MWh"},
				{Name: "initial_storage", Type: "float", Description: "Storage level at step 0 in MWh", Default: 0.0},
				{Name: "production_price", Type: "float", Description: "Price the unit compares market quotes against"},
				{Name: "count", Type: "int", Description: "Number of identical units, named <id>_<i>", Default: 1},
			},
		},
		{
			Name:        config.ParticipantSchedule,
			Description: "Buys a fixed amount inside a buy window and sells inside a sell window of a repeating step cycle, subject to a limit price.",
			Parameters: []models.ParameterInfo{
				{Name: "period", Type: "int", Description: "Cycle length in steps"},
				{Name: "buy_start", Type: "int", Description: "First step of the buy window within the cycle"},
				{Name: "buy_end", Type: "int", Description: "Step after the buy window; below buy_start wraps around the cycle"},
				{Name: "sell_start", Type: "int", Description: "First step of the sell window within the cycle"},
				{Name: "sell_end", Type: "int", Description: "Step after the sell window"},
				{Name: "buy_amount", Type: "float", Description: "MW bought per buy step", Default: 0.0},
				{Name: "sell_amount", Type: "float", Description: "MW sold per sell step", Default: 0.0},
				{Name: "limit_price", Type: "float", Description: "Buy only at or below, sell only at or above this price"},
			},
		},
	}
	c.JSON(http.StatusOK, gin.H{"participant_kinds": kinds})
}
