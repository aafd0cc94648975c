package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"market-sim/internal/analysis"
	"market-sim/internal/api/models"
	"market-sim/internal/api/store"
	"market-sim/internal/config"
	"market-sim/internal/metrics"
	"market-sim/internal/model"
	"market-sim/internal/simulation"
)

// SimulateHandler handles simulation requests
type SimulateHandler struct {
	scenarioDir string
	results     *store.Results
	metrics     *metrics.Metrics
	log         *zap.Logger
}

// NewSimulateHandler creates a new simulation handler. results and m may
// be nil.
func NewSimulateHandler(scenarioDir string, results *store.Results, m *metrics.Metrics, log *zap.Logger) *SimulateHandler {
	return &SimulateHandler{
		scenarioDir: scenarioDir,
		results:     results,
		metrics:     m,
		log:         log.Named("simulate"),
	}
}

// RunSimulation handles POST /api/v1/simulate
func (h *SimulateHandler) RunSimulation(c *gin.Context) {
	var req models.SimulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err)
		return
	}

	cfg, err := h.buildConfig(req.Preset, req.Scenario, req.Overrides)
	if err != nil {
		h.runError(c, err)
		return
	}

	result, err := h.run(cfg)
	if err != nil {
		h.runError(c, err)
		return
	}

	id := h.results.Put(cfg.Name, result)
	resp := buildResponse(result, req.Options.IncludeRecords, req.Options.IncludeFills)
	resp.ID = id
	resp.Scenario = cfg.Name
	c.JSON(http.StatusOK, resp)
}

// GetRecords handles GET /api/v1/simulate/:id/records
func (h *SimulateHandler) GetRecords(c *gin.Context) {
	id := c.Param("id")
	entry, ok := h.results.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "NOT_FOUND",
				Message: fmt.Sprintf("no stored result with id %q (results expire)", id),
			},
		})
		return
	}
	c.JSON(http.StatusOK, models.RecordsResponse{
		ID:      entry.ID,
		Records: convertRecords(entry.Result.Records, c.Query("fills") == "true"),
	})
}

// CompareSimulations handles POST /api/v1/simulate/compare
func (h *SimulateHandler) CompareSimulations(c *gin.Context) {
	var req models.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err)
		return
	}

	base, err := h.buildConfig(req.Preset, req.Scenario, req.Overrides)
	if err != nil {
		h.runError(c, err)
		return
	}

	// Every variation builds its own scenario, so they can run side by side.
	comparison := make([]models.ComparisonResult, len(req.Variations))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, v := range req.Variations {
		g.Go(func() error {
			cfg := *base
			cfg.Regulator = config.MergeRegulator(base.Regulator, v.Regulator)

			result, err := h.run(&cfg)
			if err != nil {
				return &variationError{name: v.Name, err: err}
			}
			comparison[i] = models.ComparisonResult{
				Name:      v.Name,
				HighPrice: cfg.Regulator.HighPrice,
				LowPrice:  cfg.Regulator.LowPrice,
				Merit:     cfg.Regulator.Merit,
				Summary:   convertSummary(analysis.Summarize(result.Records)),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		status, code := classify(err)
		detail := models.ErrorDetail{Code: code, Message: err.Error()}
		var ve *variationError
		if errors.As(err, &ve) {
			detail.Details = map[string]interface{}{"variation": ve.name}
		}
		if status >= http.StatusInternalServerError {
			h.log.Error("comparison failed", zap.Error(err))
		}
		c.JSON(status, models.ErrorResponse{Error: detail})
		return
	}

	c.JSON(http.StatusOK, models.CompareResponse{Comparison: comparison})
}

// buildConfig resolves the preset or inline scenario and applies overrides.
// Validation happens when the scenario is built.
func (h *SimulateHandler) buildConfig(preset string, inline json.RawMessage, o models.ScenarioOverrides) (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case preset != "":
		cfg, err = h.loadPreset(preset)
	case len(inline) > 0:
		cfg, err = config.Parse(inline)
		if err == nil {
			err = cfg.ConfineSeriesFile(h.scenarioDir)
		}
	default:
		err = fmt.Errorf("%w: preset or scenario is required", model.ErrInvalidConfiguration)
	}
	if err != nil {
		return nil, err
	}

	if o.Steps > 0 {
		cfg.Steps = o.Steps
	}
	if o.Seed != nil {
		cfg.Demand.Seed = *o.Seed
	}
	cfg.Regulator = config.MergeRegulator(cfg.Regulator, o.Regulator)
	return cfg, nil
}

func (h *SimulateHandler) loadPreset(name string) (*config.Config, error) {
	// preset should be just the file name (e.g., "reference")
	if name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return nil, fmt.Errorf("%w: invalid preset name %q", model.ErrInvalidConfiguration, name)
	}
	path := filepath.Join(h.scenarioDir, name+".yaml")
	cfg, err := config.LoadUnchecked(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: unknown preset %q", errPresetNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	if cfg.Name == "" {
		cfg.Name = name
	}
	return cfg, nil
}

var errPresetNotFound = errors.New("preset not found")

type variationError struct {
	name string
	err  error
}

func (e *variationError) Error() string { return fmt.Sprintf("variation %q: %v", e.name, e.err) }
func (e *variationError) Unwrap() error { return e.err }

func (h *SimulateHandler) run(cfg *config.Config, observers ...simulation.Observer) (*simulation.Result, error) {
	sc, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	observers = append([]simulation.Observer{h.metrics}, observers...)
	result, err := simulation.New(observers...).Run(sc.Steps, sc.Demand, sc.Regulator, sc.Producers, sc.Participants)
	h.metrics.RunFinished(time.Since(start), err)
	if err != nil {
		return nil, err
	}
	h.log.Info("simulation finished",
		zap.String("scenario", cfg.Name),
		zap.Int("steps", sc.Steps),
		zap.Float64("total_cost", result.TotalCost),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

// classify maps an error to an HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, errPresetNotFound):
		return http.StatusNotFound, "PRESET_NOT_FOUND"
	case errors.Is(err, model.ErrInvalidConfiguration):
		return http.StatusBadRequest, "INVALID_CONFIG"
	case errors.Is(err, model.ErrArithmeticViolation):
		return http.StatusInternalServerError, "ARITHMETIC_VIOLATION"
	default:
		return http.StatusInternalServerError, "SIMULATION_ERROR"
	}
}

func (h *SimulateHandler) runError(c *gin.Context, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("simulation failed", zap.Error(err))
	}
	c.JSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{Code: code, Message: err.Error()},
	})
}

func badRequest(c *gin.Context, code string, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: err.Error(),
		},
	})
}

func buildResponse(result *simulation.Result, includeRecords, includeFills bool) models.SimulateResponse {
	resp := models.SimulateResponse{
		Status:       "completed",
		Summary:      convertSummary(analysis.Summarize(result.Records)),
		Rankings:     convertStandings(analysis.RankParticipants(result.Records)),
		FinalStorage: result.FinalStorage,
	}
	if includeRecords {
		resp.Records = convertRecords(result.Records, includeFills)
	}
	return resp
}

func convertSummary(s analysis.Summary) models.Summary {
	return models.Summary{
		Steps:                   s.Steps,
		ShortageSteps:           s.ShortageSteps,
		DemandMean:              s.DemandMean,
		DemandStdDev:            s.DemandStdDev,
		DemandP05:               s.DemandP05,
		DemandP95:               s.DemandP95,
		PeakDemand:              s.PeakDemand,
		DemandMWh:               s.DemandMWh,
		ControlledProductionMWh: s.ControlledProductionMWh,
		BuyMWh:                  s.BuyMWh,
		SellMWh:                 s.SellMWh,
		UnmetMWh:                s.UnmetMWh,
		ProductionCost:          s.ProductionCost.InexactFloat64(),
		MarketCost:              s.MarketCost.InexactFloat64(),
		TotalCost:               s.TotalCost.InexactFloat64(),
		CostPerMWh:              s.CostPerMWh.InexactFloat64(),
	}
}

func convertStandings(standings []analysis.Standing) []models.Standing {
	out := make([]models.Standing, len(standings))
	for i, s := range standings {
		out[i] = models.Standing{
			Rank:          i + 1,
			ParticipantID: s.ParticipantID,
			BuyMWh:        s.BuyMWh,
			SellMWh:       s.SellMWh,
			CashFlow:      s.CashFlow,
			ActiveSteps:   s.ActiveSteps,
		}
		if s.HasStorage {
			v := s.FinalStorageMWh
			out[i].FinalStorageMWh = &v
		}
	}
	return out
}

func convertRecords(records []simulation.Record, includeFills bool) []models.StepRecord {
	out := make([]models.StepRecord, len(records))
	for i, r := range records {
		out[i] = models.StepRecord{
			Step:                 r.Step,
			Demand:               r.Demand,
			ControlledProduction: r.ControlledProduction,
			TotalBuy:             r.TotalBuy,
			TotalSell:            r.TotalSell,
			NetDemand:            r.NetDemand,
			Regime:               string(r.Regime),
			BuyPrice:             r.BuyPrice,
			SellPrice:            r.SellPrice,
			ProductionCost:       r.ProductionCost,
			MarketCost:           r.MarketCost,
			TotalCost:            r.TotalCost,
			CumCost:              r.CumCost,
			ProductionOrders:     r.ProductionOrders,
		}
		if includeFills {
			out[i].Fills = convertFills(r.Fills)
		}
	}
	return out
}

func convertFills(fills []simulation.Fill) []models.Fill {
	out := make([]models.Fill, len(fills))
	for i, f := range fills {
		out[i] = models.Fill{
			ParticipantID: f.ParticipantID,
			Action:        string(f.Action),
			BuyAmount:     f.Order.BuyAmount,
			SellAmount:    f.Order.SellAmount,
			CashFlow:      f.CashFlow,
		}
		if f.HasStorage {
			v := f.StorageMWh
			out[i].StorageMWh = &v
		}
	}
	return out
}
