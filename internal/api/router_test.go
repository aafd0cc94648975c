package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"market-sim/internal/api/models"
	"market-sim/internal/api/store"
	"market-sim/internal/config"
	"market-sim/internal/metrics"
)

const preset = `
name: Shortage
description: one producer, one storage unit
steps: 2
demand: {kind: constant, mean: 800}
producers:
  - {id: p1, capacity: 500, cost: {kind: constant, price: 10}}
participants:
  - {kind: storage, id: PCS, max_production: [100], internal_demand: [50], storage_capacity: 100, initial_storage: 0, production_price: 70}
`

func newTestRouter(t *testing.T) (*gin.Engine, *store.Results) {
	t.Helper()
	return newTestRouterWithLogger(t, zaptest.NewLogger(t))
}

func newTestRouterWithLogger(t *testing.T, log *zap.Logger) (*gin.Engine, *store.Results) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shortage.yaml"), []byte(preset), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "day.json"), []byte(`{"demand_mw": [300, 300]}`), 0o644))

	results := store.New(time.Hour, 0)
	t.Cleanup(results.Close)

	s := Settings{Port: 8080, ScenarioDir: dir, StaticDir: filepath.Join(dir, "missing"), ResultTTL: time.Hour}
	return NewRouter(s, log, metrics.New(), results), results
}

func do(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestSimulatePresetAndFetchRecords(t *testing.T) {
	r, results := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/v1/simulate", models.SimulateRequest{
		Preset:  "shortage",
		Options: models.SimulateOptions{IncludeRecords: true, IncludeFills: true},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[models.SimulateResponse](t, w)
	assert.Equal(t, "completed", resp.Status)
	assert.Equal(t, "Shortage", resp.Scenario)
	assert.Equal(t, 2, resp.Summary.Steps)
	assert.Equal(t, 2, resp.Summary.ShortageSteps)
	require.Len(t, resp.Records, 2)

	// Step 0: shortage prices 200/220, the unit sells its 50 MW surplus.
	rec := resp.Records[0]
	assert.Equal(t, "SHORTAGE", rec.Regime)
	assert.Equal(t, 200.0, rec.BuyPrice)
	assert.Equal(t, []float64{500}, rec.ProductionOrders)
	require.Len(t, rec.Fills, 1)
	assert.Equal(t, "SELLING", rec.Fills[0].Action)
	assert.Equal(t, 50.0, rec.Fills[0].SellAmount)
	assert.Equal(t, 10000.0, rec.Fills[0].CashFlow)

	require.Len(t, resp.Rankings, 1)
	assert.Equal(t, 1, resp.Rankings[0].Rank)
	assert.Equal(t, "PCS", resp.Rankings[0].ParticipantID)
	assert.Equal(t, 1, results.Len())

	w = do(t, r, http.MethodGet, "/api/v1/simulate/"+resp.ID+"/records", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stored := decode[models.RecordsResponse](t, w)
	assert.Equal(t, resp.ID, stored.ID)
	require.Len(t, stored.Records, 2)
	assert.Empty(t, stored.Records[0].Fills)

	w = do(t, r, http.MethodGet, "/api/v1/simulate/"+resp.ID+"/records?fills=true", nil)
	stored = decode[models.RecordsResponse](t, w)
	assert.Len(t, stored.Records[0].Fills, 1)
}

func TestSimulateInlineScenarioWithOverrides(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/v1/simulate", map[string]interface{}{
		"scenario": map[string]interface{}{
			"steps":     1,
			"demand":    map[string]interface{}{"kind": "constant", "mean": 300},
			"producers": []interface{}{map[string]interface{}{"id": "p1", "capacity": 500, "cost": map[string]interface{}{"kind": "constant", "price": 10}}},
		},
		"overrides": map[string]interface{}{"steps": 3},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[models.SimulateResponse](t, w)
	assert.Equal(t, 3, resp.Summary.Steps)
	assert.Zero(t, resp.Summary.ShortageSteps)
	assert.Equal(t, 9000.0, resp.Summary.ProductionCost)
	assert.Empty(t, resp.Records)
	assert.Empty(t, resp.Rankings)
}

func seriesScenario(file string) map[string]interface{} {
	return map[string]interface{}{
		"scenario": map[string]interface{}{
			"steps":     2,
			"demand":    map[string]interface{}{"kind": "series", "series_file": file},
			"producers": []interface{}{map[string]interface{}{"id": "p1", "capacity": 500, "cost": map[string]interface{}{"kind": "constant", "price": 10}}},
		},
	}
}

func TestSimulateInlineSeriesStaysInScenarioDir(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/v1/simulate", seriesScenario("day.json"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[models.SimulateResponse](t, w)
	assert.Equal(t, 600.0, resp.Summary.DemandMWh)

	for _, file := range []string{"/etc/hostname", "../day.json", "sub/../../day.json"} {
		t.Run(file, func(t *testing.T) {
			w := do(t, r, http.MethodPost, "/api/v1/simulate", seriesScenario(file))
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Equal(t, "INVALID_CONFIG", decode[models.ErrorResponse](t, w).Error.Code)
		})
	}
}

func TestSimulateErrors(t *testing.T) {
	r, _ := newTestRouter(t)

	cases := []struct {
		name   string
		body   interface{}
		status int
		code   string
	}{
		{"missing source", models.SimulateRequest{}, http.StatusBadRequest, "INVALID_CONFIG"},
		{"unknown preset", models.SimulateRequest{Preset: "nope"}, http.StatusNotFound, "PRESET_NOT_FOUND"},
		{"path preset", models.SimulateRequest{Preset: "../shortage"}, http.StatusBadRequest, "INVALID_CONFIG"},
		{"invalid scenario", map[string]interface{}{"scenario": map[string]interface{}{"steps": 0}}, http.StatusBadRequest, "INVALID_CONFIG"},
		{"malformed json", "not an object", http.StatusBadRequest, "INVALID_REQUEST"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, r, http.MethodPost, "/api/v1/simulate", tc.body)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
			assert.Equal(t, tc.code, decode[models.ErrorResponse](t, w).Error.Code)
		})
	}
}

func TestRecordsNotFound(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(t, r, http.MethodGet, "/api/v1/simulate/00000000-0000-0000-0000-000000000000/records", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decode[models.ErrorResponse](t, w).Error.Code)
}

func TestCompare(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/v1/simulate/compare", models.CompareRequest{
		Preset: "shortage",
		Variations: []models.RegulatorVariation{
			{Name: "default"},
			{Name: "expensive", Regulator: config.RegulatorOverride{HighPrice: price(400)}},
			{Name: "free surplus", Regulator: config.RegulatorOverride{LowPrice: price(0)}},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[models.CompareResponse](t, w)
	require.Len(t, resp.Comparison, 3)
	assert.Equal(t, 200.0, resp.Comparison[0].HighPrice)
	assert.Equal(t, 400.0, resp.Comparison[1].HighPrice)
	assert.Equal(t, 50.0, resp.Comparison[1].LowPrice)
	// The unit sells 50 MW per step either way, so only the market cost moves.
	assert.Equal(t, resp.Comparison[0].Summary.ProductionCost, resp.Comparison[1].Summary.ProductionCost)
	assert.Equal(t, 2*resp.Comparison[0].Summary.MarketCost, resp.Comparison[1].Summary.MarketCost)
	assert.Equal(t, 200.0, resp.Comparison[2].HighPrice)
	assert.Zero(t, resp.Comparison[2].LowPrice)

	w = do(t, r, http.MethodPost, "/api/v1/simulate/compare", models.CompareRequest{Preset: "shortage"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func price(v float64) *float64 { return &v }

func TestListScenarios(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(t, r, http.MethodGet, "/api/v1/scenarios", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode[struct {
		Scenarios []models.ScenarioInfo `json:"scenarios"`
	}](t, w)
	require.Len(t, body.Scenarios, 1)
	s := body.Scenarios[0]
	assert.Equal(t, "shortage", s.ID)
	assert.Equal(t, "Shortage", s.Name)
	assert.Equal(t, 1, s.Specs.Producers)
	assert.Equal(t, 1, s.Specs.Participants)
	assert.Equal(t, 500.0, s.Specs.ProducerCapacity)
}

func TestCatalogs(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/v1/demand-kinds", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[map[string][]models.KindInfo](t, w)["demand_kinds"], 4)

	w = do(t, r, http.MethodGet, "/api/v1/participant-kinds", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[map[string][]models.KindInfo](t, w)["participant_kinds"], 2)
}

func TestCORSPreflight(t *testing.T) {
	r, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/simulate", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownAPIRoute(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(t, r, http.MethodGet, "/api/v1/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)
	do(t, r, http.MethodPost, "/api/v1/simulate", models.SimulateRequest{Preset: "shortage"})

	w := do(t, r, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `market_sim_steps_total{regime="SHORTAGE"} 2`)
	assert.Contains(t, w.Body.String(), `market_sim_runs_total{outcome="ok"} 1`)
}
