package models

// SimulateResponse represents the response from a simulation run
type SimulateResponse struct {
	ID           string             `json:"id,omitempty"`
	Status       string             `json:"status"`
	Scenario     string             `json:"scenario,omitempty"`
	Summary      Summary            `json:"summary"`
	Rankings     []Standing         `json:"rankings"`
	FinalStorage map[string]float64 `json:"final_storage,omitempty"`
	Records      []StepRecord       `json:"records,omitempty"`
}

// Summary contains aggregated run results
type Summary struct {
	Steps         int `json:"steps"`
	ShortageSteps int `json:"shortage_steps"`

	DemandMean   float64 `json:"demand_mean"`
	DemandStdDev float64 `json:"demand_stddev"`
	DemandP05    float64 `json:"demand_p05"`
	DemandP95    float64 `json:"demand_p95"`
	PeakDemand   float64 `json:"peak_demand"`

	DemandMWh               float64 `json:"demand_mwh"`
	ControlledProductionMWh float64 `json:"controlled_production_mwh"`
	BuyMWh                  float64 `json:"buy_mwh"`
	SellMWh                 float64 `json:"sell_mwh"`
	UnmetMWh                float64 `json:"unmet_mwh"`

	ProductionCost float64 `json:"production_cost"`
	MarketCost     float64 `json:"market_cost"`
	TotalCost      float64 `json:"total_cost"`
	CostPerMWh     float64 `json:"cost_per_mwh"`
}

// Standing represents one ranked participant
type Standing struct {
	Rank            int      `json:"rank"`
	ParticipantID   string   `json:"participant_id"`
	BuyMWh          float64  `json:"buy_mwh"`
	SellMWh         float64  `json:"sell_mwh"`
	CashFlow        float64  `json:"cash_flow"`
	ActiveSteps     int      `json:"active_steps"`
	FinalStorageMWh *float64 `json:"final_storage_mwh,omitempty"`
}

// StepRecord represents one step of the run
type StepRecord struct {
	Step                 int       `json:"step"`
	Demand               float64   `json:"demand"`
	ControlledProduction float64   `json:"controlled_production"`
	TotalBuy             float64   `json:"total_agent_buy"`
	TotalSell            float64   `json:"total_agent_sell"`
	NetDemand            float64   `json:"net_demand"`
	Regime               string    `json:"regime"` // "BALANCED", "SHORTAGE"
	BuyPrice             float64   `json:"buy_price"`
	SellPrice            float64   `json:"sell_price"`
	ProductionCost       float64   `json:"production_cost"`
	MarketCost           float64   `json:"market_cost"`
	TotalCost            float64   `json:"total_cost"`
	CumCost              float64   `json:"cum_cost"`
	ProductionOrders     []float64 `json:"production_orders"`
	Fills                []Fill    `json:"fills,omitempty"`
}

// Fill represents one participant's settled order
type Fill struct {
	ParticipantID string   `json:"participant_id"`
	Action        string   `json:"action"` // "BUYING", "SELLING", "IDLE", "BUYING_AND_SELLING"
	BuyAmount     float64  `json:"buy_amount"`
	SellAmount    float64  `json:"sell_amount"`
	CashFlow      float64  `json:"cash_flow"`
	StorageMWh    *float64 `json:"storage_mwh,omitempty"`
}

// RecordsResponse is returned by the stored-records endpoint
type RecordsResponse struct {
	ID      string       `json:"id"`
	Records []StepRecord `json:"records"`
}

// CompareResponse represents the response from a comparison
type CompareResponse struct {
	Comparison []ComparisonResult `json:"comparison"`
}

// ComparisonResult contains results for one variation
type ComparisonResult struct {
	Name      string  `json:"name"`
	HighPrice float64 `json:"high_price"`
	LowPrice  float64 `json:"low_price"`
	Merit     string  `json:"merit"`
	Summary   Summary `json:"summary"`
}

// ScenarioInfo represents information about a scenario preset
type ScenarioInfo struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	File        string        `json:"file"`
	Specs       ScenarioSpecs `json:"specs"`
}

// ScenarioSpecs contains headline numbers of a preset
type ScenarioSpecs struct {
	Steps            int     `json:"steps"`
	DemandKind       string  `json:"demand_kind"`
	Producers        int     `json:"producers"`
	Participants     int     `json:"participants"`
	ProducerCapacity float64 `json:"producer_capacity_mw"`
}

// KindInfo describes a demand or participant kind
type KindInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ParameterInfo `json:"parameters"`
}

// ParameterInfo describes a kind parameter
type ParameterInfo struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"` // "float", "int", "[]float", "string"
	Description string      `json:"description"`
	Default     interface{} `json:"default,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// StreamMessage is one websocket frame of a streamed run. Type is "step",
// "summary" or "error".
type StreamMessage struct {
	Type     string       `json:"type"`
	ID       string       `json:"id,omitempty"`
	Step     *StepRecord  `json:"step,omitempty"`
	Summary  *Summary     `json:"summary,omitempty"`
	Rankings []Standing   `json:"rankings,omitempty"`
	Error    *ErrorDetail `json:"error,omitempty"`
}
