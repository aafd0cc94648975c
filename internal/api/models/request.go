package models

import (
	"encoding/json"

	"market-sim/internal/config"
)

// SimulateRequest represents the request body for running a simulation.
// Either Preset or Scenario must be set; Preset wins when both are.
type SimulateRequest struct {
	Preset    string            `json:"preset,omitempty"`   // file name under the scenario dir, without .yaml
	Scenario  json.RawMessage   `json:"scenario,omitempty"` // inline scenario, same shape as the YAML files
	Overrides ScenarioOverrides `json:"overrides,omitempty"`
	Options   SimulateOptions   `json:"options,omitempty"`
}

// ScenarioOverrides are applied on top of the preset or inline scenario.
// Zero steps and unset fields leave the scenario untouched.
type ScenarioOverrides struct {
	Steps     int                      `json:"steps,omitempty"`
	Seed      *uint64                  `json:"seed,omitempty"`
	Regulator config.RegulatorOverride `json:"regulator,omitempty"`
}

// SimulateOptions contains optional simulation parameters
type SimulateOptions struct {
	IncludeRecords bool `json:"include_records,omitempty"` // default: false
	IncludeFills   bool `json:"include_fills,omitempty"`   // only with include_records
}

// CompareRequest runs one scenario under several regulator settings
type CompareRequest struct {
	Preset     string              `json:"preset,omitempty"`
	Scenario   json.RawMessage     `json:"scenario,omitempty"`
	Overrides  ScenarioOverrides   `json:"overrides,omitempty"`
	Variations []RegulatorVariation `json:"variations" binding:"required,min=1,dive"`
}

// RegulatorVariation defines a variation to test
type RegulatorVariation struct {
	Name      string                   `json:"name" binding:"required"`
	Regulator config.RegulatorOverride `json:"regulator"`
}
