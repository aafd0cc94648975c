package demand

import (
	"encoding/json"
	"fmt"
	"os"

	"market-sim/internal/model"
)

// SeriesFile is the JSON shape of a recorded demand sequence.
//
// Example:
//
//	{
//	  "name": "weekday-2024-01-15",
//	  "demand_mw": [812.5, 790.1, ...]
//	}
type SeriesFile struct {
	Name     string    `json:"name"`
	DemandMW []float64 `json:"demand_mw"`
}

// Series replays a fixed demand sequence.
type Series struct {
	Name   string
	values []float64
}

func NewSeries(name string, values []float64) (*Series, error) {
	for i, v := range values {
		if !model.Finite(v) || v < 0 {
			return nil, fmt.Errorf("%w: demand series %q has a negative or non-finite value at step %d", model.ErrInvalidConfiguration, name, i)
		}
	}
	vs := make([]float64, len(values))
	copy(vs, values)
	return &Series{Name: name, values: vs}, nil
}

func LoadSeriesJSON(path string) (*Series, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f SeriesFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: parse demand series %s: %v", model.ErrInvalidConfiguration, path, err)
	}
	name := f.Name
	if name == "" {
		name = path
	}
	return NewSeries(name, f.DemandMW)
}

func (s *Series) Len() int { return len(s.values) }

func (s *Series) At(step int) (float64, error) {
	if step < 0 || step >= len(s.values) {
		return 0, fmt.Errorf("%w: demand series %q has no value for step %d", model.ErrInvalidConfiguration, s.Name, step)
	}
	return s.values[step], nil
}

// ValidateHorizon checks that the series covers a run of the given length.
func (s *Series) ValidateHorizon(steps int) error {
	if len(s.values) < steps {
		return fmt.Errorf("%w: demand series %q has %d values, run needs %d",
			model.ErrInvalidConfiguration, s.Name, len(s.values), steps)
	}
	return nil
}
