package demand

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"market-sim/internal/model"
)

// Kind names a demand distribution family.
type Kind string

const (
	KindSinusoidal Kind = "sinusoidal"
	KindConstant   Kind = "constant"
	KindRandom     Kind = "random"
	// KindSeries replays a recorded sequence; see Series.
	KindSeries Kind = "series"
)

// PhaseShift offsets the sinusoid so the daily trough lands early in a
// 48-step cycle.
const PhaseShift = -0.9 * math.Pi

// Params parameterises the generated kinds. Fields not used by a kind are
// ignored.
type Params struct {
	Mean      float64 `yaml:"mean" json:"mean"`
	Amplitude float64 `yaml:"amplitude" json:"amplitude"`
	Frequency float64 `yaml:"frequency" json:"frequency"`
	NoiseStd  float64 `yaml:"noise_std" json:"noise_std"`
}

func DefaultParams() Params {
	return Params{
		Mean:      1000,
		Amplitude: 400,
		Frequency: 1.0 / 48,
		NoiseStd:  20,
	}
}

// Source yields the demand for a step. Values are always >= 0.
type Source interface {
	At(step int) (float64, error)
}

// Draw returns the demand for a step. src may be nil, in which case the
// global generator is used for the noisy kinds.
func Draw(step int, kind Kind, p Params, src rand.Source) (float64, error) {
	var d float64
	switch kind {
	case KindSinusoidal:
		d = p.Mean + p.Amplitude*math.Sin(2*math.Pi*p.Frequency*float64(step)+PhaseShift)
		d += distuv.Normal{Mu: 0, Sigma: p.NoiseStd, Src: src}.Rand()
	case KindConstant:
		d = p.Mean
	case KindRandom:
		d = distuv.Normal{Mu: p.Mean, Sigma: p.Amplitude, Src: src}.Rand()
	default:
		return 0, fmt.Errorf("%w: unsupported demand kind %q", model.ErrInvalidConfiguration, kind)
	}
	return math.Max(d, 0), nil
}

// ValidateParams checks that kind is a generated kind and p fits it.
func ValidateParams(kind Kind, p Params) error {
	for _, v := range []float64{p.Mean, p.Amplitude, p.Frequency, p.NoiseStd} {
		if !model.Finite(v) {
			return fmt.Errorf("%w: demand parameters must be finite", model.ErrInvalidConfiguration)
		}
	}
	switch kind {
	case KindSinusoidal:
		if p.NoiseStd < 0 {
			return fmt.Errorf("%w: noise_std must be >= 0", model.ErrInvalidConfiguration)
		}
	case KindConstant:
	case KindRandom:
		if p.Amplitude < 0 {
			return fmt.Errorf("%w: amplitude is the standard deviation for random demand and must be >= 0", model.ErrInvalidConfiguration)
		}
	default:
		return fmt.Errorf("%w: unsupported demand kind %q", model.ErrInvalidConfiguration, kind)
	}
	return nil
}

// Generator is a seeded Source over one of the generated kinds. Noise is
// drawn in call order, so a run that asks for steps 0..n-1 in sequence is
// reproducible for a given seed.
type Generator struct {
	kind   Kind
	params Params
	src    rand.Source
}

func NewGenerator(kind Kind, params Params, seed uint64) (*Generator, error) {
	if err := ValidateParams(kind, params); err != nil {
		return nil, err
	}
	return &Generator{
		kind:   kind,
		params: params,
		src:    rand.NewPCG(seed, seed^0x9e3779b97f4a7c15),
	}, nil
}

func (g *Generator) At(step int) (float64, error) {
	return Draw(step, g.kind, g.params, g.src)
}
