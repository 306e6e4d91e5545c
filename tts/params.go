package tts

import (
	"fmt"
	"math"
)

// Playback parameter bounds.
const (
	MinParam     = 0.5
	MaxParam     = 2.0
	DefaultParam = 1.0
	ParamStep    = 0.1
)

// Params holds the pitch and rate used for an utterance.
type Params struct {
	Pitch float64
	Rate  float64
}

// DefaultParams returns neutral pitch and rate.
func DefaultParams() Params {
	return Params{Pitch: DefaultParam, Rate: DefaultParam}
}

// Validate checks that pitch and rate are within bounds.
func (p Params) Validate() error {
	if err := validateParam("pitch", p.Pitch); err != nil {
		return err
	}
	return validateParam("rate", p.Rate)
}

func validateParam(name string, v float64) error {
	if math.IsNaN(v) || v < MinParam || v > MaxParam {
		return fmt.Errorf("%w: %s %.2f out of range [%.1f, %.1f]", ErrInvalidParams, name, v, MinParam, MaxParam)
	}
	return nil
}

// Step moves v by delta steps of ParamStep, clamped to the valid range and
// rounded to one decimal so repeated steps do not accumulate float error.
func Step(v float64, delta int) float64 {
	return Clamp(v + float64(delta)*ParamStep)
}

// Clamp limits v to [MinParam, MaxParam] and rounds it to one decimal.
func Clamp(v float64) float64 {
	v = math.Round(v*10) / 10
	switch {
	case v < MinParam:
		return MinParam
	case v > MaxParam:
		return MaxParam
	}
	return v
}

// FormatParam formats a parameter the way the status bar shows it.
func FormatParam(v float64) string {
	return fmt.Sprintf("%.1fx", v)
}
