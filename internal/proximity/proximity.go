// Package proximity maps distances between positions in the shared room
// plane to a perceptual gain used for remote audio and video volume.
package proximity

import (
	"errors"
	"math"
)

const (
	// DefaultNear is the distance below which a source plays at full gain.
	DefaultNear = 50.0
	// DefaultFar is the distance at and beyond which a source is silent.
	DefaultFar = 350.0
)

// ErrInvalidThresholds is returned by Model.Validate when Far does not exceed Near.
var ErrInvalidThresholds = errors.New("proximity: far threshold must be greater than near threshold")

// Position is a point in the room plane.
type Position struct {
	X float64
	Y float64
}

// Distance returns the Euclidean distance between a and b.
// It is symmetric: Distance(a, b) == Distance(b, a).
func Distance(a, b Position) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Model holds the falloff thresholds.
type Model struct {
	Near float64
	Far  float64
}

// Default returns the model with the 50/350 thresholds.
func Default() Model {
	return Model{Near: DefaultNear, Far: DefaultFar}
}

// Validate reports whether the thresholds describe a usable falloff band.
func (m Model) Validate() error {
	if m.Near < 0 || m.Far <= m.Near {
		return ErrInvalidThresholds
	}
	return nil
}

// Gain returns the volume multiplier in [0, 1] for a source at distance d.
//
// Inside Near the gain is 1, beyond Far it is 0, and in between it falls off
// quadratically: (1 - (d-Near)/(Far-Near))^2.
func (m Model) Gain(d float64) float64 {
	switch {
	case math.IsNaN(d):
		return 0
	case d < m.Near:
		return 1
	case d < m.Far:
		r := 1 - (d-m.Near)/(m.Far-m.Near)
		return r * r
	default:
		return 0
	}
}

// GainBetween is shorthand for m.Gain(Distance(a, b)).
func (m Model) GainBetween(a, b Position) float64 {
	return m.Gain(Distance(a, b))
}

// Gain evaluates the default model.
func Gain(d float64) float64 {
	return Default().Gain(d)
}
