// Package curve evaluates the sigmoid fan curve that maps delta-T to fan duty.
package curve

import (
	"errors"
	"fmt"
	"math"

	"dt_fancontrol/internal/models"
)

// Built-in defaults used until a persisted record is loaded.
const (
	DefaultFloor   = 18
	DefaultCeiling = 100
	DefaultSlope   = -0.40
	DefaultAttack  = 6.0
)

// Slider bounds of the panel; Validate accepts the wider physical range.
const (
	floorFrom   = 0
	floorTo     = 20
	ceilingFrom = 50
	ceilingTo   = 100
	slopeFrom   = -1.0
	slopeTo     = -0.2
	attackFrom  = 3.0
	attackTo    = 7.0
	resolution  = 0.01

	maxPoints = 10_000
)

var (
	ErrFloorRange   = errors.New("s_min must be within 0..100")
	ErrCeilingRange = errors.New("s_max must be within 1..100")
	ErrCeilingFloor = errors.New("s_max must exceed s_min")
	ErrSlope        = errors.New("s_slope must be a finite negative number")
	ErrAttack       = errors.New("s_attack must be a finite number")
	ErrSampleRange  = errors.New("invalid sample range")
)

// Defaults returns the built-in curve.
func Defaults() models.CurveParameters {
	return models.CurveParameters{
		Floor:   DefaultFloor,
		Ceiling: DefaultCeiling,
		Slope:   DefaultSlope,
		Attack:  DefaultAttack,
	}
}

// Limits returns the slider bounds offered to the operator.
func Limits() models.CurveLimits {
	return models.CurveLimits{
		FloorMin:   floorFrom,
		FloorMax:   floorTo,
		CeilingMin: ceilingFrom,
		CeilingMax: ceilingTo,
		SlopeMin:   slopeFrom,
		SlopeMax:   slopeTo,
		AttackMin:  attackFrom,
		AttackMax:  attackTo,
		Resolution: resolution,
	}
}

// Validate checks that p describes an evaluable curve.
func Validate(p models.CurveParameters) error {
	switch {
	case p.Floor < 0 || p.Floor > 100:
		return ErrFloorRange
	case p.Ceiling <= 0 || p.Ceiling > 100:
		return ErrCeilingRange
	case p.Ceiling <= p.Floor:
		return ErrCeilingFloor
	case !(p.Slope < 0) || math.IsInf(p.Slope, 0):
		return ErrSlope
	case math.IsNaN(p.Attack) || math.IsInf(p.Attack, 0):
		return ErrAttack
	}
	return nil
}

// Evaluate returns the fan duty in percent for the given delta-T.
// p.Ceiling must be non-zero.
func Evaluate(deltaT float64, p models.CurveParameters) float64 {
	ceiling := float64(p.Ceiling)
	ratio := float64(p.Floor) / ceiling
	return ceiling * ((1-ratio)/(1+math.Exp(p.Slope*deltaT+p.Attack)) + ratio)
}

// EvaluateRange maps Evaluate over deltaTs.
func EvaluateRange(deltaTs []float64, p models.CurveParameters) []float64 {
	out := make([]float64, len(deltaTs))
	for i, dt := range deltaTs {
		out[i] = Evaluate(dt, p)
	}
	return out
}

// Sample renders the curve over [from, to) with the given step.
func Sample(from, to, step float64, p models.CurveParameters) ([]models.CurvePoint, error) {
	if !(step > 0) || !(to > from) || math.IsInf(from, 0) || math.IsInf(to, 0) {
		return nil, ErrSampleRange
	}
	// bound the ratio before converting; huge ratios overflow int
	r := math.Ceil((to - from) / step)
	if !(r <= maxPoints) {
		return nil, fmt.Errorf("%w: %g points exceeds %d", ErrSampleRange, r, maxPoints)
	}
	n := int(r)

	points := make([]models.CurvePoint, 0, n)
	for i := 0; i < n; i++ {
		dt := from + float64(i)*step
		if dt >= to {
			break
		}
		points = append(points, models.CurvePoint{DeltaT: dt, Duty: Evaluate(dt, p)})
	}
	return points, nil
}
