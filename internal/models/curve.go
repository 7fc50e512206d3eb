package models

// CurveParameters are the four shape parameters of the fan curve.
// JSON keys match the persisted record of the desktop tool.
type CurveParameters struct {
	Floor   int     `json:"s_min"`    // minimum duty, %
	Ceiling int     `json:"s_max"`    // maximum duty, %
	Slope   float64 `json:"s_slope"`  // steepness, negative
	Attack  float64 `json:"s_attack"` // horizontal shift
}

// IsZero reports whether nothing has been loaded into p.
// A valid curve always has a non-zero ceiling.
func (p CurveParameters) IsZero() bool {
	return p.Ceiling == 0 && p.Floor == 0 && p.Slope == 0 && p.Attack == 0
}

// CurvePoint is one (delta-T, duty) pair of a rendered curve.
type CurvePoint struct {
	DeltaT float64 `json:"delta_t"`
	Duty   float64 `json:"duty"`
}

// CurveLimits are the slider bounds offered to the operator.
type CurveLimits struct {
	FloorMin   int     `json:"s_min_from"`
	FloorMax   int     `json:"s_min_to"`
	CeilingMin int     `json:"s_max_from"`
	CeilingMax int     `json:"s_max_to"`
	SlopeMin   float64 `json:"s_slope_from"`
	SlopeMax   float64 `json:"s_slope_to"`
	AttackMin  float64 `json:"s_attack_from"`
	AttackMax  float64 `json:"s_attack_to"`
	Resolution float64 `json:"resolution"`
}
