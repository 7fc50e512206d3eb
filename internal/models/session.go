package models

import "time"

// ConnectionState of the serial session.
type ConnectionState string

const (
	Disconnected ConnectionState = "DISCONNECTED"
	Connecting   ConnectionState = "CONNECTING"
	Connected    ConnectionState = "CONNECTED"
	Failed       ConnectionState = "FAILED"
)

// Snapshot is an immutable copy of the session state cell.
type Snapshot struct {
	Connection ConnectionState  `json:"connection"`
	Port       string           `json:"port,omitempty"`
	Sample     *TelemetrySample `json:"sample,omitempty"`
	Params     CurveParameters  `json:"params"`
	Pending    bool             `json:"pending"`
	LastError  string           `json:"last_error,omitempty"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// PanelState is what the control panel renders on every tick.
type PanelState struct {
	Snapshot
	DeltaT    float64 `json:"delta_t"`
	CurveDuty float64 `json:"curve_duty_percent"` // operating point on the curve
	Status    string  `json:"status"`
}
