package models

import "time"

// TelemetrySample is the latest line reported by the controller.
type TelemetrySample struct {
	WaterTemp   float64   `json:"water_temp_c"`
	AmbientTemp float64   `json:"ambient_temp_c"`
	Reserved    string    `json:"-"` // third field, not interpreted
	FanDuty     float64   `json:"fan_duty_percent"`
	ReceivedAt  time.Time `json:"received_at"`
}

// DeltaT is the coolant temperature above ambient.
func (s TelemetrySample) DeltaT() float64 {
	return s.WaterTemp - s.AmbientTemp
}
