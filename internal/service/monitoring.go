package service

import (
	"context"
	"fmt"
	"strconv"

	"dt_fancontrol/internal/curve"
	"dt_fancontrol/internal/models"
	"dt_fancontrol/internal/session"
)

type MonitoringService struct {
	state *session.State
}

func NewMonitoringService(state *session.State) *MonitoringService {
	return &MonitoringService{state: state}
}

// GetState returns the current snapshot with the derived panel values.
func (s *MonitoringService) GetState(_ context.Context) (models.PanelState, error) {
	snap := s.state.Snapshot()
	ps := models.PanelState{Snapshot: snap}
	if snap.Sample != nil {
		ps.DeltaT = snap.Sample.DeltaT()
		if snap.Params.Ceiling > 0 {
			ps.CurveDuty = curve.Evaluate(ps.DeltaT, snap.Params)
		}
	}
	ps.Status = statusLine(snap)
	return ps, nil
}

// statusLine renders the one-line status bar.
func statusLine(snap models.Snapshot) string {
	switch snap.Connection {
	case models.Connecting:
		return "Connecting to " + snap.Port
	case models.Failed:
		return fmt.Sprintf("Connection to %s failed: %s", snap.Port, snap.LastError)
	case models.Connected:
		if snap.Sample == nil {
			return "Waiting for telemetry on " + snap.Port
		}
		smp := snap.Sample
		return fmt.Sprintf("Ambient: %s°C - H2O: %s°C - dT: %.2f°C - PWM: %s%%",
			num(smp.AmbientTemp), num(smp.WaterTemp), smp.DeltaT(), num(smp.FanDuty))
	default:
		return "Not connected"
	}
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
