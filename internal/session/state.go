package session

import (
	"sync"
	"time"

	"dt_fancontrol/internal/models"
)

// State is the cell shared between the serial worker and the panel.
// The worker writes samples and the pending flag; everyone else reads snapshots.
type State struct {
	mu sync.RWMutex

	conn      models.ConnectionState
	port      string
	sample    *models.TelemetrySample
	params    models.CurveParameters
	outgoing  models.CurveParameters
	pending   bool
	seq       uint64
	lastErr   string
	updatedAt time.Time
}

// NewState returns a disconnected cell holding params.
func NewState(params models.CurveParameters) *State {
	return &State{
		conn:      models.Disconnected,
		params:    params,
		updatedAt: time.Now().UTC(),
	}
}

// RecordSample overwrites the latest sample.
func (s *State) RecordSample(sample models.TelemetrySample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sample = &sample
	s.touch()
}

// RequestSend makes p the params in force and queues exactly p for
// transmission. A later SetParams does not alter the queued command.
func (s *State) RequestSend(p models.CurveParameters) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != models.Connected {
		return ErrNotConnected
	}
	s.params = p
	s.outgoing = p
	s.pending = true
	s.seq++
	s.touch()
	return nil
}

// PendingCommand returns the params captured by the latest RequestSend
// and its sequence, or ok=false when nothing is pending.
func (s *State) PendingCommand() (params models.CurveParameters, seq uint64, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.outgoing, s.seq, s.pending
}

// ClearPending drops the send request numbered seq. A newer request
// stays pending.
func (s *State) ClearPending(seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seq != seq {
		return
	}
	s.pending = false
	s.touch()
}

// SetConnection transitions the connection state. Leaving Connected
// drops any pending command. A nil err clears the last error.
func (s *State) SetConnection(state models.ConnectionState, port string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn = state
	s.port = port
	if state != models.Connected {
		s.pending = false
	}
	if err != nil {
		s.lastErr = err.Error()
	} else {
		s.lastErr = ""
	}
	s.touch()
}

// resetSample forgets the sample of a previous connection.
func (s *State) resetSample() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sample = nil
}

// SetParams replaces the params in force.
func (s *State) SetParams(p models.CurveParameters) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = p
	s.touch()
}

func (s *State) Params() models.CurveParameters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.params
}

func (s *State) Pending() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending
}

func (s *State) Connection() models.ConnectionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn
}

// Snapshot returns a copy that is safe to hand to other goroutines.
func (s *State) Snapshot() models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := models.Snapshot{
		Connection: s.conn,
		Port:       s.port,
		Params:     s.params,
		Pending:    s.pending,
		LastError:  s.lastErr,
		UpdatedAt:  s.updatedAt,
	}
	if s.sample != nil {
		sample := *s.sample
		snap.Sample = &sample
	}
	return snap
}

// touch must be called with mu held.
func (s *State) touch() {
	s.updatedAt = time.Now().UTC()
}
