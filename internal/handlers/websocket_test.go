package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"dt_fancontrol/internal/models"
	"dt_fancontrol/internal/service"

	"github.com/gorilla/websocket"
)

func TestPanelTick(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"", time.Second},
		{"200ms", 200 * time.Millisecond},
		{"150", 150 * time.Millisecond},
		{"2s", 2 * time.Second},
		{"20s", time.Second},
		{"20000", time.Second},
		{"10ms", time.Second},
		{"0", time.Second},
		{"-5ms", time.Second},
		{"bogus", time.Second},
	}
	for _, tc := range cases {
		if got := panelTick(tc.in); got != tc.want {
			t.Errorf("panelTick(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

// liveMonitoring is safe to change while a stream polls it.
type liveMonitoring struct {
	mu    sync.Mutex
	state models.PanelState
	err   error
	calls int
}

func (m *liveMonitoring) GetState(context.Context) (models.PanelState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.state, m.err
}

func (m *liveMonitoring) set(fn func(st *models.PanelState)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&m.state)
}

func (m *liveMonitoring) polls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type envelope struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func dialPanel(t *testing.T, mon service.Monitoring, query string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(newTestRouter(&service.Service{Monitoring: mon}))
	t.Cleanup(srv.Close)

	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	u.Path = "/ws"
	u.RawQuery = query

	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn, wait time.Duration) envelope {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(wait))
	var env envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read: %v", err)
	}
	return env
}

func TestWebSocket_PushesInitialStateThenChanges(t *testing.T) {
	t0 := time.Date(2025, 8, 27, 10, 0, 0, 0, time.UTC)
	mon := &liveMonitoring{state: models.PanelState{
		Snapshot: models.Snapshot{
			Connection: models.Connected,
			Port:       "sim",
			Sample:     &models.TelemetrySample{WaterTemp: 31.5, AmbientTemp: 22, FanDuty: 47},
			UpdatedAt:  t0,
		},
		DeltaT:    9.5,
		CurveDuty: 46.8,
	}}
	conn := dialPanel(t, mon, "interval=60ms")

	env := readEnvelope(t, conn, time.Second)
	if env.Type != msgState {
		t.Fatalf("bad envelope: %+v", env)
	}
	var st models.PanelState
	if err := json.Unmarshal(env.Data, &st); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}
	if st.Connection != models.Connected || st.Sample == nil || st.Sample.WaterTemp != 31.5 || st.DeltaT != 9.5 {
		t.Fatalf("unexpected state: %+v", st)
	}

	// unchanged state: several polls, nothing pushed
	deadline := time.Now().Add(2 * time.Second)
	for mon.polls() < 4 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	_ = conn.SetReadDeadline(time.Now().Add(30 * time.Millisecond))
	var raw json.RawMessage
	if err := conn.ReadJSON(&raw); err == nil {
		t.Fatalf("unchanged state was pushed again: %s", raw)
	}
	// a timed out read poisons the connection; start over for the change
	conn = dialPanel(t, mon, "interval=60ms")
	_ = readEnvelope(t, conn, time.Second)

	mon.set(func(st *models.PanelState) {
		st.Sample = &models.TelemetrySample{WaterTemp: 32, AmbientTemp: 22, FanDuty: 47}
		st.UpdatedAt = t0.Add(time.Second)
	})
	env = readEnvelope(t, conn, time.Second)
	if err := json.Unmarshal(env.Data, &st); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}
	if env.Type != msgState || st.Sample.WaterTemp != 32 {
		t.Fatalf("expected updated state, got %+v", st)
	}
}

func TestWebSocket_StateErrorIsReportedThenClosed(t *testing.T) {
	conn := dialPanel(t, &liveMonitoring{err: errors.New("boom")}, "")

	env := readEnvelope(t, conn, time.Second)
	if env.Type != msgError || !strings.Contains(env.Error, "state") {
		t.Fatalf("expected error envelope, got %+v", env)
	}

	_ = conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
	var raw json.RawMessage
	if err := conn.ReadJSON(&raw); err == nil {
		t.Fatalf("expected closed stream, got message: %s", string(raw))
	}
}
