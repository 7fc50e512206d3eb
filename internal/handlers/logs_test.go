package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"dt_fancontrol/internal/models"
	"dt_fancontrol/internal/service"
)

func TestLogsHandler_ListAndValidation(t *testing.T) {
	auth := &mockAuth{parseID: 99}
	now := time.Now().UTC().Truncate(time.Second)
	events := []models.SessionEvent{
		{EventID: "e1", OccurredAt: now, Type: models.EventConnect, Description: "connected to COM3"},
		{EventID: "e2", OccurredAt: now.Add(time.Second), Type: models.EventSend, Description: "x18 100 -40 600"},
	}
	logs := &mockEventLog{resp: events}
	r := newTestRouter(&service.Service{Authorization: auth, EventLog: logs})

	w := doRequest(r, http.MethodGet, "/api/v1/logs?from=notatime", "", "valid")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 invalid 'from', got %d", w.Code)
	}

	q := "/api/v1/logs?from=" + now.Format(time.RFC3339) + "&to=" + now.Add(2*time.Second).Format(time.RFC3339) + "&type=send"
	w = doRequest(r, http.MethodGet, q, "", "valid")
	if w.Code != http.StatusOK {
		t.Fatalf("logs status=%d, body=%s", w.Code, w.Body.String())
	}
	var out struct {
		Count  int                   `json:"count"`
		Events []models.SessionEvent `json:"events"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.Count != 2 || len(out.Events) != 2 {
		t.Fatalf("unexpected response: %+v", out)
	}
	if logs.lastType != models.EventSend {
		t.Fatalf("expected lastType SEND, got %q", logs.lastType)
	}
	if !logs.lastFrom.Equal(now) {
		t.Fatalf("from = %v, want %v", logs.lastFrom, now)
	}
}

func TestLogsHandler_DateOnlyToCoversDay(t *testing.T) {
	logs := &mockEventLog{}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{}, EventLog: logs})

	w := doRequest(r, http.MethodGet, "/api/v1/logs?to=2025-08-31", "", "valid")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	want := time.Date(2025, 8, 31, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
	if !logs.lastTo.Equal(want) {
		t.Fatalf("to = %v, want %v", logs.lastTo, want)
	}
}

func TestLogsHandler_ServiceErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"validation", &service.ValidationError{Err: errors.New("invalid time range")}, http.StatusBadRequest},
		{"repository", errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(&service.Service{Authorization: &mockAuth{}, EventLog: &mockEventLog{err: tc.err}})
			if w := doRequest(r, http.MethodGet, "/api/v1/logs", "", "valid"); w.Code != tc.code {
				t.Fatalf("status=%d, want %d", w.Code, tc.code)
			}
		})
	}
}

func TestLogsQuery_Filter(t *testing.T) {
	cases := []struct {
		name     string
		q        logsQuery
		wantFrom time.Time
		wantTo   time.Time
		wantType string
		wantErr  bool
	}{
		{name: "empty", q: logsQuery{}},
		{
			name:     "datetime and lowercase type",
			q:        logsQuery{From: "2025-08-01 08:30:00", Type: " parse_error "},
			wantFrom: time.Date(2025, 8, 1, 8, 30, 0, 0, time.UTC),
			wantType: models.EventParseError,
		},
		{
			name:   "rfc3339 to is exact",
			q:      logsQuery{To: "2025-08-31T12:00:00+02:00"},
			wantTo: time.Date(2025, 8, 31, 10, 0, 0, 0, time.UTC),
		},
		{name: "bad to", q: logsQuery{To: "31/08/2025"}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := tc.q.filter()
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", f)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !f.From.Equal(tc.wantFrom) || !f.To.Equal(tc.wantTo) || f.Type != tc.wantType {
				t.Fatalf("filter = %+v", f)
			}
		})
	}
}
