package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"dt_fancontrol/internal/models"
	"dt_fancontrol/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(_ context.Context, username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(_ context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockSession struct {
	connectErr    error
	disconnectErr error
	sendErr       error

	lastPort       string
	lastSend       *models.CurveParameters
	connectCalls   int
	disconnectCall int
	sendCalls      int
}

func (m *mockSession) Connect(_ context.Context, port string) error {
	m.connectCalls++
	m.lastPort = port
	return m.connectErr
}
func (m *mockSession) Disconnect(context.Context) error {
	m.disconnectCall++
	return m.disconnectErr
}
func (m *mockSession) Send(_ context.Context, p *models.CurveParameters) error {
	m.sendCalls++
	m.lastSend = p
	return m.sendErr
}

type mockCurve struct {
	params    models.CurveParameters
	updateErr error
	points    []models.CurvePoint
	pointsErr error
	limits    models.CurveLimits

	lastFrom, lastTo, lastStep float64
	resetCalls                 int
}

func (m *mockCurve) GetParams(context.Context) models.CurveParameters { return m.params }
func (m *mockCurve) UpdateParams(_ context.Context, p models.CurveParameters) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.params = p
	return nil
}
func (m *mockCurve) Reset(context.Context) models.CurveParameters {
	m.resetCalls++
	return m.params
}
func (m *mockCurve) Points(_ context.Context, from, to, step float64) ([]models.CurvePoint, error) {
	m.lastFrom, m.lastTo, m.lastStep = from, to, step
	return m.points, m.pointsErr
}
func (m *mockCurve) Limits(context.Context) models.CurveLimits { return m.limits }
func (m *mockCurve) LoadPersisted(context.Context) (models.CurveParameters, error) {
	return m.params, nil
}

type mockMonitoring struct {
	state models.PanelState
	err   error
}

func (m *mockMonitoring) GetState(context.Context) (models.PanelState, error) {
	return m.state, m.err
}

type mockPorts struct {
	ports []string
	err   error
}

func (m *mockPorts) ListPorts(context.Context) ([]string, error) { return m.ports, m.err }

type mockEventLog struct {
	resp     []models.SessionEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(_ context.Context, f service.LogFilter) ([]models.SessionEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(s, nil)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

func doRequest(r http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vv := range authHeader(token) {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
