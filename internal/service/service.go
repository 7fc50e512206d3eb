package service

import (
	"context"
	"time"

	"dt_fancontrol/internal/logger"
	"dt_fancontrol/internal/models"
	"dt_fancontrol/internal/repository"
	"dt_fancontrol/internal/session"
)

type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Session drives the serial link to the fan controller.
type Session interface {
	Connect(ctx context.Context, port string) error
	Disconnect(ctx context.Context) error
	// Send transmits p, or the params in force when p is nil.
	Send(ctx context.Context, p *models.CurveParameters) error
}

// Curve edits the params in force and renders the curve.
type Curve interface {
	GetParams(ctx context.Context) models.CurveParameters
	UpdateParams(ctx context.Context, p models.CurveParameters) error
	Reset(ctx context.Context) models.CurveParameters
	Points(ctx context.Context, from, to, step float64) ([]models.CurvePoint, error)
	Limits(ctx context.Context) models.CurveLimits
	LoadPersisted(ctx context.Context) (models.CurveParameters, error)
}

// Monitoring exposes read-only panel state.
type Monitoring interface {
	GetState(ctx context.Context) (models.PanelState, error)
}

// EventLog exposes the session log with filtering.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.SessionEvent, error)
}

type Ports interface {
	ListPorts(ctx context.Context) ([]string, error)
}

type Service struct {
	Session
	Curve
	Monitoring
	EventLog
	Ports
	Authorization
}

// Options configure NewService.
type Options struct {
	ListPorts  func() ([]string, error)
	SimPort    string // advertised in addition to real ports; empty disables
	SigningKey string
	TokenTTL   time.Duration
	Logger     *logger.Logger
}

func NewService(repos *repository.Repository, sess *session.Session, opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		Session:       NewSessionService(sess, repos.CurveStore, repos.EventRepo, log),
		Curve:         NewCurveService(sess.State(), repos.CurveStore, log),
		Monitoring:    NewMonitoringService(sess.State()),
		EventLog:      NewEventLogService(repos.EventRepo),
		Ports:         NewPortsService(opts.ListPorts, opts.SimPort),
		Authorization: NewAuthService(repos.Auth, opts.SigningKey, opts.TokenTTL),
	}
}
