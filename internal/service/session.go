package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dt_fancontrol/internal/curve"
	"dt_fancontrol/internal/logger"
	"dt_fancontrol/internal/models"
	"dt_fancontrol/internal/protocol"
	"dt_fancontrol/internal/repository"
	"dt_fancontrol/internal/session"
)

var ErrEmptyPort = errors.New("port is required")

// eventTimeout bounds event writes made from the serial worker.
const eventTimeout = 2 * time.Second

type SessionService struct {
	sess   *session.Session
	curves repository.CurveStore
	events repository.EventRepo
	log    *logger.Logger
}

// NewSessionService also subscribes to worker exits and skipped lines so
// they land in the event log.
func NewSessionService(sess *session.Session, curves repository.CurveStore, events repository.EventRepo, log *logger.Logger) *SessionService {
	s := &SessionService{sess: sess, curves: curves, events: events, log: log}
	sess.OnExit(s.workerExited)
	sess.OnMalformed(s.lineSkipped)
	return s
}

func (s *SessionService) Connect(ctx context.Context, port string) error {
	port = strings.TrimSpace(port)
	if port == "" {
		return invalid(ErrEmptyPort)
	}

	if err := s.sess.Connect(ctx, port); err != nil {
		var perr *session.PortOpenError
		if errors.As(err, &perr) {
			s.appendEvent(ctx, models.EventFailure, fmt.Sprintf("open %s failed: %v", port, perr.Err), map[string]any{
				"port": port,
				"kind": perr.Kind,
			})
		}
		return err
	}

	s.appendEvent(ctx, models.EventConnect, "connected to "+port, map[string]any{"port": port})
	return nil
}

func (s *SessionService) Disconnect(ctx context.Context) error {
	port := s.sess.State().Snapshot().Port
	if err := s.sess.Disconnect(ctx); err != nil {
		return err
	}
	s.appendEvent(ctx, models.EventDisconnect, "disconnected from "+port, map[string]any{"port": port})
	return nil
}

// Send validates the params, persists them and only then asks the worker
// to transmit.
func (s *SessionService) Send(ctx context.Context, p *models.CurveParameters) error {
	state := s.sess.State()
	params := state.Params()
	if p != nil {
		params = *p
	}
	if err := curve.Validate(params); err != nil {
		return invalid(err)
	}
	if state.Connection() != models.Connected {
		return session.ErrNotConnected
	}

	if err := s.curves.Save(ctx, params); err != nil {
		return fmt.Errorf("persist curve before send: %w", err)
	}
	if err := s.sess.Send(params); err != nil {
		return err
	}

	s.appendEvent(ctx, models.EventSend, protocol.TrimTerminator(protocol.EncodeCommand(params)), params)
	return nil
}

func (s *SessionService) workerExited(port string, err error) {
	if err == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()
	s.appendEvent(ctx, models.EventFailure, err.Error(), map[string]any{"port": port})
}

func (s *SessionService) lineSkipped(perr *session.ParseError) {
	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()
	s.appendEvent(ctx, models.EventParseError, perr.Err.Error(), map[string]any{"line": perr.Line})
}

// appendEvent never fails the operation that produced the event.
func (s *SessionService) appendEvent(ctx context.Context, typ, description string, meta any) {
	err := s.events.Append(ctx, models.SessionEvent{
		OccurredAt:  time.Now().UTC(),
		Type:        typ,
		Description: description,
		Metadata:    meta,
	})
	if err != nil {
		s.log.Warnw("event_append_failed", "type", typ, "err", err)
	}
}
