package service

import (
	"context"
	"errors"
	"fmt"

	"dt_fancontrol/internal/curve"
	"dt_fancontrol/internal/logger"
	"dt_fancontrol/internal/models"
	"dt_fancontrol/internal/repository"
	"dt_fancontrol/internal/session"
)

// CurveService edits the params in force. Changes stay in memory until
// they are sent.
type CurveService struct {
	state *session.State
	store repository.CurveStore
	log   *logger.Logger
}

func NewCurveService(state *session.State, store repository.CurveStore, log *logger.Logger) *CurveService {
	return &CurveService{state: state, store: store, log: log}
}

func (s *CurveService) GetParams(_ context.Context) models.CurveParameters {
	return s.state.Params()
}

func (s *CurveService) UpdateParams(_ context.Context, p models.CurveParameters) error {
	if err := curve.Validate(p); err != nil {
		return invalid(err)
	}
	s.state.SetParams(p)
	return nil
}

// Reset puts the built-in defaults in force.
func (s *CurveService) Reset(_ context.Context) models.CurveParameters {
	p := curve.Defaults()
	s.state.SetParams(p)
	return p
}

func (s *CurveService) Points(_ context.Context, from, to, step float64) ([]models.CurvePoint, error) {
	points, err := curve.Sample(from, to, step, s.state.Params())
	if err != nil {
		if errors.Is(err, curve.ErrSampleRange) {
			return nil, invalid(err)
		}
		return nil, err
	}
	return points, nil
}

func (s *CurveService) Limits(_ context.Context) models.CurveLimits {
	return curve.Limits()
}

// LoadPersisted puts the stored curve in force. An empty or unusable
// record falls back to the defaults.
func (s *CurveService) LoadPersisted(ctx context.Context) (models.CurveParameters, error) {
	p, err := s.store.Load(ctx)
	if err != nil {
		return s.state.Params(), fmt.Errorf("load persisted curve: %w", err)
	}
	switch {
	case p.IsZero():
		p = curve.Defaults()
	case curve.Validate(p) != nil:
		s.log.Warnw("stored_curve_invalid", "params", p, "err", curve.Validate(p))
		p = curve.Defaults()
	}
	s.state.SetParams(p)
	return p, nil
}
