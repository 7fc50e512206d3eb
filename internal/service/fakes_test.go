package service

import (
	"context"
	"sync"
	"time"

	"dt_fancontrol/internal/models"
)

// fakeEventRepo records appends and the last List arguments.
type fakeEventRepo struct {
	mu sync.Mutex

	gotFrom time.Time
	gotTo   time.Time
	gotType string

	events    []models.SessionEvent
	appended  []models.SessionEvent
	err       error
	appendErr error

	calls int
}

func (f *fakeEventRepo) List(_ context.Context, from, to time.Time, typ string) ([]models.SessionEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.gotFrom = from
	f.gotTo = to
	f.gotType = typ
	return f.events, f.err
}

func (f *fakeEventRepo) Append(_ context.Context, e models.SessionEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appended = append(f.appended, e)
	return f.appendErr
}

func (f *fakeEventRepo) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.appended))
	for _, e := range f.appended {
		out = append(out, e.Type)
	}
	return out
}

// fakeCurveStore records saves.
type fakeCurveStore struct {
	mu      sync.Mutex
	stored  models.CurveParameters
	saved   []models.CurveParameters
	loadErr error
	saveErr error
	onSave  func()
}

func (f *fakeCurveStore) Save(_ context.Context, p models.CurveParameters) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.onSave != nil {
		f.onSave()
	}
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, p)
	f.stored = p
	return nil
}

func (f *fakeCurveStore) Load(context.Context) (models.CurveParameters, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stored, f.loadErr
}
