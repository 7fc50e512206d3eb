package repository

import (
	"context"
	"database/sql"
	"time"

	"dt_fancontrol/internal/models"
)

type Authorization interface {
	Create(ctx context.Context, username, hash string) (int, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// CurveStore persists the last curve sent to the controller. Load returns
// the zero value when nothing has been stored yet.
type CurveStore interface {
	Save(ctx context.Context, p models.CurveParameters) error
	Load(ctx context.Context) (models.CurveParameters, error)
}

type EventRepo interface {
	Append(ctx context.Context, e models.SessionEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.SessionEvent, error)
}

// Curve store backends.
const (
	CurveStoreSQLite = "sqlite"
	CurveStoreFile   = "file"
)

type Repository struct {
	CurveStore CurveStore
	EventRepo  EventRepo
	Auth       Authorization
}

// NewRepository keeps everything in db unless curveStore is given.
func NewRepository(db *sql.DB, curveStore CurveStore) *Repository {
	if curveStore == nil {
		curveStore = NewCurveSQLite(db)
	}
	return &Repository{
		CurveStore: curveStore,
		EventRepo:  NewEventSQLite(db),
		Auth:       NewUserRepository(db),
	}
}
