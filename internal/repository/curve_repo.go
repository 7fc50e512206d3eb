package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dt_fancontrol/internal/models"
)

type CurveSQLite struct {
	db *sql.DB
}

func NewCurveSQLite(db *sql.DB) *CurveSQLite {
	return &CurveSQLite{db: db}
}

var _ CurveStore = (*CurveSQLite)(nil)

const (
	curveParamsRowID = 1

	upsertCurveSQL = `
		INSERT INTO curve_params (id, s_min, s_max, s_slope, s_attack, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			s_min=excluded.s_min,
			s_max=excluded.s_max,
			s_slope=excluded.s_slope,
			s_attack=excluded.s_attack,
			updated_at=excluded.updated_at
	`

	selectCurveSQL = `SELECT s_min, s_max, s_slope, s_attack FROM curve_params WHERE id=?`
)

// Save overwrites the single curve_params row.
func (r *CurveSQLite) Save(ctx context.Context, p models.CurveParameters) error {
	_, err := r.db.ExecContext(ctx, upsertCurveSQL,
		curveParamsRowID,
		p.Floor,
		p.Ceiling,
		p.Slope,
		p.Attack,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save curve params: %w", err)
	}
	return nil
}

// Load fetches the stored curve, or the zero value if none was saved.
func (r *CurveSQLite) Load(ctx context.Context) (models.CurveParameters, error) {
	var p models.CurveParameters
	err := r.db.QueryRowContext(ctx, selectCurveSQL, curveParamsRowID).
		Scan(&p.Floor, &p.Ceiling, &p.Slope, &p.Attack)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.CurveParameters{}, nil
		}
		return models.CurveParameters{}, fmt.Errorf("load curve params: %w", err)
	}
	return p, nil
}
