package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"

	"dt_fancontrol/internal/models"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

const (
	keyFloor   = "s_min"
	keyCeiling = "s_max"
	keySlope   = "s_slope"
	keyAttack  = "s_attack"
)

// CurveFile keeps the curve in a flat JSON record on disk, the format the
// desktop tool writes next to itself.
type CurveFile struct {
	mu   sync.Mutex
	path string
	fs   afero.Fs
}

var _ CurveStore = (*CurveFile)(nil)

func NewCurveFile(path string) *CurveFile {
	return NewCurveFileFs(afero.NewOsFs(), path)
}

// NewCurveFileFs stores the record on fsys.
func NewCurveFileFs(fsys afero.Fs, path string) *CurveFile {
	return &CurveFile{path: path, fs: fsys}
}

func (r *CurveFile) newViper() *viper.Viper {
	v := viper.New()
	v.SetFs(r.fs)
	v.SetConfigFile(r.path)
	v.SetConfigType("json")
	return v
}

// Load reads the record. A missing file yields the zero value.
func (r *CurveFile) Load(_ context.Context) (models.CurveParameters, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v := r.newViper()
	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.CurveParameters{}, nil
		}
		return models.CurveParameters{}, fmt.Errorf("read curve file %q: %w", r.path, err)
	}
	return models.CurveParameters{
		Floor:   v.GetInt(keyFloor),
		Ceiling: v.GetInt(keyCeiling),
		Slope:   v.GetFloat64(keySlope),
		Attack:  v.GetFloat64(keyAttack),
	}, nil
}

// Save rewrites the whole record.
func (r *CurveFile) Save(_ context.Context, p models.CurveParameters) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.fs.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create curve file dir: %w", err)
	}
	v := r.newViper()
	v.Set(keyFloor, p.Floor)
	v.Set(keyCeiling, p.Ceiling)
	v.Set(keySlope, p.Slope)
	v.Set(keyAttack, p.Attack)
	if err := v.WriteConfigAs(r.path); err != nil {
		return fmt.Errorf("write curve file %q: %w", r.path, err)
	}
	return nil
}
