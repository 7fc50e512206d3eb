package repository

import (
	"context"
	"testing"

	"dt_fancontrol/internal/models"

	"github.com/spf13/afero"
)

func TestCurveFile_MissingFileIsZero(t *testing.T) {
	repo := NewCurveFileFs(afero.NewMemMapFs(), "/etc/dtfan/curve.json")

	got, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !got.IsZero() {
		t.Fatalf("expected zero params, got %+v", got)
	}
}

func TestCurveFile_SaveThenLoad(t *testing.T) {
	fsys := afero.NewMemMapFs()
	repo := NewCurveFileFs(fsys, "/var/lib/dtfan/curve.json")
	want := models.CurveParameters{Floor: 25, Ceiling: 95, Slope: -0.55, Attack: 4.5}

	if err := repo.Save(context.Background(), want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != want {
		t.Fatalf("Load() = %+v, want %+v", got, want)
	}

	// second save replaces the record
	want.Floor = 30
	if err := repo.Save(context.Background(), want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, _ = repo.Load(context.Background())
	if got.Floor != 30 {
		t.Fatalf("Floor = %d, want 30", got.Floor)
	}
}

func TestCurveFile_ReadsDesktopRecord(t *testing.T) {
	fsys := afero.NewMemMapFs()
	record := `{"s_min": 18, "s_max": 100, "s_slope": -0.4, "s_attack": 6.0}`
	if err := afero.WriteFile(fsys, "curve.json", []byte(record), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := NewCurveFileFs(fsys, "curve.json").Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := models.CurveParameters{Floor: 18, Ceiling: 100, Slope: -0.4, Attack: 6}
	if got != want {
		t.Fatalf("Load() = %+v, want %+v", got, want)
	}
}

func TestCurveFile_CorruptRecord(t *testing.T) {
	fsys := afero.NewMemMapFs()
	_ = afero.WriteFile(fsys, "curve.json", []byte("{not json"), 0o644)

	if _, err := NewCurveFileFs(fsys, "curve.json").Load(context.Background()); err == nil {
		t.Fatal("expected error for corrupt record")
	}
}
