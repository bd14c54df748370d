package device

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/junghome-bridge/internal/infrastructure/database"
	_ "github.com/nerrad567/junghome-bridge/migrations"
)

// newTestRepository opens a migrated temporary database.
func newTestRepository(t *testing.T) *SQLiteRepository {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "devices.db"),
		BusyTimeout: 1,
	})
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrating: %v", err)
	}

	return NewSQLiteRepository(db)
}

func TestSQLiteRepository_SaveRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	created := time.Date(2026, 1, 20, 10, 0, 0, 0, time.UTC)
	d := testDevice("d1", 70, created)
	d.Available = true
	d.CreatedAt = created
	d.UpdatedAt = created.Add(time.Minute)

	if err := repo.Save(ctx, &d); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := repo.GetByID(ctx, "d1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Label != "Lamp d1" || got.Type != TypeDimmableLight || !got.Available {
		t.Errorf("device = %+v", got)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created)
	}
	if !got.UpdatedAt.Equal(created.Add(time.Minute)) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, created.Add(time.Minute))
	}
	if !valuesEqual(got.State[CapBrightness].Value, 70) {
		t.Errorf("brightness = %v, want 70", got.State[CapBrightness].Value)
	}
}

func TestSQLiteRepository_UpdateKeepsCreatedAt(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	created := time.Date(2026, 1, 20, 10, 0, 0, 0, time.UTC)
	d := testDevice("d1", 70, created)
	d.CreatedAt = created
	d.UpdatedAt = created

	if err := repo.Save(ctx, &d); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// A later save must refresh everything except the creation timestamp
	d.Label = "Renamed"
	d.CreatedAt = created.Add(time.Hour)
	d.UpdatedAt = created.Add(time.Hour)
	if err := repo.Save(ctx, &d); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}

	got, err := repo.GetByID(ctx, "d1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Label != "Renamed" {
		t.Errorf("Label = %q, want Renamed", got.Label)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want original %v", got.CreatedAt, created)
	}
	if !got.UpdatedAt.Equal(created.Add(time.Hour)) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, created.Add(time.Hour))
	}
}

func TestSQLiteRepository_List(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	now := time.Now().UTC()
	for _, id := range []string{"b2", "a1"} {
		d := testDevice(id, 50, now)
		d.CreatedAt = now
		d.UpdatedAt = now
		if err := repo.Save(ctx, &d); err != nil {
			t.Fatalf("Save(%s) error = %v", id, err)
		}
	}

	devices, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(devices) != 2 || devices[0].ID != "a1" || devices[1].ID != "b2" {
		t.Errorf("List() = %+v, want [a1 b2]", devices)
	}
}

func TestSQLiteRepository_Delete(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	now := time.Now().UTC()
	d := testDevice("d1", 50, now)
	d.CreatedAt = now
	d.UpdatedAt = now
	if err := repo.Save(ctx, &d); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if err := repo.Delete(ctx, "d1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.GetByID(ctx, "d1"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("GetByID() error = %v, want ErrDeviceNotFound", err)
	}
	if err := repo.Delete(ctx, "d1"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("second Delete() error = %v, want ErrDeviceNotFound", err)
	}
}
