package device

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/junghome-bridge/internal/infrastructure/database"
)

// Repository defines persistence operations for devices.
//
// The registry treats the repository as a warm-start convenience, not a
// source of truth: implementations should be durable but failures are
// tolerated at runtime.
type Repository interface {
	// Save inserts or replaces a device record.
	Save(ctx context.Context, d *Device) error

	// Delete removes a device record.
	// Returns ErrDeviceNotFound if no record exists.
	Delete(ctx context.Context, id string) error

	// GetByID retrieves a single device.
	// Returns ErrDeviceNotFound if no record exists.
	GetByID(ctx context.Context, id string) (*Device, error)

	// List retrieves all persisted devices.
	List(ctx context.Context) ([]Device, error)
}

// SQLiteRepository implements Repository using SQLite.
// The state map is stored as a JSON column.
type SQLiteRepository struct {
	db *database.DB
}

// NewSQLiteRepository creates a repository backed by the given database.
func NewSQLiteRepository(db *database.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Save inserts or replaces a device record.
func (r *SQLiteRepository) Save(ctx context.Context, d *Device) error {
	stateJSON, err := json.Marshal(d.State)
	if err != nil {
		return fmt.Errorf("marshalling state for %s: %w", d.ID, err)
	}

	available := 0
	if d.Available {
		available = 1
	}

	// created_at is written once on insert and kept on conflict
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO devices (id, type, label, state, available, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type,
			label = excluded.label,
			state = excluded.state,
			available = excluded.available,
			updated_at = excluded.updated_at
	`,
		d.ID,
		string(d.Type),
		d.Label,
		string(stateJSON),
		available,
		d.CreatedAt.UTC().Format(time.RFC3339Nano),
		d.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("saving device %s: %w", d.ID, err)
	}
	return nil
}

// Delete removes a device record.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM devices WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting device %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// GetByID retrieves a single device.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Device, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, type, label, state, available, created_at, updated_at
		FROM devices WHERE id = ?
	`, id)

	d, err := scanDevice(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDeviceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting device %s: %w", id, err)
	}
	return d, nil
}

// List retrieves all persisted devices ordered by id.
func (r *SQLiteRepository) List(ctx context.Context) ([]Device, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, label, state, available, created_at, updated_at
		FROM devices ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		d, err := scanDevice(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning device row: %w", err)
		}
		devices = append(devices, *d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating devices: %w", err)
	}
	return devices, nil
}

// scanDevice reads one device from a row scan function.
func scanDevice(scan func(dest ...any) error) (*Device, error) {
	var (
		d         Device
		typ       string
		stateJSON string
		available int
		createdAt string
		updatedAt string
	)

	if err := scan(&d.ID, &typ, &d.Label, &stateJSON, &available, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	d.Type = DeviceType(typ)
	d.Available = available != 0

	if err := json.Unmarshal([]byte(stateJSON), &d.State); err != nil {
		return nil, fmt.Errorf("unmarshalling state: %w", err)
	}
	if d.State == nil {
		d.State = make(State)
	}

	created, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	d.CreatedAt = created

	updated, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	d.UpdatedAt = updated

	return &d, nil
}
