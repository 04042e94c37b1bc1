package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prperemyshlev/storefront-auth/internal/domain"
)

const deviceColumns = `id, user_id, ip, user_agent, allow, created_at, updated_at`

// deviceRepository implements DeviceRepository interface
type deviceRepository struct {
	db DBTX
}

// NewDeviceRepository creates a new device repository
func NewDeviceRepository(db DBTX) DeviceRepository {
	return &deviceRepository{db: db}
}

// GetByID retrieves a device by ID
func (r *deviceRepository) GetByID(ctx context.Context, id string) (*domain.Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE id = $1`

	device, err := scanDevice(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("device with id %s not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get device by id: %w", err)
	}

	return device, nil
}

// GetByUserAndIP retrieves the device record of a user at a source address
func (r *deviceRepository) GetByUserAndIP(ctx context.Context, userID, ip string) (*domain.Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE user_id = $1 AND ip = $2`

	device, err := scanDevice(r.db.QueryRowContext(ctx, query, userID, ip))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("device for user %s not found: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	return device, nil
}

// Trust upserts the device as trusted in a single statement
func (r *deviceRepository) Trust(ctx context.Context, userID, ip, userAgent string) (*domain.Device, error) {
	query := `
		INSERT INTO devices (id, user_id, ip, user_agent, allow, created_at, updated_at)
		VALUES ($1, $2, $3, $4, TRUE, $5, $5)
		ON CONFLICT (user_id, ip) DO UPDATE
		SET allow = TRUE, updated_at = EXCLUDED.updated_at
		RETURNING ` + deviceColumns

	device, err := scanDevice(r.db.QueryRowContext(ctx, query, uuid.New().String(), userID, ip, userAgent, time.Now()))
	if err != nil {
		return nil, fmt.Errorf("failed to trust device: %w", err)
	}

	return device, nil
}

func scanDevice(row *sql.Row) (*domain.Device, error) {
	device := &domain.Device{}
	err := row.Scan(
		&device.ID,
		&device.UserID,
		&device.IP,
		&device.UserAgent,
		&device.Allow,
		&device.CreatedAt,
		&device.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return device, nil
}
