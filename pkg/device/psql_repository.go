package device

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
	Begin(context.Context) (pgx.Tx, error)
}

// PostgresDeviceRepository implements DeviceRepository using PostgreSQL
type PostgresDeviceRepository struct {
	db DBTX
}

func NewPostgresDeviceRepository(db DBTX) *PostgresDeviceRepository {
	return &PostgresDeviceRepository{db: db}
}

const deviceColumns = `id, user_id, name, device_class, os_family, created_at, updated_at, revoked_at`

func scanDevice(row pgx.Row) (Device, error) {
	var d Device
	err := row.Scan(&d.ID, &d.UserID, &d.Name, &d.Class, &d.OS, &d.CreatedAt, &d.UpdatedAt, &d.RevokedAt)
	return d, err
}

// CreateDevice inserts the device and its first activity in one transaction.
func (r *PostgresDeviceRepository) CreateDevice(ctx context.Context, userID uuid.UUID, client ClientInfo) (Device, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		slog.Error("Failed to begin transaction", "err", err)
		return Device{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	row := tx.QueryRow(ctx, `
		INSERT INTO devices (id, user_id, name, device_class, os_family, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING `+deviceColumns,
		uuid.New(), userID, client.Fingerprint.Name, client.Fingerprint.Class, client.Fingerprint.OS, now,
	)
	device, err := scanDevice(row)
	if err != nil {
		slog.Error("Failed to create device", "err", err, "userID", userID)
		return Device{}, fmt.Errorf("failed to create device: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO login_activities (id, device_id, ip_address, success, created_at)
		VALUES ($1, $2, $3, TRUE, $4)`,
		uuid.New(), device.ID, ipPtr(client.IP), now,
	)
	if err != nil {
		slog.Error("Failed to record initial activity", "err", err, "deviceID", device.ID)
		return Device{}, fmt.Errorf("failed to record initial activity: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		slog.Error("Failed to commit device creation", "err", err, "deviceID", device.ID)
		return Device{}, fmt.Errorf("failed to commit device creation: %w", err)
	}

	slog.Debug("Device created", "deviceID", device.ID, "userID", userID)
	return device, nil
}

func (r *PostgresDeviceRepository) GetDeviceWithActivities(ctx context.Context, deviceID uuid.UUID) (Device, []LoginActivity, error) {
	device, err := scanDevice(r.db.QueryRow(ctx, `SELECT `+deviceColumns+` FROM devices WHERE id = $1`, deviceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			slog.Debug("Device not found", "deviceID", deviceID)
			return Device{}, nil, ErrDeviceNotFound
		}
		slog.Error("Failed to get device", "err", err, "deviceID", deviceID)
		return Device{}, nil, fmt.Errorf("failed to get device: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, device_id, ip_address, success, created_at
		FROM login_activities
		WHERE device_id = $1
		ORDER BY created_at ASC`, deviceID)
	if err != nil {
		slog.Error("Failed to query activities", "err", err, "deviceID", deviceID)
		return Device{}, nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	activities := []LoginActivity{}
	for rows.Next() {
		var a LoginActivity
		if err := rows.Scan(&a.ID, &a.DeviceID, &a.IPAddress, &a.Success, &a.CreatedAt); err != nil {
			slog.Error("Failed to scan activity", "err", err, "deviceID", deviceID)
			return Device{}, nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return Device{}, nil, fmt.Errorf("failed to read activities: %w", err)
	}
	return device, activities, nil
}

func (r *PostgresDeviceRepository) AppendActivity(ctx context.Context, deviceID uuid.UUID, ip string, success bool) (LoginActivity, error) {
	// INSERT ... SELECT yields no row when the device is gone, which keeps
	// not-found distinct from a foreign key violation.
	row := r.db.QueryRow(ctx, `
		INSERT INTO login_activities (id, device_id, ip_address, success, created_at)
		SELECT $1::uuid, d.id, $3::text, $4::boolean, $5::timestamptz FROM devices d WHERE d.id = $2
		RETURNING id, device_id, ip_address, success, created_at`,
		uuid.New(), deviceID, ipPtr(ip), success, time.Now().UTC(),
	)
	var a LoginActivity
	if err := row.Scan(&a.ID, &a.DeviceID, &a.IPAddress, &a.Success, &a.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			slog.Debug("Device not found when appending activity", "deviceID", deviceID)
			return LoginActivity{}, ErrDeviceNotFound
		}
		slog.Error("Failed to append activity", "err", err, "deviceID", deviceID)
		return LoginActivity{}, fmt.Errorf("failed to append activity: %w", err)
	}
	return a, nil
}

func (r *PostgresDeviceRepository) FindDevicesByUser(ctx context.Context, userID uuid.UUID) ([]Device, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+deviceColumns+`
		FROM devices
		WHERE user_id = $1 AND revoked_at IS NULL
		ORDER BY created_at DESC`, userID)
	if err != nil {
		slog.Error("Failed to query devices", "err", err, "userID", userID)
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}
	defer rows.Close()

	devices := []Device{}
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			slog.Error("Failed to scan device", "err", err, "userID", userID)
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

func (r *PostgresDeviceRepository) RevokeDevice(ctx context.Context, userID, deviceID uuid.UUID) error {
	now := time.Now().UTC()
	result, err := r.db.Exec(ctx, `
		UPDATE devices
		SET revoked_at = COALESCE(revoked_at, $3),
		    updated_at = CASE WHEN revoked_at IS NULL THEN $3 ELSE updated_at END
		WHERE id = $1 AND user_id = $2`,
		deviceID, userID, now,
	)
	if err != nil {
		slog.Error("Failed to revoke device", "err", err, "deviceID", deviceID)
		return fmt.Errorf("failed to revoke device: %w", err)
	}
	if result.RowsAffected() == 0 {
		slog.Debug("Device not found when revoking", "deviceID", deviceID, "userID", userID)
		return ErrDeviceNotFound
	}
	slog.Debug("Device revoked", "deviceID", deviceID, "userID", userID)
	return nil
}
