package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Repository struct {
	Store *Store
}

func NewRepository(store *Store) *Repository {
	return &Repository{Store: store}
}

func (r *Repository) ListDevices(ctx context.Context) ([]DeviceRecord, error) {
	rows, err := r.Store.Query(ctx, `
		SELECT id, device_id, name, tags, status, last_seen
		FROM devices ORDER BY device_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	results := []DeviceRecord{}
	for rows.Next() {
		var rec DeviceRecord
		if err := rows.Scan(&rec.ID, &rec.DeviceID, &rec.Name, &rec.Tags, &rec.Status, &rec.LastSeen); err != nil {
			return nil, err
		}
		results = append(results, rec)
	}
	return results, rows.Err()
}

// SearchDevices applies the dashboard list filters. Empty arguments are
// ignored; limit and offset are clamped by the caller.
func (r *Repository) SearchDevices(ctx context.Context, status, tag, q string, limit, offset int) ([]DeviceRecord, error) {
	query := `SELECT id, device_id, name, tags, status, last_seen FROM devices WHERE 1=1`
	args := []any{}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	if tag != "" {
		query += ` AND tags LIKE ?`
		args = append(args, "%"+tag+"%")
	}
	if q != "" {
		query += ` AND (device_id LIKE ? OR name LIKE ?)`
		args = append(args, "%"+q+"%", "%"+q+"%")
	}
	query += ` ORDER BY device_id LIMIT ? OFFSET ?`
	args = append(args, limit, offset)
	rows, err := r.Store.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	results := []DeviceRecord{}
	for rows.Next() {
		var rec DeviceRecord
		if err := rows.Scan(&rec.ID, &rec.DeviceID, &rec.Name, &rec.Tags, &rec.Status, &rec.LastSeen); err != nil {
			return nil, err
		}
		results = append(results, rec)
	}
	return results, rows.Err()
}

func (r *Repository) GetDevice(ctx context.Context, deviceID string) (DeviceRecord, error) {
	row := r.Store.QueryRow(ctx, `
		SELECT id, device_id, name, tags, status, last_seen
		FROM devices WHERE device_id = ?`, deviceID)
	var rec DeviceRecord
	if err := row.Scan(&rec.ID, &rec.DeviceID, &rec.Name, &rec.Tags, &rec.Status, &rec.LastSeen); err != nil {
		return DeviceRecord{}, ErrNotFound
	}
	return rec, nil
}

func (r *Repository) FleetStats(ctx context.Context) (FleetStats, error) {
	row := r.Store.QueryRow(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN status <> 'OFFLINE' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN status = 'OFFLINE' THEN 1 ELSE 0 END), 0)
		FROM devices`)
	var stats FleetStats
	if err := row.Scan(&stats.Total, &stats.Online, &stats.Offline); err != nil {
		return FleetStats{}, err
	}
	return stats, nil
}

func (r *Repository) CountActiveAlerts(ctx context.Context, since time.Time) (int, error) {
	row := r.Store.QueryRow(ctx, `
		SELECT COUNT(*) FROM alerts WHERE acknowledged = ? AND ts >= ?`, false, since)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *Repository) UpdateDeviceStatus(ctx context.Context, id int64, status string, lastSeen time.Time) error {
	_, err := r.Store.Exec(ctx, `
		UPDATE devices SET status = ?, last_seen = ? WHERE id = ?`, status, lastSeen, id)
	return err
}

func (r *Repository) GetThresholds(ctx context.Context) ([]ThresholdRecord, error) {
	rows, err := r.Store.Query(ctx, `
		SELECT sensor_type, warn_threshold, critical_threshold, updated_at
		FROM thresholds ORDER BY sensor_type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	results := []ThresholdRecord{}
	for rows.Next() {
		var rec ThresholdRecord
		if err := rows.Scan(&rec.SensorType, &rec.Warn, &rec.Critical, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		results = append(results, rec)
	}
	return results, rows.Err()
}

// UpsertThresholds writes one threshold row using an update-then-insert so the
// statement stays portable across all three engines.
func (r *Repository) UpsertThresholds(ctx context.Context, sensorType string, warn, critical float64) error {
	now := time.Now().UTC()
	res, err := r.Store.Exec(ctx, `
		UPDATE thresholds SET warn_threshold = ?, critical_threshold = ?, updated_at = ?
		WHERE sensor_type = ?`, warn, critical, now, sensorType)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}
	_, err = r.Store.Exec(ctx, `
		INSERT INTO thresholds (sensor_type, warn_threshold, critical_threshold, updated_at)
		VALUES (?, ?, ?, ?)`, sensorType, warn, critical, now)
	return err
}

func (r *Repository) InsertAlert(ctx context.Context, alert AlertRecord) (string, error) {
	id := alert.ID
	if id == "" {
		id = uuid.NewString()
	}
	_, err := r.Store.Exec(ctx, `
		INSERT INTO alerts (id, device_id, sensor_type, severity, message, value, ts, acknowledged)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, alert.DeviceRef, alert.SensorType, alert.Severity, alert.Message, alert.Value, alert.TS, false)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *Repository) BulkInsertReadings(ctx context.Context, readings []ReadingRecord) error {
	if len(readings) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString(`INSERT INTO sensor_readings (device_id, sensor_type, value, ts) VALUES `)
	args := make([]any, 0, len(readings)*4)
	for i, rec := range readings {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(?, ?, ?, ?)")
		args = append(args, rec.DeviceRef, rec.SensorType, rec.Value, rec.TS)
	}
	if _, err := r.Store.Exec(ctx, b.String(), args...); err != nil {
		return fmt.Errorf("bulk insert %d readings: %w", len(readings), err)
	}
	return nil
}

func (r *Repository) ListReadings(ctx context.Context, deviceRef int64, sensorType string, from, to time.Time, limit int) ([]ReadingRecord, error) {
	query := `SELECT device_id, sensor_type, value, ts FROM sensor_readings WHERE device_id = ? AND sensor_type = ?`
	args := []any{deviceRef, sensorType}
	if !from.IsZero() {
		query += ` AND ts >= ?`
		args = append(args, from)
	}
	if !to.IsZero() {
		query += ` AND ts <= ?`
		args = append(args, to)
	}
	query += ` ORDER BY ts DESC LIMIT ?`
	args = append(args, limit)
	rows, err := r.Store.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	results := []ReadingRecord{}
	for rows.Next() {
		var rec ReadingRecord
		if err := rows.Scan(&rec.DeviceRef, &rec.SensorType, &rec.Value, &rec.TS); err != nil {
			return nil, err
		}
		results = append(results, rec)
	}
	return results, rows.Err()
}

func (r *Repository) LatestReading(ctx context.Context, deviceRef int64, sensorType string) (*ReadingRecord, error) {
	row := r.Store.QueryRow(ctx, `
		SELECT device_id, sensor_type, value, ts FROM sensor_readings
		WHERE device_id = ? AND sensor_type = ? ORDER BY ts DESC LIMIT 1`, deviceRef, sensorType)
	var rec ReadingRecord
	if err := row.Scan(&rec.DeviceRef, &rec.SensorType, &rec.Value, &rec.TS); err != nil {
		return nil, nil
	}
	return &rec, nil
}

func (r *Repository) ListAlerts(ctx context.Context, severity, deviceID string, acknowledged *bool, limit int) ([]AlertRow, error) {
	query := `
		SELECT a.id, a.device_id, a.sensor_type, a.severity, a.message, a.value, a.ts, a.acknowledged,
		       a.acknowledged_by, a.acknowledged_at, d.device_id, d.name
		FROM alerts a JOIN devices d ON a.device_id = d.id WHERE 1=1`
	args := []any{}
	if severity != "" {
		query += ` AND a.severity = ?`
		args = append(args, severity)
	}
	if deviceID != "" {
		query += ` AND d.device_id = ?`
		args = append(args, deviceID)
	}
	if acknowledged != nil {
		query += ` AND a.acknowledged = ?`
		args = append(args, *acknowledged)
	}
	query += ` ORDER BY a.ts DESC LIMIT ?`
	args = append(args, limit)
	rows, err := r.Store.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	results := []AlertRow{}
	for rows.Next() {
		var rec AlertRow
		if err := rows.Scan(&rec.ID, &rec.DeviceRef, &rec.SensorType, &rec.Severity, &rec.Message,
			&rec.Value, &rec.TS, &rec.Acknowledged, &rec.AckedBy, &rec.AckedAt,
			&rec.DeviceID, &rec.DeviceName); err != nil {
			return nil, err
		}
		results = append(results, rec)
	}
	return results, rows.Err()
}

func (r *Repository) AckAlert(ctx context.Context, alertID, username string) (bool, error) {
	res, err := r.Store.Exec(ctx, `
		UPDATE alerts SET acknowledged = ?, acknowledged_by = ?, acknowledged_at = ?
		WHERE id = ?`, true, username, time.Now().UTC(), alertID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *Repository) AckAllAlerts(ctx context.Context, username string) (int64, error) {
	res, err := r.Store.Exec(ctx, `
		UPDATE alerts SET acknowledged = ?, acknowledged_by = ?, acknowledged_at = ?
		WHERE acknowledged = ?`, true, username, time.Now().UTC(), false)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (UserRecord, error) {
	row := r.Store.QueryRow(ctx, `
		SELECT id, username, password_hash, role FROM users WHERE username = ?`, username)
	var rec UserRecord
	if err := row.Scan(&rec.ID, &rec.Username, &rec.PasswordHash, &rec.Role); err != nil {
		return UserRecord{}, ErrNotFound
	}
	return rec, nil
}
