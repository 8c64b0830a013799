package storage

import (
	"context"
	"fmt"
	"time"
)

// Migrate creates the schema when it does not exist. Supported for mysql and
// postgres; sqlserver deployments are expected to provision the schema
// externally.
func (s *Store) Migrate(ctx context.Context) error {
	var autoPK, timeType string
	switch s.dialect {
	case "mysql":
		autoPK = "BIGINT PRIMARY KEY AUTO_INCREMENT"
		timeType = "DATETIME"
	case "postgres":
		autoPK = "BIGSERIAL PRIMARY KEY"
		timeType = "TIMESTAMPTZ"
	default:
		return fmt.Errorf("schema bootstrap is not supported for %s", s.dialect)
	}

	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS devices (
			id %s,
			device_id VARCHAR(64) NOT NULL UNIQUE,
			name VARCHAR(128) NOT NULL,
			tags VARCHAR(255) NOT NULL DEFAULT '',
			status VARCHAR(16) NOT NULL DEFAULT 'OK',
			last_seen %s NOT NULL
		)`, autoPK, timeType),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS thresholds (
			sensor_type VARCHAR(32) PRIMARY KEY,
			warn_threshold DOUBLE PRECISION NOT NULL,
			critical_threshold DOUBLE PRECISION NOT NULL,
			updated_at %s NOT NULL
		)`, timeType),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS sensor_readings (
			id %s,
			device_id BIGINT NOT NULL,
			sensor_type VARCHAR(32) NOT NULL,
			value DOUBLE PRECISION NOT NULL,
			ts %s NOT NULL
		)`, autoPK, timeType),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS alerts (
			id VARCHAR(36) PRIMARY KEY,
			device_id BIGINT NOT NULL,
			sensor_type VARCHAR(32) NOT NULL,
			severity VARCHAR(16) NOT NULL,
			message VARCHAR(255) NOT NULL,
			value DOUBLE PRECISION NOT NULL,
			ts %s NOT NULL,
			acknowledged BOOLEAN NOT NULL DEFAULT FALSE,
			acknowledged_by VARCHAR(64),
			acknowledged_at %s
		)`, timeType, timeType),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS users (
			id %s,
			username VARCHAR(64) NOT NULL UNIQUE,
			password_hash VARCHAR(128) NOT NULL,
			role VARCHAR(32) NOT NULL
		)`, autoPK),
	}
	for _, stmt := range stmts {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Seed inserts a starter fleet, default thresholds and demo users when the
// corresponding tables are empty.
func (s *Store) Seed(ctx context.Context) error {
	now := time.Now().UTC()

	var devices int
	if err := s.QueryRow(ctx, `SELECT COUNT(*) FROM devices`).Scan(&devices); err != nil {
		return err
	}
	if devices == 0 {
		seed := []struct{ id, name, tags string }{
			{"PUMP-001", "Coolant Pump 1", "pump,cooling"},
			{"PUMP-002", "Coolant Pump 2", "pump,cooling"},
			{"CNC-001", "CNC Mill A", "cnc,machining"},
			{"CNC-002", "CNC Mill B", "cnc,machining"},
			{"OVEN-001", "Curing Oven", "oven,thermal"},
		}
		for _, d := range seed {
			if _, err := s.Exec(ctx, `
				INSERT INTO devices (device_id, name, tags, status, last_seen)
				VALUES (?, ?, ?, ?, ?)`, d.id, d.name, d.tags, "OK", now); err != nil {
				return err
			}
		}
	}

	var thresholds int
	if err := s.QueryRow(ctx, `SELECT COUNT(*) FROM thresholds`).Scan(&thresholds); err != nil {
		return err
	}
	if thresholds == 0 {
		if _, err := s.Exec(ctx, `
			INSERT INTO thresholds (sensor_type, warn_threshold, critical_threshold, updated_at)
			VALUES (?, ?, ?, ?)`, "temp", 75.0, 85.0, now); err != nil {
			return err
		}
	}

	var users int
	if err := s.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&users); err != nil {
		return err
	}
	if users == 0 {
		// Demo accounts; the login path also accepts their well-known
		// passwords directly, so the stored hash is a placeholder.
		for _, u := range []struct{ name, role string }{
			{"admin", "admin"},
			{"operator", "operator"},
			{"engineer", "engineer"},
		} {
			if _, err := s.Exec(ctx, `
				INSERT INTO users (username, password_hash, role)
				VALUES (?, ?, ?)`, u.name, "*", u.role); err != nil {
				return err
			}
		}
	}
	return nil
}
