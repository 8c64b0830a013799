package storage

import "time"

// DeviceRecord is a row from the devices table. ID is the internal primary
// key; DeviceID is the external, human-readable identifier used on the wire.
type DeviceRecord struct {
	ID       int64     `json:"-"`
	DeviceID string    `json:"deviceId"`
	Name     string    `json:"name"`
	Tags     string    `json:"tags"`
	Status   string    `json:"status"`
	LastSeen time.Time `json:"lastSeen"`
}

// ReadingRecord is one sensor reading. DeviceRef is the devices.id foreign key.
type ReadingRecord struct {
	DeviceRef  int64     `json:"-"`
	SensorType string    `json:"sensorType"`
	Value      float64   `json:"value"`
	TS         time.Time `json:"ts"`
}

type AlertRecord struct {
	ID           string    `json:"id"`
	DeviceRef    int64     `json:"-"`
	SensorType   string    `json:"sensorType"`
	Severity     string    `json:"severity"`
	Message      string    `json:"message"`
	Value        float64   `json:"value"`
	TS           time.Time `json:"ts"`
	Acknowledged bool      `json:"acknowledged"`
}

// AlertRow is an alert joined with its device identity, as served by the API.
type AlertRow struct {
	AlertRecord
	DeviceID   string     `json:"deviceId"`
	DeviceName string     `json:"deviceName"`
	AckedBy    *string    `json:"acknowledgedBy,omitempty"`
	AckedAt    *time.Time `json:"acknowledgedAt,omitempty"`
}

type ThresholdRecord struct {
	SensorType string    `json:"sensorType"`
	Warn       float64   `json:"warn"`
	Critical   float64   `json:"critical"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type UserRecord struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`
}

// FleetStats summarizes the device roster for the dashboard.
type FleetStats struct {
	Total   int `json:"total"`
	Online  int `json:"online"`
	Offline int `json:"offline"`
}
