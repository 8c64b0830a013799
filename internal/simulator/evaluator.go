package simulator

import "time"

const (
	StatusOK       = "OK"
	StatusWarn     = "WARN"
	StatusCritical = "CRITICAL"
	StatusOffline  = "OFFLINE"

	SeverityWarn     = "WARN"
	SeverityCritical = "CRITICAL"
)

// Classification is the result of evaluating one reading against thresholds.
// Severity is empty when the reading is not a breach.
type Classification struct {
	Status   string
	Severity string
}

func (c Classification) Breach() bool { return c.Severity != "" }

// Classify maps a value to a status: CRITICAL when value >= critical, WARN
// when value >= warn, OK otherwise. Pure; callers pass the threshold set they
// observed at tick time.
func Classify(value float64, t ThresholdSet) Classification {
	switch {
	case value >= t.Critical:
		return Classification{Status: StatusCritical, Severity: SeverityCritical}
	case value >= t.Warn:
		return Classification{Status: StatusWarn, Severity: SeverityWarn}
	default:
		return Classification{Status: StatusOK}
	}
}

// PresentationStatus overrides a stored status with OFFLINE once the device
// has been silent for at least the staleness window.
func PresentationStatus(status string, lastSeen, now time.Time, window time.Duration) string {
	if now.Sub(lastSeen) >= window {
		return StatusOffline
	}
	return status
}
