package simulator

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/ChakrapaniC/Senser-Dashboard-BE/internal/bus"
	"github.com/ChakrapaniC/Senser-Dashboard-BE/internal/storage"
)

type AlertStore interface {
	InsertAlert(ctx context.Context, alert storage.AlertRecord) (string, error)
}

// AlertEmitter persists breach alerts and publishes alert.created events.
// The event is published even when persistence fails: live delivery is
// at-least-once and deliberately not linked to the durable write.
type AlertEmitter struct {
	store AlertStore
	bus   *bus.Bus
	log   *slog.Logger
}

func NewAlertEmitter(store AlertStore, b *bus.Bus, logger *slog.Logger) *AlertEmitter {
	return &AlertEmitter{store: store, bus: b, log: logger}
}

func (e *AlertEmitter) Emit(ctx context.Context, device storage.DeviceRecord, sensorType, severity string, value float64, thresholds ThresholdSet, ts time.Time) {
	msg := alertMessage(severity, value, thresholds)
	id := uuid.NewString()
	if _, err := e.store.InsertAlert(ctx, storage.AlertRecord{
		ID:         id,
		DeviceRef:  device.ID,
		SensorType: sensorType,
		Severity:   severity,
		Message:    msg,
		Value:      value,
		TS:         ts,
	}); err != nil {
		e.log.Error("alert insert failed",
			slog.String("device", device.DeviceID), slog.String("error", err.Error()))
	}
	e.bus.Publish(bus.Event{
		Type:     bus.TypeAlertCreated,
		AlertID:  id,
		DeviceID: device.DeviceID,
		Severity: severity,
		Message:  msg,
		TS:       ts.UTC().Format(time.RFC3339),
	})
}

func alertMessage(severity string, value float64, t ThresholdSet) string {
	if severity == SeverityCritical {
		return fmt.Sprintf("Critical temperature: %.1f°C (threshold: %s°C)", value, formatThreshold(t.Critical))
	}
	return fmt.Sprintf("High temperature: %.1f°C (threshold: %s°C)", value, formatThreshold(t.Warn))
}

func formatThreshold(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
