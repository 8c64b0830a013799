package simulator

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/ChakrapaniC/Senser-Dashboard-BE/internal/bus"
	"github.com/ChakrapaniC/Senser-Dashboard-BE/internal/storage"
)

type DeviceStore interface {
	ListDevices(ctx context.Context) ([]storage.DeviceRecord, error)
	UpdateDeviceStatus(ctx context.Context, id int64, status string, lastSeen time.Time) error
}

// Generator synthesizes one reading per rostered device on each tick.
// Failures are isolated per device: a failed status persist skips the rest of
// that device's cycle and the tick moves on to the next device.
type Generator struct {
	store      DeviceStore
	thresholds *ThresholdStore
	buffer     *WriteBuffer
	alerts     *AlertEmitter
	bus        *bus.Bus
	sensorType string
	randValue  func() float64
	now        func() time.Time
	log        *slog.Logger
}

func NewGenerator(store DeviceStore, thresholds *ThresholdStore, buffer *WriteBuffer, alerts *AlertEmitter, b *bus.Bus, cfg Config, logger *slog.Logger) *Generator {
	return &Generator{
		store:      store,
		thresholds: thresholds,
		buffer:     buffer,
		alerts:     alerts,
		bus:        b,
		sensorType: cfg.SensorType,
		randValue: func() float64 {
			return cfg.MinValue + rand.Float64()*(cfg.MaxValue-cfg.MinValue)
		},
		now: time.Now,
		log: logger,
	}
}

func (g *Generator) Tick(ctx context.Context) {
	devices, err := g.store.ListDevices(ctx)
	if err != nil {
		g.log.Error("device roster fetch failed", slog.String("error", err.Error()))
		return
	}
	for _, device := range devices {
		g.processDevice(ctx, device)
	}
}

func (g *Generator) processDevice(ctx context.Context, device storage.DeviceRecord) {
	value := g.randValue()
	ts := g.now().UTC()
	thresholds := g.thresholds.Get(g.sensorType)
	result := Classify(value, thresholds)

	g.buffer.Enqueue(storage.ReadingRecord{
		DeviceRef:  device.ID,
		SensorType: g.sensorType,
		Value:      value,
		TS:         ts,
	})

	if err := g.store.UpdateDeviceStatus(ctx, device.ID, result.Status, ts); err != nil {
		g.log.Error("device status update failed",
			slog.String("device", device.DeviceID), slog.String("error", err.Error()))
		return
	}

	if result.Breach() {
		g.alerts.Emit(ctx, device, g.sensorType, result.Severity, value, thresholds, ts)
	}

	iso := ts.Format(time.RFC3339)
	rounded := math.Round(value*100) / 100
	g.bus.Publish(bus.Event{
		Type:       bus.TypeSensorReading,
		DeviceID:   device.DeviceID,
		SensorType: g.sensorType,
		Value:      &rounded,
		TS:         iso,
	})
	g.bus.Publish(bus.Event{
		Type:     bus.TypeDeviceUpdate,
		DeviceID: device.DeviceID,
		Status:   result.Status,
		LastSeen: iso,
	})
}
