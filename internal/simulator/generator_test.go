package simulator

import (
	"context"
	"testing"
	"time"

	"github.com/ChakrapaniC/Senser-Dashboard-BE/internal/bus"
	"github.com/ChakrapaniC/Senser-Dashboard-BE/internal/storage"
)

func testGenerator(fake *fakeStore, b *bus.Bus, value float64) *Generator {
	thresholds := NewThresholdStore(fake, testLogger())
	buffer := NewWriteBuffer(fake, testLogger())
	alerts := NewAlertEmitter(fake, b, testLogger())
	gen := NewGenerator(fake, thresholds, buffer, alerts, b, DefaultConfig(), testLogger())
	gen.randValue = func() float64 { return value }
	return gen
}

func TestGeneratorTickProducesReadingPerDevice(t *testing.T) {
	fake := newFakeStore()
	fake.devices = []storage.DeviceRecord{
		{ID: 1, DeviceID: "PUMP-001"},
		{ID: 2, DeviceID: "PUMP-002"},
	}
	b := bus.New()
	defer b.Close()
	events := b.Subscribe(16)

	gen := testGenerator(fake, b, 50)
	gen.Tick(context.Background())

	if gen.buffer.Len() != 2 {
		t.Fatalf("expected one reading per device, got %d", gen.buffer.Len())
	}
	if fake.statusUpdates[1] != StatusOK || fake.statusUpdates[2] != StatusOK {
		t.Fatalf("expected both statuses persisted, got %+v", fake.statusUpdates)
	}
	if len(fake.insertedAlerts()) != 0 {
		t.Fatalf("expected no alerts for an OK reading")
	}

	// sensor.reading then device.update, per device.
	for _, want := range []string{bus.TypeSensorReading, bus.TypeDeviceUpdate, bus.TypeSensorReading, bus.TypeDeviceUpdate} {
		evt := waitEvent(t, events)
		if evt.Type != want {
			t.Fatalf("expected %s, got %+v", want, evt)
		}
	}
}

func TestGeneratorBreachEmitsAlert(t *testing.T) {
	fake := newFakeStore()
	fake.devices = []storage.DeviceRecord{{ID: 1, DeviceID: "OVEN-001"}}
	b := bus.New()
	defer b.Close()
	events := b.Subscribe(16)

	gen := testGenerator(fake, b, 90)
	gen.Tick(context.Background())

	if fake.statusUpdates[1] != StatusCritical {
		t.Fatalf("expected CRITICAL status persisted, got %+v", fake.statusUpdates)
	}
	alerts := fake.insertedAlerts()
	if len(alerts) != 1 || alerts[0].Severity != SeverityCritical {
		t.Fatalf("expected one critical alert, got %+v", alerts)
	}

	// The alert event precedes the reading and device events for the device.
	for _, want := range []string{bus.TypeAlertCreated, bus.TypeSensorReading, bus.TypeDeviceUpdate} {
		evt := waitEvent(t, events)
		if evt.Type != want {
			t.Fatalf("expected %s, got %+v", want, evt)
		}
		if evt.DeviceID != "OVEN-001" {
			t.Fatalf("expected device id on event, got %+v", evt)
		}
	}
}

func TestGeneratorRosterFailureSkipsTick(t *testing.T) {
	fake := newFakeStore()
	fake.listErr = errStore
	b := bus.New()
	defer b.Close()

	gen := testGenerator(fake, b, 50)
	gen.Tick(context.Background())

	if gen.buffer.Len() != 0 || len(fake.statusUpdates) != 0 {
		t.Fatalf("expected no work on roster failure")
	}
}

func TestGeneratorDeviceFailureIsIsolated(t *testing.T) {
	fake := newFakeStore()
	fake.devices = []storage.DeviceRecord{
		{ID: 1, DeviceID: "PUMP-001"},
		{ID: 2, DeviceID: "PUMP-002"},
	}
	fake.statusErr[1] = errStore
	b := bus.New()
	defer b.Close()
	events := b.Subscribe(16)

	gen := testGenerator(fake, b, 90)
	gen.Tick(context.Background())

	if _, ok := fake.statusUpdates[2]; !ok {
		t.Fatalf("expected the second device to still be processed")
	}
	alerts := fake.insertedAlerts()
	if len(alerts) != 1 || alerts[0].DeviceRef != 2 {
		t.Fatalf("expected an alert only for the healthy device, got %+v", alerts)
	}
	// Events for the failed device are suppressed; the healthy one still
	// produces alert, reading and update events.
	for _, want := range []string{bus.TypeAlertCreated, bus.TypeSensorReading, bus.TypeDeviceUpdate} {
		evt := waitEvent(t, events)
		if evt.Type != want || evt.DeviceID != "PUMP-002" {
			t.Fatalf("expected %s for PUMP-002, got %+v", want, evt)
		}
	}
	// The reading itself was enqueued before the failure and still flushes.
	if gen.buffer.Len() != 2 {
		t.Fatalf("expected both readings buffered, got %d", gen.buffer.Len())
	}
}

func TestGeneratorUsesCurrentThresholds(t *testing.T) {
	fake := newFakeStore()
	fake.devices = []storage.DeviceRecord{{ID: 1, DeviceID: "CNC-001"}}
	fake.thresholds = []storage.ThresholdRecord{{SensorType: "temp", Warn: 40, Critical: 45, UpdatedAt: time.Now()}}
	b := bus.New()
	defer b.Close()

	gen := testGenerator(fake, b, 50)
	if err := gen.thresholds.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	gen.Tick(context.Background())

	if fake.statusUpdates[1] != StatusCritical {
		t.Fatalf("expected refreshed thresholds applied, got %+v", fake.statusUpdates)
	}
}
