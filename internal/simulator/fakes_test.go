package simulator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ChakrapaniC/Senser-Dashboard-BE/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var errStore = errors.New("store down")

// fakeStore implements the pipeline's durable-store interfaces in memory.
type fakeStore struct {
	mu sync.Mutex

	devices    []storage.DeviceRecord
	thresholds []storage.ThresholdRecord

	listErr       error
	thresholdsErr error
	statusErr     map[int64]error
	insertErr     error
	bulkErr       error

	statusUpdates map[int64]string
	alerts        []storage.AlertRecord
	batches       [][]storage.ReadingRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		statusErr:     map[int64]error{},
		statusUpdates: map[int64]string{},
	}
}

func (f *fakeStore) ListDevices(context.Context) ([]storage.DeviceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.devices, nil
}

func (f *fakeStore) GetThresholds(context.Context) ([]storage.ThresholdRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.thresholdsErr != nil {
		return nil, f.thresholdsErr
	}
	return f.thresholds, nil
}

func (f *fakeStore) UpdateDeviceStatus(_ context.Context, id int64, status string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.statusErr[id]; err != nil {
		return err
	}
	f.statusUpdates[id] = status
	return nil
}

func (f *fakeStore) InsertAlert(_ context.Context, alert storage.AlertRecord) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return "", f.insertErr
	}
	f.alerts = append(f.alerts, alert)
	return alert.ID, nil
}

func (f *fakeStore) BulkInsertReadings(_ context.Context, readings []storage.ReadingRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.bulkErr != nil {
		return f.bulkErr
	}
	batch := make([]storage.ReadingRecord, len(readings))
	copy(batch, readings)
	f.batches = append(f.batches, batch)
	return nil
}

func (f *fakeStore) insertedAlerts() []storage.AlertRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]storage.AlertRecord(nil), f.alerts...)
}
