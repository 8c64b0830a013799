package simulator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ChakrapaniC/Senser-Dashboard-BE/internal/storage"
)

// ThresholdSet holds the warn/critical pair for one sensor type.
type ThresholdSet struct {
	Warn     float64 `json:"warn"`
	Critical float64 `json:"critical"`
}

var defaultThresholds = ThresholdSet{Warn: 75, Critical: 85}

// ValidateThresholds enforces warn < critical at the point of update; an
// equal pair is invalid.
func ValidateThresholds(warn, critical float64) error {
	if critical <= warn {
		return fmt.Errorf("critical threshold (%g) must be greater than warn threshold (%g)", critical, warn)
	}
	return nil
}

type ThresholdSource interface {
	GetThresholds(ctx context.Context) ([]storage.ThresholdRecord, error)
}

// ThresholdStore caches the last successfully loaded threshold sets, keyed by
// sensor type. Refresh replaces the cache wholesale; a failed refresh keeps
// the previous sets. Readers between refreshes may observe stale values.
type ThresholdStore struct {
	mu   sync.RWMutex
	sets map[string]ThresholdSet
	src  ThresholdSource
	log  *slog.Logger
}

func NewThresholdStore(src ThresholdSource, logger *slog.Logger) *ThresholdStore {
	return &ThresholdStore{src: src, log: logger}
}

// Get returns the last loaded set for the sensor type, or the built-in
// default when none has ever loaded.
func (s *ThresholdStore) Get(sensorType string) ThresholdSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if set, ok := s.sets[sensorType]; ok {
		return set
	}
	return defaultThresholds
}

func (s *ThresholdStore) Refresh(ctx context.Context) error {
	records, err := s.src.GetThresholds(ctx)
	if err != nil {
		s.log.Error("threshold refresh failed", slog.String("error", err.Error()))
		return err
	}
	sets := make(map[string]ThresholdSet, len(records))
	for _, rec := range records {
		sets[rec.SensorType] = ThresholdSet{Warn: rec.Warn, Critical: rec.Critical}
	}
	s.mu.Lock()
	s.sets = sets
	s.mu.Unlock()
	return nil
}
