// Package simulator drives the synthetic telemetry pipeline: periodic reading
// generation, threshold classification, breach alerting and buffered
// persistence. Three independent schedules (generate, flush, threshold
// refresh) run in their own goroutines so a slow durable-store call on one
// never delays the others.
package simulator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ChakrapaniC/Senser-Dashboard-BE/internal/bus"
)

type Config struct {
	SensorType       string
	MinValue         float64
	MaxValue         float64
	GenerateInterval time.Duration
	FlushInterval    time.Duration
	RefreshInterval  time.Duration
	StalenessWindow  time.Duration
}

func DefaultConfig() Config {
	return Config{
		SensorType:       "temp",
		MinValue:         20,
		MaxValue:         90,
		GenerateInterval: 2 * time.Second,
		FlushInterval:    5 * time.Second,
		RefreshInterval:  30 * time.Second,
		StalenessWindow:  5 * time.Minute,
	}
}

// Store is the durable-store surface the pipeline consumes. Satisfied by
// *storage.Repository.
type Store interface {
	DeviceStore
	ThresholdSource
	AlertStore
	ReadingSink
}

// Simulator owns the pipeline components and their schedules.
type Simulator struct {
	cfg        Config
	thresholds *ThresholdStore
	buffer     *WriteBuffer
	generator  *Generator
	log        *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(cfg Config, store Store, b *bus.Bus, logger *slog.Logger) *Simulator {
	thresholds := NewThresholdStore(store, logger)
	buffer := NewWriteBuffer(store, logger)
	alerts := NewAlertEmitter(store, b, logger)
	generator := NewGenerator(store, thresholds, buffer, alerts, b, cfg, logger)
	return &Simulator{
		cfg:        cfg,
		thresholds: thresholds,
		buffer:     buffer,
		generator:  generator,
		log:        logger,
	}
}

// Thresholds exposes the live threshold cache, e.g. so an admin update can
// refresh it without waiting for the next scheduled tick.
func (s *Simulator) Thresholds() *ThresholdStore { return s.thresholds }

// Start loads thresholds once, then launches the three schedules. A failed
// initial load falls back to defaults and is retried by the refresh ticker.
func (s *Simulator) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	if err := s.thresholds.Refresh(ctx); err == nil {
		s.log.Info("thresholds loaded")
	}

	s.runEvery(ctx, s.cfg.GenerateInterval, "generate", s.generator.Tick)
	s.runEvery(ctx, s.cfg.FlushInterval, "flush", func(ctx context.Context) {
		_ = s.buffer.Flush(ctx)
	})
	s.runEvery(ctx, s.cfg.RefreshInterval, "thresholds", func(ctx context.Context) {
		_ = s.thresholds.Refresh(ctx)
	})
}

// Stop cancels the schedules, waits for in-flight ticks, then flushes what is
// still buffered.
func (s *Simulator) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
	ctx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	_ = s.buffer.Flush(ctx)
}

func (s *Simulator) runEvery(ctx context.Context, interval time.Duration, name string, fn func(context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.safely(name, ctx, fn)
			}
		}
	}()
}

// safely keeps a panicking tick from taking down the other schedules.
func (s *Simulator) safely(name string, ctx context.Context, fn func(context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("scheduled task panicked", slog.String("task", name), slog.Any("panic", r))
		}
	}()
	fn(ctx)
}
