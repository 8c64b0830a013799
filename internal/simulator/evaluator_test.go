package simulator

import (
	"testing"
	"time"
)

func TestClassifyCritical(t *testing.T) {
	c := Classify(90, ThresholdSet{Warn: 75, Critical: 85})
	if c.Status != StatusCritical || c.Severity != SeverityCritical {
		t.Fatalf("expected CRITICAL, got %+v", c)
	}
}

func TestClassifyWarn(t *testing.T) {
	c := Classify(80, ThresholdSet{Warn: 75, Critical: 85})
	if c.Status != StatusWarn || c.Severity != SeverityWarn {
		t.Fatalf("expected WARN, got %+v", c)
	}
	if !c.Breach() {
		t.Fatalf("expected breach")
	}
}

func TestClassifyOK(t *testing.T) {
	c := Classify(50, ThresholdSet{Warn: 75, Critical: 85})
	if c.Status != StatusOK || c.Severity != "" {
		t.Fatalf("expected OK, got %+v", c)
	}
	if c.Breach() {
		t.Fatalf("expected no breach")
	}
}

func TestClassifyBoundaries(t *testing.T) {
	thresholds := ThresholdSet{Warn: 75, Critical: 85}
	if got := Classify(85, thresholds).Status; got != StatusCritical {
		t.Fatalf("value == critical: expected CRITICAL, got %s", got)
	}
	if got := Classify(75, thresholds).Status; got != StatusWarn {
		t.Fatalf("value == warn: expected WARN, got %s", got)
	}
	if got := Classify(74.999, thresholds).Status; got != StatusOK {
		t.Fatalf("value just below warn: expected OK, got %s", got)
	}
	if got := Classify(84.999, thresholds).Status; got != StatusWarn {
		t.Fatalf("value just below critical: expected WARN, got %s", got)
	}
}

func TestPresentationStatusOffline(t *testing.T) {
	now := time.Now()
	got := PresentationStatus(StatusCritical, now.Add(-10*time.Minute), now, 5*time.Minute)
	if got != StatusOffline {
		t.Fatalf("expected OFFLINE regardless of stored status, got %s", got)
	}
}

func TestPresentationStatusFresh(t *testing.T) {
	now := time.Now()
	got := PresentationStatus(StatusWarn, now.Add(-time.Minute), now, 5*time.Minute)
	if got != StatusWarn {
		t.Fatalf("expected stored status, got %s", got)
	}
}

func TestPresentationStatusBoundary(t *testing.T) {
	now := time.Now()
	// The staleness comparison is inclusive, like the threshold comparisons.
	got := PresentationStatus(StatusOK, now.Add(-5*time.Minute), now, 5*time.Minute)
	if got != StatusOffline {
		t.Fatalf("expected OFFLINE at exactly the window, got %s", got)
	}
}
