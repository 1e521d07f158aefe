package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// TestNewTimer tests timer creation
func TestNewTimer(t *testing.T) {
	timer := NewTimer()

	if timer == nil {
		t.Fatal("NewTimer() returned nil")
	}

	if timer.start.IsZero() {
		t.Error("NewTimer() start time is zero")
	}

	// Verify start time is recent (within last second)
	if time.Since(timer.start) > time.Second {
		t.Error("NewTimer() start time is not recent")
	}
}

// TestTimerDuration tests duration measurement
func TestTimerDuration(t *testing.T) {
	timer := NewTimer()

	// Sleep for a known duration
	sleepDuration := 100 * time.Millisecond
	time.Sleep(sleepDuration)

	duration := timer.Duration()

	// Verify duration is at least the sleep duration (allowing small overhead)
	if duration < sleepDuration {
		t.Errorf("Timer.Duration() = %v, want >= %v", duration, sleepDuration)
	}

	// Verify duration is reasonable (less than 2x sleep duration)
	if duration > 2*sleepDuration {
		t.Errorf("Timer.Duration() = %v, want < %v", duration, 2*sleepDuration)
	}
}

// TestTimerObserveDuration tests histogram observation
func TestTimerObserveDuration(t *testing.T) {
	// Create a test histogram
	histogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "test_resolve_duration_seconds",
		Help:    "Test duration histogram",
		Buckets: prometheus.DefBuckets,
	})

	timer := NewTimer()
	time.Sleep(50 * time.Millisecond)
	timer.ObserveDuration(histogram)

	var metric dto.Metric
	if err := histogram.Write(&metric); err != nil {
		t.Fatalf("failed to read histogram: %v", err)
	}

	if metric.Histogram.GetSampleCount() != 1 {
		t.Errorf("expected 1 observation, got %d", metric.Histogram.GetSampleCount())
	}

	if metric.Histogram.GetSampleSum() < 0.05 {
		t.Errorf("expected sum >= 0.05s, got %f", metric.Histogram.GetSampleSum())
	}
}

// TestTimerObserveDurationVec tests labeled histogram observation
func TestTimerObserveDurationVec(t *testing.T) {
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "test_resolve_duration_by_namespace_seconds",
		Help:    "Test labeled duration histogram",
		Buckets: prometheus.DefBuckets,
	}, []string{"namespace"})

	timer := NewTimer()
	timer.ObserveDurationVec(vec, "claude")

	histogram, err := vec.GetMetricWithLabelValues("claude")
	if err != nil {
		t.Fatalf("failed to get labeled histogram: %v", err)
	}

	var metric dto.Metric
	if err := histogram.(prometheus.Histogram).Write(&metric); err != nil {
		t.Fatalf("failed to read histogram: %v", err)
	}

	if metric.Histogram.GetSampleCount() != 1 {
		t.Errorf("expected 1 observation, got %d", metric.Histogram.GetSampleCount())
	}
}
