package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

type Config struct {
	Enabled bool
}

// Meter wraps an OpenTelemetry meter. When disabled it hands out
// instruments from the global (no-op until configured) provider.
type Meter struct {
	meter metric.Meter
}

func New(ctx context.Context, cfg Config, serviceName string) (*Meter, error) {
	if !cfg.Enabled {
		return &Meter{meter: otel.Meter("noop")}, nil
	}
	return &Meter{meter: otel.Meter(serviceName)}, nil
}

func (m *Meter) GetMeter() metric.Meter {
	if m == nil {
		return otel.Meter("noop")
	}
	return m.meter
}

func (m *Meter) CreateCounter(name, description string) (metric.Int64Counter, error) {
	counter, err := m.GetMeter().Int64Counter(
		name,
		metric.WithDescription(description),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create counter %s: %w", name, err)
	}
	return counter, nil
}

func (m *Meter) CreateHistogram(name, description, unit string) (metric.Float64Histogram, error) {
	histogram, err := m.GetMeter().Float64Histogram(
		name,
		metric.WithDescription(description),
		metric.WithUnit(unit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create histogram %s: %w", name, err)
	}
	return histogram, nil
}

// AuthzInstruments are the instruments recorded by the authorization engine.
type AuthzInstruments struct {
	Decisions metric.Int64Counter
	Latency   metric.Float64Histogram
}

// NewAuthzInstruments creates the decision counter and latency histogram.
func (m *Meter) NewAuthzInstruments() (*AuthzInstruments, error) {
	decisions, err := m.CreateCounter("authz_decisions_total", "Authorization decisions by effective filter")
	if err != nil {
		return nil, err
	}
	latency, err := m.CreateHistogram("authz_decision_duration", "Time spent resolving an effective filter", "ms")
	if err != nil {
		return nil, err
	}
	return &AuthzInstruments{Decisions: decisions, Latency: latency}, nil
}
