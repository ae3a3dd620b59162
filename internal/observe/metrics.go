// Package observe holds the OpenTelemetry metric instruments for the session
// engine. Tests should build a Metrics with NewMetrics and an sdk ManualReader
// instead of relying on DefaultMetrics.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/KirkDiggler/trpg-session-engine"

// Metrics holds all metric instruments. A nil *Metrics records nothing.
type Metrics struct {
	TurnsCompleted metric.Int64Counter
	DaysAdvanced   metric.Int64Counter

	// AIRequests counts AI requests by attribute "type" and "status"
	AIRequests metric.Int64Counter
	AIDuration metric.Float64Histogram

	// CombatAttacks counts attack resolutions by attribute "outcome"
	CombatAttacks metric.Int64Counter
}

var aiLatencyBuckets = []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60}

// NewMetrics creates the instruments from mp
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.TurnsCompleted, err = m.Int64Counter("trpg.turns.completed",
		metric.WithDescription("Turns that reached the summary phase."),
	); err != nil {
		return nil, err
	}
	if met.DaysAdvanced, err = m.Int64Counter("trpg.days.advanced",
		metric.WithDescription("In-game days advanced."),
	); err != nil {
		return nil, err
	}
	if met.AIRequests, err = m.Int64Counter("trpg.ai.requests",
		metric.WithDescription("AI generation requests by type and status."),
	); err != nil {
		return nil, err
	}
	if met.AIDuration, err = m.Float64Histogram("trpg.ai.duration",
		metric.WithDescription("Latency of AI generation requests."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(aiLatencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.CombatAttacks, err = m.Int64Counter("trpg.combat.attacks",
		metric.WithDescription("Resolved attacks by outcome."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// DefaultMetrics returns instruments bound to the global MeterProvider
func DefaultMetrics() *Metrics {
	defaultOnce.Do(func() {
		m, err := NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: default metrics: " + err.Error())
		}
		defaultMetrics = m
	})
	return defaultMetrics
}

// RecordTurn counts a completed turn
func (m *Metrics) RecordTurn(ctx context.Context) {
	if m == nil {
		return
	}
	m.TurnsCompleted.Add(ctx, 1)
}

// RecordDayAdvanced counts a day advance
func (m *Metrics) RecordDayAdvanced(ctx context.Context) {
	if m == nil {
		return
	}
	m.DaysAdvanced.Add(ctx, 1)
}

// RecordAIRequest counts an AI request and observes its latency
func (m *Metrics) RecordAIRequest(ctx context.Context, requestType, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("type", requestType),
		attribute.String("status", status),
	)
	m.AIRequests.Add(ctx, 1, attrs)
	m.AIDuration.Record(ctx, elapsed.Seconds(), attrs)
}

// RecordAttack counts an attack resolution
func (m *Metrics) RecordAttack(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.CombatAttacks.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
