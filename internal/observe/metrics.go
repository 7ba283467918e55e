// SPDX-License-Identifier: EPL-2.0

// Package observe holds the OpenTelemetry instruments recorded by the
// pipeline and the Prometheus exporter bridge used by the command line.
//
// Tests should build a [Metrics] with [NewMetrics] over their own
// [metric.MeterProvider]; a nil *Metrics records nothing.
package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/ik5/audload"

// Metrics holds every instrument. The OTel types synchronise themselves, so a
// Metrics may be shared by all workers.
type Metrics struct {
	// BatchDuration is the wall time of one graph execution.
	BatchDuration metric.Float64Histogram

	// StageDuration is the time one stage spent on one sample. Use with
	//   attribute.String("stage", ...)
	StageDuration metric.Float64Histogram

	// Batches counts completed graph executions.
	Batches metric.Int64Counter

	// Samples counts processed batch slots, including padding.
	Samples metric.Int64Counter

	// DecodeFailures counts samples flagged invalid.
	DecodeFailures metric.Int64Counter

	// Epochs counts reader resets.
	Epochs metric.Int64Counter
}

// batchBuckets are in seconds; decoding a batch of long clips can take a
// while on one thread.
var batchBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

var stageBuckets = []float64{
	0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1,
}

// NewMetrics creates every instrument from mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.BatchDuration, err = m.Float64Histogram("audload.batch.duration",
		metric.WithDescription("Wall time of one pipeline run."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(batchBuckets...),
	); err != nil {
		return nil, err
	}
	if met.StageDuration, err = m.Float64Histogram("audload.stage.duration",
		metric.WithDescription("Time spent by one stage on one sample."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(stageBuckets...),
	); err != nil {
		return nil, err
	}

	if met.Batches, err = m.Int64Counter("audload.batches",
		metric.WithDescription("Completed pipeline runs."),
	); err != nil {
		return nil, err
	}
	if met.Samples, err = m.Int64Counter("audload.samples",
		metric.WithDescription("Batch slots processed, padding included."),
	); err != nil {
		return nil, err
	}
	if met.DecodeFailures, err = m.Int64Counter("audload.decode.failures",
		metric.WithDescription("Samples flagged invalid after a decode error."),
	); err != nil {
		return nil, err
	}
	if met.Epochs, err = m.Int64Counter("audload.epochs",
		metric.WithDescription("Reader resets."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// RecordBatch records one run of samples slots, failures of which were
// invalid.
func (m *Metrics) RecordBatch(ctx context.Context, d time.Duration, samples, failures int) {
	if m == nil {
		return
	}
	m.BatchDuration.Record(ctx, d.Seconds())
	m.Batches.Add(ctx, 1)
	m.Samples.Add(ctx, int64(samples))
	if failures > 0 {
		m.DecodeFailures.Add(ctx, int64(failures))
	}
}

// RecordStage records one stage execution for one sample.
func (m *Metrics) RecordStage(ctx context.Context, stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("stage", stage)))
}

// RecordEpoch records a reader reset.
func (m *Metrics) RecordEpoch(ctx context.Context) {
	if m == nil {
		return
	}
	m.Epochs.Add(ctx, 1)
}
