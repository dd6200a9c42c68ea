package renderer

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records the SimpleRenderer's per-frame counters through an
// OpenTelemetry meter, following itsManjeet-exp's event/otel/meter.go
// wiring (metric.Must(meter).NewXxx(...)) rather than a bespoke counter
// struct. A nil *Metrics is valid and simply drops every recording, so
// NewSimpleRenderer can default to no metrics without a separate no-op type.
type Metrics struct {
	frameTime    metric.Int64ValueRecorder
	drawCalls    metric.Int64Counter
	ringOverflow metric.Int64Counter
}

// NewMetrics registers the renderer's instruments against meter.
func NewMetrics(meter metric.Meter) *Metrics {
	must := metric.Must(meter)
	return &Metrics{
		frameTime:    must.NewInt64ValueRecorder("renderer.frame_time_ns"),
		drawCalls:    must.NewInt64Counter("renderer.draw_calls"),
		ringOverflow: must.NewInt64Counter("renderer.ring_buffer_overflow"),
	}
}

func (m *Metrics) recordFrameTime(ctx context.Context, dt time.Duration) {
	if m == nil {
		return
	}
	m.frameTime.Record(ctx, dt.Nanoseconds())
}

func (m *Metrics) recordDrawCall(ctx context.Context) {
	if m == nil {
		return
	}
	m.drawCalls.Add(ctx, 1)
}

func (m *Metrics) recordRingOverflow(ctx context.Context, ring string) {
	if m == nil {
		return
	}
	m.ringOverflow.Add(ctx, 1, attribute.String("ring", ring))
}
