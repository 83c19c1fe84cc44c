package metrics

import (
	"context"
	"time"
)

// Recorder fans generation events out to Prometheus, Sentry and CloudWatch.
// A nil *Recorder records nothing.
type Recorder struct {
	prom       *Metrics
	sentry     *SentryMetrics
	cloudwatch *CloudWatch
}

func NewRecorder(cw *CloudWatch) *Recorder {
	return &Recorder{
		prom:       Initialize(),
		sentry:     NewSentryMetrics(),
		cloudwatch: cw,
	}
}

// Generation records one part generation. source is the model name or "rules".
func (r *Recorder) Generation(ctx context.Context, kind, source string, duration time.Duration, success bool) {
	if r == nil {
		return
	}
	r.sentry.RecordGenerationDuration(ctx, kind, source, duration, success)
	r.cloudwatch.RecordGeneration(kind, source, duration, success)
}

// Fallback records that a model failure was answered by the rule-based generator.
func (r *Recorder) Fallback(ctx context.Context, kind, model, reason string) {
	if r == nil {
		return
	}
	r.prom.ObserveFallback(kind)
	r.sentry.RecordFallback(ctx, kind, model, reason)
	r.cloudwatch.RecordFallback(kind)
}

// MIDI records one written file.
func (r *Recorder) MIDI(size int) {
	if r == nil {
		return
	}
	r.prom.ObserveMIDI(size)
}
