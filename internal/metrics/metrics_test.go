package metrics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	mu    sync.Mutex
	names []string
	done  chan struct{}
}

func (f *fakePutter) PutMetricData(_ context.Context, in *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.mu.Lock()
	f.names = append(f.names, *in.MetricData[0].MetricName)
	f.mu.Unlock()
	f.done <- struct{}{}
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func TestInitializeIsSingleton(t *testing.T) {
	assert.Same(t, Initialize(), Get())
}

func TestObserveGeneration(t *testing.T) {
	m := Get()
	before := testutil.ToFloat64(m.GenerationRequestsTotal.WithLabelValues("harmony", "test-model", "true"))

	m.ObserveGeneration("harmony", "test-model", true, 10*time.Millisecond)

	after := testutil.ToFloat64(m.GenerationRequestsTotal.WithLabelValues("harmony", "test-model", "true"))
	assert.Equal(t, before+1, after)
}

func TestRecorderFallback(t *testing.T) {
	r := NewRecorder(&CloudWatch{enabled: false})
	before := testutil.ToFloat64(Get().FallbacksTotal.WithLabelValues("drums"))

	r.Fallback(context.Background(), "drums", "remote", "connection refused")
	r.Generation(context.Background(), "drums", "rules", time.Millisecond, true)

	assert.Equal(t, before+1, testutil.ToFloat64(Get().FallbacksTotal.WithLabelValues("drums")))
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.Fallback(context.Background(), "bass", "", "")
		r.Generation(context.Background(), "bass", "rules", 0, true)
		r.MIDI(10)
	})
}

func TestCloudWatchDisabledOutsideProduction(t *testing.T) {
	cw := NewCloudWatch(context.Background(), "development")
	assert.False(t, cw.Enabled())
	assert.NotPanics(t, func() { cw.RecordFallback("harmony") })
}

func TestCloudWatchPublishes(t *testing.T) {
	fake := &fakePutter{done: make(chan struct{}, 2)}
	cw := &CloudWatch{client: fake, enabled: true, environment: "production"}

	cw.RecordFallback("harmony")
	cw.RecordGeneration("harmony", "rules", time.Millisecond, true)

	for i := 0; i < 2; i++ {
		select {
		case <-fake.done:
		case <-time.After(time.Second):
			t.Fatal("metric was not published")
		}
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.Len(t, fake.names, 2)
	assert.ElementsMatch(t, []string{"Fallbacks", "GenerationDuration"}, fake.names)
}
