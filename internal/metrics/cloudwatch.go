package metrics

import (
	"context"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

const (
	namespace                = "Merlai/Generation"
	cloudwatchTimeoutSeconds = 5
)

// metricPutter is the subset of the CloudWatch client used here.
type metricPutter interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatch publishes generation metrics. It is disabled outside production.
type CloudWatch struct {
	client      metricPutter
	enabled     bool
	environment string
}

// NewCloudWatch creates a CloudWatch publisher for the given environment
func NewCloudWatch(ctx context.Context, environment string) *CloudWatch {
	if environment != "production" {
		log.Printf("📊 CloudWatch Metrics: DISABLED (environment: %s)", environment)
		return &CloudWatch{enabled: false, environment: environment}
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		log.Printf("⚠️  Failed to load AWS config for CloudWatch: %v", err)
		return &CloudWatch{enabled: false, environment: environment}
	}

	log.Printf("📊 CloudWatch Metrics: ✅ ENABLED (namespace: %s)", namespace)
	return &CloudWatch{
		client:      cloudwatch.NewFromConfig(cfg),
		enabled:     true,
		environment: environment,
	}
}

// Enabled reports whether metrics are being published.
func (m *CloudWatch) Enabled() bool {
	return m != nil && m.enabled && m.client != nil
}

// RecordGeneration records one part generation asynchronously
func (m *CloudWatch) RecordGeneration(kind, source string, duration time.Duration, success bool) {
	if !m.Enabled() {
		return
	}

	go func() {
		dimensions := []types.Dimension{
			{Name: aws.String("Kind"), Value: aws.String(kind)},
			{Name: aws.String("Source"), Value: aws.String(source)},
			{Name: aws.String("Success"), Value: aws.String(boolToString(success))},
			{Name: aws.String("Environment"), Value: aws.String(m.environment)},
		}

		durationMs := float64(duration.Milliseconds())
		if err := m.putMetric("GenerationDuration", durationMs, types.StandardUnitMilliseconds, dimensions); err != nil {
			log.Printf("Failed to record GenerationDuration metric: %v", err)
		}
	}()
}

// RecordFallback records a degraded generation asynchronously
func (m *CloudWatch) RecordFallback(kind string) {
	if !m.Enabled() {
		return
	}

	go func() {
		dimensions := []types.Dimension{
			{Name: aws.String("Kind"), Value: aws.String(kind)},
			{Name: aws.String("Environment"), Value: aws.String(m.environment)},
		}
		if err := m.putMetric("Fallbacks", 1, types.StandardUnitCount, dimensions); err != nil {
			log.Printf("Failed to record Fallbacks metric: %v", err)
		}
	}()
}

// putMetric sends a metric to CloudWatch
func (m *CloudWatch) putMetric(metricName string, value float64, unit types.StandardUnit, dimensions []types.Dimension) error {
	timeout := time.Duration(cloudwatchTimeoutSeconds) * time.Second
	cwCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	_, err := m.client.PutMetricData(cwCtx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(namespace),
		MetricData: []types.MetricDatum{
			{
				MetricName: aws.String(metricName),
				Value:      aws.Float64(value),
				Unit:       unit,
				Timestamp:  aws.Time(time.Now()),
				Dimensions: dimensions,
			},
		},
	})

	return err
}

func boolToString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
