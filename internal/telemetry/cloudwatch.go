// Package telemetry records API and business metrics for StreetPlan:
// request latency and counts to CloudWatch, and business counters exposed
// to Prometheus on /metrics.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"streetplan/internal/types"
)

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// maxDatumsPerCall stays well under the PutMetricData per-request limit.
const maxDatumsPerCall = 500

// CloudWatchCollector buffers request metrics in memory and ships them to
// CloudWatch in batches, so the request path never waits on AWS.
//
// Metrics emitted per request:
//   - APILatency (ms): Dims {Endpoint, Method, StatusClass}
//   - APIRequestCount: Dims {Endpoint, Method, StatusClass}
type CloudWatchCollector struct {
	client    CloudWatchClient
	namespace string
	logger    *slog.Logger

	mu     sync.Mutex
	buffer []cwtypes.MetricDatum
	now    func() time.Time
}

// NewCloudWatchCollector creates a collector publishing to namespace. An
// empty namespace falls back to types.MetricNamespace.
func NewCloudWatchCollector(client CloudWatchClient, namespace string, logger *slog.Logger) *CloudWatchCollector {
	if namespace == "" {
		namespace = types.MetricNamespace
	}
	return &CloudWatchCollector{
		client:    client,
		namespace: namespace,
		logger:    logger,
		now:       time.Now,
	}
}

// RecordRequest implements core.MetricsCollector.
func (c *CloudWatchCollector) RecordRequest(method, endpoint, status string, duration time.Duration) {
	dims := []cwtypes.Dimension{
		{Name: aws.String(types.DimEndpoint), Value: aws.String(endpoint)},
		{Name: aws.String(types.DimMethod), Value: aws.String(method)},
		{Name: aws.String(types.DimStatus), Value: aws.String(statusClass(status))},
	}
	ts := c.now()

	c.mu.Lock()
	c.buffer = append(c.buffer,
		cwtypes.MetricDatum{
			MetricName: aws.String(types.MetricAPILatency),
			Value:      aws.Float64(float64(duration.Milliseconds())),
			Unit:       cwtypes.StandardUnitMilliseconds,
			Dimensions: dims,
			Timestamp:  aws.Time(ts),
		},
		cwtypes.MetricDatum{
			MetricName: aws.String(types.MetricAPIRequestCount),
			Value:      aws.Float64(1),
			Unit:       cwtypes.StandardUnitCount,
			Dimensions: dims,
			Timestamp:  aws.Time(ts),
		},
	)
	c.mu.Unlock()
}

// Flush sends every buffered datum. Data of a failed call is dropped and the
// first error is returned after all batches were attempted.
func (c *CloudWatchCollector) Flush(ctx context.Context) error {
	c.mu.Lock()
	pending := c.buffer
	c.buffer = nil
	c.mu.Unlock()

	var firstErr error
	for start := 0; start < len(pending); start += maxDatumsPerCall {
		end := min(start+maxDatumsPerCall, len(pending))
		_, err := c.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(c.namespace),
			MetricData: pending[start:end],
		})
		if err != nil {
			c.logger.Error("failed to publish API metrics",
				"error", err.Error(),
				"datums", end-start,
			)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Run flushes every interval until ctx is done, then performs a final flush
// with a short grace period.
func (c *CloudWatchCollector) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = c.Flush(ctx)
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			_ = c.Flush(flushCtx)
			cancel()
			return
		}
	}
}

// pending reports the number of buffered datums.
func (c *CloudWatchCollector) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buffer)
}

// statusClass folds an HTTP status code into "2xx", "4xx", ...
func statusClass(status string) string {
	if len(status) != 3 || status[0] < '1' || status[0] > '5' {
		return "unknown"
	}
	return status[:1] + "xx"
}
