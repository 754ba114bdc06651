package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"

	internalaws "github.com/imrishuroy/order-intake/internal/aws"
)

const (
	metricSubmitted = "OrdersSubmitted"
	metricFailures  = "OrderFailures"

	publishTimeout = time.Second

	// PutMetricData accepts at most this many datums per call.
	maxDatumsPerPut = 1000
)

// CloudWatch buffers data points and publishes them with PutMetricData on
// Flush. Publish errors are logged and dropped.
type CloudWatch struct {
	client    internalaws.CloudWatchAPI
	namespace string
	log       *zap.Logger
	nowFunc   func() time.Time

	mu      sync.Mutex
	pending []cwtypes.MetricDatum
}

func NewCloudWatch(client internalaws.CloudWatchAPI, namespace string, log *zap.Logger) *CloudWatch {
	return &CloudWatch{
		client:    client,
		namespace: namespace,
		log:       log,
		nowFunc:   time.Now,
	}
}

func (c *CloudWatch) Submitted() {
	c.add(cwtypes.MetricDatum{
		MetricName: aws.String(metricSubmitted),
		Unit:       cwtypes.StandardUnitCount,
		Value:      aws.Float64(1),
		Timestamp:  aws.Time(c.nowFunc()),
	})
}

func (c *CloudWatch) Failed(reason string) {
	c.add(cwtypes.MetricDatum{
		MetricName: aws.String(metricFailures),
		Unit:       cwtypes.StandardUnitCount,
		Value:      aws.Float64(1),
		Timestamp:  aws.Time(c.nowFunc()),
		Dimensions: []cwtypes.Dimension{
			{Name: aws.String("Reason"), Value: aws.String(reason)},
		},
	})
}

func (c *CloudWatch) add(datum cwtypes.MetricDatum) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, datum)
}

// Flush sends the buffered datums. It runs even when ctx is already canceled,
// bounded by its own short timeout.
func (c *CloudWatch) Flush(ctx context.Context) {
	c.mu.Lock()
	data := c.pending
	c.pending = nil
	c.mu.Unlock()

	if len(data) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	for len(data) > 0 {
		n := min(len(data), maxDatumsPerPut)
		_, err := c.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(c.namespace),
			MetricData: data[:n],
		})
		if err != nil {
			c.log.Warn("put metric data",
				zap.Int("datums", n),
				zap.Error(err),
			)
		}
		data = data[n:]
	}
}
