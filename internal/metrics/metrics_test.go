package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var (
	_ Recorder = Nop{}
	_ Recorder = (*Registry)(nil)
	_ Recorder = (*CloudWatch)(nil)
)

type mockCloudWatch struct {
	mu     sync.Mutex
	inputs []*cloudwatch.PutMetricDataInput
	ctxErr error
	err    error
}

func (m *mockCloudWatch) PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs = append(m.inputs, params)
	m.ctxErr = ctx.Err()
	if m.err != nil {
		return nil, m.err
	}
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func TestRegistry_Counts(t *testing.T) {
	r := NewRegistry()

	r.Submitted()
	r.Submitted()
	r.Failed(ReasonInvalidPayload)
	r.Flush(context.Background())

	assert.Equal(t, float64(2), testutil.ToFloat64(r.submitted))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.failures.WithLabelValues(ReasonInvalidPayload)))
	assert.Equal(t, float64(0), testutil.ToFloat64(r.failures.WithLabelValues(ReasonStoreFailed)))

	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "order_intake_submitted_total 2")
	assert.Contains(t, w.Body.String(), `order_intake_failures_total{reason="invalid_payload"} 1`)
}

func TestCloudWatch_FlushBatches(t *testing.T) {
	mock := &mockCloudWatch{}
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	cw := NewCloudWatch(mock, "OrderIntake", zap.NewNop())
	cw.nowFunc = func() time.Time { return now }

	cw.Submitted()
	cw.Failed(ReasonStoreFailed)
	assert.Empty(t, mock.inputs, "nothing is sent before Flush")

	cw.Flush(context.Background())

	require.Len(t, mock.inputs, 1)
	in := mock.inputs[0]
	assert.Equal(t, "OrderIntake", aws.ToString(in.Namespace))
	require.Len(t, in.MetricData, 2)

	first := in.MetricData[0]
	assert.Equal(t, "OrdersSubmitted", aws.ToString(first.MetricName))
	assert.Equal(t, float64(1), aws.ToFloat64(first.Value))
	assert.Equal(t, now, aws.ToTime(first.Timestamp))

	second := in.MetricData[1]
	assert.Equal(t, "OrderFailures", aws.ToString(second.MetricName))
	require.Len(t, second.Dimensions, 1)
	assert.Equal(t, "Reason", aws.ToString(second.Dimensions[0].Name))
	assert.Equal(t, ReasonStoreFailed, aws.ToString(second.Dimensions[0].Value))

	// buffer is drained
	cw.Flush(context.Background())
	assert.Len(t, mock.inputs, 1)
}

func TestCloudWatch_FlushEmptyIsNoop(t *testing.T) {
	mock := &mockCloudWatch{}
	cw := NewCloudWatch(mock, "OrderIntake", zap.NewNop())

	cw.Flush(context.Background())
	assert.Empty(t, mock.inputs)
}

func TestCloudWatch_FlushSplitsLargeBatches(t *testing.T) {
	mock := &mockCloudWatch{}
	cw := NewCloudWatch(mock, "OrderIntake", zap.NewNop())

	for i := 0; i < maxDatumsPerPut+1; i++ {
		cw.Submitted()
	}
	cw.Flush(context.Background())

	require.Len(t, mock.inputs, 2)
	assert.Len(t, mock.inputs[0].MetricData, maxDatumsPerPut)
	assert.Len(t, mock.inputs[1].MetricData, 1)
}

func TestCloudWatch_FlushIgnoresCanceledRequest(t *testing.T) {
	mock := &mockCloudWatch{}
	cw := NewCloudWatch(mock, "OrderIntake", zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cw.Submitted()
	cw.Flush(ctx)

	require.Len(t, mock.inputs, 1)
	assert.NoError(t, mock.ctxErr)
}

func TestCloudWatch_ErrorIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	mock := &mockCloudWatch{err: errors.New("access denied")}
	cw := NewCloudWatch(mock, "OrderIntake", zap.New(core))

	cw.Submitted()
	cw.Failed(ReasonInvalidPayload)
	cw.Flush(context.Background())

	entries := logs.FilterMessage("put metric data").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(2), entries[0].ContextMap()["datums"])
}
