package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/aws/smithy-go"
	"github.com/cenkalti/backoff/v4"

	"github.com/imrishuroy/order-intake/internal/aws"
)

// Submission is the "order submitted" event read by the inventory check stage.
type Submission struct {
	OrderID       string    `json:"order_id"`
	CustomerName  string    `json:"customer_name"`
	Items         []*string `json:"items"`
	CorrelationID string    `json:"-"`
}

// Notifier announces stored orders.
type Notifier interface {
	Notify(ctx context.Context, s Submission) error
}

// Nop is used when no queue is configured.
type Nop struct{}

func (Nop) Notify(context.Context, Submission) error { return nil }

// RetryConfig bounds the exponential backoff around SendMessage.
type RetryConfig struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

// DefaultRetryConfig returns the retry settings for a total budget of maxElapsed.
func DefaultRetryConfig(maxElapsed time.Duration) RetryConfig {
	return RetryConfig{
		InitialInterval: 50 * time.Millisecond,
		MaxInterval:     500 * time.Millisecond,
		MaxElapsedTime:  maxElapsed,
	}
}

// SQSNotifier wraps an SQS client and a queue URL.
type SQSNotifier struct {
	SQS      aws.SQSAPI
	QueueURL string
	retry    RetryConfig
}

// NewSQSNotifier returns a notifier bound to a queue URL.
func NewSQSNotifier(sqsClient aws.SQSAPI, queueURL string, retry RetryConfig) (*SQSNotifier, error) {
	if sqsClient == nil {
		return nil, errors.New("sqs client is required")
	}
	if queueURL == "" {
		return nil, errors.New("queue url is required")
	}
	return &SQSNotifier{
		SQS:      sqsClient,
		QueueURL: queueURL,
		retry:    retry,
	}, nil
}

// Notify sends the submission as a JSON message, retrying transient failures
// until the retry budget or the context runs out.
func (n *SQSNotifier) Notify(ctx context.Context, s Submission) error {
	body, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}
	messageBody := string(body)

	input := &sqs.SendMessageInput{
		QueueUrl:          &n.QueueURL,
		MessageBody:       &messageBody,
		MessageAttributes: messageAttributes(s),
	}

	b := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(n.retry.InitialInterval),
		backoff.WithMaxInterval(n.retry.MaxInterval),
		backoff.WithMaxElapsedTime(n.retry.MaxElapsedTime),
	)

	operation := func() error {
		_, err := n.SQS.SendMessage(ctx, input)
		if err != nil && (ctx.Err() != nil || isPermanent(err)) {
			return backoff.Permanent(err)
		}
		return err
	}

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// permanentCodes are SQS errors that a resend cannot fix.
var permanentCodes = map[string]bool{
	"QueueDoesNotExist":                       true,
	"AWS.SimpleQueueService.NonExistentQueue": true,
	"InvalidParameterValue":                   true,
	"InvalidAddress":                          true,
	"InvalidSecurity":                         true,
	"AccessDenied":                            true,
	"AccessDeniedException":                   true,
}

func isPermanent(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && permanentCodes[apiErr.ErrorCode()]
}

func messageAttributes(s Submission) map[string]sqstypes.MessageAttributeValue {
	attrs := map[string]string{
		"order_id":       s.OrderID,
		"correlation_id": s.CorrelationID,
	}
	out := make(map[string]sqstypes.MessageAttributeValue, len(attrs))
	for k, v := range attrs {
		if v == "" {
			// SQS rejects empty attribute values
			continue
		}
		out[k] = sqstypes.MessageAttributeValue{
			DataType:    awsString("String"),
			StringValue: awsString(v),
		}
	}
	return out
}

func awsString(s string) *string { return &s }
