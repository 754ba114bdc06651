package intake

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/imrishuroy/order-intake/internal/metrics"
	"github.com/imrishuroy/order-intake/internal/notify"
	"github.com/imrishuroy/order-intake/internal/orders"
)

var (
	// ErrInvalidPayload wraps any failure to decode the request body.
	ErrInvalidPayload = errors.New("invalid order payload")
	// ErrStoreFailed wraps any failure to persist the record.
	ErrStoreFailed = errors.New("failed to store order")
)

const unknownCustomer = "Unknown"

// RecordWriter persists a single order record.
type RecordWriter interface {
	Put(ctx context.Context, rec orders.OrderRecord) error
}

// Service turns a submitted payload into exactly one stored OrderRecord.
type Service struct {
	store    RecordWriter
	notifier notify.Notifier
	metrics  metrics.Recorder
	log      *zap.Logger
	newID    func() string
	nowFunc  func() time.Time
}

type Option func(*Service)

func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithMetrics(r metrics.Recorder) Option {
	return func(s *Service) { s.metrics = r }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.log = l }
}

func WithIDGenerator(f func() string) Option {
	return func(s *Service) { s.newID = f }
}

func WithClock(f func() time.Time) Option {
	return func(s *Service) { s.nowFunc = f }
}

func NewService(store RecordWriter, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("record writer is required")
	}
	s := &Service{
		store:    store,
		notifier: notify.Nop{},
		metrics:  metrics.Nop{},
		log:      zap.NewNop(),
		newID:    uuid.NewString,
		nowFunc:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Submit decodes body, writes one new record and announces it. The returned
// error wraps ErrInvalidPayload or ErrStoreFailed. A notification failure is
// logged only, since the record is already stored.
func (s *Service) Submit(ctx context.Context, body []byte, correlationID string) (orders.OrderRecord, error) {
	order, err := decodeOrder(body)
	if err != nil {
		s.metrics.Failed(metrics.ReasonInvalidPayload)
		return orders.OrderRecord{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	rec, err := orders.NewRecord(s.newID(), order, s.nowFunc())
	if err != nil {
		s.metrics.Failed(metrics.ReasonInvalidPayload)
		return orders.OrderRecord{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	if err := s.store.Put(ctx, rec); err != nil {
		s.metrics.Failed(metrics.ReasonStoreFailed)
		return orders.OrderRecord{}, fmt.Errorf("%w: %w", ErrStoreFailed, err)
	}
	s.metrics.Submitted()

	s.log.Info("order stored",
		zap.String("order_id", rec.OrderID),
		zap.String("request_id", correlationID),
		zap.Int("items", len(order.Items)),
	)

	if err := s.notifier.Notify(ctx, submissionFor(rec, order, correlationID)); err != nil {
		s.metrics.Failed(metrics.ReasonNotifyFailed)
		s.log.Error("notify order submitted",
			zap.String("order_id", rec.OrderID),
			zap.String("request_id", correlationID),
			zap.Error(err),
		)
	}

	return rec, nil
}

// decodeOrder accepts a JSON object or a literal null. Trailing data after the
// first value is rejected.
func decodeOrder(body []byte) (orders.Order, error) {
	var order orders.Order
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&order); err != nil {
		return orders.Order{}, err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return orders.Order{}, errors.New("unexpected data after order object")
	}
	return order, nil
}

func submissionFor(rec orders.OrderRecord, order orders.Order, correlationID string) notify.Submission {
	name := unknownCustomer
	if order.CustomerName != nil {
		name = *order.CustomerName
	}
	return notify.Submission{
		OrderID:       rec.OrderID,
		CustomerName:  name,
		Items:         order.Items,
		CorrelationID: correlationID,
	}
}
