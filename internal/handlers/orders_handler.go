package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imrishuroy/order-intake/internal/aws"
	"github.com/imrishuroy/order-intake/internal/intake"
	"github.com/imrishuroy/order-intake/internal/logging"
	"github.com/imrishuroy/order-intake/internal/metrics"
	"github.com/imrishuroy/order-intake/internal/notify"
	"github.com/imrishuroy/order-intake/internal/orders"
)

const (
	successBody = "Order submitted successfully"

	// maxBodyBytes matches the API Gateway payload limit.
	maxBodyBytes = 10 << 20
)

// HandlerConfig groups dependencies for the orders handler.
type HandlerConfig struct {
	DynamoDBClient aws.DynamoDBAPI
	OrdersTable    string
	Notifier       notify.Notifier
	Metrics        metrics.Recorder
	Logger         *zap.Logger
}

// Handler serves order submissions.
type Handler struct {
	service *intake.Service
	metrics metrics.Recorder
	log     *zap.Logger
}

// New builds the handler. A missing table name is a configuration error and
// no handler is returned.
func New(cfg HandlerConfig) (*Handler, error) {
	store, err := orders.NewStore(cfg.DynamoDBClient, cfg.OrdersTable)
	if err != nil {
		return nil, fmt.Errorf("orders store: %w", err)
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.Nop{}
	}

	opts := []intake.Option{intake.WithLogger(log), intake.WithMetrics(recorder)}
	if cfg.Notifier != nil {
		opts = append(opts, intake.WithNotifier(cfg.Notifier))
	}

	svc, err := intake.NewService(store, opts...)
	if err != nil {
		return nil, fmt.Errorf("intake service: %w", err)
	}

	return &Handler{
		service: svc,
		metrics: recorder,
		log:     log.With(zap.String("table", store.TableName())),
	}, nil
}

// Register registers routes for the order API.
func (h *Handler) Register(r gin.IRoutes) {
	r.POST("/orders", h.SubmitOrder)
}

// SubmitOrder stores one order. Any failure answers 500 with an opaque message
// and a reference id; the cause is logged under the same id.
func (h *Handler) SubmitOrder(c *gin.Context) {
	ctx := c.Request.Context()
	requestID := logging.RequestID(c)
	defer h.metrics.Flush(ctx)

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		h.metrics.Failed(metrics.ReasonInvalidPayload)
		h.fail(c, requestID, fmt.Errorf("%w: read body: %w", intake.ErrInvalidPayload, err))
		return
	}

	if _, err := h.service.Submit(ctx, body, requestID); err != nil {
		h.fail(c, requestID, err)
		return
	}

	c.String(http.StatusOK, successBody)
}

func (h *Handler) fail(c *gin.Context, requestID string, err error) {
	public := publicMessage(err)
	h.log.Error("submit order",
		zap.String("request_id", requestID),
		zap.String("reason", public),
		zap.Error(err),
	)
	c.String(http.StatusInternalServerError, "Error:%s (ref %s)", public, requestID)
}

func publicMessage(err error) string {
	switch {
	case errors.Is(err, intake.ErrInvalidPayload):
		return intake.ErrInvalidPayload.Error()
	case errors.Is(err, intake.ErrStoreFailed):
		return intake.ErrStoreFailed.Error()
	default:
		return "internal error"
	}
}
