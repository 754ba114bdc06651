package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/imrishuroy/order-intake/internal/aws"
	"github.com/imrishuroy/order-intake/internal/config"
	"github.com/imrishuroy/order-intake/internal/handlers"
	"github.com/imrishuroy/order-intake/internal/metrics"
	"github.com/imrishuroy/order-intake/internal/notify"
)

type nopDynamo struct{}

func (nopDynamo) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	return &dyn.PutItemOutput{}, nil
}

func TestSetupRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)

	reg := metrics.NewRegistry()
	h, err := handlers.New(handlers.HandlerConfig{
		DynamoDBClient: nopDynamo{},
		OrdersTable:    "orders",
		Metrics:        reg,
	})
	require.NoError(t, err)

	r := setupRouter(h, zap.NewNop(), reg.Handler())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"CustomerName":"Alice","Items":["sku1"]}`)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Order submitted successfully", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "order_intake_submitted_total 1")
}

func TestNewRecorder(t *testing.T) {
	clients := &aws.AWSClients{}

	rec, handler := newRecorder(&config.Config{Metrics: config.Metrics{Enabled: false}}, clients, zap.NewNop())
	assert.IsType(t, metrics.Nop{}, rec)
	assert.Nil(t, handler)

	rec, handler = newRecorder(&config.Config{
		Metrics: config.Metrics{Enabled: true},
		Server:  config.Server{RunLocal: true},
	}, clients, zap.NewNop())
	assert.IsType(t, &metrics.Registry{}, rec)
	assert.NotNil(t, handler)

	rec, handler = newRecorder(&config.Config{
		Metrics: config.Metrics{Enabled: true, Namespace: "OrderIntake"},
	}, clients, zap.NewNop())
	assert.IsType(t, &metrics.CloudWatch{}, rec)
	assert.Nil(t, handler)
}

func TestNewNotifier(t *testing.T) {
	n, err := newNotifier(&config.Config{}, &aws.AWSClients{})
	require.NoError(t, err)
	assert.IsType(t, notify.Nop{}, n)
}
