package main

import (
	"context"
	"log"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imrishuroy/order-intake/internal/aws"
	"github.com/imrishuroy/order-intake/internal/config"
	"github.com/imrishuroy/order-intake/internal/handlers"
	"github.com/imrishuroy/order-intake/internal/logging"
	"github.com/imrishuroy/order-intake/internal/metrics"
	"github.com/imrishuroy/order-intake/internal/notify"
)

func setupRouter(h *handlers.Handler, logger *zap.Logger, metricsHandler http.Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logging.Middleware(logger))

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if metricsHandler != nil {
		r.GET("/metrics", gin.WrapH(metricsHandler))
	}

	h.Register(r)

	return r
}

func newRecorder(cfg *config.Config, clients *aws.AWSClients, logger *zap.Logger) (metrics.Recorder, http.Handler) {
	switch {
	case !cfg.Metrics.Enabled:
		return metrics.Nop{}, nil
	case cfg.Server.RunLocal:
		reg := metrics.NewRegistry()
		return reg, reg.Handler()
	default:
		return metrics.NewCloudWatch(clients.CloudWatch, cfg.Metrics.Namespace, logger), nil
	}
}

func newNotifier(cfg *config.Config, clients *aws.AWSClients) (notify.Notifier, error) {
	if cfg.Notify.QueueURL == "" {
		return notify.Nop{}, nil
	}
	return notify.NewSQSNotifier(clients.SQS, cfg.Notify.QueueURL, notify.DefaultRetryConfig(cfg.Notify.MaxElapsed))
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	clients, err := aws.NewAWSClients(context.Background())
	if err != nil {
		logger.Fatal("failed to init aws clients", zap.Error(err))
	}

	notifier, err := newNotifier(cfg, clients)
	if err != nil {
		logger.Fatal("failed to init notifier", zap.Error(err))
	}
	recorder, metricsHandler := newRecorder(cfg, clients, logger)

	h, err := handlers.New(handlers.HandlerConfig{
		DynamoDBClient: clients.DynamoDB,
		OrdersTable:    cfg.Orders.Table,
		Notifier:       notifier,
		Metrics:        recorder,
		Logger:         logger,
	})
	if err != nil {
		logger.Fatal("failed to init orders handler", zap.Error(err))
	}

	r := setupRouter(h, logger, metricsHandler)

	// if RUN_LOCAL is set, run a local HTTP server for development.
	if cfg.Server.RunLocal {
		logger.Info("running local server", zap.String("addr", cfg.Server.Addr))
		if err := r.Run(cfg.Server.Addr); err != nil {
			logger.Fatal("failed to run local server", zap.Error(err))
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
