package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type (
	Orders struct {
		Table string `validate:"required"`
	}

	Notify struct {
		QueueURL   string        `validate:"omitempty,url"`
		MaxElapsed time.Duration `validate:"gt=0"`
	}

	Metrics struct {
		Enabled   bool
		Namespace string `validate:"required"`
	}

	Server struct {
		RunLocal bool
		Addr     string `validate:"required"`
	}

	Config struct {
		Orders   Orders
		Notify   Notify
		Metrics  Metrics
		Server   Server
		LogLevel string `validate:"oneof=debug info warn error"`
	}
)

const (
	defaultNotifyMaxElapsed = 2 * time.Second
	defaultMetricsNamespace = "OrderIntake"
	defaultAddr             = ":8080"
	defaultLogLevel         = "info"
)

// Load reads configuration from the environment, after applying a .env file if
// one exists in the working directory.
func Load() (*Config, error) {
	if err := loadDotenv(); err != nil {
		return nil, fmt.Errorf("dotenv: %w", err)
	}

	cfg, err := loadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("environment loading: %w", err)
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("validation: %w", err)
	}
	return cfg, nil
}

func loadDotenv() error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func loadFromEnv() (*Config, error) {
	maxElapsed, err := osGetEnvDuration("NOTIFY_MAX_ELAPSED", defaultNotifyMaxElapsed)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	metricsEnabled, err := osGetBool("METRICS_ENABLED", true)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	runLocal, err := osGetBool("RUN_LOCAL", false)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	return &Config{
		Orders: Orders{
			Table: os.Getenv("ORDERS_TABLE"),
		},
		Notify: Notify{
			QueueURL:   os.Getenv("ORDERS_QUEUE_URL"),
			MaxElapsed: maxElapsed,
		},
		Metrics: Metrics{
			Enabled:   metricsEnabled,
			Namespace: osGetString("METRICS_NAMESPACE", defaultMetricsNamespace),
		},
		Server: Server{
			RunLocal: runLocal,
			Addr:     osGetString("HTTP_ADDR", defaultAddr),
		},
		LogLevel: strings.ToLower(osGetString("LOG_LEVEL", defaultLogLevel)),
	}, nil
}

var envNames = map[string]string{
	"Config.Orders.Table":      "ORDERS_TABLE",
	"Config.Notify.QueueURL":   "ORDERS_QUEUE_URL",
	"Config.Notify.MaxElapsed": "NOTIFY_MAX_ELAPSED",
	"Config.Metrics.Namespace": "METRICS_NAMESPACE",
	"Config.Server.Addr":       "HTTP_ADDR",
	"Config.LogLevel":          "LOG_LEVEL",
}

func validateConfig(cfg *Config) error {
	err := validatorv10.New().Struct(cfg)
	if err == nil {
		return nil
	}

	var ve validatorv10.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	fe := ve[0]
	name, ok := envNames[fe.StructNamespace()]
	if !ok {
		name = fe.StructNamespace()
	}
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", name)
	default:
		return fmt.Errorf("%s is invalid (%s)", name, fe.Tag())
	}
}

func osGetString(s, def string) string {
	if val := os.Getenv(s); val != "" {
		return val
	}
	return def
}

func osGetEnvDuration(s string, def time.Duration) (time.Duration, error) {
	val := os.Getenv(s)
	if val == "" {
		return def, nil
	}

	res, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid duration format for %s=%q: %w", s, val, err)
	}
	return res, nil
}

func osGetBool(s string, def bool) (bool, error) {
	val := os.Getenv(s)
	if val == "" {
		return def, nil
	}

	res, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("invalid bool format for %s=%q: %w", s, val, err)
	}
	return res, nil
}
