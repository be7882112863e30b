package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/skillcoder/asyncrt/internal/infra/timer"
)

type Config struct {
	LogLevel          string        `validate:"oneof=debug info warn error"`
	LogFormat         string        `validate:"oneof=json text"`
	LogFile           string        `validate:"omitempty,filepath"`
	HTTPPort          string        `validate:"required,numeric"`
	MetricsPort       string        `validate:"required,numeric"`
	EchoAddr          string        `validate:"omitempty,hostname_port"`
	WorkerPoolSize    int           `validate:"min=1,max=4096"`
	ShutdownTimeout   time.Duration `validate:"required"`
	PingerInterval    time.Duration `validate:"required"`
	HeartbeatSchedule string
	HeartbeatTZ       string `validate:"omitempty,timezone"`
}

func Load() (*Config, error) {
	if path := os.Getenv(envKeyEnvFile); path != "" {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", path, err)
		}
	}

	cfg := &Config{
		LogLevel:          getEnvOrDefault(envKeyLogLevel, "info"),
		LogFormat:         getEnvOrDefault(envKeyLogFormat, "json"),
		LogFile:           os.Getenv(envKeyLogFile),
		HTTPPort:          getEnvOrDefault(envKeyHTTPPort, "8080"),
		MetricsPort:       getEnvOrDefault(envKeyMetricsPort, "9090"),
		EchoAddr:          getOptionalEnv(envKeyEchoAddr, ":7000"),
		HeartbeatSchedule: getOptionalEnv(envKeyHeartbeatSchedule, "* * * * *"),
		HeartbeatTZ:       os.Getenv(envKeyHeartbeatTZ),
	}

	poolSize, err := strconv.Atoi(getEnvOrDefault(envKeyWorkerPoolSize, "20"))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", envKeyWorkerPoolSize, err)
	}

	cfg.WorkerPoolSize = poolSize

	cfg.ShutdownTimeout, err = parseDuration(envKeyShutdownTimeout, "30s", envMinShutdownTimeout)
	if err != nil {
		return nil, err
	}

	cfg.PingerInterval, err = parseDuration(envKeyPingerInterval, "5s", envMinPingerInterval)
	if err != nil {
		return nil, err
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if cfg.HeartbeatSchedule != "" {
		if _, err := timer.NextAfter(cfg.HeartbeatSchedule, cfg.HeartbeatTZ, time.Now()); err != nil {
			return nil, fmt.Errorf("parse %s: %w", envKeyHeartbeatSchedule, err)
		}
	}

	return cfg, nil
}

func parseDuration(key, defaultValue string, minValue time.Duration) (time.Duration, error) {
	raw := getEnvOrDefault(key, defaultValue)

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}

	if d < minValue {
		return 0, fmt.Errorf("%s must be at least %s, got %s", key, minValue, d)
	}

	return d, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	return value
}

// getOptionalEnv is getEnvOrDefault with "off" mapped to an empty value.
func getOptionalEnv(key, defaultValue string) string {
	value := getEnvOrDefault(key, defaultValue)
	if value == envValueOff {
		return ""
	}

	return value
}
