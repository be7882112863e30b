package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skillcoder/asyncrt/internal/config"
)

type loadCase struct {
	name    string
	giveEnv map[string]string
	wantErr bool
	wantCfg *config.Config
}

func TestLoad(t *testing.T) {
	tests := []loadCase{
		{
			name:    "all defaults",
			giveEnv: map[string]string{},
			wantCfg: &config.Config{
				LogLevel:          "info",
				LogFormat:         "json",
				HTTPPort:          "8080",
				MetricsPort:       "9090",
				EchoAddr:          ":7000",
				WorkerPoolSize:    20,
				ShutdownTimeout:   30 * time.Second,
				PingerInterval:    5 * time.Second,
				HeartbeatSchedule: "* * * * *",
			},
		},
		{
			name: "overrides",
			giveEnv: map[string]string{
				"ASYNCRT_LOG_LEVEL":          "debug",
				"ASYNCRT_LOG_FORMAT":         "text",
				"ASYNCRT_HTTP_PORT":          "8081",
				"ASYNCRT_METRICS_PORT":       "9091",
				"ASYNCRT_ECHO_ADDR":          "127.0.0.1:7001",
				"ASYNCRT_WORKER_POOL_SIZE":   "8",
				"ASYNCRT_SHUTDOWN_TIMEOUT":   "1m",
				"ASYNCRT_PINGER_INTERVAL":    "2s",
				"ASYNCRT_HEARTBEAT_SCHEDULE": "*/5 * * * *",
				"ASYNCRT_HEARTBEAT_TZ":       "Europe/Berlin",
			},
			wantCfg: &config.Config{
				LogLevel:          "debug",
				LogFormat:         "text",
				HTTPPort:          "8081",
				MetricsPort:       "9091",
				EchoAddr:          "127.0.0.1:7001",
				WorkerPoolSize:    8,
				ShutdownTimeout:   time.Minute,
				PingerInterval:    2 * time.Second,
				HeartbeatSchedule: "*/5 * * * *",
				HeartbeatTZ:       "Europe/Berlin",
			},
		},
		{
			name: "off disables optional components",
			giveEnv: map[string]string{
				"ASYNCRT_ECHO_ADDR":          "off",
				"ASYNCRT_HEARTBEAT_SCHEDULE": "off",
			},
			wantCfg: &config.Config{
				LogLevel:        "info",
				LogFormat:       "json",
				HTTPPort:        "8080",
				MetricsPort:     "9090",
				WorkerPoolSize:  20,
				ShutdownTimeout: 30 * time.Second,
				PingerInterval:  5 * time.Second,
			},
		},
		{
			name:    "invalid log level",
			giveEnv: map[string]string{"ASYNCRT_LOG_LEVEL": "verbose"},
			wantErr: true,
		},
		{
			name:    "invalid log format",
			giveEnv: map[string]string{"ASYNCRT_LOG_FORMAT": "xml"},
			wantErr: true,
		},
		{
			name:    "non-numeric http port",
			giveEnv: map[string]string{"ASYNCRT_HTTP_PORT": "http"},
			wantErr: true,
		},
		{
			name:    "invalid worker pool size",
			giveEnv: map[string]string{"ASYNCRT_WORKER_POOL_SIZE": "x"},
			wantErr: true,
		},
		{
			name:    "zero worker pool size",
			giveEnv: map[string]string{"ASYNCRT_WORKER_POOL_SIZE": "0"},
			wantErr: true,
		},
		{
			name:    "invalid shutdown timeout",
			giveEnv: map[string]string{"ASYNCRT_SHUTDOWN_TIMEOUT": "soon"},
			wantErr: true,
		},
		{
			name:    "shutdown timeout below minimum",
			giveEnv: map[string]string{"ASYNCRT_SHUTDOWN_TIMEOUT": "100ms"},
			wantErr: true,
		},
		{
			name:    "pinger interval below minimum",
			giveEnv: map[string]string{"ASYNCRT_PINGER_INTERVAL": "10ms"},
			wantErr: true,
		},
		{
			name:    "invalid heartbeat schedule",
			giveEnv: map[string]string{"ASYNCRT_HEARTBEAT_SCHEDULE": "every minute"},
			wantErr: true,
		},
		{
			name:    "invalid heartbeat timezone",
			giveEnv: map[string]string{"ASYNCRT_HEARTBEAT_TZ": "Mars/Olympus"},
			wantErr: true,
		},
		{
			name:    "missing env file",
			giveEnv: map[string]string{"ASYNCRT_ENV_FILE": "/nonexistent/asyncrt.env"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.giveEnv {
				t.Setenv(k, v)
			}

			got, err := config.Load()
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.wantCfg, got)
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "asyncrt.env")
	require.NoError(t, os.WriteFile(path, []byte(
		"ASYNCRT_WORKER_POOL_SIZE=7\nASYNCRT_LOG_LEVEL=warn\n",
	), 0o600))

	t.Setenv("ASYNCRT_ENV_FILE", path)
	// Set variables win over the file.
	t.Setenv("ASYNCRT_LOG_LEVEL", "error")
	// godotenv writes to the process env; Setenv restores it after the test.
	t.Setenv("ASYNCRT_WORKER_POOL_SIZE", "")
	require.NoError(t, os.Unsetenv("ASYNCRT_WORKER_POOL_SIZE"))

	got, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, 7, got.WorkerPoolSize)
	require.Equal(t, "error", got.LogLevel)
}
