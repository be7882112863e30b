package config

import "time"

// Env key constants. All configuration env vars use the ASYNCRT_ prefix;
// duration values support explicit units (e.g. 5s, 1m).

// Optional dotenv file loaded before reading the environment. Set variables win.
const envKeyEnvFile = "ASYNCRT_ENV_FILE"

// Log level: debug, info, warn, error.
const envKeyLogLevel = "ASYNCRT_LOG_LEVEL"

// Log format: json or text.
const envKeyLogFormat = "ASYNCRT_LOG_FORMAT"

// Optional log file, rotated by size. Stdout logging stays on.
const envKeyLogFile = "ASYNCRT_LOG_FILE"

// Port for health/readiness HTTP server.
const envKeyHTTPPort = "ASYNCRT_HTTP_PORT"

// Port for Prometheus metrics (GET /metrics).
const envKeyMetricsPort = "ASYNCRT_METRICS_PORT"

// Listen address of the TCP echo server; "off" disables it.
const envKeyEchoAddr = "ASYNCRT_ECHO_ADDR"

// Max concurrently running blocking tasks.
const envKeyWorkerPoolSize = "ASYNCRT_WORKER_POOL_SIZE"

// Upper bound for the whole graceful shutdown. Units: s, m (e.g. 30s).
const (
	envKeyShutdownTimeout = "ASYNCRT_SHUTDOWN_TIMEOUT"
	envMinShutdownTimeout = time.Second
)

// Readiness pinger interval. Units: s, m (e.g. 5s).
const (
	envKeyPingerInterval = "ASYNCRT_PINGER_INTERVAL"
	envMinPingerInterval = time.Second
)

// Cron spec of the heartbeat timer; "off" disables it.
const envKeyHeartbeatSchedule = "ASYNCRT_HEARTBEAT_SCHEDULE"

// Timezone (IANA) of the heartbeat schedule.
const envKeyHeartbeatTZ = "ASYNCRT_HEARTBEAT_TZ"

// Value that switches an optional component off.
const envValueOff = "off"
