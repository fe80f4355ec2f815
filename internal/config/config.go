package config

import (
	"os"
	"strconv"
)

type Config struct {
	APIPort  string
	LogLevel string

	PlantAPIURL            string
	PlantAPITimeoutSeconds int

	ClassifyMaxAttempts       int
	ClassifyRetryDelaySeconds int

	HistoryDSN   string
	HistoryLimit int
	SnapshotPath string

	NATSURL     string
	NATSSubject string

	PolicyFile string

	MaxUploadMB       int
	APIRateLimitRPS   int
	APIRateLimitBurst int
	APIMaxInFlight    int

	WorkerMetricsPort string
}

func Load() Config {
	return Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		// Empty URL is a supported configuration: the gateway starts in
		// offline mode and analyze calls fail fast with the offline kind.
		PlantAPIURL:            mustEnv("PLANT_API_URL", ""),
		PlantAPITimeoutSeconds: mustEnvInt("PLANT_API_TIMEOUT_SECONDS", 45),

		ClassifyMaxAttempts:       mustEnvInt("CLASSIFY_MAX_ATTEMPTS", 3),
		ClassifyRetryDelaySeconds: mustEnvInt("CLASSIFY_RETRY_DELAY_SECONDS", 2),

		HistoryDSN:   mustEnv("HISTORY_DSN", ""),
		HistoryLimit: mustEnvInt("HISTORY_LIMIT", 25),
		SnapshotPath: mustEnv("SNAPSHOT_PATH", "./data/snapshots"),

		NATSURL:     mustEnv("NATS_URL", ""),
		NATSSubject: mustEnv("NATS_SUBJECT", "analyses.completed"),

		PolicyFile: mustEnv("LEAFSENSE_POLICY_FILE", ""),

		MaxUploadMB:       mustEnvInt("MAX_UPLOAD_MB", 10),
		APIRateLimitRPS:   mustEnvInt("API_RATE_LIMIT_RPS", 10),
		APIRateLimitBurst: mustEnvInt("API_RATE_LIMIT_BURST", 20),
		APIMaxInFlight:    mustEnvInt("API_MAX_IN_FLIGHT", 8),

		WorkerMetricsPort: mustEnv("WORKER_METRICS_PORT", "9090"),
	}
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
