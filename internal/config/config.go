// Package config provides configuration structures and validation for the
// application. It handles environment-based configuration for the HTTP
// server, alerting thresholds, transaction limits, and the optional durable
// backends (PostgreSQL, MongoDB, Kafka).
package config

import (
	"errors"
	"strings"
	"time"
)

// Config holds the complete application configuration. The Postgres, MongoDB
// and Kafka sections are optional: leaving their connection values empty
// disables the corresponding collaborator and the core degrades to
// in-memory / log-only behavior.
type Config struct {
	Application  ApplicationConfig
	Logging      LoggingConfig
	Server       ServerConfig
	Alerts       AlertConfig
	Transactions TransactionConfig
	Postgres     PostgresConfig
	MongoDB      MongoDBConfig
	Kafka        KafkaConfig
	Archiver     ArchiverConfig
}

// ApplicationConfig contains general application configuration
type ApplicationConfig struct {
	Env  string
	Name string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
}

// AlertConfig contains balance alerting configuration. LowBalanceThreshold
// is the default per-account threshold; HighBalanceThreshold applies to all
// accounts uniformly.
type AlertConfig struct {
	LowBalanceThreshold  float64
	HighBalanceThreshold float64
	CheckInterval        time.Duration
}

// TransactionConfig contains transaction processing limits
type TransactionConfig struct {
	MaxAmount float64
}

// PostgresConfig contains PostgreSQL configuration. An empty URL disables
// the durable account and alert archives.
type PostgresConfig struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	MigrationsPath  string
}

// Enabled reports whether a Postgres backend is configured
func (c *PostgresConfig) Enabled() bool {
	return c.URL != ""
}

// MongoDBConfig contains MongoDB configuration. An empty URI disables the
// durable transaction history.
type MongoDBConfig struct {
	URI             string
	Database        string
	Timeout         time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// Enabled reports whether a MongoDB backend is configured
func (c *MongoDBConfig) Enabled() bool {
	return c.URI != ""
}

// KafkaConfig contains the alert event producer configuration. Empty
// brokers disable Kafka and alerts fall back to the simulated email
// notifier.
type KafkaConfig struct {
	Brokers           string
	AlertTopic        string
	NumPartitions     int
	ReplicationFactor int
	WriteTimeout      time.Duration
}

// Enabled reports whether a Kafka notification channel is configured
func (c *KafkaConfig) Enabled() bool {
	return c.Brokers != ""
}

// ArchiverConfig contains the best-effort persistence worker pool settings
type ArchiverConfig struct {
	PoolSize     int
	WriteTimeout time.Duration
}

// validate performs validation of all configuration values. Optional
// backends are only validated when they are enabled.
func (c *Config) validate() error {
	var validationErrors []string

	if c.Server.Port <= 0 {
		validationErrors = append(validationErrors, "SERVER_PORT must be greater than 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	}
	if c.Server.ReadTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_READ_TIMEOUT must be greater than 0")
	}
	if c.Server.WriteTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_WRITE_TIMEOUT must be greater than 0")
	}
	if c.Server.IdleTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_IDLE_TIMEOUT must be greater than 0")
	}

	if c.Alerts.LowBalanceThreshold < 0 {
		validationErrors = append(validationErrors, "ALERT_LOW_BALANCE_THRESHOLD cannot be negative")
	}
	if c.Alerts.HighBalanceThreshold < 0 {
		validationErrors = append(validationErrors, "ALERT_HIGH_BALANCE_THRESHOLD cannot be negative")
	}
	if c.Alerts.CheckInterval <= 0 {
		validationErrors = append(validationErrors, "ALERT_CHECK_INTERVAL must be greater than 0")
	}

	if c.Transactions.MaxAmount <= 0 {
		validationErrors = append(validationErrors, "TRANSACTION_MAX_AMOUNT must be greater than 0")
	}

	if c.Postgres.Enabled() {
		if c.Postgres.MaxConns <= 0 {
			validationErrors = append(validationErrors, "POSTGRES_MAX_CONNS must be greater than 0")
		}
		if c.Postgres.MinConns <= 0 {
			validationErrors = append(validationErrors, "POSTGRES_MIN_CONNS must be greater than 0")
		}
		if c.Postgres.ConnMaxLifetime <= 0 {
			validationErrors = append(validationErrors, "POSTGRES_MAX_CONN_LIFETIME must be greater than 0")
		}
		if c.Postgres.ConnMaxIdleTime <= 0 {
			validationErrors = append(validationErrors, "POSTGRES_MAX_CONN_IDLE_TIME must be greater than 0")
		}
		if c.Postgres.MigrationsPath == "" {
			validationErrors = append(validationErrors, "POSTGRES_MIGRATIONS_PATH is required")
		}
	}

	if c.MongoDB.Enabled() {
		if c.MongoDB.Database == "" {
			validationErrors = append(validationErrors, "MONGO_DATABASE is required")
		}
		if c.MongoDB.Timeout <= 0 {
			validationErrors = append(validationErrors, "MONGO_TIMEOUT must be greater than 0")
		}
		if c.MongoDB.MaxPoolSize <= 0 {
			validationErrors = append(validationErrors, "MONGO_MAX_POOL_SIZE must be greater than 0")
		}
		if c.MongoDB.MinPoolSize <= 0 {
			validationErrors = append(validationErrors, "MONGO_MIN_POOL_SIZE must be greater than 0")
		}
		if c.MongoDB.MaxConnIdleTime <= 0 {
			validationErrors = append(validationErrors, "MONGO_MAX_CONN_IDLE_TIME must be greater than 0")
		}
	}

	if c.Kafka.Enabled() {
		if c.Kafka.AlertTopic == "" {
			validationErrors = append(validationErrors, "KAFKA_ALERT_TOPIC is required")
		}
		if c.Kafka.WriteTimeout <= 0 {
			validationErrors = append(validationErrors, "KAFKA_WRITE_TIMEOUT must be greater than 0")
		}
	}

	if c.Archiver.PoolSize <= 0 {
		validationErrors = append(validationErrors, "ARCHIVER_POOL_SIZE must be greater than 0")
	}
	if c.Archiver.WriteTimeout <= 0 {
		validationErrors = append(validationErrors, "ARCHIVER_WRITE_TIMEOUT must be greater than 0")
	}

	if len(validationErrors) > 0 {
		return errors.New(strings.Join(validationErrors, ", "))
	}

	return nil
}
