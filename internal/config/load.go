package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration from a .env file using the provided base
// name, falling back to environment variables and defaults when the file is
// absent.
func LoadConfig(configName string) (*Config, error) {
	configFileName := fmt.Sprintf("%s.env", configName)
	return loadConfig(configFileName, "env")
}

// loadConfig handles configuration loading from files and environment
// variables. It implements a layered approach:
// 1. Load defaults
// 2. Override with config file values (if found)
// 3. Override with environment variables
// 4. Validate the final configuration
func loadConfig(configName, configType string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName(configName)
	if configType != "" {
		v.SetConfigType(configType)
	}

	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Printf("INFO: No config file '%s' found, relying on environment variables and defaults.\n", configName)
		} else {
			fmt.Printf("WARNING: Error reading config file (%s): %v\n", v.ConfigFileUsed(), err)
		}
	} else {
		fmt.Printf("INFO: Config loaded from file: %s\n", v.ConfigFileUsed())
	}

	v.AutomaticEnv()

	config := &Config{
		Application: ApplicationConfig{
			Env:  v.GetString("APP_ENV"),
			Name: v.GetString("APP_NAME"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Server: ServerConfig{
			Port:            v.GetInt("SERVER_PORT"),
			ShutdownTimeout: v.GetDuration("SERVER_SHUTDOWN_TIMEOUT"),
			ReadTimeout:     v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("SERVER_WRITE_TIMEOUT"),
			IdleTimeout:     v.GetDuration("SERVER_IDLE_TIMEOUT"),
		},
		Alerts: AlertConfig{
			LowBalanceThreshold:  v.GetFloat64("ALERT_LOW_BALANCE_THRESHOLD"),
			HighBalanceThreshold: v.GetFloat64("ALERT_HIGH_BALANCE_THRESHOLD"),
			CheckInterval:        v.GetDuration("ALERT_CHECK_INTERVAL"),
		},
		Transactions: TransactionConfig{
			MaxAmount: v.GetFloat64("TRANSACTION_MAX_AMOUNT"),
		},
		Postgres: PostgresConfig{
			URL:             v.GetString("POSTGRES_URL"),
			MaxConns:        int32(v.GetInt("POSTGRES_MAX_CONNS")),
			MinConns:        int32(v.GetInt("POSTGRES_MIN_CONNS")),
			ConnMaxLifetime: v.GetDuration("POSTGRES_MAX_CONN_LIFETIME"),
			ConnMaxIdleTime: v.GetDuration("POSTGRES_MAX_CONN_IDLE_TIME"),
			MigrationsPath:  v.GetString("POSTGRES_MIGRATIONS_PATH"),
		},
		MongoDB: MongoDBConfig{
			URI:             v.GetString("MONGO_URI"),
			Database:        v.GetString("MONGO_DATABASE"),
			Timeout:         v.GetDuration("MONGO_TIMEOUT"),
			MaxPoolSize:     uint64(v.GetInt("MONGO_MAX_POOL_SIZE")),
			MinPoolSize:     uint64(v.GetInt("MONGO_MIN_POOL_SIZE")),
			MaxConnIdleTime: v.GetDuration("MONGO_MAX_CONN_IDLE_TIME"),
		},
		Kafka: KafkaConfig{
			Brokers:           v.GetString("KAFKA_BROKERS"),
			AlertTopic:        v.GetString("KAFKA_ALERT_TOPIC"),
			NumPartitions:     v.GetInt("KAFKA_NUM_PARTITIONS"),
			ReplicationFactor: v.GetInt("KAFKA_REPLICATION_FACTOR"),
			WriteTimeout:      v.GetDuration("KAFKA_WRITE_TIMEOUT"),
		},
		Archiver: ArchiverConfig{
			PoolSize:     v.GetInt("ARCHIVER_POOL_SIZE"),
			WriteTimeout: v.GetDuration("ARCHIVER_WRITE_TIMEOUT"),
		},
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults initializes configuration with sensible default values.
// These values are used when no configuration file or environment variables
// are present.
func setDefaults(v *viper.Viper) {
	// HTTP Server defaults
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second)
	v.SetDefault("SERVER_READ_TIMEOUT", 30*time.Second)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 30*time.Second)
	v.SetDefault("SERVER_IDLE_TIMEOUT", 120*time.Second)

	// Balance alerting defaults
	v.SetDefault("ALERT_LOW_BALANCE_THRESHOLD", 100.0)
	v.SetDefault("ALERT_HIGH_BALANCE_THRESHOLD", 10000.0)
	v.SetDefault("ALERT_CHECK_INTERVAL", 30*time.Second)

	// Transaction limits
	v.SetDefault("TRANSACTION_MAX_AMOUNT", 1_000_000.0)

	// PostgreSQL defaults - empty URL keeps the account archive disabled so
	// the service runs in-memory out of the box
	v.SetDefault("POSTGRES_URL", "")
	v.SetDefault("POSTGRES_MAX_CONNS", 20)
	v.SetDefault("POSTGRES_MIN_CONNS", 5)
	v.SetDefault("POSTGRES_MAX_CONN_LIFETIME", time.Hour)
	v.SetDefault("POSTGRES_MAX_CONN_IDLE_TIME", 30*time.Minute)
	v.SetDefault("POSTGRES_MIGRATIONS_PATH", "migrations/postgres")

	// MongoDB defaults - empty URI keeps the durable history disabled
	v.SetDefault("MONGO_URI", "")
	v.SetDefault("MONGO_DATABASE", "retailbank_ledger")
	v.SetDefault("MONGO_TIMEOUT", 10*time.Second)
	v.SetDefault("MONGO_MAX_POOL_SIZE", 100)
	v.SetDefault("MONGO_MIN_POOL_SIZE", 10)
	v.SetDefault("MONGO_MAX_CONN_IDLE_TIME", 30*time.Minute)

	// Kafka defaults - empty brokers fall back to the simulated email
	// notifier
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_ALERT_TOPIC", "balance_alerts")
	v.SetDefault("KAFKA_NUM_PARTITIONS", 1)
	v.SetDefault("KAFKA_REPLICATION_FACTOR", 1)
	v.SetDefault("KAFKA_WRITE_TIMEOUT", time.Second)

	// Archiver worker pool defaults
	v.SetDefault("ARCHIVER_POOL_SIZE", 10)
	v.SetDefault("ARCHIVER_WRITE_TIMEOUT", 5*time.Second)

	// Logging defaults
	v.SetDefault("LOG_LEVEL", "info")

	// Application defaults
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_NAME", "retailbank-ledger")
}
