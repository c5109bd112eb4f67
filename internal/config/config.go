package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Artifacts ArtifactsConfig
	Bandit    BanditConfig
	Logger    LoggerConfig
}

type ServerConfig struct {
	Host string
	Port int
}

// StorageConfig selects where the performance registry and audit logs live.
// Backend is "file" (default) or "postgres".
type StorageConfig struct {
	Backend string
	DataDir string

	DBHost          string
	DBPort          int
	DBName          string
	DBUser          string
	DBPassword      string
	DBSSLMode       string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type ArtifactsConfig struct {
	Dir string
}

type BanditConfig struct {
	SamplingTrials      int
	KeepRecentModels    int
	MemoryHighWaterMB   int
	MemoryModerateMB    int
	MemoryCheckInterval time.Duration
}

type LoggerConfig struct {
	Level  string
	Format string
}

func (c StorageConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode)
}

func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("STORAGE_BACKEND", "file")
	v.SetDefault("STORAGE_DATA_DIR", "./data")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_NAME", "lead_scoring")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 2)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("ARTIFACTS_DIR", "./models")
	v.SetDefault("BANDIT_SAMPLING_TRIALS", 5000)
	v.SetDefault("BANDIT_KEEP_RECENT_MODELS", 5)
	v.SetDefault("BANDIT_MEMORY_HIGH_WATER_MB", 3072)
	v.SetDefault("BANDIT_MEMORY_MODERATE_MB", 2048)
	v.SetDefault("BANDIT_MEMORY_CHECK_INTERVAL", "5m")
	v.SetDefault("LOGGER_LEVEL", "info")
	v.SetDefault("LOGGER_FORMAT", "json")

	// Env
	v.AutomaticEnv()

	connLifetime, err := time.ParseDuration(v.GetString("DB_CONN_MAX_LIFETIME"))
	if err != nil {
		connLifetime = 30 * time.Minute
	}
	memCheckInterval, err := time.ParseDuration(v.GetString("BANDIT_MEMORY_CHECK_INTERVAL"))
	if err != nil {
		memCheckInterval = 5 * time.Minute
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: v.GetString("SERVER_HOST"),
			Port: v.GetInt("SERVER_PORT"),
		},
		Storage: StorageConfig{
			Backend:         v.GetString("STORAGE_BACKEND"),
			DataDir:         v.GetString("STORAGE_DATA_DIR"),
			DBHost:          v.GetString("DB_HOST"),
			DBPort:          v.GetInt("DB_PORT"),
			DBName:          v.GetString("DB_NAME"),
			DBUser:          v.GetString("DB_USER"),
			DBPassword:      v.GetString("DB_PASSWORD"),
			DBSSLMode:       v.GetString("DB_SSLMODE"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: connLifetime,
		},
		Artifacts: ArtifactsConfig{
			Dir: v.GetString("ARTIFACTS_DIR"),
		},
		Bandit: BanditConfig{
			SamplingTrials:      v.GetInt("BANDIT_SAMPLING_TRIALS"),
			KeepRecentModels:    v.GetInt("BANDIT_KEEP_RECENT_MODELS"),
			MemoryHighWaterMB:   v.GetInt("BANDIT_MEMORY_HIGH_WATER_MB"),
			MemoryModerateMB:    v.GetInt("BANDIT_MEMORY_MODERATE_MB"),
			MemoryCheckInterval: memCheckInterval,
		},
		Logger: LoggerConfig{
			Level:  v.GetString("LOGGER_LEVEL"),
			Format: v.GetString("LOGGER_FORMAT"),
		},
	}

	return cfg, nil
}
