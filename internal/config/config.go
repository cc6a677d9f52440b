// Package config provides configuration management for the application.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type Config struct {
	RabbitMQ   RabbitMQConfig
	Logging    LoggingConfig
	Database   DatabaseConfig
	Server     ServerConfig
	Auth       AuthConfig
	YouTube    YouTubeConfig
	Captions   CaptionsConfig
	STT        STTConfig
	Enrichment EnrichmentConfig
	WS         WSConfig
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig contains database connection configuration.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type DatabaseConfig struct {
	Host           string
	Name           string
	User           string
	Password       string
	SSLMode        string
	Port           int
	MaxConnections int
	MinConnections int
	MaxIdleTime    time.Duration
	MaxLifetime    time.Duration
}

// RabbitMQConfig contains RabbitMQ connection and queue configuration.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type RabbitMQConfig struct {
	Host             string
	User             string
	Password         string
	IngestQueue      string
	ProgressExchange string
	Port             int
	Prefetch         int
	MessageTTL       time.Duration
}

// AuthConfig contains token signing configuration.
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// YouTubeConfig contains YouTube Data API configuration.
type YouTubeConfig struct {
	APIKey  string
	Timeout time.Duration
}

// CaptionsConfig contains caption extraction configuration.
type CaptionsConfig struct {
	YtdlpPath string
	Languages []string
	Timeout   time.Duration
}

// STTConfig contains speech-to-text fallback configuration.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type STTConfig struct {
	BaseURL string
	Model   string
	APIKey  string
	Enabled bool
	Timeout time.Duration
}

// EnrichmentConfig contains worker pool and pipeline configuration.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type EnrichmentConfig struct {
	Workers          int
	MaxRetries       int
	ClaimBatch       int
	HistoryRing      int
	MetadataTimeout  time.Duration
	CaptionsTimeout  time.Duration
	ChaptersTimeout  time.Duration
	ProgressThrottle time.Duration
	ClaimInterval    time.Duration
	StallTimeout     time.Duration
}

// WSConfig contains WebSocket endpoint configuration.
type WSConfig struct {
	SendBuffer   int
	AuthDeadline time.Duration
	WriteTimeout time.Duration
	PongTimeout  time.Duration
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level string
	File  string
}

// Load loads configuration from file and environment variables.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Set defaults
	setDefaults()

	// Read environment variables; APP_ENRICHMENT_WORKERS overrides enrichment.workers.
	viper.AutomaticEnv()
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Try to read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readtimeout", 15*time.Second)
	viper.SetDefault("server.writetimeout", 15*time.Second)
	viper.SetDefault("server.shutdowntimeout", 30*time.Second)

	// Database
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "vidshelf")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.maxconnections", 10)
	viper.SetDefault("database.minconnections", 5)
	viper.SetDefault("database.maxidletime", 10*time.Minute)
	viper.SetDefault("database.maxlifetime", 1*time.Hour)

	// RabbitMQ
	viper.SetDefault("rabbitmq.host", "localhost")
	viper.SetDefault("rabbitmq.port", 5672)
	viper.SetDefault("rabbitmq.user", "guest")
	viper.SetDefault("rabbitmq.password", "guest")
	viper.SetDefault("rabbitmq.ingestqueue", "ingest.video_jobs")
	viper.SetDefault("rabbitmq.progressexchange", "user.progress")
	viper.SetDefault("rabbitmq.prefetch", 16)
	viper.SetDefault("rabbitmq.messagettl", 24*time.Hour)

	// Auth
	viper.SetDefault("auth.jwtsecret", "")
	viper.SetDefault("auth.tokenttl", 24*time.Hour)

	// YouTube
	viper.SetDefault("youtube.apikey", "")
	viper.SetDefault("youtube.timeout", 15*time.Second)

	// Captions
	viper.SetDefault("captions.ytdlppath", "yt-dlp")
	viper.SetDefault("captions.languages", []string{"en"})
	viper.SetDefault("captions.timeout", 55*time.Second)

	// STT
	viper.SetDefault("stt.enabled", false)
	viper.SetDefault("stt.baseurl", "http://localhost:9000")
	viper.SetDefault("stt.model", "whisper-1")
	viper.SetDefault("stt.apikey", "")
	viper.SetDefault("stt.timeout", 120*time.Second)

	// Enrichment
	viper.SetDefault("enrichment.workers", 8)
	viper.SetDefault("enrichment.maxretries", 3)
	viper.SetDefault("enrichment.claimbatch", 16)
	viper.SetDefault("enrichment.historyring", 200)
	viper.SetDefault("enrichment.metadatatimeout", 20*time.Second)
	viper.SetDefault("enrichment.captionstimeout", 60*time.Second)
	viper.SetDefault("enrichment.chapterstimeout", 20*time.Second)
	viper.SetDefault("enrichment.progressthrottle", 250*time.Millisecond)
	viper.SetDefault("enrichment.claiminterval", 1*time.Second)
	viper.SetDefault("enrichment.stalltimeout", 5*time.Minute)

	// WebSocket
	viper.SetDefault("ws.sendbuffer", 32)
	viper.SetDefault("ws.authdeadline", 5*time.Second)
	viper.SetDefault("ws.writetimeout", 10*time.Second)
	viper.SetDefault("ws.pongtimeout", 60*time.Second)

	// Logging
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.file", "")
}
