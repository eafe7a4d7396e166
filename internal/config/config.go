// Package config provides configuration management using Viper.
// It loads configuration from environment variables, .env files, and config files.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultServerPort                = 8080
	defaultServerHost                = "0.0.0.0"
	defaultReadTimeout               = 30 * time.Second
	defaultWriteTimeout              = 30 * time.Second
	defaultDatabasePath              = "./data/prompter.db"
	defaultDatabaseConnectionTimeout = 5 * time.Second
	defaultDatabaseEnableWAL         = true
	defaultMigrationsPath            = "file://./migrations"
	defaultLogLevel                  = "info"
	defaultLogPretty                 = false

	defaultPrompterFrameInterval   = 16 * time.Millisecond
	defaultPrompterStatsInterval   = 500 * time.Millisecond
	defaultPrompterControlsTimeout = 3 * time.Second
	defaultPrompterIdleTimeout     = 10 * time.Minute
	defaultPrompterCleanupInterval = 60 * time.Second
	defaultPrompterViewportWidth   = 1280
	defaultPrompterViewportHeight  = 720

	defaultRewriteModel            = "gemini-2.5-flash"
	defaultRewriteTimeout          = 30 * time.Second
	defaultRewriteFailureThreshold = 3
	defaultRewriteResetTimeout     = 60 * time.Second

	envPrefix = "PROMPTER"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logging  LoggingConfig
	Prompter PrompterConfig
	Rewrite  RewriteConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int
	Host         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Path              string
	ConnectionTimeout time.Duration
	EnableWAL         bool
	MigrationsPath    string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Pretty bool
}

// PrompterConfig holds playback session timing
type PrompterConfig struct {
	FrameInterval   time.Duration // refresh signal period for frame steps
	StatsInterval   time.Duration // time statistics refresh period
	ControlsTimeout time.Duration // inactivity before controls hide while playing
	IdleTimeout     time.Duration // unattended sessions are closed after this
	CleanupInterval time.Duration
	ViewportWidth   int // default headless viewport size in pixels
	ViewportHeight  int
}

// RewriteConfig holds the AI rewrite client configuration
type RewriteConfig struct {
	APIKey           string
	Model            string
	Timeout          time.Duration
	FailureThreshold int
	ResetTimeout     time.Duration
}

// Load reads configuration from .env file, config files, environment variables, and defaults
func Load() (*Config, error) {
	// .env files are optional in production and CI where env vars are set directly
	_ = godotenv.Load() // nolint:errcheck // .env file is optional

	v := viper.New()

	setDefaults(v)

	// Config file settings
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/prompter")

	// Environment variable settings
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// The Gemini key is commonly exported without our prefix
	_ = v.BindEnv("rewrite.apikey", envPrefix+"_REWRITE_APIKEY", "GEMINI_API_KEY", "API_KEY")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", defaultServerPort)
	v.SetDefault("server.host", defaultServerHost)
	v.SetDefault("server.readtimeout", defaultReadTimeout)
	v.SetDefault("server.writetimeout", defaultWriteTimeout)

	// Database defaults
	v.SetDefault("database.path", defaultDatabasePath)
	v.SetDefault("database.connectiontimeout", defaultDatabaseConnectionTimeout)
	v.SetDefault("database.enablewal", defaultDatabaseEnableWAL)
	v.SetDefault("database.migrationspath", defaultMigrationsPath)

	// Logging defaults
	v.SetDefault("logging.level", defaultLogLevel)
	v.SetDefault("logging.pretty", defaultLogPretty)

	// Prompter defaults
	v.SetDefault("prompter.frameinterval", defaultPrompterFrameInterval)
	v.SetDefault("prompter.statsinterval", defaultPrompterStatsInterval)
	v.SetDefault("prompter.controlstimeout", defaultPrompterControlsTimeout)
	v.SetDefault("prompter.idletimeout", defaultPrompterIdleTimeout)
	v.SetDefault("prompter.cleanupinterval", defaultPrompterCleanupInterval)
	v.SetDefault("prompter.viewportwidth", defaultPrompterViewportWidth)
	v.SetDefault("prompter.viewportheight", defaultPrompterViewportHeight)

	// Rewrite defaults
	v.SetDefault("rewrite.apikey", "")
	v.SetDefault("rewrite.model", defaultRewriteModel)
	v.SetDefault("rewrite.timeout", defaultRewriteTimeout)
	v.SetDefault("rewrite.failurethreshold", defaultRewriteFailureThreshold)
	v.SetDefault("rewrite.resettimeout", defaultRewriteResetTimeout)
}

// Validate checks that configuration values are valid
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("invalid read timeout: %v (must be > 0)", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("invalid write timeout: %v (must be > 0)", c.Server.WriteTimeout)
	}
	if c.Database.ConnectionTimeout <= 0 {
		return fmt.Errorf("invalid database connection timeout: %v (must be > 0)", c.Database.ConnectionTimeout)
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLevels, c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.Logging.Level, strings.Join(validLevels, ", "))
	}

	if err := c.Prompter.Validate(); err != nil {
		return err
	}

	if c.Rewrite.Timeout <= 0 {
		return fmt.Errorf("invalid rewrite timeout: %v (must be > 0)", c.Rewrite.Timeout)
	}
	if c.Rewrite.FailureThreshold < 1 {
		return fmt.Errorf("invalid rewrite failure threshold: %d (must be >= 1)", c.Rewrite.FailureThreshold)
	}
	if c.Rewrite.ResetTimeout <= 0 {
		return fmt.Errorf("invalid rewrite reset timeout: %v (must be > 0)", c.Rewrite.ResetTimeout)
	}

	return nil
}

// Validate checks the prompter timing values
func (p *PrompterConfig) Validate() error {
	if p.FrameInterval <= 0 {
		return fmt.Errorf("invalid prompter frame interval: %v (must be > 0)", p.FrameInterval)
	}
	if p.StatsInterval <= 0 {
		return fmt.Errorf("invalid prompter stats interval: %v (must be > 0)", p.StatsInterval)
	}
	if p.ControlsTimeout <= 0 {
		return fmt.Errorf("invalid prompter controls timeout: %v (must be > 0)", p.ControlsTimeout)
	}
	if p.IdleTimeout <= 0 {
		return fmt.Errorf("invalid prompter idle timeout: %v (must be > 0)", p.IdleTimeout)
	}
	if p.CleanupInterval <= 0 {
		return fmt.Errorf("invalid prompter cleanup interval: %v (must be > 0)", p.CleanupInterval)
	}
	if p.ViewportWidth < 1 || p.ViewportHeight < 1 {
		return fmt.Errorf("invalid prompter viewport: %dx%d (must be at least 1x1)", p.ViewportWidth, p.ViewportHeight)
	}
	return nil
}
