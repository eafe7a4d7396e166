package config

import (
	"os"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			ReadTimeout:  defaultReadTimeout,
			WriteTimeout: defaultWriteTimeout,
		},
		Database: DatabaseConfig{
			Path:              "./data/prompter.db",
			ConnectionTimeout: defaultDatabaseConnectionTimeout,
			EnableWAL:         true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: false,
		},
		Prompter: PrompterConfig{
			FrameInterval:   16 * time.Millisecond,
			StatsInterval:   500 * time.Millisecond,
			ControlsTimeout: 3 * time.Second,
			IdleTimeout:     10 * time.Minute,
			CleanupInterval: time.Minute,
			ViewportWidth:   1280,
			ViewportHeight:  720,
		},
		Rewrite: RewriteConfig{
			Model:            "gemini-2.5-flash",
			Timeout:          30 * time.Second,
			FailureThreshold: 3,
			ResetTimeout:     time.Minute,
		},
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Test server defaults
	if cfg.Server.Port != defaultServerPort {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, defaultServerPort)
	}
	if cfg.Server.Host != defaultServerHost {
		t.Errorf("Server.Host = %s, want %s", cfg.Server.Host, defaultServerHost)
	}

	// Test database defaults
	if cfg.Database.Path != defaultDatabasePath {
		t.Errorf("Database.Path = %s, want %s", cfg.Database.Path, defaultDatabasePath)
	}
	if cfg.Database.EnableWAL != defaultDatabaseEnableWAL {
		t.Errorf("Database.EnableWAL = %v, want %v", cfg.Database.EnableWAL, defaultDatabaseEnableWAL)
	}
	if cfg.Database.MigrationsPath != defaultMigrationsPath {
		t.Errorf("Database.MigrationsPath = %s, want %s", cfg.Database.MigrationsPath, defaultMigrationsPath)
	}

	// Test logging defaults
	if cfg.Logging.Level != defaultLogLevel {
		t.Errorf("Logging.Level = %s, want %s", cfg.Logging.Level, defaultLogLevel)
	}

	// Test prompter defaults
	if cfg.Prompter.FrameInterval != defaultPrompterFrameInterval {
		t.Errorf("Prompter.FrameInterval = %v, want %v", cfg.Prompter.FrameInterval, defaultPrompterFrameInterval)
	}
	if cfg.Prompter.StatsInterval != defaultPrompterStatsInterval {
		t.Errorf("Prompter.StatsInterval = %v, want %v", cfg.Prompter.StatsInterval, defaultPrompterStatsInterval)
	}
	if cfg.Prompter.ControlsTimeout != defaultPrompterControlsTimeout {
		t.Errorf("Prompter.ControlsTimeout = %v, want %v", cfg.Prompter.ControlsTimeout, defaultPrompterControlsTimeout)
	}
	if cfg.Prompter.IdleTimeout != defaultPrompterIdleTimeout {
		t.Errorf("Prompter.IdleTimeout = %v, want %v", cfg.Prompter.IdleTimeout, defaultPrompterIdleTimeout)
	}
	if cfg.Prompter.ViewportWidth != defaultPrompterViewportWidth || cfg.Prompter.ViewportHeight != defaultPrompterViewportHeight {
		t.Errorf("Prompter viewport = %dx%d, want %dx%d",
			cfg.Prompter.ViewportWidth, cfg.Prompter.ViewportHeight,
			defaultPrompterViewportWidth, defaultPrompterViewportHeight)
	}

	// Test rewrite defaults
	if cfg.Rewrite.Model != defaultRewriteModel {
		t.Errorf("Rewrite.Model = %s, want %s", cfg.Rewrite.Model, defaultRewriteModel)
	}
	if cfg.Rewrite.FailureThreshold != defaultRewriteFailureThreshold {
		t.Errorf("Rewrite.FailureThreshold = %d, want %d", cfg.Rewrite.FailureThreshold, defaultRewriteFailureThreshold)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "invalid server port (too low)",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: true,
		},
		{
			name:    "invalid server port (too high)",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Logging.Level = "invalid" },
			wantErr: true,
		},
		{
			name:    "zero frame interval",
			mutate:  func(c *Config) { c.Prompter.FrameInterval = 0 },
			wantErr: true,
		},
		{
			name:    "negative stats interval",
			mutate:  func(c *Config) { c.Prompter.StatsInterval = -time.Second },
			wantErr: true,
		},
		{
			name:    "zero controls timeout",
			mutate:  func(c *Config) { c.Prompter.ControlsTimeout = 0 },
			wantErr: true,
		},
		{
			name:    "zero idle timeout",
			mutate:  func(c *Config) { c.Prompter.IdleTimeout = 0 },
			wantErr: true,
		},
		{
			name:    "zero cleanup interval",
			mutate:  func(c *Config) { c.Prompter.CleanupInterval = 0 },
			wantErr: true,
		},
		{
			name:    "empty viewport",
			mutate:  func(c *Config) { c.Prompter.ViewportHeight = 0 },
			wantErr: true,
		},
		{
			name:    "invalid rewrite failure threshold",
			mutate:  func(c *Config) { c.Rewrite.FailureThreshold = 0 },
			wantErr: true,
		},
		{
			name:    "invalid rewrite timeout",
			mutate:  func(c *Config) { c.Rewrite.Timeout = 0 },
			wantErr: true,
		},
		{
			name:    "missing API key is allowed",
			mutate:  func(c *Config) { c.Rewrite.APIKey = "" },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPrompterConfigEnvVars(t *testing.T) {
	t.Setenv("PROMPTER_PROMPTER_FRAMEINTERVAL", "33ms")
	t.Setenv("PROMPTER_PROMPTER_IDLETIMEOUT", "2m")
	t.Setenv("PROMPTER_PROMPTER_VIEWPORTHEIGHT", "1080")
	t.Setenv("PROMPTER_REWRITE_MODEL", "gemini-2.0-flash")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Prompter.FrameInterval != 33*time.Millisecond {
		t.Errorf("Prompter.FrameInterval = %v, want 33ms", cfg.Prompter.FrameInterval)
	}
	if cfg.Prompter.IdleTimeout != 2*time.Minute {
		t.Errorf("Prompter.IdleTimeout = %v, want 2m", cfg.Prompter.IdleTimeout)
	}
	if cfg.Prompter.ViewportHeight != 1080 {
		t.Errorf("Prompter.ViewportHeight = %d, want 1080", cfg.Prompter.ViewportHeight)
	}
	if cfg.Rewrite.Model != "gemini-2.0-flash" {
		t.Errorf("Rewrite.Model = %s, want gemini-2.0-flash", cfg.Rewrite.Model)
	}
}

func TestRewriteAPIKeyFallback(t *testing.T) {
	_ = os.Unsetenv("PROMPTER_REWRITE_APIKEY")
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Rewrite.APIKey != "test-key" {
		t.Errorf("Rewrite.APIKey = %q, want test-key", cfg.Rewrite.APIKey)
	}
}
