package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Data      DataConfig      `yaml:"data" envconfig:"DATA"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/bikepulse.log"`
}

// DataConfig locates the bike-sharing dataset and the export directory
type DataConfig struct {
	Dir        string `yaml:"dir" envconfig:"DIR" default:"data"`
	DailyFile  string `yaml:"daily_file" envconfig:"DAILY_FILE" default:"day.csv"`
	HourlyFile string `yaml:"hourly_file" envconfig:"HOURLY_FILE" default:"hour.csv"`
	ExportDir  string `yaml:"export_dir" envconfig:"EXPORT_DIR" default:"exports"`
	WebDir     string `yaml:"web_dir" envconfig:"WEB_DIR" default:"web"`
	Watch      bool   `yaml:"watch" envconfig:"WATCH" default:"true"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE" default:"1024"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE" default:"1024"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD" default:"30s"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT" default:"60s"`
}

// Load loads configuration in layers: struct defaults, then an optional
// YAML config file, then environment variables (a .env file is read first
// if present). Environment takes precedence over the file, the file over
// the defaults.
func Load() (*Config, error) {
	// .env is optional; a missing file is not an error
	_ = godotenv.Load()

	cfg := *Default()

	if configFile := findConfigFile(); configFile != "" {
		if err := loadFromFile(configFile, &cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	var envCfg Config
	if err := envconfig.Process("BIKEPULSE", &envCfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}
	applyEnv(&cfg, &envCfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile overlays YAML values onto cfg; keys absent from the file
// keep their current values
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnv overlays environment settings onto cfg. envconfig fills unset
// variables from the default tags, so a field only counts as set when it
// differs from Default(); an env var explicitly set to its default value is
// indistinguishable from an unset one and defers to the file.
func applyEnv(cfg, env *Config) {
	def := Default()

	overlay(&cfg.Server.Port, env.Server.Port, def.Server.Port)
	overlay(&cfg.Server.ReadTimeout, env.Server.ReadTimeout, def.Server.ReadTimeout)
	overlay(&cfg.Server.WriteTimeout, env.Server.WriteTimeout, def.Server.WriteTimeout)
	overlay(&cfg.Server.IdleTimeout, env.Server.IdleTimeout, def.Server.IdleTimeout)
	overlay(&cfg.Server.MaxHeaderBytes, env.Server.MaxHeaderBytes, def.Server.MaxHeaderBytes)
	overlay(&cfg.Server.ShutdownTimeout, env.Server.ShutdownTimeout, def.Server.ShutdownTimeout)

	if !slices.Equal(env.Security.AllowedOrigins, def.Security.AllowedOrigins) {
		cfg.Security.AllowedOrigins = env.Security.AllowedOrigins
	}
	overlay(&cfg.Security.EnableCORS, env.Security.EnableCORS, def.Security.EnableCORS)
	overlay(&cfg.Security.RateLimit.Enabled, env.Security.RateLimit.Enabled, def.Security.RateLimit.Enabled)
	overlay(&cfg.Security.RateLimit.RPS, env.Security.RateLimit.RPS, def.Security.RateLimit.RPS)
	overlay(&cfg.Security.RateLimit.Burst, env.Security.RateLimit.Burst, def.Security.RateLimit.Burst)

	overlay(&cfg.Logging.Level, env.Logging.Level, def.Logging.Level)
	overlay(&cfg.Logging.Format, env.Logging.Format, def.Logging.Format)
	overlay(&cfg.Logging.Output, env.Logging.Output, def.Logging.Output)
	overlay(&cfg.Logging.FilePath, env.Logging.FilePath, def.Logging.FilePath)

	overlay(&cfg.Data.Dir, env.Data.Dir, def.Data.Dir)
	overlay(&cfg.Data.DailyFile, env.Data.DailyFile, def.Data.DailyFile)
	overlay(&cfg.Data.HourlyFile, env.Data.HourlyFile, def.Data.HourlyFile)
	overlay(&cfg.Data.ExportDir, env.Data.ExportDir, def.Data.ExportDir)
	overlay(&cfg.Data.WebDir, env.Data.WebDir, def.Data.WebDir)
	overlay(&cfg.Data.Watch, env.Data.Watch, def.Data.Watch)

	overlay(&cfg.WebSocket.ReadBufferSize, env.WebSocket.ReadBufferSize, def.WebSocket.ReadBufferSize)
	overlay(&cfg.WebSocket.WriteBufferSize, env.WebSocket.WriteBufferSize, def.WebSocket.WriteBufferSize)
	overlay(&cfg.WebSocket.PingPeriod, env.WebSocket.PingPeriod, def.WebSocket.PingPeriod)
	overlay(&cfg.WebSocket.PongWait, env.WebSocket.PongWait, def.WebSocket.PongWait)
}

// overlay replaces *dst with env when env differs from the default
func overlay[T comparable](dst *T, env, def T) {
	if env != def {
		*dst = env
	}
}

// DailyPath returns the resolved path of the daily CSV
func (c *Config) DailyPath() string {
	return filepath.Join(c.Data.Dir, c.Data.DailyFile)
}

// HourlyPath returns the resolved path of the hourly CSV
func (c *Config) HourlyPath() string {
	return filepath.Join(c.Data.Dir, c.Data.HourlyFile)
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Data.Dir == "" {
		return fmt.Errorf("data directory must be set")
	}

	if c.Data.DailyFile == "" || c.Data.HourlyFile == "" {
		return fmt.Errorf("daily and hourly file names must be set")
	}

	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}

	if c.Logging.Output != "both" && c.Logging.Output != "file" && c.Logging.Output != "console" {
		c.Logging.Output = "both"
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/bikepulse.log"
	}

	return nil
}

// findConfigFile returns the first config file found in common locations
func findConfigFile() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: 30 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "both",
			FilePath: "logs/bikepulse.log",
		},
		Data: DataConfig{
			Dir:        "data",
			DailyFile:  "day.csv",
			HourlyFile: "hour.csv",
			ExportDir:  "exports",
			WebDir:     "web",
			Watch:      true,
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingPeriod:      30 * time.Second,
			PongWait:        60 * time.Second,
		},
	}
}
