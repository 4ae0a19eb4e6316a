// Package config loads runtime configuration from .env files, the
// environment and an optional config file.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full runtime configuration shared by the daemon and the client.
type Config struct {
	APIURL         string   `mapstructure:"api_url" validate:"required,url"`
	Debug          bool     `mapstructure:"debug"`
	Environment    string   `mapstructure:"environment" validate:"required,oneof=development test staging production"`
	ListenAddr     string   `mapstructure:"listen_addr" validate:"required,hostname_port"`
	DatabaseURL    string   `mapstructure:"database_url" validate:"required"`
	CORSOrigins    []string `mapstructure:"cors_origins" validate:"min=1,dive,required"`
	CacheDir       string   `mapstructure:"cache_dir" validate:"required"`
	CurriculumPath string   `mapstructure:"curriculum_path"`
	UserID         string   `mapstructure:"user_id" validate:"required,max=128"`
	RetentionDays  int      `mapstructure:"retention_days" validate:"gte=1"`
}

// Options controls where Load looks for configuration.
type Options struct {
	// EnvDir is searched for .env.<ENVIRONMENT> and .env. Defaults to the working directory.
	EnvDir string
	// ConfigFile is an optional YAML/JSON/TOML file read by viper.
	ConfigFile string
}

var validate = validator.New()

// Load resolves the configuration. Precedence, highest first: process
// environment, .env.<ENVIRONMENT>, .env, config file, defaults.
func Load(opts Options) (*Config, error) {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	for _, name := range []string{".env." + env, ".env"} {
		if err := godotenv.Load(filepath.Join(opts.EnvDir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", name, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.CacheDir = expandHome(cfg.CacheDir)
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = filepath.Join(cfg.CacheDir, "progress.db")
	}
	cfg.CurriculumPath = expandHome(cfg.CurriculumPath)
	cfg.CORSOrigins = splitOrigins(cfg.CORSOrigins)

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api_url", "http://127.0.0.1:8000")
	v.SetDefault("debug", false)
	v.SetDefault("environment", "development")
	v.SetDefault("listen_addr", "127.0.0.1:8000")
	v.SetDefault("database_url", "")
	v.SetDefault("cors_origins", []string{"*"})
	v.SetDefault("cache_dir", "~/.aitracker")
	v.SetDefault("curriculum_path", "")
	v.SetDefault("user_id", "default_user")
	v.SetDefault("retention_days", 30)
}

// IsDevelopment reports whether the environment is development.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// NewLogger builds the process logger: human-readable text in development,
// JSON elsewhere. Debug enables debug level.
func NewLogger(cfg *Config, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsDevelopment() {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// splitOrigins accepts both a list and comma-joined entries.
func splitOrigins(in []string) []string {
	var out []string
	for _, o := range in {
		for _, part := range strings.Split(o, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
