package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	appName   = "tobetutor"
	envPrefix = "TOBETUTOR"

	ModeHTTP  = "http"
	ModeLocal = "local"
)

type Config struct {
	Validator ValidatorConfig `mapstructure:"validator"`
	Server    ServerConfig    `mapstructure:"server"`
	Data      DataConfig      `mapstructure:"data"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
	Log       LogConfig       `mapstructure:"log"`

	// Resolved after loading.
	DBPath     string `mapstructure:"-"`
	SourceFile string `mapstructure:"-"`
}

type ValidatorConfig struct {
	Mode    string        `mapstructure:"mode"`
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type DataConfig struct {
	Dir string `mapstructure:"dir"`
}

type ArchiveConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Options carries command-line overrides. Zero values leave the loaded
// configuration untouched.
type Options struct {
	ConfigFile   string
	EnvFile      string
	ValidatorURL string
	Offline      bool
}

func New(opts Options) (Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file %s: %w", envFile, err)
	}

	v := viper.New()
	v.SetDefault("validator.mode", ModeHTTP)
	v.SetDefault("validator.url", "http://127.0.0.1:5000/validate")
	v.SetDefault("validator.timeout", "10s")
	v.SetDefault("server.addr", ":5000")
	v.SetDefault("data.dir", defaultDataDir())
	v.SetDefault("archive.enabled", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", opts.ConfigFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(defaultConfigDir())
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	if opts.ValidatorURL != "" {
		v.Set("validator.url", opts.ValidatorURL)
	}
	if opts.Offline {
		v.Set("validator.mode", ModeLocal)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.SourceFile = v.ConfigFileUsed()
	cfg.Data.Dir = expandHome(cfg.Data.Dir)
	cfg.DBPath = filepath.Join(cfg.Data.Dir, appName+".db")
	if cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(cfg.Data.Dir, appName+".log")
	}
	cfg.Log.File = expandHome(cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Validator.Mode {
	case ModeHTTP:
		if strings.TrimSpace(c.Validator.URL) == "" {
			return fmt.Errorf("validator.url is required in %s mode", ModeHTTP)
		}
	case ModeLocal:
	default:
		return fmt.Errorf("validator.mode must be %q or %q, got %q", ModeHTTP, ModeLocal, c.Validator.Mode)
	}
	if c.Validator.Timeout <= 0 {
		return fmt.Errorf("validator.timeout must be positive")
	}
	if c.Data.Dir == "" {
		return fmt.Errorf("data.dir is required")
	}
	return nil
}

func defaultConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", appName)
}

func defaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "."+appName)
	}
	return filepath.Join(home, ".local", "share", appName)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
