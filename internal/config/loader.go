package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Mirror   MirrorConfig   `mapstructure:"mirror"`
	Node     NodeConfig     `mapstructure:"node"`
	Download DownloadConfig `mapstructure:"download"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Features FeaturesConfig `mapstructure:"features"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type LoggerConfig struct {
	Level            string   `mapstructure:"level"`
	Encoding         string   `mapstructure:"encoding"`
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// MirrorConfig points at the distribution mirror serving version archives
// and, optionally, the npm registry passed to package installs.
type MirrorConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	NPMRegistry string `mapstructure:"npm_registry"`
}

// NodeConfig describes the local install layout.
type NodeConfig struct {
	Arch        string `mapstructure:"arch"`         // e.g. "x64"
	InstallRoot string `mapstructure:"install_root"` // versions live in <root>/v<semver>
	SymlinkPath string `mapstructure:"symlink_path"` // active-version symlink
}

type DownloadConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"` // pause-poll cadence
	UserAgent    string        `mapstructure:"user_agent"`
}

type CacheConfig struct {
	Path string        `mapstructure:"path"`
	TTL  time.Duration `mapstructure:"ttl"`
}

type FeaturesConfig struct {
	RequestIDHeader      string `mapstructure:"request_id_header"`
	EnableRequestLogging bool   `mapstructure:"enable_request_logging"`
}

func Load(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.SetEnvPrefix("NVMAN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("download.poll_interval", 500*time.Millisecond)
	viper.SetDefault("download.user_agent", "nvman-server")
	viper.SetDefault("cache.ttl", 24*time.Hour)

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
