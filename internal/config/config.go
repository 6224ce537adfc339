// FilePath: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/skyfield/archivehub/internal/models"
	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	Server    ServerConfig      `mapstructure:"server"`
	Admin     AdminConfig       `mapstructure:"admin"`
	Storage   StorageConfig     `mapstructure:"storage"`
	Video     VideoConfig       `mapstructure:"video"`
	Registry  RegistryConfig    `mapstructure:"registry"`
	Redis     RedisConfig       `mapstructure:"redis"`
	Janitor   JanitorConfig     `mapstructure:"janitor"`
	Daylight  DaylightConfig    `mapstructure:"daylight"`
	Resources []models.Resource `mapstructure:"resources"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CorePoolSize    int           `mapstructure:"core_pool_size"`
	MaxPoolSize     int           `mapstructure:"max_pool_size"`
	KeepAlive       time.Duration `mapstructure:"keep_alive"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
}

type AdminConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Host    string `mapstructure:"host"`
}

type StorageConfig struct {
	Root             string        `mapstructure:"root"`
	HourMovieLength  int           `mapstructure:"hour_movie_length"` // seconds
	MinOldVideoCount int           `mapstructure:"min_old_video_count"`
	RetrievalGrace   time.Duration `mapstructure:"retrieval_grace"`
}

type VideoConfig struct {
	Codec         string `mapstructure:"codec"`
	FFmpegPath    string `mapstructure:"ffmpeg_path"`
	FFprobePath   string `mapstructure:"ffprobe_path"`
	DefaultWidth  int    `mapstructure:"default_width"`
	DefaultHeight int    `mapstructure:"default_height"`
}

// RegistryConfig selects where resource definitions come from. When Host is
// empty the static resource list from the config file is used instead.
type RegistryConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JanitorConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	MaxAge   time.Duration `mapstructure:"max_age"`
}

// DaylightConfig sets the site-wide sunrise and sunset hours used for
// resources that only collect during daylight.
type DaylightConfig struct {
	SunriseHour int `mapstructure:"sunrise_hour"`
	SunsetHour  int `mapstructure:"sunset_hour"`
}

// Load initializes configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetEnvPrefix("ARCHIVEHUB")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Load config file if exists
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", 4000)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", "60s")
	viper.SetDefault("server.write_timeout", "60s")
	viper.SetDefault("server.shutdown_timeout", "30s")
	viper.SetDefault("server.core_pool_size", 4)
	viper.SetDefault("server.max_pool_size", 16)
	viper.SetDefault("server.keep_alive", "90s")
	viper.SetDefault("server.poll_interval", "100ms")

	// Admin HTTP defaults
	viper.SetDefault("admin.enabled", true)
	viper.SetDefault("admin.port", 4001)
	viper.SetDefault("admin.host", "0.0.0.0")

	// Storage defaults
	viper.SetDefault("storage.hour_movie_length", 20)
	viper.SetDefault("storage.min_old_video_count", 6)
	viper.SetDefault("storage.retrieval_grace", "10m")

	// Video tool defaults
	viper.SetDefault("video.codec", "libx264")
	viper.SetDefault("video.ffmpeg_path", "ffmpeg")
	viper.SetDefault("video.ffprobe_path", "ffprobe")
	viper.SetDefault("video.default_width", 640)
	viper.SetDefault("video.default_height", 480)

	// Registry defaults
	viper.SetDefault("registry.sslmode", "disable")

	// Redis defaults
	viper.SetDefault("redis.db", 0)

	// Janitor defaults
	viper.SetDefault("janitor.interval", "1h")
	viper.SetDefault("janitor.max_age", "24h")

	// Daylight defaults
	viper.SetDefault("daylight.sunrise_hour", 6)
	viper.SetDefault("daylight.sunset_hour", 20)
}

func validateConfig(config *Config) error {
	if config.Storage.Root == "" {
		return fmt.Errorf("storage root is required")
	}
	if config.Storage.HourMovieLength <= 0 {
		return fmt.Errorf("hour movie length must be positive")
	}
	if config.Server.CorePoolSize <= 0 || config.Server.MaxPoolSize < config.Server.CorePoolSize {
		return fmt.Errorf("pool sizes must satisfy 0 < core <= max")
	}
	if config.Registry.Host == "" && len(config.Resources) == 0 {
		return fmt.Errorf("either a registry database or a static resource list is required")
	}
	return nil
}
