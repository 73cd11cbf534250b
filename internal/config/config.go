package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config is the application configuration
type Config struct {
	TenantsDir string          `mapstructure:"tenants_dir"`
	Audio      AudioConfig     `mapstructure:"audio"`
	Synthesis  SynthesisConfig `mapstructure:"synthesis"`
	Events     EventsConfig    `mapstructure:"events"`
	Logging    LoggingConfig   `mapstructure:"logging"`
}

// AudioConfig says where vendor audio is written and served from
type AudioConfig struct {
	Dir      string        `mapstructure:"dir"`
	BaseURL  string        `mapstructure:"base_url"`
	Format   string        `mapstructure:"format"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// SynthesisConfig tunes the synthesis cascade
type SynthesisConfig struct {
	TierTimeout time.Duration `mapstructure:"tier_timeout"`
}

// EventsConfig configures event publishing
type EventsConfig struct {
	NATSURL       string `mapstructure:"nats_url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // console, json
}

// Load reads the configuration from file, environment variables and defaults.
// If configFile is empty the search order is ./callpersona.yaml,
// ./configs/callpersona.yaml, /etc/callpersona/callpersona.yaml.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("tenants_dir", "./tenants")
	v.SetDefault("audio.dir", "./audio")
	v.SetDefault("audio.base_url", "http://localhost:8080/audio")
	v.SetDefault("audio.format", "mp3")
	v.SetDefault("audio.cache_ttl", "1h")
	v.SetDefault("synthesis.tier_timeout", "10s")
	v.SetDefault("events.nats_url", "")
	v.SetDefault("events.subject_prefix", "callpersona")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("callpersona")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/callpersona")
	}

	// CALLPERSONA_TENANTS_DIR, CALLPERSONA_AUDIO_BASE_URL, ...
	v.SetEnvPrefix("CALLPERSONA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		log.Debug().Msg("No config file found, using defaults and environment variables")
	} else {
		log.Debug().Str("path", v.ConfigFileUsed()).Msg("Loaded config file")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// SetupLogging configures the global zerolog logger
func SetupLogging(cfg LoggingConfig, w io.Writer) {
	if w == nil {
		w = os.Stderr
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if strings.ToLower(cfg.Format) == "json" {
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen})
}
