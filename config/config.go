package config

import (
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"
)

const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

const (
	// KeyProjectsJSON is the settings key holding the serialized project list.
	KeyProjectsJSON = "projects_json"
	// EnvProjectsJSON is the environment variable bound to KeyProjectsJSON.
	EnvProjectsJSON = "SUPABASE_PROJECTS_JSON"

	DefaultPingTimeout = 10 * time.Second
)

type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	Environment string `mapstructure:"environment"`
}

type PingConfig struct {
	Timeout     string `mapstructure:"timeout"`
	Concurrency int    `mapstructure:"concurrency"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type Config struct {
	Server       ServerConfig  `mapstructure:"server"`
	Ping         PingConfig    `mapstructure:"ping"`
	Logging      LoggingConfig `mapstructure:"logging"`
	ProjectsJSON string        `mapstructure:"projects_json"`

	source *viper.Viper
}

// Load reads service settings from defaults, an optional config.yaml and the
// environment. The project list is not validated here: a broken list must not
// keep the service from starting.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.environment", EnvDev)
	v.SetDefault("ping.timeout", DefaultPingTimeout.String())
	v.SetDefault("ping.concurrency", 0)
	v.SetDefault("logging.level", LogLevelInfo)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Cloud Run and friends hand the listen port over as PORT.
	if err := v.BindEnv("server.port", "PORT"); err != nil {
		return nil, err
	}
	if err := v.BindEnv(KeyProjectsJSON, EnvProjectsJSON); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("failed to read config file", slog.String("error", err.Error()))
			return nil, err
		}
		slog.Info("config file not found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", slog.String("file", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		slog.Error("failed to unmarshal config", slog.String("error", err.Error()))
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return nil, err
	}

	cfg.source = v
	return &cfg, nil
}

// Targets parses the current project list. When the config came from Load the
// list is re-read from its source on every call.
func (c *Config) Targets() ([]ProjectTarget, error) {
	raw := c.ProjectsJSON
	if c.source != nil {
		raw = c.source.GetString(KeyProjectsJSON)
	}
	return ParseTargets(raw)
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Server),
		validation.Field(&c.Ping),
		validation.Field(&c.Logging),
	)
}

func (s ServerConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Environment,
			validation.Required,
			validation.In(EnvDev, EnvStaging, EnvProd),
		),
		validation.Field(&s.Host, is.Host),
		validation.Field(&s.Port,
			validation.Required,
			validation.Min(1),
			validation.Max(65535),
		),
	)
}

// Address is the host:port the HTTP server listens on.
func (s ServerConfig) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

func (p PingConfig) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Timeout,
			validation.Required,
			validation.By(validateDuration),
		),
		validation.Field(&p.Concurrency, validation.Min(0)),
	)
}

// TimeoutDuration returns the per-call timeout, falling back to
// DefaultPingTimeout when the setting is unusable.
func (p PingConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(p.Timeout)
	if err != nil || d <= 0 {
		return DefaultPingTimeout
	}
	return d
}

func (l LoggingConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level,
			validation.Required,
			validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
		),
	)
}

func validateDuration(value interface{}) error {
	durationStr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	d, err := time.ParseDuration(durationStr)
	if err != nil {
		return validation.NewError("validation_invalid_duration", "must be a valid duration (e.g., 500ms, 10s, 1m)")
	}

	if d <= 0 {
		return validation.NewError("validation_invalid_duration", "must be positive")
	}

	return nil
}
