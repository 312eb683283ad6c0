package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	apperrors "github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/monitoring"
)

// EnvPrefix is prepended to every environment variable, e.g. RISK_PORT.
const EnvPrefix = "RISK"

// Config holds the service settings
type Config struct {
	Port           string        `mapstructure:"port"`
	DataDir        string        `mapstructure:"data_dir"`
	Profile        string        `mapstructure:"profile"`
	LogLevel       string        `mapstructure:"log_level"`
	GinMode        string        `mapstructure:"gin_mode"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
	RatePerMin     int           `mapstructure:"rate_per_min"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	CORSOrigins    []string      `mapstructure:"cors_origins"`
	HSTS           bool          `mapstructure:"hsts"`
	CSPReportURI   string        `mapstructure:"csp_report_uri"`
	Gzip           bool          `mapstructure:"gzip"`
	History        bool          `mapstructure:"history"`
	Profiling      bool          `mapstructure:"profiling"`
	// JWTSecret signs the admin bearer tokens; empty leaves the mutating
	// routes open.
	JWTSecret string `mapstructure:"jwt_secret"`
}

// Default returns the settings used when nothing is configured
func Default() *Config {
	return &Config{
		Port:           "8080",
		DataDir:        "./data",
		Profile:        "default",
		LogLevel:       "info",
		GinMode:        "release",
		CacheTTL:       15 * time.Minute,
		MaxUploadBytes: 10 << 20,
		RatePerMin:     60,
		RequestTimeout: 30 * time.Second,
		CORSOrigins:    []string{"*"},
		HSTS:           false,
		CSPReportURI:   "",
		Gzip:           true,
		History:        true,
		Profiling:      false,
		JWTSecret:      "",
	}
}

// SetDefaults registers every key with v so environment overrides apply
func SetDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("port", defaults.Port)
	v.SetDefault("data_dir", defaults.DataDir)
	v.SetDefault("profile", defaults.Profile)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("gin_mode", defaults.GinMode)
	v.SetDefault("cache_ttl", defaults.CacheTTL)
	v.SetDefault("max_upload_bytes", defaults.MaxUploadBytes)
	v.SetDefault("rate_per_min", defaults.RatePerMin)
	v.SetDefault("request_timeout", defaults.RequestTimeout)
	v.SetDefault("cors_origins", defaults.CORSOrigins)
	v.SetDefault("hsts", defaults.HSTS)
	v.SetDefault("csp_report_uri", defaults.CSPReportURI)
	v.SetDefault("gzip", defaults.Gzip)
	v.SetDefault("history", defaults.History)
	v.SetDefault("profiling", defaults.Profiling)
	v.SetDefault("jwt_secret", defaults.JWTSecret)
}

// Load reads defaults, the optional YAML file at path and RISK_* environment
// variables, in increasing order of precedence
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, apperrors.NewConfigurationError(fmt.Sprintf("failed to read config file %s", path), err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperrors.NewConfigurationError("failed to decode configuration", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the settings for values the service cannot start with
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("port %q is not a valid TCP port", c.Port))
	}
	if strings.TrimSpace(c.DataDir) == "" {
		problems = append(problems, "data_dir must not be empty")
	}
	if strings.TrimSpace(c.Profile) == "" {
		problems = append(problems, "profile must not be empty")
	}
	if _, ok := monitoring.LookupLevel(c.LogLevel); !ok {
		problems = append(problems, fmt.Sprintf("log_level %q must be one of debug, info, warn, error", c.LogLevel))
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		problems = append(problems, fmt.Sprintf("gin_mode %q must be one of debug, release, test", c.GinMode))
	}
	if c.CacheTTL < 0 {
		problems = append(problems, "cache_ttl must not be negative")
	}
	if c.MaxUploadBytes <= 0 {
		problems = append(problems, "max_upload_bytes must be positive")
	}
	if c.RatePerMin < 0 {
		problems = append(problems, "rate_per_min must not be negative")
	}
	if c.RequestTimeout <= 0 {
		problems = append(problems, "request_timeout must be positive")
	}

	if len(problems) > 0 {
		return apperrors.NewConfigurationError("invalid configuration: "+strings.Join(problems, "; "), nil)
	}
	return nil
}

// Addr returns the listen address for Port
func (c *Config) Addr() string {
	return ":" + c.Port
}
