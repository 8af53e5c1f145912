package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	Remote   RemoteConfig
	Redis    RedisConfig
	Device   DeviceConfig
	Location LocationConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Remote.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CREWZ_APP_ENV" required:"true"`
	LogLevel     string `envconfig:"CREWZ_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"CREWZ_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"CREWZ_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// RemoteConfig points the client at the legacy query-string/XML service.
type RemoteConfig struct {
	BaseURL       string        `envconfig:"CREWZ_REMOTE_BASE_URL" required:"true"`
	ClientVersion string        `envconfig:"CREWZ_CLIENT_VERSION" default:"1.0.0"`
	Timeout       time.Duration `envconfig:"CREWZ_REMOTE_TIMEOUT" default:"30s"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CREWZ_REDIS_URL"`
	Address      string        `envconfig:"CREWZ_REDIS_ADDR"`
	Password     string        `envconfig:"CREWZ_REDIS_PASSWORD"`
	DB           int           `envconfig:"CREWZ_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CREWZ_REDIS_POOL_SIZE" default:"4"`
	MinIdleConns int           `envconfig:"CREWZ_REDIS_MIN_IDLE_CONNS" default:"1"`
	DialTimeout  time.Duration `envconfig:"CREWZ_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CREWZ_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CREWZ_REDIS_WRITE_TIMEOUT" default:"5s"`
	KeyNamespace string        `envconfig:"CREWZ_REDIS_NAMESPACE" default:"crewz"`
}

// Enabled reports whether a Redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

// DeviceConfig stands in for the handset identity when running outside a device.
type DeviceConfig struct {
	ID              string `envconfig:"CREWZ_DEVICE_ID"`
	PlatformType    string `envconfig:"CREWZ_DEVICE_PLATFORM" default:"go"`
	OSVersion       string `envconfig:"CREWZ_DEVICE_OS_VERSION"`
	SoftwareVersion string `envconfig:"CREWZ_DEVICE_SOFTWARE_VERSION"`
}

// LocationConfig is an optional fixed geolocation reading.
type LocationConfig struct {
	Latitude  *float64 `envconfig:"CREWZ_LATITUDE"`
	Longitude *float64 `envconfig:"CREWZ_LONGITUDE"`
}

// Available reports whether both coordinates were supplied.
func (l LocationConfig) Available() bool {
	return l.Latitude != nil && l.Longitude != nil
}

func (r *RemoteConfig) validate() error {
	trimmed := strings.TrimSpace(r.BaseURL)
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("%s must be an absolute url", EnvRemoteBaseURL)
	}
	if r.Timeout < 0 {
		return fmt.Errorf("%s must not be negative", EnvRemoteTimeout)
	}
	r.BaseURL = strings.TrimRight(trimmed, "/")
	return nil
}
