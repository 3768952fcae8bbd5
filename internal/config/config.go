package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// HEALTHMATE_API_BASE_URL.
const EnvPrefix = "HEALTHMATE"

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	API        APIConfig        `mapstructure:"api"`
	Session    SessionConfig    `mapstructure:"session"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Database   DatabaseConfig   `mapstructure:"database"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	CORS       CORSConfig       `mapstructure:"cors"`
	SMTP       SMTPConfig       `mapstructure:"smtp"`
	LoginGuard LoginGuardConfig `mapstructure:"login_guard"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
	Mode           string        `mapstructure:"mode"`
	// TrustedProxies are IPs or CIDRs allowed to set X-Forwarded-For.
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

type APIConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	Timeout         time.Duration `mapstructure:"timeout"`
	BreakerFailures int           `mapstructure:"breaker_failures"`
	BreakerTimeout  time.Duration `mapstructure:"breaker_timeout"`
}

type SessionConfig struct {
	Backend         string        `mapstructure:"backend"`
	TTL             time.Duration `mapstructure:"ttl"`
	Secret          string        `mapstructure:"secret"`
	CookieName      string        `mapstructure:"cookie_name"`
	CookieDomain    string        `mapstructure:"cookie_domain"`
	SecureCookie    bool          `mapstructure:"secure_cookie"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Name         string `mapstructure:"name"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

// DSN is the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type SMTPConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	From      string `mapstructure:"from"`
	PortalURL string `mapstructure:"portal_url"`
}

type LoginGuardConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	Lockout     time.Duration `mapstructure:"lockout"`
}

type LogConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
}

// envOverrides are read with envconfig after the file. Pointers stay nil
// when the variable is unset so file values survive.
type envOverrides struct {
	ServerPort     *int           `envconfig:"SERVER_PORT"`
	APIBaseURL     *string        `envconfig:"API_BASE_URL"`
	APITimeout     *time.Duration `envconfig:"API_TIMEOUT"`
	SessionBackend *string        `envconfig:"SESSION_BACKEND"`
	SessionSecret  *string        `envconfig:"SESSION_SECRET"`
	SessionTTL     *time.Duration `envconfig:"SESSION_TTL"`
	SecureCookie   *bool          `envconfig:"SESSION_SECURE_COOKIE"`
	RedisURL       *string        `envconfig:"REDIS_URL"`
	DBHost         *string        `envconfig:"DB_HOST"`
	DBPort         *int           `envconfig:"DB_PORT"`
	DBUser         *string        `envconfig:"DB_USER"`
	DBPassword     *string        `envconfig:"DB_PASSWORD"`
	DBName         *string        `envconfig:"DB_NAME"`
	SMTPHost       *string        `envconfig:"SMTP_HOST"`
	SMTPPassword   *string        `envconfig:"SMTP_PASSWORD"`
	CORSOrigins    []string       `envconfig:"CORS_ALLOWED_ORIGINS"`
	TrustedProxies []string       `envconfig:"SERVER_TRUSTED_PROXIES"`
	LogLevel       *string        `envconfig:"LOG_LEVEL"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.request_timeout", "30s")
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.mode", "release")

	v.SetDefault("api.base_url", "http://localhost:5000/api")
	v.SetDefault("api.timeout", "15s")
	v.SetDefault("api.breaker_failures", 5)
	v.SetDefault("api.breaker_timeout", "30s")

	v.SetDefault("session.backend", "memory")
	v.SetDefault("session.ttl", "24h")
	v.SetDefault("session.cookie_name", "hm_session")
	v.SetDefault("session.secure_cookie", true)
	v.SetDefault("session.cleanup_interval", "10m")

	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("rate_limit.rps", 20)
	v.SetDefault("rate_limit.burst", 40)

	v.SetDefault("smtp.port", 587)

	v.SetDefault("login_guard.max_attempts", 5)
	v.SetDefault("login_guard.lockout", "15m")

	v.SetDefault("log.level", "info")
}

// LoadConfig reads path, or config.yml from the usual locations when path is
// empty, then applies HEALTHMATE_* overrides. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/app/config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}

	setInt(&c.Server.Port, env.ServerPort)
	setString(&c.API.BaseURL, env.APIBaseURL)
	setDuration(&c.API.Timeout, env.APITimeout)
	setString(&c.Session.Backend, env.SessionBackend)
	setString(&c.Session.Secret, env.SessionSecret)
	setDuration(&c.Session.TTL, env.SessionTTL)
	if env.SecureCookie != nil {
		c.Session.SecureCookie = *env.SecureCookie
	}
	setString(&c.Redis.URL, env.RedisURL)
	setString(&c.Database.Host, env.DBHost)
	setInt(&c.Database.Port, env.DBPort)
	setString(&c.Database.User, env.DBUser)
	setString(&c.Database.Password, env.DBPassword)
	setString(&c.Database.Name, env.DBName)
	setString(&c.SMTP.Host, env.SMTPHost)
	setString(&c.SMTP.Password, env.SMTPPassword)
	if len(env.CORSOrigins) > 0 {
		c.CORS.AllowedOrigins = env.CORSOrigins
	}
	if len(env.TrustedProxies) > 0 {
		c.Server.TrustedProxies = env.TrustedProxies
	}
	setString(&c.Log.Level, env.LogLevel)
	return nil
}

// Validate checks the settings the gateway cannot start without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return errors.New("api.base_url is required")
	}
	if len(c.Session.Secret) < 16 {
		return errors.New("session.secret must be at least 16 characters")
	}
	for _, p := range c.Server.TrustedProxies {
		if net.ParseIP(p) == nil {
			if _, _, err := net.ParseCIDR(p); err != nil {
				return fmt.Errorf("server.trusted_proxies: %q is not an IP or CIDR", p)
			}
		}
	}
	switch c.Session.Backend {
	case "memory":
	case "redis":
		if c.Redis.URL == "" {
			return errors.New("redis.url is required for the redis session backend")
		}
	case "postgres":
		if c.Database.Host == "" || c.Database.Name == "" {
			return errors.New("database.host and database.name are required for the postgres session backend")
		}
	default:
		return fmt.Errorf("unknown session backend %q", c.Session.Backend)
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *time.Duration) {
	if v != nil {
		*dst = *v
	}
}
