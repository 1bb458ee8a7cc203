package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"ghostlounge_backend/pkg/utils"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	envPrefix = "GHOSTLOUNGE"
)

// Config holds application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Redis    RedisConfig    `mapstructure:"redis"`
	AMQP     AMQPConfig     `mapstructure:"amqp"`
	Notifier NotifierConfig `mapstructure:"notifier"`
	Cache    CacheConfig    `mapstructure:"cache"`
}

type ServerConfig struct {
	Port        string   `mapstructure:"port"`
	CORSOrigins []string `mapstructure:"cors_origins"`
	LogLevel    string   `mapstructure:"log_level"`
	PrettyLogs  bool     `mapstructure:"pretty_logs"`
	GinMode     string   `mapstructure:"gin_mode"`
}

// DatabaseConfig selects the store. SQLite is the single-desk default.
type DatabaseConfig struct {
	Driver     string `mapstructure:"driver"`
	SQLitePath string `mapstructure:"sqlite_path"`
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	Name       string `mapstructure:"name"`
	SSLMode    string `mapstructure:"sslmode"`
	Seed       bool   `mapstructure:"seed"`
}

type AuthConfig struct {
	JWTSecret       string        `mapstructure:"jwt_secret"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
	AdminUsername   string        `mapstructure:"admin_username"`
	AdminPassword   string        `mapstructure:"admin_password"`
}

// RedisConfig: an empty Addr disables the Redis balance cache and lock.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AMQPConfig: an empty URL disables the calendar mirror.
type AMQPConfig struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}

type NotifierConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type CacheConfig struct {
	BalanceTTL time.Duration `mapstructure:"balance_ttl"`
}

// PostgresDSN renders a lib/pq connection string.
func (d DatabaseConfig) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000", "http://localhost:5173"})
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.pretty_logs", false)
	v.SetDefault("server.gin_mode", "release")

	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.sqlite_path", "ghostlounge.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "ghostlounge")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.seed", true)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.access_token_ttl", 12*time.Hour)
	v.SetDefault("auth.refresh_token_ttl", 7*24*time.Hour)
	v.SetDefault("auth.admin_username", "admin")
	v.SetDefault("auth.admin_password", "admin123")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("amqp.url", "")
	v.SetDefault("amqp.exchange", "ghostlounge.calendar")

	v.SetDefault("notifier.interval", 5*time.Minute)
	v.SetDefault("cache.balance_ttl", time.Minute)
}

// Load reads configuration from defaults, an optional config file and env.
// Env var overrides use prefix GHOSTLOUNGE_, e.g. GHOSTLOUNGE_DATABASE_DRIVER.
// A .env file in the working directory is loaded first when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if cfgPath := utils.Getenv(envPrefix+"_CONFIG", ""); cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && utils.Getenv(envPrefix+"_CONFIG", "") != "" {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	// AutomaticEnv does not split lists for slices given as one env var.
	if raw := utils.Getenv(envPrefix+"_SERVER_CORS_ORIGINS", ""); raw != "" {
		c.Server.CORSOrigins = splitList(raw)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects configurations the server cannot start with.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if strings.TrimSpace(c.Database.SQLitePath) == "" {
			return errors.New("config: database.sqlite_path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Database.Host == "" || c.Database.Name == "" {
			return errors.New("config: database.host and database.name are required for the postgres driver")
		}
	default:
		return fmt.Errorf("config: unknown database.driver %q", c.Database.Driver)
	}
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("config: auth.jwt_secret must be set")
	}
	if c.Notifier.Interval <= 0 {
		return errors.New("config: notifier.interval must be positive")
	}
	return nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
