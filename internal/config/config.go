package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix              = "SCOREBOARD"
	defaultHTTPAddress     = "0.0.0.0:8080"
	defaultStorageDriver   = DriverSQLite
	defaultDatabasePath    = "scoreboard.db"
	defaultFilePath        = "data/database.json"
	defaultRedisAddress    = "localhost:6379"
	defaultRedisKey        = "scoreboard:document"
	defaultSubjectPrefix   = "scoreboard.activity"
	defaultTokenTTLMinutes = 60
	defaultLogLevel        = "info"
	defaultLogFormat       = "json"
)

// Supported storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverFile     = "file"
	DriverRedis    = "redis"
)

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPAddress       string
	StorageDriver     string
	DatabasePath      string
	DatabaseDSN       string
	FilePath          string
	RedisAddress      string
	RedisPassword     string
	RedisDB           int
	RedisKey          string
	NATSURL           string
	NATSToken         string
	NATSSubjectPrefix string
	SigningSecret     string
	TokenTTL          time.Duration
	LogLevel          string
	LogFormat         string
}

// AuthEnabled reports whether mutating routes require an admin token.
func (c AppConfig) AuthEnabled() bool {
	return strings.TrimSpace(c.SigningSecret) != ""
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("storage.driver", defaultStorageDriver)
	configViper.SetDefault("storage.file_path", defaultFilePath)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("database.dsn", "")
	configViper.SetDefault("redis.address", defaultRedisAddress)
	configViper.SetDefault("redis.password", "")
	configViper.SetDefault("redis.db", 0)
	configViper.SetDefault("redis.key", defaultRedisKey)
	configViper.SetDefault("nats.url", "")
	configViper.SetDefault("nats.token", "")
	configViper.SetDefault("nats.subject_prefix", defaultSubjectPrefix)
	configViper.SetDefault("auth.signing_secret", "")
	configViper.SetDefault("auth.token_ttl_minutes", defaultTokenTTLMinutes)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("log.format", defaultLogFormat)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:       configViper.GetString("http.address"),
		StorageDriver:     strings.ToLower(strings.TrimSpace(configViper.GetString("storage.driver"))),
		DatabasePath:      configViper.GetString("database.path"),
		DatabaseDSN:       configViper.GetString("database.dsn"),
		FilePath:          configViper.GetString("storage.file_path"),
		RedisAddress:      configViper.GetString("redis.address"),
		RedisPassword:     configViper.GetString("redis.password"),
		RedisDB:           configViper.GetInt("redis.db"),
		RedisKey:          configViper.GetString("redis.key"),
		NATSURL:           configViper.GetString("nats.url"),
		NATSToken:         configViper.GetString("nats.token"),
		NATSSubjectPrefix: configViper.GetString("nats.subject_prefix"),
		SigningSecret:     configViper.GetString("auth.signing_secret"),
		TokenTTL:          time.Duration(configViper.GetInt("auth.token_ttl_minutes")) * time.Minute,
		LogLevel:          configViper.GetString("log.level"),
		LogFormat:         configViper.GetString("log.format"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.HTTPAddress) == "" {
		return fmt.Errorf("http.address is required")
	}
	switch c.StorageDriver {
	case DriverSQLite:
		if strings.TrimSpace(c.DatabasePath) == "" {
			return fmt.Errorf("database.path is required")
		}
	case DriverPostgres:
		if strings.TrimSpace(c.DatabaseDSN) == "" {
			return fmt.Errorf("database.dsn is required for the postgres driver")
		}
	case DriverFile:
		if strings.TrimSpace(c.FilePath) == "" {
			return fmt.Errorf("storage.file_path is required for the file driver")
		}
	case DriverRedis:
		if strings.TrimSpace(c.RedisAddress) == "" {
			return fmt.Errorf("redis.address is required for the redis driver")
		}
	default:
		return fmt.Errorf("unsupported storage.driver %q", c.StorageDriver)
	}
	if c.NATSURL != "" && strings.TrimSpace(c.NATSSubjectPrefix) == "" {
		return fmt.Errorf("nats.subject_prefix is required when nats.url is set")
	}
	if c.AuthEnabled() && c.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl_minutes must be positive")
	}
	return nil
}
