package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strings"
	"sync"
	"time"
	"unicode"

	"inventory-api/internal/logger"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

type Config struct {
	AppPort  string `envconfig:"APP_PORT" default:"3000"`
	AppName  string `envconfig:"APP_NAME" default:"inventory-api"`
	Env      string `envconfig:"ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	GRPCPort string `envconfig:"GRPC_PORT" default:"50051"`

	StorageDriver string `envconfig:"STORAGE_DRIVER" default:"memory"`
	SeedData      bool   `envconfig:"SEED_DATA" default:"true"`
	SQLitePath    string `envconfig:"SQLITE_PATH" default:"inventario.sqlite"`
	PostgresDSN   string `envconfig:"POSTGRES_DSN"`
	DBDebug       bool   `envconfig:"DB_DEBUG" default:"false"`
	MongoURI      string `envconfig:"MONGO_URI"`
	MongoDBName   string `envconfig:"MONGO_DB_NAME" default:"inventory"`

	RedisAddr   string        `envconfig:"REDIS_ADDR"`
	CachePrefix string        `envconfig:"CACHE_PREFIX" default:"inventory:products:"`
	CacheTTL    time.Duration `envconfig:"CACHE_TTL" default:"5m"`

	TraceExporter          string `envconfig:"TRACE_EXPORTER" default:"none"`
	RemoteTraceRpcURI      string `envconfig:"REMOTE_TRACE_RPC_URI"`
	RemoteLogHttpURI       string `envconfig:"REMOTE_LOG_HTTP_URI"`
	RemoteProfilingHttpURI string `envconfig:"REMOTE_PROFILING_HTTP_URI"`

	ExternalHTTP     string `envconfig:"EXTERNAL_HTTP" default:"http://localhost:3000"`
	ExternalGRPC     string `envconfig:"EXTERNAL_GRPC" default:"localhost:50051"`
	ClientMaxSleepMs int64  `envconfig:"CLIENT_MAX_SLEEP_MS" default:"1000"`

	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// SafeConfig is the subset of Config that may be logged.
type SafeConfig struct {
	AppPort                string `json:"app_port"`
	AppName                string `json:"app_name"`
	Env                    string `json:"env"`
	LogLevel               string `json:"log_level"`
	GRPCPort               string `json:"grpc_port"`
	StorageDriver          string `json:"storage_driver"`
	SeedData               bool   `json:"seed_data"`
	SQLitePath             string `json:"sqlite_path"`
	MongoDBName            string `json:"mongo_db_name"`
	CacheEnabled           bool   `json:"cache_enabled"`
	CacheTTL               string `json:"cache_ttl"`
	TraceExporter          string `json:"trace_exporter"`
	RemoteTraceRpcURI      string `json:"remote_trace_rpc_uri"`
	RemoteLogHttpURI       string `json:"remote_log_http_uri"`
	RemoteProfilingHttpURI string `json:"remote_profiling_http_uri"`
	ExternalHTTP           string `json:"external_http"`
	ExternalGRPC           string `json:"external_grpc"`
	ClientMaxSleepMs       int64  `json:"client_max_sleep_ms"`
}

func (c *Config) ToSafeConfig() SafeConfig {
	return SafeConfig{
		AppPort:                c.AppPort,
		AppName:                c.AppName,
		Env:                    c.Env,
		LogLevel:               c.LogLevel,
		GRPCPort:               c.GRPCPort,
		StorageDriver:          c.StorageDriver,
		SeedData:               c.SeedData,
		SQLitePath:             c.SQLitePath,
		MongoDBName:            c.MongoDBName,
		CacheEnabled:           c.CacheEnabled(),
		CacheTTL:               c.CacheTTL.String(),
		TraceExporter:          c.TraceExporter,
		RemoteTraceRpcURI:      c.RemoteTraceRpcURI,
		RemoteLogHttpURI:       c.RemoteLogHttpURI,
		RemoteProfilingHttpURI: c.RemoteProfilingHttpURI,
		ExternalHTTP:           c.ExternalHTTP,
		ExternalGRPC:           c.ExternalGRPC,
		ClientMaxSleepMs:       c.ClientMaxSleepMs,
	}
}

func (c *Config) CacheEnabled() bool {
	return c.RedisAddr != ""
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// Validate checks the settings that depend on each other.
func (c *Config) Validate() error {
	var problems []string

	switch c.StorageDriver {
	case DriverMemory:
	case DriverSQLite:
		if c.SQLitePath == "" {
			problems = append(problems, "SQLITE_PATH is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.PostgresDSN == "" {
			problems = append(problems, "POSTGRES_DSN is required for the postgres driver")
		}
	case DriverMongo:
		if c.MongoURI == "" {
			problems = append(problems, "MONGO_URI is required for the mongo driver")
		}
		if c.MongoDBName == "" {
			problems = append(problems, "MONGO_DB_NAME is required for the mongo driver")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown STORAGE_DRIVER %q", c.StorageDriver))
	}

	switch c.TraceExporter {
	case ExporterNone, ExporterStdout:
	case ExporterOTLP:
		if c.RemoteTraceRpcURI == "" {
			problems = append(problems, "REMOTE_TRACE_RPC_URI is required for the otlp exporter")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown TRACE_EXPORTER %q", c.TraceExporter))
	}

	if c.AppPort == "" {
		problems = append(problems, "APP_PORT must not be empty")
	}
	if c.ClientMaxSleepMs < 0 {
		problems = append(problems, "CLIENT_MAX_SLEEP_MS must not be negative")
	}
	if c.ShutdownTimeout <= 0 {
		problems = append(problems, "SHUTDOWN_TIMEOUT must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Load reads an optional .env file, binds the environment and validates the
// result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	cfg.TraceExporter = strings.ToLower(strings.TrimSpace(cfg.TraceExporter))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var (
	configInstance *Config
	configOnce     sync.Once
)

// Instance loads the configuration once per process and exits when it is
// invalid.
func Instance() *Config {
	configOnce.Do(func() {
		ctx := context.Background()

		cfg, err := Load()
		if err != nil {
			logger.Error(ctx, "Failed to load configuration", slog.String("error", err.Error()))
			os.Exit(1)
		}

		if cfg.RemoteLogHttpURI == "" {
			logger.Warn(ctx, "Missing REMOTE_LOG_HTTP_URI will skip sending log")
		}
		if cfg.TraceExporter == ExporterNone {
			logger.Warn(ctx, "TRACE_EXPORTER is none, spans will not be exported")
		}
		if cfg.RemoteProfilingHttpURI == "" {
			logger.Warn(ctx, "Missing REMOTE_PROFILING_HTTP_URI will skip sending profiling")
		}

		logger.Info(ctx, "Configuration loaded successfully", StructAttrs("data", cfg.ToSafeConfig())...)
		configInstance = cfg
	})

	return configInstance
}

// StructAttrs flattens the exported fields of s into prefixed attributes,
// e.g. StructAttrs("data", cfg) yields "data.app_port".
func StructAttrs(prefix string, s any) []slog.Attr {
	v := reflect.ValueOf(s)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	t := v.Type()

	attrs := make([]slog.Attr, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		key := prefix + "." + jsonKey(f)

		fv := v.Field(i)
		switch fv.Kind() {
		case reflect.String:
			attrs = append(attrs, slog.String(key, fv.String()))
		case reflect.Int, reflect.Int64, reflect.Int32:
			attrs = append(attrs, slog.Int64(key, fv.Int()))
		case reflect.Bool:
			attrs = append(attrs, slog.Bool(key, fv.Bool()))
		default:
			attrs = append(attrs, slog.Any(key, fv.Interface()))
		}
	}
	return attrs
}

func jsonKey(f reflect.StructField) string {
	if tag := f.Tag.Get("json"); tag != "" {
		return strings.Split(tag, ",")[0]
	}
	return toSnake(f.Name)
}

func toSnake(s string) string {
	var out strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 && s[i-1] != '_' {
				out.WriteRune('_')
			}
			out.WriteRune(unicode.ToLower(r))
		} else {
			out.WriteRune(r)
		}
	}
	return out.String()
}
