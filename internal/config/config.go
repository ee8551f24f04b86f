// Package config handles application configuration loading from a YAML file,
// a .env file and environment variables.
package config

import (
	"errors"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	contextutils "devopsquiz/internal/utils"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Supported AI providers
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Supported session stores
const (
	SessionStoreMemory   = "memory"
	SessionStoreCookie   = "cookie"
	SessionStorePostgres = "postgres"
)

// Supported database drivers
const (
	DatabaseDriverPostgres = "postgres"
	DatabaseDriverSQLite   = "sqlite"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig `json:"server" yaml:"server"`

	// Session storage configuration
	Session SessionConfig `json:"session" yaml:"session"`

	// Completion API configuration
	AI AIConfig `json:"ai" yaml:"ai"`

	// Topic table configuration
	Catalog CatalogConfig `json:"catalog" yaml:"catalog"`

	// Database configuration (optional, used for usage stats and the postgres session store)
	Database DatabaseConfig `json:"database" yaml:"database"`

	// AWS configuration for the SSM parameter store
	AWS AWSConfig `json:"aws" yaml:"aws"`

	// OpenTelemetry Configuration
	OpenTelemetry OpenTelemetryConfig `json:"open_telemetry" yaml:"open_telemetry"`

	// Internal fields
	IsTest bool `json:"is_test" yaml:"is_test"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Port            string   `json:"port" yaml:"port" validate:"required,numeric"`
	SessionSecret   string   `json:"session_secret" yaml:"session_secret" validate:"required"`
	Debug           bool     `json:"debug" yaml:"debug"`
	LogLevel        string   `json:"log_level" yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	MaxAIConcurrent int      `json:"max_ai_concurrent" yaml:"max_ai_concurrent" validate:"gte=0"`
	MaxAIPerSession int      `json:"max_ai_per_session" yaml:"max_ai_per_session" validate:"gte=0"`
	CORSOrigins     []string `json:"cors_origins" yaml:"cors_origins"`
}

// SessionConfig selects where quiz session state is kept
type SessionConfig struct {
	Store  string        `json:"store" yaml:"store" validate:"oneof=memory cookie postgres"`
	MaxAge time.Duration `json:"max_age" yaml:"max_age"`
	Secure bool          `json:"secure" yaml:"secure"`
}

// AIConfig represents the completion API configuration
type AIConfig struct {
	Provider        string        `json:"provider" yaml:"provider" validate:"oneof=openai anthropic"`
	Model           string        `json:"model" yaml:"model" validate:"required"`
	BaseURL         string        `json:"base_url,omitempty" yaml:"base_url,omitempty" validate:"omitempty,url"`
	APIKey          string        `json:"-" yaml:"api_key,omitempty"`
	APIKeyParameter string        `json:"api_key_parameter" yaml:"api_key_parameter"`
	MaxTokens       int           `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty" validate:"gte=0"`
	Temperature     float64       `json:"temperature,omitempty" yaml:"temperature,omitempty" validate:"gte=0,lte=2"`
	Timeout         time.Duration `json:"timeout" yaml:"timeout"`
}

// CatalogConfig points at an optional custom topic table
type CatalogConfig struct {
	Path string `json:"path" yaml:"path"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Driver          string        `json:"driver" yaml:"driver" validate:"oneof=postgres sqlite"`
	URL             string        `json:"url" yaml:"url"`
	MaxOpenConns    int           `json:"max_open_conns" yaml:"max_open_conns"`       // Maximum number of open connections to the database
	MaxIdleConns    int           `json:"max_idle_conns" yaml:"max_idle_conns"`       // Maximum number of idle connections in the pool
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" yaml:"conn_max_lifetime"` // Maximum amount of time a connection may be reused
}

// AWSConfig holds settings for the AWS SDK clients
type AWSConfig struct {
	Region   string `json:"region" yaml:"region"`
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"` // e.g. a localstack URL
}

// OpenTelemetryConfig holds all OpenTelemetry-related configuration
type OpenTelemetryConfig struct {
	Endpoint       string            `json:"endpoint" yaml:"endpoint"`               // Default: "localhost:4317"
	Protocol       string            `json:"protocol" yaml:"protocol"`               // "grpc" or "http", default: "grpc"
	Insecure       bool              `json:"insecure" yaml:"insecure"`               // Default: true (for localhost)
	Headers        map[string]string `json:"headers" yaml:"headers"`                 // For authenticated endpoints
	ServiceName    string            `json:"service_name" yaml:"service_name"`       // Default: "devops-quiz"
	ServiceVersion string            `json:"service_version" yaml:"service_version"` // From version package
	EnableTracing  bool              `json:"enable_tracing" yaml:"enable_tracing"`
	EnableMetrics  bool              `json:"enable_metrics" yaml:"enable_metrics"`
	EnableLogging  bool              `json:"enable_logging" yaml:"enable_logging"`
	SamplingRate   float64           `json:"sampling_rate" yaml:"sampling_rate"` // Default: 1.0 (100%)
}

// UsageStatsEnabled reports whether a database is configured for usage stats
func (c *Config) UsageStatsEnabled() bool {
	return strings.TrimSpace(c.Database.URL) != ""
}

// Validate checks the struct tags of the whole configuration tree
func (c *Config) Validate() error {
	if err := contextutils.ValidateStruct(c); err != nil {
		return err
	}
	if c.Session.Store == SessionStorePostgres && (!c.UsageStatsEnabled() || c.Database.Driver != DatabaseDriverPostgres) {
		return contextutils.ErrorWithContextf("session store %q requires a postgres database url", c.Session.Store)
	}
	return nil
}

// NewConfig loads configuration from the YAML file first, then overrides with
// environment variables (including those from a local .env file)
func NewConfig() (result0 *Config, err error) {
	// A missing .env is normal outside local development
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to load .env: %w", err)
	}

	config, err := loadConfigWithOverrides()
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to load config: %w", err)
	}

	config.overrideFromEnv()
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// overrideFromEnv overrides config values with environment variables using reflection
func (c *Config) overrideFromEnv() {
	overrideStructFromEnv(c)

	// Well-known variables used by container deployments
	if v := os.Getenv("SECRET_KEY"); v != "" && os.Getenv("SERVER_SESSION_SECRET") == "" {
		c.Server.SessionSecret = v
	}
	if v := os.Getenv("PORT"); v != "" && os.Getenv("SERVER_PORT") == "" {
		c.Server.Port = v
	}
	if c.AI.APIKey == "" {
		switch c.AI.Provider {
		case ProviderAnthropic:
			c.AI.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		default:
			c.AI.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
}

// applyDefaults fills every unset value with its default
func (c *Config) applyDefaults() {
	setDefault(&c.Server.Port, DefaultPort)
	setDefault(&c.Server.SessionSecret, DefaultSessionSecret)
	setDefault(&c.Server.LogLevel, "info")
	if c.Server.MaxAIConcurrent == 0 {
		c.Server.MaxAIConcurrent = DefaultMaxAIConcurrent
	}
	if c.Server.MaxAIPerSession == 0 {
		c.Server.MaxAIPerSession = DefaultMaxAIPerSession
	}

	setDefault(&c.Session.Store, SessionStoreMemory)
	if c.Session.MaxAge == 0 {
		c.Session.MaxAge = SessionMaxAge
	}

	setDefault(&c.AI.Provider, ProviderOpenAI)
	if c.AI.Model == "" {
		if c.AI.Provider == ProviderAnthropic {
			c.AI.Model = DefaultAnthropicModel
		} else {
			c.AI.Model = DefaultOpenAIModel
		}
	}
	setDefault(&c.AI.APIKeyParameter, DefaultAPIKeyParameter)
	if c.AI.MaxTokens == 0 {
		c.AI.MaxTokens = DefaultAIMaxTokens
	}
	if c.AI.Timeout == 0 {
		c.AI.Timeout = AIRequestTimeout
	}

	setDefault(&c.Database.Driver, DatabaseDriverPostgres)
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = DatabaseConnMaxLifetime
	}

	setDefault(&c.OpenTelemetry.Protocol, "grpc")
	setDefault(&c.OpenTelemetry.Endpoint, "localhost:4317")
	setDefault(&c.OpenTelemetry.ServiceName, "devops-quiz")
	if c.OpenTelemetry.SamplingRate == 0 {
		c.OpenTelemetry.SamplingRate = 1.0
	}
}

func setDefault(field *string, value string) {
	if strings.TrimSpace(*field) == "" {
		*field = value
	}
}

// overrideStructFromEnv recursively overrides struct fields with environment variables
func overrideStructFromEnv(v interface{}) {
	overrideStructFromEnvWithPrefix(v, "")
}

var durationType = reflect.TypeOf(time.Duration(0))

// overrideStructFromEnvWithPrefix recursively overrides struct fields with environment variables
func overrideStructFromEnvWithPrefix(v interface{}, prefix string) {
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	if val.Kind() != reflect.Struct {
		return
	}

	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)

		if !field.CanSet() {
			continue
		}

		yamlTag := strings.Split(fieldType.Tag.Get("yaml"), ",")[0]
		if yamlTag == "" || yamlTag == "-" {
			continue
		}

		envKey := strings.ToUpper(strings.ReplaceAll(yamlTag, "-", "_"))
		if prefix != "" {
			envKey = prefix + "_" + envKey
		}

		if field.Type() == durationType {
			if envVal := os.Getenv(envKey); envVal != "" {
				if d, err := time.ParseDuration(envVal); err == nil {
					field.SetInt(int64(d))
				}
			}
			continue
		}

		switch field.Kind() {
		case reflect.String:
			if envVal := os.Getenv(envKey); envVal != "" {
				field.SetString(envVal)
			}
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if envVal := os.Getenv(envKey); envVal != "" {
				if intVal, err := strconv.ParseInt(envVal, 10, 64); err == nil {
					field.SetInt(intVal)
				}
			}
		case reflect.Float32, reflect.Float64:
			if envVal := os.Getenv(envKey); envVal != "" {
				if floatVal, err := strconv.ParseFloat(envVal, 64); err == nil {
					field.SetFloat(floatVal)
				}
			}
		case reflect.Bool:
			if envVal := os.Getenv(envKey); envVal != "" {
				if boolVal, err := strconv.ParseBool(envVal); err == nil {
					field.SetBool(boolVal)
				}
			}
		case reflect.Slice:
			if envVal := os.Getenv(envKey); envVal != "" {
				// Handle string slices (like SERVER_CORS_ORIGINS)
				if field.Type().Elem().Kind() == reflect.String {
					parts := strings.Split(envVal, ",")
					slice := make([]string, 0, len(parts))
					for _, p := range parts {
						if p = strings.TrimSpace(p); p != "" {
							slice = append(slice, p)
						}
					}
					field.Set(reflect.ValueOf(slice))
				}
			}
		case reflect.Struct:
			if field.CanAddr() {
				overrideStructFromEnvWithPrefix(field.Addr().Interface(), envKey)
			}
		}
	}
}

// loadConfigWithOverrides loads the config file named by QUIZ_CONFIG_FILE or
// config.yaml; a missing default file yields an empty config
func loadConfigWithOverrides() (result0 *Config, err error) {
	if envPath := os.Getenv("QUIZ_CONFIG_FILE"); envPath != "" {
		config, err := loadConfigFromFile(envPath)
		if err != nil {
			return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to load config from %s: %w", envPath, err)
		}
		return config, nil
	}

	config, err := loadConfigFromFile("config.yaml")
	if errors.Is(err, os.ErrNotExist) {
		return &Config{}, nil
	}
	return config, err
}

// loadConfigFromFile loads configuration from a specific file
func loadConfigFromFile(path string) (result0 *Config, err error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(yamlFile, &config); err != nil {
		return nil, err
	}

	return &config, nil
}
