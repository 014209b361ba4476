package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DefaultEnvPrefix is used when the loader is created with an empty prefix.
const DefaultEnvPrefix = "APP"

// Loader defines the interface for loading configuration
type Loader interface {
	Load() (*Config, error)
}

// ViperLoader implements Loader using Viper.
//
// Precedence, lowest first: defaults, config file, .env file, process environment, flags.
type ViperLoader struct {
	configFile string
	envPrefix  string
	envFile    string
	flags      *pflag.FlagSet
}

// NewViperLoader creates a new ViperLoader.
// configFile may be empty; envPrefix defaults to APP.
func NewViperLoader(configFile, envPrefix string) *ViperLoader {
	return &ViperLoader{
		configFile: configFile,
		envPrefix:  envPrefix,
	}
}

// WithEnvFile sets a dotenv file whose values apply below the process environment.
func (l *ViperLoader) WithEnvFile(path string) *ViperLoader {
	l.envFile = strings.TrimSpace(path)
	return l
}

// WithFlags applies the changed flags of fs named in FlagKeys on top of every other source.
func (l *ViperLoader) WithFlags(fs *pflag.FlagSet) *ViperLoader {
	l.flags = fs
	return l
}

// FlagKeys maps command-line flag names to configuration keys.
var FlagKeys = map[string]string{
	"log-level":   "observability.log_level",
	"log-format":  "observability.log_format",
	"port":        "http.port",
	"router":      "http.router",
	"db-url":      "database.url",
	"mgmt-port":   "management.port",
	"environment": "service.environment",
}

// Load reads, merges and validates the configuration.
func (l *ViperLoader) Load() (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", l.configFile, err)
		}
	}

	var dotenv map[string]string
	if l.envFile != "" {
		values, err := godotenv.Read(l.envFile)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read env file %s: %w", l.envFile, err)
			}
		}
		dotenv = values
	}

	for _, binding := range l.envBindings() {
		_ = v.BindEnv(append([]string{binding.key}, binding.names...)...)
		if dotenv == nil || lookupAny(os.LookupEnv, binding.names) {
			continue
		}
		if value, ok := lookupFirst(dotenv, binding.names); ok {
			v.Set(binding.key, value)
		}
	}

	if l.flags != nil {
		for name, key := range FlagKeys {
			f := l.flags.Lookup(name)
			if f == nil || !f.Changed {
				continue
			}
			v.Set(key, f.Value.String())
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

type envBinding struct {
	key   string
	names []string
}

// envBindings lists every configuration key with its environment names, first match wins.
func (l *ViperLoader) envBindings() []envBinding {
	p := l.prefixedEnv
	return []envBinding{
		{"service.name", []string{p("SERVICE_NAME")}},
		{"service.environment", []string{p("SERVICE_ENVIRONMENT"), p("ENVIRONMENT")}},

		// PROT is the historical spelling still set by existing deployments.
		{"http.port", []string{p("HTTP_PORT"), "PROT", "PORT"}},
		{"http.router", []string{p("HTTP_ROUTER"), p("ROUTER_TYPE")}},
		{"http.read_timeout", []string{p("HTTP_READ_TIMEOUT")}},
		{"http.write_timeout", []string{p("HTTP_WRITE_TIMEOUT")}},
		{"http.idle_timeout", []string{p("HTTP_IDLE_TIMEOUT")}},
		{"http.request_timeout", []string{p("HTTP_REQUEST_TIMEOUT")}},
		{"http.shutdown_timeout", []string{p("HTTP_SHUTDOWN_TIMEOUT")}},
		{"http.compression.enabled", []string{p("HTTP_COMPRESSION_ENABLED")}},
		{"http.compression.gzip", []string{p("HTTP_COMPRESSION_GZIP")}},
		{"http.compression.brotli", []string{p("HTTP_COMPRESSION_BROTLI")}},
		{"http.compression.gzip_level", []string{p("HTTP_COMPRESSION_GZIP_LEVEL")}},
		{"http.compression.brotli_level", []string{p("HTTP_COMPRESSION_BROTLI_LEVEL")}},
		{"http.compression.min_size", []string{p("HTTP_COMPRESSION_MIN_SIZE")}},

		{"management.enabled", []string{p("MGMT_ENABLED"), p("MANAGEMENT_ENABLED")}},
		{"management.port", []string{p("MGMT_PORT"), p("MANAGEMENT_PORT")}},
		{"management.read_timeout", []string{p("MGMT_READ_TIMEOUT")}},
		{"management.write_timeout", []string{p("MGMT_WRITE_TIMEOUT")}},

		{"cors.enabled", []string{p("CORS_ENABLED")}},
		{"cors.allow_origins", []string{p("CORS_ALLOW_ORIGINS")}},
		{"cors.allow_methods", []string{p("CORS_ALLOW_METHODS")}},
		{"cors.allow_headers", []string{p("CORS_ALLOW_HEADERS")}},
		{"cors.expose_headers", []string{p("CORS_EXPOSE_HEADERS")}},
		{"cors.allow_credentials", []string{p("CORS_ALLOW_CREDENTIALS")}},
		{"cors.max_age", []string{p("CORS_MAX_AGE")}},

		{"database.url", []string{p("DB_URL"), p("DATABASE_URL")}},
		{"database.url_template", []string{p("DB_URL_TEMPLATE")}},
		{"database.user", []string{p("DB_USER"), "DB_USER"}},
		{"database.password", []string{p("DB_PASS"), "DB_PASS"}},
		{"database.database_name", []string{p("DB_DATABASE_NAME"), p("DB_NAME")}},
		{"database.collection", []string{p("DB_COLLECTION")}},
		{"database.app_name", []string{p("DB_APP_NAME")}},
		{"database.connect_timeout", []string{p("DB_CONNECT_TIMEOUT")}},
		{"database.query_timeout", []string{p("DB_QUERY_TIMEOUT")}},
		{"database.max_pool_size", []string{p("DB_MAX_POOL_SIZE")}},
		{"database.strict_api", []string{p("DB_STRICT_API")}},
		{"database.slow_ping_threshold", []string{p("DB_SLOW_PING_THRESHOLD")}},

		{"catalog.default_page_size", []string{p("CATALOG_DEFAULT_PAGE_SIZE")}},
		{"catalog.max_page_size", []string{p("CATALOG_MAX_PAGE_SIZE")}},
		{"catalog.search.pattern_mode", []string{p("CATALOG_SEARCH_PATTERN_MODE")}},

		{"observability.log_level", []string{p("LOG_LEVEL")}},
		{"observability.log_format", []string{p("LOG_FORMAT")}},
		{"observability.metrics_namespace", []string{p("METRICS_NAMESPACE")}},
		{"observability.request_logging.enabled", []string{p("REQUEST_LOGGING_ENABLED")}},
		{"observability.request_logging.log_start", []string{p("REQUEST_LOGGING_LOG_START")}},
		{"observability.request_logging.excluded_path_prefixes", []string{p("REQUEST_LOGGING_EXCLUDED_PATHS")}},
		{"observability.tracing.enabled", []string{p("TRACING_ENABLED")}},
		{"observability.tracing.endpoint", []string{p("TRACING_ENDPOINT"), "OTEL_EXPORTER_OTLP_ENDPOINT"}},
		{"observability.tracing.sample_rate", []string{p("TRACING_SAMPLE_RATE")}},
		{"observability.tracing.insecure", []string{p("TRACING_INSECURE")}},
	}
}

func (l *ViperLoader) prefixedEnv(suffix string) string {
	prefix := strings.TrimSpace(l.envPrefix)
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}
	return fmt.Sprintf("%s_%s", strings.ToUpper(prefix), suffix)
}

func lookupAny(lookup func(string) (string, bool), names []string) bool {
	for _, name := range names {
		if value, ok := lookup(name); ok && value != "" {
			return true
		}
	}
	return false
}

func lookupFirst(values map[string]string, names []string) (string, bool) {
	for _, name := range names {
		if value, ok := values[name]; ok {
			return value, true
		}
	}
	return "", false
}

// setDefaults registers every leaf of cfg as a viper default, keyed by mapstructure tags.
func setDefaults(v *viper.Viper, cfg *Config) {
	walkLeaves(reflect.ValueOf(cfg).Elem(), "", func(key string, value any) {
		v.SetDefault(key, value)
	})
}

func walkLeaves(value reflect.Value, prefix string, fn func(key string, value any)) {
	t := value.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Tag.Get("mapstructure")
		if name == "" || name == "-" {
			name = strings.ToLower(field.Name)
		}
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}
		fv := value.Field(i)
		if fv.Kind() == reflect.Struct && fv.Type().PkgPath() != "time" {
			walkLeaves(fv, key, fn)
			continue
		}
		fn(key, fv.Interface())
	}
}
