package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"gopkg.in/yaml.v3"
)

const redactedValue = "****"

var (
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"json", "text"}
	validRouters    = []string{RouterGin, RouterGorilla}
)

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Service.Name) == "" {
		errs = append(errs, errors.New("service.name is required"))
	}

	if !validPort(c.HTTP.Port) {
		errs = append(errs, fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port))
	}
	if !contains(validRouters, strings.ToLower(strings.TrimSpace(c.HTTP.Router))) {
		errs = append(errs, fmt.Errorf("invalid http.router: %s (must be one of: %v)", c.HTTP.Router, validRouters))
	}
	if c.HTTP.ReadTimeout < 0 || c.HTTP.WriteTimeout < 0 || c.HTTP.IdleTimeout < 0 {
		errs = append(errs, errors.New("http timeouts cannot be negative"))
	}
	if c.HTTP.RequestTimeout < 0 {
		errs = append(errs, errors.New("http.request_timeout cannot be negative"))
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("http.shutdown_timeout must be greater than zero"))
	}
	if comp := c.HTTP.Compression; comp.Enabled {
		if comp.Gzip && (comp.GzipLevel < 1 || comp.GzipLevel > 9) {
			errs = append(errs, fmt.Errorf("http.compression.gzip_level must be between 1 and 9, got %d", comp.GzipLevel))
		}
		if comp.Brotli && (comp.BrotliLevel < 0 || comp.BrotliLevel > 11) {
			errs = append(errs, fmt.Errorf("http.compression.brotli_level must be between 0 and 11, got %d", comp.BrotliLevel))
		}
		if comp.MinSize < 0 {
			errs = append(errs, errors.New("http.compression.min_size cannot be negative"))
		}
	}

	if c.Management.Enabled {
		if !validPort(c.Management.Port) {
			errs = append(errs, fmt.Errorf("management.port must be between 1 and 65535, got %d", c.Management.Port))
		} else if c.Management.Port == c.HTTP.Port {
			errs = append(errs, fmt.Errorf("management.port must differ from http.port (%d)", c.HTTP.Port))
		}
	}

	if c.CORS.Enabled {
		if len(c.CORS.AllowMethods) == 0 {
			errs = append(errs, errors.New("cors.allow_methods must contain at least one method when cors is enabled"))
		}
		if c.CORS.MaxAge < 0 {
			errs = append(errs, errors.New("cors.max_age cannot be negative"))
		}
		for index, origin := range c.CORS.AllowOrigins {
			if strings.TrimSpace(origin) == "" {
				errs = append(errs, fmt.Errorf("cors.allow_origins[%d] cannot be empty", index))
			} else if strings.Count(origin, "*") > 1 {
				errs = append(errs, fmt.Errorf("cors.allow_origins[%d] can contain only one '*' wildcard", index))
			}
		}
	}

	if c.Database.ConnectionURL() == "" {
		errs = append(errs, errors.New("database.url is required (or database.user and database.password with database.url_template)"))
	} else if err := validateMongoURL(c.Database.ConnectionURL()); err != nil {
		errs = append(errs, err)
	}
	if strings.TrimSpace(c.Database.DatabaseName) == "" {
		errs = append(errs, errors.New("database.database_name is required"))
	}
	if strings.TrimSpace(c.Database.Collection) == "" {
		errs = append(errs, errors.New("database.collection is required"))
	}
	if c.Database.ConnectTimeout <= 0 {
		errs = append(errs, errors.New("database.connect_timeout must be greater than zero"))
	}
	if c.Database.QueryTimeout <= 0 {
		errs = append(errs, errors.New("database.query_timeout must be greater than zero"))
	}
	if c.Database.SlowPingThreshold < 0 {
		errs = append(errs, errors.New("database.slow_ping_threshold must not be negative"))
	}

	if c.Catalog.DefaultPageSize < 1 {
		errs = append(errs, errors.New("catalog.default_page_size must be at least 1"))
	}
	if c.Catalog.MaxPageSize < 0 {
		errs = append(errs, errors.New("catalog.max_page_size cannot be negative"))
	} else if c.Catalog.MaxPageSize > 0 && c.Catalog.DefaultPageSize > c.Catalog.MaxPageSize {
		errs = append(errs, fmt.Errorf("catalog.default_page_size (%d) cannot exceed catalog.max_page_size (%d)", c.Catalog.DefaultPageSize, c.Catalog.MaxPageSize))
	}

	if !contains(validLogLevels, strings.ToLower(strings.TrimSpace(c.Observability.LogLevel))) {
		errs = append(errs, fmt.Errorf("observability.log_level must be one of %v", validLogLevels))
	}
	if !contains(validLogFormats, strings.ToLower(strings.TrimSpace(c.Observability.LogFormat))) {
		errs = append(errs, fmt.Errorf("observability.log_format must be one of %v", validLogFormats))
	}
	if c.Observability.Tracing.Enabled && strings.TrimSpace(c.Observability.Tracing.Endpoint) == "" {
		errs = append(errs, errors.New("observability.tracing.endpoint is required when tracing is enabled"))
	}
	if rate := c.Observability.Tracing.SampleRate; rate < 0 || rate > 1 {
		errs = append(errs, fmt.Errorf("observability.tracing.sample_rate must be between 0 and 1, got %g", rate))
	}

	return errors.Join(errs...)
}

func validateMongoURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return errors.New("database.url is not a valid URL")
	}
	if u.Scheme != "mongodb" && u.Scheme != "mongodb+srv" {
		return fmt.Errorf("database.url scheme must be mongodb or mongodb+srv, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("database.url must include a host")
	}
	return nil
}

func validPort(port int) bool {
	return port > 0 && port <= 65535
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

// Redacted returns a copy of the configuration with credentials masked.
func (c *Config) Redacted() *Config {
	out := *c
	out.CORS.AllowOrigins = append([]string(nil), c.CORS.AllowOrigins...)
	out.CORS.AllowMethods = append([]string(nil), c.CORS.AllowMethods...)
	out.CORS.AllowHeaders = append([]string(nil), c.CORS.AllowHeaders...)
	out.CORS.ExposeHeaders = append([]string(nil), c.CORS.ExposeHeaders...)
	out.Observability.RequestLogging.ExcludedPathPrefixes = append([]string(nil), c.Observability.RequestLogging.ExcludedPathPrefixes...)

	if out.Database.Password != "" {
		out.Database.Password = redactedValue
	}
	out.Database.URL = RedactURL(out.Database.URL)
	return &out
}

// RedactURL masks the password of a connection string. Unparseable input is masked entirely.
func RedactURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return redactedValue
	}
	if u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), redactedValue)
	}
	return u.String()
}

// String renders the redacted configuration as YAML.
func (c *Config) String() string {
	out, err := yaml.Marshal(c.Redacted())
	if err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return string(out)
}
