package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var durationType = reflect.TypeOf(time.Duration(0))

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
// Every unreadable variable and failed check is reported in one error.
func Load() (*Config, error) {
	cfg := &Config{}

	var problems []string
	loadStruct(reflect.ValueOf(cfg).Elem(), &problems)
	if len(problems) > 0 {
		return nil, fmt.Errorf("config load:\n  - %s", strings.Join(problems, "\n  - "))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// loadStruct populates tagged fields from the environment, descending into
// nested structs and appending one entry to problems per bad variable.
func loadStruct(v reflect.Value, problems *[]string) {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct {
			loadStruct(fieldVal, problems)
			continue
		}

		envName := field.Tag.Get("env")
		if envName == "" {
			continue
		}

		value, ok := lookup(envName, field.Tag.Get("envAlt"))
		if !ok {
			if field.Tag.Get("required") == "true" {
				*problems = append(*problems, fmt.Sprintf("required environment variable %s is not set", envName))
				continue
			}
			value = field.Tag.Get("default")
		}
		if value == "" {
			continue
		}

		if err := setField(fieldVal, value); err != nil {
			*problems = append(*problems, fmt.Sprintf("invalid value for %s=%q: %v", envName, value, err))
		}
	}
}

// lookup returns the first non-empty value among the primary and alternate
// variable names.
func lookup(name, alt string) (string, bool) {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v, true
	}
	if alt != "" {
		if v := strings.TrimSpace(os.Getenv(alt)); v != "" {
			return v, true
		}
	}
	return "", false
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		if field.Type() == durationType {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.SetInt(int64(d))
			return nil
		}
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		field.SetInt(i)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				result = append(result, p)
			}
		}
		field.Set(reflect.ValueOf(result))

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	positive := func(name string, ok bool) {
		if !ok {
			errs = append(errs, name+" must be positive")
		}
	}

	// Server
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.WriteTimeout < 0 {
		errs = append(errs, "SERVER_WRITE_TIMEOUT must be non-negative")
	}
	positive("SERVER_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout > 0)
	positive("SERVER_REQUEST_TIMEOUT", c.Server.RequestTimeout > 0)

	// Upload
	positive("UPLOAD_MAX_FILE_SIZE", c.Upload.MaxFileSize > 0)
	positive("UPLOAD_MAX_FILES", c.Upload.MaxFiles > 0)
	positive("UPLOAD_MAX_CONCURRENT", c.Upload.MaxConcurrent > 0)
	positive("UPLOAD_MAX_WAIT_TIME", c.Upload.MaxWaitTime > 0)

	// Workspace
	positive("WORKSPACE_TTL", c.Workspace.TTL > 0)
	positive("WORKSPACE_CHECK_INTERVAL", c.Workspace.CheckInterval > 0)
	if c.Workspace.CheckInterval > c.Workspace.TTL && c.Workspace.TTL > 0 {
		errs = append(errs, fmt.Sprintf("WORKSPACE_CHECK_INTERVAL (%s) must not exceed WORKSPACE_TTL (%s)",
			c.Workspace.CheckInterval, c.Workspace.TTL))
	}

	// Rate limit
	if c.Rate.Enabled {
		positive("RATE_LIMIT_REQUESTS_PER_MINUTE", c.Rate.RequestsPerMinute > 0)
		positive("RATE_LIMIT_UPLOAD", c.Rate.UploadLimit > 0)
	}

	// Chart
	if c.Chart.Width < 100 || c.Chart.Height < 100 {
		errs = append(errs, fmt.Sprintf("CHART_WIDTH and CHART_HEIGHT (%dx%d) must be at least 100",
			c.Chart.Width, c.Chart.Height))
	}

	// Logging
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a compact representation of the config for logging.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Server: {Addr: %q}, ", c.Server.Addr())
	fmt.Fprintf(&b, "Upload: {MaxFileSize: %d, MaxFiles: %d, MaxConcurrent: %d}, ",
		c.Upload.MaxFileSize, c.Upload.MaxFiles, c.Upload.MaxConcurrent)
	fmt.Fprintf(&b, "Workspace: {TTL: %s, CheckInterval: %s}, ", c.Workspace.TTL, c.Workspace.CheckInterval)
	fmt.Fprintf(&b, "Rate: {Enabled: %v, RequestsPerMinute: %d, UploadLimit: %d}, ",
		c.Rate.Enabled, c.Rate.RequestsPerMinute, c.Rate.UploadLimit)
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}, ", c.Logging.Level, c.Logging.Format)
	fmt.Fprintf(&b, "Metrics: {Enabled: %v}", c.Metrics.Enabled)
	b.WriteString("}")
	return b.String()
}
