package config

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8080)
	}
	if cfg.Upload.MaxFileSize != 50<<20 {
		t.Errorf("Upload.MaxFileSize = %d, want %d", cfg.Upload.MaxFileSize, 50<<20)
	}
	if cfg.Upload.MaxFiles != 10 {
		t.Errorf("Upload.MaxFiles = %d, want %d", cfg.Upload.MaxFiles, 10)
	}
	if cfg.Upload.MaxConcurrent != 4 {
		t.Errorf("Upload.MaxConcurrent = %d, want %d", cfg.Upload.MaxConcurrent, 4)
	}
	if cfg.Workspace.TTL != time.Hour {
		t.Errorf("Workspace.TTL = %v, want %v", cfg.Workspace.TTL, time.Hour)
	}
	if cfg.Rate.RequestsPerMinute != 120 {
		t.Errorf("Rate.RequestsPerMinute = %d, want %d", cfg.Rate.RequestsPerMinute, 120)
	}
	if !cfg.Security.EnableCSP {
		t.Error("Security.EnableCSP should default to true")
	}
	if cfg.Chart.Width != 960 || cfg.Chart.Height != 420 {
		t.Errorf("Chart = %dx%d, want 960x420", cfg.Chart.Width, cfg.Chart.Height)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled should default to true")
	}
}

func TestLoad_OverrideDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("UPLOAD_MAX_CONCURRENT", "10")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9090)
	}
	if cfg.Upload.MaxConcurrent != 10 {
		t.Errorf("Upload.MaxConcurrent = %d, want %d", cfg.Upload.MaxConcurrent, 10)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Rate.Enabled {
		t.Error("Rate.Enabled = true, want false")
	}
}

func TestLoad_AltEnvVar(t *testing.T) {
	t.Setenv("PORT", "3000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want %d from PORT", cfg.Server.Port, 3000)
	}

	t.Setenv("SERVER_PORT", "4000")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 4000 {
		t.Errorf("Server.Port = %d, want primary SERVER_PORT %d", cfg.Server.Port, 4000)
	}
}

func TestLoad_Duration(t *testing.T) {
	t.Setenv("SERVER_READ_TIMEOUT", "45s")
	t.Setenv("UPLOAD_MAX_WAIT_TIME", "1m30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.ReadTimeout != 45*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want %v", cfg.Server.ReadTimeout, 45*time.Second)
	}
	if cfg.Upload.MaxWaitTime != 90*time.Second {
		t.Errorf("Upload.MaxWaitTime = %v, want %v", cfg.Upload.MaxWaitTime, 90*time.Second)
	}
}

func TestLoad_CommaSeparatedSlice(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 172.16.0.0/12 , ,192.168.0.0/16")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	expected := []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}
	if !reflect.DeepEqual(cfg.Security.TrustedProxies, expected) {
		t.Errorf("TrustedProxies = %q, want %q", cfg.Security.TrustedProxies, expected)
	}
}

func TestLoad_ReportsEveryBadVariable(t *testing.T) {
	t.Setenv("SERVER_PORT", "eighty")
	t.Setenv("WORKSPACE_TTL", "forever")
	t.Setenv("RATE_LIMIT_ENABLED", "maybe")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() expected error")
	}
	for _, name := range []string{"SERVER_PORT", "WORKSPACE_TTL", "RATE_LIMIT_ENABLED"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error should mention %s: %v", name, err)
		}
	}
}

func TestLoadStruct_Required(t *testing.T) {
	var target struct {
		Token string `env:"SWEEPER_TEST_TOKEN" required:"true"`
		Name  string `env:"SWEEPER_TEST_NAME" default:"anon"`
	}

	var problems []string
	loadStruct(reflect.ValueOf(&target).Elem(), &problems)
	if len(problems) != 1 || !strings.Contains(problems[0], "SWEEPER_TEST_TOKEN") {
		t.Errorf("problems = %q, want one about SWEEPER_TEST_TOKEN", problems)
	}
	if target.Name != "anon" {
		t.Errorf("Name = %q, want default", target.Name)
	}

	t.Setenv("SWEEPER_TEST_TOKEN", "abc")
	problems = nil
	loadStruct(reflect.ValueOf(&target).Elem(), &problems)
	if len(problems) != 0 || target.Token != "abc" {
		t.Errorf("problems = %q, Token = %q", problems, target.Token)
	}
}

func validConfig() *Config {
	return &Config{
		Server:    ServerConfig{Port: 8080, ShutdownTimeout: time.Second, RequestTimeout: time.Second},
		Upload:    UploadConfig{MaxFileSize: 1, MaxFiles: 1, MaxConcurrent: 1, MaxWaitTime: time.Second},
		Workspace: WorkspaceConfig{TTL: time.Hour, CheckInterval: time.Minute},
		Rate:      RateLimitConfig{Enabled: true, RequestsPerMinute: 100, UploadLimit: 10},
		Logging:   LoggingConfig{Level: "info", Format: "text"},
		Chart:     ChartConfig{Width: 800, Height: 400},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		mention string
	}{
		{name: "invalid port", mutate: func(c *Config) { c.Server.Port = 99999 }, mention: "SERVER_PORT"},
		{name: "zero max files", mutate: func(c *Config) { c.Upload.MaxFiles = 0 }, mention: "UPLOAD_MAX_FILES"},
		{name: "interval beyond ttl", mutate: func(c *Config) { c.Workspace.CheckInterval = 2 * time.Hour }, mention: "WORKSPACE_CHECK_INTERVAL"},
		{name: "rate enabled without limit", mutate: func(c *Config) { c.Rate.RequestsPerMinute = 0 }, mention: "RATE_LIMIT_REQUESTS_PER_MINUTE"},
		{name: "tiny chart", mutate: func(c *Config) { c.Chart.Width = 10 }, mention: "CHART_WIDTH"},
		{name: "invalid log level", mutate: func(c *Config) { c.Logging.Level = "verbose" }, mention: "LOG_LEVEL"},
		{name: "invalid log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, mention: "LOG_FORMAT"},
	}

	if err := validConfig().Validate(); err != nil {
		t.Fatalf("baseline config invalid: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() expected error")
			}
			if !strings.Contains(err.Error(), tt.mention) {
				t.Errorf("error should mention %s: %v", tt.mention, err)
			}
		})
	}
}

func TestValidate_RateDisabledSkipsLimits(t *testing.T) {
	cfg := validConfig()
	cfg.Rate = RateLimitConfig{Enabled: false}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil with rate limiting off", err)
	}
}

func TestValidate_CollectsAll(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	cfg.Logging.Level = "loud"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error")
	}
	if !strings.Contains(err.Error(), "SERVER_PORT") || !strings.Contains(err.Error(), "LOG_LEVEL") {
		t.Errorf("error should list both problems: %v", err)
	}
}

func TestServerAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"", 8080, ":8080"},
		{"0.0.0.0", 8080, "0.0.0.0:8080"},
		{"127.0.0.1", 3000, "127.0.0.1:3000"},
	}

	for _, tt := range tests {
		cfg := &ServerConfig{Host: tt.host, Port: tt.port}
		if got := cfg.Addr(); got != tt.want {
			t.Errorf("Addr() with host=%q, port=%d = %q, want %q", tt.host, tt.port, got, tt.want)
		}
	}
}

func TestMaxRequestSize(t *testing.T) {
	c := UploadConfig{MaxFileSize: 10, MaxFiles: 3}
	if got, want := c.MaxRequestSize(), int64(30+1<<20); got != want {
		t.Errorf("MaxRequestSize() = %d, want %d", got, want)
	}
}
