package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the settings required to boot the AIOps engine.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Auth       AuthConfig       `yaml:"auth"`
	Data       DataConfig       `yaml:"data"`
	Prometheus PrometheusConfig `yaml:"prometheus"`
	Alerts     AlertsConfig     `yaml:"alerts"`
	Audit      AuditConfig      `yaml:"audit"`
	Cache      CacheConfig      `yaml:"cache"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig controls HTTP listener behaviour.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
	EnableCORS      bool          `yaml:"enableCORS"`
	AllowedOrigins  []string      `yaml:"allowedOrigins"`
}

// AuthConfig controls JWT issuance and validation.
type AuthConfig struct {
	Secret   string        `yaml:"secret"`
	TokenTTL time.Duration `yaml:"tokenTTL"`
}

// DataConfig selects the snapshot source and identifies the cluster.
type DataConfig struct {
	Mode        string `yaml:"mode"` // demo, prometheus, or auto
	ClusterName string `yaml:"clusterName"`
}

// PrometheusConfig configures the optional live metric source.
type PrometheusConfig struct {
	BaseURL     string        `yaml:"baseURL"`
	Timeout     time.Duration `yaml:"timeout"`
	SnapshotTTL time.Duration `yaml:"snapshotTTL"`
}

// AlertsConfig controls alert store behaviour.
type AlertsConfig struct {
	DedupeWindow time.Duration `yaml:"dedupeWindow"`
}

// AuditConfig bounds the in-memory audit trail.
type AuditConfig struct {
	MaxEvents int `yaml:"maxEvents"`
}

// CacheConfig controls Valkey-backed caching of snapshot fetches.
type CacheConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Addr         string        `yaml:"addr"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	MaxRetries   int           `yaml:"maxRetries"`
	TLS          bool          `yaml:"tls"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("AIOPS_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":8080",
			MetricsAddress:  ":2112",
			GracefulTimeout: 10 * time.Second,
			EnableCORS:      false,
			AllowedOrigins:  []string{"*"},
		},
		Auth: AuthConfig{
			Secret:   "change-me-in-production",
			TokenTTL: 60 * time.Minute,
		},
		Data: DataConfig{
			Mode:        "auto",
			ClusterName: "k8s-openstack",
		},
		Prometheus: PrometheusConfig{
			BaseURL:     "http://prometheus:9090",
			Timeout:     3 * time.Second,
			SnapshotTTL: 15 * time.Second,
		},
		Alerts: AlertsConfig{DedupeWindow: 10 * time.Minute},
		Audit:  AuditConfig{MaxEvents: 2000},
		Cache: CacheConfig{
			Enabled:      false,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
			MaxRetries:   2,
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("AIOPS_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("AIOPS_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("AIOPS_ENABLE_CORS"); v != "" {
		cfg.Server.EnableCORS = isTruthy(v)
	}
	if v := os.Getenv("AIOPS_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitAndTrim(v)
	}
	if v := os.Getenv("AIOPS_AUTH_SECRET"); v != "" {
		cfg.Auth.Secret = v
	}
	if v := os.Getenv("AIOPS_TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Auth.TokenTTL = d
		}
	}
	if v := os.Getenv("AIOPS_DATA_MODE"); v != "" {
		cfg.Data.Mode = strings.ToLower(v)
	}
	if v := os.Getenv("AIOPS_CLUSTER_NAME"); v != "" {
		cfg.Data.ClusterName = v
	}
	if v := os.Getenv("AIOPS_PROMETHEUS_URL"); v != "" {
		cfg.Prometheus.BaseURL = v
	}
	if v := os.Getenv("AIOPS_PROMETHEUS_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Prometheus.Timeout = d
		}
	}
	if v := os.Getenv("AIOPS_PROMETHEUS_SNAPSHOT_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Prometheus.SnapshotTTL = d
		}
	}
	if v := os.Getenv("AIOPS_ALERT_DEDUPE_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Alerts.DedupeWindow = d
		}
	}
	if v := os.Getenv("AIOPS_AUDIT_MAX_EVENTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Audit.MaxEvents = n
		}
	}
	if v := os.Getenv("AIOPS_CACHE_ENABLED"); v != "" {
		cfg.Cache.Enabled = isTruthy(v)
	}
	if v := os.Getenv("AIOPS_CACHE_ADDR"); v != "" {
		cfg.Cache.Addr = v
	}
	if v := os.Getenv("AIOPS_CACHE_USERNAME"); v != "" {
		cfg.Cache.Username = v
	}
	if v := os.Getenv("AIOPS_CACHE_PASSWORD"); v != "" {
		cfg.Cache.Password = v
	}
	if v := os.Getenv("AIOPS_CACHE_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Cache.DB = db
		}
	}
	if v := os.Getenv("AIOPS_CACHE_TLS"); v != "" {
		cfg.Cache.TLS = isTruthy(v)
	}
	if v := os.Getenv("AIOPS_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("AIOPS_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
}

func isTruthy(v string) bool {
	return strings.EqualFold(v, "true") || v == "1"
}

func splitAndTrim(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
